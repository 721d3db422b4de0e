package tx

import (
	"encoding/json"

	"github.com/calehh/hac-gov/types"
	"github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/ethereum/go-ethereum/common"
)

type GovTx struct {
	Version uint8     `json:"version"`
	Type    GovTxType `json:"type"`
	Nonce   uint64    `json:"nonce"`
	PubKey  []byte    `json:"pubKey"`
	Tx      any       `json:"tx"`
	Sig     []byte    `json:"sig"`
}

type CreateTopicTx struct {
	Creator   types.Address `json:"creator"`
	Title     []byte        `json:"title"`
	Detail    []byte        `json:"detail"`
	StartTime uint64        `json:"startTime"`
	EndTime   uint64        `json:"endTime"`
}

type CancelTopicTx struct {
	Hash types.Hash `json:"hash"`
}

type VoteTopicTx struct {
	Hash    types.Hash    `json:"hash"`
	Voter   types.Address `json:"voter"`
	Approve bool          `json:"approve"`
}

type MigrateTx struct {
	Code        []byte `json:"code"`
	VmType      uint32 `json:"vmType"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Author      string `json:"author"`
	Email       string `json:"email"`
	Description string `json:"description"`
}

type govTxTmpl[Tx any] struct {
	Version uint8     `json:"version"`
	Type    GovTxType `json:"type"`
	Nonce   uint64    `json:"nonce"`
	PubKey  []byte    `json:"pubKey"`
	Tx      Tx        `json:"tx"`
	Sig     []byte    `json:"sig"`
}

// SigData is the message signed by the sender: the tx with its signature
// replaced by the chain id.
func (tx *GovTx) SigData(chainId string) (dat []byte, err error) {
	ntx := *tx
	ntx.Sig = []byte(chainId)
	dat, err = json.Marshal(ntx)
	return
}

func (tx *GovTx) Sign(priv crypto.PrivKey, chainId string) (err error) {
	tx.PubKey = priv.PubKey().Bytes()
	dat, err := tx.SigData(chainId)
	if err != nil {
		return
	}
	tx.Sig, err = priv.Sign(dat)
	return
}

// Signer verifies the signature and returns the address of the sender.
func (tx *GovTx) Signer(chainId string) (addr types.Address, err error) {
	if len(tx.PubKey) != ed25519.PubKeySize {
		return addr, ErrInvalidPubKey
	}
	pk := ed25519.PubKey(tx.PubKey)
	dat, err := tx.SigData(chainId)
	if err != nil {
		return
	}
	if !pk.VerifySignature(dat, tx.Sig) {
		return addr, ErrInvalidSignature
	}
	return PubKeyAddress(pk), nil
}

// PubKeyAddress maps a consensus key to the identity used in governance.
func PubKeyAddress(pk crypto.PubKey) types.Address {
	return common.BytesToAddress(pk.Address())
}

func parseGovTxType(dat []byte) GovTxType {
	var tx struct {
		Type GovTxType `json:"type"`
	}
	err := json.Unmarshal(dat, &tx)
	if err != nil {
		return GovTxTypeUnknown
	}
	return tx.Type
}

func unmarshalGovTx[Tx any](dat []byte) (gtx *GovTx, err error) {
	var txt govTxTmpl[Tx]
	err = json.Unmarshal(dat, &txt)
	if err != nil {
		return
	}
	if txt.Version != GovTxVersion0 {
		return nil, ErrUnsupportedTxVersion
	}
	gtx = new(GovTx)
	gtx.Version = txt.Version
	gtx.Type = txt.Type
	gtx.Nonce = txt.Nonce
	gtx.PubKey = txt.PubKey
	gtx.Tx = &txt.Tx
	gtx.Sig = txt.Sig
	return
}

func UnmarshalGovTx(dat []byte) (gtx *GovTx, err error) {
	tp := parseGovTxType(dat)
	switch tp {
	case GovTxTypeCreateTopic:
		return unmarshalGovTx[CreateTopicTx](dat)
	case GovTxTypeCancelTopic:
		return unmarshalGovTx[CancelTopicTx](dat)
	case GovTxTypeVoteTopic:
		return unmarshalGovTx[VoteTopicTx](dat)
	case GovTxTypeMigrate:
		return unmarshalGovTx[MigrateTx](dat)
	default:
		err = ErrUnsupportedTxType
	}
	return
}

func MarshalGovTx(gtx *GovTx) (dat []byte, err error) {
	return json.Marshal(gtx)
}
