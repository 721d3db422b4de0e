package crypto

import (
	"fmt"
	"os"

	"github.com/calehh/hac-gov/tx"
	"github.com/calehh/hac-gov/types"
	"github.com/cometbft/cometbft/crypto"
	cmtjson "github.com/cometbft/cometbft/libs/json"
	"github.com/cometbft/cometbft/privval"
)

// PV signs governance transactions with a CometBFT validator key.
type PV struct {
	privateKey crypto.PrivKey
	publicKey  crypto.PubKey
}

func LoadFilePV(keyFilePath string) (*PV, error) {
	keyJSONBytes, err := os.ReadFile(keyFilePath)
	if err != nil {
		return nil, err
	}
	pvKey := privval.FilePVKey{}
	err = cmtjson.Unmarshal(keyJSONBytes, &pvKey)
	if err != nil {
		return nil, fmt.Errorf("error reading PrivValidator key from %v: %w", keyFilePath, err)
	}
	return NewPV(pvKey.PrivKey), nil
}

func NewPV(priv crypto.PrivKey) *PV {
	return &PV{
		privateKey: priv,
		publicKey:  priv.PubKey(),
	}
}

func (k *PV) PublicKey() []byte {
	return k.publicKey.Bytes()
}

// Address is the governance identity of the key.
func (k *PV) Address() types.Address {
	return tx.PubKeyAddress(k.publicKey)
}

func (k *PV) Sign(data []byte) ([]byte, error) {
	return k.privateKey.Sign(data)
}

// SignTx signs gtx for chainId and returns its wire encoding.
func (k *PV) SignTx(gtx *tx.GovTx, chainId string) ([]byte, error) {
	if err := gtx.Sign(k.privateKey, chainId); err != nil {
		return nil, err
	}
	return tx.MarshalGovTx(gtx)
}
