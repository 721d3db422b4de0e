package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/bits"
	"os"
	"time"

	"github.com/cometbft/cometbft/crypto"
	cmtjson "github.com/cometbft/cometbft/libs/json"
	cmttypes "github.com/cometbft/cometbft/types"
)

type GenesisState map[string]json.RawMessage

// GovGenesis is the app_state of the genesis file: the initial peer pool of
// the authority registry.
type GovGenesis struct {
	GovNodes []GovNode `json:"gov_nodes"`
}

var (
	ErrWeightOverflow   = errors.New("gov node weight overflows uint64")
	ErrDuplicateGovNode = errors.New("duplicate gov node")
)

func ParseGovGenesis(appState []byte) (gen *GovGenesis, err error) {
	gen = new(GovGenesis)
	if len(appState) == 0 {
		return
	}
	if err = json.Unmarshal(appState, gen); err != nil {
		return nil, err
	}
	if err = gen.Validate(); err != nil {
		return nil, err
	}
	return
}

// Validate rejects duplicate nodes and pools whose total weight does not fit
// in uint64, so no tally over the pool can overflow.
func (g *GovGenesis) Validate() error {
	seen := make(map[Address]struct{}, len(g.GovNodes))
	var total uint64
	for _, n := range g.GovNodes {
		if _, ok := seen[n.Address]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateGovNode, n.Address.Hex())
		}
		seen[n.Address] = struct{}{}
		w, carry := bits.Add64(n.InitPos, n.TotalPos, 0)
		if carry != 0 {
			return fmt.Errorf("%w: %s", ErrWeightOverflow, n.Address.Hex())
		}
		if total, carry = bits.Add64(total, w, 0); carry != 0 {
			return fmt.Errorf("%w: pool total", ErrWeightOverflow)
		}
	}
	return nil
}

type GenesisValidator struct {
	Address crypto.Address `json:"address"`
	PubKey  crypto.PubKey  `json:"pub_key"`
	Power   int64          `json:"power"`
	Name    string         `json:"name"`
}

// GenesisDoc defines the initial conditions for a CometBFT blockchain, in particular its validator set.
type GenesisDoc struct {
	GenesisTime     time.Time                 `json:"genesis_time"`
	ChainID         string                    `json:"chain_id"`
	InitialHeight   int64                     `json:"initial_height"`
	ConsensusParams *cmttypes.ConsensusParams `json:"consensus_params,omitempty"`
	Validators      []GenesisValidator        `json:"validators"`
	AppHash         []byte                    `json:"app_hash"`
	AppState        json.RawMessage           `json:"app_state"`
}

// SaveAs is a utility method for saving GenensisDoc as a JSON file.
func (genDoc *GenesisDoc) SaveAs(file string) error {
	genDocBytes, err := cmtjson.MarshalIndent(genDoc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(file, genDocBytes, 0o600)
}

func (ag *GenesisDoc) ValidateAndComplete() error {
	if ag.ChainID == "" {
		return errors.New("genesis doc must include non-empty chain_id")
	}

	if ag.InitialHeight < 0 {
		return fmt.Errorf("initial_height cannot be negative (got %v)", ag.InitialHeight)
	}

	if ag.InitialHeight == 0 {
		ag.InitialHeight = 1
	}

	if ag.GenesisTime.IsZero() {
		ag.GenesisTime = time.Now().Round(0).UTC()
	}

	return nil
}

func ExportGenesisFile(genesis *GenesisDoc, genFile string) error {
	if err := genesis.ValidateAndComplete(); err != nil {
		return err
	}
	return genesis.SaveAs(genFile)
}

const GovModuleName = "hacgov"
const DefaultPower = 1000
const DefaultInitPos = 10000

const (
	FlagOverwrite = "overwrite"
	FlagChainID   = "chain-id"
	FlagHome      = "home"
)
