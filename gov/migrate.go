package gov

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/calehh/hac-gov/state"
	"github.com/calehh/hac-gov/types"
	"github.com/cometbft/cometbft/crypto"
	"github.com/ethereum/go-ethereum/common"
)

type Manifest struct {
	Code        []byte `json:"code"`
	VmType      uint32 `json:"vm_type"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Author      string `json:"author"`
	Email       string `json:"email"`
	Description string `json:"description"`
}

// Migrator installs new code for this module and returns its address.
type Migrator interface {
	Migrate(ctx context.Context, repo *state.Repository, m *Manifest) (types.Address, error)
}

type manifestRecord struct {
	Address types.Address `json:"address"`
	*Manifest
}

// ManifestMigrator records the manifest in state; the node operator picks it
// up on the next upgrade.
type ManifestMigrator struct{}

func (ManifestMigrator) Migrate(ctx context.Context, repo *state.Repository, m *Manifest) (addr types.Address, err error) {
	if len(m.Code) == 0 {
		return addr, errors.New("empty code")
	}
	addr = common.BytesToAddress(crypto.AddressHash(m.Code))
	dat, err := json.Marshal(manifestRecord{Address: addr, Manifest: m})
	if err != nil {
		return types.Address{}, err
	}
	err = repo.SetManifest(dat)
	return
}

// LoadManifest returns the last recorded migration, nil if none.
func LoadManifest(repo *state.Repository) (addr types.Address, m *Manifest, err error) {
	dat, err := repo.GetManifest()
	if err != nil || len(dat) == 0 {
		return
	}
	var rec manifestRecord
	if err = json.Unmarshal(dat, &rec); err != nil {
		return
	}
	return rec.Address, rec.Manifest, nil
}
