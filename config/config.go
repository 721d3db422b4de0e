package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/calehh/hac-gov/types"
	"github.com/cometbft/cometbft/config"
	"github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
	"github.com/ethereum/go-ethereum/common"
)

const (
	DefaultAPIListen     = "127.0.0.1:8080"
	DefaultHomeDir       = "$HOME/.hacgov"
	DefaultLegacyTimeout = 3 * time.Second
)

var ErrInvalidSuperAdmin = errors.New("invalid super admin address")

type GovConfig struct {
	Home string `mapstructure:"-"`

	// SuperAdmin is the only identity allowed to migrate.
	SuperAdmin string `mapstructure:"super_admin"`
	// LegacyContract and LegacyRPC locate the predecessor deployment. Reads
	// fall back to it when LegacyRPC is set.
	LegacyContract string `mapstructure:"legacy_contract"`
	LegacyRPC      string `mapstructure:"legacy_rpc"`
	// LegacyTimeout bounds each call to the predecessor.
	LegacyTimeout time.Duration `mapstructure:"legacy_timeout"`
	APIListen     string        `mapstructure:"api_listen"`
	// APICorsOrigins lists the origins allowed to call the API, all when empty.
	APICorsOrigins []string `mapstructure:"api_cors_origins"`
}

func DefaultGovConfig(home string) *GovConfig {
	return &GovConfig{
		Home:          home,
		APIListen:     DefaultAPIListen,
		LegacyTimeout: DefaultLegacyTimeout,
	}
}

func (c *GovConfig) SuperAdminAddress() (types.Address, error) {
	if !common.IsHexAddress(c.SuperAdmin) {
		return types.Address{}, fmt.Errorf("%w: %q", ErrInvalidSuperAdmin, c.SuperAdmin)
	}
	return common.HexToAddress(c.SuperAdmin), nil
}

func (c *GovConfig) ValidateBasic() error {
	if _, err := c.SuperAdminAddress(); err != nil {
		return err
	}
	if c.LegacyRPC != "" && c.LegacyContract == "" {
		return errors.New("legacy_contract is required with legacy_rpc")
	}
	if c.LegacyTimeout <= 0 {
		return errors.New("legacy_timeout must be positive")
	}
	return nil
}

type Config struct {
	*config.Config `mapstructure:",squash"`

	Gov *GovConfig `mapstructure:"gov"`
}

func DefaultConfig(home string) *Config {
	if len(home) == 0 {
		home = os.ExpandEnv(DefaultHomeDir)
	}
	cfg := &Config{
		DefaultGovCometConfig(),
		DefaultGovConfig(home),
	}
	cfg.SetRoot(home)
	_ = os.MkdirAll(home+"/config", 0755)
	return cfg
}

func (c *Config) ValidateBasic() error {
	if err := c.Config.ValidateBasic(); err != nil {
		return err
	}
	return c.Gov.ValidateBasic()
}

func InitializeNodeValidatorFiles(config *Config, privKey crypto.PrivKey) (nodeID string, pk crypto.PubKey, err error) {
	nodeKey, err := p2p.LoadOrGenNodeKey(config.NodeKeyFile())
	if err != nil {
		return "", nil, err
	}
	nodeID = string(nodeKey.ID())

	pvKeyFile := config.PrivValidatorKeyFile()
	if err := os.MkdirAll(filepath.Dir(pvKeyFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvKeyFile), err)
	}

	pvStateFile := config.PrivValidatorStateFile()
	if err := os.MkdirAll(filepath.Dir(pvStateFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvStateFile), err)
	}

	var filePV *privval.FilePV
	if privKey == nil {
		filePV = privval.LoadOrGenFilePV(pvKeyFile, pvStateFile)
	} else {
		filePV = privval.NewFilePV(privKey, pvKeyFile, pvStateFile)
		filePV.Save()
	}
	pukey, err := filePV.GetPubKey()
	if err != nil {
		return "", nil, err
	}

	return nodeID, pukey, nil
}

func DefaultGovCometConfig() *config.Config {
	cometConfig := config.DefaultConfig()
	cometConfig.Consensus.TimeoutPropose = time.Second * 3
	cometConfig.Consensus.TimeoutPrevote = time.Second * 1
	cometConfig.Consensus.TimeoutPrecommit = time.Second * 1
	cometConfig.Consensus.TimeoutCommit = time.Millisecond * 1200
	return cometConfig
}
