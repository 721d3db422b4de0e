package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndReadConfig(t *testing.T) {
	home := t.TempDir()
	cfg := DefaultConfig(home)
	cfg.Gov.SuperAdmin = "0x9999999999999999999999999999999999999999"
	cfg.Gov.LegacyContract = "legacyvote"
	cfg.Gov.LegacyRPC = "tcp://127.0.0.1:36657"
	cfg.Gov.APICorsOrigins = []string{"http://localhost:3000", "https://gov.example.org"}
	cfg.Gov.LegacyTimeout = 1500 * time.Millisecond

	path := filepath.Join(home, "config", "config.toml")
	require.NoError(t, WriteConfigFile(path, cfg))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	loaded := &Config{
		Config: DefaultGovCometConfig(),
		Gov:    DefaultGovConfig(home),
	}
	require.NoError(t, v.Unmarshal(loaded))

	assert.Equal(t, cfg.Gov.SuperAdmin, loaded.Gov.SuperAdmin)
	assert.Equal(t, "legacyvote", loaded.Gov.LegacyContract)
	assert.Equal(t, "tcp://127.0.0.1:36657", loaded.Gov.LegacyRPC)
	assert.Equal(t, DefaultAPIListen, loaded.Gov.APIListen)
	assert.Equal(t, cfg.Gov.APICorsOrigins, loaded.Gov.APICorsOrigins)
	assert.Equal(t, 1500*time.Millisecond, loaded.Gov.LegacyTimeout)
	assert.Equal(t, cfg.Consensus.TimeoutCommit, loaded.Consensus.TimeoutCommit)

	admin, err := loaded.Gov.SuperAdminAddress()
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(cfg.Gov.SuperAdmin), admin)
}

func TestGovConfigValidate(t *testing.T) {
	c := DefaultGovConfig("")
	assert.ErrorIs(t, c.ValidateBasic(), ErrInvalidSuperAdmin)

	c.SuperAdmin = "0x9999999999999999999999999999999999999999"
	assert.NoError(t, c.ValidateBasic())

	c.LegacyRPC = "tcp://127.0.0.1:36657"
	assert.Error(t, c.ValidateBasic())
	c.LegacyContract = "legacyvote"
	assert.NoError(t, c.ValidateBasic())

	c.LegacyTimeout = 0
	assert.Error(t, c.ValidateBasic())
}
