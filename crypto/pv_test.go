package crypto

import (
	"path/filepath"
	"testing"

	"github.com/calehh/hac-gov/tx"
	"github.com/cometbft/cometbft/privval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFilePVAndSign(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "priv_validator_key.json")
	filePV := privval.GenFilePV(keyFile, filepath.Join(dir, "priv_validator_state.json"))
	filePV.Save()

	pv, err := LoadFilePV(keyFile)
	require.NoError(t, err)
	assert.Equal(t, filePV.Key.PubKey.Bytes(), pv.PublicKey())

	dat, err := pv.SignTx(&tx.GovTx{Type: tx.GovTxTypeCancelTopic, Tx: &tx.CancelTopicTx{}}, "hac-gov")
	require.NoError(t, err)
	gtx, err := tx.UnmarshalGovTx(dat)
	require.NoError(t, err)
	signer, err := gtx.Signer("hac-gov")
	require.NoError(t, err)
	assert.Equal(t, pv.Address(), signer)

	_, err = LoadFilePV(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
