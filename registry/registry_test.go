package registry

import (
	"context"
	"testing"

	"github.com/calehh/hac-gov/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticRegistry(t *testing.T) {
	a := common.HexToAddress("0x01")
	b := common.HexToAddress("0x02")
	reg := NewStatic([]types.GovNode{{Address: a, InitPos: 100, TotalPos: 50}})
	ctx := context.Background()

	ok, err := IsGovNode(ctx, reg, a)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = IsGovNode(ctx, reg, b)
	require.NoError(t, err)
	assert.False(t, ok)

	w, err := Weight(ctx, reg, a)
	require.NoError(t, err)
	assert.Equal(t, uint64(150), w)
	w, err = Weight(ctx, reg, b)
	require.NoError(t, err)
	assert.Zero(t, w)

	reg.Set([]types.GovNode{{Address: b, InitPos: 1}, {Address: a, InitPos: 2}})
	addrs, err := Addresses(ctx, reg)
	require.NoError(t, err)
	assert.Equal(t, []types.Address{b, a}, addrs)
}
