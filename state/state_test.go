package state

import (
	"bytes"
	"testing"

	"github.com/calehh/hac-gov/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapStore map[string][]byte

func (m mapStore) Get(key []byte) ([]byte, error) {
	return m[string(key)], nil
}

func (m mapStore) Set(key, value []byte) error {
	m[string(key)] = value
	return nil
}

func TestBranchWriteAndDiscard(t *testing.T) {
	base := mapStore{}
	st := NewState(base)
	require.NoError(t, st.Set([]byte("a"), []byte("1")))

	br := st.Branch()
	val, err := br.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), val)

	require.NoError(t, br.Set([]byte("b"), []byte("2")))
	br.Discard()
	val, err = st.Get([]byte("b"))
	require.NoError(t, err)
	assert.Nil(t, val)

	br = st.Branch()
	require.NoError(t, br.Set([]byte("b"), []byte("3")))
	require.NoError(t, br.Write())
	val, err = st.Get([]byte("b"))
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), val)
	assert.Empty(t, base)

	require.NoError(t, st.Write())
	assert.Equal(t, []byte("1"), base["a"])
	assert.Equal(t, []byte("3"), base["b"])
	assert.Equal(t, 0, st.Dirty())
}

func TestRepositoryTopics(t *testing.T) {
	repo := NewRepository(NewState(mapStore{}))
	h := common.HexToHash("0x01")

	_, ok, err := repo.GetTopic(h)
	require.NoError(t, err)
	assert.False(t, ok)

	topic := &types.Topic{Title: []byte("title"), Detail: []byte("detail")}
	require.NoError(t, repo.PutTopic(h, topic))
	got, ok, err := repo.GetTopic(h)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, topic, got)

	info := &types.TopicInfo{Title: []byte("title"), StartTime: 1, EndTime: 4, Status: types.TopicStatusActive, Hash: h}
	require.NoError(t, repo.PutTopicInfo(info))
	gotInfo, ok, err := repo.GetTopicInfo(h)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, info, gotInfo)

	votes, err := repo.GetVotedInfos(h)
	require.NoError(t, err)
	assert.Empty(t, votes)
	votes = []types.VotedInfo{{Voter: common.HexToAddress("0x02"), Weight: 5, Approve: true}}
	require.NoError(t, repo.PutVotedInfos(h, votes))
	got2, err := repo.GetVotedInfos(h)
	require.NoError(t, err)
	assert.Equal(t, votes, got2)
}

func TestTopicHashIndex(t *testing.T) {
	store := mapStore{}
	repo := NewRepository(NewState(store))
	hashes := []types.Hash{common.HexToHash("0x0a"), common.HexToHash("0x0b"), common.HexToHash("0x0c")}
	for i, h := range hashes {
		idx, err := repo.AppendTopicHash(h)
		require.NoError(t, err)
		assert.Equal(t, uint64(i), idx)
	}
	got, err := repo.ListTopicHashes()
	require.NoError(t, err)
	assert.Equal(t, hashes, got)

	require.NoError(t, repo.State().Write())
	assert.Contains(t, store, "030")
	assert.Contains(t, store, "032")
	assert.Contains(t, store, "05")
}

func TestRepositoryCorruptValue(t *testing.T) {
	store := mapStore{}
	h := common.HexToHash("0x01")
	store[string(GetKey(PreTopicInfo, h[:]))] = []byte{1, 2}
	repo := NewRepository(NewState(store))
	_, _, err := repo.GetTopicInfo(h)
	assert.Error(t, err)
}

func TestStateDBCommit(t *testing.T) {
	db, err := NewMemStateDB(cmtlog.NewNopLogger())
	require.NoError(t, err)
	defer db.Close()
	db.SetChainId("test-chain")

	st := db.NewState()
	repo := NewRepository(st)
	h := common.HexToHash("0x01")
	require.NoError(t, repo.PutTopic(h, &types.Topic{Title: []byte("t")}))
	_, err = repo.AppendTopicHash(h)
	require.NoError(t, err)

	working, err := db.Update(st, 1)
	require.NoError(t, err)
	saved, err := db.Save()
	require.NoError(t, err)
	assert.Equal(t, working, saved)
	assert.Equal(t, saved, db.Hash())
	assert.Equal(t, uint64(1), db.Header().Height)

	topic, ok, err := db.Repository().GetTopic(h)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("t"), topic.Title)

	hashes, err := db.Repository().ListTopicHashes()
	require.NoError(t, err)
	assert.Equal(t, []types.Hash{h}, hashes)
}

func TestGovNodesRoundTrip(t *testing.T) {
	repo := NewRepository(NewState(mapStore{}))
	nodes := []types.GovNode{{Address: common.HexToAddress("0x01"), InitPos: 1, TotalPos: 2}}
	require.NoError(t, repo.PutGovNodes(nodes))
	got, err := repo.GetGovNodes()
	require.NoError(t, err)
	assert.Equal(t, nodes, got)
}

func TestNonce(t *testing.T) {
	repo := NewRepository(NewState(mapStore{}))
	addr := common.HexToAddress("0x01")

	n, err := repo.GetNonce(addr)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), n)
	assert.NoError(t, repo.CheckNonce(addr, 0, false))
	assert.ErrorIs(t, repo.CheckNonce(addr, 1, false), ErrTxNonceInvalid)
	assert.NoError(t, repo.CheckNonce(addr, 1, true))

	require.NoError(t, repo.SetNonce(addr, 3))
	n, err = repo.GetNonce(addr)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)
	assert.ErrorIs(t, repo.CheckNonce(addr, 2, true), ErrTxNonceInvalid)
	assert.ErrorIs(t, repo.CheckNonce(addr, 4, false), ErrTxNonceInvalid)
	assert.NoError(t, repo.CheckNonce(addr, 3, false))

	other, err := repo.GetNonce(common.HexToAddress("0x02"))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), other)
}

func TestTreeLoggerTagsModule(t *testing.T) {
	var buf bytes.Buffer
	lg := Cometbft2CosmosLogger(cmtlog.NewTMLogger(cmtlog.NewSyncWriter(&buf)))
	lg.With("version", 3).Info("tree loaded")
	assert.Contains(t, buf.String(), "module=iavl")
	assert.Contains(t, buf.String(), "version=3")
	assert.Contains(t, buf.String(), "tree loaded")
	assert.NotNil(t, lg.Impl())
}
