package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/calehh/hac-gov/codec"
	"github.com/calehh/hac-gov/config"
	"github.com/calehh/hac-gov/gov"
	"github.com/calehh/hac-gov/legacy"
	"github.com/calehh/hac-gov/state"
	"github.com/calehh/hac-gov/tx"
	"github.com/calehh/hac-gov/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	"github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testChainId = "hac-gov-test"

type testNode struct {
	priv  crypto.PrivKey
	addr  types.Address
	nonce uint64
}

func newTestNode() *testNode {
	priv := ed25519.GenPrivKey()
	return &testNode{priv: priv, addr: tx.PubKeyAddress(priv.PubKey())}
}

func (n *testNode) sign(t *testing.T, tp tx.GovTxType, body any) []byte {
	gtx := &tx.GovTx{Type: tp, Nonce: n.nonce, Tx: body}
	n.nonce++
	require.NoError(t, gtx.Sign(n.priv, testChainId))
	dat, err := tx.MarshalGovTx(gtx)
	require.NoError(t, err)
	return dat
}

func newTestApp(t *testing.T, nodes ...*testNode) *GovApp {
	return newLegacyTestApp(t, nil, nodes...)
}

func newLegacyTestApp(t *testing.T, caller legacy.Caller, nodes ...*testNode) *GovApp {
	logger := cmtlog.NewNopLogger()
	db, err := state.NewMemStateDB(logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	app, err := newGovApp(&config.GovConfig{SuperAdmin: nodes[0].addr.Hex()}, db, caller, logger)
	require.NoError(t, err)

	gen := `{"gov_nodes":[`
	for i, n := range nodes {
		if i > 0 {
			gen += ","
		}
		gen += fmt.Sprintf(`{"address":"%s","init_pos":%d,"total_pos":0}`, n.addr.Hex(), 10*(i+1))
	}
	gen += `]}`
	res, err := app.InitChain(context.Background(), &abcitypes.RequestInitChain{
		ChainId:       testChainId,
		InitialHeight: 1,
		AppStateBytes: []byte(gen),
	})
	require.NoError(t, err)
	assert.Len(t, res.AppHash, 32)
	return app
}

func finalize(t *testing.T, app *GovApp, height int64, now int64, txs ...[]byte) *abcitypes.ResponseFinalizeBlock {
	ctx := context.Background()
	res, err := app.FinalizeBlock(ctx, &abcitypes.RequestFinalizeBlock{
		Height: height,
		Time:   time.Unix(now, 0),
		Txs:    txs,
	})
	require.NoError(t, err)
	_, err = app.Commit(ctx, &abcitypes.RequestCommit{})
	require.NoError(t, err)
	return res
}

func query(t *testing.T, app *GovApp, path string, data []byte) *abcitypes.ResponseQuery {
	res, err := app.Query(context.Background(), &abcitypes.RequestQuery{Path: path, Data: data})
	require.NoError(t, err)
	return res
}

func queryNonce(t *testing.T, app *GovApp, addr types.Address) uint64 {
	q := query(t, app, "/nonce/", addr[:])
	require.Equal(t, uint32(0), q.Code, q.Log)
	nonce, err := types.DecodeFromBytes(q.Value, func(s *codec.Source) (uint64, error) { return s.ReadU64() })
	require.NoError(t, err)
	return nonce
}

func TestBlockLifecycle(t *testing.T) {
	a, b := newTestNode(), newTestNode()
	app := newTestApp(t, a, b)
	hash := gov.TopicHash([]byte("title"), []byte("detail"))

	res := finalize(t, app, 1, 100,
		a.sign(t, tx.GovTxTypeCreateTopic, &tx.CreateTopicTx{
			Creator: a.addr, Title: []byte("title"), Detail: []byte("detail"), StartTime: 150, EndTime: 400,
		}),
		// before the window opens
		a.sign(t, tx.GovTxTypeVoteTopic, &tx.VoteTopicTx{Hash: hash, Voter: a.addr, Approve: true}),
		// signed by b on behalf of a
		b.sign(t, tx.GovTxTypeCreateTopic, &tx.CreateTopicTx{
			Creator: a.addr, Title: []byte("x"), Detail: []byte("y"), StartTime: 150, EndTime: 400,
		}),
	)
	require.Len(t, res.TxResults, 3)
	assert.Equal(t, uint32(0), res.TxResults[0].Code)
	assert.Equal(t, hash.Bytes(), res.TxResults[0].Data)
	assert.Equal(t, gov.ErrOutsideVotingWindow.Error(), res.TxResults[1].Log)
	assert.Equal(t, gov.ErrNotWitnessed.Error(), res.TxResults[2].Log)

	res = finalize(t, app, 2, 200,
		a.sign(t, tx.GovTxTypeVoteTopic, &tx.VoteTopicTx{Hash: hash, Voter: a.addr, Approve: true}),
		b.sign(t, tx.GovTxTypeVoteTopic, &tx.VoteTopicTx{Hash: hash, Voter: b.addr, Approve: false}),
	)
	for _, r := range res.TxResults {
		assert.Equal(t, uint32(0), r.Code, r.Log)
	}

	info, err := app.Info(context.Background(), &abcitypes.RequestInfo{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), info.LastBlockHeight)
	assert.Equal(t, res.AppHash, info.LastBlockAppHash)

	q := query(t, app, "/topicInfo", hash[:])
	require.Equal(t, uint32(0), q.Code)
	ti, err := types.DecodeFromBytes(q.Value, types.DecodeTopicInfo)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), ti.Approve)
	assert.Equal(t, uint64(20), ti.Reject)
	assert.Equal(t, int64(2), q.Height)

	q = query(t, app, "/topics/", nil)
	hashes, err := types.DecodeFromBytes(q.Value, func(s *codec.Source) ([]types.Hash, error) {
		return codec.ReadList(s, func(s *codec.Source) (types.Hash, error) { return s.ReadHash() })
	})
	require.NoError(t, err)
	assert.Equal(t, []types.Hash{hash}, hashes)

	q = query(t, app, "/votedInfo/", append(hash.Bytes(), b.addr.Bytes()...))
	assert.Equal(t, []byte{byte(types.VotedReject)}, q.Value)

	q = query(t, app, "/votedAddress/", hash[:])
	votes, err := types.DecodeFromBytes(q.Value, types.DecodeVotedInfos)
	require.NoError(t, err)
	assert.Len(t, votes, 2)

	q = query(t, app, "/topicsByAddress/", a.addr[:])
	infos, err := types.DecodeFromBytes(q.Value, func(s *codec.Source) ([]*types.TopicInfo, error) {
		return codec.ReadList(s, types.DecodeTopicInfo)
	})
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, hash, infos[0].Hash)

	q = query(t, app, "/govNodes/", nil)
	nodes, err := types.DecodeFromBytes(q.Value, func(s *codec.Source) ([]types.Address, error) {
		return codec.ReadList(s, func(s *codec.Source) (types.Address, error) { return s.ReadAddress() })
	})
	require.NoError(t, err)
	assert.Equal(t, []types.Address{a.addr, b.addr}, nodes)
}

func TestFailedTxLeavesNoTrace(t *testing.T) {
	a := newTestNode()
	app := newTestApp(t, a)
	before := app.db.Hash()

	// the cancel of an unknown topic fails after nothing was written
	res := finalize(t, app, 1, 100,
		a.sign(t, tx.GovTxTypeCancelTopic, &tx.CancelTopicTx{Hash: gov.TopicHash([]byte("a"), []byte("b"))}),
		a.sign(t, tx.GovTxTypeCreateTopic, &tx.CreateTopicTx{
			Creator: a.addr, Title: []byte("t"), Detail: []byte("d"), StartTime: 200, EndTime: 100,
		}),
	)
	assert.Equal(t, uint32(1), res.TxResults[0].Code)
	assert.Equal(t, uint32(1), res.TxResults[1].Code)

	count, err := app.db.Repository().TopicHashCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
	// failed transactions still consume their nonce
	assert.Equal(t, uint64(2), queryNonce(t, app, a.addr))
	assert.NotEqual(t, before, app.db.Hash())
}

func TestCheckTxAndProposals(t *testing.T) {
	ctx := context.Background()
	a := newTestNode()
	app := newTestApp(t, a)

	good := a.sign(t, tx.GovTxTypeCreateTopic, &tx.CreateTopicTx{
		Creator: a.addr, Title: []byte("t"), Detail: []byte("d"), StartTime: 1, EndTime: uint64(time.Now().Unix()) + 3600,
	})
	chk, err := app.CheckTx(ctx, &abcitypes.RequestCheckTx{Tx: good})
	require.NoError(t, err)
	assert.Equal(t, uint32(0), chk.Code, chk.Log)

	chk, err = app.CheckTx(ctx, &abcitypes.RequestCheckTx{Tx: []byte("garbage")})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), chk.Code)

	forged := newTestNode()
	bad := forged.sign(t, tx.GovTxTypeCreateTopic, &tx.CreateTopicTx{
		Creator: forged.addr, Title: []byte("t"), Detail: []byte("d"), StartTime: 1, EndTime: 10,
	})
	chk, err = app.CheckTx(ctx, &abcitypes.RequestCheckTx{Tx: bad})
	require.NoError(t, err)
	assert.Equal(t, gov.ErrNotGovNode.Error(), chk.Log)

	prep, err := app.PrepareProposal(ctx, &abcitypes.RequestPrepareProposal{
		Height: 1, Time: time.Unix(5, 0), MaxTxBytes: 1 << 20, Txs: [][]byte{good, good, bad},
	})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{good}, prep.Txs)

	proc, err := app.ProcessProposal(ctx, &abcitypes.RequestProcessProposal{Txs: [][]byte{good, bad}})
	require.NoError(t, err)
	assert.Equal(t, abcitypes.ResponseProcessProposal_ACCEPT, proc.Status)
	proc, err = app.ProcessProposal(ctx, &abcitypes.RequestProcessProposal{Txs: [][]byte{[]byte("garbage")}})
	require.NoError(t, err)
	assert.Equal(t, abcitypes.ResponseProcessProposal_REJECT, proc.Status)

	// proposals never touch committed state
	count, err := app.db.Repository().TopicHashCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestQueryErrors(t *testing.T) {
	app := newTestApp(t, newTestNode())
	assert.Equal(t, QueryCodeNotFound, query(t, app, "/unknown/", nil).Code)
	assert.Equal(t, QueryCodeInvalidData, query(t, app, "/topic/", []byte{1, 2}).Code)
	assert.Equal(t, QueryCodeInvalidData, query(t, app, "/votedInfo/", make([]byte, 40)).Code)

	q := query(t, app, "/topic/", make([]byte, 32))
	assert.Equal(t, uint32(0), q.Code)
	assert.Empty(t, q.Value)
}

func TestReplayRejected(t *testing.T) {
	a, b := newTestNode(), newTestNode()
	app := newTestApp(t, a, b)
	hash := gov.TopicHash([]byte("title"), []byte("detail"))

	res := finalize(t, app, 1, 100, a.sign(t, tx.GovTxTypeCreateTopic, &tx.CreateTopicTx{
		Creator: a.addr, Title: []byte("title"), Detail: []byte("detail"), StartTime: 150, EndTime: 400,
	}))
	require.Equal(t, uint32(0), res.TxResults[0].Code, res.TxResults[0].Log)

	approve := b.sign(t, tx.GovTxTypeVoteTopic, &tx.VoteTopicTx{Hash: hash, Voter: b.addr, Approve: true})
	res = finalize(t, app, 2, 200, approve)
	require.Equal(t, uint32(0), res.TxResults[0].Code, res.TxResults[0].Log)

	res = finalize(t, app, 3, 210,
		b.sign(t, tx.GovTxTypeVoteTopic, &tx.VoteTopicTx{Hash: hash, Voter: b.addr, Approve: false}))
	require.Equal(t, uint32(0), res.TxResults[0].Code, res.TxResults[0].Log)
	assert.Equal(t, uint64(2), queryNonce(t, app, b.addr))

	// the same bytes would flip the vote back if accepted
	res = finalize(t, app, 4, 220, approve)
	assert.Equal(t, uint32(1), res.TxResults[0].Code)
	assert.Contains(t, res.TxResults[0].Log, state.ErrTxNonceInvalid.Error())
	assert.Equal(t, uint64(2), queryNonce(t, app, b.addr))

	chk, err := app.CheckTx(context.Background(), &abcitypes.RequestCheckTx{Tx: approve})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), chk.Code)

	q := query(t, app, "/topicInfo/", hash[:])
	ti, err := types.DecodeFromBytes(q.Value, types.DecodeTopicInfo)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), ti.Approve)
	assert.Equal(t, uint64(20), ti.Reject)
}

func TestCheckTxNonceGap(t *testing.T) {
	ctx := context.Background()
	a := newTestNode()
	app := newTestApp(t, a)
	create := func() []byte {
		return a.sign(t, tx.GovTxTypeCreateTopic, &tx.CreateTopicTx{
			Creator: a.addr, Title: []byte(fmt.Sprint(a.nonce)), Detail: []byte("d"), StartTime: 1, EndTime: uint64(time.Now().Unix()) + 3600,
		})
	}

	res := finalize(t, app, 1, 100, create(), create())
	for _, r := range res.TxResults {
		require.Equal(t, uint32(0), r.Code, r.Log)
	}
	assert.Equal(t, uint64(2), queryNonce(t, app, a.addr))

	// a pending transaction may run ahead of the committed nonce
	a.nonce = 5
	chk, err := app.CheckTx(ctx, &abcitypes.RequestCheckTx{Tx: create()})
	require.NoError(t, err)
	assert.Equal(t, uint32(0), chk.Code, chk.Log)

	a.nonce = 1
	stale := create()
	chk, err = app.CheckTx(ctx, &abcitypes.RequestCheckTx{Tx: stale})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), chk.Code)
	assert.Contains(t, chk.Log, state.ErrTxNonceInvalid.Error())

	// a block accepts only the exact nonce
	a.nonce = 3
	res = finalize(t, app, 2, 200, create())
	assert.Equal(t, uint32(1), res.TxResults[0].Code)
	assert.Equal(t, uint64(2), queryNonce(t, app, a.addr))
}

func TestFinalizeHaltsWhenLegacyUnavailable(t *testing.T) {
	ctx := context.Background()
	a := newTestNode()
	mock := legacy.NewMockCaller()
	app := newLegacyTestApp(t, mock, a)
	hash := gov.TopicHash([]byte("title"), []byte("detail"))
	mock.Fail(errors.New("connection refused"), legacy.MethodGetTopic, hash)
	before := app.db.Hash()

	create := a.sign(t, tx.GovTxTypeCreateTopic, &tx.CreateTopicTx{
		Creator: a.addr, Title: []byte("title"), Detail: []byte("detail"), StartTime: 1, EndTime: 400,
	})
	prep, err := app.PrepareProposal(ctx, &abcitypes.RequestPrepareProposal{
		Height: 1, Time: time.Unix(100, 0), MaxTxBytes: 1 << 20, Txs: [][]byte{create},
	})
	require.NoError(t, err)
	assert.Empty(t, prep.Txs)

	_, err = app.FinalizeBlock(ctx, &abcitypes.RequestFinalizeBlock{
		Height: 1, Time: time.Unix(100, 0), Txs: [][]byte{create},
	})
	assert.ErrorIs(t, err, legacy.ErrLegacyUnavailable)
	assert.Equal(t, before, app.db.Hash())
	assert.Equal(t, uint64(0), queryNonce(t, app, a.addr))

	mock.Fail(nil, legacy.MethodGetTopic, hash)
	res := finalize(t, app, 1, 100, create)
	assert.Equal(t, uint32(0), res.TxResults[0].Code, res.TxResults[0].Log)
}
