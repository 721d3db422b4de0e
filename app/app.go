package app

import (
	"context"
	"path/filepath"

	"github.com/calehh/hac-gov/config"
	"github.com/calehh/hac-gov/gov"
	"github.com/calehh/hac-gov/legacy"
	"github.com/calehh/hac-gov/registry"
	"github.com/calehh/hac-gov/state"
	"github.com/calehh/hac-gov/tx"
	"github.com/calehh/hac-gov/tx/handler"
	"github.com/calehh/hac-gov/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cometbft/cometbft/store"
	"github.com/ethereum/go-ethereum/common"
)

type finalizeBlock struct {
	Height uint64
	Hash   common.Hash
	Time   uint64
}

func (b *finalizeBlock) Set(blk *abcitypes.RequestFinalizeBlock) {
	b.Height = uint64(blk.Height)
	b.Hash = common.BytesToHash(blk.Hash)
	b.Time = uint64(blk.Time.Unix())
}

var _ abcitypes.Application = &GovApp{}

type GovApp struct {
	cfg    *config.GovConfig
	logger cmtlog.Logger

	db       *state.StateDB
	lastBlk  finalizeBlock
	registry *registry.Static
	engine   *gov.Engine
	txHdlrs  map[tx.GovTxType]handler.TxHandler
	queriers map[string]Querier
}

func NewGovApp(cfg *config.GovConfig, logger cmtlog.Logger) (app *GovApp, err error) {
	logger = logger.With("module", "app")
	db, err := state.NewStateDB(filepath.Join(cfg.Home, "data"), logger)
	if err != nil {
		return nil, err
	}
	var caller legacy.Caller
	if cfg.LegacyRPC != "" {
		caller, err = legacy.NewRPCCaller(cfg.LegacyRPC, cfg.LegacyContract, cfg.LegacyTimeout, logger)
		if err != nil {
			return nil, err
		}
	}
	return newGovApp(cfg, db, caller, logger)
}

func newGovApp(cfg *config.GovConfig, db *state.StateDB, caller legacy.Caller, logger cmtlog.Logger) (app *GovApp, err error) {
	superAdmin, err := cfg.SuperAdminAddress()
	if err != nil {
		return nil, err
	}
	nodes, err := db.Repository().GetGovNodes()
	if err != nil {
		return nil, err
	}
	reg := registry.NewStatic(nodes)
	engine := gov.NewEngine(reg, legacy.NewBridge(caller, logger), gov.ManifestMigrator{}, superAdmin, logger)
	app = &GovApp{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		registry: reg,
		engine:   engine,
		txHdlrs:  handler.New(engine, logger),
		queriers: make(map[string]Querier),
	}
	app.registerQuerier()
	return
}

// Engine serves the HTTP API.
func (app *GovApp) Engine() *gov.Engine {
	return app.engine
}

func (app *GovApp) DB() *state.StateDB {
	return app.db
}

func (app *GovApp) Start(bs *store.BlockStore) {
	height := app.db.Header().Height
	if height > 0 {
		blk := bs.LoadBlock(int64(height))
		if blk == nil {
			panic("unexpected BlockStore")
		}
		app.lastBlk.Height = height
		app.lastBlk.Hash = common.BytesToHash(blk.Hash())
		app.lastBlk.Time = uint64(blk.Time.Unix())
	}
}

func (app *GovApp) Stop() {
	err := app.db.Close()
	if err != nil {
		app.logger.Error("close db fail", "err", err)
	}
	app.logger.Info("gov app stopped")
}

func (app *GovApp) registerQuerier() {
	app.queriers = map[string]Querier{
		"/topics/":          QuerierFunc(app.queryTopics),
		"/govNodes/":        QuerierFunc(app.queryGovNodes),
		"/topic/":           QuerierFunc(app.queryTopic),
		"/topicInfo/":       QuerierFunc(app.queryTopicInfo),
		"/votedInfo/":       QuerierFunc(app.queryVotedInfo),
		"/votedAddress/":    QuerierFunc(app.queryVotedAddress),
		"/topicsByAddress/": QuerierFunc(app.queryTopicsByAddress),
		"/nonce/":           QuerierFunc(app.queryNonce),
	}
}

func (app *GovApp) InitChain(_ context.Context, chain *abcitypes.RequestInitChain) (res *abcitypes.ResponseInitChain, err error) {
	gen, err := types.ParseGovGenesis(chain.AppStateBytes)
	if err != nil {
		app.logger.Error("InitChain parse genesis fail", "err", err)
		return nil, err
	}
	app.db.SetChainId(chain.ChainId)
	st := app.db.NewState()
	if err = state.NewRepository(st).PutGovNodes(gen.GovNodes); err != nil {
		app.logger.Error("InitChain put gov nodes fail", "err", err)
		return nil, err
	}
	var height uint64
	if chain.InitialHeight > 1 {
		height = uint64(chain.InitialHeight) - 1
	}
	h, err := app.db.Update(st, height)
	if err != nil {
		app.logger.Error("InitChain apply state fail", "err", err)
		return nil, err
	}
	app.registry.Set(gen.GovNodes)
	app.logger.Info("InitChain", "chainId", chain.ChainId, "govNodes", len(gen.GovNodes))
	return &abcitypes.ResponseInitChain{
		AppHash: h.Bytes(),
	}, nil
}

func (app *GovApp) Info(ctx context.Context, info *abcitypes.RequestInfo) (*abcitypes.ResponseInfo, error) {
	header := app.db.Header()
	return &abcitypes.ResponseInfo{
		LastBlockHeight:  int64(header.Height),
		LastBlockAppHash: header.Hash,
	}, nil
}

func (app *GovApp) ExtendVote(_ context.Context, extend *abcitypes.RequestExtendVote) (*abcitypes.ResponseExtendVote, error) {
	return &abcitypes.ResponseExtendVote{}, nil
}

func (app *GovApp) VerifyVoteExtension(_ context.Context, verify *abcitypes.RequestVerifyVoteExtension) (*abcitypes.ResponseVerifyVoteExtension, error) {
	return &abcitypes.ResponseVerifyVoteExtension{Status: abcitypes.ResponseVerifyVoteExtension_ACCEPT}, nil
}

func (app *GovApp) ApplySnapshotChunk(context.Context, *abcitypes.RequestApplySnapshotChunk) (*abcitypes.ResponseApplySnapshotChunk, error) {
	return &abcitypes.ResponseApplySnapshotChunk{}, nil
}

func (app *GovApp) ListSnapshots(context.Context, *abcitypes.RequestListSnapshots) (*abcitypes.ResponseListSnapshots, error) {
	return &abcitypes.ResponseListSnapshots{}, nil
}

func (app *GovApp) LoadSnapshotChunk(context.Context, *abcitypes.RequestLoadSnapshotChunk) (*abcitypes.ResponseLoadSnapshotChunk, error) {
	return &abcitypes.ResponseLoadSnapshotChunk{}, nil
}

func (app *GovApp) OfferSnapshot(context.Context, *abcitypes.RequestOfferSnapshot) (*abcitypes.ResponseOfferSnapshot, error) {
	return &abcitypes.ResponseOfferSnapshot{}, nil
}
