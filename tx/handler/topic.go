package handler

import (
	"context"

	"github.com/calehh/hac-gov/gov"
	"github.com/calehh/hac-gov/tx"
	"github.com/calehh/hac-gov/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type CreateTopicTxHandler struct {
	logger cmtlog.Logger
	engine *gov.Engine
}

func NewCreateTopicTxHandler(engine *gov.Engine, logger cmtlog.Logger) *CreateTopicTxHandler {
	return &CreateTopicTxHandler{
		logger: logger.With("module", "createTopicTx"),
		engine: engine,
	}
}

func (h *CreateTopicTxHandler) handle(ctx context.Context, inv *gov.Invocation, gtx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	ttx, ok := gtx.Tx.(*tx.CreateTopicTx)
	if !ok {
		return nil, tx.ErrInvalidTx
	}
	event, err := h.engine.CreateTopic(ctx, inv, ttx.Creator, ttx.Title, ttx.Detail, ttx.StartTime, ttx.EndTime)
	if err != nil {
		return nil, err
	}
	res = &abcitypes.ExecTxResult{
		Data:   event.Hash.Bytes(),
		Events: []abcitypes.Event{types.EncodeEventCreateTopic(event)},
	}
	return
}

func (h *CreateTopicTxHandler) Check(ctx context.Context, inv *gov.Invocation, gtx *tx.GovTx) (*abcitypes.ResponseCheckTx, error) {
	return check(ctx, h.logger, inv, gtx, h.handle)
}

func (h *CreateTopicTxHandler) Process(ctx context.Context, inv *gov.Invocation, gtx *tx.GovTx) (*abcitypes.ExecTxResult, error) {
	return h.handle(ctx, inv, gtx)
}

type CancelTopicTxHandler struct {
	logger cmtlog.Logger
	engine *gov.Engine
}

func NewCancelTopicTxHandler(engine *gov.Engine, logger cmtlog.Logger) *CancelTopicTxHandler {
	return &CancelTopicTxHandler{
		logger: logger.With("module", "cancelTopicTx"),
		engine: engine,
	}
}

func (h *CancelTopicTxHandler) handle(ctx context.Context, inv *gov.Invocation, gtx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	ttx, ok := gtx.Tx.(*tx.CancelTopicTx)
	if !ok {
		return nil, tx.ErrInvalidTx
	}
	event, err := h.engine.CancelTopic(ctx, inv, ttx.Hash)
	if err != nil {
		return nil, err
	}
	res = &abcitypes.ExecTxResult{
		Events: []abcitypes.Event{types.EncodeEventCancelTopic(event)},
	}
	return
}

func (h *CancelTopicTxHandler) Check(ctx context.Context, inv *gov.Invocation, gtx *tx.GovTx) (*abcitypes.ResponseCheckTx, error) {
	return check(ctx, h.logger, inv, gtx, h.handle)
}

func (h *CancelTopicTxHandler) Process(ctx context.Context, inv *gov.Invocation, gtx *tx.GovTx) (*abcitypes.ExecTxResult, error) {
	return h.handle(ctx, inv, gtx)
}

type VoteTopicTxHandler struct {
	logger cmtlog.Logger
	engine *gov.Engine
}

func NewVoteTopicTxHandler(engine *gov.Engine, logger cmtlog.Logger) *VoteTopicTxHandler {
	return &VoteTopicTxHandler{
		logger: logger.With("module", "voteTopicTx"),
		engine: engine,
	}
}

func (h *VoteTopicTxHandler) handle(ctx context.Context, inv *gov.Invocation, gtx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	vtx, ok := gtx.Tx.(*tx.VoteTopicTx)
	if !ok {
		return nil, tx.ErrInvalidTx
	}
	event, err := h.engine.VoteTopic(ctx, inv, vtx.Hash, vtx.Voter, vtx.Approve)
	if err != nil {
		return nil, err
	}
	res = &abcitypes.ExecTxResult{
		Events: []abcitypes.Event{types.EncodeEventVoteTopic(event)},
	}
	return
}

func (h *VoteTopicTxHandler) Check(ctx context.Context, inv *gov.Invocation, gtx *tx.GovTx) (*abcitypes.ResponseCheckTx, error) {
	return check(ctx, h.logger, inv, gtx, h.handle)
}

func (h *VoteTopicTxHandler) Process(ctx context.Context, inv *gov.Invocation, gtx *tx.GovTx) (*abcitypes.ExecTxResult, error) {
	return h.handle(ctx, inv, gtx)
}
