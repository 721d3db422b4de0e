package handler

import (
	"context"

	"github.com/calehh/hac-gov/gov"
	"github.com/calehh/hac-gov/tx"
	"github.com/calehh/hac-gov/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type MigrateTxHandler struct {
	logger cmtlog.Logger
	engine *gov.Engine
}

func NewMigrateTxHandler(engine *gov.Engine, logger cmtlog.Logger) *MigrateTxHandler {
	return &MigrateTxHandler{
		logger: logger.With("module", "migrateTx"),
		engine: engine,
	}
}

func (h *MigrateTxHandler) handle(ctx context.Context, inv *gov.Invocation, gtx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	mtx, ok := gtx.Tx.(*tx.MigrateTx)
	if !ok {
		return nil, tx.ErrInvalidTx
	}
	event, err := h.engine.Migrate(ctx, inv, &gov.Manifest{
		Code:        mtx.Code,
		VmType:      mtx.VmType,
		Name:        mtx.Name,
		Version:     mtx.Version,
		Author:      mtx.Author,
		Email:       mtx.Email,
		Description: mtx.Description,
	})
	if err != nil {
		return nil, err
	}
	res = &abcitypes.ExecTxResult{
		Data:   event.Address.Bytes(),
		Events: []abcitypes.Event{types.EncodeEventMigrate(event)},
	}
	return
}

func (h *MigrateTxHandler) Check(ctx context.Context, inv *gov.Invocation, gtx *tx.GovTx) (*abcitypes.ResponseCheckTx, error) {
	return check(ctx, h.logger, inv, gtx, h.handle)
}

func (h *MigrateTxHandler) Process(ctx context.Context, inv *gov.Invocation, gtx *tx.GovTx) (*abcitypes.ExecTxResult, error) {
	return h.handle(ctx, inv, gtx)
}
