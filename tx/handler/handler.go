package handler

import (
	"context"

	"github.com/calehh/hac-gov/gov"
	"github.com/calehh/hac-gov/tx"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

// TxHandler runs one kind of transaction against the state branch of inv.
// Check is run on a branch the caller discards.
type TxHandler interface {
	Check(ctx context.Context, inv *gov.Invocation, gtx *tx.GovTx) (res *abcitypes.ResponseCheckTx, err error)
	Process(ctx context.Context, inv *gov.Invocation, gtx *tx.GovTx) (res *abcitypes.ExecTxResult, err error)
}

type handleFunc func(ctx context.Context, inv *gov.Invocation, gtx *tx.GovTx) (*abcitypes.ExecTxResult, error)

func check(ctx context.Context, logger cmtlog.Logger, inv *gov.Invocation, gtx *tx.GovTx, handle handleFunc) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	_, err1 := handle(ctx, inv, gtx)
	if err1 != nil {
		logger.Info("CheckTx fail", "type", gtx.Type, "err", err1)
		res.Code = 1
		res.Log = err1.Error()
	}
	return
}

// New returns the handlers of every supported transaction type.
func New(engine *gov.Engine, logger cmtlog.Logger) map[tx.GovTxType]TxHandler {
	return map[tx.GovTxType]TxHandler{
		tx.GovTxTypeCreateTopic: NewCreateTopicTxHandler(engine, logger),
		tx.GovTxTypeCancelTopic: NewCancelTopicTxHandler(engine, logger),
		tx.GovTxTypeVoteTopic:   NewVoteTopicTxHandler(engine, logger),
		tx.GovTxTypeMigrate:     NewMigrateTxHandler(engine, logger),
	}
}
