package app

import (
	"context"
	"errors"
	"time"

	"github.com/calehh/hac-gov/gov"
	"github.com/calehh/hac-gov/legacy"
	"github.com/calehh/hac-gov/state"
	"github.com/calehh/hac-gov/tx"
	"github.com/calehh/hac-gov/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
)

var (
	ErrUnexpectedTxProcess = errors.New("unexpected tx process")
	ErrNoTxHandler         = errors.New("unsupported tx")
)

func (app *GovApp) parseTx(txDat []byte) (gtx *tx.GovTx, signer types.Address, err error) {
	gtx, err = tx.UnmarshalGovTx(txDat)
	if err != nil {
		return
	}
	signer, err = gtx.Signer(app.db.Header().ChainId)
	return
}

// execTx runs one transaction on its own branch of st. The nonce of the
// signer advances in st once the nonce matches; the branch reaches st only
// when the handler succeeds. The returned error is set when the predecessor
// could not be read, a failure that must not become part of a block result.
func (app *GovApp) execTx(ctx context.Context, st *state.State, txDat []byte, now uint64) (*abcitypes.ExecTxResult, error) {
	gtx, signer, err := app.parseTx(txDat)
	if err != nil {
		app.logger.Info("parse tx fail", "err", err)
		return &abcitypes.ExecTxResult{Code: 1, Log: err.Error()}, nil
	}
	h, ok := app.txHdlrs[gtx.Type]
	if !ok {
		return &abcitypes.ExecTxResult{Code: 1, Log: ErrNoTxHandler.Error()}, nil
	}
	repo := state.NewRepository(st)
	if err = repo.CheckNonce(signer, gtx.Nonce, false); err != nil {
		app.logger.Info("verify tx nonce fail", "signer", signer.Hex(), "err", err)
		return &abcitypes.ExecTxResult{Code: 1, Log: err.Error()}, nil
	}
	if err = repo.SetNonce(signer, gtx.Nonce+1); err != nil {
		return &abcitypes.ExecTxResult{Code: 1, Log: err.Error()}, nil
	}
	branch := st.Branch()
	inv := &gov.Invocation{
		Repo:      state.NewRepository(branch),
		Now:       now,
		Witnesses: []types.Address{signer},
	}
	result, err := h.Process(ctx, inv, gtx)
	if err != nil {
		branch.Discard()
		app.logger.Info("process tx fail", "type", gtx.Type, "err", err)
		res := &abcitypes.ExecTxResult{Code: 1, Log: err.Error()}
		if errors.Is(err, legacy.ErrLegacyUnavailable) {
			return res, err
		}
		return res, nil
	}
	if result == nil {
		branch.Discard()
		return &abcitypes.ExecTxResult{Code: 1, Log: ErrUnexpectedTxProcess.Error()}, nil
	}
	if err = branch.Write(); err != nil {
		app.logger.Error("write tx branch fail", "type", gtx.Type, "err", err)
		return &abcitypes.ExecTxResult{Code: 1, Log: err.Error()}, nil
	}
	return result, nil
}

func (app *GovApp) CheckTx(ctx context.Context, check *abcitypes.RequestCheckTx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	gtx, signer, err := app.parseTx(check.Tx)
	if err != nil {
		app.logger.Info("parse tx fail", "err", err)
		res.Code = 1
		res.Log = err.Error()
		err = nil
		return
	}
	app.logger.Debug("check tx", "type", gtx.Type)
	h, ok := app.txHdlrs[gtx.Type]
	if !ok {
		app.logger.Error("unsupported tx", "type", gtx.Type)
		res.Code = 1
		res.Log = ErrNoTxHandler.Error()
		return
	}
	repo := state.NewRepository(app.db.NewState())
	if err = repo.CheckNonce(signer, gtx.Nonce, true); err != nil {
		app.logger.Info("verify tx nonce fail", "signer", signer.Hex(), "err", err)
		res.Code = 1
		res.Log = err.Error()
		err = nil
		return
	}
	inv := &gov.Invocation{
		Repo:      repo,
		Now:       uint64(time.Now().Unix()),
		Witnesses: []types.Address{signer},
	}
	res, err = h.Check(ctx, inv, gtx)
	if err != nil {
		app.logger.Error("check tx fail", "err", err)
		res = &abcitypes.ResponseCheckTx{Code: 1, Log: err.Error()}
		err = nil
	}
	return
}

// PrepareProposal keeps the transactions that succeed in order, up to the
// byte limit of the block.
func (app *GovApp) PrepareProposal(ctx context.Context, proposal *abcitypes.RequestPrepareProposal) (res *abcitypes.ResponsePrepareProposal, err error) {
	st := app.db.NewState()
	now := uint64(proposal.Time.Unix())
	txs := make([][]byte, 0, len(proposal.Txs))
	var size int64
	for _, stx := range proposal.Txs {
		if size+int64(len(stx)) > proposal.MaxTxBytes {
			break
		}
		result, _ := app.execTx(ctx, st, stx, now)
		if result.Code != 0 {
			app.logger.Info("drop tx from proposal", "log", result.Log)
			continue
		}
		size += int64(len(stx))
		txs = append(txs, stx)
	}
	st.Discard()
	app.logger.Info("PrepareProposal", "height", proposal.Height, "txs", len(txs))
	return &abcitypes.ResponsePrepareProposal{Txs: txs}, nil
}

// ProcessProposal rejects blocks carrying transactions that do not parse or
// whose signature does not verify. Failing operations stay in the block with
// a non-zero code.
func (app *GovApp) ProcessProposal(ctx context.Context, proposal *abcitypes.RequestProcessProposal) (res *abcitypes.ResponseProcessProposal, err error) {
	res = &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_REJECT}
	for _, stx := range proposal.Txs {
		if _, _, err := app.parseTx(stx); err != nil {
			app.logger.Error("ProcessProposal parse tx fail", "height", proposal.Height, "err", err)
			return res, nil
		}
	}
	res.Status = abcitypes.ResponseProcessProposal_ACCEPT
	return res, nil
}

func (app *GovApp) FinalizeBlock(ctx context.Context, req *abcitypes.RequestFinalizeBlock) (*abcitypes.ResponseFinalizeBlock, error) {
	app.lastBlk.Set(req)
	st := app.db.NewState()
	res := make([]*abcitypes.ExecTxResult, len(req.Txs))
	for i, stx := range req.Txs {
		var err error
		res[i], err = app.execTx(ctx, st, stx, app.lastBlk.Time)
		if err != nil {
			// a node that cannot read the predecessor stops here rather than
			// commit a result its peers would not
			app.logger.Error("FinalizeBlock halted", "height", req.Height, "tx", i, "err", err)
			st.Discard()
			return nil, err
		}
	}
	h, err := app.db.Update(st, app.lastBlk.Height)
	if err != nil {
		app.logger.Error("state update hash fail", "err", err)
		return nil, err
	}
	app.logger.Info("FinalizeBlock", "height", req.Height, "txs", len(req.Txs), "hash", h.Hex())
	return &abcitypes.ResponseFinalizeBlock{
		TxResults: res,
		AppHash:   h.Bytes(),
	}, nil
}

func (app *GovApp) Commit(ctx context.Context, commit *abcitypes.RequestCommit) (*abcitypes.ResponseCommit, error) {
	h, err := app.db.Save()
	if err != nil {
		return nil, err
	}
	app.logger.Info("Commit", "height", app.lastBlk.Height, "hash", h.Hex())
	return &abcitypes.ResponseCommit{}, nil
}
