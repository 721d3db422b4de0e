package app

import (
	"context"
	"errors"
	"strings"

	"github.com/calehh/hac-gov/codec"
	"github.com/calehh/hac-gov/state"
	"github.com/calehh/hac-gov/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
)

var ErrInvalidQueryData = errors.New("invalid query data")

const (
	QueryCodeFail        uint32 = 1
	QueryCodeInvalidData uint32 = 2
	QueryCodeNotFound    uint32 = 404
)

type Querier interface {
	Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error)
}

type QuerierFunc func(ctx context.Context, req *abcitypes.RequestQuery) (*abcitypes.ResponseQuery, error)

func (f QuerierFunc) Query(ctx context.Context, req *abcitypes.RequestQuery) (*abcitypes.ResponseQuery, error) {
	return f(ctx, req)
}

// Query answers in the local codec format. Optional values that are absent
// are returned as an empty value with code 0.
func (app *GovApp) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	path := req.Path
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	q, ok := app.queriers[path]
	if !ok {
		res = &abcitypes.ResponseQuery{}
		res.Code = QueryCodeNotFound
		return
	}
	res, err = q.Query(ctx, req)
	if err != nil {
		code := QueryCodeFail
		if errors.Is(err, ErrInvalidQueryData) {
			code = QueryCodeInvalidData
		}
		app.logger.Info("query fail", "path", path, "err", err)
		res = &abcitypes.ResponseQuery{Code: code, Log: err.Error()}
		err = nil
	}
	res.Height = int64(app.db.Header().Height)
	return
}

func queryValue(enc func(*codec.Sink)) *abcitypes.ResponseQuery {
	return &abcitypes.ResponseQuery{Value: types.EncodeToBytes(enc)}
}

func parseHash(dat []byte) (types.Hash, error) {
	h, err := codec.HashFromBytes(dat)
	if err != nil {
		return h, ErrInvalidQueryData
	}
	return h, nil
}

func parseAddress(dat []byte) (types.Address, error) {
	a, err := codec.AddressFromBytes(dat)
	if err != nil {
		return a, ErrInvalidQueryData
	}
	return a, nil
}

func (app *GovApp) queryTopics(ctx context.Context, req *abcitypes.RequestQuery) (*abcitypes.ResponseQuery, error) {
	hashes, err := app.engine.ListTopics(ctx, app.db)
	if err != nil {
		return nil, err
	}
	return queryValue(func(s *codec.Sink) {
		codec.WriteList(s, hashes, func(s *codec.Sink, h types.Hash) { s.WriteHash(h) })
	}), nil
}

func (app *GovApp) queryGovNodes(ctx context.Context, req *abcitypes.RequestQuery) (*abcitypes.ResponseQuery, error) {
	nodes, err := app.engine.ListGovNodes(ctx)
	if err != nil {
		return nil, err
	}
	return queryValue(func(s *codec.Sink) {
		codec.WriteList(s, nodes, func(s *codec.Sink, a types.Address) { s.WriteAddress(a) })
	}), nil
}

func (app *GovApp) queryTopic(ctx context.Context, req *abcitypes.RequestQuery) (*abcitypes.ResponseQuery, error) {
	hash, err := parseHash(req.Data)
	if err != nil {
		return nil, err
	}
	topic, ok, err := app.engine.GetTopic(ctx, app.db, hash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &abcitypes.ResponseQuery{}, nil
	}
	return queryValue(topic.Encode), nil
}

func (app *GovApp) queryTopicInfo(ctx context.Context, req *abcitypes.RequestQuery) (*abcitypes.ResponseQuery, error) {
	hash, err := parseHash(req.Data)
	if err != nil {
		return nil, err
	}
	info, ok, err := app.engine.GetTopicInfo(ctx, app.db, hash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &abcitypes.ResponseQuery{}, nil
	}
	return queryValue(info.Encode), nil
}

func (app *GovApp) queryVotedInfo(ctx context.Context, req *abcitypes.RequestQuery) (*abcitypes.ResponseQuery, error) {
	if len(req.Data) != codec.HashLength+codec.AddressLength {
		return nil, ErrInvalidQueryData
	}
	hash, err := parseHash(req.Data[:codec.HashLength])
	if err != nil {
		return nil, err
	}
	voter, err := parseAddress(req.Data[codec.HashLength:])
	if err != nil {
		return nil, err
	}
	st, err := app.engine.GetVotedInfo(ctx, app.db, hash, voter)
	if err != nil {
		return nil, err
	}
	return &abcitypes.ResponseQuery{Value: []byte{byte(st)}}, nil
}

func (app *GovApp) queryVotedAddress(ctx context.Context, req *abcitypes.RequestQuery) (*abcitypes.ResponseQuery, error) {
	hash, err := parseHash(req.Data)
	if err != nil {
		return nil, err
	}
	votes, err := app.engine.GetVotedAddress(ctx, app.db, hash)
	if err != nil {
		return nil, err
	}
	return queryValue(func(s *codec.Sink) { types.EncodeVotedInfos(s, votes) }), nil
}

func (app *GovApp) queryTopicsByAddress(ctx context.Context, req *abcitypes.RequestQuery) (*abcitypes.ResponseQuery, error) {
	addr, err := parseAddress(req.Data)
	if err != nil {
		return nil, err
	}
	infos, err := app.engine.GetTopicInfoListByAddress(ctx, app.db, addr)
	if err != nil {
		return nil, err
	}
	return queryValue(func(s *codec.Sink) {
		codec.WriteList(s, infos, func(s *codec.Sink, info *types.TopicInfo) { info.Encode(s) })
	}), nil
}

// queryNonce answers the nonce the next transaction of an address must carry.
func (app *GovApp) queryNonce(ctx context.Context, req *abcitypes.RequestQuery) (*abcitypes.ResponseQuery, error) {
	addr, err := parseAddress(req.Data)
	if err != nil {
		return nil, err
	}
	var nonce uint64
	err = app.db.View(func(repo *state.Repository) (err error) {
		nonce, err = repo.GetNonce(addr)
		return
	})
	if err != nil {
		return nil, err
	}
	return queryValue(func(s *codec.Sink) { s.WriteU64(nonce) }), nil
}
