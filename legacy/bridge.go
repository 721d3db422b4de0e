package legacy

import (
	"context"
	"errors"
	"fmt"

	"github.com/calehh/hac-gov/codec"
	"github.com/calehh/hac-gov/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

// Operation names of the predecessor deployment.
const (
	MethodGetTopic                  = "getTopic"
	MethodGetTopicInfo              = "getTopicInfo"
	MethodGetVotedInfo              = "getVotedInfo"
	MethodGetVotedAddress           = "getVotedAddress"
	MethodListTopics                = "listTopics"
	MethodGetTopicInfoListByAddress = "getTopicInfoListByAdmin"
)

// ErrLegacyUnavailable reports that the predecessor could not answer. Read
// queries treat it as absence; state transitions must not.
var ErrLegacyUnavailable = errors.New("legacy deployment unavailable")

// Bridge turns legacy replies into values. An empty reply, or no configured
// caller, is reported as absence. A failed call wraps ErrLegacyUnavailable and
// a reply that does not decode is an error.
type Bridge struct {
	logger cmtlog.Logger
	caller Caller
}

func NewBridge(caller Caller, logger cmtlog.Logger) *Bridge {
	return &Bridge{
		logger: logger.With("module", "legacy"),
		caller: caller,
	}
}

func (b *Bridge) call(ctx context.Context, method string, args ...any) (p *codec.VmValueParser, err error) {
	if b == nil || b.caller == nil {
		return nil, nil
	}
	reply, err := b.caller.Call(ctx, method, args...)
	if err != nil {
		b.logger.Info("legacy call fail", "method", method, "err", err)
		return nil, fmt.Errorf("%w: %s: %v", ErrLegacyUnavailable, method, err)
	}
	if len(reply) == 0 {
		return nil, nil
	}
	p, err = codec.NewVmValueParser(reply)
	if err != nil {
		return nil, fmt.Errorf("legacy %s: %w", method, err)
	}
	return
}

func (b *Bridge) GetTopic(ctx context.Context, hash types.Hash) (*types.Topic, bool, error) {
	p, err := b.call(ctx, MethodGetTopic, hash)
	if p == nil || err != nil {
		return nil, false, err
	}
	topic, err := types.DecodeLegacyTopic(p)
	if err != nil {
		return nil, false, fmt.Errorf("legacy %s: %w", MethodGetTopic, err)
	}
	return topic, true, nil
}

func (b *Bridge) GetTopicInfo(ctx context.Context, hash types.Hash) (*types.TopicInfo, bool, error) {
	p, err := b.call(ctx, MethodGetTopicInfo, hash[:])
	if p == nil || err != nil {
		return nil, false, err
	}
	info, err := types.DecodeLegacyTopicInfo(p)
	if err != nil {
		return nil, false, fmt.Errorf("legacy %s: %w", MethodGetTopicInfo, err)
	}
	return info, true, nil
}

func (b *Bridge) GetVotedInfo(ctx context.Context, hash types.Hash, voter types.Address) (types.VotedState, error) {
	p, err := b.call(ctx, MethodGetVotedInfo, hash, voter)
	if p == nil || err != nil {
		return types.VotedNone, err
	}
	n, err := p.Number()
	if err != nil {
		return types.VotedNone, fmt.Errorf("legacy %s: %w", MethodGetVotedInfo, err)
	}
	if !n.IsUint64() {
		return types.VotedNone, nil
	}
	switch st := types.VotedState(n.Uint64()); st {
	case types.VotedApprove, types.VotedReject:
		return st, nil
	}
	return types.VotedNone, nil
}

func (b *Bridge) GetVotedAddress(ctx context.Context, hash types.Hash) ([]types.VotedInfo, error) {
	p, err := b.call(ctx, MethodGetVotedAddress, hash)
	if p == nil || err != nil {
		return nil, err
	}
	items, err := p.ByteArrayList()
	if err != nil {
		return nil, fmt.Errorf("legacy %s: %w", MethodGetVotedAddress, err)
	}
	res := make([]types.VotedInfo, 0, len(items))
	for _, item := range items {
		vi, err := types.DecodeLegacyVotedInfo(item)
		if err != nil {
			return nil, fmt.Errorf("legacy %s: %w", MethodGetVotedAddress, err)
		}
		res = append(res, vi)
	}
	return res, nil
}

func (b *Bridge) ListTopics(ctx context.Context) ([]types.Hash, error) {
	p, err := b.call(ctx, MethodListTopics)
	if p == nil || err != nil {
		return nil, err
	}
	items, err := p.ByteArrayList()
	if err != nil {
		return nil, fmt.Errorf("legacy %s: %w", MethodListTopics, err)
	}
	res := make([]types.Hash, 0, len(items))
	for _, item := range items {
		h, err := codec.HashFromBytes(item)
		if err != nil {
			return nil, fmt.Errorf("legacy %s: %w", MethodListTopics, err)
		}
		res = append(res, h)
	}
	return res, nil
}

func (b *Bridge) GetTopicInfoListByAddress(ctx context.Context, addr types.Address) ([]*types.TopicInfo, error) {
	p, err := b.call(ctx, MethodGetTopicInfoListByAddress, addr)
	if p == nil || err != nil {
		return nil, err
	}
	list, err := codec.VmList(p, types.DecodeLegacyTopicInfo)
	if err != nil {
		return nil, fmt.Errorf("legacy %s: %w", MethodGetTopicInfoListByAddress, err)
	}
	return list, nil
}
