package gov

import (
	"context"
	"errors"
	"fmt"

	"github.com/calehh/hac-gov/legacy"
	"github.com/calehh/hac-gov/registry"
	"github.com/calehh/hac-gov/state"
	"github.com/calehh/hac-gov/types"
)

// Viewer runs fn against a consistent view of the local repository. The
// legacy fallback of a read runs after fn returns, so a slow predecessor
// never holds the view.
type Viewer interface {
	View(fn func(repo *state.Repository) error) error
}

// Reads consult the local repository first and the predecessor deployment on
// a miss. List reads concatenate both sources without deduplication. An
// unavailable predecessor reads as absent here; the lifecycle operations use
// the strict variants below and fail instead.

func (e *Engine) tolerate(err error) error {
	if errors.Is(err, legacy.ErrLegacyUnavailable) {
		e.logger.Info("legacy unavailable, read as absent", "err", err)
		return nil
	}
	return err
}

func (e *Engine) GetTopic(ctx context.Context, v Viewer, hash types.Hash) (*types.Topic, bool, error) {
	topic, ok, err := e.getTopic(ctx, v, hash)
	return topic, ok, e.tolerate(err)
}

func (e *Engine) GetTopicInfo(ctx context.Context, v Viewer, hash types.Hash) (*types.TopicInfo, bool, error) {
	info, ok, err := e.getTopicInfo(ctx, v, hash)
	return info, ok, e.tolerate(err)
}

func (e *Engine) GetVotedInfo(ctx context.Context, v Viewer, hash types.Hash, voter types.Address) (types.VotedState, error) {
	st, err := e.getVotedInfo(ctx, v, hash, voter)
	return st, e.tolerate(err)
}

func (e *Engine) GetVotedAddress(ctx context.Context, v Viewer, hash types.Hash) ([]types.VotedInfo, error) {
	votes, err := e.getVotedAddress(ctx, v, hash)
	return votes, e.tolerate(err)
}

func (e *Engine) ListTopics(ctx context.Context, v Viewer) ([]types.Hash, error) {
	var hashes []types.Hash
	err := v.View(func(repo *state.Repository) (err error) {
		hashes, err = repo.ListTopicHashes()
		return
	})
	if err != nil {
		return nil, err
	}
	old, err := e.bridge.ListTopics(ctx)
	if err = e.tolerate(err); err != nil {
		return nil, err
	}
	return append(hashes, old...), nil
}

func (e *Engine) GetTopicInfoListByAddress(ctx context.Context, v Viewer, addr types.Address) ([]*types.TopicInfo, error) {
	res := make([]*types.TopicInfo, 0)
	err := v.View(func(repo *state.Repository) error {
		hashes, err := repo.ListTopicHashes()
		if err != nil {
			return err
		}
		for _, h := range hashes {
			info, ok, err := repo.GetTopicInfo(h)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("indexed topic %s: %w", h.Hex(), ErrTopicNotFound)
			}
			if info.Creator == addr {
				res = append(res, info)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	old, err := e.bridge.GetTopicInfoListByAddress(ctx, addr)
	if err = e.tolerate(err); err != nil {
		return nil, err
	}
	return append(res, old...), nil
}

func (e *Engine) ListGovNodes(ctx context.Context) ([]types.Address, error) {
	return registry.Addresses(ctx, e.registry)
}

func (e *Engine) getTopic(ctx context.Context, v Viewer, hash types.Hash) (topic *types.Topic, ok bool, err error) {
	err = v.View(func(repo *state.Repository) (err error) {
		topic, ok, err = repo.GetTopic(hash)
		return
	})
	if err != nil || ok {
		return
	}
	return e.bridge.GetTopic(ctx, hash)
}

func (e *Engine) getTopicInfo(ctx context.Context, v Viewer, hash types.Hash) (info *types.TopicInfo, ok bool, err error) {
	err = v.View(func(repo *state.Repository) (err error) {
		info, ok, err = repo.GetTopicInfo(hash)
		return
	})
	if err != nil || ok {
		return
	}
	return e.bridge.GetTopicInfo(ctx, hash)
}

func (e *Engine) getVotedInfo(ctx context.Context, v Viewer, hash types.Hash, voter types.Address) (types.VotedState, error) {
	var votes []types.VotedInfo
	err := v.View(func(repo *state.Repository) (err error) {
		votes, err = repo.GetVotedInfos(hash)
		return
	})
	if err != nil {
		return types.VotedNone, err
	}
	for _, vi := range votes {
		if vi.Voter == voter {
			return vi.State(), nil
		}
	}
	return e.bridge.GetVotedInfo(ctx, hash, voter)
}

func (e *Engine) getVotedAddress(ctx context.Context, v Viewer, hash types.Hash) ([]types.VotedInfo, error) {
	var votes []types.VotedInfo
	err := v.View(func(repo *state.Repository) (err error) {
		votes, err = repo.GetVotedInfos(hash)
		return
	})
	if err != nil {
		return nil, err
	}
	if len(votes) != 0 {
		return votes, nil
	}
	return e.bridge.GetVotedAddress(ctx, hash)
}
