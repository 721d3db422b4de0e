// Package registry exposes the authority registry that decides who is a
// governance node and with which stake.
package registry

import (
	"context"
	"sync"

	"github.com/calehh/hac-gov/types"
)

type Registry interface {
	PeerPool(ctx context.Context) ([]types.GovNode, error)
}

// IsGovNode reports whether addr is in the current peer pool.
func IsGovNode(ctx context.Context, reg Registry, addr types.Address) (bool, error) {
	_, ok, err := find(ctx, reg, addr)
	return ok, err
}

// Weight returns the stake of addr, zero when it is not a governance node.
func Weight(ctx context.Context, reg Registry, addr types.Address) (uint64, error) {
	n, _, err := find(ctx, reg, addr)
	return n.Weight(), err
}

// Addresses lists the governance nodes in pool order.
func Addresses(ctx context.Context, reg Registry) ([]types.Address, error) {
	pool, err := reg.PeerPool(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]types.Address, 0, len(pool))
	for _, n := range pool {
		res = append(res, n.Address)
	}
	return res, nil
}

func find(ctx context.Context, reg Registry, addr types.Address) (types.GovNode, bool, error) {
	pool, err := reg.PeerPool(ctx)
	if err != nil {
		return types.GovNode{}, false, err
	}
	for _, n := range pool {
		if n.Address == addr {
			return n, true, nil
		}
	}
	return types.GovNode{}, false, nil
}

// Static serves a peer pool held in memory. The app replaces it when the
// pool stored in state changes.
type Static struct {
	mtx   sync.RWMutex
	nodes []types.GovNode
}

func NewStatic(nodes []types.GovNode) *Static {
	s := &Static{}
	s.Set(nodes)
	return s
}

func (s *Static) Set(nodes []types.GovNode) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.nodes = append([]types.GovNode{}, nodes...)
}

func (s *Static) PeerPool(ctx context.Context) ([]types.GovNode, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return append([]types.GovNode{}, s.nodes...), nil
}
