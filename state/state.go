package state

import (
	"errors"
	"sort"

	"github.com/cosmos/iavl"
	"github.com/syndtr/goleveldb/leveldb"
)

var (
	ErrTxNonceInvalid = errors.New("tx nonce invalid")
)

// KVStore is the raw key/value surface a State reads from and flushes into.
type KVStore interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
}

type treeStore struct {
	tree *iavl.MutableTree
}

func (t treeStore) Get(key []byte) ([]byte, error) {
	val, err := t.tree.Get(key)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return val, nil
}

func (t treeStore) Set(key, value []byte) (err error) {
	_, err = t.tree.Set(key, value)
	return
}

// State buffers writes over a parent store. A branch taken with Branch sees
// the writes of its parent; its own writes reach the parent only on Write.
type State struct {
	parent KVStore
	cache  map[string][]byte
}

func NewState(parent KVStore) *State {
	return &State{
		parent: parent,
		cache:  make(map[string][]byte),
	}
}

func (s *State) Get(key []byte) ([]byte, error) {
	if val, ok := s.cache[string(key)]; ok {
		return val, nil
	}
	return s.parent.Get(key)
}

func (s *State) Set(key, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	s.cache[string(key)] = append([]byte{}, value...)
	return nil
}

func (s *State) Branch() *State {
	return NewState(s)
}

// Dirty reports the number of buffered writes.
func (s *State) Dirty() int {
	return len(s.cache)
}

// Write flushes buffered writes into the parent in key order and resets the
// buffer.
func (s *State) Write() (err error) {
	keys := make([]string, 0, len(s.cache))
	for k := range s.cache {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		err = s.parent.Set([]byte(k), s.cache[k])
		if err != nil {
			return
		}
	}
	s.cache = make(map[string][]byte)
	return
}

// Discard drops buffered writes.
func (s *State) Discard() {
	s.cache = make(map[string][]byte)
}
