package state

import (
	"encoding/binary"
	"fmt"

	"github.com/calehh/hac-gov/codec"
	"github.com/calehh/hac-gov/types"
)

var (
	PreTopic          = []byte("01")
	PreTopicInfo      = []byte("02")
	PreTopicHashIndex = []byte("03")
	PreVoted          = []byte("04")
	KeyTopicHashCount = []byte("05")
	KeyGovNodes       = []byte("g")
	KeyManifest       = []byte("m")
	PreNonce          = []byte("n")
)

func GetKey(pre []byte, suffix []byte) []byte {
	key := make([]byte, 0, len(pre)+len(suffix))
	key = append(key, pre...)
	return append(key, suffix...)
}

func TopicHashIndexKey(idx uint64) []byte {
	return GetKey(PreTopicHashIndex, []byte(fmt.Sprintf("%d", idx)))
}

// Repository maps topic entities onto keys of a State.
type Repository struct {
	st *State
}

func NewRepository(st *State) *Repository {
	return &Repository{st: st}
}

func (r *Repository) State() *State {
	return r.st
}

// View runs fn on r itself, so a branch can stand in for a StateDB view.
func (r *Repository) View(fn func(repo *Repository) error) error {
	return fn(r)
}

func get[T any](r *Repository, key []byte, dec func(*codec.Source) (T, error)) (v T, ok bool, err error) {
	val, err := r.st.Get(key)
	if err != nil || val == nil {
		return
	}
	v, err = types.DecodeFromBytes(val, dec)
	if err != nil {
		err = fmt.Errorf("decode %x: %w", key, err)
		return
	}
	ok = true
	return
}

func (r *Repository) put(key []byte, enc func(*codec.Sink)) error {
	return r.st.Set(key, types.EncodeToBytes(enc))
}

func (r *Repository) GetTopic(hash types.Hash) (*types.Topic, bool, error) {
	return get(r, GetKey(PreTopic, hash[:]), types.DecodeTopic)
}

func (r *Repository) PutTopic(hash types.Hash, topic *types.Topic) error {
	return r.put(GetKey(PreTopic, hash[:]), topic.Encode)
}

func (r *Repository) GetTopicInfo(hash types.Hash) (*types.TopicInfo, bool, error) {
	return get(r, GetKey(PreTopicInfo, hash[:]), types.DecodeTopicInfo)
}

func (r *Repository) PutTopicInfo(info *types.TopicInfo) error {
	return r.put(GetKey(PreTopicInfo, info.Hash[:]), info.Encode)
}

// GetVotedInfos returns the local vote collection of a topic, empty if none.
func (r *Repository) GetVotedInfos(hash types.Hash) ([]types.VotedInfo, error) {
	list, _, err := get(r, GetKey(PreVoted, hash[:]), types.DecodeVotedInfos)
	return list, err
}

func (r *Repository) PutVotedInfos(hash types.Hash, list []types.VotedInfo) error {
	return r.put(GetKey(PreVoted, hash[:]), func(s *codec.Sink) { types.EncodeVotedInfos(s, list) })
}

func (r *Repository) TopicHashCount() (uint64, error) {
	val, err := r.st.Get(KeyTopicHashCount)
	if err != nil || val == nil {
		return 0, err
	}
	if len(val) != 8 {
		return 0, fmt.Errorf("topic hash count: %w", codec.ErrLengthMismatch)
	}
	return binary.LittleEndian.Uint64(val), nil
}

// AppendTopicHash stores hash at the next index and advances the counter.
func (r *Repository) AppendTopicHash(hash types.Hash) (idx uint64, err error) {
	idx, err = r.TopicHashCount()
	if err != nil {
		return
	}
	err = r.st.Set(TopicHashIndexKey(idx), hash[:])
	if err != nil {
		return
	}
	err = r.st.Set(KeyTopicHashCount, binary.LittleEndian.AppendUint64(nil, idx+1))
	return
}

// ListTopicHashes returns the local topic hashes in creation order.
func (r *Repository) ListTopicHashes() (hashes []types.Hash, err error) {
	n, err := r.TopicHashCount()
	if err != nil {
		return nil, err
	}
	hashes = make([]types.Hash, 0, n)
	for i := uint64(0); i < n; i++ {
		val, err := r.st.Get(TopicHashIndexKey(i))
		if err != nil {
			return nil, err
		}
		h, err := codec.HashFromBytes(val)
		if err != nil {
			return nil, fmt.Errorf("topic hash index %d: %w", i, err)
		}
		hashes = append(hashes, h)
	}
	return
}

func (r *Repository) GetGovNodes() ([]types.GovNode, error) {
	list, _, err := get(r, KeyGovNodes, func(src *codec.Source) ([]types.GovNode, error) {
		return codec.ReadList(src, types.DecodeGovNode)
	})
	return list, err
}

func (r *Repository) PutGovNodes(nodes []types.GovNode) error {
	return r.put(KeyGovNodes, func(s *codec.Sink) {
		codec.WriteList(s, nodes, func(s *codec.Sink, n types.GovNode) { n.Encode(s) })
	})
}

func (r *Repository) SetManifest(manifest []byte) error {
	return r.st.Set(KeyManifest, manifest)
}

func (r *Repository) GetManifest() ([]byte, error) {
	return r.st.Get(KeyManifest)
}

// GetNonce returns the nonce the next transaction of addr must carry.
func (r *Repository) GetNonce(addr types.Address) (uint64, error) {
	val, err := r.st.Get(GetKey(PreNonce, addr[:]))
	if err != nil || len(val) == 0 {
		return 0, err
	}
	if len(val) != 8 {
		return 0, fmt.Errorf("nonce of %s: %w", addr.Hex(), codec.ErrLengthMismatch)
	}
	return binary.LittleEndian.Uint64(val), nil
}

func (r *Repository) SetNonce(addr types.Address, nonce uint64) error {
	return r.st.Set(GetKey(PreNonce, addr[:]), binary.LittleEndian.AppendUint64(nil, nonce))
}

// CheckNonce accepts exactly the stored nonce of addr, or any later one when
// allowNonceGap is set.
func (r *Repository) CheckNonce(addr types.Address, nonce uint64, allowNonceGap bool) error {
	expect, err := r.GetNonce(addr)
	if err != nil {
		return err
	}
	if !(expect == nonce || (allowNonceGap && expect < nonce)) {
		return fmt.Errorf("%w: expect %d got %d", ErrTxNonceInvalid, expect, nonce)
	}
	return nil
}
