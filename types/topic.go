package types

import (
	"github.com/calehh/hac-gov/codec"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type Address = common.Address
type Hash = common.Hash

type TopicStatus uint8

const (
	TopicStatusCancelled TopicStatus = 0
	TopicStatusActive    TopicStatus = 1
)

// VotedState is the answer of getVotedInfo.
type VotedState uint8

const (
	VotedNone    VotedState = 0
	VotedApprove VotedState = 1
	VotedReject  VotedState = 2
)

type Topic struct {
	Title  []byte `json:"title"`
	Detail []byte `json:"detail"`
}

type VoterWeight struct {
	Voter  Address      `json:"voter"`
	Weight *uint256.Int `json:"weight"`
}

type TopicInfo struct {
	Creator   Address       `json:"creator"`
	Title     []byte        `json:"title"`
	Detail    []byte        `json:"detail"`
	Voters    []VoterWeight `json:"voters"`
	StartTime uint64        `json:"start_time"`
	EndTime   uint64        `json:"end_time"`
	Approve   uint64        `json:"approve"`
	Reject    uint64        `json:"reject"`
	Status    TopicStatus   `json:"status"`
	Hash      Hash          `json:"hash"`
}

func (t *TopicInfo) Active() bool {
	return t.Status == TopicStatusActive
}

type VotedInfo struct {
	Voter   Address `json:"voter"`
	Weight  uint64  `json:"weight"`
	Approve bool    `json:"approve"`
}

func (v *VotedInfo) State() VotedState {
	if v.Approve {
		return VotedApprove
	}
	return VotedReject
}

// GovNode is one entry of the authority registry's peer pool.
type GovNode struct {
	Address  Address `json:"address"`
	InitPos  uint64  `json:"init_pos"`
	TotalPos uint64  `json:"total_pos"`
}

func (n GovNode) Weight() uint64 {
	return n.InitPos + n.TotalPos
}

func (t *Topic) Encode(sink *codec.Sink) {
	sink.WriteBytes(t.Title)
	sink.WriteBytes(t.Detail)
}

func DecodeTopic(src *codec.Source) (t *Topic, err error) {
	t = new(Topic)
	if t.Title, err = readOwnedBytes(src); err != nil {
		return nil, err
	}
	if t.Detail, err = readOwnedBytes(src); err != nil {
		return nil, err
	}
	return
}

func (w VoterWeight) Encode(sink *codec.Sink) {
	sink.WriteAddress(w.Voter)
	weight := w.Weight
	if weight == nil {
		weight = new(uint256.Int)
	}
	sink.WriteU128(weight)
}

func DecodeVoterWeight(src *codec.Source) (w VoterWeight, err error) {
	if w.Voter, err = src.ReadAddress(); err != nil {
		return
	}
	w.Weight, err = src.ReadU128()
	return
}

func (t *TopicInfo) Encode(sink *codec.Sink) {
	sink.WriteAddress(t.Creator)
	sink.WriteBytes(t.Title)
	sink.WriteBytes(t.Detail)
	codec.WriteList(sink, t.Voters, func(s *codec.Sink, w VoterWeight) { w.Encode(s) })
	sink.WriteU64(t.StartTime)
	sink.WriteU64(t.EndTime)
	sink.WriteU64(t.Approve)
	sink.WriteU64(t.Reject)
	_ = sink.WriteByte(byte(t.Status))
	sink.WriteHash(t.Hash)
}

func DecodeTopicInfo(src *codec.Source) (t *TopicInfo, err error) {
	t = new(TopicInfo)
	if t.Creator, err = src.ReadAddress(); err != nil {
		return nil, err
	}
	if t.Title, err = readOwnedBytes(src); err != nil {
		return nil, err
	}
	if t.Detail, err = readOwnedBytes(src); err != nil {
		return nil, err
	}
	if t.Voters, err = codec.ReadList(src, DecodeVoterWeight); err != nil {
		return nil, err
	}
	if len(t.Voters) == 0 {
		t.Voters = nil
	}
	if t.StartTime, err = src.ReadU64(); err != nil {
		return nil, err
	}
	if t.EndTime, err = src.ReadU64(); err != nil {
		return nil, err
	}
	if t.Approve, err = src.ReadU64(); err != nil {
		return nil, err
	}
	if t.Reject, err = src.ReadU64(); err != nil {
		return nil, err
	}
	status, err := src.ReadByte()
	if err != nil {
		return nil, err
	}
	t.Status = TopicStatus(status)
	if t.Hash, err = src.ReadHash(); err != nil {
		return nil, err
	}
	return
}

func (v VotedInfo) Encode(sink *codec.Sink) {
	sink.WriteAddress(v.Voter)
	sink.WriteU64(v.Weight)
	sink.WriteBool(v.Approve)
}

func DecodeVotedInfo(src *codec.Source) (v VotedInfo, err error) {
	if v.Voter, err = src.ReadAddress(); err != nil {
		return
	}
	if v.Weight, err = src.ReadU64(); err != nil {
		return
	}
	v.Approve, err = src.ReadBool()
	return
}

func EncodeVotedInfos(sink *codec.Sink, list []VotedInfo) {
	codec.WriteList(sink, list, func(s *codec.Sink, v VotedInfo) { v.Encode(s) })
}

func DecodeVotedInfos(src *codec.Source) ([]VotedInfo, error) {
	return codec.ReadList(src, DecodeVotedInfo)
}

func (n GovNode) Encode(sink *codec.Sink) {
	sink.WriteAddress(n.Address)
	sink.WriteU64(n.InitPos)
	sink.WriteU64(n.TotalPos)
}

func DecodeGovNode(src *codec.Source) (n GovNode, err error) {
	if n.Address, err = src.ReadAddress(); err != nil {
		return
	}
	if n.InitPos, err = src.ReadU64(); err != nil {
		return
	}
	n.TotalPos, err = src.ReadU64()
	return
}

func readOwnedBytes(src *codec.Source) ([]byte, error) {
	b, err := src.ReadBytes()
	if err != nil || len(b) == 0 {
		return nil, err
	}
	return append([]byte{}, b...), nil
}

// EncodeToBytes runs enc over a fresh sink.
func EncodeToBytes(enc func(*codec.Sink)) []byte {
	sink := codec.NewSink(128)
	enc(sink)
	return sink.Bytes()
}

// DecodeFromBytes decodes exactly one value from dat.
func DecodeFromBytes[T any](dat []byte, dec func(*codec.Source) (T, error)) (v T, err error) {
	src := codec.NewSource(dat)
	v, err = dec(src)
	if err != nil {
		return
	}
	if src.Len() != 0 {
		err = codec.ErrTrailingBytes
	}
	return
}
