package types

import (
	"errors"

	"github.com/calehh/hac-gov/codec"
	"github.com/holiman/uint256"
)

// Decoders for values returned by the predecessor deployment. Field order is
// part of its wire contract.

var ErrLegacyTopicFields = errors.New("legacy topic needs title and detail")

func DecodeLegacyTopic(p *codec.VmValueParser) (*Topic, error) {
	fields, err := p.ByteArrayList()
	if err != nil {
		return nil, err
	}
	if len(fields) < 2 {
		return nil, ErrLegacyTopicFields
	}
	return &Topic{
		Title:  copyBytes(fields[0]),
		Detail: copyBytes(fields[1]),
	}, nil
}

func DecodeLegacyVoterWeight(p *codec.VmValueParser) (w VoterWeight, err error) {
	if _, err = p.Envelope(); err != nil {
		return
	}
	if w.Voter, err = p.BytesAsAddress(); err != nil {
		return
	}
	w.Weight, err = p.BytesAsU128()
	return
}

func DecodeLegacyTopicInfo(p *codec.VmValueParser) (t *TopicInfo, err error) {
	if _, err = p.Envelope(); err != nil {
		return nil, err
	}
	t = new(TopicInfo)
	if t.Creator, err = p.BytesAsAddress(); err != nil {
		return nil, err
	}
	title, err := p.ByteArray()
	if err != nil {
		return nil, err
	}
	t.Title = copyBytes(title)
	detail, err := p.ByteArray()
	if err != nil {
		return nil, err
	}
	t.Detail = copyBytes(detail)
	// voter weights are carried on the wire only
	if _, err = codec.VmList(p, DecodeLegacyVoterWeight); err != nil {
		return nil, err
	}
	if t.StartTime, err = readLegacyU64(p.BytesAsU128); err != nil {
		return nil, err
	}
	if t.EndTime, err = readLegacyU64(p.BytesAsU128); err != nil {
		return nil, err
	}
	if t.Approve, err = readLegacyU64(p.Number); err != nil {
		return nil, err
	}
	if t.Reject, err = readLegacyU64(p.Number); err != nil {
		return nil, err
	}
	status, err := readLegacyU64(p.Number)
	if err != nil {
		return nil, err
	}
	if status > 0xFF {
		return nil, codec.ErrNumberOverflow
	}
	t.Status = TopicStatus(status)
	if t.Hash, err = p.BytesAsHash(); err != nil {
		return nil, err
	}
	return
}

// DecodeLegacyVotedInfo decodes one item of a getVotedAddress reply. Each item
// is itself a versioned tagged buffer.
func DecodeLegacyVotedInfo(item []byte) (v VotedInfo, err error) {
	p, err := codec.NewVmValueParser(item)
	if err != nil {
		return
	}
	if _, err = p.Envelope(); err != nil {
		return
	}
	if v.Voter, err = p.Address(); err != nil {
		return
	}
	v.Approve, err = p.Bool()
	return
}

func readLegacyU64(read func() (*uint256.Int, error)) (uint64, error) {
	v, err := read()
	if err != nil {
		return 0, err
	}
	return codec.NarrowU64(v)
}

func EncodeLegacyTopic(s *codec.VmValueSink, t *Topic) {
	s.Envelope(2)
	s.ByteArray(t.Title)
	s.ByteArray(t.Detail)
}

func EncodeLegacyTopicInfo(s *codec.VmValueSink, t *TopicInfo) {
	s.Envelope(10)
	s.ByteArray(t.Creator[:])
	s.ByteArray(t.Title)
	s.ByteArray(t.Detail)
	s.Envelope(uint32(len(t.Voters)))
	for _, w := range t.Voters {
		weight := w.Weight
		if weight == nil {
			weight = new(uint256.Int)
		}
		s.Envelope(2)
		s.ByteArray(w.Voter[:])
		s.U128Bytes(weight)
	}
	s.U128Bytes(uint256.NewInt(t.StartTime))
	s.U128Bytes(uint256.NewInt(t.EndTime))
	s.Number(uint256.NewInt(t.Approve))
	s.Number(uint256.NewInt(t.Reject))
	s.Number(uint256.NewInt(uint64(t.Status)))
	s.ByteArray(t.Hash[:])
}

func EncodeLegacyVotedInfo(v VotedInfo) []byte {
	s := codec.NewVmValueSink()
	s.Envelope(2)
	s.Address(v.Voter)
	s.Bool(v.Approve)
	return s.Bytes()
}

func copyBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return append([]byte{}, b...)
}
