package codec

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Sink is the writing side of Source.
type Sink struct {
	buf []byte
}

func NewSink(capacity int) *Sink {
	return &Sink{buf: make([]byte, 0, capacity)}
}

func (s *Sink) Bytes() []byte {
	return s.buf
}

func (s *Sink) WriteByte(b byte) error {
	s.buf = append(s.buf, b)
	return nil
}

func (s *Sink) WriteRaw(b []byte) {
	s.buf = append(s.buf, b...)
}

func (s *Sink) WriteBool(v bool) {
	if v {
		s.buf = append(s.buf, 1)
	} else {
		s.buf = append(s.buf, 0)
	}
}

func (s *Sink) WriteU16(v uint16) {
	s.buf = binary.LittleEndian.AppendUint16(s.buf, v)
}

func (s *Sink) WriteU32(v uint32) {
	s.buf = binary.LittleEndian.AppendUint32(s.buf, v)
}

func (s *Sink) WriteU64(v uint64) {
	s.buf = binary.LittleEndian.AppendUint64(s.buf, v)
}

func (s *Sink) WriteU128(v *uint256.Int) {
	s.buf = append(s.buf, U128ToLE(v)...)
}

func (s *Sink) WriteVarUint(v uint64) {
	switch {
	case v < 0xFD:
		s.buf = append(s.buf, byte(v))
	case v <= 0xFFFF:
		s.buf = append(s.buf, 0xFD)
		s.WriteU16(uint16(v))
	case v <= 0xFFFFFFFF:
		s.buf = append(s.buf, 0xFE)
		s.WriteU32(uint32(v))
	default:
		s.buf = append(s.buf, 0xFF)
		s.WriteU64(v)
	}
}

func (s *Sink) WriteBytes(b []byte) {
	s.WriteU32(uint32(len(b)))
	s.buf = append(s.buf, b...)
}

func (s *Sink) WriteAddress(addr common.Address) {
	s.buf = append(s.buf, addr[:]...)
}

func (s *Sink) WriteHash(h common.Hash) {
	s.buf = append(s.buf, h[:]...)
}

func WriteList[T any](s *Sink, list []T, write func(*Sink, T)) {
	s.WriteU32(uint32(len(list)))
	for _, v := range list {
		write(s, v)
	}
}
