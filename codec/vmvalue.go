package codec

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Tags of the legacy tagged value format.
const (
	TagByteArray byte = 0x00
	TagString    byte = 0x01
	TagAddress   byte = 0x02
	TagBool      byte = 0x03
	TagInt       byte = 0x04
	TagH256      byte = 0x05
	TagList      byte = 0x10

	VmValueVersion byte = 0x00
)

// VmValueParser decodes a legacy reply made of tagged values.
type VmValueParser struct {
	Source *Source
}

// NewVmValueParser checks the leading version byte of buf.
func NewVmValueParser(buf []byte) (*VmValueParser, error) {
	src := NewSource(buf)
	ver, err := src.ReadByte()
	if err != nil {
		return nil, err
	}
	if ver != VmValueVersion {
		return nil, fmt.Errorf("%w: %d", ErrInvalidVersion, ver)
	}
	return &VmValueParser{Source: src}, nil
}

// ExpectTag reads one byte and fails unless it equals tag.
func (p *VmValueParser) ExpectTag(tag byte) error {
	ty, err := p.Source.ReadByte()
	if err != nil {
		return err
	}
	if ty != tag {
		return fmt.Errorf("%w: want 0x%02x got 0x%02x", ErrUnexpectedTag, tag, ty)
	}
	return nil
}

// Envelope reads a list/struct header and returns its element count.
func (p *VmValueParser) Envelope() (uint32, error) {
	if err := p.ExpectTag(TagList); err != nil {
		return 0, err
	}
	return p.Source.ReadU32()
}

func (p *VmValueParser) ByteArray() ([]byte, error) {
	if err := p.ExpectTag(TagByteArray); err != nil {
		return nil, err
	}
	return p.Source.ReadBytes()
}

func (p *VmValueParser) Str() (string, error) {
	if err := p.ExpectTag(TagString); err != nil {
		return "", err
	}
	b, err := p.Source.ReadBytes()
	return string(b), err
}

func (p *VmValueParser) Bool() (bool, error) {
	if err := p.ExpectTag(TagBool); err != nil {
		return false, err
	}
	return p.Source.ReadBool()
}

func (p *VmValueParser) Number() (*uint256.Int, error) {
	if err := p.ExpectTag(TagInt); err != nil {
		return nil, err
	}
	return p.Source.ReadU128()
}

func (p *VmValueParser) Address() (common.Address, error) {
	if err := p.ExpectTag(TagAddress); err != nil {
		return common.Address{}, err
	}
	return p.Source.ReadAddress()
}

func (p *VmValueParser) H256() (common.Hash, error) {
	if err := p.ExpectTag(TagH256); err != nil {
		return common.Hash{}, err
	}
	return p.Source.ReadHash()
}

// BytesAsAddress reads a byte array that must hold exactly one address.
func (p *VmValueParser) BytesAsAddress() (common.Address, error) {
	b, err := p.ByteArray()
	if err != nil {
		return common.Address{}, err
	}
	return AddressFromBytes(b)
}

// BytesAsHash reads a byte array that must hold exactly one hash.
func (p *VmValueParser) BytesAsHash() (common.Hash, error) {
	b, err := p.ByteArray()
	if err != nil {
		return common.Hash{}, err
	}
	return HashFromBytes(b)
}

// BytesAsU128 reads a byte array that must hold a 16 byte little-endian integer.
func (p *VmValueParser) BytesAsU128() (*uint256.Int, error) {
	b, err := p.ByteArray()
	if err != nil {
		return nil, err
	}
	return U128FromLE(b)
}

// VmList reads a list header and decodes each element with read.
func VmList[T any](p *VmValueParser, read func(*VmValueParser) (T, error)) (list []T, err error) {
	n, err := p.Envelope()
	if err != nil {
		return nil, err
	}
	if uint64(n) > uint64(p.Source.Len()) {
		return nil, ErrTruncatedInput
	}
	list = make([]T, 0, n)
	for i := uint32(0); i < n; i++ {
		v, err := read(p)
		if err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return
}

// ByteArrayList reads a list of byte arrays.
func (p *VmValueParser) ByteArrayList() ([][]byte, error) {
	return VmList(p, (*VmValueParser).ByteArray)
}

// VmValueSink encodes values in the legacy tagged format.
type VmValueSink struct {
	sink *Sink
}

// NewVmValueSink starts a buffer with the version byte.
func NewVmValueSink() *VmValueSink {
	s := &VmValueSink{sink: NewSink(64)}
	_ = s.sink.WriteByte(VmValueVersion)
	return s
}

func (s *VmValueSink) Bytes() []byte {
	return s.sink.Bytes()
}

func (s *VmValueSink) Envelope(n uint32) {
	_ = s.sink.WriteByte(TagList)
	s.sink.WriteU32(n)
}

func (s *VmValueSink) ByteArray(b []byte) {
	_ = s.sink.WriteByte(TagByteArray)
	s.sink.WriteBytes(b)
}

func (s *VmValueSink) Str(v string) {
	_ = s.sink.WriteByte(TagString)
	s.sink.WriteBytes([]byte(v))
}

func (s *VmValueSink) Bool(v bool) {
	_ = s.sink.WriteByte(TagBool)
	s.sink.WriteBool(v)
}

func (s *VmValueSink) Number(v *uint256.Int) {
	_ = s.sink.WriteByte(TagInt)
	s.sink.WriteU128(v)
}

func (s *VmValueSink) Address(addr common.Address) {
	_ = s.sink.WriteByte(TagAddress)
	s.sink.WriteAddress(addr)
}

func (s *VmValueSink) H256(h common.Hash) {
	_ = s.sink.WriteByte(TagH256)
	s.sink.WriteHash(h)
}

// U128Bytes writes v as a 16 byte array.
func (s *VmValueSink) U128Bytes(v *uint256.Int) {
	s.ByteArray(U128ToLE(v))
}
