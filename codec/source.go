package codec

import (
	"encoding/binary"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	ErrTruncatedInput = errors.New("truncated input")
	ErrUnexpectedTag  = errors.New("unexpected tag")
	ErrLengthMismatch = errors.New("length mismatch")
	ErrInvalidBool    = errors.New("invalid bool")
	ErrNumberOverflow = errors.New("number overflow")
	ErrInvalidVersion = errors.New("invalid version")
	ErrTrailingBytes  = errors.New("trailing bytes")
)

const (
	AddressLength = common.AddressLength
	HashLength    = common.HashLength
	U128Length    = 16
)

// Source reads values from an immutable buffer, advancing an internal cursor.
type Source struct {
	buf []byte
	off int
}

func NewSource(buf []byte) *Source {
	return &Source{buf: buf}
}

func (s *Source) Len() int {
	return len(s.buf) - s.off
}

func (s *Source) next(n int) (dat []byte, err error) {
	if n < 0 || s.Len() < n {
		return nil, ErrTruncatedInput
	}
	dat = s.buf[s.off : s.off+n]
	s.off += n
	return
}

func (s *Source) ReadByte() (byte, error) {
	b, err := s.next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (s *Source) ReadBool() (bool, error) {
	b, err := s.ReadByte()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, ErrInvalidBool
}

func (s *Source) ReadU16() (uint16, error) {
	b, err := s.next(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (s *Source) ReadU32() (uint32, error) {
	b, err := s.next(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (s *Source) ReadU64() (uint64, error) {
	b, err := s.next(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadU128 reads a 16 byte little-endian unsigned integer.
func (s *Source) ReadU128() (*uint256.Int, error) {
	b, err := s.next(U128Length)
	if err != nil {
		return nil, err
	}
	return U128FromLE(b)
}

// ReadVarUint reads a variable-width unsigned integer: values below 0xFD take
// one byte, otherwise the marker 0xFD, 0xFE or 0xFF is followed by a 2, 4 or
// 8 byte little-endian value.
func (s *Source) ReadVarUint() (uint64, error) {
	b, err := s.ReadByte()
	if err != nil {
		return 0, err
	}
	switch b {
	case 0xFD:
		v, err := s.ReadU16()
		return uint64(v), err
	case 0xFE:
		v, err := s.ReadU32()
		return uint64(v), err
	case 0xFF:
		return s.ReadU64()
	}
	return uint64(b), nil
}

// ReadBytes reads a u32 length-prefixed byte array. The returned slice aliases
// the source buffer.
func (s *Source) ReadBytes() ([]byte, error) {
	n, err := s.ReadU32()
	if err != nil {
		return nil, err
	}
	if uint64(n) > uint64(s.Len()) {
		return nil, ErrTruncatedInput
	}
	return s.next(int(n))
}

func (s *Source) ReadAddress() (addr common.Address, err error) {
	b, err := s.next(AddressLength)
	if err != nil {
		return
	}
	copy(addr[:], b)
	return
}

func (s *Source) ReadHash() (h common.Hash, err error) {
	b, err := s.next(HashLength)
	if err != nil {
		return
	}
	copy(h[:], b)
	return
}

// ReadList reads a u32 count followed by count items decoded by read.
func ReadList[T any](s *Source, read func(*Source) (T, error)) (list []T, err error) {
	n, err := s.ReadU32()
	if err != nil {
		return nil, err
	}
	// every item takes at least one byte
	if uint64(n) > uint64(s.Len()) {
		return nil, ErrTruncatedInput
	}
	list = make([]T, 0, n)
	for i := uint32(0); i < n; i++ {
		v, err := read(s)
		if err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return
}

// AddressFromBytes converts b to an address, requiring an exact length.
func AddressFromBytes(b []byte) (addr common.Address, err error) {
	if len(b) != AddressLength {
		return addr, ErrLengthMismatch
	}
	copy(addr[:], b)
	return
}

// HashFromBytes converts b to a hash, requiring an exact length.
func HashFromBytes(b []byte) (h common.Hash, err error) {
	if len(b) != HashLength {
		return h, ErrLengthMismatch
	}
	copy(h[:], b)
	return
}

// U128FromLE converts a 16 byte little-endian buffer to an integer.
func U128FromLE(b []byte) (*uint256.Int, error) {
	if len(b) != U128Length {
		return nil, ErrLengthMismatch
	}
	be := make([]byte, U128Length)
	for i := range b {
		be[U128Length-1-i] = b[i]
	}
	return new(uint256.Int).SetBytes(be), nil
}

// U128ToLE writes v as 16 little-endian bytes. Bits above 128 are dropped.
func U128ToLE(v *uint256.Int) []byte {
	be := v.Bytes32()
	le := make([]byte, U128Length)
	for i := 0; i < U128Length; i++ {
		le[i] = be[31-i]
	}
	return le
}

// NarrowU64 returns v as uint64, failing when it does not fit.
func NarrowU64(v *uint256.Int) (uint64, error) {
	if !v.IsUint64() {
		return 0, ErrNumberOverflow
	}
	return v.Uint64(), nil
}
