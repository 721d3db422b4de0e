package codec

import (
	"encoding/hex"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarUintWidths(t *testing.T) {
	cases := []struct {
		v   uint64
		len int
	}{
		{0, 1},
		{0xFC, 1},
		{0xFD, 3},
		{0xFFFF, 3},
		{0x10000, 5},
		{0xFFFFFFFF, 5},
		{0x100000000, 9},
	}
	for _, c := range cases {
		sink := NewSink(0)
		sink.WriteVarUint(c.v)
		assert.Len(t, sink.Bytes(), c.len, "value %d", c.v)
		v, err := NewSource(sink.Bytes()).ReadVarUint()
		require.NoError(t, err)
		assert.Equal(t, c.v, v)
	}
}

func TestSourceTruncated(t *testing.T) {
	_, err := NewSource([]byte{1, 2, 3}).ReadU32()
	assert.ErrorIs(t, err, ErrTruncatedInput)

	// declared length exceeds the remaining buffer
	sink := NewSink(0)
	sink.WriteU32(10)
	sink.WriteRaw([]byte("abc"))
	_, err = NewSource(sink.Bytes()).ReadBytes()
	assert.ErrorIs(t, err, ErrTruncatedInput)

	_, err = NewSource([]byte{0xFE, 1}).ReadVarUint()
	assert.ErrorIs(t, err, ErrTruncatedInput)

	_, err = NewSource(make([]byte, 19)).ReadAddress()
	assert.ErrorIs(t, err, ErrTruncatedInput)
}

func TestReadBoolRejectsOtherBytes(t *testing.T) {
	_, err := NewSource([]byte{2}).ReadBool()
	assert.ErrorIs(t, err, ErrInvalidBool)
}

func TestSinkSourceMixed(t *testing.T) {
	addr := common.HexToAddress("0x0102030405060708090a0b0c0d0e0f1011121314")
	h := common.HexToHash("0xbbab28299c699e57db9113d17be63b1f70da58d100100538c35065e69bcda876")
	sink := NewSink(0)
	sink.WriteAddress(addr)
	sink.WriteBytes([]byte("title"))
	sink.WriteU64(42)
	sink.WriteBool(true)
	sink.WriteHash(h)
	WriteList(sink, []uint64{1, 2, 3}, (*Sink).WriteU64)

	src := NewSource(sink.Bytes())
	gotAddr, err := src.ReadAddress()
	require.NoError(t, err)
	assert.Equal(t, addr, gotAddr)
	title, err := src.ReadBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("title"), title)
	n, err := src.ReadU64()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), n)
	b, err := src.ReadBool()
	require.NoError(t, err)
	assert.True(t, b)
	gotHash, err := src.ReadHash()
	require.NoError(t, err)
	assert.Equal(t, h, gotHash)
	list, err := ReadList(src, (*Source).ReadU64)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, list)
	assert.Equal(t, 0, src.Len())
}

func TestFixedBlobLengthChecked(t *testing.T) {
	_, err := AddressFromBytes(make([]byte, 21))
	assert.ErrorIs(t, err, ErrLengthMismatch)
	_, err = AddressFromBytes(nil)
	assert.ErrorIs(t, err, ErrLengthMismatch)
	_, err = HashFromBytes(make([]byte, 31))
	assert.ErrorIs(t, err, ErrLengthMismatch)
	_, err = U128FromLE(make([]byte, 8))
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestU128LittleEndian(t *testing.T) {
	le := make([]byte, 16)
	le[0] = 0x01
	le[1] = 0x02
	v, err := U128FromLE(le)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0201), v.Uint64())
	assert.Equal(t, le, U128ToLE(v))

	le[15] = 0x80
	v, err = U128FromLE(le)
	require.NoError(t, err)
	_, err = NarrowU64(v)
	assert.ErrorIs(t, err, ErrNumberOverflow)
}

// reply captured from the legacy listTopics call
const legacyListTopicsHex = "0010010000000020000000bbab28299c699e57db9113d17be63b1f70da58d100100538c35065e69bcda876"

func TestLegacyListTopicsVector(t *testing.T) {
	bs, err := hex.DecodeString(legacyListTopicsHex)
	require.NoError(t, err)
	p, err := NewVmValueParser(bs)
	require.NoError(t, err)
	items, err := p.ByteArrayList()
	require.NoError(t, err)
	require.Len(t, items, 1)
	h, err := HashFromBytes(items[0])
	require.NoError(t, err)
	assert.Equal(t, "0xbbab28299c699e57db9113d17be63b1f70da58d100100538c35065e69bcda876", h.Hex())
}

func TestVmValueRoundTrip(t *testing.T) {
	addr := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	sink := NewVmValueSink()
	sink.Envelope(4)
	sink.Address(addr)
	sink.Bool(true)
	sink.Number(uint256.NewInt(7))
	sink.Str("name")
	assert.Equal(t, legacyListTopicsHex[:2], hex.EncodeToString(sink.Bytes()[:1]))

	p, err := NewVmValueParser(sink.Bytes())
	require.NoError(t, err)
	n, err := p.Envelope()
	require.NoError(t, err)
	assert.Equal(t, uint32(4), n)
	gotAddr, err := p.Address()
	require.NoError(t, err)
	assert.Equal(t, addr, gotAddr)
	b, err := p.Bool()
	require.NoError(t, err)
	assert.True(t, b)
	num, err := p.Number()
	require.NoError(t, err)
	assert.Equal(t, uint64(7), num.Uint64())
	s, err := p.Str()
	require.NoError(t, err)
	assert.Equal(t, "name", s)
}

func TestVmValueUnexpectedTag(t *testing.T) {
	sink := NewVmValueSink()
	sink.Bool(true)
	p, err := NewVmValueParser(sink.Bytes())
	require.NoError(t, err)
	_, err = p.ByteArray()
	assert.ErrorIs(t, err, ErrUnexpectedTag)

	_, err = NewVmValueParser([]byte{0x01})
	assert.ErrorIs(t, err, ErrInvalidVersion)

	_, err = NewVmValueParser(nil)
	assert.ErrorIs(t, err, ErrTruncatedInput)
}

func TestVmValueBlobLength(t *testing.T) {
	sink := NewVmValueSink()
	sink.ByteArray(make([]byte, 19))
	p, err := NewVmValueParser(sink.Bytes())
	require.NoError(t, err)
	_, err = p.BytesAsAddress()
	assert.ErrorIs(t, err, ErrLengthMismatch)
}
