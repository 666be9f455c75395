package box

import (
	"testing"

	"github.com/mrjoshuak/go-j2kbox/errs"
	"github.com/stretchr/testify/require"
)

func TestTypeString(t *testing.T) {
	tests := []struct {
		typ  Type
		want string
	}{
		{TypeSignature, "jP  "},
		{TypeFileType, "ftyp"},
		{TypeJP2Header, "jp2h"},
		{TypeImageHeader, "ihdr"},
		{TypeColorSpecification, "colr"},
		{TypeContiguousCodestream, "jp2c"},
		{Type(0xFFFFFFFF), "????"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, tt.typ.String())
	}
}

func TestPeekNextStandardHeader(t *testing.T) {
	// 12-byte JP2 signature box: length=12, type="jP  ", 4-byte content.
	buf := []byte{0, 0, 0, 12, 'j', 'P', ' ', ' ', 0x0D, 0x0A, 0x87, 0x0A}
	r := NewReader(buf)
	info, err := r.PeekNext()
	require.NoError(t, err)
	require.NotNil(t, info)
	require.Equal(t, TypeSignature, info.Type)
	require.Equal(t, 8, info.HeaderLength)
	require.Equal(t, 4, info.ContentLength)
	require.Equal(t, 0, r.Offset(), "peek must not advance")
}

func TestReadNextAdvances(t *testing.T) {
	buf := []byte{0, 0, 0, 12, 'j', 'P', ' ', ' ', 0x0D, 0x0A, 0x87, 0x0A}
	r := NewReader(buf)
	info, err := r.ReadNext()
	require.NoError(t, err)
	require.NotNil(t, info)
	require.Equal(t, 12, r.Offset())

	end, err := r.ReadNext()
	require.NoError(t, err)
	require.Nil(t, end)
}

func TestSmallBoxUsesStandardHeader(t *testing.T) {
	w := NewWriter()
	content := make([]byte, 20)
	w.WriteBox(TypeContiguousCodestream, content)
	buf := w.Bytes()
	require.Len(t, buf, 8+20) // fits in 32-bit form

	r := NewReader(buf)
	info, err := r.ReadNext()
	require.NoError(t, err)
	require.Equal(t, 8, info.HeaderLength)
	require.Equal(t, 20, info.ContentLength)
}

func TestZeroLengthExtendsToEnclosingScope(t *testing.T) {
	buf := []byte{0, 0, 0, 0, 'j', 'p', '2', 'c', 1, 2, 3, 4, 5}
	r := NewReader(buf)
	info, err := r.ReadNext()
	require.NoError(t, err)
	require.Equal(t, 5, info.ContentLength)
	require.Equal(t, []byte{1, 2, 3, 4, 5}, r.ExtractContent(info))
}

func TestPeekNextTruncatedHeader(t *testing.T) {
	buf := []byte{0, 0, 0, 12, 'j', 'P'} // only 6 bytes
	r := NewReader(buf)
	_, err := r.PeekNext()
	require.Error(t, err)
	require.True(t, errs.HasKind(err, errs.KindTruncated))
}

func TestPeekNextLengthBelowMinimum(t *testing.T) {
	buf := []byte{0, 0, 0, 4, 'j', 'P', ' ', ' '}
	r := NewReader(buf)
	_, err := r.PeekNext()
	require.Error(t, err)
	require.True(t, errs.HasKind(err, errs.KindFileFormat))
}

func TestPeekNextExtendedTooShort(t *testing.T) {
	buf := []byte{0, 0, 0, 1, 'j', 'p', '2', 'c', 0, 0, 0, 0, 0, 0, 0, 10}
	r := NewReader(buf)
	_, err := r.PeekNext()
	require.Error(t, err)
	require.True(t, errs.HasKind(err, errs.KindFileFormat))
}

func TestPeekNextContentOverrunsBuffer(t *testing.T) {
	buf := []byte{0, 0, 0, 100, 'j', 'p', '2', 'c', 1, 2, 3, 4}
	r := NewReader(buf)
	_, err := r.PeekNext()
	require.Error(t, err)
	require.True(t, errs.HasKind(err, errs.KindTruncated))
}

func TestReadAll(t *testing.T) {
	w := NewWriter()
	w.WriteBox(TypeFileType, []byte{1, 2, 3, 4})
	w.WriteBox(TypeJP2Header, []byte{5, 6})
	buf := w.Bytes()

	r := NewReader(buf)
	infos, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, infos, 2)
	require.Equal(t, TypeFileType, infos[0].Type)
	require.Equal(t, TypeJP2Header, infos[1].Type)
}

func TestWriteBoxChoosesExtendedFormOnlyWhenNeeded(t *testing.T) {
	w := NewWriter()
	w.WriteBox(TypeFileType, []byte{1, 2, 3, 4})
	buf := w.Bytes()
	require.Len(t, buf, 12)
	require.Equal(t, []byte{0, 0, 0, 12}, buf[0:4])
}

func TestEncodeSignatureBox(t *testing.T) {
	sig := EncodeBox(TypeSignature, []byte{0x0D, 0x0A, 0x87, 0x0A})
	want := []byte{0x00, 0x00, 0x00, 0x0C, 0x6A, 0x50, 0x20, 0x20, 0x0D, 0x0A, 0x87, 0x0A}
	require.Equal(t, want, sig)
}

func TestTruncatedInsideContent(t *testing.T) {
	// Simulates Scenario E: a jp2c box whose declared length overruns a
	// file truncated mid-payload.
	buf := []byte{0, 0, 0, 50, 'j', 'p', '2', 'c', 0xFF, 0x4F}
	r := NewReader(buf)
	_, err := r.ReadNext()
	require.Error(t, err)
	require.True(t, errs.HasKind(err, errs.KindTruncated))
}
