package reader

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mrjoshuak/go-j2kbox/internal/box"
	"github.com/mrjoshuak/go-j2kbox/internal/boxcodec"
	"github.com/mrjoshuak/go-j2kbox/mj2/writer"
)

func testHeader() *boxcodec.JP2Header {
	bpc, err := boxcodec.PackBitsPerComponent(8, false)
	if err != nil {
		panic(err)
	}
	return &boxcodec.JP2Header{
		ImageHeader: &boxcodec.ImageHeader{Width: 64, Height: 48, NumComponents: 3, BitsPerComponent: bpc},
		ColorSpec:   []*boxcodec.ColorSpec{{Method: boxcodec.MethodEnumerated, EnumeratedCS: boxcodec.CSsRGB}},
	}
}

func buildTestFile(t *testing.T, sizes []int) []byte {
	t.Helper()
	sw, err := writer.NewStreamWriter(box.TypeMJ2Brand, 64, 48, testHeader())
	require.NoError(t, err)
	for i, n := range sizes {
		codestream := make([]byte, n)
		for j := range codestream {
			codestream[j] = byte(i)
		}
		require.NoError(t, sw.WriteFrame(codestream, 33, i == 0))
	}
	out, err := sw.Finalize()
	require.NoError(t, err)
	return out
}

func TestParseRoundTripsSampleTable(t *testing.T) {
	data := buildTestFile(t, []int{100, 200, 300})
	f, err := Parse(data)
	require.NoError(t, err)

	require.Equal(t, 3, f.Track.Table.SampleCount())
	require.Equal(t, uint32(64), f.Track.Width)
	require.Equal(t, uint32(48), f.Track.Height)

	info0, ts0, err := f.Track.Table.Lookup(0)
	require.NoError(t, err)
	require.Equal(t, uint32(100), info0.Size)
	require.Equal(t, uint64(0), ts0)
	require.True(t, info0.IsSync)

	info2, ts2, err := f.Track.Table.Lookup(2)
	require.NoError(t, err)
	require.Equal(t, uint32(300), info2.Size)
	require.Equal(t, uint64(66), ts2)

	frame0 := data[info0.Offset : info0.Offset+uint64(info0.Size)]
	for _, b := range frame0 {
		require.Equal(t, byte(0), b)
	}
}

func TestParseReadsBackImageHeader(t *testing.T) {
	data := buildTestFile(t, []int{10})
	f, err := Parse(data)
	require.NoError(t, err)
	require.NotNil(t, f.Track.Header)
	require.Equal(t, uint32(64), f.Track.Header.ImageHeader.Width)
	require.Equal(t, uint32(48), f.Track.Header.ImageHeader.Height)
}

func TestParseRejectsFileWithoutMoov(t *testing.T) {
	_, err := Parse([]byte{0, 0, 0, 8, 'm', 'd', 'a', 't'})
	require.Error(t, err)
}
