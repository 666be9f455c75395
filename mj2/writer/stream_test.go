package writer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mrjoshuak/go-j2kbox/internal/box"
	"github.com/mrjoshuak/go-j2kbox/internal/boxcodec"
	"github.com/mrjoshuak/go-j2kbox/internal/container"
)

func testHeader() *boxcodec.JP2Header {
	return &boxcodec.JP2Header{
		ImageHeader: &boxcodec.ImageHeader{
			Height: 48, Width: 64, NumComponents: 3,
			BitsPerComponent: 7, CompressionType: 7,
		},
		ColorSpec: []*boxcodec.ColorSpec{{Method: boxcodec.MethodEnumerated, EnumeratedCS: boxcodec.CSsRGB}},
	}
}

func TestStreamWriterRoundTripsThroughDetectFormat(t *testing.T) {
	sw, err := NewStreamWriter(boxcodec.BrandMJ2, 64, 48, testHeader())
	require.NoError(t, err)

	require.NoError(t, sw.WriteFrame([]byte{0xFF, 0x4F, 0x01}, 33, true))
	require.NoError(t, sw.WriteFrame([]byte{0xFF, 0x4F, 0x02}, 33, false))
	require.NoError(t, sw.WriteFrame([]byte{0xFF, 0x4F, 0x03}, 33, true))
	require.Equal(t, 3, sw.SampleCount())

	out, err := sw.Finalize()
	require.NoError(t, err)

	format, err := container.DetectFormat(out)
	require.NoError(t, err)
	require.Equal(t, container.FormatMJ2, format)

	// moov must be present and parse as a well-formed box tree.
	r := box.NewReader(out)
	var sawMoov, sawMdat bool
	for {
		info, err := r.ReadNext()
		require.NoError(t, err)
		if info == nil {
			break
		}
		switch info.Type {
		case box.TypeMovie:
			sawMoov = true
		case box.TypeMediaData:
			sawMdat = true
			require.Equal(t, 9, info.ContentLength) // three 3-byte frames
		}
	}
	require.True(t, sawMoov)
	require.True(t, sawMdat)
}

func TestStreamWriterRejectsFinalizeWithNoFrames(t *testing.T) {
	sw, err := NewStreamWriter(boxcodec.BrandMJ2, 64, 48, testHeader())
	require.NoError(t, err)
	_, err = sw.Finalize()
	require.Error(t, err)
}

func TestStreamWriterRejectsWriteAfterFinalize(t *testing.T) {
	sw, err := NewStreamWriter(boxcodec.BrandMJ2, 64, 48, testHeader())
	require.NoError(t, err)
	require.NoError(t, sw.WriteFrame([]byte{0xFF, 0x4F}, 33, true))
	_, err = sw.Finalize()
	require.NoError(t, err)
	err = sw.WriteFrame([]byte{0xFF, 0x4F}, 33, true)
	require.Error(t, err)
}
