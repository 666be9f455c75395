package container

import (
	"testing"

	"github.com/mrjoshuak/go-j2kbox/internal/boxcodec"
	"github.com/mrjoshuak/go-j2kbox/internal/codestream"
	"github.com/stretchr/testify/require"
)

func testImageInfo() *codestream.ImageInfo {
	return &codestream.ImageInfo{
		Xsiz: 64, Ysiz: 48, XTsiz: 64, YTsiz: 48,
		Components: []codestream.ComponentInfo{
			{Ssiz: 7, XRsiz: 1, YRsiz: 1},
			{Ssiz: 7, XRsiz: 1, YRsiz: 1},
			{Ssiz: 7, XRsiz: 1, YRsiz: 1},
		},
	}
}

func TestDetectFormatRawCodestream(t *testing.T) {
	f, err := DetectFormat([]byte{0xFF, 0x4F, 0x00, 0x00})
	require.NoError(t, err)
	require.Equal(t, FormatJ2K, f)
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	info := testImageInfo()
	cs := codestream.EncodeSIZ(info)
	cs = append(cs, []byte{0xFF, 0xD9}...) // fake EOC to look non-empty

	data, err := Write(WriteParams{Format: FormatJP2, Codestream: cs, Image: info})
	require.NoError(t, err)

	f, err := DetectFormat(data)
	require.NoError(t, err)
	require.Equal(t, FormatJP2, f)

	result, err := Read(data)
	require.NoError(t, err)
	require.Equal(t, FormatJP2, result.Format)
	require.Equal(t, cs, result.Codestream)
	require.Equal(t, info.Xsiz, result.Image.Xsiz)
	require.Equal(t, info.Ysiz, result.Image.Ysiz)
	require.NotNil(t, result.Header)
	require.Equal(t, uint16(3), result.Header.ImageHeader.NumComponents)
}

func TestWriteSingleComponentIsGreyscale(t *testing.T) {
	info := &codestream.ImageInfo{
		Xsiz: 10, Ysiz: 10,
		Components: []codestream.ComponentInfo{{Ssiz: 7, XRsiz: 1, YRsiz: 1}},
	}
	cs := codestream.EncodeSIZ(info)
	data, err := Write(WriteParams{Format: FormatJP2, Codestream: cs, Image: info})
	require.NoError(t, err)
	result, err := Read(data)
	require.NoError(t, err)
	require.Equal(t, uint32(boxcodec.CSGreyscale), result.Header.ColorSpec[0].EnumeratedCS)
}

func TestDetectFormatTruncated(t *testing.T) {
	_, err := DetectFormat([]byte{0, 0, 0})
	require.Error(t, err)
}

func TestWriteUnsupportedFormat(t *testing.T) {
	_, err := Write(WriteParams{Format: FormatMJ2, Image: testImageInfo()})
	require.Error(t, err)
}
