package codestream

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSIZRoundTrip(t *testing.T) {
	info := &ImageInfo{
		Rsiz: 0,
		Xsiz: 640, Ysiz: 480,
		XTsiz: 640, YTsiz: 480,
		Components: []ComponentInfo{
			{Ssiz: 7, XRsiz: 1, YRsiz: 1},
			{Ssiz: 7, XRsiz: 1, YRsiz: 1},
			{Ssiz: 7, XRsiz: 1, YRsiz: 1},
		},
	}
	encoded := EncodeSIZ(info)
	got, err := ParseSIZ(encoded)
	require.NoError(t, err)
	require.Equal(t, info, got)
	require.Equal(t, 8, got.Components[0].BitDepth())
	require.False(t, got.Components[0].Signed())
}

func TestParseSIZRejectsMissingSOC(t *testing.T) {
	_, err := ParseSIZ([]byte{0, 0, 0xFF, 0x51})
	require.Error(t, err)
}

func TestParseSIZRejectsComponentCountOutOfRange(t *testing.T) {
	info := &ImageInfo{Components: make([]ComponentInfo, 1)}
	encoded := EncodeSIZ(info)
	// Corrupt Csiz to 0.
	encoded[40] = 0
	encoded[41] = 0
	_, err := ParseSIZ(encoded)
	require.Error(t, err)
}

func TestComponentDimensionsWithSubsampling(t *testing.T) {
	c := ComponentInfo{Ssiz: 7, XRsiz: 2, YRsiz: 2}
	require.Equal(t, uint32(320), c.Width(640))
	require.Equal(t, uint32(240), c.Height(480))
}
