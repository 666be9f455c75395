package jpeg2000

import (
	"context"
	"image"
	"image/color"
	"testing"

	j2kcodec "github.com/mrjoshuak/go-j2kbox/codec"
	"github.com/stretchr/testify/require"
)

func TestFormatString(t *testing.T) {
	require.Equal(t, "JP2", FormatJP2.String())
	require.Equal(t, "MJ2", FormatMJ2.String())
	require.Equal(t, "Unknown", Format(-1).String())
}

func TestPassthroughCodecRoundTrip(t *testing.T) {
	c := PassthroughCodec{}
	params := j2kcodec.EncodeParams{
		PixelData: []byte{1, 2, 3, 4, 5, 6, 7, 8},
		Width:     4,
		Height:    2,
		Components: []j2kcodec.ComponentSummary{
			{BitDepth: 8, Width: 4, Height: 2},
		},
	}
	cs, err := c.Encode(context.Background(), params)
	require.NoError(t, err)

	result, err := c.Decode(context.Background(), cs)
	require.NoError(t, err)
	require.Equal(t, uint32(4), result.Summary.Width)
	require.Equal(t, uint32(2), result.Summary.Height)
	require.Equal(t, params.PixelData, result.PixelData)
}

func TestPassthroughCodecRejectsMissingComponents(t *testing.T) {
	c := PassthroughCodec{}
	_, err := c.Encode(context.Background(), j2kcodec.EncodeParams{
		PixelData: []byte{1, 2, 3, 4},
		Width:     2,
		Height:    2,
	})
	require.Error(t, err)
}

func TestEncodeBytesDecodeBytesRoundTrip(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 2))
	for i := range img.Pix {
		img.Pix[i] = byte(i * 10)
	}

	data, err := EncodeBytes(context.Background(), img, FormatJP2, nil)
	require.NoError(t, err)

	decoded, err := DecodeBytes(context.Background(), data, nil)
	require.NoError(t, err)
	require.Equal(t, img.Bounds(), decoded.Bounds())

	gray, ok := decoded.(*image.Gray)
	require.True(t, ok)
	require.Equal(t, img.Pix, gray.Pix)
}

func TestEncodeBytesRGBARoundTrip(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	img.Set(1, 0, color.RGBA{R: 40, G: 50, B: 60, A: 255})
	img.Set(0, 1, color.RGBA{R: 70, G: 80, B: 90, A: 255})
	img.Set(1, 1, color.RGBA{R: 100, G: 110, B: 120, A: 255})

	data, err := EncodeBytes(context.Background(), img, FormatJP2, nil)
	require.NoError(t, err)

	decoded, err := DecodeBytes(context.Background(), data, nil)
	require.NoError(t, err)

	nrgba, ok := decoded.(*image.NRGBA)
	require.True(t, ok)
	r, g, b, _ := nrgba.At(0, 0).RGBA()
	require.Equal(t, uint32(10*257), r)
	require.Equal(t, uint32(20*257), g)
	require.Equal(t, uint32(30*257), b)
}

func TestContainerFormatForRejectsMJ2(t *testing.T) {
	_, err := containerFormatFor(FormatMJ2)
	require.Error(t, err)
}
