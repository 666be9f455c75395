package writer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mrjoshuak/go-j2kbox/codec"
	"github.com/mrjoshuak/go-j2kbox/errs"
	"github.com/mrjoshuak/go-j2kbox/internal/boxcodec"
	"github.com/mrjoshuak/go-j2kbox/internal/container"
)

type fakeCodec struct{}

func (fakeCodec) Encode(ctx context.Context, p codec.EncodeParams) ([]byte, error) {
	return []byte{0xFF, 0x4F, byte(p.Width), byte(p.Height)}, nil
}
func (fakeCodec) Decode(ctx context.Context, cs []byte) (*codec.DecodeResult, error) {
	return &codec.DecodeResult{}, nil
}
func (fakeCodec) Name() string { return "fake" }

func testFrames(n int) []Frame {
	comps := []codec.ComponentSummary{{BitDepth: 8}, {BitDepth: 8}, {BitDepth: 8}}
	frames := make([]Frame, n)
	for i := range frames {
		frames[i] = Frame{
			FrameIndex: i, PixelData: make([]byte, 64*48*3), Width: 64, Height: 48, Components: comps,
			IsSync: i == 0, Duration: 33, Options: codec.BaseOptions{},
		}
	}
	return frames
}

func TestCreatorCreateSequential(t *testing.T) {
	c := NewCreator(fakeCodec{}, boxcodec.BrandMJ2, 24)
	out, err := c.Create(context.Background(), testFrames(4))
	require.NoError(t, err)
	format, err := container.DetectFormat(out)
	require.NoError(t, err)
	require.Equal(t, container.FormatMJ2, format)
}

func TestCreatorCreateParallelMatchesSequentialSize(t *testing.T) {
	c := NewCreator(fakeCodec{}, boxcodec.BrandMJ2, 24)
	seq, err := c.Create(context.Background(), testFrames(5))
	require.NoError(t, err)

	c2 := NewCreator(fakeCodec{}, boxcodec.BrandMJ2, 24)
	par, err := c2.CreateParallel(context.Background(), testFrames(5), 3)
	require.NoError(t, err)

	require.Equal(t, len(seq), len(par))
}

func TestCreatorRejectsInconsistentDimensions(t *testing.T) {
	c := NewCreator(fakeCodec{}, boxcodec.BrandMJ2, 24)
	frames := testFrames(3)
	frames[2].Width = 32
	_, err := c.Create(context.Background(), frames)
	require.True(t, errs.HasKind(err, errs.KindInconsistentDimensions))
}

func TestCreatorRejectsInconsistentComponents(t *testing.T) {
	c := NewCreator(fakeCodec{}, boxcodec.BrandMJ2, 24)
	frames := testFrames(3)
	frames[2].Components = []codec.ComponentSummary{{BitDepth: 8}}
	_, err := c.Create(context.Background(), frames)
	require.True(t, errs.HasKind(err, errs.KindInconsistentComponents))
}

func TestCreatorRejectsOverSimpleProfileDimensions(t *testing.T) {
	c := NewCreator(fakeCodec{}, boxcodec.BrandMJ2, 24)
	frames := testFrames(1)
	frames[0].Width = 3000
	_, err := c.Create(context.Background(), frames)
	require.True(t, errs.HasKind(err, errs.KindInvalidParameter))
}

func TestCreatorRejectsOverSimpleProfileFrameRate(t *testing.T) {
	c := NewCreator(fakeCodec{}, boxcodec.BrandMJ2, 60)
	_, err := c.Create(context.Background(), testFrames(1))
	require.True(t, errs.HasKind(err, errs.KindInvalidParameter))
}

func TestCreatorCancelStopsBeforeFinalize(t *testing.T) {
	c := NewCreator(fakeCodec{}, boxcodec.BrandMJ2, 24)
	c.Cancel()
	_, err := c.Create(context.Background(), testFrames(3))
	require.True(t, errs.HasKind(err, errs.KindCancelled))
}
