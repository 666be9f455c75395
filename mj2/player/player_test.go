package player

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mrjoshuak/go-j2kbox/codec"
	"github.com/mrjoshuak/go-j2kbox/mj2/sampletable"
)

type countingCodec struct{ decodes int }

func (c *countingCodec) Encode(ctx context.Context, p codec.EncodeParams) ([]byte, error) {
	return nil, nil
}
func (c *countingCodec) Decode(ctx context.Context, cs []byte) (*codec.DecodeResult, error) {
	c.decodes++
	return &codec.DecodeResult{PixelData: make([]byte, len(cs)*100)}, nil
}
func (c *countingCodec) Name() string { return "counting" }

// buildFixture lays out n frames of 3 bytes each directly in a byte slice and
// builds a matching sampletable.Reader over it, so Player.decodeFrame's
// offset math has real bytes to slice.
func buildFixture(t *testing.T, n int) ([]byte, *sampletable.Reader) {
	t.Helper()
	b := sampletable.NewBuilder(false)
	data := make([]byte, 0, n*3)
	for i := 0; i < n; i++ {
		offset := uint64(len(data))
		data = append(data, 0xFF, 0x4F, byte(i))
		b.AddSample(3, offset, 33, i == 0)
	}
	tables := b.Build()
	sizes := make([]uint32, n)
	for i := range sizes {
		sizes[i] = 3
	}
	r, err := sampletable.NewReader(tables, sizes)
	require.NoError(t, err)
	return data, r
}

func TestPlayerFrameAtDecodesAndCaches(t *testing.T) {
	data, table := buildFixture(t, 5)
	c := &countingCodec{}
	p, err := New(data, table, c, 10, 1<<20)
	require.NoError(t, err)

	_, ts0, err := p.FrameAt(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, uint64(0), ts0)
	require.Equal(t, 1, c.decodes)

	_, _, err = p.FrameAt(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, 1, c.decodes) // cache hit, no second decode
	require.Equal(t, 1, p.Stats().CacheHits)
}

func TestPlayerNextFrameAdvancesForward(t *testing.T) {
	data, table := buildFixture(t, 4)
	p, err := New(data, table, &countingCodec{}, 10, 1<<20)
	require.NoError(t, err)
	p.SetMode(ModeForward)

	for i := 0; i < 3; i++ {
		_, _, err := p.NextFrame(context.Background())
		require.NoError(t, err)
	}
	require.Equal(t, 3, p.CurrentIndex())

	result, _, err := p.NextFrame(context.Background())
	require.NoError(t, err)
	require.Nil(t, result) // past the end, LoopNone stops instead of erroring
	require.Equal(t, StateStopped, p.State())
}

func TestPlayerNextFramePingPongReverses(t *testing.T) {
	data, table := buildFixture(t, 3)
	p, err := New(data, table, &countingCodec{}, 10, 1<<20)
	require.NoError(t, err)
	p.SetLoopMode(LoopPingPong)

	for i := 0; i < 2; i++ {
		_, _, err := p.NextFrame(context.Background())
		require.NoError(t, err)
	}
	require.Equal(t, 2, p.CurrentIndex())

	_, _, err = p.NextFrame(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, p.CurrentIndex()) // reversed direction at the end
	require.Equal(t, ModeReverse, p.Mode())
}

func TestPlayerNextFrameLoopWrapsToOtherEnd(t *testing.T) {
	data, table := buildFixture(t, 3)
	p, err := New(data, table, &countingCodec{}, 10, 1<<20)
	require.NoError(t, err)
	p.SetLoopMode(LoopLoop)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, _, err := p.NextFrame(context.Background())
		require.NoError(t, err)
	}
	require.Equal(t, 2, p.CurrentIndex())
	_, _, err = p.NextFrame(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, p.CurrentIndex())
}

func TestPlayerSeekToOutOfRange(t *testing.T) {
	data, table := buildFixture(t, 3)
	p, err := New(data, table, &countingCodec{}, 10, 1<<20)
	require.NoError(t, err)
	_, _, err = p.SeekTo(context.Background(), 99)
	require.Error(t, err)
}

func TestPlayerSeekToPrefetchesAhead(t *testing.T) {
	data, table := buildFixture(t, 5)
	c := &countingCodec{}
	p, err := New(data, table, c, 10, 1<<20)
	require.NoError(t, err)
	_, _, err = p.SeekTo(context.Background(), 0)
	require.NoError(t, err)
	// defaultPrefetchCount=3 frames ahead plus the seeked-to frame itself.
	require.Equal(t, 4, c.decodes)
}

func TestPlayerSeekToTimestampFindsClosest(t *testing.T) {
	data, table := buildFixture(t, 5) // durations 33 each: timestamps 0,33,66,99,132
	p, err := New(data, table, &countingCodec{}, 10, 1<<20)
	require.NoError(t, err)
	_, ts, err := p.SeekToTimestamp(context.Background(), 70)
	require.NoError(t, err)
	require.Equal(t, 2, p.CurrentIndex())
	require.Equal(t, uint64(66), ts)
}

func TestPlayerSpeedClampsToRange(t *testing.T) {
	data, table := buildFixture(t, 2)
	p, err := New(data, table, &countingCodec{}, 10, 1<<20)
	require.NoError(t, err)
	p.SetSpeed(50)
	require.Equal(t, 10.0, p.Speed())
	p.SetSpeed(0.0001)
	require.Equal(t, 0.1, p.Speed())
}

func TestPlayerEvictsUnderByteBudget(t *testing.T) {
	data, table := buildFixture(t, 10)
	c := &countingCodec{} // each decode produces 300 bytes of pixel data
	p, err := New(data, table, c, 100, 650)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		_, _, err := p.FrameAt(context.Background(), i)
		require.NoError(t, err)
	}
	require.LessOrEqual(t, p.cache.len(), 3)
	require.LessOrEqual(t, p.MemoryUsage(), 650)
}
