package sampletable

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildTestBuilder() *Builder {
	b := NewBuilder(false)
	b.AddSample(100, 0, 33, true)
	b.AddSample(90, 100, 33, false)
	b.AddSample(95, 190, 33, false)
	b.AddSample(100, 285, 33, true)
	return b
}

func TestBuildSampleSizeVariable(t *testing.T) {
	b := buildTestBuilder()
	sz := b.BuildSampleSize()
	require.Equal(t, uint32(0), sz.SampleSize)
	require.Equal(t, []uint32{100, 90, 95, 100}, sz.Sizes)
}

func TestBuildSampleSizeUniform(t *testing.T) {
	b := NewBuilder(false)
	b.AddSample(50, 0, 10, true)
	b.AddSample(50, 50, 10, true)
	sz := b.BuildSampleSize()
	require.Equal(t, uint32(50), sz.SampleSize)
	require.Nil(t, sz.Sizes)
}

func TestBuildSampleToChunkIsOneSamplePerChunk(t *testing.T) {
	b := buildTestBuilder()
	stc := b.BuildSampleToChunk()
	require.Len(t, stc.Entries, 1)
	require.Equal(t, uint32(1), stc.Entries[0].SamplesPerChunk)
}

func TestBuildTimeToSampleRunLengthCompresses(t *testing.T) {
	b := buildTestBuilder()
	stts := b.BuildTimeToSample()
	require.Equal(t, 1, len(stts.Entries))
	require.Equal(t, uint32(4), stts.Entries[0].Count)
	require.Equal(t, uint32(33), stts.Entries[0].Delta)
}

func TestBuildSyncSampleOmittedWhenAllSync(t *testing.T) {
	b := NewBuilder(false)
	b.AddSample(1, 0, 1, true)
	b.AddSample(1, 1, 1, true)
	require.Nil(t, b.BuildSyncSample())
}

func TestBuildSyncSampleListsNonUniform(t *testing.T) {
	b := buildTestBuilder()
	stss := b.BuildSyncSample()
	require.Equal(t, []uint32{1, 4}, stss.SampleNumbers)
}

func TestBuildChunkOffsetsChooses64Bit(t *testing.T) {
	b := NewBuilder(false)
	b.AddSample(10, 1<<32+5, 1, true)
	co, co64 := b.BuildChunkOffsets()
	require.Nil(t, co)
	require.NotNil(t, co64)
}

func TestReaderLookupMatchesBuilder(t *testing.T) {
	b := buildTestBuilder()
	tables := b.Build()
	sizes := []uint32{100, 90, 95, 100}
	r, err := NewReader(tables, sizes)
	require.NoError(t, err)
	require.Equal(t, 4, r.SampleCount())

	for k, want := range []FrameInfo{
		{Size: 100, Offset: 0, Duration: 33, IsSync: true},
		{Size: 90, Offset: 100, Duration: 33, IsSync: false},
		{Size: 95, Offset: 190, Duration: 33, IsSync: false},
		{Size: 100, Offset: 285, Duration: 33, IsSync: true},
	} {
		got, ts, err := r.Lookup(k)
		require.NoError(t, err)
		require.Equal(t, want, got)
		require.Equal(t, uint64(k*33), ts)
	}
}

func TestReaderLookupOutOfRange(t *testing.T) {
	b := buildTestBuilder()
	r, err := NewReader(b.Build(), []uint32{100, 90, 95, 100})
	require.NoError(t, err)
	_, _, err = r.Lookup(4)
	require.Error(t, err)
}
