package isobox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMovieHeaderRoundTrip(t *testing.T) {
	m := &MovieHeader{CreationTime: 100, ModificationTime: 200, Timescale: 600, Duration: 6000, Rate: 0x00010000, Volume: 0x0100, NextTrackID: 2}
	got, err := ParseMovieHeader(m.Encode())
	require.NoError(t, err)
	require.Equal(t, m, got)
}

func TestTrackHeaderRoundTrip(t *testing.T) {
	tr := &TrackHeader{CreationTime: 1, ModificationTime: 2, TrackID: 1, Duration: 6000, Width: 1920 << 16, Height: 1080 << 16}
	got, err := ParseTrackHeader(tr.Encode())
	require.NoError(t, err)
	require.Equal(t, tr, got)
}

func TestMediaHeaderDefaultsLanguageToUnd(t *testing.T) {
	m := &MediaHeader{Timescale: 600, Duration: 6000}
	got, err := ParseMediaHeader(m.Encode())
	require.NoError(t, err)
	require.Equal(t, uint16(0x55C4), got.Language)
}

func TestHandlerRefRoundTrip(t *testing.T) {
	h := &HandlerRef{HandlerType: "vide", Name: "VideoHandler"}
	got, err := ParseHandlerRef(h.Encode())
	require.NoError(t, err)
	require.Equal(t, h, got)
}

func TestDataEntryURLSelfContained(t *testing.T) {
	u := &DataEntryURL{SelfContained: true}
	got, err := ParseDataEntryURL(u.Encode())
	require.NoError(t, err)
	require.True(t, got.SelfContained)
}

func TestSampleSizeUniform(t *testing.T) {
	s := &SampleSize{SampleSize: 1024, SampleCount: 5}
	got, err := ParseSampleSize(s.Encode())
	require.NoError(t, err)
	require.Equal(t, s, got)
}

func TestSampleSizeVariable(t *testing.T) {
	s := &SampleSize{SampleCount: 3, Sizes: []uint32{10, 20, 30}}
	got, err := ParseSampleSize(s.Encode())
	require.NoError(t, err)
	require.Equal(t, s, got)
}

func TestTimeToSampleDurationsExpandsRuns(t *testing.T) {
	stts := &TimeToSample{Entries: []TimeToSampleEntry{{Count: 3, Delta: 100}, {Count: 2, Delta: 50}}}
	require.Equal(t, []uint32{100, 100, 100, 50, 50}, stts.Durations())
}

func TestSyncSampleIsSync(t *testing.T) {
	var nilStss *SyncSample
	require.True(t, nilStss.IsSync(1))

	stss := &SyncSample{SampleNumbers: []uint32{1, 5}}
	require.True(t, stss.IsSync(1))
	require.False(t, stss.IsSync(2))
	require.True(t, stss.IsSync(5))
}

func TestChunkOffset64RoundTrip(t *testing.T) {
	co := &ChunkOffset64{Offsets: []uint64{1 << 40, 1 << 41}}
	got, err := ParseChunkOffset64(co.Encode())
	require.NoError(t, err)
	require.Equal(t, co, got)
}

func TestValidateSampleCountsDetectsMismatch(t *testing.T) {
	sz := &SampleSize{SampleSize: 10, SampleCount: 3}
	stts := &TimeToSample{Entries: []TimeToSampleEntry{{Count: 2, Delta: 1}}}
	err := ValidateSampleCounts(sz, stts, 3)
	require.Error(t, err)
}
