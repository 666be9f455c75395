// Package sampletable implements the write-side SampleTableBuilder and the
// read-side frame-index-to-byte-offset algorithm shared by the MJ2 writer
// and player. This is the hinge between the wire format (stsz/stsc/stco or
// co64/stts/stss) and frame semantics (size, offset, duration, timestamp,
// sync flag) described in the container engine's frame metadata model.
package sampletable

import (
	"github.com/mrjoshuak/go-j2kbox/errs"
	"github.com/mrjoshuak/go-j2kbox/internal/isobox"
)

// FrameInfo describes one sample as appended to the builder: its size, its
// absolute byte offset in the file, its duration, and whether it is a sync
// (key) frame.
type FrameInfo struct {
	Size     uint32
	Offset   uint64
	Duration uint32
	IsSync   bool
}

// Builder accumulates FrameInfo entries and derives the five sample-table
// boxes from them on demand.
type Builder struct {
	use64BitOffsets bool
	frames          []FrameInfo
}

// NewBuilder constructs an empty Builder. use64BitOffsets should be set when
// the caller knows up front that any chunk offset may exceed a uint32 (e.g.
// writing media past the 4GiB mark); it is also inferred automatically at
// BuildChunkOffsets time regardless.
func NewBuilder(use64BitOffsets bool) *Builder {
	return &Builder{use64BitOffsets: use64BitOffsets}
}

// AddSample appends one frame's metadata.
func (b *Builder) AddSample(size uint32, offset uint64, duration uint32, isSync bool) {
	b.frames = append(b.frames, FrameInfo{Size: size, Offset: offset, Duration: duration, IsSync: isSync})
}

// SampleCount returns the number of samples recorded so far.
func (b *Builder) SampleCount() int { return len(b.frames) }

// BuildSampleSize derives the stsz payload: a single shared size when every
// frame matches, else one size per frame.
func (b *Builder) BuildSampleSize() *isobox.SampleSize {
	if len(b.frames) == 0 {
		return &isobox.SampleSize{}
	}
	common := b.frames[0].Size
	uniform := true
	for _, f := range b.frames[1:] {
		if f.Size != common {
			uniform = false
			break
		}
	}
	if uniform {
		return &isobox.SampleSize{SampleSize: common, SampleCount: uint32(len(b.frames))}
	}
	sizes := make([]uint32, len(b.frames))
	for i, f := range b.frames {
		sizes[i] = f.Size
	}
	return &isobox.SampleSize{SampleCount: uint32(len(b.frames)), Sizes: sizes}
}

// BuildSampleToChunk derives the stsc payload. One sample per chunk is the
// simplification this builder always writes; readers still accept arbitrary
// grouping (see Lookup).
func (b *Builder) BuildSampleToChunk() *isobox.SampleToChunk {
	if len(b.frames) == 0 {
		return &isobox.SampleToChunk{}
	}
	return &isobox.SampleToChunk{Entries: []isobox.SampleToChunkEntry{
		{FirstChunk: 1, SamplesPerChunk: 1, SampleDescriptionIndex: 1},
	}}
}

// needs64BitOffsets reports whether any recorded offset exceeds a uint32.
func (b *Builder) needs64BitOffsets() bool {
	if b.use64BitOffsets {
		return true
	}
	for _, f := range b.frames {
		if f.Offset > 0xFFFFFFFF {
			return true
		}
	}
	return false
}

// BuildChunkOffsets derives the stco or co64 payload, choosing 64-bit
// offsets automatically when any recorded offset requires it. Exactly one
// of the two return values is non-nil.
func (b *Builder) BuildChunkOffsets() (*isobox.ChunkOffset, *isobox.ChunkOffset64) {
	if b.needs64BitOffsets() {
		offs := make([]uint64, len(b.frames))
		for i, f := range b.frames {
			offs[i] = f.Offset
		}
		return nil, &isobox.ChunkOffset64{Offsets: offs}
	}
	offs := make([]uint32, len(b.frames))
	for i, f := range b.frames {
		offs[i] = uint32(f.Offset)
	}
	return &isobox.ChunkOffset{Offsets: offs}, nil
}

// BuildTimeToSample derives the stts payload via run-length compression of
// consecutive equal durations.
func (b *Builder) BuildTimeToSample() *isobox.TimeToSample {
	var entries []isobox.TimeToSampleEntry
	for _, f := range b.frames {
		if len(entries) > 0 && entries[len(entries)-1].Delta == f.Duration {
			entries[len(entries)-1].Count++
			continue
		}
		entries = append(entries, isobox.TimeToSampleEntry{Count: 1, Delta: f.Duration})
	}
	return &isobox.TimeToSample{Entries: entries}
}

// BuildSyncSample derives the stss payload, or nil when every sample is a
// sync sample (per the container format's "absence means all sync" rule).
func (b *Builder) BuildSyncSample() *isobox.SyncSample {
	allSync := true
	var nums []uint32
	for i, f := range b.frames {
		if f.IsSync {
			nums = append(nums, uint32(i+1))
		} else {
			allSync = false
		}
	}
	if allSync {
		return nil
	}
	return &isobox.SyncSample{SampleNumbers: nums}
}

// Tables bundles every derived sample-table box, ready to be framed and
// written into an stbl super-box.
type Tables struct {
	SampleSize    *isobox.SampleSize
	SampleToChunk *isobox.SampleToChunk
	ChunkOffset   *isobox.ChunkOffset
	ChunkOffset64 *isobox.ChunkOffset64
	TimeToSample  *isobox.TimeToSample
	SyncSample    *isobox.SyncSample // nil when every sample is a sync sample
}

// Build derives every sample-table box from the recorded frames.
func (b *Builder) Build() Tables {
	co, co64 := b.BuildChunkOffsets()
	return Tables{
		SampleSize:    b.BuildSampleSize(),
		SampleToChunk: b.BuildSampleToChunk(),
		ChunkOffset:   co,
		ChunkOffset64: co64,
		TimeToSample:  b.BuildTimeToSample(),
		SyncSample:    b.BuildSyncSample(),
	}
}

// Reader answers per-sample queries (offset, size, duration, timestamp,
// sync) against a parsed Tables, implementing the read-side algorithm of
// the sample-table mapping: stsc's inverse-run form linearized to
// (chunk_index, sample_within_chunk), chunk offsets from stco/co64, and
// cumulative timestamps from the expanded stts durations.
type Reader struct {
	t           Tables
	sampleCount int
	// chunkOfSample[k] and firstSampleOfChunk, precomputed once so Lookup only
	// sums the sizes of earlier samples within the same chunk.
	chunkOfSample       []int
	firstSampleOfChunk  []int
	cumulativeOffsets   []uint64 // byte offset of each chunk
	sizes               []uint32
	durations           []uint32
	timestamps          []uint64 // cumulative duration before sample k
}

// NewReader builds a Reader from parsed sample-table boxes. sizes holds one
// size per sample; its length is the sample count, which must equal stsz's
// SampleCount and the total of the stts runs.
func NewReader(t Tables, sizes []uint32) (*Reader, error) {
	sampleCount := len(sizes)
	if err := isobox.ValidateSampleCounts(t.SampleSize, t.TimeToSample, sampleCount); err != nil {
		return nil, err
	}
	if t.ChunkOffset == nil && t.ChunkOffset64 == nil {
		return nil, errs.New(errs.KindFileFormat, "sampletable.NewReader", "neither stco nor co64 present")
	}

	var chunkOffsets []uint64
	if t.ChunkOffset64 != nil {
		chunkOffsets = t.ChunkOffset64.Offsets
	} else {
		chunkOffsets = make([]uint64, len(t.ChunkOffset.Offsets))
		for i, o := range t.ChunkOffset.Offsets {
			chunkOffsets[i] = uint64(o)
		}
	}

	chunkOfSample := make([]int, sampleCount)
	firstSampleOfChunk := make([]int, len(chunkOffsets))
	entries := t.SampleToChunk.Entries
	if len(entries) == 0 {
		return nil, errs.New(errs.KindFileFormat, "sampletable.NewReader", "stsc has no entries")
	}
	sampleIdx := 0
	for ei, e := range entries {
		var nextFirstChunk uint32
		if ei+1 < len(entries) {
			nextFirstChunk = entries[ei+1].FirstChunk
		} else {
			nextFirstChunk = uint32(len(chunkOffsets)) + 1
		}
		for chunk := e.FirstChunk; chunk < nextFirstChunk; chunk++ {
			chunkIdx := int(chunk) - 1
			if chunkIdx < 0 || chunkIdx >= len(chunkOffsets) {
				return nil, errs.New(errs.KindFileFormat, "sampletable.NewReader", "stsc references chunk beyond stco/co64")
			}
			firstSampleOfChunk[chunkIdx] = sampleIdx
			for s := uint32(0); s < e.SamplesPerChunk; s++ {
				if sampleIdx >= sampleCount {
					return nil, errs.New(errs.KindFileFormat, "sampletable.NewReader", "stsc describes more samples than stsz")
				}
				chunkOfSample[sampleIdx] = chunkIdx
				sampleIdx++
			}
		}
	}
	if sampleIdx != sampleCount {
		return nil, errs.New(errs.KindFileFormat, "sampletable.NewReader", "stsc describes fewer samples than stsz")
	}

	durations := t.TimeToSample.Durations()
	timestamps := make([]uint64, sampleCount)
	var acc uint64
	for i := 0; i < sampleCount; i++ {
		timestamps[i] = acc
		acc += uint64(durations[i])
	}

	return &Reader{
		t:                   t,
		sampleCount:         sampleCount,
		chunkOfSample:       chunkOfSample,
		firstSampleOfChunk:  firstSampleOfChunk,
		cumulativeOffsets:   chunkOffsets,
		sizes:               sizes,
		durations:           durations,
		timestamps:          timestamps,
	}, nil
}

// SampleCount returns the number of samples in the track.
func (r *Reader) SampleCount() int { return r.sampleCount }

// Lookup returns full FrameInfo plus the derived timestamp for 0-based
// sample index k.
func (r *Reader) Lookup(k int) (FrameInfo, uint64, error) {
	if k < 0 || k >= r.sampleCount {
		return FrameInfo{}, 0, errs.New(errs.KindInvalidParameter, "sampletable.Reader.Lookup", "sample index out of range")
	}
	chunkIdx := r.chunkOfSample[k]
	offset := r.cumulativeOffsets[chunkIdx]
	for s := r.firstSampleOfChunk[chunkIdx]; s < k; s++ {
		offset += uint64(r.sizes[s])
	}
	timestamp := r.timestamps[k]
	info := FrameInfo{
		Size:     r.sizes[k],
		Offset:   offset,
		Duration: r.durations[k],
		IsSync:   r.t.SyncSample.IsSync(uint32(k + 1)),
	}
	return info, timestamp, nil
}
