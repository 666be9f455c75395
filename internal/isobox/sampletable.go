package isobox

import (
	"github.com/mrjoshuak/go-j2kbox/errs"
	"github.com/mrjoshuak/go-j2kbox/internal/bprim"
)

// SampleSize is the stsz box payload. If SampleSize is nonzero, every
// sample shares that size and Sizes is empty; otherwise Sizes holds one
// entry per sample.
type SampleSize struct {
	SampleSize  uint32
	SampleCount uint32
	Sizes       []uint32
}

// ParseSampleSize decodes an stsz box payload.
func ParseSampleSize(data []byte) (*SampleSize, error) {
	c := bprim.NewCursor(data)
	if _, err := readFullBoxHeader(c); err != nil {
		return nil, err
	}
	s := &SampleSize{}
	var err error
	if s.SampleSize, err = c.U32(); err != nil {
		return nil, err
	}
	if s.SampleCount, err = c.U32(); err != nil {
		return nil, err
	}
	if s.SampleSize == 0 {
		s.Sizes = make([]uint32, s.SampleCount)
		for i := range s.Sizes {
			if s.Sizes[i], err = c.U32(); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

// Encode serializes an stsz box payload.
func (s *SampleSize) Encode() []byte {
	n := 0
	if s.SampleSize == 0 {
		n = len(s.Sizes)
	}
	b := bprim.NewBuilder(12 + 4*n)
	fullBoxHeader{}.write(b)
	b.U32(s.SampleSize).U32(s.SampleCount)
	if s.SampleSize == 0 {
		for _, sz := range s.Sizes {
			b.U32(sz)
		}
	}
	return b.Build()
}

// SampleToChunkEntry is one stsc entry: starting at FirstChunk (1-based),
// every chunk has SamplesPerChunk samples described by
// SampleDescriptionIndex, until the next entry's FirstChunk.
type SampleToChunkEntry struct {
	FirstChunk             uint32
	SamplesPerChunk        uint32
	SampleDescriptionIndex uint32
}

// SampleToChunk is the stsc box payload.
type SampleToChunk struct {
	Entries []SampleToChunkEntry
}

// ParseSampleToChunk decodes an stsc box payload.
func ParseSampleToChunk(data []byte) (*SampleToChunk, error) {
	c := bprim.NewCursor(data)
	if _, err := readFullBoxHeader(c); err != nil {
		return nil, err
	}
	n, err := c.U32()
	if err != nil {
		return nil, err
	}
	entries := make([]SampleToChunkEntry, n)
	for i := range entries {
		fc, err := c.U32()
		if err != nil {
			return nil, err
		}
		spc, err := c.U32()
		if err != nil {
			return nil, err
		}
		sdi, err := c.U32()
		if err != nil {
			return nil, err
		}
		entries[i] = SampleToChunkEntry{FirstChunk: fc, SamplesPerChunk: spc, SampleDescriptionIndex: sdi}
	}
	return &SampleToChunk{Entries: entries}, nil
}

// Encode serializes an stsc box payload.
func (s *SampleToChunk) Encode() []byte {
	b := bprim.NewBuilder(8 + 12*len(s.Entries))
	fullBoxHeader{}.write(b)
	b.U32(uint32(len(s.Entries)))
	for _, e := range s.Entries {
		b.U32(e.FirstChunk).U32(e.SamplesPerChunk).U32(e.SampleDescriptionIndex)
	}
	return b.Build()
}

// ChunkOffset is the stco (32-bit) box payload.
type ChunkOffset struct {
	Offsets []uint32
}

// ParseChunkOffset decodes an stco box payload.
func ParseChunkOffset(data []byte) (*ChunkOffset, error) {
	c := bprim.NewCursor(data)
	if _, err := readFullBoxHeader(c); err != nil {
		return nil, err
	}
	n, err := c.U32()
	if err != nil {
		return nil, err
	}
	offs := make([]uint32, n)
	for i := range offs {
		if offs[i], err = c.U32(); err != nil {
			return nil, err
		}
	}
	return &ChunkOffset{Offsets: offs}, nil
}

// Encode serializes an stco box payload.
func (c *ChunkOffset) Encode() []byte {
	b := bprim.NewBuilder(8 + 4*len(c.Offsets))
	fullBoxHeader{}.write(b)
	b.U32(uint32(len(c.Offsets)))
	for _, o := range c.Offsets {
		b.U32(o)
	}
	return b.Build()
}

// ChunkOffset64 is the co64 (64-bit) box payload, used when any chunk
// offset exceeds a uint32.
type ChunkOffset64 struct {
	Offsets []uint64
}

// ParseChunkOffset64 decodes a co64 box payload.
func ParseChunkOffset64(data []byte) (*ChunkOffset64, error) {
	c := bprim.NewCursor(data)
	if _, err := readFullBoxHeader(c); err != nil {
		return nil, err
	}
	n, err := c.U32()
	if err != nil {
		return nil, err
	}
	offs := make([]uint64, n)
	for i := range offs {
		if offs[i], err = c.U64(); err != nil {
			return nil, err
		}
	}
	return &ChunkOffset64{Offsets: offs}, nil
}

// Encode serializes a co64 box payload.
func (c *ChunkOffset64) Encode() []byte {
	b := bprim.NewBuilder(8 + 8*len(c.Offsets))
	fullBoxHeader{}.write(b)
	b.U32(uint32(len(c.Offsets)))
	for _, o := range c.Offsets {
		b.U64(o)
	}
	return b.Build()
}

// TimeToSampleEntry is one run-length-compressed stts entry: Count
// consecutive samples each with duration Delta.
type TimeToSampleEntry struct {
	Count uint32
	Delta uint32
}

// TimeToSample is the stts box payload.
type TimeToSample struct {
	Entries []TimeToSampleEntry
}

// ParseTimeToSample decodes an stts box payload.
func ParseTimeToSample(data []byte) (*TimeToSample, error) {
	c := bprim.NewCursor(data)
	if _, err := readFullBoxHeader(c); err != nil {
		return nil, err
	}
	n, err := c.U32()
	if err != nil {
		return nil, err
	}
	entries := make([]TimeToSampleEntry, n)
	for i := range entries {
		cnt, err := c.U32()
		if err != nil {
			return nil, err
		}
		delta, err := c.U32()
		if err != nil {
			return nil, err
		}
		entries[i] = TimeToSampleEntry{Count: cnt, Delta: delta}
	}
	return &TimeToSample{Entries: entries}, nil
}

// Encode serializes an stts box payload.
func (t *TimeToSample) Encode() []byte {
	b := bprim.NewBuilder(8 + 8*len(t.Entries))
	fullBoxHeader{}.write(b)
	b.U32(uint32(len(t.Entries)))
	for _, e := range t.Entries {
		b.U32(e.Count).U32(e.Delta)
	}
	return b.Build()
}

// Durations expands the run-length pairs into one duration per sample.
func (t *TimeToSample) Durations() []uint32 {
	var out []uint32
	for _, e := range t.Entries {
		for i := uint32(0); i < e.Count; i++ {
			out = append(out, e.Delta)
		}
	}
	return out
}

// SyncSample is the stss box payload: 1-based indices of sync (key) frames.
// Its absence in the enclosing stbl means every sample is a sync sample.
type SyncSample struct {
	SampleNumbers []uint32
}

// ParseSyncSample decodes an stss box payload.
func ParseSyncSample(data []byte) (*SyncSample, error) {
	c := bprim.NewCursor(data)
	if _, err := readFullBoxHeader(c); err != nil {
		return nil, err
	}
	n, err := c.U32()
	if err != nil {
		return nil, err
	}
	nums := make([]uint32, n)
	for i := range nums {
		if nums[i], err = c.U32(); err != nil {
			return nil, err
		}
	}
	return &SyncSample{SampleNumbers: nums}, nil
}

// Encode serializes an stss box payload.
func (s *SyncSample) Encode() []byte {
	b := bprim.NewBuilder(8 + 4*len(s.SampleNumbers))
	fullBoxHeader{}.write(b)
	b.U32(uint32(len(s.SampleNumbers)))
	for _, n := range s.SampleNumbers {
		b.U32(n)
	}
	return b.Build()
}

// IsSync reports whether 1-based sample number n is a sync sample. A nil
// SyncSample (no stss box present) means every sample is a sync sample.
func (s *SyncSample) IsSync(n uint32) bool {
	if s == nil {
		return true
	}
	for _, v := range s.SampleNumbers {
		if v == n {
			return true
		}
	}
	return false
}

// SampleDescription is the stsd box payload for an MJ2 video track: a
// count-prefixed list of mjp2 sample entries, each naming the codestream's
// visual sample entry fields. Only the count and the raw entry bytes are
// modeled; mjp2 sample entry internals (width/height/depth, nested jp2h) are
// callers' responsibility to assemble via boxcodec.JP2Header.
type SampleDescription struct {
	EntryCount uint32
	Entries    [][]byte
}

// ParseSampleDescriptionHeader reads the version/flags/entry_count prefix;
// callers walk the entry boxes themselves with box.Reader since mjp2 sample
// entries are themselves box-framed.
func ParseSampleDescriptionHeader(data []byte) (uint32, error) {
	c := bprim.NewCursor(data)
	if _, err := readFullBoxHeader(c); err != nil {
		return 0, err
	}
	n, err := c.U32()
	if err != nil {
		return 0, err
	}
	return n, nil
}

// EncodeSampleDescriptionHeader returns the stsd payload's fixed prefix.
func EncodeSampleDescriptionHeader(entryCount int) []byte {
	b := bprim.NewBuilder(8)
	fullBoxHeader{}.write(b)
	b.U32(uint32(entryCount))
	return b.Build()
}

// ValidateSampleCounts cross-checks that SampleSize and TimeToSample both
// describe exactly sampleCount samples (SyncSample is not checked) —
// the structural precondition the sample-lookup algorithm in
// mj2/sampletable depends on.
func ValidateSampleCounts(sz *SampleSize, stts *TimeToSample, sampleCount int) error {
	if int(sz.SampleCount) != sampleCount {
		return errs.New(errs.KindFileFormat, "isobox.ValidateSampleCounts", "stsz sample count mismatch")
	}
	total := uint32(0)
	for _, e := range stts.Entries {
		total += e.Count
	}
	if int(total) != sampleCount {
		return errs.New(errs.KindFileFormat, "isobox.ValidateSampleCounts", "stts total sample count mismatch")
	}
	return nil
}
