// Package isobox implements the ISO base media box payloads MJ2 needs: the
// movie/track/media header chain and the sample-table leaf boxes that map
// frame index to byte offset, duration, and sync flag. Field layouts follow
// ISO/IEC 14496-12 as narrowed to what MJ2 actually emits — one video track,
// one sample description, one chunk per sample on write (arbitrary grouping
// is still accepted on read).
package isobox

import (
	"time"

	"github.com/mrjoshuak/go-j2kbox/errs"
	"github.com/mrjoshuak/go-j2kbox/internal/bprim"
)

// fullBoxHeader is the (version:u8, flags:[3]byte) prefix shared by every
// "full box" in the ISO base media family (mvhd, tkhd, mdhd, hdlr, stsz, ...).
type fullBoxHeader struct {
	Version uint8
	Flags   [3]byte
}

func readFullBoxHeader(c *bprim.Cursor) (fullBoxHeader, error) {
	v, err := c.U8()
	if err != nil {
		return fullBoxHeader{}, err
	}
	f, err := c.Bytes(3)
	if err != nil {
		return fullBoxHeader{}, err
	}
	var h fullBoxHeader
	h.Version = v
	copy(h.Flags[:], f)
	return h, nil
}

func (h fullBoxHeader) write(b *bprim.Builder) {
	b.U8(h.Version).Bytes(h.Flags[:])
}

// isoEpoch is the ISO base media reference epoch (1904-01-01 UTC), used to
// convert mvhd/mdhd/tkhd creation/modification timestamps to/from time.Time.
var isoEpoch = time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)

// ToISOTime converts a Go time to seconds since the ISO base media epoch.
func ToISOTime(t time.Time) uint32 { return uint32(t.Sub(isoEpoch).Seconds()) }

// FromISOTime converts seconds since the ISO base media epoch to a Go time.
func FromISOTime(v uint32) time.Time { return isoEpoch.Add(time.Duration(v) * time.Second) }

// MovieHeader is the mvhd box payload.
type MovieHeader struct {
	CreationTime, ModificationTime uint32
	Timescale                      uint32
	Duration                       uint32
	Rate                           int32 // 16.16 fixed point, 0x00010000 = 1.0
	Volume                         int16 // 8.8 fixed point
	NextTrackID                    uint32
}

// ParseMovieHeader decodes an mvhd box payload (version 0 only; MJ2 files
// this module writes never need 64-bit durations at the movie level).
func ParseMovieHeader(data []byte) (*MovieHeader, error) {
	c := bprim.NewCursor(data)
	fb, err := readFullBoxHeader(c)
	if err != nil {
		return nil, err
	}
	if fb.Version != 0 {
		return nil, errs.New(errs.KindFileFormat, "isobox.ParseMovieHeader", "only mvhd version 0 is supported")
	}
	m := &MovieHeader{}
	if m.CreationTime, err = c.U32(); err != nil {
		return nil, err
	}
	if m.ModificationTime, err = c.U32(); err != nil {
		return nil, err
	}
	if m.Timescale, err = c.U32(); err != nil {
		return nil, err
	}
	if m.Duration, err = c.U32(); err != nil {
		return nil, err
	}
	if m.Rate, err = c.I32(); err != nil {
		return nil, err
	}
	vol, err := c.I16()
	if err != nil {
		return nil, err
	}
	m.Volume = vol
	if _, err := c.Bytes(10); err != nil { // reserved
		return nil, err
	}
	if _, err := c.Bytes(36); err != nil { // unity matrix, not modeled
		return nil, err
	}
	if _, err := c.Bytes(24); err != nil { // pre_defined
		return nil, err
	}
	if m.NextTrackID, err = c.U32(); err != nil {
		return nil, err
	}
	return m, nil
}

var unityMatrix = []byte{
	0, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0,
}

// Encode serializes an mvhd box payload, version 0.
func (m *MovieHeader) Encode() []byte {
	b := bprim.NewBuilder(100)
	fullBoxHeader{}.write(b)
	b.U32(m.CreationTime).U32(m.ModificationTime).U32(m.Timescale).U32(m.Duration)
	b.I32(m.Rate).I16(m.Volume)
	b.Bytes(make([]byte, 10))
	b.Bytes(unityMatrix)
	b.Bytes(make([]byte, 24))
	b.U32(m.NextTrackID)
	return b.Build()
}

// TrackHeader is the tkhd box payload.
type TrackHeader struct {
	CreationTime, ModificationTime uint32
	TrackID                        uint32
	Duration                       uint32
	Width, Height                  uint32 // 16.16 fixed point
}

// trackEnabledFlag is the tkhd flags value MJ2 always sets (track enabled).
var trackEnabledFlag = [3]byte{0, 0, 1}

// ParseTrackHeader decodes a tkhd box payload, version 0.
func ParseTrackHeader(data []byte) (*TrackHeader, error) {
	c := bprim.NewCursor(data)
	fb, err := readFullBoxHeader(c)
	if err != nil {
		return nil, err
	}
	if fb.Version != 0 {
		return nil, errs.New(errs.KindFileFormat, "isobox.ParseTrackHeader", "only tkhd version 0 is supported")
	}
	t := &TrackHeader{}
	if t.CreationTime, err = c.U32(); err != nil {
		return nil, err
	}
	if t.ModificationTime, err = c.U32(); err != nil {
		return nil, err
	}
	if t.TrackID, err = c.U32(); err != nil {
		return nil, err
	}
	if _, err := c.Bytes(4); err != nil { // reserved
		return nil, err
	}
	if t.Duration, err = c.U32(); err != nil {
		return nil, err
	}
	if _, err := c.Bytes(8); err != nil { // reserved
		return nil, err
	}
	if _, err := c.Bytes(2); err != nil { // layer
		return nil, err
	}
	if _, err := c.Bytes(2); err != nil { // alternate_group
		return nil, err
	}
	if _, err := c.Bytes(2); err != nil { // volume
		return nil, err
	}
	if _, err := c.Bytes(2); err != nil { // reserved
		return nil, err
	}
	if _, err := c.Bytes(36); err != nil { // matrix
		return nil, err
	}
	if t.Width, err = c.U32(); err != nil {
		return nil, err
	}
	if t.Height, err = c.U32(); err != nil {
		return nil, err
	}
	return t, nil
}

// Encode serializes a tkhd box payload, version 0, with the track-enabled
// flag set.
func (t *TrackHeader) Encode() []byte {
	b := bprim.NewBuilder(92)
	fullBoxHeader{Flags: trackEnabledFlag}.write(b)
	b.U32(t.CreationTime).U32(t.ModificationTime).U32(t.TrackID)
	b.Bytes(make([]byte, 4))
	b.U32(t.Duration)
	b.Bytes(make([]byte, 8))
	b.Bytes(make([]byte, 2)) // layer
	b.Bytes(make([]byte, 2)) // alternate_group
	b.Bytes(make([]byte, 2)) // volume (0 for video track)
	b.Bytes(make([]byte, 2)) // reserved
	b.Bytes(unityMatrix)
	b.U32(t.Width).U32(t.Height)
	return b.Build()
}

// MediaHeader is the mdhd box payload.
type MediaHeader struct {
	CreationTime, ModificationTime uint32
	Timescale                      uint32
	Duration                       uint32
	Language                      uint16 // packed ISO-639-2/T, 0x55C4 = "und"
}

// ParseMediaHeader decodes an mdhd box payload, version 0.
func ParseMediaHeader(data []byte) (*MediaHeader, error) {
	c := bprim.NewCursor(data)
	fb, err := readFullBoxHeader(c)
	if err != nil {
		return nil, err
	}
	if fb.Version != 0 {
		return nil, errs.New(errs.KindFileFormat, "isobox.ParseMediaHeader", "only mdhd version 0 is supported")
	}
	m := &MediaHeader{}
	if m.CreationTime, err = c.U32(); err != nil {
		return nil, err
	}
	if m.ModificationTime, err = c.U32(); err != nil {
		return nil, err
	}
	if m.Timescale, err = c.U32(); err != nil {
		return nil, err
	}
	if m.Duration, err = c.U32(); err != nil {
		return nil, err
	}
	if m.Language, err = c.U16(); err != nil {
		return nil, err
	}
	if _, err := c.Bytes(2); err != nil { // pre_defined
		return nil, err
	}
	return m, nil
}

// Encode serializes an mdhd box payload, version 0.
func (m *MediaHeader) Encode() []byte {
	b := bprim.NewBuilder(24)
	fullBoxHeader{}.write(b)
	b.U32(m.CreationTime).U32(m.ModificationTime).U32(m.Timescale).U32(m.Duration)
	lang := m.Language
	if lang == 0 {
		lang = 0x55C4 // "und"
	}
	b.U16(lang)
	b.Bytes(make([]byte, 2))
	return b.Build()
}

// HandlerRef is the hdlr box payload. HandlerType is "vide" for an MJ2 video
// track.
type HandlerRef struct {
	HandlerType string
	Name        string
}

// ParseHandlerRef decodes an hdlr box payload.
func ParseHandlerRef(data []byte) (*HandlerRef, error) {
	c := bprim.NewCursor(data)
	if _, err := readFullBoxHeader(c); err != nil {
		return nil, err
	}
	if _, err := c.Bytes(4); err != nil { // pre_defined
		return nil, err
	}
	ht, err := c.FourCC()
	if err != nil {
		return nil, err
	}
	if _, err := c.Bytes(12); err != nil { // reserved
		return nil, err
	}
	name := c.Rest()
	return &HandlerRef{HandlerType: ht, Name: string(name)}, nil
}

// Encode serializes an hdlr box payload.
func (h *HandlerRef) Encode() []byte {
	b := bprim.NewBuilder(24 + len(h.Name))
	fullBoxHeader{}.write(b)
	b.Bytes(make([]byte, 4))
	b.FourCC(h.HandlerType)
	b.Bytes(make([]byte, 12))
	b.Bytes([]byte(h.Name))
	return b.Build()
}

// VideoMediaHeader is the vmhd box payload. MJ2 always sets flags=1
// (mandatory per ISO/IEC 14496-12).
type VideoMediaHeader struct{}

// ParseVideoMediaHeader decodes (and discards) a vmhd box payload.
func ParseVideoMediaHeader(data []byte) (*VideoMediaHeader, error) {
	if len(data) < 12 {
		return nil, errs.New(errs.KindTruncated, "isobox.ParseVideoMediaHeader", "vmhd payload shorter than 12 bytes")
	}
	return &VideoMediaHeader{}, nil
}

// Encode serializes a vmhd box payload: graphicsmode=0, opcolor={0,0,0}.
func (VideoMediaHeader) Encode() []byte {
	b := bprim.NewBuilder(12)
	fullBoxHeader{Flags: [3]byte{0, 0, 1}}.write(b)
	b.Bytes(make([]byte, 8))
	return b.Build()
}

// DataEntryURL is the self-referencing url  entry inside a dref box. Flags
// bit 0 set means "media data is in this same file".
type DataEntryURL struct {
	SelfContained bool
	Location      string
}

// ParseDataEntryURL decodes a url  entry within a dref box.
func ParseDataEntryURL(data []byte) (*DataEntryURL, error) {
	c := bprim.NewCursor(data)
	fb, err := readFullBoxHeader(c)
	if err != nil {
		return nil, err
	}
	loc := c.Rest()
	return &DataEntryURL{SelfContained: fb.Flags[2]&1 != 0, Location: string(loc)}, nil
}

// Encode serializes a url  entry.
func (u *DataEntryURL) Encode() []byte {
	flags := [3]byte{0, 0, 0}
	if u.SelfContained {
		flags[2] = 1
	}
	b := bprim.NewBuilder(4 + len(u.Location))
	fullBoxHeader{Flags: flags}.write(b)
	b.Bytes([]byte(u.Location))
	return b.Build()
}

// DataRef is the dref box payload: a count-prefixed list of data entry
// boxes. MJ2 always writes exactly one self-contained url  entry.
type DataRef struct {
	Entries []DataEntryURL
}

// ParseDataRefCount reads the entry_count field a dref payload starts with
// (version/flags then a u32 count); the entries themselves are boxes framed
// by box.Reader and are decoded one at a time with ParseDataEntryURL.
func ParseDataRefCount(data []byte) (int, error) {
	c := bprim.NewCursor(data)
	if _, err := readFullBoxHeader(c); err != nil {
		return 0, err
	}
	n, err := c.U32()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// EncodeDataRefHeader returns the (version, flags, entry_count) prefix of a
// dref box; callers append the already-framed url  child boxes themselves.
func EncodeDataRefHeader(entryCount int) []byte {
	b := bprim.NewBuilder(8)
	fullBoxHeader{}.write(b)
	b.U32(uint32(entryCount))
	return b.Build()
}
