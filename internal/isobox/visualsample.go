package isobox

import "github.com/mrjoshuak/go-j2kbox/internal/bprim"

// VisualSampleEntry is the fixed-size prefix of an mjp2 sample entry inside
// stsd (ISO/IEC 14496-12 §8.5.2, narrowed to the fields MJ2 actually sets).
// The jp2h box describing the frame's JPEG 2000 image header follows this
// prefix as a child box, framed separately by box.Writer.
type VisualSampleEntry struct {
	DataReferenceIndex uint16
	Width, Height      uint16
	CompressorName     string // up to 31 bytes, Pascal-string encoded
}

// Encode serializes the fixed 78-byte VisualSampleEntry prefix. CompressorName
// is truncated to 31 bytes if longer.
func (v *VisualSampleEntry) Encode() []byte {
	b := bprim.NewBuilder(78)
	b.Bytes(make([]byte, 6)) // reserved
	b.U16(v.DataReferenceIndex)
	b.U16(0).U16(0) // pre_defined, reserved
	b.Bytes(make([]byte, 12)) // pre_defined[3]
	b.U16(v.Width).U16(v.Height)
	b.U32(0x00480000).U32(0x00480000) // horiz/vertresolution, 72 dpi
	b.U32(0)                          // reserved
	b.U16(1)                          // frame_count
	name := v.CompressorName
	if len(name) > 31 {
		name = name[:31]
	}
	b.U8(uint8(len(name)))
	b.Bytes([]byte(name))
	b.Bytes(make([]byte, 31-len(name)))
	b.U16(0x0018) // depth, 24
	b.I16(-1)     // pre_defined
	return b.Build()
}

// ParseVisualSampleEntryPrefix decodes the fixed 78-byte prefix; any trailing
// bytes are child boxes (e.g. jp2h) that callers walk with box.Reader.
func ParseVisualSampleEntryPrefix(data []byte) (*VisualSampleEntry, []byte, error) {
	c := bprim.NewCursor(data)
	if _, err := c.Bytes(6); err != nil {
		return nil, nil, err
	}
	dri, err := c.U16()
	if err != nil {
		return nil, nil, err
	}
	if _, err := c.Bytes(16); err != nil {
		return nil, nil, err
	}
	w, err := c.U16()
	if err != nil {
		return nil, nil, err
	}
	h, err := c.U16()
	if err != nil {
		return nil, nil, err
	}
	if _, err := c.Bytes(4 + 4 + 4 + 2); err != nil {
		return nil, nil, err
	}
	nameLen, err := c.U8()
	if err != nil {
		return nil, nil, err
	}
	nameBytes, err := c.Bytes(31)
	if err != nil {
		return nil, nil, err
	}
	if _, err := c.Bytes(2 + 2); err != nil {
		return nil, nil, err
	}
	name := string(nameBytes[:nameLen])
	rest := c.Rest()
	return &VisualSampleEntry{DataReferenceIndex: dri, Width: w, Height: h, CompressorName: name}, rest, nil
}
