package boxcodec

import (
	"github.com/mrjoshuak/go-j2kbox/errs"
	"github.com/mrjoshuak/go-j2kbox/internal/bprim"
)

// ImageHeader is the ihdr box payload. BitsPerComponent packs the sign bit
// in the high bit and the 0-based (depth-1) value in the low 7 bits, as on
// disk; BitDepth/Signed below decode that packing.
type ImageHeader struct {
	Height            uint32
	Width             uint32
	NumComponents     uint16
	BitsPerComponent  uint8
	CompressionType   uint8
	ColorspaceUnknown uint8
	IPR               uint8
}

// BitDepth returns the unpacked bit depth in [1,38], or 0xFF when the real
// depths live in a sibling bpcc box.
func (h *ImageHeader) BitDepth() int {
	if h.BitsPerComponent == 0xFF {
		return 0xFF
	}
	return int(h.BitsPerComponent&0x7F) + 1
}

// Signed reports the sign bit of BitsPerComponent.
func (h *ImageHeader) Signed() bool { return h.BitsPerComponent&0x80 != 0 }

// PackBitsPerComponent encodes a bit depth and sign into the on-disk byte.
func PackBitsPerComponent(depth int, signed bool) (uint8, error) {
	if depth < 1 || depth > 38 {
		return 0, errs.New(errs.KindInvalidParameter, "boxcodec.PackBitsPerComponent", "bit depth out of range [1,38]")
	}
	v := uint8(depth - 1)
	if signed {
		v |= 0x80
	}
	return v, nil
}

// ParseImageHeader decodes an ihdr box payload, which must be exactly 14 bytes.
func ParseImageHeader(data []byte) (*ImageHeader, error) {
	if len(data) != 14 {
		return nil, errs.New(errs.KindFileFormat, "boxcodec.ParseImageHeader", "ihdr payload must be exactly 14 bytes")
	}
	c := bprim.NewCursor(data)
	h := &ImageHeader{}
	var err error
	if h.Height, err = c.U32(); err != nil {
		return nil, err
	}
	if h.Width, err = c.U32(); err != nil {
		return nil, err
	}
	if h.NumComponents, err = c.U16(); err != nil {
		return nil, err
	}
	if h.BitsPerComponent, err = c.U8(); err != nil {
		return nil, err
	}
	if h.CompressionType, err = c.U8(); err != nil {
		return nil, err
	}
	if h.ColorspaceUnknown, err = c.U8(); err != nil {
		return nil, err
	}
	if h.IPR, err = c.U8(); err != nil {
		return nil, err
	}
	if h.BitsPerComponent != 0xFF {
		depth := int(h.BitsPerComponent&0x7F) + 1
		if depth < 1 || depth > 38 {
			return nil, errs.New(errs.KindFileFormat, "boxcodec.ParseImageHeader", "bit depth out of range [1,38]")
		}
	}
	if h.ColorspaceUnknown > 1 || h.IPR > 1 {
		return nil, errs.New(errs.KindFileFormat, "boxcodec.ParseImageHeader", "cs_unknown/ip must be 0 or 1")
	}
	return h, nil
}

// Encode serializes an ihdr box payload.
func (h *ImageHeader) Encode() []byte {
	b := bprim.NewBuilder(14)
	b.U32(h.Height).U32(h.Width).U16(h.NumComponents).
		U8(h.BitsPerComponent).U8(h.CompressionType).
		U8(h.ColorspaceUnknown).U8(h.IPR)
	return b.Build()
}

// BitsPerComponentBox is the bpcc box payload: one per-component byte,
// packed the same way as ImageHeader.BitsPerComponent.
type BitsPerComponentBox struct {
	BitsPerComponent []uint8
}

// ParseBitsPerComponentBox decodes a bpcc box payload.
func ParseBitsPerComponentBox(data []byte) (*BitsPerComponentBox, error) {
	if len(data) < 1 || len(data) > 16384 {
		return nil, errs.New(errs.KindFileFormat, "boxcodec.ParseBitsPerComponentBox", "component count out of range [1,16384]")
	}
	out, err := bprim.Slice(data, 0, len(data))
	if err != nil {
		return nil, err
	}
	return &BitsPerComponentBox{BitsPerComponent: out}, nil
}

// Encode serializes a bpcc box payload.
func (b *BitsPerComponentBox) Encode() []byte {
	out := make([]byte, len(b.BitsPerComponent))
	copy(out, b.BitsPerComponent)
	return out
}
