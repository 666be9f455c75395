// Package codestream extracts the dimensional metadata container assembly
// needs from a JPEG 2000 codestream without parsing the rest of it — the
// actual entropy-coded tile data and every other marker segment are the
// external Codec's concern, not this module's.
package codestream

import (
	"github.com/mrjoshuak/go-j2kbox/errs"
	"github.com/mrjoshuak/go-j2kbox/internal/bprim"
)

// markerSOC and markerSIZ are the two fixed-position markers every
// codestream begins with.
const (
	markerSOC = 0xFF4F
	markerSIZ = 0xFF51
)

// ComponentInfo is one component's entry in the SIZ marker segment.
type ComponentInfo struct {
	Ssiz  uint8
	XRsiz uint8
	YRsiz uint8
}

// BitDepth returns the component's bit depth, decoded from the low 7 bits
// of Ssiz plus one.
func (c ComponentInfo) BitDepth() int { return int(c.Ssiz&0x7F) + 1 }

// Signed reports the sign bit (bit 7) of Ssiz.
func (c ComponentInfo) Signed() bool { return c.Ssiz&0x80 != 0 }

// Width returns ceil(Xsiz/XRsiz) for this component given the image's Xsiz.
func (c ComponentInfo) Width(xsiz uint32) uint32 {
	return ceilDiv(xsiz, uint32(c.XRsiz))
}

// Height returns ceil(Ysiz/YRsiz) for this component given the image's Ysiz.
func (c ComponentInfo) Height(ysiz uint32) uint32 {
	return ceilDiv(ysiz, uint32(c.YRsiz))
}

func ceilDiv(a, b uint32) uint32 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

// ImageInfo is the decoded SIZ marker segment: the dimensions and
// per-component sample formats container assembly needs to build an ihdr
// box without consulting the external Codec.
type ImageInfo struct {
	Rsiz                           uint16
	Xsiz, Ysiz, XOsiz, YOsiz       uint32
	XTsiz, YTsiz, XTOsiz, YTOsiz   uint32
	Components                     []ComponentInfo
}

// NumComponents returns len(Components) as a uint16, the cardinality SIZ's
// Csiz field carries on disk.
func (i *ImageInfo) NumComponents() uint16 { return uint16(len(i.Components)) }

// ParseSIZ locates the SOC+SIZ prefix of a raw codestream and decodes the
// SIZ marker segment. codestream is the full jp2c content (or a standalone
// J2K file); only its first bytes are consumed.
func ParseSIZ(cs []byte) (*ImageInfo, error) {
	c := bprim.NewCursor(cs)
	soc, err := c.U16()
	if err != nil {
		return nil, err
	}
	if soc != markerSOC {
		return nil, errs.New(errs.KindFileFormat, "codestream.ParseSIZ", "codestream does not begin with SOC marker")
	}
	marker, err := c.U16()
	if err != nil {
		return nil, err
	}
	if marker != markerSIZ {
		return nil, errs.New(errs.KindFileFormat, "codestream.ParseSIZ", "SOC not followed by SIZ marker")
	}
	if _, err := c.U16(); err != nil { // Lsiz, segment length, unused here
		return nil, err
	}

	info := &ImageInfo{}
	if info.Rsiz, err = c.U16(); err != nil {
		return nil, err
	}
	if info.Xsiz, err = c.U32(); err != nil {
		return nil, err
	}
	if info.Ysiz, err = c.U32(); err != nil {
		return nil, err
	}
	if info.XOsiz, err = c.U32(); err != nil {
		return nil, err
	}
	if info.YOsiz, err = c.U32(); err != nil {
		return nil, err
	}
	if info.XTsiz, err = c.U32(); err != nil {
		return nil, err
	}
	if info.YTsiz, err = c.U32(); err != nil {
		return nil, err
	}
	if info.XTOsiz, err = c.U32(); err != nil {
		return nil, err
	}
	if info.YTOsiz, err = c.U32(); err != nil {
		return nil, err
	}
	csiz, err := c.U16()
	if err != nil {
		return nil, err
	}
	if csiz < 1 || csiz > 16384 {
		return nil, errs.New(errs.KindFileFormat, "codestream.ParseSIZ", "Csiz out of range [1,16384]")
	}
	comps := make([]ComponentInfo, csiz)
	for i := range comps {
		ssiz, err := c.U8()
		if err != nil {
			return nil, err
		}
		xr, err := c.U8()
		if err != nil {
			return nil, err
		}
		yr, err := c.U8()
		if err != nil {
			return nil, err
		}
		if xr == 0 || yr == 0 {
			return nil, errs.New(errs.KindFileFormat, "codestream.ParseSIZ", "component subsampling factor must be nonzero")
		}
		comps[i] = ComponentInfo{Ssiz: ssiz, XRsiz: xr, YRsiz: yr}
	}
	info.Components = comps
	return info, nil
}

// EncodeSIZ serializes the SOC+SIZ prefix for a codestream described by
// info. Callers append the rest of the codestream (COD/QCD/tile-part data
// from the external Codec) after this prefix.
func EncodeSIZ(info *ImageInfo) []byte {
	lsiz := uint16(38 + 3*len(info.Components))
	b := bprim.NewBuilder(4 + int(lsiz))
	b.U16(markerSOC).U16(markerSIZ).U16(lsiz)
	b.U16(info.Rsiz)
	b.U32(info.Xsiz).U32(info.Ysiz).U32(info.XOsiz).U32(info.YOsiz)
	b.U32(info.XTsiz).U32(info.YTsiz).U32(info.XTOsiz).U32(info.YTOsiz)
	b.U16(uint16(len(info.Components)))
	for _, c := range info.Components {
		b.U8(c.Ssiz).U8(c.XRsiz).U8(c.YRsiz)
	}
	return b.Build()
}
