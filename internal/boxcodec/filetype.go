package boxcodec

import (
	"github.com/mrjoshuak/go-j2kbox/errs"
	"github.com/mrjoshuak/go-j2kbox/internal/box"
	"github.com/mrjoshuak/go-j2kbox/internal/bprim"
)

// Well-known ftyp brands, used by both container format detection and the
// write pipeline's ftyp construction.
var (
	BrandJP2  = box.TypeFromString("jp2 ")
	BrandJPX  = box.TypeFromString("jpx ")
	BrandJPM  = box.TypeFromString("jpm ")
	BrandJPH  = box.TypeFromString("jph ")
	BrandMJ2  = box.TypeFromString("mjp2")
	BrandMJ2S = box.TypeFromString("mj2s")
)

// FileType is the ftyp box payload.
type FileType struct {
	Brand         box.Type
	MinorVersion  uint32
	Compatibility []box.Type
}

// ParseFileType decodes an ftyp box payload.
func ParseFileType(data []byte) (*FileType, error) {
	if len(data) < 8 {
		return nil, errs.New(errs.KindTruncated, "boxcodec.ParseFileType", "ftyp payload shorter than 8 bytes")
	}
	if (len(data)-8)%4 != 0 {
		return nil, errs.New(errs.KindFileFormat, "boxcodec.ParseFileType", "compatibility list length not a multiple of 4")
	}
	c := bprim.NewCursor(data)
	brandRaw, err := c.U32()
	if err != nil {
		return nil, err
	}
	minor, err := c.U32()
	if err != nil {
		return nil, err
	}
	n := (len(data) - 8) / 4
	compat := make([]box.Type, n)
	for i := range compat {
		v, err := c.U32()
		if err != nil {
			return nil, err
		}
		compat[i] = box.Type(v)
	}
	return &FileType{Brand: box.Type(brandRaw), MinorVersion: minor, Compatibility: compat}, nil
}

// Encode serializes an ftyp box payload.
func (f *FileType) Encode() []byte {
	b := bprim.NewBuilder(8 + 4*len(f.Compatibility))
	b.U32(uint32(f.Brand)).U32(f.MinorVersion)
	for _, c := range f.Compatibility {
		b.U32(uint32(c))
	}
	return b.Build()
}

// NewFileType builds an ftyp payload for the given brand with a compatibility
// list suitable for that brand (JPH additionally declares jp2 compatibility,
// matching readers that only understand the base JP2 profile).
func NewFileType(brand box.Type) *FileType {
	compat := []box.Type{brand}
	if brand == BrandJPH {
		compat = append(compat, BrandJP2)
	}
	return &FileType{Brand: brand, MinorVersion: 0, Compatibility: compat}
}
