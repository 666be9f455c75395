// Package boxcodec implements the payload codecs for the box types shared by
// JP2, JPX, JPM, and JPH — everything that sits inside (or alongside) a jp2h
// super-box plus the Part-2 metadata family. ISO base media (MJ2) box
// payloads live in internal/isobox instead, since their field layouts follow
// a different standard entirely.
//
// Every codec here follows the same shape: a ParseX(data []byte) (*X, error)
// function that decodes a payload, and an Encode method on *X that returns
// the payload bytes (with an error for types whose fields can be invalid).
// Unknown box types are never a parse error; box.Reader hands their content
// to callers as opaque bytes, which callers keep as a Raw value and write
// back with box.Writer.WriteRawBox to round-trip without loss.
package boxcodec

import (
	"github.com/mrjoshuak/go-j2kbox/errs"
	"github.com/mrjoshuak/go-j2kbox/internal/bprim"
)

// Enumerated colorspace values per ISO/IEC 15444-1 Annex M. Only the closed
// set a colr box with method=1 (enumerated) may carry; anything else is a
// FileFormat violation on decode, and Encode refuses to emit anything else.
const (
	CSGreyscale = 17
	CSsRGB      = 16
	CSYCbCr     = 18
	CSCMYK      = 12
	CSeSRGB     = 20
	CSROMMRGB   = 21
)

var validEnumCS = map[uint32]bool{
	CSsRGB:      true,
	CSGreyscale: true,
	CSYCbCr:     true,
	CSCMYK:      true,
	CSeSRGB:     true,
	CSROMMRGB:   true,
}

// Colorspace method byte values.
const (
	MethodEnumerated   = 1
	MethodRestrictedICC = 2
	MethodAnyICC       = 3
	MethodVendor       = 4
)

// ColorSpec is the colr box payload: a method byte selects one of four
// payload shapes. Only EnumeratedCS is populated for method 1; only Profile
// is populated for methods 2-4.
type ColorSpec struct {
	Method        uint8
	Precedence    uint8
	Approximation uint8
	EnumeratedCS  uint32
	Profile       []byte
}

// ParseColorSpec decodes a colr box payload.
func ParseColorSpec(data []byte) (*ColorSpec, error) {
	if len(data) < 3 {
		return nil, errs.New(errs.KindTruncated, "boxcodec.ParseColorSpec", "payload shorter than 3 bytes")
	}
	c := &ColorSpec{Method: data[0], Precedence: data[1], Approximation: data[2]}
	switch c.Method {
	case MethodEnumerated:
		if len(data) != 7 {
			return nil, errs.New(errs.KindFileFormat, "boxcodec.ParseColorSpec", "enumerated colr payload must be exactly 7 bytes")
		}
		cs, err := bprim.ReadU32(data, 3)
		if err != nil {
			return nil, err
		}
		if !validEnumCS[cs] {
			return nil, errs.New(errs.KindFileFormat, "boxcodec.ParseColorSpec", "enumerated colorspace outside closed set")
		}
		c.EnumeratedCS = cs
	case MethodRestrictedICC, MethodAnyICC, MethodVendor:
		rest, err := bprim.Slice(data, 3, len(data))
		if err != nil {
			return nil, err
		}
		if len(rest) == 0 {
			return nil, errs.New(errs.KindFileFormat, "boxcodec.ParseColorSpec", "ICC/vendor colr payload must carry a non-empty profile")
		}
		c.Profile = rest
	default:
		return nil, errs.New(errs.KindFileFormat, "boxcodec.ParseColorSpec", "unknown colr method")
	}
	return c, nil
}

// Encode serializes the colr box payload.
func (c *ColorSpec) Encode() ([]byte, error) {
	switch c.Method {
	case MethodEnumerated:
		if !validEnumCS[c.EnumeratedCS] {
			return nil, errs.New(errs.KindInvalidParameter, "boxcodec.ColorSpec.Encode", "enumerated colorspace outside closed set")
		}
		b := bprim.NewBuilder(7)
		b.U8(c.Method).U8(c.Precedence).U8(c.Approximation).U32(c.EnumeratedCS)
		return b.Build(), nil
	case MethodRestrictedICC, MethodAnyICC, MethodVendor:
		if len(c.Profile) == 0 {
			return nil, errs.New(errs.KindInvalidParameter, "boxcodec.ColorSpec.Encode", "ICC/vendor colr payload must carry a non-empty profile")
		}
		b := bprim.NewBuilder(3 + len(c.Profile))
		b.U8(c.Method).U8(c.Precedence).U8(c.Approximation).Bytes(c.Profile)
		return b.Build(), nil
	default:
		return nil, errs.New(errs.KindInvalidParameter, "boxcodec.ColorSpec.Encode", "unknown colr method")
	}
}
