package boxcodec

import (
	"github.com/mrjoshuak/go-j2kbox/errs"
	"github.com/mrjoshuak/go-j2kbox/internal/bprim"
)

// Resolution units for ResolutionEntry.Unit.
const (
	ResUnitUnknown = 0
	ResUnitMeter   = 1
	ResUnitInch    = 2
)

// ResolutionEntry is the shared payload shape of resc and resd: a
// num/den/exp rational per axis plus a unit. Actual resolution is
// num/den * 10^exp in the given unit.
type ResolutionEntry struct {
	NumV, DenV uint32
	ExpV       int8
	NumH, DenH uint32
	ExpH       int8
	Unit       uint8
}

// ParseResolutionEntry decodes a resc/resd payload, which is exactly 11 bytes:
// num_v:u16, den_v:u16, exp_v:i8, num_h:u16, den_h:u16, exp_h:i8, followed
// by a trailing unit byte.
func ParseResolutionEntry(data []byte) (*ResolutionEntry, error) {
	if len(data) != 11 {
		return nil, errs.New(errs.KindFileFormat, "boxcodec.ParseResolutionEntry", "resolution payload must be exactly 11 bytes")
	}
	c := bprim.NewCursor(data)
	e := &ResolutionEntry{}
	nv, err := c.U16()
	if err != nil {
		return nil, err
	}
	dv, err := c.U16()
	if err != nil {
		return nil, err
	}
	ev, err := c.I8()
	if err != nil {
		return nil, err
	}
	nh, err := c.U16()
	if err != nil {
		return nil, err
	}
	dh, err := c.U16()
	if err != nil {
		return nil, err
	}
	eh, err := c.I8()
	if err != nil {
		return nil, err
	}
	unit, err := c.U8()
	if err != nil {
		return nil, err
	}
	if unit > 2 {
		return nil, errs.New(errs.KindFileFormat, "boxcodec.ParseResolutionEntry", "unit must be 0, 1, or 2")
	}
	e.NumV, e.DenV, e.ExpV = uint32(nv), uint32(dv), ev
	e.NumH, e.DenH, e.ExpH = uint32(nh), uint32(dh), eh
	e.Unit = unit
	return e, nil
}

// Encode serializes a resc/resd box payload.
func (e *ResolutionEntry) Encode() []byte {
	b := bprim.NewBuilder(11)
	b.U16(uint16(e.NumV)).U16(uint16(e.DenV)).I8(e.ExpV)
	b.U16(uint16(e.NumH)).U16(uint16(e.DenH)).I8(e.ExpH)
	b.U8(e.Unit)
	return b.Build()
}

// VerticalValue returns num_v/den_v * 10^exp_v.
func (e *ResolutionEntry) VerticalValue() float64 {
	return float64(e.NumV) / float64(e.DenV) * pow10(e.ExpV)
}

// HorizontalValue returns num_h/den_h * 10^exp_h.
func (e *ResolutionEntry) HorizontalValue() float64 {
	return float64(e.NumH) / float64(e.DenH) * pow10(e.ExpH)
}

func pow10(exp int8) float64 {
	v := 1.0
	if exp >= 0 {
		for i := int8(0); i < exp; i++ {
			v *= 10
		}
		return v
	}
	for i := int8(0); i < -exp; i++ {
		v /= 10
	}
	return v
}

// Resolution is the res  super-box payload: capture and/or display
// resolution, each independently optional.
type Resolution struct {
	Capture *ResolutionEntry
	Display *ResolutionEntry
}
