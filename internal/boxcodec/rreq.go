package boxcodec

import (
	"github.com/mrjoshuak/go-j2kbox/errs"
	"github.com/mrjoshuak/go-j2kbox/internal/bprim"
)

// StandardFeatureEntry is one NSF entry of an rreq box: a standard feature
// code and the ML-byte mask identifying which bit(s) of FUAM/DCM this
// feature occupies.
type StandardFeatureEntry struct {
	SF   uint16
	Mask []byte
}

// VendorFeatureEntry is one NVF entry of an rreq box: a vendor UUID and the
// ML-byte mask identifying which bit(s) of FUAM/DCM this feature occupies.
type VendorFeatureEntry struct {
	UUID [16]byte
	Mask []byte
}

// ReaderRequirements is the rreq box payload. FUAM/DCM and every entry's
// Mask are ML bytes, MSB-justified big-endian. Package jpx owns assigning
// feature bit positions and interpreting FUAM vs DCM; this codec only
// frames whatever masks it's handed.
type ReaderRequirements struct {
	MaskLength       uint8
	FUAM             []byte
	DCM              []byte
	StandardFeatures []StandardFeatureEntry
	VendorFeatures   []VendorFeatureEntry
}

func validMaskLength(ml uint8) bool {
	return ml == 1 || ml == 2 || ml == 4 || ml == 8
}

// ParseReaderRequirements decodes an rreq box payload.
func ParseReaderRequirements(data []byte) (*ReaderRequirements, error) {
	c := bprim.NewCursor(data)
	ml, err := c.U8()
	if err != nil {
		return nil, err
	}
	if !validMaskLength(ml) {
		return nil, errs.New(errs.KindFileFormat, "boxcodec.ParseReaderRequirements", "ML must be 1, 2, 4, or 8")
	}
	fuam, err := c.Bytes(int(ml))
	if err != nil {
		return nil, err
	}
	dcm, err := c.Bytes(int(ml))
	if err != nil {
		return nil, err
	}
	nsf, err := c.U16()
	if err != nil {
		return nil, err
	}
	sfs := make([]StandardFeatureEntry, nsf)
	for i := range sfs {
		sf, err := c.U16()
		if err != nil {
			return nil, err
		}
		mask, err := c.Bytes(int(ml))
		if err != nil {
			return nil, err
		}
		sfs[i] = StandardFeatureEntry{SF: sf, Mask: mask}
	}
	nvf, err := c.U16()
	if err != nil {
		return nil, err
	}
	vfs := make([]VendorFeatureEntry, nvf)
	for i := range vfs {
		uuidBytes, err := c.Bytes(16)
		if err != nil {
			return nil, err
		}
		mask, err := c.Bytes(int(ml))
		if err != nil {
			return nil, err
		}
		var u [16]byte
		copy(u[:], uuidBytes)
		vfs[i] = VendorFeatureEntry{UUID: u, Mask: mask}
	}
	return &ReaderRequirements{
		MaskLength:       ml,
		FUAM:             fuam,
		DCM:              dcm,
		StandardFeatures: sfs,
		VendorFeatures:   vfs,
	}, nil
}

// Encode serializes an rreq box payload.
func (r *ReaderRequirements) Encode() ([]byte, error) {
	if !validMaskLength(r.MaskLength) {
		return nil, errs.New(errs.KindInvalidParameter, "boxcodec.ReaderRequirements.Encode", "ML must be 1, 2, 4, or 8")
	}
	ml := int(r.MaskLength)
	if len(r.FUAM) != ml || len(r.DCM) != ml {
		return nil, errs.New(errs.KindInvalidParameter, "boxcodec.ReaderRequirements.Encode", "FUAM/DCM length must equal ML")
	}
	size := 1 + 2*ml + 2 + len(r.StandardFeatures)*(2+ml) + 2 + len(r.VendorFeatures)*(16+ml)
	b := bprim.NewBuilder(size)
	b.U8(r.MaskLength).Bytes(r.FUAM).Bytes(r.DCM)
	b.U16(uint16(len(r.StandardFeatures)))
	for _, e := range r.StandardFeatures {
		if len(e.Mask) != ml {
			return nil, errs.New(errs.KindInvalidParameter, "boxcodec.ReaderRequirements.Encode", "standard feature mask length must equal ML")
		}
		b.U16(e.SF).Bytes(e.Mask)
	}
	b.U16(uint16(len(r.VendorFeatures)))
	for _, e := range r.VendorFeatures {
		if len(e.Mask) != ml {
			return nil, errs.New(errs.KindInvalidParameter, "boxcodec.ReaderRequirements.Encode", "vendor feature mask length must equal ML")
		}
		b.Bytes(e.UUID[:]).Bytes(e.Mask)
	}
	return b.Build(), nil
}

// SetBit sets bit i (0 = most significant bit of the first byte) in an
// ML-byte mask.
func SetBit(mask []byte, i int) {
	byteIdx := i / 8
	if byteIdx >= len(mask) {
		return
	}
	mask[byteIdx] |= 1 << uint(7-i%8)
}

// HasBit reports whether bit i is set in an ML-byte mask.
func HasBit(mask []byte, i int) bool {
	byteIdx := i / 8
	if byteIdx >= len(mask) {
		return false
	}
	return mask[byteIdx]&(1<<uint(7-i%8)) != 0
}
