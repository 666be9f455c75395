package jpx

import (
	"github.com/mrjoshuak/go-j2kbox/errs"
	"github.com/mrjoshuak/go-j2kbox/internal/boxcodec"
)

// maskLengthFor picks the smallest mask length (in bytes) that gives every
// feature in a set of size n its own bit: 1 byte up to 8 features, 2 up to
// 16, 4 up to 32, else 8.
func maskLengthFor(n int) int {
	switch {
	case n <= 8:
		return 1
	case n <= 16:
		return 2
	case n <= 32:
		return 4
	default:
		return 8
	}
}

// BuildReaderRequirements lays out a feature set into an rreq box payload:
// features are sorted ascending and assigned bits MSB-first, FUAM is the OR
// of every assigned bit, and DCM is the OR of the Part-2 features' bits
// only. Each StandardFeatureEntry's Mask is the single bit that feature
// occupies in FUAM/DCM — decoder validation below reads it back that way.
func BuildReaderRequirements(set []Feature) (*boxcodec.ReaderRequirements, error) {
	sorted := sortedAscending(set)
	if len(sorted) == 0 {
		return nil, errs.New(errs.KindInvalidParameter, "jpx.BuildReaderRequirements", "feature set must not be empty")
	}
	ml := maskLengthFor(len(sorted))
	fuam := make([]byte, ml)
	dcm := make([]byte, ml)
	entries := make([]boxcodec.StandardFeatureEntry, len(sorted))
	for i, f := range sorted {
		bit := i // SetBit counts from the MSB, so feature i takes the i-th most significant bit
		boxcodec.SetBit(fuam, bit)
		ownBit := make([]byte, ml)
		boxcodec.SetBit(ownBit, bit)
		entries[i] = boxcodec.StandardFeatureEntry{SF: uint16(f), Mask: ownBit}
		if f.isPart2() {
			boxcodec.SetBit(dcm, bit)
		}
	}
	return &boxcodec.ReaderRequirements{
		MaskLength:       uint8(ml),
		FUAM:             fuam,
		DCM:              dcm,
		StandardFeatures: entries,
	}, nil
}

// Compatibility is the outcome of validating a decoder's supported feature
// set against an rreq box.
type Compatibility int

const (
	Incompatible Compatibility = iota
	PartiallyCompatible
	Compatible
)

func (c Compatibility) String() string {
	switch c {
	case Compatible:
		return "compatible"
	case PartiallyCompatible:
		return "partially_compatible"
	default:
		return "incompatible"
	}
}

// maskOverlaps reports whether a and b, both ML-byte masks, share any set
// bit. Mismatched lengths compare only over the shorter of the two.
func maskOverlaps(a, b []byte) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i]&b[i] != 0 {
			return true
		}
	}
	return false
}

// needed returns the set of rreq entries whose own bit overlaps mask
// (FUAM or DCM), per spec: needed(mask) = {entry.feature : entry.mask & mask != 0}.
func needed(r *boxcodec.ReaderRequirements, mask []byte) map[Feature]bool {
	out := make(map[Feature]bool)
	for _, e := range r.StandardFeatures {
		if maskOverlaps(e.Mask, mask) {
			out[Feature(e.SF)] = true
		}
	}
	return out
}

func subtract(from map[Feature]bool, supported map[Feature]bool) []Feature {
	var missing []Feature
	for f := range from {
		if !supported[f] {
			missing = append(missing, f)
		}
	}
	return sortedAscending(missing)
}

func isSubset(s map[Feature]bool, supported map[Feature]bool) bool {
	for f := range s {
		if !supported[f] {
			return false
		}
	}
	return true
}

// ValidateDecoder classifies a decoder's supported feature set against an
// rreq box: Compatible if it understands everything FUAM requires,
// PartiallyCompatible if it at least covers DCM (can display but not fully
// understand), else Incompatible. missing is always measured against FUAM.
func ValidateDecoder(supported []Feature, r *boxcodec.ReaderRequirements) (Compatibility, []Feature) {
	supportedSet := make(map[Feature]bool, len(supported))
	for _, f := range supported {
		supportedSet[f] = true
	}
	neededFUAM := needed(r, r.FUAM)
	if isSubset(neededFUAM, supportedSet) {
		return Compatible, nil
	}
	neededDCM := needed(r, r.DCM)
	missing := subtract(neededFUAM, supportedSet)
	if isSubset(neededDCM, supportedSet) {
		return PartiallyCompatible, missing
	}
	return Incompatible, missing
}
