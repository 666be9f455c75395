// Package jpeg2000 is the public surface over this module's JPEG 2000
// family container engine: box framing and assembly, the MJ2 motion
// container, and JPX reader-requirements negotiation. Wavelet
// encoding/decoding itself is out of this package's scope — it's an
// external Codec collaborator (see the codec package and
// codec_adapter.go's PassthroughCodec) the engine never looks inside of.
package jpeg2000

// Format identifies which brand of the JPEG 2000 family a file belongs to,
// mirroring internal/container.Format at the public boundary.
type Format int

const (
	// FormatJ2K is the raw codestream format (no box framing).
	FormatJ2K Format = iota
	// FormatJP2 is the standard JP2 file format with metadata boxes.
	FormatJP2
	// FormatJPX is the extended JP2 format (Part 2).
	FormatJPX
	// FormatJPM is the compound/mixed-raster format (ISO/IEC 15444-6).
	FormatJPM
	// FormatJPH is the high-throughput format (ISO/IEC 15444-15).
	FormatJPH
	// FormatMJ2 is the Motion JPEG 2000 container (ISO/IEC 15444-3).
	FormatMJ2
)

// String returns the short name OpenJPEG-family tools use for this format.
func (f Format) String() string {
	switch f {
	case FormatJ2K:
		return "J2K"
	case FormatJP2:
		return "JP2"
	case FormatJPX:
		return "JPX"
	case FormatJPM:
		return "JPM"
	case FormatJPH:
		return "JPH"
	case FormatMJ2:
		return "MJ2"
	default:
		return "Unknown"
	}
}
