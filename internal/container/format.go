// Package container assembles and disassembles whole JP2/JPH/JPX/JPM files
// from boxes: brand detection (MJ2 included), extracting the codestream plus
// its decoded dimensions from a box-based file, and writing the standard
// signature+ftyp+jp2h+jp2c sequence for a new one. MJ2 files are read and
// written by the mj2 packages, not here.
package container

import (
	"github.com/mrjoshuak/go-j2kbox/errs"
	"github.com/mrjoshuak/go-j2kbox/internal/box"
	"github.com/mrjoshuak/go-j2kbox/internal/boxcodec"
)

// Format identifies which brand of the JPEG 2000 family a file is.
type Format int

const (
	FormatUnknown Format = iota
	FormatJ2K            // raw codestream, no box framing
	FormatJP2
	FormatJPX
	FormatJPM
	FormatJPH
	FormatMJ2
)

// String names the format for diagnostics.
func (f Format) String() string {
	switch f {
	case FormatJ2K:
		return "j2k"
	case FormatJP2:
		return "jp2"
	case FormatJPX:
		return "jpx"
	case FormatJPM:
		return "jpm"
	case FormatJPH:
		return "jph"
	case FormatMJ2:
		return "mj2"
	default:
		return "unknown"
	}
}

// jp2SignatureContent is the fixed 4-byte payload of the jP   signature box.
var jp2SignatureContent = []byte{0x0D, 0x0A, 0x87, 0x0A}

// DetectFormat classifies a file from its header prefix. A raw codestream
// is recognized by its SOC marker; everything else must carry a valid JP2
// signature box followed by an ftyp box whose brand maps to a known format.
func DetectFormat(header []byte) (Format, error) {
	if len(header) >= 2 && header[0] == 0xFF && header[1] == 0x4F {
		return FormatJ2K, nil
	}
	if len(header) < 12 {
		return FormatUnknown, errs.New(errs.KindTruncated, "container.DetectFormat", "header shorter than the minimum JP2 signature box")
	}
	r := box.NewReader(header)
	sig, err := r.ReadNext()
	if err != nil {
		return FormatUnknown, err
	}
	if sig == nil || sig.Type != box.TypeSignature || sig.TotalLength() != 12 {
		return FormatUnknown, errs.New(errs.KindFileFormat, "container.DetectFormat", "missing JP2 signature box")
	}
	content := r.ExtractContent(sig)
	for i, b := range jp2SignatureContent {
		if content[i] != b {
			return FormatUnknown, errs.New(errs.KindFileFormat, "container.DetectFormat", "JP2 signature box content mismatch")
		}
	}

	for {
		info, err := r.ReadNext()
		if err != nil {
			return FormatUnknown, err
		}
		if info == nil {
			return FormatUnknown, errs.New(errs.KindFileFormat, "container.DetectFormat", "no ftyp box found after signature")
		}
		if info.Type != box.TypeFileType {
			continue
		}
		ft, err := boxcodec.ParseFileType(r.ExtractContent(info))
		if err != nil {
			return FormatUnknown, err
		}
		return formatForBrand(ft.Brand), nil
	}
}

func formatForBrand(brand box.Type) Format {
	switch brand {
	case boxcodec.BrandJP2:
		return FormatJP2
	case boxcodec.BrandJPX:
		return FormatJPX
	case boxcodec.BrandJPM:
		return FormatJPM
	case boxcodec.BrandJPH:
		return FormatJPH
	case boxcodec.BrandMJ2, boxcodec.BrandMJ2S:
		return FormatMJ2
	default:
		return FormatUnknown
	}
}
