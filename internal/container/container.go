package container

import (
	"github.com/mrjoshuak/go-j2kbox/errs"
	"github.com/mrjoshuak/go-j2kbox/internal/box"
	"github.com/mrjoshuak/go-j2kbox/internal/boxcodec"
	"github.com/mrjoshuak/go-j2kbox/internal/codestream"
)

// ReadResult is what the read pipeline hands back for a box-based file: the
// raw codestream bytes plus the dimensional metadata decoded from its SIZ
// marker, and the parsed jp2h in case a caller wants color/palette/channel
// metadata too.
type ReadResult struct {
	Format     Format
	Codestream []byte
	Image      *codestream.ImageInfo
	Header     *boxcodec.JP2Header
}

// Read walks a box-based file's top-level boxes, locates jp2h and jp2c, and
// decodes the codestream's SIZ marker. For a raw J2K codestream (no box
// framing), it decodes SIZ directly and Header is nil.
func Read(data []byte) (*ReadResult, error) {
	format, err := DetectFormat(data)
	if err != nil {
		return nil, err
	}
	if format == FormatJ2K {
		info, err := codestream.ParseSIZ(data)
		if err != nil {
			return nil, err
		}
		return &ReadResult{Format: format, Codestream: data, Image: info}, nil
	}

	r := box.NewReader(data)
	var header *boxcodec.JP2Header
	var cs []byte
	for {
		info, err := r.ReadNext()
		if err != nil {
			return nil, err
		}
		if info == nil {
			break
		}
		switch info.Type {
		case box.TypeJP2Header:
			h, err := boxcodec.ParseJP2Header(r.ExtractContent(info))
			if err != nil {
				return nil, err
			}
			header = h
		case box.TypeContiguousCodestream:
			cs = r.ExtractContent(info)
		}
	}
	if cs == nil {
		return nil, errs.New(errs.KindFileFormat, "container.Read", "no jp2c box found")
	}
	imageInfo, err := codestream.ParseSIZ(cs)
	if err != nil {
		return nil, err
	}
	return &ReadResult{Format: format, Codestream: cs, Image: imageInfo, Header: header}, nil
}

// WriteParams describes the image and codestream a new file should wrap.
type WriteParams struct {
	Format     Format
	Codestream []byte
	Image      *codestream.ImageInfo
}

func brandFor(f Format) (box.Type, error) {
	switch f {
	case FormatJP2:
		return boxcodec.BrandJP2, nil
	case FormatJPH:
		return boxcodec.BrandJPH, nil
	case FormatJPX:
		return boxcodec.BrandJPX, nil
	case FormatJPM:
		return boxcodec.BrandJPM, nil
	default:
		return 0, errs.New(errs.KindInvalidParameter, "container.Write", "unsupported write format")
	}
}

// enumColorspaceForComponentCount infers a colr enumerated colorspace from
// component count: 1 component is greyscale, and every other count is
// treated as sRGB.
func enumColorspaceForComponentCount(n int) uint32 {
	if n == 1 {
		return boxcodec.CSGreyscale
	}
	return boxcodec.CSsRGB
}

// Write assembles a complete file: signature, ftyp, jp2h (ihdr + optional
// bpcc + colr), and jp2c, in that order.
func Write(p WriteParams) ([]byte, error) {
	brand, err := brandFor(p.Format)
	if err != nil {
		return nil, err
	}
	if p.Image == nil || len(p.Image.Components) == 0 {
		return nil, errs.New(errs.KindInvalidParameter, "container.Write", "image info with at least one component is required")
	}

	depth0 := p.Image.Components[0].BitDepth()
	uniform := true
	for _, c := range p.Image.Components[1:] {
		if c.BitDepth() != depth0 || c.Signed() != p.Image.Components[0].Signed() {
			uniform = false
			break
		}
	}

	ihdr := &boxcodec.ImageHeader{
		Height:          p.Image.Ysiz,
		Width:           p.Image.Xsiz,
		NumComponents:   p.Image.NumComponents(),
		CompressionType: 7,
	}
	jp2h := &boxcodec.JP2Header{ImageHeader: ihdr}

	if uniform {
		packed, err := boxcodec.PackBitsPerComponent(depth0, p.Image.Components[0].Signed())
		if err != nil {
			return nil, err
		}
		ihdr.BitsPerComponent = packed
	} else {
		ihdr.BitsPerComponent = 0xFF
		bits := make([]uint8, len(p.Image.Components))
		for i, c := range p.Image.Components {
			packed, err := boxcodec.PackBitsPerComponent(c.BitDepth(), c.Signed())
			if err != nil {
				return nil, err
			}
			bits[i] = packed
		}
		jp2h.BitsPerComp = &boxcodec.BitsPerComponentBox{BitsPerComponent: bits}
	}

	jp2h.ColorSpec = []*boxcodec.ColorSpec{{
		Method:       boxcodec.MethodEnumerated,
		EnumeratedCS: enumColorspaceForComponentCount(len(p.Image.Components)),
	}}

	headerContent, err := jp2h.Encode()
	if err != nil {
		return nil, err
	}

	w := box.NewWriter()
	w.WriteBox(box.TypeSignature, jp2SignatureContent)
	w.WriteBox(box.TypeFileType, boxcodec.NewFileType(brand).Encode())
	w.WriteBox(box.TypeJP2Header, headerContent)
	w.WriteBox(box.TypeContiguousCodestream, p.Codestream)
	return w.Bytes(), nil
}
