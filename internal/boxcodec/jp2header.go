package boxcodec

import (
	"github.com/mrjoshuak/go-j2kbox/errs"
	"github.com/mrjoshuak/go-j2kbox/internal/box"
)

// JP2Header is the jp2h super-box payload: an ordered sequence of child
// boxes. Per §4.3, jp2h drives its own inner box.Reader/box.Writer; any
// child type this package doesn't interpret is preserved as a Raw entry so a
// read-then-write round trip never drops information.
type JP2Header struct {
	ImageHeader *ImageHeader
	BitsPerComp *BitsPerComponentBox
	ColorSpec   []*ColorSpec // a conforming file has exactly one, but decode tolerates more
	Palette     *Palette
	ComponentMap *ComponentMap
	ChannelDef  *ChannelDef
	Resolution  *Resolution
	Unknown     []Raw
}

// ParseJP2Header walks the jp2h super-box's children in order and dispatches
// each to its payload codec.
func ParseJP2Header(content []byte) (*JP2Header, error) {
	h := &JP2Header{}
	r := box.NewReader(content)
	for {
		info, err := r.ReadNext()
		if err != nil {
			return nil, err
		}
		if info == nil {
			break
		}
		child := r.ExtractContent(info)
		switch info.Type {
		case box.TypeImageHeader:
			ih, err := ParseImageHeader(child)
			if err != nil {
				return nil, err
			}
			h.ImageHeader = ih
		case box.TypeBitsPerComponent:
			bp, err := ParseBitsPerComponentBox(child)
			if err != nil {
				return nil, err
			}
			h.BitsPerComp = bp
		case box.TypeColorSpecification:
			cs, err := ParseColorSpec(child)
			if err != nil {
				return nil, err
			}
			h.ColorSpec = append(h.ColorSpec, cs)
		case box.TypePalette:
			p, err := ParsePalette(child)
			if err != nil {
				return nil, err
			}
			h.Palette = p
		case box.TypeComponentMapping:
			cm, err := ParseComponentMap(child)
			if err != nil {
				return nil, err
			}
			h.ComponentMap = cm
		case box.TypeChannelDefinition:
			cd, err := ParseChannelDef(child)
			if err != nil {
				return nil, err
			}
			h.ChannelDef = cd
		case box.TypeResolution:
			res, err := parseResolutionSuperBox(child)
			if err != nil {
				return nil, err
			}
			h.Resolution = res
		default:
			owned := make([]byte, len(child))
			copy(owned, child)
			h.Unknown = append(h.Unknown, Raw{Type: info.Type, Content: owned})
		}
	}
	if h.ImageHeader == nil {
		return nil, errs.New(errs.KindFileFormat, "boxcodec.ParseJP2Header", "jp2h missing mandatory ihdr child")
	}
	return h, nil
}

func parseResolutionSuperBox(content []byte) (*Resolution, error) {
	res := &Resolution{}
	r := box.NewReader(content)
	for {
		info, err := r.ReadNext()
		if err != nil {
			return nil, err
		}
		if info == nil {
			break
		}
		child := r.ExtractContent(info)
		entry, err := ParseResolutionEntry(child)
		if err != nil {
			return nil, err
		}
		switch info.Type {
		case box.TypeCaptureResolution:
			res.Capture = entry
		case box.TypeDisplayResolution:
			res.Display = entry
		}
	}
	return res, nil
}

// Encode serializes the jp2h super-box content: ihdr first, then bpcc iff
// present, then every colr entry, in that order, followed by any optional
// children and preserved unknowns in the order they were parsed.
func (h *JP2Header) Encode() ([]byte, error) {
	if h.ImageHeader == nil {
		return nil, errs.New(errs.KindInvalidParameter, "boxcodec.JP2Header.Encode", "jp2h requires an ihdr child")
	}
	w := box.NewWriter()
	w.WriteBox(box.TypeImageHeader, h.ImageHeader.Encode())
	if h.BitsPerComp != nil {
		w.WriteBox(box.TypeBitsPerComponent, h.BitsPerComp.Encode())
	}
	for _, cs := range h.ColorSpec {
		enc, err := cs.Encode()
		if err != nil {
			return nil, err
		}
		w.WriteBox(box.TypeColorSpecification, enc)
	}
	if h.Palette != nil {
		enc, err := h.Palette.Encode()
		if err != nil {
			return nil, err
		}
		w.WriteBox(box.TypePalette, enc)
	}
	if h.ComponentMap != nil {
		w.WriteBox(box.TypeComponentMapping, h.ComponentMap.Encode())
	}
	if h.ChannelDef != nil {
		w.WriteBox(box.TypeChannelDefinition, h.ChannelDef.Encode())
	}
	if h.Resolution != nil {
		rw := box.NewWriter()
		if h.Resolution.Capture != nil {
			rw.WriteBox(box.TypeCaptureResolution, h.Resolution.Capture.Encode())
		}
		if h.Resolution.Display != nil {
			rw.WriteBox(box.TypeDisplayResolution, h.Resolution.Display.Encode())
		}
		w.WriteBox(box.TypeResolution, rw.Bytes())
	}
	for _, u := range h.Unknown {
		w.WriteRawBox(u.Type, u.Content)
	}
	return w.Bytes(), nil
}
