package jpeg2000

import (
	"context"

	j2kcodec "github.com/mrjoshuak/go-j2kbox/codec"
	"github.com/mrjoshuak/go-j2kbox/errs"
	"github.com/mrjoshuak/go-j2kbox/internal/codestream"
)

// PassthroughCodec is a minimal codec.Codec implementation: it frames pixel
// samples behind a real SOC/SIZ codestream header (the only part of a
// codestream this module ever parses — see internal/codestream) but does no
// entropy coding, wavelet transform, or component transform of its own.
// That machinery belongs to the external Codec collaborator this module
// treats as opaque. PassthroughCodec exists so the container engine, MJ2
// writer/player, and JPX negotiation machinery have a concrete,
// dependency-free Codec to drive end to end; production deployments
// register a real wavelet/entropy coder under its own name via
// codec.Register instead.
type PassthroughCodec struct{}

// Name identifies this codec for codec.Registry lookups.
func (PassthroughCodec) Name() string { return "go-j2kbox-passthrough" }

func init() {
	j2kcodec.Register(PassthroughCodec{})
}

// Encode writes a SOC/SIZ header describing the image, then appends the raw
// pixel samples unmodified in place of entropy-coded tile-part data.
func (PassthroughCodec) Encode(_ context.Context, p j2kcodec.EncodeParams) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	header := codestream.EncodeSIZ(imageInfoFromParams(p))
	out := make([]byte, 0, len(header)+len(p.PixelData))
	out = append(out, header...)
	out = append(out, p.PixelData...)
	return out, nil
}

// Decode parses the SOC/SIZ header back into an ImageSummary and returns
// everything after it as PixelData unmodified.
func (PassthroughCodec) Decode(_ context.Context, cs []byte) (*j2kcodec.DecodeResult, error) {
	info, err := codestream.ParseSIZ(cs)
	if err != nil {
		return nil, errs.Wrap(errs.KindDecodeFailed, "jpeg2000.PassthroughCodec.Decode", "parsing SIZ header", err)
	}
	headerLen := len(codestream.EncodeSIZ(info))
	if len(cs) < headerLen {
		return nil, errs.New(errs.KindTruncated, "jpeg2000.PassthroughCodec.Decode", "codestream shorter than its own SIZ header")
	}
	components := make([]j2kcodec.ComponentSummary, len(info.Components))
	for i, c := range info.Components {
		components[i] = j2kcodec.ComponentSummary{
			BitDepth:     uint8(c.BitDepth()),
			Signed:       c.Signed(),
			SubsamplingX: c.XRsiz,
			SubsamplingY: c.YRsiz,
			Width:        c.Width(info.Xsiz),
			Height:       c.Height(info.Ysiz),
		}
	}
	return &j2kcodec.DecodeResult{
		PixelData: cs[headerLen:],
		Summary:   j2kcodec.ImageSummary{Width: info.Xsiz, Height: info.Ysiz, Components: components},
	}, nil
}

// imageInfoFromParams builds the SIZ fields EncodeSIZ needs from an
// EncodeParams, treating the whole image as a single tile — this engine
// never splits tiles itself; that's a real Codec's decision to make.
func imageInfoFromParams(p j2kcodec.EncodeParams) *codestream.ImageInfo {
	comps := make([]codestream.ComponentInfo, len(p.Components))
	for i, c := range p.Components {
		xr, yr := c.SubsamplingX, c.SubsamplingY
		if xr == 0 {
			xr = 1
		}
		if yr == 0 {
			yr = 1
		}
		ssiz := c.BitDepth - 1
		if c.Signed {
			ssiz |= 0x80
		}
		comps[i] = codestream.ComponentInfo{Ssiz: ssiz, XRsiz: xr, YRsiz: yr}
	}
	return &codestream.ImageInfo{
		Xsiz:       p.Width,
		Ysiz:       p.Height,
		XTsiz:      p.Width,
		YTsiz:      p.Height,
		Components: comps,
	}
}
