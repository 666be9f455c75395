package jpeg2000

import (
	"context"
	"image"
	"os"

	j2kcodec "github.com/mrjoshuak/go-j2kbox/codec"
	"github.com/mrjoshuak/go-j2kbox/errs"
	"github.com/mrjoshuak/go-j2kbox/internal/box"
	"github.com/mrjoshuak/go-j2kbox/internal/container"
	"github.com/mrjoshuak/go-j2kbox/jpx"
	"github.com/mrjoshuak/go-j2kbox/mj2/player"
	mj2reader "github.com/mrjoshuak/go-j2kbox/mj2/reader"
	"github.com/mrjoshuak/go-j2kbox/mj2/writer"
)

func formatFromContainer(f container.Format) Format {
	switch f {
	case container.FormatJ2K:
		return FormatJ2K
	case container.FormatJP2:
		return FormatJP2
	case container.FormatJPX:
		return FormatJPX
	case container.FormatJPM:
		return FormatJPM
	case container.FormatJPH:
		return FormatJPH
	case container.FormatMJ2:
		return FormatMJ2
	default:
		return Format(-1)
	}
}

// DetectFileFormat classifies a byte buffer (a whole file, or just enough of
// its header) as one of the JPEG 2000 family brands.
func DetectFileFormat(header []byte) (Format, error) {
	f, err := container.DetectFormat(header)
	if err != nil {
		return Format(-1), err
	}
	return formatFromContainer(f), nil
}

func containerFormatFor(f Format) (container.Format, error) {
	switch f {
	case FormatJ2K:
		return container.FormatJ2K, nil
	case FormatJP2:
		return container.FormatJP2, nil
	case FormatJPX:
		return container.FormatJPX, nil
	case FormatJPM:
		return container.FormatJPM, nil
	case FormatJPH:
		return container.FormatJPH, nil
	default:
		return container.FormatUnknown, errs.New(errs.KindInvalidParameter, "jpeg2000.containerFormatFor", "format has no single-image box framing")
	}
}

// ReadFile opens path, unwraps its box framing, and decodes the wrapped
// codestream with c (PassthroughCodec if nil), for the single-image
// brands — MJ2 files have multiple frames and are read via
// OpenMJ2File/NewMJ2Player instead.
func ReadFile(path string, c j2kcodec.Codec) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, "jpeg2000.ReadFile", "reading file", err)
	}
	return DecodeBytes(context.Background(), data, c)
}

// DecodeBytes unwraps data's box framing (or reads it as a raw J2K
// codestream) and decodes the wrapped codestream with c (PassthroughCodec
// if nil).
func DecodeBytes(ctx context.Context, data []byte, c j2kcodec.Codec) (image.Image, error) {
	if c == nil {
		c = PassthroughCodec{}
	}
	result, err := container.Read(data)
	if err != nil {
		return nil, err
	}
	decoded, err := c.Decode(ctx, result.Codestream)
	if err != nil {
		return nil, err
	}
	return imageFromDecodeResult(decoded), nil
}

// WriteFile encodes img with c (PassthroughCodec if nil), frames the result
// as format, and writes it to path, for the single-image brands.
func WriteFile(img image.Image, path string, format Format, c j2kcodec.Codec) error {
	data, err := EncodeBytes(context.Background(), img, format, c)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.Wrap(errs.KindIO, "jpeg2000.WriteFile", "writing file", err)
	}
	return nil
}

// EncodeBytes encodes img with c (PassthroughCodec if nil) and frames the
// result as format, for the single-image brands.
func EncodeBytes(ctx context.Context, img image.Image, format Format, c j2kcodec.Codec) ([]byte, error) {
	if c == nil {
		c = PassthroughCodec{}
	}
	params, err := encodeParamsFromImage(img)
	if err != nil {
		return nil, err
	}
	cs, err := c.Encode(ctx, params)
	if err != nil {
		return nil, err
	}
	cf, err := containerFormatFor(format)
	if err != nil {
		return nil, err
	}
	return container.Write(container.WriteParams{
		Format:     cf,
		Codestream: cs,
		Image:      imageInfoFromParams(params),
	})
}

// encodeParamsFromImage flattens an arbitrary image.Image into the
// container engine's pixel-plane representation: a single 8-bit grey plane
// for image.Gray, or an interleaved 8-bit RGB plane otherwise.
func encodeParamsFromImage(img image.Image) (j2kcodec.EncodeParams, error) {
	b := img.Bounds()
	w, h := uint32(b.Dx()), uint32(b.Dy())
	if gray, ok := img.(*image.Gray); ok {
		pix := make([]byte, len(gray.Pix))
		copy(pix, gray.Pix)
		return j2kcodec.EncodeParams{
			PixelData:  pix,
			Width:      w,
			Height:     h,
			Components: []j2kcodec.ComponentSummary{{BitDepth: 8, Width: w, Height: h}},
		}, nil
	}
	pix := make([]byte, int(w)*int(h)*3)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			o := (y*b.Dx() + x) * 3
			pix[o] = byte(r >> 8)
			pix[o+1] = byte(g >> 8)
			pix[o+2] = byte(bl >> 8)
		}
	}
	comp := j2kcodec.ComponentSummary{BitDepth: 8, Width: w, Height: h}
	return j2kcodec.EncodeParams{
		PixelData:  pix,
		Width:      w,
		Height:     h,
		Components: []j2kcodec.ComponentSummary{comp, comp, comp},
	}, nil
}

// imageFromDecodeResult rebuilds an image.Image from a Codec's flattened
// pixel-plane DecodeResult: image.Gray for a single component, image.NRGBA
// otherwise, taking alpha from the fourth component when there are four or
// more and opaque alpha when there are fewer.
func imageFromDecodeResult(d *j2kcodec.DecodeResult) image.Image {
	w, h := int(d.Summary.Width), int(d.Summary.Height)
	if len(d.Summary.Components) == 1 {
		img := image.NewGray(image.Rect(0, 0, w, h))
		copy(img.Pix, d.PixelData)
		return img
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	stride := len(d.Summary.Components)
	if stride == 0 {
		stride = 3
	}
	for i := 0; i < w*h; i++ {
		o := i * stride
		px := i * 4
		if o+stride > len(d.PixelData) {
			break
		}
		img.Pix[px] = d.PixelData[o]
		img.Pix[px+1] = d.PixelData[o+1]
		img.Pix[px+2] = d.PixelData[o+2]
		if stride >= 4 {
			img.Pix[px+3] = d.PixelData[o+3]
		} else {
			img.Pix[px+3] = 0xFF
		}
	}
	return img
}

// MJ2Creator builds a new MJ2 file from a sequence of frames, wiring a
// PassthroughCodec in as the default frame encoder when the caller doesn't
// supply one.
type MJ2Creator struct {
	inner *writer.Creator
}

// NewMJ2Creator constructs an MJ2Creator targeting brand (e.g.
// box.TypeMJ2Brand) at the given nominal frame rate. A nil codec defaults to
// PassthroughCodec.
func NewMJ2Creator(c j2kcodec.Codec, brand box.Type, frameRate uint32) *MJ2Creator {
	if c == nil {
		c = PassthroughCodec{}
	}
	return &MJ2Creator{inner: writer.NewCreator(c, brand, frameRate)}
}

// Cancel requests cooperative cancellation of an in-flight Create/CreateParallel.
func (m *MJ2Creator) Cancel() { m.inner.Cancel() }

// Create encodes frames sequentially and returns the finished MJ2 file bytes.
func (m *MJ2Creator) Create(ctx context.Context, frames []writer.Frame) ([]byte, error) {
	return m.inner.Create(ctx, frames)
}

// CreateParallel encodes frames with bounded concurrency but writes them to
// the file in original order.
func (m *MJ2Creator) CreateParallel(ctx context.Context, frames []writer.Frame, concurrency int) ([]byte, error) {
	return m.inner.CreateParallel(ctx, frames, concurrency)
}

// OpenMJ2File parses an existing MJ2 file's moov/stbl hierarchy, ready for
// frame-range extraction or NewMJ2Player.
func OpenMJ2File(data []byte) (*mj2reader.File, error) {
	return mj2reader.Parse(data)
}

// ExtractMJ2Range decodes frames [start, end) from a parsed MJ2 file using
// c (PassthroughCodec if nil).
func ExtractMJ2Range(ctx context.Context, f *mj2reader.File, c j2kcodec.Codec, start, end int) ([]*j2kcodec.DecodeResult, error) {
	if c == nil {
		c = PassthroughCodec{}
	}
	if start < 0 || end > f.Track.Table.SampleCount() || start > end {
		return nil, errs.New(errs.KindSeekFailed, "jpeg2000.ExtractMJ2Range", "range out of bounds")
	}
	out := make([]*j2kcodec.DecodeResult, 0, end-start)
	for i := start; i < end; i++ {
		info, _, err := f.Track.Table.Lookup(i)
		if err != nil {
			return nil, err
		}
		if uint64(len(f.Data)) < info.Offset+uint64(info.Size) {
			return nil, errs.New(errs.KindTruncated, "jpeg2000.ExtractMJ2Range", "frame extends past end of file data")
		}
		result, err := c.Decode(ctx, f.Data[info.Offset:info.Offset+uint64(info.Size)])
		if err != nil {
			return nil, errs.Wrap(errs.KindDecodeFailed, "jpeg2000.ExtractMJ2Range", "frame decode failed", err)
		}
		out = append(out, result)
	}
	return out, nil
}

// NewMJ2Player builds a playback engine over a parsed MJ2 file. c defaults
// to PassthroughCodec when nil.
func NewMJ2Player(f *mj2reader.File, c j2kcodec.Codec, cacheEntries, cacheBytes int) (*player.Player, error) {
	if c == nil {
		c = PassthroughCodec{}
	}
	return player.New(f.Data, f.Track.Table, c, cacheEntries, cacheBytes)
}

// RReq is the public surface over JPX reader-requirements negotiation:
// building a reader-requirements bitmap from a feature set and validating a
// decoder's supported features against one.
type RReq struct {
	features []jpx.Feature
}

// BuildReaderRequirementsFrom validates the combination (returning every
// warning/error issue found) and constructs an RReq from features.
func BuildReaderRequirementsFrom(features []jpx.Feature) (*RReq, []jpx.Issue) {
	issues := jpx.ValidateCombination(features)
	return &RReq{features: features}, issues
}

// Validate classifies a decoder's supported feature set against this RReq.
func (r *RReq) Validate(supported []jpx.Feature) (jpx.Compatibility, []jpx.Feature, error) {
	built, err := jpx.BuildReaderRequirements(r.features)
	if err != nil {
		return jpx.Incompatible, nil, err
	}
	compat, missing := jpx.ValidateDecoder(supported, built)
	return compat, missing, nil
}
