// Package codec defines the external wavelet Codec collaborator boundary:
// the container engine hands it codestream bytes and gets pixels back (or
// vice versa), and never interprets pixel samples itself. Wavelet
// compression/decompression is explicitly out of this module's scope; this
// package only defines the seam and a registry so callers can plug one in
// by name, the way cocosip-go-dicom-codec's codec package does for its own
// external transfer-syntax codecs.
package codec

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/mrjoshuak/go-j2kbox/errs"
)

var validate = validator.New()

// ComponentSummary describes one component of an image the container
// engine is reading or writing, without owning its pixel samples.
type ComponentSummary struct {
	BitDepth     uint8
	Signed       bool
	SubsamplingX uint8
	SubsamplingY uint8
	Width        uint32
	Height       uint32
}

// ImageSummary is the `{ width, height, components }` shape a Codec hands
// back on decode and takes on encode. The container engine never owns pixel
// samples beyond this summary.
type ImageSummary struct {
	Width      uint32
	Height     uint32
	Components []ComponentSummary
}

// Options is implemented by codec-specific encode option types (e.g. target
// quality, progression order) so Registry callers can validate before
// spending any work, the same contract cocosip-go-dicom-codec's
// codec.Options uses.
type Options interface {
	Validate() error
}

// EncodeParams bundles everything a Codec needs to produce one codestream.
type EncodeParams struct {
	PixelData  []byte             `validate:"required"`
	Width      uint32             `validate:"required"`
	Height     uint32             `validate:"required"`
	Components []ComponentSummary `validate:"required,min=1"`
	Options    Options
}

// Validate checks the struct-level constraints every Codec implementation
// can assume already hold by the time Encode is called — the same
// boundary-only validation cocosip-go-dicom-codec applies to its own
// transfer-syntax parameters.
func (p EncodeParams) Validate() error {
	if err := validate.Struct(p); err != nil {
		return errs.Wrap(errs.KindInvalidParameter, "codec.EncodeParams.Validate", "invalid encode parameters", err)
	}
	return nil
}

// DecodeResult is what a Codec hands back for one codestream.
type DecodeResult struct {
	PixelData []byte
	Summary   ImageSummary
}

// Codec is the external wavelet compression collaborator. Implementations
// live outside this module; the container engine only calls through this
// interface.
type Codec interface {
	// Encode compresses pixel data into a JPEG 2000 codestream.
	Encode(ctx context.Context, params EncodeParams) ([]byte, error)
	// Decode decompresses a JPEG 2000 codestream into pixel data plus its
	// image summary.
	Decode(ctx context.Context, codestream []byte) (*DecodeResult, error)
	// Name identifies the codec for Registry lookups and diagnostics.
	Name() string
}

// BaseOptions is an embeddable zero-validation Options implementation for
// codecs that have no encode-time parameters to check.
type BaseOptions struct{}

// Validate always succeeds.
func (BaseOptions) Validate() error { return nil }

// ErrCodecNotFound is returned by Registry.Get when no codec is registered
// under the requested name.
var ErrCodecNotFound = errs.New(errs.KindInvalidParameter, "codec.Registry.Get", "no codec registered under this name")
