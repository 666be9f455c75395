package writer

import (
	"context"
	"encoding/binary"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mrjoshuak/go-j2kbox/codec"
	"github.com/mrjoshuak/go-j2kbox/errs"
	"github.com/mrjoshuak/go-j2kbox/internal/box"
	"github.com/mrjoshuak/go-j2kbox/internal/boxcodec"
)

// Simple Profile limits (ISO/IEC 15444-3 Annex A.4): the bounds a Creator
// enforces before writing any bytes, since nothing downstream can repair an
// out-of-profile file once frames are committed to an mdat.
const (
	simpleProfileMaxWidth     = 1920
	simpleProfileMaxHeight    = 1080
	simpleProfileMaxFrameRate = 30
)

// Frame is one source image a Creator will encode and append, in the order
// given. FrameIndex is not read by Create or CreateParallel: both keep the
// slice order, so it never changes playback order.
type Frame struct {
	FrameIndex int
	PixelData  []byte
	Width      uint32
	Height     uint32
	Components []codec.ComponentSummary
	IsSync     bool
	Duration   uint32
	Options    codec.Options
}

// Creator drives a StreamWriter from a sequence of Frame values, encoding
// each with a supplied Codec. It validates that every frame shares the same
// dimensions and component layout — MJ2 has no per-sample geometry — and
// that the whole sequence fits the MJ2 Simple Profile bounds before writing
// anything.
type Creator struct {
	codec     codec.Codec
	brand     box.Type
	frameRate uint32
	trackID   uint32
	log       *zap.Logger

	cancelled atomic.Bool
}

// NewCreator constructs a Creator that encodes frames with c and targets
// brand (e.g. boxcodec.BrandMJ2). frameRate is the nominal frames per second,
// checked against the Simple Profile's 30fps bound. The track gets a
// UUID-derived track ID so repeated NewCreator calls in the same process
// never collide, the way a multi-series imaging pipeline mints per-series
// identifiers.
func NewCreator(c codec.Codec, brand box.Type, frameRate uint32) *Creator {
	id := uuid.New()
	trackID := binary.BigEndian.Uint32(id[:4])
	if trackID == 0 {
		trackID = 1
	}
	return &Creator{codec: c, brand: brand, frameRate: frameRate, trackID: trackID, log: zap.NewNop()}
}

// SetLogger installs a structured logger for frame-write and finalize
// diagnostics. A nil logger restores the no-op default.
func (c *Creator) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	c.log = l
}

// Cancel requests cooperative cancellation: in-flight frame encodes are
// allowed to finish, but Create/CreateParallel stop submitting new work and
// return a KindCancelled error instead of a completed file.
func (c *Creator) Cancel() { c.cancelled.Store(true) }

func (c *Creator) validateFrames(frames []Frame) error {
	if len(frames) == 0 {
		return errs.New(errs.KindInvalidParameter, "writer.Creator", "no frames to encode")
	}
	if c.frameRate > simpleProfileMaxFrameRate {
		return errs.New(errs.KindInvalidParameter, "writer.Creator", "frame rate exceeds MJ2 Simple Profile's 30fps bound")
	}
	w0, h0 := frames[0].Width, frames[0].Height
	if w0 > simpleProfileMaxWidth || h0 > simpleProfileMaxHeight {
		return errs.New(errs.KindInvalidParameter, "writer.Creator", "frame dimensions exceed MJ2 Simple Profile's 1920x1080 bound")
	}
	n0 := len(frames[0].Components)
	for _, f := range frames[1:] {
		if f.Width != w0 || f.Height != h0 {
			return errs.New(errs.KindInconsistentDimensions, "writer.Creator", "frames do not share a common width/height")
		}
		if len(f.Components) != n0 {
			return errs.New(errs.KindInconsistentComponents, "writer.Creator", "frames do not share a common component count")
		}
	}
	return nil
}

func jp2HeaderFor(frames []Frame) *boxcodec.JP2Header {
	f0 := frames[0]
	depth0 := f0.Components[0].BitDepth
	signed0 := f0.Components[0].Signed
	uniform := true
	for _, comp := range f0.Components[1:] {
		if comp.BitDepth != depth0 || comp.Signed != signed0 {
			uniform = false
			break
		}
	}
	ihdr := &boxcodec.ImageHeader{
		Height:          f0.Height,
		Width:           f0.Width,
		NumComponents:   uint16(len(f0.Components)),
		CompressionType: 7,
	}
	h := &boxcodec.JP2Header{ImageHeader: ihdr}
	if uniform {
		packed, err := boxcodec.PackBitsPerComponent(int(depth0), signed0)
		if err == nil {
			ihdr.BitsPerComponent = packed
		}
	} else {
		ihdr.BitsPerComponent = 0xFF
		bits := make([]uint8, len(f0.Components))
		for i, comp := range f0.Components {
			packed, err := boxcodec.PackBitsPerComponent(int(comp.BitDepth), comp.Signed)
			if err == nil {
				bits[i] = packed
			}
		}
		h.BitsPerComp = &boxcodec.BitsPerComponentBox{BitsPerComponent: bits}
	}
	enumCS := uint32(boxcodec.CSsRGB)
	if len(f0.Components) == 1 {
		enumCS = boxcodec.CSGreyscale
	}
	h.ColorSpec = []*boxcodec.ColorSpec{{Method: boxcodec.MethodEnumerated, EnumeratedCS: enumCS}}
	return h
}

// Create encodes and writes frames sequentially, in the order given.
func (c *Creator) Create(ctx context.Context, frames []Frame) ([]byte, error) {
	if err := c.validateFrames(frames); err != nil {
		return nil, err
	}
	f0 := frames[0]
	sw, err := NewStreamWriter(c.brand, f0.Width, f0.Height, jp2HeaderFor(frames))
	if err != nil {
		return nil, err
	}
	sw.SetTrackID(c.trackID)
	for _, f := range frames {
		if c.cancelled.Load() {
			return nil, errs.New(errs.KindCancelled, "writer.Creator.Create", "cancelled before all frames were encoded")
		}
		params := codec.EncodeParams{
			PixelData: f.PixelData, Width: f.Width, Height: f.Height,
			Components: f.Components, Options: f.Options,
		}
		if err := params.Validate(); err != nil {
			return nil, err
		}
		cs, err := c.codec.Encode(ctx, params)
		if err != nil {
			return nil, errs.Wrap(errs.KindDecodeFailed, "writer.Creator.Create", "frame encode failed", err)
		}
		if err := sw.WriteFrame(cs, f.Duration, f.IsSync); err != nil {
			return nil, err
		}
	}
	if c.cancelled.Load() {
		return nil, errs.New(errs.KindCancelled, "writer.Creator.Create", "cancelled before finalize")
	}
	out, err := sw.Finalize()
	if err != nil {
		return nil, err
	}
	c.log.Info("mj2 file finalized", zap.Int("frames", len(frames)), zap.Uint32("trackID", c.trackID), zap.Int("bytes", len(out)))
	return out, nil
}

// CreateParallel encodes frames concurrently (bounded by concurrency, or
// GOMAXPROCS-sized if concurrency <= 0) but always writes them to the
// StreamWriter in original frame order, matching the MJ2 requirement that
// decode order equal display order for a Simple Profile file.
func (c *Creator) CreateParallel(ctx context.Context, frames []Frame, concurrency int) ([]byte, error) {
	if err := c.validateFrames(frames); err != nil {
		return nil, err
	}

	encoded := make([][]byte, len(frames))
	g, gctx := errgroup.WithContext(ctx)
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(concurrency)

	var mu sync.Mutex
	for i := range frames {
		i := i
		g.Go(func() error {
			if c.cancelled.Load() {
				return errs.New(errs.KindCancelled, "writer.Creator.CreateParallel", "cancelled mid-batch")
			}
			f := frames[i]
			params := codec.EncodeParams{
				PixelData: f.PixelData, Width: f.Width, Height: f.Height,
				Components: f.Components, Options: f.Options,
			}
			if err := params.Validate(); err != nil {
				return err
			}
			cs, err := c.codec.Encode(gctx, params)
			if err != nil {
				return errs.Wrap(errs.KindDecodeFailed, "writer.Creator.CreateParallel", "frame encode failed", err)
			}
			mu.Lock()
			encoded[i] = cs
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	f0 := frames[0]
	sw, err := NewStreamWriter(c.brand, f0.Width, f0.Height, jp2HeaderFor(frames))
	if err != nil {
		return nil, err
	}
	sw.SetTrackID(c.trackID)
	for i, f := range frames {
		if err := sw.WriteFrame(encoded[i], f.Duration, f.IsSync); err != nil {
			return nil, err
		}
	}
	if c.cancelled.Load() {
		return nil, errs.New(errs.KindCancelled, "writer.Creator.CreateParallel", "cancelled before finalize")
	}
	out, err := sw.Finalize()
	if err != nil {
		return nil, err
	}
	c.log.Info("mj2 file finalized", zap.Int("frames", len(frames)), zap.Uint32("trackID", c.trackID), zap.Int("bytes", len(out)))
	return out, nil
}
