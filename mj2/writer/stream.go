// Package writer implements the MJ2 write path: a StreamWriter that appends
// frames to a growing mdat while accumulating sample-table metadata, and a
// Creator that drives a StreamWriter from a sequence of encoded frames with
// dimension/profile validation and optional parallel encoding.
package writer

import (
	"encoding/binary"

	"github.com/mrjoshuak/go-j2kbox/errs"
	"github.com/mrjoshuak/go-j2kbox/internal/box"
	"github.com/mrjoshuak/go-j2kbox/internal/boxcodec"
	"github.com/mrjoshuak/go-j2kbox/internal/isobox"
	"github.com/mrjoshuak/go-j2kbox/mj2/sampletable"
)

// defaultTimescale is the movie and media timescale used when a caller
// doesn't override it: 600 divides evenly into the common video frame rates
// (24, 25, 30, 60), so per-frame durations stay integral.
const defaultTimescale = 600

// mdatHeaderSize is the size of the extended-length mdat header this writer
// always emits, even before the final content length is known, so frame
// offsets recorded while writing don't have to be adjusted later.
const mdatHeaderSize = 16

// StreamWriter appends JPEG 2000 codestreams to a single mdat box and
// derives the sample-table boxes from what it's given, writing the movie
// box only once the caller calls Finalize. It holds its output entirely in
// memory, matching the rest of this engine's box assembly; callers that need
// true incremental disk writes can stream the returned bytes themselves.
type StreamWriter struct {
	buf              []byte
	builder          *sampletable.Builder
	mdatHeaderOffset int
	brand            box.Type
	timescale        uint32
	trackID          uint32
	width, height    uint32
	sampleEntry      []byte
	finalized        bool
}

// NewStreamWriter starts a new MJ2 file: signature, ftyp, and a placeholder
// mdat header. header describes the video track's image properties (sample
// dimensions, bit depth, colorspace) and is embedded once, in the stsd's
// mjp2 sample entry — MJ2 assumes every frame in a track shares it.
func NewStreamWriter(brand box.Type, width, height uint32, header *boxcodec.JP2Header) (*StreamWriter, error) {
	headerContent, err := header.Encode()
	if err != nil {
		return nil, errs.Wrap(errs.KindInvalidParameter, "writer.NewStreamWriter", "encoding jp2h for sample entry", err)
	}
	entryPrefix := (&isobox.VisualSampleEntry{DataReferenceIndex: 1, Width: uint16(width), Height: uint16(height), CompressorName: "go-j2kbox"}).Encode()
	sampleEntry := box.EncodeBox(box.TypeMJ2Brand, append(append([]byte{}, entryPrefix...), box.EncodeBox(box.TypeJP2Header, headerContent)...))

	w := &StreamWriter{
		builder:     sampletable.NewBuilder(false),
		brand:       brand,
		timescale:   defaultTimescale,
		trackID:     1,
		width:       width,
		height:      height,
		sampleEntry: sampleEntry,
	}
	w.buf = append(w.buf, box.EncodeBox(box.TypeSignature, []byte{0x0D, 0x0A, 0x87, 0x0A})...)
	w.buf = append(w.buf, box.EncodeBox(box.TypeFileType, boxcodec.NewFileType(brand).Encode())...)

	w.mdatHeaderOffset = len(w.buf)
	placeholder := make([]byte, mdatHeaderSize)
	binary.BigEndian.PutUint32(placeholder[0:4], 1)
	binary.BigEndian.PutUint32(placeholder[4:8], uint32(box.TypeMediaData))
	w.buf = append(w.buf, placeholder...)
	return w, nil
}

// WriteFrame appends one already-encoded codestream to the mdat and records
// its sample-table metadata. duration is in track timescale units.
func (w *StreamWriter) WriteFrame(codestream []byte, duration uint32, isSync bool) error {
	if w.finalized {
		return errs.New(errs.KindInvalidParameter, "writer.StreamWriter.WriteFrame", "writer already finalized")
	}
	offset := uint64(len(w.buf))
	w.buf = append(w.buf, codestream...)
	w.builder.AddSample(uint32(len(codestream)), offset, duration, isSync)
	return nil
}

// SampleCount returns the number of frames written so far.
func (w *StreamWriter) SampleCount() int { return w.builder.SampleCount() }

// Finalize back-patches the mdat header's true length and appends the moov
// box describing every frame written. The writer must not be used again
// afterward.
func (w *StreamWriter) Finalize() ([]byte, error) {
	if w.finalized {
		return nil, errs.New(errs.KindInvalidParameter, "writer.StreamWriter.Finalize", "writer already finalized")
	}
	if w.builder.SampleCount() == 0 {
		return nil, errs.New(errs.KindInvalidParameter, "writer.StreamWriter.Finalize", "no frames were written")
	}

	contentLen := uint64(len(w.buf) - w.mdatHeaderOffset - mdatHeaderSize)
	binary.BigEndian.PutUint64(w.buf[w.mdatHeaderOffset+8:w.mdatHeaderOffset+16], mdatHeaderSize+contentLen)

	w.buf = append(w.buf, w.buildMoov()...)
	w.finalized = true
	return w.buf, nil
}

// SetTrackID overrides the default track ID (1) before any box is written.
func (w *StreamWriter) SetTrackID(id uint32) { w.trackID = id }

func (w *StreamWriter) buildMoov() []byte {
	tables := w.builder.Build()
	durations := tables.TimeToSample.Durations()
	var trackDuration uint64
	for _, d := range durations {
		trackDuration += uint64(d)
	}

	mvhd := &isobox.MovieHeader{
		Timescale:   w.timescale,
		Duration:    uint32(trackDuration),
		Rate:        0x00010000,
		Volume:      0,
		NextTrackID: w.trackID + 1,
	}
	tkhd := &isobox.TrackHeader{
		TrackID:  w.trackID,
		Duration: uint32(trackDuration),
		Width:    w.width << 16,
		Height:   w.height << 16,
	}
	mdhd := &isobox.MediaHeader{Timescale: w.timescale, Duration: uint32(trackDuration)}
	hdlr := &isobox.HandlerRef{HandlerType: "vide", Name: "go-j2kbox video handler"}
	dataEntry := &isobox.DataEntryURL{SelfContained: true}

	stblWriter := box.NewWriter()
	stsdContent := append(isobox.EncodeSampleDescriptionHeader(1), w.sampleEntry...)
	stblWriter.WriteBox(box.TypeSampleDescription, stsdContent)
	stblWriter.WriteBox(box.TypeTimeToSample, tables.TimeToSample.Encode())
	stblWriter.WriteBox(box.TypeSampleToChunk, tables.SampleToChunk.Encode())
	stblWriter.WriteBox(box.TypeSampleSize, tables.SampleSize.Encode())
	if tables.ChunkOffset64 != nil {
		stblWriter.WriteBox(box.TypeChunkOffset64, tables.ChunkOffset64.Encode())
	} else {
		stblWriter.WriteBox(box.TypeChunkOffset, tables.ChunkOffset.Encode())
	}
	if tables.SyncSample != nil {
		stblWriter.WriteBox(box.TypeSyncSample, tables.SyncSample.Encode())
	}

	dinfWriter := box.NewWriter()
	drefContent := append(isobox.EncodeDataRefHeader(1), box.EncodeBox(box.TypeURL, dataEntry.Encode())...)
	dinfWriter.WriteBox(box.TypeDataRef, drefContent)

	minfWriter := box.NewWriter()
	minfWriter.WriteBox(box.TypeVideoMediaHeader, isobox.VideoMediaHeader{}.Encode())
	minfWriter.WriteBox(box.TypeDataInfo, dinfWriter.Bytes())
	minfWriter.WriteBox(box.TypeSampleTable, stblWriter.Bytes())

	mdiaWriter := box.NewWriter()
	mdiaWriter.WriteBox(box.TypeMediaHeader, mdhd.Encode())
	mdiaWriter.WriteBox(box.TypeHandlerRef, hdlr.Encode())
	mdiaWriter.WriteBox(box.TypeMediaInfo, minfWriter.Bytes())

	trakWriter := box.NewWriter()
	trakWriter.WriteBox(box.TypeTrackHeader, tkhd.Encode())
	trakWriter.WriteBox(box.TypeMedia, mdiaWriter.Bytes())

	moovWriter := box.NewWriter()
	moovWriter.WriteBox(box.TypeMovieHeader, mvhd.Encode())
	moovWriter.WriteBox(box.TypeTrack, trakWriter.Bytes())

	return box.EncodeBox(box.TypeMovie, moovWriter.Bytes())
}
