// Package reader parses an existing MJ2 file back into the sample-table
// and header structures the writer produced, so a player or a batch
// extractor can work from a real parsed track instead of the placeholder
// empty-tables path some MJ2 implementations fall back to.
package reader

import (
	"github.com/mrjoshuak/go-j2kbox/errs"
	"github.com/mrjoshuak/go-j2kbox/internal/box"
	"github.com/mrjoshuak/go-j2kbox/internal/boxcodec"
	"github.com/mrjoshuak/go-j2kbox/internal/isobox"
	"github.com/mrjoshuak/go-j2kbox/mj2/sampletable"
)

// Track is the single video track this package materializes: the sample
// table reader frame access is built on top of, plus the track's declared
// image properties and the mjp2 header describing its codestream layout.
type Track struct {
	Table     *sampletable.Reader
	Header    *boxcodec.JP2Header
	Width     uint32
	Height    uint32
	Timescale uint32
}

// File is a fully parsed MJ2 container: the raw bytes (frame offsets from
// the sample table are absolute within this slice) and its single video
// track.
type File struct {
	Data  []byte
	Track Track
}

// Parse walks a complete MJ2 file's top-level boxes, descends the
// moov/trak/mdia/minf/stbl hierarchy, and builds a Track from the sample
// table boxes and the stsd's mjp2 sample entry. data must be the whole
// file: sample-table offsets are absolute from its start.
func Parse(data []byte) (*File, error) {
	r := box.NewReader(data)
	var moovContent []byte
	for {
		info, err := r.ReadNext()
		if err != nil {
			return nil, err
		}
		if info == nil {
			break
		}
		if info.Type == box.TypeMovie {
			moovContent = r.ExtractContent(info)
		}
	}
	if moovContent == nil {
		return nil, errs.New(errs.KindFileFormat, "reader.Parse", "no moov box found")
	}

	trak, timescale, err := findTrack(moovContent)
	if err != nil {
		return nil, err
	}
	if trak == nil {
		return nil, errs.New(errs.KindNoVideoTracks, "reader.Parse", "moov has no trak box")
	}

	track, err := parseTrack(*trak, timescale)
	if err != nil {
		return nil, err
	}
	return &File{Data: data, Track: *track}, nil
}

// findTrack locates the first trak box directly under moov and reads mvhd's
// timescale, which every track's timestamps are expressed in.
func findTrack(moovContent []byte) (*[]byte, uint32, error) {
	r := box.NewReader(moovContent)
	var trak *[]byte
	var timescale uint32
	for {
		info, err := r.ReadNext()
		if err != nil {
			return nil, 0, err
		}
		if info == nil {
			break
		}
		switch info.Type {
		case box.TypeMovieHeader:
			mvhd, err := isobox.ParseMovieHeader(r.ExtractContent(info))
			if err != nil {
				return nil, 0, err
			}
			timescale = mvhd.Timescale
		case box.TypeTrack:
			if trak == nil {
				content := r.ExtractContent(info)
				trak = &content
			}
		}
	}
	return trak, timescale, nil
}

func parseTrack(trakContent []byte, timescale uint32) (*Track, error) {
	tr := box.NewReader(trakContent)
	var width, height uint32
	var mdiaContent []byte
	for {
		info, err := tr.ReadNext()
		if err != nil {
			return nil, err
		}
		if info == nil {
			break
		}
		switch info.Type {
		case box.TypeTrackHeader:
			tkhd, err := isobox.ParseTrackHeader(tr.ExtractContent(info))
			if err != nil {
				return nil, err
			}
			width, height = tkhd.Width>>16, tkhd.Height>>16
		case box.TypeMedia:
			mdiaContent = tr.ExtractContent(info)
		}
	}
	if mdiaContent == nil {
		return nil, errs.New(errs.KindFileFormat, "reader.parseTrack", "trak missing mdia")
	}

	stblContent, mediaTimescale, err := parseMedia(mdiaContent)
	if err != nil {
		return nil, err
	}
	if mediaTimescale != 0 {
		timescale = mediaTimescale
	}

	table, header, err := parseSampleTable(stblContent)
	if err != nil {
		return nil, err
	}
	return &Track{Table: table, Header: header, Width: width, Height: height, Timescale: timescale}, nil
}

func parseMedia(mdiaContent []byte) ([]byte, uint32, error) {
	mr := box.NewReader(mdiaContent)
	var timescale uint32
	var minfContent []byte
	for {
		info, err := mr.ReadNext()
		if err != nil {
			return nil, 0, err
		}
		if info == nil {
			break
		}
		switch info.Type {
		case box.TypeMediaHeader:
			mdhd, err := isobox.ParseMediaHeader(mr.ExtractContent(info))
			if err != nil {
				return nil, 0, err
			}
			timescale = mdhd.Timescale
		case box.TypeMediaInfo:
			minfContent = mr.ExtractContent(info)
		}
	}
	if minfContent == nil {
		return nil, 0, errs.New(errs.KindFileFormat, "reader.parseMedia", "mdia missing minf")
	}

	ir := box.NewReader(minfContent)
	var stblContent []byte
	for {
		info, err := ir.ReadNext()
		if err != nil {
			return nil, 0, err
		}
		if info == nil {
			break
		}
		if info.Type == box.TypeSampleTable {
			stblContent = ir.ExtractContent(info)
		}
	}
	if stblContent == nil {
		return nil, 0, errs.New(errs.KindFileFormat, "reader.parseMedia", "minf missing stbl")
	}
	return stblContent, timescale, nil
}

func parseSampleTable(stblContent []byte) (*sampletable.Reader, *boxcodec.JP2Header, error) {
	sr := box.NewReader(stblContent)
	var tables sampletable.Tables
	var header *boxcodec.JP2Header
	for {
		info, err := sr.ReadNext()
		if err != nil {
			return nil, nil, err
		}
		if info == nil {
			break
		}
		content := sr.ExtractContent(info)
		switch info.Type {
		case box.TypeSampleDescription:
			h, err := parseSampleDescription(content)
			if err != nil {
				return nil, nil, err
			}
			header = h
		case box.TypeTimeToSample:
			v, err := isobox.ParseTimeToSample(content)
			if err != nil {
				return nil, nil, err
			}
			tables.TimeToSample = v
		case box.TypeSampleToChunk:
			v, err := isobox.ParseSampleToChunk(content)
			if err != nil {
				return nil, nil, err
			}
			tables.SampleToChunk = v
		case box.TypeSampleSize:
			v, err := isobox.ParseSampleSize(content)
			if err != nil {
				return nil, nil, err
			}
			tables.SampleSize = v
		case box.TypeChunkOffset:
			v, err := isobox.ParseChunkOffset(content)
			if err != nil {
				return nil, nil, err
			}
			tables.ChunkOffset = v
		case box.TypeChunkOffset64:
			v, err := isobox.ParseChunkOffset64(content)
			if err != nil {
				return nil, nil, err
			}
			tables.ChunkOffset64 = v
		case box.TypeSyncSample:
			v, err := isobox.ParseSyncSample(content)
			if err != nil {
				return nil, nil, err
			}
			tables.SyncSample = v
		}
	}
	if tables.SampleSize == nil {
		return nil, nil, errs.New(errs.KindFileFormat, "reader.parseSampleTable", "stbl missing stsz")
	}

	sizes := tables.SampleSize.Sizes
	if len(sizes) == 0 && tables.SampleSize.SampleCount > 0 {
		sizes = make([]uint32, tables.SampleSize.SampleCount)
		for i := range sizes {
			sizes[i] = tables.SampleSize.SampleSize
		}
	}

	table, err := sampletable.NewReader(tables, sizes)
	if err != nil {
		return nil, nil, err
	}
	return table, header, nil
}

// parseSampleDescription walks the stsd's single mjp2 sample entry and
// decodes its embedded jp2h.
func parseSampleDescription(content []byte) (*boxcodec.JP2Header, error) {
	entryCount, err := isobox.ParseSampleDescriptionHeader(content)
	if err != nil {
		return nil, err
	}
	if entryCount == 0 {
		return nil, errs.New(errs.KindFileFormat, "reader.parseSampleDescription", "stsd has no sample entries")
	}
	entryReader := box.NewReader(content[8:])
	info, err := entryReader.ReadNext()
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, errs.New(errs.KindFileFormat, "reader.parseSampleDescription", "stsd sample entry missing")
	}
	_, rest, err := isobox.ParseVisualSampleEntryPrefix(entryReader.ExtractContent(info))
	if err != nil {
		return nil, err
	}
	childReader := box.NewReader(rest)
	childInfo, err := childReader.ReadNext()
	if err != nil {
		return nil, err
	}
	if childInfo == nil || childInfo.Type != box.TypeJP2Header {
		return nil, errs.New(errs.KindFileFormat, "reader.parseSampleDescription", "mjp2 sample entry missing jp2h")
	}
	return boxcodec.ParseJP2Header(childReader.ExtractContent(childInfo))
}
