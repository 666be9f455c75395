// Package box implements the box (atom) framing shared by every format in
// the JPEG 2000 container family: JP2, JPX, JPM, JPH, and MJ2. A box is a
// length-prefixed, four-byte-typed record that may itself contain a
// sequence of child boxes (a super-box). This package only frames boxes —
// it knows nothing about what any particular box type's payload means;
// that's internal/boxcodec and internal/isobox.
package box

import (
	"encoding/binary"

	"github.com/mrjoshuak/go-j2kbox/errs"
	"github.com/mrjoshuak/go-j2kbox/internal/bprim"
)

// Type is a 4-byte big-endian box type code (e.g. "jP  ", "ftyp", "moov").
// Equality and hashing are over the raw 32-bit value; String decodes it as
// ASCII for diagnostics, falling back to "????" when it isn't printable.
type Type uint32

// TypeFromString packs a 4-character ASCII code into a Type. Panics if s is
// not exactly 4 bytes — this is only ever called with compile-time
// constants in this codebase.
func TypeFromString(s string) Type {
	if len(s) != 4 {
		panic("box: type code must be exactly 4 bytes: " + s)
	}
	return Type(binary.BigEndian.Uint32([]byte(s)))
}

// String returns the 4-character decoding of t, or "????" if it contains
// non-printable bytes.
func (t Type) String() string {
	b := []byte{byte(t >> 24), byte(t >> 16), byte(t >> 8), byte(t)}
	for _, c := range b {
		if c < 0x20 || c > 0x7E {
			return "????"
		}
	}
	return string(b)
}

// Well-known box types shared across JP2/JPX/JPM/JPH/MJ2. Per-family
// payload packages (internal/boxcodec, internal/isobox) define the rest;
// this set is the minimum box framing and container assembly need to
// recognize structurally (signature, file typing, codestream, super-box
// nesting).
var (
	TypeSignature           = TypeFromString("jP  ")
	TypeFileType            = TypeFromString("ftyp")
	TypeJP2Header           = TypeFromString("jp2h")
	TypeImageHeader         = TypeFromString("ihdr")
	TypeBitsPerComponent    = TypeFromString("bpcc")
	TypeColorSpecification  = TypeFromString("colr")
	TypePalette             = TypeFromString("pclr")
	TypeComponentMapping    = TypeFromString("cmap")
	TypeChannelDefinition   = TypeFromString("cdef")
	TypeResolution          = TypeFromString("res ")
	TypeCaptureResolution   = TypeFromString("resc")
	TypeDisplayResolution   = TypeFromString("resd")
	TypeContiguousCodestream = TypeFromString("jp2c")
	TypeUUID                = TypeFromString("uuid")
	TypeXML                 = TypeFromString("xml ")
	TypeFragmentTable       = TypeFromString("ftbl")
	TypeFragmentList        = TypeFromString("flst")
	TypeComposition         = TypeFromString("comp")
	TypeLayerHeader         = TypeFromString("jplh")
	TypeInstructionSet      = TypeFromString("inst")
	TypeOpacity             = TypeFromString("opct")
	TypeCodestreamReg       = TypeFromString("creg")
	TypeGrouping            = TypeFromString("cgrp")
	TypePageCollection      = TypeFromString("pcol")
	TypePage                = TypeFromString("page")
	TypeLayoutObject        = TypeFromString("lobj")
	TypeReaderReq           = TypeFromString("rreq")
	TypeDigitalSignature    = TypeFromString("dsig")
	TypeROIDescription      = TypeFromString("roid")
	TypeIPR                 = TypeFromString("jp2i")
	TypeLabel               = TypeFromString("lbl ")
	TypeAssociation         = TypeFromString("asoc")
	TypeNumberList          = TypeFromString("nlst")
	TypeCrossReference      = TypeFromString("cref")
	TypeURL                 = TypeFromString("url ")

	// ISO base media (MJ2) super-box and leaf types used by container
	// assembly to locate the movie box without depending on internal/isobox.
	TypeMovie     = TypeFromString("moov")
	TypeMediaData = TypeFromString("mdat")
	TypeMJ2Brand  = TypeFromString("mjp2")

	// Remaining ISO base media box types the MJ2 writer, reader, and player
	// need to walk the moov hierarchy down to the sample tables.
	TypeMovieHeader       = TypeFromString("mvhd")
	TypeTrack             = TypeFromString("trak")
	TypeTrackHeader       = TypeFromString("tkhd")
	TypeMedia             = TypeFromString("mdia")
	TypeMediaHeader       = TypeFromString("mdhd")
	TypeHandlerRef        = TypeFromString("hdlr")
	TypeMediaInfo         = TypeFromString("minf")
	TypeVideoMediaHeader  = TypeFromString("vmhd")
	TypeDataInfo          = TypeFromString("dinf")
	TypeDataRef           = TypeFromString("dref")
	TypeSampleTable       = TypeFromString("stbl")
	TypeSampleDescription = TypeFromString("stsd")
	TypeTimeToSample      = TypeFromString("stts")
	TypeSampleToChunk     = TypeFromString("stsc")
	TypeSampleSize        = TypeFromString("stsz")
	TypeChunkOffset       = TypeFromString("stco")
	TypeChunkOffset64     = TypeFromString("co64")
	TypeSyncSample        = TypeFromString("stss")
)

// BoxInfo describes a box located during iteration: its type and the
// offsets of its content slice within the buffer the Reader was
// constructed over. HeaderLength is 8 for the standard form or 16 for the
// extended-length form.
type BoxInfo struct {
	Type          Type
	HeaderLength  int
	ContentOffset int
	ContentLength int
}

// TotalLength is the full on-disk size of the box, header included.
func (bi BoxInfo) TotalLength() int { return bi.HeaderLength + bi.ContentLength }

// Reader iterates sibling boxes within a byte slice (either a whole file
// or the content slice of an enclosing super-box).
type Reader struct {
	buf []byte
	pos int
}

// NewReader constructs a Reader over buf, starting at offset 0.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Offset returns the reader's current position within buf.
func (r *Reader) Offset() int { return r.pos }

// PeekNext reads the next box's header without advancing the reader. It
// returns (nil, nil) at end of buffer. A length of 1 selects the 16-byte
// extended-length header; a length of 0 means "extends to the end of buf".
// Any other length must be at least 8 and must fit within buf from the
// current position, or PeekNext fails with errs.KindTruncated.
func (r *Reader) PeekNext() (*BoxInfo, error) {
	if r.pos >= len(r.buf) {
		return nil, nil
	}
	if len(r.buf)-r.pos < 8 {
		return nil, errs.New(errs.KindTruncated, "box.PeekNext", "fewer than 8 bytes remain for box header")
	}
	length := uint64(binary.BigEndian.Uint32(r.buf[r.pos : r.pos+4]))
	typ := Type(binary.BigEndian.Uint32(r.buf[r.pos+4 : r.pos+8]))

	headerLen := 8
	var contentLen uint64
	switch {
	case length == 1:
		if len(r.buf)-r.pos < 16 {
			return nil, errs.New(errs.KindTruncated, "box.PeekNext", "fewer than 16 bytes remain for extended box header")
		}
		extLen := binary.BigEndian.Uint64(r.buf[r.pos+8 : r.pos+16])
		if extLen < 16 {
			return nil, errs.New(errs.KindFileFormat, "box.PeekNext", "extended length shorter than its own header")
		}
		headerLen = 16
		contentLen = extLen - 16
	case length == 0:
		contentLen = uint64(len(r.buf) - r.pos - headerLen)
	default:
		if length < 8 {
			return nil, errs.New(errs.KindFileFormat, "box.PeekNext", "box length below minimum of 8")
		}
		contentLen = length - uint64(headerLen)
	}

	if uint64(r.pos+headerLen)+contentLen > uint64(len(r.buf)) {
		return nil, errs.New(errs.KindTruncated, "box.PeekNext", "box extends past enclosing buffer")
	}

	return &BoxInfo{
		Type:          typ,
		HeaderLength:  headerLen,
		ContentOffset: r.pos + headerLen,
		ContentLength: int(contentLen),
	}, nil
}

// ReadNext peeks the next box and, if one is present, advances past it.
func (r *Reader) ReadNext() (*BoxInfo, error) {
	info, err := r.PeekNext()
	if err != nil || info == nil {
		return info, err
	}
	r.pos = info.ContentOffset + info.ContentLength
	return info, nil
}

// ExtractContent returns the content slice described by info. The slice
// aliases the reader's buffer; callers that need an owned copy should use
// bprim.Slice explicitly (box payload codecs do this when building their
// typed values, per the "values own their buffers" data model).
func (r *Reader) ExtractContent(info *BoxInfo) []byte {
	return r.buf[info.ContentOffset : info.ContentOffset+info.ContentLength]
}

// ReadAll reads every sibling box in the buffer and returns their BoxInfo
// in order.
func (r *Reader) ReadAll() ([]BoxInfo, error) {
	var out []BoxInfo
	for {
		info, err := r.ReadNext()
		if err != nil {
			return nil, err
		}
		if info == nil {
			break
		}
		out = append(out, *info)
	}
	return out, nil
}

// Writer serializes boxes to a growing byte buffer.
type Writer struct {
	b *bprim.Builder
}

// NewWriter constructs an empty Writer.
func NewWriter() *Writer {
	return &Writer{b: bprim.NewBuilder(0)}
}

// Bytes returns everything written so far.
func (w *Writer) Bytes() []byte { return w.b.Build() }

// WriteBox appends a box with the given type and already-serialized
// content (for a super-box, content is the concatenation of its already
// framed children). Chooses the 8-byte header form unless the total size
// would overflow a uint32, in which case it emits the 16-byte
// extended-length form with length=1.
func (w *Writer) WriteBox(typ Type, content []byte) {
	total := uint64(8 + len(content))
	if total <= 0xFFFFFFFF {
		w.b.Grow(8 + len(content))
		w.b.U32(uint32(total)).U32(uint32(typ)).Bytes(content)
		return
	}
	w.b.Grow(16 + len(content))
	w.b.U32(1).U32(uint32(typ)).U64(16 + uint64(len(content))).Bytes(content)
}

// WriteRawBox is an alias for WriteBox kept for call sites that are
// round-tripping an opaque/unknown box verbatim — the framing is identical,
// but naming it separately documents intent at the call site.
func (w *Writer) WriteRawBox(typ Type, content []byte) {
	w.WriteBox(typ, content)
}

// EncodeBox serializes a single box (header + content) without an
// accompanying Writer, for call sites that only need one box's bytes (e.g.
// the fixed 12-byte JP2 signature box).
func EncodeBox(typ Type, content []byte) []byte {
	w := NewWriter()
	w.WriteBox(typ, content)
	return w.Bytes()
}
