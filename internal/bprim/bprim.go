// Package bprim provides bounds-checked big-endian byte primitives shared
// by the box framing and box payload codec layers.
//
// Every multi-byte field in every box defined by ISO/IEC 15444-1/-2/-3/-6
// and Part 15 is big-endian; this package is the single place that encodes
// that convention so the ~40 box payload codecs never hand-roll
// binary.BigEndian calls with inconsistent bounds checking.
package bprim

import "github.com/mrjoshuak/go-j2kbox/errs"

// ReadU8 reads a uint8 at off, failing with errs.KindTruncated if off is
// out of range.
func ReadU8(b []byte, off int) (uint8, error) {
	if off < 0 || off+1 > len(b) {
		return 0, errs.New(errs.KindTruncated, "bprim.ReadU8", "short buffer")
	}
	return b[off], nil
}

// ReadI8 reads a signed byte at off.
func ReadI8(b []byte, off int) (int8, error) {
	v, err := ReadU8(b, off)
	return int8(v), err
}

// ReadU16 reads a big-endian uint16 at off.
func ReadU16(b []byte, off int) (uint16, error) {
	if off < 0 || off+2 > len(b) {
		return 0, errs.New(errs.KindTruncated, "bprim.ReadU16", "short buffer")
	}
	return uint16(b[off])<<8 | uint16(b[off+1]), nil
}

// ReadI16 reads a big-endian int16 at off.
func ReadI16(b []byte, off int) (int16, error) {
	v, err := ReadU16(b, off)
	return int16(v), err
}

// ReadU32 reads a big-endian uint32 at off.
func ReadU32(b []byte, off int) (uint32, error) {
	if off < 0 || off+4 > len(b) {
		return 0, errs.New(errs.KindTruncated, "bprim.ReadU32", "short buffer")
	}
	return uint32(b[off])<<24 | uint32(b[off+1])<<16 | uint32(b[off+2])<<8 | uint32(b[off+3]), nil
}

// ReadI32 reads a big-endian int32 at off.
func ReadI32(b []byte, off int) (int32, error) {
	v, err := ReadU32(b, off)
	return int32(v), err
}

// ReadU64 reads a big-endian uint64 at off.
func ReadU64(b []byte, off int) (uint64, error) {
	if off < 0 || off+8 > len(b) {
		return 0, errs.New(errs.KindTruncated, "bprim.ReadU64", "short buffer")
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(b[off+i])
	}
	return v, nil
}

// Slice returns an owned copy of b[begin:end], so a decoded value can
// outlive (or be independently mutated from) the buffer it was parsed out
// of. Fails with errs.KindTruncated if the range is invalid.
func Slice(b []byte, begin, end int) ([]byte, error) {
	if begin < 0 || end > len(b) || begin > end {
		return nil, errs.New(errs.KindTruncated, "bprim.Slice", "invalid range")
	}
	out := make([]byte, end-begin)
	copy(out, b[begin:end])
	return out, nil
}

// Builder accumulates a big-endian byte sequence. Callers should call Grow
// with the exact final size up front, matching the "every encoder reserves
// its exact output capacity" invariant the box payload codecs rely on.
type Builder struct {
	buf []byte
}

// NewBuilder allocates a Builder with backing capacity n.
func NewBuilder(n int) *Builder {
	return &Builder{buf: make([]byte, 0, n)}
}

// Grow ensures at least n bytes of additional capacity without changing length.
func (b *Builder) Grow(n int) {
	if cap(b.buf)-len(b.buf) < n {
		grown := make([]byte, len(b.buf), len(b.buf)+n)
		copy(grown, b.buf)
		b.buf = grown
	}
}

// U8 appends a single byte.
func (b *Builder) U8(v uint8) *Builder {
	b.buf = append(b.buf, v)
	return b
}

// I8 appends a signed byte.
func (b *Builder) I8(v int8) *Builder { return b.U8(uint8(v)) }

// U16 appends a big-endian uint16.
func (b *Builder) U16(v uint16) *Builder {
	b.buf = append(b.buf, byte(v>>8), byte(v))
	return b
}

// I16 appends a big-endian int16.
func (b *Builder) I16(v int16) *Builder { return b.U16(uint16(v)) }

// U32 appends a big-endian uint32.
func (b *Builder) U32(v uint32) *Builder {
	b.buf = append(b.buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	return b
}

// I32 appends a big-endian int32.
func (b *Builder) I32(v int32) *Builder { return b.U32(uint32(v)) }

// U64 appends a big-endian uint64.
func (b *Builder) U64(v uint64) *Builder {
	b.buf = append(b.buf,
		byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32),
		byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	return b
}

// Bytes appends raw bytes verbatim.
func (b *Builder) Bytes(p []byte) *Builder {
	b.buf = append(b.buf, p...)
	return b
}

// FourCC appends a 4-byte ASCII code, space-padding or truncating to
// exactly 4 bytes (callers are expected to pass pre-validated 4-byte codes;
// this is the defensive fallback for the rare caller that doesn't).
func (b *Builder) FourCC(code string) *Builder {
	var buf [4]byte
	copy(buf[:], "    ")
	copy(buf[:], code)
	return b.Bytes(buf[:])
}

// Build returns the accumulated bytes.
func (b *Builder) Build() []byte { return b.buf }

// Len returns the number of bytes accumulated so far.
func (b *Builder) Len() int { return len(b.buf) }

// Cursor is a sequential bounds-checked reader over a byte slice, used by
// box payload codecs that read several fields in sequence (the common
// case) instead of tracking an offset by hand at every call site.
type Cursor struct {
	b   []byte
	pos int
}

// NewCursor wraps b for sequential reads starting at offset 0.
func NewCursor(b []byte) *Cursor { return &Cursor{b: b} }

// Pos returns the current read offset.
func (c *Cursor) Pos() int { return c.pos }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.b) - c.pos }

// U8 reads the next byte and advances.
func (c *Cursor) U8() (uint8, error) {
	v, err := ReadU8(c.b, c.pos)
	if err != nil {
		return 0, err
	}
	c.pos++
	return v, nil
}

// U16 reads the next big-endian uint16 and advances.
func (c *Cursor) U16() (uint16, error) {
	v, err := ReadU16(c.b, c.pos)
	if err != nil {
		return 0, err
	}
	c.pos += 2
	return v, nil
}

// U32 reads the next big-endian uint32 and advances.
func (c *Cursor) U32() (uint32, error) {
	v, err := ReadU32(c.b, c.pos)
	if err != nil {
		return 0, err
	}
	c.pos += 4
	return v, nil
}

// U64 reads the next big-endian uint64 and advances.
func (c *Cursor) U64() (uint64, error) {
	v, err := ReadU64(c.b, c.pos)
	if err != nil {
		return 0, err
	}
	c.pos += 8
	return v, nil
}

// I8 reads a signed byte and advances.
func (c *Cursor) I8() (int8, error) {
	v, err := c.U8()
	return int8(v), err
}

// I16 reads a signed big-endian int16 and advances.
func (c *Cursor) I16() (int16, error) {
	v, err := c.U16()
	return int16(v), err
}

// I32 reads a signed big-endian int32 and advances.
func (c *Cursor) I32() (int32, error) {
	v, err := c.U32()
	return int32(v), err
}

// Bytes reads n raw bytes (as an owned copy) and advances.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	out, err := Slice(c.b, c.pos, c.pos+n)
	if err != nil {
		return nil, err
	}
	c.pos += n
	return out, nil
}

// FourCC reads a 4-byte ASCII code and advances.
func (c *Cursor) FourCC() (string, error) {
	b, err := c.Bytes(4)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Rest returns the remaining unread bytes as an owned copy, advancing to
// the end.
func (c *Cursor) Rest() []byte {
	out := make([]byte, len(c.b)-c.pos)
	copy(out, c.b[c.pos:])
	c.pos = len(c.b)
	return out
}
