package boxcodec

import (
	"github.com/mrjoshuak/go-j2kbox/errs"
	"github.com/mrjoshuak/go-j2kbox/internal/bprim"
)

// FragmentEntry is a single flst/ftbl entry: a byte offset and length of a
// fragment of media data, possibly in another file (url box, not modeled
// here since url-referenced fragments carry no additional framing of their
// own beyond the box family in metadata.go).
type FragmentEntry struct {
	Offset uint64
	Length uint32
}

// FragmentList is the flst (and, structurally identically, ftbl super-box's
// inner list) payload: a DR-width offset per fragment.
type FragmentList struct {
	Entries []FragmentEntry
}

// ParseFragmentList decodes an flst payload. DR (offset width in bytes) is
// carried as the byte after the u16 fragment count and must be 4 or 8.
func ParseFragmentList(data []byte) (*FragmentList, error) {
	c := bprim.NewCursor(data)
	count, err := c.U16()
	if err != nil {
		return nil, err
	}
	if count > 65535 {
		return nil, errs.New(errs.KindFileFormat, "boxcodec.ParseFragmentList", "fragment count exceeds 65535")
	}
	dr, err := c.U8()
	if err != nil {
		return nil, err
	}
	if dr != 4 && dr != 8 {
		return nil, errs.New(errs.KindFileFormat, "boxcodec.ParseFragmentList", "DR must be 4 or 8")
	}
	entries := make([]FragmentEntry, count)
	for i := range entries {
		var off uint64
		if dr == 4 {
			v, err := c.U32()
			if err != nil {
				return nil, err
			}
			off = uint64(v)
		} else {
			v, err := c.U64()
			if err != nil {
				return nil, err
			}
			off = v
		}
		length, err := c.U32()
		if err != nil {
			return nil, err
		}
		entries[i] = FragmentEntry{Offset: off, Length: length}
	}
	return &FragmentList{Entries: entries}, nil
}

// chooseDR returns 8 if any entry's offset overflows a uint32, else 4.
func (l *FragmentList) chooseDR() uint8 {
	for _, e := range l.Entries {
		if e.Offset > 0xFFFFFFFF {
			return 8
		}
	}
	return 4
}

// Encode serializes an flst payload, selecting DR=8 only when required.
func (l *FragmentList) Encode() ([]byte, error) {
	if len(l.Entries) > 65535 {
		return nil, errs.New(errs.KindInvalidParameter, "boxcodec.FragmentList.Encode", "fragment count exceeds 65535")
	}
	dr := l.chooseDR()
	size := 3 + len(l.Entries)*(int(dr)+4)
	b := bprim.NewBuilder(size)
	b.U16(uint16(len(l.Entries))).U8(dr)
	for _, e := range l.Entries {
		if dr == 4 {
			b.U32(uint32(e.Offset))
		} else {
			b.U64(e.Offset)
		}
		b.U32(e.Length)
	}
	return b.Build(), nil
}

// FragmentTable is the ftbl super-box payload: it contains exactly one flst
// child in conforming files, framed the same way jp2h frames its children.
type FragmentTable struct {
	List *FragmentList
}
