package boxcodec

import (
	"github.com/mrjoshuak/go-j2kbox/errs"
	"github.com/mrjoshuak/go-j2kbox/internal/box"
	"github.com/mrjoshuak/go-j2kbox/internal/bprim"
)

// LayoutObject is the lobj box payload: placement of one codestream/object
// within a JPM page.
type LayoutObject struct {
	ObjectType uint8
	HOffset    uint32
	VOffset    uint32
	Width      uint32
	Height     uint32
}

// ParseLayoutObject decodes an lobj box payload, a fixed 17-byte record.
func ParseLayoutObject(data []byte) (*LayoutObject, error) {
	if len(data) != 17 {
		return nil, errs.New(errs.KindFileFormat, "boxcodec.ParseLayoutObject", "lobj payload must be exactly 17 bytes")
	}
	c := bprim.NewCursor(data)
	lo := &LayoutObject{}
	var err error
	if lo.ObjectType, err = c.U8(); err != nil {
		return nil, err
	}
	if lo.HOffset, err = c.U32(); err != nil {
		return nil, err
	}
	if lo.VOffset, err = c.U32(); err != nil {
		return nil, err
	}
	if lo.Width, err = c.U32(); err != nil {
		return nil, err
	}
	if lo.Height, err = c.U32(); err != nil {
		return nil, err
	}
	return lo, nil
}

// Encode serializes an lobj box payload.
func (lo *LayoutObject) Encode() []byte {
	b := bprim.NewBuilder(17)
	b.U8(lo.ObjectType).U32(lo.HOffset).U32(lo.VOffset).U32(lo.Width).U32(lo.Height)
	return b.Build()
}

// Page is the page super-box payload: a page's dimensions plus its ordered
// layout objects.
type Page struct {
	Width, Height uint32
	Objects       []LayoutObject
}

// ParsePage walks a page super-box: an 8-byte grid header followed by lobj children.
func ParsePage(content []byte) (*Page, error) {
	if len(content) < 8 {
		return nil, errs.New(errs.KindTruncated, "boxcodec.ParsePage", "page payload shorter than its 8-byte grid header")
	}
	width, err := bprim.ReadU32(content, 0)
	if err != nil {
		return nil, err
	}
	height, err := bprim.ReadU32(content, 4)
	if err != nil {
		return nil, err
	}
	p := &Page{Width: width, Height: height}
	r := box.NewReader(content[8:])
	for {
		info, err := r.ReadNext()
		if err != nil {
			return nil, err
		}
		if info == nil {
			break
		}
		if info.Type != box.TypeLayoutObject {
			continue
		}
		lo, err := ParseLayoutObject(r.ExtractContent(info))
		if err != nil {
			return nil, err
		}
		p.Objects = append(p.Objects, *lo)
	}
	return p, nil
}

// Encode serializes the page super-box content.
func (p *Page) Encode() []byte {
	head := bprim.NewBuilder(8)
	head.U32(p.Width).U32(p.Height)
	w := box.NewWriter()
	for i := range p.Objects {
		w.WriteBox(box.TypeLayoutObject, p.Objects[i].Encode())
	}
	return append(head.Build(), w.Bytes()...)
}

// PageCollection is the pcol super-box payload: an ordered sequence of JPM
// pages.
type PageCollection struct {
	Pages []Page
}

// ParsePageCollection walks a pcol super-box's page children.
func ParsePageCollection(content []byte) (*PageCollection, error) {
	pc := &PageCollection{}
	r := box.NewReader(content)
	for {
		info, err := r.ReadNext()
		if err != nil {
			return nil, err
		}
		if info == nil {
			break
		}
		if info.Type != box.TypePage {
			continue
		}
		p, err := ParsePage(r.ExtractContent(info))
		if err != nil {
			return nil, err
		}
		pc.Pages = append(pc.Pages, *p)
	}
	return pc, nil
}

// Encode serializes the pcol super-box content.
func (pc *PageCollection) Encode() []byte {
	w := box.NewWriter()
	for i := range pc.Pages {
		w.WriteBox(box.TypePage, pc.Pages[i].Encode())
	}
	return w.Bytes()
}
