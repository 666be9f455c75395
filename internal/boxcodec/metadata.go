// Part-2 metadata family: association trees (asoc/lbl/nlst/cref), IPR/ROI
// description, digital signatures, and URL references. These let a JPX file
// attach free-form metadata to arbitrary sets of boxes without every reader
// needing to understand what the metadata means.
package boxcodec

import (
	"unicode/utf8"

	"github.com/mrjoshuak/go-j2kbox/errs"
	"github.com/mrjoshuak/go-j2kbox/internal/box"
	"github.com/mrjoshuak/go-j2kbox/internal/bprim"
)

// Label is the lbl  box payload: a UTF-8 string naming the enclosing
// association.
type Label struct {
	Text string
}

// ParseLabel decodes an lbl  box payload, validating UTF-8.
func ParseLabel(data []byte) (*Label, error) {
	if !utf8.Valid(data) {
		return nil, errs.New(errs.KindFileFormat, "boxcodec.ParseLabel", "lbl payload is not valid UTF-8")
	}
	return &Label{Text: string(data)}, nil
}

// Encode serializes an lbl  box payload.
func (l *Label) Encode() []byte { return []byte(l.Text) }

// XML is the xml  box payload: a UTF-8 validated string.
type XML struct {
	Text string
}

// ParseXML decodes an xml  box payload, validating UTF-8.
func ParseXML(data []byte) (*XML, error) {
	if !utf8.Valid(data) {
		return nil, errs.New(errs.KindFileFormat, "boxcodec.ParseXML", "xml payload is not valid UTF-8")
	}
	return &XML{Text: string(data)}, nil
}

// Encode serializes an xml  box payload.
func (x *XML) Encode() []byte { return []byte(x.Text) }

// UUIDBox is the uuid box payload: a 16-byte UUID identifying the private
// format of the opaque data that follows.
type UUIDBox struct {
	UUID [16]byte
	Data []byte
}

// ParseUUIDBox decodes a uuid box payload.
func ParseUUIDBox(data []byte) (*UUIDBox, error) {
	if len(data) < 16 {
		return nil, errs.New(errs.KindTruncated, "boxcodec.ParseUUIDBox", "uuid payload shorter than 16 bytes")
	}
	u := &UUIDBox{}
	copy(u.UUID[:], data[0:16])
	rest, err := bprim.Slice(data, 16, len(data))
	if err != nil {
		return nil, err
	}
	u.Data = rest
	return u, nil
}

// Encode serializes a uuid box payload.
func (u *UUIDBox) Encode() []byte {
	b := bprim.NewBuilder(16 + len(u.Data))
	b.Bytes(u.UUID[:]).Bytes(u.Data)
	return b.Build()
}

// NumberList is the nlst box payload: a list of association indices this
// metadata node refers to. Index 0 means "the rendered result as a whole".
type NumberList struct {
	Indices []uint32
}

// ParseNumberList decodes an nlst box payload.
func ParseNumberList(data []byte) (*NumberList, error) {
	if len(data)%4 != 0 {
		return nil, errs.New(errs.KindFileFormat, "boxcodec.ParseNumberList", "nlst payload length must be a multiple of 4")
	}
	n := len(data) / 4
	out := make([]uint32, n)
	for i := range out {
		v, err := bprim.ReadU32(data, i*4)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return &NumberList{Indices: out}, nil
}

// Encode serializes an nlst box payload.
func (n *NumberList) Encode() []byte {
	b := bprim.NewBuilder(4 * len(n.Indices))
	for _, v := range n.Indices {
		b.U32(v)
	}
	return b.Build()
}

// CrossReference is the cref box payload: a back-reference from this
// association node to another association node elsewhere in the file,
// identified by byte offset from the start of the file.
type CrossReference struct {
	ReferencedOffset uint64
}

// ParseCrossReference decodes a cref box payload.
func ParseCrossReference(data []byte) (*CrossReference, error) {
	v, err := bprim.ReadU64(data, 0)
	if err != nil {
		return nil, err
	}
	return &CrossReference{ReferencedOffset: v}, nil
}

// Encode serializes a cref box payload.
func (c *CrossReference) Encode() []byte {
	b := bprim.NewBuilder(8)
	b.U64(c.ReferencedOffset)
	return b.Build()
}

// URL is the url  box payload shared by JPX association trees and MJ2's
// data-reference table: a version byte and 3 flag bytes followed by the
// location string, with no terminating NUL written or stripped (the flag
// bits are kept opaque since no component interprets them further).
type URL struct {
	Version  uint8
	Flags    [3]byte
	Location string
}

// ParseURL decodes a url  box payload.
func ParseURL(data []byte) (*URL, error) {
	if len(data) < 4 {
		return nil, errs.New(errs.KindTruncated, "boxcodec.ParseURL", "url payload shorter than 4 bytes")
	}
	u := &URL{Version: data[0]}
	copy(u.Flags[:], data[1:4])
	loc := data[4:]
	if !utf8.Valid(loc) {
		return nil, errs.New(errs.KindFileFormat, "boxcodec.ParseURL", "url location is not valid UTF-8")
	}
	u.Location = string(loc)
	return u, nil
}

// Encode serializes a url  box payload.
func (u *URL) Encode() []byte {
	b := bprim.NewBuilder(4 + len(u.Location))
	b.U8(u.Version).Bytes(u.Flags[:]).Bytes([]byte(u.Location))
	return b.Build()
}

// DigitalSignature is the dsig box payload: a signature type byte followed
// by opaque signature bytes (the signature algorithm is out of scope for
// this module; callers that need to verify a signature consume Data
// themselves).
type DigitalSignature struct {
	SignatureType uint8
	Data          []byte
}

// ParseDigitalSignature decodes a dsig box payload.
func ParseDigitalSignature(data []byte) (*DigitalSignature, error) {
	if len(data) < 1 {
		return nil, errs.New(errs.KindTruncated, "boxcodec.ParseDigitalSignature", "dsig payload is empty")
	}
	rest, err := bprim.Slice(data, 1, len(data))
	if err != nil {
		return nil, err
	}
	return &DigitalSignature{SignatureType: data[0], Data: rest}, nil
}

// Encode serializes a dsig box payload.
func (d *DigitalSignature) Encode() []byte {
	b := bprim.NewBuilder(1 + len(d.Data))
	b.U8(d.SignatureType).Bytes(d.Data)
	return b.Build()
}

// ROIEntry is one roid entry: per-ROI priority plus a circular region of
// interest specified in the reference grid.
type ROIEntry struct {
	XCenter, YCenter uint32
	Radius           uint32
	Priority         uint8
}

// ROIDescription is the roid box payload.
type ROIDescription struct {
	Entries []ROIEntry
}

// ParseROIDescription decodes a roid box payload.
func ParseROIDescription(data []byte) (*ROIDescription, error) {
	c := bprim.NewCursor(data)
	count, err := c.U8()
	if err != nil {
		return nil, err
	}
	entries := make([]ROIEntry, count)
	for i := range entries {
		x, err := c.U32()
		if err != nil {
			return nil, err
		}
		y, err := c.U32()
		if err != nil {
			return nil, err
		}
		r, err := c.U32()
		if err != nil {
			return nil, err
		}
		p, err := c.U8()
		if err != nil {
			return nil, err
		}
		entries[i] = ROIEntry{XCenter: x, YCenter: y, Radius: r, Priority: p}
	}
	return &ROIDescription{Entries: entries}, nil
}

// Encode serializes a roid box payload.
func (r *ROIDescription) Encode() []byte {
	b := bprim.NewBuilder(1 + 13*len(r.Entries))
	b.U8(uint8(len(r.Entries)))
	for _, e := range r.Entries {
		b.U32(e.XCenter).U32(e.YCenter).U32(e.Radius).U8(e.Priority)
	}
	return b.Build()
}

// IPRRights is the jp2i box payload: IPR metadata carried as a nested XML
// box (per Annex, the IPR box's sole child describes rights in RDF/XML).
type IPRRights struct {
	XML *XML
}

// ParseIPRRights walks a jp2i super-box for its xml  child.
func ParseIPRRights(content []byte) (*IPRRights, error) {
	r := box.NewReader(content)
	for {
		info, err := r.ReadNext()
		if err != nil {
			return nil, err
		}
		if info == nil {
			break
		}
		if info.Type == box.TypeXML {
			x, err := ParseXML(r.ExtractContent(info))
			if err != nil {
				return nil, err
			}
			return &IPRRights{XML: x}, nil
		}
	}
	return &IPRRights{}, nil
}

// Encode serializes the jp2i super-box content.
func (i *IPRRights) Encode() []byte {
	if i.XML == nil {
		return nil
	}
	return box.EncodeBox(box.TypeXML, i.XML.Encode())
}

// Association is the asoc super-box payload: a metadata node that may carry
// a label, a number list tying it to other boxes, cross-references, and
// nested child associations, plus any other box type verbatim (e.g. an xml
// box describing the associated content).
type Association struct {
	Label       *Label
	Numbers     *NumberList
	CrossRefs   []CrossReference
	Children    []Association
	Other       []Raw
}

// ParseAssociation walks an asoc super-box's children recursively.
func ParseAssociation(content []byte) (*Association, error) {
	a := &Association{}
	r := box.NewReader(content)
	for {
		info, err := r.ReadNext()
		if err != nil {
			return nil, err
		}
		if info == nil {
			break
		}
		child := r.ExtractContent(info)
		switch info.Type {
		case box.TypeLabel:
			l, err := ParseLabel(child)
			if err != nil {
				return nil, err
			}
			a.Label = l
		case box.TypeNumberList:
			n, err := ParseNumberList(child)
			if err != nil {
				return nil, err
			}
			a.Numbers = n
		case box.TypeCrossReference:
			c, err := ParseCrossReference(child)
			if err != nil {
				return nil, err
			}
			a.CrossRefs = append(a.CrossRefs, *c)
		case box.TypeAssociation:
			nested, err := ParseAssociation(child)
			if err != nil {
				return nil, err
			}
			a.Children = append(a.Children, *nested)
		default:
			owned := make([]byte, len(child))
			copy(owned, child)
			a.Other = append(a.Other, Raw{Type: info.Type, Content: owned})
		}
	}
	return a, nil
}

// Encode serializes the asoc super-box content.
func (a *Association) Encode() []byte {
	w := box.NewWriter()
	if a.Label != nil {
		w.WriteBox(box.TypeLabel, a.Label.Encode())
	}
	if a.Numbers != nil {
		w.WriteBox(box.TypeNumberList, a.Numbers.Encode())
	}
	for _, c := range a.CrossRefs {
		w.WriteBox(box.TypeCrossReference, c.Encode())
	}
	for i := range a.Children {
		w.WriteBox(box.TypeAssociation, a.Children[i].Encode())
	}
	for _, o := range a.Other {
		w.WriteRawBox(o.Type, o.Content)
	}
	return w.Bytes()
}
