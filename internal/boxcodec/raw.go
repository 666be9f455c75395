package boxcodec

import "github.com/mrjoshuak/go-j2kbox/internal/box"

// Raw preserves an unrecognized box type verbatim, so that a read-then-write
// round trip never loses information even for box types this module doesn't
// interpret.
type Raw struct {
	Type    box.Type
	Content []byte
}

// Encode returns Content unchanged; the type is carried separately because
// callers re-frame it through box.Writer.WriteBox themselves.
func (r *Raw) Encode() []byte { return r.Content }
