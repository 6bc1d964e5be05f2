// Package dmseg decodes the binary comment segments served by the video
// platform's seg.so endpoint.
//
// A segment is a stream of protobuf-framed fields. Only the subset the
// pipeline needs is understood: field 1 (length-delimited) holds one comment,
// and inside it field 2 (varint) is the playback offset in milliseconds and
// field 7 (length-delimited) is the UTF-8 text. Everything else is skipped by
// wire type. Corrupt input never fails the decode; it ends it.
package dmseg

import (
	"strings"
	"unicode/utf8"
)

// Comment is one timestamped text unit of the audience stream
type Comment struct {
	Time float64 `json:"t"`
	Text string  `json:"text"`
}

// wire types
const (
	wireVarint  = 0
	wireFixed64 = 1
	wireBytes   = 2
	wireFixed32 = 5
)

const (
	fieldElem     = 1
	fieldProgress = 2
	fieldContent  = 7
)

// Decode parses buf into comments in encounter order. Sub-messages without
// text are dropped. A truncated or garbled tail stops decoding and the comments
// decoded so far are returned.
func Decode(buf []byte) []Comment {
	var out []Comment
	r := reader{b: buf}
	for !r.done() {
		tag, ok := r.varint()
		if !ok {
			break
		}
		field, wt := tag>>3, int(tag&7)
		if field != fieldElem || wt != wireBytes {
			if !r.skip(wt) {
				break
			}
			continue
		}
		body, ok := r.bytes()
		if !ok {
			break
		}
		if c, ok := decodeElem(body); ok {
			out = append(out, c)
		}
	}
	return out
}

// decodeElem reads one comment message; ok is false when it has no text.
// A damaged tail inside the message keeps whatever fields came before it
func decodeElem(body []byte) (Comment, bool) {
	var (
		progress uint64
		content  []byte
	)
	r := reader{b: body}
	for !r.done() {
		tag, ok := r.varint()
		if !ok {
			break
		}
		field, wt := tag>>3, int(tag&7)
		switch {
		case field == fieldProgress && wt == wireVarint:
			v, ok := r.varint()
			if !ok {
				r.pos = len(r.b)
				continue
			}
			progress = v
		case field == fieldContent && wt == wireBytes:
			b, ok := r.bytes()
			if !ok {
				r.pos = len(r.b)
				continue
			}
			content = b
		default:
			if !r.skip(wt) {
				r.pos = len(r.b)
			}
		}
	}
	if len(content) == 0 {
		return Comment{}, false
	}
	return Comment{Time: float64(progress) / 1000, Text: text(content)}, true
}

// text converts to string, replacing invalid UTF-8 with U+FFFD
func text(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "\uFFFD")
}

type reader struct {
	b   []byte
	pos int
}

func (r *reader) done() bool { return r.pos >= len(r.b) }

// varint reads a little-endian base-128 integer. ok is false when the buffer
// ends before the terminating byte
func (r *reader) varint() (uint64, bool) {
	var x uint64
	for shift := uint(0); r.pos < len(r.b); shift += 7 {
		c := r.b[r.pos]
		r.pos++
		if shift < 64 {
			x |= uint64(c&0x7f) << shift
		}
		if c < 0x80 {
			return x, true
		}
	}
	return x, false
}

// bytes reads a length-prefixed payload without copying
func (r *reader) bytes() ([]byte, bool) {
	n, ok := r.varint()
	if !ok || n > uint64(len(r.b)-r.pos) {
		return nil, false
	}
	start := r.pos
	r.pos += int(n)
	return r.b[start:r.pos], true
}

// skip advances past one field value of wire type wt. Group markers and
// reserved wire types carry no payload and are stepped over as-is
func (r *reader) skip(wt int) bool {
	switch wt {
	case wireVarint:
		_, ok := r.varint()
		return ok
	case wireFixed64:
		return r.advance(8)
	case wireBytes:
		_, ok := r.bytes()
		return ok
	case wireFixed32:
		return r.advance(4)
	default:
		return true
	}
}

func (r *reader) advance(n int) bool {
	if len(r.b)-r.pos < n {
		r.pos = len(r.b)
		return false
	}
	r.pos += n
	return true
}
