// Package codec is the JSON layer under the bounded serializer:
// fixed capacity documents rendered to compact JSON, and bounded object decoding.
// Member table of a Document never grows past capacity given at construction.
package codec

import (
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"

	json "github.com/goccy/go-json"
	"github.com/juju/errors"
)

var (
	ErrFull        = fmt.Errorf("document member table full")
	ErrNotObject   = fmt.Errorf("document is not an object")
	ErrUnsupported = fmt.Errorf("value not representable in JSON")
	ErrNoRoom      = fmt.Errorf("destination buffer too small")
)

// Token is one encoded JSON scalar.
type Token []byte

var (
	tokenTrue  = Token("true")
	tokenFalse = Token("false")
	tokenNull  = Token("null")
)

func Bool(b bool) Token {
	if b {
		return tokenTrue
	}
	return tokenFalse
}

func Int(i int64) Token  { return Token(strconv.AppendInt(nil, i, 10)) }
func Uint(u uint64) Token { return Token(strconv.AppendUint(nil, u, 10)) }

// Float encodes with shortest representation for given bit size (32 or 64).
// NaN and infinities are not JSON.
func Float(f float64, bits int) (Token, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, errors.Annotatef(ErrUnsupported, "float=%v", f)
	}
	var b []byte
	var err error
	if bits == 32 {
		b, err = json.Marshal(float32(f))
	} else {
		b, err = json.Marshal(f)
	}
	if err != nil {
		return nil, errors.Annotate(ErrUnsupported, err.Error())
	}
	return Token(b), nil
}

// String encodes without HTML escaping, so <>& cost one byte each.
// Invalid UTF-8 is rejected rather than replaced.
func String(s string) (Token, error) {
	if !utf8.ValidString(s) {
		return nil, errors.Annotatef(ErrUnsupported, "invalid UTF-8 string=%q", s)
	}
	b, err := json.MarshalWithOption(s, json.DisableHTMLEscape())
	if err != nil {
		return nil, errors.Annotate(ErrUnsupported, err.Error())
	}
	return Token(b), nil
}

type docKind uint8

const (
	docNull docKind = iota
	docObject
	docScalar
)

type member struct {
	name  string
	key   Token
	value Token
}

// Document is JSON null, flat object or single scalar.
// Not safe for concurrent use.
type Document struct {
	kind    docKind
	limit   int
	members []member
	root    Token
}

func NewDocument(capacity int) *Document {
	if capacity < 1 {
		panic(fmt.Sprintf("code error codec.NewDocument capacity=%d", capacity))
	}
	return &Document{
		limit:   capacity,
		members: make([]member, 0, capacity),
	}
}

// Capacity is allocated member table size.
func (d *Document) Capacity() int { return cap(d.members) }

// Limit is effective member count limit since last Reset.
func (d *Document) Limit() int { return d.limit }

// Len returns number of object members.
func (d *Document) Len() int { return len(d.members) }

func (d *Document) IsNull() bool { return d.kind == docNull }

// Reset to null document with member limit, must not exceed Capacity().
func (d *Document) Reset(limit int) {
	if limit < 0 || limit > cap(d.members) {
		panic(fmt.Sprintf("code error Document.Reset limit=%d capacity=%d", limit, cap(d.members)))
	}
	for i := range d.members {
		d.members[i] = member{}
	}
	d.members = d.members[:0]
	d.kind = docNull
	d.limit = limit
	d.root = nil
}

// Set assigns object member, replacing existing member with same name.
// Null document becomes an object.
func (d *Document) Set(name string, value Token) error {
	switch d.kind {
	case docScalar:
		return errors.Annotatef(ErrNotObject, "set key=%s", name)
	case docNull:
		d.kind = docObject
	}
	for i := range d.members {
		if d.members[i].name == name {
			d.members[i].value = value
			return nil
		}
	}
	if len(d.members) >= d.limit {
		return errors.Annotatef(ErrFull, "set key=%s limit=%d", name, d.limit)
	}
	key, err := String(name)
	if err != nil {
		return errors.Annotatef(err, "key=%q", name)
	}
	d.members = append(d.members, member{name: name, key: key, value: value})
	return nil
}

// SetRoot makes document the scalar itself, discarding members.
func (d *Document) SetRoot(value Token) error {
	if value == nil {
		return errors.Annotate(ErrUnsupported, "nil token")
	}
	d.Reset(d.limit)
	d.kind = docScalar
	d.root = value
	return nil
}

// Measure returns exact length of compact rendering.
func (d *Document) Measure() int {
	switch d.kind {
	case docScalar:
		return len(d.root)
	case docObject:
		n := 2 // {}
		for i, m := range d.members {
			if i > 0 {
				n++ // ,
			}
			n += len(m.key) + 1 + len(m.value)
		}
		return n
	}
	return len(tokenNull)
}

// Render writes compact JSON into dst without allocation.
// Returns ErrNoRoom and writes nothing when dst is shorter than Measure().
func (d *Document) Render(dst []byte) (int, error) {
	need := d.Measure()
	if len(dst) < need {
		return 0, errors.Annotatef(ErrNoRoom, "need=%d have=%d", need, len(dst))
	}
	b := dst[:0]
	switch d.kind {
	case docScalar:
		b = append(b, d.root...)
	case docObject:
		b = append(b, '{')
		for i, m := range d.members {
			if i > 0 {
				b = append(b, ',')
			}
			b = append(b, m.key...)
			b = append(b, ':')
			b = append(b, m.value...)
		}
		b = append(b, '}')
	default:
		b = append(b, tokenNull...)
	}
	return len(b), nil
}

func (d *Document) String() string {
	b := make([]byte, d.Measure())
	n, _ := d.Render(b)
	return string(b[:n])
}
