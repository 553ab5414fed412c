package tele

import (
	"fmt"
	"math"
	"strconv"
	"unsafe"

	"github.com/temoto/tbdevice/tele/codec"
)

type Kind uint8

const (
	KindNone Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

type Real interface {
	~float32 | ~float64
}

// Value is one typed scalar data point, optionally named.
// Keyed values are fields of a JSON object, anonymous values are bare JSON scalars (RPC replies).
// Zero Value is anonymous None.
type Value struct { //nolint:maligned
	kind     Kind
	hasKey   bool
	unsigned bool
	f32      bool
	b        bool
	key      string
	i        int64
	u        uint64
	f        float64
	s        string
}

// Telemetry, Attribute and Reply differ only by where they are sent.
type (
	Telemetry = Value
	Attribute = Value
	Reply     = Value
)

func Bool(key string, v bool) Value { return Value{kind: KindBool, hasKey: true, key: key, b: v} }
func String(key string, v string) Value {
	return Value{kind: KindString, hasKey: true, key: key, s: v}
}
func Int[T Integer](key string, v T) Value {
	x := integer(v)
	x.hasKey, x.key = true, key
	return x
}
func Float[T Real](key string, v T) Value {
	x := floating(v)
	x.hasKey, x.key = true, key
	return x
}

func ReplyNone() Value { return Value{} }

func ReplyBool(v bool) Value { return Value{kind: KindBool, b: v} }

func ReplyString(v string) Value { return Value{kind: KindString, s: v} }

func ReplyInt[T Integer](v T) Value { return integer(v) }

func ReplyFloat[T Real](v T) Value { return floating(v) }

func integer[T Integer](v T) Value {
	var zero T
	if zero-1 > 0 { // unsigned wraps around
		return Value{kind: KindInt, unsigned: true, u: uint64(v)}
	}
	return Value{kind: KindInt, i: int64(v)}
}

func floating[T Real](v T) Value {
	return Value{kind: KindFloat, f: float64(v), f32: unsafe.Sizeof(v) == 4}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) Key() (string, bool) { return v.key, v.hasKey }

func (v Value) HasKey() bool { return v.hasKey }

func (v Value) BoolValue() bool { return v.b }

func (v Value) StringValue() string { return v.s }

func (v Value) FloatValue() float64 { return v.f }

func (v Value) IsUnsigned() bool { return v.unsigned }

func (v Value) UintValue() uint64 { return v.u }

// IntValue saturates unsigned values above MaxInt64.
func (v Value) IntValue() int64 {
	if v.unsigned {
		if v.u > math.MaxInt64 {
			return math.MaxInt64
		}
		return int64(v.u)
	}
	return v.i
}

func (v Value) String() string {
	var s string
	switch v.kind {
	case KindNone:
		s = "none"
	case KindBool:
		s = strconv.FormatBool(v.b)
	case KindInt:
		if v.unsigned {
			s = strconv.FormatUint(v.u, 10)
		} else {
			s = strconv.FormatInt(v.i, 10)
		}
	case KindFloat:
		s = strconv.FormatFloat(v.f, 'g', -1, v.bits())
	case KindString:
		s = strconv.Quote(v.s)
	default:
		s = fmt.Sprintf("invalid(%d)", v.kind)
	}
	if v.hasKey {
		return strconv.Quote(v.key) + ":" + s
	}
	return s
}

// SerializeKeyval writes value into document.
// Keyed: doc[key] = value, fails only when document layer refuses (table full, unencodable value).
// Anonymous: document becomes the scalar itself.
// None is a successful no-op.
func (v Value) SerializeKeyval(doc *codec.Document) bool {
	if v.kind == KindNone {
		return true
	}
	tok, err := v.token()
	if err != nil {
		return false
	}
	if v.hasKey {
		return doc.Set(v.key, tok) == nil
	}
	return doc.SetRoot(tok) == nil
}

func (v Value) token() (codec.Token, error) {
	switch v.kind {
	case KindBool:
		return codec.Bool(v.b), nil
	case KindInt:
		if v.unsigned {
			return codec.Uint(v.u), nil
		}
		return codec.Int(v.i), nil
	case KindFloat:
		return codec.Float(v.f, v.bits())
	case KindString:
		return codec.String(v.s)
	}
	return nil, fmt.Errorf("code error value kind=%s has no token", v.kind)
}

func (v Value) bits() int {
	if v.f32 {
		return 32
	}
	return 64
}
