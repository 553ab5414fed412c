package tele

import (
	"context"
	"math"
	"strconv"

	"github.com/juju/errors"
	"github.com/temoto/tbdevice/tele/codec"
)

// Handler answers one RPC method with single anonymous Value.
type Handler interface {
	HandleRPC(ctx context.Context, params Params) Value
}

type HandlerFunc func(ctx context.Context, params Params) Value

func (f HandlerFunc) HandleRPC(ctx context.Context, params Params) Value { return f(ctx, params) }

// Callback binds method name (exact match) to handler.
type Callback struct {
	Method  string
	Handler Handler
}

func NewCallback(method string, f func(context.Context, Params) Value) Callback {
	return Callback{Method: method, Handler: HandlerFunc(f)}
}

// Params is raw JSON of RPC "params" member.
// Zero Params is the explicit "no value" marker for requests without params.
type Params struct {
	raw []byte
}

func NewParams(raw []byte) Params {
	if codec.IsNull(raw) {
		return Params{}
	}
	return Params{raw: raw}
}

func (p Params) IsNone() bool { return len(p.raw) == 0 }
func (p Params) Raw() []byte  { return p.raw }

func (p Params) String() string {
	if p.IsNone() {
		return "none"
	}
	return string(p.raw)
}

// Decode into arbitrary Go value.
func (p Params) Decode(v interface{}) error {
	if p.IsNone() {
		return errors.NotFoundf("RPC params")
	}
	return errors.Annotate(codec.Unmarshal(p.raw, v), "RPC params")
}

func (p Params) Bool() (bool, error) {
	var b bool
	err := p.Decode(&b)
	return b, err
}

func (p Params) Int() (int64, error) {
	var i int64
	err := p.Decode(&i)
	return i, err
}

func (p Params) Float() (float64, error) {
	var f float64
	err := p.Decode(&f)
	return f, err
}

// Text returns JSON string param. Numbers and booleans are formatted as text.
func (p Params) Text() (string, error) {
	var s string
	if err := p.Decode(&s); err == nil {
		return s, nil
	}
	if b, err := p.Bool(); err == nil {
		return strconv.FormatBool(b), nil
	}
	if f, err := p.Float(); err == nil {
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	}
	return "", errors.NotValidf("RPC params=%s as text", p.String())
}

// Value converts scalar params to anonymous Value, None for absent or non-scalar params.
func (p Params) Value() Value {
	if p.IsNone() {
		return ReplyNone()
	}
	var x interface{}
	if err := codec.Unmarshal(p.raw, &x); err != nil {
		return ReplyNone()
	}
	switch v := x.(type) {
	case bool:
		return ReplyBool(v)
	case string:
		return ReplyString(v)
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
			return ReplyInt(int64(v))
		}
		return ReplyFloat(v)
	}
	return ReplyNone()
}
