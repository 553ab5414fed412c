package codec

import (
	"bytes"

	json "github.com/goccy/go-json"
	"github.com/juju/errors"
)

// Object is decoded flat JSON object, member values kept raw.
type Object struct {
	m map[string]json.RawMessage
}

// DecodeObject parses payload as JSON object with at most maxMembers top level members.
func DecodeObject(payload []byte, maxMembers int) (Object, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return Object{}, errors.Annotate(err, "decode object")
	}
	if m == nil {
		return Object{}, errors.Annotate(ErrNotObject, "decode object")
	}
	if len(m) > maxMembers {
		return Object{}, errors.Annotatef(ErrFull, "decode object members=%d limit=%d", len(m), maxMembers)
	}
	return Object{m: m}, nil
}

func (o Object) Len() int { return len(o.m) }

// Get returns raw JSON of member.
func (o Object) Get(name string) ([]byte, bool) {
	raw, ok := o.m[name]
	if !ok {
		return nil, false
	}
	return []byte(raw), true
}

// String returns member value if it is JSON string.
func (o Object) String(name string) (string, bool) {
	raw, ok := o.m[name]
	if !ok {
		return "", false
	}
	if t := bytes.TrimSpace(raw); len(t) == 0 || t[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Unmarshal decodes raw JSON into v.
func Unmarshal(raw []byte, v interface{}) error {
	return errors.Trace(json.Unmarshal(raw, v))
}

// IsNull reports absent or literal null JSON.
func IsNull(raw []byte) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || string(t) == "null"
}
