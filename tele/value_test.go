package tele_test

import (
	"math"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/tbdevice/tele"
	"github.com/temoto/tbdevice/tele/codec"
)

type myInt uint16

func TestValueConstruct(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		v      tele.Value
		kind   tele.Kind
		hasKey bool
		expect string
	}{
		{"bool", tele.Bool("on", true), tele.KindBool, true, `"on":true`},
		{"int", tele.Int("n", -42), tele.KindInt, true, `"n":-42`},
		{"int8", tele.Int("n", int8(-8)), tele.KindInt, true, `"n":-8`},
		{"uint-named", tele.Int("n", myInt(65535)), tele.KindInt, true, `"n":65535`},
		{"uint64-max", tele.Int("n", uint64(math.MaxUint64)), tele.KindInt, true, `"n":18446744073709551615`},
		{"float32", tele.Float("t", float32(3.14)), tele.KindFloat, true, `"t":3.14`},
		{"float64", tele.Float("t", 2.5), tele.KindFloat, true, `"t":2.5`},
		{"string", tele.String("s", "hi"), tele.KindString, true, `"s":"hi"`},
		{"reply-none", tele.ReplyNone(), tele.KindNone, false, "none"},
		{"zero", tele.Value{}, tele.KindNone, false, "none"},
		{"reply-int", tele.ReplyInt(7), tele.KindInt, false, "7"},
		{"reply-string", tele.ReplyString("pong"), tele.KindString, false, `"pong"`},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.kind, c.v.Kind())
			assert.Equal(t, c.hasKey, c.v.HasKey())
			assert.Equal(t, c.expect, c.v.String())
		})
	}
}

func TestValueUnsignedSaturate(t *testing.T) {
	t.Parallel()
	v := tele.Int("big", uint64(math.MaxUint64))
	assert.True(t, v.IsUnsigned())
	assert.Equal(t, uint64(math.MaxUint64), v.UintValue())
	assert.Equal(t, int64(math.MaxInt64), v.IntValue())
	assert.Equal(t, int64(-3), tele.Int("x", -3).IntValue())
}

func TestSerializeKeyvalRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		v      tele.Value
		expect interface{}
	}{
		{tele.Bool("b", false), false},
		{tele.Int("i", 123456789), float64(123456789)},
		{tele.Int("neg", int32(-5)), float64(-5)},
		{tele.Float("f", 0.25), 0.25},
		{tele.String("s", `quote" back\ <tag>`), `quote" back\ <tag>`},
		{tele.String("", "empty key"), "empty key"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.v.String(), func(t *testing.T) {
			doc := codec.NewDocument(1)
			require.True(t, c.v.SerializeKeyval(doc))
			var m map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(doc.String()), &m))
			key, _ := c.v.Key()
			require.Contains(t, m, key)
			assert.Equal(t, c.expect, m[key])
			assert.Len(t, m, 1)
		})
	}
}

func TestSerializeKeyvalAnonymous(t *testing.T) {
	t.Parallel()

	cases := []struct {
		v      tele.Value
		expect string
	}{
		{tele.ReplyBool(true), "true"},
		{tele.ReplyInt(uint8(200)), "200"},
		{tele.ReplyFloat(float32(1.5)), "1.5"},
		{tele.ReplyString("ok"), `"ok"`},
		{tele.ReplyNone(), "null"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.expect, func(t *testing.T) {
			doc := codec.NewDocument(1)
			require.True(t, c.v.SerializeKeyval(doc))
			assert.Equal(t, c.expect, doc.String())
		})
	}
}

func TestSerializeKeyvalFailures(t *testing.T) {
	t.Parallel()

	doc := codec.NewDocument(1)
	require.True(t, tele.Int("a", 1).SerializeKeyval(doc))
	assert.False(t, tele.Int("b", 2).SerializeKeyval(doc), "member table full")
	assert.True(t, tele.Int("a", 3).SerializeKeyval(doc), "same key replaces")
	assert.Equal(t, `{"a":3}`, doc.String())
	assert.True(t, tele.Value{}.SerializeKeyval(doc), "none is no-op")

	assert.False(t, tele.Float("nan", math.NaN()).SerializeKeyval(codec.NewDocument(1)))
	assert.False(t, tele.ReplyFloat(math.Inf(-1)).SerializeKeyval(codec.NewDocument(1)))

	scalar := codec.NewDocument(2)
	require.True(t, tele.ReplyInt(1).SerializeKeyval(scalar))
	assert.False(t, tele.Int("k", 1).SerializeKeyval(scalar), "scalar document has no keys")
}
