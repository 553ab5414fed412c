package tele_test

import (
	"context"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/tbdevice/tele"
)

func TestParams(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw    string
		none   bool
		value  string
		text   string
		textOk bool
	}{
		{"", true, "none", "", false},
		{"null", true, "none", "", false},
		{" null ", true, "none", "", false},
		{"true", false, "true", "true", true},
		{"17", false, "17", "17", true},
		{"2.5", false, "2.5", "2.5", true},
		{`"hi"`, false, `"hi"`, "hi", true},
		{`{"a":1}`, false, "none", "", false},
		{`[1]`, false, "none", "", false},
	}
	for _, c := range cases {
		c := c
		t.Run(c.raw, func(t *testing.T) {
			p := tele.NewParams([]byte(c.raw))
			assert.Equal(t, c.none, p.IsNone())
			assert.Equal(t, c.value, p.Value().String())
			assert.False(t, p.Value().HasKey())
			s, err := p.Text()
			if c.textOk {
				require.NoError(t, err)
				assert.Equal(t, c.text, s)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestParamsDecode(t *testing.T) {
	t.Parallel()
	var none tele.Params
	err := none.Decode(new(int))
	assert.True(t, errors.IsNotFound(err))

	var x struct {
		Pin   int  `json:"pin"`
		Value bool `json:"value"`
	}
	p := tele.NewParams([]byte(`{"pin":4,"value":true}`))
	require.NoError(t, p.Decode(&x))
	assert.Equal(t, 4, x.Pin)
	assert.True(t, x.Value)

	_, err = tele.NewParams([]byte(`"on"`)).Bool()
	assert.Error(t, err)
	b, err := tele.NewParams([]byte(`false`)).Bool()
	require.NoError(t, err)
	assert.False(t, b)
}

func TestHandlerFunc(t *testing.T) {
	t.Parallel()
	cb := tele.NewCallback("ping", func(ctx context.Context, p tele.Params) tele.Value {
		return tele.ReplyString("pong")
	})
	assert.Equal(t, "ping", cb.Method)
	assert.Equal(t, `"pong"`, cb.Handler.HandleRPC(context.Background(), tele.Params{}).String())
}
