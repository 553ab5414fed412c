package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	t.Parallel()
	now := time.Unix(1600000000, 0)
	b := Backoff{Min: time.Second, Max: 5 * time.Second, K: 2, Now: func() time.Time { return now }}
	assert.Equal(t, time.Duration(0), b.DelayBefore(), "first attempt immediate")

	cases := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for _, expect := range cases {
		b.Failure()
		assert.Equal(t, expect, b.Next())
		assert.Equal(t, expect, b.DelayBefore())
	}

	now = now.Add(3 * time.Second)
	assert.Equal(t, 2*time.Second, b.DelayBefore(), "time passed since failure counts")
	now = now.Add(3 * time.Second)
	assert.Equal(t, time.Duration(0), b.DelayBefore())

	b.Update(true)
	assert.Equal(t, time.Duration(0), b.DelayBefore())
	b.Update(false)
	assert.Equal(t, time.Second, b.DelayBefore())
}
