package tele_test

import (
	"context"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/tbdevice/log2"
	"github.com/temoto/tbdevice/tele"
)

func TestNoop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	n := &tele.Noop{Log: log2.NewTest(t, log2.LDebug)}
	assert.Equal(t, tele.ErrNotConnected, errors.Cause(n.Publish(ctx, tele.TopicTelemetry, []byte("{}"))))
	assert.Equal(t, tele.ErrInvalidConfiguration, errors.Cause(n.Connect(ctx, tele.Endpoint{})))
	require.NoError(t, n.Connect(ctx, tele.Endpoint{Host: "h", AccessToken: "t"}))
	assert.True(t, n.Connected())
	assert.NoError(t, n.Publish(ctx, tele.TopicTelemetry, []byte(`{"a":1}`)))
	n.Disconnect()
	assert.False(t, n.Connected())
}
