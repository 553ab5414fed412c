package serve

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/tbdevice/helpers"
	"github.com/temoto/tbdevice/internal/tele"
	"github.com/temoto/tbdevice/log2"
	tele_api "github.com/temoto/tbdevice/tele"
	tele_config "github.com/temoto/tbdevice/tele/config"
)

func TestStepNoop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	log := log2.NewTest(t, log2.LDebug)
	config := tele_config.Config{Backend: tele_config.BackendNoop, Host: "h", AccessToken: "t"}
	client, err := tele.NewFromConfig(config, log)
	require.NoError(t, err)

	start := time.Unix(1600000000, 0)
	s := &server{
		client:   client,
		log:      log,
		handlers: Handlers(log, start, time.Now),
		backoff:  helpers.Backoff{Min: time.Second, Max: time.Minute, K: 2},
		start:    start,
		report:   time.Minute,
	}
	s.step(ctx, start)
	assert.True(t, client.Connected())
	assert.True(t, client.RPCSubscribed())
	assert.Equal(t, start.Add(time.Minute), s.reportDue)
	assert.Equal(t, uint32(2), client.Stat().Published, "uptime and stat reports")

	s.step(ctx, start.Add(time.Second))
	assert.Equal(t, start.Add(time.Minute), s.reportDue, "report not due yet")
}

func TestReportCountsLoggedErrors(t *testing.T) {
	t.Parallel()
	log := log2.NewTest(t, log2.LDebug)
	config := tele_config.Config{Backend: tele_config.BackendNoop, Host: "h", AccessToken: "t"}
	client, err := tele.NewFromConfig(config, log)
	require.NoError(t, err)
	s := &server{client: client, log: log}
	log.SetErrorFunc(s.onLogError)

	// not connected
	require.Error(t, client.SendTelemetry(tele_api.Int("x", 1)))
	log.Errorf("unrelated")

	vs := s.reportValues()
	last := vs[len(vs)-1]
	key, _ := last.Key()
	assert.Equal(t, "log_err", key)
	assert.Equal(t, int64(2), last.IntValue(), "publish error and unrelated")
	assert.Equal(t, uint32(1), client.Stat().PublishFailed)
}
