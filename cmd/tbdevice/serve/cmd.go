// Long running device: keeps connection, answers RPC, reports uptime.
package serve

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/tbdevice/cmd/tbdevice/subcmd"
	"github.com/temoto/tbdevice/helpers"
	"github.com/temoto/tbdevice/internal/tele"
	"github.com/temoto/tbdevice/log2"
	tele_api "github.com/temoto/tbdevice/tele"
)

var Mod = subcmd.Mod{Name: "serve", Usage: "[-loop 100ms] [-report 60s] run until signal", Main: Main}

type server struct {
	client    *tele.Client
	log       *log2.Log
	handlers  []tele_api.Callback
	backoff   helpers.Backoff
	start     time.Time
	lastTry   time.Time
	reportDue time.Time
	report    time.Duration
	logErrors uint32 // atomic, paho callbacks log from own goroutines
}

func Main(ctx context.Context, env *subcmd.Env) error {
	flagset := flag.NewFlagSet("serve", flag.ContinueOnError)
	loopInterval := flagset.Duration("loop", 100*time.Millisecond, "RPC poll interval")
	report := flagset.Duration("report", time.Minute, "uptime telemetry interval, 0 disables")
	if err := flagset.Parse(env.Args); err != nil {
		return errors.Annotate(err, "serve flags")
	}

	client, err := tele.NewFromConfig(*env.Config, env.Log)
	if err != nil {
		return err
	}
	start := time.Now()
	s := &server{
		client:   client,
		log:      env.Log,
		handlers: Handlers(env.Log, start, time.Now),
		backoff:  helpers.Backoff{Min: time.Second, Max: time.Minute, K: 2},
		start:    start,
		report:   *report,
	}
	env.Log.SetErrorFunc(s.onLogError)

	a := alive.NewAlive()
	go func() {
		sigch := make(chan os.Signal, 1)
		signal.Notify(sigch, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigch:
			s.log.Infof("signal=%v stopping", sig)
			a.Stop()
		case <-a.StopChan():
		}
	}()

	if !a.Add(1) {
		return nil
	}
	go func() {
		defer a.Done()
		s.run(ctx, a, *loopInterval)
	}()
	subcmd.SdNotify(daemon.SdNotifyReady)
	a.Wait()
	subcmd.SdNotify(daemon.SdNotifyStopping)
	client.Disconnect()
	return nil
}

func (self *server) run(ctx context.Context, a *alive.Alive, interval time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	stopch := a.StopChan()
	for a.IsRunning() {
		self.step(ctx, time.Now())
		select {
		case <-tick.C:
		case <-stopch:
			return
		}
	}
}

// step is one iteration: reconnect when due, deliver RPC, report uptime.
func (self *server) step(ctx context.Context, now time.Time) {
	if !self.client.Connected() {
		if now.Sub(self.lastTry) < self.backoff.DelayBefore() {
			return
		}
		self.lastTry = now
		err := self.connect(ctx)
		self.backoff.Update(err == nil)
		if err != nil {
			self.log.Errorf("connect err=%v retry in %v", err, self.backoff.Next())
			return
		}
	}

	self.client.Loop(ctx)

	if self.report > 0 && !now.Before(self.reportDue) {
		self.reportDue = now.Add(self.report)
		uptime := int64(now.Sub(self.start) / time.Second)
		if err := self.client.SendTelemetry(tele_api.Int("uptime", uptime)); err != nil {
			self.log.Errorf("report uptime err=%v", err)
		}
		if err := self.client.SendTelemetryValues(self.reportValues()); err != nil {
			self.log.Errorf("report stat err=%v", err)
		}
	}
}

func (self *server) onLogError(error) { atomic.AddUint32(&self.logErrors, 1) }

// reportValues is client counters plus number of logged errors.
func (self *server) reportValues() []tele_api.Telemetry {
	return append(self.client.Stat().Values(), tele_api.Int("log_err", atomic.LoadUint32(&self.logErrors)))
}

func (self *server) connect(ctx context.Context) error {
	if err := self.client.Connect(ctx); err != nil {
		return err
	}
	err := self.client.RPCSubscribe(self.handlers)
	switch {
	case err == nil:
		self.log.Infof("connected, RPC methods=%d", len(self.handlers))
	case errors.Cause(err) == tele_api.ErrNotSupported:
		self.log.Infof("connected, transport without RPC")
	default:
		self.client.Disconnect()
		return err
	}
	return nil
}
