package serve

import (
	"context"
	"time"

	"github.com/temoto/tbdevice/log2"
	tele_api "github.com/temoto/tbdevice/tele"
)

// Handlers are built-in RPC methods of serve command.
func Handlers(log *log2.Log, start time.Time, now func() time.Time) []tele_api.Callback {
	return []tele_api.Callback{
		tele_api.NewCallback("ping", func(context.Context, tele_api.Params) tele_api.Value {
			return tele_api.ReplyString("pong")
		}),
		tele_api.NewCallback("echo", func(_ context.Context, p tele_api.Params) tele_api.Value {
			return p.Value()
		}),
		tele_api.NewCallback("uptime", func(context.Context, tele_api.Params) tele_api.Value {
			return tele_api.ReplyInt(int64(now().Sub(start) / time.Second))
		}),
		tele_api.NewCallback("setLogDebug", func(_ context.Context, p tele_api.Params) tele_api.Value {
			on, err := p.Bool()
			if err != nil {
				log.Errorf("setLogDebug params=%s err=%v", p.String(), err)
				return tele_api.ReplyBool(log.Enabled(log2.LDebug))
			}
			if on {
				log.SetLevel(log2.LDebug)
			} else {
				log.SetLevel(log2.LInfo)
			}
			log.Infof("setLogDebug %t", on)
			return tele_api.ReplyBool(log.Enabled(log2.LDebug))
		}),
	}
}
