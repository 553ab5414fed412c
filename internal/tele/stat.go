package tele

import (
	tele_api "github.com/temoto/tbdevice/tele"
)

// Low priority counters. Sent together with uptime report.
// Short keys keep the report within default payload size.
type Stat struct {
	Published     uint32
	PublishFailed uint32
	RPCHandled    uint32
	RPCDropped    uint32
}

func (self Stat) Values() []tele_api.Telemetry {
	return []tele_api.Telemetry{
		tele_api.Int("pub", self.Published),
		tele_api.Int("pub_err", self.PublishFailed),
		tele_api.Int("rpc", self.RPCHandled),
		tele_api.Int("rpc_drop", self.RPCDropped),
	}
}
