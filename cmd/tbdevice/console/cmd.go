// Interactive prompt: every line is sent right away, RPC is served between lines.
package console

import (
	"context"
	"strings"
	"time"

	"github.com/c-bata/go-prompt"
	"github.com/juju/errors"
	"github.com/temoto/tbdevice/cmd/tbdevice/send"
	"github.com/temoto/tbdevice/cmd/tbdevice/serve"
	"github.com/temoto/tbdevice/cmd/tbdevice/subcmd"
	"github.com/temoto/tbdevice/helpers/cli"
	"github.com/temoto/tbdevice/internal/tele"
	"github.com/temoto/tbdevice/log2"
)

const modName = "console"

var Mod = subcmd.Mod{Name: modName, Usage: "interactive telemetry prompt", Main: Main}

var suggests = []prompt.Suggest{
	{Text: "attr", Description: "key=value... send attributes"},
	{Text: "json", Description: "telemetry|attributes JSON"},
	{Text: "rpc", Description: "serve pending RPC requests"},
	{Text: "status", Description: "connection and RPC state"},
}

func Main(ctx context.Context, env *subcmd.Env) error {
	client, err := tele.NewFromConfig(*env.Config, env.Log)
	if err != nil {
		return err
	}
	if err = client.Connect(ctx); err != nil {
		return err
	}
	defer client.Disconnect()
	if err = client.RPCSubscribe(serve.Handlers(env.Log, time.Now(), time.Now)); err != nil {
		env.Log.Infof("RPC disabled: %v", err)
	}

	cli.MainLoop(modName, newExecutor(ctx, client, env.Log), newCompleter())
	return nil
}

func newCompleter() func(d prompt.Document) []prompt.Suggest {
	return func(d prompt.Document) []prompt.Suggest {
		if strings.Contains(d.TextBeforeCursor(), " ") {
			return nil
		}
		return prompt.FilterHasPrefix(suggests, d.GetWordBeforeCursor(), true)
	}
}

func newExecutor(ctx context.Context, client *tele.Client, log *log2.Log) func(string) {
	return func(line string) {
		defer client.Loop(ctx)
		if err := execLine(client, log, line); err != nil {
			log.Error(err)
		}
	}
}

// execLine: "k=v..." telemetry, "attr k=v..." attributes, "json channel JSON" raw.
func execLine(client *tele.Client, log *log2.Log, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	switch fields[0] {
	case "rpc":
		return nil
	case "status":
		log.Infof("connected=%t rpc_subscribed=%t", client.Connected(), client.RPCSubscribed())
		return nil
	case "json":
		parts := strings.SplitN(line, " ", 3)
		if len(parts) != 3 {
			return errors.NotValidf("usage: json telemetry|attributes JSON, line")
		}
		switch parts[1] {
		case "telemetry":
			return client.SendTelemetryJSON([]byte(parts[2]))
		case "attributes":
			return client.SendAttributeJSON([]byte(parts[2]))
		}
		return errors.NotValidf("channel=%s", parts[1])
	case "attr":
		vs, err := send.ParseValues(fields[1:])
		if err != nil {
			return err
		}
		return client.SendAttributes(vs)
	}
	vs, err := send.ParseValues(fields)
	if err != nil {
		return err
	}
	return client.SendTelemetryValues(vs)
}
