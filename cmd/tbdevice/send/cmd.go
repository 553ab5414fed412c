// One-shot sends: telemetry, attributes, raw JSON.
package send

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"github.com/temoto/tbdevice/cmd/tbdevice/subcmd"
	"github.com/temoto/tbdevice/internal/tele"
	tele_api "github.com/temoto/tbdevice/tele"
)

var (
	TelemetryMod = subcmd.Mod{Name: "send", Usage: "key=value... send telemetry", Main: telemetryMain}
	AttributeMod = subcmd.Mod{Name: "attr", Usage: "key=value... send attributes", Main: attributeMain}
	JSONMod      = subcmd.Mod{Name: "json", Usage: "telemetry|attributes JSON send raw JSON", Main: jsonMain}
)

func telemetryMain(ctx context.Context, env *subcmd.Env) error {
	return sendValues(ctx, env, (*tele.Client).SendTelemetry, (*tele.Client).SendTelemetryValues)
}

func attributeMain(ctx context.Context, env *subcmd.Env) error {
	return sendValues(ctx, env, (*tele.Client).SendAttribute, (*tele.Client).SendAttributes)
}

func sendValues(ctx context.Context, env *subcmd.Env,
	one func(*tele.Client, tele_api.Value) error,
	many func(*tele.Client, []tele_api.Value) error) error {
	values, err := ParseValues(env.Args)
	if err != nil {
		return err
	}
	return withClient(ctx, env, func(c *tele.Client) error {
		if len(values) == 1 {
			return one(c, values[0])
		}
		return many(c, values)
	})
}

func jsonMain(ctx context.Context, env *subcmd.Env) error {
	if len(env.Args) != 2 {
		return errors.NotValidf("usage: json telemetry|attributes JSON, args")
	}
	payload := []byte(env.Args[1])
	return withClient(ctx, env, func(c *tele.Client) error {
		switch env.Args[0] {
		case "telemetry":
			return c.SendTelemetryJSON(payload)
		case "attributes":
			return c.SendAttributeJSON(payload)
		}
		return errors.NotValidf("channel=%s", env.Args[0])
	})
}

func withClient(ctx context.Context, env *subcmd.Env, fun func(*tele.Client) error) error {
	client, err := tele.NewFromConfig(*env.Config, env.Log)
	if err != nil {
		return err
	}
	if err = client.Connect(ctx); err != nil {
		return err
	}
	defer client.Disconnect()
	return fun(client)
}

// ParseValues turns key=value arguments into keyed values.
// true/false are bool, integers are int, finite numbers float, the rest is string.
// Quoted value is always string.
func ParseValues(args []string) ([]tele_api.Value, error) {
	if len(args) == 0 {
		return nil, errors.NotValidf("no key=value arguments")
	}
	vs := make([]tele_api.Value, 0, len(args))
	for _, arg := range args {
		parts := strings.SplitN(arg, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, errors.NotValidf("argument=%s expected key=value", arg)
		}
		vs = append(vs, ParseValue(parts[0], parts[1]))
	}
	return vs, nil
}

func ParseValue(key, s string) tele_api.Value {
	if unq, err := strconv.Unquote(s); err == nil && strings.HasPrefix(s, `"`) {
		return tele_api.String(key, unq)
	}
	if b, err := strconv.ParseBool(s); err == nil && (s == "true" || s == "false") {
		return tele_api.Bool(key, b)
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return tele_api.Int(key, i)
	}
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return tele_api.Int(key, u)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return tele_api.Float(key, f)
	}
	return tele_api.String(key, s)
}
