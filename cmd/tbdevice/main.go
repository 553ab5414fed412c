package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/juju/errors"
	"github.com/temoto/tbdevice/cmd/tbdevice/console"
	"github.com/temoto/tbdevice/cmd/tbdevice/send"
	"github.com/temoto/tbdevice/cmd/tbdevice/serve"
	"github.com/temoto/tbdevice/cmd/tbdevice/subcmd"
	"github.com/temoto/tbdevice/helpers/cli"
	"github.com/temoto/tbdevice/log2"
	tele_config "github.com/temoto/tbdevice/tele/config"
	tele_mqtt "github.com/temoto/tbdevice/tele/mqtt"
)

var log = log2.NewStderr(log2.LInfo)

var modules = []subcmd.Mod{
	send.TelemetryMod,
	send.AttributeMod,
	send.JSONMod,
	serve.Mod,
	console.Mod,
}

func main() {
	flagConfig := flag.String("config", "tbdevice.hcl", "")
	flag.Usage = usage
	flag.Parse()

	log.SetPrefix("[TB] ")
	if subcmd.SdNotify("start") {
		// under systemd, assume journal logging, remove timestamp
		log.SetFlags(log2.LServiceFlags)
	} else if cli.IsTerminal() {
		log.SetFlags(log2.LInteractiveFlags)
	}

	mod, err := subcmd.Parse(flag.Arg(0), modules)
	if err != nil {
		usage()
		log.Fatal(err)
	}

	config := tele_config.MustReadFile(log, tele_config.NewOsFullReader(), *flagConfig)
	if config.LogDebug {
		log.SetLevel(log2.LDebug)
	}
	tele_mqtt.SetPahoLog(log, config.MqttLogDebug)
	log.Debugf("config backend=%s host=%s port=%d payload_size=%d max_fields=%d",
		config.Backend, config.Host, config.Port, config.PayloadSize, config.MaxFields)

	env := &subcmd.Env{Config: config, Log: log, Args: flag.Args()[1:]}
	if err := mod.Main(context.Background(), env); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [-config tbdevice.hcl] command [args]\n\nCommands:\n", os.Args[0])
	for _, m := range modules {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", m.Name, m.Usage)
	}
	fmt.Fprintln(os.Stderr)
	flag.PrintDefaults()
}
