package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/pgdig/internal/cli"
	"github.com/julianstephens/pgdig/internal/logger"
)

var (
	version = "pgdig v0.1.0"
)

type LogOpts struct {
	Level  string `help:"Logging level (debug, info, warn, error)" default:"info" envvar:"PGDIG_LOG_LEVEL"`
	Debug  bool   `help:"Enable debug logging (overrides --level)"                envvar:"PGDIG_DEBUG"`
	Stream bool   `help:"Log to stdout/stderr only, without a log file"           envvar:"PGDIG_LOG_STREAM"`
}

type CLI struct {
	Decode        cli.DecodeCmd        `cmd:"" help:"Decode a single XLogData payload"`
	DecodeCapture cli.DecodeCaptureCmd `cmd:"" help:"Decode every payload in a capture file"`
	Lsn           cli.LsnCmd           `cmd:"" help:"Convert a log position between H/L and integer forms"`
	Rmgr          cli.RmgrCmd          `cmd:"" help:"List resource managers or look one up"`
	Stream        cli.StreamCmd        `cmd:"" help:"Stream WAL from a primary and decode it"`
	InitConfig    cli.InitConfigCmd    `cmd:"" help:"Write a default pgdig.json"`

	Config  string           `help:"Path to pgdig.json (default ./pgdig.json)" type:"path" envvar:"PGDIG_CONFIG"`
	LogOpts LogOpts          `embed:"" prefix:"log-" help:"Logging options"`
	Version kong.VersionFlag `help:"Show version information" short:"V"`
}

func main() {
	cliApp := &CLI{}
	ctx := kong.Parse(cliApp,
		kong.Name("pgdig"),
		kong.Description("Decode PostgreSQL physical replication WAL messages"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)

	opts, err := cli.LoadOptions(cliApp.Config)
	ctx.FatalIfErrorf(err)

	fileCfg, err := cli.LogFileConfig(opts)
	ctx.FatalIfErrorf(err)

	lg, err := logger.New(logger.Options{
		Level:  cliApp.LogOpts.Level,
		Debug:  cliApp.LogOpts.Debug,
		Stream: cliApp.LogOpts.Stream,
		File:   &fileCfg,
	})
	ctx.FatalIfErrorf(err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err = runCommand(ctx, &cli.RunContext{
		Context: runCtx,
		Logger:  lg,
		Out:     os.Stdout,
		Options: opts,
	}, stop)
	ctx.FatalIfErrorf(err)
}

type commandRunner interface {
	Run(bindings ...interface{}) error
}

// runCommand runs the selected command, then stops signal handling and closes
// the logger before returning, since a failing command ends in os.Exit.
func runCommand(runner commandRunner, rc *cli.RunContext, stop func()) error {
	err := runner.Run(rc)

	stop()
	if c, ok := rc.Logger.(logger.Closeable); ok {
		if closeErr := c.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}
