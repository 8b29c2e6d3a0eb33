// Command artifactcache ranks artifact records, warms a priority cache from
// them and benchmarks the cache under a synthetic workload.
//
// Usage:
//
//	artifactcache [--config file] [--log-level level] <command> [flags]
//
// Commands:
//
//	rank    rank a batch of records and print the top entries
//	warm    rank records, cache them by pipeline rank, optionally snapshot
//	bench   run a concurrent Zipf workload with pprof and /metrics endpoints
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/IvanBrykalov/artifactcache/config"
	"github.com/IvanBrykalov/artifactcache/internal/logging"
)

// Version can be overridden with -ldflags "-X main.Version=...".
var Version = "0.1.0-dev"

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if errors.Is(err, errUsage) {
			return 2
		}
		return 1
	}
	return 0
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "artifactcache",
		Usage:   "rank artifacts and keep the important ones hot in memory",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "configuration file (.yaml, .yml or .json)",
				Sources: cli.EnvVars("ARTIFACTCACHE_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "override log.level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			rankCommand(),
			warmCommand(),
			benchCommand(),
		},
		// run maps errors to exit codes; keep urfave/cli from calling os.Exit.
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(os.Stderr, err)
			}
		},
	}
}

// env is the per-invocation state shared by every command.
type env struct {
	cfg    config.Config
	log    *slog.Logger
	in     io.Reader
	out    io.Writer
	closer io.Closer
}

func (e *env) Close() error { return e.closer.Close() }

// setup loads configuration and builds the logger. Logs go to stderr so that
// command output on stdout stays machine-readable.
func setup(cmd *cli.Command) (*env, error) {
	cfg := config.Default()
	if path := cmd.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if lvl := cmd.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}

	root := cmd.Root()
	errw := root.ErrWriter
	if errw == nil {
		errw = os.Stderr
	}
	log, closer, err := logging.New(cfg.Log, errw)
	if err != nil {
		return nil, err
	}
	out := root.Writer
	if out == nil {
		out = os.Stdout
	}
	in := root.Reader
	if in == nil {
		in = os.Stdin
	}
	return &env{cfg: cfg, log: log, in: in, out: out, closer: closer}, nil
}

// errUsage marks invalid command-line input.
var errUsage = errors.New("usage")
