package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	_ "go.uber.org/automaxprocs"

	"github.com/bluesky-social/k1ecc/ecc"

	"github.com/carlmjohnson/versioninfo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(-1)
	}
}

func run(args []string) error {
	return newApp().Run(args)
}

func newApp() *cli.App {
	app := &cli.App{
		Name:    "k1ecc",
		Usage:   "secp256k1 keys, signatures and encrypted messages (EOS formats)",
		Version: versioninfo.Short(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log verbosity level (eg: warn, info, debug)",
				Value:   "warn",
				EnvVars: []string{"K1ECC_LOG_LEVEL", "LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "address-prefix",
				Usage:   "prefix for legacy public key strings",
				Value:   ecc.DefaultAddressPrefix,
				EnvVars: []string{"K1ECC_ADDRESS_PREFIX"},
			},
			&cli.StringFlag{
				Name:    "metrics-textfile",
				Usage:   "if set, write prometheus metrics to this file on exit (node_exporter textfile format)",
				EnvVars: []string{"K1ECC_METRICS_TEXTFILE"},
			},
		},
		Before: func(cctx *cli.Context) error {
			configLogger(cctx, os.Stderr)
			return nil
		},
		After: func(cctx *cli.Context) error {
			path := cctx.String("metrics-textfile")
			if path == "" {
				return nil
			}
			if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
				return fmt.Errorf("writing metrics: %w", err)
			}
			return nil
		},
	}
	app.Commands = []*cli.Command{
		cmdKey,
		cmdSign,
		cmdVerify,
		cmdRecover,
		cmdEncrypt,
		cmdDecrypt,
		cmdKeyfile,
		cmdSelfTest,
	}
	return app
}

func configLogger(cctx *cli.Context, writer io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cctx.String("log-level")) {
	case "error":
		level = slog.LevelError
	case "warn":
		level = slog.LevelWarn
	case "info":
		level = slog.LevelInfo
	case "debug":
		level = slog.LevelDebug
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

var cmdSelfTest = &cli.Command{
	Name:  "selftest",
	Usage: "checks curve arithmetic and encodings against known answers",
	Action: func(cctx *cli.Context) error {
		if err := ecc.SelfTest(); err != nil {
			return err
		}
		fmt.Fprintln(cctx.App.Writer, "ok")
		return nil
	},
}
