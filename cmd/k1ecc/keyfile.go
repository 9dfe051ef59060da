package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/bluesky-social/k1ecc/keyfile"

	"github.com/urfave/cli/v2"
)

func keyfileFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "passphrase",
			Usage:    "passphrase protecting the key file",
			Required: true,
			EnvVars:  []string{"K1ECC_PASSPHRASE"},
		},
		&cli.StringFlag{
			Name:    "path",
			Usage:   "explicit key file path (default is under the XDG data directory)",
			EnvVars: []string{"K1ECC_KEYFILE"},
		},
	}
}

var cmdKeyfile = &cli.Command{
	Name:  "keyfile",
	Usage: "sub-commands for passphrase protected key files",
	Subcommands: []*cli.Command{
		&cli.Command{
			Name:      "save",
			Usage:     "encrypts a private key to a named key file",
			ArgsUsage: `<name> <private-key>`,
			Flags: append([]cli.Flag{
				&cli.BoolFlag{
					Name:  "force",
					Usage: "overwrite an existing key file",
				},
			}, keyfileFlags()...),
			Action: runKeyfileSave,
		},
		&cli.Command{
			Name:      "load",
			Usage:     "decrypts a named key file and outputs the private key (WIF)",
			ArgsUsage: `<name>`,
			Flags:     keyfileFlags(),
			Action:    runKeyfileLoad,
		},
	},
}

func keyfilePath(cctx *cli.Context) (string, error) {
	if p := cctx.String("path"); p != "" {
		return p, nil
	}
	name := cctx.Args().First()
	if name == "" {
		return "", fmt.Errorf("need to provide key name as an argument")
	}
	return keyfile.DefaultPath(name)
}

func runKeyfileSave(cctx *cli.Context) error {
	priv, err := privateArg(cctx, 1)
	if err != nil {
		return err
	}
	defer priv.Zero()
	path, err := keyfilePath(cctx)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !cctx.Bool("force") {
		return fmt.Errorf("key file already exists (use --force to overwrite): %s", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	f, err := keyfile.Seal(cctx.String("passphrase"), priv)
	if err != nil {
		return err
	}
	if err := keyfile.WriteFile(path, f); err != nil {
		return err
	}
	slog.Info("saved key file", "path", path, "public_key", f.PublicKey)
	fmt.Fprintln(cctx.App.Writer, path)
	return nil
}

func runKeyfileLoad(cctx *cli.Context) error {
	path, err := keyfilePath(cctx)
	if err != nil {
		return err
	}
	f, err := keyfile.ReadFile(path)
	if err != nil {
		return err
	}
	priv, err := keyfile.Open(cctx.String("passphrase"), f)
	if err != nil {
		return err
	}
	defer priv.Zero()
	fmt.Fprintln(cctx.App.Writer, priv.WIF())
	return nil
}
