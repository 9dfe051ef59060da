package main

import (
	"fmt"
	"log/slog"

	"github.com/bluesky-social/k1ecc/ecc"
	"github.com/bluesky-social/k1ecc/entropy"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

var cmdKey = &cli.Command{
	Name:  "key",
	Usage: "sub-commands for cryptographic keys",
	Subcommands: []*cli.Command{
		&cli.Command{
			Name:  "generate",
			Usage: "outputs a new random private key and its public key",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "structured",
					Usage: "print the private key as PVT_K1_ instead of WIF",
				},
				&cli.BoolFlag{
					Name:  "terse",
					Usage: "print just the private key",
				},
				&cli.IntFlag{
					Name:  "count",
					Usage: "number of keys to generate (implies --terse when more than one)",
					Value: 1,
				},
				&cli.IntFlag{
					Name:  "jobs",
					Usage: "number of keys to generate in parallel",
					Value: 4,
				},
			},
			Action: runKeyGenerate,
		},
		&cli.Command{
			Name:      "seed",
			Usage:     "derives a private key from a seed string (the seed is as sensitive as the key)",
			ArgsUsage: `<seed>`,
			Action:    runKeySeed,
		},
		&cli.Command{
			Name:      "public",
			Usage:     "outputs the public key for a private key",
			ArgsUsage: `<private-key>`,
			Action:    runKeyPublic,
		},
		&cli.Command{
			Name:      "inspect",
			Usage:     "parses and outputs metadata about a public or private key",
			ArgsUsage: `<key>`,
			Action:    runKeyInspect,
		},
		&cli.Command{
			Name:      "child",
			Usage:     "derives a named child private key (deprecated derivation)",
			ArgsUsage: `<private-key> <name>`,
			Action:    runKeyChild,
		},
	},
}

func runKeyGenerate(cctx *cli.Context) error {
	ctx := cctx.Context
	count := cctx.Int("count")
	if count < 1 {
		return fmt.Errorf("--count must be positive")
	}

	// one pool, initialized once, shared by all workers
	pool, err := ecc.NewEntropyPool(entropy.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	if err := pool.Initialize(ctx); err != nil {
		return err
	}

	keys := make([]*ecc.PrivateKey, count)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(cctx.Int("jobs"), 1))
	for i := range keys {
		i := i
		eg.Go(func() error {
			priv, err := ecc.RandomPrivateKey(ctx, pool)
			if err != nil {
				return err
			}
			keys[i] = priv
			return nil
		})
	}
	err = eg.Wait()
	defer func() {
		for _, priv := range keys {
			if priv != nil {
				priv.Zero()
			}
		}
	}()
	if err != nil {
		return err
	}

	terse := cctx.Bool("terse") || count > 1
	for _, priv := range keys {
		privString := priv.WIF()
		if cctx.Bool("structured") {
			privString = priv.StructuredString()
		}
		if terse {
			fmt.Fprintln(cctx.App.Writer, privString)
			continue
		}
		pub := priv.PublicKey()
		fmt.Fprintf(cctx.App.Writer, "Private Key: save this securely (eg, add to password manager)\n\t%s\n", privString)
		fmt.Fprintf(cctx.App.Writer, "Public Key: share or publish this\n\t%s\n\t%s\n", pub.LegacyString(cctx.String("address-prefix")), pub.StructuredString())
	}
	return nil
}

func runKeySeed(cctx *cli.Context) error {
	if cctx.Args().Len() != 1 {
		return fmt.Errorf("need to provide seed as an argument")
	}
	priv, err := ecc.PrivateKeyFromSeed(cctx.Args().First())
	if err != nil {
		return err
	}
	defer priv.Zero()
	fmt.Fprintln(cctx.App.Writer, priv.WIF())
	return nil
}

func runKeyPublic(cctx *cli.Context) error {
	priv, err := privateArg(cctx, 0)
	if err != nil {
		return err
	}
	defer priv.Zero()
	fmt.Fprintln(cctx.App.Writer, priv.PublicKey().LegacyString(cctx.String("address-prefix")))
	return nil
}

func runKeyInspect(cctx *cli.Context) error {
	s := cctx.Args().First()
	if s == "" {
		return fmt.Errorf("need to provide key as an argument")
	}
	w := cctx.App.Writer
	prefix := cctx.String("address-prefix")

	if priv, err := ecc.ParsePrivateString(s); err == nil {
		defer priv.Zero()
		encoding := "PVT_K1"
		if ecc.IsWIF(s) {
			encoding = "WIF"
		}
		pub := priv.PublicKey()
		fmt.Fprintf(w, "Type: secp256k1 private key\n")
		fmt.Fprintf(w, "Encoding: %s\n", encoding)
		fmt.Fprintf(w, "Public Key: %s\n", pub.LegacyString(prefix))
		fmt.Fprintf(w, "Public Key (structured): %s\n", pub.StructuredString())
		return nil
	}

	pub, err := ecc.ParsePublicString(s, prefix)
	if err != nil {
		return fmt.Errorf("unknown key encoding or type: %w", err)
	}
	fmt.Fprintf(w, "Type: secp256k1 public key\n")
	fmt.Fprintf(w, "Legacy: %s\n", pub.LegacyString(prefix))
	fmt.Fprintf(w, "Structured: %s\n", pub.StructuredString())
	fmt.Fprintf(w, "Compressed (hex): %s\n", pub.Hex())
	fmt.Fprintf(w, "Uncompressed (hex): %s\n", pub.Uncompressed().Hex())
	jwk, err := pub.JWK()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "JWK: x=%s y=%s\n", jwk.X, jwk.Y)
	return nil
}

func runKeyChild(cctx *cli.Context) error {
	if cctx.Args().Len() != 2 {
		return fmt.Errorf("need to provide private key and child name as arguments")
	}
	priv, err := privateArg(cctx, 0)
	if err != nil {
		return err
	}
	defer priv.Zero()
	child, err := priv.ChildKey(cctx.Args().Get(1))
	if err != nil {
		return err
	}
	defer child.Zero()
	fmt.Fprintln(cctx.App.Writer, child.WIF())
	return nil
}

func privateArg(cctx *cli.Context, idx int) (*ecc.PrivateKey, error) {
	s := cctx.Args().Get(idx)
	if s == "" {
		return nil, fmt.Errorf("need to provide private key as an argument")
	}
	priv, err := ecc.ParsePrivateString(s)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	return priv, nil
}

func publicArg(cctx *cli.Context, idx int) (*ecc.PublicKey, error) {
	s := cctx.Args().Get(idx)
	if s == "" {
		return nil, fmt.Errorf("need to provide public key as an argument")
	}
	pub, err := ecc.ParsePublicString(s, cctx.String("address-prefix"))
	if err != nil {
		return nil, fmt.Errorf("parsing public key: %w", err)
	}
	return pub, nil
}
