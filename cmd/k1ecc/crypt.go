package main

import (
	"encoding/hex"
	"fmt"

	"github.com/bluesky-social/k1ecc/ecies"

	"github.com/urfave/cli/v2"
)

var cmdEncrypt = &cli.Command{
	Name:      "encrypt",
	Usage:     "encrypts a message to a public key, outputting the hex envelope",
	ArgsUsage: `<sender-private-key> <recipient-public-key> <message>`,
	Action:    runEncrypt,
}

var cmdDecrypt = &cli.Command{
	Name:      "decrypt",
	Usage:     "decrypts a hex envelope from the sender's public key",
	ArgsUsage: `<recipient-private-key> <sender-public-key> <hex-envelope>`,
	Action:    runDecrypt,
}

func runEncrypt(cctx *cli.Context) error {
	if cctx.Args().Len() != 3 {
		return fmt.Errorf("expected private key, public key, and message as arguments")
	}
	priv, err := privateArg(cctx, 0)
	if err != nil {
		return err
	}
	defer priv.Zero()
	pub, err := publicArg(cctx, 1)
	if err != nil {
		return err
	}
	env, err := ecies.Encrypt(priv, pub, []byte(cctx.Args().Get(2)))
	if err != nil {
		return err
	}
	fmt.Fprintln(cctx.App.Writer, hex.EncodeToString(env.Bytes()))
	return nil
}

func runDecrypt(cctx *cli.Context) error {
	if cctx.Args().Len() != 3 {
		return fmt.Errorf("expected private key, public key, and envelope as arguments")
	}
	priv, err := privateArg(cctx, 0)
	if err != nil {
		return err
	}
	defer priv.Zero()
	pub, err := publicArg(cctx, 1)
	if err != nil {
		return err
	}
	data, err := hex.DecodeString(cctx.Args().Get(2))
	if err != nil {
		return fmt.Errorf("parsing envelope hex: %w", err)
	}
	msg, err := ecies.Decrypt(priv, pub, data)
	if err != nil {
		return err
	}
	fmt.Fprintln(cctx.App.Writer, string(msg))
	return nil
}
