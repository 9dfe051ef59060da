package main

import (
	"encoding/hex"
	"fmt"

	"github.com/bluesky-social/k1ecc/ecc"

	"github.com/urfave/cli/v2"
)

func digestFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "digest",
		Usage: "data argument is a hex-encoded 32-byte digest, instead of a message to hash",
	}
}

var cmdSign = &cli.Command{
	Name:      "sign",
	Usage:     "signs a message (or digest) and outputs a SIG_K1_ signature",
	ArgsUsage: `<private-key> <data>`,
	Flags:     []cli.Flag{digestFlag()},
	Action:    runSign,
}

var cmdVerify = &cli.Command{
	Name:      "verify",
	Usage:     "checks a signature against a public key",
	ArgsUsage: `<signature> <public-key> <data>`,
	Flags:     []cli.Flag{digestFlag()},
	Action:    runVerify,
}

var cmdRecover = &cli.Command{
	Name:      "recover",
	Usage:     "outputs the public key which made a signature",
	ArgsUsage: `<signature> <data>`,
	Flags:     []cli.Flag{digestFlag()},
	Action:    runRecover,
}

// Returns the 32-byte digest for the data argument: either parsed from hex, or the SHA-256 of the argument.
func digestArg(cctx *cli.Context, idx int) ([]byte, error) {
	if cctx.Args().Len() <= idx {
		return nil, fmt.Errorf("need to provide data as an argument")
	}
	data := cctx.Args().Get(idx)
	if cctx.Bool("digest") {
		digest, err := hex.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("parsing digest: %w", err)
		}
		return digest, nil
	}
	digest := ecc.SHA256([]byte(data))
	return digest[:], nil
}

func signatureArg(cctx *cli.Context, idx int) (*ecc.Signature, error) {
	s := cctx.Args().Get(idx)
	if s == "" {
		return nil, fmt.Errorf("need to provide signature as an argument")
	}
	sig, err := ecc.ParseSignatureString(s)
	if err != nil {
		// also accept the raw 65-byte form in hex
		if hexSig, hexErr := ecc.ParseSignatureHex(s); hexErr == nil {
			return hexSig, nil
		}
		return nil, fmt.Errorf("parsing signature: %w", err)
	}
	return sig, nil
}

func runSign(cctx *cli.Context) error {
	priv, err := privateArg(cctx, 0)
	if err != nil {
		return err
	}
	defer priv.Zero()
	digest, err := digestArg(cctx, 1)
	if err != nil {
		return err
	}
	sig, err := ecc.SignDigest(digest, priv)
	if err != nil {
		return err
	}
	fmt.Fprintln(cctx.App.Writer, sig.String())
	return nil
}

func runVerify(cctx *cli.Context) error {
	sig, err := signatureArg(cctx, 0)
	if err != nil {
		return err
	}
	pub, err := publicArg(cctx, 1)
	if err != nil {
		return err
	}
	digest, err := digestArg(cctx, 2)
	if err != nil {
		return err
	}
	ok, err := sig.VerifyDigest(digest, pub)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("signature verification failed")
	}
	fmt.Fprintln(cctx.App.Writer, "valid")
	return nil
}

func runRecover(cctx *cli.Context) error {
	sig, err := signatureArg(cctx, 0)
	if err != nil {
		return err
	}
	digest, err := digestArg(cctx, 1)
	if err != nil {
		return err
	}
	pub, err := sig.RecoverDigest(digest)
	if err != nil {
		return err
	}
	fmt.Fprintln(cctx.App.Writer, pub.LegacyString(cctx.String("address-prefix")))
	return nil
}
