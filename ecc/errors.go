package ecc

import (
	"errors"

	"github.com/bluesky-social/k1ecc/base58check"
)

var (
	// Malformed scalar or point: wrong length, zero or out-of-range scalar, or not on the curve.
	ErrInvalidKey = errors.New("invalid secp256k1 key")

	// Structured "PVT_", "PUB_" or "SIG_" string with a type tag other than "K1".
	ErrUnsupportedKeyType = errors.New("unsupported key type")

	// Base58Check or WIF checksum failure.
	ErrChecksumMismatch = base58check.ErrChecksumMismatch

	ErrInvalidDigestLength = errors.New("digest must be exactly 32 bytes")

	// Malformed signature bytes or recovery id, or public key recovery failed.
	ErrInvalidSignature = errors.New("invalid signature")

	// Signing did not find a canonical signature within maxSignAttempts. Not expected to happen in practice.
	ErrSignAttemptsExceeded = errors.New("too many attempts to find canonical signature")
)
