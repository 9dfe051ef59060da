package ecc

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/bluesky-social/k1ecc/base58check"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Address prefix used by [PublicKey.String] and the parse helpers when the caller does not pick one.
const DefaultAddressPrefix = "EOS"

var publicStructuredRegex = regexp.MustCompile(`^PUB_([A-Za-z0-9]+)_([A-Za-z0-9]+)$`)

// A secp256k1 public key: a point on the curve, never the point at infinity.
//
// The compression flag only selects the binary encoding returned by [PublicKey.Bytes]. Text encodings always use the 33-byte compressed form, and [PublicKey.Equal] ignores the flag.
type PublicKey struct {
	key        *secp256k1.PublicKey
	compressed bool
}

// Loads a [PublicKey] from SEC1 bytes: 33-byte compressed (0x02/0x03 prefix) or 65-byte uncompressed (0x04 prefix).
//
// Points which are not on the curve fail with [ErrInvalidKey].
func ParsePublicBytes(data []byte) (*PublicKey, error) {
	switch {
	case len(data) == secp256k1.PubKeyBytesLenCompressed && (data[0] == secp256k1.PubKeyFormatCompressedEven || data[0] == secp256k1.PubKeyFormatCompressedOdd):
	case len(data) == secp256k1.PubKeyBytesLenUncompressed && data[0] == secp256k1.PubKeyFormatUncompressed:
	default:
		return nil, fmt.Errorf("%w: unexpected public key encoding (%d bytes)", ErrInvalidKey, len(data))
	}
	pub, err := secp256k1.ParsePubKey(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return &PublicKey{key: pub, compressed: len(data) == secp256k1.PubKeyBytesLenCompressed}, nil
}

// Parses a public key string, either structured ("PUB_K1_...") or legacy (address prefix followed by Base58 of the compressed point and a RIPEMD-160 checksum).
//
// An empty prefix means [DefaultAddressPrefix].
func ParsePublicString(s, prefix string) (*PublicKey, error) {
	if prefix == "" {
		prefix = DefaultAddressPrefix
	}
	if match := publicStructuredRegex.FindStringSubmatch(s); match != nil {
		keyType, payload := match[1], match[2]
		if keyType != base58check.TagK1 {
			return nil, fmt.Errorf("%w: %q public key", ErrUnsupportedKeyType, keyType)
		}
		raw, err := base58check.Decode(payload, keyType)
		if err != nil {
			return nil, fmt.Errorf("parsing PUB_K1 public key: %w", err)
		}
		return ParsePublicBytes(raw)
	}

	if !strings.HasPrefix(s, prefix) {
		return nil, fmt.Errorf("%w: expecting public key to begin with %q", ErrInvalidKey, prefix)
	}
	raw, err := base58check.Decode(s[len(prefix):], base58check.TagNone)
	if err != nil {
		return nil, fmt.Errorf("parsing %s public key: %w", prefix, err)
	}
	return ParsePublicBytes(raw)
}

// Like [ParsePublicString], but returns nil instead of an error.
func PublicKeyFromString(s, prefix string) *PublicKey {
	pub, err := ParsePublicString(s, prefix)
	if err != nil {
		return nil
	}
	return pub
}

// Reports whether s parses as a public key with the given address prefix (or as "PUB_K1_...").
func IsValidPublic(s, prefix string) bool {
	_, err := ParsePublicString(s, prefix)
	return err == nil
}

// Binary encoding selected by the compression flag: 33 bytes compressed, or 65 bytes uncompressed.
func (k *PublicKey) Bytes() []byte {
	if k.compressed {
		return k.CompressedBytes()
	}
	return k.UncompressedBytes()
}

// Serializes the key in to "compressed" binary format.
func (k *PublicKey) CompressedBytes() []byte {
	return k.key.SerializeCompressed()
}

// Serializes the key in to "uncompressed" binary format.
func (k *PublicKey) UncompressedBytes() []byte {
	return k.key.SerializeUncompressed()
}

// Returns the same point, flagged for uncompressed binary encoding.
func (k *PublicKey) Uncompressed() *PublicKey {
	return &PublicKey{key: k.key, compressed: false}
}

func (k *PublicKey) IsCompressed() bool {
	return k.compressed
}

// Hex encoding of [PublicKey.Bytes].
func (k *PublicKey) Hex() string {
	return hex.EncodeToString(k.Bytes())
}

// Legacy text encoding: prefix + Base58(Q || RIPEMD-160(Q)[:4]), with Q the compressed point.
func (k *PublicKey) LegacyString(prefix string) string {
	return prefix + base58check.Encode(k.CompressedBytes(), base58check.TagNone)
}

// Structured "PUB_K1_" encoding.
func (k *PublicKey) StructuredString() string {
	return "PUB_K1_" + base58check.Encode(k.CompressedBytes(), base58check.TagK1)
}

// Legacy text encoding with [DefaultAddressPrefix].
func (k *PublicKey) String() string {
	return k.LegacyString(DefaultAddressPrefix)
}

// Checks if the two public keys are the same point. Note that the naive == operator does not work for most equality checks.
func (k *PublicKey) Equal(other *PublicKey) bool {
	if k == nil || other == nil {
		return k == other
	}
	return k.key.IsEqual(other.key)
}

// Derives a child public key: c = SHA-256(Q || offset), returns Q + c·G.
//
// Deprecated: kept for compatibility with keys already derived this way.
func (k *PublicKey) Child(offset [32]byte) (*PublicKey, error) {
	slog.Warn("deprecated key derivation method called", "method", "PublicKey.Child")
	digest := SHA256(k.CompressedBytes(), offset[:])
	var c secp256k1.ModNScalar
	if overflow := c.SetBytes(&digest); overflow != 0 {
		return nil, fmt.Errorf("%w: child offset went out of bounds, try again", ErrInvalidKey)
	}

	var q, cG, sum secp256k1.JacobianPoint
	k.key.AsJacobian(&q)
	secp256k1.ScalarBaseMultNonConst(&c, &cG)
	secp256k1.AddNonConst(&q, &cG, &sum)
	if isInfinity(&sum) {
		return nil, fmt.Errorf("%w: child offset derived to an invalid key, try again", ErrInvalidKey)
	}
	sum.ToAffine()
	return &PublicKey{key: secp256k1.NewPublicKey(&sum.X, &sum.Y), compressed: k.compressed}, nil
}

func isInfinity(p *secp256k1.JacobianPoint) bool {
	return (p.X.IsZero() && p.Y.IsZero()) || p.Z.IsZero()
}
