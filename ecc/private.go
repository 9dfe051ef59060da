package ecc

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"regexp"
	"sync"

	"github.com/bluesky-social/k1ecc/base58check"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Version byte prepended to the scalar in legacy WIF encoding.
const wifVersion = 0x80

var privateStructuredRegex = regexp.MustCompile(`^PVT_([A-Za-z0-9]+)_([A-Za-z0-9]+)$`)

// A secp256k1 private key: a scalar d with 1 <= d < n.
//
// Secret key material is naively stored in memory. The corresponding [PublicKey] is computed on first use and cached for the lifetime of the instance.
//
// PrivateKey values must not be copied after first use; use [PrivateKey.Clone].
type PrivateKey struct {
	priv secp256k1.PrivateKey

	pubOnce sync.Once
	pub     *PublicKey
}

func newPrivateKey(scalar *secp256k1.ModNScalar) *PrivateKey {
	k := &PrivateKey{}
	k.priv.Key.Set(scalar)
	return k
}

// Loads a [PrivateKey] from a raw 32-byte big-endian scalar, as exported by [PrivateKey.Bytes].
//
// A 33-byte input whose final byte is 0x01 (the WIF "compressed public key" flag) is accepted and the flag is dropped. Any other length, a zero scalar, or a scalar greater than or equal to the curve order fails with [ErrInvalidKey].
func ParsePrivateBytes(data []byte) (*PrivateKey, error) {
	if len(data) == 33 && data[32] == 1 {
		data = data[:32]
	}
	if len(data) != 32 {
		return nil, fmt.Errorf("%w: expecting 32 bytes, got %d", ErrInvalidKey, len(data))
	}
	var b32 [32]byte
	copy(b32[:], data)
	var scalar secp256k1.ModNScalar
	overflow := scalar.SetBytes(&b32)
	zero(b32[:])
	if overflow != 0 {
		return nil, fmt.Errorf("%w: scalar out of range", ErrInvalidKey)
	}
	if scalar.IsZero() {
		return nil, fmt.Errorf("%w: zero scalar", ErrInvalidKey)
	}
	k := newPrivateKey(&scalar)
	scalar.Zero()
	return k, nil
}

// Derives a [PrivateKey] from an arbitrary seed string: the scalar is SHA-256(seed), reduced modulo the curve order.
//
// The same seed always produces the same key. The seed is therefore as sensitive as the key itself.
func PrivateKeyFromSeed(seed string) (*PrivateKey, error) {
	digest := SHA256([]byte(seed))
	var scalar secp256k1.ModNScalar
	scalar.SetBytes(&digest)
	zero(digest[:])
	if scalar.IsZero() {
		return nil, fmt.Errorf("%w: seed hashed to zero scalar", ErrInvalidKey)
	}
	k := newPrivateKey(&scalar)
	scalar.Zero()
	return k, nil
}

// Parses a private key from either the structured "PVT_K1_..." form or the legacy WIF form.
//
// The structured form is tried first; strings which do not match its pattern are parsed as WIF. A structured string with a type other than "K1" fails with [ErrUnsupportedKeyType]. Checksum failures wrap [ErrChecksumMismatch].
func ParsePrivateString(s string) (*PrivateKey, error) {
	k, _, err := parsePrivate(s)
	return k, err
}

// Like [ParsePrivateString], but returns nil instead of an error.
func PrivateKeyFromString(s string) *PrivateKey {
	k, err := ParsePrivateString(s)
	if err != nil {
		return nil
	}
	return k
}

// Reports whether s parses as a private key in either text format.
func IsValidPrivate(s string) bool {
	_, _, err := parsePrivate(s)
	return err == nil
}

// Reports whether s is a valid private key in legacy Wallet Import Format (as opposed to "PVT_K1_...").
func IsWIF(s string) bool {
	_, structured, err := parsePrivate(s)
	return err == nil && !structured
}

func parsePrivate(s string) (*PrivateKey, bool, error) {
	match := privateStructuredRegex.FindStringSubmatch(s)
	if match == nil {
		raw, err := base58check.Decode(s, base58check.TagSHA256x2)
		if err != nil {
			return nil, false, fmt.Errorf("parsing WIF private key: %w", err)
		}
		defer zero(raw)
		if len(raw) == 0 || raw[0] != wifVersion {
			return nil, false, fmt.Errorf("%w: WIF version byte must be 0x%02x", ErrInvalidKey, wifVersion)
		}
		k, err := ParsePrivateBytes(raw[1:])
		return k, false, err
	}

	keyType, payload := match[1], match[2]
	if keyType != base58check.TagK1 {
		return nil, true, fmt.Errorf("%w: %q private key", ErrUnsupportedKeyType, keyType)
	}
	raw, err := base58check.Decode(payload, keyType)
	if err != nil {
		return nil, true, fmt.Errorf("parsing PVT_K1 private key: %w", err)
	}
	defer zero(raw)
	k, err := ParsePrivateBytes(raw)
	return k, true, err
}

// Returns an independent copy of the key. The cached public key, if any, is shared.
func (k *PrivateKey) Clone() *PrivateKey {
	c := newPrivateKey(&k.priv.Key)
	c.pubOnce.Do(func() { c.pub = k.PublicKey() })
	return c
}

// Serializes the secret scalar as 32 big-endian bytes, which can be parsed by [ParsePrivateBytes].
func (k *PrivateKey) Bytes() []byte {
	return k.priv.Serialize()
}

// Legacy Wallet Import Format: Base58Check(0x80 || scalar) with a double SHA-256 checksum.
//
// This is the default text encoding for private keys.
func (k *PrivateKey) WIF() string {
	raw := make([]byte, 0, 33)
	raw = append(raw, wifVersion)
	raw = append(raw, k.Bytes()...)
	defer zero(raw)
	return base58check.Encode(raw, base58check.TagSHA256x2)
}

// Structured "PVT_K1_" encoding. Parsers accept it, but most deployed software still expects [PrivateKey.WIF].
func (k *PrivateKey) StructuredString() string {
	raw := k.Bytes()
	defer zero(raw)
	return "PVT_K1_" + base58check.Encode(raw, base58check.TagK1)
}

// Hex encoding of the raw scalar.
func (k *PrivateKey) Hex() string {
	raw := k.Bytes()
	defer zero(raw)
	return hex.EncodeToString(raw)
}

// Redacted. Private key material never ends up in format strings or logs by accident.
func (k *PrivateKey) String() string {
	return "PrivateKey(redacted)"
}

func (k *PrivateKey) LogValue() slog.Value {
	return slog.StringValue("[redacted]")
}

// Returns the [PublicKey] (d·G) corresponding to this private key. The result is computed once and cached.
func (k *PrivateKey) PublicKey() *PublicKey {
	k.pubOnce.Do(func() {
		k.pub = &PublicKey{key: k.priv.PubKey(), compressed: true}
	})
	return k.pub
}

// Checks if the two private keys hold the same scalar.
func (k *PrivateKey) Equal(other *PrivateKey) bool {
	if k == nil || other == nil {
		return k == other
	}
	return k.priv.Key.Equals(&other.priv.Key)
}

// Computes the 64-byte ECIES shared secret with the counterpart's public key: SHA-512 of the 32-byte x coordinate of d·Q.
//
// The secret is symmetric: a.SharedSecret(b.PublicKey()) equals b.SharedSecret(a.PublicKey()).
func (k *PrivateKey) SharedSecret(pub *PublicKey) []byte {
	x := secp256k1.GenerateSharedSecret(&k.priv, pub.key)
	defer zero(x)
	return sha512Sum(x)
}

// Derives a named child key: the new scalar is SHA-256(parent scalar || name).
//
// Deprecated: kept for compatibility with keys already derived this way. Hierarchical derivation schemes should be used instead.
func (k *PrivateKey) ChildKey(name string) (*PrivateKey, error) {
	slog.Warn("deprecated key derivation method called", "method", "PrivateKey.ChildKey")
	raw := k.Bytes()
	defer zero(raw)
	index := SHA256(raw, []byte(name))
	defer zero(index[:])
	return ParsePrivateBytes(index[:])
}

// Clears the secret scalar. The key must not be used afterwards.
func (k *PrivateKey) Zero() {
	k.priv.Zero()
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
