package ecc

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/bluesky-social/k1ecc/base58check"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

const (
	// Length of the binary signature encoding: recovery byte, R, S.
	SignatureSize = 65

	// Recovery byte offsets, as in Bitcoin "compact" signatures.
	recoveryCompact    = 27
	recoveryCompressed = 4

	// Each attempt has roughly even odds of being canonical, so this is never reached by a working implementation.
	maxSignAttempts = 1000
)

var signatureStructuredRegex = regexp.MustCompile(`^SIG_([A-Za-z0-9]+)_([A-Za-z0-9]+)$`)

// A canonical, recoverable ECDSA signature over secp256k1.
//
// The recovery byte identifies which of the (up to four) public keys consistent with R, S and the digest made the signature, along with the compression and "compact" flags. Signatures made by this package always have a recovery byte between 31 and 34.
type Signature struct {
	r secp256k1.ModNScalar
	s secp256k1.ModNScalar
	i byte
}

// Hashes the message with SHA-256, then signs the digest. See [SignDigest].
func SignMessage(msg []byte, key *PrivateKey) (*Signature, error) {
	digest := SHA256(msg)
	return SignDigest(digest[:], key)
}

// Signs a 32-byte digest, returning a canonical signature with its recovery byte.
//
// Signing is deterministic: the same digest and key always produce the same signature. Nonces are derived from the key and digest; when a candidate signature is not canonical, the digest is re-hashed with an attempt counter and signing is retried. A warning is logged every ten attempts.
func SignDigest(digest []byte, key *PrivateKey) (*Signature, error) {
	if len(digest) != 32 {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidDigestLength, len(digest))
	}
	start := time.Now()

	var e secp256k1.ModNScalar
	e.SetByteSlice(digest)
	d := &key.priv.Key
	privBytes := d.Bytes()
	defer zero(privBytes[:])

	attempt := 0
	for {
		if attempt >= maxSignAttempts {
			slog.Error("failed to find canonical signature", "attempts", attempt)
			return nil, fmt.Errorf("%w: %d", ErrSignAttemptsExceeded, attempt)
		}
		r, s := signAttempt(d, &e, privBytes[:], attemptDigest(digest, attempt))
		attempt++
		if s.IsOverHalfOrder() {
			s.Negate()
		}
		if isCanonicalScalars(&r, &s) {
			sig := &Signature{r: r, s: s}
			code, err := recoveryCode(sig, digest, key.PublicKey())
			if err != nil {
				return nil, err
			}
			sig.i = code + recoveryCompressed + recoveryCompact
			signAttempts.Observe(float64(attempt))
			signDuration.Observe(time.Since(start).Seconds())
			return sig, nil
		}
		if attempt%10 == 0 {
			signRetryWarnings.Inc()
			slog.Warn("attempts to find canonical signature", "attempts", attempt)
		}
	}
}

// Runs the nonce generator for one attempt until it yields a nonce giving a usable, canonical (r, s). S is not yet normalized to the low half of the order.
func signAttempt(d, e *secp256k1.ModNScalar, privBytes, h []byte) (secp256k1.ModNScalar, secp256k1.ModNScalar) {
	gen := newNonceGenerator(privBytes, h)
	defer gen.wipe()
	for {
		k, ok := gen.candidate()
		if ok {
			r, s, ok := signWithNonce(d, &k, e)
			k.Zero()
			if ok && isCanonicalScalars(&r, &s) {
				return r, s
			}
		}
		gen.next()
	}
}

// r = (k·G).x mod n, s = k⁻¹(e + d·r) mod n. Returns false when the nonce is unusable.
func signWithNonce(d, k, e *secp256k1.ModNScalar) (secp256k1.ModNScalar, secp256k1.ModNScalar, bool) {
	var r, s secp256k1.ModNScalar
	var R secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(k, &R)
	R.ToAffine()
	if isInfinity(&R) {
		return r, s, false
	}
	r.SetBytes(R.X.Bytes())
	if r.IsZero() {
		return r, s, false
	}
	var kinv secp256k1.ModNScalar
	kinv.InverseValNonConst(k)
	s.Mul2(d, &r).Add(e).Mul(&kinv)
	kinv.Zero()
	if s.IsZero() {
		return r, s, false
	}
	return r, s, true
}

// Finds the public key recovery code (0 to 3) for which recovery yields pub.
func recoveryCode(sig *Signature, digest []byte, pub *PublicKey) (byte, error) {
	compact := sig.compactBytes(0)
	for code := byte(0); code < 4; code++ {
		compact[0] = code + recoveryCompressed + recoveryCompact
		candidate, _, err := ecdsa.RecoverCompact(compact, digest)
		if err != nil {
			continue
		}
		if candidate.IsEqual(pub.key) {
			return code, nil
		}
	}
	return 0, fmt.Errorf("%w: unable to find valid recovery factor", ErrInvalidSignature)
}

// Canonical in the sense of the historical DER length rule: both R and S encode as exactly 32-byte DER integers. That is, the top bit of the first byte is clear, and the first byte is only zero when the second byte has its top bit set.
func isCanonicalScalars(r, s *secp256k1.ModNScalar) bool {
	rb := r.Bytes()
	sb := s.Bytes()
	return isCanonicalInt(rb[:]) && isCanonicalInt(sb[:])
}

func isCanonicalInt(b []byte) bool {
	if b[0]&0x80 != 0 {
		return false
	}
	if b[0] == 0 && b[1]&0x80 == 0 {
		return false
	}
	return true
}

// Loads a [Signature] from its 65-byte binary encoding (recovery byte, R, S).
//
// The recovery byte must be in the range 27 to 34, and R and S must be valid non-zero scalars; otherwise fails with [ErrInvalidSignature].
func ParseSignatureBytes(data []byte) (*Signature, error) {
	if len(data) != SignatureSize {
		return nil, fmt.Errorf("%w: expecting %d bytes, got %d", ErrInvalidSignature, SignatureSize, len(data))
	}
	i := data[0]
	if i < recoveryCompact || i-recoveryCompact > 7 {
		return nil, fmt.Errorf("%w: recovery byte %d out of range", ErrInvalidSignature, i)
	}
	sig := &Signature{i: i}
	if overflow := sig.r.SetByteSlice(data[1:33]); overflow || sig.r.IsZero() {
		return nil, fmt.Errorf("%w: R out of range", ErrInvalidSignature)
	}
	if overflow := sig.s.SetByteSlice(data[33:65]); overflow || sig.s.IsZero() {
		return nil, fmt.Errorf("%w: S out of range", ErrInvalidSignature)
	}
	return sig, nil
}

// Parses a hex-encoded 65-byte signature.
func ParseSignatureHex(s string) (*Signature, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	return ParseSignatureBytes(raw)
}

// Parses a "SIG_K1_..." signature string.
func ParseSignatureString(s string) (*Signature, error) {
	match := signatureStructuredRegex.FindStringSubmatch(s)
	if match == nil {
		return nil, fmt.Errorf("%w: expecting signature like SIG_K1_base58signature", ErrInvalidSignature)
	}
	keyType, payload := match[1], match[2]
	if keyType != base58check.TagK1 {
		return nil, fmt.Errorf("%w: %q signature", ErrUnsupportedKeyType, keyType)
	}
	raw, err := base58check.Decode(payload, keyType)
	if err != nil {
		return nil, fmt.Errorf("parsing SIG_K1 signature: %w", err)
	}
	return ParseSignatureBytes(raw)
}

// Like [ParseSignatureString], but returns nil instead of an error.
func SignatureFromString(s string) *Signature {
	sig, err := ParseSignatureString(s)
	if err != nil {
		return nil
	}
	return sig
}

func (sig *Signature) compactBytes(code byte) []byte {
	b := make([]byte, SignatureSize)
	b[0] = code
	sig.r.PutBytesUnchecked(b[1:33])
	sig.s.PutBytesUnchecked(b[33:65])
	return b
}

// Binary encoding: recovery byte, then R and S as 32-byte big-endian integers. Never DER.
func (sig *Signature) Bytes() []byte {
	return sig.compactBytes(sig.i)
}

func (sig *Signature) Hex() string {
	return hex.EncodeToString(sig.Bytes())
}

// Text encoding: "SIG_K1_" + Base58Check(binary encoding, "K1").
func (sig *Signature) String() string {
	return "SIG_K1_" + base58check.Encode(sig.Bytes(), base58check.TagK1)
}

func (sig *Signature) R() [32]byte {
	return sig.r.Bytes()
}

func (sig *Signature) S() [32]byte {
	return sig.s.Bytes()
}

// The raw recovery byte (27 to 34).
func (sig *Signature) RecoveryID() byte {
	return sig.i
}

// Reports whether R and S each fit in exactly 32 bytes of DER integer encoding.
func (sig *Signature) IsCanonical() bool {
	return isCanonicalScalars(&sig.r, &sig.s)
}

func (sig *Signature) Equal(other *Signature) bool {
	return sig.i == other.i && sig.r.Equals(&other.r) && sig.s.Equals(&other.s)
}

// Hashes the message with SHA-256 and verifies the signature against the supplied public key. The recovery byte is ignored.
func (sig *Signature) VerifyMessage(msg []byte, pub *PublicKey) bool {
	digest := SHA256(msg)
	ok, _ := sig.VerifyDigest(digest[:], pub)
	return ok
}

// Verifies the signature over a 32-byte digest against the supplied public key. The recovery byte is ignored.
//
// The only error condition is a digest of the wrong length ([ErrInvalidDigestLength]); an invalid signature returns false.
func (sig *Signature) VerifyDigest(digest []byte, pub *PublicKey) (bool, error) {
	if len(digest) != 32 {
		return false, fmt.Errorf("%w: got %d bytes", ErrInvalidDigestLength, len(digest))
	}
	return ecdsa.NewSignature(&sig.r, &sig.s).Verify(digest, pub.key), nil
}

// Hashes the message with SHA-256 and recovers the signer's public key. See [Signature.RecoverDigest].
func (sig *Signature) RecoverMessage(msg []byte) (*PublicKey, error) {
	digest := SHA256(msg)
	return sig.RecoverDigest(digest[:])
}

// Recovers the public key which made this signature over the digest, using the recovery byte.
//
// Fails with [ErrInvalidSignature] when the recovery byte is out of range, or when no valid point can be reconstructed. The recovered key always verifies the signature.
func (sig *Signature) RecoverDigest(digest []byte) (*PublicKey, error) {
	if len(digest) != 32 {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidDigestLength, len(digest))
	}
	if sig.i < recoveryCompact || sig.i-recoveryCompact > 7 {
		return nil, fmt.Errorf("%w: recovery byte %d out of range", ErrInvalidSignature, sig.i)
	}
	// the compressed flag is ignored; recovered keys are always compressed
	code := (sig.i - recoveryCompact) & 3
	pub, _, err := ecdsa.RecoverCompact(sig.compactBytes(code+recoveryCompressed+recoveryCompact), digest)
	if err != nil {
		recoveries.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	recoveries.WithLabelValues("ok").Inc()
	return &PublicKey{key: pub, compressed: true}, nil
}
