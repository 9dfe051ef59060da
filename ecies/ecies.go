package ecies

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"

	"github.com/bluesky-social/k1ecc/ecc"

	"github.com/minio/sha256-simd"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	NonceSize    = 24
	ChecksumSize = 8

	headerSize = NonceSize + ChecksumSize
)

var (
	// The envelope checksum does not match the shared secret: most likely the wrong key pair.
	ErrInvalidChecksum = errors.New("ecies: invalid checksum")

	// The authenticated cipher rejected the ciphertext.
	ErrTamperedOrCorrupted = errors.New("ecies: secretbox refused to open (most likely corrupted or tampered message)")
)

// Wire form of an encrypted message: nonce || checksum || ciphertext.
//
// The checksum is the first 8 bytes of SHA-256 over the derived key material. It lets a recipient holding the wrong key fail fast; the secretbox authenticator is what actually protects the message.
type Envelope struct {
	Nonce      [NonceSize]byte
	Checksum   [ChecksumSize]byte
	Ciphertext []byte
}

// Splits an encoded envelope in to its fields. Envelopes too short to hold a header and a secretbox authenticator fail with [ErrTamperedOrCorrupted].
func ParseEnvelope(data []byte) (*Envelope, error) {
	if len(data) < headerSize+secretbox.Overhead {
		return nil, fmt.Errorf("%w: envelope too short (%d bytes)", ErrTamperedOrCorrupted, len(data))
	}
	var env Envelope
	copy(env.Nonce[:], data[:NonceSize])
	copy(env.Checksum[:], data[NonceSize:headerSize])
	env.Ciphertext = append([]byte(nil), data[headerSize:]...)
	return &env, nil
}

func (env *Envelope) Bytes() []byte {
	out := make([]byte, 0, headerSize+len(env.Ciphertext))
	out = append(out, env.Nonce[:]...)
	out = append(out, env.Checksum[:]...)
	return append(out, env.Ciphertext...)
}

type options struct {
	random io.Reader
}

type Option func(*options)

// Source of the random envelope nonce. Defaults to crypto/rand.
func WithRandom(r io.Reader) Option {
	return func(o *options) {
		o.random = r
	}
}

// Encrypts msg from the holder of priv to the holder of the private key for pub.
//
// The recipient decrypts with their private key and the sender's public key; see [Decrypt].
func Encrypt(priv *ecc.PrivateKey, pub *ecc.PublicKey, msg []byte, opts ...Option) (*Envelope, error) {
	secret := priv.SharedSecret(pub)
	defer zero(secret)
	return EncryptWithSecret(secret, msg, opts...)
}

// Decrypts an encoded envelope made by [Encrypt], using this party's private key and the counterpart's public key.
//
// Fails with [ErrInvalidChecksum] if the key pair does not match the envelope, and with [ErrTamperedOrCorrupted] if the ciphertext fails authentication.
func Decrypt(priv *ecc.PrivateKey, pub *ecc.PublicKey, data []byte) ([]byte, error) {
	env, err := ParseEnvelope(data)
	if err != nil {
		failures.WithLabelValues("malformed").Inc()
		return nil, err
	}
	return DecryptEnvelope(priv, pub, env)
}

// Same as [Decrypt], for an already parsed envelope.
func DecryptEnvelope(priv *ecc.PrivateKey, pub *ecc.PublicKey, env *Envelope) ([]byte, error) {
	secret := priv.SharedSecret(pub)
	defer zero(secret)
	return openEnvelope(secret, env)
}

// Encrypts msg under a secret the two parties already share, in place of the ECDH shared secret. The secret may be of any length.
func EncryptWithSecret(secret, msg []byte, opts ...Option) (*Envelope, error) {
	o := options{random: rand.Reader}
	for _, opt := range opts {
		opt(&o)
	}

	var env Envelope
	if _, err := io.ReadFull(o.random, env.Nonce[:]); err != nil {
		return nil, fmt.Errorf("generating envelope nonce: %w", err)
	}
	key, boxNonce, check := deriveKeys(env.Nonce[:], secret)
	defer zero(key[:])
	env.Checksum = check
	env.Ciphertext = secretbox.Seal(nil, msg, &boxNonce, &key)
	return &env, nil
}

// Decrypts an encoded envelope made by [EncryptWithSecret].
func DecryptWithSecret(secret, data []byte) ([]byte, error) {
	env, err := ParseEnvelope(data)
	if err != nil {
		failures.WithLabelValues("malformed").Inc()
		return nil, err
	}
	return openEnvelope(secret, env)
}

func openEnvelope(secret []byte, env *Envelope) ([]byte, error) {
	key, boxNonce, check := deriveKeys(env.Nonce[:], secret)
	defer zero(key[:])
	if subtle.ConstantTimeCompare(check[:], env.Checksum[:]) != 1 {
		failures.WithLabelValues("checksum").Inc()
		return nil, ErrInvalidChecksum
	}
	msg, ok := secretbox.Open(nil, env.Ciphertext, &boxNonce, &key)
	if !ok {
		failures.WithLabelValues("tampered").Inc()
		return nil, ErrTamperedOrCorrupted
	}
	return msg, nil
}

// ek = SHA-512(nonce || secret): key is ek[0:32], secretbox nonce is ek[32:56], checksum is SHA-256(ek)[0:8].
func deriveKeys(nonce, secret []byte) (key [32]byte, boxNonce [24]byte, check [ChecksumSize]byte) {
	h := sha512.New()
	h.Write(nonce)
	h.Write(secret)
	ek := h.Sum(nil)
	defer zero(ek)

	copy(key[:], ek[0:32])
	copy(boxNonce[:], ek[32:56])
	sum := sha256.Sum256(ek)
	copy(check[:], sum[:ChecksumSize])
	return key, boxNonce, check
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
