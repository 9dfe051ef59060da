package base58check

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/minio/sha256-simd"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ripemd160"
)

const (
	// Legacy WIF private keys: checksum is the first four bytes of a double SHA-256.
	TagSHA256x2 = "sha256x2"

	// Structured PVT_K1_, PUB_K1_ and SIG_K1_ payloads: RIPEMD-160 over payload and tag.
	TagK1 = "K1"

	// Legacy public keys: RIPEMD-160 over the payload alone.
	TagNone = ""
)

// Length of the checksum suffix, in bytes, for every tag.
const ChecksumSize = 4

var (
	ErrChecksumMismatch = errors.New("base58check: checksum mismatch")
	ErrInvalidEncoding  = errors.New("base58check: invalid encoding")
)

// Checksum computes the four checksum bytes for payload under the given type tag.
func Checksum(payload []byte, keyType string) []byte {
	switch keyType {
	case TagSHA256x2:
		first := sha256.Sum256(payload)
		second := sha256.Sum256(first[:])
		return second[:ChecksumSize]
	default:
		h := ripemd160.New()
		h.Write(payload)
		if keyType != TagNone {
			h.Write([]byte(keyType))
		}
		return h.Sum(nil)[:ChecksumSize]
	}
}

// Encode appends the checksum for keyType to payload and returns the base58 (bitcoin alphabet) string.
//
// The tag only selects and seeds the checksum; it is not itself written out. Callers add any textual prefix such as "PUB_K1_".
func Encode(payload []byte, keyType string) string {
	buf := make([]byte, 0, len(payload)+ChecksumSize)
	buf = append(buf, payload...)
	buf = append(buf, Checksum(payload, keyType)...)
	return base58.Encode(buf)
}

// Decode reverses [Encode], returning the payload with the checksum removed.
func Decode(text, keyType string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty string", ErrInvalidEncoding)
	}
	raw, err := base58.Decode(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
	}
	if len(raw) < ChecksumSize {
		return nil, fmt.Errorf("%w: too short (%d bytes)", ErrInvalidEncoding, len(raw))
	}
	payload := raw[:len(raw)-ChecksumSize]
	check := raw[len(raw)-ChecksumSize:]
	if !bytes.Equal(check, Checksum(payload, keyType)) {
		return nil, ErrChecksumMismatch
	}
	return payload, nil
}
