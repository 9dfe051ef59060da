package ecc

import (
	"crypto/hmac"
	"crypto/sha512"

	"github.com/minio/sha256-simd"
)

// SHA256 hashes the concatenation of parts.
func SHA256(parts ...[]byte) [32]byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	var out [32]byte
	h.Sum(out[:0])
	return out
}

func sha512Sum(data []byte) []byte {
	sum := sha512.Sum512(data)
	return sum[:]
}

func hmacSHA256(key []byte, parts ...[]byte) [32]byte {
	mac := hmac.New(sha256.New, key)
	for _, p := range parts {
		mac.Write(p)
	}
	var out [32]byte
	mac.Sum(out[:0])
	return out
}
