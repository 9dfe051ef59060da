package ecc

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// HMAC-SHA256 DRBG from RFC 6979 section 3.2, seeded the way eosjs-ecc (and bitcoinjs before it) does: the digest is used as-is, without the bits2octets reduction modulo n. For 32-byte digests the two only differ when the digest is >= n.
type nonceGenerator struct {
	k [32]byte
	v [32]byte
}

func newNonceGenerator(privKey, digest []byte) *nonceGenerator {
	g := &nonceGenerator{}
	for i := range g.v {
		g.v[i] = 0x01
	}
	g.k = hmacSHA256(g.k[:], g.v[:], []byte{0x00}, privKey, digest)
	g.v = hmacSHA256(g.k[:], g.v[:])
	g.k = hmacSHA256(g.k[:], g.v[:], []byte{0x01}, privKey, digest)
	g.v = hmacSHA256(g.k[:], g.v[:])
	g.v = hmacSHA256(g.k[:], g.v[:])
	return g
}

// Current candidate nonce, or false if it is zero or not below the curve order.
func (g *nonceGenerator) candidate() (secp256k1.ModNScalar, bool) {
	var k secp256k1.ModNScalar
	overflow := k.SetBytes(&g.v)
	return k, overflow == 0 && !k.IsZero()
}

// Advances to the next candidate (RFC 6979 step 3.2.h.3).
func (g *nonceGenerator) next() {
	g.k = hmacSHA256(g.k[:], g.v[:], []byte{0x00})
	g.v = hmacSHA256(g.k[:], g.v[:])
	g.v = hmacSHA256(g.k[:], g.v[:])
}

func (g *nonceGenerator) wipe() {
	zero(g.k[:])
	zero(g.v[:])
}

// Input to the nonce generator for a given signing attempt: the digest itself on the first attempt, then SHA-256(digest || attempt zero bytes).
func attemptDigest(digest []byte, attempt int) []byte {
	if attempt == 0 {
		return digest
	}
	h := SHA256(digest, make([]byte, attempt))
	return h[:]
}
