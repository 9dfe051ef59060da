package ecc

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/bluesky-social/k1ecc/base58check"

	"github.com/stretchr/testify/assert"
)

func TestSignBasics(t *testing.T) {
	assert := assert.New(t)

	priv, err := PrivateKeyFromSeed("")
	if err != nil {
		t.Fatal(err)
	}
	pub := priv.PublicKey()

	// try signing/verifying a couple different message sizes. these all just get hashed.
	msg := []byte("test-message")
	bigMsg := make([]byte, 1024*1024)
	_, err = rand.Read(bigMsg)
	assert.NoError(err)

	for _, m := range [][]byte{msg, bigMsg, {}} {
		sig, err := SignMessage(m, priv)
		assert.NoError(err)
		assert.True(sig.VerifyMessage(m, pub))
		assert.False(sig.VerifyMessage(append([]byte{0x00}, m...), pub))

		recovered, err := sig.RecoverMessage(m)
		assert.NoError(err)
		assert.True(pub.Equal(recovered))

		// round trip through every encoding
		fromString, err := ParseSignatureString(sig.String())
		assert.NoError(err)
		assert.True(sig.Equal(fromString))
		fromHex, err := ParseSignatureHex(sig.Hex())
		assert.NoError(err)
		assert.True(sig.Equal(fromHex))
		fromBytes, err := ParseSignatureBytes(sig.Bytes())
		assert.NoError(err)
		assert.True(sig.Equal(fromBytes))
	}

	// signing is deterministic
	s1, err := SignMessage(msg, priv)
	assert.NoError(err)
	s2, err := SignMessage(msg, priv)
	assert.NoError(err)
	assert.Equal(s1.String(), s2.String())

	// wrong key
	other, err := PrivateKeyFromSeed("other")
	assert.NoError(err)
	assert.False(s1.VerifyMessage(msg, other.PublicKey()))
	recovered, err := s1.RecoverMessage(msg)
	assert.NoError(err)
	assert.False(other.PublicKey().Equal(recovered))
}

// this does a large number of sign/verify cycles, to try and hit any non-canonical or high-S signatures
func TestCanonicalMany(t *testing.T) {
	assert := assert.New(t)

	msg := make([]byte, 64)
	for i := 0; i < 128; i++ {
		priv, err := PrivateKeyFromSeed(fmt.Sprintf("canonical-%d", i))
		if err != nil {
			t.Fatal(err)
		}
		_, err = rand.Read(msg)
		assert.NoError(err)

		sig, err := SignMessage(msg, priv)
		if err != nil {
			t.Fatal(err)
		}
		assert.True(sig.IsCanonical())
		sBytes := sig.S()
		// low-S: top bit of S is clear, S <= n/2
		assert.Equal(byte(0), sBytes[0]&0x80)
		assert.GreaterOrEqual(sig.RecoveryID(), byte(31))
		assert.LessOrEqual(sig.RecoveryID(), byte(34))

		recovered, err := sig.RecoverMessage(msg)
		assert.NoError(err)
		assert.True(priv.PublicKey().Equal(recovered))
	}
}

func TestDigestLength(t *testing.T) {
	assert := assert.New(t)

	priv, err := PrivateKeyFromSeed("")
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range []int{0, 31, 33, 64} {
		_, err := SignDigest(make([]byte, n), priv)
		assert.ErrorIs(err, ErrInvalidDigestLength)
	}

	var digest [32]byte
	sig, err := SignDigest(digest[:], priv)
	if err != nil {
		t.Fatal(err)
	}
	_, err = sig.VerifyDigest(digest[:31], priv.PublicKey())
	assert.ErrorIs(err, ErrInvalidDigestLength)
	_, err = sig.RecoverDigest(digest[:31])
	assert.ErrorIs(err, ErrInvalidDigestLength)
}

func TestParseSignatureErrors(t *testing.T) {
	assert := assert.New(t)

	good, err := hex.DecodeString("1f78aaa38ee3408705c4b2c4893ed1ec7810764a46993485bf7e16d1e1f5c3d8df7b003eacb52541db2ea9740ea55057a6ce6cc0d532e2660b7894b9686b8dd141")
	if err != nil {
		t.Fatal(err)
	}
	_, err = ParseSignatureBytes(good)
	assert.NoError(err)

	_, err = ParseSignatureBytes(good[:64])
	assert.ErrorIs(err, ErrInvalidSignature)

	for _, i := range []byte{0, 26, 35, 0xff} {
		bad := append([]byte{}, good...)
		bad[0] = i
		_, err = ParseSignatureBytes(bad)
		assert.ErrorIs(err, ErrInvalidSignature, "recovery byte %d", i)
	}

	zeroR := append([]byte{}, good...)
	copy(zeroR[1:33], make([]byte, 32))
	_, err = ParseSignatureBytes(zeroR)
	assert.ErrorIs(err, ErrInvalidSignature)

	bigS := append([]byte{}, good...)
	copy(bigS[33:65], bytes.Repeat([]byte{0xff}, 32))
	_, err = ParseSignatureBytes(bigS)
	assert.ErrorIs(err, ErrInvalidSignature)

	_, err = ParseSignatureHex("zz")
	assert.ErrorIs(err, ErrInvalidSignature)

	_, err = ParseSignatureString("SIG_R1_" + base58check.Encode(good, "R1"))
	assert.ErrorIs(err, ErrUnsupportedKeyType)

	_, err = ParseSignatureString("SIG_K1_" + base58check.Encode(good, base58check.TagNone))
	assert.ErrorIs(err, ErrChecksumMismatch)

	_, err = ParseSignatureString(hex.EncodeToString(good))
	assert.ErrorIs(err, ErrInvalidSignature)

	assert.Nil(SignatureFromString("SIG_K1_"))
	assert.NotNil(SignatureFromString("SIG_K1_" + base58check.Encode(good, base58check.TagK1)))
}

func TestRecoveryByteVariants(t *testing.T) {
	assert := assert.New(t)

	priv, err := PrivateKeyFromSeed("")
	if err != nil {
		t.Fatal(err)
	}
	digest := SHA256([]byte("hello world"))
	sig, err := SignDigest(digest[:], priv)
	if err != nil {
		t.Fatal(err)
	}

	// the "uncompressed" recovery byte (i - 4) recovers the same point
	raw := sig.Bytes()
	raw[0] -= 4
	uncompressed, err := ParseSignatureBytes(raw)
	assert.NoError(err)
	recovered, err := uncompressed.RecoverDigest(digest[:])
	assert.NoError(err)
	assert.True(priv.PublicKey().Equal(recovered))

	// verification ignores the recovery byte entirely
	raw[0] = 27 + ((sig.RecoveryID() - 27 + 1) & 3)
	wrongID, err := ParseSignatureBytes(raw)
	assert.NoError(err)
	ok, err := wrongID.VerifyDigest(digest[:], priv.PublicKey())
	assert.NoError(err)
	assert.True(ok)
	if recovered, err := wrongID.RecoverDigest(digest[:]); err == nil {
		assert.False(priv.PublicKey().Equal(recovered))
	}
}

func TestIsCanonicalInt(t *testing.T) {
	assert := assert.New(t)

	b := make([]byte, 32)
	b[0] = 0x7f
	assert.True(isCanonicalInt(b))
	b[0] = 0x80
	assert.False(isCanonicalInt(b))
	b[0] = 0x00
	b[1] = 0x7f
	assert.False(isCanonicalInt(b))
	b[1] = 0x80
	assert.True(isCanonicalInt(b))
}

func TestNonceGenerator(t *testing.T) {
	assert := assert.New(t)

	key := bytes.Repeat([]byte{0x01}, 32)
	digest := SHA256([]byte("nonce"))

	g1 := newNonceGenerator(key, digest[:])
	g2 := newNonceGenerator(key, digest[:])
	k1, ok1 := g1.candidate()
	k2, ok2 := g2.candidate()
	assert.True(ok1)
	assert.True(ok2)
	assert.True(k1.Equals(&k2))

	g1.next()
	k3, _ := g1.candidate()
	assert.False(k1.Equals(&k3))

	g1.wipe()
	assert.Equal([32]byte{}, g1.k)
	assert.Equal([32]byte{}, g1.v)

	// first attempt uses the digest as-is, then re-hashes with zero padding
	assert.Equal(digest[:], attemptDigest(digest[:], 0))
	h := SHA256(digest[:], []byte{0x00, 0x00})
	assert.Equal(h[:], attemptDigest(digest[:], 2))
}
