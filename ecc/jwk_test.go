package ecc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJWK(t *testing.T) {
	assert := assert.New(t)

	pub, err := ParsePublicString(seedPublic, "")
	if err != nil {
		t.Fatal(err)
	}
	jwk, err := pub.JWK()
	assert.NoError(err)
	assert.Equal("EC", jwk.KeyType)
	assert.Equal("secp256k1", jwk.Curve)
	assert.Equal("o0uZ8ix5DE42srPCw1o22wYibkHGkvyCuLVqwcVAxb0", jwk.X)
	assert.Equal("W43sUjWg-ociR2x3CcAlWeOqc6oDkYui1JLup1q-ojU", jwk.Y)

	jwkBytes, err := json.Marshal(jwk)
	assert.NoError(err)
	parsed, err := ParsePublicJWKBytes(jwkBytes)
	assert.NoError(err)
	assert.True(pub.Equal(parsed))
	assert.Equal(seedPublic, parsed.String())
}

func TestJWKErrors(t *testing.T) {
	assert := assert.New(t)

	valid := JWK{
		KeyType: "EC",
		Curve:   "secp256k1",
		X:       "o0uZ8ix5DE42srPCw1o22wYibkHGkvyCuLVqwcVAxb0",
		Y:       "W43sUjWg-ociR2x3CcAlWeOqc6oDkYui1JLup1q-ojU",
	}
	_, err := ParsePublicJWK(valid)
	assert.NoError(err)

	p256 := valid
	p256.Curve = "P-256"
	_, err = ParsePublicJWK(p256)
	assert.ErrorIs(err, ErrUnsupportedKeyType)

	okp := valid
	okp.KeyType = "OKP"
	_, err = ParsePublicJWK(okp)
	assert.ErrorIs(err, ErrUnsupportedKeyType)

	// y of a different point
	offCurve := valid
	offCurve.Y = offCurve.X
	_, err = ParsePublicJWK(offCurve)
	assert.ErrorIs(err, ErrInvalidKey)

	short := valid
	short.X = "o0uZ8ix5"
	_, err = ParsePublicJWK(short)
	assert.ErrorIs(err, ErrInvalidKey)

	_, err = ParsePublicJWKBytes([]byte("{"))
	assert.Error(err)
}
