package ecc

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Representation of a JSON Web Key (JWK) for a secp256k1 public key ("ES256K").
//
// Expected to be marshalled/unmarshalled as JSON.
type JWK struct {
	KeyType string  `json:"kty"`
	Curve   string  `json:"crv"`
	X       string  `json:"x"` // base64url, no padding
	Y       string  `json:"y"` // base64url, no padding
	Use     string  `json:"use,omitempty"`
	KeyID   *string `json:"kid,omitempty"`
}

// Loads a [PublicKey] from JWK (serialized as JSON bytes)
func ParsePublicJWKBytes(jwkBytes []byte) (*PublicKey, error) {
	var jwk JWK
	if err := json.Unmarshal(jwkBytes, &jwk); err != nil {
		return nil, fmt.Errorf("parsing JWK JSON: %w", err)
	}
	return ParsePublicJWK(jwk)
}

// Loads a [PublicKey] from JWK struct.
func ParsePublicJWK(jwk JWK) (*PublicKey, error) {
	if jwk.KeyType != "EC" {
		return nil, fmt.Errorf("%w: JWK key type %s", ErrUnsupportedKeyType, jwk.KeyType)
	}
	if jwk.Curve != "secp256k1" {
		return nil, fmt.Errorf("%w: JWK curve %s", ErrUnsupportedKeyType, jwk.Curve)
	}

	// base64url with no encoding
	xbuf, err := base64.RawURLEncoding.DecodeString(jwk.X)
	if err != nil {
		return nil, fmt.Errorf("invalid JWK base64 encoding: %w", err)
	}
	ybuf, err := base64.RawURLEncoding.DecodeString(jwk.Y)
	if err != nil {
		return nil, fmt.Errorf("invalid JWK base64 encoding: %w", err)
	}
	if len(xbuf) != 32 || len(ybuf) != 32 {
		return nil, fmt.Errorf("%w: invalid K-256 coordinates", ErrInvalidKey)
	}

	var x, y secp256k1.FieldVal
	if overflow := x.SetByteSlice(xbuf); overflow {
		return nil, fmt.Errorf("%w: x coordinate out of range", ErrInvalidKey)
	}
	if overflow := y.SetByteSlice(ybuf); overflow {
		return nil, fmt.Errorf("%w: y coordinate out of range", ErrInvalidKey)
	}
	pub := secp256k1.NewPublicKey(&x, &y)
	if !pub.IsOnCurve() {
		return nil, fmt.Errorf("%w: not on curve", ErrInvalidKey)
	}
	return &PublicKey{key: pub, compressed: true}, nil
}

func (k *PublicKey) JWK() (*JWK, error) {
	raw := k.UncompressedBytes()
	if len(raw) != 65 {
		return nil, fmt.Errorf("unexpected K-256 bytes size")
	}
	xbytes := raw[1:33]
	ybytes := raw[33:65]
	jwk := JWK{
		KeyType: "EC",
		Curve:   "secp256k1",
		X:       base64.RawURLEncoding.EncodeToString(xbytes),
		Y:       base64.RawURLEncoding.EncodeToString(ybytes),
	}
	return &jwk, nil
}
