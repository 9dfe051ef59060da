package ecc

import (
	"fmt"
)

// Known answers checked by SelfTest.
const (
	selfTestWIF       = "5KYZdUEo39z3FPrtuX2QbbwGnNP5zTd7yyr2SC1j299sBCnWjss"
	selfTestPublic    = "EOS859gxfnXyUriMgUeThh1fWv3oqcpLFyHa3TfFYC4PK2HqhToVM"
	selfTestSignerWIF = "5HxQKWDznancXZXm7Gr2guadK7BhK9Zs8ejDhfA9oEBM89ZaAru"
	selfTestSignature = "SIG_K1_Jz9d1rKmMV51EY6dnU3pNaDiLvGTeVdxDZGvJEfAkdcwzs97gNg5yYPhPSdEg33Jyp5736Tnnzccf1p6h6vedXpHSUBio1"
)

// Checks key derivation, text encodings, signing and recovery against fixed known answers.
//
// This guards against silent corruption of the curve arithmetic (for example a miscompiled assembly routine) before any random key is generated. It is wired in as the entropy pool self check by [NewEntropyPool].
func SelfTest() error {
	pvt, err := PrivateKeyFromSeed("")
	if err != nil {
		return fmt.Errorf("self test: seed key: %w", err)
	}
	if pvt.WIF() != selfTestWIF {
		return fmt.Errorf("self test: key comparison test failed on a known private key")
	}
	pub := pvt.PublicKey()
	if pub.LegacyString(DefaultAddressPrefix) != selfTestPublic {
		return fmt.Errorf("self test: pubkey string comparison test failed on a known public key")
	}
	if _, err := ParsePrivateString(pvt.WIF()); err != nil {
		return fmt.Errorf("self test: converting known wif from string: %w", err)
	}
	if _, err := ParsePrivateString(pvt.StructuredString()); err != nil {
		return fmt.Errorf("self test: converting known pvt from string: %w", err)
	}
	if _, err := ParsePublicString(selfTestPublic, DefaultAddressPrefix); err != nil {
		return fmt.Errorf("self test: converting known public key from string: %w", err)
	}

	signer, err := ParsePrivateString(selfTestSignerWIF)
	if err != nil {
		return fmt.Errorf("self test: signer key: %w", err)
	}
	var digest [32]byte
	sig, err := SignDigest(digest[:], signer)
	if err != nil {
		return fmt.Errorf("self test: signing: %w", err)
	}
	if sig.String() != selfTestSignature {
		return fmt.Errorf("self test: signature comparison test failed on a known signature")
	}
	ok, err := sig.VerifyDigest(digest[:], signer.PublicKey())
	if err != nil || !ok {
		return fmt.Errorf("self test: known signature did not verify")
	}
	recovered, err := sig.RecoverDigest(digest[:])
	if err != nil {
		return fmt.Errorf("self test: recovering known signature: %w", err)
	}
	if !recovered.Equal(signer.PublicKey()) {
		return fmt.Errorf("self test: recovered public key does not match signer")
	}
	return nil
}
