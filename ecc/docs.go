// Keys, signatures and text encodings for secp256k1, compatible with the eosjs-ecc family of libraries.
//
// Private keys are written in the legacy Wallet Import Format ("5K...") by default, and parsed from either WIF or the structured "PVT_K1_..." form. Public keys are written with an address prefix ("EOS...") or as "PUB_K1_...". Signatures are 65 bytes (recovery byte, then R and S as fixed 32-byte big-endian integers) and are written as "SIG_K1_...". All of these encodings must agree byte-for-byte with other implementations; see the [base58check] package for the checksum rules.
//
// Signing is deterministic (an RFC 6979 style HMAC-SHA256 nonce), and only "canonical" signatures are produced: both R and S fit in 32 bytes without a DER sign-padding byte. Every signature carries a recovery byte, so the signer's public key can be recovered from the signature and digest alone.
//
// Secp256k1 group arithmetic is provided by <github.com/decred/dcrd/dcrec/secp256k1/v4>.
//
// This package uses concrete types for private keys, meaning that the secret key material is present in memory. The String and LogValue methods of [PrivateKey] are redacted; use [PrivateKey.WIF] or [PrivateKey.StructuredString] to export a key on purpose.
package ecc
