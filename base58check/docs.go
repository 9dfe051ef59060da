// Base58 with a four byte checksum suffix, in the variants used by EOS style key and signature strings.
//
// The checksum algorithm is selected by a type tag: double SHA-256 for legacy WIF private keys, RIPEMD-160 of the payload for legacy public keys, and RIPEMD-160 of the payload followed by the tag (eg "K1") for structured PVT_/PUB_/SIG_ strings.
package base58check
