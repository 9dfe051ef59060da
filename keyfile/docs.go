// Passphrase protected storage for [ecc.PrivateKey], as small JSON files.
//
// The key is encrypted with XChaCha20-Poly1305 under a key derived from the passphrase with Argon2id. KDF parameters are recorded in the file, so they can be raised later without breaking existing files.
package keyfile
