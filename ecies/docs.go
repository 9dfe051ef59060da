// ECIES-style authenticated encryption between two secp256k1 key holders.
//
// The sender's private key and the recipient's public key give a 64-byte shared secret (see [ecc.PrivateKey.SharedSecret]). A fresh 24-byte nonce is hashed with the secret to derive a NaCl secretbox key and nonce, and a short checksum. The recipient derives the same secret from their own private key and the sender's public key.
//
// The envelope format is compatible with eosjs-ecc "Aes" memos using tweetnacl secretbox.
package ecies
