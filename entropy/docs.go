// Entropy accumulator for private key generation.
//
// A [Pool] mixes a secure random source (crypto/rand by default) with CPU timing jitter, caller supplied events, and a hashed sample of the process environment. Key generation should not trust a single source: even a weak or broken system random number generator is backed up by the other inputs.
//
// [Pool.Initialize] must succeed before [Pool.Random32Bytes] hands out safe random bytes.
package entropy
