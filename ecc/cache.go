package ecc

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Caches parsed public key strings, for verifiers which see the same keys over and over. Parsing a key decompresses a curve point, which is much slower than a map lookup.
//
// Only successful parses are cached. Safe for concurrent use.
type PublicKeyCache struct {
	Prefix string
	cache  *expirable.LRU[string, *PublicKey]
}

// Capacity of zero means unlimited size. Similarly, ttl of zero means unlimited duration. An empty prefix means [DefaultAddressPrefix].
func NewPublicKeyCache(prefix string, capacity int, ttl time.Duration) *PublicKeyCache {
	if prefix == "" {
		prefix = DefaultAddressPrefix
	}
	return &PublicKeyCache{
		Prefix: prefix,
		cache:  expirable.NewLRU[string, *PublicKey](capacity, nil, ttl),
	}
}

// Same as [ParsePublicString], using the cache's address prefix.
func (c *PublicKeyCache) Parse(s string) (*PublicKey, error) {
	if pub, ok := c.cache.Get(s); ok {
		publicKeyCacheHits.Inc()
		return pub, nil
	}
	publicKeyCacheMisses.Inc()
	pub, err := ParsePublicString(s, c.Prefix)
	if err != nil {
		return nil, err
	}
	c.cache.Add(s, pub)
	return pub, nil
}

// Recovers the signer of a digest, and adds the key to the cache under its legacy string form.
func (c *PublicKeyCache) Recover(sig *Signature, digest []byte) (*PublicKey, error) {
	pub, err := sig.RecoverDigest(digest)
	if err != nil {
		return nil, err
	}
	c.cache.Add(pub.LegacyString(c.Prefix), pub)
	return pub, nil
}

// Checks a signature over a digest against a public key string, parsing the key through the cache.
func (c *PublicKeyCache) VerifyDigest(sig *Signature, digest []byte, pubStr string) (bool, error) {
	pub, err := c.Parse(pubStr)
	if err != nil {
		return false, err
	}
	return sig.VerifyDigest(digest, pub)
}

func (c *PublicKeyCache) Len() int {
	return c.cache.Len()
}

func (c *PublicKeyCache) Purge() {
	c.cache.Purge()
}
