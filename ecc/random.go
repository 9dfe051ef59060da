package ecc

import (
	"context"
	"fmt"

	"github.com/bluesky-social/k1ecc/entropy"
)

// Creates an entropy pool whose initialization runs [SelfTest].
func NewEntropyPool(opts ...entropy.Option) (*entropy.Pool, error) {
	opts = append([]entropy.Option{entropy.WithSelfCheck(SelfTest)}, opts...)
	return entropy.NewPool(opts...)
}

// Creates a new random private key, initializing the pool first if needed.
func RandomPrivateKey(ctx context.Context, pool *entropy.Pool) (*PrivateKey, error) {
	if err := pool.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("private key generation failed: %w", err)
	}
	return randomPrivateKey(ctx, pool, entropy.RandomOptions{})
}

// Creates a random private key without requiring an initialized pool. For tests.
func UnsafeRandomPrivateKey(ctx context.Context, pool *entropy.Pool) (*PrivateKey, error) {
	return randomPrivateKey(ctx, pool, entropy.RandomOptions{Unsafe: true})
}

func randomPrivateKey(ctx context.Context, pool *entropy.Pool, opts entropy.RandomOptions) (*PrivateKey, error) {
	raw, err := pool.Random32Bytes(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("private key generation failed: %w", err)
	}
	defer zero(raw)
	return ParsePrivateBytes(raw)
}
