package entropy

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fastPool(t *testing.T, opts ...Option) *Pool {
	opts = append([]Option{
		WithSampleWindow(200 * time.Microsecond),
		WithEnvironmentWindow(time.Millisecond),
	}, opts...)
	p, err := NewPool(opts...)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestAddEntropy(t *testing.T) {
	assert := assert.New(t)

	// all-zero secure source, so slot contents are predictable
	p := fastPool(t, WithReader(bytes.NewReader(make([]byte, PoolSize))))
	assert.Equal(0, p.Count())

	p.AddEntropy(1, 2, 3)
	assert.Equal(3, p.Count())
	assert.Equal(byte(1), p.slots[0])
	assert.Equal(byte(3), p.slots[2])

	// wraps around the pool, and slot arithmetic wraps at 8 bits
	values := make([]int64, PoolSize-3)
	p.AddEntropy(values...)
	p.AddEntropy(255, -1, 1<<40+7)
	assert.Equal(PoolSize+3, p.Count())
	assert.Equal(byte(0), p.slots[0])
	assert.Equal(byte(1), p.slots[1])
	assert.Equal(byte(10), p.slots[2])

	p.AddEntropy()
	assert.Equal(PoolSize+3, p.Count())
}

func TestAddEntropyConcurrent(t *testing.T) {
	p := fastPool(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				p.AddEntropy(int64(i), int64(j))
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 16*100*2, p.Count())
}

func TestInitializeOnce(t *testing.T) {
	assert := assert.New(t)

	var checks atomic.Int32
	p := fastPool(t, WithSelfCheck(func() error {
		checks.Add(1)
		return nil
	}))

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = p.Initialize(context.Background())
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(err)
	}
	assert.Equal(int32(1), checks.Load())
	assert.True(p.Initialized())
	assert.GreaterOrEqual(p.Count(), MinContributions)

	// later calls are no-ops
	count := p.Count()
	assert.NoError(p.Initialize(context.Background()))
	assert.Equal(int32(1), checks.Load())
	assert.Equal(count, p.Count())
}

func TestInitializeSelfCheckFailure(t *testing.T) {
	assert := assert.New(t)

	broken := errors.New("broken arithmetic")
	fail := true
	p := fastPool(t, WithSelfCheck(func() error {
		if fail {
			return broken
		}
		return nil
	}))

	err := p.Initialize(context.Background())
	assert.ErrorIs(err, broken)
	assert.False(p.Initialized())
	assert.Equal(0, p.Count())

	// a failed initialization may be retried
	fail = false
	assert.NoError(p.Initialize(context.Background()))
	assert.True(p.Initialized())
}

func TestRandom32Bytes(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	p := fastPool(t)
	_, err := p.Random32Bytes(ctx, RandomOptions{})
	assert.ErrorIs(err, ErrInsufficientEntropy)

	unsafe, err := p.Random32Bytes(ctx, RandomOptions{Unsafe: true})
	assert.NoError(err)
	assert.Equal(32, len(unsafe))

	assert.NoError(p.Initialize(ctx))
	r1, err := p.Random32Bytes(ctx, RandomOptions{})
	assert.NoError(err)
	r2, err := p.Random32Bytes(ctx, RandomOptions{CPUEntropyBits: 4})
	assert.NoError(err)
	assert.Equal(32, len(r1))
	assert.NotEqual(r1, r2)

	// caller supplied entropy also counts toward the threshold
	manual := fastPool(t)
	for i := 0; i < MinContributions; i++ {
		manual.AddEntropy(int64(i * 7919))
	}
	_, err = manual.Random32Bytes(ctx, RandomOptions{})
	assert.NoError(err)
}

func TestReaderFailure(t *testing.T) {
	assert := assert.New(t)

	_, err := NewPool(WithReader(bytes.NewReader(make([]byte, 10))))
	assert.Error(err)

	// enough bytes to seed the slots, but not for a draw
	p := fastPool(t, WithReader(bytes.NewReader(make([]byte, PoolSize+8))))
	_, err = p.Random32Bytes(context.Background(), RandomOptions{Unsafe: true})
	assert.Error(err)
}

func TestCPUEntropy(t *testing.T) {
	assert := assert.New(t)

	p := fastPool(t)
	samples, err := p.CPUEntropy(context.Background(), 16)
	assert.NoError(err)
	assert.Equal(16, len(samples))
	for _, s := range samples {
		// every kept sample carries at least 4 bits
		assert.True(s >= 8 || s <= -8, "sample %d", s)
	}

	none, err := p.CPUEntropy(context.Background(), 0)
	assert.NoError(err)
	assert.Empty(none)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	_, err = p.CPUEntropy(ctx, 1<<20)
	assert.ErrorIs(err, context.DeadlineExceeded)
}
