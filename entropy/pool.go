package entropy

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/minio/sha256-simd"
)

const (
	// Number of accumulator slots that added entropy is folded into.
	PoolSize = 101

	// Contributions required before safe random bytes are handed out.
	MinContributions = 128

	// CPU timing samples gathered by [Pool.Initialize].
	DefaultCPUEntropyBits = 128
)

var ErrInsufficientEntropy = errors.New("insufficient entropy: call Initialize first")

// Entropy accumulator combining a secure random source, CPU timing jitter, caller supplied events, and an environment sample.
//
// A Pool is meant to be created once and shared by reference with everything that generates keys. Safe for concurrent use.
type Pool struct {
	mu    sync.Mutex
	slots [PoolSize]byte
	pos   int
	count int

	initMu      sync.Mutex
	initialized atomic.Bool

	selfCheck    func() error
	reader       io.Reader
	sampleWindow time.Duration
	envWindow    time.Duration
	logger       *slog.Logger
}

type Option func(*Pool)

// Check run once by [Pool.Initialize] before any entropy is gathered; an error aborts initialization.
func WithSelfCheck(check func() error) Option {
	return func(p *Pool) {
		p.selfCheck = check
	}
}

// Secure random source. Defaults to crypto/rand.
func WithReader(r io.Reader) Option {
	return func(p *Pool) {
		p.reader = r
	}
}

// Duration of each floating point counting window used for CPU timing samples. Defaults to 7ms.
func WithSampleWindow(d time.Duration) Option {
	return func(p *Pool) {
		p.sampleWindow = d
	}
}

// Duration the environment sample is re-hashed for. Defaults to 25ms.
func WithEnvironmentWindow(d time.Duration) Option {
	return func(p *Pool) {
		p.envWindow = d
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		p.logger = logger
	}
}

// Creates a new pool. The accumulator slots start out filled from the secure random source.
func NewPool(opts ...Option) (*Pool, error) {
	p := &Pool{
		reader:       rand.Reader,
		sampleWindow: 7 * time.Millisecond,
		envWindow:    25 * time.Millisecond,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "entropy")
	if _, err := io.ReadFull(p.reader, p.slots[:]); err != nil {
		return nil, fmt.Errorf("seeding entropy pool: %w", err)
	}
	return p, nil
}

// Runs the self check and gathers CPU entropy until the pool holds at least [MinContributions].
//
// Initialization happens once even if called multiple times. Concurrent callers block until the single run finishes. If that run fails, the error is returned and a later call may try again.
func (p *Pool) Initialize(ctx context.Context) error {
	if p.initialized.Load() {
		return nil
	}
	p.initMu.Lock()
	defer p.initMu.Unlock()
	if p.initialized.Load() {
		return nil
	}

	start := time.Now()
	if p.selfCheck != nil {
		if err := p.selfCheck(); err != nil {
			initializations.WithLabelValues("self_check_failed").Inc()
			return fmt.Errorf("entropy pool self check: %w", err)
		}
	}
	samples, err := p.CPUEntropy(ctx, DefaultCPUEntropyBits)
	if err != nil {
		initializations.WithLabelValues("cancelled").Inc()
		return err
	}
	p.AddEntropy(samples...)
	if p.Count() < MinContributions {
		initializations.WithLabelValues("insufficient").Inc()
		return ErrInsufficientEntropy
	}
	p.initialized.Store(true)
	initializations.WithLabelValues("ok").Inc()
	p.logger.Debug("entropy pool initialized", "contributions", p.Count(), "duration", time.Since(start))
	return nil
}

func (p *Pool) Initialized() bool {
	return p.initialized.Load()
}

// Folds caller supplied values (mouse coordinates, timings, counters) into the accumulator. Each value counts as one contribution, whatever its quality.
//
// Slot arithmetic wraps at 8 bits, so no input can overflow or reset the accumulator.
func (p *Pool) AddEntropy(ints ...int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.count += len(ints)
	for _, v := range ints {
		pos := p.pos % PoolSize
		p.pos++
		p.slots[pos] += byte(v)
	}
	contributions.Add(float64(len(ints)))
}

// Number of contributions added so far. Never decreases.
func (p *Pool) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

type RandomOptions struct {
	// Extra CPU timing samples to gather for this call. Usually zero; [Pool.Initialize] already gathered some.
	CPUEntropyBits int

	// Skip the [MinContributions] check. For tests only.
	Unsafe bool
}

// Returns 32 random bytes: SHA-256 over fresh secure random bytes, any requested CPU timing samples, the accumulator, and an environment sample.
//
// Fails with [ErrInsufficientEntropy] unless the pool has reached [MinContributions] or opts.Unsafe is set.
func (p *Pool) Random32Bytes(ctx context.Context, opts RandomOptions) ([]byte, error) {
	if !opts.Unsafe && p.Count() < MinContributions {
		return nil, ErrInsufficientEntropy
	}

	secure := make([]byte, 32)
	if _, err := io.ReadFull(p.reader, secure); err != nil {
		return nil, fmt.Errorf("reading secure random bytes: %w", err)
	}
	defer zero(secure)

	samples, err := p.CPUEntropy(ctx, opts.CPUEntropyBits)
	if err != nil {
		return nil, err
	}
	cpu := make([]byte, len(samples))
	for i, s := range samples {
		cpu[i] = byte(s)
	}

	p.mu.Lock()
	acc := p.slots
	p.mu.Unlock()
	defer zero(acc[:])

	env, err := p.environmentEntropy()
	if err != nil {
		return nil, err
	}

	h := sha256.New()
	h.Write(secure)
	h.Write(cpu)
	h.Write(acc[:])
	h.Write(env)
	return h.Sum(nil), nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
