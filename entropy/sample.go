package entropy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"time"

	"github.com/klauspost/cpuid/v2"
	"github.com/minio/sha256-simd"
)

// keeps the floating point loop from being optimized away
var fpSink float64

// Gathers bits samples of CPU timing jitter: the change, between consecutive windows, in how many floating point iterations fit in one sample window.
//
// Samples carrying fewer than 4 bits are discarded and re-sampled; a warning is logged if many of them were. This takes roughly bits times the sample window.
func (p *Pool) CPUEntropy(ctx context.Context, bits int) ([]int64, error) {
	collected := make([]int64, 0, bits)
	var lastCount int64
	haveLast := false
	lowEntropySamples := 0
	for len(collected) < bits {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("gathering CPU entropy: %w", err)
		}
		count := p.floatingPointCount()
		if haveLast {
			delta := count - lastCount
			mag := delta
			if mag < 0 {
				mag = -mag
			}
			if mag < 1 {
				lowEntropySamples++
				continue
			}
			// how many bits of entropy were in this sample
			sampleBits := int(math.Floor(math.Log2(float64(mag)) + 1))
			if sampleBits < 4 {
				if sampleBits < 2 {
					lowEntropySamples++
				}
				continue
			}
			collected = append(collected, delta)
		}
		lastCount = count
		haveLast = true
	}
	if lowEntropySamples > 10 {
		lowEntropyResamples.Add(float64(lowEntropySamples))
		pct := float64(lowEntropySamples) / float64(bits) * 100
		p.logger.Warn("low CPU entropy re-sampled", "percent", fmt.Sprintf("%.2f", pct), "samples", lowEntropySamples)
	}
	return collected, nil
}

// Counts floating point iterations completed within one sample window. Using a fixed time keeps the runtime predictable.
func (p *Pool) floatingPointCount() int64 {
	deadline := time.Now().Add(p.sampleWindow)
	var i int64
	x := 0.0
	for time.Now().Before(deadline) {
		i++
		x = math.Sin(math.Sqrt(math.Log(float64(i) + x)))
	}
	fpSink = x
	return i
}

// Hashes a description of the running process and machine together with extra secure random bytes, then re-hashes the result in a loop for the environment window.
func (p *Pool) environmentEntropy() ([]byte, error) {
	var buf bytes.Buffer
	extra := make([]byte, PoolSize)
	if _, err := io.ReadFull(p.reader, extra); err != nil {
		return nil, fmt.Errorf("reading secure random bytes: %w", err)
	}
	buf.Write(extra)
	zero(extra)

	host, _ := os.Hostname()
	fmt.Fprintf(&buf, "%s %s %d %d %s %s %d",
		time.Now().String(), host, os.Getpid(), os.Getppid(), runtime.GOOS, runtime.GOARCH, runtime.NumGoroutine())

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	fmt.Fprintf(&buf, " %d %d %d %d %d %d", ms.Alloc, ms.TotalAlloc, ms.Sys, ms.Mallocs, ms.Frees, ms.NumGC)

	cpu := cpuid.CPU
	fmt.Fprintf(&buf, " %s %s %d %d %d %d %d %d",
		cpu.BrandName, cpu.VendorString, cpu.PhysicalCores, cpu.LogicalCores, cpu.Family, cpu.Model, cpu.Hz, cpu.RTCounter())

	entropy := sha256.Sum256(buf.Bytes())
	start := time.Now()
	for time.Since(start) < p.envWindow {
		entropy = sha256.Sum256(entropy[:])
	}
	return entropy[:], nil
}
