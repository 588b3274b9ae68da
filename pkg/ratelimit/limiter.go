// Package ratelimit caps the read bandwidth used while hashing the server
// tree, so a reconciliation can run next to live traffic.
package ratelimit

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/docker/go-units"
	"golang.org/x/time/rate"
)

// minBucket keeps bursts large enough for whole hashing buffers
const minBucket = 64 * 1024

// Limiter is a byte budget shared by every reader of one run. A nil
// *Limiter does not limit.
type Limiter struct {
	lim   *rate.Limiter
	burst int
}

// NewLimiter returns a limiter for bytesPerSecond, or nil when the value is
// not positive. The burst is one second of data, at least 64 KiB.
func NewLimiter(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}
	burst := bytesPerSecond
	if burst < minBucket {
		burst = minBucket
	}
	return &Limiter{
		lim:   rate.NewLimiter(rate.Limit(bytesPerSecond), int(burst)),
		burst: int(burst),
	}
}

// Rate returns the configured bytes per second, 0 for a nil limiter
func (l *Limiter) Rate() int64 {
	if l == nil {
		return 0
	}
	return int64(l.lim.Limit())
}

// Wait blocks until n bytes may be read. Requests larger than the burst are
// capped to it.
func (l *Limiter) Wait(ctx context.Context, n int) error {
	if l == nil || n <= 0 {
		return nil
	}
	if n > l.burst {
		n = l.burst
	}
	return l.lim.WaitN(ctx, n)
}

type readCloser struct {
	ctx     context.Context
	rc      io.ReadCloser
	limiter *Limiter
}

// NewReadCloser limits reads from rc. rc is returned unchanged for a nil
// limiter.
func NewReadCloser(ctx context.Context, rc io.ReadCloser, limiter *Limiter) io.ReadCloser {
	if limiter == nil {
		return rc
	}
	return &readCloser{ctx: ctx, rc: rc, limiter: limiter}
}

func (r *readCloser) Read(p []byte) (int, error) {
	if len(p) > r.limiter.burst {
		p = p[:r.limiter.burst]
	}
	if err := r.limiter.Wait(r.ctx, len(p)); err != nil {
		return 0, err
	}
	return r.rc.Read(p)
}

func (r *readCloser) Close() error {
	return r.rc.Close()
}

// ParseBandwidth parses a bandwidth such as "512K", "10M", "1G" or a plain
// byte count. Units are binary; "B", "iB" and a trailing "/s" are accepted.
// An empty string or "0" means unlimited.
func ParseBandwidth(s string) (int64, error) {
	v := strings.TrimSpace(s)
	if len(v) >= 2 && strings.EqualFold(v[len(v)-2:], "/s") {
		v = v[:len(v)-2]
	}
	if v == "" {
		return 0, nil
	}

	n, err := units.RAMInBytes(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid bandwidth %q", s)
	}
	return n, nil
}
