// Package checksum computes the MD5 checksums drivesync compares: one per
// file, and one per directory derived from the files it contains.
package checksum

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"sync"

	"github.com/sdejongh/drivesync/pkg/ratelimit"
	"github.com/sdejongh/drivesync/pkg/storage"
)

// Calculator streams files from a backend through MD5
type Calculator struct {
	bufferSize int
	bufferPool *sync.Pool
	limiter    *ratelimit.Limiter
}

// NewCalculator creates a calculator reading with the given buffer size.
// limiter may be nil.
func NewCalculator(bufferSize int, limiter *ratelimit.Limiter) *Calculator {
	if bufferSize < 4096 {
		bufferSize = 4096
	}
	return &Calculator{
		bufferSize: bufferSize,
		limiter:    limiter,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, bufferSize)
				return &buf
			},
		},
	}
}

// FileChecksum returns the lowercase hex MD5 of a file's content
func (c *Calculator) FileChecksum(ctx context.Context, backend storage.Backend, drivePath string) (string, error) {
	reader, err := backend.Read(ctx, drivePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	reader = ratelimit.NewReadCloser(ctx, reader, c.limiter)
	defer reader.Close()

	return c.Sum(ctx, reader)
}

// Sum returns the lowercase hex MD5 of everything read from r
func (c *Calculator) Sum(ctx context.Context, r io.Reader) (string, error) {
	hasher := md5.New()

	bufPtr := c.bufferPool.Get().(*[]byte)
	buffer := *bufPtr
	defer c.bufferPool.Put(bufPtr)

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		n, err := r.Read(buffer)
		if n > 0 {
			hasher.Write(buffer[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
