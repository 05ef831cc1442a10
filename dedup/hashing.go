package dedup

import (
	"context"
	"encoding/hex"
	"io"
	"os"
	"runtime"
	"sync/atomic"

	"github.com/zeebo/blake3"
	"golang.org/x/sync/errgroup"

	"github.com/diskwatch/diskwatch/progress"
)

// pathsPerWorkerChunk is how many candidate paths one worker task hashes before
// yielding, per spec.md §5's "chunks of ~32-64 paths per worker task".
const pathsPerWorkerChunk = 48

// HashError attaches a path to the error encountered hashing it.
type HashError struct {
	Path string
	Err  string
}

func partialDigest(path string, prefixBytes int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close() //nolint:errcheck

	h := blake3.New()

	if _, err := io.CopyN(h, f, prefixBytes); err != nil && err != io.EOF {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func fullDigest(path string, chunkBytes int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close() //nolint:errcheck

	h := blake3.New()
	buf := make([]byte, chunkBytes)

	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// hashResult pairs a path with its digest or error.
type hashResult struct {
	path   string
	digest string
	err    error
}

// runHashPool hashes paths concurrently using a worker pool sized from the
// CPU count, dispatching pathsPerWorkerChunk paths per task. This replaces
// the source's multi-process-with-thread-fallback model with a single
// pool of goroutines, per spec.md §9.
func runHashPool(ctx context.Context, paths []string, reporter progress.Reporter, hash func(string) (string, error)) ([]hashResult, error) {
	results := make([]hashResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	var hashed int64

	for start := 0; start < len(paths); start += pathsPerWorkerChunk {
		start := start

		end := start + pathsPerWorkerChunk
		if end > len(paths) {
			end = len(paths)
		}

		g.Go(func() error {
			for i := start; i < end; i++ {
				if ctx.Err() != nil {
					return ctx.Err()
				}

				digest, err := hash(paths[i])
				results[i] = hashResult{path: paths[i], digest: digest, err: err}
				atomic.AddInt64(&hashed, 1)
			}

			reporter.Report(progress.Update{Phase: progress.PhaseHashing, FilesSeen: atomic.LoadInt64(&hashed)})

			return nil
		})
	}

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return results, err
	}

	return results, nil
}
