package filesystem

import (
	"errors"
	"os"
	"syscall"
	"time"

	"imagedb/internal/logging"
	"imagedb/internal/metrics"
)

// RetryConfig configures retry behavior for filesystem operations
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns sensible defaults for NFS retry behavior
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

// isStaleError checks if an error is an NFS stale file handle error
func isStaleError(err error) bool {
	var errno syscall.Errno
	return errors.As(err, &errno) && errno == syscall.ESTALE
}

// Stat performs os.Stat, retrying stale file handle errors.
func Stat(path string, cfg RetryConfig) (os.FileInfo, error) {
	return withRetry("stat", path, cfg, func() (os.FileInfo, error) {
		return os.Stat(path)
	})
}

// ReadDir performs os.ReadDir, retrying stale file handle errors.
func ReadDir(path string, cfg RetryConfig) ([]os.DirEntry, error) {
	return withRetry("readdir", path, cfg, func() ([]os.DirEntry, error) {
		return os.ReadDir(path)
	})
}

// withRetry runs fn until it succeeds, fails with anything other than
// ESTALE, or runs out of retries. Backoff doubles up to cfg.MaxBackoff.
func withRetry[T any](op, path string, cfg RetryConfig, fn func() (T, error)) (T, error) {
	backoff := cfg.InitialBackoff

	for attempt := 0; ; attempt++ {
		v, err := fn()
		if err == nil {
			if attempt > 0 {
				logging.Info("NFS %s succeeded on retry %d for %s", op, attempt, path)
				metrics.FilesystemRetries.WithLabelValues(op, "success").Inc()
			}
			return v, nil
		}

		if !isStaleError(err) {
			return v, err
		}
		metrics.FilesystemStaleErrors.WithLabelValues(op).Inc()

		if attempt >= cfg.MaxRetries {
			logging.Warn("NFS %s failed after %d retries for %s: %v", op, cfg.MaxRetries, path, err)
			metrics.FilesystemRetries.WithLabelValues(op, "failure").Inc()
			return v, err
		}

		logging.Debug("NFS %s stale file handle for %s, retrying in %v (attempt %d/%d)",
			op, path, backoff, attempt+1, cfg.MaxRetries)
		time.Sleep(backoff)

		backoff *= 2
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}
}
