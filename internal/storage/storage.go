// Package storage remembers which job postings a watch has already published.
package storage

import (
	"fmt"
	"strings"
	"time"
)

// Store tracks seen job keys.
type Store interface {
	Close() error
	SeenJob(key string) (bool, error)
	MarkJob(key string) error
	Len() (int, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	JobTTL          time.Duration
	CleanupInterval time.Duration
}

const (
	defaultJobTTL          = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// JobKey scopes a job id to the watch that found it, so two watches over the
// same company publish independently.
func JobKey(watchID, jobID string) string {
	return watchID + ":" + jobID
}

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		store, err := openBolt(path, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.JobTTL <= 0 {
		opts.JobTTL = defaultJobTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                 { return nil }
func (noopStore) SeenJob(string) (bool, error) { return false, nil }
func (noopStore) MarkJob(string) error         { return nil }
func (noopStore) Len() (int, error)            { return 0, nil }
