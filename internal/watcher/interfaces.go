package watcher

import (
	"context"

	"github.com/iscraper-project/iscraper-go/pkg/iscraper"
	"github.com/iscraper-project/iscraper-go/pkg/publishers"
)

// JobsAPI is the part of the iScraper client the watcher drives.
type JobsAPI interface {
	GetJobs(ctx context.Context, companyID string, opts iscraper.JobsOptions) (any, error)
	JobDetails(ctx context.Context, jobID string, htmlDescription bool) (any, error)
}

// EventPublisher publishes job events downstream and reports how many sinks accepted each one.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Deduper remembers which jobs were already published.
type Deduper interface {
	SeenJob(key string) (bool, error)
	MarkJob(key string) error
}
