package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iscraper-project/iscraper-go/internal/config"
	"github.com/iscraper-project/iscraper-go/internal/logger"
	"github.com/iscraper-project/iscraper-go/internal/storage"
	"github.com/iscraper-project/iscraper-go/internal/watcher"
	"github.com/iscraper-project/iscraper-go/pkg/iscraper"
	"github.com/iscraper-project/iscraper-go/pkg/publishers"
	"github.com/iscraper-project/iscraper-go/pkg/watches"
)

// JobWatch represents the job watch runtime. It owns the API client, the
// publishers and the seen-job store, and drives the poll loop.
type JobWatch struct {
	cfg          *config.Config
	watches      []watches.Watch
	fanout       *publishers.Fanout
	client       *iscraper.Client
	service      *watcher.Service
	pollInterval time.Duration
	log          logger.Logger
	store        storage.Store
}

// NewJobWatch builds a job watch runtime from config files.
func NewJobWatch(ctx context.Context, cfg *config.Config, log logger.Logger) (*JobWatch, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}

	watchReg, err := watches.LoadRegistry(cfg.WatchesFile)
	if err != nil {
		return nil, fmt.Errorf("load watches registry: %w", err)
	}
	selected, err := selectWatches(watchReg, cfg.WatchIDs)
	if err != nil {
		return nil, err
	}
	watchIDs := make([]string, 0, len(selected))
	for _, w := range selected {
		watchIDs = append(watchIDs, w.ID)
	}
	log.InfoObj("watches registry loaded", "watches_meta", map[string]any{
		"count":    len(watchReg.All()),
		"selected": watchIDs,
	})

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}
	if unrouted := publishers.Unrouted(enabledPublishers, watchIDs); len(unrouted) > 0 {
		return nil, fmt.Errorf("watches %v have no enabled publisher routed to them", unrouted)
	}

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients)
	publisherSummaries := make([]map[string]any, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]any{
			"id":      pubCfg.ID,
			"type":    pubCfg.Type,
			"watches": pubCfg.Watches,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		JobTTL:          cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("init storage: %w", err), fanout.Close())
	}
	stored, _ := store.Len()
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"job_ttl_seconds":          int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
		"stored_jobs":              stored,
	})

	client, err := iscraper.New(cfg.APIKey,
		iscraper.WithBaseURL(cfg.BaseURL),
		iscraper.WithTimeout(cfg.HTTPTimeout),
		iscraper.WithLogger(log),
	)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("init iscraper client: %w", err), fanout.Close(), store.Close())
	}

	return &JobWatch{
		cfg:          cfg,
		watches:      selected,
		fanout:       fanout,
		client:       client,
		service:      watcher.NewService(client, fanout, store, log),
		pollInterval: cfg.PollInterval,
		log:          log,
		store:        store,
	}, nil
}

// Run starts the poll loop until the context is cancelled.
func (j *JobWatch) Run(ctx context.Context) error {
	if j == nil || j.service == nil {
		return fmt.Errorf("job watch is not initialized")
	}
	defer j.close()

	ws := j.watches
	if len(ws) == 0 {
		j.log.WarnObj("no watches enabled; job watch idle", "watches_file", j.cfg.WatchesFile)
		<-ctx.Done()
		return ctx.Err()
	}

	j.log.InfoObj("job watch loop starting", "jobwatch_state", map[string]any{
		"watches_count":    len(ws),
		"publishers_count": j.fanout.Size(),
		"poll_interval":    j.pollInterval.String(),
	})

	if err := j.runOnce(ctx, ws); err != nil {
		j.log.ErrorObj("initial pass failed", "error", err)
	}

	ticker := time.NewTicker(j.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.log.InfoObj("job watch loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := j.runOnce(ctx, ws); err != nil {
				j.log.ErrorObj("scheduled pass failed", "error", err)
			}
		}
	}
}

// runOnce performs a single pass across all enabled watches.
func (j *JobWatch) runOnce(ctx context.Context, ws []watches.Watch) error {
	start := time.Now()
	j.log.InfoObj("watch pass started", "pass_meta", map[string]any{
		"watches_count": len(ws),
		"started_at":    start.UTC(),
	})
	if err := j.service.Run(ctx, ws); err != nil {
		return err
	}
	j.log.InfoObj("watch pass completed", "pass_meta", map[string]any{
		"watches_count": len(ws),
		"elapsed_ms":    time.Since(start).Milliseconds(),
	})
	return nil
}

// selectWatches returns the watches named in ids, in that order, whatever
// their enabled flag. Without ids it returns the enabled watches.
func selectWatches(reg *watches.Registry, ids []string) ([]watches.Watch, error) {
	if len(ids) == 0 {
		return reg.Enabled(), nil
	}
	out := make([]watches.Watch, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		w, ok := reg.ByID(id)
		if !ok {
			return nil, fmt.Errorf("watch %q selected by watch_ids is not defined in the watches file", id)
		}
		out = append(out, w)
	}
	return out, nil
}

// close releases the store, publishers and client, logging any errors encountered.
func (j *JobWatch) close() {
	if j.store != nil {
		if err := j.store.Close(); err != nil {
			j.log.ErrorObj("storage close failed", "error", err)
		}
	}
	if err := j.fanout.Close(); err != nil {
		j.log.ErrorObj("publishers close failed", "error", err)
	}
	j.client.Close()
}
