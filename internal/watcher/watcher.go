// Package watcher polls company job listings and publishes postings it has not seen before.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iscraper-project/iscraper-go/internal/domain"
	"github.com/iscraper-project/iscraper-go/internal/logger"
	"github.com/iscraper-project/iscraper-go/internal/storage"
	"github.com/iscraper-project/iscraper-go/pkg/iscraper"
	"github.com/iscraper-project/iscraper-go/pkg/publishers"
	"github.com/iscraper-project/iscraper-go/pkg/watches"
)

// Service runs watch passes.
type Service struct {
	api       JobsAPI
	publisher EventPublisher
	dedupe    Deduper
	log       logger.Logger
}

// NewService wires a watcher. A nil deduper publishes every job on every pass.
func NewService(api JobsAPI, pub EventPublisher, dedupe Deduper, log logger.Logger) *Service {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &Service{
		api:       api,
		publisher: pub,
		dedupe:    dedupe,
		log:       log,
	}
}

// Result summarizes one watch pass.
type Result struct {
	WatchID   string
	Found     int
	New       int
	Published int
}

// Run executes a pass for every given watch. A failing watch does not stop
// the others; their errors are joined.
func (s *Service) Run(ctx context.Context, ws []watches.Watch) error {
	if s == nil || s.api == nil {
		return fmt.Errorf("watcher service is not initialized")
	}
	if len(ws) == 0 {
		return fmt.Errorf("no watches configured")
	}

	if errs := s.runAll(ctx, ws); len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (s *Service) runAll(ctx context.Context, ws []watches.Watch) []error {
	errs := make([]error, 0, len(ws))

	for _, w := range ws {
		if ctx.Err() != nil {
			break
		}
		res, err := s.RunWatch(ctx, w)
		if err != nil {
			errs = append(errs, err)
			s.log.ErrorObj("watch pass failed", "watch_error", map[string]any{
				"watch_id": w.ID,
				"error":    err.Error(),
			})
			continue
		}
		s.log.InfoObj("watch pass completed", "watch_result", map[string]any{
			"watch_id":  res.WatchID,
			"found":     res.Found,
			"new":       res.New,
			"published": res.Published,
		})
	}

	return errs
}

// RunWatch lists the watch's jobs, publishes the unseen ones and marks each
// job seen once at least one publisher accepted it.
func (s *Service) RunWatch(ctx context.Context, w watches.Watch) (Result, error) {
	res := Result{WatchID: w.ID}

	ids, err := s.listJobIDs(ctx, w)
	if err != nil {
		return res, err
	}
	res.Found = len(ids)

	fresh := s.filterNew(w, ids)
	res.New = len(fresh)

	var errs []error
	for i, id := range fresh {
		job := domain.Job{ID: id, CompanyID: w.CompanyID}

		if w.FetchDetails {
			if i > 0 {
				if err := sleepCtx(ctx, w.RequestDelay()); err != nil {
					return res, err
				}
			}
			details, err := s.api.JobDetails(ctx, id, w.HTMLDescription)
			if err != nil {
				errs = append(errs, fmt.Errorf("job details %s: %w", id, err))
				continue
			}
			if w.HTMLDescription {
				details = AddDescriptionText(details)
			}
			job.Details = details
		}

		if s.publisher == nil {
			continue
		}
		n, err := s.publisher.Publish(ctx, publishers.NewEvent(w.ID, w.Name, job))
		if err != nil {
			errs = append(errs, fmt.Errorf("publish job %s: %w", id, err))
		}
		if n == 0 {
			continue
		}
		res.Published++
		if s.dedupe != nil {
			if err := s.dedupe.MarkJob(storage.JobKey(w.ID, id)); err != nil {
				errs = append(errs, fmt.Errorf("mark job %s: %w", id, err))
			}
		}
	}

	if len(errs) > 0 {
		return res, fmt.Errorf("watch %s: %w", w.ID, errors.Join(errs...))
	}
	return res, nil
}

// listJobIDs pages through GetJobs and returns the distinct ids across pages.
// Paging stops early on a page that yields no ids.
func (s *Service) listJobIDs(ctx context.Context, w watches.Watch) ([]string, error) {
	ex, err := watches.NewExtractor(w.IDQuery)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", w.ID, err)
	}

	var ids []string
	seen := make(map[string]struct{})
	for page := 0; page < w.Pages; page++ {
		if page > 0 {
			if err := sleepCtx(ctx, w.RequestDelay()); err != nil {
				return nil, err
			}
		}

		result, err := s.api.GetJobs(ctx, w.CompanyID, iscraper.JobsOptions{
			Offset: page * iscraper.DefaultPerPage,
			GeoID:  w.GeoID,
		})
		if err != nil {
			return nil, fmt.Errorf("watch %s: get jobs page %d: %w", w.ID, page, err)
		}

		pageIDs, qerrs := ex.IDs(result)
		for _, qerr := range qerrs {
			s.log.WarnObj("job id query error", "query_error", map[string]any{
				"watch_id": w.ID,
				"query":    ex.Query(),
				"error":    qerr.Error(),
			})
		}
		if len(pageIDs) == 0 {
			break
		}
		for _, id := range pageIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// filterNew drops jobs already marked for this watch. Lookup failures keep
// the job so it is not silently lost.
func (s *Service) filterNew(w watches.Watch, ids []string) []string {
	if s.dedupe == nil {
		return ids
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		seen, err := s.dedupe.SeenJob(storage.JobKey(w.ID, id))
		if err != nil {
			s.log.WarnObj("seen-job lookup failed", "dedupe_error", map[string]any{
				"watch_id": w.ID,
				"job_id":   id,
				"error":    err.Error(),
			})
			out = append(out, id)
			continue
		}
		if !seen {
			out = append(out, id)
		}
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
