package publishers

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// router is implemented by publishers that only take some watches' events.
type router interface {
	Accepts(watchID string) bool
}

// routedPublisher limits a publisher to the configured watch ids.
type routedPublisher struct {
	Publisher
	watches []string
}

func (r *routedPublisher) Accepts(watchID string) bool {
	return slices.Contains(r.watches, watchID)
}

// withRouting wraps pub when cfg subscribes it to specific watches.
func withRouting(pub Publisher, cfg PublisherConfig) Publisher {
	if len(cfg.Watches) == 0 {
		return pub
	}
	return &routedPublisher{Publisher: pub, watches: slices.Clone(cfg.Watches)}
}

// Fanout dispatches events to all configured publishers.
type Fanout struct {
	publishers []Publisher
}

// NewFanout builds a dispatcher that fans out events across publishers.
func NewFanout(pubs []Publisher) *Fanout {
	cp := make([]Publisher, 0, len(pubs))
	for _, p := range pubs {
		if p == nil {
			continue
		}
		cp = append(cp, p)
	}
	return &Fanout{publishers: cp}
}

// Publish forwards the event to every publisher routed to its watch.
// It returns the number of publishers that successfully handled the event.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	if f == nil || len(f.publishers) == 0 {
		return 0, nil
	}

	var errs []error
	successful := 0
	for _, p := range f.publishers {
		if r, ok := p.(router); ok && !r.Accepts(evt.WatchID) {
			continue
		}
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, fmt.Errorf("%s publisher[%s]: %w", p.Type(), p.ID(), err))
		} else {
			successful++
		}
	}
	return successful, errors.Join(errs...)
}

// Size returns the number of active publishers.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.publishers)
}

// Close releases every publisher and joins their errors.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	var errs []error
	for _, p := range f.publishers {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s publisher[%s] close: %w", p.Type(), p.ID(), err))
		}
	}
	return errors.Join(errs...)
}
