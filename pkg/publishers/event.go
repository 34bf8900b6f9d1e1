package publishers

import (
	"time"

	"github.com/iscraper-project/iscraper-go/internal/domain"
)

// Event represents the payload published downstream.
type Event struct {
	WatchID     string     `json:"watch_id"`
	WatchName   string     `json:"watch_name"`
	Job         domain.Job `json:"job"`
	CollectedAt time.Time  `json:"collected_at"`
}

// NewEvent constructs an Event for a newly seen job.
func NewEvent(watchID, watchName string, job domain.Job) Event {
	return Event{
		WatchID:     watchID,
		WatchName:   watchName,
		Job:         job,
		CollectedAt: time.Now().UTC(),
	}
}

// attributes are the routing hints queue publishers attach to each message.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"watch_id":   e.WatchID,
		"job_id":     e.Job.ID,
		"company_id": e.Job.CompanyID,
	}
}
