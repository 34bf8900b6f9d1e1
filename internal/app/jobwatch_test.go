package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/iscraper-project/iscraper-go/internal/config"
	"github.com/iscraper-project/iscraper-go/pkg/publishers"
	"github.com/iscraper-project/iscraper-go/pkg/watches"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestJobWatchPublishesNewJobsOnce(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != "k" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/v2/get-jobs" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"job_id":"1"},{"job_id":"2"}]}`))
	}))
	defer api.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var delivered atomic.Int32
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var evt publishers.Event
		if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
			t.Errorf("decode event: %v", err)
		}
		if evt.WatchID != "acme" {
			t.Errorf("unexpected watch id %q", evt.WatchID)
		}
		if delivered.Add(1) == 2 {
			cancel()
		}
	}))
	defer sink.Close()

	dir := t.TempDir()
	watchesFile := writeFile(t, dir, "watches.yaml", `
watches:
  - id: acme
    name: Acme
    company_id: "1441"
`)
	publishersFile := writeFile(t, dir, "publishers.yaml", `
publishers:
  - id: sink
    type: http
    http:
      url: `+sink.URL+`
`)
	cfg := &config.Config{
		APIKey:                 "k",
		BaseURL:                api.URL + "/v2",
		HTTPTimeout:            2 * time.Second,
		WatchesFile:            watchesFile,
		PublishersFile:         publishersFile,
		PollInterval:           time.Hour,
		StorageType:            "bbolt",
		BBoltPath:              filepath.Join(dir, "jobs.db"),
		StorageTTL:             time.Hour,
		StorageCleanupInterval: time.Hour,
	}

	jw, err := NewJobWatch(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("NewJobWatch: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- jw.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("job watch did not stop")
	}
	if got := delivered.Load(); got != 2 {
		t.Fatalf("expected 2 delivered events, got %d", got)
	}
}

func TestNewJobWatchRequiresAPIKey(t *testing.T) {
	if _, err := NewJobWatch(context.Background(), &config.Config{}, nil); err == nil {
		t.Fatalf("expected error without api key")
	}
}

func TestNewJobWatchRequiresPublishers(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		APIKey:         "k",
		WatchesFile:    writeFile(t, dir, "watches.yaml", "watches:\n  - {id: a, name: A, company_id: \"1\"}\n"),
		PublishersFile: writeFile(t, dir, "publishers.yaml", "publishers:\n  - {id: h, type: http, enabled: false, http: {url: \"https://example.com\"}}\n"),
	}
	if _, err := NewJobWatch(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error when every publisher is disabled")
	}
}

func TestNewJobWatchRejectsUnroutedWatch(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		APIKey:         "k",
		WatchesFile:    writeFile(t, dir, "watches.yaml", "watches:\n  - {id: a, name: A, company_id: \"1\"}\n  - {id: b, name: B, company_id: \"2\"}\n"),
		PublishersFile: writeFile(t, dir, "publishers.yaml", "publishers:\n  - {id: h, type: http, watches: [a], http: {url: \"https://example.com\"}}\n"),
	}
	_, err := NewJobWatch(context.Background(), cfg, nil)
	if err == nil || !strings.Contains(err.Error(), "[b]") {
		t.Fatalf("expected unrouted watch b to be reported, got %v", err)
	}
}

func TestSelectWatches(t *testing.T) {
	dir := t.TempDir()
	reg, err := watches.LoadRegistry(writeFile(t, dir, "watches.yaml", `
watches:
  - {id: a, name: A, company_id: "1"}
  - {id: b, name: B, company_id: "2", enabled: false}
  - {id: c, name: C, company_id: "3"}
`))
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}

	ids := func(ws []watches.Watch) []string {
		out := make([]string, 0, len(ws))
		for _, w := range ws {
			out = append(out, w.ID)
		}
		return out
	}

	got, err := selectWatches(reg, nil)
	if err != nil {
		t.Fatalf("selectWatches(nil): %v", err)
	}
	if diff := cmp.Diff([]string{"a", "c"}, ids(got)); diff != "" {
		t.Fatalf("default selection (-want +got):\n%s", diff)
	}

	got, err = selectWatches(reg, []string{"c", "b", "c"})
	if err != nil {
		t.Fatalf("selectWatches: %v", err)
	}
	if diff := cmp.Diff([]string{"c", "b"}, ids(got)); diff != "" {
		t.Fatalf("explicit selection (-want +got):\n%s", diff)
	}

	if _, err := selectWatches(reg, []string{"a", "missing"}); err == nil || !strings.Contains(err.Error(), `"missing"`) {
		t.Fatalf("expected unknown watch error, got %v", err)
	}
}

func TestNewJobWatchRejectsUnknownSelectedWatch(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		APIKey:         "k",
		WatchIDs:       []string{"nope"},
		WatchesFile:    writeFile(t, dir, "watches.yaml", "watches:\n  - {id: a, name: A, company_id: \"1\"}\n"),
		PublishersFile: writeFile(t, dir, "publishers.yaml", "publishers:\n  - {id: h, type: http, http: {url: \"https://example.com\"}}\n"),
	}
	if _, err := NewJobWatch(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for unknown watch id")
	}
}
