// Package watches loads job watch definitions (YAML/JSON) for the watcher.
package watches

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultIDQuery collects every job_id found anywhere in a GetJobs result.
	DefaultIDQuery = ".. | objects | .job_id? // empty"

	defaultPages          = 1
	defaultRequestDelayMs = 500
	maxPages              = 20
)

// Watch describes one company whose job postings are polled.
type Watch struct {
	ID              string `json:"id" yaml:"id"`
	Name            string `json:"name" yaml:"name"`
	CompanyID       string `json:"company_id" yaml:"company_id"`
	GeoID           int    `json:"geo_id" yaml:"geo_id"`
	Pages           int    `json:"pages" yaml:"pages"`
	RequestDelayMs  int    `json:"request_delay_ms" yaml:"request_delay_ms"`
	IDQuery         string `json:"id_query" yaml:"id_query"`
	FetchDetails    bool   `json:"fetch_details" yaml:"fetch_details"`
	HTMLDescription bool   `json:"html_description" yaml:"html_description"`
	Enabled         *bool  `json:"enabled" yaml:"enabled"`
}

type fileRegistry struct {
	Watches []Watch `json:"watches" yaml:"watches"`
}

// Registry holds validated watches in file order.
type Registry struct {
	mu      sync.RWMutex
	watches []Watch
	idx     map[string]Watch
}

// LoadRegistry loads and validates the watches file at path.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("watches file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open watches file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read watches file: %w", err)
	}

	fr, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(fr.Watches) == 0 {
		return nil, errors.New("watches file contains no watches entries")
	}

	reg := &Registry{
		watches: make([]Watch, len(fr.Watches)),
		idx:     make(map[string]Watch, len(fr.Watches)),
	}
	for i := range fr.Watches {
		w := sanitizeWatch(fr.Watches[i])
		if err := validateWatch(w); err != nil {
			return nil, fmt.Errorf("watches[%d]: %w", i, err)
		}
		if _, exists := reg.idx[w.ID]; exists {
			return nil, fmt.Errorf("duplicate watch id %q", w.ID)
		}
		reg.watches[i] = w
		reg.idx[w.ID] = w
	}
	return reg, nil
}

type unmarshalFn func([]byte, any) error

func parseRegistry(data []byte, ext string) (fileRegistry, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	var errs []error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var fr fileRegistry
		if err := d.fn(data, &fr); err != nil {
			errs = append(errs, fmt.Errorf("decode %s watches: %w", d.name, err))
			continue
		}
		return fr, nil
	}
	if len(errs) > 0 {
		return fileRegistry{}, errors.Join(errs...)
	}
	return fileRegistry{}, fmt.Errorf("watches file format %q not recognized (expected YAML or JSON)", ext)
}

func sanitizeWatch(w Watch) Watch {
	w.ID = strings.TrimSpace(w.ID)
	w.Name = strings.TrimSpace(w.Name)
	w.CompanyID = strings.TrimSpace(w.CompanyID)
	w.IDQuery = strings.TrimSpace(w.IDQuery)

	if w.IDQuery == "" {
		w.IDQuery = DefaultIDQuery
	}
	if w.Pages <= 0 {
		w.Pages = defaultPages
	}
	if w.RequestDelayMs <= 0 {
		w.RequestDelayMs = defaultRequestDelayMs
	}
	if w.Enabled == nil {
		def := true
		w.Enabled = &def
	}
	return w
}

func validateWatch(w Watch) error {
	if w.ID == "" {
		return errors.New("id is required")
	}
	if w.Name == "" {
		return fmt.Errorf("name is required for watch %q", w.ID)
	}
	if w.CompanyID == "" {
		return fmt.Errorf("company_id is required for watch %q", w.ID)
	}
	if w.Pages > maxPages {
		return fmt.Errorf("pages must be at most %d for watch %q", maxPages, w.ID)
	}
	if w.GeoID < 0 {
		return fmt.Errorf("geo_id must not be negative for watch %q", w.ID)
	}
	if _, err := NewExtractor(w.IDQuery); err != nil {
		return fmt.Errorf("id_query for watch %q: %w", w.ID, err)
	}
	return nil
}

// ByID returns the watch with the given id.
func (r *Registry) ByID(id string) (Watch, bool) {
	if r == nil {
		return Watch{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.idx[strings.TrimSpace(id)]
	return w, ok
}

// All returns every loaded watch.
func (r *Registry) All() []Watch {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Watch, len(r.watches))
	copy(out, r.watches)
	return out
}

// Enabled returns the watches that are switched on.
func (r *Registry) Enabled() []Watch {
	all := r.All()
	out := make([]Watch, 0, len(all))
	for _, w := range all {
		if w.EnabledValue() {
			out = append(out, w)
		}
	}
	return out
}

// EnabledValue returns enabled flag defaulting to true.
func (w Watch) EnabledValue() bool {
	if w.Enabled == nil {
		return true
	}
	return *w.Enabled
}

// RequestDelay returns the pause between consecutive API calls for this watch.
func (w Watch) RequestDelay() time.Duration {
	if w.RequestDelayMs <= 0 {
		return time.Duration(defaultRequestDelayMs) * time.Millisecond
	}
	return time.Duration(w.RequestDelayMs) * time.Millisecond
}
