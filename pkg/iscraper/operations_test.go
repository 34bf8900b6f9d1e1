package iscraper

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestProfileDetailsPayload(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{"profile_id":"jdoe"}`)

	got, err := api.client(t).ProfileDetails(context.Background(), "https://linkedin.com/in/jdoe/", ProfileDetailsOptions{
		ProfileType: ProfileTypePersonal,
	})
	if err != nil {
		t.Fatalf("ProfileDetails: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"profile_id": "jdoe"}, got); diff != "" {
		t.Fatalf("unexpected result (-want +got):\n%s", diff)
	}

	req := api.only(t)
	if req.method != http.MethodPost || req.path != "/v2/profile-details" {
		t.Fatalf("unexpected request %s %s", req.method, req.path)
	}
	want := map[string]any{
		"profile_id":       "jdoe",
		"profile_type":     "personal",
		"contact_info":     false,
		"recommendations":  false,
		"related_profiles": false,
	}
	if diff := cmp.Diff(want, decodeBody(t, req.body)); diff != "" {
		t.Fatalf("unexpected payload (-want +got):\n%s", diff)
	}
}

func TestProfileDetailsCompanyWithExtras(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{}`)

	_, err := api.client(t).ProfileDetails(context.Background(), "https://www.linkedin.com/company/acme", ProfileDetailsOptions{
		ProfileType:     ProfileTypeCompany,
		ContactInfo:     true,
		Recommendations: true,
		RelatedProfiles: true,
	})
	if err != nil {
		t.Fatalf("ProfileDetails: %v", err)
	}
	want := map[string]any{
		"profile_id":       "acme",
		"profile_type":     "company",
		"contact_info":     true,
		"recommendations":  true,
		"related_profiles": true,
	}
	if diff := cmp.Diff(want, decodeBody(t, api.only(t).body)); diff != "" {
		t.Fatalf("unexpected payload (-want +got):\n%s", diff)
	}
}

func TestCompanyEmployeesDefaults(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `[]`)

	if _, err := api.client(t).CompanyEmployees(context.Background(), "https://linkedin.com/company/acme/", PageOptions{}); err != nil {
		t.Fatalf("CompanyEmployees: %v", err)
	}
	req := api.only(t)
	if req.path != "/v2/company-employees" {
		t.Fatalf("unexpected path %q", req.path)
	}
	want := map[string]any{"profile_id": "acme", "per_page": float64(50), "offset": float64(0)}
	if diff := cmp.Diff(want, decodeBody(t, req.body)); diff != "" {
		t.Fatalf("unexpected payload (-want +got):\n%s", diff)
	}
}

func TestSearchResultsSendsExplicitNulls(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `[]`)

	if _, err := api.client(t).SearchResults(context.Background(), "golang", SearchOptions{Offset: 100}); err != nil {
		t.Fatalf("SearchResults: %v", err)
	}
	req := api.only(t)
	if req.path != "/v2/linkedin-search" {
		t.Fatalf("unexpected path %q", req.path)
	}
	want := map[string]any{
		"keyword":     "golang",
		"search_type": "people",
		"location":    nil,
		"size":        nil,
		"per_page":    float64(50),
		"offset":      float64(100),
	}
	if diff := cmp.Diff(want, decodeBody(t, req.body)); diff != "" {
		t.Fatalf("unexpected payload (-want +got):\n%s", diff)
	}
}

func TestSearchResultsPassesOptionalFields(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `[]`)

	_, err := api.client(t).SearchResults(context.Background(), "acme", SearchOptions{
		SearchType: SearchTypeCompanies,
		Location:   String("Berlin"),
		Size:       String("11-50"),
		PerPage:    10,
	})
	if err != nil {
		t.Fatalf("SearchResults: %v", err)
	}
	want := map[string]any{
		"keyword":     "acme",
		"search_type": "companies",
		"location":    "Berlin",
		"size":        "11-50",
		"per_page":    float64(10),
		"offset":      float64(0),
	}
	if diff := cmp.Diff(want, decodeBody(t, api.only(t).body)); diff != "" {
		t.Fatalf("unexpected payload (-want +got):\n%s", diff)
	}
}

func TestGetJobsFixesPageSize(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{"jobs":[]}`)

	if _, err := api.client(t).GetJobs(context.Background(), "1441", JobsOptions{Offset: 50, GeoID: 103644278}); err != nil {
		t.Fatalf("GetJobs: %v", err)
	}
	req := api.only(t)
	if req.path != "/v2/get-jobs" {
		t.Fatalf("unexpected path %q", req.path)
	}
	want := map[string]any{
		"company_id": "1441",
		"geo_id":     float64(103644278),
		"per_page":   float64(50),
		"offset":     float64(50),
	}
	if diff := cmp.Diff(want, decodeBody(t, req.body)); diff != "" {
		t.Fatalf("unexpected payload (-want +got):\n%s", diff)
	}
}

func TestJobDetailsPayload(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{"job_id":"42"}`)

	if _, err := api.client(t).JobDetails(context.Background(), "42", true); err != nil {
		t.Fatalf("JobDetails: %v", err)
	}
	req := api.only(t)
	if req.path != "/v2/job-details" {
		t.Fatalf("unexpected path %q", req.path)
	}
	want := map[string]any{"job_id": "42", "html_description": true}
	if diff := cmp.Diff(want, decodeBody(t, req.body)); diff != "" {
		t.Fatalf("unexpected payload (-want +got):\n%s", diff)
	}
}

func TestGetLocationsIsBodylessGet(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `["Berlin","Paris"]`)

	got, err := api.client(t).GetLocations(context.Background())
	if err != nil {
		t.Fatalf("GetLocations: %v", err)
	}
	if diff := cmp.Diff([]any{"Berlin", "Paris"}, got); diff != "" {
		t.Fatalf("unexpected result (-want +got):\n%s", diff)
	}
	req := api.only(t)
	if req.method != http.MethodGet || req.path != "/v2/supported-locations" {
		t.Fatalf("unexpected request %s %s", req.method, req.path)
	}
	if req.body != "" {
		t.Fatalf("expected no body, got %q", req.body)
	}
}

func TestEveryOperationCarriesAPIKey(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{}`)
	c := api.client(t)
	ctx := context.Background()

	calls := []func() error{
		func() error { _, err := c.ProfileDetails(ctx, "https://linkedin.com/in/jdoe", ProfileDetailsOptions{}); return err },
		func() error { _, err := c.CompanyEmployees(ctx, "https://linkedin.com/company/acme", PageOptions{}); return err },
		func() error { _, err := c.SearchResults(ctx, "go", SearchOptions{}); return err },
		func() error { _, err := c.GetJobs(ctx, "1", JobsOptions{}); return err },
		func() error { _, err := c.JobDetails(ctx, "2", false); return err },
		func() error { _, err := c.GetLocations(ctx); return err },
	}
	for i, call := range calls {
		if err := call(); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.requests) != len(calls) {
		t.Fatalf("expected %d requests, got %d", len(calls), len(api.requests))
	}
	for _, r := range api.requests {
		if r.apiKey != testAPIKey {
			t.Fatalf("%s %s carried api key %q", r.method, r.path, r.apiKey)
		}
	}
}
