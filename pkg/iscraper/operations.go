package iscraper

import (
	"context"
	"net/http"
)

const (
	ProfileTypePersonal = "personal"
	ProfileTypeCompany  = "company"

	SearchTypePeople    = "people"
	SearchTypeCompanies = "companies"

	// DefaultPerPage is the page size used when a caller leaves PerPage at zero.
	DefaultPerPage = 50
)

const (
	pathProfileDetails     = "/profile-details"
	pathCompanyEmployees   = "/company-employees"
	pathLinkedInSearch     = "/linkedin-search"
	pathGetJobs            = "/get-jobs"
	pathJobDetails         = "/job-details"
	pathSupportedLocations = "/supported-locations"
)

// ProfileDetailsOptions tunes ProfileDetails. The zero value requests a
// personal profile without extras.
type ProfileDetailsOptions struct {
	ProfileType     string
	ContactInfo     bool
	Recommendations bool
	RelatedProfiles bool
}

// PageOptions paginates list operations. PerPage zero means DefaultPerPage.
type PageOptions struct {
	PerPage int
	Offset  int
}

// SearchOptions tunes SearchResults. Nil Location and Size are sent as null.
type SearchOptions struct {
	SearchType string
	Location   *string
	Size       *string
	PerPage    int
	Offset     int
}

// JobsOptions tunes GetJobs.
type JobsOptions struct {
	Offset int
	GeoID  int
}

type profileDetailsPayload struct {
	ProfileID       string `json:"profile_id"`
	ProfileType     string `json:"profile_type"`
	ContactInfo     bool   `json:"contact_info"`
	Recommendations bool   `json:"recommendations"`
	RelatedProfiles bool   `json:"related_profiles"`
}

type companyEmployeesPayload struct {
	ProfileID string `json:"profile_id"`
	PerPage   int    `json:"per_page"`
	Offset    int    `json:"offset"`
}

type searchPayload struct {
	Keyword    string  `json:"keyword"`
	SearchType string  `json:"search_type"`
	Location   *string `json:"location"`
	Size       *string `json:"size"`
	PerPage    int     `json:"per_page"`
	Offset     int     `json:"offset"`
}

type getJobsPayload struct {
	CompanyID string `json:"company_id"`
	GeoID     int    `json:"geo_id"`
	PerPage   int    `json:"per_page"`
	Offset    int    `json:"offset"`
}

type jobDetailsPayload struct {
	JobID           string `json:"job_id"`
	HTMLDescription bool   `json:"html_description"`
}

// ProfileDetails returns details for a personal or company profile URL.
func (c *Client) ProfileDetails(ctx context.Context, profileURL string, opts ProfileDetailsOptions) (any, error) {
	id, err := ParseID(profileURL)
	if err != nil {
		return nil, err
	}
	return c.SendRequest(ctx, pathProfileDetails, http.MethodPost, profileDetailsPayload{
		ProfileID:       id,
		ProfileType:     orDefault(opts.ProfileType, ProfileTypePersonal),
		ContactInfo:     opts.ContactInfo,
		Recommendations: opts.Recommendations,
		RelatedProfiles: opts.RelatedProfiles,
	})
}

// CompanyEmployees lists one page of employees for a company profile URL.
func (c *Client) CompanyEmployees(ctx context.Context, companyURL string, opts PageOptions) (any, error) {
	id, err := ParseID(companyURL)
	if err != nil {
		return nil, err
	}
	return c.SendRequest(ctx, pathCompanyEmployees, http.MethodPost, companyEmployeesPayload{
		ProfileID: id,
		PerPage:   perPage(opts.PerPage),
		Offset:    opts.Offset,
	})
}

// SearchResults runs a LinkedIn people or company search.
func (c *Client) SearchResults(ctx context.Context, keyword string, opts SearchOptions) (any, error) {
	return c.SendRequest(ctx, pathLinkedInSearch, http.MethodPost, searchPayload{
		Keyword:    keyword,
		SearchType: orDefault(opts.SearchType, SearchTypePeople),
		Location:   opts.Location,
		Size:       opts.Size,
		PerPage:    perPage(opts.PerPage),
		Offset:     opts.Offset,
	})
}

// GetJobs lists one page of job postings for a company. The page size is
// fixed at DefaultPerPage.
func (c *Client) GetJobs(ctx context.Context, companyID string, opts JobsOptions) (any, error) {
	return c.SendRequest(ctx, pathGetJobs, http.MethodPost, getJobsPayload{
		CompanyID: companyID,
		GeoID:     opts.GeoID,
		PerPage:   DefaultPerPage,
		Offset:    opts.Offset,
	})
}

// JobDetails returns a single job posting, with its description as HTML
// when htmlDescription is set.
func (c *Client) JobDetails(ctx context.Context, jobID string, htmlDescription bool) (any, error) {
	return c.SendRequest(ctx, pathJobDetails, http.MethodPost, jobDetailsPayload{
		JobID:           jobID,
		HTMLDescription: htmlDescription,
	})
}

// GetLocations lists the locations accepted by SearchResults.
func (c *Client) GetLocations(ctx context.Context) (any, error) {
	return c.SendRequest(ctx, pathSupportedLocations, http.MethodGet, nil)
}

// String returns a pointer to s, for optional SearchOptions fields.
func String(s string) *string { return &s }

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func perPage(n int) int {
	if n <= 0 {
		return DefaultPerPage
	}
	return n
}
