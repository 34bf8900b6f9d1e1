package domain

// Job is a posting discovered by a watch. Details holds the decoded
// JobDetails result when the watch fetches details, and is nil otherwise.
type Job struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	Details   any    `json:"details,omitempty"`
}
