// Package report defines the audit and discovery result types and their
// machine-readable and human-readable output formats.
package report

import (
	"time"

	"servicewatch/catalog"
)

// Status classifies the outcome of one service probe. The enumeration is
// closed; downstream tooling switches on these exact values.
type Status string

const (
	StatusOK                 Status = "ok"
	StatusBroken             Status = "broken"
	StatusSoft404            Status = "soft_404"
	StatusRedirectSuspicious Status = "redirect_suspicious"
	StatusTimeout            Status = "timeout"
	StatusError              Status = "error"
)

// Statuses lists every status in report order: failures first, ok last.
func Statuses() []Status {
	return []Status{
		StatusBroken,
		StatusRedirectSuspicious,
		StatusSoft404,
		StatusTimeout,
		StatusError,
		StatusOK,
	}
}

// Label returns the section heading used for a status in human-readable
// reports.
func (s Status) Label() string {
	switch s {
	case StatusOK:
		return "Healthy"
	case StatusBroken:
		return "Broken"
	case StatusSoft404:
		return "Soft 404s"
	case StatusRedirectSuspicious:
		return "Suspicious Redirects"
	case StatusTimeout:
		return "Timeouts"
	case StatusError:
		return "Connection Errors"
	default:
		return string(s)
	}
}

// Result is the classified outcome for a single cataloged service. Exactly
// one Result exists per input ServiceRecord per run.
type Result struct {
	Service     catalog.ServiceRecord `json:"service"`
	Status      Status                `json:"status"`
	HTTPStatus  int                   `json:"httpStatus,omitempty"`
	Reason      string                `json:"reason,omitempty"`
	FinalURL    string                `json:"finalUrl,omitempty"`
	OriginalURL string                `json:"originalUrl,omitempty"`
	ElapsedMS   int64                 `json:"elapsedMs"`
}

// Summary counts results by status over one audit run. It is derived data,
// recomputed each run.
type Summary struct {
	Total              int `json:"total"`
	OK                 int `json:"ok"`
	Broken             int `json:"broken"`
	Soft404            int `json:"soft_404"`
	RedirectSuspicious int `json:"redirect_suspicious"`
	Timeout            int `json:"timeout"`
	Error              int `json:"error"`
}

// Add counts one result.
func (s *Summary) Add(status Status) {
	s.Total++
	switch status {
	case StatusOK:
		s.OK++
	case StatusBroken:
		s.Broken++
	case StatusSoft404:
		s.Soft404++
	case StatusRedirectSuspicious:
		s.RedirectSuspicious++
	case StatusTimeout:
		s.Timeout++
	case StatusError:
		s.Error++
	}
}

// Count returns the tally for a status.
func (s *Summary) Count(status Status) int {
	switch status {
	case StatusOK:
		return s.OK
	case StatusBroken:
		return s.Broken
	case StatusSoft404:
		return s.Soft404
	case StatusRedirectSuspicious:
		return s.RedirectSuspicious
	case StatusTimeout:
		return s.Timeout
	case StatusError:
		return s.Error
	default:
		return 0
	}
}

// HasFailures reports whether any non-ok result exists. The audit command
// exits non-zero on failures so an automated caller can decide to alert.
func (s *Summary) HasFailures() bool {
	return s.Total > s.OK
}

// AuditReport is the complete machine-readable output of one audit run.
type AuditReport struct {
	GeneratedAt time.Time `json:"generatedAt"`
	ElapsedMS   int64     `json:"elapsedMs"`
	Summary     Summary   `json:"summary"`
	Results     []Result  `json:"results"`
}

// Candidate is a discovered page that looks like an uncataloged service.
type Candidate struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// DiscoveryReport is the complete machine-readable output of one discovery
// run.
type DiscoveryReport struct {
	GeneratedAt  time.Time   `json:"generatedAt"`
	ElapsedMS    int64       `json:"elapsedMs"`
	SitemapRoots []string    `json:"sitemapRoots"`
	Scanned      int         `json:"scanned"`
	Candidates   []Candidate `json:"candidates"`
}
