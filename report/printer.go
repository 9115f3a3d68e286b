package report

import (
	"fmt"
	"io"
)

// PrintAudit writes the human-readable audit report to w as Markdown-like
// grouped sections, failures first.
func PrintAudit(w io.Writer, rep *AuditReport) {
	writef := func(format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

	writef("# Service link audit — %s\n\n", rep.GeneratedAt.Format("2006-01-02 15:04 MST"))

	for _, status := range Statuses() {
		count := rep.Summary.Count(status)
		if count == 0 {
			continue
		}
		if status == StatusOK {
			// Healthy services only need the tally, not a listing.
			writef("## %s: %d\n\n", status.Label(), count)
			continue
		}
		writef("## %s (%d)\n\n", status.Label(), count)
		for _, res := range rep.Results {
			if res.Status != status {
				continue
			}
			writef("- **%s** — %s\n", res.Service.Name, res.Service.URL)
			if res.HTTPStatus != 0 {
				writef("  - HTTP %d\n", res.HTTPStatus)
			}
			if res.FinalURL != "" && res.FinalURL != res.Service.URL {
				writef("  - landed on %s\n", res.FinalURL)
			}
			if res.Reason != "" {
				writef("  - %s\n", truncate(res.Reason, 160))
			}
			writef("  - %dms\n", res.ElapsedMS)
		}
		writef("\n")
	}

	writef("Checked %d services in %dms: %d healthy, %d failing\n",
		rep.Summary.Total, rep.ElapsedMS, rep.Summary.OK, rep.Summary.Total-rep.Summary.OK)
}

// PrintDiscovery writes the human-readable discovery report to w.
func PrintDiscovery(w io.Writer, rep *DiscoveryReport) {
	writef := func(format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

	writef("# Service candidates — %s\n\n", rep.GeneratedAt.Format("2006-01-02 15:04 MST"))

	if len(rep.Candidates) == 0 {
		writef("No new service candidates found.\n")
	} else {
		for _, cand := range rep.Candidates {
			writef("- [%s](%s)\n", cand.Title, cand.URL)
			if cand.Description != "" {
				writef("  - %s\n", truncate(cand.Description, 160))
			}
		}
		writef("\n")
	}

	writef("Scanned %d sitemap URLs across %d roots in %dms, found %d candidates\n",
		rep.Scanned, len(rep.SitemapRoots), rep.ElapsedMS, len(rep.Candidates))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
