package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// WriteAuditJSON writes the full audit report as indented JSON. HTML
// escaping is off so URLs stay greppable.
func WriteAuditJSON(w io.Writer, rep *AuditReport) error {
	return writeJSON(w, rep)
}

// WriteDiscoveryJSON writes the full discovery report as indented JSON.
func WriteDiscoveryJSON(w io.Writer, rep *DiscoveryReport) error {
	return writeJSON(w, rep)
}

func writeJSON(w io.Writer, doc any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("write json output: %w", err)
	}
	return nil
}

// WriteAuditCSV writes audit results as CSV. The header row is always
// present, even with zero results.
// Column order: id, name, url, status, http_status, reason, final_url, elapsed_ms
func WriteAuditCSV(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)

	header := []string{"id", "name", "url", "status", "http_status", "reason", "final_url", "elapsed_ms"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, res := range results {
		record := []string{
			strconv.Itoa(res.Service.ID),
			res.Service.Name,
			res.Service.URL,
			string(res.Status),
			statusCodeStr(res.HTTPStatus),
			res.Reason,
			res.FinalURL,
			strconv.FormatInt(res.ElapsedMS, 10),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record for %s: %w", res.Service.URL, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}
	return nil
}

// statusCodeStr converts an HTTP status code to a string.
// Returns empty string for 0 (no HTTP status).
func statusCodeStr(code int) string {
	if code == 0 {
		return ""
	}
	return strconv.Itoa(code)
}
