package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"servicewatch/catalog"
)

func sampleReport() *AuditReport {
	rep := &AuditReport{
		GeneratedAt: time.Date(2026, 8, 25, 6, 0, 0, 0, time.UTC),
		ElapsedMS:   1234,
		Results: []Result{
			{
				Service:   catalog.ServiceRecord{ID: 7, Name: "Apply for WIC", URL: "https://cdphe.colorado.gov/apply-wic"},
				Status:    StatusOK,
				ElapsedMS: 80,
			},
			{
				Service:    catalog.ServiceRecord{ID: 8, Name: "Hunting License", URL: "https://cpw.colorado.gov/license?type=hunt&res=1"},
				Status:     StatusBroken,
				HTTPStatus: 404,
				ElapsedMS:  45,
			},
			{
				Service:     catalog.ServiceRecord{ID: 9, Name: "Renew Plates", URL: "https://dmv.colorado.gov/renew-plates"},
				Status:      StatusRedirectSuspicious,
				FinalURL:    "https://totally-unrelated.com/landing",
				OriginalURL: "https://dmv.colorado.gov/renew-plates",
				Reason:      "redirect crossed domains",
				ElapsedMS:   120,
			},
		},
	}
	for _, res := range rep.Results {
		rep.Summary.Add(res.Status)
	}
	return rep
}

func TestWriteAuditJSON(t *testing.T) {
	rep := sampleReport()

	var buf bytes.Buffer
	if err := WriteAuditJSON(&buf, rep); err != nil {
		t.Fatalf("WriteAuditJSON() error: %v", err)
	}

	var decoded AuditReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded.Results) != 3 {
		t.Errorf("decoded %d results, want 3", len(decoded.Results))
	}
	if decoded.Summary.Total != 3 || decoded.Summary.OK != 1 {
		t.Errorf("decoded summary = %+v, want total 3 ok 1", decoded.Summary)
	}

	// URLs must not be HTML-escaped: query ampersands stay literal.
	if !strings.Contains(buf.String(), "type=hunt&res=1") {
		t.Error("JSON output HTML-escaped the URL query string")
	}
}

func TestWriteDiscoveryJSON(t *testing.T) {
	rep := &DiscoveryReport{
		GeneratedAt:  time.Now(),
		SitemapRoots: []string{"https://cdphe.colorado.gov/sitemap.xml"},
		Scanned:      41,
		Candidates: []Candidate{
			{URL: "https://cdphe.colorado.gov/apply-snap", Title: "Apply for SNAP"},
		},
	}

	var buf bytes.Buffer
	if err := WriteDiscoveryJSON(&buf, rep); err != nil {
		t.Fatalf("WriteDiscoveryJSON() error: %v", err)
	}

	var decoded DiscoveryReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Scanned != 41 || len(decoded.Candidates) != 1 {
		t.Errorf("decoded = %+v, want scanned 41 and one candidate", decoded)
	}
}

func TestWriteAuditCSV(t *testing.T) {
	rep := sampleReport()

	var buf bytes.Buffer
	if err := WriteAuditCSV(&buf, rep.Results); err != nil {
		t.Fatalf("WriteAuditCSV() error: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("CSV has %d rows, want header + 3 records", len(rows))
	}
	if rows[0][0] != "id" || rows[0][3] != "status" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[2][3] != "broken" || rows[2][4] != "404" {
		t.Errorf("broken row = %v", rows[2])
	}
}

func TestWriteAuditCSVEmptyStillHasHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAuditCSV(&buf, nil); err != nil {
		t.Fatalf("WriteAuditCSV() error: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "id,name,url,status") {
		t.Errorf("expected header row, got %q", buf.String())
	}
}

func TestPrintAuditGroupsByStatus(t *testing.T) {
	rep := sampleReport()

	var buf bytes.Buffer
	PrintAudit(&buf, rep)
	out := buf.String()

	brokenIdx := strings.Index(out, "## Broken (1)")
	redirectIdx := strings.Index(out, "## Suspicious Redirects (1)")
	healthyIdx := strings.Index(out, "## Healthy: 1")

	if brokenIdx == -1 || redirectIdx == -1 || healthyIdx == -1 {
		t.Fatalf("missing section headings in output:\n%s", out)
	}
	if !(brokenIdx < redirectIdx && redirectIdx < healthyIdx) {
		t.Error("sections out of order: failures must precede the healthy tally")
	}
	if !strings.Contains(out, "HTTP 404") {
		t.Error("broken entry does not surface the HTTP status")
	}
	if !strings.Contains(out, "totally-unrelated.com") {
		t.Error("redirect entry does not surface the final URL")
	}
	if strings.Contains(out, "## Timeouts") {
		t.Error("empty status groups must be omitted")
	}
}

func TestPrintDiscovery(t *testing.T) {
	rep := &DiscoveryReport{
		GeneratedAt:  time.Now(),
		SitemapRoots: []string{"https://cdphe.colorado.gov/sitemap.xml"},
		Scanned:      12,
		Candidates: []Candidate{
			{URL: "https://cdphe.colorado.gov/apply-snap", Title: "Apply for SNAP", Description: "Food assistance application"},
		},
	}

	var buf bytes.Buffer
	PrintDiscovery(&buf, rep)
	out := buf.String()

	if !strings.Contains(out, "[Apply for SNAP](https://cdphe.colorado.gov/apply-snap)") {
		t.Errorf("candidate not rendered as a markdown link:\n%s", out)
	}
	if !strings.Contains(out, "Food assistance application") {
		t.Error("description missing from output")
	}
	if !strings.Contains(out, "found 1 candidates") {
		t.Error("summary line missing")
	}
}

func TestSummaryHasFailures(t *testing.T) {
	var s Summary
	s.Add(StatusOK)
	s.Add(StatusOK)
	if s.HasFailures() {
		t.Error("HasFailures() = true for all-ok run")
	}
	s.Add(StatusTimeout)
	if !s.HasFailures() {
		t.Error("HasFailures() = false with a timeout result")
	}
}
