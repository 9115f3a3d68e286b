package pattern

import "fmt"

// DefaultScanBytes bounds the body scan for soft-404 phrases. The cap keeps
// pathological pages cheap and avoids false positives from incidental
// matches buried deep in long documents.
const DefaultScanBytes = 10 * 1024

// DefaultSoft404TitleSpecs match "not found" signatures in page titles.
// Title matches are cheap and high precision, so they are checked first.
func DefaultSoft404TitleSpecs() []RuleSpec {
	return []RuleSpec{
		{Label: "404 title", Pattern: `(?i)\b404\b`},
		{Label: "not found title", Pattern: `(?i)not\s+found`},
		{Label: "error title", Pattern: `(?i)page\s+(unavailable|does\s+not\s+exist|no\s+longer\s+(exists|available))`},
	}
}

// DefaultSoft404BodySpecs match apology phrases in body content.
func DefaultSoft404BodySpecs() []RuleSpec {
	return []RuleSpec{
		{Label: "sorry not found", Pattern: `(?i)sorry,?\s+we\s+(couldn'?t|can'?t|could\s+not|cannot)\s+find`},
		{Label: "page not found", Pattern: `(?i)page\s+(not\s+found|doesn'?t\s+exist|does\s+not\s+exist|no\s+longer\s+exists)`},
		{Label: "looking for", Pattern: `(?i)the\s+page\s+you('re|\s+are)?\s+(looking\s+for|requested)\s+(is|was|cannot|can'?t|couldn'?t|has)`},
		{Label: "moved or removed", Pattern: `(?i)has\s+been\s+(moved|removed|deleted)\s+or\s+is\s+temporarily\s+unavailable`},
	}
}

// Detection is the outcome of a soft-404 check.
type Detection struct {
	Matched bool
	Rule    string
	Reason  string
}

// Soft404Detector recognizes pages that return 200 but render a "not found"
// experience.
type Soft404Detector struct {
	title     []Rule
	body      []Rule
	scanBytes int
}

// NewSoft404Detector builds a detector. scanBytes <= 0 selects
// DefaultScanBytes.
func NewSoft404Detector(title, body []Rule, scanBytes int) *Soft404Detector {
	if scanBytes <= 0 {
		scanBytes = DefaultScanBytes
	}
	return &Soft404Detector{title: title, body: body, scanBytes: scanBytes}
}

// DefaultSoft404Detector builds a detector from the built-in rule sets.
func DefaultSoft404Detector() *Soft404Detector {
	title, err := CompileRules(DefaultSoft404TitleSpecs())
	if err != nil {
		panic(err)
	}
	body, err := CompileRules(DefaultSoft404BodySpecs())
	if err != nil {
		panic(err)
	}
	return NewSoft404Detector(title, body, DefaultScanBytes)
}

// Detect checks the title first, then scans only the first scanBytes of body
// content. The reason carries the matched substring so reports stay
// human-readable without shipping the whole page.
func (d *Soft404Detector) Detect(body []byte, title string) Detection {
	if title != "" {
		for _, r := range d.title {
			if matched, ok := r.Match(title); ok {
				return Detection{
					Matched: true,
					Rule:    r.Label,
					Reason:  fmt.Sprintf("title %q matched %q", title, matched),
				}
			}
		}
	}

	scan := body
	if len(scan) > d.scanBytes {
		scan = scan[:d.scanBytes]
	}
	text := string(scan)
	for _, r := range d.body {
		if matched, ok := r.Match(text); ok {
			return Detection{
				Matched: true,
				Rule:    r.Label,
				Reason:  fmt.Sprintf("body matched %q", matched),
			}
		}
	}

	return Detection{}
}
