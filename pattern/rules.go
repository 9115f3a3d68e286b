// Package pattern implements the regexp rule sets used to classify URLs and
// page content: service-likeness filtering for discovery and soft-404
// detection for the audit.
package pattern

import (
	"fmt"
	"regexp"
)

// RuleSpec is the serializable form of a rule, as it appears in the optional
// config file.
type RuleSpec struct {
	Label   string `yaml:"label" json:"label"`
	Pattern string `yaml:"pattern" json:"pattern"`
}

// Rule pairs a human-readable label with a compiled predicate. Rules are
// evaluated in order; only performance depends on ordering, never the result.
type Rule struct {
	Label string
	re    *regexp.Regexp
}

// Match reports whether the rule matches text, returning the matched
// substring for use in human-readable reasons.
func (r Rule) Match(text string) (string, bool) {
	m := r.re.FindString(text)
	if m == "" && !r.re.MatchString(text) {
		return "", false
	}
	return m, true
}

// MustRule compiles a rule and panics on an invalid expression. Intended for
// the built-in defaults, which are covered by tests.
func MustRule(label, expr string) Rule {
	return Rule{Label: label, re: regexp.MustCompile(expr)}
}

// CompileRules compiles a set of rule specs, failing on the first invalid
// expression so a bad config file surfaces immediately at startup.
func CompileRules(specs []RuleSpec) ([]Rule, error) {
	rules := make([]Rule, 0, len(specs))
	for _, s := range specs {
		re, err := regexp.Compile(s.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", s.Label, err)
		}
		rules = append(rules, Rule{Label: s.Label, re: re})
	}
	return rules, nil
}

// MatchAny returns the first rule matching text. Short-circuits on the first
// hit.
func MatchAny(text string, rules []Rule) (Rule, bool) {
	for _, r := range rules {
		if r.re.MatchString(text) {
			return r, true
		}
	}
	return Rule{}, false
}

// DefaultIncludeSpecs are path-segment signals that a URL is a transactional
// government service rather than editorial content.
func DefaultIncludeSpecs() []RuleSpec {
	return []RuleSpec{
		{Label: "apply", Pattern: `(?i)\bapply\b`},
		{Label: "register", Pattern: `(?i)\bregist(er|ration)\b`},
		{Label: "renew", Pattern: `(?i)\brenew(al)?\b`},
		{Label: "file", Pattern: `(?i)\bfile\b|\bfiling\b`},
		{Label: "request", Pattern: `(?i)\brequest\b`},
		{Label: "search", Pattern: `(?i)\bsearch\b`},
		{Label: "lookup", Pattern: `(?i)\blookup\b`},
		{Label: "license", Pattern: `(?i)\blicens(e|ing)\b`},
		{Label: "permit", Pattern: `(?i)\bpermits?\b`},
		{Label: "benefits", Pattern: `(?i)\bbenefits?\b`},
		{Label: "services", Pattern: `(?i)\bservices?\b`},
		{Label: "programs", Pattern: `(?i)\bprograms?\b`},
		{Label: "forms", Pattern: `(?i)\bforms?\b`},
	}
}

// DefaultExcludeSpecs remove editorial and navigational URLs. Exclusion
// always wins over inclusion.
func DefaultExcludeSpecs() []RuleSpec {
	return []RuleSpec{
		{Label: "news", Pattern: `(?i)\bnews\b`},
		{Label: "blog", Pattern: `(?i)\bblog\b`},
		{Label: "careers", Pattern: `(?i)\bcareers?\b`},
		{Label: "events", Pattern: `(?i)\bevents?\b|\bpress\b`},
		{Label: "pagination", Pattern: `(?i)[?&]page=\d+|/page/\d+`},
		{Label: "dated path", Pattern: `/20\d{2}[/-](0?[1-9]|1[0-2])\b`},
		{Label: "document file", Pattern: `(?i)\.(pdf|docx?|xlsx?|pptx?|csv|zip)(\?|$)`},
		{Label: "image file", Pattern: `(?i)\.(png|jpe?g|gif|svg|webp|ico)(\?|$)`},
	}
}

// Matcher decides whether a discovered URL looks like a service page.
type Matcher struct {
	include []Rule
	exclude []Rule
}

// NewMatcher builds a Matcher from compiled rule sets.
func NewMatcher(include, exclude []Rule) *Matcher {
	return &Matcher{include: include, exclude: exclude}
}

// DefaultMatcher builds a Matcher from the built-in rule sets.
func DefaultMatcher() *Matcher {
	include, err := CompileRules(DefaultIncludeSpecs())
	if err != nil {
		panic(err)
	}
	exclude, err := CompileRules(DefaultExcludeSpecs())
	if err != nil {
		panic(err)
	}
	return NewMatcher(include, exclude)
}

// LooksLikeService reports whether rawURL matches an include rule and no
// exclude rule.
func (m *Matcher) LooksLikeService(rawURL string) bool {
	if _, ok := MatchAny(rawURL, m.include); !ok {
		return false
	}
	_, excluded := MatchAny(rawURL, m.exclude)
	return !excluded
}
