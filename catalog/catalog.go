// Package catalog loads the service catalog consumed by both pipelines and
// answers membership questions about it. The catalog document is owned and
// validated elsewhere; this package only reads it.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"servicewatch/urlutil"
)

// ServiceRecord is one cataloged government service. Records are read-only
// input: the pipelines never mutate them.
type ServiceRecord struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	URL           string `json:"url"`
	DepartmentURL string `json:"departmentUrl,omitempty"`
}

// Load decodes a catalog document. Both the bare-array form and the
// {"services": [...]} wrapper are accepted.
func Load(data []byte) ([]ServiceRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("catalog document is empty")
	}

	if trimmed[0] == '[' {
		var records []ServiceRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("decode catalog array: %w", err)
		}
		return records, nil
	}

	var wrapped struct {
		Services []ServiceRecord `json:"services"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("decode catalog document: %w", err)
	}
	if wrapped.Services == nil {
		return nil, fmt.Errorf("catalog document has no services field")
	}
	return wrapped.Services, nil
}

// LoadFile reads and decodes a catalog file.
func LoadFile(path string) ([]ServiceRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	records, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return records, nil
}

// MembershipSet holds normalized forms of every cataloged URL so discovery
// can cheaply drop pages that are already known.
type MembershipSet struct {
	urls map[string]struct{}
}

// NewMembershipSet indexes all service and department URLs. URLs that fail
// to normalize are skipped; the catalog schema guarantees well-formed URLs,
// so a bad entry is somebody else's validation gap, not a fatal condition
// here.
func NewMembershipSet(records []ServiceRecord) *MembershipSet {
	set := &MembershipSet{urls: make(map[string]struct{}, len(records)*2)}
	for _, rec := range records {
		set.add(rec.URL)
		set.add(rec.DepartmentURL)
	}
	return set
}

func (s *MembershipSet) add(rawURL string) {
	if rawURL == "" {
		return
	}
	normalized, err := urlutil.Normalize(rawURL)
	if err != nil {
		return
	}
	s.urls[normalized] = struct{}{}
}

// Contains reports whether rawURL is normalized-equal to any cataloged URL.
// Unnormalizable input is never a member.
func (s *MembershipSet) Contains(rawURL string) bool {
	normalized, err := urlutil.Normalize(rawURL)
	if err != nil {
		return false
	}
	_, ok := s.urls[normalized]
	return ok
}

// Len returns the number of distinct normalized URLs in the set.
func (s *MembershipSet) Len() int {
	return len(s.urls)
}
