package models

import "strings"

// ContactRecord is a single extracted contact. Any field not positively
// confirmed by extraction stays nil and marshals as JSON null, never a
// fabricated placeholder.
type ContactRecord struct {
	Name         *string    `json:"name"`
	Title        *string    `json:"title"`
	Organization *string    `json:"organization"`
	Email        *string    `json:"email"`
	Phone        *string    `json:"phone"`
	Confidence   Confidence `json:"confidence"`
}

// HasEmail reports whether the record carries a usable email.
func (c ContactRecord) HasEmail() bool {
	return c.Email != nil && strings.Contains(*c.Email, "@")
}

// NormalizedEmail returns the dedup key for the record, or "" when the
// record has no email.
func (c ContactRecord) NormalizedEmail() string {
	if c.Email == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(*c.Email))
}

// DedupeContacts merges contacts that share a normalized email, keeping the
// higher-confidence record for each address. Records without an email are
// never merged. The operation is idempotent: deduplicating an already
// deduplicated list yields the same list.
func DedupeContacts(contacts []ContactRecord) []ContactRecord {
	seen := make(map[string]int)
	out := make([]ContactRecord, 0, len(contacts))

	for _, c := range contacts {
		key := c.NormalizedEmail()
		if key == "" {
			out = append(out, c)
			continue
		}
		if idx, ok := seen[key]; ok {
			if c.Confidence.rank() > out[idx].Confidence.rank() {
				out[idx] = c
			}
			continue
		}
		seen[key] = len(out)
		out = append(out, c)
	}
	return out
}

// StringPtr returns a pointer to s, or nil when s is empty after trimming.
// Extraction code uses it so that "not found" survives as an explicit
// absence instead of an empty string.
func StringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// StringOr dereferences p, returning fallback when p is nil.
func StringOr(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}
