// Package models defines the data structures assembled by research runs.
package models

import "strings"

// Confidence is the closed set of confidence tags. Generator output is
// normalized at the model boundary; anything out of enum becomes
// ConfidenceNone rather than a free-form string.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceNone   Confidence = "none"
)

// NormalizeConfidence maps arbitrary generator text onto the enum.
func NormalizeConfidence(s string) Confidence {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return ConfidenceHigh
	case "medium", "med", "moderate":
		return ConfidenceMedium
	case "low":
		return ConfidenceLow
	default:
		return ConfidenceNone
	}
}

// rank orders confidence for comparisons; higher is better.
func (c Confidence) rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether c is at least as confident as other.
func (c Confidence) AtLeast(other Confidence) bool {
	return c.rank() >= other.rank()
}

// Opportunity is the go-to-market play assigned to an event.
type Opportunity string

const (
	OpportunitySponsorship Opportunity = "sponsorship"
	OpportunityMidtermFuel Opportunity = "midterm-fuel"
	OpportunityFriendship  Opportunity = "friendship-fund"
	OpportunityCommunity   Opportunity = "community-building"
	OpportunityNone        Opportunity = "none"
)

// NormalizeOpportunity maps the generator's free-form play names onto the
// enum. Unknown plays collapse to OpportunityNone.
func NormalizeOpportunity(s string) Opportunity {
	lower := strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.Contains(lower, "sponsorship"):
		return OpportunitySponsorship
	case strings.Contains(lower, "midterm"), strings.Contains(lower, "fuel"):
		return OpportunityMidtermFuel
	case strings.Contains(lower, "friendship"):
		return OpportunityFriendship
	case strings.Contains(lower, "community"):
		return OpportunityCommunity
	default:
		return OpportunityNone
	}
}
