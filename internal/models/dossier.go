package models

import (
	"time"

	"github.com/krishija/campusintel/internal/metrics"
)

// Metric is one quantitative data point about a campus. Value stays nil
// when no source confirmed it.
type Metric struct {
	Name       string     `json:"name"`
	Value      *string    `json:"value"`
	Source     *string    `json:"source"`
	Confidence Confidence `json:"confidence"`
}

// Scorecard is the named set of quantitative metrics for one campus.
type Scorecard struct {
	Campus  string   `json:"campus"`
	Metrics []Metric `json:"metrics"`
}

// QualityScore is the percentage of metrics with a confirmed value.
// It is advisory: a low score never fails a run.
func (s Scorecard) QualityScore() float64 {
	if len(s.Metrics) == 0 {
		return 0
	}
	confirmed := 0
	for _, m := range s.Metrics {
		if m.Value != nil {
			confirmed++
		}
	}
	return 100 * float64(confirmed) / float64(len(s.Metrics))
}

// Metric looks up a metric by name; nil when absent.
func (s Scorecard) Metric(name string) *Metric {
	for i := range s.Metrics {
		if s.Metrics[i].Name == name {
			return &s.Metrics[i]
		}
	}
	return nil
}

// Organization is a "diamond in the rough" student org: the quirky, active
// group that defines campus culture rather than a generic pre-professional
// club.
type Organization struct {
	Name     string  `json:"name"`
	Category *string `json:"category"`
	Story    *string `json:"story"`
	Signal   *string `json:"signal"`
}

// Event is a single campus event with its assigned go-to-market play.
type Event struct {
	Name        string      `json:"event_name"`
	HostingOrg  *string     `json:"hosting_org"`
	Date        *string     `json:"date"`
	Location    *string     `json:"location"`
	Type        *string     `json:"event_type"`
	Opportunity Opportunity `json:"opportunity"`
}

// Assessment is the strategic readout over all engine outputs.
type Assessment struct {
	Tier           *string  `json:"tier"`
	Reasoning      *string  `json:"reasoning"`
	FirstOutreach  *string  `json:"first_outreach_target"`
	KeyOpportunity []string `json:"key_opportunities,omitempty"`
	Notes          *string  `json:"notes"`
}

// ThirdPlace is an off-org student hangout surfaced by the campus engine.
type ThirdPlace struct {
	Name            string  `json:"name"`
	Type            *string `json:"type"`
	PopularityLevel *string `json:"popularity_level"`
	StudentActivity *string `json:"student_activity"`
}

// RunMeta records provenance for a single research run.
type RunMeta struct {
	RunID        string        `json:"run_id"`
	GeneratedAt  time.Time     `json:"generated_at"`
	Duration     time.Duration `json:"duration_ns"`
	Completeness float64       `json:"completeness"`
	Engines      []string      `json:"engines_used,omitempty"`

	// Ops is the operation metrics snapshot recorded when the run was
	// saved, surfaced later by the stats command.
	Ops *metrics.Snapshot `json:"op_metrics,omitempty"`
}

// CampusDossier is the aggregated structured record produced by a pipeline
// run. Each run owns its own instance; it is never mutated concurrently.
type CampusDossier struct {
	Campus        string          `json:"campus_name"`
	Scorecard     *Scorecard      `json:"scorecard,omitempty"`
	Organizations []Organization  `json:"diamond_orgs,omitempty"`
	Contacts      []ContactRecord `json:"contacts,omitempty"`
	Events        []Event         `json:"events,omitempty"`
	ThirdPlaces   []ThirdPlace    `json:"third_places,omitempty"`
	Assessment    *Assessment     `json:"assessment,omitempty"`
	Findings      []string        `json:"recent_findings,omitempty"`
	Sources       []string        `json:"sources,omitempty"`
	Meta          RunMeta         `json:"meta"`
}

// Gatekeeper is a university sports-medicine decision maker found by the
// recon engine.
type Gatekeeper struct {
	Name            string     `json:"name"`
	Title           *string    `json:"title"`
	Email           *string    `json:"email"`
	Phone           *string    `json:"phone"`
	BioURL          *string    `json:"bio_url"`
	ThoughtLeader   bool       `json:"is_thought_leader"`
	Evidence        *string    `json:"wom_evidence"`
	Seniority       *string    `json:"seniority_level"`
	YearsAtCampus   *string    `json:"years_at_institution"`
	EmailConfidence Confidence `json:"email_confidence"`
}

// Clinic is a private practice in the local sports-medicine ecosystem.
type Clinic struct {
	Name           string  `json:"clinic_name"`
	Practitioners  *string `json:"key_practitioners"`
	Specialization *string `json:"specialization"`
	Affiliations   *string `json:"athletic_affiliations"`
	Website        *string `json:"website"`
	Location       *string `json:"location"`
}

// ReconDossier is the agentic recon engine's output for one university.
type ReconDossier struct {
	University      string       `json:"university"`
	AthleticsDomain *string      `json:"athletics_domain"`
	Gatekeepers     []Gatekeeper `json:"gatekeepers"`
	LocalEcosystem  []Clinic     `json:"local_ecosystem"`
	ResearchNotes   *string      `json:"research_notes"`
	Meta            RunMeta      `json:"meta"`
}
