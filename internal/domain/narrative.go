package domain

import "time"

// FallbackFieldValue is returned by narrative field extraction when the
// generated text does not contain a recognizable section heading.
const FallbackFieldValue = "See full narrative"

// ClinicalNarrative is the generated pharmacovigilance narrative for a case,
// together with the summary fields extracted from the free text.
type ClinicalNarrative struct {
	PatientID         string
	DrugName          string
	DurationDays      int
	StopReason        string
	Narrative         string
	ProbableSyndrome  string
	Mechanism         string
	SeriousnessLevel  string
	CausalityCategory string
	ClinicalAdvice    string
	GeneratedAt       time.Time
}
