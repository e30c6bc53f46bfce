package domain

import (
	"fmt"
	"strings"
)

// Case holds the structured fields of one adverse-drug-reaction case.
// A case lives only for the duration of a single retrieval+generation
// request and is never persisted.
type Case struct {
	PatientID    string
	Age          int
	Gender       string
	DrugName     string
	StopReason   string
	DurationDays int
}

// ValidPatientID reports whether a patient ID is safe to splice into a
// report file path or object key. Path separators and ".." are rejected.
func ValidPatientID(id string) bool {
	if id == "" || strings.Contains(id, "..") {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}

// ValidateCase validates a Case before any backend call is made.
func ValidateCase(c *Case) error {
	if c == nil {
		return NewDomainError(ErrCodeValidation, "case cannot be nil")
	}
	if c.PatientID == "" {
		return NewDomainError(ErrCodeValidation, "patient ID is required")
	}
	if !ValidPatientID(c.PatientID) {
		return ErrInvalidPatientID
	}
	if c.DrugName == "" {
		return NewDomainError(ErrCodeValidation, "drug name is required")
	}
	if c.StopReason == "" {
		return NewDomainError(ErrCodeValidation, "stop reason is required")
	}
	if c.Age < 18 || c.Age > 120 {
		return NewDomainError(ErrCodeValidation, fmt.Sprintf("age must be between 18 and 120, got %d", c.Age))
	}
	if c.DurationDays < 1 {
		return NewDomainError(ErrCodeValidation, "duration must be at least 1 day")
	}
	return nil
}

// ContextBundle is the retrieval result for one case: the two ranked chunk
// lists plus the case fields and the composed query string. Produced per
// request and consumed immediately by the context formatter.
type ContextBundle struct {
	Case           Case
	Query          string
	DrugChunks     []RetrievedChunk
	SyndromeChunks []RetrievedChunk
}
