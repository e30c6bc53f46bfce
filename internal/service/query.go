package service

import (
	"fmt"
	"strings"
)

// Age and duration tags used to bias the semantic query. Bands are fixed;
// the first matching threshold wins.
const (
	ageTagElderly = "elderly"
	ageTagAdult   = "adult"

	durationTagShortTerm = "short-term"
	durationTagAcute     = "acute"
	durationTagChronic   = "chronic prolonged"

	elderlyAgeThreshold    = 65
	shortTermDaysThreshold = 7
	acuteDaysThreshold     = 30
)

// AgeTag buckets a patient age into the query's age risk modifier.
func AgeTag(age int) string {
	if age >= elderlyAgeThreshold {
		return ageTagElderly
	}
	return ageTagAdult
}

// DurationTag buckets a treatment duration into the query's duration modifier.
func DurationTag(days int) string {
	if days <= shortTermDaysThreshold {
		return durationTagShortTerm
	}
	if days <= acuteDaysThreshold {
		return durationTagAcute
	}
	return durationTagChronic
}

// BuildSemanticQuery composes the natural-language search query for a case.
// The fixed keyword expansion is a lexical heuristic to bias the embedding
// toward clinically relevant neighbors.
func BuildSemanticQuery(drugName, stopReason string, age, durationDays int) string {
	query := fmt.Sprintf(
		"%s %s adverse effect mechanism toxicity %s age risk %s duration pathophysiology clinical manifestation syndrome complication serious",
		drugName,
		stopReason,
		AgeTag(age),
		DurationTag(durationDays),
	)

	return strings.Join(strings.Fields(query), " ")
}
