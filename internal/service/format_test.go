package service

import (
	"strings"
	"testing"

	"github.com/clarivex-health/advera/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestFormatContext(t *testing.T) {
	t.Run("renders both divisions with numbered chunks", func(t *testing.T) {
		bundle := &domain.ContextBundle{
			DrugChunks: []domain.RetrievedChunk{
				{DocumentType: domain.DocumentTypeDrug, Name: "Atorvastatin", Section: "RISK FACTORS", Content: "drug chunk one"},
				{DocumentType: domain.DocumentTypeDrug, Name: "Atorvastatin", Section: "MONITORING", Content: "drug chunk two"},
			},
			SyndromeChunks: []domain.RetrievedChunk{
				{DocumentType: domain.DocumentTypeSyndrome, Name: "Rhabdomyolysis", Section: "KEY SYMPTOMS", Content: "syndrome chunk one"},
			},
		}

		out := FormatContext(bundle)

		assert.True(t, strings.HasPrefix(out, "=== RETRIEVED MEDICAL KNOWLEDGE ===\n\n"))
		assert.Contains(t, out, "--- DRUG INFORMATION ---\n\n")
		assert.Contains(t, out, "[Drug Knowledge 1] Atorvastatin - RISK FACTORS\ndrug chunk one\n\n")
		assert.Contains(t, out, "[Drug Knowledge 2] Atorvastatin - MONITORING\ndrug chunk two\n\n")
		assert.Contains(t, out, "--- SYNDROME INFORMATION ---\n\n")
		assert.Contains(t, out, "[Syndrome Knowledge 1] Rhabdomyolysis - KEY SYMPTOMS\nsyndrome chunk one\n\n")

		// drug division precedes syndrome division
		assert.Less(t, strings.Index(out, "DRUG INFORMATION"), strings.Index(out, "SYNDROME INFORMATION"))
	})

	t.Run("emits both division headers even when empty", func(t *testing.T) {
		out := FormatContext(&domain.ContextBundle{})

		assert.Contains(t, out, "--- DRUG INFORMATION ---")
		assert.Contains(t, out, "--- SYNDROME INFORMATION ---")
		assert.NotContains(t, out, "[Drug Knowledge")
		assert.NotContains(t, out, "[Syndrome Knowledge")
	})
}

func TestBuildPrompt(t *testing.T) {
	c := domain.Case{
		PatientID:    "PT-001",
		Age:          72,
		Gender:       "female",
		DrugName:     "Atorvastatin",
		StopReason:   "severe muscle pain",
		DurationDays: 45,
	}

	prompt := BuildPrompt(c, "=== RETRIEVED MEDICAL KNOWLEDGE ===\ncontext body")

	assert.Contains(t, prompt, "Patient ID: PT-001")
	assert.Contains(t, prompt, "Age: 72 years")
	assert.Contains(t, prompt, "Gender: female")
	assert.Contains(t, prompt, "Drug: Atorvastatin")
	assert.Contains(t, prompt, "Treatment Duration: 45 days")
	assert.Contains(t, prompt, "Stop Reason: severe muscle pain")
	assert.Contains(t, prompt, "context body")

	// the seven numbered narrative sections
	for _, heading := range []string{
		"1. CASE SUMMARY",
		"2. MECHANISTIC EXPLANATION",
		"3. SYNDROME CORRELATION",
		"4. RISK STRATIFICATION",
		"5. SERIOUSNESS ASSESSMENT",
		"6. REGULATORY CAUSALITY ASSESSMENT",
		"7. CLINICAL RECOMMENDATIONS",
	} {
		assert.Contains(t, prompt, heading)
	}

	// WHO-UMC causality categories
	for _, category := range []string{"Certain:", "Probable/Likely:", "Possible:", "Unlikely:"} {
		assert.Contains(t, prompt, category)
	}
}
