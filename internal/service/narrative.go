package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/clarivex-health/advera/internal/domain"
	"github.com/clarivex-health/advera/internal/telemetry"
)

const (
	extractionWindowChars = 500
	extractionValueChars  = 200
)

// Field heading keywords searched during narrative post-processing, in
// match priority order.
var (
	syndromeKeywords    = []string{"SYNDROME CORRELATION", "Probable Syndrome"}
	mechanismKeywords   = []string{"MECHANISTIC EXPLANATION", "Mechanism"}
	seriousnessKeywords = []string{"SERIOUSNESS ASSESSMENT", "Severity"}
	causalityKeywords   = []string{"CAUSALITY ASSESSMENT", "Causality"}
	adviceKeywords      = []string{"CLINICAL RECOMMENDATIONS", "Recommendations"}
)

// GenerationClient defines the interface for the text-generation backend
type GenerationClient interface {
	GenerateCompletion(ctx context.Context, system, prompt string) (string, error)
}

// CaseRetriever defines the retrieval interface consumed by the narrative service
type CaseRetriever interface {
	Retrieve(ctx context.Context, c domain.Case) (*domain.ContextBundle, error)
}

// ReportStore persists formatted clinical reports keyed by patient ID
type ReportStore interface {
	SaveReport(ctx context.Context, patientID, content string) (string, error)
	GetReport(ctx context.Context, patientID string) (string, error)
}

// NarrativeService runs the full pipeline for one case: retrieval, prompt
// assembly, generation, field extraction, and report persistence.
type NarrativeService struct {
	retriever  CaseRetriever
	generation GenerationClient
	reports    ReportStore
}

// NewNarrativeService creates a new NarrativeService instance
func NewNarrativeService(retriever CaseRetriever, generation GenerationClient, reports ReportStore) *NarrativeService {
	return &NarrativeService{
		retriever:  retriever,
		generation: generation,
		reports:    reports,
	}
}

// GenerateForCase produces a ClinicalNarrative for the given case and writes
// its report to the configured store.
func (s *NarrativeService) GenerateForCase(ctx context.Context, c domain.Case) (*domain.ClinicalNarrative, error) {
	ctx, span := telemetry.StartSpan(ctx, "NarrativeService.GenerateForCase", telemetry.SpanAttributes{
		PatientID: c.PatientID,
		DrugName:  c.DrugName,
		Operation: "generate",
	})
	defer span.End()

	if err := domain.ValidateCase(&c); err != nil {
		return nil, err
	}

	bundle, err := s.retriever.Retrieve(ctx, c)
	if err != nil {
		return nil, err
	}

	prompt := BuildPrompt(c, FormatContext(bundle))

	text, err := s.generation.GenerateCompletion(ctx, SystemMessage, prompt)
	if err != nil {
		return nil, backendError("generation backend", err)
	}

	narrative := &domain.ClinicalNarrative{
		PatientID:         c.PatientID,
		DrugName:          c.DrugName,
		DurationDays:      c.DurationDays,
		StopReason:        c.StopReason,
		Narrative:         text,
		ProbableSyndrome:  extractField(text, syndromeKeywords),
		Mechanism:         extractField(text, mechanismKeywords),
		SeriousnessLevel:  extractField(text, seriousnessKeywords),
		CausalityCategory: extractField(text, causalityKeywords),
		ClinicalAdvice:    extractField(text, adviceKeywords),
		GeneratedAt:       time.Now().UTC(),
	}

	if s.reports != nil {
		if _, err := s.reports.SaveReport(ctx, narrative.PatientID, FormatReport(narrative)); err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternal, "failed to save report", err)
		}
	}

	return narrative, nil
}

// GetReport returns the persisted report for a patient ID.
func (s *NarrativeService) GetReport(ctx context.Context, patientID string) (string, error) {
	if s.reports == nil {
		return "", domain.ErrReportNotFound
	}
	return s.reports.GetReport(ctx, patientID)
}

// extractField pulls a summary value out of the generated free text: on the
// first matching heading keyword it takes up to 500 characters, splits on
// periods, and returns the second sentence truncated to 200 characters.
// Extraction misses yield a fallback placeholder, never an error.
func extractField(text string, keywords []string) string {
	for _, keyword := range keywords {
		idx := strings.Index(text, keyword)
		if idx == -1 {
			continue
		}

		section := truncateRunes(text[idx:], extractionWindowChars)

		sentences := strings.Split(section, ".")
		if len(sentences) > 1 {
			return truncateRunes(strings.TrimSpace(sentences[1]), extractionValueChars)
		}
	}
	return domain.FallbackFieldValue
}

// truncateRunes caps a string at n runes, never splitting a multi-byte
// character the way a byte slice would.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

const reportRule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// FormatReport renders a narrative as the downloadable plain-text clinical
// assessment report.
func FormatReport(n *domain.ClinicalNarrative) string {
	var b strings.Builder

	b.WriteString("╔════════════════════════════════════════════════════════════════════════════╗\n")
	b.WriteString("║                                                                            ║\n")
	b.WriteString("║          ADVERSE DRUG REACTION CLINICAL ASSESSMENT REPORT                  ║\n")
	b.WriteString("║                 AI-Generated Pharmacovigilance Narrative                   ║\n")
	b.WriteString("║                                                                            ║\n")
	b.WriteString("╚════════════════════════════════════════════════════════════════════════════╝\n\n")

	b.WriteString("REPORT METADATA\n")
	b.WriteString(reportRule + "\n")
	fmt.Fprintf(&b, "Generated: %s\n", n.GeneratedAt.Format(time.RFC3339))
	b.WriteString("System: AI-Powered RAG Clinical Narrative Generator\n")
	b.WriteString("Model: Groq Llama3-70B with Medical Knowledge Retrieval\n\n\n")

	b.WriteString("CASE IDENTIFICATION\n")
	b.WriteString(reportRule + "\n")
	fmt.Fprintf(&b, "Patient ID:        %s\n", n.PatientID)
	fmt.Fprintf(&b, "Drug Implicated:   %s\n", n.DrugName)
	fmt.Fprintf(&b, "Treatment Duration: %d days\n", n.DurationDays)
	fmt.Fprintf(&b, "Adverse Event:     %s\n\n\n", n.StopReason)

	b.WriteString("CLINICAL NARRATIVE\n")
	b.WriteString(reportRule + "\n\n")
	b.WriteString(n.Narrative)
	b.WriteString("\n\n\n")

	b.WriteString("SUMMARY ASSESSMENT\n")
	b.WriteString(reportRule + "\n\n")
	fmt.Fprintf(&b, "Probable Syndrome:\n%s\n\n", n.ProbableSyndrome)
	fmt.Fprintf(&b, "Mechanistic Pathway:\n%s\n\n", n.Mechanism)
	fmt.Fprintf(&b, "Seriousness Level:\n%s\n\n", n.SeriousnessLevel)
	fmt.Fprintf(&b, "Causality Category (WHO-UMC):\n%s\n\n", n.CausalityCategory)
	fmt.Fprintf(&b, "Clinical Recommendations:\n%s\n\n\n", n.ClinicalAdvice)

	b.WriteString("DISCLAIMER\n")
	b.WriteString(reportRule + "\n")
	b.WriteString(`This AI-generated narrative is a clinical decision support tool and does NOT
constitute medical diagnosis or treatment advice. All cases should be reviewed
by qualified healthcare professionals. This system uses retrieval-augmented
generation with evidence-based medical knowledge but cannot replace clinical
judgment.

Follow institutional protocols for adverse event reporting and patient management.
`)
	b.WriteString(reportRule + "\n\n")
	b.WriteString("End of Report\n")

	return b.String()
}
