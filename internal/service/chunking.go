package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/clarivex-health/advera/internal/domain"
)

// Section vocabularies recognized per document type. Labels appear in the
// source documents as ALL-CAPS "LABEL:" lines.
var drugSections = []string{
	"MECHANISM OF ACTION",
	"COMMON ADVERSE EFFECTS",
	"SERIOUS ADVERSE EFFECTS",
	"RISK FACTORS",
	"CONTRAINDICATIONS",
	"MONITORING",
	"DRUG INTERACTIONS",
}

var syndromeSections = []string{
	"KEY SYMPTOMS",
	"PATHOPHYSIOLOGY",
	"RISK FACTORS",
	"DIAGNOSTIC MARKERS",
	"CLINICAL ACTION",
	"COMPLICATIONS",
	"SEVERITY",
}

var docNamePattern = regexp.MustCompile(`(DRUG NAME|SYNDROME):\s*(.+)`)

// SectionChunk is a chunk produced by the chunker before embedding.
type SectionChunk struct {
	Name    string
	Section string
	Text    string
}

// SectionLabels returns the controlled section vocabulary for a document type.
func SectionLabels(docType domain.DocumentType) []string {
	if docType == domain.DocumentTypeDrug {
		return drugSections
	}
	return syndromeSections
}

// DocumentName extracts the document name from a leading "DRUG NAME:" or
// "SYNDROME:" line, falling back to the given name when absent.
func DocumentName(content, fallback string) string {
	if m := docNamePattern.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[2])
	}
	return fallback
}

// ChunkDocument splits a knowledge document into one FULL_DOCUMENT chunk plus
// one chunk per section label present in the text. Absent labels are skipped;
// a present label with an empty body still yields a chunk. The full-document
// chunk guarantees at least one chunk per document. Each chunk's text carries
// a document/section header so it stays interpretable when retrieved in
// isolation.
func ChunkDocument(content, fallbackName string, docType domain.DocumentType) []SectionChunk {
	docName := DocumentName(content, fallbackName)

	chunks := []SectionChunk{{
		Name:    docName,
		Section: domain.SectionFullDocument,
		Text:    fmt.Sprintf("Document: %s\n\n%s", docName, content),
	}}

	for _, section := range SectionLabels(docType) {
		body, ok := extractSection(content, section)
		if !ok {
			continue
		}
		chunks = append(chunks, SectionChunk{
			Name:    docName,
			Section: section,
			Text:    fmt.Sprintf("Document: %s\nSection: %s\n\n%s", docName, section, body),
		})
	}

	return chunks
}

// extractSection returns the text between a "LABEL:" line and the next
// ALL-CAPS label line, or end of document.
func extractSection(content, section string) (string, bool) {
	pattern := regexp.MustCompile(`(?s)` + regexp.QuoteMeta(section) + `:[ \t]*\n(.*?)(?:\n[A-Z][A-Z ]*:|\z)`)
	m := pattern.FindStringSubmatch(content)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// estimateTokens gives a rough token count for chunk metadata using the
// common four-characters-per-token approximation.
func estimateTokens(text string) int {
	return len(text) / 4
}
