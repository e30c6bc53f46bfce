package domain

import "time"

// DocumentType partitions the knowledge base into drug and syndrome profiles.
type DocumentType string

const (
	DocumentTypeDrug     DocumentType = "drug"
	DocumentTypeSyndrome DocumentType = "syndrome"
)

// IsValidDocumentType checks if a DocumentType is valid
func IsValidDocumentType(t DocumentType) bool {
	switch t {
	case DocumentTypeDrug, DocumentTypeSyndrome:
		return true
	}
	return false
}

// SectionFullDocument is the synthetic section label for the whole-document chunk.
const SectionFullDocument = "FULL_DOCUMENT"

// DocumentChunk represents a named, embeddable span of a knowledge document.
// Chunks are written once at ingestion and never updated in place.
type DocumentChunk struct {
	ID           string
	DocumentType DocumentType
	Name         string
	Section      string
	Content      string
	Embedding    []float32
	SourceFile   string
	TokenCount   int
	CreatedAt    time.Time
}

// RetrievedChunk is a read-only projection of a DocumentChunk returned by
// vector search. Scores are comparable only within a single query.
type RetrievedChunk struct {
	DocumentType DocumentType
	Name         string
	Section      string
	Content      string
	Score        float32
}
