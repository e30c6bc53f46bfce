package service

import (
	"fmt"
	"strings"

	"github.com/clarivex-health/advera/internal/domain"
)

// FormatContext renders a retrieved bundle into the fixed-format text block
// inserted into the generation prompt. Chunks keep their search order; both
// divisions are emitted even when empty.
func FormatContext(bundle *domain.ContextBundle) string {
	var b strings.Builder

	b.WriteString("=== RETRIEVED MEDICAL KNOWLEDGE ===\n\n")

	b.WriteString("--- DRUG INFORMATION ---\n\n")
	for i, chunk := range bundle.DrugChunks {
		fmt.Fprintf(&b, "[Drug Knowledge %d] %s - %s\n", i+1, chunk.Name, chunk.Section)
		b.WriteString(chunk.Content)
		b.WriteString("\n\n")
	}

	b.WriteString("\n--- SYNDROME INFORMATION ---\n\n")
	for i, chunk := range bundle.SyndromeChunks {
		fmt.Fprintf(&b, "[Syndrome Knowledge %d] %s - %s\n", i+1, chunk.Name, chunk.Section)
		b.WriteString(chunk.Content)
		b.WriteString("\n\n")
	}

	return b.String()
}
