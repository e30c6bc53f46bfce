package service

import (
	"fmt"

	"github.com/clarivex-health/advera/internal/domain"
)

// SystemMessage is the fixed system instruction for the generation backend.
const SystemMessage = "You are a Senior Pharmacovigilance Physician AI specializing in adverse drug reaction analysis. You provide evidence-based, conservative clinical assessments following ICH E2B standards."

const promptSeparator = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// BuildPrompt fills the pharmacovigilance narrative template with case
// fields and the formatted retrieval context. The seven sections and the
// WHO-UMC causality category definitions are fixed constants of the template.
func BuildPrompt(c domain.Case, retrievedContext string) string {
	return fmt.Sprintf(`You are a Senior Pharmacovigilance Physician AI with expertise in adverse drug reaction analysis.

ROLE:
You MUST analyze this adverse drug reaction case using ONLY the retrieved medical knowledge provided below.
Generate a structured, evidence-based clinical safety narrative following ICH E2B pharmacovigilance standards.

CASE DETAILS:
%[1]s
Patient ID: %[2]s
Age: %[3]d years
Gender: %[4]s
Drug: %[5]s
Treatment Duration: %[6]d days
Stop Reason: %[7]s
%[1]s

RETRIEVED MEDICAL KNOWLEDGE:
%[1]s
%[8]s
%[1]s

INSTRUCTIONS:
Generate a comprehensive pharmacovigilance narrative with the following sections:

1. CASE SUMMARY
   - Describe the temporal association between drug exposure and symptom onset
   - Include patient demographics and relevant risk factors
   - State the clinical presentation clearly

2. MECHANISTIC EXPLANATION
   - Explain the pharmacological mechanism linking the drug to the adverse event
   - Reference specific pathways (e.g., enzyme inhibition, receptor effects, metabolic pathways)
   - Discuss dose-duration relationship if relevant

3. SYNDROME CORRELATION
   - Identify the most probable adverse drug reaction syndrome
   - Explain why this syndrome best fits the clinical picture
   - Reference diagnostic criteria or clinical markers from retrieved knowledge

4. RISK STRATIFICATION
   - Analyze age-related risk factors
   - Discuss organ function implications (hepatic, renal, cardiac)
   - Assess drug accumulation or interaction potential
   - Identify patient-specific vulnerabilities

5. SERIOUSNESS ASSESSMENT
   - Classify severity: Mild / Moderate / Severe / Life-Threatening
   - Assess hospitalization requirement likelihood
   - Evaluate potential for permanent disability or mortality
   - Justify your classification with medical reasoning

6. REGULATORY CAUSALITY ASSESSMENT
   - Apply WHO-UMC causality categories:
     * Certain: Event follows plausible temporal sequence, cannot be explained by other factors
     * Probable/Likely: Event follows reasonable temporal sequence, unlikely due to other factors
     * Possible: Event follows reasonable temporal sequence, could be explained by other factors
     * Unlikely: Temporal relationship makes causality improbable
   - Provide justification for your category selection

7. CLINICAL RECOMMENDATIONS
   - Specify monitoring parameters and frequency
   - Recommend drug discontinuation or dose adjustment
   - Suggest alternative therapy options if appropriate
   - Outline follow-up requirements

CRITICAL REQUIREMENTS:
• Use ONLY information from the retrieved medical knowledge above
• NO hallucinations or unsupported claims
• Use cautious, medically conservative language
• Phrase conclusions as "probable", "suggestive of", "consistent with"
• Do NOT provide definitive diagnosis
• Do NOT replace clinical judgment
• Follow pharmacovigilance terminology
• Be thorough but concise
• Use medical terminology appropriately

OUTPUT FORMAT:
Generate the narrative as structured paragraphs under each section heading.
Be specific, evidence-based, and clinically relevant.

Begin your response now:`,
		promptSeparator,
		c.PatientID,
		c.Age,
		c.Gender,
		c.DrugName,
		c.DurationDays,
		c.StopReason,
		retrievedContext,
	)
}
