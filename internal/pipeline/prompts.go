package pipeline

import (
	"fmt"
	"strings"

	"github.com/trustai/trust-server/internal/factcheck"
)

const narrationSystemPrompt = "You are TrustAI, a helpful fact-checking assistant."

// Fixed section headers for the narrated report. SECTION 1 and 2 are
// conditional on their analysis being present; SECTION 3 always renders.
const (
	sectionMediaHeader   = "SECTION 1: IMAGE OR VIDEO ANALYSIS"
	sectionClaimsHeader  = "SECTION 2: FACT-CHECKED CLAIMS"
	sectionSummaryHeader = "SECTION 3: SUMMARY"
)

// BuildNarrationPrompt renders the synthesis context into the narration
// instruction. The prompt pre-renders all confidence values as integer
// percentages and enumerates only the sections the model is allowed to
// produce, so section presence is decided here, not by the model.
func BuildNarrationPrompt(sc SynthesisContext) string {
	var b strings.Builder

	b.WriteString("Write a plain-text trust report for the user based on the analysis data below.\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Plain text only. No markdown, no JSON, no code fences.\n")
	b.WriteString("- Express every confidence as an integer percentage with a trailing % sign.\n")
	b.WriteString("- Use exactly the section headers listed below, in order, and no others.\n")
	b.WriteString("- Do not invent analysis results that are not in the data.\n\n")

	if sc.UserText != "" {
		b.WriteString("User text:\n")
		b.WriteString(sc.UserText)
		b.WriteString("\n\n")
	}

	if sc.MediaSummary != nil {
		m := sc.MediaSummary
		b.WriteString(sectionMediaHeader)
		b.WriteString("\n")
		fmt.Fprintf(&b, "- Media kind: %s\n", m.Kind)
		fmt.Fprintf(&b, "- Verdict: %s\n", mediaVerdictLabel(m.OverallIsAIGenerated))
		fmt.Fprintf(&b, "- Confidence: %s\n", m.OverallConfidence)
		if m.Summary != "" {
			fmt.Fprintf(&b, "- Description: %s\n", m.Summary)
		}
		b.WriteString("\n")
	}

	if len(sc.ClaimVerdicts) > 0 {
		b.WriteString(sectionClaimsHeader)
		b.WriteString("\n")
		for _, cv := range sc.ClaimVerdicts {
			fmt.Fprintf(&b, "- Claim %s: %q\n", cv.ID, cv.Text)
			fmt.Fprintf(&b, "  Verdict: %s (%s). Evidence: %s (%s).\n",
				claimVerdictLabel(cv.FinalVerdict), cv.FinalConfidence,
				evidenceVerdictLabel(cv.EvidenceVerdict), cv.EvidenceConfidence)
			if len(cv.Reasons) > 0 {
				fmt.Fprintf(&b, "  Reasons: %s\n", strings.Join(cv.Reasons, "; "))
			}
			if len(cv.SourcesUsed) > 0 {
				fmt.Fprintf(&b, "  Sources: %s\n", strings.Join(cv.SourcesUsed, ", "))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(sectionSummaryHeader)
	b.WriteString("\n")
	b.WriteString("- Give an overall trustworthiness assessment of the submitted content in two or three sentences.\n")

	return b.String()
}

func mediaVerdictLabel(isAI *bool) string {
	switch {
	case isAI == nil:
		return "Uncertain"
	case *isAI:
		return "Likely AI-generated"
	default:
		return "Likely authentic"
	}
}

func claimVerdictLabel(v string) string {
	switch v {
	case factcheck.VerdictLikelyTrue:
		return "Likely true"
	case factcheck.VerdictLikelyFalse:
		return "Likely false"
	default:
		return "Uncertain"
	}
}

func evidenceVerdictLabel(v string) string {
	switch v {
	case factcheck.EvidenceSupported:
		return "supported"
	case factcheck.EvidenceContradicted:
		return "contradicted"
	default:
		return "not enough info"
	}
}
