package factcheck

import (
	"context"

	"github.com/trustai/trust-server/internal/verdict"
)

// Claim is one atomic factual statement extracted from user text.
// IDs are stable within a single request ("c1", "c2", ...) and carry
// no meaning across requests.
type Claim struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Evidence holds the third-party snippets gathered for one claim.
// Either source being empty is a valid, non-error state.
type Evidence struct {
	ClaimID      string   `json:"claim_id"`
	Encyclopedia string   `json:"encyclopedia_snippet"`
	WebSnippets  []string `json:"web_snippets"`
}

// Verdict labels for the model's unaided ("prior") and final judgments.
const (
	VerdictLikelyTrue  = "likely_true"
	VerdictLikelyFalse = "likely_false"
	VerdictUncertain   = "uncertain"
)

// Verdict labels for the evidence-based judgment.
const (
	EvidenceSupported     = "supported"
	EvidenceContradicted  = "contradicted"
	EvidenceNotEnoughInfo = "not_enough_info"
)

// ClaimVerdict is the fused judgment for one claim. Produced once per
// request and never mutated afterward.
type ClaimVerdict struct {
	ID                 string             `json:"id"`
	Text               string             `json:"text"`
	PriorVerdict       string             `json:"prior_verdict"`
	PriorConfidence    verdict.Confidence `json:"prior_confidence"`
	EvidenceVerdict    string             `json:"evidence_verdict"`
	EvidenceConfidence verdict.Confidence `json:"evidence_confidence"`
	FinalVerdict       string             `json:"final_verdict"`
	FinalConfidence    verdict.Confidence `json:"final_confidence"`
	Reasons            []string           `json:"reasons"`
	SourcesUsed        []string           `json:"sources_used"`
}

// CompletionClient is the slice of the LLM client the text branch needs.
type CompletionClient interface {
	CompleteJSON(ctx context.Context, system, user string) (string, error)
}
