package factcheck

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/trustai/trust-server/internal/llm"
	"github.com/trustai/trust-server/internal/verdict"
)

// Fuser combines the model's unaided judgment with the gathered
// evidence into one final verdict per claim. All claims travel in a
// single completion call so the model can cross-reference them.
type Fuser struct {
	llm CompletionClient
}

// NewFuser creates a new verdict fuser.
func NewFuser(client CompletionClient) *Fuser {
	return &Fuser{llm: client}
}

type fusePayload struct {
	OriginalText string     `json:"original_text"`
	Claims       []Claim    `json:"claims"`
	Evidence     []Evidence `json:"evidence"`
}

// rawClaimVerdict matches the model's output shape before confidence
// normalization.
type rawClaimVerdict struct {
	ID                 string   `json:"id"`
	Text               string   `json:"text"`
	PriorVerdict       string   `json:"prior_verdict"`
	PriorConfidence    float64  `json:"prior_confidence"`
	EvidenceVerdict    string   `json:"evidence_verdict"`
	EvidenceConfidence float64  `json:"evidence_confidence"`
	FinalVerdict       string   `json:"final_verdict"`
	FinalConfidence    float64  `json:"final_confidence"`
	Reasons            []string `json:"reasons"`
	SourcesUsed        []string `json:"sources_used"`
}

// Fuse produces one ClaimVerdict per claim. A completion failure is
// fatal to the text branch and reported to the caller.
func (f *Fuser) Fuse(ctx context.Context, originalText string, claims []Claim, evidences []Evidence) ([]ClaimVerdict, error) {
	payload, err := json.Marshal(fusePayload{
		OriginalText: originalText,
		Claims:       claims,
		Evidence:     evidences,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling fuse payload: %w", err)
	}

	response, err := f.llm.CompleteJSON(ctx, factCheckSystemPrompt, string(payload))
	if err != nil {
		return nil, fmt.Errorf("generating fact-check analysis: %w", err)
	}

	var parsed struct {
		Claims []rawClaimVerdict `json:"claims"`
	}
	if err := llm.DecodeJSON(response, &parsed); err != nil {
		return nil, fmt.Errorf("parsing fact-check response: %w", err)
	}

	verdicts := make([]ClaimVerdict, 0, len(parsed.Claims))
	for _, raw := range parsed.Claims {
		verdicts = append(verdicts, ClaimVerdict{
			ID:                 raw.ID,
			Text:               raw.Text,
			PriorVerdict:       raw.PriorVerdict,
			PriorConfidence:    verdict.FromModel(raw.PriorConfidence),
			EvidenceVerdict:    raw.EvidenceVerdict,
			EvidenceConfidence: verdict.FromModel(raw.EvidenceConfidence),
			FinalVerdict:       raw.FinalVerdict,
			FinalConfidence:    verdict.FromModel(raw.FinalConfidence),
			Reasons:            raw.Reasons,
			SourcesUsed:        raw.SourcesUsed,
		})
	}
	return verdicts, nil
}
