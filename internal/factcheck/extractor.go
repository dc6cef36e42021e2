package factcheck

import (
	"context"
	"fmt"
	"strings"

	"github.com/trustai/trust-server/internal/llm"
)

// Extractor turns free text into a list of atomic factual claims via a
// single structured-output completion call.
type Extractor struct {
	llm CompletionClient
}

// NewExtractor creates a new claim extractor.
func NewExtractor(client CompletionClient) *Extractor {
	return &Extractor{llm: client}
}

// Extract returns the claims found in text, in source order. Duplicate
// claims are kept and evidenced independently. Empty or whitespace-only
// input yields no claims without calling the completion service.
func (e *Extractor) Extract(ctx context.Context, text string) ([]Claim, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	response, err := e.llm.CompleteJSON(ctx, claimExtractionPrompt, text)
	if err != nil {
		return nil, fmt.Errorf("generating claim extraction: %w", err)
	}

	var parsed struct {
		Claims []Claim `json:"claims"`
	}
	if err := llm.DecodeJSON(response, &parsed); err != nil {
		return nil, fmt.Errorf("parsing claim extraction response: %w", err)
	}

	claims := parsed.Claims
	for i := range claims {
		if claims[i].ID == "" {
			claims[i].ID = fmt.Sprintf("c%d", i+1)
		}
	}
	return claims, nil
}

// ClaimsFromFacts wraps caller-provided fact strings as claims, for
// requests that ship pre-extracted facts instead of raw text.
func ClaimsFromFacts(facts []string) []Claim {
	claims := make([]Claim, 0, len(facts))
	for i, fact := range facts {
		claims = append(claims, Claim{
			ID:   fmt.Sprintf("f%d", i+1),
			Text: fact,
		})
	}
	return claims
}
