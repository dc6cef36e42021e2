package factcheck

import (
	"context"
	"errors"
	"testing"
)

func TestFuse(t *testing.T) {
	fake := &fakeCompletion{response: `{"claims":[{
		"id": "c1",
		"text": "The Eiffel Tower is in Berlin.",
		"prior_verdict": "likely_false",
		"prior_confidence": 95,
		"evidence_verdict": "contradicted",
		"evidence_confidence": 0.9,
		"final_verdict": "likely_false",
		"final_confidence": 97,
		"reasons": ["The Eiffel Tower is in Paris."],
		"sources_used": ["wikipedia"]
	}]}`}

	fuser := NewFuser(fake)
	claims := []Claim{{ID: "c1", Text: "The Eiffel Tower is in Berlin."}}
	evidences := []Evidence{{ClaimID: "c1", Encyclopedia: "The Eiffel Tower is in Paris.", WebSnippets: []string{}}}

	verdicts, err := fuser.Fuse(context.Background(), "The Eiffel Tower is in Berlin.", claims, evidences)
	if err != nil {
		t.Fatalf("fusing: %v", err)
	}
	if len(verdicts) != 1 {
		t.Fatalf("expected 1 verdict, got %d", len(verdicts))
	}

	v := verdicts[0]
	if v.FinalVerdict != VerdictLikelyFalse {
		t.Errorf("expected final verdict likely_false, got %q", v.FinalVerdict)
	}
	if v.PriorConfidence != 95 {
		t.Errorf("expected prior confidence 95, got %d", v.PriorConfidence)
	}
	// A 0-1 model confidence must land on the canonical 0-100 scale
	if v.EvidenceConfidence != 90 {
		t.Errorf("expected evidence confidence 90, got %d", v.EvidenceConfidence)
	}
	if v.EvidenceVerdict != EvidenceContradicted {
		t.Errorf("expected evidence verdict contradicted, got %q", v.EvidenceVerdict)
	}
}

func TestFuseFencedResponse(t *testing.T) {
	fake := &fakeCompletion{response: "```json\n{\"claims\":[{\"id\":\"c1\",\"text\":\"x\",\"final_verdict\":\"uncertain\",\"final_confidence\":50}]}\n```"}
	verdicts, err := NewFuser(fake).Fuse(context.Background(), "x", []Claim{{ID: "c1", Text: "x"}}, []Evidence{{ClaimID: "c1"}})
	if err != nil {
		t.Fatalf("fusing fenced response: %v", err)
	}
	if len(verdicts) != 1 || verdicts[0].FinalVerdict != VerdictUncertain {
		t.Errorf("unexpected verdicts: %+v", verdicts)
	}
}

func TestFuseFailures(t *testing.T) {
	t.Run("completion error", func(t *testing.T) {
		fake := &fakeCompletion{err: errors.New("upstream down")}
		if _, err := NewFuser(fake).Fuse(context.Background(), "t", nil, nil); err == nil {
			t.Error("expected error when completion fails")
		}
	})

	t.Run("non-JSON response", func(t *testing.T) {
		fake := &fakeCompletion{response: "I cannot verify these claims."}
		if _, err := NewFuser(fake).Fuse(context.Background(), "t", nil, nil); err == nil {
			t.Error("expected error for non-JSON response")
		}
	})
}
