package media

import (
	"context"

	"github.com/trustai/trust-server/internal/exif"
	"github.com/trustai/trust-server/internal/verdict"
)

// Media verdict kinds.
const (
	KindSingleImage = "single_image"
	KindVideo       = "video"
)

// FrameVerdict is the AI-generation judgment for one image or sampled
// video frame. A nil IsAIGenerated marks an unparseable model response;
// the raw text is kept in Reasoning.
type FrameVerdict struct {
	FrameRef      string             `json:"frame"`
	Description   string             `json:"description,omitempty"`
	IsAIGenerated *bool              `json:"is_ai_generated"`
	Confidence    verdict.Confidence `json:"confidence"`
	Reasoning     string             `json:"reasoning"`
	EXIF          *exif.Result       `json:"exif,omitempty"`
}

// AggregateMediaVerdict is the overall judgment for one image or video.
// Immutable once computed; per-frame verdicts are discarded after
// aggregation.
type AggregateMediaVerdict struct {
	Kind                 string             `json:"kind"`
	OverallIsAIGenerated *bool              `json:"overall_is_ai_generated"`
	OverallConfidence    verdict.Confidence `json:"overall_confidence"`
	Summary              string             `json:"description_or_summary"`
}

// VisionClient is the slice of the LLM client the media branch needs.
type VisionClient interface {
	CompleteVision(ctx context.Context, prompt, imageURL string) (string, error)
}
