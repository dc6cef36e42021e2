package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/trustai/trust-server/internal/exif"
	"github.com/trustai/trust-server/internal/llm"
	"github.com/trustai/trust-server/internal/verdict"
)

// imageFetchLimit caps how much of an image is downloaded for metadata
// scanning; EXIF lives in the first segments of a JPEG.
const imageFetchLimit = 4 << 20

// FrameAnalyzer produces an AI-generation verdict for a single image
// via one multimodal completion call.
type FrameAnalyzer struct {
	llm        VisionClient
	httpClient *http.Client
}

// NewFrameAnalyzer creates a new frame analyzer.
func NewFrameAnalyzer(client VisionClient) *FrameAnalyzer {
	return &FrameAnalyzer{
		llm:        client,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// rawFrameResult matches the model's output for both detection prompts.
// The image prompt uses is_ai_generated on a 0-100 scale, the frame
// prompt ai_generated on 0-1; both keys are accepted.
type rawFrameResult struct {
	Description   string  `json:"description"`
	IsAIGenerated *bool   `json:"is_ai_generated"`
	AIGenerated   *bool   `json:"ai_generated"`
	Confidence    float64 `json:"confidence"`
	Reasoning     string  `json:"reasoning"`
}

// AnalyzeImage judges a user-submitted image. The image is downloaded
// first so its metadata can inform the detection prompt; a failed
// download only costs the hint, not the verdict.
func (a *FrameAnalyzer) AnalyzeImage(ctx context.Context, imageURL string) (FrameVerdict, error) {
	var meta *exif.Result
	if data, err := a.fetchImage(ctx, imageURL); err == nil {
		res := exif.Scan(data)
		meta = &res
	}

	prompt := imageDetectionPrompt
	if meta != nil {
		prompt += meta.Summary()
	}

	fv, err := a.analyze(ctx, prompt, imageURL)
	if err != nil {
		return FrameVerdict{}, err
	}
	fv.EXIF = meta
	return fv, nil
}

// AnalyzeFrame judges one sampled video frame. Frames are re-encoded
// stills, so no metadata hint is gathered.
func (a *FrameAnalyzer) AnalyzeFrame(ctx context.Context, frameURL string) (FrameVerdict, error) {
	return a.analyze(ctx, frameDetectionPrompt, frameURL)
}

func (a *FrameAnalyzer) analyze(ctx context.Context, prompt, imageURL string) (FrameVerdict, error) {
	raw, err := a.llm.CompleteVision(ctx, prompt, imageURL)
	if err != nil {
		return FrameVerdict{}, fmt.Errorf("requesting image analysis: %w", err)
	}

	var parsed rawFrameResult
	if err := llm.DecodeJSON(raw, &parsed); err != nil {
		// Non-fatal fallback: keep the raw text and continue.
		return FrameVerdict{
			FrameRef:      imageURL,
			IsAIGenerated: nil,
			Confidence:    0,
			Reasoning:     raw,
		}, nil
	}

	isAI := parsed.IsAIGenerated
	if isAI == nil {
		isAI = parsed.AIGenerated
	}

	return FrameVerdict{
		FrameRef:      imageURL,
		Description:   parsed.Description,
		IsAIGenerated: isAI,
		Confidence:    verdict.FromModel(parsed.Confidence),
		Reasoning:     parsed.Reasoning,
	}, nil
}

func (a *FrameAnalyzer) fetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, imageFetchLimit))
}

// SingleImageVerdict lifts one frame verdict into the aggregate shape
// used by the synthesis context.
func SingleImageVerdict(fv FrameVerdict) *AggregateMediaVerdict {
	return &AggregateMediaVerdict{
		Kind:                 KindSingleImage,
		OverallIsAIGenerated: fv.IsAIGenerated,
		OverallConfidence:    fv.Confidence,
		Summary:              fv.Description,
	}
}
