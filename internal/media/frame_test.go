package media

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// fakeVision records prompts and returns a canned response.
type fakeVision struct {
	response string
	err      error
	prompts  []string
	urls     []string
}

func (f *fakeVision) CompleteVision(ctx context.Context, prompt, imageURL string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.urls = append(f.urls, imageURL)
	return f.response, f.err
}

// serveImage returns a server that responds with the given bytes.
func serveImage(t *testing.T, data []byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
}

func jpegWithoutEXIF() []byte {
	return []byte{0xFF, 0xD8, 0xFF, 0xDB, 0x00, 0x04, 0x00, 0x00}
}

func TestAnalyzeImage(t *testing.T) {
	server := serveImage(t, jpegWithoutEXIF())
	defer server.Close()

	fake := &fakeVision{response: `{"description":"A city street at dusk","is_ai_generated":true,"confidence":91,"reasoning":"Inconsistent shadows"}`}
	analyzer := NewFrameAnalyzer(fake)

	fv, err := analyzer.AnalyzeImage(context.Background(), server.URL+"/img.jpg")
	if err != nil {
		t.Fatalf("analyzing image: %v", err)
	}

	if fv.IsAIGenerated == nil || !*fv.IsAIGenerated {
		t.Error("expected is_ai_generated true")
	}
	if fv.Confidence != 91 {
		t.Errorf("expected confidence 91, got %d", fv.Confidence)
	}
	if fv.Description != "A city street at dusk" {
		t.Errorf("unexpected description: %q", fv.Description)
	}
	if fv.EXIF == nil || fv.EXIF.HasEXIF {
		t.Error("expected EXIF scan result with has_exif false")
	}

	// Metadata absence must be surfaced to the model as a prompt hint
	if len(fake.prompts) != 1 || !strings.Contains(fake.prompts[0], "Has EXIF: false") {
		t.Error("expected metadata summary embedded in the prompt")
	}
}

func TestAnalyzeImageUnfetchableStillAnalyzes(t *testing.T) {
	fake := &fakeVision{response: `{"description":"d","is_ai_generated":false,"confidence":40,"reasoning":"r"}`}
	analyzer := NewFrameAnalyzer(fake)

	fv, err := analyzer.AnalyzeImage(context.Background(), "http://127.0.0.1:1/unreachable.jpg")
	if err != nil {
		t.Fatalf("analyzing image: %v", err)
	}
	if fv.EXIF != nil {
		t.Error("expected no EXIF result when the image cannot be fetched")
	}
	if fv.Confidence != 40 {
		t.Errorf("expected confidence 40, got %d", fv.Confidence)
	}
}

func TestAnalyzeFrameNormalizesUnitConfidence(t *testing.T) {
	fake := &fakeVision{response: `{"ai_generated":true,"confidence":0.82,"reasoning":"texture artifacts"}`}
	analyzer := NewFrameAnalyzer(fake)

	fv, err := analyzer.AnalyzeFrame(context.Background(), "https://cdn.example.com/frame_001.png")
	if err != nil {
		t.Fatalf("analyzing frame: %v", err)
	}
	if fv.IsAIGenerated == nil || !*fv.IsAIGenerated {
		t.Error("expected ai_generated true")
	}
	if fv.Confidence != 82 {
		t.Errorf("expected confidence 82, got %d", fv.Confidence)
	}
}

func TestAnalyzeFrameParseFallback(t *testing.T) {
	raw := "I think this image might be synthetic but I cannot answer in JSON."
	fake := &fakeVision{response: raw}
	analyzer := NewFrameAnalyzer(fake)

	fv, err := analyzer.AnalyzeFrame(context.Background(), "https://cdn.example.com/frame_001.png")
	if err != nil {
		t.Fatalf("parse fallback must not error: %v", err)
	}
	if fv.IsAIGenerated != nil {
		t.Error("expected nil verdict for unparseable response")
	}
	if fv.Confidence != 0 {
		t.Errorf("expected confidence 0, got %d", fv.Confidence)
	}
	if fv.Reasoning != raw {
		t.Errorf("expected raw text preserved in reasoning, got %q", fv.Reasoning)
	}
}

func TestAnalyzeFrameFencedResponse(t *testing.T) {
	fake := &fakeVision{response: "```json\n{\"ai_generated\":false,\"confidence\":0.3,\"reasoning\":\"natural noise\"}\n```"}
	analyzer := NewFrameAnalyzer(fake)

	fv, err := analyzer.AnalyzeFrame(context.Background(), "https://cdn.example.com/frame_002.png")
	if err != nil {
		t.Fatalf("analyzing frame: %v", err)
	}
	if fv.IsAIGenerated == nil || *fv.IsAIGenerated {
		t.Error("expected ai_generated false")
	}
	if fv.Confidence != 30 {
		t.Errorf("expected confidence 30, got %d", fv.Confidence)
	}
}

func TestAnalyzeTransportError(t *testing.T) {
	fake := &fakeVision{err: errors.New("connection refused")}
	analyzer := NewFrameAnalyzer(fake)

	if _, err := analyzer.AnalyzeFrame(context.Background(), "https://cdn.example.com/frame.png"); err == nil {
		t.Error("expected error when the completion call fails")
	}
}

func TestSingleImageVerdict(t *testing.T) {
	ai := true
	agg := SingleImageVerdict(FrameVerdict{
		FrameRef:      "https://example.com/a.jpg",
		Description:   "a rendered portrait",
		IsAIGenerated: &ai,
		Confidence:    91,
	})

	if agg.Kind != KindSingleImage {
		t.Errorf("expected kind single_image, got %q", agg.Kind)
	}
	if agg.OverallConfidence != 91 || agg.OverallIsAIGenerated == nil || !*agg.OverallIsAIGenerated {
		t.Errorf("unexpected aggregate: %+v", agg)
	}
	if agg.Summary != "a rendered portrait" {
		t.Errorf("unexpected summary: %q", agg.Summary)
	}
}
