package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/trustai/trust-server/internal/factcheck"
	"github.com/trustai/trust-server/internal/media"
)

func boolPtr(v bool) *bool { return &v }

type fakeImageAnalyzer struct {
	verdict media.FrameVerdict
	err     error
	calls   int
}

func (f *fakeImageAnalyzer) AnalyzeImage(ctx context.Context, imageURL string) (media.FrameVerdict, error) {
	f.calls++
	return f.verdict, f.err
}

type fakeVideoAnalyzer struct {
	summary *media.AggregateMediaVerdict
	err     error
	calls   int
}

func (f *fakeVideoAnalyzer) Analyze(ctx context.Context, videoRef string) (*media.AggregateMediaVerdict, []media.FrameVerdict, error) {
	f.calls++
	return f.summary, nil, f.err
}

type fakeExtractor struct {
	claims []factcheck.Claim
	err    error
}

func (f *fakeExtractor) Extract(ctx context.Context, text string) ([]factcheck.Claim, error) {
	return f.claims, f.err
}

type fakeEvidence struct{}

func (fakeEvidence) Gather(ctx context.Context, claim factcheck.Claim) factcheck.Evidence {
	return factcheck.Evidence{ClaimID: claim.ID, Encyclopedia: "snippet for " + claim.Text}
}

type fakeFuser struct {
	verdicts  []factcheck.ClaimVerdict
	err       error
	evidences []factcheck.Evidence
}

func (f *fakeFuser) Fuse(ctx context.Context, originalText string, claims []factcheck.Claim, evidences []factcheck.Evidence) ([]factcheck.ClaimVerdict, error) {
	f.evidences = evidences
	return f.verdicts, f.err
}

type fakeNarrator struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeNarrator) Complete(ctx context.Context, system, user string) (string, error) {
	f.prompts = append(f.prompts, user)
	return f.response, f.err
}

type storedMessage struct {
	chatID, role, content, imageURL, debug string
}

type fakeDB struct {
	chatErr     error
	messageErr  error
	createCalls int
	messages    []storedMessage
}

func (f *fakeDB) CreateChat(userID, title string) (string, error) {
	f.createCalls++
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return "chat-1", nil
}

func (f *fakeDB) AddMessage(chatID, role, content, imageURL, debug string) error {
	if f.messageErr != nil {
		return f.messageErr
	}
	f.messages = append(f.messages, storedMessage{chatID, role, content, imageURL, debug})
	return nil
}

type deps struct {
	images   *fakeImageAnalyzer
	videos   *fakeVideoAnalyzer
	extract  *fakeExtractor
	fuser    *fakeFuser
	narrator *fakeNarrator
	store    *fakeDB
}

func newTestOrchestrator(d deps) *Orchestrator {
	if d.images == nil {
		d.images = &fakeImageAnalyzer{}
	}
	if d.videos == nil {
		d.videos = &fakeVideoAnalyzer{}
	}
	if d.extract == nil {
		d.extract = &fakeExtractor{}
	}
	if d.fuser == nil {
		d.fuser = &fakeFuser{}
	}
	if d.narrator == nil {
		d.narrator = &fakeNarrator{response: "narrated report"}
	}
	if d.store == nil {
		d.store = &fakeDB{}
	}
	return New(d.images, d.videos, d.extract, fakeEvidence{}, d.fuser, d.narrator, d.store)
}

func TestRunValidation(t *testing.T) {
	o := newTestOrchestrator(deps{})

	if _, err := o.Run(context.Background(), Request{Text: "hi", UserID: ""}); !errors.Is(err, ErrValidation) {
		t.Errorf("missing identity: got %v, want ErrValidation", err)
	}
	if _, err := o.Run(context.Background(), Request{Text: "   ", UserID: "u1"}); !errors.Is(err, ErrValidation) {
		t.Errorf("empty input: got %v, want ErrValidation", err)
	}
}

func TestRunTextOnly(t *testing.T) {
	narrator := &fakeNarrator{response: "narrated report"}
	fuser := &fakeFuser{verdicts: []factcheck.ClaimVerdict{{
		ID:                 "c1",
		Text:               "The Eiffel Tower is in Berlin.",
		EvidenceVerdict:    factcheck.EvidenceContradicted,
		EvidenceConfidence: 95,
		FinalVerdict:       factcheck.VerdictLikelyFalse,
		FinalConfidence:    97,
		Reasons:            []string{"Encyclopedia entry places it in Paris"},
	}}}
	store := &fakeDB{}
	o := newTestOrchestrator(deps{
		extract:  &fakeExtractor{claims: []factcheck.Claim{{ID: "c1", Text: "The Eiffel Tower is in Berlin."}}},
		fuser:    fuser,
		narrator: narrator,
		store:    store,
	})

	res, err := o.Run(context.Background(), Request{Text: "The Eiffel Tower is in Berlin.", UserID: "u1"})
	if err != nil {
		t.Fatalf("running pipeline: %v", err)
	}

	if res.ChatID != "chat-1" || res.Response != "narrated report" {
		t.Errorf("unexpected result: %+v", res)
	}
	if len(res.Context.ClaimVerdicts) != 1 {
		t.Fatalf("expected 1 claim verdict, got %d", len(res.Context.ClaimVerdicts))
	}
	if res.Context.MediaSummary != nil {
		t.Error("expected no media summary for text-only input")
	}

	// Each claim carried exactly one evidence record into fusion
	if len(fuser.evidences) != 1 || fuser.evidences[0].ClaimID != "c1" {
		t.Errorf("unexpected evidences: %+v", fuser.evidences)
	}

	prompt := narrator.prompts[0]
	if strings.Contains(prompt, sectionMediaHeader) {
		t.Error("expected media section to be omitted without media input")
	}
	if !strings.Contains(prompt, sectionClaimsHeader) {
		t.Error("expected claims section header in the prompt")
	}
	if !strings.Contains(prompt, sectionSummaryHeader) {
		t.Error("expected summary section header in the prompt")
	}
	if !strings.Contains(prompt, "97%") {
		t.Error("expected integer-percent confidence in the prompt")
	}

	if len(store.messages) != 2 {
		t.Fatalf("expected 2 persisted messages, got %d", len(store.messages))
	}
	if store.messages[0].role != "user" || store.messages[1].role != "assistant" {
		t.Errorf("unexpected roles: %q, %q", store.messages[0].role, store.messages[1].role)
	}
	if !strings.Contains(store.messages[1].debug, "claim_verdicts") {
		t.Error("expected synthesis context in assistant debug payload")
	}
}

func TestRunImageOnly(t *testing.T) {
	narrator := &fakeNarrator{response: "narrated report"}
	images := &fakeImageAnalyzer{verdict: media.FrameVerdict{
		Description:   "a rendered portrait",
		IsAIGenerated: boolPtr(true),
		Confidence:    91,
	}}
	o := newTestOrchestrator(deps{images: images, narrator: narrator})

	res, err := o.Run(context.Background(), Request{ImageURL: "https://example.com/a.jpg", UserID: "u1"})
	if err != nil {
		t.Fatalf("running pipeline: %v", err)
	}

	if res.Context.MediaSummary == nil || res.Context.MediaSummary.Kind != media.KindSingleImage {
		t.Fatalf("unexpected media summary: %+v", res.Context.MediaSummary)
	}
	if res.Context.ClaimVerdicts != nil {
		t.Error("expected no claim verdicts for image-only input")
	}

	prompt := narrator.prompts[0]
	if !strings.Contains(prompt, sectionMediaHeader) {
		t.Error("expected media section header in the prompt")
	}
	if strings.Contains(prompt, sectionClaimsHeader) {
		t.Error("expected claims section to be omitted without text input")
	}
	if !strings.Contains(prompt, "Likely AI-generated") || !strings.Contains(prompt, "91%") {
		t.Errorf("expected rendered verdict in the prompt, got:\n%s", prompt)
	}
}

func TestRunRoutesVideoRefs(t *testing.T) {
	videos := &fakeVideoAnalyzer{summary: &media.AggregateMediaVerdict{
		Kind:                 media.KindVideo,
		OverallIsAIGenerated: boolPtr(true),
		OverallConfidence:    65,
		Summary:              "Analyzed 4 sampled video frames; 3 flagged as AI-generated.",
	}}
	images := &fakeImageAnalyzer{}
	o := newTestOrchestrator(deps{videos: videos, images: images})

	res, err := o.Run(context.Background(), Request{ImageURL: "https://example.com/clip.mp4", UserID: "u1"})
	if err != nil {
		t.Fatalf("running pipeline: %v", err)
	}
	if videos.calls != 1 || images.calls != 0 {
		t.Errorf("expected video analyzer only, got video=%d image=%d", videos.calls, images.calls)
	}
	if res.Context.MediaSummary == nil || res.Context.MediaSummary.Kind != media.KindVideo {
		t.Errorf("unexpected media summary: %+v", res.Context.MediaSummary)
	}
}

func TestRunBranchFailuresDegrade(t *testing.T) {
	tests := []struct {
		name string
		d    deps
	}{
		{"image analysis fails", deps{images: &fakeImageAnalyzer{err: errors.New("fetch failed")}}},
		{"claim extraction fails", deps{extract: &fakeExtractor{err: errors.New("model unavailable")}}},
		{"fuser output malformed", deps{
			extract: &fakeExtractor{claims: []factcheck.Claim{{ID: "c1", Text: "claim"}}},
			fuser:   &fakeFuser{err: errors.New("parsing fused verdicts: invalid character 'I'")},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			narrator := &fakeNarrator{response: "narrated report"}
			tt.d.narrator = narrator
			o := newTestOrchestrator(tt.d)

			res, err := o.Run(context.Background(), Request{
				Text:     "some claim",
				ImageURL: "https://example.com/a.jpg",
				UserID:   "u1",
			})
			if err != nil {
				t.Fatalf("branch failure must not abort the request: %v", err)
			}
			if res.Response != "narrated report" {
				t.Errorf("unexpected response: %q", res.Response)
			}
		})
	}
}

func TestRunBothBranchesUnavailableStillNarrates(t *testing.T) {
	narrator := &fakeNarrator{response: "narrated report"}
	o := newTestOrchestrator(deps{
		images:   &fakeImageAnalyzer{err: errors.New("down")},
		extract:  &fakeExtractor{err: errors.New("down")},
		narrator: narrator,
	})

	res, err := o.Run(context.Background(), Request{Text: "t", ImageURL: "https://example.com/a.jpg", UserID: "u1"})
	if err != nil {
		t.Fatalf("running pipeline: %v", err)
	}
	if res.Context.MediaSummary != nil || res.Context.ClaimVerdicts != nil {
		t.Error("expected both analysis sections absent")
	}
	prompt := narrator.prompts[0]
	if strings.Contains(prompt, sectionMediaHeader) || strings.Contains(prompt, sectionClaimsHeader) {
		t.Error("expected only the summary section in the prompt")
	}
	if !strings.Contains(prompt, sectionSummaryHeader) {
		t.Error("expected summary section header in the prompt")
	}
}

func TestRunNarrationFailureIsFatal(t *testing.T) {
	o := newTestOrchestrator(deps{narrator: &fakeNarrator{err: errors.New("timeout")}})
	if _, err := o.Run(context.Background(), Request{Text: "t", UserID: "u1"}); !errors.Is(err, ErrNarration) {
		t.Errorf("got %v, want ErrNarration", err)
	}

	o = newTestOrchestrator(deps{narrator: &fakeNarrator{response: "   "}})
	if _, err := o.Run(context.Background(), Request{Text: "t", UserID: "u1"}); !errors.Is(err, ErrNarration) {
		t.Errorf("empty narration: got %v, want ErrNarration", err)
	}
}

func TestRunPersistenceFailures(t *testing.T) {
	o := newTestOrchestrator(deps{store: &fakeDB{chatErr: errors.New("disk full")}})
	if _, err := o.Run(context.Background(), Request{Text: "t", UserID: "u1"}); !errors.Is(err, ErrPersistence) {
		t.Errorf("chat creation: got %v, want ErrPersistence", err)
	}

	o = newTestOrchestrator(deps{store: &fakeDB{messageErr: errors.New("disk full")}})
	if _, err := o.Run(context.Background(), Request{Text: "t", UserID: "u1"}); !errors.Is(err, ErrPersistence) {
		t.Errorf("message write: got %v, want ErrPersistence", err)
	}
}

func TestRunReusesExistingChat(t *testing.T) {
	store := &fakeDB{}
	o := newTestOrchestrator(deps{store: store})

	res, err := o.Run(context.Background(), Request{Text: "t", ChatID: "existing", UserID: "u1"})
	if err != nil {
		t.Fatalf("running pipeline: %v", err)
	}
	if store.createCalls != 0 {
		t.Errorf("expected no chat creation, got %d calls", store.createCalls)
	}
	if res.ChatID != "existing" {
		t.Errorf("expected existing chat id, got %q", res.ChatID)
	}
}

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "New chat"},
		{"  ", "New chat"},
		{"short question", "short question"},
		{strings.Repeat("a", 80), strings.Repeat("a", 60)},
	}
	for _, tt := range tests {
		if got := deriveTitle(tt.in); got != tt.want {
			t.Errorf("deriveTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
