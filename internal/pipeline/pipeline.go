package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/trustai/trust-server/internal/factcheck"
	"github.com/trustai/trust-server/internal/media"
)

// Per-request state machine. ERROR is reachable from any step.
type State string

const (
	StateReceived      State = "RECEIVED"
	StateValidating    State = "VALIDATING"
	StateBranching     State = "BRANCHING"
	StateFusingContext State = "FUSING_CONTEXT"
	StateNarrating     State = "NARRATING"
	StatePersisting    State = "PERSISTING"
	StateComplete      State = "COMPLETE"
	StateError         State = "ERROR"
)

// Sentinel errors the API layer maps to HTTP statuses.
var (
	ErrValidation  = errors.New("validation failed")
	ErrNarration   = errors.New("narration failed")
	ErrPersistence = errors.New("persistence failed")
)

// Stage deadlines: a hung upstream call must not stall the request
// indefinitely.
const (
	mediaTimeout     = 3 * time.Minute
	textTimeout      = 2 * time.Minute
	narrationTimeout = 60 * time.Second
)

const titleLimit = 60

// Collaborator boundaries. Each is satisfied by the concrete component
// but narrowed to what the orchestrator actually invokes.
type (
	ImageAnalyzer interface {
		AnalyzeImage(ctx context.Context, imageURL string) (media.FrameVerdict, error)
	}
	VideoAnalyzer interface {
		Analyze(ctx context.Context, videoRef string) (*media.AggregateMediaVerdict, []media.FrameVerdict, error)
	}
	ClaimExtractor interface {
		Extract(ctx context.Context, text string) ([]factcheck.Claim, error)
	}
	EvidenceGatherer interface {
		Gather(ctx context.Context, claim factcheck.Claim) factcheck.Evidence
	}
	VerdictFuser interface {
		Fuse(ctx context.Context, originalText string, claims []factcheck.Claim, evidences []factcheck.Evidence) ([]factcheck.ClaimVerdict, error)
	}
	Narrator interface {
		Complete(ctx context.Context, system, user string) (string, error)
	}
	Store interface {
		CreateChat(userID, title string) (string, error)
		AddMessage(chatID, role, content, imageURL, debug string) error
	}
)

// SynthesisContext is the sole input to narration. Absent sections are
// explicitly nil, never empty-but-present, because the narration
// contract decides whether to render a section from true absence.
type SynthesisContext struct {
	UserText      string                       `json:"user_text"`
	MediaSummary  *media.AggregateMediaVerdict `json:"media_summary"`
	ClaimVerdicts []factcheck.ClaimVerdict     `json:"claim_verdicts"`
}

// Request is one verification request after authentication.
type Request struct {
	Text     string
	ImageURL string
	ChatID   string
	UserID   string
}

// Result is the completed exchange.
type Result struct {
	ChatID   string
	Response string
	Context  SynthesisContext
}

// Orchestrator sequences the verification pipeline under
// partial-failure tolerance.
type Orchestrator struct {
	images    ImageAnalyzer
	videos    VideoAnalyzer
	extractor ClaimExtractor
	evidence  EvidenceGatherer
	fuser     VerdictFuser
	narrator  Narrator
	store     Store
}

// New creates an orchestrator. A nil videos analyzer disables the video
// branch (video refs are then reported unavailable).
func New(images ImageAnalyzer, videos VideoAnalyzer, extractor ClaimExtractor, evidence EvidenceGatherer, fuser VerdictFuser, narrator Narrator, store Store) *Orchestrator {
	return &Orchestrator{
		images:    images,
		videos:    videos,
		extractor: extractor,
		evidence:  evidence,
		fuser:     fuser,
		narrator:  narrator,
		store:     store,
	}
}

// Run drives one request through the full state machine.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	state := StateReceived
	advance := func(next State) {
		state = next
		log.Printf("pipeline: %s", state)
	}

	advance(StateValidating)
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: missing user identity", ErrValidation)
	}
	if strings.TrimSpace(req.Text) == "" && req.ImageURL == "" {
		return nil, fmt.Errorf("%w: at least 'text' or 'image_url' is required", ErrValidation)
	}

	advance(StateBranching)
	var (
		mediaSummary  *media.AggregateMediaVerdict
		claimVerdicts []factcheck.ClaimVerdict
		wg            sync.WaitGroup
	)

	if req.ImageURL != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mediaSummary = o.runMediaBranch(ctx, req.ImageURL)
		}()
	}
	if strings.TrimSpace(req.Text) != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimVerdicts = o.runTextBranch(ctx, req.Text)
		}()
	}
	wg.Wait()

	advance(StateFusingContext)
	synth := SynthesisContext{
		UserText:      req.Text,
		MediaSummary:  mediaSummary,
		ClaimVerdicts: claimVerdicts,
	}

	advance(StateNarrating)
	nctx, cancel := context.WithTimeout(ctx, narrationTimeout)
	response, err := o.narrator.Complete(nctx, narrationSystemPrompt, BuildNarrationPrompt(synth))
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNarration, err)
	}
	if strings.TrimSpace(response) == "" {
		return nil, fmt.Errorf("%w: empty narration result", ErrNarration)
	}

	advance(StatePersisting)
	chatID := req.ChatID
	if chatID == "" {
		chatID, err = o.store.CreateChat(req.UserID, deriveTitle(req.Text))
		if err != nil {
			return nil, fmt.Errorf("%w: creating chat: %v", ErrPersistence, err)
		}
	}

	if err := o.store.AddMessage(chatID, "user", req.Text, req.ImageURL, ""); err != nil {
		return nil, fmt.Errorf("%w: recording user turn: %v", ErrPersistence, err)
	}
	debug, _ := json.Marshal(synth)
	if err := o.store.AddMessage(chatID, "assistant", response, "", string(debug)); err != nil {
		return nil, fmt.Errorf("%w: recording assistant turn: %v", ErrPersistence, err)
	}

	advance(StateComplete)
	return &Result{ChatID: chatID, Response: response, Context: synth}, nil
}

// runMediaBranch analyzes an image or video reference. Any failure
// marks the branch unavailable; it never aborts the request.
func (o *Orchestrator) runMediaBranch(ctx context.Context, mediaURL string) *media.AggregateMediaVerdict {
	mctx, cancel := context.WithTimeout(ctx, mediaTimeout)
	defer cancel()

	if media.IsVideoRef(mediaURL) {
		if o.videos == nil {
			log.Printf("pipeline: media analysis unavailable: video analysis not configured")
			return nil
		}
		summary, _, err := o.videos.Analyze(mctx, mediaURL)
		if err != nil {
			log.Printf("pipeline: media analysis unavailable: %v", err)
			return nil
		}
		return summary
	}

	fv, err := o.images.AnalyzeImage(mctx, mediaURL)
	if err != nil {
		log.Printf("pipeline: media analysis unavailable: %v", err)
		return nil
	}
	return media.SingleImageVerdict(fv)
}

// runTextBranch extracts claims, gathers evidence per claim, and fuses
// verdicts. Any failure marks the branch unavailable.
func (o *Orchestrator) runTextBranch(ctx context.Context, text string) []factcheck.ClaimVerdict {
	tctx, cancel := context.WithTimeout(ctx, textTimeout)
	defer cancel()

	claims, err := o.extractor.Extract(tctx, text)
	if err != nil {
		log.Printf("pipeline: claim extraction unavailable: %v", err)
		return nil
	}
	if len(claims) == 0 {
		return nil
	}

	// Every claim gets exactly one Evidence before fusion; gathering
	// fans out concurrently and no claim blocks another.
	evidences := make([]factcheck.Evidence, len(claims))
	var wg sync.WaitGroup
	for i, claim := range claims {
		wg.Add(1)
		go func(i int, claim factcheck.Claim) {
			defer wg.Done()
			evidences[i] = o.evidence.Gather(tctx, claim)
		}(i, claim)
	}
	wg.Wait()

	verdicts, err := o.fuser.Fuse(tctx, text, claims, evidences)
	if err != nil {
		log.Printf("pipeline: fact-check unavailable: %v", err)
		return nil
	}
	return verdicts
}

func deriveTitle(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return "New chat"
	}
	runes := []rune(text)
	if len(runes) > titleLimit {
		return string(runes[:titleLimit])
	}
	return text
}
