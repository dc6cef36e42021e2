package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/trustai/trust-server/internal/db"
	"github.com/trustai/trust-server/internal/factcheck"
	"github.com/trustai/trust-server/internal/models"
	"github.com/trustai/trust-server/internal/pipeline"
	"github.com/trustai/trust-server/internal/scratch"
)

const maxVideoUploadBytes = 64 << 20

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// PipelineRunner is the orchestrator surface the analyze endpoint needs.
type PipelineRunner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// ChatReader is the read side of conversation persistence.
type ChatReader interface {
	ChatExists(chatID string) (bool, error)
	GetChats(userID string) ([]db.Chat, error)
	GetMessages(chatID string) ([]db.Message, error)
}

// HealthChecker reports reachability of the completion backend.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps carries the handler collaborators. Videos and Workspace may be
// nil when video analysis is not configured.
type Deps struct {
	Pipeline     PipelineRunner
	Images       pipeline.ImageAnalyzer
	Videos       pipeline.VideoAnalyzer
	Extractor    pipeline.ClaimExtractor
	Evidence     pipeline.EvidenceGatherer
	Fuser        pipeline.VerdictFuser
	Chats        ChatReader
	LLM          HealthChecker
	Workspace    *scratch.Workspace
	StorageReady bool
}

type Handlers struct {
	deps Deps
}

func NewHandlers(deps Deps) *Handlers {
	return &Handlers{deps: deps}
}

// Health handles GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{
		Status:  "ok",
		OpenAI:  h.checkOpenAI(),
		Storage: h.checkStorage(),
		Version: "1.0.0",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

func (h *Handlers) checkOpenAI() string {
	if h.deps.LLM == nil {
		return "not configured"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.deps.LLM.HealthCheck(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "connected"
}

func (h *Handlers) checkStorage() string {
	if !h.deps.StorageReady {
		return "not configured"
	}
	return "configured"
}

// Analyze handles POST /api/v1/analyze, the full verification pipeline.
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return
	}

	if req.ChatID != "" {
		exists, err := h.deps.Chats.ChatExists(req.ChatID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "database error", "DB_ERROR")
			return
		}
		if !exists {
			writeError(w, http.StatusBadRequest, "unknown chat_id", "UNKNOWN_CHAT")
			return
		}
	}

	res, err := h.deps.Pipeline.Run(r.Context(), pipeline.Request{
		Text:     req.Text,
		ImageURL: req.ImageURL,
		ChatID:   req.ChatID,
		UserID:   GetUser(r),
	})
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrValidation):
			writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		case errors.Is(err, pipeline.ErrNarration):
			writeError(w, http.StatusInternalServerError, err.Error(), "NARRATION_FAILED")
		case errors.Is(err, pipeline.ErrPersistence):
			writeError(w, http.StatusInternalServerError, err.Error(), "PERSISTENCE_FAILED")
		default:
			writeError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(models.AnalyzeResponse{ChatID: res.ChatID, Response: res.Response})
}

// ImageCheck handles POST /api/v1/image-check, single-image AI
// detection without the surrounding pipeline.
func (h *Handlers) ImageCheck(w http.ResponseWriter, r *http.Request) {
	var req models.ImageCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return
	}
	if req.ImageURL == "" {
		writeError(w, http.StatusBadRequest, "image_url is required", "MISSING_IMAGE_URL")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	fv, err := h.deps.Images.AnalyzeImage(ctx, req.ImageURL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "image analysis failed", "ANALYSIS_FAILED")
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(fv)
}

// TextValidation handles POST /api/v1/text-validation, claim extraction
// without verification.
func (h *Handlers) TextValidation(w http.ResponseWriter, r *http.Request) {
	var req models.TextValidationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required", "MISSING_TEXT")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	claims, err := h.deps.Extractor.Extract(ctx, req.Text)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "claim extraction failed", "EXTRACTION_FAILED")
		return
	}

	facts := make([]string, 0, len(claims))
	for _, c := range claims {
		facts = append(facts, c.Text)
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(models.TextValidationResponse{Facts: facts})
}

// FactCheck handles POST /api/v1/fact-check. It verifies either a
// pre-extracted fact list or claims extracted from free text. Unlike
// the analyze pipeline this surface has no narration fallback, so an
// upstream failure aborts the request.
func (h *Handlers) FactCheck(w http.ResponseWriter, r *http.Request) {
	var req models.FactCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	var claims []factcheck.Claim
	switch {
	case len(req.Facts) > 0:
		claims = factcheck.ClaimsFromFacts(req.Facts)
	case strings.TrimSpace(req.Text) != "":
		var err error
		claims, err = h.deps.Extractor.Extract(ctx, req.Text)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "claim extraction failed", "EXTRACTION_FAILED")
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "text or facts is required", "MISSING_INPUT")
		return
	}

	verdicts := []factcheck.ClaimVerdict{}
	if len(claims) > 0 {
		evidences := make([]factcheck.Evidence, len(claims))
		var wg sync.WaitGroup
		for i, claim := range claims {
			wg.Add(1)
			go func(i int, claim factcheck.Claim) {
				defer wg.Done()
				evidences[i] = h.deps.Evidence.Gather(ctx, claim)
			}(i, claim)
		}
		wg.Wait()

		var err error
		verdicts, err = h.deps.Fuser.Fuse(ctx, req.Text, claims, evidences)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "fact check failed", "FACT_CHECK_FAILED")
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(models.FactCheckResponse{OriginalText: req.Text, Claims: verdicts})
}

// AnalyzeVideo handles POST /api/v1/analyze-video. Accepts either a
// multipart upload under "videoFile" or a JSON body with "videoUrl".
func (h *Handlers) AnalyzeVideo(w http.ResponseWriter, r *http.Request) {
	if h.deps.Videos == nil {
		writeError(w, http.StatusServiceUnavailable, "video analysis not configured", "NOT_CONFIGURED")
		return
	}

	videoRef, cleanup, ok := h.resolveVideoRef(w, r)
	if !ok {
		return
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Minute)
	defer cancel()

	overall, frames, err := h.deps.Videos.Analyze(ctx, videoRef)
	if err != nil {
		log.Printf("Video analysis failed: %v", err)
		writeError(w, http.StatusInternalServerError, "video analysis failed", "ANALYSIS_FAILED")
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(models.VideoAnalyzeResponse{Overall: overall, Results: frames})
}

// resolveVideoRef extracts the video reference from either request
// form. The returned cleanup removes any spooled upload.
func (h *Handlers) resolveVideoRef(w http.ResponseWriter, r *http.Request) (string, func(), bool) {
	noop := func() {}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxVideoUploadBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart body", "INVALID_BODY")
			return "", noop, false
		}
		file, header, err := r.FormFile("videoFile")
		if err != nil {
			writeError(w, http.StatusBadRequest, "videoFile is required", "MISSING_VIDEO")
			return "", noop, false
		}
		defer file.Close()

		dir, err := h.deps.Workspace.NewDir()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "could not spool upload", "SCRATCH_ERROR")
			return "", noop, false
		}
		cleanup := func() { h.deps.Workspace.Remove(dir) }

		path := filepath.Join(dir, filepath.Base(header.Filename))
		out, err := os.Create(path)
		if err != nil {
			cleanup()
			writeError(w, http.StatusInternalServerError, "could not spool upload", "SCRATCH_ERROR")
			return "", noop, false
		}
		_, err = io.Copy(out, file)
		out.Close()
		if err != nil {
			cleanup()
			writeError(w, http.StatusInternalServerError, "could not spool upload", "SCRATCH_ERROR")
			return "", noop, false
		}
		return path, cleanup, true
	}

	var req models.VideoAnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return "", noop, false
	}
	if req.VideoURL == "" {
		writeError(w, http.StatusBadRequest, "videoUrl or videoFile is required", "MISSING_VIDEO")
		return "", noop, false
	}
	return req.VideoURL, noop, true
}

// Chats handles GET /api/v1/chats
func (h *Handlers) Chats(w http.ResponseWriter, r *http.Request) {
	chats, err := h.deps.Chats.GetChats(GetUser(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error", "DB_ERROR")
		return
	}
	if chats == nil {
		chats = []db.Chat{}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(models.ChatsResponse{Chats: chats})
}

// Messages handles GET /api/v1/chats/{chatID}/messages
func (h *Handlers) Messages(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	exists, err := h.deps.Chats.ChatExists(chatID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error", "DB_ERROR")
		return
	}
	if !exists {
		writeError(w, http.StatusNotFound, "chat not found", "NOT_FOUND")
		return
	}

	messages, err := h.deps.Chats.GetMessages(chatID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error", "DB_ERROR")
		return
	}
	if messages == nil {
		messages = []db.Message{}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(models.MessagesResponse{Messages: messages})
}
