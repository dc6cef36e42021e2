package models

import (
	"github.com/trustai/trust-server/internal/db"
	"github.com/trustai/trust-server/internal/factcheck"
	"github.com/trustai/trust-server/internal/media"
)

// AnalyzeRequest is the full-pipeline entry. At least one of Text or
// ImageURL must be set; ChatID continues an existing conversation.
type AnalyzeRequest struct {
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	ChatID   string `json:"chat_id,omitempty"`
}

type AnalyzeResponse struct {
	ChatID   string `json:"chat_id"`
	Response string `json:"response"`
}

type ImageCheckRequest struct {
	ImageURL string `json:"image_url"`
}

type TextValidationRequest struct {
	Text string `json:"text"`
}

type TextValidationResponse struct {
	Facts []string `json:"facts"`
}

// FactCheckRequest verifies either free text or a pre-extracted fact
// list. Facts take precedence when both are set.
type FactCheckRequest struct {
	Text  string   `json:"text,omitempty"`
	Facts []string `json:"facts,omitempty"`
}

type FactCheckResponse struct {
	OriginalText string                   `json:"original_text"`
	Claims       []factcheck.ClaimVerdict `json:"claims"`
}

// VideoAnalyzeRequest is the JSON form of the video endpoint; the
// multipart form carries the file under "videoFile" instead.
type VideoAnalyzeRequest struct {
	VideoURL string `json:"videoUrl"`
}

type VideoAnalyzeResponse struct {
	Overall *media.AggregateMediaVerdict `json:"overall"`
	Results []media.FrameVerdict         `json:"results"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	OpenAI  string `json:"openai"`
	Storage string `json:"storage"`
	Version string `json:"version"`
}

type ChatsResponse struct {
	Chats []db.Chat `json:"chats"`
}

type MessagesResponse struct {
	Messages []db.Message `json:"messages"`
}
