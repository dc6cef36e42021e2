package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trustai/trust-server/internal/scratch"
	"github.com/trustai/trust-server/internal/storage"
	"github.com/trustai/trust-server/internal/verdict"
)

// defaultFrameWorkers bounds concurrent per-frame completion calls so a
// long video does not hammer the completion capability with one request
// per frame at once.
const defaultFrameWorkers = 3

// FrameVerdictor analyzes one uploaded frame. Satisfied by
// FrameAnalyzer.
type FrameVerdictor interface {
	AnalyzeFrame(ctx context.Context, frameURL string) (FrameVerdict, error)
}

// Aggregator samples frames from a video, analyzes each independently,
// and fuses the per-frame verdicts into one overall verdict.
type Aggregator struct {
	extractor  FrameExtractor
	store      storage.FrameStore
	analyzer   FrameVerdictor
	workspace  *scratch.Workspace
	httpClient *http.Client
	workers    int
}

// NewAggregator creates a video aggregator. workers <= 0 selects the
// default bound.
func NewAggregator(extractor FrameExtractor, store storage.FrameStore, analyzer FrameVerdictor, ws *scratch.Workspace, workers int) *Aggregator {
	if workers <= 0 {
		workers = defaultFrameWorkers
	}
	return &Aggregator{
		extractor:  extractor,
		store:      store,
		analyzer:   analyzer,
		workspace:  ws,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		workers:    workers,
	}
}

// Analyze runs the full video pipeline for a video URL or local file
// path. All locally materialized artifacts are removed on every exit
// path; stale artifacts would corrupt the next request's frame listing.
func (a *Aggregator) Analyze(ctx context.Context, videoRef string) (*AggregateMediaVerdict, []FrameVerdict, error) {
	dir, err := a.workspace.NewDir()
	if err != nil {
		return nil, nil, fmt.Errorf("creating scratch dir: %w", err)
	}
	defer a.workspace.Remove(dir)

	videoPath := videoRef
	if strings.HasPrefix(videoRef, "http://") || strings.HasPrefix(videoRef, "https://") {
		videoPath, err = a.download(ctx, videoRef, dir)
		if err != nil {
			return nil, nil, fmt.Errorf("downloading video: %w", err)
		}
	}

	framesDir := filepath.Join(dir, "frames")
	if err := os.MkdirAll(framesDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating frames dir: %w", err)
	}

	framePaths, err := a.extractor.Extract(ctx, videoPath, framesDir)
	if err != nil {
		return nil, nil, fmt.Errorf("extracting frames: %w", err)
	}

	frameURLs := make([]string, len(framePaths))
	for i, p := range framePaths {
		objectName := fmt.Sprintf("%s-%s", uuid.NewString(), filepath.Base(p))
		url, err := a.store.Upload(ctx, p, objectName)
		if err != nil {
			return nil, nil, fmt.Errorf("uploading frame %s: %w", filepath.Base(p), err)
		}
		frameURLs[i] = url
	}

	frames := a.analyzeFrames(ctx, frameURLs)

	overallAI, overallConf := Aggregate(frames)
	aiCount := 0
	for _, f := range frames {
		if f.IsAIGenerated != nil && *f.IsAIGenerated {
			aiCount++
		}
	}

	agg := &AggregateMediaVerdict{
		Kind:                 KindVideo,
		OverallIsAIGenerated: overallAI,
		OverallConfidence:    overallConf,
		Summary:              fmt.Sprintf("Analyzed %d sampled video frames; %d flagged as AI-generated.", len(frames), aiCount),
	}
	return agg, frames, nil
}

// analyzeFrames fans out per-frame analysis across a bounded worker
// pool and preserves frame order in the results.
func (a *Aggregator) analyzeFrames(ctx context.Context, frameURLs []string) []FrameVerdict {
	frames := make([]FrameVerdict, len(frameURLs))
	sem := make(chan struct{}, a.workers)

	var wg sync.WaitGroup
	for i, url := range frameURLs {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			fv, err := a.analyzer.AnalyzeFrame(ctx, url)
			if err != nil {
				// Per-frame failure degrades that frame only.
				fv = FrameVerdict{
					FrameRef:  url,
					Reasoning: fmt.Sprintf("frame analysis failed: %v", err),
				}
			}
			frames[i] = fv
		}(i, url)
	}
	wg.Wait()

	return frames
}

// Aggregate fuses per-frame verdicts: majority vote over non-nil
// is_ai_generated values (tie yields nil), mean of the confidences of
// the frames that produced a verdict, on the canonical 0-100 scale.
func Aggregate(frames []FrameVerdict) (*bool, verdict.Confidence) {
	aiVotes, realVotes := 0, 0
	var confidences []verdict.Confidence
	for _, f := range frames {
		if f.IsAIGenerated == nil {
			continue
		}
		if *f.IsAIGenerated {
			aiVotes++
		} else {
			realVotes++
		}
		confidences = append(confidences, f.Confidence)
	}

	conf := verdict.Mean(confidences)
	switch {
	case aiVotes > realVotes:
		v := true
		return &v, conf
	case realVotes > aiVotes:
		v := false
		return &v, conf
	default:
		return nil, conf
	}
}

func (a *Aggregator) download(ctx context.Context, videoURL, dir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", videoURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("video fetch returned status %d", resp.StatusCode)
	}

	path := filepath.Join(dir, "source"+videoExt(videoURL))
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating video file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return "", fmt.Errorf("writing video file: %w", err)
	}
	return path, nil
}

func videoExt(ref string) string {
	ext := strings.ToLower(filepath.Ext(strings.SplitN(ref, "?", 2)[0]))
	if ext == "" {
		return ".mp4"
	}
	return ext
}

// IsVideoRef reports whether a media reference looks like a video by
// its file extension.
func IsVideoRef(ref string) bool {
	switch strings.ToLower(filepath.Ext(strings.SplitN(ref, "?", 2)[0])) {
	case ".mp4", ".mov", ".webm", ".mkv", ".avi":
		return true
	}
	return false
}
