package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// frameInterval samples one frame per 2 seconds of source duration.
// It trades detection granularity against the number of downstream
// completion calls; a tunable constant, not a per-request parameter.
const frameInterval = "fps=1/2"

// FrameExtractor turns a video file into still frames. The transcoding
// itself is an external capability consumed at this boundary.
type FrameExtractor interface {
	Extract(ctx context.Context, videoPath, outDir string) ([]string, error)
}

// FFmpegExtractor extracts frames by invoking the ffmpeg binary.
type FFmpegExtractor struct {
	binPath string
}

// NewFFmpegExtractor creates an extractor. Pass binPath "" to resolve
// ffmpeg from PATH.
func NewFFmpegExtractor(binPath string) *FFmpegExtractor {
	if binPath == "" {
		binPath = "ffmpeg"
	}
	return &FFmpegExtractor{binPath: binPath}
}

// Extract samples frames into outDir and returns their paths in frame
// order.
func (e *FFmpegExtractor) Extract(ctx context.Context, videoPath, outDir string) ([]string, error) {
	pattern := filepath.Join(outDir, "frame_%03d.png")
	cmd := exec.CommandContext(ctx, e.binPath, "-i", videoPath, "-vf", frameInterval, pattern)

	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("extracting frames: %w (%s)", err, strings.TrimSpace(string(out)))
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, fmt.Errorf("listing frames: %w", err)
	}

	var frames []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".png") {
			frames = append(frames, filepath.Join(outDir, entry.Name()))
		}
	}
	sort.Strings(frames)

	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames extracted from %s", videoPath)
	}
	return frames, nil
}
