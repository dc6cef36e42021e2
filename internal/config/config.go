package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port             string
	DBPath           string
	ScratchDir       string
	OpenAIKey        string
	OpenAITextModel  string
	OpenAIImageModel string
	SearchAPIKey     string
	SearchAPIURL     string
	WikipediaURL     string
	GCSBucket        string
	GCSKeyPath       string
	FFmpegPath       string
	FrameWorkers     int
	Timezone         string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("TRUST_PORT", "8080"),
		DBPath:           getEnv("TRUST_DB_PATH", ""),
		ScratchDir:       getEnv("TRUST_SCRATCH_DIR", os.TempDir()),
		OpenAIKey:        getEnv("TRUST_OPENAI_API_KEY", ""),
		OpenAITextModel:  getEnv("TRUST_OPENAI_TEXT_MODEL", "gpt-4.1"),
		OpenAIImageModel: getEnv("TRUST_OPENAI_IMAGE_MODEL", "gpt-4o"),
		SearchAPIKey:     getEnv("TRUST_SEARCH_API_KEY", ""),
		SearchAPIURL:     getEnv("TRUST_SEARCH_API_URL", "https://serpapi.com/search.json"),
		WikipediaURL:     getEnv("TRUST_WIKIPEDIA_URL", "https://en.wikipedia.org/w/api.php"),
		GCSBucket:        getEnv("TRUST_GCS_BUCKET", ""),
		GCSKeyPath:       getEnv("TRUST_GCS_KEY_PATH", ""),
		FFmpegPath:       getEnv("TRUST_FFMPEG_PATH", "ffmpeg"),
		FrameWorkers:     getEnvInt("TRUST_FRAME_WORKERS", 3),
		Timezone:         getEnv("TRUST_TIMEZONE", "UTC"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("TRUST_DB_PATH is required")
	}
	if c.OpenAIKey == "" {
		return fmt.Errorf("TRUST_OPENAI_API_KEY is required")
	}
	if c.FrameWorkers < 1 {
		return fmt.Errorf("TRUST_FRAME_WORKERS must be at least 1")
	}
	return nil
}

// VideoEnabled reports whether the frame-upload bucket is configured.
// Without it only single-image analysis is available.
func (c *Config) VideoEnabled() bool {
	return c.GCSBucket != ""
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}
