package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Matching strategy names. Exactly one strategy is active per deployment.
const (
	StrategyEmbedding = "embedding"
	StrategySample    = "sample"
)

type Config struct {
	Storage  StorageConfig
	Database DatabaseConfig
	Encoder  EncoderConfig
	Match    MatchConfig
	Workday  WorkdayConfig
}

type StorageConfig struct {
	DataDir string // directory for the file backend (faces.gob, roster.csv, events.csv)
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL; empty selects the file backend
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type EncoderConfig struct {
	URL   string // face encoder service base URL (default http://localhost:8000)
	Model string // model name for reference only
}

type MatchConfig struct {
	Strategy   string  // "embedding" or "sample"
	Metric     string  // distance metric name, defaulted per strategy
	Threshold  float64 // maximum accepted distance
	SampleSize int     // normalized sample edge length in pixels
	Workers    int     // parallel scan workers (1 disables parallelism)
	HNSW       bool    // enable the in-memory HNSW index for matching
}

type WorkdayConfig struct {
	Start string // work window start, HH:MM
	End   string // work window end, HH:MM
}

// strategyDefaults mirrors the embedded defaults.yaml.
type strategyDefaults struct {
	Strategies map[string]struct {
		Metric    string  `yaml:"metric"`
		Threshold float64 `yaml:"threshold"`
		Size      int     `yaml:"size"`
	} `yaml:"strategies"`
	Workday struct {
		Start string `yaml:"start"`
		End   string `yaml:"end"`
	} `yaml:"workday"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envString reads an environment variable with a fallback.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var defaults strategyDefaults
	if err := yaml.Unmarshal(defaultsYAML, &defaults); err != nil {
		// This is an embedded file so this error should never happen in practice.
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	strategy := envString("MATCH_STRATEGY", StrategyEmbedding)
	if strategy != StrategyEmbedding && strategy != StrategySample {
		strategy = StrategyEmbedding
	}
	sd := defaults.Strategies[strategy]

	return &Config{
		Storage: StorageConfig{
			DataDir: envString("DATA_DIR", "data"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Encoder: EncoderConfig{
			URL:   envString("ENCODER_URL", "http://localhost:8000"),
			Model: os.Getenv("ENCODER_MODEL"),
		},
		Match: MatchConfig{
			Strategy:   strategy,
			Metric:     envString("MATCH_METRIC", sd.Metric),
			Threshold:  envFloat("MATCH_THRESHOLD", sd.Threshold),
			SampleSize: envInt("MATCH_SAMPLE_SIZE", defaults.Strategies[StrategySample].Size),
			Workers:    envInt("MATCH_WORKERS", 1),
			HNSW:       os.Getenv("MATCH_HNSW") == "true",
		},
		Workday: WorkdayConfig{
			Start: envString("WORKDAY_START", defaults.Workday.Start),
			End:   envString("WORKDAY_END", defaults.Workday.End),
		},
	}
}
