package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/rfpworks/rfpworks/internal/domain"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// OpenAI is optional: without a key the answer pipeline runs in degraded
	// mode (empty retrieval, template answers) and indexing is rejected.
	OpenAIAPIKey    string `envconfig:"OPENAI_API_KEY"`
	EmbeddingModel  string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-ada-002"`
	CompletionModel string `envconfig:"COMPLETION_MODEL" default:"gpt-4o-mini"`

	// Pipeline tuning
	ChunkSize        int     `envconfig:"CHUNK_SIZE" default:"1000"`
	ChunkOverlap     int     `envconfig:"CHUNK_OVERLAP" default:"200"`
	MaxContextChunks int     `envconfig:"MAX_CONTEXT_CHUNKS" default:"8"`
	MaxContextLength int     `envconfig:"MAX_CONTEXT_LENGTH" default:"6000"`
	MinSimilarity    float64 `envconfig:"MIN_SIMILARITY" default:"0.6"`

	// Optional YAML file replacing the built-in filter keyword rules.
	FilterRulesPath string `envconfig:"FILTER_RULES_PATH"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("RFP", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// Validate rejects settings that would break the pipeline before any
// external call is made.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("chunk overlap cannot be negative, got %d", c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return domain.ErrInvalidChunkConfig
	}
	if c.MaxContextLength <= 0 {
		return fmt.Errorf("max context length must be positive, got %d", c.MaxContextLength)
	}
	if c.MinSimilarity < 0 || c.MinSimilarity > 1 {
		return fmt.Errorf("min similarity must be in [0,1], got %f", c.MinSimilarity)
	}
	return nil
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}
