package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	ProviderCohere = "cohere"
	ProviderOpenAI = "openai"

	BackendQdrant   = "qdrant"
	BackendPgvector = "pgvector"
	BackendMilvus   = "milvus"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	EmbeddingProvider string  `envconfig:"EMBEDDING_PROVIDER" default:"cohere"`
	CohereAPIKey      string  `envconfig:"COHERE_API_KEY"`
	CohereModel       string  `envconfig:"COHERE_MODEL" default:"embed-v4.0"`
	OpenAIAPIKey      string  `envconfig:"OPENAI_API_KEY"`
	OpenAIModel       string  `envconfig:"OPENAI_MODEL" default:"text-embedding-3-small"`
	EmbedRate         float64 `envconfig:"EMBED_RATE" default:"0"`

	VectorBackend  string `envconfig:"VECTOR_BACKEND" default:"qdrant"`
	QdrantURL      string `envconfig:"QDRANT_URL" default:"http://localhost:6333"`
	QdrantAPIKey   string `envconfig:"QDRANT_API_KEY"`
	MilvusAddress  string `envconfig:"MILVUS_ADDRESS" default:"localhost:19530"`
	MilvusToken    string `envconfig:"MILVUS_TOKEN"`
	CollectionName string `envconfig:"COLLECTION_NAME" default:"agent_chunks"`
	VectorSize     int    `envconfig:"VECTOR_SIZE" default:"1536"`
	AllowRecreate  bool   `envconfig:"ALLOW_RECREATE" default:"true"`

	ChunkSize    int `envconfig:"CHUNK_SIZE" default:"500"`
	ChunkOverlap int `envconfig:"CHUNK_OVERLAP" default:"50"`

	TrainWorkers      int           `envconfig:"TRAIN_WORKERS" default:"4"`
	TrainPollInterval time.Duration `envconfig:"TRAIN_POLL_INTERVAL" default:"5s"`

	CrawlRate    float64       `envconfig:"CRAWL_RATE" default:"5"`
	CrawlWorkers int           `envconfig:"CRAWL_WORKERS" default:"4"`
	CrawlTimeout time.Duration `envconfig:"CRAWL_TIMEOUT" default:"15s"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"agentrag-uploads"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Bootstrap: create initial owner and API key on startup
	InitOwnerName string `envconfig:"INIT_OWNER_NAME"`
	InitAPIKey    string `envconfig:"INIT_API_KEY"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("AGENTRAG", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
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

// Validate checks the settings the training pipeline needs before it touches the network.
func (c *Config) Validate() error {
	switch c.EmbeddingProvider {
	case ProviderCohere:
		if !c.HasCohere() {
			return fmt.Errorf("AGENTRAG_COHERE_API_KEY is required for embedding provider %q", c.EmbeddingProvider)
		}
	case ProviderOpenAI:
		if !c.HasOpenAI() {
			return fmt.Errorf("AGENTRAG_OPENAI_API_KEY is required for embedding provider %q", c.EmbeddingProvider)
		}
	default:
		return fmt.Errorf("unknown embedding provider %q", c.EmbeddingProvider)
	}

	switch c.VectorBackend {
	case BackendQdrant:
		if c.QdrantURL == "" {
			return fmt.Errorf("AGENTRAG_QDRANT_URL is required for vector backend %q", c.VectorBackend)
		}
	case BackendMilvus:
		if c.MilvusAddress == "" {
			return fmt.Errorf("AGENTRAG_MILVUS_ADDRESS is required for vector backend %q", c.VectorBackend)
		}
	case BackendPgvector:
	default:
		return fmt.Errorf("unknown vector backend %q", c.VectorBackend)
	}

	if c.CollectionName == "" {
		return fmt.Errorf("collection name cannot be empty")
	}
	if c.VectorSize <= 0 {
		return fmt.Errorf("vector size must be positive, got %d", c.VectorSize)
	}
	if c.ChunkSize <= 0 || c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)", c.ChunkOverlap, c.ChunkSize)
	}

	return nil
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasCohere() bool {
	return c.CohereAPIKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasSentry() bool {
	return c.SentryDSN != ""
}
