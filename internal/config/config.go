package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL      string `envconfig:"DATABASE_URL" required:"true"`
	DatabaseMaxConns int32  `envconfig:"DATABASE_MAX_CONNS" default:"10"`
	DatabaseMinConns int32  `envconfig:"DATABASE_MIN_CONNS" default:"2"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	GroqAPIKey      string  `envconfig:"GROQ_API_KEY"`
	GroqBaseURL     string  `envconfig:"GROQ_BASE_URL" default:"https://api.groq.com/openai/v1"`
	GroqModel       string  `envconfig:"GROQ_MODEL" default:"llama-3.3-70b-versatile"`
	GroqTemperature float32 `envconfig:"GROQ_TEMPERATURE" default:"0.3"`
	GroqMaxTokens   int     `envconfig:"GROQ_MAX_TOKENS" default:"4000"`

	// Retrieval knobs
	DrugChunks     int `envconfig:"DRUG_CHUNKS" default:"5"`
	SyndromeChunks int `envconfig:"SYNDROME_CHUNKS" default:"5"`

	// Knowledge source and report output locations
	DrugKnowledgeDir     string `envconfig:"DRUG_KNOWLEDGE_DIR" default:"drug_knowledge"`
	SyndromeKnowledgeDir string `envconfig:"SYNDROME_KNOWLEDGE_DIR" default:"syndrome_knowledge"`
	ReportDir            string `envconfig:"REPORT_DIR" default:"reports"`

	// Optional S3 report storage; local filesystem is used when unset
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"advera-reports"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("ADVERA", &cfg); err != nil {
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

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasGroq() bool {
	return c.GroqAPIKey != ""
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}
