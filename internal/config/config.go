package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"

	"github.com/davidbz/folio/internal/cache/redis"
	"github.com/davidbz/folio/internal/observability"
	"github.com/davidbz/folio/internal/pdf"
	"github.com/davidbz/folio/internal/provider/openai"
	"github.com/davidbz/folio/internal/schema"
	"github.com/davidbz/folio/internal/store/sqlite"
)

// Config represents the folio configuration.
type Config struct {
	Batch      BatchConfig
	Output     OutputConfig
	OpenAI     openai.Config
	Extraction schema.Config
	PDF        pdf.Config
	Redis      redis.Config
	Ledger     sqlite.Config
	Server     ServerConfig
	CORS       CORSConfig
	Log        observability.LogConfig
}

// BatchConfig contains the defaults of a batch run.
type BatchConfig struct {
	Model    string `env:"FOLIO_MODEL"     envDefault:"gpt-4.1-nano"`
	InputDir string `env:"FOLIO_INPUT_DIR" envDefault:"."`
	Workers  int    `env:"FOLIO_WORKERS"   envDefault:"1"`
}

// OutputConfig contains the record store and summary locations.
type OutputConfig struct {
	RecordsPath string `env:"FOLIO_RECORDS_PATH" envDefault:"results.jsonl"`
	SummaryPath string `env:"FOLIO_SUMMARY_PATH" envDefault:"cost_summary.json"`
	// ReportLanguage is the language interpreted reports are written in.
	ReportLanguage string `env:"FOLIO_REPORT_LANGUAGE" envDefault:"Korean"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int `env:"SERVER_PORT"          envDefault:"8080"`
	ReadTimeout  int `env:"SERVER_READ_TIMEOUT"  envDefault:"30"`
	WriteTimeout int `env:"SERVER_WRITE_TIMEOUT" envDefault:"30"`
}

// CORSConfig contains CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// DepConfig is used for dependency injection with dig. Several sections share
// the type name Config, so the fields are named.
type DepConfig struct {
	dig.Out
	Batch      *BatchConfig
	Output     *OutputConfig
	OpenAI     *openai.Config
	Extraction *schema.Config
	PDF        *pdf.Config
	Redis      *redis.Config
	Ledger     *sqlite.Config
	Server     *ServerConfig
	CORS       *CORSConfig
	Log        *observability.LogConfig
}

// Load loads environment files and parses configuration.
func Load() *Config {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	return &cfg
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		Out:        dig.Out{},
		Batch:      &cfg.Batch,
		Output:     &cfg.Output,
		OpenAI:     &cfg.OpenAI,
		Extraction: &cfg.Extraction,
		PDF:        &cfg.PDF,
		Redis:      &cfg.Redis,
		Ledger:     &cfg.Ledger,
		Server:     &cfg.Server,
		CORS:       &cfg.CORS,
		Log:        &cfg.Log,
	}
}
