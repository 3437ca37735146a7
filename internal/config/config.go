package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"

	"github.com/davidbz/promptforge/internal/provider/openai"
)

// Config represents the service configuration.
type Config struct {
	Server    ServerConfig
	CORS      CORSConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Pipeline  PipelineConfig
	Skills    SkillsConfig
	OpenAI    openai.Config
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int   `env:"SERVER_PORT"           envDefault:"8080"`
	ReadTimeout  int   `env:"SERVER_READ_TIMEOUT"   envDefault:"30"`
	WriteTimeout int   `env:"SERVER_WRITE_TIMEOUT"  envDefault:"120"`
	MaxBodyBytes int64 `env:"SERVER_MAX_BODY_BYTES" envDefault:"1048576"`
}

// CORSConfig contains CORS policy settings. Origins outside the allow-set
// get no reflection headers but are still served.
type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	AllowedMethods []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"POST,OPTIONS"`
	AllowedHeaders []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,Authorization,X-Api-Key"`
	MaxAge         int      `env:"CORS_MAX_AGE"                          envDefault:"86400"`
}

// AuthConfig contains the shared-secret settings. An empty secret
// authorizes every request.
type AuthConfig struct {
	SharedSecret string `env:"AUTH_SHARED_SECRET"`
}

// RateLimitConfig contains fixed-window rate limiter settings.
type RateLimitConfig struct {
	MaxRequests    int `env:"RATE_LIMIT_MAX"             envDefault:"30"`
	WindowSeconds  int `env:"RATE_LIMIT_WINDOW_SECONDS"  envDefault:"60"`
	PruneThreshold int `env:"RATE_LIMIT_PRUNE_THRESHOLD" envDefault:"1024"`
}

// PipelineConfig selects the serving provider and recovery behavior.
type PipelineConfig struct {
	Provider   string `env:"PIPELINE_PROVIDER"    envDefault:"openai"`
	AutoRepair bool   `env:"PIPELINE_AUTO_REPAIR" envDefault:"true"`
}

// SkillsConfig points at the supplementary instruction definitions.
type SkillsConfig struct {
	File string `env:"SKILLS_FILE"`
}

// DepConfig is used for dependency injection with dig.
type DepConfig struct {
	dig.Out
	*ServerConfig
	*CORSConfig
	*AuthConfig
	*RateLimitConfig
	*PipelineConfig
	*SkillsConfig
	*openai.Config
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
		dig.Out{},
		&cfg.Server,
		&cfg.CORS,
		&cfg.Auth,
		&cfg.RateLimit,
		&cfg.Pipeline,
		&cfg.Skills,
		&cfg.OpenAI,
	}
}
