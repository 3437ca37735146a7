package main

import (
	"context"
	"fmt"
	"log"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/davidbz/promptforge/internal/config"
	"github.com/davidbz/promptforge/internal/domain"
	"github.com/davidbz/promptforge/internal/httpserver"
	"github.com/davidbz/promptforge/internal/httpserver/middleware"
	"github.com/davidbz/promptforge/internal/observability"
	"github.com/davidbz/promptforge/internal/provider/echo"
	"github.com/davidbz/promptforge/internal/provider/openai"
	"github.com/davidbz/promptforge/internal/provider/registry"
	"github.com/davidbz/promptforge/internal/skills"
)

func main() {
	container := buildContainer()

	err := container.Invoke(func(server *httpserver.Server) {
		if err := server.Start(); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
}

func buildContainer() *dig.Container {
	container := dig.New()

	// Configuration
	if err := container.Provide(config.Load); err != nil {
		log.Fatalf("Failed to provide config: %v", err)
	}
	if err := container.Provide(config.ParseDependenciesConfig); err != nil {
		log.Fatalf("Failed to provide config dependencies: %v", err)
	}

	// Observability
	if err := container.Provide(observability.InitLogger); err != nil {
		log.Fatalf("Failed to provide logger: %v", err)
	}

	// Provider Registry
	if err := container.Provide(func() domain.ProviderRegistry {
		return registry.NewRegistry()
	}); err != nil {
		log.Fatalf("Failed to provide registry: %v", err)
	}

	// OpenAI-compatible streaming provider; nil when not configured.
	if err := container.Provide(func(cfg *openai.Config) *openai.Client {
		if cfg.APIKey == "" {
			return nil
		}
		client, err := openai.NewClient(*cfg)
		if err != nil {
			log.Printf("OpenAI provider disabled: %v", err)
			return nil
		}
		return client
	}); err != nil {
		log.Fatalf("Failed to provide OpenAI provider: %v", err)
	}

	// Register providers with registry (invoked for side effects; taking the
	// logger here also forces its initialization before anything serves).
	if err := container.Invoke(func(
		logger *zap.Logger,
		reg domain.ProviderRegistry,
		pipelineCfg *config.PipelineConfig,
		openaiClient *openai.Client,
	) error {
		ctx := context.Background()

		if err := reg.Register(ctx, echo.NewProvider()); err != nil {
			return fmt.Errorf("failed to register echo provider: %w", err)
		}

		if openaiClient != nil {
			if err := reg.Register(ctx, openaiClient); err != nil {
				return fmt.Errorf("failed to register OpenAI provider: %w", err)
			}
		}

		// Fall back to the echo provider when the configured one is absent.
		if _, err := reg.Get(ctx, pipelineCfg.Provider); err != nil {
			logger.Warn("configured provider not available, falling back to echo",
				observability.String("provider", pipelineCfg.Provider))
			pipelineCfg.Provider = "echo"
		}

		return nil
	}); err != nil {
		log.Fatalf("Failed to register providers: %v", err)
	}

	// Skills
	if err := container.Provide(func(cfg *config.SkillsConfig) (domain.SkillResolver, error) {
		return skills.Load(cfg.File)
	}); err != nil {
		log.Fatalf("Failed to provide skills resolver: %v", err)
	}

	// Domain Services
	if err := container.Provide(func(
		reg domain.ProviderRegistry,
		resolver domain.SkillResolver,
		pipelineCfg *config.PipelineConfig,
	) *domain.PipelineService {
		return domain.NewPipelineService(reg, resolver, domain.PipelineOptions{
			ProviderName: pipelineCfg.Provider,
			AutoRepair:   pipelineCfg.AutoRepair,
		})
	}); err != nil {
		log.Fatalf("Failed to provide pipeline service: %v", err)
	}

	// HTTP Layer
	if err := container.Provide(func(corsCfg *config.CORSConfig) middleware.Middleware {
		return middleware.BuildMiddlewareChain(corsCfg)
	}); err != nil {
		log.Fatalf("Failed to provide middleware chain: %v", err)
	}
	if err := container.Provide(httpserver.NewHandler); err != nil {
		log.Fatalf("Failed to provide HTTP handler: %v", err)
	}
	if err := container.Provide(httpserver.NewServer); err != nil {
		log.Fatalf("Failed to provide HTTP server: %v", err)
	}

	return container
}
