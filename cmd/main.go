package main

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/PCcoding666/LLM-QUOTATION/internal/catalog"
	"github.com/PCcoding666/LLM-QUOTATION/internal/config"
	"github.com/PCcoding666/LLM-QUOTATION/internal/domain"
	"github.com/PCcoding666/LLM-QUOTATION/internal/observability"
	"github.com/PCcoding666/LLM-QUOTATION/internal/pricing"
	redisseq "github.com/PCcoding666/LLM-QUOTATION/internal/sequence/redis"
	memstore "github.com/PCcoding666/LLM-QUOTATION/internal/storage/memory"
)

func main() {
	container := buildContainer()

	err := container.Invoke(func(service *domain.QuoteService, client *redis.Client, logger *zap.Logger) {
		ctx := context.Background()

		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, quote-number allocation will fail until it recovers",
				observability.Error(err))
		}

		logger.Info("quotation service initialized")
		_ = service
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
	if err := container.Provide(func(logger *zap.Logger) domain.EventPublisher {
		return observability.NewEventBus(logger)
	}); err != nil {
		log.Fatalf("Failed to provide event bus: %v", err)
	}

	// Redis client and sequence counter
	if err := container.Provide(func(cfg *config.RedisConfig) *redis.Client {
		return redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	}); err != nil {
		log.Fatalf("Failed to provide redis client: %v", err)
	}
	if err := container.Provide(func(client *redis.Client) domain.SequenceCounter {
		return redisseq.NewAllocator(client)
	}); err != nil {
		log.Fatalf("Failed to provide sequence allocator: %v", err)
	}

	// Collaborators
	if err := container.Provide(func() domain.QuoteRepository {
		return memstore.NewStore()
	}); err != nil {
		log.Fatalf("Failed to provide quote repository: %v", err)
	}
	if err := container.Provide(func() domain.Catalog {
		return catalog.NewInMemoryCatalog()
	}); err != nil {
		log.Fatalf("Failed to provide catalog: %v", err)
	}

	// Pricing engine
	if err := container.Provide(func(cfg *config.PricingConfig) (*pricing.Engine, error) {
		tiers, err := cfg.Tiers()
		if err != nil {
			return nil, err
		}
		return pricing.NewEngine(tiers), nil
	}); err != nil {
		log.Fatalf("Failed to provide pricing engine: %v", err)
	}

	// Quote service
	if err := container.Provide(func(
		repo domain.QuoteRepository,
		cat domain.Catalog,
		engine *pricing.Engine,
		sequence domain.SequenceCounter,
		events domain.EventPublisher,
		cfg *config.QuoteConfig,
	) *domain.QuoteService {
		return domain.NewQuoteService(repo, cat, engine, sequence, events,
			domain.WithValidDays(cfg.DefaultValidDays))
	}); err != nil {
		log.Fatalf("Failed to provide quote service: %v", err)
	}

	return container
}
