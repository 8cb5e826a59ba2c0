package infra

import (
	"context"
	"log"

	"github.com/cutroom/cutroom-media-service/config"
	"github.com/cutroom/cutroom-media-service/infra/produce"
	"github.com/cutroom/cutroom-media-service/infra/storage"
)

type Infra struct {
	Postgres  *PostgresClient
	Redis     *RedisClient
	RabbitMQ  *RabbitMQClient
	Logger    *LoggerClient
	Telemetry *Telemetry
	Storage   storage.Backend
	Produce   *produce.Produce
}

func InitInfra(cfg *config.Config) *Infra {
	ctx := context.Background()

	telemetry := InitTelemetry(ctx, cfg.EnvConfig)

	logger := InitLoggerClient(cfg.EnvConfig, telemetry)
	if logger == nil {
		panic("Failed to initialize Logger client")
	}

	postgres := InitPostgresClient(cfg.EnvConfig)
	if postgres == nil {
		panic("Failed to initialize Postgres client")
	}

	redis := InitRedisClient(cfg.EnvConfig)
	if redis == nil {
		panic("Failed to initialize Redis client")
	}

	rabbitMQ := InitRabbitMQClient(cfg.EnvConfig)
	if rabbitMQ == nil {
		panic("Failed to initialize RabbitMQ client")
	}

	backend, err := storage.New(ctx, cfg.EnvConfig)
	if err != nil {
		log.Fatalf("Storage backend init failed: %v", err)
	}
	if mb, ok := backend.(*storage.MinioBackend); ok {
		if err := mb.EnsureBucket(ctx); err != nil {
			log.Fatalf("Storage bucket init failed: %v", err)
		}
	}

	produceService := produce.InitProduce(rabbitMQ.Channel, cfg.EnvConfig.Thumbnail.Queue)
	if produceService == nil {
		panic("Failed to initialize Produce service")
	}

	return &Infra{
		Postgres:  postgres,
		Redis:     redis,
		RabbitMQ:  rabbitMQ,
		Logger:    logger,
		Telemetry: telemetry,
		Storage:   backend,
		Produce:   produceService,
	}
}
