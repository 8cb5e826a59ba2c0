package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/cutroom/cutroom-media-service/config"
	"github.com/cutroom/cutroom-media-service/consumer/worker"
	infraPkg "github.com/cutroom/cutroom-media-service/infra"
	"github.com/cutroom/cutroom-media-service/repository"
)

func main() {
	err := godotenv.Load("../.env")
	if err != nil {
		log.Println("No .env file found, continuing with environment variables")
	}

	cfg := config.NewConfig()
	infra := infraPkg.InitInfra(cfg)
	repo := repository.InitRepository(infra, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	thumbnailConsumer := worker.NewThumbnailConsumer(infra.RabbitMQ.Channel, cfg.EnvConfig, infra, repo)
	if err := thumbnailConsumer.Start(ctx); err != nil {
		infra.Logger.ErrorWithContextf(ctx, err, "Failed to start Thumbnail consumer: %v", err)
		log.Fatalf("Failed to start Thumbnail consumer: %v", err)
	}

	quotaWorker := worker.NewQuotaRecomputeWorker(cfg.EnvConfig, infra, repo)
	quotaWorker.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	infra.Logger.InfoWithContextf(ctx, "Shutting down consumer...")
	cancel()

	infra.Telemetry.Shutdown(context.Background())

	infra.Logger.InfoWithContextf(ctx, "Consumer exited properly")
}
