package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/cutroom/cutroom-media-service/config"
	"github.com/cutroom/cutroom-media-service/http/controller"
	routes "github.com/cutroom/cutroom-media-service/http/route"
	infraPkg "github.com/cutroom/cutroom-media-service/infra"
	"github.com/cutroom/cutroom-media-service/provider"
	"github.com/cutroom/cutroom-media-service/repository"
)

func main() {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("No .env file found, continuing with environment variables")
	}

	cfg := config.NewConfig()
	infra := infraPkg.InitInfra(cfg)
	repo := repository.InitRepository(infra, cfg)
	prov := provider.InitProvider(cfg, infra, repo)

	ctrl := controller.NewController(cfg, infra, repo, prov)

	router := routes.SetupRouter(ctrl)

	go func() {
		log.Println("HTTP Server started on :8080")
		if err := router.Run(":8080"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx := context.Background()
	infra.Logger.InfoWithContextf(ctx, "Shutting down HTTP server...")

	// Buffered telemetry batches flush here; without it a deploy rotation
	// silently drops the last exports.
	infra.Telemetry.Shutdown(ctx)

	infra.Logger.InfoWithContextf(ctx, "HTTP server exited properly")
}
