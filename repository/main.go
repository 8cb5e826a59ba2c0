package repository

import (
	"github.com/cutroom/cutroom-media-service/config"
	"github.com/cutroom/cutroom-media-service/infra"
)

type Repository struct {
	AssetRepo *AssetRepository
	QuotaRepo *QuotaRepository
	JobRepo   *JobRepository
}

func InitRepository(infra *infra.Infra, cfg *config.Config) *Repository {
	assetRepo := NewAssetRepository(infra.Postgres.DB)
	return &Repository{
		AssetRepo: assetRepo,
		QuotaRepo: NewQuotaRepository(infra.Postgres.DB, infra.Redis, cfg.EnvConfig.Quota.CeilingBytes),
		JobRepo:   NewJobRepository(infra.Postgres.DB),
	}
}
