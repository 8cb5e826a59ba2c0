package provider

import (
	"github.com/cutroom/cutroom-media-service/config"
	"github.com/cutroom/cutroom-media-service/infra"
	"github.com/cutroom/cutroom-media-service/repository"
)

type Provider struct {
	Upload *UploadProvider
}

func InitProvider(cfg *config.Config, inf *infra.Infra, repo *repository.Repository) *Provider {
	return &Provider{
		Upload: NewUploadProvider(
			repo.AssetRepo,
			repo.QuotaRepo,
			repo.JobRepo,
			inf.Produce.ThumbnailService,
			inf.Storage,
			inf.Logger,
			cfg.EnvConfig,
		),
	}
}
