package controller

import (
	"github.com/cutroom/cutroom-media-service/config"
	"github.com/cutroom/cutroom-media-service/infra"
	"github.com/cutroom/cutroom-media-service/provider"
	"github.com/cutroom/cutroom-media-service/repository"
)

type Controller struct {
	Config     *config.Config
	Infra      *infra.Infra
	Repository *repository.Repository
	Provider   *provider.Provider
}

func NewController(cfg *config.Config, infra *infra.Infra, repo *repository.Repository, prov *provider.Provider) *Controller {
	return &Controller{
		Config:     cfg,
		Infra:      infra,
		Repository: repo,
		Provider:   prov,
	}
}
