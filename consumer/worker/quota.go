package worker

import (
	"context"
	"time"

	"github.com/cutroom/cutroom-media-service/config"
	"github.com/cutroom/cutroom-media-service/infra"
	"github.com/cutroom/cutroom-media-service/repository"
)

// QuotaRecomputeWorker periodically overwrites every tenant's tracked usage
// with the aggregate over their asset rows, correcting drift left behind by
// the non-transactional admission path.
type QuotaRecomputeWorker struct {
	cfg        *config.EnvConfig
	infra      *infra.Infra
	repository *repository.Repository
}

func NewQuotaRecomputeWorker(cfg *config.EnvConfig, infra *infra.Infra, repo *repository.Repository) *QuotaRecomputeWorker {
	return &QuotaRecomputeWorker{
		cfg:        cfg,
		infra:      infra,
		repository: repo,
	}
}

func (w *QuotaRecomputeWorker) Start(ctx context.Context) {
	interval := w.cfg.Quota.RecomputeInterval
	if interval <= 0 {
		interval = time.Hour
	}

	w.infra.Logger.InfoWithContextf(ctx, "[Quota Recompute] Sweeping every %s", interval)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				w.infra.Logger.InfoWithContextf(ctx, "[Quota Recompute] Shutting down...")
				return
			case <-ticker.C:
				w.sweep(ctx)
			}
		}
	}()
}

func (w *QuotaRecomputeWorker) sweep(ctx context.Context) {
	tenants, err := w.repository.QuotaRepo.TenantIDs(ctx)
	if err != nil {
		w.infra.Logger.ErrorWithContextf(ctx, err, "[Quota Recompute] Failed to list tenants")
		return
	}

	for _, tenantID := range tenants {
		usage, err := w.repository.AssetRepo.SumByTenant(tenantID)
		if err != nil {
			w.infra.Logger.WarningWithContextf(ctx, "[Quota Recompute] Aggregate failed for tenant %s: %v", tenantID, err)
			continue
		}
		if _, err := w.repository.QuotaRepo.Recompute(ctx, tenantID, usage); err != nil {
			w.infra.Logger.WarningWithContextf(ctx, "[Quota Recompute] Overwrite failed for tenant %s: %v", tenantID, err)
		}
	}

	w.infra.Logger.InfoWithContextf(ctx, "[Quota Recompute] Swept %d tenants", len(tenants))
}
