package services

import (
	"context"
	"sort"
	"time"

	"github.com/anonto42/reaction-ledger/internal/models"
	"go.uber.org/zap"
)

// Fan-out stages reported in degradations
const (
	StageSearch    = "search"
	StageResolve   = "resolve"
	StageUsers     = "users"
	StageReconcile = "reconcile"
)

// bounded derives a context that ends after timeout. A zero timeout only inherits ctx.
func bounded(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func degrade(logger *zap.Logger, stage string, kind models.EntityKind, err error) models.Degradation {
	logger.Warn("adapter degraded",
		zap.String("stage", stage),
		zap.String("kind", string(kind)),
		zap.Error(err))
	return models.Degradation{Stage: stage, Kind: kind, Error: err.Error()}
}

func sortDegradations(ds []models.Degradation) {
	sort.Slice(ds, func(i, j int) bool {
		if ds[i].Stage != ds[j].Stage {
			return ds[i].Stage < ds[j].Stage
		}
		return ds[i].Kind < ds[j].Kind
	})
}
