package campaign

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"campaign-filter-engine/internal/config"
	"campaign-filter-engine/internal/services/database"
	"campaign-filter-engine/internal/services/engine"
	"campaign-filter-engine/internal/services/restrictions"
	"campaign-filter-engine/internal/utils"
)

// Setup builds a campaign service from configuration. The database is
// optional: when it is not configured or unreachable the returned DB is nil
// and every restriction lookup resolves to an empty set.
func Setup(ctx context.Context, cfg *config.Config) (*Service, *database.DB, error) {
	rules, err := engine.LoadRulesBook(cfg.RulesFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load rules: %w", err)
	}

	var db *database.DB
	var store restrictions.Store
	if cfg.HasDatabase() {
		db, err = database.New(ctx, cfg)
		if err != nil {
			utils.GetLogger().Warn("Restriction database unavailable, running without restrictions", zap.Error(err))
			db = nil
		} else {
			store = database.NewRestrictionRepository(db)
		}
	}

	svc := NewService(engine.New(rules), restrictions.NewService(store, cfg.RestrictionCacheTTL), nil)
	return svc, db, nil
}
