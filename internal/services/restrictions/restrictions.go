// Package restrictions resolves the exclusion lists of an agreement.
package restrictions

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"campaign-filter-engine/internal/metrics"
	"campaign-filter-engine/internal/models"
	"campaign-filter-engine/internal/utils"
)

// Store lists raw restriction rows. database.RestrictionRepository implements it.
type Store interface {
	ListRestrictions(ctx context.Context, agreement, product string) ([]models.RestrictionRow, error)
}

// Kind names used in the restricoes table.
var storedKinds = map[string]models.RestrictionKind{
	"lotacao":    models.RestrictionLotation,
	"secretaria": models.RestrictionDepartment,
	"vinculo":    models.RestrictionBondType,
}

// Service looks restrictions up with a cache in front of the store. A nil
// store is allowed and always resolves to an empty set.
type Service struct {
	store Store
	cache *cache.Cache
}

// NewService creates a restriction service caching results for ttl.
func NewService(store Store, ttl time.Duration) *Service {
	return &Service{
		store: store,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Resolve returns the restrictions of an agreement for a campaign type.
// Lookup failures degrade to an empty set and are never returned.
func (s *Service) Resolve(ctx context.Context, agreement string, ct models.CampaignType) models.RestrictionSet {
	agreement = strings.ToLower(strings.TrimSpace(agreement))
	if agreement == "" || s.store == nil {
		metrics.RestrictionLookups.WithLabelValues(metrics.SourceFallback).Inc()
		return models.NewRestrictionSet()
	}

	key := agreement + "|" + ct.ProductSlug()
	if cached, found := s.cache.Get(key); found {
		metrics.RestrictionLookups.WithLabelValues(metrics.SourceCache).Inc()
		return cached.(models.RestrictionSet)
	}

	rows, err := s.store.ListRestrictions(ctx, agreement, ct.ProductSlug())
	if err != nil {
		utils.GetLogger().Warn("Restriction lookup failed, continuing without restrictions",
			zap.String("agreement", agreement),
			zap.String("campaign_type", string(ct)),
			zap.Error(err),
		)
		metrics.RestrictionLookups.WithLabelValues(metrics.SourceFallback).Inc()
		return models.NewRestrictionSet()
	}

	set := Build(rows)
	s.cache.Set(key, set, cache.DefaultExpiration)
	metrics.RestrictionLookups.WithLabelValues(metrics.SourceDB).Inc()

	utils.GetLogger().Debug("Restrictions loaded",
		zap.String("agreement", agreement),
		zap.Int("rows", len(rows)),
	)

	return set
}

// Invalidate drops every cached entry.
func (s *Service) Invalidate() {
	s.cache.Flush()
}

// Build groups raw rows into a set. Unknown kinds are ignored.
func Build(rows []models.RestrictionRow) models.RestrictionSet {
	set := models.NewRestrictionSet()
	for _, row := range rows {
		kind, ok := storedKinds[strings.ToLower(strings.TrimSpace(row.Kind))]
		if !ok {
			continue
		}
		set.Add(kind, strings.TrimSpace(row.Value))
	}
	return set
}
