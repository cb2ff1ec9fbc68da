package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sales-daily-api/internal/models"
	appErrors "github.com/noah-isme/sales-daily-api/pkg/errors"
)

type subordinateLister interface {
	ListSubordinateIDs(ctx context.Context, managerID int64) ([]int64, error)
}

// HierarchyResolver computes the staff ids a manager may act upon: self plus direct subordinates.
//
// Subordinate sets are cached per manager for ttl and dropped by Invalidate whenever a
// manager assignment or role changes. Callers must treat the result as an upper bound that SQL
// re-checks against staff.manager_id, so a stale entry can hide a new subordinate but never
// expose a removed one.
type HierarchyResolver struct {
	staff  subordinateLister
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewHierarchyResolver constructs the resolver. A nil cache disables caching.
func NewHierarchyResolver(staff subordinateLister, cache *CacheService, ttl time.Duration, logger *zap.Logger) *HierarchyResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HierarchyResolver{staff: staff, cache: cache, ttl: ttl, logger: logger}
}

// AllowedStaffIDs returns {self} for staff and {self} plus direct subordinates for managers.
func (r *HierarchyResolver) AllowedStaffIDs(ctx context.Context, actor models.Actor) ([]int64, error) {
	if !actor.IsManager() {
		return []int64{actor.StaffID}, nil
	}

	key := hierarchyCacheKey(actor.StaffID)
	var subordinates []int64
	if hit, err := r.cache.Get(ctx, key, &subordinates); err == nil && hit {
		return withSelf(actor.StaffID, subordinates), nil
	}

	subordinates, err := r.staff.ListSubordinateIDs(ctx, actor.StaffID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to resolve subordinates")
	}
	if err := r.cache.Set(ctx, key, subordinates, r.ttl); err != nil {
		r.logger.Warn("hierarchy cache write failed", zap.Int64("manager_id", actor.StaffID), zap.Error(err))
	}
	return withSelf(actor.StaffID, subordinates), nil
}

// Invalidate drops cached subordinate sets for the given managers.
func (r *HierarchyResolver) Invalidate(ctx context.Context, managerIDs ...int64) {
	keys := make([]string, 0, len(managerIDs))
	for _, id := range managerIDs {
		if id > 0 {
			keys = append(keys, hierarchyCacheKey(id))
		}
	}
	if err := r.cache.Delete(ctx, keys...); err != nil {
		r.logger.Warn("hierarchy cache invalidation failed", zap.Int64s("manager_ids", managerIDs), zap.Error(err))
	}
}

// InvalidateAll drops every cached subordinate set. Role changes use it because a promotion or
// demotion can alter sets cached under other managers.
func (r *HierarchyResolver) InvalidateAll(ctx context.Context) {
	if err := r.cache.Invalidate(ctx, hierarchyCachePattern); err != nil {
		r.logger.Warn("hierarchy cache flush failed", zap.Error(err))
	}
}

const hierarchyCachePattern = "hierarchy:manager:*"

func hierarchyCacheKey(managerID int64) string {
	return fmt.Sprintf("hierarchy:manager:%d", managerID)
}

func withSelf(self int64, subordinates []int64) []int64 {
	ids := make([]int64, 0, len(subordinates)+1)
	ids = append(ids, self)
	for _, id := range subordinates {
		if id != self {
			ids = append(ids, id)
		}
	}
	return ids
}
