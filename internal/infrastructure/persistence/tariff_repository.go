package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/lending/backend/internal/domain/lending"
	"github.com/lending/backend/internal/domain/shared"
)

// TariffSortFields contains allowed sort fields for tariffs
var TariffSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"name":          true,
	"interest_rate": true,
	"valid_from":    true,
}

// GormTariffRepository implements lending.TariffRepository using GORM,
// with a Redis read-through cache on single-tariff lookups. Tariffs change
// rarely and are read on every application and schedule calculation.
type GormTariffRepository struct {
	db          *gorm.DB
	redisClient *redis.Client
	cacheTTL    time.Duration
	keyPrefix   string
}

// NewGormTariffRepository creates a new tariff repository. redisClient may be
// nil, in which case every read goes to the database.
func NewGormTariffRepository(db *gorm.DB, redisClient *redis.Client, cacheTTL time.Duration) *GormTariffRepository {
	return &GormTariffRepository{
		db:          db,
		redisClient: redisClient,
		cacheTTL:    cacheTTL,
		keyPrefix:   "tariff:",
	}
}

func (r *GormTariffRepository) cacheKey(id uuid.UUID) string {
	return r.keyPrefix + id.String()
}

// FindByID finds a tariff by ID, consulting the cache first
func (r *GormTariffRepository) FindByID(ctx context.Context, id uuid.UUID) (*lending.Tariff, error) {
	if cached := r.fromCache(ctx, id); cached != nil {
		return cached, nil
	}

	var tariff lending.Tariff
	err := r.db.WithContext(ctx).First(&tariff, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find tariff: %w", err)
	}

	r.toCache(ctx, &tariff)
	return &tariff, nil
}

// FindAll finds all tariffs with filtering
func (r *GormTariffRepository) FindAll(ctx context.Context, filter shared.Filter) ([]lending.Tariff, error) {
	var tariffs []lending.Tariff
	q := r.db.WithContext(ctx).Model(&lending.Tariff{})
	q = applySort(q, filter, TariffSortFields)
	q = applyPagination(q, filter)
	if err := q.Find(&tariffs).Error; err != nil {
		return nil, fmt.Errorf("failed to list tariffs: %w", err)
	}
	return tariffs, nil
}

// FindActive finds all tariffs currently offered
func (r *GormTariffRepository) FindActive(ctx context.Context) ([]lending.Tariff, error) {
	var tariffs []lending.Tariff
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name asc").
		Find(&tariffs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active tariffs: %w", err)
	}
	return tariffs, nil
}

// Save creates or updates a tariff and invalidates its cache entry
func (r *GormTariffRepository) Save(ctx context.Context, tariff *lending.Tariff) error {
	if err := r.db.WithContext(ctx).Save(tariff).Error; err != nil {
		return fmt.Errorf("failed to save tariff: %w", err)
	}
	r.invalidate(ctx, tariff.ID)
	return nil
}

// Delete removes a tariff and invalidates its cache entry
func (r *GormTariffRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&lending.Tariff{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete tariff: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	r.invalidate(ctx, id)
	return nil
}

// fromCache returns the cached tariff or nil; cache failures are treated as
// misses
func (r *GormTariffRepository) fromCache(ctx context.Context, id uuid.UUID) *lending.Tariff {
	if r.redisClient == nil {
		return nil
	}
	data, err := r.redisClient.Get(ctx, r.cacheKey(id)).Bytes()
	if err != nil {
		return nil
	}
	var tariff lending.Tariff
	if err := json.Unmarshal(data, &tariff); err != nil {
		return nil
	}
	return &tariff
}

func (r *GormTariffRepository) toCache(ctx context.Context, tariff *lending.Tariff) {
	if r.redisClient == nil {
		return
	}
	data, err := json.Marshal(tariff)
	if err != nil {
		return
	}
	r.redisClient.Set(ctx, r.cacheKey(tariff.ID), data, r.cacheTTL)
}

func (r *GormTariffRepository) invalidate(ctx context.Context, id uuid.UUID) {
	if r.redisClient == nil {
		return
	}
	r.redisClient.Del(ctx, r.cacheKey(id))
}

var _ lending.TariffRepository = (*GormTariffRepository)(nil)
