package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/PPLKelompok1-2025/lms-service/internal/cache"
	"github.com/PPLKelompok1-2025/lms-service/internal/models"
	"github.com/PPLKelompok1-2025/lms-service/internal/repositories"
)

type PromoCodePostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewPromoCodePostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.PromoCodeRepository {
	return &PromoCodePostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (p *PromoCodePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return p.db
}

func (p *PromoCodePostgreSQL) Create(ctx context.Context, tx *gorm.DB, code *models.PromoCode) error {
	if err := p.getDB(tx).WithContext(ctx).Create(code).Error; err != nil {
		return fmt.Errorf("failed to create promo code: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, p.cacheManager.Promo, "list:*")
	return nil
}

func (p *PromoCodePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.PromoCode, error) {
	var code models.PromoCode
	err := p.getDB(tx).WithContext(ctx).First(&code, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get promo code: %w", err)
	}
	return &code, nil
}

// GetByCode looks a promo code up by its public code string, cached under
// the promo prefix. Redemption paths must bypass the cache and read inside
// the transaction instead.
func (p *PromoCodePostgreSQL) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*models.PromoCode, error) {
	if tx != nil {
		return p.getByCodeUncached(ctx, tx, code)
	}

	cacheKey := fmt.Sprintf("code:%s", code)
	var promo models.PromoCode

	err := p.cacheManager.Promo.CacheOrExecute(ctx, cacheKey, &promo, cache.PromoCacheConfig.TTL, func() (interface{}, error) {
		return p.getByCodeUncached(ctx, nil, code)
	})
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

// GetByCodeLocked reads the row with FOR UPDATE so a redemption holds the
// row until its transaction commits. Never cached.
func (p *PromoCodePostgreSQL) GetByCodeLocked(ctx context.Context, tx *gorm.DB, code string) (*models.PromoCode, error) {
	var promo models.PromoCode
	err := p.getDB(tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", code).
		First(&promo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get promo code: %w", err)
	}
	return &promo, nil
}

func (p *PromoCodePostgreSQL) getByCodeUncached(ctx context.Context, tx *gorm.DB, code string) (*models.PromoCode, error) {
	var promo models.PromoCode
	err := p.getDB(tx).WithContext(ctx).
		Where("code = ?", code).
		First(&promo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get promo code: %w", err)
	}
	return &promo, nil
}

func (p *PromoCodePostgreSQL) Update(ctx context.Context, tx *gorm.DB, code *models.PromoCode) error {
	err := p.getDB(tx).WithContext(ctx).
		Model(&models.PromoCode{}).
		Where("id = ?", code.ID).
		Updates(map[string]interface{}{
			"discount_type":  code.DiscountType,
			"discount_value": code.DiscountValue,
			"start_date":     code.StartDate,
			"end_date":       code.EndDate,
			"max_uses":       code.MaxUses,
			"min_cart_value": code.MinCartValue,
			"is_active":      code.IsActive,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update promo code: %w", err)
	}

	cache.InvalidatePromoCache(ctx, p.cacheManager, code.ID, code.Code)
	return nil
}

func (p *PromoCodePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	code, err := p.GetByID(ctx, tx, id)
	if err != nil {
		return err
	}

	result := p.getDB(tx).WithContext(ctx).Delete(&models.PromoCode{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete promo code: %w", result.Error)
	}

	cache.InvalidatePromoCache(ctx, p.cacheManager, id, code.Code)
	return nil
}

func (p *PromoCodePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.PromoCodeFilters) ([]*models.PromoCode, int64, error) {
	query := p.getDB(tx).WithContext(ctx).Model(&models.PromoCode{})
	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	if filters.Search != nil && *filters.Search != "" {
		query = query.Where("code ILIKE ?", "%"+*filters.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count promo codes: %w", err)
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var codes []*models.PromoCode
	if err := query.Order("created_at DESC").Find(&codes).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list promo codes: %w", err)
	}
	return codes, total, nil
}

func (p *PromoCodePostgreSQL) SetActive(ctx context.Context, tx *gorm.DB, id uint, active bool) error {
	result := p.getDB(tx).WithContext(ctx).
		Model(&models.PromoCode{}).
		Where("id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		return fmt.Errorf("failed to set promo code active flag: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}

	cache.SafeInvalidatePattern(ctx, p.cacheManager.Promo, "*")
	return nil
}

// IncrementUsage bumps used_count with a single conditional UPDATE. Two
// concurrent redemptions of the last remaining use race on the row; the
// WHERE clause guarantees only one of them sees RowsAffected == 1.
func (p *PromoCodePostgreSQL) IncrementUsage(ctx context.Context, tx *gorm.DB, id uint) error {
	result := p.getDB(tx).WithContext(ctx).
		Model(&models.PromoCode{}).
		Where("id = ? AND (max_uses IS NULL OR used_count < max_uses)", id).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return fmt.Errorf("failed to increment promo usage: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Distinguish a missing row from an exhausted cap
		var count int64
		if err := p.getDB(tx).WithContext(ctx).
			Model(&models.PromoCode{}).
			Where("id = ?", id).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check promo code: %w", err)
		}
		if count == 0 {
			return repositories.ErrNotFound
		}
		return repositories.ErrPromoExhausted
	}

	cache.SafeInvalidatePattern(ctx, p.cacheManager.Promo, "*")
	return nil
}

func (p *PromoCodePostgreSQL) GetStats(ctx context.Context, tx *gorm.DB, id uint) (*repositories.PromoCodeStats, error) {
	code, err := p.GetByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	var totalDiscount *float64
	var redemptions int64
	db := p.getDB(tx).WithContext(ctx).Model(&models.Transaction{}).
		Where("promo_code_id = ? AND status = ?", id, models.TransactionCompleted)
	if err := db.Count(&redemptions).Error; err != nil {
		return nil, fmt.Errorf("failed to count redemptions: %w", err)
	}
	if err := db.Select("SUM(discount_amount)").Scan(&totalDiscount).Error; err != nil {
		return nil, fmt.Errorf("failed to sum discounts: %w", err)
	}

	stats := &repositories.PromoCodeStats{
		TotalRedemptions: int(redemptions),
	}
	if totalDiscount != nil {
		stats.TotalDiscount = *totalDiscount
	}
	if code.MaxUses != nil {
		remaining := *code.MaxUses - code.UsedCount
		if remaining < 0 {
			remaining = 0
		}
		stats.RemainingUses = &remaining
	}
	return stats, nil
}

func (p *PromoCodePostgreSQL) ExistsByCode(ctx context.Context, tx *gorm.DB, code string, excludeID *uint) (bool, error) {
	query := p.getDB(tx).WithContext(ctx).
		Model(&models.PromoCode{}).
		Where("code = ?", code)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check promo code existence: %w", err)
	}
	return count > 0, nil
}
