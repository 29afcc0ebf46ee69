package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/PPLKelompok1-2025/lms-service/internal/authz"
	"github.com/PPLKelompok1-2025/lms-service/internal/models"
	"github.com/PPLKelompok1-2025/lms-service/internal/promo"
	"github.com/PPLKelompok1-2025/lms-service/internal/repositories"
	"github.com/PPLKelompok1-2025/lms-service/internal/validator"
)

type promoService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.BusinessValidator
}

func NewPromoService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.BusinessValidator) PromoService {
	return &promoService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// ===== ADMINISTRATION =====

func (s *promoService) Create(ctx context.Context, req *CreatePromoRequest, userID string) (*models.PromoCode, error) {
	if errs := s.validator.ValidatePromoCreate(req); len(errs) > 0 {
		return nil, errs
	}
	if err := s.requireAdmin(ctx, userID, 0, "create"); err != nil {
		return nil, err
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	exists, err := s.repo.PromoCode().ExistsByCode(ctx, nil, code, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check code uniqueness: %w", err)
	}
	if exists {
		return nil, ErrDuplicateCode
	}

	promoCode := &models.PromoCode{
		Code:          code,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		MaxUses:       req.MaxUses,
		MinCartValue:  req.MinCartValue,
		IsActive:      true,
		CreatedBy:     userID,
	}

	if err := s.repo.PromoCode().Create(ctx, nil, promoCode); err != nil {
		return nil, fmt.Errorf("failed to create promo code: %w", err)
	}

	s.logger.Info("Promo code created", "promo_id", promoCode.ID, "code", code, "created_by", userID)
	return promoCode, nil
}

func (s *promoService) GetByID(ctx context.Context, id uint, userID string) (*models.PromoCode, error) {
	if err := s.requireAdmin(ctx, userID, id, "view"); err != nil {
		return nil, err
	}
	promoCode, err := s.repo.PromoCode().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPromoNotFound
		}
		return nil, fmt.Errorf("failed to get promo code: %w", err)
	}
	return promoCode, nil
}

func (s *promoService) Update(ctx context.Context, id uint, req *UpdatePromoRequest, userID string) (*models.PromoCode, error) {
	if err := s.requireAdmin(ctx, userID, id, "update"); err != nil {
		return nil, err
	}

	promoCode, err := s.repo.PromoCode().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPromoNotFound
		}
		return nil, fmt.Errorf("failed to get promo code: %w", err)
	}

	if errs := s.validator.ValidatePromoUpdate(req, promoCode); len(errs) > 0 {
		return nil, errs
	}

	if req.DiscountType != nil {
		promoCode.DiscountType = *req.DiscountType
	}
	if req.DiscountValue != nil {
		promoCode.DiscountValue = *req.DiscountValue
	}
	if req.StartDate != nil {
		promoCode.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		promoCode.EndDate = req.EndDate
	}
	if req.MaxUses != nil {
		promoCode.MaxUses = req.MaxUses
	}
	if req.MinCartValue != nil {
		promoCode.MinCartValue = *req.MinCartValue
	}
	if req.IsActive != nil {
		promoCode.IsActive = *req.IsActive
	}

	if err := s.repo.PromoCode().Update(ctx, nil, promoCode); err != nil {
		return nil, fmt.Errorf("failed to update promo code: %w", err)
	}

	s.logger.Info("Promo code updated", "promo_id", id, "user_id", userID)
	return promoCode, nil
}

func (s *promoService) Delete(ctx context.Context, id uint, userID string) error {
	if err := s.requireAdmin(ctx, userID, id, "delete"); err != nil {
		return err
	}
	if err := s.repo.PromoCode().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrPromoNotFound
		}
		return fmt.Errorf("failed to delete promo code: %w", err)
	}
	s.logger.Info("Promo code deleted", "promo_id", id, "user_id", userID)
	return nil
}

func (s *promoService) List(ctx context.Context, filters repositories.PromoCodeFilters, userID string) ([]*models.PromoCode, int64, error) {
	if err := s.requireAdmin(ctx, userID, 0, "list"); err != nil {
		return nil, 0, err
	}
	codes, total, err := s.repo.PromoCode().List(ctx, nil, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list promo codes: %w", err)
	}
	return codes, total, nil
}

func (s *promoService) GetStats(ctx context.Context, id uint, userID string) (*repositories.PromoCodeStats, error) {
	if err := s.requireAdmin(ctx, userID, id, "stats"); err != nil {
		return nil, err
	}
	stats, err := s.repo.PromoCode().GetStats(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPromoNotFound
		}
		return nil, fmt.Errorf("failed to get promo stats: %w", err)
	}
	return stats, nil
}

// ===== APPLICATION =====

// Validate previews a code against a cart value without consuming a use.
// Unknown codes report as invalid rather than erroring, so the checkout UI
// can show a single message path.
func (s *promoService) Validate(ctx context.Context, code string, cartValue float64) (*PromoPreviewResponse, error) {
	promoCode, err := s.repo.PromoCode().GetByCode(ctx, nil, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return &PromoPreviewResponse{Valid: false, Reason: "unknown code", FinalAmount: cartValue}, nil
		}
		return nil, fmt.Errorf("failed to look up promo code: %w", err)
	}

	now := time.Now()
	if !promo.IsValid(promoCode, cartValue, now) {
		return &PromoPreviewResponse{
			Valid:       false,
			Reason:      invalidityReason(promoCode, cartValue, now),
			FinalAmount: cartValue,
		}, nil
	}

	discount := promo.CalculateDiscount(promoCode, cartValue, now)
	return &PromoPreviewResponse{
		Valid:          true,
		DiscountAmount: discount,
		FinalAmount:    cartValue - discount,
	}, nil
}

// Redeem consumes one use of the code. It must run inside the caller's
// repository transaction so that the usage increment commits or rolls back
// with the purchase it belongs to. The conditional increment in the
// repository is what keeps concurrent redemptions under the cap.
func (s *promoService) Redeem(ctx context.Context, repo repositories.Repository, code string, cartValue float64) (*models.PromoCode, float64, error) {
	promoCode, err := repo.PromoCode().GetByCodeLocked(ctx, nil, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, 0, ErrPromoNotFound
		}
		return nil, 0, fmt.Errorf("failed to look up promo code: %w", err)
	}

	now := time.Now()
	if !promo.IsValid(promoCode, cartValue, now) {
		return nil, 0, fmt.Errorf("%w: %s", ErrPromoNotApplicable, invalidityReason(promoCode, cartValue, now))
	}

	discount := promo.CalculateDiscount(promoCode, cartValue, now)
	if discount <= 0 {
		return nil, 0, ErrPromoNotApplicable
	}

	if err := repo.PromoCode().IncrementUsage(ctx, nil, promoCode.ID); err != nil {
		if errors.Is(err, repositories.ErrPromoExhausted) {
			return nil, 0, ErrPromoExhausted
		}
		return nil, 0, fmt.Errorf("failed to consume promo use: %w", err)
	}
	promoCode.UsedCount++

	return promoCode, discount, nil
}

func invalidityReason(code *models.PromoCode, cartValue float64, now time.Time) string {
	switch {
	case !code.IsActive:
		return "code is inactive"
	case code.StartDate != nil && now.Before(*code.StartDate):
		return "code is not yet valid"
	case code.EndDate != nil && now.After(*code.EndDate):
		return "code has expired"
	case code.MaxUses != nil && code.UsedCount >= *code.MaxUses:
		return "code has been fully redeemed"
	case code.MinCartValue > 0 && cartValue < code.MinCartValue:
		return fmt.Sprintf("cart value below the %.2f minimum", code.MinCartValue)
	}
	return "code is not applicable"
}

func (s *promoService) requireAdmin(ctx context.Context, userID string, resourceID uint, action string) error {
	actor, err := loadActor(ctx, s.repo, userID)
	if err != nil {
		return err
	}
	if actor == nil || actor.Role != authz.RoleAdmin {
		return NewPermissionError(userID, resourceID, "promo", action, "admin role required")
	}
	return nil
}
