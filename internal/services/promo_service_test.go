package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/PPLKelompok1-2025/lms-service/internal/models"
	"github.com/PPLKelompok1-2025/lms-service/internal/repositories"
)

func testLogger() *slog.Logger {
	return slog.Default()
}

func intPtr(n int) *int { return &n }

func timePtr(t time.Time) *time.Time { return &t }

func TestPromoServiceValidate(t *testing.T) {
	repo := newStubRepository()
	svc := NewPromoService(repo, nil, testLogger(), nil)

	yesterday := time.Now().Add(-24 * time.Hour)
	tomorrow := time.Now().Add(24 * time.Hour)

	repo.promos.byCode["SAVE10"] = &models.PromoCode{
		ID:            1,
		Code:          "SAVE10",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: 10,
		IsActive:      true,
	}
	repo.promos.byCode["EXPIRED"] = &models.PromoCode{
		ID:            2,
		Code:          "EXPIRED",
		DiscountType:  models.DiscountFixed,
		DiscountValue: 5,
		EndDate:       timePtr(yesterday),
		IsActive:      true,
	}
	repo.promos.byCode["NOTYET"] = &models.PromoCode{
		ID:            3,
		Code:          "NOTYET",
		DiscountType:  models.DiscountFixed,
		DiscountValue: 5,
		StartDate:     timePtr(tomorrow),
		IsActive:      true,
	}
	repo.promos.byCode["USEDUP"] = &models.PromoCode{
		ID:            4,
		Code:          "USEDUP",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: 50,
		MaxUses:       intPtr(3),
		UsedCount:     3,
		IsActive:      true,
	}
	repo.promos.byCode["BIGCART"] = &models.PromoCode{
		ID:            5,
		Code:          "BIGCART",
		DiscountType:  models.DiscountFixed,
		DiscountValue: 20,
		MinCartValue:  100,
		IsActive:      true,
	}
	repo.promos.byCode["OFF"] = &models.PromoCode{
		ID:            6,
		Code:          "OFF",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: 10,
		IsActive:      false,
	}

	tests := []struct {
		name         string
		code         string
		cartValue    float64
		wantValid    bool
		wantReason   string
		wantDiscount float64
		wantFinal    float64
	}{
		{
			name:         "valid percentage code",
			code:         "SAVE10",
			cartValue:    200,
			wantValid:    true,
			wantDiscount: 20,
			wantFinal:    180,
		},
		{
			name:         "code is trimmed and uppercased",
			code:         "  save10 ",
			cartValue:    200,
			wantValid:    true,
			wantDiscount: 20,
			wantFinal:    180,
		},
		{
			name:       "unknown code",
			code:       "NOPE",
			cartValue:  50,
			wantValid:  false,
			wantReason: "unknown code",
			wantFinal:  50,
		},
		{
			name:       "expired code",
			code:       "EXPIRED",
			cartValue:  50,
			wantValid:  false,
			wantReason: "code has expired",
			wantFinal:  50,
		},
		{
			name:       "not yet valid",
			code:       "NOTYET",
			cartValue:  50,
			wantValid:  false,
			wantReason: "code is not yet valid",
			wantFinal:  50,
		},
		{
			name:       "fully redeemed",
			code:       "USEDUP",
			cartValue:  50,
			wantValid:  false,
			wantReason: "code has been fully redeemed",
			wantFinal:  50,
		},
		{
			name:       "cart below minimum",
			code:       "BIGCART",
			cartValue:  50,
			wantValid:  false,
			wantReason: "cart value below the 100.00 minimum",
			wantFinal:  50,
		},
		{
			name:       "inactive code",
			code:       "OFF",
			cartValue:  50,
			wantValid:  false,
			wantReason: "code is inactive",
			wantFinal:  50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			preview, err := svc.Validate(context.Background(), tt.code, tt.cartValue)
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if preview.Valid != tt.wantValid {
				t.Errorf("Validate() valid = %v, want %v", preview.Valid, tt.wantValid)
			}
			if tt.wantReason != "" && preview.Reason != tt.wantReason {
				t.Errorf("Validate() reason = %q, want %q", preview.Reason, tt.wantReason)
			}
			if preview.DiscountAmount != tt.wantDiscount {
				t.Errorf("Validate() discount = %v, want %v", preview.DiscountAmount, tt.wantDiscount)
			}
			if preview.FinalAmount != tt.wantFinal {
				t.Errorf("Validate() final = %v, want %v", preview.FinalAmount, tt.wantFinal)
			}
		})
	}
}

func TestPromoServiceRedeem(t *testing.T) {
	repo := newStubRepository()
	svc := NewPromoService(repo, nil, testLogger(), nil)

	repo.promos.byCode["LAUNCH"] = &models.PromoCode{
		ID:            1,
		Code:          "LAUNCH",
		DiscountType:  models.DiscountFixed,
		DiscountValue: 25,
		MaxUses:       intPtr(2),
		UsedCount:     1,
		IsActive:      true,
	}

	promoCode, discount, err := svc.Redeem(context.Background(), repo, "launch", 100)
	if err != nil {
		t.Fatalf("Redeem() error = %v", err)
	}
	if discount != 25 {
		t.Errorf("Redeem() discount = %v, want 25", discount)
	}
	if promoCode.UsedCount != 2 {
		t.Errorf("Redeem() used count = %d, want 2", promoCode.UsedCount)
	}

	// The code is now at its cap; the next redemption must not go through.
	if _, _, err := svc.Redeem(context.Background(), repo, "LAUNCH", 100); err == nil {
		t.Fatal("Redeem() on an exhausted code expected error, got nil")
	}
}

func TestPromoServiceRedeemExhaustedRace(t *testing.T) {
	// The validity check passes but the conditional increment loses the race.
	repo := newStubRepository()
	svc := NewPromoService(repo, nil, testLogger(), nil)

	repo.promos.byCode["RACE"] = &models.PromoCode{
		ID:            1,
		Code:          "RACE",
		DiscountType:  models.DiscountFixed,
		DiscountValue: 10,
		IsActive:      true,
	}
	repo.promos.incrementErr = repositories.ErrPromoExhausted

	_, _, err := svc.Redeem(context.Background(), repo, "RACE", 100)
	if !errors.Is(err, ErrPromoExhausted) {
		t.Errorf("Redeem() error = %v, want ErrPromoExhausted", err)
	}
}

func TestPromoServiceRedeemUnknownCode(t *testing.T) {
	repo := newStubRepository()
	svc := NewPromoService(repo, nil, testLogger(), nil)

	_, _, err := svc.Redeem(context.Background(), repo, "MISSING", 100)
	if !errors.Is(err, ErrPromoNotFound) {
		t.Errorf("Redeem() error = %v, want ErrPromoNotFound", err)
	}
}
