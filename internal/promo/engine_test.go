package promo

import (
	"testing"
	"time"

	"github.com/PPLKelompok1-2025/lms-service/internal/models"
)

func intPtr(n int) *int              { return &n }
func timePtr(t time.Time) *time.Time { return &t }

func activeCode(mutate func(*models.PromoCode)) *models.PromoCode {
	code := &models.PromoCode{
		Code:          "WELCOME20",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: 20,
		IsActive:      true,
	}
	if mutate != nil {
		mutate(code)
	}
	return code
}

func TestIsValid(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		code      *models.PromoCode
		cartValue float64
		want      bool
	}{
		{name: "active code with no constraints", code: activeCode(nil), cartValue: 10, want: true},
		{name: "inactive overrides everything", code: activeCode(func(c *models.PromoCode) {
			c.IsActive = false
		}), cartValue: 1000, want: false},
		{name: "before start date", code: activeCode(func(c *models.PromoCode) {
			c.StartDate = timePtr(now.Add(time.Minute))
		}), cartValue: 10, want: false},
		{name: "valid exactly at start date", code: activeCode(func(c *models.PromoCode) {
			c.StartDate = timePtr(now)
		}), cartValue: 10, want: true},
		{name: "valid through end date inclusive", code: activeCode(func(c *models.PromoCode) {
			c.EndDate = timePtr(now)
		}), cartValue: 10, want: true},
		{name: "after end date", code: activeCode(func(c *models.PromoCode) {
			c.EndDate = timePtr(now.Add(-time.Second))
		}), cartValue: 10, want: false},
		{name: "usage cap exhausted", code: activeCode(func(c *models.PromoCode) {
			c.MaxUses = intPtr(10)
			c.UsedCount = 10
		}), cartValue: 10, want: false},
		{name: "usage cap with room left", code: activeCode(func(c *models.PromoCode) {
			c.MaxUses = intPtr(10)
			c.UsedCount = 9
		}), cartValue: 10, want: true},
		{name: "cart below minimum", code: activeCode(func(c *models.PromoCode) {
			c.MinCartValue = 50
		}), cartValue: 49.99, want: false},
		{name: "cart exactly at minimum", code: activeCode(func(c *models.PromoCode) {
			c.MinCartValue = 50
		}), cartValue: 50, want: true},
		{name: "zero minimum means no floor", code: activeCode(nil), cartValue: 0, want: true},
		{name: "nil code", code: nil, cartValue: 10, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValid(tt.code, tt.cartValue, now); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCalculateDiscount(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		code   *models.PromoCode
		amount float64
		want   float64
	}{
		{name: "20 percent of 100", code: activeCode(nil), amount: 100, want: 20.00},
		{name: "percentage rounds half-up", code: activeCode(func(c *models.PromoCode) {
			c.DiscountValue = 15
		}), amount: 33.33, want: 5.00}, // 4.9995 rounds up
		{name: "fixed clamped to amount", code: activeCode(func(c *models.PromoCode) {
			c.DiscountType = models.DiscountFixed
			c.DiscountValue = 50
		}), amount: 30, want: 30},
		{name: "fixed below amount applies fully", code: activeCode(func(c *models.PromoCode) {
			c.DiscountType = models.DiscountFixed
			c.DiscountValue = 50
		}), amount: 80, want: 50},
		{name: "invalid code yields zero", code: activeCode(func(c *models.PromoCode) {
			c.IsActive = false
		}), amount: 100, want: 0},
		{name: "amount below min cart yields zero", code: activeCode(func(c *models.PromoCode) {
			c.MinCartValue = 200
		}), amount: 100, want: 0},
		{name: "unknown discount type yields zero", code: activeCode(func(c *models.PromoCode) {
			c.DiscountType = models.DiscountType("bogus")
		}), amount: 100, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateDiscount(tt.code, tt.amount, now); got != tt.want {
				t.Errorf("CalculateDiscount() = %v, want %v", got, tt.want)
			}
		})
	}
}
