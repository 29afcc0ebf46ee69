// Package promo evaluates promotional code validity and computes discounts.
// All functions are pure: the evaluation time is an explicit parameter and
// nothing here touches storage. Usage counting lives in the promo code
// repository, which performs the increment as a single conditional update.
package promo

import (
	"math"
	"time"

	"github.com/PPLKelompok1-2025/lms-service/internal/models"
)

// IsValid reports whether the code can be applied to a cart of the given
// value at the given time.
//
// The validity window is inclusive on both ends: the code becomes valid
// exactly at StartDate and stays valid through EndDate.
func IsValid(code *models.PromoCode, cartValue float64, now time.Time) bool {
	if code == nil || !code.IsActive {
		return false
	}
	if code.StartDate != nil && now.Before(*code.StartDate) {
		return false
	}
	if code.EndDate != nil && now.After(*code.EndDate) {
		return false
	}
	if code.MaxUses != nil && code.UsedCount >= *code.MaxUses {
		return false
	}
	if code.MinCartValue > 0 && cartValue < code.MinCartValue {
		return false
	}
	return true
}

// CalculateDiscount returns the discount the code grants on the given
// amount, re-checking validity with the amount itself serving as the cart
// value. Percentage discounts are rounded half-up to two decimals; fixed
// discounts are clamped to the amount so the total can never go negative.
func CalculateDiscount(code *models.PromoCode, amount float64, now time.Time) float64 {
	if !IsValid(code, amount, now) {
		return 0
	}

	switch code.DiscountType {
	case models.DiscountPercentage:
		return roundHalfUp(amount * code.DiscountValue / 100)
	case models.DiscountFixed:
		return math.Min(code.DiscountValue, amount)
	}

	// Unreachable with the enumerated discount types; deny the discount
	// rather than guess.
	return 0
}

// roundHalfUp rounds to two decimal places, ties away from zero.
func roundHalfUp(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
