package models

import (
	"time"

	"gorm.io/gorm"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type PromoCode struct {
	ID            uint         `json:"id" gorm:"primaryKey"`
	Code          string       `json:"code" gorm:"uniqueIndex;not null;size:50" validate:"required,min=3,max=50"`
	DiscountType  DiscountType `json:"discount_type" gorm:"not null;size:20" validate:"required,oneof=percentage fixed"`
	DiscountValue float64      `json:"discount_value" gorm:"not null" validate:"required,gt=0"`

	// Validity window. Both bounds are optional and inclusive: the code becomes
	// valid exactly at StartDate and stays valid through EndDate.
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`

	// Usage cap. UsedCount never exceeds MaxUses when MaxUses is set; the
	// repository enforces this with a conditional increment.
	MaxUses   *int `json:"max_uses" validate:"omitempty,min=1"`
	UsedCount int  `json:"used_count" gorm:"not null;default:0"`

	MinCartValue float64 `json:"min_cart_value" gorm:"not null;default:0" validate:"min=0"`
	IsActive     bool    `json:"is_active" gorm:"not null;default:true;index"`

	CreatedBy string         `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (PromoCode) TableName() string {
	return "promo_codes"
}
