package models

import (
	"time"
)

type TransactionStatus string

const (
	TransactionCompleted TransactionStatus = "completed"
	TransactionPending   TransactionStatus = "pending"
	TransactionFailed    TransactionStatus = "failed"
	TransactionRefunded  TransactionStatus = "refunded"
)

type TransactionType string

const (
	TypePurchase TransactionType = "purchase"
	TypeRefund   TransactionType = "refund"
	TypePayout   TransactionType = "payout"
)

type Transaction struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"not null;index;size:255"`

	Amount           float64 `json:"amount" gorm:"not null" validate:"min=0"`
	InstructorAmount float64 `json:"instructor_amount" gorm:"not null;default:0"`

	Status TransactionStatus `json:"status" gorm:"not null;default:pending;size:20;index" validate:"omitempty,oneof=completed pending failed refunded"`

	// CourseID is absent for payouts and donations without a course.
	CourseID *uint `json:"course_id" gorm:"index"`

	// Type is optional; older rows were written without it and their type is
	// derived on read (see payments.TypeOf).
	Type *TransactionType `json:"type" gorm:"size:20"`

	// Promo application
	PromoCodeID    *uint   `json:"promo_code_id"`
	DiscountAmount float64 `json:"discount_amount" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User      User       `json:"user" gorm:"foreignKey:UserID"`
	Course    *Course    `json:"course" gorm:"foreignKey:CourseID"`
	PromoCode *PromoCode `json:"promo_code" gorm:"foreignKey:PromoCodeID"`
}

type Donation struct {
	ID       uint    `json:"id" gorm:"primaryKey"`
	CourseID uint    `json:"course_id" gorm:"not null;index"`
	DonorID  string  `json:"donor_id" gorm:"not null;index;size:255"`
	Amount   float64 `json:"amount" gorm:"not null" validate:"required,gt=0"`
	Message  *string `json:"message" gorm:"type:text" validate:"omitempty,max=500"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Course Course `json:"course" gorm:"foreignKey:CourseID"`
	Donor  User   `json:"donor" gorm:"foreignKey:DonorID"`
}

func (Transaction) TableName() string {
	return "transactions"
}

func (Donation) TableName() string {
	return "donations"
}
