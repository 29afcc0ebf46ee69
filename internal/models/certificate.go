package models

import (
	"time"
)

type Certificate struct {
	ID           uint `json:"id" gorm:"primaryKey"`
	EnrollmentID uint `json:"enrollment_id" gorm:"not null;uniqueIndex"`

	CertificateNumber string    `json:"certificate_number" gorm:"uniqueIndex;not null;size:64"`
	IssuedAt          time.Time `json:"issued_at" gorm:"not null"`

	// FilePath transitions once from null to the stored artifact path when
	// generation succeeds. A failed generation leaves it null so the job can
	// be retried.
	FilePath *string `json:"file_path" gorm:"size:500"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Enrollment Enrollment `json:"enrollment" gorm:"foreignKey:EnrollmentID"`
}

func (Certificate) TableName() string {
	return "certificates"
}
