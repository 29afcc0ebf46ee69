package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/PPLKelompok1-2025/lms-service/internal/models"
)

// PromoCodeRepository interface for promo code operations
type PromoCodeRepository interface {
	Create(ctx context.Context, tx *gorm.DB, code *models.PromoCode) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.PromoCode, error)
	GetByCode(ctx context.Context, tx *gorm.DB, code string) (*models.PromoCode, error)

	// GetByCodeLocked reads the row uncached and takes a row lock, for
	// redemption paths running inside a transaction.
	GetByCodeLocked(ctx context.Context, tx *gorm.DB, code string) (*models.PromoCode, error)
	Update(ctx context.Context, tx *gorm.DB, code *models.PromoCode) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	List(ctx context.Context, tx *gorm.DB, filters PromoCodeFilters) ([]*models.PromoCode, int64, error)
	SetActive(ctx context.Context, tx *gorm.DB, id uint, active bool) error

	// IncrementUsage bumps used_count in a single conditional statement so
	// concurrent redemptions cannot push the counter past max_uses. Returns
	// ErrPromoExhausted when the cap is already reached.
	IncrementUsage(ctx context.Context, tx *gorm.DB, id uint) error

	GetStats(ctx context.Context, tx *gorm.DB, id uint) (*PromoCodeStats, error)
	ExistsByCode(ctx context.Context, tx *gorm.DB, code string, excludeID *uint) (bool, error)
}

// TransactionRepository interface for payment transaction operations
type TransactionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, transaction *models.Transaction) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Transaction, error)
	Update(ctx context.Context, tx *gorm.DB, transaction *models.Transaction) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.TransactionStatus) error

	List(ctx context.Context, tx *gorm.DB, filters TransactionFilters) ([]*models.Transaction, int64, error)
	GetByUser(ctx context.Context, tx *gorm.DB, userID string, filters TransactionFilters) ([]*models.Transaction, int64, error)

	HasPurchased(ctx context.Context, tx *gorm.DB, userID string, courseID uint) (bool, error)
	GetInstructorEarnings(ctx context.Context, tx *gorm.DB, instructorID string, from, to *time.Time) ([]*EarningsRow, error)
	SumDiscountByPromo(ctx context.Context, tx *gorm.DB, promoCodeID uint) (float64, int, error)
}

// DonationRepository interface for course donation operations
type DonationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, donation *models.Donation) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Donation, error)
	GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint, limit, offset int) ([]*models.Donation, int64, error)
	SumByCourse(ctx context.Context, tx *gorm.DB, courseID uint) (float64, error)
}

// CertificateRepository interface for certificate records
type CertificateRepository interface {
	Create(ctx context.Context, tx *gorm.DB, certificate *models.Certificate) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Certificate, error)
	GetByNumber(ctx context.Context, tx *gorm.DB, number string) (*models.Certificate, error)
	GetByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID uint) (*models.Certificate, error)
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Certificate, error) // Preloads enrollment, student, course, instructor
	Update(ctx context.Context, tx *gorm.DB, certificate *models.Certificate) error

	GetByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.Certificate, error)
	ListPendingArtifacts(ctx context.Context, tx *gorm.DB, limit int) ([]*models.Certificate, error)
}
