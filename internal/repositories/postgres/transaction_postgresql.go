package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/PPLKelompok1-2025/lms-service/internal/models"
	"github.com/PPLKelompok1-2025/lms-service/internal/repositories"
)

type TransactionPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewTransactionPostgreSQL(db *gorm.DB) repositories.TransactionRepository {
	return &TransactionPostgreSQL{db: db, helpers: NewSharedHelpers(db)}
}

func (t *TransactionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return t.db
}

func (t *TransactionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, transaction *models.Transaction) error {
	if err := t.getDB(tx).WithContext(ctx).Create(transaction).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (t *TransactionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Transaction, error) {
	var transaction models.Transaction
	err := t.getDB(tx).WithContext(ctx).First(&transaction, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &transaction, nil
}

func (t *TransactionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, transaction *models.Transaction) error {
	err := t.getDB(tx).WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ?", transaction.ID).
		Updates(map[string]interface{}{
			"status":            transaction.Status,
			"instructor_amount": transaction.InstructorAmount,
			"discount_amount":   transaction.DiscountAmount,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

func (t *TransactionPostgreSQL) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.TransactionStatus) error {
	result := t.getDB(tx).WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update transaction status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (t *TransactionPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.TransactionFilters) ([]*models.Transaction, int64, error) {
	query := t.getDB(tx).WithContext(ctx).Model(&models.Transaction{})
	query = t.helpers.ApplyTransactionFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	query = t.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var transactions []*models.Transaction
	if err := query.Find(&transactions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, total, nil
}

func (t *TransactionPostgreSQL) GetByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.TransactionFilters) ([]*models.Transaction, int64, error) {
	filters.UserID = &userID
	return t.List(ctx, tx, filters)
}

// HasPurchased reports whether the user has a completed purchase for the course
func (t *TransactionPostgreSQL) HasPurchased(ctx context.Context, tx *gorm.DB, userID string, courseID uint) (bool, error) {
	var count int64
	err := t.getDB(tx).WithContext(ctx).
		Model(&models.Transaction{}).
		Where("user_id = ? AND course_id = ? AND status = ?", userID, courseID, models.TransactionCompleted).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check purchase: %w", err)
	}
	return count > 0, nil
}

// GetInstructorEarnings groups completed sales of the instructor's courses
// by course for reporting.
func (t *TransactionPostgreSQL) GetInstructorEarnings(ctx context.Context, tx *gorm.DB, instructorID string, from, to *time.Time) ([]*repositories.EarningsRow, error) {
	query := t.getDB(tx).WithContext(ctx).
		Model(&models.Transaction{}).
		Select("courses.id AS course_id, courses.title AS course_title, COUNT(transactions.id) AS sales, SUM(transactions.amount) AS gross_amount, SUM(transactions.instructor_amount) AS instructor_amount").
		Joins("JOIN courses ON courses.id = transactions.course_id").
		Where("courses.user_id = ? AND transactions.status = ?", instructorID, models.TransactionCompleted)

	if from != nil {
		query = query.Where("transactions.created_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("transactions.created_at <= ?", *to)
	}

	var rows []*repositories.EarningsRow
	err := query.Group("courses.id, courses.title").
		Order("instructor_amount DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute instructor earnings: %w", err)
	}
	return rows, nil
}

func (t *TransactionPostgreSQL) SumDiscountByPromo(ctx context.Context, tx *gorm.DB, promoCodeID uint) (float64, int, error) {
	var sum *float64
	var count int64

	query := t.getDB(tx).WithContext(ctx).
		Model(&models.Transaction{}).
		Where("promo_code_id = ? AND status = ?", promoCodeID, models.TransactionCompleted)

	if err := query.Count(&count).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count promo transactions: %w", err)
	}
	if err := query.Select("SUM(discount_amount)").Scan(&sum).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to sum promo discounts: %w", err)
	}

	total := 0.0
	if sum != nil {
		total = *sum
	}
	return total, int(count), nil
}

// ===== Donations =====

type DonationPostgreSQL struct {
	db *gorm.DB
}

func NewDonationPostgreSQL(db *gorm.DB) repositories.DonationRepository {
	return &DonationPostgreSQL{db: db}
}

func (d *DonationPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return d.db
}

func (d *DonationPostgreSQL) Create(ctx context.Context, tx *gorm.DB, donation *models.Donation) error {
	if err := d.getDB(tx).WithContext(ctx).Create(donation).Error; err != nil {
		return fmt.Errorf("failed to create donation: %w", err)
	}
	return nil
}

func (d *DonationPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Donation, error) {
	var donation models.Donation
	err := d.getDB(tx).WithContext(ctx).First(&donation, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get donation: %w", err)
	}
	return &donation, nil
}

func (d *DonationPostgreSQL) GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint, limit, offset int) ([]*models.Donation, int64, error) {
	query := d.getDB(tx).WithContext(ctx).
		Model(&models.Donation{}).
		Where("course_id = ?", courseID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count donations: %w", err)
	}

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var donations []*models.Donation
	if err := query.Order("created_at DESC").Find(&donations).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list donations: %w", err)
	}
	return donations, total, nil
}

func (d *DonationPostgreSQL) SumByCourse(ctx context.Context, tx *gorm.DB, courseID uint) (float64, error) {
	var sum *float64
	err := d.getDB(tx).WithContext(ctx).
		Model(&models.Donation{}).
		Select("SUM(amount)").
		Where("course_id = ?", courseID).
		Scan(&sum).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum donations: %w", err)
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}
