package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/PPLKelompok1-2025/lms-service/internal/models"
	"github.com/PPLKelompok1-2025/lms-service/internal/repositories"
)

type CertificatePostgreSQL struct {
	db *gorm.DB
}

func NewCertificatePostgreSQL(db *gorm.DB) repositories.CertificateRepository {
	return &CertificatePostgreSQL{db: db}
}

func (c *CertificatePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}

func (c *CertificatePostgreSQL) Create(ctx context.Context, tx *gorm.DB, certificate *models.Certificate) error {
	if err := c.getDB(tx).WithContext(ctx).Create(certificate).Error; err != nil {
		return fmt.Errorf("failed to create certificate: %w", err)
	}
	return nil
}

func (c *CertificatePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Certificate, error) {
	var certificate models.Certificate
	err := c.getDB(tx).WithContext(ctx).First(&certificate, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get certificate: %w", err)
	}
	return &certificate, nil
}

func (c *CertificatePostgreSQL) GetByNumber(ctx context.Context, tx *gorm.DB, number string) (*models.Certificate, error) {
	var certificate models.Certificate
	err := c.getDB(tx).WithContext(ctx).
		Where("certificate_number = ?", number).
		First(&certificate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get certificate by number: %w", err)
	}
	return &certificate, nil
}

func (c *CertificatePostgreSQL) GetByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID uint) (*models.Certificate, error) {
	var certificate models.Certificate
	err := c.getDB(tx).WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		First(&certificate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get certificate by enrollment: %w", err)
	}
	return &certificate, nil
}

// GetByIDWithDetails preloads everything the renderer needs in one query
func (c *CertificatePostgreSQL) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Certificate, error) {
	var certificate models.Certificate
	err := c.getDB(tx).WithContext(ctx).
		Preload("Enrollment").
		Preload("Enrollment.Student").
		Preload("Enrollment.Course").
		Preload("Enrollment.Course.Instructor").
		First(&certificate, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get certificate details: %w", err)
	}
	return &certificate, nil
}

func (c *CertificatePostgreSQL) Update(ctx context.Context, tx *gorm.DB, certificate *models.Certificate) error {
	err := c.getDB(tx).WithContext(ctx).
		Model(&models.Certificate{}).
		Where("id = ?", certificate.ID).
		Update("file_path", certificate.FilePath).Error
	if err != nil {
		return fmt.Errorf("failed to update certificate: %w", err)
	}
	return nil
}

func (c *CertificatePostgreSQL) GetByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.Certificate, error) {
	var certificates []*models.Certificate
	err := c.getDB(tx).WithContext(ctx).
		Joins("JOIN enrollments ON enrollments.id = certificates.enrollment_id").
		Where("enrollments.user_id = ?", userID).
		Preload("Enrollment").
		Preload("Enrollment.Course").
		Order("certificates.issued_at DESC").
		Find(&certificates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list user certificates: %w", err)
	}
	return certificates, nil
}

// ListPendingArtifacts returns records whose PNG render has not succeeded
// yet. The worker retries them in issue order.
func (c *CertificatePostgreSQL) ListPendingArtifacts(ctx context.Context, tx *gorm.DB, limit int) ([]*models.Certificate, error) {
	query := c.getDB(tx).WithContext(ctx).
		Where("file_path IS NULL").
		Preload("Enrollment").
		Preload("Enrollment.Student").
		Preload("Enrollment.Course").
		Preload("Enrollment.Course.Instructor").
		Order("issued_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var certificates []*models.Certificate
	if err := query.Find(&certificates).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending certificates: %w", err)
	}
	return certificates, nil
}
