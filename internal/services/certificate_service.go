package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/PPLKelompok1-2025/lms-service/internal/authz"
	"github.com/PPLKelompok1-2025/lms-service/internal/certificates"
	"github.com/PPLKelompok1-2025/lms-service/internal/events"
	"github.com/PPLKelompok1-2025/lms-service/internal/models"
	"github.com/PPLKelompok1-2025/lms-service/internal/repositories"
)

type certificateService struct {
	repo       repositories.Repository
	db         *gorm.DB
	logger     *slog.Logger
	generator  *certificates.Generator
	subscriber events.Subscriber
	publisher  events.Publisher
}

func NewCertificateService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, generator *certificates.Generator, subscriber events.Subscriber, publisher events.Publisher) CertificateService {
	return &certificateService{
		repo:       repo,
		db:         db,
		logger:     logger,
		generator:  generator,
		subscriber: subscriber,
		publisher:  publisher,
	}
}

// ===== QUERIES =====

func (s *certificateService) GetByID(ctx context.Context, id uint, userID string) (*CertificateResponse, error) {
	cert, err := s.repo.Certificate().GetByIDWithDetails(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCertificateNotFound
		}
		return nil, fmt.Errorf("failed to get certificate: %w", err)
	}

	if cert.Enrollment.UserID != userID {
		actor, err := loadActor(ctx, s.repo, userID)
		if err != nil {
			return nil, err
		}
		if actor == nil || actor.Role != authz.RoleAdmin {
			return nil, NewPermissionError(userID, id, "certificate", "view", "not the certificate holder")
		}
	}

	return buildCertificateResponse(cert), nil
}

// GetByNumber is the public verification entry point: anyone holding a
// certificate number can confirm it is genuine.
func (s *certificateService) GetByNumber(ctx context.Context, number string) (*CertificateResponse, error) {
	cert, err := s.repo.Certificate().GetByNumber(ctx, nil, number)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCertificateNotFound
		}
		return nil, fmt.Errorf("failed to get certificate: %w", err)
	}
	return buildCertificateResponse(cert), nil
}

func (s *certificateService) GetMyCertificates(ctx context.Context, userID string) ([]*CertificateResponse, error) {
	certs, err := s.repo.Certificate().GetByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list certificates: %w", err)
	}

	responses := make([]*CertificateResponse, 0, len(certs))
	for _, cert := range certs {
		responses = append(responses, buildCertificateResponse(cert))
	}
	return responses, nil
}

// ===== ISSUANCE =====

// IssueForEnrollment makes sure a completed enrollment has a certificate row
// and a rendered artifact. Every step tolerates reruns, so at-least-once
// event delivery and the pending sweep can both call it freely.
func (s *certificateService) IssueForEnrollment(ctx context.Context, enrollmentID uint) (*models.Certificate, error) {
	enrollment, err := s.repo.Enrollment().GetByID(ctx, nil, enrollmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("failed to load enrollment: %w", err)
	}
	if enrollment.CompletedAt == nil {
		return nil, ErrCourseNotCompleted
	}

	cert, err := s.repo.Certificate().GetByEnrollment(ctx, nil, enrollmentID)
	if repositories.IsNotFoundError(err) {
		cert = &models.Certificate{
			EnrollmentID:      enrollmentID,
			CertificateNumber: certificates.NewCertificateNumber(enrollmentID),
			IssuedAt:          time.Now(),
		}
		if createErr := s.repo.Certificate().Create(ctx, nil, cert); createErr != nil {
			// A concurrent issuance may have just created the row.
			cert, err = s.repo.Certificate().GetByEnrollment(ctx, nil, enrollmentID)
			if err != nil {
				return nil, fmt.Errorf("failed to create certificate: %w", createErr)
			}
		} else {
			s.logger.Info("Certificate issued", "certificate_id", cert.ID, "enrollment_id", enrollmentID)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to look up certificate: %w", err)
	}

	if cert.FilePath == nil {
		if err := s.renderArtifact(ctx, cert.ID); err != nil {
			// The row exists; the artifact will be retried by the sweep.
			s.logger.Warn("Certificate artifact deferred", "certificate_id", cert.ID, "error", err)
		}
	}

	return s.repo.Certificate().GetByID(ctx, nil, cert.ID)
}

func (s *certificateService) Regenerate(ctx context.Context, id uint, userID string) (*CertificateResponse, error) {
	cert, err := s.repo.Certificate().GetByIDWithDetails(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCertificateNotFound
		}
		return nil, fmt.Errorf("failed to get certificate: %w", err)
	}

	if cert.Enrollment.UserID != userID {
		actor, err := loadActor(ctx, s.repo, userID)
		if err != nil {
			return nil, err
		}
		if actor == nil || actor.Role != authz.RoleAdmin {
			return nil, NewPermissionError(userID, id, "certificate", "regenerate", "not the certificate holder")
		}
	}

	if err := s.renderArtifact(ctx, id); err != nil {
		return nil, err
	}

	cert, err = s.repo.Certificate().GetByIDWithDetails(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload certificate: %w", err)
	}
	return buildCertificateResponse(cert), nil
}

// ProcessPending renders artifacts for certificates whose generation failed
// or never ran. Returns the number of certificates completed.
func (s *certificateService) ProcessPending(ctx context.Context, limit int) (int, error) {
	pending, err := s.repo.Certificate().ListPendingArtifacts(ctx, nil, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending certificates: %w", err)
	}

	done := 0
	for _, cert := range pending {
		if !s.generator.Generate(ctx, cert) {
			continue
		}
		if err := s.repo.Certificate().Update(ctx, nil, cert); err != nil {
			s.logger.Error("Failed to persist certificate artifact path", "certificate_id", cert.ID, "error", err)
			continue
		}
		s.announceGenerated(ctx, cert)
		done++
	}

	if len(pending) > 0 {
		s.logger.Info("Pending certificates processed", "pending", len(pending), "completed", done)
	}
	return done, nil
}

// Start consumes enrollment completion events and issues certificates until
// the context is cancelled.
func (s *certificateService) Start(ctx context.Context) error {
	if s.subscriber == nil {
		return errors.New("certificate worker requires a subscriber")
	}

	return s.subscriber.Subscribe(ctx, func(ctx context.Context, event *events.Event) error {
		if event.Type != events.TypeEnrollmentCompleted {
			return nil
		}

		var payload events.EnrollmentCompletedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			s.logger.Error("Malformed completion event", "event_id", event.ID, "error", err)
			return nil
		}

		if _, err := s.IssueForEnrollment(ctx, payload.EnrollmentID); err != nil {
			// Not-found and not-completed are terminal; everything else is
			// retried through redelivery.
			if errors.Is(err, ErrEnrollmentNotFound) || errors.Is(err, ErrCourseNotCompleted) {
				s.logger.Warn("Dropping completion event", "event_id", event.ID, "error", err)
				return nil
			}
			return err
		}
		return nil
	})
}

func (s *certificateService) renderArtifact(ctx context.Context, certificateID uint) error {
	cert, err := s.repo.Certificate().GetByIDWithDetails(ctx, nil, certificateID)
	if err != nil {
		return fmt.Errorf("failed to load certificate chain: %w", err)
	}
	if !s.generator.Generate(ctx, cert) {
		return fmt.Errorf("certificate %d artifact generation failed", certificateID)
	}
	if err := s.repo.Certificate().Update(ctx, nil, cert); err != nil {
		return fmt.Errorf("failed to persist artifact path: %w", err)
	}
	s.announceGenerated(ctx, cert)
	return nil
}

func (s *certificateService) announceGenerated(ctx context.Context, cert *models.Certificate) {
	if s.publisher == nil || cert.FilePath == nil {
		return
	}
	event, err := events.NewEvent(events.TypeCertificateGenerated, events.CertificateGeneratedPayload{
		CertificateID:     cert.ID,
		CertificateNumber: cert.CertificateNumber,
		FilePath:          *cert.FilePath,
	})
	if err != nil {
		s.logger.Error("Failed to build certificate event", "certificate_id", cert.ID, "error", err)
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish certificate event", "certificate_id", cert.ID, "error", err)
	}
}

func buildCertificateResponse(cert *models.Certificate) *CertificateResponse {
	return &CertificateResponse{
		Certificate: cert,
		Ready:       cert.FilePath != nil,
	}
}
