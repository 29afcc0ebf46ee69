package certificates

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/PPLKelompok1-2025/lms-service/internal/models"
)

// NewCertificateNumber produces a unique, human-quotable certificate number.
func NewCertificateNumber(enrollmentID uint) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:10]
	return fmt.Sprintf("LMS-%d-%s", enrollmentID, suffix)
}

// Generator renders a certificate and stores the artifact. It does not talk
// to the database; persisting the resulting path is the caller's job.
type Generator struct {
	renderer *Renderer
	store    ArtifactStore
	logger   *slog.Logger
}

func NewGenerator(renderer *Renderer, store ArtifactStore, logger *slog.Logger) *Generator {
	return &Generator{
		renderer: renderer,
		store:    store,
		logger:   logger,
	}
}

// Generate renders the certificate artifact and, on success, sets
// cert.FilePath to the stored location. Failures are logged and reported as
// false, never raised: the path stays null so the job can simply run again.
// The certificate must arrive with its enrollment chain preloaded (student,
// course, course instructor).
func (g *Generator) Generate(ctx context.Context, cert *models.Certificate) bool {
	data := Data{
		RecipientName:     cert.Enrollment.Student.FullName,
		CourseTitle:       cert.Enrollment.Course.Title,
		InstructorName:    cert.Enrollment.Course.Instructor.FullName,
		CertificateNumber: cert.CertificateNumber,
		IssuedAt:          cert.IssuedAt,
	}

	artifact, err := g.renderer.Render(data)
	if err != nil {
		g.logger.Error("Certificate rendering failed",
			"certificate_number", cert.CertificateNumber,
			"error", err)
		return false
	}

	// Artifact name is keyed by certificate number; regeneration overwrites
	// the same key.
	path, err := g.store.Save(ctx, cert.CertificateNumber+".png", artifact)
	if err != nil {
		g.logger.Error("Certificate artifact storage failed",
			"certificate_number", cert.CertificateNumber,
			"error", err)
		return false
	}

	cert.FilePath = &path
	return true
}
