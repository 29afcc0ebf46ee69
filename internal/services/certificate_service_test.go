package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PPLKelompok1-2025/lms-service/internal/certificates"
	"github.com/PPLKelompok1-2025/lms-service/internal/events"
	"github.com/PPLKelompok1-2025/lms-service/internal/models"
)

type memoryArtifactStore struct {
	saved map[string][]byte
}

func (m *memoryArtifactStore) Save(_ context.Context, name string, data []byte) (string, error) {
	if m.saved == nil {
		m.saved = make(map[string][]byte)
	}
	m.saved[name] = data
	return "/artifacts/certificates/" + name, nil
}

func certificateFixture(t *testing.T) (*stubRepository, *events.MockPublisher, CertificateService) {
	t.Helper()

	repo := newStubRepository()
	repo.users.byID["student-1"] = &models.User{ID: "student-1", FullName: "Ayu Lestari", Email: "s1@test.dev", Role: models.RoleStudent}
	repo.users.byID["teacher-1"] = &models.User{ID: "teacher-1", FullName: "Budi Santoso", Email: "t1@test.dev", Role: models.RoleInstructor}
	repo.courses.byID[1] = &models.Course{
		ID:          1,
		UserID:      "teacher-1",
		Title:       "Introduction to Go",
		IsPublished: true,
		IsApproved:  true,
	}

	completed := time.Now().Add(-time.Hour)
	repo.enrollments.byID[1] = &models.Enrollment{
		ID:          1,
		CourseID:    1,
		UserID:      "student-1",
		Progress:    100,
		CompletedAt: &completed,
	}
	repo.enrollments.nextID = 1

	generator := certificates.NewGenerator(certificates.NewRenderer(""), &memoryArtifactStore{}, testLogger())
	publisher := events.NewMockPublisher()
	svc := NewCertificateService(repo, nil, testLogger(), generator, nil, publisher)
	return repo, publisher, svc
}

func TestCertificateServiceIssueForEnrollment(t *testing.T) {
	repo, publisher, svc := certificateFixture(t)

	cert, err := svc.IssueForEnrollment(context.Background(), 1)
	if err != nil {
		t.Fatalf("IssueForEnrollment() error = %v", err)
	}
	if !strings.HasPrefix(cert.CertificateNumber, "LMS-1-") {
		t.Errorf("certificate number = %q, want LMS-1- prefix", cert.CertificateNumber)
	}
	if cert.FilePath == nil {
		t.Fatal("artifact not rendered for a completed enrollment")
	}

	published := publisher.Published()
	if len(published) != 1 {
		t.Fatalf("published %d events, want 1", len(published))
	}
	if published[0].Type != events.TypeCertificateGenerated {
		t.Errorf("event type = %q, want %q", published[0].Type, events.TypeCertificateGenerated)
	}

	// Issuing again returns the same certificate and does not publish again.
	again, err := svc.IssueForEnrollment(context.Background(), 1)
	if err != nil {
		t.Fatalf("second IssueForEnrollment() error = %v", err)
	}
	if again.CertificateNumber != cert.CertificateNumber {
		t.Errorf("second issuance number = %q, want %q", again.CertificateNumber, cert.CertificateNumber)
	}
	if len(publisher.Published()) != 1 {
		t.Errorf("published %d events after reissue, want 1", len(publisher.Published()))
	}
	if len(repo.certificates.byEnrollment) != 1 {
		t.Errorf("certificate rows = %d, want 1", len(repo.certificates.byEnrollment))
	}
}

func TestCertificateServiceIssueRequiresCompletion(t *testing.T) {
	repo, _, svc := certificateFixture(t)
	repo.enrollments.byID[1].CompletedAt = nil

	if _, err := svc.IssueForEnrollment(context.Background(), 1); !errors.Is(err, ErrCourseNotCompleted) {
		t.Errorf("IssueForEnrollment() error = %v, want ErrCourseNotCompleted", err)
	}
	if _, err := svc.IssueForEnrollment(context.Background(), 99); !errors.Is(err, ErrEnrollmentNotFound) {
		t.Errorf("IssueForEnrollment() error = %v, want ErrEnrollmentNotFound", err)
	}
}

func TestCertificateServiceGetByNumber(t *testing.T) {
	_, _, svc := certificateFixture(t)

	cert, err := svc.IssueForEnrollment(context.Background(), 1)
	if err != nil {
		t.Fatalf("IssueForEnrollment() error = %v", err)
	}

	// Verification is public; no caller identity involved.
	resp, err := svc.GetByNumber(context.Background(), cert.CertificateNumber)
	if err != nil {
		t.Fatalf("GetByNumber() error = %v", err)
	}
	if !resp.Ready {
		t.Error("verified certificate not marked ready")
	}

	if _, err := svc.GetByNumber(context.Background(), "LMS-0-FORGED"); !errors.Is(err, ErrCertificateNotFound) {
		t.Errorf("GetByNumber() on unknown number error = %v, want ErrCertificateNotFound", err)
	}
}

func TestCertificateServiceGetByIDAccess(t *testing.T) {
	repo, _, svc := certificateFixture(t)
	repo.users.byID["admin-1"] = &models.User{ID: "admin-1", Email: "a1@test.dev", Role: models.RoleAdmin}
	repo.users.byID["student-2"] = &models.User{ID: "student-2", Email: "s2@test.dev", Role: models.RoleStudent}

	cert, err := svc.IssueForEnrollment(context.Background(), 1)
	if err != nil {
		t.Fatalf("IssueForEnrollment() error = %v", err)
	}

	if _, err := svc.GetByID(context.Background(), cert.ID, "student-1"); err != nil {
		t.Errorf("GetByID() by holder error = %v", err)
	}
	if _, err := svc.GetByID(context.Background(), cert.ID, "admin-1"); err != nil {
		t.Errorf("GetByID() by admin error = %v", err)
	}
	if _, err := svc.GetByID(context.Background(), cert.ID, "student-2"); !IsPermissionError(err) {
		t.Errorf("GetByID() by stranger error = %v, want permission error", err)
	}
}

func TestCertificateServiceProcessPending(t *testing.T) {
	repo, publisher, svc := certificateFixture(t)

	// A row whose artifact generation never ran, as left behind by a crash
	// between insert and render.
	repo.certificates.byEnrollment[1] = &models.Certificate{
		ID:                1,
		EnrollmentID:      1,
		CertificateNumber: "LMS-1-PENDING123",
		IssuedAt:          time.Now(),
	}

	done, err := svc.ProcessPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("ProcessPending() error = %v", err)
	}
	if done != 1 {
		t.Errorf("ProcessPending() = %d, want 1", done)
	}
	if repo.certificates.byEnrollment[1].FilePath == nil {
		t.Error("pending certificate still has no artifact")
	}
	if len(publisher.Published()) != 1 {
		t.Errorf("published %d events, want 1", len(publisher.Published()))
	}

	// Nothing left to do on the next sweep.
	done, err = svc.ProcessPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("second ProcessPending() error = %v", err)
	}
	if done != 0 {
		t.Errorf("second ProcessPending() = %d, want 0", done)
	}
}
