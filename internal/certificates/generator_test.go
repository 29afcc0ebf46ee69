package certificates

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/PPLKelompok1-2025/lms-service/internal/models"
)

func testCertificate() *models.Certificate {
	return &models.Certificate{
		ID:                1,
		EnrollmentID:      1,
		CertificateNumber: "LMS-1-ABCDEF1234",
		IssuedAt:          time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC),
		Enrollment: models.Enrollment{
			ID:       1,
			CourseID: 1,
			UserID:   "stud-1",
			Student:  models.User{ID: "stud-1", FullName: "Ayu Lestari"},
			Course: models.Course{
				ID:         1,
				Title:      "Introduction to Go",
				Instructor: models.User{ID: "instr-1", FullName: "Budi Santoso"},
			},
		},
	}
}

type memoryStore struct {
	saved map[string][]byte
	err   error
}

func (m *memoryStore) Save(_ context.Context, name string, data []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if m.saved == nil {
		m.saved = make(map[string][]byte)
	}
	m.saved[name] = data
	return "/artifacts/certificates/" + name, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGenerator_Generate(t *testing.T) {
	store := &memoryStore{}
	gen := NewGenerator(NewRenderer(""), store, discardLogger())
	cert := testCertificate()

	if ok := gen.Generate(context.Background(), cert); !ok {
		t.Fatal("Generate() = false, want true")
	}
	if cert.FilePath == nil {
		t.Fatal("FilePath not set after successful generation")
	}
	if !strings.HasSuffix(*cert.FilePath, cert.CertificateNumber+".png") {
		t.Errorf("artifact path %q not keyed by certificate number", *cert.FilePath)
	}

	artifact := store.saved[cert.CertificateNumber+".png"]
	if !bytes.HasPrefix(artifact, []byte("\x89PNG")) {
		t.Error("stored artifact is not a PNG")
	}
}

func TestGenerator_StorageFailureLeavesPathNull(t *testing.T) {
	store := &memoryStore{err: fmt.Errorf("disk full")}
	gen := NewGenerator(NewRenderer(""), store, discardLogger())
	cert := testCertificate()

	if ok := gen.Generate(context.Background(), cert); ok {
		t.Fatal("Generate() = true, want false on storage failure")
	}
	if cert.FilePath != nil {
		t.Error("FilePath must stay null after a failed generation")
	}
}

func TestGenerator_RenderFailureLeavesPathNull(t *testing.T) {
	store := &memoryStore{}
	gen := NewGenerator(NewRenderer(""), store, discardLogger())
	cert := testCertificate()
	cert.Enrollment.Student.FullName = "" // incomplete render data

	if ok := gen.Generate(context.Background(), cert); ok {
		t.Fatal("Generate() = true, want false on render failure")
	}
	if cert.FilePath != nil {
		t.Error("FilePath must stay null after a failed generation")
	}
	if len(store.saved) != 0 {
		t.Error("nothing should be stored when rendering fails")
	}
}

func TestGenerator_RegenerationOverwritesSameKey(t *testing.T) {
	store := &memoryStore{}
	gen := NewGenerator(NewRenderer(""), store, discardLogger())
	cert := testCertificate()

	if ok := gen.Generate(context.Background(), cert); !ok {
		t.Fatal("first Generate() failed")
	}
	first := *cert.FilePath

	if ok := gen.Generate(context.Background(), cert); !ok {
		t.Fatal("second Generate() failed")
	}
	if *cert.FilePath != first {
		t.Errorf("regeneration moved the artifact: %q then %q", first, *cert.FilePath)
	}
	if len(store.saved) != 1 {
		t.Errorf("expected a single stored artifact, got %d", len(store.saved))
	}
}

func TestNewCertificateNumber(t *testing.T) {
	first := NewCertificateNumber(42)
	second := NewCertificateNumber(42)

	if !strings.HasPrefix(first, "LMS-42-") {
		t.Errorf("unexpected format: %q", first)
	}
	if first == second {
		t.Error("certificate numbers must be unique per call")
	}
}
