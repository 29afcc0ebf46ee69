package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/PPLKelompok1-2025/lms-service/internal/models"
	"github.com/PPLKelompok1-2025/lms-service/internal/validator"
)

func lessonFixture(t *testing.T) (*stubRepository, LessonService) {
	t.Helper()

	repo := newStubRepository()
	repo.users.byID["student-1"] = &models.User{ID: "student-1", Email: "s1@test.dev", Role: models.RoleStudent}
	repo.users.byID["student-2"] = &models.User{ID: "student-2", Email: "s2@test.dev", Role: models.RoleStudent}
	repo.users.byID["teacher-1"] = &models.User{ID: "teacher-1", Email: "t1@test.dev", Role: models.RoleInstructor}
	repo.users.byID["teacher-2"] = &models.User{ID: "teacher-2", Email: "t2@test.dev", Role: models.RoleInstructor}

	repo.courses.byID[1] = &models.Course{
		ID:          1,
		UserID:      "teacher-1",
		Title:       "Go from Scratch",
		IsPublished: true,
		IsApproved:  true,
	}
	repo.courses.byID[2] = &models.Course{ID: 2, UserID: "teacher-1", Title: "Unreleased Draft"}

	repo.lessons.byID[1] = &models.Lesson{ID: 1, CourseID: 1, Title: "Hello, World", Order: 1}
	repo.lessons.byID[2] = &models.Lesson{ID: 2, CourseID: 1, Title: "Slices and Maps", Order: 2}
	repo.lessons.nextID = 2

	repo.enrollments.byID[1] = &models.Enrollment{ID: 1, CourseID: 1, UserID: "student-1"}

	svc := NewLessonService(repo, nil, testLogger(), validator.NewBusinessValidator())
	return repo, svc
}

func TestLessonServiceCreate(t *testing.T) {
	_, svc := lessonFixture(t)
	ctx := context.Background()

	lesson, err := svc.Create(ctx, &CreateLessonRequest{CourseID: 1, Title: "Goroutines", Order: 3}, "teacher-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if lesson.ID == 0 || lesson.CourseID != 1 {
		t.Errorf("unexpected lesson %+v", lesson)
	}

	if _, err := svc.Create(ctx, &CreateLessonRequest{CourseID: 1, Title: "Hijack"}, "teacher-2"); !IsPermissionError(err) {
		t.Errorf("non-owner create: got %v, want permission error", err)
	}

	var verrs validator.ValidationErrors
	if _, err := svc.Create(ctx, &CreateLessonRequest{CourseID: 1}, "teacher-1"); !errors.As(err, &verrs) {
		t.Errorf("missing title: got %v, want validation errors", err)
	}

	if _, err := svc.Create(ctx, &CreateLessonRequest{CourseID: 99, Title: "Orphan"}, "teacher-1"); !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("unknown course: got %v, want ErrCourseNotFound", err)
	}
}

func TestLessonServiceGetByID(t *testing.T) {
	_, svc := lessonFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		userID  string
		denied  bool
		wantErr error
	}{
		{name: "enrolled student", userID: "student-1"},
		{name: "owner", userID: "teacher-1"},
		{name: "unenrolled student denied", userID: "student-2", denied: true},
		{name: "guest denied", userID: "", denied: true},
		{name: "other instructor denied", userID: "teacher-2", denied: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lesson, err := svc.GetByID(ctx, 1, tt.userID)
			if tt.denied {
				if !IsPermissionError(err) {
					t.Errorf("got %v, want permission error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetByID: %v", err)
			}
			if lesson.Title != "Hello, World" {
				t.Errorf("title = %q", lesson.Title)
			}
		})
	}

	if _, err := svc.GetByID(ctx, 99, "teacher-1"); !errors.Is(err, ErrLessonNotFound) {
		t.Errorf("unknown lesson: got %v, want ErrLessonNotFound", err)
	}
}

func TestLessonServiceUpdate(t *testing.T) {
	repo, svc := lessonFixture(t)
	ctx := context.Background()

	title := "Hello, Gopher"
	lesson, err := svc.Update(ctx, 1, &UpdateLessonRequest{Title: &title}, "teacher-1")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if lesson.Title != title {
		t.Errorf("title = %q, want %q", lesson.Title, title)
	}
	if repo.lessons.byID[1].Title != title {
		t.Error("update not persisted")
	}

	if _, err := svc.Update(ctx, 1, &UpdateLessonRequest{Title: &title}, "teacher-2"); !IsPermissionError(err) {
		t.Errorf("non-owner update: got %v, want permission error", err)
	}
}

func TestLessonServiceDelete(t *testing.T) {
	repo, svc := lessonFixture(t)
	ctx := context.Background()

	if err := svc.Delete(ctx, 1, "student-1"); !IsPermissionError(err) {
		t.Errorf("student delete: got %v, want permission error", err)
	}
	if err := svc.Delete(ctx, 1, "teacher-1"); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, ok := repo.lessons.byID[1]; ok {
		t.Error("lesson should be gone")
	}
}

func TestLessonServiceGetByCourse(t *testing.T) {
	_, svc := lessonFixture(t)
	ctx := context.Background()

	lessons, err := svc.GetByCourse(ctx, 1, "")
	if err != nil {
		t.Fatalf("guest listing on live course: %v", err)
	}
	if len(lessons) != 2 {
		t.Errorf("got %d lessons, want 2", len(lessons))
	}

	if _, err := svc.GetByCourse(ctx, 2, ""); !IsPermissionError(err) {
		t.Errorf("guest listing on draft: got %v, want permission error", err)
	}
	if _, err := svc.GetByCourse(ctx, 2, "teacher-1"); err != nil {
		t.Fatalf("owner listing on draft: %v", err)
	}
}

func TestLessonServiceReorder(t *testing.T) {
	repo, svc := lessonFixture(t)
	ctx := context.Background()

	if err := svc.Reorder(ctx, 1, []uint{2, 1}, "teacher-1"); err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if repo.lessons.byID[2].Order != 1 || repo.lessons.byID[1].Order != 2 {
		t.Errorf("orders = %d,%d, want 1,2", repo.lessons.byID[2].Order, repo.lessons.byID[1].Order)
	}

	err := svc.Reorder(ctx, 1, []uint{2}, "teacher-1")
	if err == nil || !strings.Contains(err.Error(), "every lesson") {
		t.Errorf("partial reorder: got %v, want full-listing error", err)
	}

	if err := svc.Reorder(ctx, 1, []uint{1, 2}, "teacher-2"); !IsPermissionError(err) {
		t.Errorf("non-owner reorder: got %v, want permission error", err)
	}
}
