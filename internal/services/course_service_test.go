package services

import (
	"context"
	"errors"
	"testing"

	"github.com/PPLKelompok1-2025/lms-service/internal/models"
	"github.com/PPLKelompok1-2025/lms-service/internal/validator"
)

func courseFixture(t *testing.T) (*stubRepository, CourseService) {
	t.Helper()

	repo := newStubRepository()
	repo.users.byID["student-1"] = &models.User{ID: "student-1", Email: "s1@test.dev", Role: models.RoleStudent}
	repo.users.byID["teacher-1"] = &models.User{ID: "teacher-1", Email: "t1@test.dev", Role: models.RoleInstructor}
	repo.users.byID["teacher-2"] = &models.User{ID: "teacher-2", Email: "t2@test.dev", Role: models.RoleInstructor}
	repo.users.byID["admin-1"] = &models.User{ID: "admin-1", Email: "a1@test.dev", Role: models.RoleAdmin}

	repo.courses.byID[1] = &models.Course{
		ID:          1,
		UserID:      "teacher-1",
		Title:       "Go from Scratch",
		Price:       100,
		IsPublished: true,
		IsApproved:  true,
	}
	repo.courses.byID[2] = &models.Course{
		ID:     2,
		UserID: "teacher-1",
		Title:  "Unreleased Draft",
		Price:  50,
	}

	svc := NewCourseService(repo, nil, testLogger(), validator.NewBusinessValidator())
	return repo, svc
}

func TestCourseServiceCreate(t *testing.T) {
	_, svc := courseFixture(t)
	ctx := context.Background()

	resp, err := svc.Create(ctx, &CreateCourseRequest{Title: "Testing in Go", Price: 30}, "teacher-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if resp.Course.ID == 0 {
		t.Error("expected a persisted course ID")
	}
	if resp.Course.UserID != "teacher-1" {
		t.Errorf("owner = %q, want teacher-1", resp.Course.UserID)
	}
	if !resp.CanEdit || !resp.CanDelete {
		t.Error("owner should be able to edit and delete a fresh course")
	}
	if resp.Course.IsPublished || resp.Course.IsApproved {
		t.Error("new courses must start unpublished and unapproved")
	}
}

func TestCourseServiceCreateDenied(t *testing.T) {
	_, svc := courseFixture(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, &CreateCourseRequest{Title: "Nope", Price: 10}, "student-1"); !IsPermissionError(err) {
		t.Errorf("student create: got %v, want permission error", err)
	}

	var verrs validator.ValidationErrors
	_, err := svc.Create(ctx, &CreateCourseRequest{Title: "", Price: 10}, "teacher-1")
	if !errors.As(err, &verrs) {
		t.Errorf("empty title: got %v, want validation errors", err)
	}
}

func TestCourseServiceGetByIDVisibility(t *testing.T) {
	repo, svc := courseFixture(t)
	ctx := context.Background()
	repo.enrollments.byID[1] = &models.Enrollment{ID: 1, CourseID: 1, UserID: "student-1"}

	tests := []struct {
		name     string
		courseID uint
		userID   string
		wantErr  error
		denied   bool
	}{
		{name: "guest sees live course", courseID: 1, userID: ""},
		{name: "guest denied on draft", courseID: 2, userID: "", denied: true},
		{name: "student denied on draft", courseID: 2, userID: "student-1", denied: true},
		{name: "owner sees draft", courseID: 2, userID: "teacher-1"},
		{name: "admin sees draft", courseID: 2, userID: "admin-1"},
		{name: "unknown course", courseID: 99, userID: "teacher-1", wantErr: ErrCourseNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.GetByID(ctx, tt.courseID, tt.userID)
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("got %v, want %v", err, tt.wantErr)
				}
			case tt.denied:
				if !IsPermissionError(err) {
					t.Errorf("got %v, want permission error", err)
				}
			default:
				if err != nil {
					t.Fatalf("GetByID: %v", err)
				}
				if resp.Course.ID != tt.courseID {
					t.Errorf("course ID = %d, want %d", resp.Course.ID, tt.courseID)
				}
			}
		})
	}
}

func TestCourseServiceGetByIDEnrolledFlag(t *testing.T) {
	repo, svc := courseFixture(t)
	ctx := context.Background()
	repo.enrollments.byID[1] = &models.Enrollment{ID: 1, CourseID: 1, UserID: "student-1"}

	resp, err := svc.GetByID(ctx, 1, "student-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !resp.Enrolled {
		t.Error("expected Enrolled for the enrolled student")
	}
	if resp.CanEdit {
		t.Error("students must not be able to edit")
	}
}

func TestCourseServiceUpdate(t *testing.T) {
	repo, svc := courseFixture(t)
	ctx := context.Background()

	title := "Go from Scratch, 2nd Edition"
	price := 120.0
	resp, err := svc.Update(ctx, 1, &UpdateCourseRequest{Title: &title, Price: &price}, "teacher-1")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if resp.Course.Title != title || resp.Course.Price != price {
		t.Errorf("update not applied: title %q price %v", resp.Course.Title, resp.Course.Price)
	}

	if _, err := svc.Update(ctx, 1, &UpdateCourseRequest{Title: &title}, "teacher-2"); !IsPermissionError(err) {
		t.Errorf("non-owner update: got %v, want permission error", err)
	}
	if repo.courses.byID[1].Title != title {
		t.Error("denied update must not mutate the course")
	}
}

func TestCourseServiceDelete(t *testing.T) {
	repo, svc := courseFixture(t)
	ctx := context.Background()
	repo.enrollments.byID[1] = &models.Enrollment{ID: 1, CourseID: 1, UserID: "student-1"}

	// Enrollments freeze owner deletion but not admin deletion.
	if err := svc.Delete(ctx, 1, "teacher-1"); !IsPermissionError(err) {
		t.Errorf("owner delete with enrollments: got %v, want permission error", err)
	}
	if err := svc.Delete(ctx, 1, "admin-1"); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if _, ok := repo.courses.byID[1]; ok {
		t.Error("course should be gone after admin delete")
	}

	// Empty course deletes cleanly for the owner.
	if err := svc.Delete(ctx, 2, "teacher-1"); err != nil {
		t.Fatalf("owner delete of empty course: %v", err)
	}
}

func TestCourseServicePublication(t *testing.T) {
	repo, svc := courseFixture(t)
	ctx := context.Background()

	if err := svc.Publish(ctx, 2, "teacher-1"); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !repo.courses.byID[2].IsPublished {
		t.Error("course should be published")
	}

	if err := svc.Publish(ctx, 2, "teacher-2"); !IsPermissionError(err) {
		t.Errorf("non-owner publish: got %v, want permission error", err)
	}

	if err := svc.Unpublish(ctx, 2, "teacher-1"); err != nil {
		t.Fatalf("Unpublish: %v", err)
	}
	if repo.courses.byID[2].IsPublished {
		t.Error("course should be unpublished again")
	}
}

func TestCourseServiceApprove(t *testing.T) {
	repo, svc := courseFixture(t)
	ctx := context.Background()

	if err := svc.Approve(ctx, 2, "teacher-1"); !IsPermissionError(err) {
		t.Errorf("instructor approve: got %v, want permission error", err)
	}
	if err := svc.Approve(ctx, 2, "admin-1"); err != nil {
		t.Fatalf("admin approve: %v", err)
	}
	if !repo.courses.byID[2].IsApproved {
		t.Error("course should be approved")
	}
	if err := svc.Approve(ctx, 99, "admin-1"); !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("approve unknown course: got %v, want ErrCourseNotFound", err)
	}
}

func TestCourseServiceReviews(t *testing.T) {
	repo, svc := courseFixture(t)
	ctx := context.Background()
	repo.enrollments.byID[1] = &models.Enrollment{ID: 1, CourseID: 1, UserID: "student-1"}

	review, err := svc.AddReview(ctx, 1, &CreateReviewRequest{Rating: 5, Comment: "great pacing"}, "student-1")
	if err != nil {
		t.Fatalf("AddReview: %v", err)
	}
	if review.ID == 0 || review.Rating != 5 {
		t.Errorf("unexpected review %+v", review)
	}

	if _, err := svc.AddReview(ctx, 1, &CreateReviewRequest{Rating: 3}, "student-1"); !errors.Is(err, ErrAlreadyReviewed) {
		t.Errorf("second review: got %v, want ErrAlreadyReviewed", err)
	}
	if _, err := svc.AddReview(ctx, 2, &CreateReviewRequest{Rating: 4}, "student-1"); !errors.Is(err, ErrNotEnrolled) {
		t.Errorf("review without enrollment: got %v, want ErrNotEnrolled", err)
	}

	reviews, total, err := svc.ListReviews(ctx, 1, 20, 0)
	if err != nil {
		t.Fatalf("ListReviews: %v", err)
	}
	if total != 1 || len(reviews) != 1 {
		t.Errorf("got %d reviews (total %d), want 1", len(reviews), total)
	}
}

func TestCourseServiceDeleteReview(t *testing.T) {
	repo, svc := courseFixture(t)
	ctx := context.Background()
	repo.reviews.byID[1] = &models.Review{ID: 1, CourseID: 1, UserID: "student-1", Rating: 4}
	repo.reviews.nextID = 1

	if err := svc.DeleteReview(ctx, 1, "teacher-2"); !IsPermissionError(err) {
		t.Errorf("stranger delete: got %v, want permission error", err)
	}
	if err := svc.DeleteReview(ctx, 1, "student-1"); err != nil {
		t.Fatalf("author delete: %v", err)
	}
	if err := svc.DeleteReview(ctx, 1, "student-1"); !errors.Is(err, ErrReviewNotFound) {
		t.Errorf("double delete: got %v, want ErrReviewNotFound", err)
	}
}

func TestCourseServiceStatsAccess(t *testing.T) {
	_, svc := courseFixture(t)
	ctx := context.Background()

	if _, err := svc.GetStats(ctx, 1, "teacher-1"); err != nil {
		t.Fatalf("owner stats: %v", err)
	}
	if _, err := svc.GetStats(ctx, 1, "student-1"); !IsPermissionError(err) {
		t.Errorf("student stats: got %v, want permission error", err)
	}
}
