package authz

import (
	"errors"
	"testing"
	"time"

	"github.com/PPLKelompok1-2025/lms-service/internal/models"
)

func TestEvaluator_CanDispatch(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	graph := NewGraph().
		AddCourse(testCourse(1, "instr-1", true, true)).
		AddLesson(&models.Lesson{ID: 10, CourseID: 1}).
		AddQuiz(&models.Quiz{ID: 100, LessonID: 10}).
		AddEnrollment(&models.Enrollment{CourseID: 1, UserID: "stud-1"})
	eval := NewEvaluator(graph)

	owner := &Actor{ID: "instr-1", Role: RoleInstructor}
	student := &Actor{ID: "stud-1", Role: RoleStudent}

	tests := []struct {
		name   string
		actor  *Actor
		action Action
		ref    Ref
		want   bool
	}{
		{name: "guest views live course", actor: nil, action: ActionView, ref: CourseRef(1), want: true},
		{name: "owner updates course", actor: owner, action: ActionUpdate, ref: CourseRef(1), want: true},
		{name: "student denied course update", actor: student, action: ActionUpdate, ref: CourseRef(1), want: false},
		{name: "enrolled student views lesson", actor: student, action: ActionView, ref: LessonRef(10), want: true},
		{name: "owner generates quiz for lesson", actor: owner, action: ActionGenerate, ref: QuizRef(10), want: true},
		{name: "enrolled student submits quiz", actor: student, action: ActionSubmit, ref: QuizRef(100), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eval.Can(tt.actor, tt.action, tt.ref, now)
			if err != nil {
				t.Fatalf("Can() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Can() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluator_UnknownActionIsError(t *testing.T) {
	eval := NewEvaluator(NewGraph().AddCourse(testCourse(1, "i", true, true)))

	_, err := eval.Can(&Actor{ID: "i", Role: RoleAdmin}, ActionSubmit, CourseRef(1), time.Now())
	if !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}

func TestEvaluator_MissingContextDistinctFromDenial(t *testing.T) {
	eval := NewEvaluator(NewGraph())

	allowed, err := eval.Can(&Actor{ID: "a", Role: RoleAdmin}, ActionView, CourseRef(7), time.Now())
	if !errors.Is(err, ErrMissingContext) {
		t.Fatalf("expected ErrMissingContext, got %v", err)
	}
	if allowed {
		t.Error("allowed should be false alongside a contract violation")
	}
}

func TestRoleFromModel(t *testing.T) {
	tests := []struct {
		name    string
		role    models.UserRole
		want    Role
		wantErr bool
	}{
		{name: "student", role: models.RoleStudent, want: RoleStudent},
		{name: "instructor", role: models.RoleInstructor, want: RoleInstructor},
		{name: "admin", role: models.RoleAdmin, want: RoleAdmin},
		{name: "unknown", role: models.UserRole("proctor"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RoleFromModel(tt.role)
			if (err != nil) != tt.wantErr {
				t.Fatalf("RoleFromModel() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("RoleFromModel() = %v, want %v", got, tt.want)
			}
		})
	}
}
