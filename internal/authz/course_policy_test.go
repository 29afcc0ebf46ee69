package authz

import (
	"testing"

	"github.com/PPLKelompok1-2025/lms-service/internal/models"
)

func testCourse(id uint, ownerID string, published, approved bool) *models.Course {
	return &models.Course{
		ID:          id,
		UserID:      ownerID,
		Title:       "Test Course",
		IsPublished: published,
		IsApproved:  approved,
	}
}

func TestCoursePolicy_View(t *testing.T) {
	owner := &Actor{ID: "instr-1", Role: RoleInstructor}
	admin := &Actor{ID: "admin-1", Role: RoleAdmin}
	student := &Actor{ID: "stud-1", Role: RoleStudent}
	stranger := &Actor{ID: "stud-2", Role: RoleStudent}

	tests := []struct {
		name      string
		actor     *Actor
		published bool
		approved  bool
		enrolled  bool
		want      bool
	}{
		{name: "guest sees live course", actor: nil, published: true, approved: true, want: true},
		{name: "guest denied draft course", actor: nil, published: false, approved: false, want: false},
		{name: "guest denied published but unapproved", actor: nil, published: true, approved: false, want: false},
		{name: "stranger student sees live course", actor: stranger, published: true, approved: true, want: true},
		{name: "owner sees own draft", actor: owner, published: false, approved: false, want: true},
		{name: "admin sees draft", actor: admin, published: false, approved: false, want: true},
		{name: "enrolled student denied unpublished course", actor: student, published: false, approved: false, enrolled: true, want: false},
		{name: "enrolled student denied unapproved course", actor: student, published: true, approved: false, enrolled: true, want: false},
		{name: "enrolled student sees live course", actor: student, published: true, approved: true, enrolled: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			graph := NewGraph().AddCourse(testCourse(1, owner.ID, tt.published, tt.approved))
			if tt.enrolled {
				graph.AddEnrollment(&models.Enrollment{CourseID: 1, UserID: student.ID})
			}

			got, err := NewEvaluator(graph).Course.View(tt.actor, 1)
			if err != nil {
				t.Fatalf("View() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("View() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCoursePolicy_Create(t *testing.T) {
	policy := NewEvaluator(NewGraph()).Course

	tests := []struct {
		name  string
		actor *Actor
		want  bool
	}{
		{name: "instructor", actor: &Actor{ID: "i", Role: RoleInstructor}, want: true},
		{name: "admin", actor: &Actor{ID: "a", Role: RoleAdmin}, want: true},
		{name: "student", actor: &Actor{ID: "s", Role: RoleStudent}, want: false},
		{name: "guest", actor: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.Create(tt.actor); got != tt.want {
				t.Errorf("Create() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCoursePolicy_Delete(t *testing.T) {
	owner := &Actor{ID: "instr-1", Role: RoleInstructor}
	admin := &Actor{ID: "admin-1", Role: RoleAdmin}

	tests := []struct {
		name        string
		actor       *Actor
		enrollments []string
		want        bool
	}{
		{name: "owner deletes empty course", actor: owner, want: true},
		{name: "owner blocked by single enrollment", actor: owner, enrollments: []string{"stud-1"}, want: false},
		{name: "admin deletes despite enrollments", actor: admin, enrollments: []string{"stud-1", "stud-2"}, want: true},
		{name: "stranger denied", actor: &Actor{ID: "other", Role: RoleInstructor}, want: false},
		{name: "guest denied", actor: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			graph := NewGraph().AddCourse(testCourse(1, owner.ID, true, true))
			for _, userID := range tt.enrollments {
				graph.AddEnrollment(&models.Enrollment{CourseID: 1, UserID: userID})
			}

			got, err := NewEvaluator(graph).Course.Delete(tt.actor, 1)
			if err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Delete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCoursePolicy_Update(t *testing.T) {
	owner := &Actor{ID: "instr-1", Role: RoleInstructor}
	graph := NewGraph().AddCourse(testCourse(1, owner.ID, false, false))
	policy := NewEvaluator(graph).Course

	if got, _ := policy.Update(owner, 1); !got {
		t.Error("owner should be allowed to update")
	}
	if got, _ := policy.Update(&Actor{ID: "admin", Role: RoleAdmin}, 1); !got {
		t.Error("admin should be allowed to update")
	}
	if got, _ := policy.Update(&Actor{ID: "other", Role: RoleInstructor}, 1); got {
		t.Error("non-owner instructor should be denied")
	}
}

func TestCoursePolicy_MissingCourseIsContractViolation(t *testing.T) {
	policy := NewEvaluator(NewGraph()).Course

	_, err := policy.View(&Actor{ID: "x", Role: RoleAdmin}, 42)
	if err == nil {
		t.Fatal("expected error for missing course context")
	}
}
