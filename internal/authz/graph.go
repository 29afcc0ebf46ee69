package authz

import (
	"fmt"
	"sort"

	"github.com/PPLKelompok1-2025/lms-service/internal/models"
)

// Graph is a read-only snapshot of the entities a policy decision may need:
// courses, lessons, quizzes, enrollment links and quiz attempts, keyed by id.
// Callers load the relevant slice of the world into a Graph up front; the
// evaluator then walks ownership chains (Quiz -> Lesson -> Course) without
// touching storage, which keeps every decision pure and testable.
type Graph struct {
	courses map[uint]*models.Course
	lessons map[uint]*models.Lesson
	quizzes map[uint]*models.Quiz

	// courseID -> set of enrolled user ids
	enrollments map[uint]map[string]struct{}

	// quizID -> studentID -> attempts, kept sorted by SubmittedAt ascending
	attempts map[uint]map[string][]*models.QuizAttempt
}

func NewGraph() *Graph {
	return &Graph{
		courses:     make(map[uint]*models.Course),
		lessons:     make(map[uint]*models.Lesson),
		quizzes:     make(map[uint]*models.Quiz),
		enrollments: make(map[uint]map[string]struct{}),
		attempts:    make(map[uint]map[string][]*models.QuizAttempt),
	}
}

// AddCourse loads a course and any enrollments preloaded on it.
func (g *Graph) AddCourse(course *models.Course) *Graph {
	if course == nil {
		return g
	}
	g.courses[course.ID] = course
	for i := range course.Enrollments {
		g.AddEnrollment(&course.Enrollments[i])
	}
	return g
}

// AddLesson loads a lesson; a preloaded Course relation is loaded too.
func (g *Graph) AddLesson(lesson *models.Lesson) *Graph {
	if lesson == nil {
		return g
	}
	g.lessons[lesson.ID] = lesson
	if lesson.Course.ID != 0 {
		g.AddCourse(&lesson.Course)
	}
	return g
}

// AddQuiz loads a quiz along with preloaded lesson and attempt relations.
func (g *Graph) AddQuiz(quiz *models.Quiz) *Graph {
	if quiz == nil {
		return g
	}
	g.quizzes[quiz.ID] = quiz
	if quiz.Lesson.ID != 0 {
		g.AddLesson(&quiz.Lesson)
	}
	for i := range quiz.Attempts {
		g.AddAttempt(&quiz.Attempts[i])
	}
	return g
}

func (g *Graph) AddEnrollment(enrollment *models.Enrollment) *Graph {
	if enrollment == nil {
		return g
	}
	set, ok := g.enrollments[enrollment.CourseID]
	if !ok {
		set = make(map[string]struct{})
		g.enrollments[enrollment.CourseID] = set
	}
	set[enrollment.UserID] = struct{}{}
	return g
}

func (g *Graph) AddAttempt(attempt *models.QuizAttempt) *Graph {
	if attempt == nil {
		return g
	}
	byStudent, ok := g.attempts[attempt.QuizID]
	if !ok {
		byStudent = make(map[string][]*models.QuizAttempt)
		g.attempts[attempt.QuizID] = byStudent
	}
	list := append(byStudent[attempt.StudentID], attempt)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].SubmittedAt.Before(list[j].SubmittedAt)
	})
	byStudent[attempt.StudentID] = list
	return g
}

// ===== TRAVERSALS =====

func (g *Graph) course(id uint) (*models.Course, error) {
	course, ok := g.courses[id]
	if !ok {
		return nil, fmt.Errorf("%w: course %d", ErrMissingContext, id)
	}
	return course, nil
}

func (g *Graph) lesson(id uint) (*models.Lesson, error) {
	lesson, ok := g.lessons[id]
	if !ok {
		return nil, fmt.Errorf("%w: lesson %d", ErrMissingContext, id)
	}
	return lesson, nil
}

func (g *Graph) quiz(id uint) (*models.Quiz, error) {
	quiz, ok := g.quizzes[id]
	if !ok {
		return nil, fmt.Errorf("%w: quiz %d", ErrMissingContext, id)
	}
	return quiz, nil
}

// lessonCourse resolves a lesson's owning course.
func (g *Graph) lessonCourse(lessonID uint) (*models.Course, error) {
	lesson, err := g.lesson(lessonID)
	if err != nil {
		return nil, err
	}
	return g.course(lesson.CourseID)
}

// quizCourse walks Quiz -> Lesson -> Course.
func (g *Graph) quizCourse(quizID uint) (*models.Course, error) {
	quiz, err := g.quiz(quizID)
	if err != nil {
		return nil, err
	}
	return g.lessonCourse(quiz.LessonID)
}

// enrolled reports whether the user has an enrollment row for the course.
func (g *Graph) enrolled(courseID uint, userID string) bool {
	_, ok := g.enrollments[courseID][userID]
	return ok
}

// hasEnrollments reports whether the course has any enrollment at all.
func (g *Graph) hasEnrollments(courseID uint) bool {
	return len(g.enrollments[courseID]) > 0
}

// studentAttempts returns the student's attempts for a quiz, oldest first.
func (g *Graph) studentAttempts(quizID uint, studentID string) []*models.QuizAttempt {
	return g.attempts[quizID][studentID]
}
