package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/PPLKelompok1-2025/lms-service/internal/authz"
	"github.com/PPLKelompok1-2025/lms-service/internal/models"
	"github.com/PPLKelompok1-2025/lms-service/internal/repositories"
)

// loadActor resolves a user id to a policy actor. An empty id is a guest and
// yields a nil actor, which the policies treat as anonymous.
func loadActor(ctx context.Context, repo repositories.Repository, userID string) (*authz.Actor, error) {
	if userID == "" {
		return nil, nil
	}
	user, err := repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	return authz.ActorFromUser(user)
}

// courseSnapshot loads the minimum graph needed to decide course-level
// actions for one actor: the course itself plus the actor's enrollment, if
// any. withEnrollments additionally loads every enrollment of the course,
// which the delete policy needs to spot non-empty courses.
func courseSnapshot(ctx context.Context, repo repositories.Repository, tx *gorm.DB, courseID uint, actor *authz.Actor, withEnrollments bool) (*authz.Graph, *models.Course, error) {
	course, err := repo.Course().GetByID(ctx, tx, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrCourseNotFound
		}
		return nil, nil, fmt.Errorf("failed to load course %d: %w", courseID, err)
	}

	graph := authz.NewGraph().AddCourse(course)

	if withEnrollments {
		enrollments, err := repo.Enrollment().GetByCourse(ctx, tx, courseID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load enrollments for course %d: %w", courseID, err)
		}
		for _, enrollment := range enrollments {
			graph.AddEnrollment(enrollment)
		}
		return graph, course, nil
	}

	if err := addActorEnrollment(ctx, repo, tx, graph, courseID, actor); err != nil {
		return nil, nil, err
	}
	return graph, course, nil
}

// lessonSnapshot loads a lesson with its owning course and the actor's
// enrollment into a fresh graph.
func lessonSnapshot(ctx context.Context, repo repositories.Repository, tx *gorm.DB, lessonID uint, actor *authz.Actor) (*authz.Graph, *models.Lesson, error) {
	lesson, err := repo.Lesson().GetByID(ctx, tx, lessonID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrLessonNotFound
		}
		return nil, nil, fmt.Errorf("failed to load lesson %d: %w", lessonID, err)
	}

	course, err := repo.Course().GetByID(ctx, tx, lesson.CourseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrCourseNotFound
		}
		return nil, nil, fmt.Errorf("failed to load course %d: %w", lesson.CourseID, err)
	}

	graph := authz.NewGraph().AddCourse(course).AddLesson(lesson)
	if err := addActorEnrollment(ctx, repo, tx, graph, course.ID, actor); err != nil {
		return nil, nil, err
	}
	return graph, lesson, nil
}

// quizSnapshot loads the full decision chain for a quiz: the quiz, its
// lesson, the owning course, the actor's enrollment and the actor's prior
// attempts. The attempt history is what makes submission decisions and
// retry rules work.
func quizSnapshot(ctx context.Context, repo repositories.Repository, tx *gorm.DB, quizID uint, actor *authz.Actor) (*authz.Graph, *models.Quiz, error) {
	quiz, err := repo.Quiz().GetByID(ctx, tx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrQuizNotFound
		}
		return nil, nil, fmt.Errorf("failed to load quiz %d: %w", quizID, err)
	}

	lesson, err := repo.Lesson().GetByID(ctx, tx, quiz.LessonID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrLessonNotFound
		}
		return nil, nil, fmt.Errorf("failed to load lesson %d: %w", quiz.LessonID, err)
	}

	course, err := repo.Course().GetByID(ctx, tx, lesson.CourseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrCourseNotFound
		}
		return nil, nil, fmt.Errorf("failed to load course %d: %w", lesson.CourseID, err)
	}

	graph := authz.NewGraph().AddCourse(course).AddLesson(lesson).AddQuiz(quiz)
	if err := addActorEnrollment(ctx, repo, tx, graph, course.ID, actor); err != nil {
		return nil, nil, err
	}

	if actor != nil {
		attempts, err := repo.QuizAttempt().GetByQuizAndStudent(ctx, tx, quizID, actor.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load attempts for quiz %d: %w", quizID, err)
		}
		for _, attempt := range attempts {
			graph.AddAttempt(attempt)
		}
	}

	return graph, quiz, nil
}

func addActorEnrollment(ctx context.Context, repo repositories.Repository, tx *gorm.DB, graph *authz.Graph, courseID uint, actor *authz.Actor) error {
	if actor == nil {
		return nil
	}
	enrollment, err := repo.Enrollment().GetByCourseAndUser(ctx, tx, courseID, actor.ID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil
		}
		return fmt.Errorf("failed to load enrollment: %w", err)
	}
	graph.AddEnrollment(enrollment)
	return nil
}
