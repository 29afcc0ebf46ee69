package authz

import (
	"fmt"
	"time"
)

// Action names one policy decision per resource kind.
type Action string

const (
	ActionViewAny     Action = "viewAny"
	ActionView        Action = "view"
	ActionCreate      Action = "create"
	ActionUpdate      Action = "update"
	ActionDelete      Action = "delete"
	ActionRestore     Action = "restore"
	ActionForceDelete Action = "forceDelete"
	ActionGenerate    Action = "generate"
	ActionSubmit      Action = "submit"
)

type ResourceKind string

const (
	KindCourse ResourceKind = "course"
	KindLesson ResourceKind = "lesson"
	KindQuiz   ResourceKind = "quiz"
)

// Ref identifies the resource a decision is about. For create-style actions
// the id refers to the parent scope (the lesson for quiz creation); course
// and lesson creation take no id at all.
type Ref struct {
	Kind ResourceKind
	ID   uint
}

func CourseRef(id uint) Ref { return Ref{Kind: KindCourse, ID: id} }
func LessonRef(id uint) Ref { return Ref{Kind: KindLesson, ID: id} }
func QuizRef(id uint) Ref   { return Ref{Kind: KindQuiz, ID: id} }

// Evaluator answers "can actor A perform action X on resource R" over a
// snapshot graph. It holds no mutable state and never writes; denial is a
// plain false, and only caller contract violations produce errors.
type Evaluator struct {
	Course CoursePolicy
	Lesson LessonPolicy
	Quiz   QuizPolicy
}

// NewEvaluator builds an evaluator over the given snapshot. The evaluation
// timestamp is passed per call so decisions are deterministic under test.
func NewEvaluator(graph *Graph) *Evaluator {
	return &Evaluator{
		Course: CoursePolicy{graph: graph},
		Lesson: LessonPolicy{graph: graph},
		Quiz:   QuizPolicy{graph: graph},
	}
}

// Can dispatches to the policy for the referenced resource kind. now is only
// consulted by time-dependent decisions (quiz submission).
func (e *Evaluator) Can(actor *Actor, action Action, ref Ref, now time.Time) (bool, error) {
	switch ref.Kind {
	case KindCourse:
		return e.canCourse(actor, action, ref.ID)
	case KindLesson:
		return e.canLesson(actor, action, ref.ID)
	case KindQuiz:
		return e.canQuiz(actor, action, ref.ID, now)
	}
	return false, fmt.Errorf("%w: resource kind %q", ErrUnknownAction, ref.Kind)
}

func (e *Evaluator) canCourse(actor *Actor, action Action, id uint) (bool, error) {
	switch action {
	case ActionView:
		return e.Course.View(actor, id)
	case ActionCreate:
		return e.Course.Create(actor), nil
	case ActionUpdate:
		return e.Course.Update(actor, id)
	case ActionDelete:
		return e.Course.Delete(actor, id)
	case ActionRestore:
		return e.Course.Restore(actor, id)
	case ActionForceDelete:
		return e.Course.ForceDelete(actor, id)
	}
	return false, fmt.Errorf("%w: %s on course", ErrUnknownAction, action)
}

func (e *Evaluator) canLesson(actor *Actor, action Action, id uint) (bool, error) {
	switch action {
	case ActionViewAny:
		return e.Lesson.ViewAny(actor, id)
	case ActionView:
		return e.Lesson.View(actor, id)
	case ActionCreate:
		return e.Lesson.Create(actor), nil
	case ActionUpdate:
		return e.Lesson.Update(actor, id)
	case ActionDelete:
		return e.Lesson.Delete(actor, id)
	case ActionRestore:
		return e.Lesson.Restore(actor, id)
	case ActionForceDelete:
		return e.Lesson.ForceDelete(actor, id)
	}
	return false, fmt.Errorf("%w: %s on lesson", ErrUnknownAction, action)
}

func (e *Evaluator) canQuiz(actor *Actor, action Action, id uint, now time.Time) (bool, error) {
	switch action {
	case ActionViewAny:
		return e.Quiz.ViewAny(actor, id)
	case ActionCreate:
		return e.Quiz.Create(actor, id)
	case ActionGenerate:
		return e.Quiz.Generate(actor, id)
	case ActionView:
		return e.Quiz.View(actor, id)
	case ActionUpdate:
		return e.Quiz.Update(actor, id)
	case ActionDelete:
		return e.Quiz.Delete(actor, id)
	case ActionRestore:
		return e.Quiz.Restore(actor, id)
	case ActionForceDelete:
		return e.Quiz.ForceDelete(actor, id)
	case ActionSubmit:
		return e.Quiz.Submit(actor, id, now)
	}
	return false, fmt.Errorf("%w: %s on quiz", ErrUnknownAction, action)
}
