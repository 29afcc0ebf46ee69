package authz

import "time"

// QuizPolicy decides quiz-level actions. Ownership walks Quiz -> Lesson ->
// Course; viewAny/create/generate are scoped by lesson id since they run
// before any quiz exists.
type QuizPolicy struct {
	graph *Graph
}

// ViewAny allows the instructor owning the lesson's course.
func (p QuizPolicy) ViewAny(actor *Actor, lessonID uint) (bool, error) {
	return p.ownsLessonCourse(actor, lessonID)
}

// Create allows the instructor owning the lesson's course.
func (p QuizPolicy) Create(actor *Actor, lessonID uint) (bool, error) {
	return p.ownsLessonCourse(actor, lessonID)
}

// Generate allows the instructor owning the lesson's course.
func (p QuizPolicy) Generate(actor *Actor, lessonID uint) (bool, error) {
	return p.ownsLessonCourse(actor, lessonID)
}

// View allows the owning instructor or an enrolled student.
func (p QuizPolicy) View(actor *Actor, quizID uint) (bool, error) {
	course, err := p.graph.quizCourse(quizID)
	if err != nil {
		return false, err
	}
	if actor == nil {
		return false, nil
	}
	if actor.is(RoleInstructor) && actor.ID == course.UserID {
		return true, nil
	}
	if actor.is(RoleStudent) && p.graph.enrolled(course.ID, actor.ID) {
		return true, nil
	}
	return false, nil
}

func (p QuizPolicy) Update(actor *Actor, quizID uint) (bool, error) {
	return p.ownsQuizCourse(actor, quizID)
}

func (p QuizPolicy) Delete(actor *Actor, quizID uint) (bool, error) {
	return p.ownsQuizCourse(actor, quizID)
}

func (p QuizPolicy) Restore(actor *Actor, quizID uint) (bool, error) {
	return p.ownsQuizCourse(actor, quizID)
}

func (p QuizPolicy) ForceDelete(actor *Actor, quizID uint) (bool, error) {
	return p.ownsQuizCourse(actor, quizID)
}

// Submit gates a quiz attempt. All of the following must hold:
//
//  1. the actor is a student;
//  2. the student is enrolled in the quiz's course;
//  3. when the due date has passed, the student's latest attempt must exist
//     and have failed — late submission is only a retry after failure, so a
//     student with no attempts is locked out once the deadline passes;
//  4. no prior attempt passed — one passing attempt is terminal.
func (p QuizPolicy) Submit(actor *Actor, quizID uint, now time.Time) (bool, error) {
	quiz, err := p.graph.quiz(quizID)
	if err != nil {
		return false, err
	}
	course, err := p.graph.lessonCourse(quiz.LessonID)
	if err != nil {
		return false, err
	}

	if !actor.is(RoleStudent) {
		return false, nil
	}
	if !p.graph.enrolled(course.ID, actor.ID) {
		return false, nil
	}

	attempts := p.graph.studentAttempts(quizID, actor.ID)
	for _, attempt := range attempts {
		if attempt.Passed {
			return false, nil
		}
	}

	if quiz.DueDate != nil && now.After(*quiz.DueDate) {
		if len(attempts) == 0 {
			return false, nil
		}
		latest := attempts[len(attempts)-1]
		if latest.Passed {
			return false, nil
		}
	}

	return true, nil
}

func (p QuizPolicy) ownsLessonCourse(actor *Actor, lessonID uint) (bool, error) {
	course, err := p.graph.lessonCourse(lessonID)
	if err != nil {
		return false, err
	}
	return actor.is(RoleInstructor) && actor.ID == course.UserID, nil
}

func (p QuizPolicy) ownsQuizCourse(actor *Actor, quizID uint) (bool, error) {
	course, err := p.graph.quizCourse(quizID)
	if err != nil {
		return false, err
	}
	return actor.is(RoleInstructor) && actor.ID == course.UserID, nil
}
