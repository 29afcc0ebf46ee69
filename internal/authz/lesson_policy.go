package authz

// LessonPolicy decides lesson-level actions. A lesson has no owner column of
// its own; ownership is always the owning course's instructor.
type LessonPolicy struct {
	graph *Graph
}

// ViewAny allows only the instructor owning the lesson's course.
func (p LessonPolicy) ViewAny(actor *Actor, lessonID uint) (bool, error) {
	return p.ownsCourse(actor, lessonID)
}

// View allows the owning instructor, or an enrolled student. The student
// path ignores the course's publish/approval state: enrollment alone grants
// lesson access.
func (p LessonPolicy) View(actor *Actor, lessonID uint) (bool, error) {
	course, err := p.graph.lessonCourse(lessonID)
	if err != nil {
		return false, err
	}
	if actor == nil {
		return false, nil
	}
	if actor.ID == course.UserID {
		return true, nil
	}
	if actor.is(RoleStudent) && p.graph.enrolled(course.ID, actor.ID) {
		return true, nil
	}
	return false, nil
}

// Create allows any instructor. Whether the instructor owns the target
// course is checked by the caller.
// TODO: fold the course ownership check in here once callers pass the
// course scope through Ref.
func (p LessonPolicy) Create(actor *Actor) bool {
	return actor.is(RoleInstructor)
}

func (p LessonPolicy) Update(actor *Actor, lessonID uint) (bool, error) {
	return p.ownsCourse(actor, lessonID)
}

func (p LessonPolicy) Delete(actor *Actor, lessonID uint) (bool, error) {
	return p.ownsCourse(actor, lessonID)
}

func (p LessonPolicy) Restore(actor *Actor, lessonID uint) (bool, error) {
	return p.ownsCourse(actor, lessonID)
}

func (p LessonPolicy) ForceDelete(actor *Actor, lessonID uint) (bool, error) {
	return p.ownsCourse(actor, lessonID)
}

func (p LessonPolicy) ownsCourse(actor *Actor, lessonID uint) (bool, error) {
	course, err := p.graph.lessonCourse(lessonID)
	if err != nil {
		return false, err
	}
	return actor != nil && actor.ID == course.UserID, nil
}
