package authz

// CoursePolicy decides course-level actions.
type CoursePolicy struct {
	graph *Graph
}

// View allows the owning instructor, admins, anyone (guests included) when
// the course is live (published and approved), and enrolled students of a
// live course. The last branch is subsumed by the live-course branch; it is
// kept separate so that behavior for not-yet-live courses stays explicit
// rather than folded into a simplified condition.
func (p CoursePolicy) View(actor *Actor, courseID uint) (bool, error) {
	course, err := p.graph.course(courseID)
	if err != nil {
		return false, err
	}

	if actor != nil {
		if actor.ID == course.UserID {
			return true, nil
		}
		if actor.is(RoleAdmin) {
			return true, nil
		}
	}

	if course.IsPublished && course.IsApproved {
		return true, nil
	}

	if actor.is(RoleStudent) && p.graph.enrolled(courseID, actor.ID) &&
		course.IsPublished && course.IsApproved {
		return true, nil
	}

	return false, nil
}

// Create allows instructors and admins.
func (p CoursePolicy) Create(actor *Actor) bool {
	return actor.is(RoleInstructor) || actor.is(RoleAdmin)
}

func (p CoursePolicy) Update(actor *Actor, courseID uint) (bool, error) {
	return p.ownsOrAdmin(actor, courseID)
}

// Delete allows the owner or an admin, but an existing enrollment blocks
// deletion for everyone except admins.
func (p CoursePolicy) Delete(actor *Actor, courseID uint) (bool, error) {
	allowed, err := p.ownsOrAdmin(actor, courseID)
	if err != nil || !allowed {
		return false, err
	}
	if p.graph.hasEnrollments(courseID) && !actor.is(RoleAdmin) {
		return false, nil
	}
	return true, nil
}

func (p CoursePolicy) Restore(actor *Actor, courseID uint) (bool, error) {
	return p.ownsOrAdmin(actor, courseID)
}

func (p CoursePolicy) ForceDelete(actor *Actor, courseID uint) (bool, error) {
	return p.ownsOrAdmin(actor, courseID)
}

func (p CoursePolicy) ownsOrAdmin(actor *Actor, courseID uint) (bool, error) {
	course, err := p.graph.course(courseID)
	if err != nil {
		return false, err
	}
	if actor == nil {
		return false, nil
	}
	return actor.ID == course.UserID || actor.is(RoleAdmin), nil
}
