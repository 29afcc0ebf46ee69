package authz

import "errors"

// Policy denials are plain false results, never errors. The errors below
// signal caller contract violations: the evaluator was asked a question it
// cannot answer with the state it was given.
var (
	// ErrMissingContext indicates a required entity or relationship is not
	// present in the snapshot graph (e.g. a lesson-scoped check whose course
	// was never loaded).
	ErrMissingContext = errors.New("authz: required resource context missing")

	// ErrUnknownAction indicates an action name that is not defined for the
	// given resource kind.
	ErrUnknownAction = errors.New("authz: unknown action for resource")

	// ErrUnknownRole indicates a role string outside the closed role set.
	ErrUnknownRole = errors.New("authz: unknown role")
)
