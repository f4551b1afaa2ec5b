package tasks

import (
	"errors"
	"fmt"
	"strings"
)

const (
	taskNotFoundTemplateConstant            = "task %q not found"
	prerequisiteNotFoundTemplateConstant    = "task %q depends on unknown task %q"
	noDefaultTaskMessageConstant            = "no task name supplied and no default task is set"
	cycleDetectedTemplateConstant           = "task %q has cyclic prerequisites: %s"
	invalidTaskDefinitionTemplateConstant   = "invalid definition for task %q: %s"
	taskNameRequiredMessageConstant         = "task name must be provided"
	taskBodyRequiredMessageConstant         = "task body must be provided"
	prerequisiteNameRequiredMessageConstant = "prerequisite names must not be empty"
)

// ErrTaskNotFound is matched by every NotFoundError and NoDefaultError through errors.Is.
var ErrTaskNotFound = errors.New("task not found")

var errSelfReference = errors.New("task lists itself as a prerequisite")

// NotFoundError reports a task name that is not registered.
type NotFoundError struct {
	Name string
	// RequiredBy is populated when the missing task was referenced as a prerequisite.
	RequiredBy string
}

// Error describes the missing task.
func (notFoundError NotFoundError) Error() string {
	if len(notFoundError.RequiredBy) > 0 {
		return fmt.Sprintf(prerequisiteNotFoundTemplateConstant, notFoundError.RequiredBy, notFoundError.Name)
	}
	return fmt.Sprintf(taskNotFoundTemplateConstant, notFoundError.Name)
}

// Is reports whether the target is ErrTaskNotFound.
func (notFoundError NotFoundError) Is(target error) bool {
	return target == ErrTaskNotFound
}

// NoDefaultError reports an invocation without a task name while no default task is set.
type NoDefaultError struct{}

// Error describes the missing default.
func (NoDefaultError) Error() string {
	return noDefaultTaskMessageConstant
}

// Is reports whether the target is ErrTaskNotFound.
func (NoDefaultError) Is(target error) bool {
	return target == ErrTaskNotFound
}

// CycleError reports prerequisites that eventually depend on themselves.
type CycleError struct {
	Name  string
	Cause error
}

// Error describes the cycle.
func (cycleError CycleError) Error() string {
	return fmt.Sprintf(cycleDetectedTemplateConstant, cycleError.Name, cycleError.Cause)
}

// Unwrap exposes the underlying sort failure.
func (cycleError CycleError) Unwrap() error {
	return cycleError.Cause
}

// InvalidTaskDefinitionError reports a rejected Define call.
type InvalidTaskDefinitionError struct {
	Name    string
	Message string
}

// Error describes the rejected definition.
func (definitionError InvalidTaskDefinitionError) Error() string {
	return fmt.Sprintf(invalidTaskDefinitionTemplateConstant, strings.TrimSpace(definitionError.Name), definitionError.Message)
}
