// Package tasks hosts the task registry and the synchronous runner used by tasker.
// Tasks are registered explicitly by name with a static list of prerequisite
// names; the runner walks prerequisites depth-first in declared order, runs each
// body at most once per Run call, and stops at the first failure.
package tasks
