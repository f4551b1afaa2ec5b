package tasks

import (
	"context"
	"sort"
	"strings"

	"github.com/gammazero/toposort"
)

// Body is the executable logic of a task. Prerequisites are always invoked with no arguments.
type Body func(executionContext context.Context, arguments []string) error

// Task is a named unit of work with a fixed, ordered list of prerequisite task names.
type Task struct {
	name          string
	description   string
	prerequisites []string
	body          Body
}

// Name returns the registered task name.
func (task *Task) Name() string {
	return task.name
}

// Description returns the optional one-line summary of the task.
func (task *Task) Description() string {
	return task.description
}

// Prerequisites returns a copy of the declared prerequisite names in declaration order.
func (task *Task) Prerequisites() []string {
	copied := make([]string, len(task.prerequisites))
	copy(copied, task.prerequisites)
	return copied
}

// Registry maps task names to definitions and tracks the optional default task.
// It is populated at startup and read-only afterwards, so it carries no locking.
type Registry struct {
	tasks       map[string]*Task
	defaultName string
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]*Task)}
}

// Define registers a task, replacing any earlier task with the same name.
// Prerequisites are resolved by name at run time, so they may reference tasks defined later.
func (registry *Registry) Define(name string, prerequisites []string, body Body) error {
	trimmedName := strings.TrimSpace(name)
	if len(trimmedName) == 0 {
		return InvalidTaskDefinitionError{Name: name, Message: taskNameRequiredMessageConstant}
	}
	if body == nil {
		return InvalidTaskDefinitionError{Name: trimmedName, Message: taskBodyRequiredMessageConstant}
	}

	normalizedPrerequisites := make([]string, 0, len(prerequisites))
	for _, prerequisite := range prerequisites {
		trimmedPrerequisite := strings.TrimSpace(prerequisite)
		if len(trimmedPrerequisite) == 0 {
			return InvalidTaskDefinitionError{Name: trimmedName, Message: prerequisiteNameRequiredMessageConstant}
		}
		normalizedPrerequisites = append(normalizedPrerequisites, trimmedPrerequisite)
	}

	registry.tasks[trimmedName] = &Task{
		name:          trimmedName,
		prerequisites: normalizedPrerequisites,
		body:          body,
	}
	return nil
}

// Describe attaches a one-line description to a registered task.
func (registry *Registry) Describe(name string, description string) error {
	task, lookupError := registry.Lookup(name)
	if lookupError != nil {
		return lookupError
	}
	task.description = strings.TrimSpace(description)
	return nil
}

// SetDefault marks the task executed when no name is supplied. It replaces any previous default.
func (registry *Registry) SetDefault(name string) error {
	task, lookupError := registry.Lookup(name)
	if lookupError != nil {
		return lookupError
	}
	registry.defaultName = task.name
	return nil
}

// Lookup returns the task registered under name.
func (registry *Registry) Lookup(name string) (*Task, error) {
	trimmedName := strings.TrimSpace(name)
	task, exists := registry.tasks[trimmedName]
	if !exists {
		return nil, NotFoundError{Name: trimmedName}
	}
	return task, nil
}

// Default returns the default task or NoDefaultError when none is set.
func (registry *Registry) Default() (*Task, error) {
	if len(registry.defaultName) == 0 {
		return nil, NoDefaultError{}
	}
	task, exists := registry.tasks[registry.defaultName]
	if !exists {
		return nil, NoDefaultError{}
	}
	return task, nil
}

// DefaultName returns the name of the default task, or an empty string.
func (registry *Registry) DefaultName() string {
	return registry.defaultName
}

// Names returns every registered task name in lexical order.
func (registry *Registry) Names() []string {
	names := make([]string, 0, len(registry.tasks))
	for name := range registry.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that every task reachable from name exists and that the prerequisite graph is acyclic.
func (registry *Registry) Validate(name string) error {
	root, lookupError := registry.Lookup(name)
	if lookupError != nil {
		return lookupError
	}

	edges := []toposort.Edge{{nil, root.name}}
	recordedEdges := make(map[[2]string]struct{})
	visited := map[string]struct{}{root.name: {}}
	pending := []*Task{root}

	for len(pending) > 0 {
		current := pending[0]
		pending = pending[1:]

		for _, prerequisiteName := range current.prerequisites {
			prerequisite, exists := registry.tasks[prerequisiteName]
			if !exists {
				return NotFoundError{Name: prerequisiteName, RequiredBy: current.name}
			}
			if prerequisite.name == current.name {
				return CycleError{Name: root.name, Cause: errSelfReference}
			}
			edgeKey := [2]string{prerequisite.name, current.name}
			if _, recorded := recordedEdges[edgeKey]; !recorded {
				recordedEdges[edgeKey] = struct{}{}
				edges = append(edges, toposort.Edge{prerequisite.name, current.name})
			}
			if _, seen := visited[prerequisite.name]; seen {
				continue
			}
			visited[prerequisite.name] = struct{}{}
			pending = append(pending, prerequisite)
		}
	}

	if _, sortError := toposort.Toposort(edges); sortError != nil {
		return CycleError{Name: root.name, Cause: sortError}
	}
	return nil
}

// Plan returns the order in which a run of name would execute task bodies:
// depth-first, pre-order over prerequisites, each task once, the requested task last.
func (registry *Registry) Plan(name string) ([]string, error) {
	root, resolveError := registry.resolve(name)
	if resolveError != nil {
		return nil, resolveError
	}
	if validationError := registry.Validate(root.name); validationError != nil {
		return nil, validationError
	}

	order := make([]string, 0, len(registry.tasks))
	seen := make(map[string]struct{})
	var visit func(task *Task)
	visit = func(task *Task) {
		if _, already := seen[task.name]; already {
			return
		}
		seen[task.name] = struct{}{}
		for _, prerequisiteName := range task.prerequisites {
			visit(registry.tasks[prerequisiteName])
		}
		order = append(order, task.name)
	}
	visit(root)
	return order, nil
}

func (registry *Registry) resolve(name string) (*Task, error) {
	if len(strings.TrimSpace(name)) == 0 {
		return registry.Default()
	}
	return registry.Lookup(name)
}
