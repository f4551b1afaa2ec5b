package tasks

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const (
	registryNotConfiguredMessageConstant = "task registry not configured"
	taskStartedMessageConstant           = "task started"
	taskCompletedMessageConstant         = "task completed"
	taskFailedMessageConstant            = "task failed"
	taskSkippedMessageConstant           = "task already executed in this run"
	runRejectedMessageConstant           = "task run rejected"
	taskNameFieldConstant                = "task"
	requestedTaskFieldConstant           = "requested_task"
	argumentsFieldConstant               = "arguments"
	durationFieldConstant                = "duration"
)

// ErrRegistryNotConfigured indicates the runner was constructed without a registry.
var ErrRegistryNotConfigured = errors.New(registryNotConfiguredMessageConstant)

// State describes the progress of a single Run call.
type State string

// Run states. StateFailed is terminal and reachable from any other state.
const (
	StatePending              State = "pending"
	StateRunningPrerequisites State = "running_prerequisites"
	StateRunningBody          State = "running_body"
	StateDone                 State = "done"
	StateFailed               State = "failed"
)

// Outcome summarizes one Run call. Executed lists invoked bodies in invocation order,
// including a body that failed.
type Outcome struct {
	Task      string
	State     State
	Executed  []string
	StartTime time.Time
	EndTime   time.Time
}

// Duration reports the elapsed wall time of the run.
func (outcome Outcome) Duration() time.Duration {
	if outcome.EndTime.Before(outcome.StartTime) {
		return 0
	}
	return outcome.EndTime.Sub(outcome.StartTime)
}

// RunnerDependencies enumerates collaborators required by the Runner.
type RunnerDependencies struct {
	Registry *Registry
	Logger   *zap.Logger
	Clock    func() time.Time
}

// Runner executes registered tasks together with their transitive prerequisites.
type Runner struct {
	registry *Registry
	logger   *zap.Logger
	clock    func() time.Time
}

// NewRunner constructs a Runner from dependencies.
func NewRunner(dependencies RunnerDependencies) (*Runner, error) {
	if dependencies.Registry == nil {
		return nil, ErrRegistryNotConfigured
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := dependencies.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Runner{registry: dependencies.Registry, logger: logger, clock: clock}, nil
}

// Run executes the named task, or the default task when name is empty.
// Prerequisites run first, depth-first in declared order, without arguments and
// at most once per call; the requested body then receives arguments. The first
// failure is returned unchanged and nothing else runs.
func (runner *Runner) Run(executionContext context.Context, name string, arguments ...string) (Outcome, error) {
	outcome := Outcome{Task: name, State: StatePending, StartTime: runner.clock()}

	root, resolveError := runner.registry.resolve(name)
	if resolveError != nil {
		return runner.reject(outcome, resolveError)
	}
	outcome.Task = root.name

	if validationError := runner.registry.Validate(root.name); validationError != nil {
		return runner.reject(outcome, validationError)
	}

	executed := make(map[string]struct{})

	outcome.State = StateRunningPrerequisites
	for _, prerequisiteName := range root.prerequisites {
		if prerequisiteError := runner.runPrerequisite(executionContext, runner.registry.tasks[prerequisiteName], executed, &outcome); prerequisiteError != nil {
			outcome.State = StateFailed
			outcome.EndTime = runner.clock()
			return outcome, prerequisiteError
		}
	}

	outcome.State = StateRunningBody
	executed[root.name] = struct{}{}
	if bodyError := runner.invoke(executionContext, root, arguments, &outcome); bodyError != nil {
		outcome.State = StateFailed
		outcome.EndTime = runner.clock()
		return outcome, bodyError
	}

	outcome.State = StateDone
	outcome.EndTime = runner.clock()
	return outcome, nil
}

func (runner *Runner) runPrerequisite(executionContext context.Context, task *Task, executed map[string]struct{}, outcome *Outcome) error {
	if _, already := executed[task.name]; already {
		runner.logger.Debug(taskSkippedMessageConstant, zap.String(taskNameFieldConstant, task.name))
		return nil
	}

	for _, prerequisiteName := range task.prerequisites {
		if prerequisiteError := runner.runPrerequisite(executionContext, runner.registry.tasks[prerequisiteName], executed, outcome); prerequisiteError != nil {
			return prerequisiteError
		}
	}

	executed[task.name] = struct{}{}
	return runner.invoke(executionContext, task, nil, outcome)
}

func (runner *Runner) invoke(executionContext context.Context, task *Task, arguments []string, outcome *Outcome) error {
	startedAt := runner.clock()
	runner.logger.Info(taskStartedMessageConstant,
		zap.String(taskNameFieldConstant, task.name),
		zap.Strings(argumentsFieldConstant, arguments),
	)

	outcome.Executed = append(outcome.Executed, task.name)
	if bodyError := task.body(executionContext, arguments); bodyError != nil {
		runner.logger.Error(taskFailedMessageConstant,
			zap.String(taskNameFieldConstant, task.name),
			zap.Error(bodyError),
		)
		return bodyError
	}

	runner.logger.Info(taskCompletedMessageConstant,
		zap.String(taskNameFieldConstant, task.name),
		zap.Duration(durationFieldConstant, runner.clock().Sub(startedAt)),
	)
	return nil
}

func (runner *Runner) reject(outcome Outcome, rejection error) (Outcome, error) {
	runner.logger.Warn(runRejectedMessageConstant,
		zap.String(requestedTaskFieldConstant, outcome.Task),
		zap.Error(rejection),
	)
	outcome.State = StateFailed
	outcome.EndTime = runner.clock()
	return outcome, rejection
}
