package execshell

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	missingLoggerMessageConstant      = "shell executor requires a logger"
	missingRunnerMessageConstant      = "shell executor requires a command runner"
	blankCommandNameMessageConstant   = "command name is blank"
	commandStartedEventConstant       = "running command"
	commandFinishedEventConstant      = "command finished"
	commandExitedNonZeroEventConstant = "command exited with non-zero status"
	commandNotRunEventConstant        = "command could not run"
	logFieldCommandConstant           = "command"
	logFieldArgumentsConstant         = "args"
	logFieldDirectoryConstant         = "dir"
	logFieldExitCodeConstant          = "exit_code"
	logFieldStandardErrorConstant     = "stderr"
)

// CommandName is the executable a ShellCommand starts.
type CommandName string

// Executables invoked by the release tasks.
const (
	CommandGit    CommandName = "git"
	CommandPandoc CommandName = "pandoc"
	CommandEpydoc CommandName = "epydoc"
	CommandPython CommandName = "python"
	CommandTwine  CommandName = "twine"
	CommandSSHAdd CommandName = "ssh-add"
)

// CommandDetails carries everything about an invocation except the executable.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
	// PassthroughOutput streams the child's output to the terminal in addition to capturing it.
	PassthroughOutput bool
}

// ShellCommand pairs an executable with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult is what a finished process left behind.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner starts a process and waits for it.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

var (
	// ErrLoggerNotConfigured is returned by NewShellExecutor without a logger.
	ErrLoggerNotConfigured = errors.New(missingLoggerMessageConstant)
	// ErrCommandRunnerNotConfigured is returned by NewShellExecutor without a runner.
	ErrCommandRunnerNotConfigured = errors.New(missingRunnerMessageConstant)
	// ErrCommandNameMissing is returned by Execute for a blank executable name.
	ErrCommandNameMissing = errors.New(blankCommandNameMessageConstant)
)

// ShellExecutor runs commands through a CommandRunner and logs each one.
// Console mode logs one readable sentence per event; otherwise events carry structured fields.
type ShellExecutor struct {
	commandRunner   CommandRunner
	logger          *zap.Logger
	consoleMessages bool
	formatter       CommandMessageFormatter
}

// NewShellExecutor validates its collaborators.
func NewShellExecutor(logger *zap.Logger, commandRunner CommandRunner, consoleMessages bool) (*ShellExecutor, error) {
	switch {
	case logger == nil:
		return nil, ErrLoggerNotConfigured
	case commandRunner == nil:
		return nil, ErrCommandRunnerNotConfigured
	}
	return &ShellExecutor{commandRunner: commandRunner, logger: logger, consoleMessages: consoleMessages}, nil
}

// Execute runs the command. A runner failure becomes CommandExecutionError and a
// non-zero exit becomes CommandFailedError; both return an empty result.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	if len(strings.TrimSpace(string(command.Name))) == 0 {
		return ExecutionResult{}, ErrCommandNameMissing
	}

	executor.report(zapcore.InfoLevel, command, commandStartedEventConstant, executor.formatter.BuildStartedMessage(command),
		zap.Strings(logFieldArgumentsConstant, command.Details.Arguments),
		zap.String(logFieldDirectoryConstant, command.Details.WorkingDirectory))

	result, runError := executor.commandRunner.Run(executionContext, command)
	switch {
	case runError != nil:
		executor.report(zapcore.ErrorLevel, command, commandNotRunEventConstant, executor.formatter.BuildExecutionFailureMessage(command, runError),
			zap.Error(runError))
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: runError}
	case result.ExitCode != 0:
		executor.report(zapcore.WarnLevel, command, commandExitedNonZeroEventConstant, executor.formatter.BuildFailureMessage(command, result),
			zap.Int(logFieldExitCodeConstant, result.ExitCode),
			zap.String(logFieldStandardErrorConstant, result.StandardError))
		return ExecutionResult{}, CommandFailedError{Command: command, Result: result}
	}

	executor.report(zapcore.InfoLevel, command, commandFinishedEventConstant, executor.formatter.BuildSuccessMessage(command))
	return result, nil
}

// report writes one lifecycle event. Structured events always name the command.
func (executor *ShellExecutor) report(level zapcore.Level, command ShellCommand, event string, sentence string, fields ...zap.Field) {
	if executor.consoleMessages {
		executor.logger.Log(level, sentence)
		return
	}
	eventFields := append([]zap.Field{zap.String(logFieldCommandConstant, string(command.Name))}, fields...)
	executor.logger.Log(level, event, eventFields...)
}

// ExecuteGit runs git.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}

// ExecutePandoc runs the pandoc document converter.
func (executor *ShellExecutor) ExecutePandoc(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandPandoc, Details: details})
}

// ExecuteEpydoc runs the epydoc API documentation generator.
func (executor *ShellExecutor) ExecuteEpydoc(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandEpydoc, Details: details})
}

// ExecutePython runs the python interpreter.
func (executor *ShellExecutor) ExecutePython(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandPython, Details: details})
}

// ExecuteTwine runs the twine package uploader.
func (executor *ShellExecutor) ExecuteTwine(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandTwine, Details: details})
}

// ExecuteSSHAdd runs ssh-add.
func (executor *ShellExecutor) ExecuteSSHAdd(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandSSHAdd, Details: details})
}
