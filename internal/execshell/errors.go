package execshell

import (
	"fmt"
	"strings"
)

const (
	exitStatusTemplateConstant        = "%s exited with status %d"
	runFailureTemplateConstant        = "%s did not run: %v"
	failureDetailSeparatorConstant    = " | "
	maximumFailureDetailLinesConstant = 3
)

// CommandFailedError is a process that ran and exited non-zero.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error renders the command line, the exit status and up to three non-blank lines of
// stderr, falling back to stdout when stderr is empty.
func (failure CommandFailedError) Error() string {
	message := fmt.Sprintf(exitStatusTemplateConstant, commandLine(failure.Command), failure.Result.ExitCode)
	detail := failureDetail(failure.Result.StandardError)
	if len(detail) == 0 {
		detail = failureDetail(failure.Result.StandardOutput)
	}
	if len(detail) == 0 {
		return message
	}
	return message + ": " + strings.Join(detail, failureDetailSeparatorConstant)
}

// CommandExecutionError is a process the runner could not start or wait for.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

func (failure CommandExecutionError) Error() string {
	return fmt.Sprintf(runFailureTemplateConstant, commandLine(failure.Command), failure.Cause)
}

func (failure CommandExecutionError) Unwrap() error {
	return failure.Cause
}

func commandLine(command ShellCommand) string {
	return strings.Join(append([]string{string(command.Name)}, command.Details.Arguments...), " ")
}

func failureDetail(output string) []string {
	detail := make([]string, 0, maximumFailureDetailLinesConstant)
	for _, line := range strings.Split(output, "\n") {
		if len(detail) == maximumFailureDetailLinesConstant {
			break
		}
		if trimmed := strings.TrimSpace(line); len(trimmed) > 0 {
			detail = append(detail, trimmed)
		}
	}
	return detail
}
