package execshell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
)

const environmentAssignmentTemplateConstant = "%s=%s"

// OSCommandRunner executes commands as child processes of the current process.
type OSCommandRunner struct {
	standardOutput io.Writer
	standardError  io.Writer
}

// NewOSCommandRunner passes output through to the process stdout and stderr when a command asks for it.
func NewOSCommandRunner() OSCommandRunner {
	return NewOSCommandRunnerWithOutput(os.Stdout, os.Stderr)
}

// NewOSCommandRunnerWithOutput passes output through to the given writers. A nil writer disables passthrough for that stream.
func NewOSCommandRunnerWithOutput(standardOutput io.Writer, standardError io.Writer) OSCommandRunner {
	return OSCommandRunner{standardOutput: standardOutput, standardError: standardError}
}

// Run executes the command, blocking until it exits. A non-zero exit is reported through ExecutionResult.ExitCode.
func (runner OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	if executionContext == nil {
		executionContext = context.Background()
	}

	process := exec.CommandContext(executionContext, string(command.Name), command.Details.Arguments...)
	process.Dir = command.Details.WorkingDirectory
	if len(command.Details.EnvironmentVariables) > 0 {
		process.Env = mergeEnvironment(os.Environ(), command.Details.EnvironmentVariables)
	}
	if len(command.Details.StandardInput) > 0 {
		process.Stdin = bytes.NewReader(command.Details.StandardInput)
	}

	var standardOutputBuffer bytes.Buffer
	var standardErrorBuffer bytes.Buffer
	process.Stdout = &standardOutputBuffer
	process.Stderr = &standardErrorBuffer
	if command.Details.PassthroughOutput {
		if runner.standardOutput != nil {
			process.Stdout = io.MultiWriter(&standardOutputBuffer, runner.standardOutput)
		}
		if runner.standardError != nil {
			process.Stderr = io.MultiWriter(&standardErrorBuffer, runner.standardError)
		}
	}

	runError := process.Run()
	result := ExecutionResult{
		StandardOutput: standardOutputBuffer.String(),
		StandardError:  standardErrorBuffer.String(),
	}
	if runError == nil {
		return result, nil
	}

	var exitError *exec.ExitError
	if errors.As(runError, &exitError) && executionContext.Err() == nil {
		result.ExitCode = exitError.ExitCode()
		return result, nil
	}
	return ExecutionResult{}, runError
}

func mergeEnvironment(base []string, overrides map[string]string) []string {
	merged := make([]string, 0, len(base)+len(overrides))
	merged = append(merged, base...)

	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		merged = append(merged, fmt.Sprintf(environmentAssignmentTemplateConstant, key, overrides[key]))
	}
	return merged
}
