package execshell_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tyemirov/tasker/internal/execshell"
)

type scriptedRunner struct {
	result   execshell.ExecutionResult
	failure  error
	received []execshell.ShellCommand
}

func (runner *scriptedRunner) Run(_ context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	runner.received = append(runner.received, command)
	return runner.result, runner.failure
}

type loggedEvent struct {
	level   zapcore.Level
	message string
}

func eventsOf(logs *observer.ObservedLogs) []loggedEvent {
	events := make([]loggedEvent, 0, logs.Len())
	for _, entry := range logs.All() {
		events = append(events, loggedEvent{level: entry.Level, message: entry.Message})
	}
	return events
}

var pandocConversion = execshell.CommandDetails{
	Arguments:        []string{"--from=markdown", "--to=rst", "README.md"},
	WorkingDirectory: "/src/navio",
}

func TestNewShellExecutorRequiresCollaborators(t *testing.T) {
	_, loggerError := execshell.NewShellExecutor(nil, &scriptedRunner{}, false)
	require.ErrorIs(t, loggerError, execshell.ErrLoggerNotConfigured)

	_, runnerError := execshell.NewShellExecutor(zap.NewNop(), nil, true)
	require.ErrorIs(t, runnerError, execshell.ErrCommandRunnerNotConfigured)

	executor, creationError := execshell.NewShellExecutor(zap.NewNop(), &scriptedRunner{}, false)
	require.NoError(t, creationError)
	require.NotNil(t, executor)
}

func TestShellExecutorRejectsBlankCommandName(t *testing.T) {
	runner := &scriptedRunner{}
	executor, creationError := execshell.NewShellExecutor(zap.NewNop(), runner, false)
	require.NoError(t, creationError)

	_, executionError := executor.Execute(context.Background(), execshell.ShellCommand{Name: "\t"})
	require.ErrorIs(t, executionError, execshell.ErrCommandNameMissing)
	require.Empty(t, runner.received)
}

func TestShellExecutorStructuredEvents(t *testing.T) {
	testCases := []struct {
		name           string
		runner         *scriptedRunner
		expectedEvents []loggedEvent
		verifyError    func(*testing.T, error)
	}{
		{
			name:   "clean_exit",
			runner: &scriptedRunner{result: execshell.ExecutionResult{StandardOutput: "converted"}},
			expectedEvents: []loggedEvent{
				{level: zapcore.InfoLevel, message: "running command"},
				{level: zapcore.InfoLevel, message: "command finished"},
			},
		},
		{
			name:   "non_zero_exit",
			runner: &scriptedRunner{result: execshell.ExecutionResult{ExitCode: 64, StandardError: "pandoc: README.md: openFile: does not exist"}},
			expectedEvents: []loggedEvent{
				{level: zapcore.InfoLevel, message: "running command"},
				{level: zapcore.WarnLevel, message: "command exited with non-zero status"},
			},
			verifyError: func(t *testing.T, executionError error) {
				var failed execshell.CommandFailedError
				require.ErrorAs(t, executionError, &failed)
				require.Equal(t, 64, failed.Result.ExitCode)
				require.Equal(t, execshell.CommandPandoc, failed.Command.Name)
			},
		},
		{
			name:   "runner_failure",
			runner: &scriptedRunner{failure: errors.New(`exec: "pandoc": executable file not found in $PATH`)},
			expectedEvents: []loggedEvent{
				{level: zapcore.InfoLevel, message: "running command"},
				{level: zapcore.ErrorLevel, message: "command could not run"},
			},
			verifyError: func(t *testing.T, executionError error) {
				var notRun execshell.CommandExecutionError
				require.ErrorAs(t, executionError, &notRun)
				require.ErrorContains(t, executionError, "executable file not found")
			},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			executor, creationError := execshell.NewShellExecutor(zap.New(core), testCase.runner, false)
			require.NoError(t, creationError)

			result, executionError := executor.ExecutePandoc(context.Background(), pandocConversion)

			require.Equal(t, testCase.expectedEvents, eventsOf(logs))
			require.Equal(t, "pandoc", logs.All()[0].ContextMap()["command"])
			require.Equal(t, "/src/navio", logs.All()[0].ContextMap()["dir"])
			if testCase.verifyError == nil {
				require.NoError(t, executionError)
				require.Equal(t, "converted", result.StandardOutput)
				return
			}
			testCase.verifyError(t, executionError)
			require.Equal(t, execshell.ExecutionResult{}, result)
		})
	}
}

func TestShellExecutorConsoleSentences(t *testing.T) {
	testCases := []struct {
		name           string
		runner         *scriptedRunner
		expectedEvents []loggedEvent
	}{
		{
			name:   "clean_exit",
			runner: &scriptedRunner{},
			expectedEvents: []loggedEvent{
				{level: zapcore.InfoLevel, message: "Running pandoc --from=markdown --to=rst README.md (in /src/navio)"},
				{level: zapcore.InfoLevel, message: "Finished pandoc --from=markdown --to=rst README.md (in /src/navio)"},
			},
		},
		{
			name:   "non_zero_exit_quotes_first_stderr_line",
			runner: &scriptedRunner{result: execshell.ExecutionResult{ExitCode: 1, StandardError: "unknown reader\nsee --help"}},
			expectedEvents: []loggedEvent{
				{level: zapcore.InfoLevel, message: "Running pandoc --from=markdown --to=rst README.md (in /src/navio)"},
				{level: zapcore.WarnLevel, message: "pandoc --from=markdown --to=rst README.md (in /src/navio) failed (exit code 1: unknown reader)"},
			},
		},
		{
			name:   "runner_failure",
			runner: &scriptedRunner{failure: errors.New("signal: killed")},
			expectedEvents: []loggedEvent{
				{level: zapcore.InfoLevel, message: "Running pandoc --from=markdown --to=rst README.md (in /src/navio)"},
				{level: zapcore.ErrorLevel, message: "pandoc --from=markdown --to=rst README.md (in /src/navio) failed: signal: killed"},
			},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.InfoLevel)
			executor, creationError := execshell.NewShellExecutor(zap.New(core), testCase.runner, true)
			require.NoError(t, creationError)

			_, _ = executor.ExecutePandoc(context.Background(), pandocConversion)
			require.Equal(t, testCase.expectedEvents, eventsOf(logs))
			for _, entry := range logs.All() {
				require.Empty(t, entry.Context)
			}
		})
	}
}

func TestCommandFailedErrorMessage(t *testing.T) {
	upload := execshell.ShellCommand{Name: execshell.CommandTwine, Details: execshell.CommandDetails{Arguments: []string{"upload", "dist/*"}}}

	testCases := []struct {
		name     string
		result   execshell.ExecutionResult
		expected string
	}{
		{
			name:     "stderr_lines_capped_at_three",
			result:   execshell.ExecutionResult{ExitCode: 2, StandardError: "HTTPError: 403\n\n  Forbidden\nline three\nline four"},
			expected: "twine upload dist/* exited with status 2: HTTPError: 403 | Forbidden | line three",
		},
		{
			name:     "stdout_when_stderr_blank",
			result:   execshell.ExecutionResult{ExitCode: 1, StandardError: " \n", StandardOutput: "Uploading navio-0.2.0.tar.gz\n"},
			expected: "twine upload dist/* exited with status 1: Uploading navio-0.2.0.tar.gz",
		},
		{
			name:     "no_output",
			result:   execshell.ExecutionResult{ExitCode: 3},
			expected: "twine upload dist/* exited with status 3",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			require.Equal(t, testCase.expected, execshell.CommandFailedError{Command: upload, Result: testCase.result}.Error())
		})
	}
}

func TestCommandExecutionErrorUnwraps(t *testing.T) {
	cause := context.DeadlineExceeded
	failure := execshell.CommandExecutionError{Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: execshell.CommandDetails{Arguments: []string{"push"}}}, Cause: cause}

	require.ErrorIs(t, failure, context.DeadlineExceeded)
	require.Equal(t, "git push did not run: context deadline exceeded", failure.Error())
}

func TestShellExecutorNamedWrappers(t *testing.T) {
	wrappers := map[execshell.CommandName]func(*execshell.ShellExecutor, context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error){
		execshell.CommandGit:    (*execshell.ShellExecutor).ExecuteGit,
		execshell.CommandPandoc: (*execshell.ShellExecutor).ExecutePandoc,
		execshell.CommandEpydoc: (*execshell.ShellExecutor).ExecuteEpydoc,
		execshell.CommandPython: (*execshell.ShellExecutor).ExecutePython,
		execshell.CommandTwine:  (*execshell.ShellExecutor).ExecuteTwine,
		execshell.CommandSSHAdd: (*execshell.ShellExecutor).ExecuteSSHAdd,
	}

	for expectedName, wrapper := range wrappers {
		t.Run(string(expectedName), func(t *testing.T) {
			runner := &scriptedRunner{}
			executor, creationError := execshell.NewShellExecutor(zap.NewNop(), runner, false)
			require.NoError(t, creationError)

			_, executionError := wrapper(executor, context.Background(), execshell.CommandDetails{Arguments: []string{"--version"}})
			require.NoError(t, executionError)
			require.Len(t, runner.received, 1)
			require.Equal(t, expectedName, runner.received[0].Name)
			require.Equal(t, []string{"--version"}, runner.received[0].Details.Arguments)
		})
	}
}
