package releases

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/tasker/internal/execshell"
)

// queuedGit fails invocations in order with the queued errors; a nil entry or an empty queue succeeds.
type queuedGit struct {
	invocations []execshell.CommandDetails
	queued      []error
}

func (git *queuedGit) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	git.invocations = append(git.invocations, details)
	if len(git.queued) == 0 {
		return execshell.ExecutionResult{}, nil
	}
	next := git.queued[0]
	git.queued = git.queued[1:]
	return execshell.ExecutionResult{}, next
}

func newTestService(t *testing.T, git *queuedGit) *Service {
	t.Helper()
	service, creationError := NewService(ServiceDependencies{GitExecutor: git})
	require.NoError(t, creationError)
	return service
}

func TestTagVersion(t *testing.T) {
	testCases := []struct {
		name            string
		template        string
		expectedMessage string
	}{
		{name: "default_template", expectedMessage: "Tagging version 0.1.10"},
		{name: "blank_template", template: "  ", expectedMessage: "Tagging version 0.1.10"},
		{name: "configured_template", template: "Release %s", expectedMessage: "Release 0.1.10"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			git := &queuedGit{}
			options := TagOptions{RepositoryPath: "/src/navio", Version: " 0.1.10 ", MessageTemplate: testCase.template}

			require.NoError(t, newTestService(t, git).TagVersion(context.Background(), options))
			require.Len(t, git.invocations, 1)
			require.Equal(t, []string{"tag", "-a", "-m", testCase.expectedMessage, "0.1.10"}, git.invocations[0].Arguments)
			require.Equal(t, "/src/navio", git.invocations[0].WorkingDirectory)
		})
	}
}

func TestTagVersionRejectsBlankInput(t *testing.T) {
	git := &queuedGit{}
	service := newTestService(t, git)

	require.ErrorIs(t, service.TagVersion(context.Background(), TagOptions{Version: "1.0"}), ErrRepositoryPathRequired)
	require.ErrorIs(t, service.TagVersion(context.Background(), TagOptions{RepositoryPath: "."}), ErrVersionRequired)
	require.Empty(t, git.invocations)
}

func TestTagVersionReportsExistingTag(t *testing.T) {
	exists := errors.New("fatal: tag '1.0' already exists")
	tagError := newTestService(t, &queuedGit{queued: []error{exists}}).TagVersion(context.Background(), TagOptions{RepositoryPath: ".", Version: "1.0"})

	require.ErrorIs(t, tagError, exists)
	require.ErrorContains(t, tagError, "tag 1.0: ")
}

func TestPublish(t *testing.T) {
	testCases := []struct {
		name              string
		queued            []error
		expectedArguments [][]string
		expectedError     string
	}{
		{
			name:              "branch_then_tags",
			expectedArguments: [][]string{{"push", "--verbose", "origin"}, {"push", "--tags", "--verbose", "origin"}},
		},
		{
			name:              "rejected_branch_skips_tags",
			queued:            []error{errors.New("rejected")},
			expectedArguments: [][]string{{"push", "--verbose", "origin"}},
			expectedError:     "push branch: ",
		},
		{
			name:              "rejected_tags",
			queued:            []error{nil, errors.New("rejected")},
			expectedArguments: [][]string{{"push", "--verbose", "origin"}, {"push", "--tags", "--verbose", "origin"}},
			expectedError:     "push tags: ",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			git := &queuedGit{queued: testCase.queued}
			publishError := newTestService(t, git).Publish(context.Background(), PublishOptions{RepositoryPath: ".", RemoteName: "origin"})

			if len(testCase.expectedError) > 0 {
				require.ErrorContains(t, publishError, testCase.expectedError)
			} else {
				require.NoError(t, publishError)
			}
			arguments := make([][]string, 0, len(git.invocations))
			for _, invocation := range git.invocations {
				arguments = append(arguments, invocation.Arguments)
			}
			require.Equal(t, testCase.expectedArguments, arguments)
		})
	}
}

func TestPublishRejectsBlankRepositoryPath(t *testing.T) {
	require.ErrorIs(t, newTestService(t, &queuedGit{}).Publish(context.Background(), PublishOptions{}), ErrRepositoryPathRequired)
}

func TestNewServiceRequiresExecutor(t *testing.T) {
	_, creationError := NewService(ServiceDependencies{})
	require.ErrorIs(t, creationError, ErrGitExecutorNotConfigured)
}
