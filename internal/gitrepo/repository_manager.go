package gitrepo

import (
	"context"
	"strings"

	"github.com/tyemirov/tasker/internal/execshell"
)

const (
	statusCommandConstant       = "status"
	porcelainFlagConstant       = "--porcelain"
	pathspecSeparatorConstant   = "--"
	commitCommandConstant       = "commit"
	messageFlagConstant         = "-m"
	pushCommandConstant         = "push"
	tagCommandConstant          = "tag"
	annotatedFlagConstant       = "-a"
	pushTagsFlagConstant        = "--tags"
	verboseFlagConstant         = "--verbose"
	terminalPromptVariable      = "GIT_TERMINAL_PROMPT"
	terminalPromptDisabled      = "0"
	repositoryPathFieldConstant = "repository path"
	commitPathsFieldConstant    = "commit paths"
	commitMessageFieldConstant  = "commit message"
	tagNameFieldConstant        = "tag name"
	tagMessageFieldConstant     = "tag message"
	statusOperationConstant     = RepositoryOperationName("status")
	commitOperationConstant     = RepositoryOperationName("commit")
	pushOperationConstant       = RepositoryOperationName("push")
	tagOperationConstant        = RepositoryOperationName("tag")
)

// GitCommandExecutor is the part of execshell.ShellExecutor the manager needs.
type GitCommandExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryManager runs the handful of git commands the release tasks depend on.
type RepositoryManager struct {
	executor GitCommandExecutor
}

func NewRepositoryManager(executor GitCommandExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// RequireCleanWorktree fails with UncommittedChangesError when git status reports anything.
func (manager *RepositoryManager) RequireCleanWorktree(executionContext context.Context, repositoryPath string) error {
	entries, statusError := manager.WorktreeStatus(executionContext, repositoryPath)
	if statusError != nil {
		return statusError
	}
	if len(entries) > 0 {
		return UncommittedChangesError{RepositoryPath: strings.TrimSpace(repositoryPath), Entries: entries}
	}
	return nil
}

// WorktreeStatus returns one porcelain line per pending change, optionally restricted to paths.
// A clean tree yields nil.
func (manager *RepositoryManager) WorktreeStatus(executionContext context.Context, repositoryPath string, paths ...string) ([]string, error) {
	workingDirectory, pathError := requireValue(repositoryPathFieldConstant, repositoryPath)
	if pathError != nil {
		return nil, pathError
	}

	arguments := []string{statusCommandConstant, porcelainFlagConstant}
	if len(paths) > 0 {
		arguments = append(append(arguments, pathspecSeparatorConstant), paths...)
	}

	result, runError := manager.git(executionContext, statusOperationConstant, execshell.CommandDetails{Arguments: arguments, WorkingDirectory: workingDirectory})
	if runError != nil {
		return nil, runError
	}
	entries := nonBlankLines(strings.Split(result.StandardOutput, "\n"))
	if len(entries) == 0 {
		return nil, nil
	}
	return entries, nil
}

// CommitPaths commits only the listed paths. When none of them has pending changes it
// returns false and leaves the repository alone, so regenerating identical files is not an error.
func (manager *RepositoryManager) CommitPaths(executionContext context.Context, repositoryPath string, paths []string, message string) (bool, error) {
	workingDirectory, pathError := requireValue(repositoryPathFieldConstant, repositoryPath)
	if pathError != nil {
		return false, pathError
	}
	targets := nonBlankLines(paths)
	if len(targets) == 0 {
		return false, InvalidRepositoryInputError{FieldName: commitPathsFieldConstant}
	}
	commitMessage, messageError := requireValue(commitMessageFieldConstant, message)
	if messageError != nil {
		return false, messageError
	}

	pending, statusError := manager.WorktreeStatus(executionContext, workingDirectory, targets...)
	if statusError != nil || len(pending) == 0 {
		return false, statusError
	}

	arguments := append(append([]string{commitCommandConstant}, targets...), messageFlagConstant, commitMessage)
	if _, commitError := manager.git(executionContext, commitOperationConstant, execshell.CommandDetails{Arguments: arguments, WorkingDirectory: workingDirectory}); commitError != nil {
		return false, commitError
	}
	return true, nil
}

// Push runs git push --verbose, with --tags when tags is set. A blank remote lets git use
// the branch upstream. Credential prompts are disabled so an unattended run fails instead of hanging.
func (manager *RepositoryManager) Push(executionContext context.Context, repositoryPath string, remoteName string, tags bool) error {
	workingDirectory, pathError := requireValue(repositoryPathFieldConstant, repositoryPath)
	if pathError != nil {
		return pathError
	}

	arguments := []string{pushCommandConstant}
	if tags {
		arguments = append(arguments, pushTagsFlagConstant)
	}
	arguments = append(arguments, verboseFlagConstant)
	if remote := strings.TrimSpace(remoteName); len(remote) > 0 {
		arguments = append(arguments, remote)
	}

	_, pushError := manager.git(executionContext, pushOperationConstant, execshell.CommandDetails{
		Arguments:            arguments,
		WorkingDirectory:     workingDirectory,
		EnvironmentVariables: map[string]string{terminalPromptVariable: terminalPromptDisabled},
		PassthroughOutput:    true,
	})
	return pushError
}

// CreateAnnotatedTag runs git tag -a with the message. An existing tag of the same name is a git error.
func (manager *RepositoryManager) CreateAnnotatedTag(executionContext context.Context, repositoryPath string, tagName string, message string) error {
	workingDirectory, pathError := requireValue(repositoryPathFieldConstant, repositoryPath)
	if pathError != nil {
		return pathError
	}
	name, nameError := requireValue(tagNameFieldConstant, tagName)
	if nameError != nil {
		return nameError
	}
	annotation, annotationError := requireValue(tagMessageFieldConstant, message)
	if annotationError != nil {
		return annotationError
	}

	_, tagError := manager.git(executionContext, tagOperationConstant, execshell.CommandDetails{
		Arguments:            []string{tagCommandConstant, annotatedFlagConstant, messageFlagConstant, annotation, name},
		WorkingDirectory:     workingDirectory,
		EnvironmentVariables: map[string]string{terminalPromptVariable: terminalPromptDisabled},
	})
	return tagError
}

func (manager *RepositoryManager) git(executionContext context.Context, operation RepositoryOperationName, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	result, executionError := manager.executor.ExecuteGit(executionContext, details)
	if executionError != nil {
		return execshell.ExecutionResult{}, RepositoryOperationError{Operation: operation, Cause: executionError}
	}
	return result, nil
}

func requireValue(fieldName string, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return "", InvalidRepositoryInputError{FieldName: fieldName}
	}
	return trimmed, nil
}

func nonBlankLines(values []string) []string {
	kept := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); len(trimmed) > 0 {
			kept = append(kept, trimmed)
		}
	}
	return kept
}
