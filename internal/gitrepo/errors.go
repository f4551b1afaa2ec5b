package gitrepo

import (
	"errors"
	"fmt"
	"strings"
)

const (
	missingExecutorMessageConstant = "repository manager requires a git executor"
	blankInputTemplateConstant     = "%s must not be blank"
	operationFailureTemplate       = "git %s: %v"
	operationFailureBareTemplate   = "git %s failed"
	pendingChangesTemplate         = "%s has uncommitted changes: %s"
)

// ErrGitExecutorNotConfigured is returned by NewRepositoryManager without an executor.
var ErrGitExecutorNotConfigured = errors.New(missingExecutorMessageConstant)

// InvalidRepositoryInputError names an argument that was blank.
type InvalidRepositoryInputError struct {
	FieldName string
}

func (inputError InvalidRepositoryInputError) Error() string {
	return fmt.Sprintf(blankInputTemplateConstant, inputError.FieldName)
}

// RepositoryOperationName labels the manager method that failed.
type RepositoryOperationName string

// RepositoryOperationError wraps the execshell error behind a failed git invocation.
type RepositoryOperationError struct {
	Operation RepositoryOperationName
	Cause     error
}

func (operationError RepositoryOperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationFailureBareTemplate, operationError.Operation)
	}
	return fmt.Sprintf(operationFailureTemplate, operationError.Operation, operationError.Cause)
}

func (operationError RepositoryOperationError) Unwrap() error {
	return operationError.Cause
}

// UncommittedChangesError is returned where a clean worktree is required. Entries are porcelain status lines.
type UncommittedChangesError struct {
	RepositoryPath string
	Entries        []string
}

func (changesError UncommittedChangesError) Error() string {
	return fmt.Sprintf(pendingChangesTemplate, changesError.RepositoryPath, strings.Join(changesError.Entries, ", "))
}
