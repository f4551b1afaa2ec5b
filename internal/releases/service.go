package releases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tyemirov/tasker/internal/gitrepo"
)

// DefaultTagMessageTemplateConstant is used when TagOptions carries no template.
const DefaultTagMessageTemplateConstant = "Tagging version %s"

const (
	missingRepositoryPathMessage = "release repository path is blank"
	missingVersionMessage        = "release version is blank"
	tagFailureTemplate           = "tag %s: %w"
	branchPushFailureTemplate    = "push branch: %w"
	tagPushFailureTemplate       = "push tags: %w"
)

var (
	// ErrRepositoryPathRequired is returned for a blank RepositoryPath.
	ErrRepositoryPathRequired = errors.New(missingRepositoryPathMessage)
	// ErrVersionRequired is returned by TagVersion for a blank Version.
	ErrVersionRequired = errors.New(missingVersionMessage)
	// ErrGitExecutorNotConfigured is returned by NewService without an executor.
	ErrGitExecutorNotConfigured = gitrepo.ErrGitExecutorNotConfigured
)

// ServiceDependencies carries the git executor shared with the rest of the release tasks.
type ServiceDependencies struct {
	GitExecutor gitrepo.GitCommandExecutor
}

// TagOptions names the version to tag and how to annotate it.
type TagOptions struct {
	RepositoryPath  string
	Version         string
	MessageTemplate string
}

// PublishOptions names where a release is pushed. A blank remote means the branch upstream.
type PublishOptions struct {
	RepositoryPath string
	RemoteName     string
}

// Service tags versions and pushes them.
type Service struct {
	repository *gitrepo.RepositoryManager
}

func NewService(dependencies ServiceDependencies) (*Service, error) {
	repository, repositoryError := gitrepo.NewRepositoryManager(dependencies.GitExecutor)
	if repositoryError != nil {
		return nil, repositoryError
	}
	return &Service{repository: repository}, nil
}

// TagVersion creates an annotated tag named exactly like the version.
func (service *Service) TagVersion(executionContext context.Context, options TagOptions) error {
	repositoryPath, version := strings.TrimSpace(options.RepositoryPath), strings.TrimSpace(options.Version)
	switch {
	case len(repositoryPath) == 0:
		return ErrRepositoryPathRequired
	case len(version) == 0:
		return ErrVersionRequired
	}

	template := options.MessageTemplate
	if len(strings.TrimSpace(template)) == 0 {
		template = DefaultTagMessageTemplateConstant
	}
	if tagError := service.repository.CreateAnnotatedTag(executionContext, repositoryPath, version, fmt.Sprintf(template, version)); tagError != nil {
		return fmt.Errorf(tagFailureTemplate, version, tagError)
	}
	return nil
}

// Publish pushes the branch and then its tags, so a rejected branch push never publishes a tag.
func (service *Service) Publish(executionContext context.Context, options PublishOptions) error {
	repositoryPath := strings.TrimSpace(options.RepositoryPath)
	if len(repositoryPath) == 0 {
		return ErrRepositoryPathRequired
	}
	if pushError := service.repository.Push(executionContext, repositoryPath, options.RemoteName, false); pushError != nil {
		return fmt.Errorf(branchPushFailureTemplate, pushError)
	}
	if pushError := service.repository.Push(executionContext, repositoryPath, options.RemoteName, true); pushError != nil {
		return fmt.Errorf(tagPushFailureTemplate, pushError)
	}
	return nil
}
