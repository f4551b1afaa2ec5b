package packages

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/tyemirov/tasker/internal/execshell"
)

const (
	executorMissingErrorMessageConstant     = "package executor must be provided"
	pullRequestActiveValueConstant          = "true"
	homeDirectoryPrefixConstant             = "~/"
	twineUploadSubcommandConstant           = "upload"
	twineRepositoryURLFlagConstant          = "--repository-url"
	twineSkipExistingFlagConstant           = "--skip-existing"
	setupUploadCommandConstant              = "upload"
	uploadDestinationMessageConstant        = "Selected package upload destination"
	repositoryURLLogFieldNameConstant       = "repository_url"
	productionLogFieldNameConstant          = "production"
	artifactsLogFieldNameConstant           = "artifacts"
	buildFailureTemplateConstant            = "unable to build source distribution: %w"
	uploadFailureTemplateConstant           = "unable to upload distributions to %s: %w"
	registerKeyFailureTemplateConstant      = "unable to register ssh key %s: %w"
	legacyUploadFailureTemplateConstant     = "unable to upload distributions with %s: %w"
	homeDirectoryResolutionTemplateConstant = "unable to resolve home directory for %s: %w"
)

// ErrExecutorNotConfigured indicates the Publisher was constructed without a command executor.
var ErrExecutorNotConfigured = errors.New(executorMissingErrorMessageConstant)

// CommandExecutor runs the packaging tools.
type CommandExecutor interface {
	ExecutePython(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteTwine(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteSSHAdd(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// EnvironmentLookup reads a process environment variable.
type EnvironmentLookup func(name string) (string, bool)

// HomeDirectoryResolver returns the current user's home directory.
type HomeDirectoryResolver func() (string, error)

// Dependencies enumerates collaborators required by the Publisher.
type Dependencies struct {
	Executor          CommandExecutor
	Logger            *zap.Logger
	LookupEnvironment EnvironmentLookup
	HomeDirectory     HomeDirectoryResolver
}

// Destination describes where twine uploads distributions.
type Destination struct {
	RepositoryURL string
	Production    bool
	SkipExisting  bool
}

// Publisher builds and uploads Python distributions.
type Publisher struct {
	executor          CommandExecutor
	logger            *zap.Logger
	lookupEnvironment EnvironmentLookup
	homeDirectory     HomeDirectoryResolver
	configuration     Configuration
}

// NewPublisher constructs a Publisher. Unset environment and home directory resolvers use the current process.
func NewPublisher(dependencies Dependencies, configuration Configuration) (*Publisher, error) {
	if dependencies.Executor == nil {
		return nil, ErrExecutorNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	lookupEnvironment := dependencies.LookupEnvironment
	if lookupEnvironment == nil {
		lookupEnvironment = os.LookupEnv
	}

	homeDirectory := dependencies.HomeDirectory
	if homeDirectory == nil {
		homeDirectory = os.UserHomeDir
	}

	return &Publisher{
		executor:          dependencies.Executor,
		logger:            logger,
		lookupEnvironment: lookupEnvironment,
		homeDirectory:     homeDirectory,
		configuration:     configuration.Sanitize(),
	}, nil
}

// BuildSourceDistribution runs `python setup.py sdist`.
func (publisher *Publisher) BuildSourceDistribution(executionContext context.Context, workingDirectory string) error {
	if _, err := publisher.executor.ExecutePython(executionContext, execshell.CommandDetails{
		Arguments:         []string{publisher.configuration.SetupScript, sourceDistributionFormatConstant},
		WorkingDirectory:  workingDirectory,
		PassthroughOutput: true,
	}); err != nil {
		return fmt.Errorf(buildFailureTemplateConstant, err)
	}
	return nil
}

// ResolveDestination selects the production index only for tagged builds outside a pull request.
func (publisher *Publisher) ResolveDestination() Destination {
	pullRequestValue, _ := publisher.lookupEnvironment(publisher.configuration.PullRequestVariable)
	releaseTagValue, _ := publisher.lookupEnvironment(publisher.configuration.ReleaseTagVariable)

	pullRequestActive := pullRequestValue == pullRequestActiveValueConstant
	if !pullRequestActive && len(releaseTagValue) > 0 {
		return Destination{RepositoryURL: publisher.configuration.ProductionRepositoryURL, Production: true}
	}
	return Destination{RepositoryURL: publisher.configuration.TestRepositoryURL, SkipExisting: true}
}

// UploadArguments builds the twine argument list for the resolved destination.
func (publisher *Publisher) UploadArguments() []string {
	destination := publisher.ResolveDestination()
	arguments := []string{twineUploadSubcommandConstant}
	if destination.SkipExisting {
		arguments = append(arguments, twineSkipExistingFlagConstant)
	}
	return append(arguments, twineRepositoryURLFlagConstant, destination.RepositoryURL, publisher.configuration.ArtifactGlob)
}

// Upload runs twine against the destination chosen from the environment.
func (publisher *Publisher) Upload(executionContext context.Context, workingDirectory string) error {
	destination := publisher.ResolveDestination()
	publisher.logger.Info(
		uploadDestinationMessageConstant,
		zap.String(repositoryURLLogFieldNameConstant, destination.RepositoryURL),
		zap.Bool(productionLogFieldNameConstant, destination.Production),
		zap.String(artifactsLogFieldNameConstant, publisher.configuration.ArtifactGlob),
	)

	if _, err := publisher.executor.ExecuteTwine(executionContext, execshell.CommandDetails{
		Arguments:         publisher.UploadArguments(),
		WorkingDirectory:  workingDirectory,
		PassthroughOutput: true,
	}); err != nil {
		return fmt.Errorf(uploadFailureTemplateConstant, destination.RepositoryURL, err)
	}
	return nil
}

// LegacyUpload registers the ssh key with the agent and then runs `setup.py <formats> upload`.
func (publisher *Publisher) LegacyUpload(executionContext context.Context, workingDirectory string) error {
	keyPath, keyPathError := publisher.expandHomeDirectory(publisher.configuration.SSHKeyPath)
	if keyPathError != nil {
		return keyPathError
	}

	if _, err := publisher.executor.ExecuteSSHAdd(executionContext, execshell.CommandDetails{
		Arguments:         []string{keyPath},
		WorkingDirectory:  workingDirectory,
		PassthroughOutput: true,
	}); err != nil {
		return fmt.Errorf(registerKeyFailureTemplateConstant, keyPath, err)
	}

	arguments := append([]string{publisher.configuration.SetupScript}, publisher.configuration.LegacyFormats...)
	arguments = append(arguments, setupUploadCommandConstant)
	if _, err := publisher.executor.ExecutePython(executionContext, execshell.CommandDetails{
		Arguments:         arguments,
		WorkingDirectory:  workingDirectory,
		PassthroughOutput: true,
	}); err != nil {
		return fmt.Errorf(legacyUploadFailureTemplateConstant, publisher.configuration.SetupScript, err)
	}
	return nil
}

func (publisher *Publisher) expandHomeDirectory(path string) (string, error) {
	if !strings.HasPrefix(path, homeDirectoryPrefixConstant) {
		return path, nil
	}
	homeDirectory, homeError := publisher.homeDirectory()
	if homeError != nil {
		return "", fmt.Errorf(homeDirectoryResolutionTemplateConstant, path, homeError)
	}
	return filepath.Join(homeDirectory, strings.TrimPrefix(path, homeDirectoryPrefixConstant)), nil
}
