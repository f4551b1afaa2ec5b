// Package releasetasks registers the release automation tasks for a Python package repository.
package releasetasks

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/tyemirov/tasker/internal/docgen"
	"github.com/tyemirov/tasker/internal/execshell"
	"github.com/tyemirov/tasker/internal/gitrepo"
	"github.com/tyemirov/tasker/internal/packages"
	"github.com/tyemirov/tasker/internal/releases"
	"github.com/tyemirov/tasker/internal/tasks"
	"github.com/tyemirov/tasker/internal/version"
)

// Built-in task names.
const (
	TaskAPIDoc           = "apidoc"
	TaskTest             = "test"
	TaskCheckUncommitted = "check-uncommitted"
	TaskGenerateRST      = "generate-rst"
	TaskUpdateVersion    = "update-version"
	TaskCreateTag        = "create-tag"
	TaskPush             = "push"
	TaskUpload           = "upload"
	TaskRelease          = "release"
	TaskPyPI             = "pypi"
)

const (
	executorMissingMessageConstant      = "release task executor must be provided"
	registryMissingMessageConstant      = "task registry must be provided"
	versionFileMissingMessageConstant   = "release.version_file must be configured"
	commandTaskInvalidTemplateConstant  = "task %q: command must not be empty"
	versionUpdatedMessageConstant       = "Version updated"
	versionTaggedMessageConstant        = "Version tagged"
	previousVersionLogFieldNameConstant = "previous_version"
	newVersionLogFieldNameConstant      = "new_version"
	versionLogFieldNameConstant         = "version"
	versionFileLogFieldNameConstant     = "version_file"
	pathsLogFieldNameConstant           = "paths"
	nothingToCommitMessageConstant      = "No changes to commit"
	apiDocDescriptionConstant           = "Generate API documentation using epydoc."
	testDescriptionConstant             = "Run unit tests."
	checkUncommittedDescriptionConstant = "Fail when the working tree has uncommitted changes."
	generateRSTDescriptionConstant      = "Convert markdown documents to reStructuredText and commit them."
	updateVersionDescriptionConstant    = "Bump the package version and commit the change."
	createTagDescriptionConstant        = "Tag the current package version."
	pushDescriptionConstant             = "Push commits and tags."
	uploadDescriptionConstant           = "Upload distributions with setup.py."
	releaseDescriptionConstant          = "Check, bump, tag, regenerate docs and push."
	pypiDescriptionConstant             = "Build a source distribution and upload it with twine."
)

var (
	// ErrExecutorNotConfigured indicates the catalog was built without a command executor.
	ErrExecutorNotConfigured = errors.New(executorMissingMessageConstant)
	// ErrRegistryNotConfigured indicates a nil registry was supplied.
	ErrRegistryNotConfigured = errors.New(registryMissingMessageConstant)
	// ErrVersionFileNotConfigured indicates a version task ran without a configured version file.
	ErrVersionFileNotConfigured = errors.New(versionFileMissingMessageConstant)
)

// InvalidCommandTaskError reports a configured command task without a command.
type InvalidCommandTaskError struct {
	Name string
}

// Error describes the invalid definition.
func (taskError InvalidCommandTaskError) Error() string {
	return fmt.Sprintf(commandTaskInvalidTemplateConstant, taskError.Name)
}

// Executor runs every external tool used by the catalog.
type Executor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecutePandoc(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteEpydoc(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecutePython(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteTwine(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteSSHAdd(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Dependencies enumerates collaborators required by the catalog.
type Dependencies struct {
	Executor          Executor
	Logger            *zap.Logger
	LookupEnvironment packages.EnvironmentLookup
	HomeDirectory     packages.HomeDirectoryResolver
}

// Catalog holds the services behind the built-in task bodies.
type Catalog struct {
	configuration Configuration
	executor      Executor
	logger        *zap.Logger
	repository    *gitrepo.RepositoryManager
	releases      *releases.Service
	documentation *docgen.Generator
	publisher     *packages.Publisher
}

// NewCatalog constructs the services for the configuration.
func NewCatalog(configuration Configuration, dependencies Dependencies) (*Catalog, error) {
	if dependencies.Executor == nil {
		return nil, ErrExecutorNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	repositoryManager, repositoryError := gitrepo.NewRepositoryManager(dependencies.Executor)
	if repositoryError != nil {
		return nil, repositoryError
	}

	releaseService, releaseError := releases.NewService(releases.ServiceDependencies{GitExecutor: dependencies.Executor})
	if releaseError != nil {
		return nil, releaseError
	}

	documentationGenerator, documentationError := docgen.NewGenerator(dependencies.Executor, logger)
	if documentationError != nil {
		return nil, documentationError
	}

	sanitized := configuration.Sanitize()
	if validationError := sanitized.Validate(); validationError != nil {
		return nil, validationError
	}

	publisher, publisherError := packages.NewPublisher(packages.Dependencies{
		Executor:          dependencies.Executor,
		Logger:            logger,
		LookupEnvironment: dependencies.LookupEnvironment,
		HomeDirectory:     dependencies.HomeDirectory,
	}, sanitized.Publish)
	if publisherError != nil {
		return nil, publisherError
	}

	return &Catalog{
		configuration: sanitized,
		executor:      dependencies.Executor,
		logger:        logger,
		repository:    repositoryManager,
		releases:      releaseService,
		documentation: documentationGenerator,
		publisher:     publisher,
	}, nil
}

// Register defines the built-in tasks, then the configured command tasks, then the default.
func (catalog *Catalog) Register(registry *tasks.Registry) error {
	if registry == nil {
		return ErrRegistryNotConfigured
	}

	builtIns := []struct {
		name          string
		prerequisites []string
		body          tasks.Body
		description   string
	}{
		{name: TaskAPIDoc, body: catalog.generateAPIDocs, description: apiDocDescriptionConstant},
		{name: TaskTest, body: catalog.runTests, description: testDescriptionConstant},
		{name: TaskCheckUncommitted, body: catalog.checkUncommitted, description: checkUncommittedDescriptionConstant},
		{name: TaskGenerateRST, body: catalog.generateRST, description: generateRSTDescriptionConstant},
		{name: TaskUpdateVersion, body: catalog.updateVersion, description: updateVersionDescriptionConstant},
		{name: TaskCreateTag, body: catalog.createTag, description: createTagDescriptionConstant},
		{name: TaskPush, body: catalog.push, description: pushDescriptionConstant},
		{name: TaskUpload, prerequisites: []string{TaskGenerateRST}, body: catalog.upload, description: uploadDescriptionConstant},
		{name: TaskRelease, body: catalog.release, description: releaseDescriptionConstant},
		{name: TaskPyPI, prerequisites: []string{TaskTest}, body: catalog.pypi, description: pypiDescriptionConstant},
	}

	for _, builtIn := range builtIns {
		if defineError := catalog.define(registry, builtIn.name, builtIn.prerequisites, builtIn.body, builtIn.description); defineError != nil {
			return defineError
		}
	}

	for _, definition := range catalog.configuration.Tasks {
		if len(definition.Command) == 0 {
			return InvalidCommandTaskError{Name: definition.Name}
		}
		if defineError := catalog.define(registry, definition.Name, definition.Prerequisites, catalog.commandBody(definition.Command), definition.Description); defineError != nil {
			return defineError
		}
	}

	return registry.SetDefault(catalog.configuration.DefaultTask)
}

func (catalog *Catalog) define(registry *tasks.Registry, name string, prerequisites []string, body tasks.Body, description string) error {
	if defineError := registry.Define(name, prerequisites, body); defineError != nil {
		return defineError
	}
	if len(description) == 0 {
		return nil
	}
	return registry.Describe(name, description)
}

func (catalog *Catalog) commandBody(command []string) tasks.Body {
	commandArguments := append([]string{}, command[1:]...)
	return func(executionContext context.Context, arguments []string) error {
		_, executionError := catalog.executor.Execute(executionContext, execshell.ShellCommand{
			Name: execshell.CommandName(command[0]),
			Details: execshell.CommandDetails{
				Arguments:         append(append([]string{}, commandArguments...), arguments...),
				WorkingDirectory:  catalog.configuration.RepositoryPath,
				PassthroughOutput: true,
			},
		})
		return executionError
	}
}

func (catalog *Catalog) generateAPIDocs(executionContext context.Context, _ []string) error {
	return catalog.documentation.GenerateAPIDocs(executionContext, catalog.configuration.RepositoryPath, catalog.configuration.Documentation.EpydocConfiguration)
}

func (catalog *Catalog) runTests(executionContext context.Context, arguments []string) error {
	return catalog.commandBody(catalog.configuration.Tests.Command)(executionContext, arguments)
}

func (catalog *Catalog) checkUncommitted(executionContext context.Context, _ []string) error {
	return catalog.repository.RequireCleanWorktree(executionContext, catalog.configuration.RepositoryPath)
}

func (catalog *Catalog) generateRST(executionContext context.Context, _ []string) error {
	documentationConfiguration := catalog.configuration.Documentation
	if conversionError := catalog.documentation.ConvertMarkdown(executionContext, catalog.configuration.RepositoryPath, documentationConfiguration.Conversions); conversionError != nil {
		return conversionError
	}
	return catalog.commit(executionContext, documentationConfiguration.Targets(), documentationConfiguration.CommitMessage)
}

func (catalog *Catalog) updateVersion(executionContext context.Context, arguments []string) error {
	versionFile, versionFileError := catalog.versionFile()
	if versionFileError != nil {
		return versionFileError
	}

	explicitVersion := ""
	if len(arguments) > 0 {
		explicitVersion = arguments[0]
	}

	update, updateError := versionFile.UpdateVersion(explicitVersion)
	if updateError != nil {
		return updateError
	}
	catalog.logger.Info(
		versionUpdatedMessageConstant,
		zap.String(versionFileLogFieldNameConstant, versionFile.Path()),
		zap.String(previousVersionLogFieldNameConstant, update.PreviousVersion),
		zap.String(newVersionLogFieldNameConstant, update.NewVersion),
	)

	releaseConfiguration := catalog.configuration.Release
	return catalog.commit(
		executionContext,
		[]string{releaseConfiguration.VersionFile},
		fmt.Sprintf(releaseConfiguration.CommitMessageTemplate, update.NewVersion),
	)
}

func (catalog *Catalog) commit(executionContext context.Context, paths []string, message string) error {
	committed, commitError := catalog.repository.CommitPaths(executionContext, catalog.configuration.RepositoryPath, paths, message)
	if commitError != nil {
		return commitError
	}
	if !committed {
		catalog.logger.Info(nothingToCommitMessageConstant, zap.Strings(pathsLogFieldNameConstant, paths))
	}
	return nil
}

func (catalog *Catalog) createTag(executionContext context.Context, _ []string) error {
	versionFile, versionFileError := catalog.versionFile()
	if versionFileError != nil {
		return versionFileError
	}

	currentVersion, readError := versionFile.ReadVersion()
	if readError != nil {
		return readError
	}

	if tagError := catalog.releases.TagVersion(executionContext, releases.TagOptions{
		RepositoryPath:  catalog.configuration.RepositoryPath,
		Version:         currentVersion,
		MessageTemplate: catalog.configuration.Release.TagMessageTemplate,
	}); tagError != nil {
		return tagError
	}
	catalog.logger.Info(versionTaggedMessageConstant, zap.String(versionLogFieldNameConstant, currentVersion))
	return nil
}

func (catalog *Catalog) push(executionContext context.Context, _ []string) error {
	return catalog.releases.Publish(executionContext, releases.PublishOptions{
		RepositoryPath: catalog.configuration.RepositoryPath,
		RemoteName:     catalog.configuration.Release.RemoteName,
	})
}

func (catalog *Catalog) upload(executionContext context.Context, _ []string) error {
	return catalog.publisher.LegacyUpload(executionContext, catalog.configuration.RepositoryPath)
}

// release calls its steps directly, so they run even if they already ran earlier in the same invocation.
func (catalog *Catalog) release(executionContext context.Context, arguments []string) error {
	steps := []tasks.Body{
		catalog.checkUncommitted,
		catalog.updateVersion,
		catalog.createTag,
		catalog.generateRST,
		catalog.push,
	}
	for _, step := range steps {
		if stepError := step(executionContext, arguments); stepError != nil {
			return stepError
		}
	}
	return nil
}

func (catalog *Catalog) pypi(executionContext context.Context, _ []string) error {
	if buildError := catalog.publisher.BuildSourceDistribution(executionContext, catalog.configuration.RepositoryPath); buildError != nil {
		return buildError
	}
	return catalog.publisher.Upload(executionContext, catalog.configuration.RepositoryPath)
}

func (catalog *Catalog) versionFile() (*version.File, error) {
	releaseConfiguration := catalog.configuration.Release
	if len(releaseConfiguration.VersionFile) == 0 {
		return nil, ErrVersionFileNotConfigured
	}
	return version.NewFile(filepath.Join(catalog.configuration.RepositoryPath, releaseConfiguration.VersionFile), releaseConfiguration.VersionPattern)
}
