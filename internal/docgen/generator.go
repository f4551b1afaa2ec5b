package docgen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tyemirov/tasker/internal/execshell"
)

const (
	defaultEpydocConfigurationConstant  = "epydoc.config"
	markdownFormatConstant              = "markdown"
	restructuredTextFormatConstant      = "rst"
	pandocFromFlagConstant              = "-f"
	pandocToFlagConstant                = "-t"
	pandocOutputFlagConstant            = "-o"
	epydocConfigurationFlagConstant     = "--config"
	executorMissingMessageConstant      = "documentation executor must be provided"
	conversionIncompleteMessageConstant = "conversion requires source and target"
	conversionFailureTemplateConstant   = "unable to convert %s to %s: %w"
	apiDocumentationFailureTemplate     = "unable to generate api documentation with %s: %w"
	conversionCompletedMessageConstant  = "Converted markdown document"
	sourceLogFieldNameConstant          = "source"
	targetLogFieldNameConstant          = "target"
)

// ErrExecutorNotConfigured indicates the Generator was constructed without an executor.
var ErrExecutorNotConfigured = errors.New(executorMissingMessageConstant)

// ErrConversionIncomplete indicates a conversion missing its source or target.
var ErrConversionIncomplete = errors.New(conversionIncompleteMessageConstant)

// CommandExecutor runs the documentation tools.
type CommandExecutor interface {
	ExecutePandoc(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteEpydoc(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Conversion maps a markdown source to a reStructuredText target.
type Conversion struct {
	Source string `mapstructure:"source"`
	Target string `mapstructure:"target"`
}

// Configuration stores documentation settings.
type Configuration struct {
	Conversions         []Conversion `mapstructure:"conversions"`
	EpydocConfiguration string       `mapstructure:"epydoc_config"`
	CommitMessage       string       `mapstructure:"commit_message"`
}

// DefaultConfiguration converts the README and changelog and reads epydoc.config.
func DefaultConfiguration() Configuration {
	return Configuration{
		Conversions: []Conversion{
			{Source: "README.md", Target: "README.rst"},
			{Source: "CHANGES.md", Target: "CHANGES.rst"},
		},
		EpydocConfiguration: defaultEpydocConfigurationConstant,
		CommitMessage:       "Autogenerated from markdown files",
	}
}

// Targets lists the generated document paths in conversion order.
func (configuration Configuration) Targets() []string {
	targets := make([]string, 0, len(configuration.Conversions))
	for _, conversion := range configuration.Conversions {
		targets = append(targets, conversion.Target)
	}
	return targets
}

// Generator produces documentation through pandoc and epydoc.
type Generator struct {
	executor CommandExecutor
	logger   *zap.Logger
}

// NewGenerator constructs a Generator.
func NewGenerator(executor CommandExecutor, logger *zap.Logger) (*Generator, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{executor: executor, logger: logger}, nil
}

// ConvertMarkdown runs each conversion in order and stops at the first failure.
func (generator *Generator) ConvertMarkdown(executionContext context.Context, workingDirectory string, conversions []Conversion) error {
	for _, conversion := range conversions {
		source := strings.TrimSpace(conversion.Source)
		target := strings.TrimSpace(conversion.Target)
		if len(source) == 0 || len(target) == 0 {
			return ErrConversionIncomplete
		}

		if _, err := generator.executor.ExecutePandoc(executionContext, execshell.CommandDetails{
			Arguments: []string{
				pandocFromFlagConstant, markdownFormatConstant,
				pandocToFlagConstant, restructuredTextFormatConstant,
				pandocOutputFlagConstant, target,
				source,
			},
			WorkingDirectory: workingDirectory,
		}); err != nil {
			return fmt.Errorf(conversionFailureTemplateConstant, source, target, err)
		}

		generator.logger.Debug(conversionCompletedMessageConstant, zap.String(sourceLogFieldNameConstant, source), zap.String(targetLogFieldNameConstant, target))
	}
	return nil
}

// GenerateAPIDocs runs epydoc with the given configuration file.
func (generator *Generator) GenerateAPIDocs(executionContext context.Context, workingDirectory string, configurationPath string) error {
	trimmedPath := strings.TrimSpace(configurationPath)
	if len(trimmedPath) == 0 {
		trimmedPath = defaultEpydocConfigurationConstant
	}

	if _, err := generator.executor.ExecuteEpydoc(executionContext, execshell.CommandDetails{
		Arguments:         []string{epydocConfigurationFlagConstant, trimmedPath},
		WorkingDirectory:  workingDirectory,
		PassthroughOutput: true,
	}); err != nil {
		return fmt.Errorf(apiDocumentationFailureTemplate, trimmedPath, err)
	}
	return nil
}
