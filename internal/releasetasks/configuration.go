package releasetasks

import (
	"fmt"
	"strings"

	"github.com/tyemirov/tasker/internal/docgen"
	"github.com/tyemirov/tasker/internal/packages"
)

const (
	defaultRepositoryPathConstant           = "."
	defaultTestCommandConstant              = "py.test"
	defaultVersionCommitTemplateConstant    = "Version updated to %s"
	defaultTagMessageTemplateConstant       = "Tagging version %s"
	defaultTaskNameConstant                 = TaskTest
	commitMessageSettingConstant            = "release.commit_message"
	tagMessageSettingConstant               = "release.tag_message"
	templateSampleVersionConstant           = "0.0.0"
	templateFormattingFailureMarkerConstant = "%!"
	invalidMessageTemplateTemplateConstant  = "%s must contain exactly one %%s placeholder for the version: %q"
)

// InvalidMessageTemplateError reports a release message template that cannot render a version.
type InvalidMessageTemplateError struct {
	Setting  string
	Template string
}

// Error describes the rejected template.
func (templateError InvalidMessageTemplateError) Error() string {
	return fmt.Sprintf(invalidMessageTemplateTemplateConstant, templateError.Setting, templateError.Template)
}

// Configuration aggregates the settings consumed by the release task catalog.
type Configuration struct {
	RepositoryPath string                  `mapstructure:"repository_path"`
	Documentation  docgen.Configuration    `mapstructure:"documentation"`
	Tests          TestConfiguration       `mapstructure:"tests"`
	Release        ReleaseConfiguration    `mapstructure:"release"`
	Publish        packages.Configuration  `mapstructure:"publish"`
	DefaultTask    string                  `mapstructure:"default_task"`
	Tasks          []CommandTaskDefinition `mapstructure:"tasks"`
}

// TestConfiguration describes the unit test command.
type TestConfiguration struct {
	Command []string `mapstructure:"command"`
}

// ReleaseConfiguration describes version bumping, tagging and pushing.
type ReleaseConfiguration struct {
	VersionFile           string `mapstructure:"version_file"`
	VersionPattern        string `mapstructure:"version_pattern"`
	CommitMessageTemplate string `mapstructure:"commit_message"`
	TagMessageTemplate    string `mapstructure:"tag_message"`
	RemoteName            string `mapstructure:"remote"`
}

// CommandTaskDefinition declares a task that runs one external command.
type CommandTaskDefinition struct {
	Name          string   `mapstructure:"name"`
	Command       []string `mapstructure:"command"`
	Prerequisites []string `mapstructure:"prerequisites"`
	Description   string   `mapstructure:"description"`
}

// DefaultConfiguration supplies baseline values for the catalog.
func DefaultConfiguration() Configuration {
	return Configuration{
		RepositoryPath: defaultRepositoryPathConstant,
		Documentation:  docgen.DefaultConfiguration(),
		Tests:          TestConfiguration{Command: []string{defaultTestCommandConstant}},
		Release: ReleaseConfiguration{
			CommitMessageTemplate: defaultVersionCommitTemplateConstant,
			TagMessageTemplate:    defaultTagMessageTemplateConstant,
		},
		Publish:     packages.DefaultConfiguration(),
		DefaultTask: defaultTaskNameConstant,
	}
}

// Sanitize trims values and restores defaults for empty settings.
func (configuration Configuration) Sanitize() Configuration {
	defaults := DefaultConfiguration()
	sanitized := configuration

	sanitized.RepositoryPath = valueOrDefault(configuration.RepositoryPath, defaults.RepositoryPath)
	sanitized.DefaultTask = valueOrDefault(configuration.DefaultTask, defaults.DefaultTask)

	sanitized.Tests.Command = trimEntries(configuration.Tests.Command)
	if len(sanitized.Tests.Command) == 0 {
		sanitized.Tests.Command = defaults.Tests.Command
	}

	if len(configuration.Documentation.Conversions) == 0 {
		sanitized.Documentation.Conversions = defaults.Documentation.Conversions
	}
	sanitized.Documentation.EpydocConfiguration = valueOrDefault(configuration.Documentation.EpydocConfiguration, defaults.Documentation.EpydocConfiguration)
	sanitized.Documentation.CommitMessage = valueOrDefault(configuration.Documentation.CommitMessage, defaults.Documentation.CommitMessage)

	sanitized.Release.VersionFile = strings.TrimSpace(configuration.Release.VersionFile)
	sanitized.Release.VersionPattern = strings.TrimSpace(configuration.Release.VersionPattern)
	sanitized.Release.RemoteName = strings.TrimSpace(configuration.Release.RemoteName)
	sanitized.Release.CommitMessageTemplate = valueOrDefault(configuration.Release.CommitMessageTemplate, defaults.Release.CommitMessageTemplate)
	sanitized.Release.TagMessageTemplate = valueOrDefault(configuration.Release.TagMessageTemplate, defaults.Release.TagMessageTemplate)

	sanitized.Publish = configuration.Publish.Sanitize()

	sanitized.Tasks = make([]CommandTaskDefinition, 0, len(configuration.Tasks))
	for _, definition := range configuration.Tasks {
		sanitized.Tasks = append(sanitized.Tasks, CommandTaskDefinition{
			Name:          strings.TrimSpace(definition.Name),
			Command:       trimEntries(definition.Command),
			Prerequisites: trimEntries(definition.Prerequisites),
			Description:   strings.TrimSpace(definition.Description),
		})
	}
	return sanitized
}

// Validate reports settings that would fail only once a task runs.
func (configuration Configuration) Validate() error {
	templates := []struct {
		setting  string
		template string
	}{
		{setting: commitMessageSettingConstant, template: configuration.Release.CommitMessageTemplate},
		{setting: tagMessageSettingConstant, template: configuration.Release.TagMessageTemplate},
	}
	for _, candidate := range templates {
		rendered := fmt.Sprintf(candidate.template, templateSampleVersionConstant)
		if strings.Contains(rendered, templateFormattingFailureMarkerConstant) || strings.Count(rendered, templateSampleVersionConstant) != 1 {
			return InvalidMessageTemplateError{Setting: candidate.setting, Template: candidate.template}
		}
	}
	return nil
}

func trimEntries(values []string) []string {
	trimmed := make([]string, 0, len(values))
	for _, value := range values {
		if entry := strings.TrimSpace(value); len(entry) > 0 {
			trimmed = append(trimmed, entry)
		}
	}
	return trimmed
}

func valueOrDefault(value string, fallback string) string {
	if trimmed := strings.TrimSpace(value); len(trimmed) > 0 {
		return trimmed
	}
	return fallback
}
