package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	searchPathOverrideEnvironmentConstant = "TASKER_CONFIG_SEARCH_PATH"
	xdgConfigHomeEnvironmentConstant      = "XDG_CONFIG_HOME"
	workingDirectorySearchPathConstant    = "."
	xdgConfigurationDirectoryConstant     = "tasker"
	homeConfigurationDirectoryConstant    = ".tasker"
	initScopeLocalConstant                = "local"
	initScopeUserConstant                 = "user"
	unsupportedInitScopeTemplate          = "unsupported --init scope %q (expected local or user)"
	workingDirectoryErrorTemplate         = "unable to determine working directory: %w"
	homeDirectoryErrorTemplate            = "unable to determine user home directory: %w"
	emptyDirectoryMessageConstant         = "directory path is empty"
)

var errEmptyDirectory = errors.New(emptyDirectoryMessageConstant)

// configurationEnvironment captures the process state that decides where configuration files live.
type configurationEnvironment struct {
	getenv              func(string) string
	userHomeDirectory   func() (string, error)
	userConfigDirectory func() (string, error)
	workingDirectory    func() (string, error)
}

func processConfigurationEnvironment() configurationEnvironment {
	return configurationEnvironment{
		getenv:              os.Getenv,
		userHomeDirectory:   os.UserHomeDir,
		userConfigDirectory: os.UserConfigDir,
		workingDirectory:    os.Getwd,
	}
}

// searchPaths lists the directories consulted for config.yaml, most specific first.
// TASKER_CONFIG_SEARCH_PATH replaces the whole list.
func (environment configurationEnvironment) searchPaths() []string {
	if overridePaths := splitSearchPathList(environment.getenv(searchPathOverrideEnvironmentConstant)); len(overridePaths) > 0 {
		return overridePaths
	}

	candidates := []string{workingDirectorySearchPathConstant}
	if xdgDirectory, available := environment.xdgConfigurationDirectory(); available {
		candidates = append(candidates, xdgDirectory)
	}
	if userConfigDirectory, lookupError := resolvedDirectory(environment.userConfigDirectory); lookupError == nil {
		candidates = append(candidates, filepath.Join(userConfigDirectory, xdgConfigurationDirectoryConstant))
	}
	if homeDirectory, lookupError := resolvedDirectory(environment.userHomeDirectory); lookupError == nil {
		candidates = append(candidates, filepath.Join(homeDirectory, homeConfigurationDirectoryConstant))
	}
	return uniquePaths(candidates)
}

// initTarget resolves the file written by --init for the scope.
func (environment configurationEnvironment) initTarget(scope string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(scope)) {
	case "", initScopeLocalConstant:
		workingDirectory, lookupError := resolvedDirectory(environment.workingDirectory)
		if lookupError != nil {
			return "", fmt.Errorf(workingDirectoryErrorTemplate, lookupError)
		}
		return filepath.Join(workingDirectory, configurationFileNameConstant), nil
	case initScopeUserConstant:
		if xdgDirectory, available := environment.xdgConfigurationDirectory(); available {
			return filepath.Join(xdgDirectory, configurationFileNameConstant), nil
		}
		homeDirectory, lookupError := resolvedDirectory(environment.userHomeDirectory)
		if lookupError != nil {
			return "", fmt.Errorf(homeDirectoryErrorTemplate, lookupError)
		}
		return filepath.Join(homeDirectory, homeConfigurationDirectoryConstant, configurationFileNameConstant), nil
	default:
		return "", fmt.Errorf(unsupportedInitScopeTemplate, scope)
	}
}

func (environment configurationEnvironment) xdgConfigurationDirectory() (string, bool) {
	xdgConfigHome := strings.TrimSpace(environment.getenv(xdgConfigHomeEnvironmentConstant))
	if len(xdgConfigHome) == 0 {
		return "", false
	}
	return filepath.Join(xdgConfigHome, xdgConfigurationDirectoryConstant), true
}

func resolvedDirectory(lookup func() (string, error)) (string, error) {
	directory, lookupError := lookup()
	if lookupError != nil {
		return "", lookupError
	}
	trimmed := strings.TrimSpace(directory)
	if len(trimmed) == 0 {
		return "", errEmptyDirectory
	}
	return trimmed, nil
}

func splitSearchPathList(value string) []string {
	paths := make([]string, 0)
	for _, entry := range filepath.SplitList(value) {
		if trimmed := strings.TrimSpace(entry); len(trimmed) > 0 {
			paths = append(paths, trimmed)
		}
	}
	return uniquePaths(paths)
}

func uniquePaths(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	unique := make([]string, 0, len(paths))
	for _, path := range paths {
		if _, duplicate := seen[path]; duplicate {
			continue
		}
		seen[path] = struct{}{}
		unique = append(unique, path)
	}
	return unique
}
