package version

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

const (
	// DefaultVersionPatternConstant matches a Python package version assignment and captures the version.
	DefaultVersionPatternConstant = `__version__\s*=\s*"([\w.\-]+)"`

	versionAssignmentTemplateConstant   = `__version__ = "%s"`
	versionComponentSeparatorConstant   = "."
	versionParseErrorTemplateConstant   = "cannot parse version in %s: %s"
	versionValueErrorTemplateConstant   = "cannot bump version %q: %s"
	versionPatternMissingMessage        = "version assignment not found"
	versionSeparatorMissingMessage      = "no dot-separated component to increment"
	versionComponentNotNumericMessage   = "trailing component is not numeric"
	versionPatternGroupMessageConstant  = "version pattern must contain exactly one capture group"
	versionPatternCompileTemplate       = "invalid version pattern: %w"
	versionFileReadErrorTemplate        = "unable to read version file %s: %w"
	versionFileWriteErrorTemplate       = "unable to write version file %s: %w"
	versionFilePathRequiredMessage      = "version file path required"
	versionFileDefaultPermissionsNumber = 0o644
)

var (
	// ErrVersionFilePathRequired indicates an empty version file path.
	ErrVersionFilePathRequired = errors.New(versionFilePathRequiredMessage)
	// ErrVersionPatternGroup indicates a pattern without exactly one capture group.
	ErrVersionPatternGroup = errors.New(versionPatternGroupMessageConstant)
)

// VersionParseError reports a version that could not be located or incremented.
type VersionParseError struct {
	Source  string
	Value   string
	Message string
}

// Error describes the parse failure.
func (parseError VersionParseError) Error() string {
	if len(parseError.Value) > 0 {
		return fmt.Sprintf(versionValueErrorTemplateConstant, parseError.Value, parseError.Message)
	}
	return fmt.Sprintf(versionParseErrorTemplateConstant, parseError.Source, parseError.Message)
}

// Update describes one version rewrite.
type Update struct {
	PreviousVersion string
	NewVersion      string
}

// File reads and rewrites the version assignment inside a source file.
type File struct {
	path    string
	pattern *regexp.Regexp
}

// NewFile constructs a File for the path. An empty pattern selects DefaultVersionPatternConstant.
func NewFile(path string, pattern string) (*File, error) {
	trimmedPath := strings.TrimSpace(path)
	if len(trimmedPath) == 0 {
		return nil, ErrVersionFilePathRequired
	}

	trimmedPattern := strings.TrimSpace(pattern)
	if len(trimmedPattern) == 0 {
		trimmedPattern = DefaultVersionPatternConstant
	}

	compiledPattern, compileError := regexp.Compile(trimmedPattern)
	if compileError != nil {
		return nil, fmt.Errorf(versionPatternCompileTemplate, compileError)
	}
	if compiledPattern.NumSubexp() != 1 {
		return nil, ErrVersionPatternGroup
	}

	return &File{path: trimmedPath, pattern: compiledPattern}, nil
}

// Path returns the version file location.
func (file *File) Path() string {
	return file.path
}

// ReadVersion returns the version captured from the file.
func (file *File) ReadVersion() (string, error) {
	contents, readError := os.ReadFile(file.path)
	if readError != nil {
		return "", fmt.Errorf(versionFileReadErrorTemplate, file.path, readError)
	}
	return file.extract(contents)
}

// UpdateVersion bumps explicitVersion when supplied, otherwise the version read from the file, and writes the result back.
func (file *File) UpdateVersion(explicitVersion string) (Update, error) {
	contents, readError := os.ReadFile(file.path)
	if readError != nil {
		return Update{}, fmt.Errorf(versionFileReadErrorTemplate, file.path, readError)
	}

	currentVersion, extractError := file.extract(contents)
	if extractError != nil {
		return Update{}, extractError
	}

	baseVersion := strings.TrimSpace(explicitVersion)
	if len(baseVersion) == 0 {
		baseVersion = currentVersion
	}

	nextVersion, bumpError := Bump(baseVersion)
	if bumpError != nil {
		return Update{}, bumpError
	}

	location := file.pattern.FindIndex(contents)
	rewritten := make([]byte, 0, len(contents)+len(nextVersion))
	rewritten = append(rewritten, contents[:location[0]]...)
	rewritten = append(rewritten, fmt.Sprintf(versionAssignmentTemplateConstant, nextVersion)...)
	rewritten = append(rewritten, contents[location[1]:]...)

	permissions := os.FileMode(versionFileDefaultPermissionsNumber)
	if fileInfo, statError := os.Stat(file.path); statError == nil {
		permissions = fileInfo.Mode().Perm()
	}
	if writeError := os.WriteFile(file.path, rewritten, permissions); writeError != nil {
		return Update{}, fmt.Errorf(versionFileWriteErrorTemplate, file.path, writeError)
	}

	return Update{PreviousVersion: currentVersion, NewVersion: nextVersion}, nil
}

func (file *File) extract(contents []byte) (string, error) {
	match := file.pattern.FindSubmatch(contents)
	if match == nil {
		return "", VersionParseError{Source: file.path, Message: versionPatternMissingMessage}
	}
	return string(match[1]), nil
}

// Bump increments the trailing dot-separated component numerically: 1.2.9 becomes 1.2.10.
func Bump(version string) (string, error) {
	trimmedVersion := strings.TrimSpace(version)
	separatorIndex := strings.LastIndex(trimmedVersion, versionComponentSeparatorConstant)
	if separatorIndex < 0 {
		return "", VersionParseError{Value: trimmedVersion, Message: versionSeparatorMissingMessage}
	}

	trailingComponent := trimmedVersion[separatorIndex+1:]
	trailingNumber, conversionError := strconv.ParseUint(trailingComponent, 10, 64)
	if conversionError != nil {
		return "", VersionParseError{Value: trimmedVersion, Message: versionComponentNotNumericMessage}
	}

	return trimmedVersion[:separatorIndex+1] + strconv.FormatUint(trailingNumber+1, 10), nil
}
