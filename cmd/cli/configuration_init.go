package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const (
	configurationExistsTemplate         = "configuration file already exists at %s (pass --force to replace it)"
	configurationDirectoryErrorTemplate = "unable to create configuration directory %s: %w"
	configurationWriteErrorTemplate     = "unable to write configuration file %s: %w"
	configurationWrittenTemplate        = "wrote %s\n"
	configurationWrittenMessageConstant = "configuration file written"
	configurationDirectoryPermissions   = 0o755
	configurationFilePermissions        = 0o600
)

// ConfigurationExistsError reports an --init target that is already present and --force was not given.
type ConfigurationExistsError struct {
	Path string
}

// Error names the existing file.
func (existsError ConfigurationExistsError) Error() string {
	return fmt.Sprintf(configurationExistsTemplate, existsError.Path)
}

func (application *Application) writeInitialConfiguration(output io.Writer) error {
	targetPath, targetError := application.environment.initTarget(application.options.initScope)
	if targetError != nil {
		return targetError
	}

	content, _ := EmbeddedDefaultConfiguration()
	if writeError := writeConfigurationFile(targetPath, content, application.options.forceInit); writeError != nil {
		return writeError
	}

	application.logger.Info(configurationWrittenMessageConstant, zap.String(logFieldConfigurationFileConstant, targetPath))
	_, printError := fmt.Fprintf(output, configurationWrittenTemplate, targetPath)
	return printError
}

// writeConfigurationFile creates the file and its directory. Without overwrite an existing file is left untouched.
func writeConfigurationFile(targetPath string, content []byte, overwrite bool) error {
	directoryPath := filepath.Dir(targetPath)
	if directoryError := os.MkdirAll(directoryPath, configurationDirectoryPermissions); directoryError != nil {
		return fmt.Errorf(configurationDirectoryErrorTemplate, directoryPath, directoryError)
	}

	openFlags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if overwrite {
		openFlags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}

	configurationFile, openError := os.OpenFile(targetPath, openFlags, configurationFilePermissions)
	if openError != nil {
		if errors.Is(openError, fs.ErrExist) {
			return ConfigurationExistsError{Path: targetPath}
		}
		return fmt.Errorf(configurationWriteErrorTemplate, targetPath, openError)
	}

	_, writeError := configurationFile.Write(content)
	closeError := configurationFile.Close()
	if writeError == nil {
		writeError = closeError
	}
	if writeError != nil {
		return fmt.Errorf(configurationWriteErrorTemplate, targetPath, writeError)
	}
	return nil
}
