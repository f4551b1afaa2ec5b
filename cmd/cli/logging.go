package cli

import (
	"errors"
	"fmt"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/tyemirov/tasker/internal/utils"
)

const (
	configurationLoadedMessageConstant = "configuration loaded"
	configurationBannerTemplate        = "%s from %q (log level %s, %s format)"
	embeddedConfigurationSourceName    = "embedded defaults"
	logFieldLogLevelConstant           = "log_level"
	logFieldLogFormatConstant          = "log_format"
	loggerCreationErrorTemplate        = "unable to create logger: %w"
	loggerFlushErrorTemplate           = "unable to flush logger: %w"
)

// Sync on a terminal or pipe reports these instead of succeeding.
var ignoredLoggerSyncErrors = []error{syscall.EINVAL, syscall.ENOTSUP, syscall.ENOTTY, syscall.EBADF}

type loggerOutputsFactory interface {
	CreateLoggerOutputs(utils.LogLevel, utils.LogFormat) (utils.LoggerOutputs, error)
}

func (application *Application) configureLoggers() error {
	common := application.configuration.Common
	outputs, creationError := application.loggerFactory.CreateLoggerOutputs(utils.LogLevel(common.LogLevel), utils.LogFormat(common.LogFormat))
	if creationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplate, creationError)
	}

	application.logger = zap.NewNop()
	if outputs.DiagnosticLogger != nil {
		application.logger = outputs.DiagnosticLogger
	}
	application.consoleLogger = zap.NewNop()
	if outputs.ConsoleLogger != nil {
		application.consoleLogger = outputs.ConsoleLogger
	}

	application.announceConfiguration()
	return nil
}

func (application *Application) consoleLoggingEnabled() bool {
	return strings.EqualFold(strings.TrimSpace(application.configuration.Common.LogFormat), string(utils.LogFormatConsole))
}

// announceConfiguration reports where settings came from. It only speaks at debug level.
func (application *Application) announceConfiguration() {
	common := application.configuration.Common
	if !strings.EqualFold(strings.TrimSpace(common.LogLevel), string(utils.LogLevelDebug)) {
		return
	}

	source := application.loadedConfiguration.ConfigFileUsed
	if application.consoleLoggingEnabled() {
		if len(source) == 0 {
			source = embeddedConfigurationSourceName
		}
		application.consoleLogger.Debug(fmt.Sprintf(configurationBannerTemplate, configurationLoadedMessageConstant, source, common.LogLevel, common.LogFormat))
		return
	}

	application.logger.Debug(
		configurationLoadedMessageConstant,
		zap.String(logFieldLogLevelConstant, common.LogLevel),
		zap.String(logFieldLogFormatConstant, common.LogFormat),
		zap.String(logFieldConfigurationFileConstant, source),
	)
}

func (application *Application) flushLoggers() error {
	for _, logger := range []*zap.Logger{application.logger, application.consoleLogger} {
		if logger == nil {
			continue
		}
		if syncError := logger.Sync(); syncError != nil && !ignorableSyncError(syncError) {
			return fmt.Errorf(loggerFlushErrorTemplate, syncError)
		}
	}
	return nil
}

func ignorableSyncError(syncError error) bool {
	for _, ignored := range ignoredLoggerSyncErrors {
		if errors.Is(syncError, ignored) {
			return true
		}
	}
	return false
}
