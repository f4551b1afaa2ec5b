package utils

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel enumerates supported diagnostic log levels.
type LogLevel string

// LogFormat enumerates supported diagnostic log encodings.
type LogFormat string

const (
	// LogLevelDebug enables debug diagnostics.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo enables informational diagnostics.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn restricts diagnostics to warnings and errors.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError restricts diagnostics to errors.
	LogLevelError LogLevel = "error"

	// LogFormatStructured emits JSON log lines.
	LogFormatStructured LogFormat = "structured"
	// LogFormatConsole emits human-readable log lines.
	LogFormatConsole LogFormat = "console"
)

const (
	unsupportedLogLevelTemplateConstant  = "unsupported log level %q"
	unsupportedLogFormatTemplateConstant = "unsupported log format %q"
	loggerBuildErrorTemplateConstant     = "unable to build logger: %w"
	consoleTimeLayoutConstant            = "15:04:05"
	consoleMessageKeyConstant            = "message"
)

// LoggerOutputs bundles the diagnostic logger with the console logger used for human-readable progress.
type LoggerOutputs struct {
	DiagnosticLogger *zap.Logger
	ConsoleLogger    *zap.Logger
}

// LoggerFactory builds zap loggers for the CLI.
type LoggerFactory struct{}

// NewLoggerFactory constructs a LoggerFactory.
func NewLoggerFactory() LoggerFactory {
	return LoggerFactory{}
}

// CreateLoggerOutputs builds the loggers for the level and format. Structured output has no console logger, so it
// receives a no-op logger.
func (factory LoggerFactory) CreateLoggerOutputs(logLevel LogLevel, logFormat LogFormat) (LoggerOutputs, error) {
	zapLevel, levelError := parseLogLevel(logLevel)
	if levelError != nil {
		return LoggerOutputs{}, levelError
	}

	switch LogFormat(strings.ToLower(strings.TrimSpace(string(logFormat)))) {
	case LogFormatStructured:
		configuration := zap.NewProductionConfig()
		configuration.Level = zap.NewAtomicLevelAt(zapLevel)
		configuration.OutputPaths = []string{"stderr"}
		configuration.ErrorOutputPaths = []string{"stderr"}
		configuration.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		diagnosticLogger, buildError := configuration.Build()
		if buildError != nil {
			return LoggerOutputs{}, fmt.Errorf(loggerBuildErrorTemplateConstant, buildError)
		}
		return LoggerOutputs{DiagnosticLogger: diagnosticLogger, ConsoleLogger: zap.NewNop()}, nil
	case LogFormatConsole:
		diagnosticEncoderConfiguration := zap.NewDevelopmentEncoderConfig()
		diagnosticEncoderConfiguration.EncodeTime = zapcore.TimeEncoderOfLayout(consoleTimeLayoutConstant)
		diagnosticEncoderConfiguration.EncodeLevel = zapcore.CapitalLevelEncoder
		diagnosticCore := zapcore.NewCore(zapcore.NewConsoleEncoder(diagnosticEncoderConfiguration), zapcore.Lock(os.Stderr), zapLevel)

		consoleEncoderConfiguration := zapcore.EncoderConfig{
			MessageKey:     consoleMessageKeyConstant,
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeDuration: zapcore.StringDurationEncoder,
		}
		consoleCore := zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfiguration), zapcore.Lock(os.Stderr), zapLevel)

		return LoggerOutputs{DiagnosticLogger: zap.New(diagnosticCore), ConsoleLogger: zap.New(consoleCore)}, nil
	default:
		return LoggerOutputs{}, fmt.Errorf(unsupportedLogFormatTemplateConstant, logFormat)
	}
}

func parseLogLevel(logLevel LogLevel) (zapcore.Level, error) {
	switch LogLevel(strings.ToLower(strings.TrimSpace(string(logLevel)))) {
	case LogLevelDebug:
		return zapcore.DebugLevel, nil
	case LogLevelInfo:
		return zapcore.InfoLevel, nil
	case LogLevelWarn:
		return zapcore.WarnLevel, nil
	case LogLevelError:
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf(unsupportedLogLevelTemplateConstant, logLevel)
	}
}
