package utils_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/tyemirov/tasker/internal/utils"
)

func TestLoggerFactoryLevelGating(t *testing.T) {
	testCases := []struct {
		name          string
		level         utils.LogLevel
		lowestEnabled zapcore.Level
	}{
		{name: "debug", level: utils.LogLevelDebug, lowestEnabled: zapcore.DebugLevel},
		{name: "info_uppercase", level: "INFO", lowestEnabled: zapcore.InfoLevel},
		{name: "warn_padded", level: " warn ", lowestEnabled: zapcore.WarnLevel},
		{name: "error", level: utils.LogLevelError, lowestEnabled: zapcore.ErrorLevel},
	}

	for _, testCase := range testCases {
		for _, format := range []utils.LogFormat{utils.LogFormatStructured, utils.LogFormatConsole} {
			t.Run(testCase.name+"_"+string(format), func(t *testing.T) {
				outputs, creationError := utils.NewLoggerFactory().CreateLoggerOutputs(testCase.level, format)
				require.NoError(t, creationError)
				require.NotNil(t, outputs.DiagnosticLogger)

				diagnosticCore := outputs.DiagnosticLogger.Core()
				require.True(t, diagnosticCore.Enabled(testCase.lowestEnabled))
				if testCase.lowestEnabled > zapcore.DebugLevel {
					require.False(t, diagnosticCore.Enabled(testCase.lowestEnabled-1))
				}
			})
		}
	}
}

func TestLoggerFactoryConsoleLoggerFollowsFormat(t *testing.T) {
	factory := utils.NewLoggerFactory()

	consoleOutputs, consoleError := factory.CreateLoggerOutputs(utils.LogLevelInfo, utils.LogFormatConsole)
	require.NoError(t, consoleError)
	require.NotNil(t, consoleOutputs.ConsoleLogger)
	require.True(t, consoleOutputs.ConsoleLogger.Core().Enabled(zapcore.InfoLevel))
	require.False(t, consoleOutputs.ConsoleLogger.Core().Enabled(zapcore.DebugLevel))

	structuredOutputs, structuredError := factory.CreateLoggerOutputs(utils.LogLevelDebug, " Structured ")
	require.NoError(t, structuredError)
	require.NotNil(t, structuredOutputs.ConsoleLogger)
	require.False(t, structuredOutputs.ConsoleLogger.Core().Enabled(zapcore.FatalLevel))
}

func TestLoggerFactoryRejectsUnsupportedSettings(t *testing.T) {
	factory := utils.NewLoggerFactory()

	_, levelError := factory.CreateLoggerOutputs("verbose", utils.LogFormatStructured)
	require.ErrorContains(t, levelError, `"verbose"`)

	_, formatError := factory.CreateLoggerOutputs(utils.LogLevelInfo, "xml")
	require.ErrorContains(t, formatError, `"xml"`)
}
