package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/tyemirov/tasker/internal/execshell"
	"github.com/tyemirov/tasker/internal/releasetasks"
	"github.com/tyemirov/tasker/internal/tasks"
	"github.com/tyemirov/tasker/internal/utils"
	"github.com/tyemirov/tasker/internal/version"
)

const (
	applicationNameConstant             = "tasker"
	applicationUseConstant              = applicationNameConstant + " [flags] [task] [arguments...]"
	applicationShortDescriptionConstant = "Run release automation tasks"
	applicationLongDescriptionConstant  = "tasker runs named release tasks (documentation, tests, version bumps, tags, pushes and uploads) together with their prerequisites. Flags must precede the task name; everything after the task name is passed to the task."

	configFileFlagNameConstant    = "config"
	configFileFlagUsageConstant   = "Read settings from this YAML file instead of searching for config.yaml."
	logLevelFlagNameConstant      = "log-level"
	logLevelFlagUsageConstant     = "Diagnostic log level: debug, info, warn or error."
	logFormatFlagNameConstant     = "log-format"
	logFormatFlagUsageConstant    = "Diagnostic log format: structured (JSON lines) or console."
	listFlagNameConstant          = "list"
	listFlagUsageConstant         = "List the registered tasks and exit."
	planFlagNameConstant          = "plan"
	planFlagUsageConstant         = "Print the execution order for the task as YAML and exit."
	versionFlagNameConstant       = "version"
	versionFlagUsageConstant      = "Print the tasker build version and exit."
	versionOutputTemplateConstant = "tasker version: %s\n"
	initFlagNameConstant          = "init"
	initFlagUsageConstant         = "Write the default configuration to the local (./config.yaml) or user ($XDG_CONFIG_HOME/tasker, else ~/.tasker) scope and exit."
	forceFlagNameConstant         = "force"
	forceFlagUsageConstant        = "Replace an existing configuration file when used with --init."

	environmentPrefixConstant            = "TASKER"
	configurationNameConstant            = "config"
	configurationTypeConstant            = "yaml"
	configurationFileNameConstant        = configurationNameConstant + "." + configurationTypeConstant
	logLevelConfigurationKeyConstant     = "common.log_level"
	logFormatConfigurationKeyConstant    = "common.log_format"
	configurationLoadErrorTemplate       = "unable to load configuration: %w"
	taskInvocationMessageConstant        = "task invocation"
	taskRunFinishedMessageConstant       = "task run finished"
	taskInvocationMissingMessageConstant = "task invocation missing from command context"
	logFieldTaskConstant                 = "task"
	logFieldArgumentsConstant            = "arguments"
	logFieldExecutedConstant             = "executed"
	logFieldDurationConstant             = "duration"
	logFieldConfigurationFileConstant    = "config_file"
)

// commandLineOptions holds the values bound to the root command flags.
type commandLineOptions struct {
	configurationFilePath string
	logLevel              string
	logFormat             string
	listTasks             bool
	printPlan             bool
	printVersion          bool
	initScope             string
	forceInit             bool
}

// Application wires the Cobra root command, configuration loader, structured logger and task runner.
type Application struct {
	rootCommand            *cobra.Command
	environment            configurationEnvironment
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          loggerOutputsFactory
	logger                 *zap.Logger
	consoleLogger          *zap.Logger
	configuration          ApplicationConfiguration
	loadedConfiguration    utils.LoadedConfiguration
	options                commandLineOptions
	commandContextAccessor utils.CommandContextAccessor
	commandRunner          execshell.CommandRunner
	versionResolver        func() string
}

// NewApplication builds the root command for the current process environment.
func NewApplication() *Application {
	application := &Application{
		environment:            processConfigurationEnvironment(),
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		consoleLogger:          zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
		commandRunner:          execshell.NewOSCommandRunner(),
		versionResolver:        func() string { return version.BuildVersion(nil) },
	}

	application.configurationLoader = utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		application.environment.searchPaths(),
	)
	application.configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	rootCommand := &cobra.Command{
		Use:           applicationUseConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, _ []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: application.runRootCommand,
	}
	rootCommand.SetContext(context.Background())
	application.bindFlags(rootCommand.Flags())

	application.rootCommand = rootCommand
	return application
}

func (application *Application) bindFlags(flagSet *pflag.FlagSet) {
	options := &application.options
	flagSet.StringVar(&options.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	flagSet.StringVar(&options.logLevel, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	flagSet.StringVar(&options.logFormat, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	flagSet.BoolVar(&options.listTasks, listFlagNameConstant, false, listFlagUsageConstant)
	flagSet.BoolVar(&options.printPlan, planFlagNameConstant, false, planFlagUsageConstant)
	flagSet.BoolVar(&options.printVersion, versionFlagNameConstant, false, versionFlagUsageConstant)
	flagSet.StringVar(&options.initScope, initFlagNameConstant, initScopeLocalConstant, initFlagUsageConstant)
	flagSet.Lookup(initFlagNameConstant).NoOptDefVal = initScopeLocalConstant
	flagSet.BoolVar(&options.forceInit, forceFlagNameConstant, false, forceFlagUsageConstant)

	// Everything after the task name belongs to the task, including arguments that look like flags.
	flagSet.SetInterspersed(false)
}

// Execute runs the root command with the process arguments.
func (application *Application) Execute() error {
	return application.execute(os.Args[1:])
}

// Execute runs tasker for the current process.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) execute(arguments []string) error {
	if arguments == nil {
		arguments = []string{}
	}
	application.rootCommand.SetArgs(arguments)

	executionError := application.rootCommand.Execute()
	if flushError := application.flushLoggers(); flushError != nil && executionError == nil {
		return flushError
	}
	return executionError
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		logLevelConfigurationKeyConstant:  string(utils.LogLevelError),
		logFormatConfigurationKeyConstant: string(utils.LogFormatStructured),
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.options.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplate, loadError)
	}
	application.loadedConfiguration = loadedConfiguration

	if flagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.options.logLevel
	}
	if flagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.options.logFormat
	}

	if loggerError := application.configureLoggers(); loggerError != nil {
		return loggerError
	}

	if command != nil {
		command.SetContext(application.commandContextAccessor.WithConfigurationFilePath(command.Context(), loadedConfiguration.ConfigFileUsed))
	}
	return nil
}

// InitializeForCommand loads configuration and builds loggers the way a run of the named command would.
func (application *Application) InitializeForCommand(commandUse string) error {
	command := &cobra.Command{Use: commandUse}
	command.SetContext(context.Background())
	return application.initializeConfiguration(command)
}

// ConfigFileUsed reports the configuration file merged during initialization, if any.
func (application *Application) ConfigFileUsed() string {
	return application.loadedConfiguration.ConfigFileUsed
}

// Configuration returns the configuration decoded during initialization.
func (application *Application) Configuration() ApplicationConfiguration {
	return application.configuration
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	output := command.OutOrStdout()

	if flagChanged(command, initFlagNameConstant) {
		return application.writeInitialConfiguration(output)
	}

	if application.options.printVersion {
		_, printError := fmt.Fprintf(output, versionOutputTemplateConstant, application.versionResolver())
		return printError
	}

	registry, registryError := application.buildRegistry()
	if registryError != nil {
		return registryError
	}

	if application.options.listTasks {
		return printTaskList(output, registry)
	}

	taskName, taskArguments := splitTaskInvocation(arguments)
	if application.options.printPlan {
		return printTaskPlan(output, registry, taskName)
	}

	executionContext := application.commandContextAccessor.WithTaskInvocation(
		command.Context(),
		utils.TaskInvocation{TaskName: taskName, Arguments: taskArguments},
	)
	return application.runRequestedTask(executionContext, registry)
}

func (application *Application) runRequestedTask(executionContext context.Context, registry *tasks.Registry) error {
	invocation, invocationAvailable := application.commandContextAccessor.TaskInvocation(executionContext)
	if !invocationAvailable {
		return errors.New(taskInvocationMissingMessageConstant)
	}
	configurationFilePath, _ := application.commandContextAccessor.ConfigurationFilePath(executionContext)

	application.logger.Debug(
		taskInvocationMessageConstant,
		zap.String(logFieldTaskConstant, invocation.TaskName),
		zap.Strings(logFieldArgumentsConstant, invocation.Arguments),
		zap.String(logFieldConfigurationFileConstant, configurationFilePath),
	)

	runner, runnerError := tasks.NewRunner(tasks.RunnerDependencies{Registry: registry, Logger: application.logger})
	if runnerError != nil {
		return runnerError
	}

	outcome, runError := runner.Run(executionContext, invocation.TaskName, invocation.Arguments...)
	if runError != nil {
		return runError
	}

	application.logger.Debug(
		taskRunFinishedMessageConstant,
		zap.String(logFieldTaskConstant, outcome.Task),
		zap.Strings(logFieldExecutedConstant, outcome.Executed),
		zap.Duration(logFieldDurationConstant, outcome.Duration()),
	)
	return nil
}

func (application *Application) buildRegistry() (*tasks.Registry, error) {
	executor, executorError := execshell.NewShellExecutor(application.logger, application.commandRunner, application.consoleLoggingEnabled())
	if executorError != nil {
		return nil, executorError
	}

	catalog, catalogError := releasetasks.NewCatalog(
		application.configuration.TaskConfiguration(),
		releasetasks.Dependencies{Executor: executor, Logger: application.logger},
	)
	if catalogError != nil {
		return nil, catalogError
	}

	registry := tasks.NewRegistry()
	if registerError := catalog.Register(registry); registerError != nil {
		return nil, registerError
	}
	return registry, nil
}

// flagChanged reports whether the flag was set on the command line. Commands without the flag report false.
func flagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}
	flag := command.Flags().Lookup(flagName)
	return flag != nil && flag.Changed
}
