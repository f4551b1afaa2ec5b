package utils

import (
	"context"
	"strings"
)

type commandContextKey int

const (
	configFileKey commandContextKey = iota
	invocationKey
)

// TaskInvocation is the task named on the command line and the arguments after it.
type TaskInvocation struct {
	TaskName  string
	Arguments []string
}

// CommandContextAccessor reads and writes the per-run values the CLI threads through context.
type CommandContextAccessor struct{}

func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithConfigurationFilePath records the merged config file. An empty path means only embedded defaults were used.
func (CommandContextAccessor) WithConfigurationFilePath(parentContext context.Context, configurationFilePath string) context.Context {
	return context.WithValue(orBackground(parentContext), configFileKey, configurationFilePath)
}

// ConfigurationFilePath returns the path stored by WithConfigurationFilePath.
func (CommandContextAccessor) ConfigurationFilePath(executionContext context.Context) (string, bool) {
	path, found := orBackground(executionContext).Value(configFileKey).(string)
	return path, found
}

// WithTaskInvocation stores a copy of the invocation with a trimmed task name.
// An empty task name selects the default task.
func (CommandContextAccessor) WithTaskInvocation(parentContext context.Context, invocation TaskInvocation) context.Context {
	stored := TaskInvocation{
		TaskName:  strings.TrimSpace(invocation.TaskName),
		Arguments: append([]string{}, invocation.Arguments...),
	}
	return context.WithValue(orBackground(parentContext), invocationKey, stored)
}

// TaskInvocation returns the invocation stored by WithTaskInvocation.
func (CommandContextAccessor) TaskInvocation(executionContext context.Context) (TaskInvocation, bool) {
	invocation, found := orBackground(executionContext).Value(invocationKey).(TaskInvocation)
	return invocation, found
}

func orBackground(candidate context.Context) context.Context {
	if candidate == nil {
		return context.Background()
	}
	return candidate
}
