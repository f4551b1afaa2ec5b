package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithConfigurationFilePathStoresValue(t *testing.T) {
	accessor := NewCommandContextAccessor()
	enriched := accessor.WithConfigurationFilePath(context.Background(), "/etc/tasker/config.yaml")

	configurationFilePath, exists := accessor.ConfigurationFilePath(enriched)
	require.True(t, exists)
	require.Equal(t, "/etc/tasker/config.yaml", configurationFilePath)
}

func TestWithTaskInvocationCopiesArguments(t *testing.T) {
	accessor := NewCommandContextAccessor()
	arguments := []string{"-k", "registry"}
	enriched := accessor.WithTaskInvocation(context.Background(), TaskInvocation{TaskName: " test ", Arguments: arguments})
	arguments[0] = "--mutated"

	invocation, exists := accessor.TaskInvocation(enriched)
	require.True(t, exists)
	require.Equal(t, TaskInvocation{TaskName: "test", Arguments: []string{"-k", "registry"}}, invocation)
}

func TestAccessorsHandleMissingValues(t *testing.T) {
	accessor := NewCommandContextAccessor()

	_, exists := accessor.TaskInvocation(context.Background())
	require.False(t, exists)

	_, exists = accessor.ConfigurationFilePath(context.Background())
	require.False(t, exists)
}

func TestAccessorsTolerateNilContext(t *testing.T) {
	accessor := NewCommandContextAccessor()

	enriched := accessor.WithTaskInvocation(nil, TaskInvocation{TaskName: "pypi"})
	invocation, exists := accessor.TaskInvocation(enriched)
	require.True(t, exists)
	require.Equal(t, "pypi", invocation.TaskName)
	require.Empty(t, invocation.Arguments)

	_, exists = accessor.ConfigurationFilePath(nil)
	require.False(t, exists)
}
