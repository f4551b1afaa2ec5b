package tasks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func noopBody(context.Context, []string) error {
	return nil
}

func TestRegistryDefineValidation(t *testing.T) {
	testCases := []struct {
		name          string
		taskName      string
		prerequisites []string
		body          Body
		expectedError string
	}{
		{
			name:          "empty_name",
			taskName:      "  ",
			body:          noopBody,
			expectedError: taskNameRequiredMessageConstant,
		},
		{
			name:          "missing_body",
			taskName:      "test",
			expectedError: taskBodyRequiredMessageConstant,
		},
		{
			name:          "blank_prerequisite",
			taskName:      "test",
			prerequisites: []string{"setup", ""},
			body:          noopBody,
			expectedError: prerequisiteNameRequiredMessageConstant,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			registry := NewRegistry()
			err := registry.Define(testCase.taskName, testCase.prerequisites, testCase.body)

			var definitionError InvalidTaskDefinitionError
			require.ErrorAs(t, err, &definitionError)
			require.Equal(t, testCase.expectedError, definitionError.Message)
			require.Empty(t, registry.Names())
		})
	}
}

func TestRegistryPrerequisitesAreCopiedAtRegistration(t *testing.T) {
	prerequisites := []string{"setup"}
	registry := NewRegistry()
	require.NoError(t, registry.Define("test", prerequisites, noopBody))

	prerequisites[0] = "mutated"

	task, err := registry.Lookup("test")
	require.NoError(t, err)
	require.Equal(t, []string{"setup"}, task.Prerequisites())

	returned := task.Prerequisites()
	returned[0] = "mutated"
	require.Equal(t, []string{"setup"}, task.Prerequisites())
}

func TestRegistrySetDefaultReplacesPrevious(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Define("test", nil, noopBody))
	require.NoError(t, registry.Define("apidoc", nil, noopBody))

	require.NoError(t, registry.SetDefault("test"))
	require.NoError(t, registry.SetDefault("apidoc"))

	task, err := registry.Default()
	require.NoError(t, err)
	require.Equal(t, "apidoc", task.Name())
	require.Equal(t, "apidoc", registry.DefaultName())

	require.ErrorIs(t, registry.SetDefault("missing"), ErrTaskNotFound)
	require.Equal(t, "apidoc", registry.DefaultName())
}

func TestRegistryDefaultWithoutConfiguration(t *testing.T) {
	_, err := NewRegistry().Default()
	require.Equal(t, NoDefaultError{}, err)
}

func TestRegistryDescribe(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Define("test", nil, noopBody))
	require.NoError(t, registry.Describe("test", " Run unit tests. "))

	task, err := registry.Lookup("test")
	require.NoError(t, err)
	require.Equal(t, "Run unit tests.", task.Description())

	require.ErrorIs(t, registry.Describe("missing", "x"), ErrTaskNotFound)
}

func TestRegistryNamesAreSorted(t *testing.T) {
	registry := NewRegistry()
	for _, name := range []string{"push", "apidoc", "release", "test"} {
		require.NoError(t, registry.Define(name, nil, noopBody))
	}
	require.Equal(t, []string{"apidoc", "push", "release", "test"}, registry.Names())
}

func TestRegistryValidateAllowsForwardReferencesOnceDefined(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Define("upload", []string{"generate-rst"}, noopBody))

	var notFound NotFoundError
	require.ErrorAs(t, registry.Validate("upload"), &notFound)
	require.Equal(t, "generate-rst", notFound.Name)

	require.NoError(t, registry.Define("generate-rst", nil, noopBody))
	require.NoError(t, registry.Validate("upload"))
}

func TestRegistryValidateDetectsSelfReference(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Define("loop", []string{"loop"}, noopBody))

	var cycleError CycleError
	require.ErrorAs(t, registry.Validate("loop"), &cycleError)
	require.Equal(t, "loop", cycleError.Name)
}

func TestRegistryPlanMatchesRunOrder(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Define("check", nil, noopBody))
	require.NoError(t, registry.Define("test", []string{"check"}, noopBody))
	require.NoError(t, registry.Define("generate-rst", []string{"check"}, noopBody))
	require.NoError(t, registry.Define("pypi", []string{"test", "generate-rst"}, noopBody))
	require.NoError(t, registry.SetDefault("pypi"))

	plan, err := registry.Plan("")
	require.NoError(t, err)
	require.Equal(t, []string{"check", "test", "generate-rst", "pypi"}, plan)

	runner, runnerError := NewRunner(RunnerDependencies{Registry: registry})
	require.NoError(t, runnerError)
	outcome, runError := runner.Run(context.Background(), "pypi")
	require.NoError(t, runError)
	require.Equal(t, plan, outcome.Executed)
}
