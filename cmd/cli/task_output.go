package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/tyemirov/tasker/internal/tasks"
)

const (
	taskListColumnPaddingConstant   = 2
	taskListDefaultMarkerConstant   = "(default)"
	planRenderErrorTemplateConstant = "unable to render plan for %s: %w"
)

type taskPlan struct {
	Task  string   `yaml:"task"`
	Order []string `yaml:"order"`
}

// splitTaskInvocation separates the task name from its arguments. No arguments selects the default task.
func splitTaskInvocation(arguments []string) (string, []string) {
	if len(arguments) == 0 {
		return "", nil
	}
	return arguments[0], append([]string{}, arguments[1:]...)
}

func printTaskList(output io.Writer, registry *tasks.Registry) error {
	names := registry.Names()
	nameWidth := 0
	for _, name := range names {
		nameWidth = max(nameWidth, len(name))
	}

	renderer := lipgloss.NewRenderer(output)
	nameStyle := renderer.NewStyle().Bold(true).Width(nameWidth + taskListColumnPaddingConstant)
	markerStyle := renderer.NewStyle().Faint(true)
	defaultName := registry.DefaultName()

	for _, name := range names {
		task, lookupError := registry.Lookup(name)
		if lookupError != nil {
			return lookupError
		}
		line := nameStyle.Render(name) + task.Description()
		if name == defaultName {
			line += " " + markerStyle.Render(taskListDefaultMarkerConstant)
		}
		if _, writeError := fmt.Fprintln(output, strings.TrimRight(line, " ")); writeError != nil {
			return writeError
		}
	}
	return nil
}

func printTaskPlan(output io.Writer, registry *tasks.Registry, taskName string) error {
	order, planError := registry.Plan(taskName)
	if planError != nil {
		return planError
	}

	resolvedName := taskName
	if len(strings.TrimSpace(resolvedName)) == 0 {
		resolvedName = registry.DefaultName()
	}

	encoder := yaml.NewEncoder(output)
	encoder.SetIndent(2)
	if encodeError := encoder.Encode(taskPlan{Task: resolvedName, Order: order}); encodeError != nil {
		return fmt.Errorf(planRenderErrorTemplateConstant, resolvedName, encodeError)
	}
	return encoder.Close()
}
