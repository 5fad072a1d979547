// Package template renders message and note bodies against the live
// execution context.
package template

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/seedflow/seedflow/pkg/models"
)

// RenderWithContext renders input with the execution context exposed as
// .context (the trigger payload carried through the run) plus execution
// metadata under .execution.
func RenderWithContext(input string, scope models.ExecutionContext) (string, error) {
	data := map[string]any{
		"context": scope.Data,
		"execution": map[string]any{
			"id":           scope.ExecutionID,
			"flow_id":      scope.FlowID,
			"branch_id":    scope.BranchID,
			"trigger_type": scope.TriggerType,
		},
	}

	return Render(input, data)
}

// Render parses and executes input as a text/template over data. Plain
// strings without template actions pass through unchanged.
func Render(input string, data any) (string, error) {
	if !strings.Contains(input, "{{") {
		return input, nil
	}

	tmpl, err := template.
		New("render").
		Option("missingkey=zero").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
			"upper": strings.ToUpper,
			"lower": strings.ToLower,
		}).Parse(input)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %q: %w", input, err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %q: %w", input, err)
	}

	return buf.String(), nil
}
