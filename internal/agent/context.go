package agent

import (
	"bytes"
	"fmt"
	"text/template"
)

// buildContext renders cfg's prompt template against the triggering
// event's payload, optionally prepending a system preamble and appending a
// serialized JSON schema, the same text/template-based assembly the
// teacher uses for its coordinator system prompts.
func buildContext(cfg Config, payload map[string]any) (string, error) {
	tmpl, err := template.New(cfg.ID + "-prompt").Parse(cfg.PromptTemplate)
	if err != nil {
		return "", fmt.Errorf("parse prompt template: %w", err)
	}

	var buf bytes.Buffer
	if cfg.SystemPreamble != "" {
		buf.WriteString(cfg.SystemPreamble)
		buf.WriteString("\n\n")
	}

	if err := tmpl.Execute(&buf, payload); err != nil {
		return "", fmt.Errorf("render prompt template: %w", err)
	}

	if cfg.JSONSchema != "" {
		buf.WriteString("\n\nRespond with JSON matching this schema:\n")
		buf.WriteString(cfg.JSONSchema)
	}

	return buf.String(), nil
}

// renderPayloadTemplate renders a publish_message action's static payload
// templates against the triggering event's payload, so hooks can echo
// fields from the event that fired them (e.g. forwarding an issue id).
func renderPayloadTemplate(templates map[string]string, payload map[string]any) (map[string]any, error) {
	if len(templates) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(templates))
	for key, tmplSrc := range templates {
		tmpl, err := template.New(key).Parse(tmplSrc)
		if err != nil {
			return nil, fmt.Errorf("parse payload template %q: %w", key, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, payload); err != nil {
			return nil, fmt.Errorf("render payload template %q: %w", key, err)
		}
		out[key] = buf.String()
	}
	return out, nil
}
