package util

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

var funcs = template.FuncMap{
	"default": func(defaultVal any, val any) any {
		if val == nil || val == "" {
			return defaultVal
		}
		return val
	},
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"trim":  strings.TrimSpace,
	"title": func(s string) string {
		if len(s) == 0 {
			return s
		}
		return strings.ToUpper(string(s[0])) + strings.ToLower(s[1:])
	},
	"join": func(sep string, items []any) string {
		strItems := make([]string, len(items))
		for i, item := range items {
			strItems[i] = fmt.Sprintf("%v", item)
		}
		return strings.Join(strItems, sep)
	},
}

// Template is a parsed prompt template. Missing keys are an execution error
// so a mapper/prompt key mismatch never produces a silently blank prompt.
type Template struct {
	text string
	tmpl *template.Template
}

// ParseTemplate parses text once for repeated rendering.
func ParseTemplate(name, text string) (*Template, error) {
	if !strings.Contains(text, "{{") { // fast path: no template markers
		return &Template{text: text}, nil
	}
	tmpl, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, err
	}
	return &Template{text: text, tmpl: tmpl}, nil
}

// Render executes the template against state.
func (t *Template) Render(state map[string]any) (string, error) {
	if t.tmpl == nil {
		return t.text, nil
	}
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, state); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderTemplate parses and renders text in one step.
func RenderTemplate(text string, state map[string]any) (string, error) {
	t, err := ParseTemplate("prompt", text)
	if err != nil {
		return "", err
	}
	return t.Render(state)
}
