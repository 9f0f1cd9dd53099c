// Package assets provides the embedded configuration templates.
package assets

import (
	"bytes"
	"embed"
	"fmt"
	"path"
	"text/template"
)

//go:embed templates/*
var templatesFS embed.FS

// LoadTemplate returns the content of an embedded template by file name.
func LoadTemplate(name string) (string, error) {
	data, err := templatesFS.ReadFile(path.Join("templates", name))
	if err != nil {
		return "", fmt.Errorf("template %q not found", name)
	}
	return string(data), nil
}

// RenderTemplate executes an embedded template with data.
func RenderTemplate(name string, data any) (string, error) {
	content, err := LoadTemplate(name)
	if err != nil {
		return "", err
	}
	tmpl, err := template.New(name).Parse(content)
	if err != nil {
		return "", fmt.Errorf("parsing template %q: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering template %q: %w", name, err)
	}
	return buf.String(), nil
}
