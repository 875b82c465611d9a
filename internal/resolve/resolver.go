/*
Copyright © 2025 Stackhand Contributors
SPDX-License-Identifier: BSD-3-Clause
*/

// Package resolve turns a template URI into the rendered template body the
// deployment commands submit. Templates are read from file:// URIs (or plain
// paths) and pre-processed with Go text/template plus the Sprig function set
// before they reach CloudFormation.
package resolve

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// TemplateResolver defines the interface for reading and rendering templates
type TemplateResolver interface {
	Resolve(templateURI string, variables map[string]any) (string, error)
}

// FileTemplateResolver implements TemplateResolver for local template files
type FileTemplateResolver struct{}

// NewFileTemplateResolver creates a resolver reading templates from the
// local filesystem
func NewFileTemplateResolver() *FileTemplateResolver {
	return &FileTemplateResolver{}
}

// Resolve reads the template at templateURI and renders it with variables.
func (r *FileTemplateResolver) Resolve(templateURI string, variables map[string]any) (string, error) {
	path := parseFileURI(templateURI)

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read template file %s: %w", path, err)
	}

	rendered, err := render(string(content), variables)
	if err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", path, err)
	}
	return rendered, nil
}

// render processes the template content with Sprig functions available.
// CloudFormation's own ${} substitutions pass through untouched; only Go
// template actions are evaluated.
func render(content string, variables map[string]any) (string, error) {
	tmpl, err := template.New("cloudformation").
		Funcs(sprig.TxtFuncMap()).
		Parse(content)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, variables); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// parseFileURI strips a file:// scheme; anything else is treated as a path
func parseFileURI(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}
