// Package tmpl provides text template rendering with a small set of helpers
// for Markdown output.
package tmpl

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// hashtags renders tags as "#a #b". Blank tags are skipped and inner
// whitespace is replaced with hyphens so each tag stays one token.
func hashtags(tags []string) string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		out = append(out, "#"+strings.Join(strings.Fields(tag), "-"))
	}
	return strings.Join(out, " ")
}

var funcs = template.FuncMap{
	"join":     strings.Join,
	"hashtags": hashtags,
	"rfc3339":  func(t time.Time) string { return t.Format(time.RFC3339) },
	"date":     func(t time.Time) string { return t.Format(time.DateOnly) },
}

// Render executes a Go template string with the given data.
// Returns an error if the template is invalid or references undefined keys.
//
// Available template functions:
//   - join: Join string slice with separator (e.g., join .Tags ", ")
//   - hashtags: Render a string slice as space separated #tags
//   - rfc3339: Format a time.Time as RFC 3339
//   - date: Format a time.Time as YYYY-MM-DD
func Render(tmpl string, data any) (string, error) {
	t, err := template.New("").Funcs(funcs).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}
