// Package vault writes stored tasks into a Markdown notes vault.
package vault

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/colonyops/taskorg/internal/core/task"
	"github.com/colonyops/taskorg/pkg/tmpl"
)

// TasksDir is the directory under the vault root that holds task notes.
const TasksDir = "Tasks"

const noteTemplate = `# {{ .Text }}

**Priority:** {{ .Priority }}
**Category:** {{ .Category }}
**Source:** {{ .Source }}
**Estimated Time:** {{ .EstimatedMinutes }} minutes
**Added:** {{ rfc3339 .CreatedAt }}

{{ hashtags .Tags }}

## Notes
- [ ] {{ .Text }}

## Details
<!-- Add additional notes, links, or details here -->

---
*Auto-generated from task organizer - ID: {{ .ID }}*
`

// RenderNote renders the Markdown body for t.
func RenderNote(t task.Task) (string, error) {
	return tmpl.Render(noteTemplate, t)
}

const titleRunes = 30

// SanitizeTitle keeps the first 30 characters of text, drops everything but
// letters, digits, spaces, hyphens and underscores, then trims.
func SanitizeTitle(text string) string {
	var sb strings.Builder
	n := 0
	for _, r := range text {
		if n == titleRunes {
			break
		}
		n++
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			sb.WriteRune(r)
		}
	}
	return strings.TrimSpace(sb.String())
}

// NoteName returns the file name for t:
// <priority>-<YYYY-MM-DD>-<title>-<id8>.md, dated by the UTC creation day.
func NoteName(t task.Task) string {
	return string(t.Priority) + "-" +
		t.CreatedAt.UTC().Format("2006-01-02") + "-" +
		SanitizeTitle(t.Text) + "-" +
		t.ShortID() + ".md"
}

// NotePath returns the absolute location of t's note under root.
func NotePath(root string, t task.Task) string {
	return filepath.Join(root, TasksDir, string(t.Category), NoteName(t))
}
