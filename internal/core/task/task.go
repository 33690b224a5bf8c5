// Package task defines the task and link domain model for the organizer.
package task

import (
	"strings"
	"time"
)

// Category is the fixed set of buckets a task is filed under.
type Category string

const (
	CategoryWork     Category = "Work"
	CategoryPersonal Category = "Personal"
	CategoryProjects Category = "Projects"
	CategoryHealth   Category = "Health"
	CategoryShopping Category = "Shopping"
	CategoryLearning Category = "Learning"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryWork,
	CategoryPersonal,
	CategoryProjects,
	CategoryHealth,
	CategoryShopping,
	CategoryLearning,
}

// IsValid reports whether c is one of the known categories.
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory matches s against the known categories, ignoring case and
// surrounding whitespace. It returns the canonical spelling.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	return "", false
}

// Priority is the urgency assigned at classification time.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// IsValid reports whether p is one of the known priorities.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// ParsePriority matches s against the known priorities, ignoring case.
func ParsePriority(s string) (Priority, bool) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	return p, p.IsValid()
}

// Defaults applied when a classification is missing a field.
const (
	DefaultCategory         = CategoryPersonal
	DefaultPriority         = PriorityMedium
	DefaultEstimatedMinutes = 30
	DefaultSource           = "unknown"
)

// Classification is the structured result of organizing free-form task text.
type Classification struct {
	Text             string   `json:"task"`
	Category         Category `json:"category"`
	Priority         Priority `json:"priority"`
	EstimatedMinutes int      `json:"estimated_time"`
	Tags             []string `json:"tags"`
}

// Task is a classified task as persisted by the store.
type Task struct {
	ID               string    `json:"id"`
	Text             string    `json:"task"`
	Category         Category  `json:"category"`
	Priority         Priority  `json:"priority"`
	EstimatedMinutes int       `json:"estimated_time"`
	Tags             []string  `json:"tags"`
	Source           string    `json:"source"`
	CreatedAt        time.Time `json:"timestamp"`
	Synced           bool      `json:"synced_to_obsidian"`
	Completed        bool      `json:"completed"`
}

// New builds an unsaved task from a classification. ID and CreatedAt are
// assigned by the store on Put.
func New(c Classification, source string) Task {
	if source == "" {
		source = DefaultSource
	}
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	return Task{
		Text:             c.Text,
		Category:         c.Category,
		Priority:         c.Priority,
		EstimatedMinutes: c.EstimatedMinutes,
		Tags:             tags,
		Source:           source,
	}
}

// Classification returns the classified fields of the task.
func (t Task) Classification() Classification {
	return Classification{
		Text:             t.Text,
		Category:         t.Category,
		Priority:         t.Priority,
		EstimatedMinutes: t.EstimatedMinutes,
		Tags:             t.Tags,
	}
}

// ShortID returns the first eight characters of the ID.
func (t Task) ShortID() string {
	if len(t.ID) > 8 {
		return t.ID[:8]
	}
	return t.ID
}

// LinkType names the kind of relationship between two tasks.
type LinkType string

// LinkRelated is the only link type produced today.
const LinkRelated LinkType = "related"

// Link is a directed relationship from a new task to an existing one.
type Link struct {
	SourceTaskID string    `json:"source_task_id"`
	TargetTaskID string    `json:"target_task_id"`
	Type         LinkType  `json:"link_type"`
	CreatedAt    time.Time `json:"created_at"`
}
