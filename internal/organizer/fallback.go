package organizer

import (
	"strings"

	"github.com/colonyops/taskorg/internal/core/task"
)

// Checked in order; the first set with a hit wins.
var categoryKeywords = []struct {
	category task.Category
	words    []string
}{
	{task.CategoryShopping, []string{"buy", "shop", "grocery", "store"}},
	{task.CategoryWork, []string{"work", "meeting", "project", "deadline"}},
	{task.CategoryHealth, []string{"doctor", "health", "exercise", "gym"}},
	{task.CategoryLearning, []string{"learn", "study", "read", "course"}},
}

var (
	highPriorityWords = []string{"urgent", "asap", "immediately", "critical"}
	lowPriorityWords  = []string{"later", "someday", "maybe"}
)

// Fallback classifies text with keyword matching alone. It is deterministic
// and never touches the network.
func Fallback(text string) task.Classification {
	lower := strings.ToLower(text)

	category := task.DefaultCategory
	for _, set := range categoryKeywords {
		if containsAny(lower, set.words) {
			category = set.category
			break
		}
	}

	priority := task.DefaultPriority
	switch {
	case containsAny(lower, highPriorityWords):
		priority = task.PriorityHigh
	case containsAny(lower, lowPriorityWords):
		priority = task.PriorityLow
	}

	return task.Classification{
		Text:             text,
		Category:         category,
		Priority:         priority,
		EstimatedMinutes: task.DefaultEstimatedMinutes,
		Tags:             []string{},
	}
}

// containsAny matches substrings, so "bought" does not hit "buy" but
// "workout" hits "work".
func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
