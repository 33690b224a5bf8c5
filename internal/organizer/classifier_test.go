package organizer

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/taskorg/internal/core/task"
	"github.com/colonyops/taskorg/internal/inference"
)

func TestClassifier_Classify(t *testing.T) {
	ctx := context.Background()

	t.Run("uses model reply", func(t *testing.T) {
		llm := &fakeCompleter{replies: []string{
			`{"task":"ignored","category":"Work","priority":"high","estimated_time":120,"tags":["report","q3"]}`,
		}}
		c := NewClassifier(llm, zerolog.Nop())

		got := c.Classify(ctx, "Finish the quarterly report")

		assert.Equal(t, task.Classification{
			Text:             "Finish the quarterly report",
			Category:         task.CategoryWork,
			Priority:         task.PriorityHigh,
			EstimatedMinutes: 120,
			Tags:             []string{"report", "q3"},
		}, got)

		require.Len(t, llm.requests, 1)
		req := llm.requests[0]
		assert.Equal(t, 300, req.MaxTokens)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Contains(t, req.Messages[0].Content, "Task: Finish the quarterly report")
		assert.Contains(t, req.Messages[0].Content, "Return only valid JSON")
	})

	t.Run("tolerates fences and prose", func(t *testing.T) {
		llm := &fakeCompleter{replies: []string{
			"Here you go:\n```json\n{\"category\":\"learning\",\"priority\":\"LOW\",\"estimated_time\":45,\"tags\":[]}\n```",
		}}
		got := NewClassifier(llm, zerolog.Nop()).Classify(ctx, "Study Go generics")

		assert.Equal(t, task.CategoryLearning, got.Category)
		assert.Equal(t, task.PriorityLow, got.Priority)
		assert.Equal(t, 45, got.EstimatedMinutes)
	})

	t.Run("repairs missing and invalid fields", func(t *testing.T) {
		llm := &fakeCompleter{replies: []string{
			`{"category":"Errands","priority":"whenever","estimated_time":-5}`,
		}}
		got := NewClassifier(llm, zerolog.Nop()).Classify(ctx, "Pick up dry cleaning")

		assert.Equal(t, task.CategoryPersonal, got.Category)
		assert.Equal(t, task.PriorityMedium, got.Priority)
		assert.Equal(t, 30, got.EstimatedMinutes)
		assert.NotNil(t, got.Tags)
		assert.Empty(t, got.Tags)
	})

	t.Run("empty object gets defaults", func(t *testing.T) {
		llm := &fakeCompleter{replies: []string{`{}`}}
		got := NewClassifier(llm, zerolog.Nop()).Classify(ctx, "buy milk urgently")

		assert.Equal(t, task.CategoryPersonal, got.Category)
		assert.Equal(t, task.PriorityMedium, got.Priority)
		assert.Equal(t, 30, got.EstimatedMinutes)
	})

	t.Run("falls back on remote error", func(t *testing.T) {
		llm := &fakeCompleter{errs: []error{fmt.Errorf("%w: status 503", inference.ErrRemoteCall)}}
		got := NewClassifier(llm, zerolog.Nop()).Classify(ctx, "Buy groceries for dinner")

		assert.Equal(t, Fallback("Buy groceries for dinner"), got)
		assert.Equal(t, 1, llm.calls())
	})

	t.Run("falls back on unparseable reply", func(t *testing.T) {
		llm := &fakeCompleter{replies: []string{"I think this is a work task."}}
		got := NewClassifier(llm, zerolog.Nop()).Classify(ctx, "Finish project report ASAP")

		assert.Equal(t, task.CategoryWork, got.Category)
		assert.Equal(t, task.PriorityHigh, got.Priority)
		assert.Equal(t, 30, got.EstimatedMinutes)
	})

	t.Run("max tokens override", func(t *testing.T) {
		llm := &fakeCompleter{replies: []string{`{}`}}
		NewClassifier(llm, zerolog.Nop()).WithMaxTokens(120).WithMaxTokens(0).Classify(ctx, "Call mom")
		assert.Equal(t, 120, llm.requests[0].MaxTokens)
	})

	t.Run("nil client uses fallback", func(t *testing.T) {
		got := NewClassifier(nil, zerolog.Nop()).Classify(ctx, "Book a doctor appointment")
		assert.Equal(t, task.CategoryHealth, got.Category)
	})
}
