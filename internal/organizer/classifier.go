// Package organizer classifies incoming tasks, stores them and links them to
// related work.
package organizer

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/colonyops/taskorg/internal/core/task"
	"github.com/colonyops/taskorg/internal/inference"
)

const classifyMaxTokens = 300

const classifyPrompt = `Analyze this task and return ONLY a JSON object with these fields:
- "task": the original task text
- "category": best category (Work, Personal, Projects, Health, Shopping, Learning)
- "priority": high, medium, or low
- "estimated_time": estimated minutes as integer
- "tags": array of relevant tags

Task: %s

Return only valid JSON, no other text.`

// classifierReply mirrors the requested object. Pointers distinguish a
// missing field from a zero value.
type classifierReply struct {
	Category      *string      `json:"category"`
	Priority      *string      `json:"priority"`
	EstimatedTime *json.Number `json:"estimated_time"`
	Tags          []string     `json:"tags"`
}

// Classifier turns free text into a task.Classification using the inference
// endpoint, falling back to keyword rules whenever that fails.
type Classifier struct {
	llm       inference.Completer
	maxTokens int
	log       zerolog.Logger
}

// NewClassifier creates a Classifier. A nil llm always uses the fallback.
func NewClassifier(llm inference.Completer, log zerolog.Logger) *Classifier {
	return &Classifier{
		llm:       llm,
		maxTokens: classifyMaxTokens,
		log:       log.With().Str("component", "classifier").Logger(),
	}
}

// WithMaxTokens overrides the output budget of classification requests.
// Values below 1 are ignored.
func (c *Classifier) WithMaxTokens(n int) *Classifier {
	if n > 0 {
		c.maxTokens = n
	}
	return c
}

// Classify never fails: any remote or parse error yields Fallback(text).
func (c *Classifier) Classify(ctx context.Context, text string) task.Classification {
	if c.llm == nil {
		return Fallback(text)
	}

	reply, err := c.llm.Complete(ctx, inference.Prompt(fmt.Sprintf(classifyPrompt, text), c.maxTokens))
	if err != nil {
		c.log.Warn().Err(err).Msg("inference failed, using fallback classification")
		return Fallback(text)
	}

	parsed, err := inference.DecodeObject[classifierReply](reply)
	if err != nil {
		c.log.Warn().Err(err).Msg("unparseable classification, using fallback")
		return Fallback(text)
	}

	return repair(text, parsed)
}

// repair fills missing or out-of-range fields with defaults.
func repair(text string, r classifierReply) task.Classification {
	out := task.Classification{
		Text:             text,
		Category:         task.DefaultCategory,
		Priority:         task.DefaultPriority,
		EstimatedMinutes: task.DefaultEstimatedMinutes,
		Tags:             []string{},
	}

	if r.Category != nil {
		if c, ok := task.ParseCategory(*r.Category); ok {
			out.Category = c
		}
	}

	if r.Priority != nil {
		if p, ok := task.ParsePriority(*r.Priority); ok {
			out.Priority = p
		}
	}

	if r.EstimatedTime != nil {
		if f, err := r.EstimatedTime.Float64(); err == nil && f >= 0 && f <= math.MaxInt32 {
			out.EstimatedMinutes = int(math.Round(f))
		}
	}

	for _, tag := range r.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out.Tags = append(out.Tags, tag)
		}
	}

	return out
}
