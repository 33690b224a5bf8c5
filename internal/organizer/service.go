package organizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/colonyops/taskorg/internal/core/logging"
	"github.com/colonyops/taskorg/internal/core/task"
)

// ErrInvalidInput is returned for blank or too-short task text.
var ErrInvalidInput = errors.New("invalid task input")

// MinTaskLength is the shortest accepted task text, in characters.
const MinTaskLength = 3

// StoredMessage is the confirmation message returned by Organize.
const StoredMessage = "Task organized and stored"

// Request is an ingest request from any channel.
type Request struct {
	Task   string `json:"task"`
	Source string `json:"source"`
}

// Response is returned after a task has been classified and stored.
type Response struct {
	ID            string              `json:"id"`
	Message       string              `json:"message"`
	OrganizedTask task.Classification `json:"organized_task"`
}

// ValidateInput reports ErrInvalidInput when text, after trimming, is empty
// or shorter than MinTaskLength.
func ValidateInput(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: task text is empty", ErrInvalidInput)
	}
	if utf8.RuneCountInString(text) < MinTaskLength {
		return fmt.Errorf("%w: task text must be at least %d characters", ErrInvalidInput, MinTaskLength)
	}
	return nil
}

// Service runs the ingest pipeline: classify, store, link.
type Service struct {
	classifier *Classifier
	store      task.Store
	linker     *LinkFinder
	log        zerolog.Logger
}

// NewService creates a Service. A nil linker disables linking.
func NewService(classifier *Classifier, store task.Store, linker *LinkFinder, log zerolog.Logger) *Service {
	return &Service{
		classifier: classifier,
		store:      store,
		linker:     linker,
		log:        log.With().Str("component", "organizer").Logger(),
	}
}

// Organize classifies and stores req.Task. Only validation and storage errors
// are returned; classification and linking degrade instead of failing.
func (s *Service) Organize(ctx context.Context, req Request) (Response, error) {
	if err := ValidateInput(req.Task); err != nil {
		return Response{}, err
	}
	text := strings.TrimSpace(req.Task)

	classification := s.classifier.Classify(ctx, text)

	t := task.New(classification, req.Source)
	ctx = logging.WithSource(ctx, t.Source)
	if err := s.store.Put(ctx, &t); err != nil {
		return Response{}, fmt.Errorf("store task: %w", err)
	}

	s.log.Info().Ctx(ctx).
		Str("task_id", t.ID).
		Str("category", string(t.Category)).
		Str("priority", string(t.Priority)).
		Msg("task organized")

	if s.linker != nil {
		s.linker.FindLinks(ctx, t.ID, t)
	}

	return Response{
		ID:            t.ID,
		Message:       StoredMessage,
		OrganizedTask: t.Classification(),
	}, nil
}
