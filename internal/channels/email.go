package channels

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"github.com/colonyops/taskorg/internal/core/task"
	"github.com/colonyops/taskorg/internal/notify"
	"github.com/colonyops/taskorg/internal/organizer"
)

// DefaultEmailPrefix marks a subject line as a task submission.
const DefaultEmailPrefix = "[task]"

// ErrMalformedEvent is returned for mail events missing required headers.
var ErrMalformedEvent = errors.New("malformed mail event")

// SESEvent is the notification payload delivered for received mail.
type SESEvent struct {
	Records []SESRecord `json:"Records"`
}

// SESRecord is one received message.
type SESRecord struct {
	EventSource string `json:"eventSource"`
	SES         struct {
		Mail SESMail `json:"mail"`
	} `json:"ses"`
}

// SESMail holds the parsed headers of a received message.
type SESMail struct {
	CommonHeaders struct {
		Subject string   `json:"subject"`
		From    []string `json:"from"`
	} `json:"commonHeaders"`
}

// EmailConfig configures the email channel.
type EmailConfig struct {
	// Prefix is matched case-insensitively at the start of the subject.
	Prefix string
	// Allow holds sender glob patterns. Empty allows every sender.
	Allow []string
}

// EmailResult counts what happened to the records of one event.
type EmailResult struct {
	Processed int
	Ignored   int
	Failed    int
}

// EmailHandler turns "[task] ..." subjects into tasks and mails a
// confirmation back to the sender.
type EmailHandler struct {
	org      Organizer
	notifier notify.Notifier
	prefix   string
	allow    []string
	log      zerolog.Logger
}

// NewEmailHandler creates an EmailHandler. It fails if an allow pattern is
// not a valid glob.
func NewEmailHandler(org Organizer, notifier notify.Notifier, cfg EmailConfig, log zerolog.Logger) (*EmailHandler, error) {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultEmailPrefix
	}

	allow := make([]string, 0, len(cfg.Allow))
	for _, p := range cfg.Allow {
		p = strings.ToLower(p)
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid sender pattern %q", p)
		}
		allow = append(allow, p)
	}

	if notifier == nil {
		notifier = notify.Nop{}
	}

	return &EmailHandler{
		org:      org,
		notifier: notifier,
		prefix:   strings.ToLower(prefix),
		allow:    allow,
		log:      log.With().Str("component", "email-channel").Logger(),
	}, nil
}

// Handle processes every mail record in ev. Records from other sources,
// subjects without the prefix and senders outside the allow list are
// ignored. Storage failures abort so the event can be redelivered.
func (h *EmailHandler) Handle(ctx context.Context, ev SESEvent) (EmailResult, error) {
	var res EmailResult

	for _, rec := range ev.Records {
		if rec.EventSource != "aws:ses" {
			res.Ignored++
			continue
		}

		headers := rec.SES.Mail.CommonHeaders
		if len(headers.From) == 0 || headers.From[0] == "" {
			return res, fmt.Errorf("%w: no sender", ErrMalformedEvent)
		}
		sender := senderAddress(headers.From[0])

		text, ok := h.taskText(headers.Subject)
		if !ok {
			h.log.Debug().Str("subject", headers.Subject).Msg("ignoring email without task prefix")
			res.Ignored++
			continue
		}

		if !h.allowed(sender) {
			h.log.Info().Str("sender", sender).Msg("ignoring email from unlisted sender")
			res.Ignored++
			continue
		}

		resp, err := h.org.Organize(ctx, organizer.Request{Task: text, Source: "email:" + sender})
		if err != nil {
			if errors.Is(err, organizer.ErrInvalidInput) {
				h.log.Info().Err(err).Str("sender", sender).Msg("rejected email task")
				res.Failed++
				continue
			}
			return res, fmt.Errorf("organize email task: %w", err)
		}

		res.Processed++
		h.log.Info().Str("task_id", resp.ID).Str("sender", sender).Msg("task organized from email")

		if err := h.notifier.Notify(ctx, ConfirmationEmail(sender, resp.OrganizedTask)); err != nil {
			h.log.Warn().Err(err).Str("sender", sender).Msg("send confirmation email")
		}
	}

	return res, nil
}

func (h *EmailHandler) taskText(subject string) (string, bool) {
	trimmed := strings.TrimSpace(subject)
	if len(trimmed) < len(h.prefix) || !strings.EqualFold(trimmed[:len(h.prefix)], h.prefix) {
		return "", false
	}
	return strings.TrimSpace(trimmed[len(h.prefix):]), true
}

func (h *EmailHandler) allowed(sender string) bool {
	if len(h.allow) == 0 {
		return true
	}
	sender = strings.ToLower(sender)
	for _, p := range h.allow {
		if ok, _ := doublestar.Match(p, sender); ok {
			return true
		}
	}
	return false
}

// senderAddress strips any display name from a From header value.
func senderAddress(from string) string {
	if addr, err := mail.ParseAddress(from); err == nil {
		return addr.Address
	}
	return strings.TrimSpace(from)
}

// ConfirmationEmail builds the reply sent after an emailed task is stored.
func ConfirmationEmail(to string, c task.Classification) notify.Message {
	body := fmt.Sprintf(`Your task has been organized!

Task: %s
Category: %s
Priority: %s
Estimated Time: %d minutes

The task has been added to your vault and will sync automatically.

---
Task Organizer
`, c.Text, c.Category, c.Priority, c.EstimatedMinutes)

	return notify.Message{
		To:      to,
		Subject: "✅ Task Organized: " + string(c.Category),
		Body:    body,
	}
}
