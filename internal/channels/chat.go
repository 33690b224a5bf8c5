package channels

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/colonyops/taskorg/internal/organizer"
)

// Chat replies.
const (
	ReplyNoMessage = "No message received"
	ReplyFailed    = "❌ Failed to organize task"
	ReplyError     = "❌ Error processing task"
)

// ChatMessage is an inbound chat message.
type ChatMessage struct {
	Body string
	From string
}

// ParseChatForm decodes a form-encoded webhook body, optionally base64
// wrapped.
func ParseChatForm(raw []byte, isBase64 bool) (ChatMessage, error) {
	if isBase64 {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
		if err != nil {
			return ChatMessage{}, fmt.Errorf("decode base64 body: %w", err)
		}
		raw = decoded
	}

	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return ChatMessage{}, fmt.Errorf("parse form body: %w", err)
	}

	return ChatMessage{
		Body: values.Get("Body"),
		From: values.Get("From"),
	}, nil
}

// ChatHandler organizes chat messages and builds the text reply.
type ChatHandler struct {
	org Organizer
	log zerolog.Logger
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(org Organizer, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		org: org,
		log: log.With().Str("component", "chat-channel").Logger(),
	}
}

// Reply organizes msg and returns the confirmation text. msg.Body must be
// non-empty.
func (h *ChatHandler) Reply(ctx context.Context, msg ChatMessage) string {
	resp, err := h.org.Organize(ctx, organizer.Request{Task: msg.Body, Source: "whatsapp:" + msg.From})
	if err != nil {
		h.log.Warn().Err(err).Str("from", msg.From).Msg("organize chat task")
		return ReplyFailed
	}

	h.log.Info().Str("task_id", resp.ID).Str("from", msg.From).Msg("task organized from chat")

	c := resp.OrganizedTask
	return fmt.Sprintf("✅ Task organized!\nCategory: %s\nPriority: %s\nEst. time: %d min",
		c.Category, c.Priority, c.EstimatedMinutes)
}

// xmlEscaper escapes markup characters but keeps line breaks literal.
var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;")

// TwiML wraps message in a messaging response document.
func TwiML(message string) string {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString("<Response>\n    <Message>")
	buf.WriteString(xmlEscaper.Replace(message))
	buf.WriteString("</Message>\n</Response>")
	return buf.String()
}
