package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/colonyops/taskorg/internal/channels"
	"github.com/colonyops/taskorg/internal/organizer"
)

const maxBodySize = 1 << 20 // 1MB

// HeaderBodyBase64 marks a chat webhook body as base64 encoded.
const HeaderBodyBase64 = "X-Body-Base64"

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var req organizer.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	resp, err := s.opts.Organizer.Organize(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, organizer.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.log.Error().Err(err).Msg("organize task")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleEmail(c *gin.Context) {
	var ev channels.SESEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	res, err := s.opts.Email.Handle(c.Request.Context(), ev)
	if err != nil {
		s.log.Error().Err(err).Msg("handle email event")
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	s.log.Debug().Int("processed", res.Processed).Int("ignored", res.Ignored).Int("failed", res.Failed).Msg("email event handled")
	c.String(http.StatusOK, "Processed")
}

func (s *Server) handleChat(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.twiml(c, channels.ReplyError)
		return
	}

	isBase64 := strings.EqualFold(c.GetHeader(HeaderBodyBase64), "true")
	msg, err := channels.ParseChatForm(raw, isBase64)
	if err != nil {
		s.log.Warn().Err(err).Msg("parse chat webhook")
		s.twiml(c, channels.ReplyError)
		return
	}

	if msg.Body == "" {
		c.JSON(http.StatusOK, gin.H{"message": channels.ReplyNoMessage})
		return
	}

	s.twiml(c, s.opts.Chat.Reply(c.Request.Context(), msg))
}

func (s *Server) twiml(c *gin.Context, message string) {
	c.Data(http.StatusOK, "text/xml", []byte(channels.TwiML(message)))
}
