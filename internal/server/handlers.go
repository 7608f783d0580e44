package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/user/timelineai/internal/intent"
	"github.com/user/timelineai/internal/stream"
	"github.com/user/timelineai/internal/types"
)

// healthDateLayout renders the date the way the web client displays it.
const healthDateLayout = "1/2/2006"

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Message: "OK", Date: s.now().Format(healthDateLayout)})
}

// chat runs the whole pipeline and answers with a single JSON document.
func (s *Server) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, failure(msgInvalidBody))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, failure(msgQueryRequired))
		return
	}

	release, ok := s.limiter.TryAcquire()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, failure(stream.MsgBusy))
		return
	}
	defer release()

	result, err := stream.Drain(c.Request.Context(), s.orchestrator, req.Query)
	if err != nil {
		status, resp, gone := mapError(err)
		if gone {
			return
		}
		c.JSON(status, resp)
		return
	}

	if result.Mode == intent.Chat {
		c.JSON(http.StatusOK, success(result.Answer, msgAnswered))
		return
	}
	c.JSON(http.StatusOK, success(result.Timeline(), msgGenerated))
}

// chatStream runs the pipeline and relays each message as an SSE frame.
func (s *Server) chatStream(c *gin.Context) {
	query := c.Query("query")

	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	sink := &sseSink{c: c}

	release, ok := s.limiter.TryAcquire()
	if !ok {
		_ = sink.Send(stream.Error{Message: stream.MsgBusy})
		return
	}
	defer release()

	start := time.Now()
	err := s.orchestrator.Run(c.Request.Context(), query, sink)
	s.logger.Debug("stream finished",
		"request_id", types.RequestIDFrom(c.Request.Context()),
		"messages", sink.sent,
		"duration", time.Since(start),
		"error", err,
	)
}

// sseSink writes messages to a gin response as "message" events.
type sseSink struct {
	c    *gin.Context
	sent int
}

func (s *sseSink) Send(m stream.Message) error {
	if err := s.c.Request.Context().Err(); err != nil {
		return err
	}
	before := len(s.c.Errors)
	s.c.SSEvent("message", m)
	if len(s.c.Errors) > before {
		return s.c.Errors.Last().Err
	}
	s.c.Writer.Flush()
	s.sent++
	return nil
}
