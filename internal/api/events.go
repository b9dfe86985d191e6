package api

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/unisupport/unisupport/internal/quiz"
	"github.com/unisupport/unisupport/internal/realtime"
	"github.com/unisupport/unisupport/internal/session"
)

const keepAliveInterval = 25 * time.Second

// events streams the caller's attempt.created notifications as server-sent
// events until the client disconnects.
func (s *Server) events(c *gin.Context) {
	if s.opts.Hub == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "realtime events are not configured"})
		return
	}
	userID := profileFrom(c).UserID

	ch, unsubscribe := s.opts.Hub.Subscribe(session.EventAttemptCreated, realtime.DefaultBuffer)
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	ctx := c.Request.Context()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			_, err := io.WriteString(w, ": keep-alive\n\n")
			return err == nil
		case msg, ok := <-ch:
			if !ok {
				return false
			}
			if a, isAttempt := msg.Data.(quiz.Attempt); isAttempt && a.UserID != userID {
				return true
			}
			c.SSEvent(msg.Topic, msg.Data)
			return true
		}
	})
}
