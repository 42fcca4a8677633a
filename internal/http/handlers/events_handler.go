package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/emotionwise-web/internal/http/middleware"
)

// DefaultHeartbeat is how often an idle event stream sends a ping.
const DefaultHeartbeat = 25 * time.Second

// Events godoc
// @ID          events
// @Summary     Session event stream
// @Description Server-sent events. The first event is "status" with the current login state; later events are logged_in, logged_out (reason logout or auth_failure) and redirect (location of the login page). Idle streams receive "ping".
// @Tags        Auth
// @Produce     text/event-stream
// @Success     200  {object}  session.Event
// @Router      /events [get]
func (h *Handlers) Events(c *gin.Context) {
	ch, cancel := h.events.Subscribe()
	defer cancel()

	ctx := c.Request.Context()
	st, err := h.auth.Status(ctx)
	if err != nil {
		h.failErr(c, err)
		return
	}

	// The server WriteTimeout would otherwise cut long-lived streams.
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	c.SSEvent("status", st)
	c.Writer.Flush()

	heartbeat := h.heartbeat
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	tick := time.NewTicker(heartbeat)
	defer tick.Stop()

	lg := middleware.LoggerFrom(c)
	for {
		select {
		case <-ctx.Done():
			lg.Debug().Msg("event stream closed by client")
			return
		case ev, open := <-ch:
			if !open {
				return
			}
			c.SSEvent(string(ev.Kind), ev)
			c.Writer.Flush()
		case now := <-tick.C:
			c.SSEvent("ping", gin.H{"at": now.UTC()})
			c.Writer.Flush()
		}
	}
}
