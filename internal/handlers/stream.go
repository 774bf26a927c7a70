package handlers

import (
	"io"

	"vet-telehealth-server/internal/demo"

	"github.com/gin-gonic/gin"
)

// StreamHandler relays store events to browser tabs over Server-Sent
// Events. Each connected tab gets every event, local or remote in origin,
// which is how open screens react live to intakes, assignments, and call
// hand-offs happening elsewhere.
type StreamHandler struct {
	Store *demo.Store
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(store *demo.Store) *StreamHandler {
	return &StreamHandler{Store: store}
}

// Events handles a long-lived SSE subscription. Events that arrive while
// the client's buffer is full are dropped; the client re-fetches current
// state on reconnect anyway.
func (h *StreamHandler) Events(c *gin.Context) {
	ch := make(chan demo.Event, 16)
	unsubscribe := h.Store.Subscribe(func(ev demo.Event) {
		select {
		case ch <- ev:
		default:
			// slow client, drop event
		}
	})
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case ev := <-ch:
			c.SSEvent(string(ev.Type), ev.Payload)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
