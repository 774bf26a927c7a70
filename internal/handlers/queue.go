package handlers

import (
	"vet-telehealth-server/internal/demo"
	"vet-telehealth-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// QueueHandler handles the triage-queue screen.
type QueueHandler struct {
	Store *demo.Store
}

// NewQueueHandler creates a new QueueHandler.
func NewQueueHandler(store *demo.Store) *QueueHandler {
	return &QueueHandler{Store: store}
}

// GetQueue handles fetching the queue. By default it returns open cases in
// triage order (red first, oldest first within a level); ?all=true returns
// every case in insertion order, completed included.
func (h *QueueHandler) GetQueue(c *gin.Context) {
	var cases []demo.Case
	if c.Query("all") == "true" {
		cases = h.Store.Cases()
	} else {
		cases = h.Store.OpenCasesByTriage()
	}
	utils.Success(c, "Queue fetched successfully", cases)
}

// GetQueueStats handles fetching the aggregate queue metrics.
func (h *QueueHandler) GetQueueStats(c *gin.Context) {
	utils.Success(c, "Queue stats fetched successfully", h.Store.QueueStats())
}
