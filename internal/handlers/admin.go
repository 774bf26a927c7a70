package handlers

import (
	"vet-telehealth-server/internal/demo"
	"vet-telehealth-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// AdminHandler handles the admin screens' demo controls.
type AdminHandler struct {
	Store *demo.Store
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(store *demo.Store) *AdminHandler {
	return &AdminHandler{Store: store}
}

// ResetDemo handles restoring all collections to their seed-fixture state.
// Other server instances reload their own seed when the reset broadcast
// reaches them.
func (h *AdminHandler) ResetDemo(c *gin.Context) {
	h.Store.Reset()
	utils.Success(c, "Demo data reset successfully", gin.H{
		"owners":     len(h.Store.Owners()),
		"patients":   len(h.Store.Patients()),
		"cases":      len(h.Store.Cases()),
		"videoCalls": len(h.Store.VideoCalls()),
	})
}

// GetOverview handles the admin dashboard summary.
func (h *AdminHandler) GetOverview(c *gin.Context) {
	stats := h.Store.QueueStats()

	activeCalls := 0
	for _, call := range h.Store.VideoCalls() {
		if call.IsActive {
			activeCalls++
		}
	}

	utils.Success(c, "Overview fetched successfully", gin.H{
		"queue":       stats,
		"owners":      len(h.Store.Owners()),
		"patients":    len(h.Store.Patients()),
		"activeCalls": activeCalls,
	})
}
