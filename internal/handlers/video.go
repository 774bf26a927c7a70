package handlers

import (
	"vet-telehealth-server/internal/demo"
	"vet-telehealth-server/internal/middleware"
	"vet-telehealth-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// VideoHandler handles the video-consultation hand-off: starting, joining,
// screen-sharing, and ending calls.
type VideoHandler struct {
	Store *demo.Store
}

// NewVideoHandler creates a new VideoHandler.
func NewVideoHandler(store *demo.Store) *VideoHandler {
	return &VideoHandler{Store: store}
}

// StartCall handles opening a consultation for a case. The authenticated
// clinician becomes the first participant and the case moves to
// in_consultation.
func (h *VideoHandler) StartCall(c *gin.Context) {
	caseID := c.Param("id")
	if _, ok := h.Store.GetCase(caseID); !ok {
		utils.NotFound(c, "Case not found")
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	// One active call per case: hand back the existing one instead of
	// stacking a second.
	if existing, ok := h.Store.ActiveVideoCallForCase(caseID); ok {
		h.Store.JoinVideoCall(existing.ID, userID)
		call, _ := h.Store.GetVideoCall(existing.ID)
		utils.Success(c, "Joined the active call for this case", call)
		return
	}

	call := h.Store.StartVideoCall(caseID, userID)
	utils.Created(c, "Video call started successfully", call)
}

// JoinCallRequest optionally names the joining participant; it defaults to
// the authenticated user.
type JoinCallRequest struct {
	ParticipantID string `json:"participantId"`
}

// JoinCall handles adding a participant to a call. Rejoining is a no-op.
func (h *VideoHandler) JoinCall(c *gin.Context) {
	callID := c.Param("id")
	if _, ok := h.Store.GetVideoCall(callID); !ok {
		utils.NotFound(c, "Video call not found")
		return
	}

	var req JoinCallRequest
	_ = c.ShouldBindJSON(&req)
	participant := req.ParticipantID
	if participant == "" {
		userID, ok := middleware.GetUserIDFromContext(c)
		if !ok {
			utils.Unauthorized(c, "User not authenticated")
			return
		}
		participant = userID
	}

	h.Store.JoinVideoCall(callID, participant)

	call, _ := h.Store.GetVideoCall(callID)
	utils.Success(c, "Joined video call successfully", call)
}

// ScreenShareRequest represents the request body for toggling screen share.
type ScreenShareRequest struct {
	Active bool `json:"active"`
}

// SetScreenShare handles starting or stopping screen share for the
// authenticated participant.
func (h *VideoHandler) SetScreenShare(c *gin.Context) {
	callID := c.Param("id")
	if _, ok := h.Store.GetVideoCall(callID); !ok {
		utils.NotFound(c, "Video call not found")
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req ScreenShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	h.Store.SetScreenShare(callID, userID, req.Active)

	call, _ := h.Store.GetVideoCall(callID)
	utils.Success(c, "Screen share updated successfully", call)
}

// EndCall handles ending a call, which completes its case. The call record
// is kept with isActive false.
func (h *VideoHandler) EndCall(c *gin.Context) {
	callID := c.Param("id")
	if _, ok := h.Store.GetVideoCall(callID); !ok {
		utils.NotFound(c, "Video call not found")
		return
	}

	h.Store.EndVideoCall(callID)

	call, _ := h.Store.GetVideoCall(callID)
	utils.Success(c, "Video call ended successfully", call)
}

// GetCall handles fetching a call by id.
func (h *VideoHandler) GetCall(c *gin.Context) {
	call, ok := h.Store.GetVideoCall(c.Param("id"))
	if !ok {
		utils.NotFound(c, "Video call not found")
		return
	}
	utils.Success(c, "Video call fetched successfully", call)
}

// GetCalls handles fetching the full call collection, ended calls included.
func (h *VideoHandler) GetCalls(c *gin.Context) {
	utils.Success(c, "Video calls fetched successfully", h.Store.VideoCalls())
}
