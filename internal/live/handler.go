package live

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brickstudio/backend/pkg/response"
)

// PincodeResolver maps a viewer pincode to a workshop identity.
type PincodeResolver func(ctx context.Context, pincode string) (uuid.UUID, error)

// Handler exposes the live room over HTTP: snapshot reads plus the admin
// control surface. The websocket carries the same controls for the panel; the
// HTTP surface exists for the dashboard's non-realtime actions and for tests.
type Handler struct {
	manager        *Manager
	resolvePincode PincodeResolver
	logger         *zap.Logger
}

// NewHandler creates a live handler.
func NewHandler(manager *Manager, resolvePincode PincodeResolver, logger *zap.Logger) *Handler {
	return &Handler{manager: manager, resolvePincode: resolvePincode, logger: logger}
}

// GetState handles GET /workshops/:id/live (admin).
func (h *Handler) GetState(c *gin.Context) {
	workshopID, ok := h.workshopID(c)
	if !ok {
		return
	}
	state, err := h.manager.Snapshot(c.Request.Context(), workshopID)
	if err != nil {
		response.NotFound(c, "workshop not found")
		return
	}
	response.OK(c, state)
}

// ViewerState handles GET /viewer/state?pincode= (public, pincode-gated).
func (h *Handler) ViewerState(c *gin.Context) {
	pin := c.Query("pincode")
	if pin == "" {
		response.BadRequest(c, "pincode required")
		return
	}
	workshopID, err := h.resolvePincode(c.Request.Context(), pin)
	if err != nil {
		response.Unauthorized(c, "invalid pincode")
		return
	}
	state, err := h.manager.Snapshot(c.Request.Context(), workshopID)
	if err != nil {
		response.NotFound(c, "workshop not found")
		return
	}
	response.OK(c, state)
}

// NextSlide handles POST /workshops/:id/live/slides/next.
func (h *Handler) NextSlide(c *gin.Context) {
	h.control(c, func(ctrl *Controller) error { return ctrl.NextSlide() })
}

// PrevSlide handles POST /workshops/:id/live/slides/prev.
func (h *Handler) PrevSlide(c *gin.Context) {
	h.control(c, func(ctrl *Controller) error { return ctrl.PrevSlide() })
}

// GotoSlide handles POST /workshops/:id/live/slides/goto.
func (h *Handler) GotoSlide(c *gin.Context) {
	var req struct {
		Index int `json:"index"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	h.control(c, func(ctrl *Controller) error { return ctrl.GotoSlide(req.Index) })
}

// StartTimer handles POST /workshops/:id/live/timer/start.
func (h *Handler) StartTimer(c *gin.Context) {
	var req struct {
		Phase        string `json:"phase" binding:"required"`
		TotalSeconds int    `json:"total_seconds" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	h.control(c, func(ctrl *Controller) error {
		return ctrl.StartTimer(Phase(req.Phase), req.TotalSeconds)
	})
}

// PauseTimer handles POST /workshops/:id/live/timer/pause.
func (h *Handler) PauseTimer(c *gin.Context) {
	h.control(c, func(ctrl *Controller) error { return ctrl.PauseTimer() })
}

// ResumeTimer handles POST /workshops/:id/live/timer/resume.
func (h *Handler) ResumeTimer(c *gin.Context) {
	h.control(c, func(ctrl *Controller) error { return ctrl.ResumeTimer() })
}

// StopTimer handles POST /workshops/:id/live/timer/stop.
func (h *Handler) StopTimer(c *gin.Context) {
	h.control(c, func(ctrl *Controller) error { return ctrl.StopTimer() })
}

// SetDisplayMode handles POST /workshops/:id/live/display.
func (h *Handler) SetDisplayMode(c *gin.Context) {
	var req struct {
		Mode string `json:"mode" binding:"required,oneof=standard focus pause"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: mode must be standard, focus, or pause")
		return
	}
	h.control(c, func(ctrl *Controller) error { return ctrl.SetDisplayMode(DisplayMode(req.Mode)) })
}

// MuteAlarm handles POST /workshops/:id/live/alarm/mute.
func (h *Handler) MuteAlarm(c *gin.Context) {
	h.control(c, func(ctrl *Controller) error { return ctrl.MuteAlarm() })
}

// SnoozeAlarm handles POST /workshops/:id/live/alarm/snooze.
func (h *Handler) SnoozeAlarm(c *gin.Context) {
	var req struct {
		Minutes int `json:"minutes" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: minutes must be positive")
		return
	}
	h.control(c, func(ctrl *Controller) error {
		return ctrl.SnoozeAlarm(time.Duration(req.Minutes) * time.Minute)
	})
}

// DismissAlarm handles POST /workshops/:id/live/alarm/dismiss.
func (h *Handler) DismissAlarm(c *gin.Context) {
	h.control(c, func(ctrl *Controller) error { return ctrl.DismissAlarm() })
}

// Complete handles POST /workshops/:id/live/complete.
func (h *Handler) Complete(c *gin.Context) {
	h.control(c, func(ctrl *Controller) error { return ctrl.Complete() })
}

func (h *Handler) control(c *gin.Context, op func(*Controller) error) {
	workshopID, ok := h.workshopID(c)
	if !ok {
		return
	}
	room, err := h.manager.Room(c.Request.Context(), workshopID)
	if err != nil {
		response.NotFound(c, "workshop not found")
		return
	}
	if err := op(room.Controller); err != nil {
		switch {
		case errors.Is(err, ErrSlideOutOfRange):
			response.BadRequest(c, err.Error())
		case errors.Is(err, ErrNoState):
			response.Conflict(c, err.Error())
		default:
			h.logger.Error("live control action", zap.Error(err))
			response.Internal(c, "control action failed")
		}
		return
	}
	response.OK(c, room.Store.State())
}

func (h *Handler) workshopID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid workshop id")
		return uuid.Nil, false
	}
	return id, true
}
