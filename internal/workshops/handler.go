package workshops

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brickstudio/backend/internal/live"
	"github.com/brickstudio/backend/internal/middleware"
	"github.com/brickstudio/backend/internal/models"
	"github.com/brickstudio/backend/internal/realtime"
	"github.com/brickstudio/backend/pkg/response"
)

// CreateRequest is the body for POST /workshops.
type CreateRequest struct {
	Title        string    `json:"title" binding:"required"`
	ClientName   string    `json:"client_name"`
	ContactEmail string    `json:"contact_email" binding:"omitempty,email"`
	Location     string    `json:"location"`
	WorkshopDate time.Time `json:"workshop_date" binding:"required"`
}

// UpdateRequest is the body for PATCH /workshops/:id.
type UpdateRequest struct {
	Title        string     `json:"title" binding:"required"`
	ClientName   string     `json:"client_name"`
	ContactEmail string     `json:"contact_email" binding:"omitempty,email"`
	Location     string     `json:"location"`
	WorkshopDate *time.Time `json:"workshop_date"`
}

// SessionRequest is the body for session create/update.
type SessionRequest struct {
	Kind           string `json:"kind" binding:"omitempty,oneof=exercise pause"`
	Title          string `json:"title" binding:"required"`
	Description    string `json:"description"`
	BuildMinutes   int    `json:"build_minutes" binding:"gte=0"`
	DiscussMinutes int    `json:"discuss_minutes" binding:"gte=0"`
}

// ReorderRequest is the body for PUT /workshops/:id/sessions/order.
type ReorderRequest struct {
	SessionIDs []uuid.UUID `json:"session_ids" binding:"required,min=1"`
}

// Handler handles workshop HTTP endpoints.
type Handler struct {
	repo    *Repository
	manager *live.Manager
	hub     *realtime.Hub
	logger  *zap.Logger
}

// NewHandler creates a workshops handler.
func NewHandler(repo *Repository, manager *live.Manager, hub *realtime.Hub, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, manager: manager, hub: hub, logger: logger}
}

// Create handles POST /workshops.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	pincode, err := GeneratePincode()
	if err != nil {
		response.Internal(c, "failed to issue pincode")
		return
	}
	w := &models.Workshop{
		Title:        req.Title,
		ClientName:   req.ClientName,
		ContactEmail: req.ContactEmail,
		Location:     req.Location,
		WorkshopDate: req.WorkshopDate,
		Pincode:      pincode,
		CreatedBy:    c.MustGet(middleware.ContextUserID).(uuid.UUID),
	}
	if err := h.repo.Create(c.Request.Context(), w); err != nil {
		h.logger.Error("create workshop", zap.Error(err))
		response.Internal(c, "failed to create workshop")
		return
	}
	response.Created(c, w)
}

// List handles GET /workshops.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list workshops")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /workshops/:id, including the session plan.
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := h.workshopID(c)
	if !ok {
		return
	}
	w, err := h.repo.GetWorkshop(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "workshop not found")
		return
	}
	sessions, err := h.repo.ListSessions(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load sessions")
		return
	}
	response.OK(c, gin.H{"workshop": w, "sessions": sessions})
}

// Update handles PATCH /workshops/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := h.workshopID(c)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.repo.Update(c.Request.Context(), id, req.Title, req.ClientName, req.ContactEmail, req.Location, req.WorkshopDate); err != nil {
		response.Internal(c, "failed to update workshop")
		return
	}
	response.OK(c, gin.H{"id": id, "updated": true})
}

// Delete handles DELETE /workshops/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := h.workshopID(c)
	if !ok {
		return
	}
	h.manager.CloseRoom(c.Request.Context(), id)
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Internal(c, "failed to delete workshop")
		return
	}
	response.NoContent(c)
}

// Start handles POST /workshops/:id/start: marks the day live and warms up the
// live room so the first viewer join does not pay the build cost.
func (h *Handler) Start(c *gin.Context) {
	id, ok := h.workshopID(c)
	if !ok {
		return
	}
	if _, err := h.manager.Room(c.Request.Context(), id); err != nil {
		response.NotFound(c, "workshop not found")
		return
	}
	if err := h.repo.SetStatus(c.Request.Context(), id, models.WorkshopStatusLive); err != nil {
		response.Internal(c, "failed to start workshop")
		return
	}
	response.OK(c, gin.H{"id": id, "status": models.WorkshopStatusLive})
}

// Complete handles POST /workshops/:id/complete: marks the day done and tears
// down the live room.
func (h *Handler) Complete(c *gin.Context) {
	id, ok := h.workshopID(c)
	if !ok {
		return
	}
	if room, err := h.manager.Room(c.Request.Context(), id); err == nil {
		if err := room.Controller.Complete(); err != nil {
			h.logger.Warn("complete live room", zap.Error(err))
		}
	}
	if err := h.repo.SetStatus(c.Request.Context(), id, models.WorkshopStatusCompleted); err != nil {
		response.Internal(c, "failed to complete workshop")
		return
	}
	h.manager.CloseRoom(c.Request.Context(), id)
	response.OK(c, gin.H{"id": id, "status": models.WorkshopStatusCompleted})
}

// RotatePincode handles POST /workshops/:id/pincode/rotate: issues a fresh
// viewer pincode, cutting off anyone holding the old one.
func (h *Handler) RotatePincode(c *gin.Context) {
	id, ok := h.workshopID(c)
	if !ok {
		return
	}
	pincode, err := GeneratePincode()
	if err != nil {
		response.Internal(c, "failed to issue pincode")
		return
	}
	if err := h.repo.RotatePincode(c.Request.Context(), id, pincode); err != nil {
		response.Internal(c, "failed to rotate pincode")
		return
	}
	response.OK(c, gin.H{"id": id, "pincode": pincode})
}

// AudienceCount handles GET /workshops/:id/audience_count.
func (h *Handler) AudienceCount(c *gin.Context) {
	id, ok := h.workshopID(c)
	if !ok {
		return
	}
	response.OK(c, gin.H{"count": h.hub.AudienceCount(id)})
}

// CreateSession handles POST /workshops/:id/sessions.
func (h *Handler) CreateSession(c *gin.Context) {
	id, ok := h.workshopID(c)
	if !ok {
		return
	}
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	kind := req.Kind
	if kind == "" {
		kind = models.SessionKindExercise
	}
	s := &models.WorkshopSession{
		WorkshopID:     id,
		Kind:           kind,
		Title:          req.Title,
		Description:    req.Description,
		BuildMinutes:   req.BuildMinutes,
		DiscussMinutes: req.DiscussMinutes,
	}
	if err := h.repo.CreateSession(c.Request.Context(), s); err != nil {
		h.logger.Error("create session", zap.Error(err))
		response.Internal(c, "failed to create session")
		return
	}
	h.reloadDeck(c, id)
	response.Created(c, s)
}

// UpdateSession handles PATCH /sessions/:id.
func (h *Handler) UpdateSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	s, err := h.repo.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		response.NotFound(c, "session not found")
		return
	}
	if err := h.repo.UpdateSession(c.Request.Context(), sessionID, req.Title, req.Description, req.BuildMinutes, req.DiscussMinutes); err != nil {
		response.Internal(c, "failed to update session")
		return
	}
	h.reloadDeck(c, s.WorkshopID)
	response.OK(c, gin.H{"id": sessionID, "updated": true})
}

// ReorderSessions handles PUT /workshops/:id/sessions/order.
func (h *Handler) ReorderSessions(c *gin.Context) {
	id, ok := h.workshopID(c)
	if !ok {
		return
	}
	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.repo.ReorderSessions(c.Request.Context(), id, req.SessionIDs); err != nil {
		response.Internal(c, "failed to reorder sessions")
		return
	}
	h.reloadDeck(c, id)
	response.OK(c, gin.H{"id": id, "reordered": true})
}

// DeleteSession handles DELETE /sessions/:id.
func (h *Handler) DeleteSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	s, err := h.repo.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		response.NotFound(c, "session not found")
		return
	}
	if err := h.repo.DeleteSession(c.Request.Context(), sessionID); err != nil {
		response.Internal(c, "failed to delete session")
		return
	}
	h.reloadDeck(c, s.WorkshopID)
	response.NoContent(c)
}

// ResolvePincode handles POST /viewer/resolve: pincode -> workshop identity
// for the public viewer page.
func (h *Handler) ResolvePincode(c *gin.Context) {
	var req struct {
		Pincode string `json:"pincode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "pincode required")
		return
	}
	w, err := h.repo.GetByPincode(c.Request.Context(), req.Pincode)
	if err != nil {
		response.Unauthorized(c, "invalid pincode")
		return
	}
	response.OK(c, gin.H{"workshop_id": w.ID, "title": w.Title})
}

func (h *Handler) reloadDeck(c *gin.Context, workshopID uuid.UUID) {
	if err := h.manager.ReloadSlides(c.Request.Context(), workshopID); err != nil {
		h.logger.Warn("reload slide deck", zap.String("workshop_id", workshopID.String()), zap.Error(err))
	}
}

func (h *Handler) workshopID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid workshop id")
		return uuid.Nil, false
	}
	return id, true
}
