package reviews

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brickstudio/backend/internal/models"
	"github.com/brickstudio/backend/internal/workshops"
	"github.com/brickstudio/backend/pkg/queue"
	"github.com/brickstudio/backend/pkg/response"
)

// SubmitRequest is the body for the public tokenized submission.
type SubmitRequest struct {
	AuthorName string `json:"author_name" binding:"required"`
	Company    string `json:"company"`
	Rating     int    `json:"rating" binding:"required,gte=1,lte=5"`
	Quote      string `json:"quote" binding:"required"`
}

// Handler handles review HTTP endpoints.
type Handler struct {
	repo          *Repository
	workshops     *workshops.Repository
	queue         *queue.Queue
	reviewBaseURL string
	logger        *zap.Logger
}

// NewHandler creates a reviews handler.
func NewHandler(repo *Repository, workshopRepo *workshops.Repository, q *queue.Queue, reviewBaseURL string, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, workshops: workshopRepo, queue: q, reviewBaseURL: reviewBaseURL, logger: logger}
}

// Request handles POST /workshops/:id/review_request: creates a tokenized
// review slot for the workshop's client contact and queues the email.
func (h *Handler) Request(c *gin.Context) {
	workshopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid workshop id")
		return
	}
	w, err := h.workshops.GetWorkshop(c.Request.Context(), workshopID)
	if err != nil {
		response.NotFound(c, "workshop not found")
		return
	}
	if w.ContactEmail == "" {
		response.BadRequest(c, "workshop has no contact email")
		return
	}
	token, err := GenerateToken()
	if err != nil {
		response.Internal(c, "failed to issue token")
		return
	}
	created := &models.Review{WorkshopID: workshopID, Token: token}
	if err := h.repo.Create(c.Request.Context(), created); err != nil {
		h.logger.Error("create review slot", zap.Error(err))
		response.Internal(c, "failed to create review")
		return
	}
	payload := queue.ReviewRequestPayload{
		WorkshopID:    workshopID,
		ReviewID:      created.ID,
		Recipient:     w.ContactEmail,
		ClientName:    w.ClientName,
		WorkshopTitle: w.Title,
		ReviewURL:     fmt.Sprintf("%s/%s", h.reviewBaseURL, token),
	}
	if err := h.queue.EnqueueReviewRequest(c.Request.Context(), payload); err != nil {
		h.logger.Error("enqueue review request", zap.Error(err))
		response.Internal(c, "failed to queue email")
		return
	}
	if err := h.repo.LogEmail(c.Request.Context(), workshopID, w.ContactEmail, string(queue.JobTypeReviewRequest), "queued", ""); err != nil {
		h.logger.Warn("log email", zap.Error(err))
	}
	response.Created(c, gin.H{"review_id": created.ID, "review_url": payload.ReviewURL})
}

// Describe handles GET /public/reviews/:token: tells the review page which
// workshop the token belongs to and whether it was already used.
func (h *Handler) Describe(c *gin.Context) {
	rv, err := h.repo.GetByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.NotFound(c, "unknown review link")
		return
	}
	w, err := h.workshops.GetWorkshop(c.Request.Context(), rv.WorkshopID)
	if err != nil {
		response.Internal(c, "failed to load workshop")
		return
	}
	response.OK(c, gin.H{
		"workshop_title": w.Title,
		"client_name":    w.ClientName,
		"submitted":      rv.SubmittedAt != nil,
	})
}

// Submit handles POST /public/reviews/:token.
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	rv, err := h.repo.Submit(c.Request.Context(), c.Param("token"), req.AuthorName, req.Company, req.Quote, req.Rating)
	if err != nil {
		response.NotFound(c, "unknown or already used review link")
		return
	}
	response.OK(c, rv)
}

// List handles GET /reviews for moderation.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list reviews")
		return
	}
	response.OK(c, list)
}

// ListPublic handles GET /public/reviews.
func (h *Handler) ListPublic(c *gin.Context) {
	list, err := h.repo.ListApproved(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list reviews")
		return
	}
	response.OK(c, list)
}

// SetApproved handles POST /reviews/:id/approve and /unapprove.
func (h *Handler) SetApproved(approved bool) gin.HandlerFunc {
	return h.setFlag("approved", approved, h.repo.SetApproved)
}

// SetFeatured handles POST /reviews/:id/feature and /unfeature.
func (h *Handler) SetFeatured(featured bool) gin.HandlerFunc {
	return h.setFlag("featured", featured, h.repo.SetFeatured)
}

func (h *Handler) setFlag(name string, value bool, set func(ctx context.Context, id uuid.UUID, v bool) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.BadRequest(c, "invalid review id")
			return
		}
		if err := set(c.Request.Context(), id, value); err != nil {
			response.Internal(c, "failed to update review")
			return
		}
		response.OK(c, gin.H{"id": id, name: value})
	}
}

// Delete handles DELETE /reviews/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid review id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Internal(c, "failed to delete review")
		return
	}
	response.NoContent(c)
}

// EmailLogs handles GET /workshops/:id/email_logs.
func (h *Handler) EmailLogs(c *gin.Context) {
	workshopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid workshop id")
		return
	}
	logs, err := h.repo.ListEmailLogs(c.Request.Context(), workshopID)
	if err != nil {
		response.Internal(c, "failed to list email logs")
		return
	}
	response.OK(c, logs)
}
