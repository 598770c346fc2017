package blog

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brickstudio/backend/internal/middleware"
	"github.com/brickstudio/backend/internal/models"
	"github.com/brickstudio/backend/pkg/response"
	"github.com/brickstudio/backend/pkg/storage"
)

// PostRequest is the body for post create/update.
type PostRequest struct {
	Title   string `json:"title" binding:"required"`
	Slug    string `json:"slug"`
	Excerpt string `json:"excerpt"`
	Body    string `json:"body"`
}

// CoverUploadRequest asks for a presigned cover upload URL.
type CoverUploadRequest struct {
	Filename string `json:"filename" binding:"required"`
}

// Handler handles blog HTTP endpoints.
type Handler struct {
	repo   *Repository
	s3     *storage.S3
	logger *zap.Logger
}

// NewHandler creates a blog handler. s3 may be nil when media storage is not
// configured; cover endpoints then report 503.
func NewHandler(repo *Repository, s3 *storage.S3, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, s3: s3, logger: logger}
}

// Create handles POST /blog/posts.
func (h *Handler) Create(c *gin.Context) {
	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	slug := req.Slug
	if slug == "" {
		slug = Slugify(req.Title)
	}
	p := &models.BlogPost{
		Slug:      slug,
		Title:     req.Title,
		Excerpt:   req.Excerpt,
		Body:      req.Body,
		CreatedBy: c.MustGet(middleware.ContextUserID).(uuid.UUID),
	}
	if err := h.repo.Create(c.Request.Context(), p); err != nil {
		h.logger.Error("create blog post", zap.Error(err))
		response.Conflict(c, "failed to create post, slug may be taken")
		return
	}
	response.Created(c, p)
}

// ListAdmin handles GET /blog/posts, drafts included.
func (h *Handler) ListAdmin(c *gin.Context) {
	posts, err := h.repo.List(c.Request.Context(), false)
	if err != nil {
		response.Internal(c, "failed to list posts")
		return
	}
	response.OK(c, h.withCoverURLs(posts))
}

// ListPublic handles GET /public/blog, published posts only.
func (h *Handler) ListPublic(c *gin.Context) {
	posts, err := h.repo.List(c.Request.Context(), true)
	if err != nil {
		response.Internal(c, "failed to list posts")
		return
	}
	response.OK(c, h.withCoverURLs(posts))
}

// GetByID handles GET /blog/posts/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid post id")
		return
	}
	p, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "post not found")
		return
	}
	response.OK(c, h.withCoverURL(p))
}

// GetBySlug handles GET /public/blog/:slug.
func (h *Handler) GetBySlug(c *gin.Context) {
	p, err := h.repo.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.NotFound(c, "post not found")
		return
	}
	response.OK(c, h.withCoverURL(p))
}

// Update handles PATCH /blog/posts/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid post id")
		return
	}
	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	slug := req.Slug
	if slug == "" {
		slug = Slugify(req.Title)
	}
	if err := h.repo.Update(c.Request.Context(), id, slug, req.Title, req.Excerpt, req.Body); err != nil {
		response.Internal(c, "failed to update post")
		return
	}
	response.OK(c, gin.H{"id": id, "updated": true})
}

// SetPublished handles POST /blog/posts/:id/publish and /unpublish.
func (h *Handler) SetPublished(published bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.BadRequest(c, "invalid post id")
			return
		}
		if err := h.repo.SetPublished(c.Request.Context(), id, published, time.Now()); err != nil {
			response.Internal(c, "failed to update post")
			return
		}
		response.OK(c, gin.H{"id": id, "published": published})
	}
}

// CoverUploadURL handles POST /blog/posts/:id/cover: hands out a presigned PUT
// URL and records the object key.
func (h *Handler) CoverUploadURL(c *gin.Context) {
	if h.s3 == nil {
		response.ServiceUnavailable(c, "media storage not configured")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid post id")
		return
	}
	var req CoverUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "filename required")
		return
	}
	if !storage.ValidateImageFilename(req.Filename) {
		response.BadRequest(c, "unsupported image type")
		return
	}
	if _, err := h.repo.GetByID(c.Request.Context(), id); err != nil {
		response.NotFound(c, "post not found")
		return
	}
	key := storage.CoverKey(id.String(), req.Filename)
	url, err := h.s3.GeneratePresignedUploadURL(c.Request.Context(), key, storage.ContentTypeForFilename(req.Filename))
	if err != nil {
		h.logger.Error("presign cover upload", zap.Error(err))
		response.Internal(c, "failed to presign upload")
		return
	}
	if err := h.repo.SetCoverImageKey(c.Request.Context(), id, key); err != nil {
		response.Internal(c, "failed to record cover key")
		return
	}
	response.OK(c, gin.H{
		"upload_url": url,
		"key":        key,
		"expires_in": int(h.s3.PresignExpire().Seconds()),
	})
}

// Delete handles DELETE /blog/posts/:id, removing the cover object as well.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid post id")
		return
	}
	p, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "post not found")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Internal(c, "failed to delete post")
		return
	}
	if h.s3 != nil && p.CoverImageKey != "" {
		if err := h.s3.DeleteObject(c.Request.Context(), p.CoverImageKey); err != nil {
			h.logger.Warn("delete cover object", zap.String("key", p.CoverImageKey), zap.Error(err))
		}
	}
	response.NoContent(c)
}

type postView struct {
	models.BlogPost
	CoverImageURL string `json:"cover_image_url,omitempty"`
}

func (h *Handler) withCoverURL(p *models.BlogPost) postView {
	v := postView{BlogPost: *p}
	if h.s3 != nil && p.CoverImageKey != "" {
		v.CoverImageURL = h.s3.PublicObjectURL(p.CoverImageKey)
	}
	return v
}

func (h *Handler) withCoverURLs(posts []models.BlogPost) []postView {
	views := make([]postView, 0, len(posts))
	for i := range posts {
		views = append(views, h.withCoverURL(&posts[i]))
	}
	return views
}
