package blog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brickstudio/backend/internal/models"
)

// Repository handles blog post database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a blog repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const postColumns = `id, slug, title, excerpt, body, cover_image_key, published, published_at, created_by, created_at, updated_at`

func scanPost(row interface{ Scan(...interface{}) error }) (*models.BlogPost, error) {
	var p models.BlogPost
	err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Excerpt, &p.Body, &p.CoverImageKey,
		&p.Published, &p.PublishedAt, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a blog post.
func (r *Repository) Create(ctx context.Context, p *models.BlogPost) error {
	query := `INSERT INTO blog_posts (slug, title, excerpt, body, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + postColumns
	row := r.db.QueryRow(ctx, query, p.Slug, p.Title, p.Excerpt, p.Body, p.CreatedBy)
	created, err := scanPost(row)
	if err != nil {
		return fmt.Errorf("failed to create blog post: %w", err)
	}
	*p = *created
	return nil
}

// GetByID fetches a post by id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.BlogPost, error) {
	query := `SELECT ` + postColumns + ` FROM blog_posts WHERE id = $1`
	return scanPost(r.db.QueryRow(ctx, query, id))
}

// GetBySlug fetches a published post by slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	query := `SELECT ` + postColumns + ` FROM blog_posts WHERE slug = $1 AND published = true`
	return scanPost(r.db.QueryRow(ctx, query, slug))
}

// List returns posts, newest first. When publishedOnly is set, drafts are excluded.
func (r *Repository) List(ctx context.Context, publishedOnly bool) ([]models.BlogPost, error) {
	query := `SELECT ` + postColumns + ` FROM blog_posts`
	if publishedOnly {
		query += ` WHERE published = true`
	}
	query += ` ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list blog posts: %w", err)
	}
	defer rows.Close()

	var posts []models.BlogPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

// Update rewrites a post's editable fields.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, slug, title, excerpt, body string) error {
	query := `UPDATE blog_posts
		SET slug = $2, title = $3, excerpt = $4, body = $5, updated_at = NOW()
		WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id, slug, title, excerpt, body)
	return err
}

// SetCoverImageKey records the S3 key of the uploaded cover.
func (r *Repository) SetCoverImageKey(ctx context.Context, id uuid.UUID, key string) error {
	query := `UPDATE blog_posts SET cover_image_key = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id, key)
	return err
}

// SetPublished flips the published flag, stamping published_at on first publish.
func (r *Repository) SetPublished(ctx context.Context, id uuid.UUID, published bool, at time.Time) error {
	query := `UPDATE blog_posts
		SET published = $2,
		    published_at = CASE WHEN $2 AND published_at IS NULL THEN $3 ELSE published_at END,
		    updated_at = NOW()
		WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id, published, at)
	return err
}

// Delete removes a post.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM blog_posts WHERE id = $1`, id)
	return err
}
