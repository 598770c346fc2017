package reviews

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brickstudio/backend/internal/models"
)

// Repository handles review database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a reviews repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const reviewColumns = `id, workshop_id, token, author_name, company, rating, quote, approved, featured, submitted_at, created_at`

func scanReview(row interface{ Scan(...interface{}) error }) (*models.Review, error) {
	var rv models.Review
	err := row.Scan(&rv.ID, &rv.WorkshopID, &rv.Token, &rv.AuthorName, &rv.Company,
		&rv.Rating, &rv.Quote, &rv.Approved, &rv.Featured, &rv.SubmittedAt, &rv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

// Create inserts a pending review slot with its submission token.
func (r *Repository) Create(ctx context.Context, rv *models.Review) error {
	query := `INSERT INTO reviews (workshop_id, token) VALUES ($1, $2) RETURNING ` + reviewColumns
	created, err := scanReview(r.db.QueryRow(ctx, query, rv.WorkshopID, rv.Token))
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	*rv = *created
	return nil
}

// GetByToken fetches a review slot by its submission token.
func (r *Repository) GetByToken(ctx context.Context, token string) (*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE token = $1`
	return scanReview(r.db.QueryRow(ctx, query, token))
}

// Submit fills in a review slot. Fails with no rows affected if the token is
// unknown or the slot was already submitted.
func (r *Repository) Submit(ctx context.Context, token, authorName, company, quote string, rating int) (*models.Review, error) {
	query := `UPDATE reviews
		SET author_name = $2, company = $3, quote = $4, rating = $5, submitted_at = NOW()
		WHERE token = $1 AND submitted_at IS NULL
		RETURNING ` + reviewColumns
	return scanReview(r.db.QueryRow(ctx, query, token, authorName, company, quote, rating))
}

// List returns all reviews for moderation, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Review, error) {
	return r.list(ctx, `SELECT `+reviewColumns+` FROM reviews ORDER BY created_at DESC`)
}

// ListApproved returns approved reviews for the public site, featured first.
func (r *Repository) ListApproved(ctx context.Context) ([]models.Review, error) {
	return r.list(ctx, `SELECT `+reviewColumns+` FROM reviews
		WHERE approved = true
		ORDER BY featured DESC, submitted_at DESC`)
}

func (r *Repository) list(ctx context.Context, query string, args ...interface{}) ([]models.Review, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *rv)
	}
	return reviews, rows.Err()
}

// SetApproved flips the approved flag.
func (r *Repository) SetApproved(ctx context.Context, id uuid.UUID, approved bool) error {
	_, err := r.db.Exec(ctx, `UPDATE reviews SET approved = $2 WHERE id = $1`, id, approved)
	return err
}

// SetFeatured flips the featured flag.
func (r *Repository) SetFeatured(ctx context.Context, id uuid.UUID, featured bool) error {
	_, err := r.db.Exec(ctx, `UPDATE reviews SET featured = $2 WHERE id = $1`, id, featured)
	return err
}

// Delete removes a review.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	return err
}

// LogEmail records an outbound mail attempt.
func (r *Repository) LogEmail(ctx context.Context, workshopID uuid.UUID, recipient, kind, status, errMsg string) error {
	query := `INSERT INTO email_logs (workshop_id, recipient, kind, status, error)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Exec(ctx, query, workshopID, recipient, kind, status, errMsg)
	return err
}

// ListEmailLogs returns mail attempts for a workshop, newest first.
func (r *Repository) ListEmailLogs(ctx context.Context, workshopID uuid.UUID) ([]models.EmailLog, error) {
	query := `SELECT id, workshop_id, recipient, kind, status, error, created_at
		FROM email_logs WHERE workshop_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, workshopID)
	if err != nil {
		return nil, fmt.Errorf("failed to list email logs: %w", err)
	}
	defer rows.Close()

	var logs []models.EmailLog
	for rows.Next() {
		var l models.EmailLog
		if err := rows.Scan(&l.ID, &l.WorkshopID, &l.Recipient, &l.Kind, &l.Status, &l.Error, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
