package workshops

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brickstudio/backend/internal/models"
)

// Repository handles workshop and session persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a workshop repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const workshopColumns = `id, title, client_name, contact_email, location, workshop_date,
	pincode, status, created_by, completed_at, created_at, updated_at`

func scanWorkshop(row interface{ Scan(...interface{}) error }) (*models.Workshop, error) {
	var w models.Workshop
	err := row.Scan(&w.ID, &w.Title, &w.ClientName, &w.ContactEmail, &w.Location, &w.WorkshopDate,
		&w.Pincode, &w.Status, &w.CreatedBy, &w.CompletedAt, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Create inserts a new workshop.
func (r *Repository) Create(ctx context.Context, w *models.Workshop) error {
	const q = `INSERT INTO workshops (title, client_name, contact_email, location, workshop_date, pincode, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, status, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, w.Title, w.ClientName, w.ContactEmail, w.Location, w.WorkshopDate, w.Pincode, w.CreatedBy).
		Scan(&w.ID, &w.Status, &w.CreatedAt, &w.UpdatedAt)
}

// GetWorkshop returns a workshop by ID.
func (r *Repository) GetWorkshop(ctx context.Context, id uuid.UUID) (*models.Workshop, error) {
	return scanWorkshop(r.pool.QueryRow(ctx, `SELECT `+workshopColumns+` FROM workshops WHERE id = $1`, id))
}

// GetByPincode resolves a viewer pincode to its workshop.
func (r *Repository) GetByPincode(ctx context.Context, pincode string) (*models.Workshop, error) {
	return scanWorkshop(r.pool.QueryRow(ctx, `SELECT `+workshopColumns+` FROM workshops WHERE pincode = $1`, pincode))
}

// List returns all workshops, newest date first.
func (r *Repository) List(ctx context.Context) ([]models.Workshop, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+workshopColumns+` FROM workshops ORDER BY workshop_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Workshop
	for rows.Next() {
		w, err := scanWorkshop(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *w)
	}
	return list, rows.Err()
}

// Update updates workshop fields.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, title, clientName, contactEmail, location string, date *time.Time) error {
	const q = `UPDATE workshops SET title = $1, client_name = $2, contact_email = $3, location = $4,
		workshop_date = COALESCE($5, workshop_date), updated_at = NOW() WHERE id = $6`
	_, err := r.pool.Exec(ctx, q, title, clientName, contactEmail, location, date, id)
	return err
}

// SetStatus updates the workshop status; completed workshops get a timestamp.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	const q = `UPDATE workshops SET status = $1,
		completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END,
		updated_at = NOW() WHERE id = $2`
	_, err := r.pool.Exec(ctx, q, status, id)
	return err
}

// RotatePincode replaces the viewer pincode.
func (r *Repository) RotatePincode(ctx context.Context, id uuid.UUID, pincode string) error {
	const q = `UPDATE workshops SET pincode = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.pool.Exec(ctx, q, pincode, id)
	return err
}

// Delete removes a workshop and (by cascade) its sessions and reviews.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM workshops WHERE id = $1`, id)
	return err
}

const sessionColumns = `id, workshop_id, position, kind, title, description,
	build_minutes, discuss_minutes, created_at, updated_at`

// CreateSession inserts a session at the end of the workshop's plan.
func (r *Repository) CreateSession(ctx context.Context, s *models.WorkshopSession) error {
	const q = `INSERT INTO workshop_sessions (workshop_id, position, kind, title, description, build_minutes, discuss_minutes)
		VALUES ($1, (SELECT COALESCE(MAX(position), -1) + 1 FROM workshop_sessions WHERE workshop_id = $1), $2, $3, $4, $5, $6)
		RETURNING id, position, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, s.WorkshopID, s.Kind, s.Title, s.Description, s.BuildMinutes, s.DiscussMinutes).
		Scan(&s.ID, &s.Position, &s.CreatedAt, &s.UpdatedAt)
}

// GetSession returns one session.
func (r *Repository) GetSession(ctx context.Context, id uuid.UUID) (*models.WorkshopSession, error) {
	var s models.WorkshopSession
	err := r.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM workshop_sessions WHERE id = $1`, id).
		Scan(&s.ID, &s.WorkshopID, &s.Position, &s.Kind, &s.Title, &s.Description,
			&s.BuildMinutes, &s.DiscussMinutes, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSessions returns a workshop's sessions in presentation order.
func (r *Repository) ListSessions(ctx context.Context, workshopID uuid.UUID) ([]models.WorkshopSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM workshop_sessions WHERE workshop_id = $1 ORDER BY position`, workshopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.WorkshopSession
	for rows.Next() {
		var s models.WorkshopSession
		if err := rows.Scan(&s.ID, &s.WorkshopID, &s.Position, &s.Kind, &s.Title, &s.Description,
			&s.BuildMinutes, &s.DiscussMinutes, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// UpdateSession updates session fields.
func (r *Repository) UpdateSession(ctx context.Context, id uuid.UUID, title, description string, buildMinutes, discussMinutes int) error {
	const q = `UPDATE workshop_sessions SET title = $1, description = $2, build_minutes = $3,
		discuss_minutes = $4, updated_at = NOW() WHERE id = $5`
	_, err := r.pool.Exec(ctx, q, title, description, buildMinutes, discussMinutes, id)
	return err
}

// ReorderSessions rewrites positions to match the given ID order.
func (r *Repository) ReorderSessions(ctx context.Context, workshopID uuid.UUID, orderedIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// shift out of the way first so the (workshop_id, position) unique
	// constraint does not trip mid-rewrite
	if _, err := tx.Exec(ctx,
		`UPDATE workshop_sessions SET position = position + 1000 WHERE workshop_id = $1`, workshopID); err != nil {
		return err
	}
	for i, id := range orderedIDs {
		if _, err := tx.Exec(ctx,
			`UPDATE workshop_sessions SET position = $1, updated_at = NOW() WHERE id = $2 AND workshop_id = $3`,
			i, id, workshopID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// DeleteSession removes a session and compacts positions.
func (r *Repository) DeleteSession(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var workshopID uuid.UUID
	var position int
	if err := tx.QueryRow(ctx,
		`DELETE FROM workshop_sessions WHERE id = $1 RETURNING workshop_id, position`, id).
		Scan(&workshopID, &position); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE workshop_sessions SET position = position - 1 WHERE workshop_id = $1 AND position > $2`,
		workshopID, position); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
