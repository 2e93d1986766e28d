// internal/tips/repository.go

package tips

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrTipNotFound      = errors.New("tip not found")
	ErrNoActiveTip      = errors.New("no active tip")
	ErrInvalidStatus    = errors.New("tip cannot move to that status")
	ErrConcurrentUpdate = errors.New("tip was modified concurrently")
)

// Repository defines the tips repository interface
type Repository interface {
	Create(ctx context.Context, t *Tip) error
	Get(ctx context.Context, id uuid.UUID) (*Tip, error)
	GetActive(ctx context.Context) (*Tip, error)
	List(ctx context.Context, status Status, limit int) ([]*Tip, error)
	LastCategory(ctx context.Context) (string, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error

	// Activate archives the current active tip and activates id in one
	// transaction
	Activate(ctx context.Context, id uuid.UUID, at time.Time) (*Tip, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const tipColumns = `id, title, short_description, main_content, why_this_matters, quick_tips,
	did_you_know, weekly_challenge, category, status, published_at, activated_at,
	created_by, created_at, updated_at`

func (r *postgresRepository) Create(ctx context.Context, t *Tip) error {
	query := `
		INSERT INTO weekly_tips (
			id, title, short_description, main_content, why_this_matters, quick_tips,
			did_you_know, weekly_challenge, category, status, published_at, created_by,
			created_at, updated_at
		) VALUES (
			:id, :title, :short_description, :main_content, :why_this_matters, :quick_tips,
			:did_you_know, :weekly_challenge, :category, :status, :published_at, :created_by,
			:created_at, :updated_at
		)
	`

	if _, err := r.db.NamedExecContext(ctx, query, t); err != nil {
		return fmt.Errorf("insert tip: %w", err)
	}
	return nil
}

func (r *postgresRepository) Get(ctx context.Context, id uuid.UUID) (*Tip, error) {
	var t Tip
	err := r.db.GetContext(ctx, &t, `SELECT `+tipColumns+` FROM weekly_tips WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTipNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tip: %w", err)
	}
	return &t, nil
}

func (r *postgresRepository) GetActive(ctx context.Context) (*Tip, error) {
	var t Tip
	err := r.db.GetContext(ctx, &t, `SELECT `+tipColumns+` FROM weekly_tips WHERE status = 'active'`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoActiveTip
	}
	if err != nil {
		return nil, fmt.Errorf("get active tip: %w", err)
	}
	return &t, nil
}

// List returns tips newest first. An empty status lists everything.
func (r *postgresRepository) List(ctx context.Context, status Status, limit int) ([]*Tip, error) {
	var out []*Tip
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+tipColumns+` FROM weekly_tips
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2`, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("list tips: %w", err)
	}
	return out, nil
}

// LastCategory returns the category of the newest tip, or "" when there are none
func (r *postgresRepository) LastCategory(ctx context.Context) (string, error) {
	var category string
	err := r.db.GetContext(ctx, &category, `SELECT category FROM weekly_tips ORDER BY created_at DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return category, err
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE weekly_tips SET status = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = $2`, id, string(from), string(to))
	if err != nil {
		return fmt.Errorf("update tip status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConcurrentUpdate
	}
	return nil
}

func (r *postgresRepository) Activate(ctx context.Context, id uuid.UUID, at time.Time) (*Tip, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var t Tip
	err = tx.GetContext(ctx, &t, `SELECT `+tipColumns+` FROM weekly_tips WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTipNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock tip: %w", err)
	}
	if t.Status == StatusActive {
		return &t, nil
	}
	if !t.Status.CanBecome(StatusActive) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidStatus, t.Status, StatusActive)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE weekly_tips SET status = 'archived', updated_at = $2
		WHERE status = 'active' AND id <> $1`, id, at); err != nil {
		return nil, fmt.Errorf("archive active tip: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE weekly_tips SET status = 'active', activated_at = $2, updated_at = $2
		WHERE id = $1`, id, at); err != nil {
		return nil, fmt.Errorf("activate tip: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit activation: %w", err)
	}

	t.Status = StatusActive
	t.ActivatedAt = &at
	t.UpdatedAt = at
	return &t, nil
}
