// internal/profile/repository.go

package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Repository defines the profile repository interface
type Repository interface {
	GetByID(ctx context.Context, id string) (*UserProfile, error)
	GetByIDs(ctx context.Context, ids []string) ([]*UserProfile, error)
	ListQuestionnaireCompleted(ctx context.Context) ([]*UserProfile, error)
	MergeAnswers(ctx context.Context, id string, answers Answers, completed *bool) (*UserProfile, error)
	UpdatePushToken(ctx context.Context, id, token string) error
	Archive(ctx context.Context, id string) error
}

// postgresRepository implements Repository using PostgreSQL
type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const profileColumns = `id, email, phone, display_name, gender, age, location, profile_photo_url,
	role, questionnaire_answers, questionnaire_completed, push_token, archived_at,
	created_at, updated_at`

func (r *postgresRepository) GetByID(ctx context.Context, id string) (*UserProfile, error) {
	var p UserProfile
	query := `SELECT ` + profileColumns + ` FROM users WHERE id = $1`

	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile %s: %w", id, err)
	}
	return &p, nil
}

func (r *postgresRepository) GetByIDs(ctx context.Context, ids []string) ([]*UserProfile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+profileColumns+` FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}

	var profiles []*UserProfile
	if err := r.db.SelectContext(ctx, &profiles, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("get profiles: %w", err)
	}
	return profiles, nil
}

// ListQuestionnaireCompleted returns every non-archived member with a completed
// questionnaire. Unpaginated; the batch analysis walks the full list.
func (r *postgresRepository) ListQuestionnaireCompleted(ctx context.Context) ([]*UserProfile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM users
		WHERE questionnaire_completed = TRUE AND archived_at IS NULL AND role = 'member'
		ORDER BY created_at
	`

	var profiles []*UserProfile
	if err := r.db.SelectContext(ctx, &profiles, query); err != nil {
		return nil, fmt.Errorf("list completed questionnaires: %w", err)
	}
	return profiles, nil
}

func (r *postgresRepository) MergeAnswers(ctx context.Context, id string, answers Answers, completed *bool) (*UserProfile, error) {
	query := `
		UPDATE users
		SET questionnaire_answers = questionnaire_answers || $2::jsonb,
		    questionnaire_completed = COALESCE($3, questionnaire_completed),
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND archived_at IS NULL
		RETURNING ` + profileColumns

	var p UserProfile
	if err := r.db.GetContext(ctx, &p, query, id, answers, completed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("merge answers for %s: %w", id, err)
	}
	return &p, nil
}

func (r *postgresRepository) UpdatePushToken(ctx context.Context, id, token string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET push_token = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`, id, token)
	if err != nil {
		return fmt.Errorf("update push token: %w", err)
	}
	return requireRow(res)
}

func (r *postgresRepository) Archive(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET archived_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $1 AND archived_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("archive profile: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrProfileNotFound
	}
	return nil
}
