// internal/matching/repository.go

package matching

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/vettly/vettly-backend/internal/explanation"
	"github.com/vettly/vettly-backend/internal/notification"
)

var (
	ErrMatchNotFound    = errors.New("match not found")
	ErrMatchExists      = errors.New("a match for this pair already exists")
	ErrConcurrentUpdate = errors.New("match was modified concurrently")
)

// Repository defines the matching repository interface
type Repository interface {
	Create(ctx context.Context, m *Match) error
	Get(ctx context.Context, id uuid.UUID) (*Match, error)
	PairExists(ctx context.Context, memberA, memberB string) (bool, error)
	ListForMember(ctx context.Context, memberID string) ([]*Match, error)
	ListForMatchmaker(ctx context.Context, matchmakerID string) ([]*Match, error)
	ListStale(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
	SaveExplanation(ctx context.Context, id uuid.UUID, member1, member2 string, source explanation.Source) error
	ListEvents(ctx context.Context, matchID uuid.UUID) ([]*MatchEvent, error)
	GetDeclineAnalytics(ctx context.Context, memberID string) (*DeclineAnalytics, error)
	ReplaceSuggestions(ctx context.Context, memberID string, suggestions []*Suggestion) error
	ListSuggestions(ctx context.Context, memberID string, limit int) ([]*Suggestion, error)

	// RunInTx runs fn in one transaction. fn's error rolls everything back.
	RunInTx(ctx context.Context, fn func(tx TxStore) error) error
}

// TxStore is the set of writes a stage transition performs atomically
type TxStore interface {
	LockMatch(ctx context.Context, id uuid.UUID) (*Match, error)
	SaveMatch(ctx context.Context, m *Match) error
	AddEvent(ctx context.Context, e *MatchEvent) error
	AddNotifications(ctx context.Context, ns []*notification.Notification) (int, error)
	RecordDecline(ctx context.Context, d Decline) error
}

type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const matchColumns = `id, member1_id, member2_id, stage, compatibility_score, matching_points,
	member1_explanation, member2_explanation, explanation_source, payment_required,
	member1_accepted_at, member2_accepted_at, payment_completed_at, payment_reference,
	virtual_meeting_scheduled_at, virtual_meeting_scheduled_for, virtual_meeting_completed_at,
	matchmaker_approved_at, matchmaker_approved_by, date_approved_at, date_approved_by,
	declined_at, declined_by, decline_reason, expired_at,
	sent_count, last_sent_at, created_by, version, created_at, updated_at`

func (r *postgresRepository) Create(ctx context.Context, m *Match) error {
	query := `
		INSERT INTO matches (
			id, member1_id, member2_id, stage, compatibility_score, matching_points,
			payment_required, created_by, version, created_at, updated_at
		) VALUES (
			:id, :member1_id, :member2_id, :stage, :compatibility_score, :matching_points,
			:payment_required, :created_by, :version, :created_at, :updated_at
		)
	`

	if _, err := r.db.NamedExecContext(ctx, query, m); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrMatchExists
		}
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

func (r *postgresRepository) Get(ctx context.Context, id uuid.UUID) (*Match, error) {
	var m Match
	err := r.db.GetContext(ctx, &m, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get match: %w", err)
	}
	return &m, nil
}

// PairExists checks both orderings
func (r *postgresRepository) PairExists(ctx context.Context, memberA, memberB string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS(
			SELECT 1 FROM matches
			WHERE (member1_id = $1 AND member2_id = $2) OR (member1_id = $2 AND member2_id = $1)
		)`, memberA, memberB)
	return exists, err
}

func (r *postgresRepository) ListForMember(ctx context.Context, memberID string) ([]*Match, error) {
	var out []*Match
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+matchColumns+` FROM matches
		WHERE member1_id = $1 OR member2_id = $1
		ORDER BY created_at DESC`, memberID)
	if err != nil {
		return nil, fmt.Errorf("list member matches: %w", err)
	}
	return out, nil
}

func (r *postgresRepository) ListForMatchmaker(ctx context.Context, matchmakerID string) ([]*Match, error) {
	var out []*Match
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+matchColumns+` FROM matches
		WHERE created_by = $1
		ORDER BY created_at DESC`, matchmakerID)
	if err != nil {
		return nil, fmt.Errorf("list matchmaker matches: %w", err)
	}
	return out, nil
}

// ListStale returns expirable matches created before cutoff
func (r *postgresRepository) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids, `
		SELECT id FROM matches
		WHERE stage IN ('pending', 'accepted_by_one') AND created_at < $1
		ORDER BY created_at
		LIMIT $2`, cutoff, limit)
	return ids, err
}

// SaveExplanation stores generated text. It does not touch stage or version.
func (r *postgresRepository) SaveExplanation(ctx context.Context, id uuid.UUID, member1, member2 string, source explanation.Source) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE matches
		SET member1_explanation = $2, member2_explanation = $3, explanation_source = $4,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`, id, member1, member2, string(source))
	if err != nil {
		return fmt.Errorf("save explanation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMatchNotFound
	}
	return nil
}

func (r *postgresRepository) ListEvents(ctx context.Context, matchID uuid.UUID) ([]*MatchEvent, error) {
	var out []*MatchEvent
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, match_id, event, from_stage, to_stage, actor_id, created_at
		FROM match_events WHERE match_id = $1 ORDER BY id`, matchID)
	return out, err
}

func (r *postgresRepository) GetDeclineAnalytics(ctx context.Context, memberID string) (*DeclineAnalytics, error) {
	var a DeclineAnalytics
	err := r.db.GetContext(ctx, &a, `
		SELECT member_id, total_declines, monthly_declines, reasons, last_declined_at
		FROM decline_analytics WHERE member_id = $1`, memberID)
	if errors.Is(err, sql.ErrNoRows) {
		return &DeclineAnalytics{MemberID: memberID, MonthlyDeclines: Counter{}, Reasons: Counter{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *postgresRepository) ReplaceSuggestions(ctx context.Context, memberID string, suggestions []*Suggestion) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM match_suggestions WHERE member_id = $1`, memberID); err != nil {
		return fmt.Errorf("clear suggestions: %w", err)
	}

	for _, s := range suggestions {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO match_suggestions (member_id, candidate_id, score, compatible, degraded, reason, computed_at)
			VALUES (:member_id, :candidate_id, :score, :compatible, :degraded, :reason, :computed_at)`, s)
		if err != nil {
			return fmt.Errorf("insert suggestion: %w", err)
		}
	}

	return tx.Commit()
}

func (r *postgresRepository) ListSuggestions(ctx context.Context, memberID string, limit int) ([]*Suggestion, error) {
	var out []*Suggestion
	err := r.db.SelectContext(ctx, &out, `
		SELECT member_id, candidate_id, score, compatible, degraded, reason, computed_at
		FROM match_suggestions
		WHERE member_id = $1
		ORDER BY compatible DESC, score DESC
		LIMIT $2`, memberID, limit)
	return out, err
}

func (r *postgresRepository) RunInTx(ctx context.Context, fn func(tx TxStore) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = fn(&postgresTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

type postgresTx struct {
	tx *sqlx.Tx
}

func (t *postgresTx) LockMatch(ctx context.Context, id uuid.UUID) (*Match, error) {
	var m Match
	err := t.tx.GetContext(ctx, &m, `SELECT `+matchColumns+` FROM matches WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock match: %w", err)
	}
	return &m, nil
}

// SaveMatch writes every mutable column and bumps version. The version check
// only fails if the row was written outside a lock.
func (t *postgresTx) SaveMatch(ctx context.Context, m *Match) error {
	query := `
		UPDATE matches SET
			stage = :stage,
			member1_accepted_at = :member1_accepted_at,
			member2_accepted_at = :member2_accepted_at,
			payment_completed_at = :payment_completed_at,
			payment_reference = :payment_reference,
			virtual_meeting_scheduled_at = :virtual_meeting_scheduled_at,
			virtual_meeting_scheduled_for = :virtual_meeting_scheduled_for,
			virtual_meeting_completed_at = :virtual_meeting_completed_at,
			matchmaker_approved_at = :matchmaker_approved_at,
			matchmaker_approved_by = :matchmaker_approved_by,
			date_approved_at = :date_approved_at,
			date_approved_by = :date_approved_by,
			declined_at = :declined_at,
			declined_by = :declined_by,
			decline_reason = :decline_reason,
			expired_at = :expired_at,
			sent_count = :sent_count,
			last_sent_at = :last_sent_at,
			updated_at = :updated_at,
			version = version + 1
		WHERE id = :id AND version = :version
	`

	res, err := t.tx.NamedExecContext(ctx, query, m)
	if err != nil {
		return fmt.Errorf("update match: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConcurrentUpdate
	}
	m.Version++
	return nil
}

func (t *postgresTx) AddEvent(ctx context.Context, e *MatchEvent) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO match_events (match_id, event, from_stage, to_stage, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.MatchID, e.Event, e.FromStage, e.ToStage, e.ActorID, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert match event: %w", err)
	}
	return nil
}

func (t *postgresTx) AddNotifications(ctx context.Context, ns []*notification.Notification) (int, error) {
	return notification.Insert(ctx, t.tx, ns...)
}

func (t *postgresTx) RecordDecline(ctx context.Context, d Decline) error {
	reason := d.Reason
	if reason == "" {
		reason = "unspecified"
	}

	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO decline_analytics (member_id, total_declines, monthly_declines, reasons, last_declined_at)
		VALUES ($1, 1, jsonb_build_object($2::text, 1), jsonb_build_object($3::text, 1), $4)
		ON CONFLICT (member_id) DO UPDATE SET
			total_declines = decline_analytics.total_declines + 1,
			monthly_declines = decline_analytics.monthly_declines ||
				jsonb_build_object($2::text, COALESCE((decline_analytics.monthly_declines->>$2::text)::int, 0) + 1),
			reasons = decline_analytics.reasons ||
				jsonb_build_object($3::text, COALESCE((decline_analytics.reasons->>$3::text)::int, 0) + 1),
			last_declined_at = $4`,
		d.MemberID, d.Month(), reason, d.At)
	if err != nil {
		return fmt.Errorf("record decline: %w", err)
	}
	return nil
}
