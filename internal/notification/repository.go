// internal/notification/repository.go

package notification

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
	ErrNotificationNotFound = errors.New("notification not found")
)

// Repository defines the notification repository interface
type Repository interface {
	Insert(ctx context.Context, notifications ...*Notification) (int, error)
	WriteTx(ctx context.Context, exec sqlx.ExecerContext, notifications []*Notification) (int, error)
	Get(ctx context.Context, id uuid.UUID) (*Notification, error)
	ListForRecipient(ctx context.Context, recipientID string, collection Collection, limit int) ([]*Notification, error)
	UnreadCount(ctx context.Context, recipientID string) (int, error)
	SetStatus(ctx context.Context, id uuid.UUID, recipientID string, status Status) error

	// Outbox
	ClaimQueued(ctx context.Context, limit int) ([]*Notification, error)
	MarkChannelDelivered(ctx context.Context, id uuid.UUID, channel Channel) error
	MarkDelivered(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string, final bool) error
	RequeueStuck(ctx context.Context, olderThan time.Time) (int64, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const notificationColumns = `id, collection, recipient_id, match_id, type, status, message, payload,
	delivery_status, attempts, last_error, delivered_channels, delivered_at, viewed_at, read_at, created_at`

const insertNotification = `
	INSERT INTO notifications (
		id, collection, recipient_id, match_id, type, status, message, payload,
		delivery_status, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (id) DO NOTHING
`

// Insert writes notifications through exec, which may be a *sqlx.Tx so the
// rows commit together with the state change that produced them. Rows whose
// deterministic ID already exists are skipped. Returns how many were new.
func Insert(ctx context.Context, exec sqlx.ExecerContext, notifications ...*Notification) (int, error) {
	written := 0
	for _, n := range notifications {
		res, err := exec.ExecContext(ctx, insertNotification,
			n.ID, n.Collection, n.RecipientID, n.MatchID, n.Type, n.Status, n.Message, n.Payload,
			n.DeliveryStatus, n.CreatedAt,
		)
		if err != nil {
			return written, fmt.Errorf("insert notification %s: %w", n.ID, err)
		}
		if rows, err := res.RowsAffected(); err == nil && rows > 0 {
			written++
		}
	}
	notificationsWritten.Add(float64(written))
	return written, nil
}

func (r *postgresRepository) Insert(ctx context.Context, notifications ...*Notification) (int, error) {
	return Insert(ctx, r.db, notifications...)
}

// WriteTx writes inside the caller's transaction
func (r *postgresRepository) WriteTx(ctx context.Context, exec sqlx.ExecerContext, notifications []*Notification) (int, error) {
	return Insert(ctx, exec, notifications...)
}

func (r *postgresRepository) Get(ctx context.Context, id uuid.UUID) (*Notification, error) {
	var n Notification
	err := r.db.GetContext(ctx, &n, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return &n, nil
}

func (r *postgresRepository) ListForRecipient(ctx context.Context, recipientID string, collection Collection, limit int) ([]*Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE recipient_id = $1 AND ($2 = '' OR collection = $2)
		ORDER BY created_at DESC
		LIMIT $3
	`

	var out []*Notification
	if err := r.db.SelectContext(ctx, &out, query, recipientID, string(collection), limit); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

func (r *postgresRepository) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND status = 'pending'`, recipientID)
	return count, err
}

// SetStatus moves a notification forward; read never goes back to viewed
func (r *postgresRepository) SetStatus(ctx context.Context, id uuid.UUID, recipientID string, status Status) error {
	var query string
	switch status {
	case StatusViewed:
		query = `
			UPDATE notifications
			SET status = CASE WHEN status = 'read' THEN status ELSE 'viewed' END,
			    viewed_at = COALESCE(viewed_at, CURRENT_TIMESTAMP)
			WHERE id = $1 AND recipient_id = $2`
	case StatusRead:
		query = `
			UPDATE notifications
			SET status = 'read',
			    viewed_at = COALESCE(viewed_at, CURRENT_TIMESTAMP),
			    read_at = COALESCE(read_at, CURRENT_TIMESTAMP)
			WHERE id = $1 AND recipient_id = $2`
	default:
		return fmt.Errorf("cannot set notification status to %q", status)
	}

	res, err := r.db.ExecContext(ctx, query, id, recipientID)
	if err != nil {
		return fmt.Errorf("update notification status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// ClaimQueued marks up to limit queued rows as sending and returns them.
// SKIP LOCKED lets several API instances dispatch without double delivery.
func (r *postgresRepository) ClaimQueued(ctx context.Context, limit int) ([]*Notification, error) {
	query := `
		UPDATE notifications
		SET delivery_status = 'sending', attempts = attempts + 1, claimed_at = CURRENT_TIMESTAMP
		WHERE id IN (
			SELECT id FROM notifications
			WHERE delivery_status = 'queued'
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + notificationColumns

	var out []*Notification
	if err := r.db.SelectContext(ctx, &out, query, limit); err != nil {
		return nil, fmt.Errorf("claim queued notifications: %w", err)
	}
	return out, nil
}

// MarkChannelDelivered records that one channel got through so a retry of the
// row does not repeat it
func (r *postgresRepository) MarkChannelDelivered(ctx context.Context, id uuid.UUID, channel Channel) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE notifications
		SET delivered_channels = array_append(delivered_channels, $2)
		WHERE id = $1 AND NOT ($2 = ANY(delivered_channels))`, id, string(channel))
	if err != nil {
		return fmt.Errorf("mark %s delivered: %w", channel, err)
	}
	return nil
}

func (r *postgresRepository) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE notifications
		SET delivery_status = 'delivered', delivered_at = CURRENT_TIMESTAMP, last_error = NULL
		WHERE id = $1`, id)
	return err
}

// MarkFailed requeues the row, or parks it as failed when final is set
func (r *postgresRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string, final bool) error {
	status := DeliveryQueued
	if final {
		status = DeliveryFailed
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET delivery_status = $2, last_error = $3 WHERE id = $1`,
		id, status, reason)
	return err
}

// RequeueStuck returns rows left in sending by a crashed dispatcher
func (r *postgresRepository) RequeueStuck(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications
		SET delivery_status = 'queued'
		WHERE delivery_status = 'sending' AND claimed_at < $1`, olderThan)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
