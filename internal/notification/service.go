// internal/notification/service.go

package notification

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidCollection = errors.New("invalid notification collection")
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// ListOptions filters a recipient's feed
type ListOptions struct {
	Collection     Collection
	LatestPerMatch bool
	Limit          int
}

// Service defines the notification service interface
type Service interface {
	List(ctx context.Context, recipientID string, opts ListOptions) ([]*Notification, error)
	UnreadCount(ctx context.Context, recipientID string) (int, error)
	MarkViewed(ctx context.Context, id uuid.UUID, recipientID string) error
	MarkRead(ctx context.Context, id uuid.UUID, recipientID string) error
}

type service struct {
	repo Repository
	log  *zap.Logger
}

// NewService creates a new notification service
func NewService(repo Repository, log *zap.Logger) Service {
	return &service{repo: repo, log: log.Named("notification")}
}

func (s *service) List(ctx context.Context, recipientID string, opts ListOptions) ([]*Notification, error) {
	if opts.Collection != "" && !opts.Collection.Valid() {
		return nil, ErrInvalidCollection
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultListLimit
	}
	if opts.Limit > maxListLimit {
		opts.Limit = maxListLimit
	}

	out, err := s.repo.ListForRecipient(ctx, recipientID, opts.Collection, opts.Limit)
	if err != nil {
		return nil, err
	}
	if opts.LatestPerMatch {
		out = LatestPerMatch(out)
	}
	return out, nil
}

func (s *service) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	return s.repo.UnreadCount(ctx, recipientID)
}

func (s *service) MarkViewed(ctx context.Context, id uuid.UUID, recipientID string) error {
	return s.repo.SetStatus(ctx, id, recipientID, StatusViewed)
}

func (s *service) MarkRead(ctx context.Context, id uuid.UUID, recipientID string) error {
	return s.repo.SetStatus(ctx, id, recipientID, StatusRead)
}

// LatestPerMatch keeps the newest notification per (collection, match).
// Notifications without a match are kept as-is. Output is newest first.
func LatestPerMatch(in []*Notification) []*Notification {
	type key struct {
		collection Collection
		match      uuid.UUID
	}
	latest := make(map[key]*Notification)
	var out []*Notification
	for _, n := range in {
		if n.MatchID == nil {
			out = append(out, n)
			continue
		}
		k := key{n.Collection, *n.MatchID}
		if cur, ok := latest[k]; !ok || n.CreatedAt.After(cur.CreatedAt) {
			latest[k] = n
		}
	}
	for _, n := range latest {
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
