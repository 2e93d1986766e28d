package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// fakeRepo is an in-memory Repository for service and dispatcher tests
type fakeRepo struct {
	mu        sync.Mutex
	rows      map[uuid.UUID]*Notification
	order     []uuid.UUID
	lastLimit int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[uuid.UUID]*Notification)}
}

func (f *fakeRepo) Insert(ctx context.Context, ns ...*Notification) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	written := 0
	for _, n := range ns {
		if _, ok := f.rows[n.ID]; ok {
			continue
		}
		cp := *n
		f.rows[n.ID] = &cp
		f.order = append(f.order, n.ID)
		written++
	}
	return written, nil
}

func (f *fakeRepo) WriteTx(ctx context.Context, exec sqlx.ExecerContext, ns []*Notification) (int, error) {
	return f.Insert(ctx, ns...)
}

func (f *fakeRepo) Get(ctx context.Context, id uuid.UUID) (*Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.rows[id]
	if !ok {
		return nil, ErrNotificationNotFound
	}
	cp := *n
	return &cp, nil
}

func (f *fakeRepo) ListForRecipient(ctx context.Context, recipientID string, collection Collection, limit int) ([]*Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit = limit
	var out []*Notification
	for _, id := range f.order {
		n := f.rows[id]
		if n.RecipientID == recipientID && (collection == "" || n.Collection == collection) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeRepo) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, n := range f.rows {
		if n.RecipientID == recipientID && n.Status == StatusPending {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) SetStatus(ctx context.Context, id uuid.UUID, recipientID string, status Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.rows[id]
	if !ok || n.RecipientID != recipientID {
		return ErrNotificationNotFound
	}
	if n.Status == StatusRead && status == StatusViewed {
		return nil
	}
	n.Status = status
	return nil
}

func (f *fakeRepo) ClaimQueued(ctx context.Context, limit int) ([]*Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Notification
	for _, id := range f.order {
		n := f.rows[id]
		if n.DeliveryStatus != DeliveryQueued {
			continue
		}
		n.DeliveryStatus = DeliverySending
		n.Attempts++
		cp := *n
		cp.DeliveredChannels = append(n.DeliveredChannels[:0:0], n.DeliveredChannels...)
		out = append(out, &cp)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeRepo) MarkChannelDelivered(ctx context.Context, id uuid.UUID, channel Channel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.rows[id]
	if !n.DeliveredOn(channel) {
		n.DeliveredChannels = append(n.DeliveredChannels, string(channel))
	}
	return nil
}

func (f *fakeRepo) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	f.rows[id].DeliveryStatus = DeliveryDelivered
	f.rows[id].DeliveredAt = &now
	return nil
}

func (f *fakeRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string, final bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.rows[id]
	n.LastError = &reason
	if final {
		n.DeliveryStatus = DeliveryFailed
	} else {
		n.DeliveryStatus = DeliveryQueued
	}
	return nil
}

func (f *fakeRepo) RequeueStuck(ctx context.Context, olderThan time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeRepo) status(id uuid.UUID) DeliveryStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[id].DeliveryStatus
}
