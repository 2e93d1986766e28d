// internal/matching/transition.go

package matching

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vettly/vettly-backend/internal/notification"
)

// mutation collects everything one operation writes so it can be applied in
// a single transaction
type mutation struct {
	now     time.Time
	actor   string
	events  []*MatchEvent
	notes   []*notification.Notification
	decline *Decline
	changed bool
}

// fire moves m through event, recording the audit row
func (mu *mutation) fire(m *Match, event Event) error {
	to, err := Next(m.Stage, event)
	if err != nil {
		return err
	}
	mu.record(m, event, m.Stage, to)
	m.Stage = to
	return nil
}

// touch records an audit-only event
func (mu *mutation) touch(m *Match, event Event) {
	mu.record(m, event, m.Stage, m.Stage)
}

func (mu *mutation) record(m *Match, event Event, from, to Stage) {
	var actor *string
	if mu.actor != "" {
		a := mu.actor
		actor = &a
	}
	mu.events = append(mu.events, &MatchEvent{
		MatchID:   m.ID,
		Event:     event,
		FromStage: from,
		ToStage:   to,
		ActorID:   actor,
		CreatedAt: mu.now,
	})
	mu.changed = true
}

func (mu *mutation) notify(ns ...*notification.Notification) {
	mu.notes = append(mu.notes, ns...)
}

// outcome is what apply reports back
type outcome struct {
	match                *Match
	notificationIDs      []uuid.UUID
	notificationsWritten int
}

// apply locks the match, runs fn, and persists the result atomically.
// If fn records nothing, nothing is written. Notifications alone (a retried
// send) are written without touching the match row.
func (s *service) apply(ctx context.Context, matchID uuid.UUID, actorID string, fn func(m *Match, mu *mutation) error) (*outcome, error) {
	out := &outcome{}
	err := s.repo.RunInTx(ctx, func(tx TxStore) error {
		m, err := tx.LockMatch(ctx, matchID)
		if err != nil {
			return err
		}

		mu := &mutation{now: s.now().UTC(), actor: actorID}
		if err := fn(m, mu); err != nil {
			return err
		}
		out.match = m
		if !mu.changed && len(mu.notes) == 0 {
			return nil
		}

		if mu.changed {
			m.UpdatedAt = mu.now
			if err := tx.SaveMatch(ctx, m); err != nil {
				return err
			}
			for _, e := range mu.events {
				if err := tx.AddEvent(ctx, e); err != nil {
					return err
				}
			}
		}
		if len(mu.notes) > 0 {
			written, err := tx.AddNotifications(ctx, mu.notes)
			if err != nil {
				return err
			}
			out.notificationsWritten = written
			for _, n := range mu.notes {
				out.notificationIDs = append(out.notificationIDs, n.ID)
			}
		}
		if mu.decline != nil {
			if err := tx.RecordDecline(ctx, *mu.decline); err != nil {
				return err
			}
		}

		for _, e := range mu.events {
			if e.FromStage != e.ToStage {
				stageTransitions.WithLabelValues(string(e.Event), string(e.ToStage)).Inc()
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
