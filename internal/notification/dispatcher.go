// internal/notification/dispatcher.go

package notification

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vettly/vettly-backend/internal/profile"
)

// ContactLookup resolves delivery addresses for a recipient
type ContactLookup interface {
	Contact(ctx context.Context, id string) (profile.Contact, error)
}

// DispatcherConfig tunes the outbox worker
type DispatcherConfig struct {
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
	// StuckAfter is how long a claimed row may stay in sending before the
	// cleanup pass returns it to the queue
	StuckAfter time.Duration
}

// Dispatcher drains the notification outbox to the hub and external channels
type Dispatcher struct {
	repo     Repository
	contacts ContactLookup
	hub      *Hub
	push     PushService
	email    EmailService
	sms      SMSService
	cfg      DispatcherConfig
	stopCh   chan struct{}
	log      *zap.Logger
}

// NewDispatcher creates a dispatcher. Any channel may be nil.
func NewDispatcher(repo Repository, contacts ContactLookup, hub *Hub, push PushService, email EmailService, sms SMSService, cfg DispatcherConfig, log *zap.Logger) *Dispatcher {
	if cfg.Interval == 0 {
		cfg.Interval = 15 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.StuckAfter == 0 {
		cfg.StuckAfter = 10 * time.Minute
	}

	return &Dispatcher{
		repo:     repo,
		contacts: contacts,
		hub:      hub,
		push:     push,
		email:    email,
		sms:      sms,
		cfg:      cfg,
		stopCh:   make(chan struct{}),
		log:      log.Named("dispatcher"),
	}
}

// Start runs the dispatch loop until Stop or ctx is done
func (d *Dispatcher) Start(ctx context.Context) {
	d.log.Info("starting notification dispatcher", zap.Duration("interval", d.cfg.Interval))

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	d.tick(ctx)

	for {
		select {
		case <-ticker.C:
			d.tick(ctx)
		case <-d.stopCh:
			d.log.Info("stopping notification dispatcher")
			return
		case <-ctx.Done():
			d.log.Info("context cancelled, stopping notification dispatcher")
			return
		}
	}
}

// Stop stops the dispatcher
func (d *Dispatcher) Stop() {
	close(d.stopCh)
}

func (d *Dispatcher) tick(ctx context.Context) {
	if n, err := d.repo.RequeueStuck(ctx, time.Now().Add(-d.cfg.StuckAfter)); err != nil {
		d.log.Error("requeue stuck notifications", zap.Error(err))
	} else if n > 0 {
		d.log.Warn("requeued stuck notifications", zap.Int64("count", n))
	}

	if _, err := d.DispatchOnce(ctx); err != nil {
		d.log.Error("dispatch notifications", zap.Error(err))
	}
}

// DispatchOnce claims one batch and delivers it. It returns how many rows
// were delivered.
func (d *Dispatcher) DispatchOnce(ctx context.Context) (int, error) {
	batch, err := d.repo.ClaimQueued(ctx, d.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, n := range batch {
		if err := d.deliver(ctx, n); err != nil {
			final := n.Attempts >= d.cfg.MaxAttempts
			if final {
				notificationsDispatched.WithLabelValues("failed").Inc()
				d.log.Error("notification dead-lettered",
					zap.String("notification_id", n.ID.String()),
					zap.Int("attempts", n.Attempts),
					zap.Error(err))
			} else {
				notificationsDispatched.WithLabelValues("retry").Inc()
				d.log.Warn("notification delivery failed",
					zap.String("notification_id", n.ID.String()),
					zap.Int("attempts", n.Attempts),
					zap.Error(err))
			}
			if mErr := d.repo.MarkFailed(ctx, n.ID, err.Error(), final); mErr != nil {
				d.log.Error("mark notification failed", zap.Error(mErr))
			}
			continue
		}

		if err := d.repo.MarkDelivered(ctx, n.ID); err != nil {
			d.log.Error("mark notification delivered", zap.Error(err))
			continue
		}
		notificationsDispatched.WithLabelValues("delivered").Inc()
		delivered++
	}

	return delivered, nil
}

// deliver sends n on every channel it has not already gone out on. Each
// success is recorded before the next channel is tried, so a failure part way
// through only repeats the channels that failed.
func (d *Dispatcher) deliver(ctx context.Context, n *Notification) error {
	if d.hub != nil && !n.DeliveredOn(ChannelHub) {
		d.hub.Send(n.RecipientID, Event{Type: "notification", Data: n})
		d.markChannel(ctx, n, ChannelHub)
	}

	if d.contacts == nil {
		return nil
	}
	needsContact := d.push != nil || (d.email != nil && wantsEmail(n.Type)) || (d.sms != nil && wantsSMS(n.Type))
	if !needsContact {
		return nil
	}

	contact, err := d.contacts.Contact(ctx, n.RecipientID)
	if err != nil {
		return fmt.Errorf("lookup contact: %w", err)
	}

	title, body := Render(n)

	if d.push != nil && contact.PushToken != "" && !n.DeliveredOn(ChannelPush) {
		data := map[string]string{
			"notificationId": n.ID.String(),
			"type":           string(n.Type),
		}
		if n.MatchID != nil {
			data["matchId"] = n.MatchID.String()
		}
		if err := d.push.SendPush(ctx, &PushMessage{Token: contact.PushToken, Title: title, Body: body, Data: data}); err != nil {
			return fmt.Errorf("push: %w", err)
		}
		d.markChannel(ctx, n, ChannelPush)
	}

	if d.email != nil && wantsEmail(n.Type) && contact.Email != "" && !n.DeliveredOn(ChannelEmail) {
		msg, err := RenderEmail(n, contact.Email, contact.DisplayName)
		if err != nil {
			return err
		}
		if err := d.email.SendEmail(ctx, msg); err != nil {
			return fmt.Errorf("email: %w", err)
		}
		d.markChannel(ctx, n, ChannelEmail)
	}

	if d.sms != nil && wantsSMS(n.Type) && contact.Phone != "" && !n.DeliveredOn(ChannelSMS) {
		if err := d.sms.SendSMS(ctx, &SMSMessage{To: contact.Phone, Body: "Vettly: " + body}); err != nil {
			return fmt.Errorf("sms: %w", err)
		}
		d.markChannel(ctx, n, ChannelSMS)
	}

	return nil
}

// markChannel persists a channel success. If the write fails the channel is
// sent again on retry.
func (d *Dispatcher) markChannel(ctx context.Context, n *Notification, c Channel) {
	if err := d.repo.MarkChannelDelivered(ctx, n.ID, c); err != nil {
		d.log.Warn("record channel delivery",
			zap.String("notification_id", n.ID.String()),
			zap.String("channel", string(c)),
			zap.Error(err))
		return
	}
	n.DeliveredChannels = append(n.DeliveredChannels, string(c))
}
