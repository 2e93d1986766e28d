// internal/matching/lifecycle.go

package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vettly/vettly-backend/internal/notification"
)

// AcceptMatch records one member's acceptance. The second acceptance moves the
// match on to payment or, when payment is waived, straight to the meeting.
func (s *service) AcceptMatch(ctx context.Context, matchID uuid.UUID, userID string) (*Match, error) {
	nm, err := s.names(ctx, matchID)
	if err != nil {
		return nil, err
	}

	out, err := s.apply(ctx, matchID, userID, func(m *Match, mu *mutation) error {
		side := m.Side(userID)
		if side == 0 {
			return ErrNotParticipant
		}
		if m.AcceptedBy(side) {
			return nil
		}

		if err := mu.fire(m, EventAccept); err != nil {
			return err
		}
		now := mu.now
		if side == 1 {
			m.Member1AcceptedAt = &now
		} else {
			m.Member2AcceptedAt = &now
		}

		mu.notify(matchmakerNote(m, notification.TypeMatchAccepted, "match_accepted#"+userID,
			acceptedText(nm, userID), notification.Payload{"acceptedBy": userID}))

		if m.Stage != StageAcceptedByBoth {
			return nil
		}

		mu.notify(bothMembers(m, notification.TypeMatchAcceptedByBoth, "", nm, acceptedByBothText, nil)...)
		mu.notify(matchmakerNote(m, notification.TypeMatchAcceptedByBoth, "",
			fmt.Sprintf("%s and %s both accepted", nm.of(m.Member1ID), nm.of(m.Member2ID)), nil))

		if m.PaymentRequired {
			if err := mu.fire(m, EventRequirePayment); err != nil {
				return err
			}
			mu.notify(bothMembers(m, notification.TypePaymentRequired, "", nm, paymentRequiredText, nil)...)
			return nil
		}
		return mu.fire(m, EventRequireMeeting)
	})
	if err != nil {
		return nil, err
	}
	return out.match, nil
}

// DeclineMatch ends the match. Exactly one matchmaker notification is written
// and the decliner's analytics are bumped in the same transaction.
func (s *service) DeclineMatch(ctx context.Context, matchID uuid.UUID, userID, reason string) (*Match, error) {
	nm, err := s.names(ctx, matchID)
	if err != nil {
		return nil, err
	}

	out, err := s.apply(ctx, matchID, userID, func(m *Match, mu *mutation) error {
		if m.Side(userID) == 0 {
			return ErrNotParticipant
		}
		if m.Stage == StageDeclined && m.DeclinedBy != nil && *m.DeclinedBy == userID {
			return nil
		}

		if err := mu.fire(m, EventDecline); err != nil {
			return err
		}
		now := mu.now
		by := userID
		m.DeclinedAt = &now
		m.DeclinedBy = &by
		if reason != "" {
			r := reason
			m.DeclineReason = &r
		}

		mu.notify(matchmakerNote(m, notification.TypeMatchDeclined, "",
			fmt.Sprintf("%s declined the match", nm.of(userID)),
			notification.Payload{"declinedBy": userID, "reason": reason}))
		mu.notify(memberNote(m, m.Other(userID), notification.TypeMatchDeclined, "",
			"Your match proposal was declined. Your matchmaker will be in touch.", nil))
		mu.decline = &Decline{MemberID: userID, Reason: reason, At: now}
		return nil
	})
	if err != nil {
		return nil, err
	}

	matchesDeclined.Inc()
	return out.match, nil
}

// RecordPayment marks the fee paid and opens the meeting step. A repeated
// reference is a no-op so webhook redelivery is safe.
func (s *service) RecordPayment(ctx context.Context, matchID uuid.UUID, payerID, reference string) (*Match, error) {
	if reference == "" {
		return nil, ErrPaymentReferenceRequired
	}
	nm, err := s.names(ctx, matchID)
	if err != nil {
		return nil, err
	}

	out, err := s.apply(ctx, matchID, payerID, func(m *Match, mu *mutation) error {
		if payerID != "" && m.Side(payerID) == 0 {
			return ErrNotParticipant
		}
		if m.PaymentReference != nil && *m.PaymentReference == reference && m.PaymentCompletedAt != nil {
			return nil
		}

		if err := mu.fire(m, EventCompletePayment); err != nil {
			return err
		}
		now := mu.now
		ref := reference
		m.PaymentCompletedAt = &now
		m.PaymentReference = &ref

		mu.notify(bothMembers(m, notification.TypePaymentCompleted, "", nm, paymentCompletedText, nil)...)
		mu.notify(matchmakerNote(m, notification.TypePaymentCompleted, "",
			"Payment received. Schedule the virtual meeting.", nil))

		return mu.fire(m, EventRequireMeeting)
	})
	if err != nil {
		return nil, err
	}
	return out.match, nil
}

// ScheduleVirtualMeeting records or moves the meeting time. Each distinct time
// produces its own notification.
func (s *service) ScheduleVirtualMeeting(ctx context.Context, matchID uuid.UUID, actorID string, at time.Time) (*Match, error) {
	if !at.After(s.now()) {
		return nil, ErrInvalidSchedule
	}
	nm, err := s.names(ctx, matchID)
	if err != nil {
		return nil, err
	}

	out, err := s.apply(ctx, matchID, actorID, func(m *Match, mu *mutation) error {
		if m.Side(actorID) == 0 && m.CreatedBy != actorID {
			return ErrNotParticipant
		}
		if err := mu.fire(m, EventScheduleMeeting); err != nil {
			return err
		}
		now := mu.now
		when := at.UTC()
		m.VirtualMeetingScheduledAt = &now
		m.VirtualMeetingScheduledFor = &when

		transition := fmt.Sprintf("%s#%d", notification.TypeVirtualMeetingScheduled, when.Unix())
		mu.notify(bothMembers(m, notification.TypeVirtualMeetingScheduled, transition, nm,
			meetingScheduledText(when), notification.Payload{"scheduledFor": when.Format(time.RFC3339)})...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out.match, nil
}

func (s *service) CompleteVirtualMeeting(ctx context.Context, matchID uuid.UUID, matchmakerID string) (*Match, error) {
	nm, err := s.names(ctx, matchID)
	if err != nil {
		return nil, err
	}

	out, err := s.apply(ctx, matchID, matchmakerID, func(m *Match, mu *mutation) error {
		if !m.OwnedBy(matchmakerID) {
			return ErrForbidden
		}
		if m.Stage == StageVirtualMeetingRequired && m.VirtualMeetingScheduledFor == nil {
			return ErrMeetingNotScheduled
		}
		if err := mu.fire(m, EventCompleteMeeting); err != nil {
			return err
		}
		now := mu.now
		m.VirtualMeetingCompletedAt = &now

		mu.notify(matchmakerNote(m, notification.TypeVirtualMeetingCompleted, "",
			fmt.Sprintf("%s and %s completed their virtual meeting", nm.of(m.Member1ID), nm.of(m.Member2ID)), nil))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out.match, nil
}

func (s *service) MatchmakerApprove(ctx context.Context, matchID uuid.UUID, matchmakerID string) (*Match, error) {
	nm, err := s.names(ctx, matchID)
	if err != nil {
		return nil, err
	}

	out, err := s.apply(ctx, matchID, matchmakerID, func(m *Match, mu *mutation) error {
		if !m.OwnedBy(matchmakerID) {
			return ErrForbidden
		}
		if err := mu.fire(m, EventMatchmakerApprove); err != nil {
			return err
		}
		now := mu.now
		by := matchmakerID
		m.MatchmakerApprovedAt = &now
		m.MatchmakerApprovedBy = &by

		mu.notify(bothMembers(m, notification.TypeMatchmakerApproved, "", nm, matchmakerApprovedText, nil)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out.match, nil
}

// ApproveMatchForDate requires a completed virtual meeting and writes exactly
// one approval notification per member
func (s *service) ApproveMatchForDate(ctx context.Context, matchID uuid.UUID, matchmakerID string) (*Match, error) {
	nm, err := s.names(ctx, matchID)
	if err != nil {
		return nil, err
	}

	out, err := s.apply(ctx, matchID, matchmakerID, func(m *Match, mu *mutation) error {
		if !m.OwnedBy(matchmakerID) {
			return ErrForbidden
		}
		if !Can(m.Stage, EventApproveDate) && m.VirtualMeetingCompletedAt == nil && !m.Stage.Terminal() {
			return ErrVirtualMeetingIncomplete
		}
		if err := mu.fire(m, EventApproveDate); err != nil {
			return err
		}
		now := mu.now
		by := matchmakerID
		m.DateApprovedAt = &now
		m.DateApprovedBy = &by

		mu.notify(
			approvalNote(m, m.Member1ID, dateApprovedText(nm.of(m.Member2ID))),
			approvalNote(m, m.Member2ID, dateApprovedText(nm.of(m.Member1ID))),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	datesApproved.Inc()
	return out.match, nil
}

// ExpireStale expires matches nobody finished responding to. One failing
// match does not stop the rest.
func (s *service) ExpireStale(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := s.now().Add(-olderThan)
	ids, err := s.repo.ListStale(ctx, cutoff, s.opts.ExpireBatchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, id := range ids {
		fired := false
		_, err := s.apply(ctx, id, "", func(m *Match, mu *mutation) error {
			if !Can(m.Stage, EventExpire) || m.CreatedAt.After(cutoff) {
				return nil
			}
			if err := mu.fire(m, EventExpire); err != nil {
				return err
			}
			now := mu.now
			m.ExpiredAt = &now
			mu.notify(matchmakerNote(m, notification.TypeMatchExpired, "",
				"A match expired before both members responded", nil))
			fired = true
			return nil
		})
		if err != nil {
			s.log.Error("failed to expire match", zap.String("match_id", id.String()), zap.Error(err))
			continue
		}
		if fired {
			expired++
		}
	}

	if expired > 0 {
		matchesExpired.Add(float64(expired))
		s.log.Info("expired stale matches", zap.Int("count", expired))
	}
	return expired, nil
}
