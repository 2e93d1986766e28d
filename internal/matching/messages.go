// internal/matching/messages.go

package matching

import (
	"fmt"
	"time"

	"github.com/vettly/vettly-backend/internal/notification"
)

// names maps user ID to display name for message text
type names map[string]string

func (n names) of(id string) string {
	if name := n[id]; name != "" {
		return name
	}
	return "Your match"
}

func basePayload(m *Match) notification.Payload {
	return notification.Payload{
		"matchId":            m.ID.String(),
		"member1Id":          m.Member1ID,
		"member2Id":          m.Member2ID,
		"stage":              string(m.Stage),
		"status":             m.Status(),
		"compatibilityScore": m.CompatibilityScore,
	}
}

func memberNote(m *Match, recipient string, typ notification.Type, transition, message string, extra notification.Payload) *notification.Notification {
	payload := basePayload(m)
	payload["otherMemberId"] = m.Other(recipient)
	for k, v := range extra {
		payload[k] = v
	}
	return notification.New(notification.CollectionMember, recipient, m.ID, typ, transition, message, payload)
}

func matchmakerNote(m *Match, typ notification.Type, transition, message string, extra notification.Payload) *notification.Notification {
	payload := basePayload(m)
	for k, v := range extra {
		payload[k] = v
	}
	return notification.New(notification.CollectionMatchmaker, m.CreatedBy, m.ID, typ, transition, message, payload)
}

func approvalNote(m *Match, recipient string, message string) *notification.Notification {
	payload := basePayload(m)
	payload["otherMemberId"] = m.Other(recipient)
	return notification.New(notification.CollectionApproval, recipient, m.ID, notification.TypeDateApproved, "", message, payload)
}

func bothMembers(m *Match, typ notification.Type, transition string, n names, text func(other string) string, extra notification.Payload) []*notification.Notification {
	return []*notification.Notification{
		memberNote(m, m.Member1ID, typ, transition, text(n.of(m.Member2ID)), extra),
		memberNote(m, m.Member2ID, typ, transition, text(n.of(m.Member1ID)), extra),
	}
}

func acceptedText(n names, member string) string {
	return fmt.Sprintf("%s accepted the match", n.of(member))
}

func acceptedByBothText(other string) string {
	return fmt.Sprintf("You and %s both accepted. It's a match!", other)
}

func paymentRequiredText(other string) string {
	return fmt.Sprintf("Complete your match fee to set up a virtual meeting with %s", other)
}

func paymentCompletedText(other string) string {
	return fmt.Sprintf("Payment received. Your matchmaker will schedule a virtual meeting with %s", other)
}

func meetingScheduledText(at time.Time) func(other string) string {
	return func(other string) string {
		return fmt.Sprintf("Your virtual meeting with %s is scheduled for %s", other, at.UTC().Format("Mon Jan 2, 15:04 MST"))
	}
}

func matchmakerApprovedText(other string) string {
	return fmt.Sprintf("Your matchmaker approved your match with %s", other)
}

func dateApprovedText(other string) string {
	return fmt.Sprintf("Your date with %s is approved. Have a wonderful time!", other)
}

func proposalText(other string) string {
	return fmt.Sprintf("You have a new match proposal with %s", other)
}
