// internal/notification/models.go

package notification

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Type is the transition a notification reports
type Type string

const (
	TypeMatchProposal           Type = "match_proposal"
	TypeMatchAccepted           Type = "match_accepted"
	TypeMatchAcceptedByBoth     Type = "match_accepted_by_both"
	TypeMatchDeclined           Type = "match_declined"
	TypePaymentRequired         Type = "payment_required"
	TypePaymentCompleted        Type = "payment_completed"
	TypeVirtualMeetingScheduled Type = "virtual_meeting_scheduled"
	TypeVirtualMeetingCompleted Type = "virtual_meeting_completed"
	TypeMatchmakerApproved      Type = "matchmaker_approved"
	TypeDateApproved            Type = "date_approved"
	TypeMatchExpired            Type = "match_expired"
)

// Collection groups notifications by audience
type Collection string

const (
	CollectionMember     Collection = "vettly2Notifications"
	CollectionMatchmaker Collection = "matchmakerNotifications"
	CollectionApproval   Collection = "matchApprovalNotifications"
)

// Valid reports whether c is a known collection
func (c Collection) Valid() bool {
	switch c {
	case CollectionMember, CollectionMatchmaker, CollectionApproval:
		return true
	}
	return false
}

// Status is the recipient-side state
type Status string

const (
	StatusPending Status = "pending"
	StatusViewed  Status = "viewed"
	StatusRead    Status = "read"
)

// DeliveryStatus tracks the outbox side
type DeliveryStatus string

const (
	DeliveryQueued    DeliveryStatus = "queued"
	DeliverySending   DeliveryStatus = "sending"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
)

// Payload is the denormalized match summary a client renders without a join
type Payload map[string]interface{}

// Scan implements sql.Scanner interface
func (p *Payload) Scan(value interface{}) error {
	if value == nil {
		*p = Payload{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Payload", value)
	}
	out := Payload{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*p = out
	return nil
}

// Value implements driver.Valuer interface
func (p Payload) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

// Notification is one row per (recipient, match, transition)
type Notification struct {
	ID                uuid.UUID      `json:"id" db:"id"`
	Collection        Collection     `json:"collection" db:"collection"`
	RecipientID       string         `json:"recipientId" db:"recipient_id"`
	MatchID           *uuid.UUID     `json:"matchId,omitempty" db:"match_id"`
	Type              Type           `json:"type" db:"type"`
	Status            Status         `json:"status" db:"status"`
	Message           string         `json:"message" db:"message"`
	Payload           Payload        `json:"payload" db:"payload"`
	DeliveryStatus    DeliveryStatus `json:"deliveryStatus" db:"delivery_status"`
	Attempts          int            `json:"-" db:"attempts"`
	LastError         *string        `json:"-" db:"last_error"`
	DeliveredChannels pq.StringArray `json:"-" db:"delivered_channels"`
	DeliveredAt       *time.Time     `json:"deliveredAt,omitempty" db:"delivered_at"`
	ViewedAt          *time.Time     `json:"viewedAt,omitempty" db:"viewed_at"`
	ReadAt            *time.Time     `json:"readAt,omitempty" db:"read_at"`
	CreatedAt         time.Time      `json:"createdAt" db:"created_at"`
}

// DeliveredOn reports whether an earlier attempt already got through on c
func (n *Notification) DeliveredOn(c Channel) bool {
	for _, done := range n.DeliveredChannels {
		if done == string(c) {
			return true
		}
	}
	return false
}

// MarshalJSON adds memberId or matchmakerId so clients can filter on the
// audience-specific field
func (n Notification) MarshalJSON() ([]byte, error) {
	type alias Notification
	out := struct {
		alias
		MemberID     string `json:"memberId,omitempty"`
		MatchmakerID string `json:"matchmakerId,omitempty"`
	}{alias: alias(n)}
	if n.Collection == CollectionMatchmaker {
		out.MatchmakerID = n.RecipientID
	} else {
		out.MemberID = n.RecipientID
	}
	return json.Marshal(out)
}

// idNamespace scopes deterministic notification IDs
var idNamespace = uuid.MustParse("6f1c8a52-3c1e-4c53-9a52-0b6a3f1e9d44")

// DeterministicID derives the same ID for the same (recipient, match, transition),
// so a repeated write lands on the existing row instead of creating a new one.
func DeterministicID(recipientID string, matchID uuid.UUID, transition string) uuid.UUID {
	return uuid.NewSHA1(idNamespace, []byte(recipientID+"|"+matchID.String()+"|"+transition))
}

// New builds a queued notification. transition defaults to the type; pass a
// distinct key (e.g. "match_proposal#2") when the same type may legitimately repeat.
func New(collection Collection, recipientID string, matchID uuid.UUID, typ Type, transition, message string, payload Payload) *Notification {
	if transition == "" {
		transition = string(typ)
	}
	mid := matchID
	return &Notification{
		ID:             DeterministicID(recipientID, matchID, transition),
		Collection:     collection,
		RecipientID:    recipientID,
		MatchID:        &mid,
		Type:           typ,
		Status:         StatusPending,
		Message:        message,
		Payload:        payload,
		DeliveryStatus: DeliveryQueued,
		CreatedAt:      time.Now().UTC(),
	}
}
