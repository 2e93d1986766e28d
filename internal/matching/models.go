// internal/matching/models.go

package matching

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vettly/vettly-backend/internal/compatibility"
	"github.com/vettly/vettly-backend/internal/explanation"
)

// Points is the stored list of matching points
type Points []compatibility.MatchingPoint

// Scan implements the sql.Scanner interface for Points
func (p *Points) Scan(value interface{}) error {
	if value == nil {
		*p = Points{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Points", value)
	}
	out := Points{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*p = out
	return nil
}

// Value implements the driver.Valuer interface for Points
func (p Points) Value() (driver.Value, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p)
}

// Match is a proposed pairing curated by a matchmaker
type Match struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	Member1ID          string    `json:"member1Id" db:"member1_id"`
	Member2ID          string    `json:"member2Id" db:"member2_id"`
	Stage              Stage     `json:"stage" db:"stage"`
	CompatibilityScore int       `json:"compatibilityScore" db:"compatibility_score"`
	MatchingPoints     Points    `json:"matchingPoints" db:"matching_points"`
	Member1Explanation *string   `json:"-" db:"member1_explanation"`
	Member2Explanation *string   `json:"-" db:"member2_explanation"`
	ExplanationSource  *string   `json:"explanationSource,omitempty" db:"explanation_source"`
	PaymentRequired    bool      `json:"paymentRequired" db:"payment_required"`

	Member1AcceptedAt          *time.Time `json:"member1AcceptedAt,omitempty" db:"member1_accepted_at"`
	Member2AcceptedAt          *time.Time `json:"member2AcceptedAt,omitempty" db:"member2_accepted_at"`
	PaymentCompletedAt         *time.Time `json:"paymentCompletedAt,omitempty" db:"payment_completed_at"`
	PaymentReference           *string    `json:"-" db:"payment_reference"`
	VirtualMeetingScheduledAt  *time.Time `json:"virtualMeetingScheduledAt,omitempty" db:"virtual_meeting_scheduled_at"`
	VirtualMeetingScheduledFor *time.Time `json:"virtualMeetingScheduledFor,omitempty" db:"virtual_meeting_scheduled_for"`
	VirtualMeetingCompletedAt  *time.Time `json:"virtualMeetingCompletedAt,omitempty" db:"virtual_meeting_completed_at"`
	MatchmakerApprovedAt       *time.Time `json:"matchmakerApprovedAt,omitempty" db:"matchmaker_approved_at"`
	MatchmakerApprovedBy       *string    `json:"matchmakerApprovedBy,omitempty" db:"matchmaker_approved_by"`
	DateApprovedAt             *time.Time `json:"dateApprovedAt,omitempty" db:"date_approved_at"`
	DateApprovedBy             *string    `json:"dateApprovedBy,omitempty" db:"date_approved_by"`
	DeclinedAt                 *time.Time `json:"declinedAt,omitempty" db:"declined_at"`
	DeclinedBy                 *string    `json:"declinedBy,omitempty" db:"declined_by"`
	DeclineReason              *string    `json:"declineReason,omitempty" db:"decline_reason"`
	ExpiredAt                  *time.Time `json:"expiredAt,omitempty" db:"expired_at"`

	SentCount  int        `json:"sentCount" db:"sent_count"`
	LastSentAt *time.Time `json:"lastSentAt,omitempty" db:"last_sent_at"`
	CreatedBy  string     `json:"matchmakerId" db:"created_by"`
	Version    int        `json:"version" db:"version"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time  `json:"updatedAt" db:"updated_at"`
}

// Legacy status values derived from the stage
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusDeclined = "declined"
	StatusExpired  = "expired"
)

// Status maps the stage onto the coarse status older clients read
// OwnedBy reports whether matchmakerID created this match
func (m *Match) OwnedBy(matchmakerID string) bool {
	return m.CreatedBy == matchmakerID
}

// HasMembers reports whether a and b are this match's members in either order
func (m *Match) HasMembers(a, b string) bool {
	return (m.Member1ID == a && m.Member2ID == b) || (m.Member1ID == b && m.Member2ID == a)
}

func (m *Match) Status() string {
	switch m.Stage {
	case StageDeclined:
		return StatusDeclined
	case StageExpired:
		return StatusExpired
	case StageAcceptedByBoth, StagePaymentRequired, StagePaymentCompleted,
		StageVirtualMeetingRequired, StageVirtualMeetingCompleted,
		StageMatchmakerApproved, StageDateApproved:
		return StatusApproved
	}
	return StatusPending
}

// Side returns 1 or 2 for a participant, 0 otherwise
func (m *Match) Side(userID string) int {
	switch userID {
	case m.Member1ID:
		return 1
	case m.Member2ID:
		return 2
	}
	return 0
}

// Other returns the other participant
func (m *Match) Other(userID string) string {
	if userID == m.Member1ID {
		return m.Member2ID
	}
	return m.Member1ID
}

// AcceptedBy reports whether the given side has accepted
func (m *Match) AcceptedBy(side int) bool {
	switch side {
	case 1:
		return m.Member1AcceptedAt != nil
	case 2:
		return m.Member2AcceptedAt != nil
	}
	return false
}

// HasExplanation reports whether both members' explanations are stored
func (m *Match) HasExplanation() bool {
	return m.Member1Explanation != nil && *m.Member1Explanation != "" &&
		m.Member2Explanation != nil && *m.Member2Explanation != ""
}

// Explanations decodes the stored explanation lists
func (m *Match) Explanations() (member1, member2 []explanation.Point) {
	if m.Member1Explanation != nil {
		member1 = explanation.Decode(*m.Member1Explanation)
	}
	if m.Member2Explanation != nil {
		member2 = explanation.Decode(*m.Member2Explanation)
	}
	return member1, member2
}

// MarshalJSON adds the progress flags and decoded explanations derived from
// stage and timestamps
func (m Match) MarshalJSON() ([]byte, error) {
	type alias Match
	m1, m2 := m.Explanations()
	return json.Marshal(struct {
		alias
		Status                  string              `json:"status"`
		Member1Accepted         bool                `json:"member1Accepted"`
		Member2Accepted         bool                `json:"member2Accepted"`
		BothAccepted            bool                `json:"bothAccepted"`
		PaymentCompleted        bool                `json:"paymentCompleted"`
		VirtualMeetingScheduled bool                `json:"virtualMeetingScheduled"`
		VirtualMeetingCompleted bool                `json:"virtualMeetingCompleted"`
		MatchmakerApproved      bool                `json:"matchmakerApproved"`
		DateApproved            bool                `json:"dateApproved"`
		Member1Points           []explanation.Point `json:"member1Points,omitempty"`
		Member2Points           []explanation.Point `json:"member2Points,omitempty"`
	}{
		alias:                   alias(m),
		Status:                  m.Status(),
		Member1Accepted:         m.Member1AcceptedAt != nil,
		Member2Accepted:         m.Member2AcceptedAt != nil,
		BothAccepted:            m.Member1AcceptedAt != nil && m.Member2AcceptedAt != nil,
		PaymentCompleted:        m.PaymentCompletedAt != nil,
		VirtualMeetingScheduled: m.VirtualMeetingScheduledFor != nil,
		VirtualMeetingCompleted: m.VirtualMeetingCompletedAt != nil,
		MatchmakerApproved:      m.MatchmakerApprovedAt != nil,
		DateApproved:            m.DateApprovedAt != nil,
		Member1Points:           m1,
		Member2Points:           m2,
	})
}

// MatchEvent is the audit row written with every transition
type MatchEvent struct {
	ID        int64     `json:"id" db:"id"`
	MatchID   uuid.UUID `json:"matchId" db:"match_id"`
	Event     Event     `json:"event" db:"event"`
	FromStage Stage     `json:"fromStage" db:"from_stage"`
	ToStage   Stage     `json:"toStage" db:"to_stage"`
	ActorID   *string   `json:"actorId,omitempty" db:"actor_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Decline is the analytics increment applied when a member declines
type Decline struct {
	MemberID string
	Reason   string
	At       time.Time
}

// Month is the decline_analytics bucket key
func (d Decline) Month() string {
	return d.At.UTC().Format("2006-01")
}

// DeclineAnalytics is the per-member decline counter
type DeclineAnalytics struct {
	MemberID        string     `json:"memberId" db:"member_id"`
	TotalDeclines   int        `json:"totalDeclines" db:"total_declines"`
	MonthlyDeclines Counter    `json:"monthlyDeclines" db:"monthly_declines"`
	Reasons         Counter    `json:"reasons" db:"reasons"`
	LastDeclinedAt  *time.Time `json:"lastDeclinedAt,omitempty" db:"last_declined_at"`
}

// Counter is a JSONB string → count map
type Counter map[string]int

// Scan implements the sql.Scanner interface for Counter
func (c *Counter) Scan(value interface{}) error {
	if value == nil {
		*c = Counter{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Counter", value)
	}
	out := Counter{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*c = out
	return nil
}

// Suggestion is one stored candidate from the batch analysis
type Suggestion struct {
	MemberID    string    `json:"memberId" db:"member_id"`
	CandidateID string    `json:"candidateId" db:"candidate_id"`
	Score       float64   `json:"score" db:"score"`
	Compatible  bool      `json:"compatible" db:"compatible"`
	Degraded    bool      `json:"degraded" db:"degraded"`
	Reason      *string   `json:"reason,omitempty" db:"reason"`
	ComputedAt  time.Time `json:"computedAt" db:"computed_at"`
}
