// internal/tips/models.go

package tips

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is a tip's editorial state
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
	StatusRejected Status = "rejected"
)

// allowed lists the statuses each status may move to
var allowed = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusActive, StatusRejected},
	StatusApproved: {StatusActive, StatusRejected, StatusArchived},
	StatusActive:   {StatusArchived},
}

// CanBecome reports whether s may move to next
func (s Status) CanBecome(next Status) bool {
	for _, st := range allowed[s] {
		if st == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusActive, StatusArchived, StatusRejected:
		return true
	}
	return false
}

// Categories the weekly job rotates through
var Categories = []string{
	"communication",
	"first_dates",
	"emotional_intelligence",
	"self_growth",
	"relationship_building",
	"dating_etiquette",
}

// nextCategory returns the category after last, wrapping around
func nextCategory(last string) string {
	for i, c := range Categories {
		if c == last {
			return Categories[(i+1)%len(Categories)]
		}
	}
	return Categories[0]
}

// QuickTips is the stored bullet list
type QuickTips []string

// Scan implements the sql.Scanner interface for QuickTips
func (q *QuickTips) Scan(value interface{}) error {
	if value == nil {
		*q = QuickTips{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into QuickTips", value)
	}
	out := QuickTips{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*q = out
	return nil
}

// Value implements the driver.Valuer interface for QuickTips
func (q QuickTips) Value() (driver.Value, error) {
	if q == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(q)
}

// Tip is one piece of weekly editorial content
type Tip struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	Title            string     `json:"title" db:"title"`
	ShortDescription string     `json:"shortDescription" db:"short_description"`
	MainContent      string     `json:"mainContent" db:"main_content"`
	WhyThisMatters   string     `json:"whyThisMatters" db:"why_this_matters"`
	QuickTips        QuickTips  `json:"quickTips" db:"quick_tips"`
	DidYouKnow       string     `json:"didYouKnow" db:"did_you_know"`
	WeeklyChallenge  string     `json:"weeklyChallenge" db:"weekly_challenge"`
	Category         string     `json:"category" db:"category"`
	Status           Status     `json:"status" db:"status"`
	PublishedAt      *time.Time `json:"publishedAt,omitempty" db:"published_at"`
	ActivatedAt      *time.Time `json:"activatedAt,omitempty" db:"activated_at"`
	CreatedBy        *string    `json:"createdBy,omitempty" db:"created_by"`
	CreatedAt        time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time  `json:"updatedAt" db:"updated_at"`
}
