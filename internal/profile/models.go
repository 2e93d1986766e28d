// internal/profile/models.go

package profile

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Gender values used to orient explanations and candidate search
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Answers is the flat questionnaire map, keys like "values_children" or
// "lifestyle_profession". Values are whatever JSON the client stored.
type Answers map[string]interface{}

// Scan implements the sql.Scanner interface for Answers
func (a *Answers) Scan(value interface{}) error {
	if value == nil {
		*a = Answers{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Answers", value)
	}
	out := Answers{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*a = out
	return nil
}

// Value implements the driver.Valuer interface for Answers
func (a Answers) Value() (driver.Value, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(a)
}

// UserProfile is a member or matchmaker. Never hard-deleted.
type UserProfile struct {
	ID                     string     `json:"id" db:"id"`
	Email                  *string    `json:"email,omitempty" db:"email"`
	Phone                  *string    `json:"phone,omitempty" db:"phone"`
	DisplayName            string     `json:"displayName" db:"display_name"`
	Gender                 string     `json:"gender" db:"gender"`
	Age                    *int       `json:"age,omitempty" db:"age"`
	Location               *string    `json:"location,omitempty" db:"location"`
	ProfilePhotoURL        *string    `json:"profilePhotoUrl,omitempty" db:"profile_photo_url"`
	Role                   string     `json:"role" db:"role"`
	QuestionnaireAnswers   Answers    `json:"questionnaireAnswers" db:"questionnaire_answers"`
	QuestionnaireCompleted bool       `json:"questionnaireCompleted" db:"questionnaire_completed"`
	PushToken              *string    `json:"-" db:"push_token"`
	ArchivedAt             *time.Time `json:"archivedAt,omitempty" db:"archived_at"`
	CreatedAt              time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt              time.Time  `json:"updatedAt" db:"updated_at"`
}

// IsArchived reports whether the profile was soft-archived
func (p *UserProfile) IsArchived() bool {
	return p.ArchivedAt != nil
}

// Contact is what notification channels need to reach a user
type Contact struct {
	UserID      string
	DisplayName string
	Email       string
	Phone       string
	PushToken   string
}

// Contact extracts delivery addresses
func (p *UserProfile) Contact() Contact {
	c := Contact{UserID: p.ID, DisplayName: p.DisplayName}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.PushToken != nil {
		c.PushToken = *p.PushToken
	}
	return c
}

// UpdateQuestionnaireRequest merges answers into the stored map
type UpdateQuestionnaireRequest struct {
	Answers   Answers `json:"answers" validate:"required"`
	Completed *bool   `json:"completed,omitempty"`
}

// UpdatePushTokenRequest registers the device for FCM
type UpdatePushTokenRequest struct {
	Token string `json:"token" validate:"required,max=4096"`
}
