package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Call status values as reported by the external provider. Transitions are
// provider-driven; the service records whatever the provider currently
// reports rather than validating the transition sequence.
const (
	CallStatusQueued     = "queued"
	CallStatusRinging    = "ringing"
	CallStatusInProgress = "in_progress"
	CallStatusCompleted  = "completed"
	CallStatusFailed     = "failed"
	CallStatusEnded      = "ended"
)

// IsTerminalCallStatus reports whether a status ends the call lifecycle
func IsTerminalCallStatus(status string) bool {
	switch status {
	case CallStatusCompleted, CallStatusFailed, CallStatusEnded:
		return true
	}
	return false
}

// CallEvent is one entry in a call's append-only event list
type CallEvent struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      Attrs     `json:"data,omitempty"`
}

// CallEvents is the ordered, append-only event list stored as jsonb
type CallEvents []CallEvent

// Value implements driver.Valuer
func (e CallEvents) Value() (driver.Value, error) {
	if e == nil {
		return json.Marshal(CallEvents{})
	}
	return json.Marshal(e)
}

// Scan implements sql.Scanner
func (e *CallEvents) Scan(value interface{}) error {
	if value == nil {
		*e = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported call events column type %T", value)
	}
	return json.Unmarshal(data, e)
}

// TranscriptSegment is one utterance of a call transcript
type TranscriptSegment struct {
	Speaker   string `json:"speaker"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// Call tracks a single session with the external voice-call provider. Only
// the call lifecycle manager mutates status, events, duration, recording URL
// and the cached transcript after creation.
type Call struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	TenantID       uint           `json:"tenant_id" gorm:"index;not null"`
	UserID         uint           `json:"user_id" gorm:"index;not null"`
	ProviderCallID string         `json:"provider_call_id" gorm:"type:varchar(100);index;not null"`
	Status         string         `json:"status" gorm:"type:varchar(20);not null;default:'queued'"`
	Metadata       Attrs          `json:"metadata,omitempty" gorm:"type:jsonb"`
	Events         CallEvents     `json:"events" gorm:"type:jsonb"`
	RecordingURL   string         `json:"recording_url,omitempty" gorm:"type:varchar(500)"`
	Transcript     string         `json:"-" gorm:"type:text"` // serialized transcript cache, one-way fill
	DurationSec    *int           `json:"duration_sec,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Call) TableName() string {
	return "calls"
}

// CachedTranscript deserializes the cached transcript, if any
func (c *Call) CachedTranscript() ([]TranscriptSegment, error) {
	if c.Transcript == "" {
		return nil, nil
	}
	var segments []TranscriptSegment
	if err := json.Unmarshal([]byte(c.Transcript), &segments); err != nil {
		return nil, fmt.Errorf("corrupt transcript cache for call %d: %w", c.ID, err)
	}
	return segments, nil
}
