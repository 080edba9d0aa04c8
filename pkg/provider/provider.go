package provider

import (
	"context"
	"time"
)

// CreateParams are the inputs for creating a call with the provider
type CreateParams struct {
	SystemPrompt string `json:"system_prompt"`
	Model        string `json:"model"`
	Voice        string `json:"voice"`
}

// CreateResult is the provider's response to a call creation
type CreateResult struct {
	CallID    string    `json:"call_id"`
	Status    string    `json:"status"`
	JoinURL   string    `json:"join_url"`
	CreatedAt time.Time `json:"created_at"`
}

// StatusResult is the provider's current view of a call. Payload carries the
// raw response body fields so reconciliation can record them verbatim.
type StatusResult struct {
	Status       string
	DurationSec  *int
	RecordingURL string
	Payload      map[string]any
}

// TranscriptSegment is one utterance of a provider transcript
type TranscriptSegment struct {
	Speaker   string `json:"speaker"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// CallProvider is the contract with the external voice-call API. GetTranscript
// returns (nil, nil) when the provider has no transcript yet; transcripts lag
// behind call completion.
type CallProvider interface {
	Create(ctx context.Context, params CreateParams) (*CreateResult, error)
	GetStatus(ctx context.Context, callID string) (*StatusResult, error)
	GetTranscript(ctx context.Context, callID string) ([]TranscriptSegment, error)
}
