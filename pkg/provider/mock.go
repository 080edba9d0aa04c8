package provider

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

var mockProgression = []string{
	"queued",
	"ringing",
	"in_progress",
	"completed",
}

// Mock satisfies CallProvider without any network access. Calls progress
// through the status sequence with a randomized number of polls per step, and
// completed calls expose a canned transcript. Useful for development and
// tests where the real provider is unavailable.
type Mock struct {
	mu    sync.Mutex
	calls map[string]*mockCall
	rand  *rand.Rand

	// AdvanceEveryPoll forces one status step per GetStatus call, making
	// progression deterministic for tests.
	AdvanceEveryPoll bool
}

type mockCall struct {
	stage     int
	createdAt time.Time
	duration  int
}

// NewMock creates a mock provider
func NewMock() *Mock {
	return &Mock{
		calls: make(map[string]*mockCall),
		rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Create registers a new mock call in the queued state
func (m *Mock) Create(_ context.Context, _ CreateParams) (*CreateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	callID := "mock-" + uuid.New().String()
	now := time.Now().UTC()
	m.calls[callID] = &mockCall{
		stage:     0,
		createdAt: now,
		duration:  15 + m.rand.Intn(300),
	}

	return &CreateResult{
		CallID:    callID,
		Status:    mockProgression[0],
		JoinURL:   fmt.Sprintf("https://mock.callprovider.local/join/%s", callID),
		CreatedAt: now,
	}, nil
}

// GetStatus reports the mock call's current status, advancing it toward
// completed as it is polled
func (m *Mock) GetStatus(_ context.Context, callID string) (*StatusResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	call, ok := m.calls[callID]
	if !ok {
		return nil, fmt.Errorf("mock provider: unknown call %q", callID)
	}

	if call.stage < len(mockProgression)-1 {
		if m.AdvanceEveryPoll || m.rand.Intn(2) == 0 {
			call.stage++
		}
	}

	status := mockProgression[call.stage]
	result := &StatusResult{
		Status: status,
		Payload: map[string]any{
			"call_id": callID,
			"status":  status,
		},
	}
	if status == "completed" {
		d := call.duration
		result.DurationSec = &d
		result.RecordingURL = fmt.Sprintf("https://mock.callprovider.local/recordings/%s.mp3", callID)
		result.Payload["duration"] = d
		result.Payload["recording_url"] = result.RecordingURL
	}
	return result, nil
}

// GetTranscript returns a canned transcript once the call has completed, and
// (nil, nil) before that
func (m *Mock) GetTranscript(_ context.Context, callID string) ([]TranscriptSegment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	call, ok := m.calls[callID]
	if !ok {
		return nil, fmt.Errorf("mock provider: unknown call %q", callID)
	}

	if mockProgression[call.stage] != "completed" {
		return nil, nil
	}

	base := call.createdAt
	return []TranscriptSegment{
		{Speaker: "assistant", Text: "Hello, thanks for calling. How can I help you today?", Timestamp: base.Format(time.RFC3339)},
		{Speaker: "caller", Text: "Hi, I'd like to check on my account.", Timestamp: base.Add(4 * time.Second).Format(time.RFC3339)},
		{Speaker: "assistant", Text: "Sure, I can help with that.", Timestamp: base.Add(7 * time.Second).Format(time.RFC3339)},
	}, nil
}
