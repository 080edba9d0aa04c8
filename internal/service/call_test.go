package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"callhub-service/internal/apperr"
	"callhub-service/internal/model"
	"callhub-service/internal/store"
	"callhub-service/pkg/provider"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubProvider scripts provider responses and counts invocations
type stubProvider struct {
	createResult *provider.CreateResult
	createErr    error

	statusResult *provider.StatusResult
	statusErr    error
	statusCalls  int

	transcript      []provider.TranscriptSegment
	transcriptErr   error
	transcriptCalls int
}

func (s *stubProvider) Create(context.Context, provider.CreateParams) (*provider.CreateResult, error) {
	return s.createResult, s.createErr
}

func (s *stubProvider) GetStatus(context.Context, string) (*provider.StatusResult, error) {
	s.statusCalls++
	return s.statusResult, s.statusErr
}

func (s *stubProvider) GetTranscript(context.Context, string) ([]provider.TranscriptSegment, error) {
	s.transcriptCalls++
	return s.transcript, s.transcriptErr
}

func newCallFixture(t *testing.T, p provider.CallProvider) (*CallService, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	audit := NewAuditRecorder(mem.Audit(), zap.NewNop())
	return NewCallService(mem.Calls(), p, audit, zap.NewNop()), mem
}

func seedCall(t *testing.T, mem *store.Memory, tenantID uint, status string) *model.Call {
	t.Helper()
	call := &model.Call{
		TenantID:       tenantID,
		UserID:         1,
		ProviderCallID: "prov-1",
		Status:         status,
		Events:         model.CallEvents{},
	}
	require.NoError(t, mem.Calls().Create(context.Background(), call))
	return call
}

func TestCreate(t *testing.T) {
	stub := &stubProvider{
		createResult: &provider.CreateResult{
			CallID:    "prov-1",
			Status:    "queued",
			JoinURL:   "https://provider.example/join/prov-1",
			CreatedAt: time.Now().UTC(),
		},
	}
	svc, mem := newCallFixture(t, stub)

	call, err := svc.Create(context.Background(), 7, 3, provider.CreateParams{Model: "gpt-4o"}, RequestMeta{})
	require.NoError(t, err)
	require.Equal(t, uint(7), call.TenantID)
	require.Equal(t, uint(3), call.UserID)
	require.Equal(t, model.CallStatusQueued, call.Status)
	require.Equal(t, "prov-1", call.ProviderCallID)
	require.Equal(t, "https://provider.example/join/prov-1", call.Metadata["join_url"])

	entries := mem.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, model.ActionCallCreated, entries[0].Action)
}

func TestCreate_ProviderFailureIsFatal(t *testing.T) {
	stub := &stubProvider{createErr: errors.New("connection refused")}
	svc, mem := newCallFixture(t, stub)

	_, err := svc.Create(context.Background(), 7, 3, provider.CreateParams{}, RequestMeta{})
	require.True(t, apperr.Is(err, apperr.UpstreamUnavailable))

	// No local record and no audit entry for a call that never existed.
	calls, err := mem.Calls().ListForTenant(context.Background(), 7, 0)
	require.NoError(t, err)
	require.Empty(t, calls)
	require.Empty(t, mem.Entries())
}

func TestCreate_TimeoutClassified(t *testing.T) {
	stub := &stubProvider{createErr: context.DeadlineExceeded}
	svc, _ := newCallFixture(t, stub)

	_, err := svc.Create(context.Background(), 7, 3, provider.CreateParams{}, RequestMeta{})
	require.True(t, apperr.Is(err, apperr.Timeout))
}

func TestGetStatus_Reconciles(t *testing.T) {
	duration := 42
	stub := &stubProvider{
		statusResult: &provider.StatusResult{
			Status:       model.CallStatusCompleted,
			DurationSec:  &duration,
			RecordingURL: "https://provider.example/rec/prov-1.mp3",
			Payload:      map[string]any{"status": "completed", "duration": 42},
		},
	}
	svc, mem := newCallFixture(t, stub)
	call := seedCall(t, mem, 7, model.CallStatusQueued)

	view, err := svc.GetStatus(context.Background(), 7, call.ID, RequestMeta{})
	require.NoError(t, err)
	require.Equal(t, model.CallStatusCompleted, view.Status)
	require.NotNil(t, view.DurationSec)
	require.Equal(t, 42, *view.DurationSec)
	require.Equal(t, "https://provider.example/rec/prov-1.mp3", view.RecordingURL)

	// One event of type status.completed carrying the provider payload.
	require.Len(t, view.Events, 1)
	require.Equal(t, "status.completed", view.Events[0].Type)
	require.Equal(t, "completed", view.Events[0].Data["status"])

	// The reconciled state was persisted.
	stored, err := mem.Calls().FindForTenant(context.Background(), 7, call.ID)
	require.NoError(t, err)
	require.Equal(t, model.CallStatusCompleted, stored.Status)
	require.Len(t, stored.Events, 1)

	// Completion was audited with the duration.
	entries := mem.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, model.ActionCallCompleted, entries[0].Action)
	require.EqualValues(t, float64(42), entries[0].Details["duration"])
}

func TestGetStatus_IdempotentWhenUnchanged(t *testing.T) {
	stub := &stubProvider{
		statusResult: &provider.StatusResult{
			Status:  model.CallStatusRinging,
			Payload: map[string]any{"status": "ringing"},
		},
	}
	svc, mem := newCallFixture(t, stub)
	call := seedCall(t, mem, 7, model.CallStatusQueued)

	view, err := svc.GetStatus(context.Background(), 7, call.ID, RequestMeta{})
	require.NoError(t, err)
	require.Len(t, view.Events, 1)

	// Second poll with the same provider status appends nothing.
	view, err = svc.GetStatus(context.Background(), 7, call.ID, RequestMeta{})
	require.NoError(t, err)
	require.Len(t, view.Events, 1)
	require.Equal(t, 2, stub.statusCalls)
}

func TestGetStatus_StaleOnProviderFailure(t *testing.T) {
	stub := &stubProvider{statusErr: errors.New("provider down")}
	svc, mem := newCallFixture(t, stub)
	call := seedCall(t, mem, 7, model.CallStatusInProgress)

	// Staleness is preferred over unavailability: the stored status comes
	// back without an error and without a write.
	view, err := svc.GetStatus(context.Background(), 7, call.ID, RequestMeta{})
	require.NoError(t, err)
	require.Equal(t, model.CallStatusInProgress, view.Status)
	require.Empty(t, view.Events)
}

func TestGetStatus_TenantScoped(t *testing.T) {
	stub := &stubProvider{}
	svc, mem := newCallFixture(t, stub)
	call := seedCall(t, mem, 7, model.CallStatusQueued)

	// Another tenant's lookup is indistinguishable from a missing call.
	_, err := svc.GetStatus(context.Background(), 8, call.ID, RequestMeta{})
	require.True(t, apperr.Is(err, apperr.NotFound))
	require.Zero(t, stub.statusCalls)
}

func TestGetTranscript_CachesAfterFirstFetch(t *testing.T) {
	stub := &stubProvider{
		transcript: []provider.TranscriptSegment{
			{Speaker: "assistant", Text: "hello", Timestamp: "2026-01-01T00:00:00Z"},
		},
	}
	svc, mem := newCallFixture(t, stub)
	call := seedCall(t, mem, 7, model.CallStatusCompleted)

	first, err := svc.GetTranscript(context.Background(), 7, call.ID)
	require.NoError(t, err)
	require.True(t, first.Available)
	require.Len(t, first.Transcript, 1)
	require.Equal(t, 1, stub.transcriptCalls)

	// The second read is served from the cache; the provider is not contacted
	// again and the content is identical.
	second, err := svc.GetTranscript(context.Background(), 7, call.ID)
	require.NoError(t, err)
	require.True(t, second.Available)
	require.Equal(t, first.Transcript, second.Transcript)
	require.Equal(t, 1, stub.transcriptCalls)
}

func TestGetTranscript_NotReadyYet(t *testing.T) {
	stub := &stubProvider{transcript: nil}
	svc, mem := newCallFixture(t, stub)
	call := seedCall(t, mem, 7, model.CallStatusCompleted)

	// No transcript yet is a degraded success, not an error, and fills no cache.
	view, err := svc.GetTranscript(context.Background(), 7, call.ID)
	require.NoError(t, err)
	require.False(t, view.Available)
	require.Nil(t, view.Transcript)

	view, err = svc.GetTranscript(context.Background(), 7, call.ID)
	require.NoError(t, err)
	require.False(t, view.Available)
	require.Equal(t, 2, stub.transcriptCalls)
}

func TestGetTranscript_ProviderFailureDegrades(t *testing.T) {
	stub := &stubProvider{transcriptErr: errors.New("provider down")}
	svc, mem := newCallFixture(t, stub)
	call := seedCall(t, mem, 7, model.CallStatusCompleted)

	view, err := svc.GetTranscript(context.Background(), 7, call.ID)
	require.NoError(t, err)
	require.False(t, view.Available)
}
