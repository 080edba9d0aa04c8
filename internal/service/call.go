package service

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"time"

	"callhub-service/internal/apperr"
	"callhub-service/internal/model"
	"callhub-service/internal/store"
	"callhub-service/pkg/provider"
	"callhub-service/prometheus"

	"go.uber.org/zap"
)

// CallStatusView is the call state returned to callers
type CallStatusView struct {
	CallID       uint             `json:"call_id"`
	Status       string           `json:"status"`
	DurationSec  *int             `json:"duration,omitempty"`
	RecordingURL string           `json:"recording_url,omitempty"`
	Events       model.CallEvents `json:"events"`
}

// TranscriptView is the transcript state returned to callers. Transcript is
// nil with Available false while the provider has not produced one yet.
type TranscriptView struct {
	CallID     uint                      `json:"call_id"`
	Transcript []model.TranscriptSegment `json:"transcript"`
	Available  bool                      `json:"available"`
}

// CallService owns the call lifecycle: creation against the external
// provider, idempotent status reconciliation, and transcript caching. It is
// the only component that talks to the provider.
type CallService struct {
	calls    store.CallStore
	provider provider.CallProvider
	audit    *AuditRecorder
	log      *zap.Logger
}

// NewCallService creates a call service
func NewCallService(calls store.CallStore, p provider.CallProvider, audit *AuditRecorder, log *zap.Logger) *CallService {
	return &CallService{calls: calls, provider: p, audit: audit, log: log}
}

// Create starts a new call with the provider and persists the local record.
// Provider failure is fatal here: there is no meaningful partial result.
// Each invocation creates a new provider call; retry-safety is the caller's
// responsibility.
func (s *CallService) Create(ctx context.Context, tenantID, userID uint, params provider.CreateParams, meta RequestMeta) (*model.Call, error) {
	prometheus.RecordCallOperation("create")

	start := time.Now()
	result, err := s.provider.Create(ctx, params)
	prometheus.TrackProviderRequest("create")(start)
	if err != nil {
		prometheus.ProviderErrorCounter.WithLabelValues("create").Inc()
		return nil, classifyProviderError(err, "failed to create provider call")
	}

	status := result.Status
	if status == "" {
		status = model.CallStatusQueued
	}

	call := &model.Call{
		TenantID:       tenantID,
		UserID:         userID,
		ProviderCallID: result.CallID,
		Status:         status,
		Metadata: model.Attrs{
			"join_url":            result.JoinURL,
			"provider_created_at": result.CreatedAt.UTC().Format(time.RFC3339),
		},
		Events: model.CallEvents{},
	}
	if err := s.calls.Create(ctx, call); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		TenantID: &tenantID,
		UserID:   &userID,
		Action:   model.ActionCallCreated,
		Details: model.Attrs{
			"call_id":          call.ID,
			"provider_call_id": call.ProviderCallID,
			"status":           call.Status,
		},
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	})

	s.log.Info("call created",
		zap.Uint("tenant_id", tenantID),
		zap.Uint("call_id", call.ID),
		zap.String("provider_call_id", call.ProviderCallID))

	return call, nil
}

// GetStatus loads the call scoped to the tenant and reconciles stored state
// against the provider's current report. When the provider is unreachable the
// stale stored status is returned rather than an error; staleness is
// preferred over unavailability.
func (s *CallService) GetStatus(ctx context.Context, tenantID, callID uint, meta RequestMeta) (*CallStatusView, error) {
	prometheus.RecordCallOperation("status")

	call, err := s.calls.FindForTenant(ctx, tenantID, callID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, perr := s.provider.GetStatus(ctx, call.ProviderCallID)
	prometheus.TrackProviderRequest("status")(start)
	if perr != nil {
		prometheus.ProviderErrorCounter.WithLabelValues("status").Inc()
		s.log.Warn("provider status unavailable, returning stored status",
			zap.Uint("call_id", call.ID),
			zap.Error(perr))
		return statusView(call), nil
	}

	if result.Status != "" && result.Status != call.Status {
		if err := s.reconcile(ctx, call, result, meta); err != nil {
			return nil, err
		}
	}

	return statusView(call), nil
}

// reconcile records the provider-reported status on the call. Transitions are
// not validated: the provider is the source of truth and the stored state
// simply follows it.
func (s *CallService) reconcile(ctx context.Context, call *model.Call, result *provider.StatusResult, meta RequestMeta) error {
	call.Events = append(call.Events, model.CallEvent{
		Type:      "status." + result.Status,
		Timestamp: time.Now().UTC(),
		Data:      model.Attrs(result.Payload).Normalize(),
	})
	call.Status = result.Status
	if result.DurationSec != nil {
		call.DurationSec = result.DurationSec
	}
	if result.RecordingURL != "" {
		call.RecordingURL = result.RecordingURL
	}

	if err := s.calls.Update(ctx, call); err != nil {
		return err
	}

	if call.Status == model.CallStatusCompleted {
		details := model.Attrs{
			"call_id":          call.ID,
			"provider_call_id": call.ProviderCallID,
		}
		if call.DurationSec != nil {
			details["duration"] = *call.DurationSec
		}
		s.audit.Record(ctx, AuditEntry{
			TenantID:  &call.TenantID,
			UserID:    &call.UserID,
			Action:    model.ActionCallCompleted,
			Details:   details,
			IP:        meta.IP,
			UserAgent: meta.UserAgent,
		})
	}

	return nil
}

// GetTranscript returns the call's transcript, serving the cached copy when
// one exists. The cache fill is permanent and one-way: a provider call's
// transcript does not change once emitted.
func (s *CallService) GetTranscript(ctx context.Context, tenantID, callID uint) (*TranscriptView, error) {
	prometheus.RecordCallOperation("transcript")

	call, err := s.calls.FindForTenant(ctx, tenantID, callID)
	if err != nil {
		return nil, err
	}

	cached, err := call.CachedTranscript()
	if err != nil {
		// Corrupt cache: log and fall through to a fresh provider fetch.
		s.log.Warn("discarding corrupt transcript cache", zap.Uint("call_id", call.ID), zap.Error(err))
	}
	if cached != nil {
		return &TranscriptView{CallID: call.ID, Transcript: cached, Available: true}, nil
	}

	start := time.Now()
	segments, perr := s.provider.GetTranscript(ctx, call.ProviderCallID)
	prometheus.TrackProviderRequest("transcript")(start)
	if perr != nil {
		prometheus.ProviderErrorCounter.WithLabelValues("transcript").Inc()
		s.log.Warn("provider transcript unavailable",
			zap.Uint("call_id", call.ID),
			zap.Error(perr))
		return &TranscriptView{CallID: call.ID}, nil
	}

	// Transcripts lag behind call completion; none yet is not an error.
	if segments == nil {
		return &TranscriptView{CallID: call.ID}, nil
	}

	transcript := make([]model.TranscriptSegment, len(segments))
	for i, seg := range segments {
		transcript[i] = model.TranscriptSegment(seg)
	}

	serialized, err := json.Marshal(transcript)
	if err == nil {
		call.Transcript = string(serialized)
		if err := s.calls.Update(ctx, call); err != nil {
			// Cache fill is best-effort; the transcript itself is already in hand.
			s.log.Warn("failed to cache transcript", zap.Uint("call_id", call.ID), zap.Error(err))
		}
	}

	return &TranscriptView{CallID: call.ID, Transcript: transcript, Available: true}, nil
}

// List returns a tenant's calls, newest first
func (s *CallService) List(ctx context.Context, tenantID uint, limit int) ([]model.Call, error) {
	return s.calls.ListForTenant(ctx, tenantID, limit)
}

func statusView(call *model.Call) *CallStatusView {
	return &CallStatusView{
		CallID:       call.ID,
		Status:       call.Status,
		DurationSec:  call.DurationSec,
		RecordingURL: call.RecordingURL,
		Events:       call.Events,
	}
}

// classifyProviderError maps transport failures onto the error taxonomy
func classifyProviderError(err error, message string) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apperr.Wrap(apperr.Timeout, message, err)
	}
	return apperr.Wrap(apperr.UpstreamUnavailable, message, err)
}
