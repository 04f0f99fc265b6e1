package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openkra/etims-relay/internal/audit"
	"github.com/openkra/etims-relay/internal/config"
	"github.com/openkra/etims-relay/internal/dispatch"
	"github.com/openkra/etims-relay/internal/domain"
	"github.com/openkra/etims-relay/internal/notify"
	"github.com/openkra/etims-relay/internal/observability"
	"github.com/openkra/etims-relay/internal/ratelimit"
	"github.com/openkra/etims-relay/internal/transport"
	"go.uber.org/zap"
)

// SyncTracker is the per-route last-sync store as the relay service needs it:
// written by the dispatcher on success, read back for the query API.
type SyncTracker interface {
	UpdateLastSuccess(ctx context.Context, resultDt string, route string) error
	LastSuccess(ctx context.Context, route string) (string, error)
}

// RelayOutcome is the classification of a completed relay.
type RelayOutcome string

const (
	OutcomeAccepted RelayOutcome = "ACCEPTED"
	OutcomeRejected RelayOutcome = "REJECTED"
)

// RelayResult is what a completed relay hands back to the HTTP surface.
// Rejected relays carry the middleware response so the caller can act on the
// result code; transport faults never produce a result.
type RelayResult struct {
	Outcome  RelayOutcome
	Endpoint string
	Route    string
	AuditID  string
	Response *domain.Response
}

// RelayService owns the per-endpoint call sites: it assembles middleware
// headers from configuration, builds a fresh dispatcher per relay, and
// supplies the success and error handlers.
type RelayService struct {
	transport dispatch.Transport
	audit     audit.Repository
	tracker   SyncTracker
	limiter   ratelimit.RateLimiter
	alerter   notify.Alerter
	metrics   *observability.Metrics
	logger    *zap.Logger

	serverURL string
	tin       string
	bhfID     string
	cmcKey    string
}

func NewRelayService(
	tp dispatch.Transport,
	auditRepo audit.Repository,
	tracker SyncTracker,
	limiter ratelimit.RateLimiter,
	alerter notify.Alerter,
	metrics *observability.Metrics,
	cfg *config.Config,
	logger *zap.Logger,
) (*RelayService, error) {
	if tp == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if auditRepo == nil {
		return nil, fmt.Errorf("audit repository is required")
	}
	if tracker == nil {
		return nil, fmt.Errorf("sync tracker is required")
	}
	if alerter == nil {
		return nil, fmt.Errorf("alerter is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RelayService{
		transport: tp,
		audit:     auditRepo,
		tracker:   tracker,
		limiter:   limiter,
		alerter:   alerter,
		metrics:   metrics,
		logger:    logger,
		serverURL: strings.TrimRight(cfg.ServerURL, "/"),
		tin:       cfg.TIN,
		bhfID:     cfg.BranchID,
		cmcKey:    cfg.CMCKey,
	}, nil
}

// Relay performs one outbound exchange against the named middleware operation.
// It blocks until the call and outcome handling complete; there is no retry
// and no queuing -- a relay either runs now or is rejected by the rate limit.
func (s *RelayService) Relay(
	ctx context.Context,
	endpointName string,
	payload json.RawMessage,
	ref domain.EntityRef,
) (*RelayResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	ep, ok := LookupEndpoint(strings.TrimSpace(endpointName))
	if !ok {
		return nil, fmt.Errorf("%w: unknown endpoint %q", domain.ErrValidation, endpointName)
	}

	route := dispatch.RoutePath(ep.Path)

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, route)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate rate limit: %w", err)
		}
		if !allowed {
			s.metrics.IncRelay(route, "rate_limited")
			return nil, fmt.Errorf("%w: route %s", domain.ErrRateLimited, route)
		}
	}

	d, err := dispatch.New(s.transport, s.audit, s.tracker, s.alerter, s.logger)
	if err != nil {
		return nil, err
	}
	if err := d.SetMethod(ep.Method); err != nil {
		return nil, err
	}
	d.SetURL(s.serverURL + ep.Path)
	if len(payload) > 0 {
		d.SetPayload(payload)
	}
	d.SetHeaders(s.headers())

	result := &RelayResult{Endpoint: ep.Name, Route: route}
	d.OnSuccess(func(resp *domain.Response) {
		result.Outcome = OutcomeAccepted
		result.Response = resp
		s.metrics.IncRelay(route, "success")
		s.logger.Info("relay accepted",
			zap.String("endpoint", ep.Name),
			zap.String("route", route),
			zap.String("resultDt", resp.ResultDt),
		)
	})
	d.OnError(func(resp *domain.Response, route string, ref domain.EntityRef, auditID string) {
		result.Outcome = OutcomeRejected
		result.Response = resp
		s.metrics.IncRelay(route, "business_error")
		s.logger.Warn("relay rejected by middleware",
			zap.String("endpoint", ep.Name),
			zap.String("route", route),
			zap.String("resultCd", resp.ResultCd),
			zap.String("resultMsg", resp.ResultMsg),
			zap.String("referenceKind", ref.Kind),
			zap.String("referenceId", ref.ID),
			zap.String("auditId", auditID),
		)
	})

	start := time.Now()
	err = d.Dispatch(ctx, ref)
	s.metrics.ObserveRelayDuration(route, time.Since(start))
	if err != nil {
		var fault *transport.Fault
		if errors.As(err, &fault) {
			s.metrics.IncTransportFault(fault.Kind.String())
			s.metrics.IncRelay(route, "transport_fault")
		}
		return nil, err
	}

	result.AuditID = d.AuditRecordID()
	return result, nil
}

// LastSync returns the stored resultDt of the last accepted exchange on a route.
func (s *RelayService) LastSync(ctx context.Context, route string) (string, error) {
	normalized := strings.TrimSpace(route)
	if normalized == "" {
		return "", fmt.Errorf("%w: route is required", domain.ErrValidation)
	}
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}

	return s.tracker.LastSuccess(ctx, normalized)
}

// GetRequest loads one audit record by identifier.
func (s *RelayService) GetRequest(ctx context.Context, id string) (*domain.IntegrationRequest, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: request id is required", domain.ErrValidation)
	}
	return s.audit.GetByID(ctx, id)
}

// ListRequests returns the most recent audit records for a route.
func (s *RelayService) ListRequests(ctx context.Context, route string, limit int) ([]domain.IntegrationRequest, error) {
	normalized := strings.TrimSpace(route)
	if normalized == "" {
		return nil, fmt.Errorf("%w: route is required", domain.ErrValidation)
	}
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}

	return s.audit.ListByRoute(ctx, normalized, limit)
}

func (s *RelayService) headers() map[string]string {
	return map[string]string{
		"tin":    s.tin,
		"bhfId":  s.bhfID,
		"cmcKey": s.cmcKey,
	}
}
