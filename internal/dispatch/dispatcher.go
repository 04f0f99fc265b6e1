// Package dispatch contains the outbound request dispatcher: a single
// validated execution path that performs exactly one middleware call and
// routes the outcome to one of two caller-supplied handlers.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/openkra/etims-relay/internal/domain"
	"github.com/openkra/etims-relay/internal/notify"
	"github.com/openkra/etims-relay/internal/transport"
	"go.uber.org/zap"
)

// ServiceTag is stamped on every audit record written by the dispatcher.
const ServiceTag = "etims"

const setupErrorMessage = "Please check that all required request parameters are supplied."

// SuccessHandler receives the full middleware response of an accepted exchange.
type SuccessHandler func(resp *domain.Response)

// ErrorHandler receives a completed-but-rejected response together with the
// correlation context the caller needs to compensate: the route, the entity
// reference, and the identifier of the audit record written for the attempt.
type ErrorHandler func(resp *domain.Response, route string, ref domain.EntityRef, auditID string)

// Transport performs the single remote call.
type Transport interface {
	Perform(ctx context.Context, method domain.Method, url string, payload any, headers map[string]string) (*domain.Response, error)
}

// AuditLog records outbound attempts before the network call and their
// classified outcome afterwards.
type AuditLog interface {
	Record(ctx context.Context, req *domain.IntegrationRequest) (string, error)
	Complete(ctx context.Context, id string, status domain.RequestStatus, resultCd string, message string) error
}

// SyncTracker persists the middleware result timestamp of the last accepted
// exchange per route.
type SyncTracker interface {
	UpdateLastSuccess(ctx context.Context, resultDt string, route string) error
}

// Dispatcher holds the configuration of one outbound exchange. An instance is
// built fresh per operation, configured through its setters, dispatched once,
// and discarded; no state carries over between executions except through the
// sync tracker.
type Dispatcher struct {
	method    domain.Method
	url       string
	payload   any
	headers   map[string]string
	onSuccess SuccessHandler
	onError   ErrorHandler
	lastError string
	auditID   string

	transport Transport
	audit     AuditLog
	tracker   SyncTracker
	alerter   notify.Alerter
	logger    *zap.Logger
}

func New(
	tp Transport,
	auditLog AuditLog,
	tracker SyncTracker,
	alerter notify.Alerter,
	logger *zap.Logger,
) (*Dispatcher, error) {
	if tp == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if auditLog == nil {
		return nil, fmt.Errorf("audit log is required")
	}
	if tracker == nil {
		return nil, fmt.Errorf("sync tracker is required")
	}
	if alerter == nil {
		return nil, fmt.Errorf("alerter is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{
		method:    domain.MethodPost,
		transport: tp,
		audit:     auditLog,
		tracker:   tracker,
		alerter:   alerter,
		logger:    logger,
	}, nil
}

// SetMethod accepts only the enumerated verbs; POST is the default.
func (d *Dispatcher) SetMethod(m domain.Method) error {
	if !m.IsValid() {
		return fmt.Errorf("%w: invalid method %q", domain.ErrValidation, m)
	}
	d.method = m
	return nil
}

func (d *Dispatcher) SetURL(target string) { d.url = target }

// SetPayload stores the body verbatim; the dispatcher never inspects it.
func (d *Dispatcher) SetPayload(payload any) { d.payload = payload }

func (d *Dispatcher) SetHeaders(headers map[string]string) { d.headers = headers }

func (d *Dispatcher) OnSuccess(fn SuccessHandler) { d.onSuccess = fn }

func (d *Dispatcher) OnError(fn ErrorHandler) { d.onError = fn }

// LastError returns the message of the last failure observed by this
// dispatcher. Informational only; it never feeds back into control flow.
func (d *Dispatcher) LastError() string { return d.lastError }

// AuditRecordID returns the identifier of the audit record written for the
// last dispatch, or "" when validation failed before the record was created.
func (d *Dispatcher) AuditRecordID() string { return d.auditID }

// Dispatch performs the configured call and routes the outcome. Exactly one of
// the two handlers runs for a completed call; neither runs when validation
// fails or the network layer faults, and in both of those branches a blocking
// error is raised through the alerter and returned.
func (d *Dispatcher) Dispatch(ctx context.Context, ref domain.EntityRef) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := d.validate(); err != nil {
		d.lastError = err.Error()
		d.alerter.RaiseBlockingError(setupErrorMessage, err.Error(), "Setup Error")
		return &notify.BlockingError{
			Title:   "Setup Error",
			Message: setupErrorMessage,
			Detail:  err.Error(),
			Cause:   err,
		}
	}

	route := RoutePath(d.url)

	// The audit record must exist before the network attempt so a faulted
	// call still leaves a trace.
	d.auditID = d.recordAttempt(ctx, route, ref)

	resp, err := d.transport.Perform(ctx, d.method, d.url, d.payload, d.headers)
	if err != nil {
		return d.handleTransportError(ctx, err, route)
	}

	if resp.IsSuccess() {
		d.onSuccess(resp)
		d.completeAudit(ctx, domain.RequestStatusCompleted, resp.ResultCd, "")

		if err := d.tracker.UpdateLastSuccess(ctx, resp.ResultDt, route); err != nil {
			d.logger.Warn("failed to update last sync time",
				zap.String("route", route),
				zap.Error(err),
			)
		}
		return nil
	}

	// Business rejection: the call completed, so the response itself is
	// handed to the caller's error handler and control flow continues.
	d.lastError = resp.ResultMsg
	d.onError(resp, route, ref, d.auditID)
	d.completeAudit(ctx, domain.RequestStatusFailed, resp.ResultCd, resp.ResultMsg)
	return nil
}

func (d *Dispatcher) validate() error {
	missing := make([]string, 0, 4)
	if strings.TrimSpace(d.url) == "" {
		missing = append(missing, "url")
	}
	if len(d.headers) == 0 {
		missing = append(missing, "headers")
	}
	if d.onSuccess == nil {
		missing = append(missing, "success handler")
	}
	if d.onError == nil {
		missing = append(missing, "error handler")
	}

	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: missing %s", domain.ErrConfiguration, strings.Join(missing, ", "))
}

func (d *Dispatcher) recordAttempt(ctx context.Context, route string, ref domain.EntityRef) string {
	entry := &domain.IntegrationRequest{
		Service:   ServiceTag,
		Method:    d.method,
		URL:       d.url,
		RoutePath: route,
		Remote:    true,
		Status:    domain.RequestStatusPending,
		Payload:   marshalForAudit(d.payload),
		Headers:   marshalForAudit(d.headers),
	}
	if ref.Kind != "" {
		entry.ReferenceKind = &ref.Kind
	}
	if ref.ID != "" {
		entry.ReferenceID = &ref.ID
	}

	id, err := d.audit.Record(ctx, entry)
	if err != nil {
		// Auditing is fire-and-forget from the dispatcher's view; the
		// attempt still runs.
		d.logger.Warn("failed to record integration request",
			zap.String("route", route),
			zap.Error(err),
		)
		return ""
	}
	return id
}

func (d *Dispatcher) handleTransportError(ctx context.Context, err error, route string) error {
	d.lastError = err.Error()

	var fault *transport.Fault
	if !errors.As(err, &fault) {
		d.logger.Error("outbound request failed",
			zap.String("route", route),
			zap.Error(err),
			zap.Stack("stacktrace"),
		)
		d.completeAudit(ctx, domain.RequestStatusFailed, "", err.Error())
		return fmt.Errorf("outbound request failed: %w", err)
	}

	d.logger.Error("transport fault",
		zap.String("route", route),
		zap.String("kind", fault.Kind.String()),
		zap.Error(fault),
		zap.Stack("stacktrace"),
	)
	d.completeAudit(ctx, domain.RequestStatusFailed, "", fault.Error())

	blocking := &notify.BlockingError{
		Title:   fault.Kind.Title(),
		Message: fault.Kind.Message(),
		Detail:  fault.Error(),
		Cause:   fault,
	}
	d.alerter.RaiseBlockingError(blocking.Message, blocking.Detail, blocking.Title)
	return blocking
}

func (d *Dispatcher) completeAudit(ctx context.Context, status domain.RequestStatus, resultCd string, message string) {
	if d.auditID == "" {
		return
	}

	if err := d.audit.Complete(ctx, d.auditID, status, resultCd, message); err != nil {
		d.logger.Warn("failed to update integration request outcome",
			zap.String("auditId", d.auditID),
			zap.Error(err),
		)
	}
}

// RoutePath derives the short route identifier used for audit correlation and
// sync tracking: "/" plus the final path segment of the target URL.
func RoutePath(target string) string {
	path := target
	if parsed, err := url.Parse(strings.TrimSpace(target)); err == nil {
		path = parsed.Path
	}

	segments := strings.Split(path, "/")
	return "/" + segments[len(segments)-1]
}

func marshalForAudit(v any) *string {
	if v == nil {
		return nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		fallback := fmt.Sprintf("%v", v)
		return &fallback
	}
	s := string(raw)
	return &s
}
