package handler

import (
	"bytes"
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/openkra/etims-relay/internal/domain"
	"github.com/openkra/etims-relay/internal/notify"
	"github.com/openkra/etims-relay/internal/observability"
	"github.com/openkra/etims-relay/internal/service"
	"github.com/openkra/etims-relay/internal/transport"
)

func TestRelayIntegration_Accepted(t *testing.T) {
	t.Parallel()

	svc := &stubRelayService{
		relayFn: func(ctx context.Context, endpointName string, payload json.RawMessage, ref domain.EntityRef) (*service.RelayResult, error) {
			if endpointName != "ItemSaveReq" {
				t.Fatalf("endpoint = %s, want ItemSaveReq", endpointName)
			}
			if ref.Kind != "Item" || ref.ID != "ITEM-0001" {
				t.Fatalf("ref = %+v", ref)
			}
			if _, ok := observability.CorrelationIDFromContext(ctx); !ok {
				t.Fatal("correlation id should be attached to the request context")
			}
			return &service.RelayResult{
				Outcome:  service.OutcomeAccepted,
				Endpoint: endpointName,
				Route:    "/saveItem",
				AuditID:  "ir-1",
				Response: &domain.Response{ResultCd: "000", ResultMsg: "Successful", ResultDt: "20260831093015"},
			}, nil
		},
	}

	app := newRelayTestApp(t, svc)

	body := `{"payload":{"itemNm":"Sugar"},"reference":{"kind":"Item","id":"ITEM-0001"}}`
	resp, respBody := performRequest(t, app, http.MethodPost, "/v1/relay/ItemSaveReq", body)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(respBody))
	}

	var parsed map[string]any
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if parsed["outcome"] != "ACCEPTED" {
		t.Fatalf("outcome = %v, want ACCEPTED", parsed["outcome"])
	}
	if parsed["auditId"] != "ir-1" {
		t.Fatalf("auditId = %v, want ir-1", parsed["auditId"])
	}
	if parsed["resultDt"] != "20260831093015" {
		t.Fatalf("resultDt = %v", parsed["resultDt"])
	}
}

func TestRelayIntegration_RejectedByMiddleware(t *testing.T) {
	t.Parallel()

	svc := &stubRelayService{
		relayFn: func(ctx context.Context, endpointName string, payload json.RawMessage, ref domain.EntityRef) (*service.RelayResult, error) {
			return &service.RelayResult{
				Outcome:  service.OutcomeRejected,
				Endpoint: endpointName,
				Route:    "/saveItem",
				AuditID:  "ir-2",
				Response: &domain.Response{ResultCd: "910", ResultMsg: "Invalid request parameter", ResultDt: "20260831093015"},
			}, nil
		},
	}

	app := newRelayTestApp(t, svc)

	resp, respBody := performRequest(t, app, http.MethodPost, "/v1/relay/ItemSaveReq", `{"payload":{}}`)
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422, body=%s", resp.StatusCode, string(respBody))
	}

	var parsed map[string]any
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if parsed["outcome"] != "REJECTED" {
		t.Fatalf("outcome = %v, want REJECTED", parsed["outcome"])
	}
	if parsed["resultCd"] != "910" {
		t.Fatalf("resultCd = %v, want 910", parsed["resultCd"])
	}
}

func TestRelayIntegration_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "unknown endpoint maps to 400",
			err:        fmt.Errorf("%w: unknown endpoint", domain.ErrValidation),
			wantStatus: fiber.StatusBadRequest,
		},
		{
			name:       "rate limited maps to 429",
			err:        fmt.Errorf("%w: route /saveItem", domain.ErrRateLimited),
			wantStatus: fiber.StatusTooManyRequests,
		},
		{
			name: "transport fault maps to 502",
			err: &notify.BlockingError{
				Title:   "Timeout Error",
				Message: "Timeout Encountered",
				Detail:  "route /saveItem",
				Cause:   &transport.Fault{Kind: transport.FaultTimeout, Cause: context.DeadlineExceeded},
			},
			wantStatus: fiber.StatusBadGateway,
		},
		{
			name: "setup error maps to 500",
			err: &notify.BlockingError{
				Title:   "Setup Error",
				Message: "Please check that all required request parameters are supplied.",
				Cause:   fmt.Errorf("%w: url is required", domain.ErrConfiguration),
			},
			wantStatus: fiber.StatusInternalServerError,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := &stubRelayService{
				relayFn: func(ctx context.Context, endpointName string, payload json.RawMessage, ref domain.EntityRef) (*service.RelayResult, error) {
					return nil, tc.err
				},
			}
			app := newRelayTestApp(t, svc)

			resp, body := performRequest(t, app, http.MethodPost, "/v1/relay/ItemSaveReq", `{"payload":{}}`)
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("status = %d, want %d, body=%s", resp.StatusCode, tc.wantStatus, string(body))
			}
		})
	}
}

func TestRelayIntegration_BlockingErrorBody(t *testing.T) {
	t.Parallel()

	svc := &stubRelayService{
		relayFn: func(ctx context.Context, endpointName string, payload json.RawMessage, ref domain.EntityRef) (*service.RelayResult, error) {
			return nil, &notify.BlockingError{
				Title:   "Connection Error",
				Message: "Connection failed",
				Detail:  "route /saveItem",
				Cause:   &transport.Fault{Kind: transport.FaultConnectionRefused, Cause: errors.New("dial tcp: connection refused")},
			}
		},
	}
	app := newRelayTestApp(t, svc)

	resp, body := performRequest(t, app, http.MethodPost, "/v1/relay/ItemSaveReq", `{"payload":{}}`)
	if resp.StatusCode != fiber.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}

	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if parsed["title"] != "Connection Error" {
		t.Fatalf("title = %v, want Connection Error", parsed["title"])
	}
	if parsed["message"] != "Connection failed" {
		t.Fatalf("message = %v, want Connection failed", parsed["message"])
	}
}

func TestRelayIntegration_LastSync(t *testing.T) {
	t.Parallel()

	svc := &stubRelayService{
		lastSyncFn: func(ctx context.Context, route string) (string, error) {
			if route != "/selectCodeList" {
				t.Fatalf("route = %s, want /selectCodeList", route)
			}
			return "20260831093015", nil
		},
	}
	app := newRelayTestApp(t, svc)

	resp, body := performRequest(t, app, http.MethodGet, "/v1/sync/selectCodeList", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(body))
	}

	var parsed lastSyncResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if parsed.ResultDt != "20260831093015" {
		t.Fatalf("resultDt = %s", parsed.ResultDt)
	}
}

func TestRelayIntegration_LastSyncUnknownRoute(t *testing.T) {
	t.Parallel()

	svc := &stubRelayService{
		lastSyncFn: func(ctx context.Context, route string) (string, error) {
			return "", fmt.Errorf("%w: no sync recorded for %s", domain.ErrNotFound, route)
		},
	}
	app := newRelayTestApp(t, svc)

	resp, _ := performRequest(t, app, http.MethodGet, "/v1/sync/selectCodeList", "")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestRelayIntegration_GetRequest(t *testing.T) {
	t.Parallel()

	svc := &stubRelayService{
		getRequestFn: func(ctx context.Context, id string) (*domain.IntegrationRequest, error) {
			if id != "ir-7" {
				t.Fatalf("id = %s, want ir-7", id)
			}
			return nil, fmt.Errorf("%w: integration request %s", domain.ErrNotFound, id)
		},
	}
	app := newRelayTestApp(t, svc)

	resp, _ := performRequest(t, app, http.MethodGet, "/v1/requests/ir-7", "")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestRelayIntegration_ListRequestsLimitValidation(t *testing.T) {
	t.Parallel()

	svc := &stubRelayService{}
	app := newRelayTestApp(t, svc)

	resp, _ := performRequest(t, app, http.MethodGet, "/v1/requests?route=saveItem&limit=0", "")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestRelayIntegration_ListEndpoints(t *testing.T) {
	t.Parallel()

	app := newRelayTestApp(t, &stubRelayService{})

	resp, body := performRequest(t, app, http.MethodGet, "/v1/endpoints", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var parsed struct {
		Endpoints []string `json:"endpoints"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if len(parsed.Endpoints) == 0 {
		t.Fatal("expected a non-empty endpoint registry")
	}
}

func TestHealthIntegration_LivezAndReadyz(t *testing.T) {
	t.Parallel()

	t.Run("livez returns 200", func(t *testing.T) {
		t.Parallel()

		app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
		RegisterHealthRoutes(app, sql.OpenDB(stubConnector{}), newStubRedisClient(nil))

		resp, body := performRequest(t, app, http.MethodGet, "/livez", "")
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(body))
		}
	})

	t.Run("readyz returns 200 when backends are up", func(t *testing.T) {
		t.Parallel()

		sqlDB := sql.OpenDB(stubConnector{})
		t.Cleanup(func() { _ = sqlDB.Close() })

		rdb := newStubRedisClient(nil)
		t.Cleanup(func() { _ = rdb.Close() })

		app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
		RegisterHealthRoutes(app, sqlDB, rdb)

		resp, body := performRequest(t, app, http.MethodGet, "/readyz", "")
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(body))
		}
	})

	t.Run("readyz returns 503 when backends are down", func(t *testing.T) {
		t.Parallel()

		sqlDB := sql.OpenDB(stubConnector{pingErr: errors.New("postgres down")})
		t.Cleanup(func() { _ = sqlDB.Close() })

		rdb := newStubRedisClient(errors.New("redis down"))
		t.Cleanup(func() { _ = rdb.Close() })

		app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
		RegisterHealthRoutes(app, sqlDB, rdb)

		resp, body := performRequest(t, app, http.MethodGet, "/readyz", "")
		if resp.StatusCode != fiber.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503, body=%s", resp.StatusCode, string(body))
		}
	})
}

type stubRelayService struct {
	relayFn        func(ctx context.Context, endpointName string, payload json.RawMessage, ref domain.EntityRef) (*service.RelayResult, error)
	lastSyncFn     func(ctx context.Context, route string) (string, error)
	getRequestFn   func(ctx context.Context, id string) (*domain.IntegrationRequest, error)
	listRequestsFn func(ctx context.Context, route string, limit int) ([]domain.IntegrationRequest, error)
}

func (s *stubRelayService) Relay(ctx context.Context, endpointName string, payload json.RawMessage, ref domain.EntityRef) (*service.RelayResult, error) {
	if s.relayFn != nil {
		return s.relayFn(ctx, endpointName, payload, ref)
	}
	return &service.RelayResult{}, nil
}

func (s *stubRelayService) LastSync(ctx context.Context, route string) (string, error) {
	if s.lastSyncFn != nil {
		return s.lastSyncFn(ctx, route)
	}
	return "", nil
}

func (s *stubRelayService) GetRequest(ctx context.Context, id string) (*domain.IntegrationRequest, error) {
	if s.getRequestFn != nil {
		return s.getRequestFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (s *stubRelayService) ListRequests(ctx context.Context, route string, limit int) ([]domain.IntegrationRequest, error) {
	if s.listRequestsFn != nil {
		return s.listRequestsFn(ctx, route, limit)
	}
	return nil, nil
}

func newRelayTestApp(t *testing.T, svc RelayService) *fiber.App {
	t.Helper()

	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(zap.NewNop()),
	})

	if err := RegisterRelayRoutes(app, svc); err != nil {
		t.Fatalf("RegisterRelayRoutes() error = %v", err)
	}

	return app
}

func performRequest(t *testing.T, app *fiber.App, method string, path string, body string) (*http.Response, []byte) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	_ = resp.Body.Close()

	return resp, respBody
}

type stubConnector struct {
	pingErr error
}

func (c stubConnector) Connect(context.Context) (driver.Conn, error) {
	return stubConn(c), nil
}

func (c stubConnector) Driver() driver.Driver {
	return stubDriver(c)
}

type stubDriver struct {
	pingErr error
}

func (d stubDriver) Open(string) (driver.Conn, error) {
	return stubConn(d), nil
}

type stubConn struct {
	pingErr error
}

func (c stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not implemented") }
func (c stubConn) Close() error                        { return nil }
func (c stubConn) Begin() (driver.Tx, error)           { return nil, errors.New("not implemented") }
func (c stubConn) Ping(context.Context) error          { return c.pingErr }

type stubRedisHook struct {
	pingErr error
}

func (h stubRedisHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h stubRedisHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if strings.EqualFold(cmd.Name(), "ping") {
			if h.pingErr != nil {
				cmd.SetErr(h.pingErr)
				return h.pingErr
			}
			cmd.SetErr(nil)
			return nil
		}
		cmd.SetErr(nil)
		return nil
	}
}

func (h stubRedisHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		for _, cmd := range cmds {
			cmd.SetErr(nil)
		}
		return nil
	}
}

func newStubRedisClient(pingErr error) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	client.AddHook(stubRedisHook{pingErr: pingErr})
	return client
}
