package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/openkra/etims-relay/internal/domain"
	"github.com/openkra/etims-relay/internal/observability"
	"github.com/openkra/etims-relay/internal/service"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type RelayService interface {
	Relay(ctx context.Context, endpointName string, payload json.RawMessage, ref domain.EntityRef) (*service.RelayResult, error)
	LastSync(ctx context.Context, route string) (string, error)
	GetRequest(ctx context.Context, id string) (*domain.IntegrationRequest, error)
	ListRequests(ctx context.Context, route string, limit int) ([]domain.IntegrationRequest, error)
}

type RelayHandler struct {
	service RelayService
}

func NewRelayHandler(service RelayService) (*RelayHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("relay service is required")
	}
	return &RelayHandler{service: service}, nil
}

func RegisterRelayRoutes(router fiber.Router, service RelayService) error {
	h, err := NewRelayHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/relay/:endpoint", h.Relay)
	v1.Get("/endpoints", h.ListEndpoints)
	v1.Get("/sync/*", h.LastSync)
	v1.Get("/requests/:id", h.GetRequest)
	v1.Get("/requests", h.ListRequests)

	return nil
}

type relayRequest struct {
	Payload   json.RawMessage `json:"payload"`
	Reference *relayReference `json:"reference,omitempty"`
}

type relayReference struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

type relayResponse struct {
	Endpoint  string          `json:"endpoint"`
	Route     string          `json:"route"`
	Outcome   string          `json:"outcome"`
	AuditID   string          `json:"auditId,omitempty"`
	ResultCd  string          `json:"resultCd,omitempty"`
	ResultMsg string          `json:"resultMsg,omitempty"`
	ResultDt  string          `json:"resultDt,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

type lastSyncResponse struct {
	Route    string `json:"route"`
	ResultDt string `json:"resultDt"`
}

type requestRecordResponse struct {
	ID            string          `json:"id"`
	Service       string          `json:"service"`
	Method        string          `json:"method"`
	URL           string          `json:"url"`
	RoutePath     string          `json:"routePath"`
	Status        string          `json:"status"`
	ResultCd      *string         `json:"resultCd,omitempty"`
	Error         *string         `json:"error,omitempty"`
	ReferenceKind *string         `json:"referenceKind,omitempty"`
	ReferenceID   *string         `json:"referenceId,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	CreatedAt     string          `json:"createdAt"`
	UpdatedAt     string          `json:"updatedAt"`
}

type listRequestsResponse struct {
	Data []requestRecordResponse `json:"data"`
}

func (h *RelayHandler) Relay(c *fiber.Ctx) error {
	var req relayRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}

	var ref domain.EntityRef
	if req.Reference != nil {
		ref = domain.EntityRef{
			Kind: strings.TrimSpace(req.Reference.Kind),
			ID:   strings.TrimSpace(req.Reference.ID),
		}
	}

	ctx := observability.WithCorrelationID(c.Context(), requestCorrelationID(c))
	result, err := h.service.Relay(ctx, c.Params("endpoint"), req.Payload, ref)
	if err != nil {
		return err
	}

	status := fiber.StatusOK
	if result.Outcome == service.OutcomeRejected {
		status = fiber.StatusUnprocessableEntity
	}

	return c.Status(status).JSON(toRelayResponse(result))
}

func (h *RelayHandler) ListEndpoints(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"endpoints": service.EndpointNames(),
	})
}

func (h *RelayHandler) LastSync(c *fiber.Ctx) error {
	route := "/" + strings.TrimSpace(c.Params("*"))
	resultDt, err := h.service.LastSync(c.Context(), route)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(lastSyncResponse{
		Route:    route,
		ResultDt: resultDt,
	})
}

func (h *RelayHandler) GetRequest(c *fiber.Ctx) error {
	record, err := h.service.GetRequest(c.Context(), strings.TrimSpace(c.Params("id")))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(toRequestRecordResponse(record))
}

func (h *RelayHandler) ListRequests(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultListLimit)
	if limit < 1 || limit > maxListLimit {
		return fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrValidation, maxListLimit)
	}

	records, err := h.service.ListRequests(c.Context(), c.Query("route"), limit)
	if err != nil {
		return err
	}

	data := make([]requestRecordResponse, 0, len(records))
	for _, record := range records {
		r := record
		data = append(data, toRequestRecordResponse(&r))
	}

	return c.Status(fiber.StatusOK).JSON(listRequestsResponse{Data: data})
}

func requestCorrelationID(c *fiber.Ctx) string {
	if value := strings.TrimSpace(c.Get(fiber.HeaderXRequestID)); value != "" {
		return value
	}
	return uuid.NewString()
}

func toRelayResponse(result *service.RelayResult) relayResponse {
	if result == nil {
		return relayResponse{}
	}

	resp := relayResponse{
		Endpoint: result.Endpoint,
		Route:    result.Route,
		Outcome:  string(result.Outcome),
		AuditID:  result.AuditID,
	}
	if result.Response != nil {
		resp.ResultCd = result.Response.ResultCd
		resp.ResultMsg = result.Response.ResultMsg
		resp.ResultDt = result.Response.ResultDt
		resp.Data = result.Response.Data
	}
	return resp
}

func toRequestRecordResponse(record *domain.IntegrationRequest) requestRecordResponse {
	if record == nil {
		return requestRecordResponse{}
	}

	resp := requestRecordResponse{
		ID:            record.ID,
		Service:       record.Service,
		Method:        record.Method.String(),
		URL:           record.URL,
		RoutePath:     record.RoutePath,
		Status:        record.Status.String(),
		ResultCd:      record.ResultCd,
		Error:         record.Error,
		ReferenceKind: record.ReferenceKind,
		ReferenceID:   record.ReferenceID,
		CreatedAt:     record.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     record.UpdatedAt.Format(time.RFC3339),
	}
	if record.Payload != nil {
		resp.Payload = json.RawMessage(*record.Payload)
	}
	return resp
}
