package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/openkra/etims-relay/internal/domain"
)

const defaultRequestTimeout = 30 * time.Second

// Client performs single outbound calls against the tax middleware. It never
// retries: a relay either completes or surfaces a fault to the dispatcher.
type Client struct {
	client *resty.Client
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRetryCount(0)

	return &Client{client: client}
}

func NewClientWithResty(client *resty.Client) (*Client, error) {
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultRequestTimeout)
	}
	client.SetRetryCount(0)

	return &Client{client: client}, nil
}

// Perform executes exactly one call and decodes the middleware response
// envelope. Network-layer failures classified by the fault taxonomy are
// returned as *Fault; a completed call is returned regardless of its result
// code, since result-code handling belongs to the dispatcher.
func (c *Client) Perform(
	ctx context.Context,
	method domain.Method,
	url string,
	payload any,
	headers map[string]string,
) (*domain.Response, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("transport is not initialized")
	}
	if !method.IsValid() {
		return nil, fmt.Errorf("%w: invalid method %q", domain.ErrValidation, method)
	}
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("%w: url is required", domain.ErrValidation)
	}

	req := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeaders(headers)
	if payload != nil {
		req.SetBody(payload)
	}

	response, err := req.Execute(method.String(), url)
	if err != nil {
		if fault, ok := classifyFault(err); ok {
			return nil, fault
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if response == nil {
		return nil, fmt.Errorf("empty response from middleware")
	}

	var decoded domain.Response
	if err := json.Unmarshal(response.Body(), &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response (status %d): %w", response.StatusCode(), err)
	}
	if strings.TrimSpace(decoded.ResultCd) == "" {
		return nil, fmt.Errorf("response is missing a result code (status %d)", response.StatusCode())
	}

	return &decoded, nil
}
