package domain

import (
	"fmt"
	"strings"
	"time"
)

// RequestStatus represents the lifecycle state of an integration request record.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "PENDING"
	RequestStatusCompleted RequestStatus = "COMPLETED"
	RequestStatusFailed    RequestStatus = "FAILED"
)

func (s RequestStatus) String() string { return string(s) }

func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestStatusPending, RequestStatusCompleted, RequestStatusFailed:
		return true
	}
	return false
}

func ParseRequestStatusFromString(s string) (RequestStatus, error) {
	st := RequestStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid request status %q", ErrValidation, s)
	}
	return st, nil
}

// IntegrationRequest is the audit record written for every outbound attempt.
// It is created before the network call so that even a faulted call leaves a
// trace, and completed with the classified outcome afterwards.
type IntegrationRequest struct {
	ID            string
	Service       string
	Method        Method
	URL           string
	RoutePath     string
	Payload       *string
	Headers       *string
	Remote        bool
	ReferenceKind *string
	ReferenceID   *string
	Status        RequestStatus
	ResultCd      *string
	Error         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (r *IntegrationRequest) Validate() error {
	if strings.TrimSpace(r.Service) == "" {
		return fmt.Errorf("%w: service is required", ErrValidation)
	}
	if strings.TrimSpace(r.URL) == "" {
		return fmt.Errorf("%w: url is required", ErrValidation)
	}
	if !r.Method.IsValid() {
		return fmt.Errorf("%w: invalid method %q", ErrValidation, r.Method)
	}
	if !r.Status.IsValid() {
		return fmt.Errorf("%w: invalid status %q", ErrValidation, r.Status)
	}
	return nil
}
