package domain

import (
	"fmt"
	"strings"
)

// Method is the HTTP verb used for an outbound exchange.
type Method string

const (
	MethodPost  Method = "POST"
	MethodGet   Method = "GET"
	MethodPut   Method = "PUT"
	MethodPatch Method = "PATCH"
)

func (m Method) String() string { return string(m) }

func (m Method) IsValid() bool {
	switch m {
	case MethodPost, MethodGet, MethodPut, MethodPatch:
		return true
	}
	return false
}

func ParseMethodFromString(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", fmt.Errorf("%w: invalid method %q", ErrValidation, s)
	}
	return m, nil
}
