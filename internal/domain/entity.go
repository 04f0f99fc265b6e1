package domain

// EntityRef identifies the host document an outbound exchange was raised for.
// Both fields are optional and feed audit correlation and error-handler context
// only; they never influence request construction.
type EntityRef struct {
	Kind string
	ID   string
}

func (r EntityRef) IsZero() bool {
	return r.Kind == "" && r.ID == ""
}
