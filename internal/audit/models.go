package audit

import (
	"time"

	"github.com/openkra/etims-relay/internal/domain"
)

// IntegrationRequestModel is the persistence model for integration_requests.
type IntegrationRequestModel struct {
	ID            string               `gorm:"type:uuid;primaryKey"`
	Service       string               `gorm:"type:varchar(32);not null"`
	Method        domain.Method        `gorm:"type:varchar(10);not null"`
	URL           string               `gorm:"type:text;not null"`
	RoutePath     string               `gorm:"type:varchar(255);not null"`
	Payload       *string              `gorm:"type:text"`
	Headers       *string              `gorm:"type:text"`
	Remote        bool                 `gorm:"not null;default:true"`
	ReferenceKind *string              `gorm:"type:varchar(255)"`
	ReferenceID   *string              `gorm:"type:varchar(255)"`
	Status        domain.RequestStatus `gorm:"type:varchar(20);not null"`
	ResultCd      *string              `gorm:"type:varchar(10)"`
	Error         *string              `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (IntegrationRequestModel) TableName() string {
	return "integration_requests"
}

func modelFromDomain(r *domain.IntegrationRequest) *IntegrationRequestModel {
	if r == nil {
		return nil
	}

	return &IntegrationRequestModel{
		ID:            r.ID,
		Service:       r.Service,
		Method:        r.Method,
		URL:           r.URL,
		RoutePath:     r.RoutePath,
		Payload:       r.Payload,
		Headers:       r.Headers,
		Remote:        r.Remote,
		ReferenceKind: r.ReferenceKind,
		ReferenceID:   r.ReferenceID,
		Status:        r.Status,
		ResultCd:      r.ResultCd,
		Error:         r.Error,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func modelToDomain(m *IntegrationRequestModel) *domain.IntegrationRequest {
	if m == nil {
		return nil
	}

	return &domain.IntegrationRequest{
		ID:            m.ID,
		Service:       m.Service,
		Method:        m.Method,
		URL:           m.URL,
		RoutePath:     m.RoutePath,
		Payload:       m.Payload,
		Headers:       m.Headers,
		Remote:        m.Remote,
		ReferenceKind: m.ReferenceKind,
		ReferenceID:   m.ReferenceID,
		Status:        m.Status,
		ResultCd:      m.ResultCd,
		Error:         m.Error,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
