package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openkra/etims-relay/internal/domain"
	"gorm.io/gorm"
)

const defaultListLimit = 50

// Repository persists the audit trail of outbound attempts.
type Repository interface {
	Record(ctx context.Context, req *domain.IntegrationRequest) (string, error)
	Complete(ctx context.Context, id string, status domain.RequestStatus, resultCd string, message string) error
	GetByID(ctx context.Context, id string) (*domain.IntegrationRequest, error)
	ListByRoute(ctx context.Context, route string, limit int) ([]domain.IntegrationRequest, error)
}

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) (*GormRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db is required")
	}
	return &GormRepository{db: db}, nil
}

func (r *GormRepository) Record(ctx context.Context, req *domain.IntegrationRequest) (string, error) {
	if req == nil {
		return "", fmt.Errorf("%w: integration request is required", domain.ErrValidation)
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = domain.RequestStatusPending
	}
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now

	if err := req.Validate(); err != nil {
		return "", err
	}

	model := modelFromDomain(req)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return "", fmt.Errorf("failed to record integration request: %w", err)
	}

	*req = *modelToDomain(model)
	return model.ID, nil
}

func (r *GormRepository) Complete(ctx context.Context, id string, status domain.RequestStatus, resultCd string, message string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: integration request id is required", domain.ErrValidation)
	}
	if !status.IsValid() {
		return fmt.Errorf("%w: invalid request status %q", domain.ErrValidation, status)
	}

	updates := map[string]any{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if strings.TrimSpace(resultCd) != "" {
		updates["result_cd"] = resultCd
	}
	if strings.TrimSpace(message) != "" {
		updates["error"] = message
	}

	result := r.db.WithContext(ctx).
		Model(&IntegrationRequestModel{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update integration request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: integration request %s", domain.ErrNotFound, id)
	}

	return nil
}

func (r *GormRepository) GetByID(ctx context.Context, id string) (*domain.IntegrationRequest, error) {
	var model IntegrationRequestModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: integration request %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load integration request: %w", err)
	}

	return modelToDomain(&model), nil
}

func (r *GormRepository) ListByRoute(ctx context.Context, route string, limit int) ([]domain.IntegrationRequest, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	var models []IntegrationRequestModel
	err := r.db.WithContext(ctx).
		Where("route_path = ?", route).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list integration requests: %w", err)
	}

	requests := make([]domain.IntegrationRequest, 0, len(models))
	for i := range models {
		requests = append(requests, *modelToDomain(&models[i]))
	}

	return requests, nil
}
