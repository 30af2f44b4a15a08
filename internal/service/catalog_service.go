package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/opendesk/helpdesk-service/internal/domain"
	"github.com/opendesk/helpdesk-service/internal/repository"
	apperrors "github.com/opendesk/helpdesk-service/pkg/util"
)

// CatalogCache caches the active service listing. A miss or failure always
// falls through to Postgres.
type CatalogCache interface {
	Get(ctx context.Context) ([]domain.Service, bool)
	Set(ctx context.Context, services []domain.Service)
	Invalidate(ctx context.Context)
}

// CatalogService manages the billable service catalog.
type CatalogService struct {
	services repository.ServiceRepository
	cache    CatalogCache
	logger   *zap.Logger
}

// NewCatalogService constructs the service. Cache may be nil.
func NewCatalogService(services repository.ServiceRepository, cache CatalogCache, logger *zap.Logger) *CatalogService {
	return &CatalogService{services: services, cache: cache, logger: logger}
}

// CreateService inserts an active catalog entry.
func (s *CatalogService) CreateService(ctx context.Context, title, price string) (*domain.Service, error) {
	service := &domain.Service{Title: title, Price: price}
	if err := s.services.Create(ctx, service); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.invalidate(ctx)
	return service, nil
}

// UpdateService overwrites title and price; the active flag is untouched.
func (s *CatalogService) UpdateService(ctx context.Context, id, title, price string) (*domain.Service, error) {
	existing, err := s.services.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("service")
		}
		return nil, apperrors.MapError(err)
	}

	existing.Title = title
	existing.Price = price
	if err := s.services.Update(ctx, existing); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.invalidate(ctx)
	return existing, nil
}

// DeactivateService soft-deletes: the row stays so ticket history keeps its
// references.
func (s *CatalogService) DeactivateService(ctx context.Context, id string) error {
	if err := s.services.Deactivate(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("service")
		}
		return apperrors.MapError(err)
	}
	s.invalidate(ctx)
	return nil
}

// GetService fetches one catalog entry regardless of its active flag.
func (s *CatalogService) GetService(ctx context.Context, id string) (*domain.Service, error) {
	service, err := s.services.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("service")
		}
		return nil, apperrors.MapError(err)
	}
	return service, nil
}

// ListServices returns active entries only, cache-first.
func (s *CatalogService) ListServices(ctx context.Context) ([]domain.Service, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx); ok {
			return cached, nil
		}
	}

	services, err := s.services.ListActive(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if s.cache != nil {
		s.cache.Set(ctx, services)
	}
	return services, nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.cache.Invalidate(ctx)
	if s.logger != nil {
		s.logger.Debug("catalog cache invalidated")
	}
}
