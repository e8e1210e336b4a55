package gallery

import (
	"context"
	"log/slog"

	"github.com/mmcdole/imgport/internal/domain"
)

// DefaultPerPage is how many images one catalog page holds
const DefaultPerPage = 20

// Service orchestrates catalog gateway + store operations.
type Service struct {
	gateway domain.CatalogGateway
	store   domain.Store
	perPage int
	logger  *slog.Logger
}

// NewService creates a new catalog service.
func NewService(gateway domain.CatalogGateway, store domain.Store, perPage int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	return &Service{gateway: gateway, store: store, perPage: perPage, logger: logger}
}

// PerPage returns the page size requested from the gateway
func (s *Service) PerPage() int {
	return s.perPage
}

func (s *Service) FetchPage(ctx context.Context, page int) (domain.CatalogPage, error) {
	result, err := s.gateway.ListImages(ctx, page, s.perPage)
	if err != nil {
		s.logger.Error("failed to fetch catalog page", "error", err, "page", page)
		return domain.CatalogPage{}, err
	}
	if err := s.store.SaveCatalogPage(result); err != nil {
		s.logger.Error("failed to save catalog page", "error", err, "page", page)
	}
	s.logger.Debug("fetched catalog page", "page", result.PageNumber, "totalPages", result.TotalPages, "count", len(result.Items))
	return result, nil
}

func (s *Service) FetchStats(ctx context.Context) (domain.CatalogStats, error) {
	stats, err := s.gateway.Stats(ctx)
	if err != nil {
		s.logger.Error("failed to fetch stats", "error", err)
		return domain.CatalogStats{}, err
	}
	if err := s.store.SaveStats(stats); err != nil {
		s.logger.Error("failed to save stats", "error", err)
	}
	return stats, nil
}

func (s *Service) FetchImage(ctx context.Context, id string) (*domain.ImageRecord, error) {
	img, err := s.gateway.GetImage(ctx, id)
	if err != nil {
		s.logger.Error("failed to fetch image", "error", err, "imageID", id)
		return nil, err
	}
	return img, nil
}

// DeleteImage deletes one image and drops the cached catalog it was part of
func (s *Service) DeleteImage(ctx context.Context, id string) error {
	if err := s.gateway.DeleteImage(ctx, id); err != nil {
		s.logger.Error("failed to delete image", "error", err, "imageID", id)
		return err
	}
	s.store.InvalidateCatalog()
	s.logger.Info("deleted image", "imageID", id)
	return nil
}

// FetchAll walks every catalog page, reporting (loaded, total) after each one.
func (s *Service) FetchAll(ctx context.Context, onProgress domain.ProgressFunc) ([]domain.ImageRecord, error) {
	return fetchAll(ctx, func(ctx context.Context, page int) ([]domain.ImageRecord, int, int, error) {
		result, err := s.FetchPage(ctx, page)
		if err != nil {
			return nil, 0, 0, err
		}
		return result.Items, result.TotalItems, result.TotalPages, nil
	}, onProgress)
}

// CachedPage returns a page from the local cache only
func (s *Service) CachedPage(page int) (domain.CatalogPage, bool) {
	return s.store.GetCatalogPage(page)
}

// CachedStats returns stats from the local cache only
func (s *Service) CachedStats() (domain.CatalogStats, bool) {
	return s.store.GetStats()
}

func (s *Service) InvalidateCatalog() {
	s.store.InvalidateCatalog()
	s.logger.Info("invalidated catalog cache")
}

// ImportHistory returns recorded imports, newest first
func (s *Service) ImportHistory() ([]domain.ImportSummary, error) {
	return s.store.ImportHistory()
}

// fetchAll is a generic page-walking helper.
func fetchAll[T any](
	ctx context.Context,
	fetch func(ctx context.Context, page int) (items []T, totalItems, totalPages int, err error),
	onProgress domain.ProgressFunc,
) ([]T, error) {
	var all []T

	for page := 1; ; page++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		items, total, totalPages, err := fetch(ctx, page)
		if err != nil {
			return nil, err
		}

		all = append(all, items...)

		if onProgress != nil {
			onProgress(len(all), max(total, len(all)))
		}

		if page >= totalPages || len(items) == 0 {
			break
		}
	}

	return all, nil
}
