package service

import (
	"context"

	"github.com/aussiebroadwan/estate/internal/estate/domain"
	"github.com/aussiebroadwan/estate/internal/estate/store"
)

// CatalogService reads the seeded categories and price bands.
type CatalogService struct {
	Store store.Store
}

func (s *CatalogService) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.Store.Categories().ListCategories(ctx)
}

func (s *CatalogService) PriceBands(ctx context.Context) ([]domain.PriceBand, error) {
	return s.Store.PriceBands().ListPriceBands(ctx)
}

// Options returns both lists, as needed by the listing form.
func (s *CatalogService) Options(ctx context.Context) ([]domain.Category, []domain.PriceBand, error) {
	cats, err := s.Categories(ctx)
	if err != nil {
		return nil, nil, err
	}
	bands, err := s.PriceBands(ctx)
	if err != nil {
		return nil, nil, err
	}
	return cats, bands, nil
}
