package service

import (
	"context"
	"strings"

	"restaurant-admin/internal/common/logger"
	"restaurant-admin/internal/common/validate"
	"restaurant-admin/internal/domain"
	"restaurant-admin/internal/microservices/catalog/repository"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

type CatalogServiceInterface interface {
	List(ctx context.Context, onlyAvailable bool, limit, offset int) ([]domain.Product, error)
	Get(ctx context.Context, id int64) (domain.Product, error)
	Create(ctx context.Context, in domain.ProductInput) (domain.Product, error)
	Update(ctx context.Context, id int64, in domain.ProductInput) (domain.Product, error)
	Delete(ctx context.Context, id int64) error
}

type CatalogService struct {
	repo repository.ProductRepositoryInterface
	log  *logger.Logger
}

func NewCatalogService(repo repository.ProductRepositoryInterface, lg *logger.Logger) *CatalogService {
	return &CatalogService{repo: repo, log: lg}
}

type productRules struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"required"`
	ImageURL    string `json:"image_url" validate:"omitempty,max=255"`
}

// toProduct validates input and applies defaults: a product is available
// unless told otherwise.
func toProduct(id int64, in domain.ProductInput) (domain.Product, error) {
	p := domain.Product{
		ID:          id,
		Name:        strings.TrimSpace(in.Name),
		Price:       in.Price.Round(2),
		Description: strings.TrimSpace(in.Description),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		IsAvailable: true,
	}
	if in.IsAvailable != nil {
		p.IsAvailable = *in.IsAvailable
	}
	if err := validate.Struct(productRules{Name: p.Name, Description: p.Description, ImageURL: p.ImageURL}); err != nil {
		return domain.Product{}, err
	}
	if p.Price.IsNegative() {
		return domain.Product{}, domain.NewValidationError("price", "price cannot be negative")
	}
	return p, nil
}

func (s *CatalogService) List(ctx context.Context, onlyAvailable bool, limit, offset int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, onlyAvailable, limit, offset)
}

func (s *CatalogService) Get(ctx context.Context, id int64) (domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *CatalogService) Create(ctx context.Context, in domain.ProductInput) (domain.Product, error) {
	p, err := toProduct(0, in)
	if err != nil {
		return domain.Product{}, err
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return domain.Product{}, err
	}
	s.log.Info("product_created", map[string]any{"product_id": created.ID, "name": created.Name})
	return created, nil
}

func (s *CatalogService) Update(ctx context.Context, id int64, in domain.ProductInput) (domain.Product, error) {
	p, err := toProduct(id, in)
	if err != nil {
		return domain.Product{}, err
	}
	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		return domain.Product{}, err
	}
	s.log.Info("product_updated", map[string]any{"product_id": id})
	return updated, nil
}

func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("product_deleted", map[string]any{"product_id": id})
	return nil
}
