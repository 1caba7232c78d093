package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/rnbmx/bmxshop/internal/common"
	"github.com/rnbmx/bmxshop/internal/logging"
	"github.com/rnbmx/bmxshop/internal/server/models"
	"github.com/rnbmx/bmxshop/internal/server/repositories/repomanager"
	"github.com/shopspring/decimal"
)

// ProductInput is the writable part of a product.
type ProductInput struct {
	Name          string
	Description   string
	Price         decimal.Decimal
	StockQuantity int
	ImageURL      string
	Category      string
	Brand         string
	Featured      bool
}

type CatalogService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewCatalogService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *CatalogService {
	return &CatalogService{db: db, repomanager: m, logger: logger.With("module", "catalog_service")}
}

func (s *CatalogService) Products(ctx context.Context) ([]models.Product, error) {
	list, err := s.repomanager.Products(s.db).List(ctx)
	return list, s.wrap(ctx, "product list failed", err)
}

func (s *CatalogService) Featured(ctx context.Context) ([]models.Product, error) {
	list, err := s.repomanager.Products(s.db).ListFeatured(ctx)
	return list, s.wrap(ctx, "featured list failed", err)
}

func (s *CatalogService) Product(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.repomanager.Products(s.db).GetByID(ctx, id)
	return p, s.wrap(ctx, "product lookup failed", err)
}

// ByCategory fails with ErrorNotFound for a category that does not exist.
func (s *CatalogService) ByCategory(ctx context.Context, category string) ([]models.Product, error) {
	if err := s.requireCategory(ctx, category); err != nil {
		return nil, err
	}
	list, err := s.repomanager.Products(s.db).ListByCategory(ctx, category)
	return list, s.wrap(ctx, "category list failed", err)
}

func (s *CatalogService) Search(ctx context.Context, q string) ([]models.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return s.Products(ctx)
	}
	list, err := s.repomanager.Products(s.db).Search(ctx, q)
	return list, s.wrap(ctx, "product search failed", err)
}

func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	list, err := s.repomanager.Categories(s.db).List(ctx)
	return list, s.wrap(ctx, "category list failed", err)
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	p, err := s.fromInput(ctx, in)
	if err != nil {
		return nil, err
	}
	p, err = s.repomanager.Products(s.db).Create(ctx, p)
	if err != nil {
		return nil, s.wrap(ctx, "product create failed", err)
	}
	s.logger.Info(ctx, "product created", "product_id", p.ID)
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, in ProductInput) (*models.Product, error) {
	p, err := s.fromInput(ctx, in)
	if err != nil {
		return nil, err
	}
	p.ID = id
	p, err = s.repomanager.Products(s.db).Update(ctx, p)
	return p, s.wrap(ctx, "product update failed", err)
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	return s.wrap(ctx, "product delete failed", s.repomanager.Products(s.db).Delete(ctx, id))
}

func (s *CatalogService) fromInput(ctx context.Context, in ProductInput) (*models.Product, error) {
	fields := map[string]string{}
	if strings.TrimSpace(in.Name) == "" {
		fields["name"] = "is required"
	}
	if in.Price.IsNegative() {
		fields["price"] = "must not be negative"
	}
	if in.StockQuantity < 0 {
		fields["stockQuantity"] = "must not be negative"
	}
	if strings.TrimSpace(in.Category) == "" {
		fields["category"] = "is required"
	}
	if len(fields) > 0 {
		return nil, &common.ValidationError{Fields: fields}
	}
	if err := s.requireCategory(ctx, in.Category); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewValidationError("category", "unknown category")
		}
		return nil, err
	}

	brand := strings.TrimSpace(in.Brand)
	if brand == "" {
		brand = models.DefaultBrand
	}
	return &models.Product{
		Name:          strings.TrimSpace(in.Name),
		Description:   in.Description,
		Price:         in.Price.Round(2),
		StockQuantity: in.StockQuantity,
		ImageURL:      in.ImageURL,
		Category:      in.Category,
		Brand:         brand,
		Featured:      in.Featured,
	}, nil
}

func (s *CatalogService) requireCategory(ctx context.Context, name string) error {
	ok, err := s.repomanager.Categories(s.db).Exists(ctx, name)
	if err != nil {
		return s.wrap(ctx, "category lookup failed", err)
	}
	if !ok {
		return common.ErrorNotFound
	}
	return nil
}

func (s *CatalogService) wrap(ctx context.Context, msg string, err error) error {
	if err == nil || errors.Is(err, common.ErrorNotFound) {
		return err
	}
	s.logger.Error(ctx, msg, "error", err)
	return common.ErrorInternal
}
