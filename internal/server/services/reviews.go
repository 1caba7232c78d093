package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/rnbmx/bmxshop/internal/common"
	"github.com/rnbmx/bmxshop/internal/logging"
	"github.com/rnbmx/bmxshop/internal/server/auth"
	"github.com/rnbmx/bmxshop/internal/server/models"
	"github.com/rnbmx/bmxshop/internal/server/repositories/repomanager"
)

type ReviewInput struct {
	Rating  int
	Title   string
	Comment string
}

type ReviewService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewReviewService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *ReviewService {
	return &ReviewService{db: db, repomanager: m, logger: logger.With("module", "review_service")}
}

func (s *ReviewService) ForProduct(ctx context.Context, productID int64) ([]models.Review, error) {
	list, err := s.repomanager.Reviews(s.db).ListByProduct(ctx, productID)
	if err != nil {
		s.logger.Error(ctx, "review list failed", "product_id", productID, "error", err)
		return nil, common.ErrorInternal
	}
	return list, nil
}

// Create stores a review by p for an existing product.
func (s *ReviewService) Create(ctx context.Context, p *auth.Principal, productID int64, in ReviewInput) (*models.Review, error) {
	if p == nil {
		return nil, common.ErrorUnauthorized
	}

	fields := map[string]string{}
	if in.Rating < 1 || in.Rating > 5 {
		fields["rating"] = "must be between 1 and 5"
	}
	if strings.TrimSpace(in.Title) == "" {
		fields["title"] = "is required"
	}
	if strings.TrimSpace(in.Comment) == "" {
		fields["comment"] = "is required"
	}
	if len(fields) > 0 {
		return nil, &common.ValidationError{Fields: fields}
	}

	if _, err := s.repomanager.Products(s.db).GetByID(ctx, productID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.logger.Error(ctx, "product lookup failed", "product_id", productID, "error", err)
		return nil, common.ErrorInternal
	}

	rv, err := s.repomanager.Reviews(s.db).Create(ctx, &models.Review{
		ProductID: productID,
		UserID:    p.UserID,
		Rating:    in.Rating,
		Title:     strings.TrimSpace(in.Title),
		Comment:   strings.TrimSpace(in.Comment),
	})
	if err != nil {
		s.logger.Error(ctx, "review create failed", "error", err)
		return nil, common.ErrorInternal
	}
	return rv, nil
}

// Delete removes a review; only its author or an admin may do so.
func (s *ReviewService) Delete(ctx context.Context, p *auth.Principal, reviewID int64) error {
	repo := s.repomanager.Reviews(s.db)

	rv, err := repo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		s.logger.Error(ctx, "review lookup failed", "review_id", reviewID, "error", err)
		return common.ErrorInternal
	}
	if err := auth.IsOwnerOrAdmin(p, rv.UserID); err != nil {
		return err
	}
	if err := repo.Delete(ctx, reviewID); err != nil && !errors.Is(err, common.ErrorNotFound) {
		s.logger.Error(ctx, "review delete failed", "review_id", reviewID, "error", err)
		return common.ErrorInternal
	}
	return nil
}
