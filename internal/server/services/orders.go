package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rnbmx/bmxshop/internal/common"
	"github.com/rnbmx/bmxshop/internal/dbx"
	"github.com/rnbmx/bmxshop/internal/logging"
	"github.com/rnbmx/bmxshop/internal/server/auth"
	"github.com/rnbmx/bmxshop/internal/server/models"
	"github.com/rnbmx/bmxshop/internal/server/repositories/repomanager"
)

type OrderLine struct {
	ProductID int64
	Quantity  int
}

type OrderInput struct {
	Items           []OrderLine
	ShippingAddress string
	Phone           string
	PaymentMethod   string
}

type OrderService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewOrderService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *OrderService {
	return &OrderService{db: db, repomanager: m, logger: logger.With("module", "order_service")}
}

// NewPaymentID returns a mock provider payment reference.
func NewPaymentID() string {
	return "pm_" + uuid.NewString()
}

// Create places an order for p. Names and unit prices are copied from the
// catalog at the time of the call.
func (s *OrderService) Create(ctx context.Context, p *auth.Principal, in OrderInput) (*models.Order, error) {
	if p == nil {
		return nil, common.ErrorUnauthorized
	}
	if err := validateOrder(in); err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:          p.UserID,
		Status:          models.OrderProcessing,
		ShippingAddress: strings.TrimSpace(in.ShippingAddress),
		Phone:           strings.TrimSpace(in.Phone),
		PaymentMethod:   in.PaymentMethod,
		PaymentID:       NewPaymentID(),
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		products := s.repomanager.Products(tx)
		for i, line := range in.Items {
			prod, err := products.GetByID(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, common.ErrorNotFound) {
					return common.NewValidationError(fmt.Sprintf("items[%d].productId", i), "unknown product")
				}
				return err
			}
			order.Items = append(order.Items, models.OrderItem{
				ProductID:   prod.ID,
				ProductName: prod.Name,
				UnitPrice:   prod.Price,
				Quantity:    line.Quantity,
			})
		}
		order.ComputeTotal()

		_, err := s.repomanager.Orders(tx).Create(ctx, order)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			return nil, err
		}
		s.logger.Error(ctx, "order create failed", "user_id", p.UserID, "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "order placed", "order_id", order.ID, "user_id", p.UserID, "total", order.Total.String())
	return order, nil
}

func validateOrder(in OrderInput) error {
	fields := map[string]string{}
	if len(in.Items) == 0 {
		fields["items"] = "must not be empty"
	}
	for i, line := range in.Items {
		if line.Quantity < 1 {
			fields[fmt.Sprintf("items[%d].quantity", i)] = "must be at least 1"
		}
	}
	if strings.TrimSpace(in.ShippingAddress) == "" {
		fields["shippingAddress"] = "is required"
	}
	if len(fields) > 0 {
		return &common.ValidationError{Fields: fields}
	}
	return nil
}

func (s *OrderService) Mine(ctx context.Context, p *auth.Principal) ([]models.Order, error) {
	if p == nil {
		return nil, common.ErrorUnauthorized
	}
	list, err := s.repomanager.Orders(s.db).ListByUser(ctx, p.UserID)
	if err != nil {
		s.logger.Error(ctx, "order list failed", "user_id", p.UserID, "error", err)
		return nil, common.ErrorInternal
	}
	return list, nil
}

// Get returns an order to its owner or to an admin.
func (s *OrderService) Get(ctx context.Context, p *auth.Principal, id int64) (*models.Order, error) {
	o, err := s.repomanager.Orders(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.logger.Error(ctx, "order lookup failed", "order_id", id, "error", err)
		return nil, common.ErrorInternal
	}
	if err := auth.IsOwnerOrAdmin(p, o.UserID); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *OrderService) All(ctx context.Context) ([]models.Order, error) {
	list, err := s.repomanager.Orders(s.db).ListAll(ctx)
	if err != nil {
		s.logger.Error(ctx, "order list failed", "error", err)
		return nil, common.ErrorInternal
	}
	return list, nil
}

func (s *OrderService) UpdateStatus(ctx context.Context, id int64, status string) (*models.Order, error) {
	st, err := models.ParseOrderStatus(status)
	if err != nil {
		return nil, common.NewValidationError("status", "must be one of PENDING, PROCESSING, SHIPPED, COMPLETED, CANCELLED")
	}

	repo := s.repomanager.Orders(s.db)
	if err := repo.UpdateStatus(ctx, id, st); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.logger.Error(ctx, "order status update failed", "order_id", id, "error", err)
		return nil, common.ErrorInternal
	}
	s.logger.Info(ctx, "order status changed", "order_id", id, "status", st)

	o, err := repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error(ctx, "order reload failed", "order_id", id, "error", err)
		return nil, common.ErrorInternal
	}
	return o, nil
}
