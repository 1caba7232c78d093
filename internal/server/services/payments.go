package services

import (
	"context"
	"time"

	"github.com/rnbmx/bmxshop/internal/common"
	"github.com/rnbmx/bmxshop/internal/logging"
	"github.com/rnbmx/bmxshop/internal/server/auth"
	"github.com/shopspring/decimal"
)

// PaymentResult is the mock provider's answer.
type PaymentResult struct {
	Success   bool
	PaymentID string
	Amount    decimal.Decimal
	Currency  string
	Status    string
	CreatedAt time.Time
}

// PaymentService is a stand-in for a card processor; every charge succeeds.
type PaymentService struct {
	publishableKey string
	logger         logging.Logger
	now            func() time.Time
}

func NewPaymentService(publishableKey string, logger logging.Logger) *PaymentService {
	return &PaymentService{publishableKey: publishableKey, logger: logger.With("module", "payment_service"), now: time.Now}
}

func (s *PaymentService) Process(ctx context.Context, p *auth.Principal, amount decimal.Decimal) (*PaymentResult, error) {
	if p == nil {
		return nil, common.ErrorUnauthorized
	}
	if !amount.IsPositive() {
		return nil, common.NewValidationError("amount", "must be positive")
	}
	res := &PaymentResult{
		Success:   true,
		PaymentID: NewPaymentID(),
		Amount:    amount,
		Currency:  "EUR",
		Status:    "succeeded",
		CreatedAt: s.now(),
	}
	s.logger.Info(ctx, "payment processed", "user_id", p.UserID, "payment_id", res.PaymentID, "amount", amount.String())
	return res, nil
}

func (s *PaymentService) PublishableKey() string {
	return s.publishableKey
}
