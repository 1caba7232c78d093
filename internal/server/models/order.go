package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/rnbmx/bmxshop/internal/common"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderCompleted  OrderStatus = "COMPLETED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

var orderStatuses = []OrderStatus{OrderPending, OrderProcessing, OrderShipped, OrderCompleted, OrderCancelled}

// ParseOrderStatus is case-insensitive and rejects unknown values.
func ParseOrderStatus(s string) (OrderStatus, error) {
	n := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	for _, st := range orderStatuses {
		if st == n {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: unknown order status %q", common.ErrValidation, s)
}

type Order struct {
	ID              int64
	UserID          int64
	Items           []OrderItem
	Total           decimal.Decimal
	Status          OrderStatus
	ShippingAddress string
	Phone           string
	PaymentMethod   string
	PaymentID       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type OrderItem struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
}

// Subtotal is unit price times quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ComputeTotal sums item subtotals into Total.
func (o *Order) ComputeTotal() {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Subtotal())
	}
	o.Total = total
}
