package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultBrand is applied to products created without a brand.
const DefaultBrand = "RN BMX Shop"

type Category struct {
	ID          int64
	Name        string
	Description string
}

type Product struct {
	ID            int64
	Name          string
	Description   string
	Price         decimal.Decimal
	StockQuantity int
	ImageURL      string
	Category      string
	Brand         string
	Featured      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Review struct {
	ID         int64
	ProductID  int64
	UserID     int64
	AuthorName string
	Rating     int
	Title      string
	Comment    string
	CreatedAt  time.Time
}
