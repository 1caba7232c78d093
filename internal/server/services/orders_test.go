package services

import (
	"context"
	"strings"
	"testing"

	"github.com/rnbmx/bmxshop/internal/common"
	"github.com/rnbmx/bmxshop/internal/logging"
	"github.com/rnbmx/bmxshop/internal/server/models"
	"github.com/rnbmx/bmxshop/internal/server/repositories/repotest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrders_CreateSnapshotsCatalog(t *testing.T) {
	db, mock := newSQLMockDB(t)
	m := repotest.NewManager()
	as := newAuthService(t, db, m)
	svc := NewOrderService(db, m, logging.Nop{})
	u := signUp(t, as, mock, sample)

	frame := m.AddProduct(models.Product{Name: "Frame", Price: decimal.NewFromInt(250), Category: "Componenti"})
	tire := m.AddProduct(models.Product{Name: "Tire", Price: decimal.RequireFromString("19.5"), Category: "Componenti"})

	mock.ExpectBegin()
	mock.ExpectCommit()
	o, err := svc.Create(context.Background(), principalOf(u), OrderInput{
		Items:           []OrderLine{{ProductID: frame.ID, Quantity: 1}, {ProductID: tire.ID, Quantity: 2}},
		ShippingAddress: "Via Roma 1",
		Phone:           "123",
		PaymentMethod:   "card",
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderProcessing, o.Status)
	assert.Equal(t, "289", o.Total.String())
	assert.True(t, strings.HasPrefix(o.PaymentID, "pm_"))
	require.Len(t, o.Items, 2)
	assert.Equal(t, "Tire", o.Items[1].ProductName)
	assert.True(t, decimal.RequireFromString("19.5").Equal(o.Items[1].UnitPrice))

	mine, err := svc.Mine(context.Background(), principalOf(u))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrders_CreateTotalIsExact(t *testing.T) {
	db, mock := newSQLMockDB(t)
	m := repotest.NewManager()
	as := newAuthService(t, db, m)
	svc := NewOrderService(db, m, logging.Nop{})
	u := signUp(t, as, mock, sample)

	valve := m.AddProduct(models.Product{Name: "Valve cap", Price: decimal.RequireFromString("0.1"), Category: "Accessori"})
	sticker := m.AddProduct(models.Product{Name: "Sticker", Price: decimal.RequireFromString("0.2"), Category: "Accessori"})

	mock.ExpectBegin()
	mock.ExpectCommit()
	o, err := svc.Create(context.Background(), principalOf(u), OrderInput{
		Items:           []OrderLine{{ProductID: valve.ID, Quantity: 1}, {ProductID: sticker.ID, Quantity: 1}},
		ShippingAddress: "Via Roma 1",
	})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.3").Equal(o.Total), "total %s", o.Total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrders_CreateRejections(t *testing.T) {
	db, mock := newSQLMockDB(t)
	m := repotest.NewManager()
	as := newAuthService(t, db, m)
	svc := NewOrderService(db, m, logging.Nop{})
	u := signUp(t, as, mock, sample)

	_, err := svc.Create(context.Background(), principalOf(u), OrderInput{})
	var ve *common.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "items")
	assert.Contains(t, ve.Fields, "shippingAddress")

	_, err = svc.Create(context.Background(), principalOf(u), OrderInput{
		Items: []OrderLine{{ProductID: 1, Quantity: 0}}, ShippingAddress: "x",
	})
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "items[0].quantity")

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = svc.Create(context.Background(), principalOf(u), OrderInput{
		Items: []OrderLine{{ProductID: 404, Quantity: 1}}, ShippingAddress: "x",
	})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "unknown product", ve.Fields["items[0].productId"])

	_, err = svc.Create(context.Background(), nil, OrderInput{})
	require.ErrorIs(t, err, common.ErrorUnauthorized)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrders_AccessAndStatus(t *testing.T) {
	db, mock := newSQLMockDB(t)
	m := repotest.NewManager()
	as := newAuthService(t, db, m)
	svc := NewOrderService(db, m, logging.Nop{})
	owner := signUp(t, as, mock, sample)
	other := signUp(t, as, mock, SignUpInput{Email: "o@x.com", Password: "secret123", FirstName: "O", LastName: "P"})
	admin := signUp(t, as, mock, SignUpInput{Email: "adm@x.com", Password: "secret123", FirstName: "Ad", LastName: "Min", Roles: []string{"ADMIN"}})
	p := m.AddProduct(models.Product{Name: "Seat", Price: decimal.NewFromInt(30), Category: "Componenti"})

	mock.ExpectBegin()
	mock.ExpectCommit()
	o, err := svc.Create(context.Background(), principalOf(owner), OrderInput{
		Items: []OrderLine{{ProductID: p.ID, Quantity: 1}}, ShippingAddress: "x",
	})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), principalOf(owner), o.ID)
	require.NoError(t, err)
	_, err = svc.Get(context.Background(), principalOf(admin), o.ID)
	require.NoError(t, err)
	_, err = svc.Get(context.Background(), principalOf(other), o.ID)
	require.ErrorIs(t, err, common.ErrAccessDenied)
	_, err = svc.Get(context.Background(), principalOf(owner), 999)
	require.ErrorIs(t, err, common.ErrorNotFound)

	got, err := svc.UpdateStatus(context.Background(), o.ID, "shipped")
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, got.Status)

	_, err = svc.UpdateStatus(context.Background(), o.ID, "LOST")
	require.ErrorIs(t, err, common.ErrValidation)
	_, err = svc.UpdateStatus(context.Background(), 999, "PENDING")
	require.ErrorIs(t, err, common.ErrorNotFound)

	all, err := svc.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
