package services

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rnbmx/bmxshop/internal/common"
	"github.com/rnbmx/bmxshop/internal/logging"
	"github.com/rnbmx/bmxshop/internal/server/models"
	"github.com/rnbmx/bmxshop/internal/server/repositories/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	s := NewHealthService(db, repotest.NewManager(), logging.Nop{})

	mock.ExpectPing()
	require.NoError(t, s.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("down"))
	require.Error(t, s.Ping(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHealth_Counts(t *testing.T) {
	db, _ := newSQLMockDB(t)
	m := repotest.NewManager()
	m.AddProduct(models.Product{Name: "Chain", Category: "Componenti"})
	s := NewHealthService(db, m, logging.Nop{})

	c, err := s.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Counts{Users: 0, Products: 1, Categories: 4, Orders: 0}, *c)

	m.Err = errors.New("down")
	_, err = s.Counts(context.Background())
	require.ErrorIs(t, err, common.ErrorInternal)
}
