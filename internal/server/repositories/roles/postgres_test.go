package roles

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rnbmx/bmxshop/internal/common"
	"github.com/rnbmx/bmxshop/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

const seedQ = `^INSERT\s+INTO\s+roles\s*\(name\)\s*VALUES\s*\(\$1\)\s*ON\s+CONFLICT\s*\(name\)\s*DO\s+NOTHING$`

func TestEnsureSeeded_IsIdempotentInsert(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(seedQ).WithArgs("USER").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(seedQ).WithArgs("ADMIN").WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.EnsureSeeded(context.Background(), models.AllRoles))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSeeded_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(seedQ).WillReturnError(errors.New("db down"))

	err := repo.EnsureSeeded(context.Background(), models.AllRoles)
	require.ErrorContains(t, err, "db error: db down")
}

func TestList(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`^SELECT\s+name\s+FROM\s+roles\s+ORDER\s+BY\s+name$`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("ADMIN").AddRow("USER"))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Role{models.RoleAdmin, models.RoleUser}, got)
}

func TestList_UnknownRoleRow(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`^SELECT\s+name\s+FROM\s+roles`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("ROOT"))

	_, err := repo.List(context.Background())
	require.ErrorIs(t, err, common.ErrUnknownRole)
}
