package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rnbmx/bmxshop/internal/logging"
	"github.com/rnbmx/bmxshop/internal/server/auth"
	"github.com/rnbmx/bmxshop/internal/server/models"
	"github.com/rnbmx/bmxshop/internal/server/repositories/repotest"
	"golang.org/x/crypto/bcrypt"
)

var t0 = time.Unix(1_700_000_000, 0)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func newTestCodec(t *testing.T) *auth.Codec {
	t.Helper()
	key := make([]byte, auth.MinKeyBytes)
	for i := range key {
		key[i] = byte(i)
	}
	c, err := auth.NewCodec(key, time.Hour)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c
}

func newAuthService(t *testing.T, db *sql.DB, m *repotest.Manager) *AuthService {
	t.Helper()
	s := NewAuthService(db, m, newTestCodec(t), auth.NewBcryptHasher(bcrypt.MinCost), logging.Nop{})
	s.now = func() time.Time { return t0 }
	return s
}

// signUp registers a user, satisfying the transaction expectations on mock.
func signUp(t *testing.T, s *AuthService, mock sqlmock.Sqlmock, in SignUpInput) *models.User {
	t.Helper()
	mock.ExpectBegin()
	mock.ExpectCommit()
	u, err := s.SignUp(t.Context(), in)
	if err != nil {
		t.Fatalf("SignUp(%s): %v", in.Email, err)
	}
	return u
}

func principalOf(u *models.User) *auth.Principal {
	return auth.PrincipalFromUser(u)
}
