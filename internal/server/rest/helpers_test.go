package rest

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/rnbmx/bmxshop/internal/logging"
	"github.com/rnbmx/bmxshop/internal/server/auth"
	"github.com/rnbmx/bmxshop/internal/server/config"
	"github.com/rnbmx/bmxshop/internal/server/models"
	"github.com/rnbmx/bmxshop/internal/server/repositories/repotest"
	"github.com/rnbmx/bmxshop/internal/server/services"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	t      *testing.T
	db     *sql.DB
	mock   sqlmock.Sqlmock
	repos  *repotest.Manager
	codec  *auth.Codec
	hasher auth.Hasher
	cfg    *config.Config
	server *Server
}

func testKey(seed byte) []byte {
	key := make([]byte, auth.MinKeyBytes)
	for i := range key {
		key[i] = seed + byte(i)
	}
	return key
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	codec, err := auth.NewCodec(testKey(1), time.Hour)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.S3Bucket = ""

	env := &testEnv{
		t:      t,
		db:     db,
		mock:   mock,
		repos:  repotest.NewManager(),
		codec:  codec,
		hasher: auth.NewBcryptHasher(bcrypt.MinCost),
		cfg:    cfg,
	}

	log := logging.Nop{}
	as := services.NewAuthService(db, env.repos, codec, env.hasher, log)
	env.server = NewServer(Options{
		PublicPaths:        config.DefaultPublicPaths,
		CORSAllowedOrigins: []string{"http://localhost:3000"},
	}, Services{
		Auth:     as,
		Users:    services.NewUserService(db, env.repos, as, log),
		Catalog:  services.NewCatalogService(db, env.repos, log),
		Reviews:  services.NewReviewService(db, env.repos, log),
		Orders:   services.NewOrderService(db, env.repos, log),
		Payments: services.NewPaymentService("pk_test_x", log),
		Media:    services.NewMediaService(cfg, log),
		Health:   services.NewHealthService(db, env.repos, log),
	}, log)
	return env
}

// addUser stores a user with the given password and roles directly.
func (e *testEnv) addUser(email, password string, roles ...models.Role) *models.User {
	e.t.Helper()
	hash, err := e.hasher.Hash(password)
	if err != nil {
		e.t.Fatalf("hash: %v", err)
	}
	u := models.NewUser(email, "", "Test", email, models.Profile{}, models.NewRoleSet(roles...))
	u.PasswordHash = hash
	return e.repos.AddUser(u)
}

func (e *testEnv) tokenFor(u *models.User) string {
	e.t.Helper()
	tok, err := e.codec.Issue(u.Email, time.Now())
	if err != nil {
		e.t.Fatalf("issue: %v", err)
	}
	return tok
}

type response struct {
	*httptest.ResponseRecorder
}

func (r response) json(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(r.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", r.Body.String(), err)
	}
	return out
}

func (r response) list(t *testing.T) []map[string]any {
	t.Helper()
	var out []map[string]any
	if err := json.Unmarshal(r.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", r.Body.String(), err)
	}
	return out
}

// do sends a request; body is JSON-encoded unless nil, token is sent as a
// bearer credential unless empty.
func (e *testEnv) do(method, path string, body any, token string) response {
	e.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return response{rec}
}
