// Package services contains server-side business logic. This file implements
// AuthService: sign-in, sign-up, password changes and resolving a bearer
// token to the principal of a request.
package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/rnbmx/bmxshop/internal/common"
	"github.com/rnbmx/bmxshop/internal/dbx"
	"github.com/rnbmx/bmxshop/internal/logging"
	"github.com/rnbmx/bmxshop/internal/server/auth"
	"github.com/rnbmx/bmxshop/internal/server/models"
	"github.com/rnbmx/bmxshop/internal/server/repositories/repomanager"
)

// Session is a successful sign-in: the token plus the identity it names.
type Session struct {
	Token string
	User  *models.User
}

// SignUpInput is validated for presence by the transport layer.
type SignUpInput struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
	Profile   models.Profile
	Roles     []string
}

// PasswordChange carries the plaintext passwords of a change request.
// Confirm is checked only when set.
type PasswordChange struct {
	Current string
	New     string
	Confirm *string
}

type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	codec       *auth.Codec
	hasher      auth.Hasher
	logger      logging.Logger
	now         func() time.Time
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, codec *auth.Codec, hasher auth.Hasher, logger logging.Logger) *AuthService {
	return &AuthService{
		db:          db,
		repomanager: m,
		codec:       codec,
		hasher:      hasher,
		logger:      logger.With("module", "auth_service"),
		now:         time.Now,
	}
}

var errInvalidCredentials = common.Public(common.ErrInvalidCredentials, "Invalid email or password")

// SignIn checks the credentials and issues a token. Unknown email and wrong
// password produce the same error; only the log tells them apart.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Info(ctx, "sign-in rejected: no such user", "email", email)
			return nil, errInvalidCredentials
		}
		s.logger.Error(ctx, "sign-in lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	ok, err := s.hasher.Matches(user.PasswordHash, password)
	if err != nil {
		s.logger.Error(ctx, "password comparison failed", "user_id", user.ID, "error", err)
		return nil, common.ErrorInternal
	}
	if !ok {
		s.logger.Info(ctx, "sign-in rejected: wrong password", "user_id", user.ID)
		return nil, errInvalidCredentials
	}

	token, err := s.IssueToken(ctx, user)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}

// IssueToken signs a token whose subject is the user's email.
func (s *AuthService) IssueToken(ctx context.Context, user *models.User) (string, error) {
	token, err := s.codec.Issue(user.Email, s.now())
	if err != nil {
		s.logger.Error(ctx, "token issue failed", "user_id", user.ID, "error", err)
		return "", common.ErrorInternal
	}
	return token, nil
}

// SignUp creates an identity. Missing roles default to USER; unknown role
// names are rejected.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*models.User, error) {
	if err := validateSignUp(in); err != nil {
		return nil, err
	}

	roles, err := models.ParseRoles(in.Roles)
	if err != nil {
		return nil, common.Public(err, err.Error())
	}

	user := models.NewUser(in.Email, in.Username, in.FirstName, in.LastName, in.Profile, roles)

	repo := s.repomanager.Users(s.db)
	if taken, err := repo.ExistsByUsername(ctx, user.Username); err != nil {
		s.logger.Error(ctx, "sign-up lookup failed", "error", err)
		return nil, common.ErrorInternal
	} else if taken {
		return nil, common.Public(common.ErrAlreadyExists, "Username is already taken")
	}
	if taken, err := repo.ExistsByEmail(ctx, user.Email); err != nil {
		s.logger.Error(ctx, "sign-up lookup failed", "error", err)
		return nil, common.ErrorInternal
	} else if taken {
		return nil, common.Public(common.ErrAlreadyExists, "Email is already in use")
	}

	user.PasswordHash, err = s.hasher.Hash(in.Password)
	if err != nil {
		s.logger.Error(ctx, "password hashing failed", "error", err)
		return nil, common.ErrorInternal
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		txRepo := s.repomanager.Users(tx)
		if _, err := txRepo.Create(ctx, user); err != nil {
			return err
		}
		return txRepo.SetRoles(ctx, user.ID, user.Roles)
	})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, common.Public(common.ErrAlreadyExists, "Email or username is already in use")
		}
		s.logger.Error(ctx, "sign-up failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID, "roles", user.Roles.Names())
	return user, nil
}

func validateSignUp(in SignUpInput) error {
	fields := map[string]string{}
	if strings.TrimSpace(in.Email) == "" {
		fields["email"] = "is required"
	}
	if strings.TrimSpace(in.FirstName) == "" {
		fields["firstName"] = "is required"
	}
	if strings.TrimSpace(in.LastName) == "" {
		fields["lastName"] = "is required"
	}
	if len(in.Password) < auth.MinPasswordLength {
		fields["password"] = "must be at least 6 characters"
	}
	if len(fields) > 0 {
		return &common.ValidationError{Fields: fields}
	}
	return nil
}

// ChangePassword replaces the password of userID after checking the current
// one, and returns a freshly issued token.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, in PasswordChange) (string, error) {
	fields := map[string]string{}
	if in.Current == "" {
		fields["currentPassword"] = "is required"
	}
	if in.New == "" {
		fields["newPassword"] = "is required"
	} else if len(in.New) < auth.MinPasswordLength {
		fields["newPassword"] = "must be at least 6 characters"
	}
	if len(fields) > 0 {
		return "", &common.ValidationError{Fields: fields}
	}
	if in.Confirm != nil && *in.Confirm != in.New {
		return "", common.Public(common.ErrPasswordMismatch, "New password and confirmation do not match")
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "password change lookup failed", "user_id", userID, "error", err)
		return "", common.ErrorInternal
	}

	ok, err := s.hasher.Matches(user.PasswordHash, in.Current)
	if err != nil {
		s.logger.Error(ctx, "password comparison failed", "user_id", userID, "error", err)
		return "", common.ErrorInternal
	}
	if !ok {
		return "", common.Public(common.ErrInvalidCredentials, "Current password is incorrect")
	}
	if in.New == in.Current {
		return "", common.Public(common.ErrSamePassword, "New password must be different from the current password")
	}

	hash, err := s.hasher.Hash(in.New)
	if err != nil {
		s.logger.Error(ctx, "password hashing failed", "error", err)
		return "", common.ErrorInternal
	}
	if err := repo.UpdatePassword(ctx, userID, hash); err != nil {
		s.logger.Error(ctx, "password update failed", "user_id", userID, "error", err)
		return "", common.ErrorInternal
	}

	s.logger.Info(ctx, "password changed", "user_id", userID)
	return s.IssueToken(ctx, user)
}

// Authenticate verifies a bearer token and loads its subject.
//
// It returns a common.ErrToken* error when verification fails, (nil, nil)
// when the subject no longer resolves to a user, and common.ErrorInternal
// when the store fails.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*auth.Principal, error) {
	subject, err := s.codec.Verify(token, s.now())
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		s.logger.Error(ctx, "principal lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	return auth.PrincipalFromUser(user), nil
}

// Roles lists the role names known to the store.
func (s *AuthService) Roles(ctx context.Context) ([]string, error) {
	list, err := s.repomanager.Roles(s.db).List(ctx)
	if err != nil {
		s.logger.Error(ctx, "role list failed", "error", err)
		return nil, common.ErrorInternal
	}
	return models.NewRoleSet(list...).Names(), nil
}
