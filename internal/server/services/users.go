package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/rnbmx/bmxshop/internal/common"
	"github.com/rnbmx/bmxshop/internal/dbx"
	"github.com/rnbmx/bmxshop/internal/logging"
	"github.com/rnbmx/bmxshop/internal/server/models"
	"github.com/rnbmx/bmxshop/internal/server/repositories/repomanager"
)

// ProfileUpdate is a partial update; nil fields are left unchanged.
type ProfileUpdate struct {
	FirstName    *string
	LastName     *string
	Email        *string
	Username     *string
	Phone        *string
	Country      *string
	City         *string
	Address      *string
	Gender       *string
	ProfileImage *string
}

// UserService serves the profile endpoints and user administration.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	auth        *AuthService
	logger      logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, as *AuthService, logger logging.Logger) *UserService {
	return &UserService{db: db, repomanager: m, auth: as, logger: logger.With("module", "user_service")}
}

func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError(ctx, "user lookup failed", err)
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	list, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return nil, s.storeError(ctx, "user list failed", err)
	}
	return list, nil
}

// UpdateProfile applies upd to the user. When the email changes the old
// token stops resolving, so a new one is returned; otherwise token is empty.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, upd ProfileUpdate) (*models.User, string, error) {
	user, before, err := s.update(ctx, id, upd)
	if err != nil {
		return nil, "", err
	}
	if user.Email == before {
		return user, "", nil
	}
	token, err := s.auth.IssueToken(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Update is the administrative variant of UpdateProfile.
func (s *UserService) Update(ctx context.Context, id int64, upd ProfileUpdate) (*models.User, error) {
	user, _, err := s.update(ctx, id, upd)
	return user, err
}

func (s *UserService) update(ctx context.Context, id int64, upd ProfileUpdate) (*models.User, string, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, "", s.storeError(ctx, "user lookup failed", err)
	}
	oldEmail := user.Email

	if upd.Email != nil {
		email := strings.TrimSpace(*upd.Email)
		if email == "" {
			return nil, "", common.NewValidationError("email", "must not be blank")
		}
		if email != user.Email {
			if taken, err := repo.ExistsByEmail(ctx, email); err != nil {
				return nil, "", s.storeError(ctx, "email lookup failed", err)
			} else if taken {
				return nil, "", common.Public(common.ErrAlreadyExists, "Email is already in use")
			}
			user.Email = email
		}
	}
	if upd.Username != nil {
		username := strings.TrimSpace(*upd.Username)
		if username == "" {
			return nil, "", common.NewValidationError("username", "must not be blank")
		}
		if username != user.Username {
			if taken, err := repo.ExistsByUsername(ctx, username); err != nil {
				return nil, "", s.storeError(ctx, "username lookup failed", err)
			} else if taken {
				return nil, "", common.Public(common.ErrAlreadyExists, "Username is already taken")
			}
			user.Username = username
		}
	}

	if upd.FirstName != nil || upd.LastName != nil {
		first, last := user.FirstName, user.LastName
		if upd.FirstName != nil {
			first = *upd.FirstName
		}
		if upd.LastName != nil {
			last = *upd.LastName
		}
		if strings.TrimSpace(first) == "" || strings.TrimSpace(last) == "" {
			return nil, "", common.NewValidationError("name", "first and last name must not be blank")
		}
		user.SetNames(first, last)
	}

	apply(&user.Phone, upd.Phone)
	apply(&user.Country, upd.Country)
	apply(&user.City, upd.City)
	apply(&user.Address, upd.Address)
	apply(&user.Gender, upd.Gender)
	apply(&user.ProfileImage, upd.ProfileImage)

	if err := repo.Update(ctx, user); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, "", common.Public(common.ErrAlreadyExists, "Email or username is already in use")
		}
		return nil, "", s.storeError(ctx, "user update failed", err)
	}
	return user, oldEmail, nil
}

func apply(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.repomanager.Users(s.db).Delete(ctx, id); err != nil {
		return s.storeError(ctx, "user delete failed", err)
	}
	s.logger.Info(ctx, "user deleted", "user_id", id)
	return nil
}

// SetRoles replaces the roles of a user. The list must be non-empty and
// consist of known role names only.
func (s *UserService) SetRoles(ctx context.Context, id int64, names []string) (*models.User, error) {
	if len(names) == 0 {
		return nil, common.NewValidationError("roles", "at least one role is required")
	}
	roles, err := models.ParseRoles(names)
	if err != nil {
		return nil, common.Public(err, err.Error())
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		if _, err := repo.GetByID(ctx, id); err != nil {
			return err
		}
		return repo.SetRoles(ctx, id, roles)
	})
	if err != nil {
		return nil, s.storeError(ctx, "role assignment failed", err)
	}

	s.logger.Info(ctx, "roles assigned", "user_id", id, "roles", roles.Names())
	return s.Get(ctx, id)
}

// storeError passes ErrorNotFound through and hides everything else.
func (s *UserService) storeError(ctx context.Context, msg string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorNotFound
	}
	s.logger.Error(ctx, msg, "error", err)
	return common.ErrorInternal
}
