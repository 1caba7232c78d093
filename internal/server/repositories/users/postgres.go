// Package users implements the PostgreSQL credential store.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rnbmx/bmxshop/internal/common"
	"github.com/rnbmx/bmxshop/internal/dbx"
	"github.com/rnbmx/bmxshop/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectUser = `SELECT u.id, u.email, u.username, u.password_hash, u.first_name, u.last_name, u.name, u.surname,
		 u.phone, u.country, u.city, u.address, u.gender, u.profile_image, u.created_at,
		 COALESCE(string_agg(r.name, ',' ORDER BY r.name), '')
		 FROM users u
		 LEFT JOIN user_roles ur ON ur.user_id = u.id
		 LEFT JOIN roles r ON r.id = ur.role_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	u := &models.User{}
	var roles string
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Name, &u.Surname,
		&u.Phone, &u.Country, &u.City, &u.Address, &u.Gender, &u.ProfileImage, &u.CreatedAt, &roles)
	if err != nil {
		return nil, err
	}
	u.Roles = models.NewRoleSet()
	for _, name := range strings.Split(roles, ",") {
		if name == "" {
			continue
		}
		// rows in roles are seeded from models.AllRoles
		if r, err := models.ParseRole(name); err == nil {
			u.Roles[r] = struct{}{}
		}
	}
	return u, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (email, username, password_hash, first_name, last_name, name, surname,
		 phone, country, city, address, gender, profile_image)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.Username, user.PasswordHash, user.FirstName, user.LastName, user.Name, user.Surname,
		user.Phone, user.Country, user.City, user.Address, user.Gender, user.ProfileImage).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	query := selectUser + `
		 WHERE ` + where + `
		 GROUP BY u.id
		 `

	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "u.email = $1", email)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, "u.id = $1", id)
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.User, error) {
	query := selectUser + `
		 GROUP BY u.id
		 ORDER BY u.id
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) exists(ctx context.Context, column, value string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE ` + column + ` = $1)`

	var ok bool
	if err := r.db.QueryRowContext(ctx, query, value).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email", email)
}

func (r *PostgresRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username", username)
}

func (r *PostgresRepository) Update(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users SET email = $2, username = $3, first_name = $4, last_name = $5, name = $6, surname = $7,
		 phone = $8, country = $9, city = $10, address = $11, gender = $12, profile_image = $13
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, user.ID,
		user.Email, user.Username, user.FirstName, user.LastName, user.Name, user.Surname,
		user.Phone, user.Country, user.City, user.Address, user.Gender, user.ProfileImage)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	query := `UPDATE users SET password_hash = $2 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, hash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

// SetRoles replaces the role assignments of a user. Run it inside dbx.WithTx
// when the caller needs the delete and inserts to be atomic.
func (r *PostgresRepository) SetRoles(ctx context.Context, id int64, roles models.RoleSet) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	query :=
		`INSERT INTO user_roles (user_id, role_id)
		 SELECT $1, id FROM roles WHERE name = $2
		 `
	for _, role := range roles.Slice() {
		res, err := r.db.ExecContext(ctx, query, id, string(role))
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("db error: role %s is not seeded", role)
		}
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
