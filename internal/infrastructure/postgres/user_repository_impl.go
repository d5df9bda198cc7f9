package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/altairlabs/user-management-api/internal/domain/entity"
	"github.com/altairlabs/user-management-api/internal/domain/repository"
	"github.com/altairlabs/user-management-api/pkg/apperr"
)

const uniqueViolation = "23505"

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, username, hashed_password, is_active, is_superuser, first_name, last_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, u.Email, u.Username, u.HashedPassword, u.IsActive, u.IsSuperuser, u.FirstName, u.LastName)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return translateConflict(err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getOne(ctx, `WHERE id = $1`, id, "the user with this ID does not exist in the system")
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `WHERE email = $1`, email, "the user with this email does not exist in the system")
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.getOne(ctx, `WHERE username = $1`, username, "the user with this username does not exist in the system")
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any, notFoundMsg string) (*entity.User, error) {
	u := &entity.User{}
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, username, hashed_password, is_active, is_superuser,
		       first_name, last_name, created_at, updated_at
		FROM users
	`+where, arg)

	if err := row.Scan(&u.ID, &u.Email, &u.Username, &u.HashedPassword,
		&u.IsActive, &u.IsSuperuser, &u.FirstName, &u.LastName,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(notFoundMsg)
		}
		return nil, err
	}
	return u, nil
}

// List pages users in a stable order so repeated calls see the same sequence
// absent mutation.
func (r *UserRepository) List(ctx context.Context, skip, limit int) ([]*entity.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, email, username, hashed_password, is_active, is_superuser,
		       first_name, last_name, created_at, updated_at
		FROM users
		ORDER BY created_at, id
		OFFSET $1 LIMIT $2
	`, skip, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		u := &entity.User{}
		if err := rows.Scan(&u.ID, &u.Email, &u.Username, &u.HashedPassword,
			&u.IsActive, &u.IsSuperuser, &u.FirstName, &u.LastName,
			&u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Update persists the full record as one atomic write; updated_at is assigned
// by the database and scanned back.
func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET email = $1, username = $2, hashed_password = $3, is_active = $4,
		    is_superuser = $5, first_name = $6, last_name = $7, updated_at = now()
		WHERE id = $8
		RETURNING updated_at
	`, u.Email, u.Username, u.HashedPassword, u.IsActive, u.IsSuperuser,
		u.FirstName, u.LastName, u.ID)

	if err := row.Scan(&u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("the user with this ID does not exist in the system")
		}
		return translateConflict(err)
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return apperr.NotFound("the user with this ID does not exist in the system")
	}
	return nil
}

// translateConflict maps the unique constraints of the users table onto the
// Conflict errors the service reports, closing the check-then-insert race.
func translateConflict(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case "users_email_key":
		return apperr.Wrap(apperr.KindConflict, "the user with this email already exists in the system", err)
	case "users_username_key":
		return apperr.Wrap(apperr.KindConflict, "the user with this username already exists in the system", err)
	default:
		return apperr.Wrap(apperr.KindConflict, "user already exists", err)
	}
}

var _ repository.UserRepository = (*UserRepository)(nil)
