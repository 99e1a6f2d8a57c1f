package repository

import (
	"context"
	"database/sql"
	"time"

	"taskhub/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, scope models.Scope) ([]models.User, error)
	// UpdateProfile applies the optional password-hash and email changes in a
	// single statement, so an email conflict leaves the row entirely untouched.
	// Nil fields keep their stored values.
	UpdateProfile(ctx context.Context, id string, passwordHash *string, email *string) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	// ReplacePasswordHash swaps the password hash only if the stored hash
	// still equals oldHash. Returns ErrNotFound when the row is gone or the
	// hash changed underneath, which makes the reset commit a compare-and-swap.
	ReplacePasswordHash(ctx context.Context, id string, oldHash string, newHash string) error
	Delete(ctx context.Context, scope models.Scope, id string) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, username, email, password_hash, is_superuser, is_active, last_login, created_at`

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var lastLogin sql.NullTime
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsSuperuser, &u.IsActive, &lastLogin, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, is_superuser, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash,
		user.IsSuperuser, user.IsActive, user.CreatedAt,
	).Scan(&user.CreatedAt)
	if err != nil {
		if conflict := conflictField(err); conflict != nil {
			return conflict
		}
		return err
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(username) = LOWER($1)`
	return scanUser(r.db.QueryRowContext(ctx, query, username))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1) AND email <> ''`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *userRepository) List(ctx context.Context, scope models.Scope) ([]models.User, error) {
	query := `
		SELECT id, username, email, is_superuser, is_active, last_login, created_at
		FROM users
	`
	args := []any{}
	if !scope.Superuser {
		query += ` WHERE id = $1`
		args = append(args, scope.UserID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		var lastLogin sql.NullTime
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.IsSuperuser, &u.IsActive, &lastLogin, &u.CreatedAt); err != nil {
			return nil, err
		}
		if lastLogin.Valid {
			u.LastLogin = &lastLogin.Time
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

func (r *userRepository) UpdateProfile(ctx context.Context, id string, passwordHash *string, email *string) error {
	query := `
		UPDATE users
		SET password_hash = COALESCE($1, password_hash),
			email = COALESCE($2, email)
		WHERE id = $3
	`
	res, err := r.db.ExecContext(ctx, query, passwordHash, email, id)
	if err != nil {
		if conflict := conflictField(err); conflict != nil {
			return conflict
		}
		return err
	}
	return checkAffected(res)
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET last_login = $1 WHERE id = $2`, at, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r *userRepository) ReplacePasswordHash(ctx context.Context, id string, oldHash string, newHash string) error {
	query := `UPDATE users SET password_hash = $1 WHERE id = $2 AND password_hash = $3`
	res, err := r.db.ExecContext(ctx, query, newHash, id, oldHash)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r *userRepository) Delete(ctx context.Context, scope models.Scope, id string) error {
	query := `DELETE FROM users WHERE id = $1`
	args := []any{id}
	if !scope.Superuser {
		query += ` AND id = $2`
		args = append(args, scope.UserID)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
