package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"restaurant-admin/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type AdminRepositoryInterface interface {
	FindByUsername(ctx context.Context, username string) (domain.AdminUser, error)
	FindByID(ctx context.Context, id int64) (domain.AdminUser, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	List(ctx context.Context) ([]domain.AdminUser, error)
	Create(ctx context.Context, user domain.AdminUser) (domain.AdminUser, error)
	Update(ctx context.Context, user domain.AdminUser) (domain.AdminUser, error)
	Delete(ctx context.Context, id int64) error
}

type AdminRepository struct {
	db *sql.DB
}

func NewAdminRepository(db *sql.DB) AdminRepositoryInterface {
	return &AdminRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (r *AdminRepository) findOne(ctx context.Context, where string, arg any) (domain.AdminUser, error) {
	var u domain.AdminUser
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash FROM admin_users WHERE `+where, arg).
		Scan(&u.ID, &u.Username, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AdminUser{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.AdminUser{}, fmt.Errorf("failed to load admin user: %w", err)
	}
	return u, nil
}

func (r *AdminRepository) FindByUsername(ctx context.Context, username string) (domain.AdminUser, error) {
	return r.findOne(ctx, "username = $1", username)
}

func (r *AdminRepository) FindByID(ctx context.Context, id int64) (domain.AdminUser, error) {
	return r.findOne(ctx, "id = $1", id)
}

func (r *AdminRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM admin_users WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return exists, nil
}

func (r *AdminRepository) List(ctx context.Context) ([]domain.AdminUser, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, username, password_hash FROM admin_users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query admin users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.AdminUser, 0)
	for rows.Next() {
		var u domain.AdminUser
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash); err != nil {
			return nil, fmt.Errorf("failed to scan admin user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate admin users: %w", err)
	}
	return users, nil
}

func (r *AdminRepository) Create(ctx context.Context, user domain.AdminUser) (domain.AdminUser, error) {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO admin_users (username, password_hash) VALUES ($1, $2) RETURNING id`,
		user.Username, user.PasswordHash).Scan(&user.ID)
	if isUniqueViolation(err) {
		return domain.AdminUser{}, domain.ErrDuplicateUsername
	}
	if err != nil {
		return domain.AdminUser{}, fmt.Errorf("failed to insert admin user: %w", err)
	}
	return user, nil
}

// Update writes both username and hash; callers pass the current hash to keep it.
func (r *AdminRepository) Update(ctx context.Context, user domain.AdminUser) (domain.AdminUser, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE admin_users SET username = $1, password_hash = $2 WHERE id = $3`,
		user.Username, user.PasswordHash, user.ID)
	if isUniqueViolation(err) {
		return domain.AdminUser{}, domain.ErrDuplicateUsername
	}
	if err != nil {
		return domain.AdminUser{}, fmt.Errorf("failed to update admin user %d: %w", user.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.AdminUser{}, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return domain.AdminUser{}, domain.ErrNotFound
	}
	return user, nil
}

func (r *AdminRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM admin_users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete admin user %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
