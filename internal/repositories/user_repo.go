package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/techcorp/gatehouse/internal/database"
	"github.com/techcorp/gatehouse/internal/models"
)

// UserRepository is the PostgreSQL credential store. The auth core only
// reads users and touches their last-login timestamp; all other user
// management belongs to the CMS admin endpoints.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{pool: db.Pool}
}

// rowScanner lets scanUserRow work on both QueryRow and Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User
	var lastLoginAt *time.Time

	err := scanner.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Role,
		&user.IsActive, &lastLoginAt,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	user.LastLoginAt = lastLoginAt

	return &user, nil
}

// FindActiveByEmail returns the active user for an email address, or
// models.ErrNotFound. Deactivated accounts are invisible to the login flow.
func (r *UserRepository) FindActiveByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, role, is_active, last_login_at, created_at, updated_at
		FROM users WHERE email = $1 AND is_active
	`

	return scanUserRow(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, role, is_active, last_login_at, created_at, updated_at
		FROM users WHERE id = $1 AND is_active
	`

	return scanUserRow(r.pool.QueryRow(ctx, query, id))
}

// TouchLastLogin records a successful login against the subject.
func (r *UserRepository) TouchLastLogin(ctx context.Context, id string) error {
	query := `UPDATE users SET last_login_at = now(), updated_at = now() WHERE id = $1`

	_, err := r.pool.Exec(ctx, query, id)
	return database.MapPostgresError(err)
}

// Create inserts a user. Used by the startup admin bootstrap and by tests;
// the CMS user-management endpoints own user creation in production.
func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	query := `
		INSERT INTO users (id, email, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING id, email, password_hash, role, is_active, last_login_at, created_at, updated_at
	`

	return scanUserRow(r.pool.QueryRow(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Role, user.IsActive))
}
