package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/pulseai/pulseai/internal/domain/user"
	"github.com/pulseai/pulseai/internal/pkg/errors"
)

// UserRepository implements user.Repository
type UserRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, d Dialect) user.Repository {
	return &UserRepository{db: db, dialect: d}
}

const userColumns = `id, phone, verification_code, code_expires_at, is_verified, free_requests_used, created_at`

func scanUser(row rowScanner) (*user.User, error) {
	var u user.User
	var code sql.NullString
	var expires sql.NullInt64
	var createdAt int64

	if err := row.Scan(&u.ID, &u.Phone, &code, &expires, &u.IsVerified, &u.FreeRequestsUsed, &createdAt); err != nil {
		return nil, err
	}

	if code.Valid {
		u.VerificationCode = &code.String
	}
	u.CodeExpiresAt = timePtr(expires)
	u.CreatedAt = fromUnix(createdAt)
	return &u, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	query := r.dialect.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)

	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("User")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get user", err)
	}
	return u, nil
}

// GetByPhone retrieves a user by phone number
func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*user.User, error) {
	query := r.dialect.Rebind(`SELECT ` + userColumns + ` FROM users WHERE phone = ?`)

	u, err := scanUser(r.db.QueryRowContext(ctx, query, phone))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("User")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get user", err)
	}
	return u, nil
}

// UpsertCode creates the user on first sight or replaces the pending code
func (r *UserRepository) UpsertCode(ctx context.Context, phone, code string, expiresAt time.Time) (*user.User, error) {
	query := r.dialect.Rebind(`
		INSERT INTO users (phone, verification_code, code_expires_at, is_verified, free_requests_used, created_at)
		VALUES (?, ?, ?, ?, 0, ?)
		ON CONFLICT (phone) DO UPDATE
		SET verification_code = excluded.verification_code,
		    code_expires_at = excluded.code_expires_at
		RETURNING ` + userColumns)

	u, err := scanUser(r.db.QueryRowContext(ctx, query,
		phone, code, expiryUnix(expiresAt), false, toUnix(time.Now()),
	))
	if err != nil {
		return nil, errors.DatabaseError("Failed to store verification code", err)
	}
	return u, nil
}

// MarkVerified sets the verified flag
func (r *UserRepository) MarkVerified(ctx context.Context, id int64) error {
	query := r.dialect.Rebind(`UPDATE users SET is_verified = ? WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, true, id)
	if err != nil {
		return errors.DatabaseError("Failed to verify user", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("User")
	}
	return nil
}
