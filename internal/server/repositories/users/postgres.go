// Package users provides a PostgreSQL-backed repository for user accounts,
// including the pending password-reset fields and the owned-place set.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/placekeeper/placekeeper/internal/common"
	"github.com/placekeeper/placekeeper/internal/dbx"
	"github.com/placekeeper/placekeeper/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user. A duplicate email surfaces as
// common.ErrorConflict via the unique constraint on users.email.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (name, email, password_digest, image_ref)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		user.Name, user.Email, user.PasswordDigest, user.ImageRef).Scan(&user.ID)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, name, email, password_digest, image_ref,
		       COALESCE(reset_token, ''), COALESCE(reset_expiry, 'epoch'::timestamptz)
		FROM users
		WHERE email = $1
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, name, email, password_digest, image_ref,
		       COALESCE(reset_token, ''), COALESCE(reset_expiry, 'epoch'::timestamptz)
		FROM users
		WHERE id = $1
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

// List returns the public projection of all users with their place counts.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.UserSummary, error) {
	query := `
		SELECT u.id, u.name, u.email, u.image_ref, COUNT(up.place_id)
		FROM users u
		LEFT JOIN user_places up ON up.user_id = u.id
		GROUP BY u.id, u.name, u.email, u.image_ref
		ORDER BY u.name
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.UserSummary
	for rows.Next() {
		s := &models.UserSummary{}
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.ImageRef, &s.NumberOfPlaces); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

// SetResetToken stores a fresh pending reset token, replacing any prior one.
func (r *PostgresRepository) SetResetToken(ctx context.Context, userID, token string, expiry time.Time) error {
	query := `
		UPDATE users SET reset_token = $2, reset_expiry = $3
		WHERE id = $1
	`
	return r.execExpectingRow(ctx, query, userID, token, expiry)
}

// ClearResetToken drops any pending reset token for the user.
func (r *PostgresRepository) ClearResetToken(ctx context.Context, userID string) error {
	query := `
		UPDATE users SET reset_token = NULL, reset_expiry = NULL
		WHERE id = $1
	`
	return r.execExpectingRow(ctx, query, userID)
}

// GetByResetToken returns the user holding token, provided the token has not
// expired as of now. Expired or unknown tokens are common.ErrorNotFound.
func (r *PostgresRepository) GetByResetToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	query := `
		SELECT id, name, email, password_digest, image_ref,
		       COALESCE(reset_token, ''), COALESCE(reset_expiry, 'epoch'::timestamptz)
		FROM users
		WHERE reset_token = $1 AND reset_expiry > $2
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, token, now))
}

// UpdatePasswordClearReset replaces the password digest and clears the
// pending reset token in a single statement, so the consume transition is
// atomic at the row level.
func (r *PostgresRepository) UpdatePasswordClearReset(ctx context.Context, userID, digest string) error {
	query := `
		UPDATE users
		SET password_digest = $2, reset_token = NULL, reset_expiry = NULL
		WHERE id = $1
	`
	return r.execExpectingRow(ctx, query, userID, digest)
}

// PlaceIDs returns the ids of all places owned by the user.
func (r *PostgresRepository) PlaceIDs(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT place_id FROM user_places
		WHERE user_id = $1
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return ids, nil
}

// AttachPlace records placeID in the owner's owned-place set.
func (r *PostgresRepository) AttachPlace(ctx context.Context, userID, placeID string) error {
	query := `
		INSERT INTO user_places (user_id, place_id)
		VALUES ($1, $2)
	`
	if _, err := r.db.ExecContext(ctx, query, userID, placeID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DetachPlace removes placeID from the owner's owned-place set.
func (r *PostgresRepository) DetachPlace(ctx context.Context, userID, placeID string) error {
	query := `
		DELETE FROM user_places
		WHERE user_id = $1 AND place_id = $2
	`
	if _, err := r.db.ExecContext(ctx, query, userID, placeID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordDigest,
		&user.ImageRef, &user.ResetToken, &user.ResetExpiry)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) execExpectingRow(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}
	return nil
}
