// Package places provides a PostgreSQL-backed repository for place records.
package places

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

func (r *PostgresRepository) Create(ctx context.Context, place *models.Place) (*models.Place, error) {
	query := `
		INSERT INTO places (title, description, image_ref, address, lat, lng, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		place.Title, place.Description, place.ImageRef, place.Address,
		place.Location.Lat, place.Location.Lng, place.OwnerID).Scan(&place.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return place, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Place, error) {
	query := `
		SELECT id, title, description, image_ref, address, lat, lng, owner_id
		FROM places
		WHERE id = $1
	`
	return scanPlace(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Place, error) {
	query := `
		SELECT id, title, description, image_ref, address, lat, lng, owner_id
		FROM places
		WHERE owner_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Place
	for rows.Next() {
		p := &models.Place{}
		err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.ImageRef,
			&p.Address, &p.Location.Lat, &p.Location.Lng, &p.OwnerID)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

// Update rewrites the owner-editable fields and returns the updated record.
func (r *PostgresRepository) Update(ctx context.Context, id, title, description string) (*models.Place, error) {
	query := `
		UPDATE places SET title = $2, description = $3
		WHERE id = $1
		RETURNING id, title, description, image_ref, address, lat, lng, owner_id
	`
	return scanPlace(r.db.QueryRowContext(ctx, query, id, title, description))
}

// Delete removes the place row. Deleting an absent id is common.ErrorNotFound.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `
		DELETE FROM places
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id)
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

func scanPlace(row *sql.Row) (*models.Place, error) {
	p := &models.Place{}
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.ImageRef,
		&p.Address, &p.Location.Lat, &p.Location.Lng, &p.OwnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}
