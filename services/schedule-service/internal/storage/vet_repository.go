package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/pawcare/vetsched/services/schedule-service/internal/model"
)

// FindVet returns nil when the vet is unknown to the local directory cache.
func (r *Repository) FindVet(ctx context.Context, vetUserID string) (*model.Vet, error) {
	var v model.Vet
	err := r.pool.QueryRow(ctx, `
		SELECT vet_user_id::text, display_name, email, specialisation, is_active, is_deleted, updated_at
		FROM vets
		WHERE vet_user_id = $1
	`, vetUserID).Scan(&v.VetUserID, &v.DisplayName, &v.Email, &v.Specialisation, &v.IsActive, &v.IsDeleted, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// UpsertVet maintains the directory cache from staff events. The cache is the
// authority for is_active / is_deleted checks in this service.
func (r *Repository) UpsertVet(ctx context.Context, v model.Vet) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO vets (vet_user_id, display_name, email, specialisation, is_active, is_deleted)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (vet_user_id)
		DO UPDATE SET display_name = EXCLUDED.display_name,
		              email = EXCLUDED.email,
		              specialisation = EXCLUDED.specialisation,
		              is_active = EXCLUDED.is_active,
		              is_deleted = EXCLUDED.is_deleted,
		              updated_at = now()
	`, v.VetUserID, v.DisplayName, v.Email, v.Specialisation, v.IsActive, v.IsDeleted)
	return err
}

// SetVetActive flips the active flag without touching the rest of the row.
func (r *Repository) SetVetActive(ctx context.Context, vetUserID string, active bool) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE vets
		SET is_active = $2, updated_at = now()
		WHERE vet_user_id = $1
	`, vetUserID, active)
	return err
}
