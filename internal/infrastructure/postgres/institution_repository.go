package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"arca/internal/domain/institution"
)

// InstitutionRepository implements the institution.Repository interface for PostgreSQL
type InstitutionRepository struct {
	db *DB
}

// NewInstitutionRepository creates a new PostgreSQL institution repository
func NewInstitutionRepository(db *DB) *InstitutionRepository {
	return &InstitutionRepository{db: db}
}

const institutionColumns = `
	id, provider_institution_id, name, country, url, primary_color, logo,
	created_at, updated_at`

// Upsert creates or refreshes an institution keyed by provider_institution_id
func (r *InstitutionRepository) Upsert(ctx context.Context, params institution.UpsertParams) (*institution.Institution, error) {
	query := `
		INSERT INTO institutions (provider_institution_id, name, country, url, primary_color, logo)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (provider_institution_id)
		DO UPDATE SET
			name = EXCLUDED.name,
			country = EXCLUDED.country,
			url = EXCLUDED.url,
			primary_color = EXCLUDED.primary_color,
			logo = EXCLUDED.logo,
			updated_at = CURRENT_TIMESTAMP
		RETURNING` + institutionColumns

	var ins institution.Institution
	err := r.db.QueryRowContext(
		ctx, query,
		params.ProviderInstitutionID, params.Name, params.Country,
		params.URL, params.PrimaryColor, params.Logo,
	).Scan(
		&ins.ID, &ins.ProviderInstitutionID, &ins.Name, &ins.Country,
		&ins.URL, &ins.PrimaryColor, &ins.Logo, &ins.CreatedAt, &ins.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert institution: %w", err)
	}

	return &ins, nil
}

// GetByProviderID retrieves an institution by the provider-assigned ID
func (r *InstitutionRepository) GetByProviderID(ctx context.Context, providerInstitutionID string) (*institution.Institution, error) {
	query := `SELECT` + institutionColumns + `
		FROM institutions
		WHERE provider_institution_id = $1`

	var ins institution.Institution
	err := r.db.QueryRowContext(ctx, query, providerInstitutionID).Scan(
		&ins.ID, &ins.ProviderInstitutionID, &ins.Name, &ins.Country,
		&ins.URL, &ins.PrimaryColor, &ins.Logo, &ins.CreatedAt, &ins.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		// Intentionally returns (nil, nil) instead of an error
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get institution: %w", err)
	}

	return &ins, nil
}
