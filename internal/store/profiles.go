package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/safar/sanli-cicek/internal/database"
	"github.com/safar/sanli-cicek/internal/models"
)

const profileColumns = `id, email, first_name, last_name, phone, COALESCE(to_char(birth_date, 'YYYY-MM-DD'), ''), is_admin, created_at, updated_at`

func scanProfile(row rowScanner) (*models.Profile, error) {
	profile := &models.Profile{}
	err := row.Scan(
		&profile.ID,
		&profile.Email,
		&profile.FirstName,
		&profile.LastName,
		&profile.Phone,
		&profile.BirthDate,
		&profile.IsAdmin,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// UpsertProfile creates the profile for an auth identity or refreshes its
// contact fields. The admin flag is never changed here. An empty BirthDate
// clears the stored date.
func UpsertProfile(ctx context.Context, db *sql.DB, p models.Profile) (*models.Profile, error) {
	if _, err := uuid.Parse(p.ID); err != nil {
		return nil, fmt.Errorf("upsert profile: invalid id %q: %w", p.ID, err)
	}

	query := `
		INSERT INTO profiles (id, email, first_name, last_name, phone, birth_date, is_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::date, FALSE, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email,
		    first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    phone = EXCLUDED.phone,
		    birth_date = EXCLUDED.birth_date,
		    updated_at = NOW()
		RETURNING ` + profileColumns

	profile, err := scanProfile(db.QueryRowContext(ctx, query, p.ID, p.Email, p.FirstName, p.LastName, p.Phone, p.BirthDate))
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}

	return profile, nil
}

func GetProfile(ctx context.Context, db *sql.DB, id string) (*models.Profile, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, database.ErrProfileNotFound
	}

	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	profile, err := scanProfile(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	return profile, nil
}

func SetAdmin(ctx context.Context, db *sql.DB, id string, isAdmin bool) (*models.Profile, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, database.ErrProfileNotFound
	}

	query := `
		UPDATE profiles SET is_admin = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + profileColumns

	profile, err := scanProfile(db.QueryRowContext(ctx, query, isAdmin, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProfileNotFound
		}
		return nil, fmt.Errorf("set admin: %w", err)
	}

	return profile, nil
}

func ListProfiles(ctx context.Context, db *sql.DB, page, pageSize int) (*OffsetPage, error) {
	var total int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count profiles: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT ` + profileColumns + `
		FROM profiles
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	profiles := []models.Profile{}
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, *profile)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return newOffsetPage(profiles, total, page, pageSize), nil
}

// Profiles serves profile lookups from PostgreSQL.
type Profiles struct {
	DB *sql.DB
}

func (p *Profiles) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	return GetProfile(ctx, p.DB, id)
}

func (p *Profiles) UpsertProfile(ctx context.Context, profile models.Profile) (*models.Profile, error) {
	return UpsertProfile(ctx, p.DB, profile)
}

func (p *Profiles) SetAdmin(ctx context.Context, id string, isAdmin bool) (*models.Profile, error) {
	return SetAdmin(ctx, p.DB, id, isAdmin)
}

func (p *Profiles) ListProfiles(ctx context.Context, page, pageSize int) (*OffsetPage, error) {
	return ListProfiles(ctx, p.DB, page, pageSize)
}
