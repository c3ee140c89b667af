package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/veldtcms/veldt/internal/models"
)

// ThemeStore persists organization override documents. Each save bumps
// the record version, which doubles as the engine's cache discriminator.
type ThemeStore struct {
	db *DB
}

func NewThemeStore(db *DB) *ThemeStore {
	return &ThemeStore{db: db}
}

const themeColumns = `id, organization_id, template_id, version, overrides, created_at, updated_at`

// Get returns the stored override record for an organization, or nil
// when the organization has no customization.
func (s *ThemeStore) Get(ctx context.Context, orgID string) (*models.ThemeRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+themeColumns+` FROM org_themes WHERE organization_id = ?`, orgID)
	return scanThemeRecord(row)
}

// GetByID returns the record with the given theme id, or nil when absent.
func (s *ThemeStore) GetByID(ctx context.Context, themeID string) (*models.ThemeRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+themeColumns+` FROM org_themes WHERE id = ?`, themeID)
	return scanThemeRecord(row)
}

// Save upserts the full override document for an organization. An
// existing record gets its version bumped; a new one starts at 1.
func (s *ThemeStore) Save(ctx context.Context, orgID string, templateID *string, overrides models.ThemeUpdate) (*models.ThemeRecord, error) {
	doc, err := json.Marshal(overrides)
	if err != nil {
		return nil, fmt.Errorf("encode overrides: %w", err)
	}

	var saved *models.ThemeRecord
	err = s.db.RunInTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT `+themeColumns+` FROM org_themes WHERE organization_id = ?`, orgID)
		existing, err := scanThemeRecord(row)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if existing == nil {
			record := &models.ThemeRecord{
				ID:             uuid.NewString(),
				OrganizationID: orgID,
				TemplateID:     templateID,
				Version:        1,
				Overrides:      overrides,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO org_themes (id, organization_id, template_id, version, overrides, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				record.ID, record.OrganizationID, record.TemplateID, record.Version, string(doc), record.CreatedAt, record.UpdatedAt)
			if err != nil {
				return fmt.Errorf("insert theme record: %w", err)
			}
			saved = record
			return nil
		}

		existing.TemplateID = templateID
		existing.Version++
		existing.Overrides = overrides
		existing.UpdatedAt = now
		_, err = tx.ExecContext(ctx,
			`UPDATE org_themes SET template_id = ?, version = ?, overrides = ?, updated_at = ? WHERE id = ?`,
			existing.TemplateID, existing.Version, string(doc), existing.UpdatedAt, existing.ID)
		if err != nil {
			return fmt.Errorf("update theme record: %w", err)
		}
		saved = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// Delete removes an organization's override record, returning it to
// platform defaults. Deleting a missing record is not an error.
func (s *ThemeStore) Delete(ctx context.Context, orgID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM org_themes WHERE organization_id = ?`, orgID)
	if err != nil {
		return fmt.Errorf("delete theme record: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanThemeRecord(row rowScanner) (*models.ThemeRecord, error) {
	var (
		record     models.ThemeRecord
		templateID sql.NullString
		doc        string
	)
	err := row.Scan(&record.ID, &record.OrganizationID, &templateID, &record.Version, &doc, &record.CreatedAt, &record.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan theme record: %w", err)
	}
	if templateID.Valid {
		record.TemplateID = &templateID.String
	}
	if err := json.Unmarshal([]byte(doc), &record.Overrides); err != nil {
		return nil, fmt.Errorf("decode overrides for theme %s: %w", record.ID, err)
	}
	return &record, nil
}
