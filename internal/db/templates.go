package db

import (
	"context"
	"fmt"
)

// AdoptionStore tracks which organizations adopted which catalog
// template. Counts feed the catalog's popularity ordering.
type AdoptionStore struct {
	db *DB
}

func NewAdoptionStore(db *DB) *AdoptionStore {
	return &AdoptionStore{db: db}
}

// RecordAdoption marks templateID as adopted by orgID. Re-adopting the
// same template refreshes the timestamp instead of duplicating the row.
func (s *AdoptionStore) RecordAdoption(ctx context.Context, templateID, orgID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO template_adoptions (template_id, organization_id)
		 VALUES (?, ?)
		 ON CONFLICT (template_id, organization_id)
		 DO UPDATE SET adopted_at = CURRENT_TIMESTAMP`,
		templateID, orgID)
	if err != nil {
		return fmt.Errorf("record template adoption: %w", err)
	}
	return nil
}

// AdoptionCounts returns the number of adopting organizations per
// template id.
func (s *AdoptionStore) AdoptionCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT template_id, COUNT(*) FROM template_adoptions GROUP BY template_id`)
	if err != nil {
		return nil, fmt.Errorf("query template adoptions: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			id    string
			count int
		)
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("scan adoption count: %w", err)
		}
		counts[id] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate adoption counts: %w", err)
	}
	return counts, nil
}
