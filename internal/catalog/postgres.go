// internal/catalog/postgres.go
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"scholarship-matcher/internal/models"
)

const ProviderPostgres = "postgres"

const selectActiveScholarships = `
	SELECT id, name, provider, description,
	       award_min, award_max, award_type,
	       eligibility, application_deadline, application_link,
	       requirements, tags,
	       source_name, source_url, last_synced, updated_at
	FROM scholarships
	WHERE active = true
	ORDER BY application_deadline, id
	LIMIT $1`

// PostgresProvider reads active scholarships from the scholarships table.
// eligibility, requirements and tags are JSONB columns.
type PostgresProvider struct {
	db    *sql.DB
	limit int
}

func NewPostgresProvider(db *sql.DB, limit int) *PostgresProvider {
	if limit <= 0 {
		limit = 500
	}
	return &PostgresProvider{db: db, limit: limit}
}

func (p *PostgresProvider) Name() string { return ProviderPostgres }

func (p *PostgresProvider) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *PostgresProvider) Fetch(ctx context.Context) ([]models.ScholarshipRecord, error) {
	rows, err := p.db.QueryContext(ctx, selectActiveScholarships, p.limit)
	if err != nil {
		return nil, fmt.Errorf("query scholarships: %w", err)
	}
	defer rows.Close()

	records := make([]models.ScholarshipRecord, 0)
	for rows.Next() {
		rec, err := scanScholarship(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scholarships: %w", err)
	}
	return records, nil
}

func scanScholarship(rows *sql.Rows) (models.ScholarshipRecord, error) {
	var (
		rec          models.ScholarshipRecord
		description  sql.NullString
		awardType    sql.NullString
		link         sql.NullString
		sourceName   sql.NullString
		sourceURL    sql.NullString
		eligibility  []byte
		requirements []byte
		tags         []byte
		deadline     time.Time
		lastSynced   sql.NullTime
		updatedAt    sql.NullTime
	)

	err := rows.Scan(
		&rec.ID, &rec.Name, &rec.Provider, &description,
		&rec.AwardAmount.Min, &rec.AwardAmount.Max, &awardType,
		&eligibility, &deadline, &link,
		&requirements, &tags,
		&sourceName, &sourceURL, &lastSynced, &updatedAt,
	)
	if err != nil {
		return rec, fmt.Errorf("scan scholarship: %w", err)
	}

	rec.Description = description.String
	rec.AwardAmount.Type = awardType.String
	rec.ApplicationLink = link.String
	rec.ApplicationDeadline = models.NewDate(deadline.Year(), deadline.Month(), deadline.Day())
	rec.Source = models.Source{Name: sourceName.String, URL: sourceURL.String}
	if lastSynced.Valid {
		rec.Source.LastSynced = lastSynced.Time.UTC()
	}
	if updatedAt.Valid {
		rec.LastUpdated = updatedAt.Time.UTC()
	}

	if len(eligibility) > 0 {
		if err := json.Unmarshal(eligibility, &rec.EligibilityCriteria); err != nil {
			return rec, fmt.Errorf("scholarship %s: %w", rec.ID, err)
		}
	}
	if err := decodeStrings(requirements, &rec.Requirements); err != nil {
		return rec, fmt.Errorf("scholarship %s requirements: %w", rec.ID, err)
	}
	if err := decodeStrings(tags, &rec.Tags); err != nil {
		return rec, fmt.Errorf("scholarship %s tags: %w", rec.ID, err)
	}
	return rec, nil
}

func decodeStrings(raw []byte, out *[]string) error {
	if len(raw) == 0 || string(raw) == "null" {
		*out = []string{}
		return nil
	}
	return json.Unmarshal(raw, out)
}
