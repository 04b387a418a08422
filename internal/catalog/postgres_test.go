package catalog

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scholarshipColumns = []string{
	"id", "name", "provider", "description",
	"award_min", "award_max", "award_type",
	"eligibility", "application_deadline", "application_link",
	"requirements", "tags",
	"source_name", "source_url", "last_synced", "updated_at",
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestPostgresProvider_Fetch(t *testing.T) {
	db, mock := setupMockDB(t)
	synced := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(scholarshipColumns).
		AddRow("stem-1", "STEM Grant", "Tech Council", "For builders",
			2500.0, 10000.0, "renewable",
			[]byte(`{"minGPA":3.0,"fieldOfStudy":["Engineering"]}`), time.Date(2026, 11, 15, 0, 0, 0, 0, time.UTC), "https://example.com/stem",
			[]byte(`["Portfolio"]`), []byte(`["stem","technology"]`),
			"CareerOneStop", "https://www.careeronestop.org", synced, synced).
		AddRow("open-1", "Open Award", "Fund", nil,
			500.0, 500.0, nil,
			nil, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), nil,
			nil, []byte(`null`),
			nil, nil, nil, nil)

	mock.ExpectQuery(`SELECT id, name, provider`).WithArgs(50).WillReturnRows(rows)

	p := NewPostgresProvider(db, 50)
	records, err := p.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	stem := records[0]
	assert.Equal(t, "stem-1", stem.ID)
	assert.True(t, stem.EligibilityCriteria.HasMinGPA())
	assert.False(t, stem.EligibilityCriteria.HasGradeLevels())
	assert.Equal(t, []string{"Engineering"}, stem.EligibilityCriteria.FieldsOfStudy)
	assert.Equal(t, "2026-11-15", stem.ApplicationDeadline.String())
	assert.Equal(t, []string{"stem", "technology"}, stem.Tags)
	assert.Equal(t, synced, stem.Source.LastSynced)

	open := records[1]
	assert.Empty(t, open.Description)
	assert.False(t, open.EligibilityCriteria.HasMinGPA())
	assert.Equal(t, []string{}, open.Tags)
	assert.Equal(t, []string{}, open.Requirements)
	assert.True(t, open.Source.LastSynced.IsZero())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProvider_DefaultLimit(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(`FROM scholarships`).WithArgs(500).WillReturnRows(sqlmock.NewRows(scholarshipColumns))

	records, err := NewPostgresProvider(db, 0).Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProvider_Errors(t *testing.T) {
	t.Run("query", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectQuery(`FROM scholarships`).WillReturnError(errors.New("relation does not exist"))

		_, err := NewPostgresProvider(db, 10).Fetch(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "query scholarships")
	})

	t.Run("bad eligibility json", func(t *testing.T) {
		db, mock := setupMockDB(t)
		rows := sqlmock.NewRows(scholarshipColumns).
			AddRow("bad", "Bad", "P", nil, 1.0, 2.0, nil,
				[]byte(`{"gradeLevel":"undergraduate"}`), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), nil,
				nil, nil, nil, nil, nil, nil)
		mock.ExpectQuery(`FROM scholarships`).WillReturnRows(rows)

		_, err := NewPostgresProvider(db, 10).Fetch(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "scholarship bad")
	})

	t.Run("row error", func(t *testing.T) {
		db, mock := setupMockDB(t)
		rows := sqlmock.NewRows(scholarshipColumns).
			AddRow("a", "A", "P", nil, 1.0, 2.0, nil, nil, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), nil, nil, nil, nil, nil, nil, nil).
			RowError(0, errors.New("connection reset"))
		mock.ExpectQuery(`FROM scholarships`).WillReturnRows(rows)

		_, err := NewPostgresProvider(db, 10).Fetch(context.Background())
		assert.Error(t, err)
	})
}
