package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func TestStaticProvider_BuiltIns(t *testing.T) {
	p, err := NewStaticProvider("", fixedClock)
	require.NoError(t, err)
	assert.Equal(t, "static", p.Name())

	records, err := p.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)

	ids := []string{records[0].ID, records[1].ID, records[2].ID}
	assert.Equal(t, []string{"merit-excellence-2025", "stem-innovation-2025", "diversity-inclusion-2025"}, ids)

	stem := records[1]
	assert.Equal(t, 3.0, *stem.EligibilityCriteria.MinGPA)
	assert.Equal(t, []string{"Computer Science", "Engineering", "Mathematics", "Physics"}, stem.EligibilityCriteria.FieldsOfStudy)
	assert.Equal(t, "2025-11-15", stem.ApplicationDeadline.String())
	assert.Equal(t, "renewable", stem.AwardAmount.Type)

	for _, rec := range records {
		assert.Equal(t, fixedNow, rec.Source.LastSynced)
		assert.Equal(t, fixedNow, rec.LastUpdated)
	}
	assert.False(t, records[0].EligibilityCriteria.HasFieldsOfStudy())
}

func TestStaticProvider_FetchReturnsFreshCopies(t *testing.T) {
	p, err := NewStaticProvider("", fixedClock)
	require.NoError(t, err)

	first, err := p.Fetch(context.Background())
	require.NoError(t, err)
	first[0].Name = "mutated"

	second, err := p.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Academic Excellence Scholarship", second[0].Name)
}

func TestStaticProvider_SeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id":"local-1","name":"Local Award","applicationDeadline":"2026-08-01","awardAmount":{"min":100,"max":200,"type":"one-time"}}
	]`), 0o600))

	p, err := NewStaticProvider(path, fixedClock)
	require.NoError(t, err)

	records, err := p.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "local-1", records[0].ID)
}

func TestStaticProvider_SeedFileMissing(t *testing.T) {
	_, err := NewStaticProvider(filepath.Join(t.TempDir(), "missing.json"), fixedClock)
	assert.Error(t, err)
}

func TestStaticProvider_CancelledContext(t *testing.T) {
	p, err := NewStaticProvider("", fixedClock)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
