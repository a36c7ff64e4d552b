package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pario-ai/badgeshot/pkg/models"
)

func TestBuildCounts(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	results := []models.ImageResult{
		{ID: "a", Gender: models.Male},
		{ID: "b", Gender: models.Male},
		{ID: "c", Gender: models.Female},
	}

	m := Build(results, "corporate", "png", 0.12, "1.2.3", now)
	assert.Equal(t, 3, m.Metadata.TotalCount)
	assert.Equal(t, 2, m.Metadata.MaleCount)
	assert.Equal(t, 1, m.Metadata.FemaleCount)
	assert.Equal(t, 0.12, m.Metadata.CostUSD)
	assert.Equal(t, now, m.Metadata.GeneratedAt)
	assert.Equal(t, "1.2.3", m.Metadata.ToolVersion)
	assert.Len(t, m.Images, 3)
}

func TestWriteEmptyBatch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	path, err := Write(dir, Build(nil, "corporate", "jpg", 0, "dev", time.Now()))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `"images": []`)
	assert.Contains(t, text, `"totalCount": 0`)
	assert.Contains(t, text, `"costUsd": 0`)
	assert.True(t, strings.HasPrefix(text, "{\n  \"metadata\""), "two-space indent")
}

func TestWriteOverwrites(t *testing.T) {
	dir := t.TempDir()
	first := Build([]models.ImageResult{{ID: "old", Gender: models.Female}}, "casual", "png", 0.04, "dev", time.Now())
	_, err := Write(dir, first)
	require.NoError(t, err)

	second := Build([]models.ImageResult{{ID: "new", Gender: models.Male}, {ID: "new2", Gender: models.Female}}, "casual", "png", 0.08, "dev", time.Now())
	path, err := Write(dir, second)
	require.NoError(t, err)

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Metadata.TotalCount)
	assert.Equal(t, "new", got.Images[0].ID)
}

func TestReadErrors(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "read manifest")

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err = Read(path)
	assert.ErrorContains(t, err, "parse manifest")
}
