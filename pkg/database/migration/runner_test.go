package migration

import (
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrdersByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"V10__later.sql":  {Data: []byte("SELECT 10;")},
		"V2__second.sql":  {Data: []byte("SELECT 2;")},
		"README.md":       {Data: []byte("ignored")},
		"V1__initial.sql": {Data: []byte("  SELECT 1;\n")},
	}

	migs, err := Load(fsys)
	require.NoError(t, err)
	require.Len(t, migs, 3)

	assert.Equal(t, []int64{1, 2, 10}, []int64{migs[0].Version, migs[1].Version, migs[2].Version})
	assert.Equal(t, "initial", migs[0].Name)
	assert.Equal(t, "SELECT 1;", migs[0].SQL)
	assert.Len(t, migs[0].Checksum, 64)
}

func TestLoadRejectsDuplicatesAndEmptyFiles(t *testing.T) {
	_, err := Load(fstest.MapFS{
		"V1__a.sql":  {Data: []byte("SELECT 1;")},
		"V01__b.sql": {Data: []byte("SELECT 1;")},
	})
	assert.ErrorContains(t, err, "duplicate migration version")

	_, err = Load(fstest.MapFS{"V1__empty.sql": {Data: []byte("   ")}})
	assert.ErrorContains(t, err, "empty migration file")
}

func TestEmbeddedSchemaCreatesEveryTable(t *testing.T) {
	sub, err := fs.Sub(embedded, "sql")
	require.NoError(t, err)

	migs, err := Load(sub)
	require.NoError(t, err)
	require.NotEmpty(t, migs)

	for _, table := range []string{"profiles", "educations", "experiences", "skills", "projects", "project_images"} {
		assert.Contains(t, migs[0].SQL, "CREATE TABLE IF NOT EXISTS "+table+" ")
	}
}
