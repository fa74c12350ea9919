package usecase

import (
	"bytes"
	"testing"
	"time"

	"student-profile-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func exportFixture() []domain.ProfileAggregate {
	batch := "2023"
	return []domain.ProfileAggregate{{
		Profile: domain.Profile{
			Name:      "Ana García",
			Email:     "ana@example.com",
			Batch:     &batch,
			UpdatedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		},
		Education: []domain.Education{{}, {}},
		Skills:    []domain.Skill{{Name: "Go"}},
	}}
}

func TestRenderExportExcel(t *testing.T) {
	now := time.Date(2024, 3, 2, 8, 30, 15, 0, time.UTC)
	file, err := renderExport(exportFixture(), "", now)
	require.NoError(t, err)

	assert.Equal(t, "student_profiles_20240302_083015.xlsx", file.Filename)
	assert.Equal(t, contentTypeXLSX, file.ContentType)

	wb, err := excelize.OpenReader(bytes.NewReader(file.Data))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows("Profiles")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, exportHeaders, rows[0])
	assert.Equal(t, "Ana García", rows[1][0])
	assert.Equal(t, "2023", rows[1][3])
	assert.Equal(t, "2", rows[1][6])
	assert.Equal(t, "Go", rows[1][10])
	assert.Equal(t, "2024-03-01T10:00:00Z", rows[1][11])
}

func TestRenderExportRejectsUnknownFormat(t *testing.T) {
	_, err := renderExport(nil, "pdf", time.Now())
	assert.Error(t, err)
}

func TestCSVSafe(t *testing.T) {
	assert.Equal(t, "'=HYPERLINK(\"x\")", csvSafe("=HYPERLINK(\"x\")"))
	assert.Equal(t, "'@SUM(A1)", csvSafe("@SUM(A1)"))
	assert.Equal(t, "Ana", csvSafe("Ana"))
	assert.Equal(t, "", csvSafe(""))
}
