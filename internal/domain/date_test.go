package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateUnmarshalJSON(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-02-29"`), &d))
	assert.Equal(t, "2024-02-29", d.String())

	require.NoError(t, json.Unmarshal([]byte(`"2024-02-29T23:10:00Z"`), &d))
	assert.Equal(t, "2024-02-29", d.String())

	require.NoError(t, json.Unmarshal([]byte(`"  "`), &d))
	assert.True(t, d.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"29/02/2024"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`20240229`), &d))
}

func TestEducationInputBlankEndDate(t *testing.T) {
	var in EducationInput
	require.NoError(t, json.Unmarshal([]byte(`{"institution":"ITB","start_date":"2020-09-01","end_date":""}`), &in))
	require.NotNil(t, in.EndDate)
	assert.True(t, in.EndDate.IsZero())
}
