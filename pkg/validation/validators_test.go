package validation_test

import (
	"testing"

	"student-profile-backend/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name    string `validate:"required,valid_name"`
	Phone   string `validate:"valid_phone"`
	Title   string `validate:"no_emoji"`
	Website string `validate:"omitempty,url"`
}

func TestCustomValidators(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name  string
		input sample
		ok    bool
	}{
		{"accented name", sample{Name: "Ana García"}, true},
		{"name with digits and punctuation", sample{Name: "J. O'Neil-Smith 2nd"}, true},
		{"name with symbols", sample{Name: "Ana <script>"}, false},
		{"phone with formatting", sample{Name: "Ana", Phone: "+62 812-3456-7890"}, true},
		{"phone too short", sample{Name: "Ana", Phone: "12345"}, false},
		{"emoji title", sample{Name: "Ana", Title: "Engineer 🚀"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.input)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestFormatValidationErrors(t *testing.T) {
	v := validation.New()

	err := v.Struct(sample{Phone: "abc", Website: "not a url"})
	require.Error(t, err)

	messages := validation.FormatValidationErrors(err)
	assert.Contains(t, messages, "Name is required")
	assert.Contains(t, messages, "Phone number must be 7-15 digits, optionally starting with +")
	assert.Contains(t, messages, "Website is not a valid URL")
}
