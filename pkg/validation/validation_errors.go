package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldLabels maps struct field names to user-facing labels
var FieldLabels = map[string]string{
	// Profile
	"Name":         "Name",
	"Email":        "Email",
	"Profession":   "Profession",
	"Batch":        "Batch",
	"About":        "About",
	"ProfileImage": "Profile image",
	"Phone":        "Phone number",
	"LinkedIn":     "LinkedIn URL",

	// Education
	"Institution": "Institution",
	"Degree":      "Degree",
	"Field":       "Field of study",

	// Experience
	"Company":  "Company",
	"Position": "Position",

	// Shared child fields
	"StartDate":   "Start date",
	"EndDate":     "End date",
	"Description": "Description",

	// Skill
	"Level": "Skill level",

	// Project
	"GithubLink": "Repository link",
	"Images":     "Images",
}

// FormatValidationErrors converts validator.ValidationErrors to user-friendly messages
func FormatValidationErrors(err error) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, formatSingleError(e))
	}
	return messages
}

func formatSingleError(e validator.FieldError) string {
	label := getFieldLabel(e.Field())
	param := e.Param()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)

	case "min":
		if e.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", label, param)
		}
		return fmt.Sprintf("%s must be at least %s", label, param)

	case "max":
		switch e.Kind().String() {
		case "string":
			return fmt.Sprintf("%s must be at most %s characters", label, param)
		case "slice":
			return fmt.Sprintf("%s accepts at most %s items", label, param)
		}
		return fmt.Sprintf("%s must be at most %s", label, param)

	case "email":
		return fmt.Sprintf("%s is not a valid email address", label)

	case "url":
		return fmt.Sprintf("%s is not a valid URL", label)

	case "valid_name":
		return fmt.Sprintf("%s may only contain letters, digits, spaces and common punctuation", label)

	case "valid_phone":
		return fmt.Sprintf("%s must be 7-15 digits, optionally starting with +", label)

	case "no_emoji":
		return fmt.Sprintf("%s must not contain emoji or symbols", label)

	default:
		return fmt.Sprintf("%s is invalid (%s)", label, e.Tag())
	}
}

func getFieldLabel(fieldName string) string {
	if label, ok := FieldLabels[fieldName]; ok {
		return label
	}
	return formatCamelCase(fieldName)
}

// formatCamelCase converts CamelCase to spaced words
func formatCamelCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteRune(' ')
		}
		result.WriteRune(r)
	}
	return result.String()
}
