package postgres

import (
	"fmt"
	"strings"

	"student-profile-backend/internal/domain"

	"golang.org/x/text/unicode/norm"
)

const profileColumns = `id, user_id, name, email, profession, batch, about, profile_image, phone, linkedin, created_at, updated_at`

// buildProfileFilter renders the WHERE clause for the admin listing.
// Placeholders start at argIndex. An empty filter yields an empty clause.
func buildProfileFilter(filter domain.ProfileFilter, argIndex int) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}

	if search := normalizeSearch(filter.Search); search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR profession ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+escapeLike(search)+"%")
		argIndex++
	}

	if batch := strings.TrimSpace(filter.Batch); batch != "" && !strings.EqualFold(batch, domain.BatchAll) {
		conditions = append(conditions, fmt.Sprintf("batch = $%d", argIndex))
		args = append(args, batch)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// normalizeSearch trims the term and composes it to NFC so that decomposed
// input matches composed stored text.
func normalizeSearch(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// escapeLike makes %, _ and the escape character itself match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// buildProfilePatch renders SET assignments for the supplied fields, always
// bumping updated_at. Optional fields supplied as "" are written as NULL.
func buildProfilePatch(fields domain.ProfileFields, argIndex int) ([]string, []interface{}) {
	sets := []string{}
	args := []interface{}{}

	add := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argIndex))
		args = append(args, value)
		argIndex++
	}

	if fields.Name != nil {
		add("name", *fields.Name)
	}
	if fields.Email != nil {
		add("email", *fields.Email)
	}
	if fields.Profession != nil {
		add("profession", nullable(fields.Profession))
	}
	if fields.Batch != nil {
		add("batch", nullable(fields.Batch))
	}
	if fields.About != nil {
		add("about", nullable(fields.About))
	}
	if fields.ProfileImage != nil {
		add("profile_image", nullable(fields.ProfileImage))
	}
	if fields.Phone != nil {
		add("phone", nullable(fields.Phone))
	}
	if fields.LinkedIn != nil {
		add("linkedin", nullable(fields.LinkedIn))
	}

	sets = append(sets, "updated_at = now()")
	return sets, args
}

// nullable maps an absent or empty optional value to SQL NULL.
func nullable(p *string) interface{} {
	if p == nil || *p == "" {
		return nil
	}
	return *p
}

func nullableDate(d *domain.Date) interface{} {
	if d == nil || d.IsZero() {
		return nil
	}
	return d.String()
}

func isBlank(p *string) bool {
	return p == nil || strings.TrimSpace(*p) == ""
}
