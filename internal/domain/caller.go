package domain

// Caller is the identity resolved for one request.
// It is passed by value into every usecase call.
type Caller struct {
	ID      string `json:"id"`
	Email   string `json:"email,omitempty"`
	IsAdmin bool   `json:"is_admin"`
}

// Owns reports whether the caller owns the given profile.
func (c Caller) Owns(p *Profile) bool {
	return p != nil && c.ID != "" && p.UserID == c.ID
}
