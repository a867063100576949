package types

import "strings"

var placeholderNames = map[string]bool{
	"user":  true,
	"guest": true,
}

type Profile struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
}

// IsPlaceholder reports whether the profile still carries the values seeded
// at phone sign-up.
func (p Profile) IsPlaceholder() bool {
	name := strings.ToLower(strings.TrimSpace(p.Name))
	email := strings.ToLower(strings.TrimSpace(p.Email))
	if name == "" || email == "" {
		return true
	}
	if placeholderNames[name] {
		return true
	}
	return strings.Contains(email, "@placeholder.")
}

type ProfileUpdate struct {
	Name  string `json:"name" validate:"required,min=2,max=80"`
	Email string `json:"email" validate:"required,email"`
}
