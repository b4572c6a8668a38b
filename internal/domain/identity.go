package domain

import "strings"

// Identity is the authenticated user as returned by signup/login.
type Identity struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// Valid reports whether both fields are present.
func (i *Identity) Valid() bool {
	return i != nil && strings.TrimSpace(i.UserID) != "" && strings.TrimSpace(i.Username) != ""
}
