package models

import (
	"strings"
	"time"
)

// Authorization is an external provider credential linked to a user. At
// most one exists per (UserID, Provider).
type Authorization struct {
	ID        string
	UserID    string
	Provider  string
	UID       string
	Token     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProviderAttributes are the fields a caller supplies to link a provider.
type ProviderAttributes struct {
	UID   string `json:"uid"`
	Token string `json:"token"`
}

// Blank reports whether a required field is missing.
func (p ProviderAttributes) Blank() bool {
	return strings.TrimSpace(p.UID) == "" || strings.TrimSpace(p.Token) == ""
}
