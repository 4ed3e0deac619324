// Package models defines the typed records the server persists and returns.
package models

import (
	"net/mail"
	"strings"
	"time"

	"github.com/dmitrijs2005/registrar/internal/common"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// UserInfo is the denormalized copy of a directory identity kept in the
// relational store for profile reads.
type UserInfo struct {
	Username string
	First    string
	Last     string
	// ThumbnailKey is the blob-store key of the user's PNG thumbnail.
	ThumbnailKey string
	CreatedAt    time.Time
}

// NewUser is a registration request after decoding.
type NewUser struct {
	Username string
	First    string
	Last     string
	Email    string
	Password string
}

// Validate rejects a registration request before it reaches the directory.
func (u *NewUser) Validate() error {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.TrimSpace(u.Email)

	switch {
	case u.Username == "":
		return common.ValidationError("username", "required")
	case strings.ContainsAny(u.Username, "@ \t\r\n"):
		return common.ValidationError("username", "must not contain '@' or whitespace")
	case u.Last == "":
		return common.ValidationError("last", "required")
	case len(u.Password) < MinPasswordLength:
		return common.ValidationError("password", "must be at least 6 characters")
	}

	addr, err := mail.ParseAddress(u.Email)
	if err != nil || addr.Address != u.Email {
		return common.ValidationError("email", "not a valid address")
	}
	return nil
}

// Info returns the UserInfo row for this registration.
func (u *NewUser) Info() *UserInfo {
	return &UserInfo{Username: u.Username, First: u.First, Last: u.Last}
}

// UserProfile is the read-only aggregate returned by the profile endpoint.
type UserProfile struct {
	User      UserInfo
	Thumbnail []byte
	Sessions  []SessionRecord
}
