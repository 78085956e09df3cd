// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account. Name and Email are each unique across all users.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	IsActivated  bool
	// LastActive is nil until the first authenticated request.
	LastActive *time.Time
}

// UserOut is the public projection of a User; it never carries the hash.
type UserOut struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	IsActivated bool       `json:"is_activated"`
	LastActive  *time.Time `json:"last_active"`
}

func (u *User) Out() *UserOut {
	if u == nil {
		return nil
	}
	return &UserOut{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		IsActivated: u.IsActivated,
		LastActive:  u.LastActive,
	}
}
