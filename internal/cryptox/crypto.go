// Package cryptox implements the credential store: one-way password hashing
// and verification on top of bcrypt. Every hash carries its own random salt
// and cost, so the same password never hashes to the same string twice.
package cryptox

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is used when a Hasher is created with a cost outside the range
// bcrypt accepts.
const DefaultCost = bcrypt.DefaultCost

// Hasher produces and checks password hashes at a fixed bcrypt cost.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher using cost, falling back to DefaultCost when
// cost is out of bcrypt's [MinCost, MaxCost] range.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns the bcrypt hash of password. Passwords longer than 72 bytes
// are rejected by bcrypt.
func (h *Hasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Verify reports whether password matches hash. A malformed hash yields
// false.
func (h *Hasher) Verify(password, hash string) bool {
	return VerifyPassword(password, hash)
}

// HashPassword hashes with DefaultCost.
func HashPassword(password string) (string, error) {
	return NewHasher(DefaultCost).Hash(password)
}

// VerifyPassword compares password with a bcrypt hash in constant time.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
