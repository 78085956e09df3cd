// Package services contains server-side business logic: the session
// registry and the auth coordinator that ties credentials, sessions and
// tokens together.
package services

import (
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/cryptox"
	"github.com/google/uuid"
)

type options struct {
	now    func() time.Time
	newID  func() string
	hasher *cryptox.Hasher
}

func defaultOptions() options {
	return options{
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
		hasher: cryptox.NewHasher(cryptox.DefaultCost),
	}
}

// Option customizes a service.
type Option func(*options)

// WithClock replaces the wall clock used for activity timestamps and tokens.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator replaces the session uuid generator.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

// WithHasher sets the password hasher.
func WithHasher(h *cryptox.Hasher) Option {
	return func(o *options) { o.hasher = h }
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
