package models

import "time"

// Session records one successful login. Tokens reference it by UUID.
type Session struct {
	UUID       string
	UserID     int64
	ClientName string
	IP         string
	CreatedAt  time.Time
	LastActive time.Time
}
