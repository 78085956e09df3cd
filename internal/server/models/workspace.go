package models

import "time"

// Workspace and Note mirror tables that exist in the schema for forward
// compatibility. No service operates on them yet.
type Workspace struct {
	ID      int64
	Name    string
	OwnerID int64
}

type Note struct {
	ID            int64
	Name          string
	OwnerID       int64
	IsInWorkspace bool
	HasChildren   bool
	Path          string
	// RealPath is the file name inside the notes directory.
	RealPath   string
	CreatedAt  time.Time
	LastEditAt time.Time
}
