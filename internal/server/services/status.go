package services

import "github.com/dmitrijs2005/notekeeper/internal/common"

// NameEmailStatus says which of a proposed name and email are already taken.
type NameEmailStatus int

const (
	NothingExists NameEmailStatus = iota
	NameExists
	EmailExists
	BothExist
)

func statusOf(nameTaken, emailTaken bool) NameEmailStatus {
	switch {
	case nameTaken && emailTaken:
		return BothExist
	case nameTaken:
		return NameExists
	case emailTaken:
		return EmailExists
	default:
		return NothingExists
	}
}

func (s NameEmailStatus) String() string {
	switch s {
	case NothingExists:
		return "nothing_exists"
	case NameExists:
		return "name_exists"
	case EmailExists:
		return "email_exists"
	case BothExist:
		return "both_exist"
	default:
		return "unknown"
	}
}

// Message is the user-facing text for a conflicting status, or "" for
// NothingExists.
func (s NameEmailStatus) Message() string {
	switch s {
	case NameExists:
		return "Name already exist"
	case EmailExists:
		return "Email already exist"
	case BothExist:
		return "Both name and email already exist"
	default:
		return ""
	}
}

// ConflictError rejects an account whose name or email is taken.
type ConflictError struct {
	Status NameEmailStatus
	Msg    string
}

func newConflictError(s NameEmailStatus) *ConflictError {
	return &ConflictError{Status: s, Msg: s.Message()}
}

func (e *ConflictError) Error() string { return e.Msg }

func (e *ConflictError) Unwrap() error { return common.ErrValidationConflict }
