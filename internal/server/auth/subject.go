package auth

import (
	"strconv"
	"strings"

	"github.com/dmitrijs2005/notekeeper/internal/common"
)

// Subject is the decoded payload of an access token.
type Subject struct {
	SessionUUID string
	UserID      int64
}

// String renders the wire form "<session_uuid>:<user_id>".
func (s Subject) String() string {
	return s.SessionUUID + ":" + strconv.FormatInt(s.UserID, 10)
}

// ParseSubject splits raw on its first ':'. The session part must be
// non-empty and the user part a base-10 integer.
func ParseSubject(raw string) (Subject, error) {
	sessionUUID, userID, ok := strings.Cut(raw, ":")
	if !ok || sessionUUID == "" {
		return Subject{}, common.ErrTokenMalformed
	}

	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return Subject{}, common.ErrTokenMalformed
	}

	return Subject{SessionUUID: sessionUUID, UserID: id}, nil
}
