// FILE: logvault/src/internal/core/types.go
package core

import "time"

// RoleAdmin is the only role allowed to ingest logs. Any other role string is accepted
// at registration and grants read access only.
const RoleAdmin = "admin"

// User is a registered account as held by the credential store
type User struct {
	ID       string `json:"id" bson:"_id,omitempty"`
	Username string `json:"username" bson:"username"`
	Password string `json:"-" bson:"password"`
	Role     string `json:"role" bson:"role"`
}

// Identity is the caller decoded from a verified token
type Identity struct {
	Username  string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IsAdmin reports whether the identity may ingest logs
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
