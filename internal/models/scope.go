package models

// Scope identifies the requester for row-level access control. Repositories
// narrow every read and mutation to rows owned by UserID unless Superuser
// is set, in which case queries run unscoped.
type Scope struct {
	UserID    string
	Superuser bool
}

// Owns reports whether the scope may touch a row owned by userID.
func (s Scope) Owns(userID string) bool {
	return s.Superuser || s.UserID == userID
}
