// Package caller carries the identity of whoever invoked an operation.
// It is passed explicitly to every lifecycle call instead of being read
// from request-scoped globals.
package caller

import "strconv"

const (
	RoleAdmin     = "admin"
	RoleRecruiter = "recruiter"
	RoleCandidate = "candidate"
)

type Actor struct {
	UserID    string
	Role      string
	RequestID string
}

// System is the actor used by the CLI and background tooling.
var System = Actor{UserID: "system", Role: RoleAdmin}

func (a Actor) IsCandidate() bool { return a.Role == RoleCandidate }

// Owns reports whether a candidate actor is the given candidate. Non
// candidate roles own nothing.
func (a Actor) Owns(candidateID int64) bool {
	return a.IsCandidate() && a.UserID == strconv.FormatInt(candidateID, 10)
}
