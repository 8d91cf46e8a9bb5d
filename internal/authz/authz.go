// Package authz holds the ownership and participation rules every
// resource handler enforces after authentication.
package authz

import "errors"

var ErrForbidden = errors.New("forbidden")

// Owns allows the caller only when they are the record's owner.
func Owns(callerID, ownerID string) error {
	if callerID == "" || callerID != ownerID {
		return ErrForbidden
	}
	return nil
}

// Participates allows the caller only when listed among participants.
func Participates(callerID string, participants []string) error {
	if callerID == "" {
		return ErrForbidden
	}
	for _, p := range participants {
		if p == callerID {
			return nil
		}
	}
	return ErrForbidden
}

// HasRole reports whether role is in the allowed set.
func HasRole(role string, allowed ...string) bool {
	for _, a := range allowed {
		if a == role {
			return true
		}
	}
	return false
}
