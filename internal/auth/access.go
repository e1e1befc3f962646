// Package auth implements session-based authentication and the access-level
// policy gating the admin API.
package auth

import "github.com/wardenhq/warden/internal/model"

// IsAuthorized reports whether an actor holding actual satisfies a resource
// requiring required, under the total order
// user < support < moderator < administrator. Pure function; every
// authorization check in the system goes through it.
func IsAuthorized(required, actual model.AccessLevel) bool {
	return required <= actual
}
