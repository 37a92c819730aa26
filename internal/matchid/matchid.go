// Package matchid mints identifiers for matches and anonymous sessions,
// grounded on the pack's use of github.com/google/uuid for server/session
// registration (MOHCentral-opm-stats-api's server_registration.go mints
// server IDs the same way).
package matchid

import "github.com/google/uuid"

// New mints a fresh match identifier.
func New() string {
	return uuid.New().String()
}

// NewSession mints a fresh anonymous session identifier, used as a player's
// id when a client connects without supplying its own.
func NewSession() string {
	return uuid.New().String()
}
