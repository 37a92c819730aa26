// Package entities defines the authoritative data model described in spec
// §3: players, projectiles, beams, field effects, obstacles, attribute
// modifications, and the active hazard event.
package entities

import "sync/atomic"

// EntityID is a match-unique, monotonically increasing identifier minted by
// a per-match generator. It is never reused within a match.
type EntityID uint64

// PlayerID identifies a session and survives the owning player's death and
// respawn, unlike EntityID which is reminted for each new player body.
type PlayerID string

// IDGenerator mints monotonic EntityIDs for exactly one match. Each match
// owns its own generator; there is no process-global counter (spec §9,
// "global singletons").
type IDGenerator struct {
	counter atomic.Uint64
}

// Next returns the next unused EntityID.
func (g *IDGenerator) Next() EntityID {
	return EntityID(g.counter.Add(1))
}
