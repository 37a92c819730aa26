package entities

import "time"

// ModificationKind is the tagged-sum discriminator for attribute
// modifications (spec §9 "attribute modifications as closures" — re-expressed
// as a tagged variant with stored parameters and a fixed dispatcher rather
// than a runtime-constructed closure, so replacement semantics and
// serialization stay simple).
type ModificationKind string

const (
	ModBurning       ModificationKind = "BURNING"
	ModPoisoned      ModificationKind = "POISON"
	ModSlowed        ModificationKind = "SLOW"
	ModSpeedBoosted  ModificationKind = "SPEED"
	ModInvincible    ModificationKind = "INVINCIBLE"
	ModResistant     ModificationKind = "RESISTANT"
	ModDamageBoosted ModificationKind = "DAMAGE_BOOST"
	ModAmmoFrozen    ModificationKind = "AMMO_FREEZE"
	ModBallCarrier   ModificationKind = "BALL_CARRIER"
	ModVIPStatus     ModificationKind = "VIP_STATUS"
)

// Modification is a time-bounded hook set attached to a player (spec §3
// AttributeModification). Exactly one modification may exist per (player,
// Key) at a time; attaching a new one with the same Key replaces the old one
// after reverting it (spec §4.5 "status-effect replacement").
type Modification struct {
	Key    string
	Kind   ModificationKind
	Expiry time.Time

	// Params carries kind-specific magnitudes: damage-per-second, damping
	// coefficient, speed multiplier, resistance percentage, and so on. The
	// dispatcher in the effects package interprets these per Kind.
	Params map[string]float64
}

// Expired reports whether the modification should be reverted this tick.
func (m Modification) Expired(now time.Time) bool {
	return !m.Expiry.IsZero() && !now.Before(m.Expiry)
}

// ModificationSet is the ordered collection of modifications attached to one
// player. Order matters: the effective weapon and effective incoming damage
// are computed by folding modifications in insertion order (spec §4.5).
type ModificationSet struct {
	order []string
	byKey map[string]Modification
}

// NewModificationSet constructs an empty ordered set.
func NewModificationSet() *ModificationSet {
	return &ModificationSet{byKey: make(map[string]Modification)}
}

// Attach inserts or replaces the modification for mod.Key, preserving the
// new modification's position at the end of iteration order. It returns the
// previous modification (if any) so the caller can fire its revert hook.
func (s *ModificationSet) Attach(mod Modification) (previous Modification, hadPrevious bool) {
	if s.byKey == nil {
		s.byKey = make(map[string]Modification)
	}
	previous, hadPrevious = s.byKey[mod.Key]
	if hadPrevious {
		s.removeFromOrder(mod.Key)
	}
	s.byKey[mod.Key] = mod
	s.order = append(s.order, mod.Key)
	return previous, hadPrevious
}

// Remove deletes the modification for key, if present, and returns it.
func (s *ModificationSet) Remove(key string) (Modification, bool) {
	mod, ok := s.byKey[key]
	if !ok {
		return Modification{}, false
	}
	delete(s.byKey, key)
	s.removeFromOrder(key)
	return mod, true
}

func (s *ModificationSet) removeFromOrder(key string) {
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// ExpireAll removes every modification whose expiry has elapsed, invoking fn
// with each removed modification so the caller can run its revert hook.
func (s *ModificationSet) ExpireAll(now time.Time, fn func(Modification)) {
	for _, key := range append([]string(nil), s.order...) {
		mod := s.byKey[key]
		if mod.Expired(now) {
			s.Remove(key)
			if fn != nil {
				fn(mod)
			}
		}
	}
}

// InOrder returns the attached modifications in insertion order.
func (s *ModificationSet) InOrder() []Modification {
	out := make([]Modification, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.byKey[key])
	}
	return out
}

// Has reports whether a modification with the given key is attached.
func (s *ModificationSet) Has(key string) bool {
	_, ok := s.byKey[key]
	return ok
}

// Get returns the modification for key, if attached.
func (s *ModificationSet) Get(key string) (Modification, bool) {
	mod, ok := s.byKey[key]
	return mod, ok
}

// Len reports how many modifications are currently attached.
func (s *ModificationSet) Len() int {
	return len(s.order)
}
