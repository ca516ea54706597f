package game

import (
	"time"

	"github.com/trytobebee/snakeai/pkg/config"
)

// Ledger tracks collected power-up effects until they expire
type Ledger struct {
	active []ActivePowerUp
}

// Collect activates kind until now plus its duration. Collecting a kind that
// is already active adds a second entry.
func (l *Ledger) Collect(kind PowerUpKind, now time.Time) ActivePowerUp {
	a := ActivePowerUp{Kind: kind, ExpiresAt: now.Add(kind.Duration())}
	l.active = append(l.active, a)
	return a
}

// SweepExpired drops every effect whose expiry is not after now and returns
// their kinds in collection order.
func (l *Ledger) SweepExpired(now time.Time) []PowerUpKind {
	var expired []PowerUpKind
	kept := l.active[:0]
	for _, a := range l.active {
		if now.Before(a.ExpiresAt) {
			kept = append(kept, a)
		} else {
			expired = append(expired, a.Kind)
		}
	}
	l.active = kept
	return expired
}

// Active returns a copy of the active effects
func (l *Ledger) Active() []ActivePowerUp {
	out := make([]ActivePowerUp, len(l.active))
	copy(out, l.active)
	return out
}

// Find returns the first active effect of kind
func (l *Ledger) Find(kind PowerUpKind) (ActivePowerUp, bool) {
	for _, a := range l.active {
		if a.Kind == kind {
			return a, true
		}
	}
	return ActivePowerUp{}, false
}

// Has reports whether kind is active
func (l *Ledger) Has(kind PowerUpKind) bool {
	_, ok := l.Find(kind)
	return ok
}

// EffectiveInterval applies the speed effects to base. SpeedUp wins over SlowDown.
func (l *Ledger) EffectiveInterval(base time.Duration) time.Duration {
	switch {
	case l.Has(SpeedUp):
		return base / 2
	case l.Has(SlowDown):
		return base * 2
	default:
		return base
	}
}

// ScoreMultiplier returns the food score multiplier currently in force
func (l *Ledger) ScoreMultiplier() int {
	if l.Has(ScoreMultiplier) {
		return config.ScoreMultiplier
	}
	return 1
}

// Reset drops every effect
func (l *Ledger) Reset() {
	l.active = nil
}

// SweepFoods splits foods into those still on the board at now and those
// that expired uncollected.
func SweepFoods(foods []PowerUpFood, now time.Time) (kept, expired []PowerUpFood) {
	for _, f := range foods {
		if f.Expired(now) {
			expired = append(expired, f)
		} else {
			kept = append(kept, f)
		}
	}
	return kept, expired
}
