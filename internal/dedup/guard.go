package dedup

import (
	"sync"
	"time"
)

const (
	MinCooldown     = 4000 * time.Millisecond
	MaxCooldown     = 5000 * time.Millisecond
	DefaultCooldown = 4500 * time.Millisecond
)

// Guard suppresses repeated triggers of the same identity within a cooldown
// window. It remembers only the last accepted identity; it is keyed on the
// resolved identity, never the raw payload.
type Guard struct {
	mu       sync.Mutex
	cooldown time.Duration
	identity string
	at       time.Time
	set      bool
}

// NewGuard creates a guard. Cooldowns outside 4s-5s are clamped; zero
// selects the default.
func NewGuard(cooldown time.Duration) *Guard {
	switch {
	case cooldown == 0:
		cooldown = DefaultCooldown
	case cooldown < MinCooldown:
		cooldown = MinCooldown
	case cooldown > MaxCooldown:
		cooldown = MaxCooldown
	}
	return &Guard{cooldown: cooldown}
}

// Cooldown returns the effective window.
func (g *Guard) Cooldown() time.Duration { return g.cooldown }

// ShouldAccept reports whether a scan of identity at now may proceed. An
// accepted scan becomes the remembered entry; a rejected one changes nothing.
func (g *Guard) ShouldAccept(identity string, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.set && g.identity == identity && now.Sub(g.at) < g.cooldown {
		return false
	}
	g.identity, g.at, g.set = identity, now, true
	return true
}

// Reset forgets the remembered entry.
func (g *Guard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.identity, g.at, g.set = "", time.Time{}, false
}
