package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2026, 10, 18, 7, 30, 0, 0, time.UTC)

func TestGuard_SuppressesWithinCooldown(t *testing.T) {
	g := NewGuard(5 * time.Second)
	assert.True(t, g.ShouldAccept("STU001", t0))
	assert.False(t, g.ShouldAccept("STU001", t0.Add(100*time.Millisecond)))
	assert.False(t, g.ShouldAccept("STU001", t0.Add(3*time.Second)))
	assert.True(t, g.ShouldAccept("STU001", t0.Add(5*time.Second)))
}

func TestGuard_RejectDoesNotExtendWindow(t *testing.T) {
	g := NewGuard(4 * time.Second)
	assert.True(t, g.ShouldAccept("A", t0))
	assert.False(t, g.ShouldAccept("A", t0.Add(3900*time.Millisecond)))
	assert.True(t, g.ShouldAccept("A", t0.Add(4*time.Second)))
}

func TestGuard_DifferentIdentityAccepted(t *testing.T) {
	g := NewGuard(0)
	assert.True(t, g.ShouldAccept("A", t0))
	assert.True(t, g.ShouldAccept("B", t0.Add(time.Second)))
	// B overwrote the entry, so A is no longer remembered
	assert.True(t, g.ShouldAccept("A", t0.Add(2*time.Second)))
}

func TestGuard_Reset(t *testing.T) {
	g := NewGuard(0)
	assert.True(t, g.ShouldAccept("A", t0))
	g.Reset()
	assert.True(t, g.ShouldAccept("A", t0.Add(time.Millisecond)))
}

func TestNewGuard_Clamps(t *testing.T) {
	assert.Equal(t, DefaultCooldown, NewGuard(0).Cooldown())
	assert.Equal(t, MinCooldown, NewGuard(time.Second).Cooldown())
	assert.Equal(t, MaxCooldown, NewGuard(time.Minute).Cooldown())
	assert.Equal(t, 4200*time.Millisecond, NewGuard(4200*time.Millisecond).Cooldown())
}
