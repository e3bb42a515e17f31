// Package mob tracks live mob instances. Instances are ephemeral: they exist
// only in this registry and are rebuilt from scratch on every server start.
package mob

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/nickeddy/uamud/internal/game/ruleset"
)

// Sentinel errors for claim and lookup failures.
var (
	ErrNotFound       = errors.New("mob not found")
	ErrAlreadyClaimed = errors.New("mob already claimed")
	ErrNotClaimant    = errors.New("mob claimed by another character")
)

// Instance is one live mob. Copies handed out by the manager are snapshots;
// all mutation goes through manager methods under its lock.
type Instance struct {
	UID       uuid.UUID
	Name      string
	Species   ruleset.SpeciesKind
	Level     int
	HP        int
	RoomID    int64
	ClaimedBy int64
}

// Claimed reports whether some character holds the attacker claim.
func (i Instance) Claimed() bool { return i.ClaimedBy != 0 }

// Manager owns all live mob instances behind one mutex. The attacker claim
// is a compare-and-swap under that mutex, so racing attackers cannot both
// win a mob.
type Manager struct {
	mu   sync.Mutex
	mobs map[uuid.UUID]*Instance
}

// NewManager creates an empty registry.
func NewManager() *Manager {
	return &Manager{mobs: make(map[uuid.UUID]*Instance)}
}

// Spawn registers a new instance and returns its snapshot.
//
// Precondition: level >= 1; roomID must be a real room.
func (m *Manager) Spawn(name string, species ruleset.SpeciesKind, level int, roomID int64) Instance {
	inst := &Instance{
		UID:     uuid.New(),
		Name:    name,
		Species: species,
		Level:   level,
		HP:      species.MaxHP(level),
		RoomID:  roomID,
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mobs[inst.UID] = inst
	return *inst
}

// Count returns the number of live instances.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.mobs)
}

// Get returns a snapshot of one instance.
func (m *Manager) Get(uid uuid.UUID) (Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.mobs[uid]
	if !ok {
		return Instance{}, ErrNotFound
	}
	return *inst, nil
}

// InRoom returns snapshots of every instance in the room.
func (m *Manager) InRoom(roomID int64) []Instance {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Instance
	for _, inst := range m.mobs {
		if inst.RoomID == roomID {
			out = append(out, *inst)
		}
	}
	return out
}

// All returns snapshots of every live instance.
func (m *Manager) All() []Instance {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Instance, 0, len(m.mobs))
	for _, inst := range m.mobs {
		out = append(out, *inst)
	}
	return out
}

// FindInRoom resolves a mob by name within a room, case-insensitively.
func (m *Manager) FindInRoom(roomID int64, name string) (Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inst := range m.mobs {
		if inst.RoomID == roomID && strings.EqualFold(inst.Name, name) {
			return *inst, nil
		}
	}
	return Instance{}, ErrNotFound
}

// Claim atomically takes the attacker claim for characterID. A character
// that already holds the claim may re-claim; anyone else gets
// ErrAlreadyClaimed.
func (m *Manager) Claim(uid uuid.UUID, characterID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.mobs[uid]
	if !ok {
		return ErrNotFound
	}
	if inst.ClaimedBy != 0 && inst.ClaimedBy != characterID {
		return ErrAlreadyClaimed
	}
	inst.ClaimedBy = characterID
	return nil
}

// Release drops the claim if characterID holds it.
func (m *Manager) Release(uid uuid.UUID, characterID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.mobs[uid]
	if !ok {
		return ErrNotFound
	}
	if inst.ClaimedBy != characterID {
		return ErrNotClaimant
	}
	inst.ClaimedBy = 0
	return nil
}

// ReleaseAllFor drops every claim held by characterID. Used on disconnect
// and on death.
func (m *Manager) ReleaseAllFor(characterID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inst := range m.mobs {
		if inst.ClaimedBy == characterID {
			inst.ClaimedBy = 0
		}
	}
}

// Damage reduces an instance's HP by the character holding the claim and
// returns the updated snapshot. When HP reaches zero the instance is removed
// from the registry.
func (m *Manager) Damage(uid uuid.UUID, characterID int64, amount int) (Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.mobs[uid]
	if !ok {
		return Instance{}, ErrNotFound
	}
	if inst.ClaimedBy != characterID {
		return Instance{}, ErrNotClaimant
	}
	inst.HP -= amount
	if inst.HP <= 0 {
		inst.HP = 0
		delete(m.mobs, uid)
	}
	return *inst, nil
}

// Move relocates an instance and returns the updated snapshot.
func (m *Manager) Move(uid uuid.UUID, roomID int64) (Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.mobs[uid]
	if !ok {
		return Instance{}, ErrNotFound
	}
	inst.RoomID = roomID
	return *inst, nil
}

// Remove deletes an instance outright, claim or not. Used by admin cleanup.
func (m *Manager) Remove(uid uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.mobs, uid)
}
