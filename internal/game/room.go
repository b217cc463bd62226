package game

import (
	"time"
)

// Ship system names. Every room runs the same fixed set.
const (
	SystemEngine        = "Engine"
	SystemOxygen        = "Oxygen"
	SystemNavigation    = "Navigation"
	SystemShield        = "Shield"
	SystemCommunication = "Communication"
)

// ShipSystems lists all systems in a stable order.
var ShipSystems = []string{
	SystemEngine,
	SystemOxygen,
	SystemNavigation,
	SystemShield,
	SystemCommunication,
}

// Gameplay constants.
const (
	RoomCodeLength = 5
	RoomCodeChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	MaxPlayers = 10
	MinPlayers = 2

	TotalDistance    = 100.0
	TimeBudget       = 15 * 60 // seconds
	SecretUses       = 3
	RecentEventCount = 5

	RepairTechnician = 35
	RepairDefault    = 15

	degradeChance   = 0.02
	degradeAmount   = 2
	eventChance     = 0.03
	distancePerTick = 0.5
)

// Phase is a room's position in the session state machine.
type Phase int

const (
	PhaseLobby Phase = iota
	PhaseActive
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseActive:
		return "active"
	case PhaseEnded:
		return "ended"
	}
	return "unknown"
}

// Room holds one session's state. Membership is a list of player ids in join
// order; the records themselves live in the engine's player registry so a
// purged player never dangles here as a stale pointer.
type Room struct {
	ID            string
	Players       []PlayerID
	Phase         Phase
	Systems       map[string]int
	ShipHealth    int
	Distance      float64
	TotalDistance float64
	TimeLeft      int
	Events        []LoggedEvent
	Votes         map[PlayerID]PlayerID
	StartTime     time.Time

	stop chan struct{} // ticker stop signal, non-nil only while Active
}

func newRoom(id string) *Room {
	r := &Room{
		ID:            id,
		TotalDistance: TotalDistance,
		Votes:         make(map[PlayerID]PlayerID),
	}
	r.resetRound()
	return r
}

// resetRound restores every round-scoped field to its initial value.
// Membership and identity are untouched.
func (r *Room) resetRound() {
	r.Phase = PhaseLobby
	r.Systems = make(map[string]int, len(ShipSystems))
	for _, name := range ShipSystems {
		r.Systems[name] = 100
	}
	r.ShipHealth = 100
	r.Distance = 0
	r.TimeLeft = TimeBudget
	r.Events = nil
	r.Votes = make(map[PlayerID]PlayerID)
	r.StartTime = time.Time{}
}

// Started reports whether a session is in progress.
func (r *Room) Started() bool {
	return r.Phase == PhaseActive
}

// damageSystem lowers a system's health, clamped at 0. Unknown names are
// ignored.
func (r *Room) damageSystem(name string, amount int) {
	if _, ok := r.Systems[name]; !ok {
		return
	}
	r.Systems[name] = max(0, r.Systems[name]-amount)
}

// repairSystem raises a system's health, clamped at 100, and returns the new
// value.
func (r *Room) repairSystem(name string, amount int) int {
	r.Systems[name] = min(100, r.Systems[name]+amount)
	return r.Systems[name]
}

// recalcShipHealth recomputes the derived ship health as the floor of the
// mean system health. An empty system map reads as 100.
func (r *Room) recalcShipHealth() {
	if len(r.Systems) == 0 {
		r.ShipHealth = 100
		return
	}
	total := 0
	for _, health := range r.Systems {
		total += health
	}
	r.ShipHealth = total / len(r.Systems)
}

// clampedDistance is the distance as reported to clients, never past the
// target.
func (r *Room) clampedDistance() float64 {
	return min(r.Distance, r.TotalDistance)
}

// logEvent appends to the room's event log.
func (r *Room) logEvent(eventType, message string, now time.Time) {
	r.Events = append(r.Events, LoggedEvent{Type: eventType, Message: message, Timestamp: now})
}

// recentEvents returns up to the last RecentEventCount log entries.
func (r *Room) recentEvents() []LoggedEvent {
	if len(r.Events) <= RecentEventCount {
		return r.Events
	}
	return r.Events[len(r.Events)-RecentEventCount:]
}

// removePlayer drops an id from membership, preserving join order.
func (r *Room) removePlayer(id PlayerID) {
	for i, pid := range r.Players {
		if pid == id {
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			return
		}
	}
}
