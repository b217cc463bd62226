package game

import (
	"fmt"
	"time"

	"github.com/samber/lo"
)

// startTickerLocked spins up the room's periodic task. Exactly one ticker
// runs per active room.
func (e *Engine) startTickerLocked(room *Room) {
	e.stopTickerLocked(room)
	stop := make(chan struct{})
	room.stop = stop
	go e.runTicker(room.ID, stop)
}

// stopTickerLocked cancels the room's ticker. Calling it again is a no-op.
func (e *Engine) stopTickerLocked(room *Room) {
	if room.stop != nil {
		close(room.stop)
		room.stop = nil
	}
}

func (e *Engine) runTicker(roomID string, stop chan struct{}) {
	ticker := time.NewTicker(e.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.tick(roomID)
		}
	}
}

// tick advances one active room by one simulation step. A tick that finds
// its room gone or no longer active is a no-op; the room may disappear
// between scheduling and firing.
func (e *Engine) tick(roomID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	room, ok := e.rooms[roomID]
	if !ok || room.Phase != PhaseActive {
		return
	}
	now := time.Now().UTC()

	room.TimeLeft--
	room.Distance += distancePerTick * float64(room.Systems[SystemEngine]) / 100

	for _, system := range ShipSystems {
		if e.rng.Float64() < degradeChance {
			room.damageSystem(system, degradeAmount)
		}
	}

	if e.rng.Float64() < eventChance {
		event := RandomEvent(e.rng)
		switch event.System {
		case "":
		case SystemRandom:
			room.damageSystem(ShipSystems[e.rng.Intn(len(ShipSystems))], event.Damage)
		default:
			room.damageSystem(event.System, event.Damage)
		}
		room.logEvent(event.Type, event.Message, now)

		e.bc.SendMany(room.Players, EventRandomEvent, map[string]any{
			"type":      event.Type,
			"message":   event.Message,
			"timestamp": now.Format(time.RFC3339),
		})
		e.systemChatLocked(room, event.Message, ChatTypeWarning)
	}

	room.recalcShipHealth()

	e.bc.SendMany(room.Players, EventGameUpdate, map[string]any{
		"timeLeft":      room.TimeLeft,
		"distance":      room.clampedDistance(),
		"totalDistance": room.TotalDistance,
		"systems":       lo.Assign(room.Systems),
		"shipHealth":    room.ShipHealth,
		"events": lo.Map(room.recentEvents(), func(ev LoggedEvent, _ int) map[string]any {
			return map[string]any{"message": ev.Message, "type": ev.Type}
		}),
		"progress": fmt.Sprintf("%.1f", room.clampedDistance()/room.TotalDistance*100),
	})

	// Terminal conditions are checked in a fixed order so an expired clock
	// always reads as "time's up" even if the ship also arrived this tick.
	switch {
	case room.TimeLeft <= 0:
		e.endGameLocked(room, "Time's up! The ship never reached its destination.")
	case room.Distance >= room.TotalDistance:
		e.endGameLocked(room, "THE SHIP REACHED ITS DESTINATION!")
	case room.ShipHealth <= 0:
		e.endGameLocked(room, "THE SHIP WAS DESTROYED! All systems failed.")
	}
}
