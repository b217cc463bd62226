package game

import (
	"math/rand"
	"time"
)

// Event is a randomized hazard drawn during a tick. System names the damaged
// system; SystemRandom picks one uniformly, and an empty System means the
// event has no mechanical effect and is only announced.
type Event struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	System  string `json:"system,omitempty"`
	Damage  int    `json:"damage,omitempty"`
}

// SystemRandom marks an event that damages a uniformly chosen system.
const SystemRandom = "random"

var eventCatalog = []Event{
	{
		Type:    "meteor",
		Message: "Meteor strike! A system took damage.",
		System:  SystemRandom,
		Damage:  25,
	},
	{
		Type:    "radiation",
		Message: "Radiation wave! Repair the shield.",
		System:  SystemShield,
		Damage:  15,
	},
	{
		Type:    "alien",
		Message: "Alien signal detected.",
	},
	{
		Type:    "system_failure",
		Message: "System failure! Check all panels.",
		System:  SystemRandom,
		Damage:  10,
	},
}

// RandomEvent draws one hazard uniformly from the catalog.
func RandomEvent(rng *rand.Rand) Event {
	return eventCatalog[rng.Intn(len(eventCatalog))]
}

// LoggedEvent is one entry in a room's event log.
type LoggedEvent struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
