package game

import "math/rand"

// Role is a hidden crew role assigned when a game starts.
type Role string

const (
	RoleNone       Role = ""
	RoleCaptain    Role = "Captain"
	RoleTechnician Role = "Technician"
	RoleSpy        Role = "Spy"
	RoleAI         Role = "AI"
	RoleSaboteur   Role = "Saboteur"
)

// Roles is the full pool used for random fill once the base roles are dealt.
var Roles = []Role{RoleCaptain, RoleTechnician, RoleSpy, RoleAI, RoleSaboteur}

var objectives = map[Role]string{
	RoleCaptain:    "Bring the ship to its destination with ship health at 60% or above",
	RoleTechnician: "Keep every system above 70%",
	RoleSpy:        "Collect 3 pieces of secret data without being discovered",
	RoleAI:         "Follow every order from the Captain, but keep the Oxygen system below 50%",
	RoleSaboteur:   "Prevent the ship from reaching its destination without being discovered",
}

// Objective returns the briefing text shown privately with a role assignment.
func Objective(role Role) string {
	if obj, ok := objectives[role]; ok {
		return obj
	}
	return "Complete your secret mission!"
}

// AssignRoles deals a shuffled role list for n players. Captain and Technician
// are always present; Spy, AI and Saboteur join at 3, 4 and 5 players. Beyond
// that, slots are filled by uniform draws from the full pool.
func AssignRoles(n int, rng *rand.Rand) []Role {
	assigned := []Role{RoleCaptain, RoleTechnician}
	if n >= 3 {
		assigned = append(assigned, RoleSpy)
	}
	if n >= 4 {
		assigned = append(assigned, RoleAI)
	}
	if n >= 5 {
		assigned = append(assigned, RoleSaboteur)
	}
	if n < len(assigned) {
		assigned = assigned[:n]
	}
	for len(assigned) < n {
		assigned = append(assigned, Roles[rng.Intn(len(Roles))])
	}
	rng.Shuffle(len(assigned), func(i, j int) {
		assigned[i], assigned[j] = assigned[j], assigned[i]
	})
	return assigned
}

// Wins reports whether a player holding this role completed their objective,
// judged against the room's final state. Spy and AI objectives are not
// tracked anywhere in the simulation, so those roles win on a coin flip.
func (r Role) Wins(room *Room, rng *rand.Rand) bool {
	switch r {
	case RoleCaptain:
		return room.Distance >= room.TotalDistance && room.ShipHealth >= 60
	case RoleTechnician:
		for _, health := range room.Systems {
			if health < 70 {
				return false
			}
		}
		return true
	case RoleSaboteur:
		return room.Distance < room.TotalDistance
	default:
		return rng.Intn(2) == 0
	}
}
