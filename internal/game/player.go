package game

// PlayerID is the transport-assigned connection handle.
type PlayerID string

// Player is one participant's identity and per-session state. Records are
// owned by the engine's player registry; rooms refer to them by id only.
type Player struct {
	ID                 PlayerID
	Username           string
	RoomID             string
	Role               Role
	Objective          string
	SecretUses         int
	Voted              bool
	ObjectiveCompleted bool
	Connected          bool
}

func newPlayer(id PlayerID, username, roomID string) *Player {
	return &Player{
		ID:         id,
		Username:   username,
		RoomID:     roomID,
		SecretUses: SecretUses,
		Connected:  true,
	}
}

// resetRound clears per-session state while keeping identity and membership.
func (p *Player) resetRound() {
	p.Role = RoleNone
	p.Objective = ""
	p.SecretUses = SecretUses
	p.Voted = false
	p.ObjectiveCompleted = false
}

// short is the leading slice of the handle used for defaulted display names.
func (p PlayerID) short() string {
	if len(p) <= 4 {
		return string(p)
	}
	return string(p[:4])
}
