package game

// Outbound event names. These match the wire protocol the client listens on.
const (
	EventConnected      = "connected"
	EventRoomCreated    = "roomCreated"
	EventJoinedRoom     = "joinedRoom"
	EventRoomUpdated    = "roomUpdated"
	EventRoleAssigned   = "roleAssigned"
	EventGameStarted    = "gameStarted"
	EventGameUpdate     = "gameUpdate"
	EventGameEnded      = "gameEnded"
	EventRoomReset      = "roomReset"
	EventRandomEvent    = "randomEvent"
	EventActionUsed     = "secretButtonUsed"
	EventSystemRepaired = "systemRepaired"
	EventVoteCast       = "voteCasted"
	EventVoteReset      = "voteReset"
	EventPlayerEjected  = "playerEjected"
	EventEjected        = "ejected"
	EventChatMessage    = "chatMessage"
	EventError          = "error"
	EventPong           = "pong"
)

// Chat message type tags.
const (
	ChatTypeSystem  = "system"
	ChatTypeInfo    = "info"
	ChatTypeWarning = "warning"
	ChatTypeChat    = "chat"
)

// Broadcaster is the only channel through which the engine emits observable
// state. The transport implementation lives outside the core; tests plug in
// a recording fake.
type Broadcaster interface {
	// Send delivers an event to a single participant. Unknown ids are
	// dropped silently.
	Send(id PlayerID, event string, payload any)
	// SendMany delivers the same event to every listed participant.
	SendMany(ids []PlayerID, event string, payload any)
	// Close force-closes a participant's transport session.
	Close(id PlayerID)
}
