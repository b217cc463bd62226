package game

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// Default timing. Tests override these before any room goes active.
const (
	DefaultTickInterval = time.Second
	DefaultResetDelay   = 30 * time.Second
	DefaultPurgeDelay   = 30 * time.Second
)

const maxChatLength = 200

// Engine owns the room and player registries and guards every mutation
// against the session state machine. One mutex serializes inbound requests
// and tick firings, so no two mutations to the same room ever interleave.
type Engine struct {
	mu      sync.Mutex
	rooms   map[string]*Room
	players map[PlayerID]*Player

	bc  Broadcaster
	rng *rand.Rand
	log zerolog.Logger

	TickInterval time.Duration
	ResetDelay   time.Duration
	PurgeDelay   time.Duration
}

// NewEngine builds an engine around a broadcast gateway and a seedable
// random source. The rand source is only ever used under the engine mutex.
func NewEngine(bc Broadcaster, rng *rand.Rand, log zerolog.Logger) *Engine {
	return &Engine{
		rooms:        make(map[string]*Room),
		players:      make(map[PlayerID]*Player),
		bc:           bc,
		rng:          rng,
		log:          log,
		TickInterval: DefaultTickInterval,
		ResetDelay:   DefaultResetDelay,
		PurgeDelay:   DefaultPurgeDelay,
	}
}

// CreateRoom allocates a fresh room and registers the requester as its first
// member.
func (e *Engine) CreateRoom(id PlayerID, username string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.leaveCurrentRoomLocked(id); err != nil {
		return err
	}

	room := newRoom(e.uniqueRoomCodeLocked())
	e.rooms[room.ID] = room

	name := displayName(username, id)
	player := newPlayer(id, name, room.ID)
	e.players[id] = player
	room.Players = append(room.Players, id)

	e.log.Info().Str("room", room.ID).Str("player", name).Msg("room created")

	e.bc.Send(id, EventRoomCreated, map[string]any{
		"roomId": room.ID,
		"player": name,
		"room":   e.roomSnapshotLocked(room),
	})
	e.broadcastRoomUpdateLocked(room)
	e.systemChatLocked(room, fmt.Sprintf("Room %s created!", room.ID), ChatTypeSystem)
	return nil
}

// JoinRoom adds the requester to an existing lobby.
func (e *Engine) JoinRoom(id PlayerID, roomID, username string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	room, ok := e.rooms[roomID]
	if !ok {
		return ErrRoomNotFound
	}
	if room.Phase != PhaseLobby {
		return ErrGameInProgress
	}
	if len(room.Players) >= MaxPlayers {
		return ErrRoomFull
	}
	name := displayName(username, id)
	for _, pid := range room.Players {
		if p := e.players[pid]; p != nil && p.Username == name {
			return ErrDuplicateName
		}
	}
	if err := e.leaveCurrentRoomLocked(id); err != nil {
		return err
	}

	player := newPlayer(id, name, room.ID)
	e.players[id] = player
	room.Players = append(room.Players, id)

	e.log.Info().Str("room", room.ID).Str("player", name).Msg("player joined")

	e.bc.Send(id, EventJoinedRoom, map[string]any{
		"roomId": room.ID,
		"player": name,
		"room":   e.roomSnapshotLocked(room),
	})
	e.broadcastRoomUpdateLocked(room)
	e.systemChatLocked(room, fmt.Sprintf("%s joined the game!", name), ChatTypeSystem)
	return nil
}

// StartGame transitions the requester's lobby to an active session: roles
// are dealt privately, the round clock starts and the per-room ticker spins
// up. A start on a room that is not in the lobby phase is ignored.
func (e *Engine) StartGame(id PlayerID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	player, ok := e.players[id]
	if !ok {
		return nil
	}
	room, ok := e.rooms[player.RoomID]
	if !ok || room.Phase != PhaseLobby {
		return nil
	}
	if len(room.Players) < MinPlayers {
		return ErrNotEnoughPlayers
	}

	roles := AssignRoles(len(room.Players), e.rng)
	for i, pid := range room.Players {
		p := e.players[pid]
		if p == nil {
			continue
		}
		p.Role = roles[i]
		p.Objective = Objective(roles[i])
		p.SecretUses = SecretUses
		p.Voted = false
		p.ObjectiveCompleted = false
		e.bc.Send(pid, EventRoleAssigned, map[string]any{
			"role":       p.Role,
			"objective":  p.Objective,
			"secretUses": p.SecretUses,
		})
	}

	room.Phase = PhaseActive
	room.StartTime = time.Now().UTC()
	room.Events = nil
	room.Votes = make(map[PlayerID]PlayerID)
	e.startTickerLocked(room)

	e.log.Info().Str("room", room.ID).Int("players", len(room.Players)).Msg("game started")

	e.bc.SendMany(room.Players, EventGameStarted, map[string]any{
		"roomId":        room.ID,
		"timeLeft":      room.TimeLeft,
		"totalDistance": room.TotalDistance,
		"systems":       lo.Assign(room.Systems),
		"players":       e.memberSnapshotLocked(room),
	})
	e.systemChatLocked(room, "GAME STARTED! Secret roles have been dealt.", ChatTypeSystem)
	return nil
}

type secretAction struct {
	message string
	system  string
	damage  int
}

var secretActions = map[string]secretAction{
	"lights": {message: "Lights go out for 30 seconds!"},
	"engine": {message: "Engine disrupted! Speed reduced.", system: SystemEngine, damage: 20},
	"door":   {message: "Emergency door opened! Oxygen supply disrupted.", system: SystemOxygen, damage: 15},
	"hack":   {message: "Navigation system hacked!", system: SystemNavigation, damage: 25},
}

// UseSecretAction spends one of the player's limited secret uses. Unknown
// action names fall back to the lights action.
func (e *Engine) UseSecretAction(id PlayerID, action string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	player, ok := e.players[id]
	if !ok {
		return nil
	}
	room, ok := e.rooms[player.RoomID]
	if !ok || room.Phase != PhaseActive {
		return nil
	}
	if player.SecretUses <= 0 {
		return ErrNoUsesLeft
	}
	player.SecretUses--

	act, ok := secretActions[action]
	if !ok {
		act = secretActions["lights"]
	}
	if act.system != "" {
		room.damageSystem(act.system, act.damage)
	}
	now := time.Now().UTC()
	room.logEvent("secret_action",
		fmt.Sprintf("%s used the secret button: %s", player.Username, act.message), now)

	e.bc.SendMany(room.Players, EventActionUsed, map[string]any{
		"player":        player.Username,
		"action":        action,
		"message":       act.message,
		"remainingUses": player.SecretUses,
	})
	e.systemChatLocked(room,
		fmt.Sprintf("%s used the secret button! %s", player.Username, act.message), ChatTypeWarning)
	return nil
}

// RepairSystem restores health to a named system. Technicians repair more
// effectively.
func (e *Engine) RepairSystem(id PlayerID, system string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	player, ok := e.players[id]
	if !ok {
		return nil
	}
	room, ok := e.rooms[player.RoomID]
	if !ok || room.Phase != PhaseActive {
		return nil
	}
	if _, ok := room.Systems[system]; !ok {
		return ErrInvalidSystem
	}

	amount := RepairDefault
	if player.Role == RoleTechnician {
		amount = RepairTechnician
	}
	newHealth := room.repairSystem(system, amount)
	room.logEvent("repair",
		fmt.Sprintf("%s repaired %s by %d%%", player.Username, system, amount), time.Now().UTC())

	e.bc.SendMany(room.Players, EventSystemRepaired, map[string]any{
		"system":       system,
		"newHealth":    newHealth,
		"repairedBy":   player.Username,
		"isTechnician": player.Role == RoleTechnician,
	})
	e.systemChatLocked(room,
		fmt.Sprintf("%s repaired the %s system to %d%%", player.Username, system, newHealth), ChatTypeInfo)
	return nil
}

// SendChat relays a trimmed, length-capped chat line to the sender's room.
// Empty messages are dropped.
func (e *Engine) SendChat(id PlayerID, message string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	player, ok := e.players[id]
	if !ok {
		return nil
	}
	room, ok := e.rooms[player.RoomID]
	if !ok {
		return nil
	}
	clean := strings.TrimSpace(message)
	if runes := []rune(clean); len(runes) > maxChatLength {
		clean = string(runes[:maxChatLength])
	}
	if clean == "" {
		return nil
	}
	e.bc.SendMany(room.Players, EventChatMessage, map[string]any{
		"sender":    player.Username,
		"message":   clean,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"role":      player.Role,
		"type":      ChatTypeChat,
	})
	return nil
}

// Disconnect handles a connection loss. Lobby members are removed at once;
// members of an active session are only marked disconnected and their record
// is purged after a grace window. Reconnection is not supported, so the
// purge is unconditional once the window elapses.
func (e *Engine) Disconnect(id PlayerID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	player, ok := e.players[id]
	if !ok {
		return
	}
	player.Connected = false
	e.log.Info().Str("player", player.Username).Msg("player disconnected")

	room, ok := e.rooms[player.RoomID]
	if !ok {
		delete(e.players, id)
		return
	}

	if room.Phase != PhaseActive {
		room.removePlayer(id)
		delete(e.players, id)
		if len(room.Players) == 0 {
			e.destroyRoomLocked(room)
			return
		}
		e.broadcastRoomUpdateLocked(room)
		e.systemChatLocked(room, fmt.Sprintf("%s left the room", player.Username), ChatTypeSystem)
		return
	}

	e.systemChatLocked(room, fmt.Sprintf("%s disconnected from the game", player.Username), ChatTypeWarning)
	e.broadcastRoomUpdateLocked(room)
	if e.connectedCountLocked(room) < MinPlayers {
		e.endGameLocked(room, "Game over: too few players remaining")
	}
	time.AfterFunc(e.PurgeDelay, func() { e.purgePlayer(id) })
}

// purgePlayer removes a disconnected player's record and membership after
// the grace window.
func (e *Engine) purgePlayer(id PlayerID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	player, ok := e.players[id]
	if !ok || player.Connected {
		return
	}
	delete(e.players, id)
	room, ok := e.rooms[player.RoomID]
	if !ok {
		return
	}
	room.removePlayer(id)
	if len(room.Players) == 0 && room.Phase != PhaseActive {
		e.destroyRoomLocked(room)
		return
	}
	e.broadcastRoomUpdateLocked(room)
}

// Status reports process-wide counts for the health endpoint.
func (e *Engine) Status() (players, rooms int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.players), len(e.rooms)
}

// endGameLocked performs the Active -> Ended transition: the ticker stops,
// winners are computed against the frozen stats and a reset is scheduled.
// Safe to call on a room that already ended.
func (e *Engine) endGameLocked(room *Room, message string) {
	if room.Phase != PhaseActive {
		return
	}
	e.stopTickerLocked(room)
	room.Phase = PhaseEnded

	winners := []string{}
	for _, pid := range room.Players {
		p := e.players[pid]
		if p == nil {
			continue
		}
		if p.Role.Wins(room, e.rng) {
			p.ObjectiveCompleted = true
			winners = append(winners, p.Username)
		}
	}

	e.log.Info().Str("room", room.ID).Str("outcome", message).
		Strs("winners", winners).Msg("game ended")

	e.bc.SendMany(room.Players, EventGameEnded, map[string]any{
		"roomId":  room.ID,
		"message": message,
		"winners": winners,
		"stats": map[string]any{
			"shipHealth":    room.ShipHealth,
			"distance":      room.clampedDistance(),
			"totalDistance": room.TotalDistance,
			"timeLeft":      room.TimeLeft,
			"systems":       lo.Assign(room.Systems),
		},
	})
	e.systemChatLocked(room, "GAME OVER! "+message, ChatTypeSystem)

	roomID := room.ID
	time.AfterFunc(e.ResetDelay, func() { e.resetRoom(roomID) })
}

// resetRoom returns an ended room to the lobby with membership intact.
func (e *Engine) resetRoom(roomID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	room, ok := e.rooms[roomID]
	if !ok || room.Phase != PhaseEnded {
		return
	}
	room.resetRound()
	for _, pid := range room.Players {
		if p := e.players[pid]; p != nil {
			p.resetRound()
		}
	}
	e.log.Info().Str("room", room.ID).Msg("room reset")

	e.bc.SendMany(room.Players, EventRoomReset, map[string]any{
		"message": "Room has been reset. A new game can begin.",
		"room":    e.roomSnapshotLocked(room),
	})
	e.broadcastRoomUpdateLocked(room)
}

// leaveCurrentRoomLocked detaches an already-registered handle from its
// lobby before it creates or joins another room. Leaving an active session
// this way is not allowed.
func (e *Engine) leaveCurrentRoomLocked(id PlayerID) error {
	player, ok := e.players[id]
	if !ok {
		return nil
	}
	room, ok := e.rooms[player.RoomID]
	if !ok {
		delete(e.players, id)
		return nil
	}
	if room.Phase == PhaseActive {
		return ErrGameInProgress
	}
	room.removePlayer(id)
	delete(e.players, id)
	if len(room.Players) == 0 {
		e.destroyRoomLocked(room)
		return nil
	}
	e.broadcastRoomUpdateLocked(room)
	return nil
}

func (e *Engine) destroyRoomLocked(room *Room) {
	e.stopTickerLocked(room)
	delete(e.rooms, room.ID)
	e.log.Info().Str("room", room.ID).Msg("room destroyed")
}

func (e *Engine) connectedCountLocked(room *Room) int {
	return lo.CountBy(room.Players, func(id PlayerID) bool {
		p := e.players[id]
		return p != nil && p.Connected
	})
}

// memberSnapshotLocked resolves the membership list through the player
// registry. Roles are never included; they are only ever delivered privately.
func (e *Engine) memberSnapshotLocked(room *Room) []map[string]any {
	return lo.Map(room.Players, func(id PlayerID, _ int) map[string]any {
		m := map[string]any{"id": id, "username": "Unknown", "connected": false}
		if p := e.players[id]; p != nil {
			m["username"] = p.Username
			m["connected"] = p.Connected
		}
		return m
	})
}

func (e *Engine) roomSnapshotLocked(room *Room) map[string]any {
	return map[string]any{
		"id":            room.ID,
		"gameStarted":   room.Started(),
		"players":       e.memberSnapshotLocked(room),
		"systems":       lo.Assign(room.Systems),
		"shipHealth":    room.ShipHealth,
		"distance":      room.clampedDistance(),
		"totalDistance": room.TotalDistance,
		"timeLeft":      room.TimeLeft,
	}
}

func (e *Engine) broadcastRoomUpdateLocked(room *Room) {
	e.bc.SendMany(room.Players, EventRoomUpdated, map[string]any{
		"roomId":      room.ID,
		"gameStarted": room.Started(),
		"playerCount": len(room.Players),
		"players":     e.memberSnapshotLocked(room),
	})
}

func (e *Engine) systemChatLocked(room *Room, message, chatType string) {
	e.bc.SendMany(room.Players, EventChatMessage, map[string]any{
		"sender":    "System",
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"type":      chatType,
	})
}

// uniqueRoomCodeLocked draws codes until one misses the registry.
func (e *Engine) uniqueRoomCodeLocked() string {
	for {
		code := make([]byte, RoomCodeLength)
		for i := range code {
			code[i] = RoomCodeChars[e.rng.Intn(len(RoomCodeChars))]
		}
		if _, exists := e.rooms[string(code)]; !exists {
			return string(code)
		}
	}
}

func displayName(name string, id PlayerID) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Player_" + id.short()
	}
	return name
}
