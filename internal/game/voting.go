package game

import (
	"fmt"

	"github.com/samber/lo"
)

// CastVote records one ejection vote per player per round. A repeat vote
// before the round resets is silently ignored. The round resolves as soon
// as every current member has voted.
func (e *Engine) CastVote(id PlayerID, targetID PlayerID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	player, ok := e.players[id]
	if !ok || player.Voted {
		return nil
	}
	room, ok := e.rooms[player.RoomID]
	if !ok || room.Phase != PhaseActive {
		return nil
	}
	target, ok := e.players[targetID]
	if !ok || target.RoomID != room.ID || targetID == id {
		return ErrInvalidTarget
	}

	player.Voted = true
	room.Votes[id] = targetID

	voted := lo.CountBy(room.Players, func(pid PlayerID) bool {
		p := e.players[pid]
		return p != nil && p.Voted
	})

	e.bc.SendMany(room.Players, EventVoteCast, map[string]any{
		"voter":        player.Username,
		"target":       target.Username,
		"votes":        voted,
		"totalPlayers": len(room.Players),
	})
	e.systemChatLocked(room,
		fmt.Sprintf("%s voted to eject %s", player.Username, target.Username), ChatTypeInfo)

	if voted == len(room.Players) {
		e.resolveVotesLocked(room)
	}
	return nil
}

// resolveVotesLocked tallies the round and applies an ejection when the top
// tally is strictly greater than one. Ties are not specially broken; the
// first-seen maximum in map iteration order wins. Votes and voted flags are
// cleared for the next round either way.
func (e *Engine) resolveVotesLocked(room *Room) {
	tally := lo.CountValues(lo.Values(room.Votes))

	maxVotes := 0
	var ejectedID PlayerID
	for targetID, votes := range tally {
		if votes > maxVotes {
			maxVotes = votes
			ejectedID = targetID
		}
	}

	room.Votes = make(map[PlayerID]PlayerID)
	for _, pid := range room.Players {
		if p := e.players[pid]; p != nil {
			p.Voted = false
		}
	}

	if ejectedID != "" && maxVotes > 1 {
		if ejected := e.players[ejectedID]; ejected != nil {
			room.removePlayer(ejectedID)
			delete(e.players, ejectedID)

			e.log.Info().Str("room", room.ID).Str("player", ejected.Username).
				Int("votes", maxVotes).Msg("player ejected")

			e.bc.SendMany(room.Players, EventPlayerEjected, map[string]any{
				"player": ejected.Username,
				"votes":  maxVotes,
				"reason": "Ejected by crew vote",
			})
			e.systemChatLocked(room,
				fmt.Sprintf("%s was ejected from the ship with %d votes!", ejected.Username, maxVotes),
				ChatTypeWarning)

			e.bc.Send(ejectedID, EventEjected, map[string]any{
				"reason": "You were ejected by crew vote",
			})
			e.bc.Close(ejectedID)

			if len(room.Players) < MinPlayers {
				e.endGameLocked(room, "Game over: too few players after the vote")
			}
		}
	}

	e.bc.SendMany(room.Players, EventVoteReset, map[string]any{})
}
