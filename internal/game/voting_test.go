package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startVotingRoom(t *testing.T, e *Engine, n int) (string, []PlayerID) {
	t.Helper()
	ids := testIDs(n)
	roomID := setupRoom(t, e, ids)
	require.NoError(t, e.StartGame(ids[0]))
	return roomID, ids
}

func TestVoteRoundResolvesWhenAllVoted(t *testing.T) {
	e, bc := newTestEngine(30)
	roomID, ids := startVotingRoom(t, e, 3)
	bc.reset()

	require.NoError(t, e.CastVote(ids[0], ids[2]))
	require.NoError(t, e.CastVote(ids[1], ids[2]))
	assert.Zero(t, bc.count(EventVoteReset), "round must not resolve early")

	require.NoError(t, e.CastVote(ids[2], ids[0]))

	// Majority of 2 on ids[2]: ejected, disconnected, purged.
	assert.Positive(t, bc.count(EventPlayerEjected))
	assert.Contains(t, bc.closed, ids[2])
	assert.Nil(t, getPlayer(e, ids[2]))

	room := getRoom(e, roomID)
	assert.Equal(t, []PlayerID{ids[0], ids[1]}, room.Players)
	assert.Empty(t, room.Votes)
	for _, id := range room.Players {
		assert.False(t, getPlayer(e, id).Voted)
	}
	assert.Positive(t, bc.count(EventVoteReset))

	// Two members remain, so the game continues.
	assert.Equal(t, PhaseActive, room.Phase)
}

func TestLoneAccuserCannotEject(t *testing.T) {
	e, bc := newTestEngine(31)
	roomID, ids := startVotingRoom(t, e, 2)
	bc.reset()

	require.NoError(t, e.CastVote(ids[0], ids[1]))
	require.NoError(t, e.CastVote(ids[1], ids[0]))

	// 1-1: the round resolves but nobody is ejected.
	assert.Positive(t, bc.count(EventVoteReset))
	assert.Zero(t, bc.count(EventPlayerEjected))
	assert.Empty(t, bc.closed)

	room := getRoom(e, roomID)
	assert.Len(t, room.Players, 2)
	assert.Empty(t, room.Votes)
	assert.Equal(t, PhaseActive, room.Phase)
}

func TestRepeatVoteIgnored(t *testing.T) {
	e, bc := newTestEngine(32)
	roomID, ids := startVotingRoom(t, e, 3)
	bc.reset()

	require.NoError(t, e.CastVote(ids[0], ids[1]))
	require.NoError(t, e.CastVote(ids[0], ids[2])) // no-op, not an error

	room := getRoom(e, roomID)
	assert.Len(t, room.Votes, 1)
	assert.Equal(t, ids[1], room.Votes[ids[0]])
	assert.Equal(t, len(ids), bc.count(EventVoteCast))
}

func TestVoteInvalidTargets(t *testing.T) {
	e, _ := newTestEngine(33)
	_, ids := startVotingRoom(t, e, 3)

	assert.ErrorIs(t, e.CastVote(ids[0], "nobody"), ErrInvalidTarget)
	assert.ErrorIs(t, e.CastVote(ids[0], ids[0]), ErrInvalidTarget)

	// A member of some other room is not a valid target.
	require.NoError(t, e.CreateRoom("outsider", "Out"))
	assert.ErrorIs(t, e.CastVote(ids[0], "outsider"), ErrInvalidTarget)
}

func TestVoteIgnoredOutsideActiveSession(t *testing.T) {
	e, bc := newTestEngine(34)
	ids := testIDs(2)
	setupRoom(t, e, ids)
	bc.reset()

	require.NoError(t, e.CastVote(ids[0], ids[1]))
	assert.Zero(t, bc.count(EventVoteCast))
}

func TestEjectionBelowMinimumEndsGame(t *testing.T) {
	e, bc := newTestEngine(35)
	roomID, ids := startVotingRoom(t, e, 3)

	// Two votes land on ids[1], then the third member drops and is purged
	// before the round completes. The remaining member's vote closes the
	// round with only two members left.
	require.NoError(t, e.CastVote(ids[0], ids[1]))
	require.NoError(t, e.CastVote(ids[2], ids[1]))
	e.Disconnect(ids[2])
	e.purgePlayer(ids[2])
	require.Len(t, getRoom(e, roomID).Players, 2)
	bc.reset()

	require.NoError(t, e.CastVote(ids[1], ids[0]))

	// ids[1] is ejected on the standing tally of two, leaving one member.
	assert.Positive(t, bc.count(EventPlayerEjected))
	room := getRoom(e, roomID)
	assert.Equal(t, []PlayerID{ids[0]}, room.Players)
	assert.Equal(t, PhaseEnded, room.Phase)
	ended, ok := bc.last(EventGameEnded)
	require.True(t, ok)
	assert.Contains(t, ended.Payload.(map[string]any)["message"], "too few players")
}

func TestVotingRoundCanRepeatAfterReset(t *testing.T) {
	e, bc := newTestEngine(36)
	_, ids := startVotingRoom(t, e, 2)
	bc.reset()

	require.NoError(t, e.CastVote(ids[0], ids[1]))
	require.NoError(t, e.CastVote(ids[1], ids[0]))
	require.Positive(t, bc.count(EventVoteReset))
	bc.reset()

	// Flags cleared: a fresh round accepts votes again.
	require.NoError(t, e.CastVote(ids[0], ids[1]))
	assert.Positive(t, bc.count(EventVoteCast))
}
