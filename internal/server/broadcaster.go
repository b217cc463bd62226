package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/example/star-crew/internal/game"
)

// Send implements game.Broadcaster for a single participant. Unknown handles
// are dropped; the engine may address players whose sockets already closed.
func (g *Gateway) Send(id game.PlayerID, event string, payload any) {
	g.mu.RLock()
	c := g.conns[id]
	g.mu.RUnlock()
	if c == nil {
		return
	}
	c.enqueue(WSOut{Type: event, Payload: payload})
}

// SendMany fans one event out to every listed participant.
func (g *Gateway) SendMany(ids []game.PlayerID, event string, payload any) {
	for _, id := range ids {
		g.Send(id, event, payload)
	}
}

// Close force-closes a participant's transport session, as happens on
// ejection. The read loop notices and runs its normal disconnect path.
func (g *Gateway) Close(id game.PlayerID) {
	g.mu.RLock()
	c := g.conns[id]
	g.mu.RUnlock()
	if c != nil {
		c.close()
	}
}

// HandleStatus serves the read-only process status: room and player counts.
func (g *Gateway) HandleStatus(w http.ResponseWriter, r *http.Request) {
	players, rooms := g.engine.Status()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"players":   players,
		"rooms":     rooms,
	})
}
