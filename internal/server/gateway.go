package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/example/star-crew/internal/game"
)

// Message is the inbound wire envelope.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// WSOut is the outbound wire envelope.
type WSOut struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

const (
	writeTimeout = 10 * time.Second
	sendBuffer   = 64

	// Inbound message budget per connection.
	msgRate  = 20
	msgBurst = 40
)

// Gateway terminates websocket connections, dispatches requests into the
// engine and implements its Broadcaster.
type Gateway struct {
	engine   *game.Engine
	upgrader websocket.Upgrader
	log      zerolog.Logger

	mu    sync.RWMutex
	conns map[game.PlayerID]*client
}

// NewGateway builds the transport layer. An empty origin list allows all
// origins. Attach the engine before serving.
func NewGateway(log zerolog.Logger, allowedOrigins []string) *Gateway {
	return &Gateway{
		log:   log,
		conns: make(map[game.PlayerID]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowedOrigins) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				for _, allowed := range allowedOrigins {
					if origin == allowed {
						return true
					}
				}
				return false
			},
		},
	}
}

// Attach wires in the engine. The gateway and engine reference each other,
// so construction happens in two steps.
func (g *Gateway) Attach(engine *game.Engine) {
	g.engine = engine
}

type client struct {
	id      game.PlayerID
	conn    *websocket.Conn
	send    chan WSOut
	limiter *rate.Limiter

	done      chan struct{}
	closeOnce sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// enqueue hands a message to the write pump. Messages to a closed or
// backed-up connection are dropped rather than blocking the engine.
func (c *client) enqueue(out WSOut) {
	select {
	case <-c.done:
	case c.send <- out:
	default:
	}
}

func (c *client) writePump() {
	for {
		select {
		case <-c.done:
			return
		case out := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteJSON(out); err != nil {
				c.close()
				return
			}
		}
	}
}

// HandleWS upgrades a connection, assigns it a transient handle and runs its
// read loop until the socket drops.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{
		id:      game.PlayerID(uuid.NewString()),
		conn:    conn,
		send:    make(chan WSOut, sendBuffer),
		limiter: rate.NewLimiter(msgRate, msgBurst),
		done:    make(chan struct{}),
	}

	g.mu.Lock()
	g.conns[c.id] = c
	g.mu.Unlock()

	go c.writePump()

	g.log.Info().Str("player", string(c.id)).Msg("connection established")
	c.enqueue(WSOut{Type: game.EventConnected, Payload: map[string]any{
		"socketId":  c.id,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}})

	g.readLoop(c)
}

func (g *Gateway) readLoop(c *client) {
	defer func() {
		c.close()
		g.mu.Lock()
		delete(g.conns, c.id)
		g.mu.Unlock()
		g.engine.Disconnect(c.id)
	}()

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		if !c.limiter.Allow() {
			continue
		}
		g.dispatch(c, msg)
	}
}

// dispatch routes one request into the engine. A panic while handling a
// request is contained here: it is logged and reported back as a generic
// failure, leaving the process and every other room intact.
func (g *Gateway) dispatch(c *client, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			g.log.Error().Interface("panic", r).Str("type", msg.Type).
				Str("player", string(c.id)).Msg("request handling panicked")
			g.sendError(c, "operationFailed", "operation failed")
		}
	}()

	var err error
	switch msg.Type {
	case "createRoom":
		var data struct {
			Username string `json:"username"`
		}
		json.Unmarshal(msg.Payload, &data)
		err = g.engine.CreateRoom(c.id, data.Username)

	case "joinRoom":
		var data struct {
			RoomID   string `json:"roomId"`
			Username string `json:"username"`
		}
		json.Unmarshal(msg.Payload, &data)
		err = g.engine.JoinRoom(c.id, data.RoomID, data.Username)

	case "startGame":
		err = g.engine.StartGame(c.id)

	case "useSecretButton":
		var data struct {
			Action string `json:"action"`
		}
		json.Unmarshal(msg.Payload, &data)
		err = g.engine.UseSecretAction(c.id, data.Action)

	case "repairSystem":
		var data struct {
			System string `json:"system"`
		}
		json.Unmarshal(msg.Payload, &data)
		err = g.engine.RepairSystem(c.id, data.System)

	case "castVote":
		var data struct {
			TargetPlayerID string `json:"targetPlayerId"`
		}
		json.Unmarshal(msg.Payload, &data)
		err = g.engine.CastVote(c.id, game.PlayerID(data.TargetPlayerID))

	case "sendChat":
		var data struct {
			Message string `json:"message"`
		}
		json.Unmarshal(msg.Payload, &data)
		err = g.engine.SendChat(c.id, data.Message)

	case "ping":
		c.enqueue(WSOut{Type: game.EventPong})

	default:
		g.log.Debug().Str("type", msg.Type).Msg("unknown message type")
	}

	if err != nil {
		g.sendError(c, errorCode(err), err.Error())
	}
}

func (g *Gateway) sendError(c *client, code, message string) {
	c.enqueue(WSOut{Type: game.EventError, Payload: map[string]any{
		"code":    code,
		"message": message,
	}})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		return "roomNotFound"
	case errors.Is(err, game.ErrGameInProgress):
		return "gameInProgress"
	case errors.Is(err, game.ErrRoomFull):
		return "roomFull"
	case errors.Is(err, game.ErrDuplicateName):
		return "duplicateName"
	case errors.Is(err, game.ErrNotEnoughPlayers):
		return "notEnoughPlayers"
	case errors.Is(err, game.ErrNoUsesLeft):
		return "noUsesLeft"
	case errors.Is(err, game.ErrInvalidSystem):
		return "invalidSystem"
	case errors.Is(err, game.ErrInvalidTarget):
		return "invalidTarget"
	}
	return "operationFailed"
}
