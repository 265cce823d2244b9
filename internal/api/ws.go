package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/quizpot/quizpot/internal/domain"
	"github.com/quizpot/quizpot/internal/errors"
	"github.com/quizpot/quizpot/internal/event"
	"github.com/quizpot/quizpot/internal/registry"
	"github.com/quizpot/quizpot/internal/room"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// notification is the wire envelope for everything pushed to clients.
type notification struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type inboundMsg struct {
	Type           string        `json:"type"`
	Ready          bool          `json:"ready"`
	QuestionIndex  int           `json:"question_index"`
	AnswerIndex    int           `json:"answer_index"`
	ElapsedSeconds float64       `json:"elapsed_seconds"`
	Accept         bool          `json:"accept"`
	Settings       *settingsView `json:"settings"`
}

type client struct {
	roomID   string
	playerID string
	conn     *websocket.Conn
	send     chan []byte
}

type outbound struct {
	roomID  string
	payload []byte
}

// gateway fans room events out to the websocket clients of each room and
// feeds client actions into the room actors. The room remains the sole
// source of truth: clients render broadcast snapshots, they never predict.
type gateway struct {
	reg *registry.Registry

	register   chan *client
	unregister chan *client
	broadcast  chan outbound

	// owned by the hub goroutine
	rooms map[string]map[*client]struct{}
}

func newGateway(reg *registry.Registry, eb *event.Bus) *gateway {
	g := &gateway{
		reg:        reg,
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan outbound, 256),
		rooms:      make(map[string]map[*client]struct{}),
	}

	for _, name := range []string{
		domain.EventNameRoomUpdated,
		domain.EventNamePlayerJoined,
		domain.EventNamePlayerLeft,
		domain.EventNamePlayerReady,
		domain.EventNameGameStarted,
		domain.EventNameQuestionStarted,
		domain.EventNameQuestionResult,
		domain.EventNameGameCompleted,
		domain.EventNameDoubleDownOffer,
	} {
		eb.Subscribe(name, g.onRoomEvent)
	}

	go g.run()
	return g
}

func (g *gateway) run() {
	for {
		select {
		case c := <-g.register:
			if g.rooms[c.roomID] == nil {
				g.rooms[c.roomID] = make(map[*client]struct{})
			}
			g.rooms[c.roomID][c] = struct{}{}

		case c := <-g.unregister:
			if peers, ok := g.rooms[c.roomID]; ok {
				if _, ok := peers[c]; ok {
					delete(peers, c)
					close(c.send)
					if len(peers) == 0 {
						delete(g.rooms, c.roomID)
					}
				}
			}

		case msg := <-g.broadcast:
			for c := range g.rooms[msg.roomID] {
				select {
				case c.send <- msg.payload:
				default:
					// Slow consumer; drop the connection rather than the room.
					delete(g.rooms[msg.roomID], c)
					close(c.send)
				}
			}
		}
	}
}

func (g *gateway) onRoomEvent(_ context.Context, e event.Event) error {
	roomID, data := wireEvent(e)
	if roomID == "" {
		return nil
	}

	b, err := json.Marshal(notification{Event: e.Name(), Data: data})
	if err != nil {
		return err
	}

	g.broadcast <- outbound{roomID: roomID, payload: b}
	return nil
}

// wireEvent maps a bus event to its room and JSON-friendly payload.
func wireEvent(e event.Event) (string, any) {
	switch ev := e.(type) {
	case domain.EventRoomUpdated:
		return ev.Room.ID, toRoomView(ev.Room)
	case domain.EventPlayerJoined:
		return ev.RoomID, gin.H{"player_id": ev.PlayerID, "wager": ev.Wager}
	case domain.EventPlayerLeft:
		return ev.RoomID, gin.H{"player_id": ev.PlayerID, "refunded": ev.Refunded}
	case domain.EventPlayerReady:
		return ev.RoomID, gin.H{"player_id": ev.PlayerID, "ready": ev.Ready}
	case domain.EventGameStarted:
		return ev.RoomID, gin.H{"countdown_seconds": ev.CountdownSeconds, "question_count": ev.QuestionCount}
	case domain.EventQuestionStarted:
		return ev.RoomID, gin.H{
			"question_index": ev.QuestionIndex,
			"question_id":    ev.QuestionID,
			"text":           ev.Text,
			"options":        ev.Options,
			"deadline":       ev.Deadline,
		}
	case domain.EventQuestionResult:
		return ev.RoomID, gin.H{
			"question_index": ev.QuestionIndex,
			"correct_index":  ev.CorrectIndex,
			"points":         ev.Points,
		}
	case domain.EventGameCompleted:
		standings := make([]gin.H, 0, len(ev.Standings))
		for _, s := range ev.Standings {
			standings = append(standings, gin.H{
				"player_id": s.PlayerID,
				"position":  s.Position,
				"score":     s.Score,
				"winnings":  s.Winnings,
			})
		}
		return ev.RoomID, gin.H{"standings": standings, "prize_pool": ev.PrizePool}
	case domain.EventDoubleDownOffer:
		return ev.RoomID, gin.H{
			"winner_id":  ev.WinnerID,
			"amount":     ev.Amount,
			"expires_at": ev.ExpiresAt,
		}
	default:
		return "", nil
	}
}

func (g *gateway) handle(c *gin.Context) {
	r, err := g.reg.Get(c.Param("id"))
	if err != nil {
		abortError(c, err)
		return
	}

	player := playerID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("gateway: websocket upgrade failed", "error", err)
		return
	}

	cl := &client{
		roomID:   r.ID(),
		playerID: player,
		conn:     conn,
		send:     make(chan []byte, 64),
	}
	g.register <- cl
	go cl.writePump()

	ctx := c.Request.Context()

	// A returning participant is a reconnect, not a fresh join.
	if snap, err := r.Snapshot(context.Background()); err == nil {
		for _, p := range snap.Participants {
			if p.PlayerID == player && !p.Connected {
				_ = r.Reconnect(context.Background(), player)
				break
			}
		}
		cl.notify(domain.EventNameRoomUpdated, toRoomView(snap))
	}

	defer func() {
		g.unregister <- cl
		conn.Close()
		g.onDrop(r, player)
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("gateway: read failed", "room", r.ID(), "player", player, "error", err)
			}
			return
		}

		var msg inboundMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			cl.notifyError(errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
			continue
		}

		if err := g.dispatch(ctx, r, player, msg); err != nil {
			cl.notifyError(err)
		}
	}
}

func (g *gateway) dispatch(ctx context.Context, r *room.Room, player string, msg inboundMsg) error {
	switch msg.Type {
	case "join":
		return r.Join(ctx, player)
	case "leave":
		return r.Leave(ctx, player)
	case "ready":
		return r.SetReady(ctx, player, msg.Ready)
	case "update_settings":
		if msg.Settings == nil {
			return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("update_settings requires settings"))
		}
		return r.UpdateSettings(ctx, player, msg.Settings.toSettings())
	case "start":
		return r.Start(ctx, player)
	case "answer":
		return r.SubmitAnswer(ctx, player, msg.QuestionIndex, msg.AnswerIndex, msg.ElapsedSeconds)
	case "double_down":
		return r.DoubleDownResponse(ctx, player, msg.Accept)
	default:
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("unknown message type %q", msg.Type))
	}
}

// onDrop converts a dropped link into the room's disconnect handling when the
// player is still a participant.
func (g *gateway) onDrop(r *room.Room, player string) {
	snap, err := r.Snapshot(context.Background())
	if err != nil {
		return
	}
	for _, p := range snap.Participants {
		if p.PlayerID == player {
			_ = r.Disconnect(context.Background(), player)
			return
		}
	}
}

func (cl *client) writePump() {
	for payload := range cl.send {
		if err := cl.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func (cl *client) notify(event string, data any) {
	b, err := json.Marshal(notification{Event: event, Data: data})
	if err != nil {
		return
	}
	select {
	case cl.send <- b:
	default:
	}
}

func (cl *client) notifyError(err error) {
	cl.notify("error", errors.Convert(err))
}
