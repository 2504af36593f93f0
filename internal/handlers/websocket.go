package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/olanrewaju08325/typing-tester/internal/constants"
	"github.com/olanrewaju08325/typing-tester/internal/game"
	"github.com/olanrewaju08325/typing-tester/internal/manager"
	"github.com/olanrewaju08325/typing-tester/internal/models"
	"github.com/olanrewaju08325/typing-tester/internal/progression"
	"github.com/olanrewaju08325/typing-tester/internal/store"
)

// Configure WebSocket upgrader
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict origins once the frontend domain is settled
		return true
	},
}

// Handler wires the websocket event surface to the room registry, the
// progression engine and the sentence pool.
type Handler struct {
	Rooms       *manager.RoomManager
	Progression *progression.Engine
	Sentences   store.SentenceStore
}

func New(rooms *manager.RoomManager, engine *progression.Engine, sentences store.SentenceStore) *Handler {
	return &Handler{Rooms: rooms, Progression: engine, Sentences: sentences}
}

// HandleWebSocket upgrades the connection and binds it to the room
// named in the URL.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]
	username := r.URL.Query().Get("username")

	if roomID == "" {
		http.Error(w, "Missing room id", http.StatusBadRequest)
		return
	}

	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := game.NewClient(conn, username)
	room := h.Rooms.Join(roomID, client)

	go h.listen(room, client)
}

// listen pumps inbound messages for one connection until it closes,
// then tears down room membership.
func (h *Handler) listen(room *game.Room, client *game.Client) {
	defer h.Rooms.Leave(client)

	for {
		var msg models.Message
		if err := client.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error for user %s: %v", client.Username, err)
			}
			return
		}
		h.dispatch(room, client, msg)
	}
}

// dispatch routes one inbound event. Malformed payloads are telemetry
// noise, not contract violations: they are dropped without a reply and
// without touching room state.
func (h *Handler) dispatch(room *game.Room, client *game.Client, msg models.Message) {
	switch msg.Type {
	case models.EventJoinRoom:
		h.handleJoin(room, client, msg)
	case models.EventNewSentenceRequest:
		h.handleRaceRequest(room, client, msg)
	case models.EventProgressUpdate:
		h.handleProgress(room, client, msg)
	case models.EventRaceFinished:
		h.handleFinish(room, client, msg)
	default:
		log.Printf("Unknown message type %q from %s", msg.Type, client.Username)
	}
}

// handleJoin re-announces the room snapshot. A connection is bound to
// one room for its lifetime; a join naming another room is dropped.
func (h *Handler) handleJoin(room *game.Room, client *game.Client, msg models.Message) {
	var payload models.JoinPayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		return
	}
	if payload.Room != "" && payload.Room != room.ID {
		log.Printf("Join for foreign room %q from %s in %s ignored", payload.Room, client.Username, room.ID)
		return
	}
	room.BroadcastProgress()
}

func (h *Handler) handleRaceRequest(room *game.Room, client *game.Client, msg models.Message) {
	var payload models.RaceRequestPayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		return
	}

	sentence := payload.Sentence
	if sentence == "" {
		level := payload.Level
		if level == "" {
			level = constants.BaseLevel
		}
		picked, err := h.Sentences.RandomSentence(context.Background(), level)
		if err != nil {
			log.Printf("No sentence available for level %q: %v", level, err)
			return
		}
		sentence = picked
	}

	if err := room.RequestRace(sentence); err != nil {
		log.Printf("Race request from %s in room %s rejected: %v", client.Username, room.ID, err)
		client.SafeWriteJSON(models.OutboundMessage{
			Type: models.EventError,
			Data: err.Error(),
			Time: time.Now(),
		})
	}
}

func (h *Handler) handleProgress(room *game.Room, client *game.Client, msg models.Message) {
	if !client.Limiter.Allow() {
		return
	}

	var payload models.ProgressPayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		// Non-numeric progress included: best-effort telemetry, dropped.
		return
	}

	// The connection identity is authoritative; a payload naming some
	// other player cannot move their marker.
	if err := room.UpdateProgress(client.Username, float64(payload.Progress), payload.WPM); err != nil {
		log.Printf("Progress update from %s in room %s dropped: %v", client.Username, room.ID, err)
	}
}

func (h *Handler) handleFinish(room *game.Room, client *game.Client, msg models.Message) {
	var payload models.FinishPayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		return
	}

	result, opponents, late := room.Finish(client.Username, payload.Text, payload.Time)
	if late || result == nil {
		return
	}

	update, err := h.Progression.HandleRaceFinish(context.Background(), client.Username, opponents, result.WPM)
	if err != nil {
		// Guests have no profile; their races still score, they just
		// never level up.
		log.Printf("No progression for %s: %v", client.Username, err)
		return
	}

	// Level updates go to the finishing connection only.
	if err := client.SafeWriteJSON(models.OutboundMessage{
		Type:   models.EventLevelUpdate,
		RoomID: room.ID,
		Data:   update,
		Time:   time.Now(),
	}); err != nil {
		log.Printf("Failed to send level update to %s: %v", client.Username, err)
	}
}
