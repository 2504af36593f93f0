package game

import (
	"errors"
	"log"
	"math"
	"sync"
	"time"

	"github.com/olanrewaju08325/typing-tester/internal/constants"
	"github.com/olanrewaju08325/typing-tester/internal/models"
	"github.com/olanrewaju08325/typing-tester/internal/scoring"
)

var (
	ErrConnClosed      = errors.New("connection closed")
	ErrRaceInProgress  = errors.New("race already running in this room")
	ErrEmptySentence   = errors.New("race needs a sentence")
	ErrInvalidProgress = errors.New("progress is not a number")
	ErrUnknownPlayer   = errors.New("player not in room")
	ErrStaleProgress   = errors.New("progress drop beyond tolerance")
)

// Room is an isolated group of racing players sharing one sentence and
// one race clock. All state behind Mutex; rooms never coordinate with
// each other.
type Room struct {
	ID      string
	Clients map[string]*Client
	Players map[string]*PlayerState

	Sentence  string
	Status    string
	StartedAt *time.Time
	Finished  bool
	Winner    string
	Result    *models.RaceResult

	LastActive time.Time
	startTimer *time.Timer

	Mutex sync.RWMutex
}

func NewRoom(id string) *Room {
	log.Printf("Creating new room: %s", id)
	return &Room{
		ID:         id,
		Clients:    make(map[string]*Client),
		Players:    make(map[string]*PlayerState),
		Status:     constants.StatusIdle,
		LastActive: time.Now(),
	}
}

// MEMBERSHIP =>

// AddClient registers a player in the room. Rejoining with the same
// username replaces the connection but keeps the recorded progress.
func (room *Room) AddClient(client *Client) {
	room.Mutex.Lock()

	client.Room = room
	room.Clients[client.Username] = client

	state, ok := room.Players[client.Username]
	if !ok {
		state = &PlayerState{LastUpdate: time.Now()}
		room.Players[client.Username] = state
	}
	state.Connected = true
	room.LastActive = time.Now()

	log.Printf("Added player %s to room %s. Total players: %d",
		client.Username, room.ID, len(room.Players))

	room.Mutex.Unlock()

	room.BroadcastProgress()
}

// RemoveClient drops a player's membership and announces the updated
// roster to whoever is left.
func (room *Room) RemoveClient(client *Client) {
	room.Mutex.Lock()

	client.WriteMu.Lock()
	if client.Conn != nil {
		client.Conn.Close()
	}
	client.WriteMu.Unlock()

	// A rejoin may have replaced this connection already; only the
	// current holder of the username tears down membership.
	if current, ok := room.Clients[client.Username]; ok && current == client {
		delete(room.Clients, client.Username)
		delete(room.Players, client.Username)
	}
	room.LastActive = time.Now()

	remaining := len(room.Players)
	room.Mutex.Unlock()

	log.Printf("Removed player %s from room %s. Remaining: %d", client.Username, room.ID, remaining)

	if remaining > 0 {
		room.BroadcastProgress()
	}
}

// Empty reports whether nobody is left in the room.
func (room *Room) Empty() bool {
	room.Mutex.RLock()
	defer room.Mutex.RUnlock()
	return len(room.Clients) == 0 && len(room.Players) == 0
}

// Idle reports whether the room has no connections and has seen no
// activity for at least ttl. Used by the registry's eviction sweep.
func (room *Room) Idle(now time.Time, ttl time.Duration) bool {
	room.Mutex.RLock()
	defer room.Mutex.RUnlock()
	return len(room.Clients) == 0 && now.Sub(room.LastActive) >= ttl
}

// RACE LIFECYCLE =>

// RequestRace seeds the room with a fresh cycle: authoritative sentence,
// a start time pushed slightly into the future so clients can render a
// synchronized countdown, and cleared results from the previous cycle.
// Valid only from idle or finished.
func (room *Room) RequestRace(sentence string) error {
	if sentence == "" {
		return ErrEmptySentence
	}

	room.Mutex.Lock()

	if room.Status == constants.StatusCountdown || room.Status == constants.StatusActive {
		room.Mutex.Unlock()
		return ErrRaceInProgress
	}

	startAt := time.Now().Add(constants.StartGraceOffset)
	room.Sentence = sentence
	room.StartedAt = &startAt
	room.Finished = false
	room.Winner = ""
	room.Result = nil
	room.Status = constants.StatusCountdown
	room.LastActive = time.Now()

	// Fresh cycle, fresh progress; otherwise the anti-cheat clamp would
	// reject every early report of the next race.
	for _, state := range room.Players {
		state.Progress = 0
		state.WPM = 0
		state.LastUpdate = time.Now()
	}

	if room.startTimer != nil {
		room.startTimer.Stop()
	}
	room.startTimer = time.AfterFunc(time.Until(startAt), room.beginRace)

	room.Mutex.Unlock()

	log.Printf("Race requested in room %s, start at %s", room.ID, startAt.Format(time.RFC3339Nano))

	startUnix := float64(startAt.UnixNano()) / 1e9
	room.Broadcast(models.OutboundMessage{
		Type: models.EventNewSentence,
		Data: models.NewSentenceData{Sentence: sentence, StartAt: startUnix},
	})
	room.Broadcast(models.OutboundMessage{
		Type: models.EventCountdown,
		Data: models.CountdownData{
			StartAt: startUnix,
			Seconds: int(math.Ceil(constants.StartGraceOffset.Seconds())),
		},
	})

	return nil
}

// beginRace flips countdown to active once the scheduled start passes.
// Clients self-time against the broadcast timestamp; this transition
// keeps the server-side state machine honest.
func (room *Room) beginRace() {
	room.Mutex.Lock()
	if room.Status != constants.StatusCountdown {
		room.Mutex.Unlock()
		return
	}
	room.Status = constants.StatusActive
	sentence := room.Sentence
	var startUnix float64
	if room.StartedAt != nil {
		startUnix = float64(room.StartedAt.UnixNano()) / 1e9
	}
	room.Mutex.Unlock()

	log.Printf("Race active in room %s", room.ID)

	room.Broadcast(models.OutboundMessage{
		Type: models.EventRaceStarted,
		Data: models.NewSentenceData{Sentence: sentence, StartAt: startUnix},
	})
}

// Finish handles a race-finished report. The first caller of a cycle
// wins; everyone after gets a late-finish notice and changes nothing.
// Accuracy is always scored against the room's own sentence, never the
// text a client claims it was racing.
func (room *Room) Finish(username, typedText string, clientElapsed *float64) (result *models.RaceResult, opponents []string, late bool) {
	room.Mutex.Lock()

	if room.Finished {
		room.Mutex.Unlock()
		log.Printf("Late finish from %s in room %s", username, room.ID)
		room.Broadcast(models.OutboundMessage{
			Type: models.EventLateFinish,
			Data: models.LateFinishData{Username: username},
		})
		return nil, nil, true
	}

	now := time.Now()
	startedAt := now
	if room.StartedAt != nil {
		startedAt = *room.StartedAt
	}
	duration := now.Sub(startedAt).Seconds()
	if duration < 0 {
		duration = 0
	}

	// Client clocks smooth out network jitter, but only inside a bounded
	// trust window around what the server measured.
	if clientElapsed != nil && math.Abs(*clientElapsed-duration) < constants.FinishTolerance.Seconds() {
		duration = *clientElapsed
	}

	accuracy := scoring.ComputeAccuracy(room.Sentence, typedText)
	wpm := scoring.ComputeWPM(typedText, duration)

	room.Finished = true
	room.Winner = username
	room.Status = constants.StatusFinished
	room.Result = &models.RaceResult{
		Username: username,
		WPM:      wpm,
		Accuracy: accuracy,
		Time:     duration,
		Winner:   username,
	}
	room.LastActive = now

	for name := range room.Players {
		if name != username {
			opponents = append(opponents, name)
		}
	}
	result = room.Result

	room.Mutex.Unlock()

	log.Printf("Race finished in room %s: winner=%s wpm=%d accuracy=%d time=%.2fs",
		room.ID, username, wpm, accuracy, duration)

	room.Broadcast(models.OutboundMessage{
		Type: models.EventRaceResult,
		Data: result,
	})

	return result, opponents, false
}

// PROGRESS TRACKING =>

// UpdateProgress ingests one self-reported progress value. Values clamp
// to [0,100]; a drop of more than MaxProgressDrop below the last
// accepted value is rejected and the previous value retained.
func (room *Room) UpdateProgress(username string, progress float64, wpm *float64) error {
	if math.IsNaN(progress) {
		return ErrInvalidProgress
	}

	room.Mutex.Lock()

	state, ok := room.Players[username]
	if !ok {
		room.Mutex.Unlock()
		return ErrUnknownPlayer
	}

	clamped := math.Max(0, math.Min(100, progress))
	if clamped < state.Progress-constants.MaxProgressDrop {
		room.Mutex.Unlock()
		return ErrStaleProgress
	}

	state.Progress = clamped
	state.LastUpdate = time.Now()
	if wpm != nil {
		state.WPM = *wpm
	}
	room.LastActive = time.Now()

	room.Mutex.Unlock()

	room.BroadcastProgress()
	return nil
}

// Progress returns the last accepted progress for a player, mainly for
// inspection in tests and the REST surface.
func (room *Room) Progress(username string) (float64, bool) {
	room.Mutex.RLock()
	defer room.Mutex.RUnlock()
	state, ok := room.Players[username]
	if !ok {
		return 0, false
	}
	return state.Progress, true
}

// COMMUNICATION =>

// BroadcastProgress sends the complete per-player progress map so any
// client can rebuild room state from the latest snapshot alone.
func (room *Room) BroadcastProgress() {
	room.Mutex.RLock()
	snapshot := models.ProgressSnapshot{Players: make(map[string]float64, len(room.Players))}
	for name, state := range room.Players {
		snapshot.Players[name] = state.Progress
	}
	room.Mutex.RUnlock()

	room.Broadcast(models.OutboundMessage{
		Type: models.EventUpdateProgress,
		Data: snapshot,
	})
}

// Broadcast writes a message to every connection in the room. Delivery
// is best-effort: a slow or dead peer costs one write deadline, never a
// retry, and never another room's time.
func (room *Room) Broadcast(msg models.OutboundMessage) {
	room.Mutex.RLock()
	clients := make([]*Client, 0, len(room.Clients))
	for _, client := range room.Clients {
		clients = append(clients, client)
	}
	msg.RoomID = room.ID
	room.Mutex.RUnlock()

	msg.Time = time.Now()

	var wg sync.WaitGroup
	for _, client := range clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			if err := c.SafeWriteJSON(msg); err != nil {
				log.Printf("Broadcast to %s in room %s failed: %v", c.Username, room.ID, err)
			}
		}(client)
	}
	wg.Wait()
}

// StopTimers cancels the pending start transition, if any. Called when
// the registry evicts the room.
func (room *Room) StopTimers() {
	room.Mutex.Lock()
	defer room.Mutex.Unlock()
	if room.startTimer != nil {
		room.startTimer.Stop()
		room.startTimer = nil
	}
}
