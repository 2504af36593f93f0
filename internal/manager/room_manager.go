package manager

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/olanrewaju08325/typing-tester/internal/constants"
	"github.com/olanrewaju08325/typing-tester/internal/game"
)

// RoomManager owns the mapping from room key to room state. Rooms are
// created on first join or first race request for a key and reclaimed
// by the idle sweep.
type RoomManager struct {
	Rooms map[string]*game.Room
	Mutex sync.RWMutex
}

func NewRoomManager() *RoomManager {
	log.Printf("Creating new room manager")
	return &RoomManager{
		Rooms: make(map[string]*game.Room),
	}
}

func generateRoomID() string {
	return "room_0x" + uuid.New().String()[:8]
}

// SanitizeUsername trims, defaults, caps and escapes a player-supplied
// display name so stored content is never replayed verbatim to other
// clients.
func SanitizeUsername(username string) string {
	username = strings.TrimSpace(username)
	if username == "" {
		username = "anonymous"
	}
	runes := []rune(username)
	if len(runes) > constants.MaxUsernameLength {
		username = string(runes[:constants.MaxUsernameLength])
	}
	return html.EscapeString(username)
}

// GetOrCreate returns the room for a key, creating an empty one if
// needed. Safe for concurrent callers; both see the same room.
func (rm *RoomManager) GetOrCreate(roomID string) *game.Room {
	rm.Mutex.Lock()
	defer rm.Mutex.Unlock()

	if room, ok := rm.Rooms[roomID]; ok {
		return room
	}

	room := game.NewRoom(roomID)
	rm.Rooms[roomID] = room
	return room
}

// Get looks up an existing room.
func (rm *RoomManager) Get(roomID string) (*game.Room, error) {
	rm.Mutex.RLock()
	defer rm.Mutex.RUnlock()

	room, ok := rm.Rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("room %s does not exist", roomID)
	}
	return room, nil
}

// CreateRoom makes a fresh room under a generated key.
func (rm *RoomManager) CreateRoom() *game.Room {
	return rm.GetOrCreate(generateRoomID())
}

// Join registers a client in a room, creating the room on first use.
// The client's display name is sanitized before it is stored anywhere.
func (rm *RoomManager) Join(roomID string, client *game.Client) *game.Room {
	client.Username = SanitizeUsername(client.Username)
	room := rm.GetOrCreate(roomID)
	room.AddClient(client)
	return room
}

// Leave tears down a client's membership in its room. The room itself
// stays behind for the idle sweep; a rejoin within the TTL finds it.
func (rm *RoomManager) Leave(client *game.Client) {
	room := client.Room
	if room == nil {
		return
	}
	room.RemoveClient(client)
}

// SweepIdle evicts rooms with no connections and no activity for the
// TTL. Returns how many rooms were removed.
func (rm *RoomManager) SweepIdle(now time.Time, ttl time.Duration) int {
	rm.Mutex.Lock()
	defer rm.Mutex.Unlock()

	evicted := 0
	for id, room := range rm.Rooms {
		if room.Idle(now, ttl) {
			room.StopTimers()
			delete(rm.Rooms, id)
			evicted++
			log.Printf("Evicted idle room: %s", id)
		}
	}
	return evicted
}

// StartJanitor runs the idle sweep on a ticker until ctx is cancelled.
func (rm *RoomManager) StartJanitor(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(constants.RoomSweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rm.SweepIdle(time.Now(), constants.RoomIdleTTL)
			case <-ctx.Done():
				log.Printf("Room janitor stopped")
				return
			}
		}
	}()
}
