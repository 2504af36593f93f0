package game

import (
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/olanrewaju08325/typing-tester/internal/constants"
)

// Conn is the subset of *websocket.Conn the game layer touches. Tests
// substitute an in-memory implementation.
type Conn interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// PlayerState is one player's progress inside a single room. It is
// mutated only by that player's own progress messages and read when a
// broadcast snapshot is built.
type PlayerState struct {
	Progress   float64   `json:"progress"`
	WPM        float64   `json:"wpm"`
	Connected  bool      `json:"connected"`
	LastUpdate time.Time `json:"last_update"`
}

// Client represents a connected player: the socket, the identity it
// authenticated (or improvised) with, and its room reference.
type Client struct {
	Conn     Conn
	Username string
	Room     *Room
	Limiter  *rate.Limiter
	WriteMu  sync.Mutex
}

// NewClient wraps a connection with a per-connection limiter for
// progress telemetry.
func NewClient(conn Conn, username string) *Client {
	log.Printf("New client connected: %s", username)
	return &Client{
		Conn:     conn,
		Username: username,
		Limiter:  rate.NewLimiter(rate.Limit(constants.ProgressEventsPerSecond), constants.ProgressEventBurst),
	}
}

// SafeWriteJSON serializes writes on the connection. Write errors are
// the caller's problem; broadcast treats them as best-effort.
func (c *Client) SafeWriteJSON(v interface{}) error {
	c.WriteMu.Lock()
	defer c.WriteMu.Unlock()

	if c.Conn == nil {
		return ErrConnClosed
	}
	if err := c.Conn.SetWriteDeadline(time.Now().Add(constants.BroadcastWriteTimeout)); err != nil {
		return err
	}
	return c.Conn.WriteJSON(v)
}
