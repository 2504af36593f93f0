package manager

import (
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olanrewaju08325/typing-tester/internal/constants"
	"github.com/olanrewaju08325/typing-tester/internal/game"
)

type nopConn struct{}

func (nopConn) ReadJSON(v interface{}) error       { return io.EOF }
func (nopConn) WriteJSON(v interface{}) error      { return nil }
func (nopConn) SetWriteDeadline(t time.Time) error { return nil }
func (nopConn) Close() error                       { return nil }

func TestGetOrCreateIsIdempotent(t *testing.T) {
	rm := NewRoomManager()
	a := rm.GetOrCreate("R1")
	b := rm.GetOrCreate("R1")
	assert.Same(t, a, b)
}

func TestGetOrCreateConcurrent(t *testing.T) {
	rm := NewRoomManager()

	var wg sync.WaitGroup
	rooms := make([]*game.Room, 50)
	for i := range rooms {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rooms[i] = rm.GetOrCreate("shared")
		}(i)
	}
	wg.Wait()

	for _, room := range rooms {
		assert.Same(t, rooms[0], room)
	}
	rm.Mutex.RLock()
	assert.Len(t, rm.Rooms, 1)
	rm.Mutex.RUnlock()
}

func TestCreateRoomGeneratesDistinctKeys(t *testing.T) {
	rm := NewRoomManager()
	a := rm.CreateRoom()
	b := rm.CreateRoom()
	assert.NotEqual(t, a.ID, b.ID)
	assert.True(t, strings.HasPrefix(a.ID, "room_0x"))
}

func TestSanitizeUsername(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trims", "  ada  ", "ada"},
		{"defaults empty", "   ", "anonymous"},
		{"escapes markup", `<script>alert("x")</script>`, "&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt;"},
		{"caps length", strings.Repeat("a", 50), strings.Repeat("a", constants.MaxUsernameLength)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeUsername(tt.in))
		})
	}
}

func TestJoinSanitizesAndRegisters(t *testing.T) {
	rm := NewRoomManager()
	client := game.NewClient(nopConn{}, "  <b>ada</b>  ")

	room := rm.Join("R1", client)

	assert.Equal(t, "&lt;b&gt;ada&lt;/b&gt;", client.Username)
	_, ok := room.Progress(client.Username)
	assert.True(t, ok)
	assert.Same(t, room, client.Room)
}

func TestLeaveRemovesMembershipButKeepsRoom(t *testing.T) {
	rm := NewRoomManager()
	client := game.NewClient(nopConn{}, "ada")
	room := rm.Join("R1", client)

	rm.Leave(client)

	_, ok := room.Progress("ada")
	assert.False(t, ok)
	got, err := rm.Get("R1")
	require.NoError(t, err)
	assert.Same(t, room, got)
}

func TestSweepIdleEvictsOnlyExpiredEmptyRooms(t *testing.T) {
	rm := NewRoomManager()

	rm.Join("busy", game.NewClient(nopConn{}, "ada"))
	rm.GetOrCreate("empty")

	// Nothing is old enough yet.
	assert.Equal(t, 0, rm.SweepIdle(time.Now(), constants.RoomIdleTTL))

	future := time.Now().Add(constants.RoomIdleTTL + time.Minute)
	assert.Equal(t, 1, rm.SweepIdle(future, constants.RoomIdleTTL))

	_, err := rm.Get("empty")
	assert.Error(t, err)
	_, err = rm.Get("busy")
	assert.NoError(t, err)
}
