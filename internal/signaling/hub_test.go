package signaling

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kfalicov/super-swash-bros/internal/protocol"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub()
	go h.Run()
	return h
}

func connect(t *testing.T, h *Hub, sessionID string) *Client {
	t.Helper()
	c := &Client{hub: h, SessionID: sessionID, Send: make(chan any, 16)}
	h.Register <- c
	return c
}

func command(h *Hub, c *Client, req protocol.Request) {
	h.Inbound <- Command{Client: c, Req: req}
}

// recv pulls the next queued message for a client, failing the test if the
// hub sends nothing.
func recv(t *testing.T, c *Client) any {
	t.Helper()
	select {
	case msg, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func expectNothing(t *testing.T, c *Client) {
	t.Helper()
	select {
	case msg := <-c.Send:
		t.Fatalf("unexpected message: %#v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

// createRoom drives a create command and returns the allocated code.
func createRoom(t *testing.T, h *Hub, c *Client, private bool) string {
	t.Helper()
	command(h, c, protocol.Request{Cmd: protocol.CmdCreate, Private: private})

	you, ok := recv(t, c).(protocol.YouMsg)
	require.True(t, ok, "expected you message first")
	assert.Equal(t, c.SessionID, you.ID)
	assert.Equal(t, 0, you.Slot)

	room, ok := recv(t, c).(protocol.RoomMsg)
	require.True(t, ok, "expected room snapshot")
	require.Regexp(t, `^[A-Z]{4}$`, room.Code)
	require.Len(t, room.Players, MaxPlayers)
	require.NotNil(t, room.Players[0])
	assert.Equal(t, c.SessionID, room.Players[0].ID)
	return room.Code
}

func joinRoom(t *testing.T, h *Hub, c *Client, code string) int {
	t.Helper()
	command(h, c, protocol.Request{Cmd: protocol.CmdJoin, Code: code})

	you, ok := recv(t, c).(protocol.YouMsg)
	require.True(t, ok, "expected you message first")
	room, ok := recv(t, c).(protocol.RoomMsg)
	require.True(t, ok, "expected room snapshot")
	assert.Equal(t, code, room.Code)
	return you.Slot
}

func TestCreateAndJoin(t *testing.T) {
	h := startHub(t)
	x := connect(t, h, "X")
	y := connect(t, h, "Y")

	code := createRoom(t, h, x, false)

	slot := joinRoom(t, h, y, code)
	assert.Equal(t, 1, slot)

	// The host hears about the joiner.
	update, ok := recv(t, x).(protocol.PlayerMsg)
	require.True(t, ok)
	assert.Equal(t, 1, update.Slot)
	assert.Equal(t, "Y", update.ID)
}

func TestJoinUnknownCode(t *testing.T) {
	h := startHub(t)
	z := connect(t, h, "Z")

	command(h, z, protocol.Request{Cmd: protocol.CmdJoin, Code: "ZZZZ"})

	room, ok := recv(t, z).(protocol.RoomMsg)
	require.True(t, ok)
	assert.Empty(t, room.Code)
	assert.Empty(t, room.Players)

	// The connection stays usable: create still works.
	createRoom(t, h, z, false)
}

func TestJoinLowercaseCode(t *testing.T) {
	h := startHub(t)
	x := connect(t, h, "X")
	y := connect(t, h, "Y")

	code := createRoom(t, h, x, false)
	command(h, y, protocol.Request{Cmd: protocol.CmdJoin, Code: string([]byte{code[0] | 0x20, code[1] | 0x20, code[2] | 0x20, code[3] | 0x20})})

	_, ok := recv(t, y).(protocol.YouMsg)
	assert.True(t, ok)
}

func TestJoinFullRoomRejected(t *testing.T) {
	h := startHub(t)
	x := connect(t, h, "X")
	code := createRoom(t, h, x, false)

	for i, id := range []string{"A", "B", "C"} {
		c := connect(t, h, id)
		assert.Equal(t, i+1, joinRoom(t, h, c, code))
	}

	fifth := connect(t, h, "E")
	command(h, fifth, protocol.Request{Cmd: protocol.CmdJoin, Code: code})
	room, ok := recv(t, fifth).(protocol.RoomMsg)
	require.True(t, ok)
	assert.Empty(t, room.Code)
	assert.Empty(t, room.Players)
}

func TestCreateWhileInRoomReturnsCurrentRoom(t *testing.T) {
	h := startHub(t)
	x := connect(t, h, "X")
	code := createRoom(t, h, x, false)

	command(h, x, protocol.Request{Cmd: protocol.CmdCreate})
	room, ok := recv(t, x).(protocol.RoomMsg)
	require.True(t, ok)
	assert.Equal(t, code, room.Code)
}

func TestChoiceBroadcastAndGuard(t *testing.T) {
	h := startHub(t)
	x := connect(t, h, "X")
	y := connect(t, h, "Y")
	code := createRoom(t, h, x, false)
	joinRoom(t, h, y, code)
	recv(t, x) // player joined

	command(h, y, protocol.Request{Cmd: protocol.CmdChoice, C: 3})

	for _, c := range []*Client{x, y} {
		update, ok := recv(t, c).(protocol.PlayerMsg)
		require.True(t, ok)
		assert.Equal(t, 1, update.Slot)
		assert.Equal(t, "Y", update.ID)
		assert.Equal(t, 3, update.C)
	}

	// A session with no slot in any room is a silent no-op.
	stranger := connect(t, h, "S")
	command(h, stranger, protocol.Request{Cmd: protocol.CmdChoice, C: 2})
	expectNothing(t, stranger)
	expectNothing(t, x)
}

func TestHostLeaveClosesRoom(t *testing.T) {
	h := startHub(t)
	x := connect(t, h, "X")
	y := connect(t, h, "Y")
	code := createRoom(t, h, x, false)
	joinRoom(t, h, y, code)
	recv(t, x) // player joined

	h.Unregister <- x

	update, ok := recv(t, y).(protocol.PlayerMsg)
	require.True(t, ok)
	assert.Equal(t, 0, update.Slot)
	assert.Empty(t, update.ID)

	// The code is gone; a fresh join fails and the code is reusable.
	z := connect(t, h, "Z")
	command(h, z, protocol.Request{Cmd: protocol.CmdJoin, Code: code})
	room, ok := recv(t, z).(protocol.RoomMsg)
	require.True(t, ok)
	assert.Empty(t, room.Code)

	// The survivor no longer holds a slot anywhere and can host again.
	createRoom(t, h, y, false)
}

func TestNonHostLeaveVacatesSlot(t *testing.T) {
	h := startHub(t)
	x := connect(t, h, "X")
	y := connect(t, h, "Y")
	z := connect(t, h, "Z")
	code := createRoom(t, h, x, false)
	joinRoom(t, h, y, code)
	recv(t, x)
	joinRoom(t, h, z, code)
	recv(t, x)
	recv(t, y)

	h.Unregister <- y

	for _, c := range []*Client{x, z} {
		update, ok := recv(t, c).(protocol.PlayerMsg)
		require.True(t, ok)
		assert.Equal(t, 1, update.Slot)
		assert.Empty(t, update.ID)
	}

	// The vacated slot is refilled first.
	w := connect(t, h, "W")
	assert.Equal(t, 1, joinRoom(t, h, w, code))
}

func TestRelayBroadcast(t *testing.T) {
	h := startHub(t)
	x := connect(t, h, "X")
	y := connect(t, h, "Y")
	z := connect(t, h, "Z")
	code := createRoom(t, h, x, false)
	joinRoom(t, h, y, code)
	recv(t, x)
	joinRoom(t, h, z, code)
	recv(t, x)
	recv(t, y)

	offer := json.RawMessage(`{"type":"offer","sdp":"v=0"}`)
	command(h, x, protocol.Request{Cmd: protocol.CmdOffer, Offer: offer})

	for _, c := range []*Client{y, z} {
		msg, ok := recv(t, c).(protocol.SignalMsg)
		require.True(t, ok)
		assert.Equal(t, protocol.CmdOffer, msg.Cmd)
		assert.Equal(t, 0, msg.From)
		assert.JSONEq(t, string(offer), string(msg.Offer))
	}
	expectNothing(t, x)
}

func TestRelayDirected(t *testing.T) {
	h := startHub(t)
	x := connect(t, h, "X")
	y := connect(t, h, "Y")
	z := connect(t, h, "Z")
	code := createRoom(t, h, x, false)
	joinRoom(t, h, y, code)
	recv(t, x)
	joinRoom(t, h, z, code)
	recv(t, x)
	recv(t, y)

	to := 2
	candidate := json.RawMessage(`{"candidate":"candidate:1 1 udp 1 127.0.0.1 9 typ host"}`)
	command(h, x, protocol.Request{Cmd: protocol.CmdICE, Candidate: candidate, To: &to})

	msg, ok := recv(t, z).(protocol.SignalMsg)
	require.True(t, ok)
	assert.Equal(t, protocol.CmdICE, msg.Cmd)
	assert.Equal(t, 0, msg.From)
	assert.JSONEq(t, string(candidate), string(msg.Candidate))
	expectNothing(t, y)
}

func TestRelayOutsideRoomDropped(t *testing.T) {
	h := startHub(t)
	x := connect(t, h, "X")

	command(h, x, protocol.Request{Cmd: protocol.CmdOffer, Offer: json.RawMessage(`{}`)})
	expectNothing(t, x)

	// The hub keeps serving afterwards.
	createRoom(t, h, x, false)
}

func TestUnknownCommandDropped(t *testing.T) {
	h := startHub(t)
	x := connect(t, h, "X")

	command(h, x, protocol.Request{Cmd: "warp"})
	expectNothing(t, x)

	createRoom(t, h, x, false)
}

func TestListRoomsExcludesPrivate(t *testing.T) {
	h := startHub(t)
	x := connect(t, h, "X")
	y := connect(t, h, "Y")

	public := createRoom(t, h, x, false)
	createRoom(t, h, y, true)

	rooms := h.ListRooms()
	require.Len(t, rooms, 1)
	assert.Equal(t, public, rooms[0].Code)
	assert.Equal(t, 1, rooms[0].Players)
}

func TestAnnounceReachesAllRooms(t *testing.T) {
	h := startHub(t)
	x := connect(t, h, "X")
	y := connect(t, h, "Y")
	createRoom(t, h, x, false)
	createRoom(t, h, y, true)

	h.Announce("server restarting soon")

	for _, c := range []*Client{x, y} {
		alert, ok := recv(t, c).(protocol.AlertMsg)
		require.True(t, ok)
		assert.Equal(t, "server restarting soon", alert.Msg)
	}
}
