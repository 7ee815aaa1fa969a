package signaling

import "github.com/kfalicov/super-swash-bros/internal/protocol"

// MaxPlayers is the number of slots in a room. Slot 0 is the host.
const MaxPlayers = 4

// RoomState is the lifecycle of a room: Open accepts joins, Full rejects
// them, Closed means the room has been destroyed and its code released.
type RoomState int

const (
	StateOpen RoomState = iota
	StateFull
	StateClosed
)

// Player is one occupied slot.
type Player struct {
	// ID is the session ID of the owning connection.
	ID string

	// Choice is the selected character index, 0 for unselected.
	Choice int

	client *Client
}

// Room holds up to four players behind a short code. All mutation goes
// through the five operations below and is serialized by the hub goroutine
// that owns the room, so the struct itself carries no lock.
type Room struct {
	Code    string
	Private bool

	slots  [MaxPlayers]*Player
	closed bool
}

func NewRoom(code string, private bool) *Room {
	return &Room{Code: code, Private: private}
}

// State derives the room's lifecycle state from its slots.
func (r *Room) State() RoomState {
	switch {
	case r.closed:
		return StateClosed
	case r.Occupied() == MaxPlayers:
		return StateFull
	default:
		return StateOpen
	}
}

// Occupied counts the filled slots.
func (r *Room) Occupied() int {
	n := 0
	for _, p := range r.slots {
		if p != nil {
			n++
		}
	}
	return n
}

// Join assigns the lowest-numbered free slot, filling gaps left by
// departures before extending.
func (r *Room) Join(c *Client) (int, error) {
	switch r.State() {
	case StateClosed:
		return -1, ErrRoomNotFound
	case StateFull:
		return -1, ErrRoomFull
	}
	for i := range r.slots {
		if r.slots[i] == nil {
			r.slots[i] = &Player{ID: c.SessionID, client: c}
			return i, nil
		}
	}
	return -1, ErrRoomFull
}

// SetChoice updates the character choice of the slot owned by sessionID.
// Mutation is keyed by connection identity, never by a client-asserted slot
// index; an unknown session is a silent no-op.
func (r *Room) SetChoice(sessionID string, choice int) (int, bool) {
	slot := r.SlotOf(sessionID)
	if slot < 0 {
		return -1, false
	}
	r.slots[slot].Choice = choice
	return slot, true
}

// Leave clears the slot owned by sessionID. The room closes when the host
// (slot 0) leaves or when the last player departs.
func (r *Room) Leave(sessionID string) (int, bool) {
	slot := r.SlotOf(sessionID)
	if slot < 0 {
		return -1, false
	}
	r.slots[slot] = nil
	if slot == 0 || r.Occupied() == 0 {
		r.closed = true
	}
	return slot, true
}

// SlotOf returns the slot owned by sessionID, or -1.
func (r *Room) SlotOf(sessionID string) int {
	for i, p := range r.slots {
		if p != nil && p.ID == sessionID {
			return i
		}
	}
	return -1
}

// ClientAt returns the connection occupying a slot, or nil.
func (r *Room) ClientAt(slot int) *Client {
	if slot < 0 || slot >= MaxPlayers || r.slots[slot] == nil {
		return nil
	}
	return r.slots[slot].client
}

// Snapshot renders the slot list for a room message, one entry per slot
// with null for vacancies.
func (r *Room) Snapshot() []*protocol.PlayerInfo {
	players := make([]*protocol.PlayerInfo, MaxPlayers)
	for i, p := range r.slots {
		if p != nil {
			players[i] = &protocol.PlayerInfo{ID: p.ID, C: p.Choice}
		}
	}
	return players
}
