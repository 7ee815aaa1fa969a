package cli

import (
	"encoding/json"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/kfalicov/super-swash-bros/internal/cable"
	"github.com/kfalicov/super-swash-bros/internal/config"
	"github.com/kfalicov/super-swash-bros/internal/peer"
	"github.com/kfalicov/super-swash-bros/internal/protocol"
	"github.com/kfalicov/super-swash-bros/internal/wire"
)

// lobby tracks the local view of the room while the handshake runs.
type lobby struct {
	mu      sync.Mutex
	slot    int
	offered map[int]bool
}

func (l *lobby) you(slot int) {
	l.mu.Lock()
	l.slot = slot
	l.mu.Unlock()
}

func (l *lobby) hosting() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.slot == 0
}

// shouldOffer reports whether the host still owes a peer its offer. Player
// updates repeat for choice changes; only the first sighting negotiates.
func (l *lobby) shouldOffer(slot int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.slot != 0 || slot == 0 || l.offered[slot] {
		return false
	}
	l.offered[slot] = true
	return true
}

func (l *lobby) forget(slot int) {
	l.mu.Lock()
	delete(l.offered, slot)
	l.mu.Unlock()
}

// runLobby connects to the signaling server, creates or joins a room, and
// keeps peer links alive until interrupted. An empty code hosts a new room.
func runLobby(cfg *config.Config, code string, private bool, choice int) error {
	c := cable.New(cfg.ServerURL)
	orch := peer.New(peer.NewPionFactory(cfg), c)
	state := &lobby{slot: -1, offered: make(map[int]bool)}

	done := make(chan struct{})
	var once sync.Once
	finish := func() { once.Do(func() { close(done) }) }

	orch.OnOpen(func(slot int, link peer.Link) {
		printSuccess("cable to slot %d open", slot)
		if pl, ok := link.(*peer.PionLink); ok {
			pl.OnMessage(func(data []byte) { printFrame(data) })
		}
		if state.hosting() {
			// Slot 0 alone starts the session.
			start, err := wire.NewMessage(wire.TypeStart, wire.StartPayload{Seed: "test"})
			if err != nil {
				return
			}
			if data, err := wire.Encode(start); err == nil {
				link.Send(data)
			}
		}
	})

	c.OnYou(func(id string, slot int) {
		state.you(slot)
		printInfo("you are slot %d (%s)", slot, id)
		if choice != 0 {
			c.Choose(choice)
		}
	}).OnRoom(func(code string, players []*protocol.PlayerInfo) {
		if code == "" {
			printError("room not found or full")
			finish()
			return
		}
		printCode(code)
		for i, p := range players {
			if p != nil {
				printInfo("slot %d: %s", i, p.ID)
			}
		}
	}).OnPlayer(func(slot int, id string, choice int) {
		if id == "" {
			printInfo("slot %d left", slot)
			state.forget(slot)
			orch.Drop(slot)
			if slot == 0 {
				printError("host left, room closed")
				finish()
			}
			return
		}
		printInfo("slot %d: %s (choice %d)", slot, id, choice)
		if state.shouldOffer(slot) {
			go func() {
				if err := orch.Offer(slot); err != nil {
					printError("offer to slot %d: %v", slot, err)
				}
			}()
		}
	}).OnOffer(func(from int, offer json.RawMessage) {
		go func() {
			if err := orch.HandleOffer(from, offer); err != nil {
				printError("offer from slot %d: %v", from, err)
			}
		}()
	}).OnAnswer(func(from int, answer json.RawMessage) {
		go func() {
			if err := orch.HandleAnswer(from, answer); err != nil {
				printError("answer from slot %d: %v", from, err)
			}
		}()
	}).OnICE(func(from int, candidate json.RawMessage) {
		// Candidates must queue in arrival order; handled inline.
		if err := orch.HandleCandidate(from, candidate); err != nil {
			printError("candidate from slot %d: %v", from, err)
		}
	}).OnAlert(func(msg string) {
		printInfo("server: %s", msg)
	}).OnClosed(func() {
		finish()
	})

	if err := c.Connect(); err != nil {
		return err
	}
	defer func() {
		orch.Close()
		c.Close()
	}()

	if code == "" {
		c.Create(private)
	} else {
		c.Join(strings.ToUpper(code))
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	select {
	case <-sig:
	case <-done:
	}
	return nil
}

func printFrame(data []byte) {
	msg, err := wire.Decode(data)
	if err != nil {
		return
	}
	switch msg.Type {
	case wire.TypeStart:
		var start wire.StartPayload
		if msg.DecodePayload(&start) == nil {
			printSuccess("session start, seed %q", start.Seed)
		}
	case wire.TypeInput:
		var in wire.InputPayload
		if msg.DecodePayload(&in) == nil {
			printInfo("input slot=%d seq=%d buttons=%07b", in.Slot, in.Seq, in.Buttons)
		}
	}
}
