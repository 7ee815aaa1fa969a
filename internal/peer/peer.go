// Package peer drives the connection handshake between two participants: it
// generates and applies session descriptions, relays connectivity candidates
// through the signaling channel, and buffers candidates that outrun the
// remote description. The platform connection object is abstracted behind
// the Link interface so the orchestration is testable without a network
// stack.
package peer

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Description is the negotiated connection parameters, half of an
// offer/answer exchange.
type Description struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

// Candidate is an opaque connectivity candidate in its wire encoding.
type Candidate = json.RawMessage

// Link is a platform peer-connection handle. Descriptions are set at most
// once each per Link; renegotiation is not supported.
type Link interface {
	// CreateOffer generates the local half of the exchange on the
	// initiating side.
	CreateOffer() (Description, error)

	// CreateAnswer generates the responding half. The remote offer must
	// already be applied.
	CreateAnswer() (Description, error)

	SetLocalDescription(d Description) error
	SetRemoteDescription(d Description) error

	// AddCandidate applies a remote connectivity candidate. Callers must
	// ensure the remote description is applied first.
	AddCandidate(c Candidate) error

	// OnCandidate registers the sink for locally gathered candidates.
	// Gathering starts after the local description is set.
	OnCandidate(fn func(Candidate))

	// OnOpen fires when the data channel is usable.
	OnOpen(fn func())

	// Send writes to the established data channel.
	Send(data []byte) error

	Close() error
}

// LinkFactory creates the platform link for one peer pairing. The
// initiating side opens the data channel.
type LinkFactory func(initiator bool) (Link, error)

// Signaler is the outbound half of the signaling channel. *cable.Cable
// satisfies it.
type Signaler interface {
	SendOffer(to int, offer json.RawMessage)
	SendAnswer(to int, answer json.RawMessage)
	SendCandidate(to int, candidate json.RawMessage)
}

// session is the negotiation state toward one peer slot. Candidates that
// arrive before the remote description — including before the link itself
// exists — queue in pending and are drained in arrival order the moment
// the description lands.
type session struct {
	mu      sync.Mutex
	link    Link
	remote  bool
	pending []Candidate
}

// Orchestrator owns one negotiation session per peer slot. The host (slot
// 0) runs one toward each joiner; a joiner runs one toward the host.
// HandleOffer and HandleAnswer may suspend on description work and are
// meant to be called from their own goroutine; HandleCandidate returns
// promptly and must be called in arrival order.
type Orchestrator struct {
	mu       sync.Mutex
	dial     LinkFactory
	signals  Signaler
	sessions map[int]*session
	onOpen   func(peer int, link Link)
}

func New(dial LinkFactory, signals Signaler) *Orchestrator {
	return &Orchestrator{
		dial:     dial,
		signals:  signals,
		sessions: make(map[int]*session),
	}
}

// OnOpen registers the callback for each peer link whose data channel
// becomes usable.
func (o *Orchestrator) OnOpen(fn func(peer int, link Link)) {
	o.onOpen = fn
}

// Offer initiates negotiation toward a peer slot: create the link (which
// opens the data channel), generate and set the local offer, and relay it.
func (o *Orchestrator) Offer(peer int) error {
	s := o.ensure(peer)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.link == nil {
		if err := o.attach(s, peer, true); err != nil {
			return err
		}
	}

	offer, err := s.link.CreateOffer()
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	if err := s.link.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("set local description: %w", err)
	}

	raw, err := json.Marshal(offer)
	if err != nil {
		return fmt.Errorf("encode offer: %w", err)
	}
	o.signals.SendOffer(peer, raw)
	return nil
}

// HandleOffer applies a relayed offer: create the link if absent, apply
// the remote description, flush any queued candidates, then answer.
func (o *Orchestrator) HandleOffer(from int, raw json.RawMessage) error {
	var offer Description
	if err := json.Unmarshal(raw, &offer); err != nil {
		return fmt.Errorf("decode offer: %w", err)
	}

	s := o.ensure(from)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.remote {
		// Renegotiation is out of scope; a second offer is dropped.
		return nil
	}
	if s.link == nil {
		if err := o.attach(s, from, false); err != nil {
			return err
		}
	}

	if err := s.applyRemote(offer); err != nil {
		return err
	}

	answer, err := s.link.CreateAnswer()
	if err != nil {
		return fmt.Errorf("create answer: %w", err)
	}
	if err := s.link.SetLocalDescription(answer); err != nil {
		return fmt.Errorf("set local description: %w", err)
	}

	out, err := json.Marshal(answer)
	if err != nil {
		return fmt.Errorf("encode answer: %w", err)
	}
	o.signals.SendAnswer(from, out)
	return nil
}

// HandleAnswer applies a relayed answer on the initiating side and flushes
// any queued candidates.
func (o *Orchestrator) HandleAnswer(from int, raw json.RawMessage) error {
	var answer Description
	if err := json.Unmarshal(raw, &answer); err != nil {
		return fmt.Errorf("decode answer: %w", err)
	}

	s := o.ensure(from)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.link == nil || s.remote {
		// An answer with no outstanding offer cannot be applied.
		return fmt.Errorf("unexpected answer from slot %d", from)
	}
	return s.applyRemote(answer)
}

// HandleCandidate applies a relayed candidate immediately when the remote
// description is in place, and queues it otherwise. A candidate arriving
// before its offer/answer exchange — even before the link exists — is
// queued, never discarded: the transport does not order candidates against
// descriptions.
func (o *Orchestrator) HandleCandidate(from int, candidate Candidate) error {
	s := o.ensure(from)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.remote {
		if err := s.link.AddCandidate(candidate); err != nil {
			return fmt.Errorf("add candidate: %w", err)
		}
		return nil
	}
	s.pending = append(s.pending, candidate)
	return nil
}

// Drop discards the session toward a departed peer along with any queued
// candidates.
func (o *Orchestrator) Drop(peer int) {
	o.mu.Lock()
	s, ok := o.sessions[peer]
	delete(o.sessions, peer)
	o.mu.Unlock()
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	if s.link != nil {
		s.link.Close()
	}
}

// Close tears down every session.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	peers := make([]int, 0, len(o.sessions))
	for peer := range o.sessions {
		peers = append(peers, peer)
	}
	o.mu.Unlock()
	for _, peer := range peers {
		o.Drop(peer)
	}
}

func (o *Orchestrator) ensure(peer int) *session {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.sessions[peer]
	if !ok {
		s = &session{}
		o.sessions[peer] = s
	}
	return s
}

// attach creates the platform link for a session and wires its callbacks.
// Locally gathered candidates relay to the peer as soon as they appear,
// regardless of negotiation progress on the far side. Caller holds s.mu.
func (o *Orchestrator) attach(s *session, peer int, initiator bool) error {
	link, err := o.dial(initiator)
	if err != nil {
		return fmt.Errorf("create peer link: %w", err)
	}
	link.OnCandidate(func(c Candidate) {
		o.signals.SendCandidate(peer, c)
	})
	link.OnOpen(func() {
		if o.onOpen != nil {
			o.onOpen(peer, link)
		}
	})
	s.link = link
	return nil
}

// applyRemote sets the remote description exactly once and drains the
// pending queue in arrival order. Caller holds s.mu.
func (s *session) applyRemote(d Description) error {
	if err := s.link.SetRemoteDescription(d); err != nil {
		return fmt.Errorf("set remote description: %w", err)
	}
	s.remote = true
	for _, c := range s.pending {
		if err := s.link.AddCandidate(c); err != nil {
			return fmt.Errorf("flush candidate: %w", err)
		}
	}
	s.pending = nil
	return nil
}
