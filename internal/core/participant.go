package core

import (
	"sort"
	"sync"
	"time"
)

// ParticipantStatus is the presence state computed from activity timestamps.
type ParticipantStatus string

const (
	StatusOnline ParticipantStatus = "online"
	StatusAway   ParticipantStatus = "away"
)

// TypingTargetGroup marks a typing burst aimed at the shared room rather
// than a single peer.
const TypingTargetGroup = "group"

// Participant is a connected chat user as tracked by the registry.
type Participant struct {
	ID           string
	Username     string
	Status       ParticipantStatus
	LastActivity time.Time
	ConnectedAt  time.Time
	IsTyping     bool
	TypingTarget string // "" when idle, TypingTargetGroup or a peer connection id

	typingGen   uint64
	typingTimer *time.Timer
}

// snapshot returns a value copy safe to hand to other goroutines.
func (p *Participant) snapshot() Participant {
	c := *p
	c.typingTimer = nil
	return c
}

// Registry tracks connected participants, enforces unique display names and
// owns the per-participant typing-expiry timers. Mutations are driven by the
// hub goroutine; the mutex exists so reads like Count can be served from the
// HTTP layer.
type Registry struct {
	mu           sync.RWMutex
	participants map[string]*Participant
	usernames    map[string]string // display name -> connection id

	awayThreshold time.Duration
	typingExpiry  time.Duration
	now           func() time.Time
}

// NewRegistry builds an empty registry with the given presence tunables.
func NewRegistry(awayThreshold, typingExpiry time.Duration) *Registry {
	return &Registry{
		participants:  make(map[string]*Participant),
		usernames:     make(map[string]string),
		awayThreshold: awayThreshold,
		typingExpiry:  typingExpiry,
		now:           time.Now,
	}
}

// Add registers a participant under a display name. The name must be unique
// among live participants; validation of its shape happens at the router
// boundary. No state is left behind on failure.
func (r *Registry) Add(id, username string) (Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.usernames[username]; taken {
		return Participant{}, ErrUsernameTaken
	}

	now := r.now()
	p := &Participant{
		ID:           id,
		Username:     username,
		Status:       StatusOnline,
		LastActivity: now,
		ConnectedAt:  now,
	}
	r.participants[id] = p
	r.usernames[username] = id

	return p.snapshot(), nil
}

// Remove deletes the participant, frees its display name and cancels any
// pending typing timer. Reports false if the connection was never registered,
// which happens when a failed hello races the disconnect.
func (r *Registry) Remove(id string) (Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[id]
	if !ok {
		return Participant{}, false
	}
	r.cancelTypingLocked(p)
	delete(r.participants, id)
	delete(r.usernames, p.Username)

	return p.snapshot(), true
}

// Get returns a snapshot of the participant, if connected.
func (r *Registry) Get(id string) (Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.participants[id]
	if !ok {
		return Participant{}, false
	}
	return p.snapshot(), true
}

// All returns snapshots of every connected participant ordered by connect
// time, oldest first.
func (r *Registry) All() []Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Participant, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, p.snapshot())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ConnectedAt.Equal(out[j].ConnectedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].ConnectedAt.Before(out[j].ConnectedAt)
	})
	return out
}

// Count returns the number of live participants.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants)
}

// RecordActivity bumps the participant's activity timestamp. When the
// participant was away it flips back to online and statusChanged reports
// true exactly once per flip.
func (r *Registry) RecordActivity(id string) (Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[id]
	if !ok {
		return Participant{}, false
	}
	p.LastActivity = r.now()
	if p.Status == StatusAway {
		p.Status = StatusOnline
		return p.snapshot(), true
	}
	return p.snapshot(), false
}

// SweepInactive flips every online participant idle for at least the away
// threshold to away and returns the flipped participants. Participants
// already away are not re-reported.
func (r *Registry) SweepInactive() []Participant {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var flipped []Participant
	for _, p := range r.participants {
		if p.Status != StatusOnline {
			continue
		}
		if now.Sub(p.LastActivity) >= r.awayThreshold {
			p.Status = StatusAway
			flipped = append(flipped, p.snapshot())
		}
	}
	return flipped
}

// SetTyping marks the participant as typing toward target and arms the
// expiry timer, cancelling any previous one so a single timer exists per
// participant. The expire callback fires off-loop with the generation of
// this burst; the caller feeds it back through ExpireTyping, which discards
// stale generations.
func (r *Registry) SetTyping(id, target string, expire func(gen uint64)) (Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[id]
	if !ok {
		return Participant{}, false
	}
	r.cancelTypingLocked(p)
	p.IsTyping = true
	p.TypingTarget = target
	p.typingGen++

	gen := p.typingGen
	p.typingTimer = time.AfterFunc(r.typingExpiry, func() {
		expire(gen)
	})

	return p.snapshot(), true
}

// StopTyping clears typing state and cancels the pending timer. Idempotent.
// The returned snapshot is taken before clearing so the caller can still see
// what the burst was aimed at.
func (r *Registry) StopTyping(id string) (Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[id]
	if !ok {
		return Participant{}, false
	}
	snap := p.snapshot()
	r.cancelTypingLocked(p)
	p.IsTyping = false
	p.TypingTarget = ""
	return snap, true
}

// ExpireTyping clears typing state for a fired timer. A generation older
// than the participant's current burst means a newer SetTyping superseded
// the timer after it fired; such callbacks are discarded.
func (r *Registry) ExpireTyping(id string, gen uint64) (Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[id]
	if !ok || !p.IsTyping || p.typingGen != gen {
		return Participant{}, false
	}
	snap := p.snapshot()
	p.typingTimer = nil
	p.IsTyping = false
	p.TypingTarget = ""
	return snap, true
}

func (r *Registry) cancelTypingLocked(p *Participant) {
	if p.typingTimer != nil {
		p.typingTimer.Stop()
		p.typingTimer = nil
	}
}
