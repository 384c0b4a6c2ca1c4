// Package session keeps one conversion controller per browser session.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/itchan-dev/emojiprofile/frontend/internal/controller"
	"github.com/itchan-dev/emojiprofile/shared/logger"
	"github.com/itchan-dev/emojiprofile/shared/middleware/metrics"
)

// Factory builds the controller for a new session id.
type Factory func(sessionID string) *controller.Controller

type entry struct {
	ctrl     *controller.Controller
	lastSeen time.Time
}

// Manager owns the controllers of all live sessions and closes them after ttl of inactivity.
type Manager struct {
	factory Factory
	ttl     time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

func NewManager(factory Factory, ttl time.Duration) *Manager {
	return &Manager{
		factory:  factory,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// NewID returns a fresh random session id.
func NewID() string {
	return uuid.NewString()
}

// Get returns the controller for sessionID, creating it on first use, and marks the session active.
func (m *Manager) Get(sessionID string) *controller.Controller {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.sessions[sessionID]; ok {
		e.lastSeen = m.now()
		return e.ctrl
	}

	e := &entry{ctrl: m.factory(sessionID), lastSeen: m.now()}
	m.sessions[sessionID] = e
	metrics.SessionsActive.Inc()
	return e.ctrl
}

// Lookup returns the controller without creating or touching it.
func (m *Manager) Lookup(sessionID string) (*controller.Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return e.ctrl, true
}

// Remove closes the session's controller and forgets it.
func (m *Manager) Remove(sessionID string) bool {
	m.mu.Lock()
	e, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()

	if !ok {
		return false
	}
	e.ctrl.Close()
	metrics.SessionsActive.Dec()
	return true
}

// Cleanup closes every session idle for longer than ttl and returns how many were closed.
func (m *Manager) Cleanup() int {
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	var expired []*controller.Controller
	for id, e := range m.sessions {
		if e.lastSeen.Before(cutoff) {
			expired = append(expired, e.ctrl)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, ctrl := range expired {
		ctrl.Close()
	}
	metrics.SessionsActive.Sub(float64(len(expired)))
	return len(expired)
}

// CloseAll closes every session. Used on shutdown.
func (m *Manager) CloseAll() int {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*entry)
	m.mu.Unlock()

	for _, e := range all {
		e.ctrl.Close()
	}
	metrics.SessionsActive.Sub(float64(len(all)))
	return len(all)
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// StartBackgroundCleanup periodically expires idle sessions until ctx is done.
func (m *Manager) StartBackgroundCleanup(ctx context.Context, interval time.Duration) {
	log := logger.Component("session")
	ticker := time.NewTicker(interval)
	log.Info("started session cleanup", "interval", interval, "ttl", m.ttl)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := m.Cleanup(); n > 0 {
					log.Info("expired idle sessions", "count", n, "active", m.Len())
				}
			case <-ctx.Done():
				log.Info("session cleanup shutting down")
				return
			}
		}
	}()
}
