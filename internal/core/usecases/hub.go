package usecases

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nmacchitella/topoi/internal/core/domain"
	"github.com/nmacchitella/topoi/internal/core/ports"
)

// SessionHub fans directory change notifications out to every live map
// session. It keeps one feed subscription per watched user no matter how
// many sessions render that user's layer.
type SessionHub struct {
	mu       sync.Mutex
	feed     ports.ChangeFeed
	log      *slog.Logger
	sessions map[*MapSession]struct{}
	watched  map[string]bool
}

// NewSessionHub creates a hub over the given change feed. A nil feed is
// allowed; sessions then simply never see change notifications.
func NewSessionHub(feed ports.ChangeFeed, log *slog.Logger) *SessionHub {
	if log == nil {
		log = slog.Default()
	}
	return &SessionHub{
		feed:     feed,
		log:      log,
		sessions: make(map[*MapSession]struct{}),
		watched:  make(map[string]bool),
	}
}

// Register adds a session to the fan-out set and ensures feed subscriptions
// for the given users.
func (h *SessionHub) Register(ctx context.Context, s *MapSession, userIDs ...string) error {
	h.mu.Lock()
	h.sessions[s] = struct{}{}
	h.mu.Unlock()
	return h.Watch(ctx, userIDs...)
}

// Unregister removes a session. Feed subscriptions stay up; another session
// may still render the same users.
func (h *SessionHub) Unregister(s *MapSession) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, s)
}

// Watch ensures a feed subscription exists for each given user.
func (h *SessionHub) Watch(ctx context.Context, userIDs ...string) error {
	if h.feed == nil {
		return nil
	}
	var firstErr error
	for _, id := range userIDs {
		h.mu.Lock()
		seen := h.watched[id]
		if !seen {
			h.watched[id] = true
		}
		h.mu.Unlock()
		if seen {
			continue
		}
		if err := h.feed.Subscribe(ctx, id, h.dispatch); err != nil {
			h.mu.Lock()
			delete(h.watched, id)
			h.mu.Unlock()
			h.log.Warn("change feed subscribe failed", "user", id, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// SessionCount returns the number of registered sessions.
func (h *SessionHub) SessionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Close drains the underlying feed.
func (h *SessionHub) Close() {
	if h.feed != nil {
		h.feed.Close()
	}
}

func (h *SessionHub) dispatch(ctx context.Context, c domain.Change) error {
	h.mu.Lock()
	targets := make([]*MapSession, 0, len(h.sessions))
	for s := range h.sessions {
		targets = append(targets, s)
	}
	h.mu.Unlock()

	for _, s := range targets {
		s.HandleChange(ctx, c)
	}
	return nil
}
