package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/pathquiz/internal/logging"
	"github.com/aretw0/pathquiz/pkg/session"
	"github.com/go-chi/chi/v5"
)

const streamBuffer = 16

type message struct {
	event string
	data  []byte
}

// StreamManager fans session updates out to SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan message]struct{}
	logger      *slog.Logger
}

// NewStreamManager creates an empty StreamManager.
func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan message]struct{}),
		logger:      logging.NewNop(),
	}
}

// SetLogger replaces the logger used for dropped messages.
func (sm *StreamManager) SetLogger(l *slog.Logger) {
	if l != nil {
		sm.logger = l
	}
}

// Subscribe registers a buffered channel for sessionID.
// The returned cancel func unregisters and closes it.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan message, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan message, streamBuffer)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan message]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// Subscribers returns the number of open streams for sessionID.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID])
}

// Broadcast sends an event to every subscriber of sessionID without blocking.
// Slow clients lose messages rather than stall the engine.
func (sm *StreamManager) Broadcast(sessionID, event string, data []byte) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- message{event: event, data: data}:
		default:
			sm.logger.Warn("sse: client buffer full, dropping message", "session_id", sessionID, "event", event)
		}
	}
}

// Close ends every stream of sessionID.
func (sm *StreamManager) Close(sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for ch := range sm.subscribers[sessionID] {
		close(ch)
	}
	delete(sm.subscribers, sessionID)
}

// Notify implements session.Notifier.
func (sm *StreamManager) Notify(ctx context.Context, u session.Update) {
	data, err := json.Marshal(u)
	if err != nil {
		sm.logger.Error("sse: encode update", "session_id", u.SessionID, "err", err)
		return
	}
	sm.Broadcast(u.SessionID, u.Kind, data)
}

// SubscribeEvents handles GET /sessions/{id}/events.
// The stream opens with the current directive and then relays every update.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	id := chi.URLParam(r, "id")
	d, err := s.Sessions.Directive(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	initial, _ := json.Marshal(d)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	fmt.Fprintf(w, "event: directive\ndata: %s\n\n", initial)
	flusher.Flush()

	s.Logger.Debug("sse: client subscribed", "session_id", id)
	for {
		select {
		case <-r.Context().Done():
			s.Logger.Debug("sse: client disconnected", "session_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.event, msg.data)
			flusher.Flush()
		}
	}
}
