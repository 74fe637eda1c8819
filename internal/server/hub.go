package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/sjawhar/chanti/internal/logging"
	"github.com/sjawhar/chanti/internal/storage"
)

// Hub fans events out to websocket subscribers. Slow subscribers miss
// events rather than block the sender.
type Hub struct {
	mu      sync.RWMutex
	clients map[chan []byte]struct{}
	now     func() time.Time
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan []byte]struct{}), now: time.Now}
}

func (h *Hub) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan []byte) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
	close(ch)
}

func (h *Hub) Broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.clients {
		select {
		case ch <- msg:
		default:
		}
	}
}

func (h *Hub) BroadcastWakeDetected(runID string) {
	h.broadcastEvent(WakeDetectedEvent{
		Event: newEvent("wake_detected", h.now()),
		RunID: runID,
	})
}

func (h *Hub) BroadcastCommandReceived(id, text, source string) {
	h.broadcastEvent(CommandReceivedEvent{
		Event:     newEvent("command_received", h.now()),
		CommandID: id,
		Text:      text,
		Source:    source,
	})
}

func (h *Hub) BroadcastActionResult(rec storage.CommandRecord) {
	h.broadcastEvent(ActionResultEvent{
		Event:     newEvent("action_result", rec.ReceivedAt),
		CommandID: rec.ID,
		RunID:     rec.RunID,
		Text:      rec.Text,
		Action:    rec.Action,
		Outcome:   rec.Outcome,
		Message:   rec.Message,
		Details:   rec.Details,
	})
}

func (h *Hub) BroadcastNarration(msg string) {
	h.broadcastEvent(NarrationEvent{
		Event:   newEvent("narration", h.now()),
		Message: msg,
	})
}

func (h *Hub) BroadcastPhaseChanged(phase string) {
	h.broadcastEvent(PhaseChangedEvent{
		Event: newEvent("phase_changed", h.now()),
		Phase: phase,
	})
}

func (h *Hub) BroadcastListeningChanged(running bool) {
	h.broadcastEvent(ListeningChangedEvent{
		Event:     newEvent("listening_changed", h.now()),
		Listening: running,
	})
}

func (h *Hub) broadcastEvent(event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		logging.Errorw("event marshal error", "error", err)
		return
	}
	h.Broadcast(payload)
}
