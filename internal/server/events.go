package server

import "time"

const EventVersion = 1

type Event struct {
	Type      string `json:"type"`
	Version   int    `json:"version"`
	Timestamp string `json:"timestamp"`
}

type WakeDetectedEvent struct {
	Event
	RunID string `json:"run_id"`
}

type CommandReceivedEvent struct {
	Event
	CommandID string `json:"command_id"`
	Text      string `json:"text"`
	Source    string `json:"source"`
}

type ActionResultEvent struct {
	Event
	CommandID string   `json:"command_id"`
	RunID     string   `json:"run_id"`
	Text      string   `json:"text"`
	Action    string   `json:"action"`
	Outcome   string   `json:"outcome"`
	Message   string   `json:"message"`
	Details   []string `json:"details,omitempty"`
}

type NarrationEvent struct {
	Event
	Message string `json:"message"`
}

type PhaseChangedEvent struct {
	Event
	Phase string `json:"phase"`
}

type ListeningChangedEvent struct {
	Event
	Listening bool `json:"listening"`
}

type ConnectionEvent struct {
	Event
	Connected bool `json:"connected"`
}

func newEvent(eventType string, now time.Time) Event {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return Event{
		Type:      eventType,
		Version:   EventVersion,
		Timestamp: now.UTC().Format(time.RFC3339Nano),
	}
}
