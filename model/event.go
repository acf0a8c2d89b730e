package model

import (
	"fmt"
	"time"
)

type EventKind string

const (
	EVENT_MEETING_BOT    EventKind = "meeting-bot"
	EVENT_BUSY_SLOT      EventKind = "busy-slot"
	EVENT_EXTEND_MEETING EventKind = "extend-meeting"
	EVENT_CV_PROCESSING  EventKind = "cv-processing"
)

var EventKinds = []EventKind{EVENT_MEETING_BOT, EVENT_BUSY_SLOT, EVENT_EXTEND_MEETING, EVENT_CV_PROCESSING}

// WebhookEvent is built, sent and dropped; it is never persisted.
type WebhookEvent struct {
	Kind      EventKind      `json:"kind"`
	Payload   map[string]any `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
	Platform  string         `json:"platform"`
}

func ToEventKind(s string) (EventKind, error) {
	for _, k := range EventKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown event kind %q", s)
}
