package webhook

import (
	"time"

	"github.com/ishahzaibhaider/Ideofuzion-sub001/model"
)

// Event is a typed domain event that can be relayed.
type Event interface {
	Kind() model.EventKind
	Payload() map[string]any
}

type MeetingBotEvent struct {
	UserId         string
	GoogleMeetId   string
	InterviewStart time.Time
	InterviewEnd   time.Time
	Action         string
}

func (e MeetingBotEvent) Kind() model.EventKind { return model.EVENT_MEETING_BOT }

func (e MeetingBotEvent) Payload() map[string]any {
	return map[string]any{
		"userId":         e.UserId,
		"action":         orDefault(e.Action, "join"),
		"googleMeetId":   e.GoogleMeetId,
		"interviewStart": e.InterviewStart.UTC().Format(time.RFC3339),
		"interviewEnd":   e.InterviewEnd.UTC().Format(time.RFC3339),
	}
}

type BusySlotEvent struct {
	UserId string
	SlotId string
	// Date is the slot's day, YYYY-MM-DD.
	Date   string
	Action string
}

func (e BusySlotEvent) Kind() model.EventKind { return model.EVENT_BUSY_SLOT }

func (e BusySlotEvent) Payload() map[string]any {
	return map[string]any{
		"userId": e.UserId,
		"action": orDefault(e.Action, "busy"),
		"slotId": e.SlotId,
		"date":   e.Date,
	}
}

type ExtendMeetingEvent struct {
	UserId      string
	CandidateId string
	NewEndTime  time.Time
	Reason      string
}

func (e ExtendMeetingEvent) Kind() model.EventKind { return model.EVENT_EXTEND_MEETING }

func (e ExtendMeetingEvent) Payload() map[string]any {
	return map[string]any{
		"userId":      e.UserId,
		"action":      "extend",
		"candidateId": e.CandidateId,
		"newEndTime":  e.NewEndTime.UTC().Format(time.RFC3339),
		"reason":      e.Reason,
	}
}

type CVProcessingEvent struct {
	UserId      string
	CandidateId string
	FileURL     string
	Text        string
}

func (e CVProcessingEvent) Kind() model.EventKind { return model.EVENT_CV_PROCESSING }

func (e CVProcessingEvent) Payload() map[string]any {
	p := map[string]any{
		"userId":      e.UserId,
		"action":      "process",
		"candidateId": e.CandidateId,
	}
	if e.FileURL != "" {
		p["fileUrl"] = e.FileURL
	}
	if e.Text != "" {
		p["text"] = e.Text
	}
	return p
}

// Out turns typed events into a batch.
func Out(events ...Event) []Outbound {
	out := make([]Outbound, 0, len(events))
	for _, e := range events {
		out = append(out, Outbound{Kind: e.Kind(), Payload: e.Payload()})
	}
	return out
}

func orDefault(v string, def string) string {
	if v == "" {
		return def
	}
	return v
}
