package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ishahzaibhaider/Ideofuzion-sub001/engine"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/model"
	"github.com/stretchr/testify/require"
)

type received struct {
	path string
	body map[string]any
	at   time.Time
}

func newTestRelay(t *testing.T, status int, interval time.Duration) (*Relay, func() []received) {
	t.Helper()
	var mu sync.Mutex
	var got []received
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var body map[string]any
		require.NoError(t, json.Unmarshal(data, &body))
		mu.Lock()
		got = append(got, received{path: r.URL.Path, body: body, at: time.Now()})
		mu.Unlock()
		w.WriteHeader(status)
		w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)

	client := engine.NewClient(engine.Config{BaseURL: srv.URL, APIKey: "k", Timeout: time.Second})
	relay := NewRelay(Config{
		URLs: map[model.EventKind]string{
			model.EVENT_MEETING_BOT:    srv.URL + "/webhook/meeting-bot/{userId}",
			model.EVENT_BUSY_SLOT:      srv.URL + "/webhook/busy-slot/{userId}",
			model.EVENT_EXTEND_MEETING: srv.URL + "/webhook/extend-meeting/{userId}",
		},
		Platform:        "recruit-app",
		MinCallInterval: interval,
	}, client)
	return relay, func() []received {
		mu.Lock()
		defer mu.Unlock()
		return append([]received(nil), got...)
	}
}

func TestSend(t *testing.T) {
	relay, got := newTestRelay(t, http.StatusOK, 0)
	before := time.Now().UTC().Add(-time.Second)

	d, err := relay.Send(context.Background(), model.EVENT_BUSY_SLOT, map[string]any{
		"userId":    "u1",
		"slotId":    "s-9",
		"date":      "2024-05-01",
		"timestamp": "caller value",
	})
	require.NoError(t, err)
	require.True(t, d.Delivered)
	require.Equal(t, http.StatusOK, d.Status)
	require.Equal(t, "ok", d.Body)
	require.NotEmpty(t, d.EventId)

	reqs := got()
	require.Len(t, reqs, 1)
	require.Equal(t, "/webhook/busy-slot/u1", reqs[0].path)
	body := reqs[0].body
	require.Equal(t, "u1", body["userId"])
	require.Equal(t, "s-9", body["slotId"])
	require.Equal(t, "recruit-app", body["platform"])
	require.Equal(t, DEFAULT_ACTION, body["action"])
	require.Equal(t, d.EventId, body["eventId"])
	ts, err := time.Parse(time.RFC3339, body["timestamp"].(string))
	require.NoError(t, err)
	require.False(t, ts.Before(before.Truncate(time.Second)))
}

func TestSendNon2xxIsNotAnError(t *testing.T) {
	relay, _ := newTestRelay(t, http.StatusInternalServerError, 0)
	d, err := relay.Send(context.Background(), model.EVENT_MEETING_BOT, MeetingBotEvent{UserId: "u1", GoogleMeetId: "abc-defg-hij"}.Payload())
	require.NoError(t, err)
	require.False(t, d.Delivered)
	require.Equal(t, http.StatusInternalServerError, d.Status)
}

func TestSendUnknownEvent(t *testing.T) {
	relay, got := newTestRelay(t, http.StatusOK, 0)
	for _, kind := range []model.EventKind{model.EVENT_CV_PROCESSING, "calendar-sync"} {
		_, err := relay.Send(context.Background(), kind, map[string]any{"userId": "u1"})
		require.True(t, errors.Is(err, ErrUnknownEvent), string(kind))
	}
	require.Empty(t, got())
}

func TestSendUserIdInUrl(t *testing.T) {
	relay, got := newTestRelay(t, http.StatusOK, 0)
	for scenario, tc := range map[string]struct {
		userId any
		path   string
	}{
		"string id":    {"u1", "/webhook/busy-slot/u1"},
		"number id":    {float64(42), "/webhook/busy-slot/42"},
		"int id":       {7, "/webhook/busy-slot/7"},
		"escaped slug": {"a/b", "/webhook/busy-slot/a/b"},
	} {
		t.Run(scenario, func(t *testing.T) {
			before := len(got())
			_, err := relay.Send(context.Background(), model.EVENT_BUSY_SLOT, map[string]any{"userId": tc.userId})
			require.NoError(t, err)
			reqs := got()
			require.Len(t, reqs, before+1)
			require.Equal(t, tc.path, reqs[before].path)
		})
	}
}

func TestSendWithoutUserId(t *testing.T) {
	relay, got := newTestRelay(t, http.StatusOK, 0)
	for _, payload := range []map[string]any{{}, {"userId": ""}, {"userId": nil}} {
		_, err := relay.Send(context.Background(), model.EVENT_MEETING_BOT, payload)
		require.True(t, errors.Is(err, ErrMissingUser))
	}
	require.Empty(t, got())
}

func TestSendNetworkError(t *testing.T) {
	client := engine.NewClient(engine.Config{Timeout: 200 * time.Millisecond})
	relay := NewRelay(Config{URLs: map[model.EventKind]string{model.EVENT_BUSY_SLOT: "http://127.0.0.1:1/hook"}}, client)
	_, err := relay.Send(context.Background(), model.EVENT_BUSY_SLOT, map[string]any{"userId": "u1"})
	require.True(t, errors.Is(err, engine.ErrNetwork))
}

func TestSendDoesNotModifyPayload(t *testing.T) {
	relay, _ := newTestRelay(t, http.StatusOK, 0)
	payload := map[string]any{"userId": "u1"}
	_, err := relay.Send(context.Background(), model.EVENT_EXTEND_MEETING, payload)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"userId": "u1"}, payload)
}

func TestSendBatch(t *testing.T) {
	interval := 50 * time.Millisecond
	relay, got := newTestRelay(t, http.StatusOK, interval)
	end := time.Date(2024, 5, 1, 11, 30, 0, 0, time.UTC)

	results := relay.SendBatch(context.Background(), Out(
		ExtendMeetingEvent{UserId: "u1", CandidateId: "c1", NewEndTime: end, Reason: "overrun"},
		CVProcessingEvent{UserId: "u1", CandidateId: "c1"},
		BusySlotEvent{UserId: "u1", SlotId: "s1", Date: "2024-05-01"},
	))
	require.Len(t, results, 3)
	require.NoError(t, results[0].Err)
	require.True(t, results[0].Delivery.Delivered)
	require.True(t, errors.Is(results[1].Err, ErrUnknownEvent))
	require.NoError(t, results[2].Err)

	reqs := got()
	require.Len(t, reqs, 2)
	require.Equal(t, "extend", reqs[0].body["action"])
	require.Equal(t, "2024-05-01T11:30:00Z", reqs[0].body["newEndTime"])
	require.Equal(t, "busy", reqs[1].body["action"])
	// the failed event still took its slot
	require.GreaterOrEqual(t, reqs[1].at.Sub(reqs[0].at), 2*interval-10*time.Millisecond)
}

func TestKinds(t *testing.T) {
	relay, _ := newTestRelay(t, http.StatusOK, 0)
	require.Equal(t, []model.EventKind{model.EVENT_MEETING_BOT, model.EVENT_BUSY_SLOT, model.EVENT_EXTEND_MEETING}, relay.Kinds())
}
