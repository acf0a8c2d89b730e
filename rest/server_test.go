package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ishahzaibhaider/Ideofuzion-sub001/engine"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/metadata"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/model"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/persistence/memory"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/service"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/webhook"
	"github.com/stretchr/testify/require"
)

// engineStub serves the engine's workflow API and webhooks from memory.
type engineStub struct {
	mu        sync.Mutex
	workflows map[string]json.RawMessage
	names     map[string]string
	hooks     []string
}

func (e *engineStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case strings.HasPrefix(r.URL.Path, "/webhook/"):
		e.hooks = append(e.hooks, r.URL.Path)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message":"Workflow was started"}`))
	case r.Method == http.MethodPost && r.URL.Path == "/workflows":
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Name string `json:"name"`
		}
		json.Unmarshal(body, &req)
		id := fmt.Sprintf("wf-%d", len(e.workflows)+1)
		var wf map[string]any
		json.Unmarshal(body, &wf)
		wf["id"] = id
		stored, _ := json.Marshal(wf)
		e.workflows[id] = stored
		e.names[id] = req.Name
		json.NewEncoder(w).Encode(map[string]any{"id": id, "name": req.Name, "active": false})
	case r.Method == http.MethodGet && r.URL.Path == "/workflows":
		data := []map[string]any{}
		for id, name := range e.names {
			if name == r.URL.Query().Get("name") {
				data = append(data, map[string]any{"id": id, "name": name, "active": false})
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"data": data, "nextCursor": nil})
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/workflows/"):
		wf, ok := e.workflows[strings.TrimPrefix(r.URL.Path, "/workflows/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(wf)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (e *engineStub) created() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.workflows)
}

func (e *engineStub) triggered() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.hooks...)
}

func newTestServer(t *testing.T) (*Server, *engineStub) {
	t.Helper()
	stub := &engineStub{workflows: map[string]json.RawMessage{}, names: map[string]string{}}
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	client := engine.NewClient(engine.Config{BaseURL: srv.URL, APIKey: "key", Timeout: time.Second})
	registry, err := metadata.NewTemplateRegistry(metadata.NewEmbeddedTemplateStorage())
	require.NoError(t, err)
	provisioning := service.NewProvisioningService(client, registry, memory.NewUserWorkflowStore(), service.Config{})
	relay := webhook.NewRelay(webhook.Config{
		URLs:     map[model.EventKind]string{model.EVENT_BUSY_SLOT: srv.URL + "/webhook/busy-slot/{userId}"},
		Platform: "test",
	}, client)

	wg := &sync.WaitGroup{}
	queue := service.NewProvisioningQueue(provisioning, wg, 2, 5*time.Second)
	queue.Start()
	t.Cleanup(func() {
		queue.Stop()
		wg.Wait()
	})

	s, err := NewServer(0, provisioning, queue, registry, relay)
	require.NoError(t, err)
	return s, stub
}

func call(t *testing.T, s *Server, method string, path string, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestUserWorkflowRoutes(t *testing.T) {
	s, stub := newTestServer(t)

	rec, out := call(t, s, http.MethodGet, "/users/u1/workflows", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, out["workflows"])

	rec, out = call(t, s, http.MethodPut, "/users/u1/workflows", `{"email": "u1@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, out["results"], 4)
	require.Len(t, out["instances"], 4)
	require.Equal(t, 4, stub.created())

	rec, _ = call(t, s, http.MethodPost, "/users/u1/workflows", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 4, stub.created())

	rec, out = call(t, s, http.MethodGet, "/users/u1/workflows", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, out["workflows"], 4)

	rec, out = call(t, s, http.MethodGet, "/users/u1/workflows/drift", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, out["workflows"], 4)
	for _, w := range out["workflows"].([]any) {
		require.Equal(t, "in_sync", w.(map[string]any)["status"])
	}

	rec, _ = call(t, s, http.MethodPut, "/users/u1/workflows", `{"email": `)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAsyncEnsure(t *testing.T) {
	s, stub := newTestServer(t)
	rec, out := call(t, s, http.MethodPut, "/users/u2/workflows?async=true", `{"email": "u2@example.com"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, true, out["queued"])
	require.Eventually(t, func() bool { return stub.created() == 4 }, 3*time.Second, 10*time.Millisecond)
}

func TestEventRoute(t *testing.T) {
	s, stub := newTestServer(t)

	rec, out := call(t, s, http.MethodPost, "/events/busy-slot", `{"userId": "u1", "slotId": "s1", "date": "2024-05-01"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, out["delivered"])
	require.Equal(t, []string{"/webhook/busy-slot/u1"}, stub.triggered())

	rec, _ = call(t, s, http.MethodPost, "/events/meeting-bot", `{"userId": "u1"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = call(t, s, http.MethodPost, "/events/busy-slot", `{"slotId": "s1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTemplatesRoute(t *testing.T) {
	s, _ := newTestServer(t)
	rec, out := call(t, s, http.MethodGet, "/templates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	templates := out["templates"].([]any)
	require.Len(t, templates, 4)
	require.Equal(t, "meeting-bot", templates[0].(map[string]any)["name"])
}
