package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ishahzaibhaider/Ideofuzion-sub001/engine"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/model"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/persistence/memory"
	"github.com/stretchr/testify/require"
)

func TestInspectUserWorkflows(t *testing.T) {
	eng := newFakeEngine()
	store := memory.NewUserWorkflowStore()
	svc := newTestService(t, eng, store)
	ctx := context.Background()

	report, err := svc.EnsureUserWorkflows(ctx, "u1", "u1@example.com")
	require.NoError(t, err)
	ids := map[model.TemplateName]string{}
	for _, r := range report.Results {
		ids[r.Template] = r.RemoteId
	}

	drift, err := svc.InspectUserWorkflows(ctx, "u1")
	require.NoError(t, err)
	require.True(t, drift.InSync())
	require.Len(t, drift.Workflows, 4)

	// someone edits one workflow and deletes another on the engine
	eng.mu.Lock()
	edited := eng.workflows[ids[model.TEMPLATE_BUSY_SLOTS]]
	edited.Nodes[len(edited.Nodes)-1].Type = "n8n-nodes-base.noOp"
	edited.Nodes = append(edited.Nodes, model.Node{Id: "extra", Name: "Extra", Type: "n8n-nodes-base.noOp"})
	delete(eng.workflows, ids[model.TEMPLATE_CV_PROCESSING])
	eng.mu.Unlock()
	svc.cache.Forget(ids[model.TEMPLATE_BUSY_SLOTS])
	svc.cache.Forget(ids[model.TEMPLATE_CV_PROCESSING])

	drift, err = svc.InspectUserWorkflows(ctx, "u1")
	require.NoError(t, err)
	require.False(t, drift.InSync())
	byName := map[model.TemplateName]WorkflowDrift{}
	for _, w := range drift.Workflows {
		byName[w.Template] = w
	}
	require.Equal(t, DRIFT_NONE, byName[model.TEMPLATE_MEETING_BOT].Status)
	busy := byName[model.TEMPLATE_BUSY_SLOTS]
	require.Equal(t, DRIFT_CHANGED, busy.Status)
	require.Equal(t, []string{"Extra"}, busy.Unexpected)
	require.Len(t, busy.Retyped, 1)
	require.Equal(t, DRIFT_MISSING, byName[model.TEMPLATE_CV_PROCESSING].Status)
	require.Equal(t, "NotFound", byName[model.TEMPLATE_CV_PROCESSING].ErrorKind)

	// the missing workflow is dropped from the record and re-created
	instances, err := svc.GetUserWorkflows(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, instances, 3)
	report, err = svc.EnsureUserWorkflows(ctx, "u1", "u1@example.com")
	require.NoError(t, err)
	require.Equal(t, STATUS_CREATED, statuses(report)[model.TEMPLATE_CV_PROCESSING])
	require.Equal(t, 2, eng.createCount(model.InstanceName(model.TEMPLATE_CV_PROCESSING, "u1")))
}

type countingEngine struct {
	*fakeEngine
	mu      sync.Mutex
	fetched int
}

func (c *countingEngine) FetchWorkflows(ctx context.Context, ids []string) []engine.FetchResult {
	c.mu.Lock()
	c.fetched += len(ids)
	c.mu.Unlock()
	return c.fakeEngine.FetchWorkflows(ctx, ids)
}

func TestInspectUsesCache(t *testing.T) {
	eng := &countingEngine{fakeEngine: newFakeEngine()}
	store := memory.NewUserWorkflowStore()
	svc := newTestService(t, eng.fakeEngine, store)
	svc.client = eng
	ctx := context.Background()

	_, err := svc.EnsureUserWorkflows(ctx, "u1", "")
	require.NoError(t, err)
	_, err = svc.InspectUserWorkflows(ctx, "u1")
	require.NoError(t, err)
	_, err = svc.InspectUserWorkflows(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 4, eng.fetched)
}

func TestAudit(t *testing.T) {
	eng := newFakeEngine()
	svc := newTestService(t, eng, memory.NewUserWorkflowStore())
	ctx := context.Background()

	for _, u := range []string{"u1", "u2", "u3"} {
		_, err := svc.EnsureUserWorkflows(ctx, u, "")
		require.NoError(t, err)
	}
	records, err := svc.GetUserWorkflows(ctx, "u2")
	require.NoError(t, err)
	eng.mu.Lock()
	delete(eng.workflows, records[0].RemoteId)
	eng.mu.Unlock()

	drifted, err := svc.Audit(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, drifted)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = svc.Audit(cancelled)
	require.ErrorIs(t, err, context.Canceled)
}

func TestProvisioningQueue(t *testing.T) {
	eng := newFakeEngine()
	svc := newTestService(t, eng, memory.NewUserWorkflowStore())
	wg := &sync.WaitGroup{}
	q := NewProvisioningQueue(svc, wg, 4, time.Second)
	q.Start()

	require.True(t, q.Enqueue(ProvisionRequest{UserId: "u1", UserEmail: "u1@example.com"}))
	require.Eventually(t, func() bool {
		instances, err := svc.GetUserWorkflows(context.Background(), "u1")
		return err == nil && len(instances) == 4
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, q.Stop())
	wg.Wait()
}
