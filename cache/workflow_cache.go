package cache

import (
	"time"

	"github.com/ishahzaibhaider/Ideofuzion-sub001/model"
	c "github.com/patrickmn/go-cache"
)

// WorkflowCache keeps recently fetched remote workflow definitions so that
// repeated drift checks do not hit the engine's rate limiter.
type WorkflowCache struct {
	cache *c.Cache
}

func NewWorkflowCache(ttl time.Duration) *WorkflowCache {
	return &WorkflowCache{
		cache: c.New(ttl, 2*ttl),
	}
}

func (ch *WorkflowCache) SaveWorkflow(remoteId string, wf *model.Workflow) {
	ch.cache.SetDefault(remoteId, wf)
}

func (ch *WorkflowCache) GetWorkflow(remoteId string) (*model.Workflow, bool) {
	v, found := ch.cache.Get(remoteId)
	if !found {
		return nil, false
	}
	wf, ok := v.(*model.Workflow)
	return wf, ok
}

func (ch *WorkflowCache) Forget(remoteId string) {
	ch.cache.Delete(remoteId)
}
