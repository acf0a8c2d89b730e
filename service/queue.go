package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ishahzaibhaider/Ideofuzion-sub001/logger"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/util"
	"go.uber.org/zap"
)

type ProvisionRequest struct {
	UserId    string
	UserEmail string
}

// ProvisioningQueue runs EnsureUserWorkflows in the background for signups
// that should not wait on the engine.
type ProvisioningQueue struct {
	worker  *util.Worker
	timeout time.Duration
}

func NewProvisioningQueue(svc *ProvisioningService, wg *sync.WaitGroup, capacity int, timeout time.Duration) *ProvisioningQueue {
	q := &ProvisioningQueue{timeout: timeout}
	q.worker = util.NewWorker("provisioning", wg, func(task util.Task) error {
		req, ok := task.(ProvisionRequest)
		if !ok {
			return fmt.Errorf("unexpected task %T", task)
		}
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		defer cancel()
		report, err := svc.EnsureUserWorkflows(ctx, req.UserId, req.UserEmail)
		if err != nil {
			return err
		}
		if !report.Complete() {
			logger.Warn("background provisioning incomplete", zap.String("user", req.UserId), zap.Any("failed", report.Failed()))
		}
		return nil
	}, capacity)
	return q
}

func (q *ProvisioningQueue) Start() {
	q.worker.Start()
}

// Enqueue reports false when the queue is full.
func (q *ProvisioningQueue) Enqueue(req ProvisionRequest) bool {
	return q.worker.TrySend(req)
}

func (q *ProvisioningQueue) Stop() error {
	q.worker.Stop()
	return nil
}
