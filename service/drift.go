package service

import (
	"context"
	"errors"
	"sort"

	"github.com/ishahzaibhaider/Ideofuzion-sub001/engine"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/logger"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/model"
	"go.uber.org/zap"
)

type DriftStatus string

const (
	DRIFT_NONE    DriftStatus = "in_sync"
	DRIFT_CHANGED DriftStatus = "drifted"
	// DRIFT_MISSING means the engine no longer has the workflow; the record
	// entry is dropped so the next ensure re-creates it.
	DRIFT_MISSING DriftStatus = "missing"
	DRIFT_INVALID DriftStatus = "invalid"
	DRIFT_ERROR   DriftStatus = "error"
)

type WorkflowDrift struct {
	Template   model.TemplateName `json:"template"`
	RemoteId   string             `json:"remoteId"`
	Status     DriftStatus        `json:"status"`
	Active     bool               `json:"active"`
	Missing    []string           `json:"missingNodes,omitempty"`
	Unexpected []string           `json:"unexpectedNodes,omitempty"`
	Retyped    []string           `json:"retypedNodes,omitempty"`
	ErrorKind  string             `json:"errorKind,omitempty"`
	Error      string             `json:"error,omitempty"`
}

type DriftReport struct {
	UserId    string          `json:"userId"`
	Workflows []WorkflowDrift `json:"workflows"`
}

func (r *DriftReport) InSync() bool {
	for _, w := range r.Workflows {
		if w.Status != DRIFT_NONE {
			return false
		}
	}
	return true
}

// InspectUserWorkflows fetches the user's workflows back from the engine,
// validates them and compares their nodes with the templates. Fetches are
// spaced by the engine client's minimum call interval; recently fetched
// definitions are served from cache.
func (s *ProvisioningService) InspectUserWorkflows(ctx context.Context, userId string) (*DriftReport, error) {
	record, err := s.store.GetRecord(ctx, userId)
	if err != nil {
		return nil, err
	}
	instances := record.Instances()
	fetched := make(map[string]engine.FetchResult, len(instances))
	var toFetch []string
	for _, inst := range instances {
		if wf, ok := s.cache.GetWorkflow(inst.RemoteId); ok {
			fetched[inst.RemoteId] = engine.FetchResult{Id: inst.RemoteId, Workflow: wf}
			continue
		}
		toFetch = append(toFetch, inst.RemoteId)
	}
	for _, res := range s.client.FetchWorkflows(ctx, toFetch) {
		fetched[res.Id] = res
		if res.Err == nil {
			s.cache.SaveWorkflow(res.Id, res.Workflow)
		}
	}

	report := &DriftReport{UserId: userId}
	for _, inst := range instances {
		res := fetched[inst.RemoteId]
		drift := WorkflowDrift{Template: inst.Template, RemoteId: inst.RemoteId, Active: inst.Active}
		switch {
		case res.Err == nil:
			drift.Active = res.Workflow.Active
			s.compare(&drift, res.Workflow)
		case errors.Is(res.Err, engine.ErrNotFound):
			drift.Status = DRIFT_MISSING
			s.forget(ctx, userId, inst.Template, record.Entries[inst.Template].Token, inst.RemoteId)
		case model.IsGraphError(res.Err):
			drift.Status = DRIFT_INVALID
		default:
			drift.Status = DRIFT_ERROR
		}
		if res.Err != nil {
			drift.ErrorKind = errorKind(res.Err)
			drift.Error = res.Err.Error()
		}
		report.Workflows = append(report.Workflows, drift)
	}
	return report, nil
}

func (s *ProvisioningService) compare(drift *WorkflowDrift, remote *model.Workflow) {
	t, err := s.registry.Get(drift.Template)
	if err != nil {
		drift.Status = DRIFT_ERROR
		drift.Error = err.Error()
		return
	}
	want := make(map[string]string, len(t.Workflow.Nodes))
	for _, n := range t.Workflow.Nodes {
		want[n.Name] = n.Type
	}
	got := make(map[string]string, len(remote.Nodes))
	for _, n := range remote.Nodes {
		got[n.Name] = n.Type
	}
	for name, typ := range want {
		remoteType, ok := got[name]
		switch {
		case !ok:
			drift.Missing = append(drift.Missing, name)
		case remoteType != typ:
			drift.Retyped = append(drift.Retyped, name)
		}
	}
	for name := range got {
		if _, ok := want[name]; !ok {
			drift.Unexpected = append(drift.Unexpected, name)
		}
	}
	sort.Strings(drift.Missing)
	sort.Strings(drift.Unexpected)
	sort.Strings(drift.Retyped)
	drift.Status = DRIFT_NONE
	if len(drift.Missing)+len(drift.Unexpected)+len(drift.Retyped) > 0 {
		drift.Status = DRIFT_CHANGED
	}
}

func (s *ProvisioningService) forget(ctx context.Context, userId string, name model.TemplateName, token string, remoteId string) {
	s.cache.Forget(remoteId)
	ok, err := s.store.CompareAndSwap(ctx, userId, name, token, nil)
	if err != nil {
		logger.Error("error dropping missing workflow", zap.String("user", userId), zap.String("template", string(name)), zap.Error(err))
		return
	}
	if ok {
		logger.Warn("workflow missing on engine, dropped from record", zap.String("user", userId),
			zap.String("template", string(name)), zap.String("id", remoteId))
	}
}

// Audit inspects every known user and returns how many had drift.
func (s *ProvisioningService) Audit(ctx context.Context) (int, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return 0, err
	}
	drifted := 0
	for _, u := range users {
		if ctx.Err() != nil {
			return drifted, ctx.Err()
		}
		report, err := s.InspectUserWorkflows(ctx, u)
		if err != nil {
			logger.Error("error inspecting user workflows", zap.String("user", u), zap.Error(err))
			continue
		}
		if !report.InSync() {
			drifted++
			logger.Warn("user workflows drifted", zap.String("user", u), zap.Any("workflows", report.Workflows))
		}
	}
	logger.Info("workflow audit finished", zap.Int("users", len(users)), zap.Int("drifted", drifted))
	return drifted, nil
}
