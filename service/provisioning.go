package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/analytics"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/cache"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/engine"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/logger"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/metadata"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/model"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/persistence"
	"go.uber.org/zap"
)

const (
	DEFAULT_RESERVATION_TTL = 2 * time.Minute
	DEFAULT_LOCK_SHARDS     = 256
	DEFAULT_DRIFT_CACHE_TTL = 5 * time.Minute
)

// EngineClient is the part of engine.Client the service needs.
type EngineClient interface {
	CreateWorkflow(ctx context.Context, wf *model.Workflow) (string, error)
	ActivateWorkflow(ctx context.Context, id string) error
	ListWorkflows(ctx context.Context, filter engine.ListFilter) ([]engine.WorkflowSummary, error)
	FetchWorkflows(ctx context.Context, ids []string) []engine.FetchResult
}

var _ EngineClient = new(engine.Client)

type Config struct {
	// ReservationTTL is how long a pending reservation is honoured before it
	// is assumed abandoned and reconciled against the engine.
	ReservationTTL time.Duration
	LockShards     int
	DriftCacheTTL  time.Duration
	// Activate turns on each workflow right after creating it.
	Activate bool
}

type ProvisioningService struct {
	client   EngineClient
	registry metadata.TemplateRegistry
	store    persistence.UserWorkflowStore
	locks    *userLocks
	cache    *cache.WorkflowCache
	conf     Config
	now      func() time.Time
}

func NewProvisioningService(client EngineClient, registry metadata.TemplateRegistry, store persistence.UserWorkflowStore, conf Config) *ProvisioningService {
	if conf.ReservationTTL <= 0 {
		conf.ReservationTTL = DEFAULT_RESERVATION_TTL
	}
	if conf.LockShards <= 0 {
		conf.LockShards = DEFAULT_LOCK_SHARDS
	}
	if conf.DriftCacheTTL <= 0 {
		conf.DriftCacheTTL = DEFAULT_DRIFT_CACHE_TTL
	}
	return &ProvisioningService{
		client:   client,
		registry: registry,
		store:    store,
		locks:    newUserLocks(conf.LockShards),
		cache:    cache.NewWorkflowCache(conf.DriftCacheTTL),
		conf:     conf,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// GetUserWorkflows returns the user's recorded workflows. It never calls the
// engine.
func (s *ProvisioningService) GetUserWorkflows(ctx context.Context, userId string) ([]model.WorkflowInstance, error) {
	record, err := s.store.GetRecord(ctx, userId)
	if err != nil {
		return nil, err
	}
	return record.Instances(), nil
}

// CreateUserWorkflows provisions every template for the user in the fixed
// template order. Templates that already exist are reported, not created
// again. A failure for one template does not stop or undo the others; the
// report says which failed and why.
func (s *ProvisioningService) CreateUserWorkflows(ctx context.Context, userId string, userEmail string) (*Report, error) {
	if err := checkUser(userId); err != nil {
		return nil, err
	}
	unlock, err := s.locks.lock(ctx, userId)
	if err != nil {
		return nil, err
	}
	defer unlock()

	report := &Report{UserId: userId}
	record, err := s.store.GetRecord(ctx, userId)
	if err != nil {
		// every template still goes through its own reservation
		logger.Error("error reading user workflows before create", zap.String("user", userId), zap.Error(err))
		record = model.NewUserWorkflowRecord(userId)
	}
	for _, t := range s.registry.All() {
		report.Results = append(report.Results, s.provision(ctx, userId, userEmail, t.Name, record))
	}
	s.finish(ctx, report)
	return report, nil
}

// EnsureUserWorkflows creates only the templates missing from the user's
// record. It is safe to call repeatedly and concurrently; at most one
// workflow per (user, template) is ever created. It fails only when the
// user's record can not be read.
func (s *ProvisioningService) EnsureUserWorkflows(ctx context.Context, userId string, userEmail string) (*Report, error) {
	if err := checkUser(userId); err != nil {
		return nil, err
	}
	unlock, err := s.locks.lock(ctx, userId)
	if err != nil {
		return nil, err
	}
	defer unlock()

	record, err := s.store.GetRecord(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("error reading workflows of user %s: %w", userId, err)
	}
	report := &Report{UserId: userId}
	for _, t := range s.registry.All() {
		if e, ok := record.Entries[t.Name]; ok && e.State == model.ENTRY_CREATED {
			report.Results = append(report.Results, TemplateResult{Template: t.Name, Status: STATUS_EXISTING, RemoteId: e.RemoteId})
			continue
		}
		report.Results = append(report.Results, s.provision(ctx, userId, userEmail, t.Name, record))
	}
	s.finish(ctx, report)
	return report, nil
}

func (s *ProvisioningService) finish(ctx context.Context, report *Report) {
	for _, res := range report.Results {
		analytics.RecordProvisioning(report.UserId, string(res.Template), string(res.Status), res.ErrorKind)
	}
	instances, err := s.GetUserWorkflows(ctx, report.UserId)
	if err != nil {
		logger.Error("error reading user workflows after provisioning", zap.String("user", report.UserId), zap.Error(err))
		return
	}
	report.Instances = instances
}

// provision brings one (user, template) pair to the created state. The
// caller holds the user's lock; the store reservation protects against other
// processes.
func (s *ProvisioningService) provision(ctx context.Context, userId string, userEmail string, name model.TemplateName, record *model.UserWorkflowRecord) TemplateResult {
	entry, exists := record.Entries[name]
	if !exists {
		token := newToken()
		ok, err := s.store.Reserve(ctx, userId, name, s.pendingEntry(token))
		if err != nil {
			if ok {
				s.release(ctx, userId, name, token)
			}
			return failed(name, err)
		}
		if !ok {
			return s.reservedElsewhere(ctx, userId, name)
		}
		return s.create(ctx, userId, userEmail, name, token)
	}

	switch entry.State {
	case model.ENTRY_CREATED:
		return TemplateResult{Template: name, Status: STATUS_EXISTING, RemoteId: entry.RemoteId}
	case model.ENTRY_PENDING:
		if s.now().Sub(entry.UpdatedAt) < s.conf.ReservationTTL {
			return TemplateResult{Template: name, Status: STATUS_IN_PROGRESS}
		}
		logger.Warn("taking over abandoned reservation", zap.String("user", userId), zap.String("template", string(name)),
			zap.Time("reservedAt", entry.UpdatedAt))
	}

	// undetermined or abandoned: the engine may already have the workflow
	token := newToken()
	ok, err := s.store.CompareAndSwap(ctx, userId, name, entry.Token, ptr(s.pendingEntry(token)))
	if err != nil {
		return failed(name, err)
	}
	if !ok {
		return s.reservedElsewhere(ctx, userId, name)
	}
	return s.reconcile(ctx, userId, userEmail, name, token)
}

// reconcile looks the instance up by name before creating it, so a create
// that succeeded remotely but timed out locally is adopted, not duplicated.
func (s *ProvisioningService) reconcile(ctx context.Context, userId string, userEmail string, name model.TemplateName, token string) TemplateResult {
	instanceName := model.InstanceName(name, userId)
	existing, err := s.client.ListWorkflows(ctx, engine.ListFilter{Name: instanceName})
	if err != nil {
		s.markUndetermined(ctx, userId, name, token)
		return failed(name, err)
	}
	if len(existing) == 0 {
		return s.create(ctx, userId, userEmail, name, token)
	}
	if len(existing) > 1 {
		ids := make([]string, 0, len(existing))
		for _, w := range existing {
			ids = append(ids, w.Id)
		}
		logger.Warn("engine holds several workflows for one template", zap.String("user", userId),
			zap.String("template", string(name)), zap.Strings("ids", ids))
	}
	adopted := existing[0]
	active := adopted.Active
	if !active && s.conf.Activate {
		active = s.activate(ctx, userId, name, adopted.Id)
	}
	if err := s.commit(ctx, userId, name, token, adopted.Id, active); err != nil {
		return failed(name, err)
	}
	logger.Info("adopted existing workflow", zap.String("user", userId), zap.String("template", string(name)), zap.String("id", adopted.Id))
	return TemplateResult{Template: name, Status: STATUS_ADOPTED, RemoteId: adopted.Id}
}

func (s *ProvisioningService) create(ctx context.Context, userId string, userEmail string, name model.TemplateName, token string) TemplateResult {
	wf, err := s.registry.Instantiate(name, userId, userEmail)
	if err != nil {
		logger.Error("error instantiating template", zap.String("template", string(name)), zap.Error(err))
		s.release(ctx, userId, name, token)
		return failed(name, err)
	}
	id, err := s.client.CreateWorkflow(ctx, wf)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrNetwork):
			// the engine may or may not have created it
			s.markUndetermined(ctx, userId, name, token)
		case errors.Is(err, engine.ErrAuth):
			logger.Error("engine rejected the api credential, provisioning needs operator attention",
				zap.String("user", userId), zap.String("template", string(name)), zap.Error(err))
			s.release(ctx, userId, name, token)
		default:
			s.release(ctx, userId, name, token)
		}
		logger.Error("error creating workflow", zap.String("user", userId), zap.String("template", string(name)), zap.Error(err))
		return failed(name, err)
	}
	active := false
	if s.conf.Activate {
		active = s.activate(ctx, userId, name, id)
	}
	if err := s.commit(ctx, userId, name, token, id, active); err != nil {
		return failed(name, err)
	}
	return TemplateResult{Template: name, Status: STATUS_CREATED, RemoteId: id}
}

func (s *ProvisioningService) activate(ctx context.Context, userId string, name model.TemplateName, id string) bool {
	if err := s.client.ActivateWorkflow(ctx, id); err != nil {
		logger.Warn("error activating workflow", zap.String("user", userId), zap.String("template", string(name)),
			zap.String("id", id), zap.Error(err))
		return false
	}
	return true
}

func (s *ProvisioningService) commit(ctx context.Context, userId string, name model.TemplateName, token string, remoteId string, active bool) error {
	// the remote workflow exists now; record it even if the caller gave up
	ctx = context.WithoutCancel(ctx)
	now := s.now()
	ok, err := s.store.CompareAndSwap(ctx, userId, name, token, &model.RecordEntry{
		State:     model.ENTRY_CREATED,
		RemoteId:  remoteId,
		Token:     token,
		Active:    active,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		logger.Error("error recording workflow", zap.String("user", userId), zap.String("template", string(name)),
			zap.String("id", remoteId), zap.Error(err))
		return err
	}
	if !ok {
		logger.Error("reservation lost before commit, engine may hold a duplicate", zap.String("user", userId),
			zap.String("template", string(name)), zap.String("id", remoteId))
		return ErrReservationLost
	}
	return nil
}

func (s *ProvisioningService) markUndetermined(ctx context.Context, userId string, name model.TemplateName, token string) {
	ctx = context.WithoutCancel(ctx)
	entry := model.RecordEntry{State: model.ENTRY_UNDETERMINED, Token: token, UpdatedAt: s.now()}
	if _, err := s.store.CompareAndSwap(ctx, userId, name, token, &entry); err != nil {
		logger.Error("error marking workflow undetermined", zap.String("user", userId), zap.String("template", string(name)), zap.Error(err))
	}
}

func (s *ProvisioningService) release(ctx context.Context, userId string, name model.TemplateName, token string) {
	ctx = context.WithoutCancel(ctx)
	if _, err := s.store.CompareAndSwap(ctx, userId, name, token, nil); err != nil {
		logger.Error("error releasing workflow reservation", zap.String("user", userId), zap.String("template", string(name)), zap.Error(err))
	}
}

func (s *ProvisioningService) reservedElsewhere(ctx context.Context, userId string, name model.TemplateName) TemplateResult {
	record, err := s.store.GetRecord(ctx, userId)
	if err != nil {
		return failed(name, err)
	}
	if e, ok := record.Entries[name]; ok && e.State == model.ENTRY_CREATED {
		return TemplateResult{Template: name, Status: STATUS_EXISTING, RemoteId: e.RemoteId}
	}
	return TemplateResult{Template: name, Status: STATUS_IN_PROGRESS}
}

func (s *ProvisioningService) pendingEntry(token string) model.RecordEntry {
	return model.RecordEntry{State: model.ENTRY_PENDING, Token: token, UpdatedAt: s.now()}
}

func newToken() string {
	return uuid.NewString()
}

func ptr[T any](v T) *T {
	return &v
}

func checkUser(userId string) error {
	if strings.TrimSpace(userId) == "" {
		return fmt.Errorf("user id can not be empty")
	}
	return nil
}
