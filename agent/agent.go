package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ishahzaibhaider/Ideofuzion-sub001/analytics"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/config"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/engine"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/logger"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/metadata"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/persistence"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/persistence/memory"
	rd "github.com/ishahzaibhaider/Ideofuzion-sub001/persistence/redis"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/rest"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/service"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/util"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/webhook"
	"go.uber.org/zap"
)

const (
	DEFAULT_QUEUE_CAPACITY = 1024
	DEFAULT_QUEUE_TIMEOUT  = 2 * time.Minute
)

type Agent struct {
	Config       config.Config
	store        persistence.UserWorkflowStore
	closeStore   func() error
	client       *engine.Client
	registry     metadata.TemplateRegistry
	provisioning *service.ProvisioningService
	queue        *service.ProvisioningQueue
	relay        *webhook.Relay
	auditor      *util.TickWorker
	httpServer   *rest.Server
	shutdown     bool
	shutdowns    chan struct{}
	shutdownLock sync.Mutex
	wg           sync.WaitGroup
}

func New(config config.Config) (*Agent, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	a := &Agent{
		Config:     config,
		shutdowns:  make(chan struct{}),
		closeStore: func() error { return nil },
	}
	setup := []func() error{
		a.setupLogger,
		a.setupAnalytics,
		a.setupStore,
		a.setupRegistry,
		a.setupEngineClient,
		a.setupProvisioningService,
		a.setupRelay,
		a.setupAuditor,
		a.setupHttpServer,
	}
	for _, fn := range setup {
		if err := fn(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Agent) setupLogger() error {
	if a.Config.LogLevel == "" {
		return nil
	}
	return logger.SetLevel(a.Config.LogLevel)
}

func (a *Agent) setupAnalytics() error {
	return analytics.InitDataCollector(a.Config.AnalyticsConfig)
}

func (a *Agent) setupStore() error {
	switch a.Config.StorageType {
	case config.STORAGE_TYPE_REDIS:
		dao := rd.NewRedisUserWorkflowDao(rd.Config{
			Addrs:     a.Config.RedisConfig.Addrs,
			Namespace: a.Config.RedisConfig.Namespace,
			PoolSize:  a.Config.RedisConfig.PoolSize,
			Password:  a.Config.RedisConfig.Password,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := dao.Ping(ctx); err != nil {
			return fmt.Errorf("error connecting to redis: %w", err)
		}
		a.store = dao
		a.closeStore = dao.Close
	case config.STORAGE_TYPE_INMEM:
		logger.Warn("using in memory storage, workflow records are lost on restart")
		a.store = memory.NewUserWorkflowStore()
	default:
		return fmt.Errorf("unknown storage type %s", a.Config.StorageType)
	}
	return nil
}

func (a *Agent) setupRegistry() error {
	storage := metadata.NewEmbeddedTemplateStorage()
	if a.Config.TemplatesDir != "" {
		storage = metadata.NewDirTemplateStorage(a.Config.TemplatesDir)
	}
	var err error
	a.registry, err = metadata.NewTemplateRegistry(storage)
	return err
}

func (a *Agent) setupEngineClient() error {
	a.client = engine.NewClient(engine.Config{
		BaseURL:         a.Config.EngineConfig.BaseURL,
		APIKey:          a.Config.EngineConfig.APIKey,
		Timeout:         a.Config.EngineConfig.Timeout,
		MinCallInterval: a.Config.EngineConfig.MinCallInterval,
	})
	return nil
}

func (a *Agent) setupProvisioningService() error {
	pc := a.Config.ProvisioningConfig
	a.provisioning = service.NewProvisioningService(a.client, a.registry, a.store, service.Config{
		ReservationTTL: pc.ReservationTTL,
		LockShards:     pc.LockShards,
		DriftCacheTTL:  pc.DriftCacheTTL,
		Activate:       pc.Activate,
	})
	capacity := pc.QueueCapacity
	if capacity <= 0 {
		capacity = DEFAULT_QUEUE_CAPACITY
	}
	timeout := pc.QueueTimeout
	if timeout <= 0 {
		timeout = DEFAULT_QUEUE_TIMEOUT
	}
	a.queue = service.NewProvisioningQueue(a.provisioning, &a.wg, capacity, timeout)
	a.queue.Start()
	return nil
}

func (a *Agent) setupRelay() error {
	a.relay = webhook.NewRelay(webhook.Config{
		URLs:            a.Config.WebhookConfig.URLs,
		Platform:        a.Config.WebhookConfig.Platform,
		MinCallInterval: a.Config.EngineConfig.MinCallInterval,
	}, a.client)
	return nil
}

func (a *Agent) setupAuditor() error {
	if a.Config.AuditInterval <= 0 {
		return nil
	}
	a.auditor = util.NewTickWorker("workflow-audit", a.Config.AuditInterval, make(chan struct{}), func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.Config.AuditInterval)
		defer cancel()
		if _, err := a.provisioning.Audit(ctx); err != nil {
			logger.Error("error auditing workflows", zap.Error(err))
		}
	}, &a.wg)
	a.auditor.Start()
	return nil
}

func (a *Agent) setupHttpServer() error {
	var err error
	a.httpServer, err = rest.NewServer(a.Config.HttpPort, a.provisioning, a.queue, a.registry, a.relay)
	if err != nil {
		return err
	}
	return nil
}

func (a *Agent) Start() error {
	go func() {
		if err := a.httpServer.Start(); err != nil {
			logger.Error("http server failed", zap.Error(err))
			_ = a.Shutdown()
		}
	}()
	return nil
}

func (a *Agent) Shutdown() error {
	logger.Info("shutting down server")
	a.shutdownLock.Lock()
	defer a.shutdownLock.Unlock()
	if a.shutdown {
		return nil
	}
	a.shutdown = true
	close(a.shutdowns)

	shutdown := []func() error{
		a.httpServer.Stop,
		a.queue.Stop,
		func() error {
			if a.auditor != nil {
				a.auditor.Stop()
			}
			return nil
		},
	}
	for _, fn := range shutdown {
		if err := fn(); err != nil {
			return err
		}
	}
	logger.Info("waiting for all services to shutdown...")
	a.wg.Wait()
	if err := a.closeStore(); err != nil {
		logger.Error("error closing storage", zap.Error(err))
	}
	_ = logger.Sync()
	return nil
}

// Done is closed once Shutdown has begun.
func (a *Agent) Done() <-chan struct{} {
	return a.shutdowns
}
