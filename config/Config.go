package config

import (
	"fmt"
	"time"

	"github.com/ishahzaibhaider/Ideofuzion-sub001/analytics"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/model"
)

type StorageType string

const STORAGE_TYPE_REDIS StorageType = "redis"
const STORAGE_TYPE_INMEM StorageType = "memory"

type Config struct {
	RedisConfig        RedisStorageConfig
	HttpPort           int
	StorageType        StorageType
	EngineConfig       EngineConfig
	WebhookConfig      WebhookConfig
	ProvisioningConfig ProvisioningConfig
	AnalyticsConfig    analytics.DataCollectorConfig
	// TemplatesDir overrides the built in templates when set.
	TemplatesDir  string
	AuditInterval time.Duration
	LogLevel      string
}

type RedisStorageConfig struct {
	Addrs     []string
	Namespace string
	PoolSize  int
	Password  string
}

type EngineConfig struct {
	BaseURL         string
	APIKey          string
	Timeout         time.Duration
	MinCallInterval time.Duration
}

type WebhookConfig struct {
	URLs     map[model.EventKind]string
	Platform string
}

type ProvisioningConfig struct {
	ReservationTTL time.Duration
	LockShards     int
	DriftCacheTTL  time.Duration
	Activate       bool
	QueueCapacity  int
	QueueTimeout   time.Duration
}

func (c Config) Validate() error {
	switch c.StorageType {
	case STORAGE_TYPE_REDIS:
		if len(c.RedisConfig.Addrs) == 0 {
			return fmt.Errorf("redis storage needs at least one address")
		}
	case STORAGE_TYPE_INMEM:
	default:
		return fmt.Errorf("unknown storage type %q", c.StorageType)
	}
	if c.EngineConfig.BaseURL == "" {
		return fmt.Errorf("engine url is required")
	}
	if c.EngineConfig.APIKey == "" {
		return fmt.Errorf("engine api key is required")
	}
	for kind := range c.WebhookConfig.URLs {
		if _, err := model.ToEventKind(string(kind)); err != nil {
			return err
		}
	}
	return nil
}
