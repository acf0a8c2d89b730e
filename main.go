package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ishahzaibhaider/Ideofuzion-sub001/agent"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/analytics"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/config"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type cfg struct {
	config.Config
}
type cli struct {
	cfg cfg
}

func webhookFlag(kind model.EventKind) string {
	return "webhook-" + string(kind) + "-url"
}

func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().String("config-file", "", "Path to config file.")
	cmd.Flags().String("storage-impl", "redis", "implementation of underline storage (redis or memory)")
	cmd.Flags().String("redis-addr", "localhost:6379", "comma separated list of redis host:port")
	cmd.Flags().String("redis-password", "", "redis password")
	cmd.Flags().Int("redis-pool-size", 0, "redis connection pool size, 0 for the client default")
	cmd.Flags().String("namespace", "flowsync", "namespace used in storage")
	cmd.Flags().Int("http-port", 8080, "http port for rest endpoints")

	cmd.Flags().String("engine-url", "", "base url of the automation engine api, e.g. https://engine/api/v1")
	cmd.Flags().String("engine-api-key", "", "api key sent to the automation engine")
	cmd.Flags().Duration("engine-timeout", 10*time.Second, "timeout of a single engine call")
	cmd.Flags().Duration("engine-min-call-interval", time.Second, "minimum delay between engine calls of one batch")

	for _, kind := range model.EventKinds {
		cmd.Flags().String(webhookFlag(kind), "", "webhook url for "+string(kind)+" events, {userId} is substituted")
	}
	cmd.Flags().String("webhook-platform", "web", "platform tag stamped on every webhook")

	cmd.Flags().Duration("reservation-ttl", 0, "age after which a pending reservation is taken over")
	cmd.Flags().Int("lock-shards", 0, "number of shards in the per user lock table")
	cmd.Flags().Duration("drift-cache-ttl", 0, "how long fetched workflows are cached for drift checks")
	cmd.Flags().Bool("activate", true, "activate workflows after creating them")
	cmd.Flags().Int("queue-capacity", 0, "capacity of the background provisioning queue")
	cmd.Flags().Duration("queue-timeout", 0, "timeout of one background provisioning run")
	cmd.Flags().Duration("audit-interval", 0, "interval of the drift audit, 0 disables it")
	cmd.Flags().String("templates-dir", "", "directory with workflow templates, overrides the built in set")

	cmd.Flags().String("analytics-file", "", "file that receives provisioning and delivery records")
	cmd.Flags().String("log-level", "info", "log level")
	return viper.BindPFlags(cmd.Flags())
}

func (c *cli) setupConfig(cmd *cobra.Command, args []string) error {
	var err error

	configFile, err := cmd.Flags().GetString("config-file")
	if err != nil {
		return err
	}
	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err = viper.ReadInConfig(); err != nil {
			// it's ok if config file doesn't exist
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return err
			}
		}
	}
	viper.SetEnvPrefix("FLOWSYNC")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	c.cfg.StorageType = config.StorageType(viper.GetString("storage-impl"))
	c.cfg.RedisConfig.Addrs = strings.Split(viper.GetString("redis-addr"), ",")
	c.cfg.RedisConfig.Password = viper.GetString("redis-password")
	c.cfg.RedisConfig.PoolSize = viper.GetInt("redis-pool-size")
	c.cfg.RedisConfig.Namespace = viper.GetString("namespace")
	c.cfg.HttpPort = viper.GetInt("http-port")

	c.cfg.EngineConfig.BaseURL = viper.GetString("engine-url")
	c.cfg.EngineConfig.APIKey = viper.GetString("engine-api-key")
	c.cfg.EngineConfig.Timeout = viper.GetDuration("engine-timeout")
	c.cfg.EngineConfig.MinCallInterval = viper.GetDuration("engine-min-call-interval")

	c.cfg.WebhookConfig.URLs = map[model.EventKind]string{}
	for _, kind := range model.EventKinds {
		if u := viper.GetString(webhookFlag(kind)); u != "" {
			c.cfg.WebhookConfig.URLs[kind] = u
		}
	}
	c.cfg.WebhookConfig.Platform = viper.GetString("webhook-platform")

	c.cfg.ProvisioningConfig.ReservationTTL = viper.GetDuration("reservation-ttl")
	c.cfg.ProvisioningConfig.LockShards = viper.GetInt("lock-shards")
	c.cfg.ProvisioningConfig.DriftCacheTTL = viper.GetDuration("drift-cache-ttl")
	c.cfg.ProvisioningConfig.Activate = viper.GetBool("activate")
	c.cfg.ProvisioningConfig.QueueCapacity = viper.GetInt("queue-capacity")
	c.cfg.ProvisioningConfig.QueueTimeout = viper.GetDuration("queue-timeout")
	c.cfg.AuditInterval = viper.GetDuration("audit-interval")
	c.cfg.TemplatesDir = viper.GetString("templates-dir")

	if f := viper.GetString("analytics-file"); f != "" {
		c.cfg.AnalyticsConfig = analytics.DataCollectorConfig{FileName: f, CollectorType: analytics.LOG_FILE_DATA_COLLECTOR}
	} else {
		c.cfg.AnalyticsConfig = analytics.DataCollectorConfig{CollectorType: analytics.NOOP_DATA_COLLECTOR}
	}
	c.cfg.LogLevel = viper.GetString("log-level")
	return c.cfg.Validate()
}

func (c *cli) run(cmd *cobra.Command, args []string) error {
	var err error
	agent, err := agent.New(c.cfg.Config)
	if err != nil {
		return err
	}
	err = agent.Start()
	if err != nil {
		return err
	}
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
	case <-agent.Done():
	}
	return agent.Shutdown()
}

func main() {
	cli := &cli{}

	cmd := &cobra.Command{
		Use:     "flowsync",
		Short:   "provisions per user automation workflows and relays domain events to them",
		PreRunE: cli.setupConfig,
		RunE:    cli.run,
	}

	if err := setupFlags(cmd); err != nil {
		log.Fatal(err)
	}

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
