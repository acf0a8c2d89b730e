package agent

import (
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/config"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/model"
	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func testConfig(t *testing.T, storage config.StorageType) config.Config {
	engineSrv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(engineSrv.Close)
	return config.Config{
		HttpPort:     freePort(t),
		StorageType:  storage,
		EngineConfig: config.EngineConfig{BaseURL: engineSrv.URL, APIKey: "key", Timeout: time.Second},
		WebhookConfig: config.WebhookConfig{URLs: map[model.EventKind]string{
			model.EVENT_BUSY_SLOT: engineSrv.URL + "/webhook/busy-slot",
		}},
		AuditInterval: time.Hour,
		LogLevel:      "warn",
	}
}

func TestAgentLifecycle(t *testing.T) {
	for scenario, storage := range map[string]config.StorageType{
		"memory": config.STORAGE_TYPE_INMEM,
		"redis":  config.STORAGE_TYPE_REDIS,
	} {
		t.Run(scenario, func(t *testing.T) {
			conf := testConfig(t, storage)
			if storage == config.STORAGE_TYPE_REDIS {
				mr := miniredis.RunT(t)
				conf.RedisConfig = config.RedisStorageConfig{Addrs: []string{mr.Addr()}, Namespace: "flowsync"}
			}
			a, err := New(conf)
			require.NoError(t, err)
			require.True(t, a.auditor.IsRunning())
			require.NoError(t, a.Start())

			url := fmt.Sprintf("http://127.0.0.1:%d/templates", conf.HttpPort)
			require.Eventually(t, func() bool {
				resp, err := http.Get(url)
				if err != nil {
					return false
				}
				resp.Body.Close()
				return resp.StatusCode == http.StatusOK
			}, 2*time.Second, 20*time.Millisecond)

			require.NoError(t, a.Shutdown())
			require.NoError(t, a.Shutdown())
			require.False(t, a.auditor.IsRunning())
			select {
			case <-a.Done():
			default:
				t.Fatal("done channel not closed")
			}
		})
	}
}

func TestAgentRejectsBadConfig(t *testing.T) {
	conf := testConfig(t, "dynamo")
	_, err := New(conf)
	require.Error(t, err)

	conf = testConfig(t, config.STORAGE_TYPE_REDIS)
	conf.RedisConfig.Addrs = []string{"127.0.0.1:1"}
	_, err = New(conf)
	require.Error(t, err)
}
