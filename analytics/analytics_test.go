package analytics

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogFileDataCollector(t *testing.T) {
	file := filepath.Join(t.TempDir(), "analytics.log")
	require.NoError(t, InitDataCollector(DataCollectorConfig{FileName: file, CollectorType: LOG_FILE_DATA_COLLECTOR}))
	t.Cleanup(func() { SetDataCollector(nil) })

	RecordProvisioning("u1", "busy-slots", "failed", "NetworkError")
	RecordDelivery("busy-slot", "u1", 500, false)
	require.NoError(t, collector.(*LogFileDataCollector).Sync())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.Equal(t, "provisioning", first["msg"])
	require.Equal(t, "NetworkError", first["errorKind"])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	require.Equal(t, false, second["delivered"])
	require.Equal(t, 500.0, second["status"])
}

func TestNoopByDefault(t *testing.T) {
	SetDataCollector(nil)
	RecordProvisioning("u1", "busy-slots", "created", "")
	RecordDelivery("busy-slot", "u1", 200, true)
}
