package analytics

type DataCollectorConfig struct {
	FileName      string
	CollectorType DataCollectorType
}

type DataCollectorType string

const LOG_FILE_DATA_COLLECTOR DataCollectorType = "LOG_FILE_DATA_COLLECTOR"
const NOOP_DATA_COLLECTOR DataCollectorType = "NOOP"

// DataCollector records provisioning and webhook delivery outcomes for
// offline analysis.
type DataCollector interface {
	RecordProvisioning(userId string, template string, status string, errorKind string)
	RecordDelivery(event string, userId string, status int, delivered bool)
}

type noopCollector struct{}

func (noopCollector) RecordProvisioning(string, string, string, string) {}
func (noopCollector) RecordDelivery(string, string, int, bool)          {}

var collector DataCollector = noopCollector{}

func InitDataCollector(config DataCollectorConfig) error {
	switch config.CollectorType {
	case LOG_FILE_DATA_COLLECTOR:
		c, err := NewLogFileDataCollector(config.FileName)
		if err != nil {
			return err
		}
		collector = c
	default:
		collector = noopCollector{}
	}
	return nil
}

// SetDataCollector installs c as the process collector.
func SetDataCollector(c DataCollector) {
	if c == nil {
		c = noopCollector{}
	}
	collector = c
}

func RecordProvisioning(userId string, template string, status string, errorKind string) {
	collector.RecordProvisioning(userId, template, status, errorKind)
}

func RecordDelivery(event string, userId string, status int, delivered bool) {
	collector.RecordDelivery(event, userId, status, delivered)
}
