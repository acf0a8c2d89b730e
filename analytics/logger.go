package analytics

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogFileDataCollector struct {
	fileName string
	logger   *zap.Logger
}

func NewLogFileDataCollector(fileName string) (*LogFileDataCollector, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.StacktraceKey = ""
	fileEncoder := zapcore.NewJSONEncoder(encoderConfig)
	logFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(fileEncoder, zapcore.AddSync(logFile), zapcore.InfoLevel)
	return &LogFileDataCollector{
		fileName: fileName,
		logger:   zap.New(core),
	}, nil
}

func (lc *LogFileDataCollector) RecordProvisioning(userId string, template string, status string, errorKind string) {
	lc.logger.Info("provisioning", zap.String("user", userId), zap.String("template", template),
		zap.String("status", status), zap.String("errorKind", errorKind))
}

func (lc *LogFileDataCollector) RecordDelivery(event string, userId string, status int, delivered bool) {
	lc.logger.Info("delivery", zap.String("event", event), zap.String("user", userId),
		zap.Int("status", status), zap.Bool("delivered", delivered))
}

func (lc *LogFileDataCollector) Sync() error {
	return lc.logger.Sync()
}
