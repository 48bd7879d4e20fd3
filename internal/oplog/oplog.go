package oplog

import (
	"context"

	"github.com/MarkoPoloResearchLab/prestations/pkg/booking"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger writes booking operation logs through zap.
type ZapLogger struct {
	logger *zap.Logger
}

// New returns a ZapLogger; a nil logger discards everything.
func New(logger *zap.Logger) *ZapLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapLogger{logger: logger.Named("booking")}
}

// LogOperation logs failures at warn and everything else at info.
func (zapLogger *ZapLogger) LogOperation(ctx context.Context, entry booking.OperationLog) {
	fields := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("status", entry.Status),
	}
	if userID := entry.UserID.String(); userID != "" {
		fields = append(fields, zap.String("user_id", userID))
	}
	if len(entry.ReservationIDs) > 0 {
		ids := make([]string, 0, len(entry.ReservationIDs))
		for _, id := range entry.ReservationIDs {
			ids = append(ids, id.String())
		}
		fields = append(fields, zap.Strings("reservation_ids", ids))
	}
	if entry.EventID != "" {
		fields = append(fields, zap.String("event_id", entry.EventID))
	}
	if entry.Updated > 0 {
		fields = append(fields, zap.Int("updated", entry.Updated))
	}
	level := zapcore.InfoLevel
	if entry.Error != nil {
		fields = append(fields, zap.Error(entry.Error))
		level = zapcore.WarnLevel
	}
	if checked := zapLogger.logger.Check(level, "booking operation"); checked != nil {
		checked.Write(fields...)
	}
}
