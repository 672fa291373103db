package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/muskanBP/todo-app/pkg/authz"
	"github.com/muskanBP/todo-app/pkg/models"
)

// LogSink writes decisions to the security log. Denials are logged at WARN,
// grants at INFO (or DEBUG when quiet is set, since grants are high volume).
type LogSink struct {
	logger *zap.Logger
	quiet  bool
}

// NewLogSink creates a LogSink. When quietGrants is true, granted decisions
// are logged at DEBUG.
func NewLogSink(logger *zap.Logger, quietGrants bool) *LogSink {
	return &LogSink{logger: logger.Named("security_audit"), quiet: quietGrants}
}

// Record implements authz.AuditSink.
func (s *LogSink) Record(ctx context.Context, event *models.DecisionEvent) error {
	severity := "info"
	if !event.Granted {
		severity = "warning"
	}

	envelope := SecurityEvent{
		Timestamp: event.Timestamp,
		EventType: EventAccessDecision,
		UserID:    event.ActingUserID.String(),
		Details:   event,
		Severity:  severity,
	}
	eventJSON, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	fields := []zap.Field{
		zap.String("event_json", string(eventJSON)),
		zap.String("scope", event.Scope),
		zap.String("resource_id", event.ResourceID.String()),
		zap.String("user_id", event.ActingUserID.String()),
		zap.String("check", event.Check),
		zap.Bool("granted", event.Granted),
		zap.String("reason", event.Reason),
		zap.String("severity", severity),
	}

	switch {
	case !event.Granted:
		s.logger.Warn("Access denied", fields...)
	case s.quiet:
		s.logger.Debug("Access granted", fields...)
	default:
		s.logger.Info("Access granted", fields...)
	}
	return nil
}

// MultiSink fans each event out to every sink and joins their errors.
type MultiSink []authz.AuditSink

// Record implements authz.AuditSink.
func (m MultiSink) Record(ctx context.Context, event *models.DecisionEvent) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// decisionRecordTimeout bounds a single background write.
const decisionRecordTimeout = 5 * time.Second

var (
	_ authz.AuditSink = (*LogSink)(nil)
	_ authz.AuditSink = MultiSink(nil)
)
