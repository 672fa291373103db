package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/muskanBP/todo-app/pkg/authz"
	"github.com/muskanBP/todo-app/pkg/models"
)

// StreamAdder is the subset of the Redis client used by RedisSink.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisSink publishes decisions to a Redis stream for downstream consumers.
// The stream is trimmed approximately to maxLen entries.
type RedisSink struct {
	client StreamAdder
	stream string
	maxLen int64
}

// NewRedisSink creates a sink that appends to stream.
func NewRedisSink(client StreamAdder, stream string, maxLen int64) *RedisSink {
	return &RedisSink{client: client, stream: stream, maxLen: maxLen}
}

// Record implements authz.AuditSink.
func (s *RedisSink) Record(ctx context.Context, event *models.DecisionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal decision event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: s.maxLen > 0,
		Values: map[string]any{
			"id":          event.ID.String(),
			"scope":       event.Scope,
			"resource_id": event.ResourceID.String(),
			"user_id":     event.ActingUserID.String(),
			"check":       event.Check,
			"granted":     strconv.FormatBool(event.Granted),
			"reason":      event.Reason,
			"event":       string(payload),
		},
	}
	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("publish decision event: %w", err)
	}
	return nil
}

var _ authz.AuditSink = (*RedisSink)(nil)
