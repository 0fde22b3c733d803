package tasks

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
)

// Enqueuer wraps the asynq client behind the small interface the API
// handlers need.
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

// EnqueueImageNormalize schedules normalization of an uploaded image.
func (e *Enqueuer) EnqueueImageNormalize(ctx context.Context, key string) error {
	task, err := NewImageNormalizeTask(key)
	if err != nil {
		return fmt.Errorf("failed to build image task for %s: %w", key, err)
	}
	if _, err := e.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue image task for %s: %w", key, err)
	}
	return nil
}
