package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/rowanrose/claimdocs/internal/model"
)

const (
	// GenerateDocumentTask is scheduled for each asynchronous letter run.
	GenerateDocumentTask = "document:generate"
)

// EnqueueGenerate enqueues a letter generation job. The chained follow-up
// letter is produced inside the same job, not enqueued separately.
func EnqueueGenerate(ctx context.Context, client *asynq.Client, req model.GenerateRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(GenerateDocumentTask, data)
	if _, err := client.EnqueueContext(ctx, task, asynq.MaxRetry(3)); err != nil {
		return fmt.Errorf("enqueue generate task: %w", err)
	}
	return nil
}
