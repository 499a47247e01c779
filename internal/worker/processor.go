package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/rowanrose/claimdocs/internal/model"
	"github.com/rowanrose/claimdocs/internal/pipeline"
	"github.com/rowanrose/claimdocs/internal/queue"
)

// Processor is plugged into the asynq worker loop.
type Processor struct {
	pipe *pipeline.Pipeline
}

// NewProcessor constructs a worker processor around a wired pipeline.
func NewProcessor(pipe *pipeline.Pipeline) *Processor {
	return &Processor{pipe: pipe}
}

// Handler registers the generate job handler.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.GenerateDocumentTask, p.handleGenerate)
	return mux
}

func (p *Processor) handleGenerate(ctx context.Context, task *asynq.Task) error {
	var req model.GenerateRequest
	if err := json.Unmarshal(task.Payload(), &req); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	res := p.pipe.Generate(ctx, req)
	switch res.Status {
	case model.ResultSuccess:
		log.Printf("case %d: %s generated as %s", res.CaseID, res.DocumentKind, res.FileName)
		return nil
	case model.ResultSkipped:
		// Gate conditions do not resolve by retrying; the next signature
		// upload triggers a fresh enqueue.
		log.Printf("case %d: %s skipped: %s", res.CaseID, res.DocumentKind, res.Reason)
		return nil
	default:
		return fmt.Errorf("generate %s for case %d: %s", res.DocumentKind, res.CaseID, res.Error)
	}
}
