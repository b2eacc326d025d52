package queue

import (
	"context"

	"github.com/fishperson113/scholarships-routing/pkg/chat"
	"github.com/fishperson113/scholarships-routing/pkg/models"
)

// Dispatcher is the outbound-call stage. dispatch.Client satisfies it.
type Dispatcher interface {
	Send(ctx context.Context, payload map[string]any) models.UpstreamPayload
}

// Pipeline chains the dispatch stage into the formatting stage as one unit of
// work: the dispatcher's output is the sole input to the formatter. Because
// the dispatcher reports failures as error payloads instead of raising,
// Execute always produces a well-formed result — only infrastructure failures
// (broker down, worker crash) can leave a handle without one.
type Pipeline struct {
	dispatcher Dispatcher
}

// NewPipeline creates a pipeline around the given dispatcher.
func NewPipeline(dispatcher Dispatcher) *Pipeline {
	return &Pipeline{dispatcher: dispatcher}
}

// Execute runs both stages for one task payload.
func (p *Pipeline) Execute(ctx context.Context, payload map[string]any) map[string]any {
	upstream := p.dispatcher.Send(ctx, payload)
	return chat.FormatResult(upstream)
}
