package specialist

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Chative-Shop-Assistant/agent/contract"
	promptx "github.com/tanpawarit/Chative-Shop-Assistant/agent/prompt"
)

type aggregatorImpl struct {
	runner compose.Runnable[contractx.AggregateRequest, *schema.Message]
}

var _ contractx.Aggregator = (*aggregatorImpl)(nil)

func newAggregator(ctx context.Context, chatModel einomodel.BaseChatModel, promptTemplate string) (*aggregatorImpl, error) {
	if strings.TrimSpace(promptTemplate) == "" {
		return nil, fmt.Errorf("%w: aggregator prompt", contractx.ErrPromptMissing)
	}
	runner, err := compileMessageGraph(ctx, chatModel, "aggregator.model_graph",
		func(ctx context.Context, req contractx.AggregateRequest) ([]*schema.Message, error) {
			return []*schema.Message{
				schema.UserMessage(promptx.Render(promptTemplate, map[string]string{
					"query":   req.Query,
					"results": FormatOutcomes(req.Outcomes),
				})),
			}, nil
		})
	if err != nil {
		return nil, fmt.Errorf("%w: compile aggregator graph: %v", contractx.ErrModelInvoke, err)
	}
	return &aggregatorImpl{runner: runner}, nil
}

func (a *aggregatorImpl) Aggregate(ctx context.Context, req contractx.AggregateRequest) (string, error) {
	msg, err := a.runner.Invoke(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: aggregator invoke: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", fmt.Errorf("%w: aggregator returned empty text", contractx.ErrSchemaViolation)
	}
	return strings.TrimSpace(msg.Content), nil
}

// FormatOutcomes renders task outcomes for the aggregation prompt. Failed tasks are listed as
// unavailable with their reason.
func FormatOutcomes(outcomes []contractx.TaskOutcome) string {
	var b strings.Builder
	for i, o := range outcomes {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%s] %s", o.Key, o.Description)
		if o.Success {
			fmt.Fprintf(&b, "\n%s", o.Data)
		} else {
			fmt.Fprintf(&b, "\nunavailable: %s", o.Error)
		}
	}
	return b.String()
}
