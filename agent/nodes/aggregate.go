package orchestratornode

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Shop-Assistant/agent/contract"
)

// DegradedAggregationReply prefixes the raw task data when the aggregator cannot combine it.
const DegradedAggregationReply = "Sorry, there was a problem combining the results."

// Aggregate composes the final reply from the task outcomes. An aggregator failure degrades to a
// static message followed by the data of every successful task.
func Aggregate(ctx context.Context, in *GraphState, aggregator contractx.Aggregator) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	reply, err := aggregator.Aggregate(ctx, contractx.AggregateRequest{
		Query:    in.Query,
		Outcomes: in.Outcomes,
	})
	if err != nil {
		log.Warn().Err(err).Msg("aggregation failed, returning raw task results")
		in.Response = degradedReply(in.Outcomes)
		return in, nil
	}
	in.Response = strings.TrimSpace(reply)
	return in, nil
}

func degradedReply(outcomes []contractx.TaskOutcome) string {
	var b strings.Builder
	b.WriteString(DegradedAggregationReply)
	for _, o := range outcomes {
		if !o.Success || strings.TrimSpace(o.Data) == "" {
			continue
		}
		b.WriteString("\n\n")
		b.WriteString(strings.TrimSpace(o.Data))
	}
	return b.String()
}
