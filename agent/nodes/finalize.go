package orchestratornode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Shop-Assistant/agent/contract"
)

func FinalizeBatch(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	reply := strings.TrimSpace(in.Response)
	if reply == "" {
		reply = degradedReply(in.Outcomes)
	}

	success := false
	for _, o := range in.Outcomes {
		if o.Success {
			success = true
			break
		}
	}

	return GraphOutput{
		Batch:         true,
		Response:      reply,
		TasksExecuted: len(in.Decomposition.Tasks),
		Success:       success,
		ToolsUsed:     in.ToolsUsed,
		Outcomes:      in.Outcomes,
	}, nil
}

// Passthrough ends the graph without running tasks.
func Passthrough(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	return GraphOutput{Batch: false}, nil
}
