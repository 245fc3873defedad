package orchestratornode

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Shop-Assistant/agent/contract"
	toolx "github.com/tanpawarit/Chative-Shop-Assistant/agent/tool"
	"golang.org/x/sync/errgroup"
)

// ExecuteTasks runs the decomposed tasks in priority order (stable for equal priorities) with at
// most workers in flight. Each task is isolated: its failure becomes a failed outcome and never
// stops the others. Outcomes are returned in execution order.
func ExecuteTasks(ctx context.Context, in *GraphState, workers int, capabilityTimeout time.Duration) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	tasks := in.Decomposition.Tasks
	order := make([]int, len(tasks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return tasks[order[a]].Priority < tasks[order[b]].Priority
	})

	if workers <= 0 {
		workers = 1
	}
	outcomes := make([]contractx.TaskOutcome, len(tasks))
	names := make([]string, len(tasks))

	var g errgroup.Group
	g.SetLimit(workers)
	for pos, idx := range order {
		pos, idx := pos, idx
		g.Go(func() error {
			outcomes[pos], names[pos] = runTask(ctx, in.Catalog, idx, tasks[idx], capabilityTimeout)
			return nil
		})
	}
	_ = g.Wait()

	in.Outcomes = outcomes
	in.ToolsUsed = uniqueNonEmpty(names)
	return in, nil
}

func runTask(
	ctx context.Context,
	catalog contractx.CapabilitySet,
	index int,
	task contractx.SubTask,
	timeout time.Duration,
) (outcome contractx.TaskOutcome, capabilityName string) {
	outcome = contractx.TaskOutcome{
		Key:         contractx.OutcomeKey(task.Type, index),
		TaskType:    task.Type,
		Description: task.Description,
	}
	defer func() {
		if r := recover(); r != nil {
			outcome.Success = false
			outcome.Data = ""
			outcome.Error = fmt.Sprintf("task panicked: %v", r)
		}
		logTask(outcome, capabilityName)
	}()

	name, args := toolx.TaskInvocation(task)
	if name == "" {
		outcome.Error = fmt.Sprintf("unsupported task type %q", task.Type)
		return outcome, ""
	}
	capability, ok := catalog.Lookup(name)
	if !ok {
		outcome.Error = fmt.Sprintf("capability %s is not available", name)
		return outcome, ""
	}

	data, err := toolx.Invoke(ctx, capability, args, timeout)
	if err != nil {
		outcome.Error = err.Error()
		return outcome, name
	}
	outcome.Success = true
	outcome.Data = data
	return outcome, name
}

func logTask(o contractx.TaskOutcome, capabilityName string) {
	if o.Success {
		log.Debug().Str("task", o.Key).Str("capability", capabilityName).Msg("task completed")
		return
	}
	log.Warn().Str("task", o.Key).Str("capability", capabilityName).Str("error", o.Error).Msg("task failed")
}

func uniqueNonEmpty(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
