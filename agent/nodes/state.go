package orchestratornode

import (
	"errors"
	"strings"

	contractx "github.com/tanpawarit/Chative-Shop-Assistant/agent/contract"
)

var ErrInvalidMessage = errors.New("message is empty")

// GraphInput is one batch attempt. Catalog is the session's capability set bound to its user.
type GraphInput struct {
	Query   string
	Catalog contractx.CapabilitySet
}

// GraphOutput reports a batch attempt. Batch is false when the request was not decomposed into
// tasks; the caller then falls through to single-pass dispatch.
type GraphOutput struct {
	Batch         bool
	Response      string
	TasksExecuted int
	Success       bool
	ToolsUsed     []string
	Outcomes      []contractx.TaskOutcome
}

type GraphState struct {
	Query   string
	Catalog contractx.CapabilitySet

	Decomposition contractx.Decomposition
	Outcomes      []contractx.TaskOutcome
	ToolsUsed     []string
	Response      string
}

func ValidateRequest(in GraphInput) (*GraphState, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return nil, ErrInvalidMessage
	}
	if in.Catalog == nil {
		return nil, errors.New("capability catalog is required")
	}
	return &GraphState{Query: query, Catalog: in.Catalog}, nil
}

// HasTasks reports whether the decomposition should run the batch path.
func (s *GraphState) HasTasks() bool {
	return s != nil && s.Decomposition.IsComplex && len(s.Decomposition.Tasks) > 0
}
