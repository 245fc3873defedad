package contract

import (
	"fmt"
	"time"
)

// TaskType is the closed set of sub-task kinds a decomposition may contain.
type TaskType string

const (
	TaskUserInfo         TaskType = "user_info"
	TaskOrderLookup      TaskType = "order_lookup"
	TaskDeliveryTracking TaskType = "delivery_tracking"
	TaskProductSearch    TaskType = "product_search"
	TaskRAGSearch        TaskType = "rag_search"
)

func (t TaskType) Valid() bool {
	switch t {
	case TaskUserInfo, TaskOrderLookup, TaskDeliveryTracking, TaskProductSearch, TaskRAGSearch:
		return true
	default:
		return false
	}
}

const (
	MinPriority     = 1
	MaxPriority     = 5
	DefaultPriority = 3
)

// SubTask is one unit of a decomposed compound request. Priority 1 runs first.
type SubTask struct {
	Type        TaskType `json:"type"`
	Description string   `json:"description"`
	Priority    int      `json:"priority"`
	Keyword     string   `json:"keyword,omitempty"`
}

type Decomposition struct {
	IsComplex           bool      `json:"is_complex"`
	Tasks               []SubTask `json:"tasks"`
	RequiresUserContext bool      `json:"requires_user_context"`
}

// TaskOutcome is the result of one sub-task. Key is "<type>#<index>" with index being the task's
// position in the decomposition, so tasks of the same type never collide.
type TaskOutcome struct {
	Key         string   `json:"key"`
	TaskType    TaskType `json:"task_type"`
	Description string   `json:"description"`
	Success     bool     `json:"success"`
	Data        string   `json:"data,omitempty"`
	Error       string   `json:"error,omitempty"`
}

func OutcomeKey(t TaskType, index int) string {
	return fmt.Sprintf("%s#%d", t, index)
}

type Method string

const (
	MethodSinglePass Method = "single_pass"
	MethodBatch      Method = "batch"
	MethodFallback   Method = "fallback"
	MethodError      Method = "error"
)

// DispatchResult is what one orchestration call returns to its caller.
type DispatchResult struct {
	Response      string        `json:"response"`
	Method        Method        `json:"method"`
	ToolsUsed     []string      `json:"tools_used"`
	TasksExecuted int           `json:"tasks_executed"`
	Success       bool          `json:"success"`
	Error         string        `json:"error,omitempty"`
	ResponseTime  time.Duration `json:"response_time"`
	Outcomes      []TaskOutcome `json:"outcomes,omitempty"`
}

type Request struct {
	Query        string
	UserID       string
	SessionID    string
	// DisableBatch skips the batch path for this call. The zero value keeps batch handling on.
	DisableBatch bool
}

// Turn is one committed human/assistant exchange.
type Turn struct {
	Human     string `json:"human"`
	Assistant string `json:"assistant"`
}

// DispatchOutput is the raw result of one single-pass run.
type DispatchOutput struct {
	Response  string
	ToolsUsed []string
	Rounds    int
	Exhausted bool
}

type DispatchRequest struct {
	Query   string
	UserID  string
	History []Turn
}

type AggregateRequest struct {
	Query    string
	Outcomes []TaskOutcome
}
