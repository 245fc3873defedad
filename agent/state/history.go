package state

import (
	"sync"

	contractx "github.com/tanpawarit/Chative-Shop-Assistant/agent/contract"
)

// MaxTurns is the number of human/assistant pairs a History keeps.
const MaxTurns = 10

type Turn = contractx.Turn

// History is a bounded FIFO log of committed turns. Safe for concurrent use.
type History struct {
	mu    sync.Mutex
	turns []Turn
	limit int
}

func NewHistory() *History {
	return &History{limit: MaxTurns}
}

// Append commits one pair and evicts the oldest pairs beyond the cap.
func (h *History) Append(human, assistant string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.turns = append(h.turns, Turn{Human: human, Assistant: assistant})
	h.trimLocked()
}

func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = nil
}

// Snapshot returns a copy of the stored turns, oldest first.
func (h *History) Snapshot() []Turn {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.turns) == 0 {
		return nil
	}
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Restore replaces the content, keeping only the newest pairs that fit.
func (h *History) Restore(turns []Turn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.turns = append([]Turn(nil), turns...)
	h.trimLocked()
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.turns)
}

// MessageCount is the number of stored messages, two per turn.
func (h *History) MessageCount() int {
	return h.Len() * 2
}

func (h *History) trimLocked() {
	limit := h.limit
	if limit <= 0 {
		limit = MaxTurns
	}
	if over := len(h.turns) - limit; over > 0 {
		kept := make([]Turn, limit)
		copy(kept, h.turns[over:])
		h.turns = kept
	}
}
