package state

import (
	"fmt"
	"sync"
	"testing"
)

func TestHistoryCapEvictsOldestFirst(t *testing.T) {
	t.Parallel()

	h := NewHistory()
	for i := 0; i < 25; i++ {
		h.Append(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
		if h.MessageCount() > 2*MaxTurns {
			t.Fatalf("history exceeded cap: %d messages", h.MessageCount())
		}
	}

	snap := h.Snapshot()
	if len(snap) != MaxTurns {
		t.Fatalf("expected %d turns, got %d", MaxTurns, len(snap))
	}
	if snap[0].Human != "q15" || snap[len(snap)-1].Human != "q24" {
		t.Fatalf("unexpected window: first=%s last=%s", snap[0].Human, snap[len(snap)-1].Human)
	}
}

func TestHistoryAppendThenClear(t *testing.T) {
	t.Parallel()

	h := NewHistory()
	h.Clear()
	if h.Len() != 0 {
		t.Fatal("clear on empty history must be a no-op")
	}

	h.Append("hi", "hello")
	h.Clear()
	if h.Len() != 0 || h.Snapshot() != nil {
		t.Fatal("history must be empty after clear")
	}
	h.Clear()
	if h.Len() != 0 {
		t.Fatal("clear must be idempotent")
	}
}

func TestHistorySnapshotIsACopy(t *testing.T) {
	t.Parallel()

	h := NewHistory()
	h.Append("q", "a")

	snap := h.Snapshot()
	snap[0].Human = "mutated"
	if h.Snapshot()[0].Human != "q" {
		t.Fatal("snapshot must not alias internal storage")
	}
}

func TestHistoryRestoreTrims(t *testing.T) {
	t.Parallel()

	turns := make([]Turn, 14)
	for i := range turns {
		turns[i] = Turn{Human: fmt.Sprintf("q%d", i), Assistant: "a"}
	}

	h := NewHistory()
	h.Restore(turns)
	snap := h.Snapshot()
	if len(snap) != MaxTurns || snap[0].Human != "q4" {
		t.Fatalf("unexpected restored window: %d first=%s", len(snap), snap[0].Human)
	}
}

func TestHistoryConcurrentAppend(t *testing.T) {
	t.Parallel()

	h := NewHistory()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h.Append(fmt.Sprintf("q%d", i), "a")
		}(i)
	}
	wg.Wait()

	if h.Len() != MaxTurns {
		t.Fatalf("expected %d turns, got %d", MaxTurns, h.Len())
	}
	for _, turn := range h.Snapshot() {
		if turn.Assistant != "a" {
			t.Fatalf("torn turn: %#v", turn)
		}
	}
}
