package task

import (
	"context"
	"sync"
	"testing"
	"time"

	"agentcoord.dev/agent"
)

func TestSetResultFiresLatchOnce(t *testing.T) {
	tk := New("a", "prompt", agent.RoleString("worker"))

	var wg sync.WaitGroup
	results := make([]string, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _ := tk.Wait(context.Background(), 0)
			results[i] = v
		}(i)
	}

	tk.SetResult("done")
	tk.SetResult("done-again") // must be a no-op

	wg.Wait()
	for i, v := range results {
		if v != "done" {
			t.Fatalf("waiter %d observed %q; want %q", i, v, "done")
		}
	}
}

func TestResultBeforeLatchIsAbsent(t *testing.T) {
	tk := New("a", "p", agent.RoleString("x"))
	if v, ok := tk.Result(); ok {
		t.Fatalf("Result() before SetResult = %q, true; want _, false", v)
	}
}

func TestWaitTimesOut(t *testing.T) {
	tk := New("a", "p", agent.RoleString("x"))
	v, ok := tk.Wait(context.Background(), 10*time.Millisecond)
	if ok {
		t.Fatalf("Wait timed out but reported ok=true, value %q", v)
	}
}

func TestRoleExtraction(t *testing.T) {
	tk := New("a", "p", agent.RoleString("planner"))
	if got := tk.Role(); got != "planner" {
		t.Fatalf("Role() = %q; want planner", got)
	}

	tk2 := New("b", "p", nil)
	if got := tk2.Role(); got != "" {
		t.Fatalf("Role() with nil agent = %q; want empty", got)
	}
}
