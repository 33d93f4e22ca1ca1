package pipeline

import (
	"sync"
	"testing"
)

func TestOpenContextsNeverCollide(t *testing.T) {
	mgr := NewContextManager()
	const n = 100
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- mgr.Open().ID()
		}()
	}
	wg.Wait()
	close(ids)
	seen := make(map[string]bool, n)
	for id := range ids {
		if id == "" {
			t.Fatalf("empty run id issued")
		}
		if seen[id] {
			t.Fatalf("duplicate run id issued: %s", id)
		}
		seen[id] = true
	}
}

func TestContextStateIsolation(t *testing.T) {
	mgr := NewContextManager()
	a := mgr.Open()
	b := mgr.Open()

	a.setResult(RoleAnalyst, StageResult{Role: RoleAnalyst, Text: "from A", Succeeded: true})

	if _, ok := b.result(RoleAnalyst); ok {
		t.Fatalf("result written under context A is visible in context B")
	}
	if res, ok := a.result(RoleAnalyst); !ok || res.Text != "from A" {
		t.Fatalf("context A lost its own result: %+v ok=%v", res, ok)
	}
}

func TestSnapshotPreservesCompletionOrder(t *testing.T) {
	mgr := NewContextManager()
	rc := mgr.Open()
	rc.setResult(RoleCritic, StageResult{Role: RoleCritic, Succeeded: true})
	rc.setResult(RoleAnalyst, StageResult{Role: RoleAnalyst, Succeeded: true})

	snap := rc.snapshot()
	if len(snap) != 2 || snap[0].Role != RoleCritic || snap[1].Role != RoleAnalyst {
		t.Fatalf("snapshot order does not match completion order: %+v", snap)
	}
}

func TestClosedContextFailsFast(t *testing.T) {
	mgr := NewContextManager()
	rc := mgr.Open()
	mgr.Close(rc)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on write to closed context")
		}
	}()
	rc.setResult(RoleAnalyst, StageResult{Role: RoleAnalyst})
}

func TestDuplicateWriteFailsFast(t *testing.T) {
	rc := NewContextManager().Open()
	rc.setResult(RoleAnalyst, StageResult{Role: RoleAnalyst})

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on duplicate role write")
		}
	}()
	rc.setResult(RoleAnalyst, StageResult{Role: RoleAnalyst})
}
