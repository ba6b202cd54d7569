package ratelimit

import "testing"

func TestBudgetLimit(t *testing.T) {
	b := NewBudget(2, nil)

	if !b.TryAcquire() || !b.TryAcquire() {
		t.Fatal("first two acquisitions should succeed")
	}
	if b.TryAcquire() {
		t.Error("third acquisition should fail")
	}
	if got := b.Used(); got != 2 {
		t.Errorf("Used() = %d, want 2", got)
	}
}

func TestBudgetUnlimited(t *testing.T) {
	b := NewBudget(0, nil)
	for i := 0; i < 100; i++ {
		if !b.TryAcquire() {
			t.Fatalf("acquisition %d failed with no limit", i)
		}
	}
}
