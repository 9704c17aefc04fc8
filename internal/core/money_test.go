package core_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"zenith-fieldservice/internal/core"
)

func TestRoundMoney_HalfUp(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0.105", "0.11"},
		{"0.104", "0.1"},
		{"0.115", "0.12"},
		{"2.675", "2.68"},
		{"1.005", "1.01"},
		{"10", "10"},
		{"0.3149", "0.31"},
	}
	for _, tt := range tests {
		got := core.RoundMoney(decimal.RequireFromString(tt.in))
		if got.String() != tt.want {
			t.Errorf("RoundMoney(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

// Each line amount is rounded independently: 3 lines of 0.105 each round to
// 0.11, so the total is 0.33 minus the one-line product. A single line of
// quantity 3 at 0.105 rounds the product once: 0.315 → 0.32.
func TestLineAmount_RoundsProductOnce(t *testing.T) {
	qty := decimal.NewFromInt(3)
	unitCost := decimal.RequireFromString("0.105")

	got := core.LineAmount(qty, unitCost)
	if got.String() != "0.32" {
		t.Errorf("LineAmount(3, 0.105) = %s, want 0.32", got)
	}

	perLine := core.LineAmount(decimal.NewFromInt(1), unitCost)
	three := perLine.Add(perLine).Add(perLine)
	if three.String() != "0.33" {
		t.Errorf("three independently rounded lines = %s, want 0.33", three)
	}
}

func TestClassifyAllocation(t *testing.T) {
	total := decimal.RequireFromString("100.00")

	tests := []struct {
		name      string
		allocated string
		want      core.AllocationTag
	}{
		{"nothing allocated", "0", core.TagUnallocated},
		{"partial", "40.00", core.TagPartiallyAllocated},
		{"just under epsilon window", "99.994", core.TagPartiallyAllocated},
		{"within epsilon below total", "99.995", core.TagAllocated},
		{"exact", "100.00", core.TagAllocated},
		{"within epsilon above total", "100.004", core.TagAllocated},
		{"just over epsilon", "100.006", core.TagOverAllocated},
		{"clearly over", "105.00", core.TagOverAllocated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := core.ClassifyAllocation(total, decimal.RequireFromString(tt.allocated))
			if got != tt.want {
				t.Errorf("ClassifyAllocation(100.00, %s) = %s, want %s", tt.allocated, got, tt.want)
			}
		})
	}
}

// Nothing allocated is UNALLOCATED even when the total is zero: the epsilon
// window around the total must not swallow the zero case.
func TestClassifyAllocation_ZeroTotal(t *testing.T) {
	got := core.ClassifyAllocation(decimal.Zero, decimal.Zero)
	if got != core.TagUnallocated {
		t.Errorf("ClassifyAllocation(0, 0) = %s, want %s", got, core.TagUnallocated)
	}
}
