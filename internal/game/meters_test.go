package game

import (
	"testing"

	"github.com/tatianab/kitchen-wars/internal/models"
)

func TestClamp(t *testing.T) {
	for v := -200; v <= 200; v++ {
		got := Clamp(v)
		if got < 0 || got > 100 {
			t.Fatalf("Clamp(%d) = %d, outside [0,100]", v, got)
		}
		if v >= 0 && v <= 100 && got != v {
			t.Fatalf("Clamp(%d) = %d, want identity inside range", v, got)
		}
	}
}

func TestApplyDeltaLeavesAbsentMeters(t *testing.T) {
	before := models.MeterSet{Reputation: 95, Profit: 3, CustomerFlow: 40, StaffMorale: 60}
	d := models.Delta(map[models.Meter]int{models.Reputation: 20, models.Profit: -10})

	after := ApplyDelta(before, d)
	want := models.MeterSet{Reputation: 100, Profit: 0, CustomerFlow: 40, StaffMorale: 60}
	if after != want {
		t.Errorf("ApplyDelta = %+v, want %+v", after, want)
	}
	if before.Reputation != 95 {
		t.Errorf("input snapshot was modified: %+v", before)
	}
}
