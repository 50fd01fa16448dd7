package game

import (
	"testing"

	"github.com/tatianab/kitchen-wars/internal/models"
)

func TestEvaluatePriority(t *testing.T) {
	tests := []struct {
		name   string
		meters models.MeterSet
		want   string
	}{
		{"all inside", models.MeterSet{Reputation: 1, Profit: 99, CustomerFlow: 50, StaffMorale: 50}, ""},
		{"reputation before profit", models.MeterSet{Reputation: 0, Profit: 0, CustomerFlow: 50, StaffMorale: 50}, "reputation_zero"},
		{"reputation max", models.MeterSet{Reputation: 100, Profit: 50, CustomerFlow: 50, StaffMorale: 50}, "reputation_max"},
		{"profit zero", models.MeterSet{Reputation: 50, Profit: 0, CustomerFlow: 50, StaffMorale: 50}, "profit_zero"},
		{"profit before customers", models.MeterSet{Reputation: 50, Profit: 100, CustomerFlow: 0, StaffMorale: 50}, "profit_max"},
		{"customer zero", models.MeterSet{Reputation: 50, Profit: 50, CustomerFlow: 0, StaffMorale: 50}, "customer_zero"},
		{"customer max", models.MeterSet{Reputation: 50, Profit: 50, CustomerFlow: 100, StaffMorale: 0}, "customer_max"},
		{"staff zero", models.MeterSet{Reputation: 50, Profit: 50, CustomerFlow: 50, StaffMorale: 0}, "staff_zero"},
		{"staff max", models.MeterSet{Reputation: 50, Profit: 50, CustomerFlow: 50, StaffMorale: 100}, "staff_max"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ending, ok := Evaluate(tc.meters)
			if tc.want == "" {
				if ok {
					t.Fatalf("expected no ending, got %s", ending.ID)
				}
				return
			}
			if !ok || ending.ID != tc.want {
				t.Errorf("Evaluate = %q (%v), want %q", ending.ID, ok, tc.want)
			}
		})
	}
}

func TestEndingsTable(t *testing.T) {
	endings := Endings()
	if len(endings) != 8 {
		t.Fatalf("expected 8 endings, got %d", len(endings))
	}
	e, ok := EndingByID("profit_zero")
	if !ok || e.Title != "资金链断裂" {
		t.Errorf("EndingByID(profit_zero) = %+v, %v", e, ok)
	}
	if _, ok := EndingByID("nope"); ok {
		t.Error("unknown ending id resolved")
	}
}
