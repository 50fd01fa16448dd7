package engine

import (
	"testing"

	"github.com/tatianab/kitchen-wars/internal/models"
)

func sides(s string) []models.Side {
	out := make([]models.Side, len(s))
	for i, c := range s {
		if c == 'L' {
			out[i] = models.Left
		} else {
			out[i] = models.Right
		}
	}
	return out
}

func TestNeedsCrisis(t *testing.T) {
	calm := models.DefaultMeters()
	tests := []struct {
		name string
		req  Request
		want bool
	}{
		{"calm", Request{Day: 4, Meters: calm, Recent: sides("LRLR")}, false},
		{"low meter", Request{Day: 4, Meters: models.MeterSet{Reputation: 19, Profit: 50, CustomerFlow: 50, StaffMorale: 50}}, true},
		{"high meter", Request{Day: 4, Meters: models.MeterSet{Reputation: 50, Profit: 50, CustomerFlow: 81, StaffMorale: 50}}, true},
		{"boundary meters", Request{Day: 4, Meters: models.MeterSet{Reputation: 20, Profit: 80, CustomerFlow: 50, StaffMorale: 50}}, false},
		{"every fifteenth day", Request{Day: 30, Meters: calm}, true},
		{"unanimous streak", Request{Day: 8, Meters: calm, Recent: sides("LRRRRR")}, true},
		{"short streak", Request{Day: 8, Meters: calm, Recent: sides("RRRR")}, false},
		{"broken streak", Request{Day: 8, Meters: calm, Recent: sides("RRRLR")}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NeedsCrisis(tc.req); got != tc.want {
				t.Errorf("NeedsCrisis = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDayPhase(t *testing.T) {
	cases := map[int]string{1: "新手期", 7: "新手期", 8: "成长期", 30: "成长期", 31: "稳定期", 100: "稳定期", 101: "传奇期"}
	for day, want := range cases {
		if got := DayPhase(day); got != want {
			t.Errorf("DayPhase(%d) = %s, want %s", day, got, want)
		}
	}
}

func TestChoiceTrend(t *testing.T) {
	cases := map[string]string{
		"":      "暂无数据",
		"LLR":   "偏向保守/口碑导向",
		"LLLRR": "选择较为均衡",
		"RRL":   "偏向激进/利润导向",
		"L":     "偏向保守/口碑导向",
		"LR":    "选择较为均衡",
	}
	for in, want := range cases {
		if got := ChoiceTrend(sides(in)); got != want {
			t.Errorf("ChoiceTrend(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestDefaultCommentary(t *testing.T) {
	high := DefaultCommentary(models.MeterSet{Reputation: 70, Profit: 70, CustomerFlow: 70, StaffMorale: 70})
	mid := DefaultCommentary(models.DefaultMeters())
	low := DefaultCommentary(models.MeterSet{Reputation: 0, Profit: 49, CustomerFlow: 50, StaffMorale: 50})
	if high == mid || mid == low || high == low {
		t.Errorf("expected three distinct tiers: %q %q %q", high, mid, low)
	}
}
