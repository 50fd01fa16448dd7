package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tatianab/kitchen-wars/internal/models"
)

func endedSession() models.Session {
	s := models.NewSession("s1", "p1", 1, time.Now())
	s.History = []models.ChoiceRecord{
		{Day: 1, Side: models.Right, Effects: models.Delta(map[models.Meter]int{models.Profit: 8})},
		{Day: 2, Side: models.Right, Effects: models.Delta(map[models.Meter]int{models.Profit: 6, models.Reputation: -4})},
	}
	s.Meters = models.MeterSet{Reputation: 30, Profit: 100, CustomerFlow: 40, StaffMorale: 35}
	s.Day = 3
	s.Status = models.StatusEnded
	s.EndingTitle = "为富不仁"
	return s
}

func TestCommentaryUsesGenerator(t *testing.T) {
	gen := &fakeGenerator{text: "  利润拉满，口碑见底，税务局已经在路上了。  "}
	p := NewProvider(Options{Commentary: gen, Timeout: time.Second})

	got := p.Commentary(context.Background(), endedSession())
	if got != "利润拉满，口碑见底，税务局已经在路上了。" {
		t.Errorf("Commentary = %q", got)
	}
	prompt := gen.prompts[0]
	for _, want := range []string{"经营天数: 2天", "为富不仁", "利润导向", "利润导向选择: 2次"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestCommentaryFallsBack(t *testing.T) {
	s := endedSession()
	want := DefaultCommentary(s.Meters)

	p := NewProvider(Options{Commentary: &fakeGenerator{err: errors.New("quota")}, Timeout: time.Second})
	if got := p.Commentary(context.Background(), s); got != want {
		t.Errorf("Commentary on error = %q, want %q", got, want)
	}
	if got := NewProvider(Options{}).Commentary(context.Background(), s); got != want {
		t.Errorf("offline Commentary = %q, want %q", got, want)
	}
}
