package engine

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/tatianab/kitchen-wars/internal/game"
	"github.com/tatianab/kitchen-wars/internal/models"
)

const validCardJSON = `{
  "title": "后厨惊现量子炒锅",
  "description": "厨师老王声称发现了量子纠缠炒菜法，需要采购一台昂贵的量子发生器。",
  "category": "opportunity",
  "leftChoice": "支持创新，马上采购",
  "rightChoice": "炒菜归炒菜，别胡闹",
  "leftEffects": {"reputation": 6, "profit": -12},
  "rightEffects": {"staffMorale": -5, "profit": 3}
}`

type fakeGenerator struct {
	text    string
	err     error
	block   chan struct{}
	prompts []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.block != nil {
		<-f.block
	}
	return f.text, f.err
}

func newTestProvider(gen Generator, timeout time.Duration) *Provider {
	return NewProvider(Options{
		Events:  gen,
		Timeout: timeout,
		Rand:    rand.New(rand.NewPCG(1, 2)),
	})
}

func TestNextEventServesCatalogEarly(t *testing.T) {
	gen := &fakeGenerator{text: validCardJSON}
	p := newTestProvider(gen, time.Second)
	for day := 1; day <= AuthoredDays; day++ {
		ev := p.NextEvent(context.Background(), Request{Day: day, Seed: 9})
		if ev.Generated {
			t.Errorf("day %d: generated card served", day)
		}
		if want := game.InitialEvent(day, 9); ev.ID != want.ID || ev.Title != want.Title {
			t.Errorf("day %d: got %d %s, want %d %s", day, ev.ID, ev.Title, want.ID, want.Title)
		}
	}
	if len(gen.prompts) != 0 {
		t.Errorf("generator called %d times before day 4", len(gen.prompts))
	}
}

func TestNextEventOfflineUsesCatalog(t *testing.T) {
	p := NewProvider(Options{})
	if p.Online() {
		t.Fatal("provider without generator reports online")
	}
	ev := p.NextEvent(context.Background(), Request{Day: 40, Seed: 2})
	if ev.ID != 1040 || ev.Generated {
		t.Errorf("offline day 40 = %+v", ev)
	}
}

func TestNextEventGenerated(t *testing.T) {
	gen := &fakeGenerator{text: "```json\n" + validCardJSON + "\n```"}
	p := newTestProvider(gen, time.Second)

	ev := p.NextEvent(context.Background(), Request{Day: 4, Seed: 1, Meters: models.DefaultMeters()})
	if !ev.Generated || ev.ID != 4+GeneratedIDBase {
		t.Fatalf("expected generated card with id 2004, got %+v", ev)
	}
	if ev.Rarity != models.RarityCommon {
		t.Errorf("rarity = %q, want common default", ev.Rarity)
	}
	if ev.LeftEffects.Get(models.Profit) != -12 || ev.RightEffects.Reputation != nil {
		t.Errorf("effects decoded wrong: %+v / %+v", ev.LeftEffects, ev.RightEffects)
	}
	if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], "第4天") {
		t.Errorf("unexpected prompt: %v", gen.prompts)
	}
}

func TestNextEventFallsBack(t *testing.T) {
	tests := []struct {
		name string
		gen  *fakeGenerator
	}{
		{"transport error", &fakeGenerator{err: errors.New("connection reset")}},
		{"malformed json", &fakeGenerator{text: "sorry, I cannot help with that"}},
		{"effect out of range", &fakeGenerator{text: strings.Replace(validCardJSON, `"profit": -12`, `"profit": -80`, 1)}},
		{"ending category", &fakeGenerator{text: strings.Replace(validCardJSON, `"opportunity"`, `"ending"`, 1)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := newTestProvider(tc.gen, time.Second)
			ev := p.NextEvent(context.Background(), Request{Day: 12})
			if ev.ID != 12+DefaultIDBase || ev.Title != "平凡的一天" {
				t.Errorf("expected default card, got %+v", ev)
			}
			if err := ev.Validate(); err != nil {
				t.Errorf("default card invalid: %v", err)
			}
		})
	}
}

func TestNextEventTimeout(t *testing.T) {
	gen := &fakeGenerator{text: validCardJSON, block: make(chan struct{})}
	t.Cleanup(func() { close(gen.block) })
	p := newTestProvider(gen, 50*time.Millisecond)

	start := time.Now()
	ev := p.NextEvent(context.Background(), Request{Day: 5})
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("fallback took %v", elapsed)
	}
	if ev.ID != 5+DefaultIDBase {
		t.Errorf("expected default card after timeout, got %+v", ev)
	}
}

func TestFallbackReportsContentError(t *testing.T) {
	var got error
	fb := Fallback(NewGenerativeSource(&fakeGenerator{text: "{"}, nil), DefaultEvent)
	fb.OnError = func(_ Request, err error) { got = err }

	fb.NextEvent(context.Background(), Request{Day: 7})

	var ce *ContentError
	if !errors.As(got, &ce) || ce.Kind != KindMalformed {
		t.Errorf("expected malformed ContentError, got %v", got)
	}
}

func TestFallbackCanceled(t *testing.T) {
	gen := &fakeGenerator{text: validCardJSON, block: make(chan struct{})}
	t.Cleanup(func() { close(gen.block) })

	var got error
	fb := Fallback(NewGenerativeSource(gen, nil), DefaultEvent)
	fb.OnError = func(_ Request, err error) { got = err }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fb.NextEvent(ctx, Request{Day: 7})

	var ce *ContentError
	if !errors.As(got, &ce) || ce.Kind != KindCanceled {
		t.Errorf("expected canceled ContentError, got %v", got)
	}
}

func TestPreviewBypassesCatalog(t *testing.T) {
	p := newTestProvider(&fakeGenerator{text: validCardJSON}, time.Second)
	ev := p.Preview(context.Background(), Request{Day: 1, Meters: models.DefaultMeters()})
	if !ev.Generated {
		t.Errorf("preview served authored card %+v", ev)
	}
}

func TestRequestFor(t *testing.T) {
	s := models.NewSession("s", "p", 3, time.Now())
	for i := 0; i < 12; i++ {
		side := models.Left
		if i >= 10 {
			side = models.Right
		}
		s.History = append(s.History, models.ChoiceRecord{Day: i + 1, Side: side})
	}
	s.Day = 13
	req := RequestFor(s)
	if len(req.Recent) != RecentSides || req.Recent[RecentSides-1] != models.Right || req.Day != 13 {
		t.Errorf("unexpected request %+v", req)
	}
}
