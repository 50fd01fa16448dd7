package engine

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/tatianab/kitchen-wars/internal/models"
)

//go:embed prompts/generate_event.txt
var generateEventPrompt string

var generateEventTmpl = template.Must(template.New("generate_event").Parse(generateEventPrompt))

// Generator turns a prompt into raw model text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ContentKind classifies a generation failure.
type ContentKind string

const (
	KindTimeout   ContentKind = "timeout"
	KindCanceled  ContentKind = "canceled"
	KindTransport ContentKind = "transport"
	KindMalformed ContentKind = "malformed"
	KindInvalid   ContentKind = "invalid"
)

// ContentError is a recoverable failure to produce a card.
type ContentError struct {
	Kind ContentKind
	Err  error
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("content %s: %v", e.Kind, e.Err)
}

func (e *ContentError) Unwrap() error {
	return e.Err
}

func kindFor(err error) ContentKind {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	default:
		return KindTransport
	}
}

// GenerativeSource asks a Generator for a card and validates the answer.
type GenerativeSource struct {
	gen  Generator
	pick interface{ IntN(int) int }
}

// NewGenerativeSource wraps gen. pick chooses the suggested event type.
func NewGenerativeSource(gen Generator, pick interface{ IntN(int) int }) *GenerativeSource {
	if pick == nil {
		pick = newPicker(nil)
	}
	return &GenerativeSource{gen: gen, pick: pick}
}

type eventPromptData struct {
	Day       int
	Phase     string
	Meters    models.MeterSet
	Tags      string
	Trend     string
	EventType string
	Crisis    bool
}

// Prompt renders the generation prompt for req.
func (g *GenerativeSource) Prompt(req Request) (string, error) {
	tags := make([]string, len(req.Tags))
	for i, t := range req.Tags {
		tags[i] = string(t)
	}
	data := eventPromptData{
		Day:       req.Day,
		Phase:     DayPhase(req.Day),
		Meters:    req.Meters,
		Tags:      strings.Join(tags, ", "),
		Trend:     ChoiceTrend(req.Recent),
		EventType: EventTypes[g.pick.IntN(len(EventTypes))],
		Crisis:    NeedsCrisis(req),
	}
	var buf bytes.Buffer
	if err := generateEventTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (g *GenerativeSource) Event(ctx context.Context, req Request) (models.EventCard, error) {
	prompt, err := g.Prompt(req)
	if err != nil {
		return models.EventCard{}, fmt.Errorf("rendering prompt: %w", err)
	}

	text, err := g.gen.Generate(ctx, prompt)
	if err != nil {
		return models.EventCard{}, &ContentError{Kind: kindFor(err), Err: err}
	}

	card, err := ParseEventCard(text)
	if err != nil {
		return models.EventCard{}, err
	}
	card.ID = req.Day + GeneratedIDBase
	card.Generated = true
	return card, nil
}

type generatedCard struct {
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	Category     models.Category    `json:"category"`
	LeftChoice   string             `json:"leftChoice"`
	RightChoice  string             `json:"rightChoice"`
	LeftEffects  models.EffectDelta `json:"leftEffects"`
	RightEffects models.EffectDelta `json:"rightEffects"`
	Rarity       models.Rarity      `json:"rarity"`
}

// ParseEventCard decodes generator output into a validated card. Markdown code
// fences around the JSON are ignored. Generated cards may not use the ending category.
func ParseEventCard(text string) (models.EventCard, error) {
	clean := stripFences(text)

	var raw generatedCard
	if err := json.Unmarshal([]byte(clean), &raw); err != nil {
		return models.EventCard{}, &ContentError{Kind: KindMalformed, Err: fmt.Errorf("decoding %q: %w", clean, err)}
	}
	if raw.Rarity == "" {
		raw.Rarity = models.RarityCommon
	}

	card := models.EventCard{
		Title:        strings.TrimSpace(raw.Title),
		Description:  strings.TrimSpace(raw.Description),
		Category:     raw.Category,
		LeftChoice:   strings.TrimSpace(raw.LeftChoice),
		RightChoice:  strings.TrimSpace(raw.RightChoice),
		LeftEffects:  raw.LeftEffects,
		RightEffects: raw.RightEffects,
		Rarity:       raw.Rarity,
	}
	if card.Category == models.CategoryEnding {
		return models.EventCard{}, &ContentError{Kind: KindInvalid, Err: fmt.Errorf("%w: generated card uses category ending", models.ErrValidation)}
	}
	if err := card.Validate(); err != nil {
		return models.EventCard{}, &ContentError{Kind: KindInvalid, Err: err}
	}
	return card, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
