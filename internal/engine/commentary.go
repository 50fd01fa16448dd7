package engine

import (
	"bytes"
	"context"
	_ "embed"
	"strings"
	"text/template"

	"github.com/tatianab/kitchen-wars/internal/game"
	"github.com/tatianab/kitchen-wars/internal/models"
)

//go:embed prompts/commentary.txt
var commentaryPrompt string

var commentaryTmpl = template.Must(template.New("commentary").Parse(commentaryPrompt))

// Commentary returns a short evaluation of a run. Without a generator, or when the
// generator fails, a canned line keyed on the average meter is returned.
func (p *Provider) Commentary(ctx context.Context, s models.Session) string {
	if p.commentary == nil {
		return DefaultCommentary(s.Meters)
	}

	data := struct {
		Days   int
		Meters models.MeterSet
		Ending string
		Style  string
		Trend  string
		Counts styleCounts
	}{
		Days:   game.SurvivalDays(s),
		Meters: s.Meters,
		Ending: s.EndingTitle,
		Trend:  ChoiceTrend(s.Sides()),
		Counts: countStyles(s.History),
	}
	data.Style = data.Counts.Dominant()

	var buf bytes.Buffer
	if err := commentaryTmpl.Execute(&buf, data); err != nil {
		p.log.Error("rendering commentary prompt: %v", err)
		return DefaultCommentary(s.Meters)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	text, err := p.commentary.Generate(ctx, buf.String())
	if err != nil {
		p.log.Warn("commentary for session %s failed: %v", s.ID, err)
		return DefaultCommentary(s.Meters)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return DefaultCommentary(s.Meters)
	}
	return text
}

// DefaultCommentary picks a canned evaluation from the average of the four meters.
func DefaultCommentary(m models.MeterSet) string {
	sum := m.Reputation + m.Profit + m.CustomerFlow + m.StaffMorale
	switch {
	case sum >= 70*4:
		return "经营有方！各项数据都很漂亮，再这么干下去，米其林指南该来敲门了。"
	case sum >= 50*4:
		return "中规中矩，没什么亮点也没踩大坑。下次不妨大胆一点，富贵险中求。"
	default:
		return "emmm……这家店的状况有点堪忧。别灰心，复盘一下每次取舍，重开再战。"
	}
}
