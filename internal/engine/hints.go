package engine

import "github.com/tatianab/kitchen-wars/internal/models"

// EventTypes are the themes suggested to the generator, one per request.
var EventTypes = []string{
	"食品安全事件", "员工管理问题", "网络舆论危机", "供应链问题",
	"竞争对手挑战", "政策法规变化", "顾客投诉纠纷", "媒体采访报道",
	"节日营销机会", "设备故障维修", "新菜品研发", "租金成本压力",
	"网红合作邀请", "环保监督检查", "税务稽查审计", "员工培训需求",
}

const (
	crisisLow    = 20
	crisisHigh   = 80
	crisisPeriod = 15
	streakLength = 5
)

// NeedsCrisis reports whether the generator should be nudged towards a crisis.
// It is a prompt hint only.
func NeedsCrisis(req Request) bool {
	for _, m := range models.Meters {
		if v := req.Meters.Get(m); v < crisisLow || v > crisisHigh {
			return true
		}
	}
	if req.Day%crisisPeriod == 0 {
		return true
	}
	if len(req.Recent) < streakLength {
		return false
	}
	last := req.Recent[len(req.Recent)-streakLength:]
	for _, s := range last[1:] {
		if s != last[0] {
			return false
		}
	}
	return true
}

// DayPhase names the stage of a run.
func DayPhase(day int) string {
	switch {
	case day <= 7:
		return "新手期"
	case day <= 30:
		return "成长期"
	case day <= 100:
		return "稳定期"
	default:
		return "传奇期"
	}
}

// ChoiceTrend summarises which way the player has been swiping.
func ChoiceTrend(sides []models.Side) string {
	if len(sides) == 0 {
		return "暂无数据"
	}
	left := 0
	for _, s := range sides {
		if s == models.Left {
			left++
		}
	}
	right := len(sides) - left
	// 2x on both sides keeps the 1.5 ratio in integers.
	switch {
	case left*2 > right*3:
		return "偏向保守/口碑导向"
	case right*2 > left*3:
		return "偏向激进/利润导向"
	default:
		return "选择较为均衡"
	}
}

type styleCounts struct {
	Profit, Reputation, Balanced int
}

func countStyles(history []models.ChoiceRecord) styleCounts {
	var c styleCounts
	for _, rec := range history {
		p, r := rec.Effects.Get(models.Profit), rec.Effects.Get(models.Reputation)
		switch {
		case p > r:
			c.Profit++
		case r > p:
			c.Reputation++
		default:
			c.Balanced++
		}
	}
	return c
}

func (c styleCounts) Dominant() string {
	switch {
	case c.Profit > c.Reputation:
		return "利润导向"
	case c.Reputation > c.Profit:
		return "口碑导向"
	default:
		return "平衡发展"
	}
}
