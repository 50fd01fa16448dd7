package game

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tatianab/kitchen-wars/internal/models"
)

// SurvivalDays is the number of days the restaurant was run. The day counter
// advances once per resolved choice, so history need not be loaded.
func SurvivalDays(s models.Session) int {
	if s.Day <= 1 {
		return 0
	}
	return s.Day - 1
}

// ShareText renders the line a player posts about a run.
func ShareText(s models.Session) string {
	days := SurvivalDays(s)
	m := s.Meters
	stats := fmt.Sprintf("口碑%d 利润%d 客流%d 员工%d", m.Reputation, m.Profit, m.CustomerFlow, m.StaffMorale)

	if s.Status != models.StatusEnded {
		return fmt.Sprintf("《后厨风云》第%d天，我的餐厅还在营业：%s", s.Day, stats)
	}
	ending, ok := EndingByID(s.EndingID)
	if !ok {
		return fmt.Sprintf("《后厨风云》我经营餐厅%d天，最终结局「%s」。%s", days, s.EndingTitle, stats)
	}
	line := strings.ReplaceAll(ending.ShareTemplate, "{{days}}", strconv.Itoa(days))
	return fmt.Sprintf("《后厨风云》结局「%s」：%s %s", ending.Title, line, stats)
}
