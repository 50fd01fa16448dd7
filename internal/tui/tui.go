// Package tui is the terminal front end. It drives the same session service the HTTP
// server uses.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tatianab/kitchen-wars/internal/game"
	"github.com/tatianab/kitchen-wars/internal/models"
	"github.com/tatianab/kitchen-wars/internal/service"
)

type sessionState int

const (
	stateLoading sessionState = iota
	statePlaying
	stateEnded
	stateError
)

const barWidth = 20

var meterLabels = map[models.Meter]string{
	models.Reputation:   "口碑",
	models.Profit:       "利润",
	models.CustomerFlow: "客流",
	models.StaffMorale:  "员工",
}

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			Underline(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5F5F87")).
			Padding(0, 1).
			Width(56)

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEEEEE")).
			Background(lipgloss.Color("#5F5F87")).
			Bold(true).
			Padding(0, 1)

	statsStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2).
			Foreground(lipgloss.Color("#AAAAAA"))

	dangerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#87D787"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)
)

type model struct {
	ctx       context.Context
	svc       *service.Service
	playerID  string
	sessionID string

	state      sessionState
	current    *service.State
	ending     *models.Ending
	commentary string
	share      string
	err        error

	spinner  spinner.Model
	viewport viewport.Model
	gameLog  []string
	width    int
	height   int
}

// NewModel builds the TUI model. An empty sessionID starts a new session for playerID.
func NewModel(ctx context.Context, svc *service.Service, playerID, sessionID string) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return model{
		ctx:       ctx,
		svc:       svc,
		playerID:  playerID,
		sessionID: sessionID,
		state:     stateLoading,
		spinner:   sp,
		viewport:  viewport.New(60, 8),
	}
}

type stateMsg struct {
	state *service.State
}

type choiceMsg struct {
	card   models.EventCard
	side   models.Side
	result *service.ChoiceResult
}

type endingMsg struct {
	commentary string
	share      string
}

type errMsg struct {
	err error
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.start())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			return m, tea.Quit
		case "left", "a":
			return m.choose(models.Left)
		case "right", "d":
			return m.choose(models.Right)
		case "r":
			if m.state == statePlaying || m.state == stateEnded {
				m.state = stateLoading
				m.gameLog = nil
				m.ending = nil
				m.commentary = ""
				m.share = ""
				m.refreshLog()
				return m, m.restart()
			}
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = max(msg.Width-4, 20)
		m.viewport.Height = max(msg.Height-24, 4)
		m.refreshLog()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case stateMsg:
		m.current = msg.state
		m.sessionID = msg.state.Session.ID
		if msg.state.Session.Status == models.StatusEnded {
			if m.ending == nil {
				if e, ok := game.EndingByID(msg.state.Session.EndingID); ok {
					m.ending = &e
				}
			}
			m.state = stateEnded
			return m, m.finish()
		}
		m.state = statePlaying
		return m, nil

	case choiceMsg:
		m.gameLog = append(m.gameLog, describeChoice(msg.card, msg.side, msg.result))
		m.refreshLog()
		m.ending = msg.result.Ending
		return m, m.load()

	case endingMsg:
		m.commentary = msg.commentary
		m.share = msg.share
		return m, nil

	case errMsg:
		m.err = msg.err
		m.state = stateError
		return m, nil
	}
	return m, nil
}

func (m model) choose(side models.Side) (tea.Model, tea.Cmd) {
	if m.state != statePlaying || m.current == nil || m.current.CurrentEvent == nil {
		return m, nil
	}
	card := *m.current.CurrentEvent
	m.state = stateLoading
	id := m.sessionID
	return m, func() tea.Msg {
		res, err := m.svc.ResolveChoice(m.ctx, id, side, &card.ID)
		if err != nil {
			return errMsg{err}
		}
		return choiceMsg{card: card, side: side, result: res}
	}
}

func (m *model) refreshLog() {
	m.viewport.SetContent(strings.Join(m.gameLog, "\n"))
	m.viewport.GotoBottom()
}

func (m model) start() tea.Cmd {
	if m.sessionID != "" {
		return m.load()
	}
	return func() tea.Msg {
		sess, err := m.svc.CreateSession(m.ctx, m.playerID)
		if err != nil {
			return errMsg{err}
		}
		state, err := m.svc.GetState(m.ctx, sess.ID)
		if err != nil {
			return errMsg{err}
		}
		return stateMsg{state}
	}
}

func (m model) load() tea.Cmd {
	id := m.sessionID
	return func() tea.Msg {
		state, err := m.svc.GetState(m.ctx, id)
		if err != nil {
			return errMsg{err}
		}
		return stateMsg{state}
	}
}

func (m model) restart() tea.Cmd {
	id := m.sessionID
	return func() tea.Msg {
		if _, err := m.svc.Restart(m.ctx, id); err != nil {
			return errMsg{err}
		}
		state, err := m.svc.GetState(m.ctx, id)
		if err != nil {
			return errMsg{err}
		}
		return stateMsg{state}
	}
}

func (m model) finish() tea.Cmd {
	id := m.sessionID
	return func() tea.Msg {
		commentary, err := m.svc.Commentary(m.ctx, id)
		if err != nil {
			return errMsg{err}
		}
		share, err := m.svc.ShareText(m.ctx, id)
		if err != nil {
			return errMsg{err}
		}
		return endingMsg{commentary: commentary, share: share}
	}
}

func (m model) View() string {
	var s string

	switch m.state {
	case stateLoading:
		s = fmt.Sprintf("\n  %s 后厨忙碌中...\n", m.spinner.View())

	case statePlaying:
		sess := m.current.Session
		header := titleStyle.Render(fmt.Sprintf("后厨风云 · 第%d天", sess.Day))
		if m.current.NextEventHint != "" {
			header += "  " + helpStyle.Render(m.current.NextEventHint)
		}
		content := lipgloss.JoinHorizontal(lipgloss.Top,
			renderCard(m.current.CurrentEvent),
			statsStyle.Render(renderMeters(sess.Meters)+"\n"+renderTags(sess.Tags)),
		)
		help := helpStyle.Render("←/a 左  →/d 右  r 重新开始  q 退出")
		s = lipgloss.JoinVertical(lipgloss.Left, header, "", content, "", m.viewport.View(), "", help)

	case stateEnded:
		sess := m.current.Session
		title := titleStyle.Render("结局：" + sess.EndingTitle)
		var body strings.Builder
		if m.ending != nil {
			body.WriteString(m.ending.Description + "\n\n")
		}
		body.WriteString(renderMeters(sess.Meters) + "\n")
		if m.commentary != "" {
			body.WriteString(m.commentary + "\n\n")
		}
		if m.share != "" {
			body.WriteString(helpStyle.Render(m.share) + "\n")
		}
		help := helpStyle.Render("r 再来一局  q 退出")
		s = lipgloss.JoinVertical(lipgloss.Left, title, "", body.String(), m.viewport.View(), "", help)

	case stateError:
		s = fmt.Sprintf("\n  Error: %v\n\nPress q to quit.", m.err)
	}

	return "\n" + s + "\n"
}

func renderCard(ev *models.EventCard) string {
	if ev == nil {
		return cardStyle.Render("(没有待处理的事件)")
	}
	tag := ""
	if ev.Generated {
		tag = helpStyle.Render(" ✦")
	}
	body := titleStyle.Render(ev.Title) + tag + "\n\n" + ev.Description + "\n\n" +
		choiceStyle.Render("← "+ev.LeftChoice) + "  " + choiceStyle.Render(ev.RightChoice+" →")
	return cardStyle.Render(body)
}

func renderMeters(ms models.MeterSet) string {
	var b strings.Builder
	for _, meter := range models.Meters {
		fmt.Fprintf(&b, "%s %s %3d\n", meterLabels[meter], meterBar(ms.Get(meter)), ms.Get(meter))
	}
	return b.String()
}

// meterBar draws v (0..100) as a fixed-width bar, red near either extreme.
func meterBar(v int) string {
	filled := v * barWidth / models.MeterMax
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	if v <= 15 || v >= 85 {
		return dangerStyle.Render(bar)
	}
	return okStyle.Render(bar)
}

func renderTags(tags []models.PlayerTag) string {
	if len(tags) == 0 {
		return "标签：无"
	}
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = string(t)
	}
	return "标签：" + strings.Join(names, ", ")
}

func describeChoice(card models.EventCard, side models.Side, res *service.ChoiceResult) string {
	label := card.LeftChoice
	if side == models.Right {
		label = card.RightChoice
	}
	var effects []string
	for _, meter := range models.Meters {
		if v := res.EffectsApplied.Get(meter); v != 0 {
			effects = append(effects, fmt.Sprintf("%s%+d", meterLabels[meter], v))
		}
	}
	line := fmt.Sprintf("第%d天 「%s」→ %s", res.NewDay-1, card.Title, label)
	if len(effects) > 0 {
		line += " (" + strings.Join(effects, " ") + ")"
	}
	return line
}

// Run plays until the user quits.
func Run(ctx context.Context, svc *service.Service, playerID, sessionID string) error {
	p := tea.NewProgram(NewModel(ctx, svc, playerID, sessionID), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
