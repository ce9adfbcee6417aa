// Package tui is the interactive terminal player.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/example/tokenreplay/internal/playback"
	"github.com/example/tokenreplay/internal/present"
	"github.com/example/tokenreplay/internal/stream"
)

// stripRow is the screen row of the token strip; mouse clicks on it seek.
const stripRow = 2

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	revealedStyle = lipgloss.NewStyle().Background(lipgloss.Color("6")).Foreground(lipgloss.Color("0"))
	latestStyle   = lipgloss.NewStyle().Background(lipgloss.Color("3")).Foreground(lipgloss.Color("0")).Bold(true)
	hiddenStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

type tickMsg struct {
	tick playback.Tick
}

type sharedMsg struct {
	url string
	err error
}

// scheduler turns controller ticks into tea commands. The controller only
// schedules from inside Update, so at most one command is pending per call.
type scheduler struct {
	pending tea.Cmd
}

func (s *scheduler) Schedule(d time.Duration, t playback.Tick) {
	s.pending = tea.Tick(d, func(time.Time) tea.Msg { return tickMsg{tick: t} })
}

func (s *scheduler) take() tea.Cmd {
	cmd := s.pending
	s.pending = nil

	return cmd
}

// Options configures the player model.
type Options struct {
	Title    string
	Speed    playback.Speed
	Autoplay bool
	// ShareLink builds the share URL for the current document.
	ShareLink func(text string) (string, error)
	// Copy sends text to the clipboard.
	Copy func(text string)
}

// Model is the bubbletea model of the player.
type Model struct {
	ctrl  *playback.Controller
	sched *scheduler
	opts  Options
	keys  keyMap
	help  help.Model
	prog  progress.Model

	tokens []present.Token
	docGen uint64

	width  int
	height int
	notice string
	failed bool
}

// New builds a player over index. The index must not be used elsewhere while
// the program runs.
func New(index *stream.Index, opts Options) *Model {
	sched := &scheduler{}
	ctrl := playback.NewController(index, sched)
	ctrl.SetSpeed(opts.Speed)

	if opts.Title == "" {
		opts.Title = "tokenreplay"
	}

	prog := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	prog.Width = 76

	m := &Model{
		ctrl:   ctrl,
		sched:  sched,
		opts:   opts,
		keys:   defaultKeyMap(),
		help:   help.New(),
		prog:   prog,
		width:  80,
		height: 24,
	}
	m.refreshTokens()

	return m
}

// Controller exposes the playback state, mostly for tests.
func (m *Model) Controller() *playback.Controller { return m.ctrl }

func (m *Model) Init() tea.Cmd {
	if m.opts.Autoplay {
		m.ctrl.Play()
	}

	return m.sched.take()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = max(msg.Width-4, 10)
			m.help.Width = msg.Width
		}
		if msg.Height > 0 {
			m.height = msg.Height
		}
		return m, nil
	case tickMsg:
		m.ctrl.Tick(msg.tick)
		return m, m.sched.take()
	case sharedMsg:
		if msg.err != nil {
			m.notice = "share failed: " + msg.err.Error()
			m.failed = true
		} else {
			m.notice = "copied " + msg.url
			m.failed = false
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && msg.Y == stripRow {
			if i, ok := hitCell(m.strip(), msg.X); ok {
				m.ctrl.SeekToken(i)
			}
		}
		return m, m.sched.take()
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Toggle):
		m.ctrl.Toggle()
	case key.Matches(msg, m.keys.Forward):
		m.ctrl.StepForward()
	case key.Matches(msg, m.keys.Back):
		m.ctrl.StepBack()
	case key.Matches(msg, m.keys.Start):
		m.ctrl.JumpToStart()
	case key.Matches(msg, m.keys.End):
		m.ctrl.JumpToEnd()
	case key.Matches(msg, m.keys.Fast):
		m.ctrl.SetSpeed(playback.SpeedFast)
	case key.Matches(msg, m.keys.Normal):
		m.ctrl.SetSpeed(playback.SpeedNormal)
	case key.Matches(msg, m.keys.Slow):
		m.ctrl.SetSpeed(playback.SpeedSlow)
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Share):
		return m, m.share()
	}

	return m, m.sched.take()
}

func (m *Model) share() tea.Cmd {
	if m.opts.ShareLink == nil {
		return nil
	}

	text := m.ctrl.Index().Source()
	link, cp := m.opts.ShareLink, m.opts.Copy

	return func() tea.Msg {
		url, err := link(text)
		if err == nil && cp != nil {
			cp(url)
		}

		return sharedMsg{url: url, err: err}
	}
}

// refreshTokens rebuilds the token list after the document changed.
func (m *Model) refreshTokens() {
	x := m.ctrl.Index()
	if m.tokens != nil && m.docGen == x.Generation() {
		return
	}

	m.tokens = present.Tokens(x)
	m.docGen = x.Generation()
}

func (m *Model) strip() []cell {
	m.refreshTokens()

	labels := make([]string, len(m.tokens))
	for i, t := range m.tokens {
		labels[i] = t.Label
	}

	return layoutStrip(labels, m.ctrl.Index().Cursor(), m.width)
}

func (m *Model) View() string {
	f := m.ctrl.Position()

	var b strings.Builder

	b.WriteString(titleStyle.Render(m.opts.Title))
	b.WriteString("  ")
	b.WriteString(statusStyle.Render(m.status(f)))
	b.WriteString("\n\n")

	b.WriteString(m.renderStrip(f.Cursor))
	b.WriteString("\n\n")

	body := lipgloss.NewStyle().Width(m.width).Render(f.Display)
	b.WriteString(tail(body, m.height-9))
	b.WriteString("\n\n")

	b.WriteString(m.prog.ViewAs(f.Percent()))
	b.WriteString("\n")

	if m.notice != "" {
		style := noticeStyle
		if m.failed {
			style = errorStyle
		}
		b.WriteString(style.Render(truncate(m.notice, m.width)))
	}
	b.WriteString("\n")

	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func (m *Model) status(f present.Frame) string {
	state := "⏸ paused"
	if f.Playing {
		state = "▶ playing"
	}

	return fmt.Sprintf("%s · %s · %dms · %d/%d",
		m.ctrl.Index().Vocabulary().Name(), state, f.SpeedMS, f.Cursor, f.Total)
}

func (m *Model) renderStrip(cursor int) string {
	cells := m.strip()
	if len(cells) == 0 {
		return hiddenStyle.Render("(empty document)")
	}

	parts := make([]string, len(cells))
	for i, c := range cells {
		style := hiddenStyle
		switch {
		case c.index == cursor-1:
			style = latestStyle
		case c.index < cursor:
			style = revealedStyle
		}
		parts[i] = style.Render(" " + c.label + " ")
	}

	return strings.Join(parts, strings.Repeat(" ", cellGap))
}

// tail keeps the last n lines of s so the newest text stays on screen.
func tail(s string, n int) string {
	if n <= 0 {
		n = 1
	}

	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}

	return strings.Join(lines[len(lines)-n:], "\n")
}
