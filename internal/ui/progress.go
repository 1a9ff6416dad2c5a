// Package ui renders build progress in the terminal.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"devchunk/internal/buildpipeline"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	activeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	waitingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

const labelWidth = 9

// groupRow is the latest state of one chunk group.
type groupRow struct {
	name    string
	stage   buildpipeline.Stage
	status  buildpipeline.Status
	elapsed time.Duration
	err     error
}

// label names the row state, e.g. "grouping" or "written".
func (r groupRow) label() string {
	switch r.status {
	case buildpipeline.StatusQueued:
		return "queued"
	case buildpipeline.StatusError:
		return "failed"
	}
	verbs := [...][2]string{
		buildpipeline.StageLoad:  {"loading", "loaded"},
		buildpipeline.StageGroup: {"grouping", "grouped"},
		buildpipeline.StageWrite: {"writing", "written"},
	}
	if int(r.stage) >= len(verbs) {
		return ""
	}
	if r.status == buildpipeline.StatusDone {
		return verbs[r.stage][1]
	}
	return verbs[r.stage][0]
}

// share is how far along the row is, from 0 to 1.
func (r groupRow) share() float64 {
	if r.status == buildpipeline.StatusError {
		return 1
	}
	steps := map[buildpipeline.Stage][2]float64{
		buildpipeline.StageGroup: {0.3, 0.7},
		buildpipeline.StageWrite: {0.85, 1},
	}
	s, ok := steps[r.stage]
	switch {
	case !ok || r.status == buildpipeline.StatusQueued:
		return 0
	case r.status == buildpipeline.StatusDone:
		return s[1]
	default:
		return s[0]
	}
}

func (r groupRow) style() lipgloss.Style {
	switch {
	case r.status == buildpipeline.StatusError:
		return failedStyle
	case r.status == buildpipeline.StatusQueued:
		return waitingStyle
	case r.stage == buildpipeline.StageWrite && r.status == buildpipeline.StatusDone:
		return doneStyle
	default:
		return activeStyle
	}
}

type board struct {
	title  string
	events <-chan buildpipeline.Event
	spin   spinner.Model
	bar    progress.Model
	rows   []groupRow
	byName map[string]int
	// phase is the label of the latest build-wide event
	phase    string
	width    int
	finished bool
}

type eventMsg buildpipeline.Event

type closedMsg struct{}

// NewProgressModel returns a Bubble Tea model drawing one row per chunk
// group. Rows appear as groups are queued; the model quits once events is
// closed.
func NewProgressModel(title string, events <-chan buildpipeline.Event) tea.Model {
	spin := spinner.New(spinner.WithSpinner(spinner.MiniDot))
	spin.Style = activeStyle
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = 60
	return &board{
		title:  title,
		events: events,
		spin:   spin,
		bar:    bar,
		byName: make(map[string]int),
		width:  80,
	}
}

func (b *board) Init() tea.Cmd {
	return tea.Batch(b.spin.Tick, b.next())
}

func (b *board) next() tea.Cmd {
	return func() tea.Msg {
		if ev, ok := <-b.events; ok {
			return eventMsg(ev)
		}
		return closedMsg{}
	}
}

func (b *board) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return b, tea.Batch(b.apply(buildpipeline.Event(msg)), b.next())
	case closedMsg:
		b.finished = true
		return b, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return b, tea.Quit
		}
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			b.width = msg.Width
			b.bar.Width = max(msg.Width-4, 10)
		}
	case spinner.TickMsg:
		if !b.finished {
			var cmd tea.Cmd
			b.spin, cmd = b.spin.Update(msg)
			return b, cmd
		}
	case progress.FrameMsg:
		m, cmd := b.bar.Update(msg)
		b.bar = m.(progress.Model)
		return b, cmd
	}
	return b, nil
}

func (b *board) apply(ev buildpipeline.Event) tea.Cmd {
	if ev.Group == "" {
		b.phase = groupRow{stage: ev.Stage, status: ev.Status}.label()
		return nil
	}
	i, ok := b.byName[ev.Group]
	if !ok {
		i = len(b.rows)
		b.byName[ev.Group] = i
		b.rows = append(b.rows, groupRow{name: ev.Group})
	}
	b.rows[i].stage, b.rows[i].status, b.rows[i].err = ev.Stage, ev.Status, ev.Err
	if ev.Elapsed > 0 {
		b.rows[i].elapsed = ev.Elapsed
	}

	var sum float64
	for _, r := range b.rows {
		sum += r.share()
	}
	return b.bar.SetPercent(sum / float64(len(b.rows)))
}

func (b *board) View() string {
	var sb strings.Builder
	head := b.title
	if b.phase != "" {
		head += " (" + b.phase + ")"
	}
	if b.finished {
		sb.WriteString(titleStyle.Render("done: " + head))
	} else {
		sb.WriteString(b.spin.View() + " " + titleStyle.Render(head))
	}
	sb.WriteString("\n\n")

	nameWidth := max(b.width-labelWidth-14, 20)
	for _, r := range b.rows {
		line := fmt.Sprintf("  %s %s", r.style().Render(fmt.Sprintf("%*s", labelWidth, r.label())), Truncate(r.name, nameWidth))
		if r.elapsed > 0 {
			line += waitingStyle.Render(" " + r.elapsed.Round(time.Millisecond).String())
		}
		sb.WriteString(line + "\n")
		if r.err != nil {
			sb.WriteString("    " + failedStyle.Render(Truncate(r.err.Error(), b.width-4)) + "\n")
		}
	}

	sb.WriteByte('\n')
	if b.finished {
		sb.WriteString(b.bar.ViewAs(1))
	} else {
		sb.WriteString(b.bar.View())
	}
	sb.WriteByte('\n')
	return sb.String()
}

// Truncate shortens value to at most width terminal cells, marking the cut
// with "..." when there is room for it. A non-positive width disables it.
func Truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
