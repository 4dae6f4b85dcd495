package nest

import (
	"fmt"
	"strings"

	"storify/internal/story/narration"
	"storify/internal/story/player"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7DD3FC"))

	chapterStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF"))

	textStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E5E5E5"))

	fadedStyle = lipgloss.NewStyle().
			Faint(true)

	imageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F")).
			Bold(true).
			Padding(0, 1)

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true)

	disabledStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3A3A3A"))
)

type model struct {
	ctrl     *player.Controller
	spinner  spinner.Model
	progress progress.Model
	pending  string
	quitting bool
	width    int
	height   int
}

// newModel wraps ctrl in a bubbletea model. A non-empty text is built into a
// story as soon as the program starts.
func newModel(ctrl *player.Controller, text string) model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	return model{
		ctrl:     ctrl,
		spinner:  s,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		pending:  text,
		width:    80,
		height:   24,
	}
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.ctrl.Init(), m.spinner.Tick}
	if m.pending != "" {
		cmds = append(cmds, m.ctrl.Build(m.pending))
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "left", "h", "p":
			if m.ctrl.CanNavigate(player.Prev) {
				return m, m.ctrl.Navigate(player.Prev)
			}
			return m, nil

		case "right", "l", "n":
			if m.ctrl.CanNavigate(player.Next) {
				return m, m.ctrl.Navigate(player.Next)
			}
			return m, nil

		case " ":
			m.ctrl.TogglePlay()
			return m, nil

		case "q", "Q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(max(msg.Width-4, 10), 60)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, m.ctrl.Update(msg)
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder

	if building, p := m.ctrl.Building(); building {
		sb.WriteString(titleStyle.Render("Building your story"))
		sb.WriteString("\n\n")
		sb.WriteString(m.spinner.View())
		sb.WriteString(statusStyle.Render(buildStatus(p)))
		sb.WriteString("\n\n")
		percent := 0.0
		if p.Total > 0 {
			percent = float64(p.Part-1) / float64(p.Total)
		}
		sb.WriteString(m.progress.ViewAs(percent))
		sb.WriteString("\n\n")
		sb.WriteString(controlsStyle.Render("Q: quit"))
		return sb.String()
	}

	s := m.ctrl.Story()
	if s.Empty() {
		sb.WriteString(titleStyle.Render("No story loaded"))
		sb.WriteString("\n\n")
		sb.WriteString(m.status())
		sb.WriteString("\n\n")
		sb.WriteString(controlsStyle.Render("Q: quit"))
		return sb.String()
	}

	state := m.ctrl.State()
	ch, _ := m.ctrl.Chapter()

	var body strings.Builder
	body.WriteString(chapterStyle.Render(fmt.Sprintf("Chapter %d/%d: %s", state.CurrentIndex+1, s.Len(), ch.Title)))
	body.WriteString("\n\n")
	if ch.ImageURL != "" {
		body.WriteString(imageStyle.Render("🖼  " + ch.ImageURL))
		body.WriteString("\n\n")
	}
	body.WriteString(textStyle.Width(min(m.width-2, 100)).Render(ch.Text))

	sb.WriteString(titleStyle.Render(s.Title))
	sb.WriteString("\n\n")
	if state.Transitioning {
		sb.WriteString(fadedStyle.Render(body.String()))
	} else {
		sb.WriteString(body.String())
	}
	sb.WriteString("\n\n")
	sb.WriteString(m.status())
	sb.WriteString("\n\n")
	sb.WriteString(m.controls())

	return sb.String()
}

func (m model) status() string {
	a := m.ctrl.Audio()
	switch a.Status {
	case narration.StatusLoading:
		return m.spinner.View() + statusStyle.Render("Loading narration...")
	case narration.StatusFailed:
		return errorStyle.Render("Error: " + a.Reason)
	case narration.StatusReady:
		if m.ctrl.State().Consent {
			return statusStyle.Render("♪ Narration ready")
		}
		return statusStyle.Render("♪ Press SPACE to start the narration")
	}
	return ""
}

func (m model) controls() string {
	key := func(label string, enabled bool) string {
		if enabled {
			return controlsStyle.Render(label)
		}
		return disabledStyle.Render(label)
	}

	return strings.Join([]string{
		key("←: previous", m.ctrl.CanNavigate(player.Prev)),
		key("→: next", m.ctrl.CanNavigate(player.Next)),
		controlsStyle.Render("SPACE: play/pause"),
		controlsStyle.Render("Q: quit"),
	}, "  ")
}

func buildStatus(p player.BuildProgressMsg) string {
	if p.Total == 0 {
		return "Preparing story..."
	}
	return fmt.Sprintf("Building part %d of %d", p.Part, p.Total)
}
