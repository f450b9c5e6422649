package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/mtsim/internal/muscle"
	"github.com/san-kum/mtsim/internal/sim"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

const historyLen = 80

// LiveModel drives a muscle simulation inside a terminal UI, plotting the
// tendon force trace as it evolves.
type LiveModel struct {
	dyn        *muscle.Dynamics
	controller sim.Controller
	integrator sim.Integrator

	x        sim.State
	t        float64
	dt       float64
	duration float64
	speed    float64

	forceHist      []float64
	activationHist []float64

	running bool
	paused  bool
	err     error

	width  int
	height int
}

func NewLive(dyn *muscle.Dynamics, controller sim.Controller, integrator sim.Integrator, dt, duration float64) *LiveModel {
	return &LiveModel{
		dyn:            dyn,
		controller:     controller,
		integrator:     integrator,
		dt:             dt,
		duration:       duration,
		speed:          1.0,
		forceHist:      make([]float64, 0, historyLen),
		activationHist: make([]float64, 0, historyLen),
		width:          80,
		height:         24,
	}
}

func (m *LiveModel) Init() tea.Cmd {
	x0, err := m.dyn.InitialState()
	if err != nil {
		m.err = err
		return tea.Quit
	}
	m.x = x0
	m.running = true
	return tick()
}

// Err reports a failed equilibrium solve after the program exits.
func (m *LiveModel) Err() error { return m.err }

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "escape":
			return m, tea.Quit
		case " ", "p":
			m.paused = !m.paused
		case "+", "=":
			m.speed = math.Min(m.speed*2, 64)
		case "-", "_":
			m.speed = math.Max(m.speed/2, 0.25)
		case "0":
			m.speed = 1.0
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if !m.running {
			return m, nil
		}
		if !m.paused {
			// Real-time playback: one frame covers 33ms of sim time,
			// scaled by the speed factor.
			steps := int(0.033 * m.speed / m.dt)
			if steps < 1 {
				steps = 1
			}
			for i := 0; i < steps && m.t < m.duration; i++ {
				m.step()
			}
			if m.t >= m.duration {
				m.running = false
			}
		}
		if m.running {
			return m, tick()
		}
		return m, nil
	}
	return m, nil
}

func (m *LiveModel) step() {
	u := m.controller.Compute(m.x, m.t)
	m.x = m.integrator.Step(m.dyn, m.x, u, m.t, m.dt)
	m.t += m.dt

	mus := m.dyn.Muscle()
	mus.SetActivation(m.x[0])
	mus.SetNormTendonForce(m.x[1])
	force := mus.Actuation(m.dyn.Path().Length(m.t), m.dyn.Path().Velocity(m.t))

	m.forceHist = append(m.forceHist, force)
	if len(m.forceHist) > historyLen {
		m.forceHist = m.forceHist[1:]
	}
	m.activationHist = append(m.activationHist, m.x[0])
	if len(m.activationHist) > historyLen {
		m.activationHist = m.activationHist[1:]
	}
}

func bar(value, max float64, width int) string {
	if max <= 0 {
		max = 1
	}
	filled := int(value / max * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func (m *LiveModel) View() string {
	if m.x == nil {
		return "solving initial equilibrium...\n"
	}

	mus := m.dyn.Muscle()
	var b strings.Builder

	status := green.Render("running")
	if m.paused {
		status = yellow.Render("paused")
	} else if !m.running {
		status = dim.Render("done")
	}
	b.WriteString(fmt.Sprintf(" %s  %s  t=%s/%.2fs  speed=%s  %s\n\n",
		cyan.Render(mus.Name()),
		dim.Render(string(mus.Mode())),
		white.Render(fmt.Sprintf("%.3f", m.t)),
		m.duration,
		white.Render(fmt.Sprintf("%.2gx", m.speed)),
		status))

	b.WriteString(fmt.Sprintf(" %s %s %.3f\n",
		magenta.Render("activation "),
		bar(m.x[0], 1, 40), m.x[0]))
	b.WriteString(fmt.Sprintf(" %s %s %.3f\n\n",
		magenta.Render("norm force "),
		bar(m.x[1], 1.5, 40), m.x[1]))

	if len(m.forceHist) >= 2 {
		graph := asciigraph.Plot(m.forceHist,
			asciigraph.Height(10),
			asciigraph.Width(min(m.width-12, 70)),
			asciigraph.Caption("tendon force [N]"),
		)
		b.WriteString(graph)
		b.WriteString("\n\n")
	}

	b.WriteString(dim.Render(" space pause   +/- speed   0 reset speed   q quit"))
	b.WriteString("\n")
	return b.String()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
