package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/spacesim/internal/dynamo"
	"github.com/san-kum/spacesim/internal/snapshot"
)

const (
	width           = 80
	height          = 24
	traceCapacity   = 240
	defaultInterval = time.Second / 30
)

type TickMsg time.Time

// Options configures the live view.
type Options struct {
	Title    string
	Interval time.Duration
	// Populate refills the simulator after a reset.
	Populate func(*dynamo.Simulator) error
}

// Model drives a simulator from Bubble Tea ticks.
type Model struct {
	sim      *dynamo.Simulator
	opts     Options
	canvas   *Canvas
	frame    *snapshot.Frame
	running  bool
	showHelp bool

	contacts   int
	proximity  int
	expired    int
	dropped    int
	population []float64
	energy     []float64
	err        error
}

func NewModel(sim *dynamo.Simulator, opts Options) Model {
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.Title == "" {
		opts.Title = "spacesim"
	}
	return Model{
		sim:        sim,
		opts:       opts,
		canvas:     NewCanvas(width, height),
		frame:      sim.Latest(),
		running:    true,
		population: make([]float64, 0, traceCapacity),
		energy:     make([]float64, 0, traceCapacity),
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.opts.Interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "[":
			m.rewind()
		case ".":
			if !m.running {
				m.step()
			}
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, m.tick()
	}
	return m, nil
}

// step advances the simulator by one tick.
func (m *Model) step() {
	res, err := m.sim.Tick()
	if err != nil {
		m.err = err
		m.running = false
		return
	}
	m.frame = res.Frame
	m.contacts = len(res.Contacts)
	m.proximity = len(res.Proximity)
	m.expired = len(res.Expired)
	m.dropped += len(res.Errors)
	m.population = pushTrace(m.population, float64(res.Frame.Len()))
	m.energy = pushTrace(m.energy, res.Frame.KineticEnergy())
}

func pushTrace(trace []float64, v float64) []float64 {
	trace = append(trace, v)
	if len(trace) > traceCapacity {
		trace = trace[1:]
	}
	return trace
}

func popTrace(trace []float64) []float64 {
	if len(trace) == 0 {
		return trace
	}
	return trace[:len(trace)-1]
}

// rewind steps back one tick through the simulator history and pauses.
func (m *Model) rewind() {
	seq := m.sim.Seq()
	if seq == 0 {
		return
	}
	if err := m.sim.Rewind(seq - 1); err != nil {
		m.err = err
		return
	}
	m.running = false
	m.err = nil
	m.frame = m.sim.Latest()
	m.population = popTrace(m.population)
	m.energy = popTrace(m.energy)
}

// reset restores the scenario's initial bodies.
func (m *Model) reset() {
	m.err = nil
	if err := m.sim.Reset(); err != nil {
		m.err = err
		return
	}
	if m.opts.Populate != nil {
		if err := m.opts.Populate(m.sim); err != nil {
			m.err = err
		}
	}
	m.frame = m.sim.Latest()
	m.contacts, m.proximity, m.expired, m.dropped = 0, 0, 0, 0
	m.population = m.population[:0]
	m.energy = m.energy[:0]
}

func (m *Model) draw() {
	drawFrame(m.canvas, m.frame)
}

// View renders the TUI interface.
func (m Model) View() string {
	m.draw()

	status := "RUNNING"
	if !m.running {
		status = "PAUSED"
	}

	var s strings.Builder
	s.WriteString(headerStyle().Render(strings.ToUpper(m.opts.Title)) + "\n")
	s.WriteString(statusStyle(m.running).Render(status) + "\n\n")
	s.WriteString(KeyValue("Seq", fmt.Sprintf("%d", m.frame.Seq)) + "\n")
	s.WriteString(KeyValue("Bodies", fmt.Sprintf("%d", m.frame.Len())) + "\n")
	s.WriteString(KeyValue("Contacts", fmt.Sprintf("%d", m.contacts)) + "\n")
	s.WriteString(KeyValue("Proximity", fmt.Sprintf("%d", m.proximity)) + "\n")
	s.WriteString(KeyValue("Expired", fmt.Sprintf("%d", m.expired)) + "\n")
	s.WriteString(KeyValue("Dropped", fmt.Sprintf("%d", m.dropped)) + "\n")
	p := m.frame.Momentum()
	s.WriteString(KeyValue("Momentum", fmt.Sprintf("(%.3f, %.3f)", p.X, p.Y)) + "\n")
	s.WriteString(KeyValue("Energy", fmt.Sprintf("%.3f", m.frame.KineticEnergy())) + "\n")
	s.WriteString(KeyValue("Pending", fmt.Sprintf("%d", m.sim.Pending())) + "\n\n")

	s.WriteString(labelStyle().Render("Population") + "\n")
	s.WriteString(SparklineChart(m.population, 34) + "\n")
	if len(m.energy) > 1 {
		graph := asciigraph.Plot(m.energy,
			asciigraph.Height(6),
			asciigraph.Width(30),
			asciigraph.Caption("kinetic energy"),
		)
		s.WriteString(graph + "\n")
	}
	if m.err != nil {
		s.WriteString(lipgloss.NewStyle().Foreground(CurrentTheme.Error).Render(m.err.Error()) + "\n")
	}

	if m.showHelp {
		s.WriteString(helpStyle.Render("space pause  r reset  [ rewind  . step  t theme  q quit"))
	} else {
		s.WriteString(helpStyle.Render("? help"))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		canvasStyle.Render(m.canvas.String()),
		statsStyle.Render(s.String()),
	)
}

// Run starts the live view and blocks until the user quits.
func Run(sim *dynamo.Simulator, opts Options) error {
	_, err := tea.NewProgram(NewModel(sim, opts), tea.WithAltScreen()).Run()
	return err
}
