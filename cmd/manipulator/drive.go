package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/Deamonio/Manipulator-Robot/pkg/arm"
	"github.com/Deamonio/Manipulator-Robot/pkg/drive"
	"github.com/Deamonio/Manipulator-Robot/pkg/input"
	"github.com/Deamonio/Manipulator-Robot/pkg/link"
)

type DriveCommand struct {
	Port   string `long:"port" short:"p" description:"Serial port path (overrides config)"`
	Baud   int    `long:"baud" short:"b" description:"Baud rate (overrides config)"`
	Hz     int    `long:"hz" description:"Control loop frequency (overrides config)"`
	Step   int    `long:"step" description:"Target change per key press (overrides config)"`
	Sim    bool   `long:"sim" description:"Run without hardware"`
	Config string `long:"config" short:"c" default:"manipulator.json" description:"Config file path"`
}

const (
	headerHeight = 3 // title + subtitle + blank line
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
	cardWidth    = 40
	cardInner    = cardWidth - 2 // card width minus padding

	// Terminals deliver key repeats, never releases. A key counts as
	// released once no repeat has arrived within this window.
	pressHoldWindow = 150 * time.Millisecond
)

// Dashboard palette. The bar color shifts with how far into its range
// a joint currently sits.
const (
	accentBlue    = "#3B82F6"
	successGreen  = "#22C55E"
	warningOrange = "#FB923C"
	dangerRed     = "#EF4444"
)

// Chart colors - distinct colors for each joint
var jointColors = [arm.NumJoints]string{
	"196", // red
	"208", // orange
	"226", // yellow
	"46",  // green
	"51",  // cyan
	"201", // magenta
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	actionStyle   = lipgloss.NewStyle().Bold(true)
	cardStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1).Width(cardWidth)
	tagStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	nameStyle     = lipgloss.NewStyle().Bold(true)
	valueStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(accentBlue))
	rangeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	chartStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
)

type driveModel struct {
	ctrl   *drive.Controller
	keymap input.Keymap
	chart  *streamlinechart.Model

	// One bar model per color band; rendering picks by position ratio.
	barLow  progress.Model
	barMid  progress.Model
	barHigh progress.Model

	width     int // terminal width
	height    int // terminal height
	state     drive.State
	logs      []string // last N log messages
	keyHeld   map[input.Key]time.Time
	showChart bool
	quitting  bool

	lastCurrents []float64 // track previous positions to detect movement
}

func (m *driveModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// hasMovement checks if any joint position has changed since the last state
func (m *driveModel) hasMovement(joints []arm.JointView) bool {
	if m.lastCurrents == nil {
		return true // first reading, consider it movement
	}
	for i, jv := range joints {
		if i >= len(m.lastCurrents) || jv.Current != m.lastCurrents[i] {
			return true
		}
	}
	return false
}

// sweepReleased synthesizes key-up events. The terminal only reports
// presses; a mapped key whose repeats have stopped arriving is treated
// as let go.
func (m *driveModel) sweepReleased() {
	now := time.Now()
	for k, last := range m.keyHeld {
		if now.Sub(last) > pressHoldWindow {
			delete(m.keyHeld, k)
			m.ctrl.KeyUp(k)
		}
	}
}

// Messages from the controller
type stateMsg drive.State
type logMsg string

func waitForState(ctrl *drive.Controller) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-ctrl.States())
	}
}

func waitForLog(ctrl *drive.Controller) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-ctrl.Logs())
	}
}

// chartSize calculates the size of the chart based on terminal dimensions
func (m *driveModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20 // default size before we know terminal size
	}
	width = m.width - borderSize - 2
	if width < 40 {
		width = 40
	}
	height = m.height - headerHeight - footerHeight - borderSize - 8
	if height < 10 {
		height = 10
	}
	return width, height
}

func (m *driveModel) resizeChart() {
	w, h := m.chartSize()
	m.chart.Resize(w, h)
}

func newBar(color string) progress.Model {
	b := progress.New(progress.WithSolidFill(color), progress.WithoutPercentage())
	b.Width = cardInner
	return b
}

func initialDriveModel(ctrl *drive.Controller, cfg *arm.Config) driveModel {
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(0, 1023),
	)

	// Set up data set styles for each joint
	for i, j := range cfg.Joints {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(jointColors[i]))
		chart.SetDataSetStyles(j.Name, runes.ThinLineStyle, style)
	}

	return driveModel{
		ctrl:    ctrl,
		keymap:  input.DefaultKeymap(),
		chart:   &chart,
		barLow:  newBar(accentBlue),
		barMid:  newBar(successGreen),
		barHigh: newBar(warningOrange),
		state:   ctrl.Snapshot(),
		keyHeld: make(map[input.Key]time.Time),
	}
}

func (m driveModel) Init() tea.Cmd {
	// Start listening for state and log updates
	return tea.Batch(
		waitForState(m.ctrl),
		waitForLog(m.ctrl),
	)
}

func (m driveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		switch s := strings.ToLower(msg.String()); s {
		case "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "c":
			m.showChart = !m.showChart
			if m.showChart {
				m.chart.DrawAll()
			}
			return m, nil
		default:
			k := input.Key(s)
			if _, ok := m.keymap[k]; ok {
				if _, held := m.keyHeld[k]; !held {
					m.ctrl.KeyDown(k)
				}
				m.keyHeld[k] = time.Now()
			}
		}
		return m, nil

	case stateMsg:
		m.state = drive.State(msg)
		m.sweepReleased()
		// Only feed the chart on movement (freeze when idle).
		if m.hasMovement(m.state.Joints) {
			currents := make([]float64, len(m.state.Joints))
			for i, jv := range m.state.Joints {
				m.chart.PushDataSet(jv.Name, jv.Current)
				currents[i] = jv.Current
			}
			if m.showChart {
				m.chart.DrawAll()
			}
			m.lastCurrents = currents
		}
		return m, waitForState(m.ctrl)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.ctrl)
	}

	return m, nil
}

func (m driveModel) View() string {
	if m.quitting {
		return "System Shutdown.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(titleStyle.Render("Manipulator Robot"))
	sb.WriteString(fmt.Sprintf(" - %d Hz\n", m.ctrl.Hz()))
	sb.WriteString(subtitleStyle.Render("Real-time Motor Dashboard (6-DOF)"))
	sb.WriteString("\n\n")

	if m.showChart {
		sb.WriteString(chartStyle.Render(m.chart.View()))
		sb.WriteString("\n")
		sb.WriteString(m.renderLegend())
		sb.WriteString("\n")
	} else {
		sb.WriteString(m.renderGauges())
		sb.WriteString("\n")
	}

	// Status panel
	sb.WriteString(m.renderStatus())
	sb.WriteString("\n")

	// Key hints
	sb.WriteString(statusStyle.Render("Q/A: M1 | W/S: M2 | E/D: M3 | R/F: M4"))
	sb.WriteString("\n")
	sb.WriteString(statusStyle.Render("T/G: M5 | Y/H: M6 | C: Chart | ESC: Exit"))
	sb.WriteString("\n")

	// Log box
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240"))
	if m.width > 4 {
		logStyle = logStyle.Width(m.width - 4)
	}

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("Press ESC to quit")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

// barFor picks the bar color band for a position ratio.
func (m *driveModel) barFor(ratio float64) *progress.Model {
	switch {
	case ratio < 0.33:
		return &m.barLow
	case ratio < 0.66:
		return &m.barMid
	default:
		return &m.barHigh
	}
}

func (m *driveModel) renderGauge(i int, jv arm.JointView) string {
	ratio := 0.0
	if span := jv.Max - jv.Min; span > 0 {
		ratio = (jv.Current - jv.Min) / span
	}

	title := tagStyle.Render(fmt.Sprintf("M%d", i+1)) + " " + nameStyle.Render(jv.Name)
	value := valueStyle.Render(strconv.Itoa(int(jv.Current)))
	bar := m.barFor(ratio).ViewAs(ratio)
	ranges := threeColumns(
		rangeStyle.Render(strconv.Itoa(int(jv.Min))),
		rangeStyle.Render(fmt.Sprintf("Target: %d", int(jv.Target))),
		rangeStyle.Render(strconv.Itoa(int(jv.Max))),
		cardInner,
	)

	content := splitLine(title, value, cardInner) + "\n" + bar + "\n" + ranges
	return cardStyle.Render(content)
}

// renderGauges lays the six cards out in a two-column grid.
func (m *driveModel) renderGauges() string {
	cards := make([]string, 0, len(m.state.Joints))
	for i, jv := range m.state.Joints {
		cards = append(cards, m.renderGauge(i, jv))
	}

	var rows []string
	for i := 0; i+1 < len(cards); i += 2 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i], " ", cards[i+1]))
	}
	if len(cards)%2 == 1 {
		rows = append(rows, cards[len(cards)-1])
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *driveModel) renderStatus() string {
	var dotColor string
	switch m.state.Link {
	case drive.LinkUp:
		dotColor = successGreen
	case drive.LinkDown:
		dotColor = dangerRed
	default:
		dotColor = warningOrange
	}

	dot := lipgloss.NewStyle().Foreground(lipgloss.Color(dotColor)).Render("●")
	header := dot + " " + statusStyle.Render("Status ("+m.state.Link.String()+")")
	return header + "\n" + actionStyle.Render(m.state.Status)
}

func (m *driveModel) renderLegend() string {
	var items []string
	for i, jv := range m.state.Joints {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(jointColors[i])).Bold(true)
		items = append(items, colorStyle.Render("━━")+" "+jv.Name)
	}
	return strings.Join(items, "  ")
}

// splitLine packs left and right against the edges of a w-wide line.
func splitLine(left, right string, w int) string {
	gap := w - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// threeColumns packs left, centered and right text into a w-wide line.
func threeColumns(left, center, right string, w int) string {
	lw := lipgloss.Width(left)
	cw := lipgloss.Width(center)
	rw := lipgloss.Width(right)

	gap1 := (w-cw)/2 - lw
	if gap1 < 1 {
		gap1 = 1
	}
	gap2 := w - lw - gap1 - cw - rw
	if gap2 < 1 {
		gap2 = 1
	}
	return left + strings.Repeat(" ", gap1) + center + strings.Repeat(" ", gap2) + right
}

func (c *DriveCommand) Execute(args []string) error {
	cfg, err := arm.LoadConfigFrom(c.Config)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("No config file at %s, using defaults.\n", c.Config)
		cfg = arm.DefaultConfig()
	} else {
		fmt.Printf("Loaded configuration from %s\n", c.Config)
	}

	// Flag overrides
	if c.Port != "" {
		cfg.Port = c.Port
	}
	if c.Baud != 0 {
		cfg.Baud = c.Baud
	}
	if c.Hz != 0 {
		cfg.Hz = c.Hz
	}
	if c.Step != 0 {
		cfg.Step = c.Step
	}

	// Open the serial port; without it the rig still runs, simulated.
	var ch *link.Channel
	if !c.Sim {
		port, err := link.OpenSerial(cfg.Port, cfg.Baud)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Serial port connection error: %v\n", err)
			fmt.Fprintln(os.Stderr, "Continuing without hardware (simulation).")
		} else {
			fmt.Printf("Connected to %s at %d baud\n", cfg.Port, cfg.Baud)
			ch = link.NewChannel(port)
		}
	}

	ctrl, err := drive.NewController(cfg, ch)
	if err != nil {
		log.Fatalf("Failed to create controller: %v", err)
	}
	defer ctrl.Close()

	// Start controller in background
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := ctrl.Start(ctx); err != nil && err != context.Canceled {
			log.Printf("Controller error: %v", err)
		}
	}()

	// Run TUI
	p := tea.NewProgram(initialDriveModel(ctrl, cfg), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}

	return nil
}
