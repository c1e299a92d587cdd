// Package tui renders a live terminal view of a running fermentation
// simulation. Samples and events are fed in through the driver's
// observer hook and forwarded to the bubbletea program as messages.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cacaotherm/internal/material"
	"cacaotherm/internal/therm"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

type sampleMsg therm.Sample

type eventMsg therm.Event

type doneMsg struct {
	result *therm.Result
	err    error
}

const (
	historyLen = 120
	eventsKept = 6
)

type model struct {
	vessel   string
	limits   material.Limits
	duration float64

	latest  therm.Sample
	history []float64
	cooling []float64
	events  []therm.Event

	done   bool
	result *therm.Result
	err    error

	width  int
	height int
}

func newModel(vessel string, limits material.Limits, duration float64) model {
	// The catalog carries kelvin, samples carry celsius. Convert once here so
	// every comparison below stays in one unit.
	limits.OptimalMin -= material.KelvinOffset
	limits.OptimalMax -= material.KelvinOffset
	limits.SafeMax -= material.KelvinOffset
	limits.Emergency -= material.KelvinOffset

	return model{
		vessel:   vessel,
		limits:   limits,
		duration: duration,
		history:  make([]float64, 0, historyLen),
		cooling:  make([]float64, 0, historyLen),
		width:    80,
		height:   24,
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "escape":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case sampleMsg:
		m.latest = therm.Sample(msg)
		m.history = append(m.history, m.latest.TMax)
		if len(m.history) > historyLen {
			m.history = m.history[1:]
		}
		m.cooling = append(m.cooling, m.latest.QEvap)
		if len(m.cooling) > historyLen {
			m.cooling = m.cooling[1:]
		}
	case eventMsg:
		m.events = append(m.events, therm.Event(msg))
		if len(m.events) > eventsKept {
			m.events = m.events[1:]
		}
	case doneMsg:
		m.done = true
		m.result = msg.result
		m.err = msg.err
	}
	return m, nil
}

// tempTier buckets a celsius temperature: 0 inside the optimal band, 1 above
// it, 2 at or past the microbial safety limit.
func (m model) tempTier(t float64) int {
	switch {
	case t >= m.limits.SafeMax:
		return 2
	case t >= m.limits.OptimalMax:
		return 1
	default:
		return 0
	}
}

func (m model) tempStyle(t float64) lipgloss.Style {
	switch m.tempTier(t) {
	case 2:
		return red
	case 1:
		return yellow
	default:
		return green
	}
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("        " + cyan.Render("c a c a o t h e r m") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n\n")

	statusIcon := green.Render("●")
	statusText := green.Render("running")
	if m.done {
		if m.err != nil {
			statusIcon = red.Render("✗")
			statusText = red.Render("failed")
		} else {
			statusIcon = dim.Render("○")
			statusText = dim.Render("finished")
		}
	}
	b.WriteString(fmt.Sprintf("   %s %s  %s\n", statusIcon, cyan.Render(m.vessel), statusText))

	progress := m.latest.Time / m.duration
	if progress > 1 {
		progress = 1
	}
	barWidth := 36
	filled := int(progress * float64(barWidth))
	timeStr := fmt.Sprintf("%.1fh/%.0fh", m.latest.Time/3600, m.duration/3600)
	bar := cyan.Render(strings.Repeat("━", filled)) + dimmer.Render(strings.Repeat("─", barWidth-filled))
	b.WriteString(fmt.Sprintf("   %s %s\n\n", bar, dim.Render(timeStr)))

	ts := m.tempStyle(m.latest.TMax)
	b.WriteString("   " + dim.Render("peak ") + ts.Render(fmt.Sprintf("%5.1f°C", m.latest.TMax)) +
		dim.Render("  avg ") + white.Render(fmt.Sprintf("%5.1f°C", m.latest.TAvg)) +
		dim.Render("  min ") + white.Render(fmt.Sprintf("%5.1f°C", m.latest.TMin)) + "\n")
	b.WriteString("   " + dim.Render("gen  ") + magenta.Render(fmt.Sprintf("%6.1f W/m³", m.latest.QGen)) +
		dim.Render("  evap ") + cyan.Render(fmt.Sprintf("%6.1f W/m³", m.latest.QEvap)) + "\n")

	rotStr := dim.Render("rotation idle")
	if m.latest.Rotating {
		rotStr = yellow.Render("rotating")
	}
	b.WriteString("   " + rotStr + "\n")

	if len(m.history) > 1 {
		b.WriteString("\n   " + dim.Render("peak ") + ts.Render(sparkline(m.history, 48)) + "\n")
		b.WriteString("   " + dim.Render("evap ") + cyan.Render(sparkline(m.cooling, 48)) + "\n")
	}

	if len(m.events) > 0 {
		b.WriteString("\n")
		for _, ev := range m.events {
			b.WriteString("   " + m.renderEvent(ev) + "\n")
		}
	}

	if m.done && m.result != nil {
		b.WriteString("\n   " + dim.Render(fmt.Sprintf("max %.1f°C  rotations %d  moisture loss %.1f%%",
			m.result.MaxTempReached, m.result.Rotations, m.result.FinalMoisturePc)) + "\n")
	}
	if m.done && m.err != nil {
		b.WriteString("\n   " + red.Render(m.err.Error()) + "\n")
	}

	b.WriteString("\n" + dim.Render("   q quit") + "\n")
	return b.String()
}

func (m model) renderEvent(ev therm.Event) string {
	at := fmt.Sprintf("%.1fh", ev.Time/3600)
	switch ev.Kind {
	case therm.EventRotation:
		return yellow.Render("↻ ") + white.Render(fmt.Sprintf("rotation %d", ev.Rotation)) + dim.Render("  "+at)
	case therm.EventMicrobialDeath:
		return red.Render("☠ ") + white.Render(fmt.Sprintf("microbial death at %.1f°C", ev.TempC)) + dim.Render("  "+at)
	case therm.EventEmergencyStop:
		return red.Render("■ ") + white.Render(fmt.Sprintf("emergency stop at %.1f°C", ev.TempC)) + dim.Render("  "+at)
	case therm.EventSolverFailure:
		return red.Render("! ") + white.Render("solver failure") + dim.Render("  "+at)
	}
	return dim.Render(ev.Kind.String() + "  " + at)
}

func sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	rang := maxVal - minVal
	if rang == 0 {
		rang = 1
	}
	step := len(data) / width
	if step < 1 {
		step = 1
	}
	var sb strings.Builder
	for i := 0; i < width && i*step < len(data); i++ {
		v := data[i*step]
		idx := int((v - minVal) / rang * 7)
		if idx > 7 {
			idx = 7
		}
		if idx < 0 {
			idx = 0
		}
		sb.WriteRune(chars[idx])
	}
	return sb.String()
}

// feed forwards driver samples and events into the program, throttled
// so a fine timestep does not flood the render loop.
type feed struct {
	p        *tea.Program
	lastSent time.Time
}

func (f *feed) OnStep(s therm.Sample) {
	if time.Since(f.lastSent) < time.Second/30 {
		return
	}
	f.lastSent = time.Now()
	f.p.Send(sampleMsg(s))
}

func (f *feed) OnEvent(ev therm.Event) {
	f.p.Send(eventMsg(ev))
}

// Run drives the simulation to completion inside a live view. It
// returns the driver's result once the user quits the view.
func Run(drv *therm.Driver, cfg therm.Config, vessel string, limits material.Limits) (*therm.Result, error) {
	p := tea.NewProgram(newModel(vessel, limits, cfg.Duration), tea.WithAltScreen())
	drv.AddObserver(&feed{p: p})

	go func() {
		res, err := drv.Run(context.Background(), cfg)
		p.Send(doneMsg{result: res, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	fm, ok := final.(model)
	if !ok || !fm.done {
		return nil, nil
	}
	return fm.result, fm.err
}
