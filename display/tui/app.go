// Package tui hosts the four indicators in a terminal. Each presented frame
// is drawn with half blocks; keys 1-4 or a mouse click on a panel toggle the
// matching indicator through the supervisor.
package tui

import (
	"fmt"
	"image"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	displaycolor "gitlab.com/tinyland/lab/menu-meters/display/color"
	"gitlab.com/tinyland/lab/menu-meters/display/render"
	"gitlab.com/tinyland/lab/menu-meters/indicator"
	"gitlab.com/tinyland/lab/menu-meters/internal/format"
)

// Controls is the part of the supervisor the TUI drives.
type Controls interface {
	Kinds() []indicator.Kind
	Toggle(kind indicator.Kind) (indicator.Lifecycle, error)
	Health() []indicator.Health
}

// Frames returns the last presented image of a surface.
type Frames interface {
	Frame(id string) (*image.RGBA, error)
}

// Options configures NewModel.
type Options struct {
	// Updates delivers worker ticks. A nil channel means frames are only
	// refreshed on user input.
	Updates <-chan indicator.Update
	// Colour selects 24-bit half blocks over the ASCII ramp.
	Colour bool
	// Zones tracks panel positions for mouse clicks. A private manager is
	// created when nil.
	Zones *zone.Manager
}

type updateMsg indicator.Update

type refreshMsg struct{}

// toggledMsg reports the outcome of a toggle run off the event loop.
type toggledMsg struct {
	kind indicator.Kind
	err  error
}

// Model is the bubbletea model for the indicator dashboard.
type Model struct {
	ctl     Controls
	frames  Frames
	updates <-chan indicator.Update
	colour  bool
	zones   *zone.Manager
	help    help.Model

	cells      map[indicator.Kind]string
	health     map[string]indicator.Health
	lastErr    error
	showHealth bool

	width int
	ready bool
}

// NewModel returns a model reading frames from frames and toggling
// indicators through ctl.
func NewModel(ctl Controls, frames Frames, opts Options) Model {
	z := opts.Zones
	if z == nil {
		z = zone.New()
	}
	return Model{
		ctl:     ctl,
		frames:  frames,
		updates: opts.Updates,
		colour:  opts.Colour,
		zones:   z,
		help:    help.New(),
		cells:   make(map[indicator.Kind]string),
		health:  make(map[string]indicator.Health),
	}
}

// Init loads the current frames and starts listening for updates.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return refreshMsg{} },
		waitForUpdate(m.updates),
	)
}

func waitForUpdate(ch <-chan indicator.Update) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return nil
		}
		return updateMsg(u)
	}
}

// Update handles keys, mouse clicks, resizes and worker updates.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, keys.Health):
			m.showHealth = !m.showHealth
		default:
			for i, b := range keys.Toggle {
				if key.Matches(msg, b) && i < len(indicator.Kinds) {
					return m, m.toggle(indicator.Kinds[i])
				}
			}
		}

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft {
			for _, k := range m.ctl.Kinds() {
				if z := m.zones.Get(k.String()); z != nil && z.InBounds(msg) {
					return m, m.toggle(k)
				}
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.ready = true

	case refreshMsg:
		for _, k := range m.ctl.Kinds() {
			m.redraw(k)
		}
		m.refreshHealth()

	case toggledMsg:
		m.lastErr = msg.err
		m.redraw(msg.kind)
		m.refreshHealth()

	case updateMsg:
		if msg.Err != nil {
			m.lastErr = msg.Err
		}
		m.redraw(msg.Kind)
		m.refreshHealth()
		return m, waitForUpdate(m.updates)
	}
	return m, nil
}

// toggle flips k in a command. Enabling waits for a draining tick, which
// can take as long as a slow sampler.
func (m Model) toggle(k indicator.Kind) tea.Cmd {
	ctl := m.ctl
	return func() tea.Msg {
		_, err := ctl.Toggle(k)
		return toggledMsg{kind: k, err: err}
	}
}

// redraw converts the presented frame of k into terminal cells.
func (m *Model) redraw(k indicator.Kind) {
	img, err := m.frames.Frame(k.String())
	if err != nil {
		m.lastErr = err
		return
	}
	b := img.Bounds()
	m.cells[k] = render.HalfBlocks(img, b.Dx(), (b.Dy()+1)/2, m.colour)
}

func (m *Model) refreshHealth() {
	for _, h := range m.ctl.Health() {
		m.health[h.Indicator] = h
	}
}

// View renders every indicator panel, optional health lines and the footer.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	kinds := m.ctl.Kinds()
	panels := make([]string, 0, len(kinds))
	for _, k := range kinds {
		panels = append(panels, m.zones.Mark(k.String(), m.panel(k)))
	}

	sections := []string{arrange(panels, m.width)}
	if m.showHealth {
		sections = append(sections, m.renderHealth(kinds))
	}
	sections = append(sections, m.renderFooter())
	return m.zones.Scan(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m Model) panel(k indicator.Kind) string {
	h := m.health[k.String()]
	body, ok := m.cells[k]
	if !ok || body == "" {
		body = blank(8, 4)
	}
	cols := lipgloss.Width(body)

	border := dim(colorStopped)
	state := h.Lifecycle.String()
	switch {
	case h.Frozen:
		border, state = colorFrozen, "frozen"
	case h.Lifecycle == indicator.Running:
		border = colorRunning
	}

	title := styleTitle.Render(sectionTitle(fmt.Sprintf("%s %s", k, state), cols))
	return panelStyle(border).Render(lipgloss.JoinVertical(lipgloss.Left, title, body))
}

func (m Model) renderHealth(kinds []indicator.Kind) string {
	var b strings.Builder
	for i, k := range kinds {
		if i > 0 {
			b.WriteByte('\n')
		}
		h := m.health[k.String()]
		fmt.Fprintf(&b, "%-9s every %s ticks=%d sampler_failures=%d render_failures=%d p50=%s p99=%s history=%d/%d",
			k, h.Interval, h.Ticks, h.SamplerFailures, h.RenderFailures,
			format.FormatMicros(h.P50Micros), format.FormatMicros(h.P99Micros),
			h.HistoryLen, h.HistoryCap)
		if !h.LastTick.IsZero() {
			fmt.Fprintf(&b, " last=%s", format.FormatTimeSince(h.LastTick))
		}
		if sh := h.Sampler; sh != nil {
			fmt.Fprintf(&b, " breaker=%s failures=%d", sh.State, sh.ConsecutiveFailures)
			if sh.RetryIn != "" {
				fmt.Fprintf(&b, " retry_in=%s", sh.RetryIn)
			}
		}
	}
	return styleHealth.Render(b.String())
}

func (m Model) renderFooter() string {
	footer := m.help.View(keys)
	if m.lastErr != nil {
		footer = lipgloss.JoinVertical(lipgloss.Left, styleError.Render(displaycolor.StripANSI(m.lastErr.Error())), footer)
	}
	return styleFooter.Render(footer)
}

// Run starts the dashboard in the alternate screen with mouse support and
// blocks until the user quits.
func Run(m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
