package cli

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/kabelplan/pkg/export"
	"github.com/matzehuels/kabelplan/pkg/scene"
	"github.com/matzehuels/kabelplan/pkg/session"
	"github.com/matzehuels/kabelplan/pkg/viewport"
)

// Size of one terminal cell in canvas pixels. Pointer positions are
// converted with these factors before they reach the viewport controller.
const (
	cellWidth  = 8.0
	cellHeight = 16.0
)

// chromeRows is the number of terminal rows used by the header and footer.
const chromeRows = 2

var (
	viewDeviceStyle = lipgloss.NewStyle().Foreground(colorCyan)
	viewCableStyle  = lipgloss.NewStyle().Foreground(colorGray)
)

// viewCommand creates the view command: an interactive terminal viewport
// over a rendered topology file.
func (c *CLI) viewCommand() *cobra.Command {
	var ro renderOpts

	cmd := &cobra.Command{
		Use:   "view <file.json|file.yaml>",
		Short: "Pan and zoom a diagram in the terminal",
		Long: `View renders a topology file and shows it in the terminal. Drag with the
mouse to pan, scroll to zoom, press f to fit, r to reset, e to export the
current view as SVG and q to quit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runView(cmd.Context(), args[0], ro)
		},
	}
	addStrategyFlags(cmd, &ro.layout, &ro.router)
	cmd.Flags().StringVar(&ro.site, "site", "", "site label used for exported file names")
	cmd.Flags().BoolVar(&ro.strict, "strict-ports", false, "drop cables whose ports do not resolve")

	return cmd
}

func (c *CLI) runView(ctx context.Context, file string, ro renderOpts) error {
	opts := c.renderPipelineOptions(file, ro)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, true)
	if err != nil {
		return err
	}
	defer runner.Close()

	data, _, err := runner.Load(ctx, opts)
	if err != nil {
		return err
	}
	sess, err := runner.Build(ctx, data, opts)
	if err != nil {
		return err
	}

	m := newViewModel(sess, filepath.Base(file))
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return err
	}
	if vm, ok := final.(viewModel); ok && vm.exported != "" {
		printSuccess("Exported view")
		printFile(vm.exported)
	}
	return nil
}

// =============================================================================
// viewModel - interactive viewport
// =============================================================================

// viewKeys are the key bindings of the view command.
type viewKeys struct {
	Fit, Reset, ZoomIn, ZoomOut key.Binding
	Left, Right, Up, Down       key.Binding
	Export, Quit                key.Binding
}

var defaultViewKeys = viewKeys{
	Fit:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "fit")),
	Reset:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
	ZoomIn:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
	ZoomOut: key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
	Left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "pan")),
	Right:   key.NewBinding(key.WithKeys("right", "l")),
	Up:      key.NewBinding(key.WithKeys("up", "k")),
	Down:    key.NewBinding(key.WithKeys("down", "j")),
	Export:  key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export svg")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
}

func (k viewKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Fit, k.Reset, k.ZoomIn, k.ZoomOut, k.Export, k.Quit}
}

func (k viewKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Left, k.Right, k.Up, k.Down}}
}

// exportedMsg reports the result of an export started with "e".
type exportedMsg struct {
	path string
	err  error
}

// viewModel is the bubbletea model of the view command. The session's
// viewport controller holds the transform; the model only translates
// terminal events into controller calls.
type viewModel struct {
	sess     *session.Session
	title    string
	cols     int
	rows     int
	fitted   bool
	status   string
	exported string
	keys     viewKeys
	help     help.Model
}

func newViewModel(s *session.Session, title string) viewModel {
	return viewModel{
		sess:  s,
		title: title,
		cols:  80,
		rows:  24 - chromeRows,
		keys:  defaultViewKeys,
		help:  help.New(),
	}
}

func (m viewModel) Init() tea.Cmd {
	return nil
}

func (m viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	view := m.sess.Viewport()
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.cols = max(msg.Width, 1)
		m.help.Width = msg.Width
		m.rows = max(msg.Height-chromeRows, 1)
		m.sess.SetCanvas(float64(m.cols)*cellWidth, float64(m.rows)*cellHeight)
		if !m.fitted {
			m.sess.Fit()
			m.fitted = true
		}

	case tea.MouseMsg:
		x, y := paperLocal(view, float64(msg.X)*cellWidth, float64(msg.Y-1)*cellHeight)
		switch {
		case msg.Button == tea.MouseButtonWheelUp:
			view.Wheel(-1)
		case msg.Button == tea.MouseButtonWheelDown:
			view.Wheel(1)
		case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
			view.PointerDown(x, y)
		case msg.Action == tea.MouseActionMotion:
			view.PointerMove(x, y)
		case msg.Action == tea.MouseActionRelease:
			view.PointerUp()
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Fit):
			m.sess.Fit()
			m.status = "fitted"
		case key.Matches(msg, m.keys.Reset):
			view.Reset()
			m.status = "reset"
		case key.Matches(msg, m.keys.ZoomIn):
			view.Wheel(-1)
		case key.Matches(msg, m.keys.ZoomOut):
			view.Wheel(1)
		case key.Matches(msg, m.keys.Left):
			m.nudge(4, 0)
		case key.Matches(msg, m.keys.Right):
			m.nudge(-4, 0)
		case key.Matches(msg, m.keys.Up):
			m.nudge(0, 2)
		case key.Matches(msg, m.keys.Down):
			m.nudge(0, -2)
		case key.Matches(msg, m.keys.Export):
			m.status = "exporting..."
			w, h := m.sess.Canvas()
			return m, exportView(m.sess.Scene(), view.Transform(), m.sess.Site(), w, h)
		}

	case exportedMsg:
		if msg.err != nil {
			m.status = "export failed: " + describe(msg.err)
		} else {
			m.status = "exported " + msg.path
			m.exported = msg.path
		}
	}
	return m, nil
}

// nudge pans by a number of cells through a short pointer gesture, so
// keyboard panning follows the same scaling as mouse drags.
func (m viewModel) nudge(dc, dr int) {
	view := m.sess.Viewport()
	if view.State() == viewport.Panning {
		return
	}
	view.PointerDown(0, 0)
	view.PointerMove(paperLocal(view, float64(dc)*cellWidth, float64(dr)*cellHeight))
	view.PointerUp()
}

// paperLocal converts a canvas pixel position into the pointer space of
// the viewport controller, so a drag moves the diagram exactly as far as
// the mouse moved.
func paperLocal(view *viewport.Controller, x, y float64) (float64, float64) {
	s := view.Scale()
	return x / s, y / s
}

func (m viewModel) View() string {
	var b strings.Builder

	t := m.sess.Viewport().Transform()
	b.WriteString(StyleTitle.Render(m.title))
	if sc := m.sess.Scene(); sc != nil {
		b.WriteString(StyleDim.Render(fmt.Sprintf("  %d devices · %d cables", sc.Stats.Devices, sc.Stats.Cables)))
	}
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %3.0f%%", t.Scale*100)))
	b.WriteString("\n")

	for _, line := range rasterize(m.sess.Scene(), t, m.cols, m.rows) {
		b.WriteString(colorize(line))
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString(StyleDim.Render(m.status + "  "))
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// exportView writes the current view as SVG into the working directory.
// The scene is immutable and t is a copy, so the command may run while the
// model keeps handling input.
func exportView(sc *scene.Scene, t viewport.Transform, site string, w, h float64) tea.Cmd {
	return func() tea.Msg {
		var buf bytes.Buffer
		err := export.Write(context.Background(), &buf, export.FormatSVG, sc, t, export.Options{
			Width:  int(w),
			Height: int(h),
			Title:  export.Filename(site, export.FormatSVG),
		})
		if err != nil {
			return exportedMsg{err: err}
		}
		path := export.Filename(site, export.FormatSVG)
		return exportedMsg{path: path, err: os.WriteFile(path, buf.Bytes(), 0o644)}
	}
}

// =============================================================================
// Rasterizer
// =============================================================================

// rasterize draws sc under t onto a grid of cols×rows terminal cells.
// Cables are drawn first so device boxes cover them.
func rasterize(sc *scene.Scene, t viewport.Transform, cols, rows int) []string {
	grid := make([][]rune, rows)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", cols))
	}
	set := func(c, r int, ch rune) {
		if r >= 0 && r < rows && c >= 0 && c < cols {
			grid[r][c] = ch
		}
	}
	cell := func(x, y float64) (int, int) {
		return int(math.Floor(x / cellWidth)), int(math.Floor(y / cellHeight))
	}

	if sc != nil {
		for _, cb := range sc.Cables {
			for i := 1; i < len(cb.Points); i++ {
				a, b := t.Apply(cb.Points[i-1]), t.Apply(cb.Points[i])
				dx, dy := b.X-a.X, b.Y-a.Y
				ch := '│'
				if math.Abs(dx)/cellWidth >= math.Abs(dy)/cellHeight {
					ch = '─'
				}
				steps := int(math.Ceil(math.Max(math.Abs(dx)/cellWidth, math.Abs(dy)/cellHeight))) + 1
				for k := 0; k <= steps; k++ {
					f := float64(k) / float64(steps)
					c, r := cell(a.X+dx*f, a.Y+dy*f)
					set(c, r, ch)
				}
			}
		}

		for _, d := range sc.Devices {
			r := t.ApplyRect(d.Box)
			x0, y0 := cell(r.Left(), r.Top())
			x1, y1 := cell(r.Right(), r.Bottom())
			if x1-x0 < 2 || y1-y0 < 1 {
				set(x0, y0, '■')
				continue
			}
			for c := x0; c <= x1; c++ {
				for rr := y0; rr <= y1; rr++ {
					set(c, rr, ' ')
				}
				set(c, y0, '─')
				set(c, y1, '─')
			}
			for rr := y0; rr <= y1; rr++ {
				set(x0, rr, '│')
				set(x1, rr, '│')
			}
			set(x0, y0, '┌')
			set(x1, y0, '┐')
			set(x0, y1, '└')
			set(x1, y1, '┘')

			if y1-y0 >= 2 {
				name := []rune(d.Name)
				if room := x1 - x0 - 1; len(name) > room {
					name = name[:room]
				}
				for i, ch := range name {
					set(x0+1+i, y0+1, ch)
				}
			}
		}
	}

	lines := make([]string, rows)
	for i, row := range grid {
		lines[i] = string(row)
	}
	return lines
}

// colorize styles box-drawing runs as devices and cable runs as cables.
func colorize(line string) string {
	var b, run strings.Builder
	kind := 0
	flush := func() {
		switch kind {
		case 1:
			b.WriteString(viewDeviceStyle.Render(run.String()))
		case 2:
			b.WriteString(viewCableStyle.Render(run.String()))
		default:
			b.WriteString(run.String())
		}
		run.Reset()
	}
	for _, ch := range line {
		k := 0
		switch ch {
		case '┌', '┐', '└', '┘', '■':
			k = 1
		case '─', '│':
			k = 2
		}
		if k != kind {
			flush()
			kind = k
		}
		run.WriteRune(ch)
	}
	flush()
	return b.String()
}
