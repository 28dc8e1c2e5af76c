// Package tui provides the interactive Bubble Tea dashboard for riskboard.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/riskboard/internal/cli"
	"github.com/theirongolddev/riskboard/internal/config"
	"github.com/theirongolddev/riskboard/internal/model"
	"github.com/theirongolddev/riskboard/internal/pipeline"
	"github.com/theirongolddev/riskboard/internal/store"
	"github.com/theirongolddev/riskboard/internal/tui/components"
	"github.com/theirongolddev/riskboard/internal/tui/theme"
)

// DataLoadedMsg is sent when the first evaluation pass finishes.
type DataLoadedMsg struct {
	Result   *pipeline.LoadResult
	Err      error
	LoadTime time.Duration
}

// ProgressMsg reports evaluation progress.
type ProgressMsg struct {
	Current int
	Total   int
}

// RefreshDataMsg is sent when a background refresh completes.
type RefreshDataMsg struct {
	Result   *pipeline.LoadResult
	Err      error
	LoadTime time.Duration
}

// Options configures a dashboard session.
type Options struct {
	Store     store.Store
	Evaluator *pipeline.Evaluator
	Config    config.Config
	// ConfigPath is where settings edits are saved; empty uses the default path.
	ConfigPath  string
	Directorate string
	Status      string
	Category    string
}

// App is the root Bubble Tea model.
type App struct {
	st         store.Store
	ev         *pipeline.Evaluator
	cfg        config.Config
	configPath string

	// Data
	result   *pipeline.LoadResult
	loaded   bool
	loadErr  error
	loadTime time.Duration

	// Auto-refresh state
	autoRefresh     bool
	refreshInterval time.Duration
	lastRefresh     time.Time
	refreshing      bool

	// Pre-computed for current filter
	filtered  []model.Project
	byID      map[string]model.Project
	ranked    []model.ProjectRisk
	stats     model.PortfolioStats
	prevStats *model.PortfolioStats
	dirs      []model.DirectorateStats
	dist      model.PortfolioDistribution

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	// Filter state
	directorate string
	status      string
	category    string

	// Per-tab state
	proj      projectsState
	dirCursor int
	settings  settingsState

	// Setup wizard (huh form), first run or settings edit
	setupForm *huh.Form
	setupVals SetupValues
	needSetup bool

	// Loading, channel-based progress subscription
	spinner     spinner.Model
	progress    int
	progressMax int
	loadSub     chan tea.Msg
}

const (
	tabOverview = iota
	tabProjects
	tabDirectorates
	tabSettings
)

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	scrollOverhead    = 10
	minHalfPageScroll = 1
	minContentHeight  = 5

	minRefreshInterval = 10 * time.Second
)

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	ev := opts.Evaluator
	if ev == nil {
		ev = pipeline.NewEvaluator(opts.Config.Thresholds)
	}

	refreshInterval := time.Duration(opts.Config.TUI.RefreshIntervalSec) * time.Second
	if refreshInterval < minRefreshInterval {
		refreshInterval = 30 * time.Second
	}

	return App{
		st:              opts.Store,
		ev:              ev,
		cfg:             opts.Config,
		configPath:      opts.ConfigPath,
		directorate:     opts.Directorate,
		status:          opts.Status,
		category:        opts.Category,
		needSetup:       opts.ConfigPath == "" && !config.Exists(),
		autoRefresh:     opts.Config.TUI.AutoRefresh,
		refreshInterval: refreshInterval,
		spinner:         sp,
		loadSub:         make(chan tea.Msg, 1),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadDataCmd(a.st, a.ev, a.loadSub),
		a.spinner.Tick,
		tickCmd(),
	)
}

// recompute applies the active filters to the last load result.
func (a *App) recompute() {
	if a.result == nil {
		return
	}
	th := a.ev.Thresholds()

	a.filtered = pipeline.Filter(a.result.Projects, a.directorate, a.status, a.category)
	a.byID = make(map[string]model.Project, len(a.filtered))
	for _, p := range a.filtered {
		a.byID[p.ID] = p
	}

	ranked := make([]model.ProjectRisk, 0, len(a.filtered))
	for _, pr := range a.result.Evaluated {
		if _, ok := a.byID[pr.ProjectID]; ok {
			ranked = append(ranked, pr)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].ProjectID < ranked[j].ProjectID
	})
	a.ranked = ranked

	a.stats = pipeline.AggregatePortfolio(a.filtered, th)
	a.dirs = pipeline.AggregateByDirectorate(a.filtered, th)
	a.dist = pipeline.Distribution(a.filtered, th)

	a.proj.cursor = min(a.proj.cursor, len(a.ranked)-1)
	a.proj.cursor = max(a.proj.cursor, 0)
	a.dirCursor = min(a.dirCursor, len(a.dirs)-1)
	a.dirCursor = max(a.dirCursor, 0)
}

// directorateChoices lists the directorates present in the loaded data, sorted.
func (a App) directorateChoices() []string {
	if a.result == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, p := range a.result.Projects {
		key := strings.ToLower(p.Directorate)
		if _, ok := seen[key]; ok || p.Directorate == "" {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p.Directorate)
	}
	sort.Strings(out)
	return out
}

// cycleDirectorate steps the directorate filter through All and each directorate.
func (a *App) cycleDirectorate() {
	choices := a.directorateChoices()
	if len(choices) == 0 {
		return
	}
	next := ""
	if a.directorate == "" {
		next = choices[0]
	} else {
		for i, d := range choices {
			if strings.EqualFold(d, a.directorate) && i+1 < len(choices) {
				next = choices[i+1]
				break
			}
		}
	}
	a.directorate = next
	a.proj.cursor, a.proj.offset, a.proj.detailScroll = 0, 0, 0
	a.recompute()
}

func (a App) filterLabel() string {
	var parts []string
	for _, f := range []string{a.directorate, a.status, a.category} {
		if f != "" && !strings.EqualFold(f, "all") {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " · ")
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.setupForm != nil {
			return a, nil
		}
		return a.updateMouse(msg)

	case tea.KeyMsg:
		return a.updateKey(msg)

	case DataLoadedMsg:
		a.loaded = true
		a.loadTime = msg.LoadTime
		a.lastRefresh = time.Now()
		a.loadErr = msg.Err
		if msg.Err == nil {
			a.result = msg.Result
			a.recompute()
		}

		if a.needSetup {
			a.openSetupForm()
			return a, a.setupForm.Init()
		}
		return a, nil

	case ProgressMsg:
		a.progress = msg.Current
		a.progressMax = msg.Total
		return a, waitForLoadMsg(a.loadSub)

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if a.loaded && a.autoRefresh && !a.refreshing && time.Since(a.lastRefresh) >= a.refreshInterval {
			a.refreshing = true
			cmds = append(cmds, refreshDataCmd(a.st, a.ev))
		}
		return a, tea.Batch(cmds...)

	case RefreshDataMsg:
		a.refreshing = false
		a.lastRefresh = time.Now()
		a.loadErr = msg.Err
		if msg.Err == nil && msg.Result != nil {
			prev := a.stats
			a.prevStats = &prev
			a.result = msg.Result
			a.loadTime = msg.LoadTime
			a.recompute()
		}
		return a, nil
	}

	// Forward unhandled messages to the setup form (cursor blinks, etc.)
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		switch a.activeTab {
		case tabProjects:
			a.moveProjectCursor(-1)
		case tabDirectorates:
			a.dirCursor = max(a.dirCursor-1, 0)
		}
	case tea.MouseButtonWheelDown:
		switch a.activeTab {
		case tabProjects:
			a.moveProjectCursor(1)
		case tabDirectorates:
			a.dirCursor = min(a.dirCursor+1, max(len(a.dirs)-1, 0))
		}
	case tea.MouseButtonLeft:
		if msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}
	if !a.loaded {
		return a, nil
	}

	// Setup wizard intercepts all keys
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch a.activeTab {
	case tabProjects:
		if handled := a.updateProjectsKey(key); handled {
			return a, nil
		}
	case tabDirectorates:
		switch key {
		case "j", "down":
			a.dirCursor = min(a.dirCursor+1, max(len(a.dirs)-1, 0))
			return a, nil
		case "k", "up":
			a.dirCursor = max(a.dirCursor-1, 0)
			return a, nil
		case "enter":
			if a.dirCursor < len(a.dirs) {
				a.directorate = a.dirs[a.dirCursor].Directorate
				a.activeTab = tabProjects
				a.proj = projectsState{}
				a.recompute()
			}
			return a, nil
		}
	case tabSettings:
		if m, cmd, handled := a.updateSettingsKey(key); handled {
			return m, cmd
		}
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		if !a.refreshing {
			a.refreshing = true
			return a, refreshDataCmd(a.st, a.ev)
		}
		return a, nil
	case "R":
		a.autoRefresh = !a.autoRefresh
		a.cfg.TUI.AutoRefresh = a.autoRefresh
		_ = a.saveConfig()
		return a, nil
	case "f":
		a.cycleDirectorate()
		return a, nil
	case "esc":
		if a.filterLabel() != "" {
			a.directorate, a.status, a.category = "", "", ""
			a.proj = projectsState{}
			a.recompute()
		}
		return a, nil
	case "left":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		return a, nil
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	}

	if len(msg.Runes) == 1 {
		if idx := components.TabIdxByKey(msg.Runes[0]); idx >= 0 {
			a.activeTab = idx
		}
	}
	return a, nil
}

func (a *App) openSetupForm() {
	a.setupVals = SetupValuesFrom(a.cfg)
	count := -1
	if a.result != nil {
		count = len(a.result.Projects)
	}
	a.setupForm = NewSetupForm(count, &a.setupVals)
	if a.width > 0 {
		a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
	}
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.needSetup = false
		a.setupForm = nil
		a.settings.saved = false
		a.settings.saveErr = a.setupVals.Apply(&a.cfg)
		if a.settings.saveErr != nil {
			return a, nil
		}
		theme.SetActive(a.cfg.Appearance.Theme)
		a.ev.SetThresholds(a.cfg.Thresholds)
		a.settings.saveErr = a.saveConfig()
		a.settings.saved = a.settings.saveErr == nil
		// Tiers depend on thresholds, so re-evaluate.
		a.refreshing = true
		return a, refreshDataCmd(a.st, a.ev)
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

func (a App) saveConfig() error {
	if a.configPath != "" {
		return config.SaveTo(a.configPath, a.cfg)
	}
	return config.Save(a.cfg)
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  riskboard needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	countStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ riskboard"))
	b.WriteString(subtitleStyle.Render(" · Project KPI & Risk"))
	b.WriteString("\n\n")

	if a.progressMax > 0 {
		barW := max(20, min(40, a.width-30))
		pct := float64(a.progress) / float64(a.progressMax)
		b.WriteString(a.spinner.View())
		b.WriteString(subtitleStyle.Render(" Evaluating projects\n\n"))
		b.WriteString(components.ProgressBar(pct, barW))
		b.WriteString("\n")
		b.WriteString(countStyle.Render(cli.FormatNumber(int64(a.progress))))
		b.WriteString(subtitleStyle.Render(" / "))
		b.WriteString(countStyle.Render(cli.FormatNumber(int64(a.progressMax))))
	} else {
		b.WriteString(a.spinner.View())
		b.WriteString(subtitleStyle.Render(" Loading projects..."))
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

type binding struct{ key, desc string }

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	section := func(b *strings.Builder, title string, binds []binding) {
		b.WriteString(sectionStyle.Render(title))
		b.WriteString("\n")
		for _, bind := range binds {
			fmt.Fprintf(b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")
	section(&b, "Navigation", []binding{
		{"o p d x", "Jump to tab"},
		{"← →", "Previous / Next tab"},
		{"j k", "Navigate lists"},
		{"J K", "Scroll detail pane"},
		{"^d ^u", "Half-page scroll"},
	})
	b.WriteString("\n")
	section(&b, "Actions", []binding{
		{"f", "Cycle directorate filter"},
		{"Esc", "Clear filters"},
		{"Enter", "Drill into directorate"},
		{"e", "Edit settings"},
		{"r", "Refresh data"},
		{"R", "Toggle auto-refresh"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	})
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.activeTab, w)

	statusBar := components.RenderStatusBar(w, components.StatusInfo{
		DataAge:     a.dataAge(),
		Refreshing:  a.refreshing,
		AutoRefresh: a.autoRefresh,
		HighRisk:    a.stats.HighRisk,
		Filter:      a.filterLabel(),
	})

	contentH := max(h-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch {
	case a.loadErr != nil && a.result == nil:
		content = components.ContentCard("Load failed", a.loadErr.Error(), cw)
	default:
		switch a.activeTab {
		case tabOverview:
			content = a.renderOverviewTab(cw)
		case tabProjects:
			content = a.renderProjectsTab(cw, contentH)
		case tabDirectorates:
			content = a.renderDirectoratesTab(cw)
		case tabSettings:
			content = a.renderSettingsTab(cw)
		}
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) dataAge() string {
	if a.lastRefresh.IsZero() {
		return ""
	}
	age := time.Since(a.lastRefresh).Truncate(time.Second)
	if a.loadErr != nil {
		return "stale " + age.String()
	}
	return age.String()
}

// ─── Data loading ───────────────────────────────────────────────

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// loadDataCmd starts the evaluation pipeline in a background goroutine.
// It streams ProgressMsg updates and a final DataLoadedMsg through sub.
func loadDataCmd(st store.Store, ev *pipeline.Evaluator, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			start := time.Now()

			// Non-blocking send so workers aren't stalled; the next update catches up.
			progressFn := func(current, total int) {
				select {
				case sub <- ProgressMsg{Current: current, Total: total}:
				default:
				}
			}

			res, err := pipeline.Load(context.Background(), st, ev, progressFn)
			sub <- DataLoadedMsg{Result: res, Err: err, LoadTime: time.Since(start)}
		}()

		return <-sub
	}
}

// waitForLoadMsg blocks until the next message arrives from the loader goroutine.
func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

// refreshDataCmd re-evaluates the store in the background (no progress UI).
// Unchanged projects are served from the evaluator's memo.
func refreshDataCmd(st store.Store, ev *pipeline.Evaluator) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		res, err := pipeline.Load(ctx, st, ev, nil)
		return RefreshDataMsg{Result: res, Err: err, LoadTime: time.Since(start)}
	}
}

// ─── Helpers ────────────────────────────────────────────────────

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
func (a App) tabAtX(x int) int {
	return components.TabAt(x, a.activeTab)
}
