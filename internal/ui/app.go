package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/five82/squadboard/internal/banana"
	"github.com/five82/squadboard/internal/prefs"
	"github.com/five82/squadboard/internal/state"
	"github.com/five82/squadboard/internal/workflow"
)

// focusArea is the component receiving key input.
type focusArea int

const (
	focusCatalog focusArea = iota
	focusSearch
	focusSubmit
	focusRefine
)

// Options configures the UI.
type Options struct {
	Context     context.Context
	API         banana.API
	Session     *state.Session
	Logger      zerolog.Logger
	Server      string
	ArtifactURL func(rel string) string
	Prefs       prefs.Prefs
	PrefsPath   string
}

// Model is the root application state for Bubble Tea. The session it
// wraps is only touched from Update.
type Model struct {
	ctx         context.Context
	api         banana.API
	session     *state.Session
	logger      zerolog.Logger
	server      string
	artifactURL func(string) string
	prefs       prefs.Prefs
	prefsPath   string

	theme  Theme
	keys   keyMap
	help   help.Model
	width  int
	height int
	ready  bool
	now    time.Time

	focus    focusArea
	selected int
	showHelp bool

	search  textinput.Model
	detail  viewport.Model
	spinner spinner.Model

	submit      *workflow.SubmitForm
	submitField int
	promptInput textinput.Model
	attachInput textinput.Model
	attachErr   string

	refine      *workflow.RefineForms
	refineKey   workflow.RefineKey
	refineInput textinput.Model
	variant     int

	status string
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	session := opts.Session
	if session == nil {
		session = state.NewSession(opts.Logger, state.Options{Sort: opts.Prefs.Sort})
	}
	artifactURL := opts.ArtifactURL
	if artifactURL == nil {
		artifactURL = func(rel string) string { return rel }
	}

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search prompts"
	search.CharLimit = 200

	prompt := textinput.New()
	prompt.Prompt = "prompt  "
	prompt.Placeholder = "describe the image"
	prompt.CharLimit = 2000

	attach := textinput.New()
	attach.Prompt = "attach  "
	attach.Placeholder = "path to a reference image, ctrl+o to stage"

	refine := textinput.New()
	refine.Prompt = "refine  "
	refine.Placeholder = "optional instruction, enter to send"
	refine.CharLimit = 500

	spin := spinner.New()
	spin.Spinner = spinner.MiniDot

	return Model{
		ctx:         ctx,
		api:         opts.API,
		session:     session,
		logger:      opts.Logger,
		server:      opts.Server,
		artifactURL: artifactURL,
		prefs:       opts.Prefs,
		prefsPath:   opts.PrefsPath,
		theme:       GetTheme(opts.Prefs.Theme),
		keys:        DefaultKeyMap(),
		help:        help.New(),
		now:         time.Now(),
		search:      search,
		detail:      viewport.New(0, 0),
		spinner:     spin,
		submit:      workflow.NewSubmitForm(opts.Prefs.AspectRatio, opts.Prefs.Resolution),
		promptInput: prompt,
		attachInput: attach,
		refine:      workflow.NewRefineForms(),
		refineInput: refine,
	}
}

// Session returns the wrapped session.
func (m Model) Session() *state.Session { return m.session }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(clockCmd(), m.spinner.Tick)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.resize()
		return m, nil

	case clockMsg:
		m.now = time.Time(msg)
		return m, clockCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case EventMsg:
		effects := m.session.Apply(msg.Event)
		m.clampSelection()
		m.refreshDetail()
		return m, m.runEffects(effects)

	case ConnMsg:
		effects := m.session.SetConnected(msg.Connected)
		m.refreshDetail()
		return m, m.runEffects(effects)

	case detailMsg:
		m.session.ResolveDetail(msg.fetch, msg.detail, msg.err)
		m.refreshDetail()
		return m, nil

	case catalogMsg:
		m.session.ApplyCatalog(msg.query, msg.rows, msg.err)
		m.clampSelection()
		return m, nil

	case searchDueMsg:
		if q, ok := m.session.Catalog.Due(msg.gen); ok {
			return m, m.loadCatalog(q)
		}
		return m, nil

	case submitMsg:
		return m.handleSubmitResult(msg)

	case refineMsg:
		return m.handleRefineResult(msg)
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.focus == focusSubmit {
		return m.renderSubmit()
	}
	return m.renderMain()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch m.focus {
	case focusSearch:
		return m.handleSearchKey(msg)
	case focusSubmit:
		return m.handleSubmitKey(msg)
	case focusRefine:
		return m.handleRefineKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		m.refreshDetail()
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		if m.session.Expanded() != "" {
			m.session.Collapse()
			m.refreshDetail()
		}
		m.status = ""
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.focus = focusSearch
		cmd := m.search.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Sort):
		next := state.NextSortKey(m.session.Catalog.Sort())
		m.prefs.Sort = next
		m.savePrefs()
		return m, m.loadCatalog(m.session.Catalog.SetSort(next))

	case key.Matches(msg, m.keys.Reload):
		return m, m.loadCatalog(m.session.Catalog.Reload())

	case key.Matches(msg, m.keys.NewJob):
		m.focus = focusSubmit
		m.submitField = 0
		m.attachInput.Blur()
		cmd := m.promptInput.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Refresh):
		if id := m.session.Expanded(); id != "" {
			return m, m.runEffects(m.session.Expand(id, true))
		}
		return m, nil

	case key.Matches(msg, m.keys.Expand):
		return m.toggleExpand()

	case key.Matches(msg, m.keys.PrevVariant):
		m.moveVariant(-1)
		return m, nil

	case key.Matches(msg, m.keys.NextVariant):
		m.moveVariant(1)
		return m, nil

	case key.Matches(msg, m.keys.Refine):
		return m.openRefine()

	case key.Matches(msg, m.keys.HalfPageUp):
		m.detail.HalfPageUp()
		return m, nil

	case key.Matches(msg, m.keys.HalfPageDown):
		m.detail.HalfPageDown()
		return m, nil
	}

	return m.handleCatalogKey(msg)
}

func (m Model) handleCatalogKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.session.CatalogJobs())
	if count == 0 {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.selected < count-1 {
			m.selected++
		}
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Top):
		m.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selected = count - 1
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter":
		m.focus = focusCatalog
		m.search.Blur()
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() == before {
		return m, cmd
	}
	gen := m.session.Catalog.SetSearch(m.search.Value())
	return m, tea.Batch(cmd, searchDebounceCmd(m.session.Catalog.Debounce(), gen))
}

func (m Model) toggleExpand() (tea.Model, tea.Cmd) {
	job, ok := m.selectedJob()
	if !ok {
		return m, nil
	}
	if m.session.Expanded() == job.JobID {
		m.session.Collapse()
		m.refreshDetail()
		return m, nil
	}
	m.variant = 0
	effects := m.session.Expand(job.JobID, false)
	m.refreshDetail()
	m.detail.GotoTop()
	return m, m.runEffects(effects)
}

func (m *Model) moveVariant(delta int) {
	detail, _ := m.session.ExpandedDetail()
	if detail == nil || len(detail.Images) == 0 {
		return
	}
	m.variant = (m.variant + delta + len(detail.Images)) % len(detail.Images)
	m.refreshDetail()
}

func (m *Model) selectedJob() (state.Job, bool) {
	jobs := m.session.CatalogJobs()
	if m.selected < 0 || m.selected >= len(jobs) {
		return state.Job{}, false
	}
	return jobs[m.selected], true
}

func (m *Model) clampSelection() {
	count := len(m.session.CatalogJobs())
	if m.selected >= count {
		m.selected = count - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m *Model) savePrefs() {
	if strings.TrimSpace(m.prefsPath) == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.logger.Warn().Err(err).Str("path", m.prefsPath).Msg("save prefs failed")
	}
}

// resize recomputes component sizes after a window change.
func (m *Model) resize() {
	w, h := m.detailSize()
	m.detail.Width = w
	m.detail.Height = h
	inputWidth := m.width - 16
	if inputWidth < 20 {
		inputWidth = 20
	}
	m.search.Width = inputWidth / 2
	m.promptInput.Width = inputWidth
	m.attachInput.Width = inputWidth
	m.refineInput.Width = inputWidth
	m.refreshDetail()
}

// NewProgram wraps the model in a full-screen program bound to ctx. Push
// events reach the model through Program.Send.
func NewProgram(ctx context.Context, m Model, opts ...tea.ProgramOption) *tea.Program {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	return tea.NewProgram(m, opts...)
}
