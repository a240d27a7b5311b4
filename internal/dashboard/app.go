// Package dashboard implements the supervisor TUI (spec §4.H): a live
// table of agent workspaces with a preview pane, a full diff viewer, and a
// hunk-by-hunk patch mode, built with bubbletea the way the teacher's
// internal/tui/convoy model is: a mutex-guarded Model polled by a periodic
// tick rather than pushed updates.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/workmux/workmux/internal/difftool"
	"github.com/workmux/workmux/internal/mux"
	"github.com/workmux/workmux/internal/prmeta"
	"github.com/workmux/workmux/internal/store"
	"github.com/workmux/workmux/internal/vcs"
	"github.com/workmux/workmux/internal/wmconfig"
)

// tickInterval matches the spec's ~50ms dashboard refresh cadence.
const tickInterval = 50 * time.Millisecond

// SortMode controls the table's ordering.
type SortMode int

const (
	SortByHandle SortMode = iota
	SortByStatus
	SortByLastChange
)

// AgentRow is one rendered row of the dashboard table, reconciled from the
// store on every tick.
type AgentRow struct {
	Handle     string
	Branch     string
	Path       string
	PaneID     string
	Status     store.Status
	LastChange time.Time
	PR         string
}

// DiffView holds the state of the full-screen diff/patch overlay.
type DiffView struct {
	Content       string
	Title         string
	WorktreePath  string
	PaneID        string
	IsBranchDiff  bool
	LinesAdded    int
	LinesRemoved  int
	Scroll        int
	ViewportH     int
	PatchMode     bool
	Hunks         []difftool.Hunk
	StagedHunks   []difftool.Hunk
	CurrentHunk   int
	HunksTotal    int
	HunksProcess  int
	CommentInput  *string
	FileList      []string
}

// Model is the dashboard's bubbletea model. mu guards every field View()
// reads, matching the teacher's convoy.Model convention.
type Model struct {
	mu sync.RWMutex

	ctx     context.Context
	backend mux.Backend
	store   *store.Store
	vcsImpl vcs.VCS
	config  *wmconfig.Config
	prFetch *prmeta.Fetcher

	agents    []AgentRow
	selected  int
	sortMode  SortMode
	staleOnly bool

	diff       *DiffView
	inputMode  bool
	showHelp   bool
	quitting   bool
	err        error
	help       help.Model

	width, height int
}

// New builds a dashboard model over the given backend, store, and VCS.
func New(ctx context.Context, backend mux.Backend, st *store.Store, v vcs.VCS, cfg *wmconfig.Config) *Model {
	return &Model{
		ctx:     ctx,
		backend: backend,
		store:   st,
		vcsImpl: v,
		config:  cfg,
		prFetch: prmeta.NewFetcher(),
		help:    help.New(),
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.reconcileCmd(), tickCmd())
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type reconcileMsg struct {
	agents []AgentRow
	err    error
}

func (m *Model) reconcileCmd() tea.Cmd {
	return func() tea.Msg {
		reconciler := store.NewReconciler(m.store, m.backend)
		records, err := reconciler.Reconcile(m.ctx)
		if err != nil {
			return reconcileMsg{err: err}
		}
		rows := make([]AgentRow, 0, len(records))
		for _, rec := range records {
			rows = append(rows, AgentRow{
				Handle:     rec.Handle,
				Branch:     rec.Branch,
				Path:       rec.Path,
				PaneID:     rec.Key.PaneID,
				Status:     rec.Status,
				LastChange: rec.LastChange,
			})
		}
		return reconcileMsg{agents: rows}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.mu.Lock()
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.mu.Unlock()
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.reconcileCmd(), m.refreshPRsCmd(), tickCmd())

	case reconcileMsg:
		m.mu.Lock()
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.applySortAndFilterLocked(msg.agents)
		}
		m.mu.Unlock()
		return m, nil

	case prmeta.Result:
		m.mu.Lock()
		for i := range m.agents {
			if m.agents[i].Branch == msg.Branch {
				m.agents[i].PR = msg.Label
			}
		}
		m.mu.Unlock()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) refreshPRsCmd() tea.Cmd {
	m.mu.RLock()
	branches := make([]string, 0, len(m.agents))
	for _, a := range m.agents {
		if a.Branch != "" {
			branches = append(branches, a.Branch)
		}
	}
	fetcher := m.prFetch
	m.mu.RUnlock()
	if fetcher == nil || len(branches) == 0 {
		return nil
	}
	return func() tea.Msg {
		return fetcher.FetchOne(m.ctx, branches[0])
	}
}

func (m *Model) applySortAndFilterLocked(agents []AgentRow) {
	if m.staleOnly {
		filtered := agents[:0]
		for _, a := range agents {
			if a.Status == store.StatusStalled || a.Status == store.StatusCrashed {
				filtered = append(filtered, a)
			}
		}
		agents = filtered
	}
	switch m.sortMode {
	case SortByStatus:
		sort.SliceStable(agents, func(i, j int) bool { return agents[i].Status < agents[j].Status })
	case SortByLastChange:
		sort.SliceStable(agents, func(i, j int) bool { return agents[i].LastChange.After(agents[j].LastChange) })
	default:
		sort.SliceStable(agents, func(i, j int) bool { return agents[i].Handle < agents[j].Handle })
	}
	m.agents = agents
	if m.selected >= len(agents) {
		m.selected = len(agents) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx := m.contextLocked()
	decoded := ActionForKey(ctx, msg)
	refresh := m.applyActionLocked(decoded)
	if m.quitting {
		return m, tea.Quit
	}
	if refresh {
		return m, m.reconcileCmd()
	}
	return m, nil
}

func (m *Model) contextLocked() Context {
	switch {
	case m.diff == nil:
		if m.inputMode {
			return ContextDashboardInput
		}
		return ContextDashboardNormal
	case m.diff.CommentInput != nil:
		return ContextComment
	case m.diff.PatchMode:
		return ContextPatch
	default:
		return ContextDiffNormal
	}
}

func (m *Model) View() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.render()
}

func (m *Model) sendKeysToSelectedLocked(keys string) {
	if m.selected < 0 || m.selected >= len(m.agents) {
		return
	}
	agent := m.agents[m.selected]
	if agent.PaneID == "" || keys == "" {
		return
	}
	_ = m.backend.SendKeysToAgent(m.ctx, agent.PaneID, keys, m.config.Agent)
}

func fmtDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh", int(d.Hours()))
}

func truncate(s string, width int) string {
	if width <= 0 || len(s) <= width {
		return s
	}
	if width <= 1 {
		return strings.Repeat(".", width)
	}
	return "…" + s[len(s)-width+1:]
}
