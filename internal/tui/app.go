package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/arun279/notebook-sources/internal/domain"
	"github.com/arun279/notebook-sources/internal/search"
	"github.com/arun279/notebook-sources/internal/service"
	"github.com/arun279/notebook-sources/internal/tui/components"
)

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateFilter
	StateSwitcher
	StatePrompt
	StateConfirmDelete
	StateHelp
)

// promptKind distinguishes what the text prompt is collecting
type promptKind int

const (
	promptParseURL promptKind = iota
	promptRename
)

// jobRun tracks the live machinery attached to one outstanding job: the
// poll loop (always) and the push stream (scrape jobs only).
type jobRun struct {
	job     domain.Job
	cancel  context.CancelFunc
	updates chan service.PollUpdate
	stream  domain.ProgressStream
}

// Options configures the TUI model.
type Options struct {
	SummaryInterval time.Duration
	Aggressive      bool
	DownloadDir     string
}

// Model is the main Bubble Tea model for the application
type Model struct {
	// Application state
	State ApplicationState
	Keys  KeyMap
	Ready bool

	// Services
	CollectionSvc *service.CollectionService
	Registry      *service.Registry
	Poller        *service.Poller
	Client        domain.SourceClient
	Selection     *service.Selection

	opts Options

	// Data
	collections []domain.Collection
	activeCol   string // Collection whose records are in view
	records     []domain.Record

	// Outstanding job machinery, keyed by job id
	runs map[string]*jobRun

	// UI components
	filterInput textinput.Model
	promptInput textinput.Model
	switcher    components.Switcher
	progressBar progress.Model

	filterQuery  string
	prompt       promptKind
	confirmTgt   string // Collection pending delete confirmation
	colCursor    int
	recCursor    int
	focusRecords bool

	// UI state
	StatusMsg    string
	StatusIsErr  bool
	SpinnerFrame int
	Width        int
	Height       int
}

// NewModel creates the application model.
func NewModel(svc *service.CollectionService, registry *service.Registry, poller *service.Poller, client domain.SourceClient, opts Options) Model {
	if opts.SummaryInterval <= 0 {
		opts.SummaryInterval = 5 * time.Second
	}

	fi := textinput.New()
	fi.Placeholder = "Filter records..."
	fi.Prompt = "/ "
	fi.CharLimit = 100

	pi := textinput.New()
	pi.CharLimit = 500

	return Model{
		State:         StateBrowsing,
		Keys:          DefaultKeyMap(),
		CollectionSvc: svc,
		Registry:      registry,
		Poller:        poller,
		Client:        client,
		Selection:     service.NewSelection(),
		opts:          opts,
		runs:          make(map[string]*jobRun),
		filterInput:   fi,
		promptInput:   pi,
		switcher:      components.NewSwitcher(),
		progressBar:   progress.New(progress.WithDefaultGradient()),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		LoadCachedCollectionsCmd(m.CollectionSvc),
		SyncCollectionsCmd(m.CollectionSvc),
		summaryTickCmd(m.opts.SummaryInterval),
		spinnerTickCmd(),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.switcher.SetWidth(min(msg.Width-8, 64))
		m.progressBar.Width = min(msg.Width-30, 40)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case summaryTickMsg:
		return m, tea.Batch(
			SyncCollectionsCmd(m.CollectionSvc),
			summaryTickCmd(m.opts.SummaryInterval),
		)

	case spinnerTickMsg:
		m.SpinnerFrame++
		return m, spinnerTickCmd()

	case CollectionsSyncedMsg:
		return m.handleCollectionsSynced(msg)

	case RecordsLoadedMsg:
		if msg.CollectionID == m.activeCol {
			m.records = msg.Records
			m.clampRecordCursor()
		}
		return m, nil

	case ParseSubmittedMsg:
		m.setStatus(fmt.Sprintf("Parsing %s…", msg.Job.SourceURL), false)
		return m, m.startJob(msg.Job, false)

	case ScrapeSubmittedMsg:
		// Round-trip contract: the selection empties on submission no
		// matter how the scrape job itself ends up.
		m.Selection.Clear()
		m.setStatus(fmt.Sprintf("Scraping %d records…", len(msg.Job.RecordIDs)), false)
		return m, m.startJob(msg.Job, true)

	case PollUpdateMsg:
		return m.handlePollUpdate(msg.Update)

	case PollFinishedMsg:
		m.dropRun(msg.JobID)
		return m, nil

	case pushOpenedMsg:
		if run, ok := m.runs[msg.JobID]; ok {
			run.stream = msg.Stream
			return m, listenPushCmd(msg.JobID, msg.Stream)
		}
		// Job already retired before the channel opened.
		msg.Stream.Close()
		return m, nil

	case PushEventMsg:
		return m.handlePushEvent(msg)

	case PushClosedMsg:
		// Channel dropped or completed. Either way the poller, if the job
		// is still outstanding, remains the channel of record.
		if run, ok := m.runs[msg.JobID]; ok {
			run.stream = nil
		}
		return m, nil

	case RefreshRequestedMsg:
		for i := range m.collections {
			if m.collections[i].ID == msg.CollectionID {
				m.collections[i].Refreshing = true
			}
		}
		m.setStatus("Refresh requested", false)
		return m, nil

	case RenamedMsg:
		for i := range m.collections {
			if m.collections[i].ID == msg.Collection.ID {
				m.collections[i].Title = msg.Collection.Title
			}
		}
		m.setStatus("Renamed", false)
		return m, nil

	case DeletedMsg:
		if m.activeCol == msg.CollectionID {
			m.activeCol = ""
			m.records = nil
			m.Selection.Clear()
		}
		m.setStatus("Collection deleted", false)
		return m, SyncCollectionsCmd(m.CollectionSvc)

	case DownloadedMsg:
		m.setStatus("Saved "+msg.Path, false)
		return m, nil

	case ErrMsg:
		if errors.Is(msg.Err, domain.ErrRefreshPending) {
			// Not an error: the action is disabled mid-reconciliation.
			m.setStatus("Refresh already in progress", false)
			return m, nil
		}
		m.setStatus(msg.Error(), true)
		return m, nil
	}

	return m, nil
}

// handleCollectionsSynced merges a reconciled summary snapshot into view
// state. Cache-served snapshots never overwrite a fresher server one.
func (m Model) handleCollectionsSynced(msg CollectionsSyncedMsg) (tea.Model, tea.Cmd) {
	if msg.FromCache && len(m.collections) > 0 {
		return m, nil
	}
	m.collections = msg.Collections
	if m.colCursor >= len(m.collections) {
		m.colCursor = max(len(m.collections)-1, 0)
	}
	for _, id := range msg.Completed {
		m.setStatus("Refresh complete: "+m.collectionTitle(id), false)
	}

	// A finished refresh means the record set may have changed under us.
	var cmds []tea.Cmd
	for _, id := range msg.Completed {
		if id == m.activeCol {
			cmds = append(cmds, LoadRecordsCmd(m.CollectionSvc, id))
		}
	}
	return m, tea.Batch(cmds...)
}

// handlePollUpdate applies one poll observation.
func (m Model) handlePollUpdate(update service.PollUpdate) (tea.Model, tea.Cmd) {
	run, tracked := m.runs[update.JobID]

	if update.Err != nil {
		// Unexpected transport error: display and keep polling.
		m.setStatus(update.Err.Error(), true)
		if tracked {
			return m, listenPollCmd(update.JobID, run.updates)
		}
		return m, nil
	}

	if !tracked {
		// Late result for a retired job: discard, no state update.
		return m, nil
	}

	m.Registry.SetProgress(update.JobID, update.Percent)
	run.job.Progress = update.Percent

	var cmds []tea.Cmd

	// Merge record statuses from the snapshot into the viewed collection.
	if update.Kind == domain.JobScrape && m.activeCol != "" && len(update.Items) > 0 {
		merged := m.CollectionSvc.ApplyProgress(m.activeCol, update.Items)
		if merged != nil {
			m.records = merged
		}
	}

	if update.Done {
		switch update.Kind {
		case domain.JobParse:
			m.setStatus("Parse complete", false)
			cmds = append(cmds, SyncCollectionsCmd(m.CollectionSvc))
		case domain.JobScrape:
			m.setStatus("Scrape complete", false)
			cmds = append(cmds, SyncCollectionsCmd(m.CollectionSvc))
			if m.activeCol != "" {
				cmds = append(cmds, LoadRecordsCmd(m.CollectionSvc, m.activeCol))
			}
		}
		m.retireJob(update.JobID)
		return m, tea.Batch(cmds...)
	}

	cmds = append(cmds, listenPollCmd(update.JobID, run.updates))
	return m, tea.Batch(cmds...)
}

// handlePushEvent applies one push-channel event. Events may duplicate
// polling observations; every branch tolerates replay.
func (m Model) handlePushEvent(msg PushEventMsg) (tea.Model, tea.Cmd) {
	run, tracked := m.runs[msg.JobID]

	switch msg.Event.Event {
	case domain.EventRecordDone:
		var cmds []tea.Cmd
		if tracked && run.stream != nil {
			cmds = append(cmds, listenPushCmd(msg.JobID, run.stream))
		}
		if colID, ok := m.CollectionSvc.FindRecordCollection(msg.Event.RecordID); ok {
			// Targeted re-fetch of the owning collection.
			cmds = append(cmds, LoadRecordsCmd(m.CollectionSvc, colID))
		} else {
			// Unknown record: re-fetch broadly rather than dropping the event.
			cmds = append(cmds, SyncCollectionsCmd(m.CollectionSvc))
			if m.activeCol != "" {
				cmds = append(cmds, LoadRecordsCmd(m.CollectionSvc, m.activeCol))
			}
		}
		return m, tea.Batch(cmds...)

	case domain.EventJobComplete:
		m.retireJob(msg.JobID)
		m.setStatus("Scrape complete", false)
		var cmds []tea.Cmd
		cmds = append(cmds, SyncCollectionsCmd(m.CollectionSvc))
		if m.activeCol != "" {
			cmds = append(cmds, LoadRecordsCmd(m.CollectionSvc, m.activeCol))
		}
		return m, tea.Batch(cmds...)
	}

	if tracked && run.stream != nil {
		return m, listenPushCmd(msg.JobID, run.stream)
	}
	return m, nil
}

// startJob spawns the poll loop for a freshly submitted job and, for
// scrape jobs, opens the push channel beside it.
func (m *Model) startJob(job domain.Job, withPush bool) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	updates := make(chan service.PollUpdate, 8)

	m.runs[job.ID] = &jobRun{job: job, cancel: cancel, updates: updates}
	go m.Poller.Run(ctx, job, updates)

	cmds := []tea.Cmd{listenPollCmd(job.ID, updates)}
	if withPush {
		cmds = append(cmds, openPushCmd(m.Client, job.ID))
	}
	return tea.Batch(cmds...)
}

// retireJob stops a job's machinery and forgets it locally. Idempotent:
// the second terminal signal for the same job finds nothing to do.
func (m *Model) retireJob(jobID string) {
	m.Registry.Forget(jobID)
	m.dropRun(jobID)
}

func (m *Model) dropRun(jobID string) {
	run, ok := m.runs[jobID]
	if !ok {
		return
	}
	run.cancel()
	if run.stream != nil {
		run.stream.Close()
		run.stream = nil
	}
	delete(m.runs, jobID)
}

// shutdown tears down all live pollers and streams on exit.
func (m *Model) shutdown() {
	for id := range m.runs {
		m.dropRun(id)
	}
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.State {
	case StateFilter:
		return m.handleFilterKeys(msg)
	case StateSwitcher:
		return m.handleSwitcherKeys(msg)
	case StatePrompt:
		return m.handlePromptKeys(msg)
	case StateConfirmDelete:
		return m.handleConfirmKeys(msg)
	case StateHelp:
		if key.Matches(msg, m.Keys.Escape) || key.Matches(msg, m.Keys.Help) || key.Matches(msg, m.Keys.Quit) {
			m.State = StateBrowsing
		}
		return m, nil
	}
	return m.handleBrowsingKeys(msg)
}

func (m Model) handleBrowsingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := m.Keys

	switch {
	case key.Matches(msg, keys.Quit):
		m.shutdown()
		return m, tea.Quit

	case key.Matches(msg, keys.Help):
		m.State = StateHelp
		return m, nil

	case key.Matches(msg, keys.Up):
		if m.focusRecords {
			if m.recCursor > 0 {
				m.recCursor--
			}
		} else if m.colCursor > 0 {
			m.colCursor--
		}
		return m, nil

	case key.Matches(msg, keys.Down):
		if m.focusRecords {
			if m.recCursor < len(m.visibleRecords())-1 {
				m.recCursor++
			}
		} else if m.colCursor < len(m.collections)-1 {
			m.colCursor++
		}
		return m, nil

	case key.Matches(msg, keys.Left):
		m.focusRecords = false
		return m, nil

	case key.Matches(msg, keys.Right):
		if m.activeCol != "" {
			m.focusRecords = true
		}
		return m, nil

	case key.Matches(msg, keys.Enter):
		if !m.focusRecords {
			return m.openSelectedCollection()
		}
		return m, nil

	case key.Matches(msg, keys.Toggle):
		if m.focusRecords {
			visible := m.visibleRecords()
			if m.recCursor < len(visible) {
				m.Selection.Toggle(visible[m.recCursor].ID)
			}
		}
		return m, nil

	case key.Matches(msg, keys.SelectAll):
		// Derived toggle: everything visible already selected means clear.
		visible := search.IDs(m.visibleRecords())
		if m.Selection.ContainsAll(visible) {
			m.Selection.Clear()
		} else {
			m.Selection.SelectAll(visible)
		}
		return m, nil

	case key.Matches(msg, keys.Scrape):
		if m.Selection.Len() == 0 {
			m.setStatus("Nothing selected", false)
			return m, nil
		}
		return m, SubmitScrapeCmd(m.Registry, m.Selection.IDs(), m.opts.Aggressive)

	case key.Matches(msg, keys.Parse):
		m.State = StatePrompt
		m.prompt = promptParseURL
		m.promptInput.Placeholder = "Source URL to parse…"
		m.promptInput.SetValue("")
		m.promptInput.Focus()
		return m, nil

	case key.Matches(msg, keys.Refresh):
		col, ok := m.selectedCollection()
		if !ok {
			return m, nil
		}
		if col.Refreshing {
			// Disabled while a baseline exists; reissuing would clobber it.
			m.setStatus("Refresh already in progress", false)
			return m, nil
		}
		return m, RefreshCmd(m.CollectionSvc, col.ID)

	case key.Matches(msg, keys.Rename):
		col, ok := m.selectedCollection()
		if !ok {
			return m, nil
		}
		m.State = StatePrompt
		m.prompt = promptRename
		m.promptInput.Placeholder = "New title…"
		m.promptInput.SetValue(col.Title)
		m.promptInput.Focus()
		return m, nil

	case key.Matches(msg, keys.Delete):
		col, ok := m.selectedCollection()
		if !ok {
			return m, nil
		}
		m.State = StateConfirmDelete
		m.confirmTgt = col.ID
		return m, nil

	case key.Matches(msg, keys.Download):
		return m.handleDownload()

	case key.Matches(msg, keys.Filter):
		m.State = StateFilter
		m.filterInput.SetValue(m.filterQuery)
		m.filterInput.Focus()
		return m, nil

	case key.Matches(msg, keys.Switcher):
		m.State = StateSwitcher
		m.switcher.Show(m.collections)
		return m, nil

	case key.Matches(msg, keys.Escape):
		if m.filterQuery != "" {
			m.filterQuery = ""
			m.clampRecordCursor()
		}
		return m, nil
	}

	return m, nil
}

// handleDownload saves artifacts: the explicit selection when present,
// the whole collection when the sidebar has focus, otherwise the scraped
// subset of the filtered view.
func (m Model) handleDownload() (tea.Model, tea.Cmd) {
	if m.Selection.Len() > 0 {
		return m, DownloadRecordsCmd(m.CollectionSvc, m.Selection.IDs(), m.opts.DownloadDir)
	}

	if !m.focusRecords {
		col, ok := m.selectedCollection()
		if !ok {
			return m, nil
		}
		return m, DownloadCmd(m.CollectionSvc, col.ID, m.opts.DownloadDir)
	}

	scraped := search.ScrapedSubset(m.visibleRecords())
	if len(scraped) == 0 {
		m.setStatus("No scraped artifacts to download", false)
		return m, nil
	}
	return m, DownloadRecordsCmd(m.CollectionSvc, search.IDs(scraped), m.opts.DownloadDir)
}

func (m Model) handleFilterKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Escape):
		m.State = StateBrowsing
		m.filterQuery = ""
		m.filterInput.Blur()
		m.clampRecordCursor()
		return m, nil
	case key.Matches(msg, m.Keys.Enter):
		m.State = StateBrowsing
		m.filterInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.filterQuery = m.filterInput.Value()
	m.clampRecordCursor()
	return m, cmd
}

func (m Model) handleSwitcherKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Letters go to the query input; only untyped keys navigate.
	switch msg.String() {
	case "esc":
		m.State = StateBrowsing
		m.switcher.Hide()
		return m, nil
	case "up", "ctrl+k":
		m.switcher.MoveUp()
		return m, nil
	case "down", "ctrl+j":
		m.switcher.MoveDown()
		return m, nil
	case "enter":
		col, ok := m.switcher.Selected()
		m.State = StateBrowsing
		m.switcher.Hide()
		if !ok {
			return m, nil
		}
		for i, c := range m.collections {
			if c.ID == col.ID {
				m.colCursor = i
			}
		}
		return m.openSelectedCollection()
	}

	cmd := m.switcher.Update(msg)
	return m, cmd
}

func (m Model) handlePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Escape):
		m.State = StateBrowsing
		m.promptInput.Blur()
		return m, nil
	case key.Matches(msg, m.Keys.Enter):
		value := m.promptInput.Value()
		m.State = StateBrowsing
		m.promptInput.Blur()
		if value == "" {
			return m, nil
		}
		switch m.prompt {
		case promptParseURL:
			return m, SubmitParseCmd(m.Registry, value)
		case promptRename:
			if col, ok := m.selectedCollection(); ok {
				return m, RenameCmd(m.CollectionSvc, col.ID, value)
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.promptInput, cmd = m.promptInput.Update(msg)
	return m, cmd
}

func (m Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Confirm):
		target := m.confirmTgt
		m.State = StateBrowsing
		m.confirmTgt = ""
		return m, DeleteCmd(m.CollectionSvc, target)
	case key.Matches(msg, m.Keys.Deny):
		m.State = StateBrowsing
		m.confirmTgt = ""
		return m, nil
	}
	return m, nil
}

// openSelectedCollection switches the record pane to the collection under
// the cursor. Navigation away clears the previous selection set.
func (m Model) openSelectedCollection() (tea.Model, tea.Cmd) {
	col, ok := m.selectedCollection()
	if !ok {
		return m, nil
	}
	if m.activeCol != col.ID {
		m.Selection.Clear()
		m.filterQuery = ""
		m.recCursor = 0
	}
	m.activeCol = col.ID
	m.focusRecords = true

	// Serve cache first, refresh behind it.
	if cached, ok := m.CollectionSvc.CachedRecords(col.ID); ok {
		m.records = cached
	} else {
		m.records = nil
	}
	return m, LoadRecordsCmd(m.CollectionSvc, col.ID)
}

// === helpers ===

// visibleRecords applies the textual filter projection to current records.
func (m Model) visibleRecords() []domain.Record {
	return search.Filter(m.records, m.filterQuery)
}

func (m Model) selectedCollection() (domain.Collection, bool) {
	if m.colCursor >= len(m.collections) {
		return domain.Collection{}, false
	}
	return m.collections[m.colCursor], true
}

func (m Model) collectionTitle(id string) string {
	for _, c := range m.collections {
		if c.ID == id {
			return c.DisplayTitle()
		}
	}
	return id
}

func (m *Model) clampRecordCursor() {
	if n := len(m.visibleRecords()); m.recCursor >= n {
		m.recCursor = max(n-1, 0)
	}
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.StatusMsg = msg
	m.StatusIsErr = isErr
}
