// Package dash implements the live savings dashboard.
package dash

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"

	"github.com/quelsh/winnow/internal/render"
	"github.com/quelsh/winnow/internal/stats"
	"github.com/quelsh/winnow/internal/tracker"
)

// recentLimit is how many invocations the activity panel shows.
const recentLimit = 10

// chartDays is the window of the saved-units chart.
const chartDays = 14

// Source is the slice of the store the dashboard reads.
type Source interface {
	All() ([]tracker.Record, error)
	Recent(limit int) ([]tracker.Record, error)
	Path() string
}

// dataLoadedMsg carries a refreshed snapshot.
type dataLoadedMsg struct {
	rows   []stats.PeriodStats
	recent []tracker.Record
	err    error
}

// storeChangedMsg fires when the store file changes on disk.
type storeChangedMsg struct{}

// Model is the dashboard bubbletea model.
type Model struct {
	source  Source
	watcher *fsnotify.Watcher

	spinner spinner.Model
	rows    []stats.PeriodStats
	recent  []tracker.Record

	loading bool
	errMsg  string
	width   int
	height  int
}

// NewModel builds the dashboard over the given store. The fsnotify watch
// covers the store's directory since sqlite swaps files on checkpoint.
func NewModel(source Source) (*Model, error) {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(render.Primary)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create store watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(source.Path())); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch store directory: %w", err)
	}

	return &Model{
		source:  source,
		watcher: watcher,
		spinner: s,
		loading: true,
	}, nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, loadDataCmd(m.source)}
	if m.watcher != nil {
		cmds = append(cmds, waitForChangeCmd(m.watcher, m.source.Path()))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.watcher != nil {
				_ = m.watcher.Close()
			}
			return m, tea.Quit
		case "r":
			m.loading = true
			return m, loadDataCmd(m.source)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case dataLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.rows = msg.rows
		m.recent = msg.recent
		return m, nil

	case storeChangedMsg:
		m.loading = true
		cmds := []tea.Cmd{loadDataCmd(m.source)}
		if m.watcher != nil {
			cmds = append(cmds, waitForChangeCmd(m.watcher, m.source.Path()))
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

// loadDataCmd reads the store and rolls it up by day.
func loadDataCmd(source Source) tea.Cmd {
	return func() tea.Msg {
		records, err := source.All()
		if err != nil {
			return dataLoadedMsg{err: err}
		}
		recent, err := source.Recent(recentLimit)
		if err != nil {
			return dataLoadedMsg{err: err}
		}
		return dataLoadedMsg{
			rows:   stats.Aggregate(records, stats.Daily),
			recent: recent,
		}
	}
}

// waitForChangeCmd blocks until the store file changes. Write bursts are
// debounced so one invocation does not trigger a refresh per WAL page.
func waitForChangeCmd(watcher *fsnotify.Watcher, storePath string) tea.Cmd {
	return func() tea.Msg {
		base := filepath.Base(storePath)
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Base(event.Name) != base && filepath.Base(event.Name) != base+"-wal" {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				time.Sleep(100 * time.Millisecond)
				drain(watcher)
				return storeChangedMsg{}
			case _, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
			}
		}
	}
}

func drain(watcher *fsnotify.Watcher) {
	for {
		select {
		case <-watcher.Events:
		default:
			return
		}
	}
}

// Run starts the dashboard program.
func Run(source Source) error {
	m, err := NewModel(source)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
