package tui

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/user/flowblocs/internal/canvas"
	"github.com/user/flowblocs/internal/config"
	"github.com/user/flowblocs/internal/db"
	"github.com/user/flowblocs/internal/notion"
	"github.com/user/flowblocs/internal/sync"
)

type view int

const (
	viewDatabases view = iota
	viewPages
	viewBlocks
)

type model struct {
	cfg         *config.Config
	store       *db.Store
	engine      *sync.Engine
	board       *canvas.Board
	searchInput textinput.Model
	list        list.Model
	content     viewport.Model
	view        view
	databases   []db.Database
	pages       []db.Page
	database    *db.Database
	page        *db.Page
	width       int
	height      int
	searching   bool
	loading     bool
	status      string
	err         error
}

type databaseItem struct {
	database db.Database
}

func (d databaseItem) Title() string {
	icon := d.database.Icon
	if icon == "" {
		icon = "📄"
	}
	return fmt.Sprintf("%s %s", icon, d.database.Title)
}

func (d databaseItem) Description() string {
	return fmt.Sprintf("%d pages", d.database.PageCount)
}

func (d databaseItem) FilterValue() string {
	return d.database.Title
}

type pageItem struct {
	page db.Page
}

func (p pageItem) Title() string {
	icon := p.page.Icon
	if icon == "" {
		icon = "📄"
	}
	return fmt.Sprintf("%s %s", icon, p.page.Title)
}

func (p pageItem) Description() string {
	if p.page.HasChildren {
		return fmt.Sprintf("%d sub-pages", p.page.ChildCount)
	}
	return p.page.URL
}

func (p pageItem) FilterValue() string {
	return p.page.Title
}

func initialModel(cfg *config.Config) model {
	ti := textinput.New()
	ti.Placeholder = "Search databases..."
	ti.CharLimit = 256
	ti.Width = 50

	delegate := list.NewDefaultDelegate()
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Flowblocs"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	return model{
		cfg:         cfg,
		searchInput: ti,
		list:        l,
		content:     viewport.New(0, 0),
		loading:     true,
	}
}

type initMsg struct {
	store     *db.Store
	engine    *sync.Engine
	board     *canvas.Board
	databases []db.Database
	err       error
}

type databasesMsg struct {
	databases []db.Database
	err       error
}

type pagesMsg struct {
	pages []db.Page
	err   error
}

type blocksMsg struct {
	blocks []db.Block
	err    error
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.initStore,
	)
}

func (m model) initStore() tea.Msg {
	store, err := db.NewStore(m.cfg.DataDir)
	if err != nil {
		return initMsg{err: err}
	}

	client := notion.NewClient(notion.ClientOptions{
		BaseURL:       m.cfg.Notion.BaseURL,
		TokenProvider: notion.StaticToken(m.cfg.Notion.Token),
		APIVersion:    m.cfg.Notion.Version,
	})
	engine := sync.NewEngine(client, store, sync.Options{TTL: m.cfg.CacheTTL()})

	board, err := canvas.NewBoard(store, canvas.Options{Debounce: m.cfg.CanvasDebounce()})
	if err != nil {
		return initMsg{store: store, err: err}
	}

	databases, err := engine.Databases(context.Background(), false)
	if err != nil {
		return initMsg{store: store, engine: engine, board: board, err: err}
	}

	return initMsg{store: store, engine: engine, board: board, databases: databases}
}

func (m model) loadDatabases(force bool) tea.Cmd {
	return func() tea.Msg {
		databases, err := m.engine.Databases(context.Background(), force)
		return databasesMsg{databases: databases, err: err}
	}
}

func (m model) searchDatabases(query string) tea.Cmd {
	return func() tea.Msg {
		if strings.TrimSpace(query) == "" {
			databases, err := m.engine.Databases(context.Background(), false)
			return databasesMsg{databases: databases, err: err}
		}
		databases, err := m.store.SearchDatabases(query)
		return databasesMsg{databases: databases, err: err}
	}
}

func (m model) loadPages(databaseID string, force bool) tea.Cmd {
	return func() tea.Msg {
		pages, err := m.engine.DatabasePages(context.Background(), databaseID, force)
		return pagesMsg{pages: pages, err: err}
	}
}

func (m model) loadBlocks(pageID string, force bool) tea.Cmd {
	return func() tea.Msg {
		blocks, err := m.engine.PageBlocks(context.Background(), pageID, force)
		return blocksMsg{blocks: blocks, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m.quit()
		case "q":
			if !m.searching {
				return m.quit()
			}
		case "esc":
			if m.searching {
				m.searching = false
				m.searchInput.Blur()
				return m, m.loadDatabases(false)
			}
			switch m.view {
			case viewBlocks:
				m.view = viewPages
				m.page = nil
				return m, nil
			case viewPages:
				m.view = viewDatabases
				m.database = nil
				m.list.SetItems(m.databasesToItems(m.databases))
				m.list.Title = "Flowblocs"
				return m, nil
			}
		case "/":
			if m.view == viewDatabases && !m.searching {
				m.searching = true
				m.searchInput.Focus()
				return m, textinput.Blink
			}
		case "enter":
			if m.searching {
				m.searching = false
				m.searchInput.Blur()
				return m, m.searchDatabases(m.searchInput.Value())
			}
			return m.drillDown()
		case "r":
			if !m.searching && m.engine != nil {
				m.loading = true
				switch m.view {
				case viewDatabases:
					return m, m.loadDatabases(true)
				case viewPages:
					return m, m.loadPages(m.database.ID, true)
				case viewBlocks:
					return m, m.loadBlocks(m.page.ID, true)
				}
			}
		case "a":
			if !m.searching && m.view == viewPages {
				if item, ok := m.list.SelectedItem().(pageItem); ok {
					m.board.Add(db.CanvasNode{
						ID:         item.page.ID,
						PageID:     item.page.ID,
						DatabaseID: item.page.DatabaseID,
						Title:      item.page.Title,
					})
					m.status = fmt.Sprintf("Added %q to canvas", item.page.Title)
					return m, nil
				}
			}
		case "o":
			if !m.searching {
				switch item := m.list.SelectedItem().(type) {
				case databaseItem:
					openBrowser(item.database.URL)
				case pageItem:
					openBrowser(item.page.URL)
				}
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-6)
		m.content.Width = msg.Width
		m.content.Height = msg.Height - 6
		m.searchInput.Width = msg.Width - 20

	case initMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.store = msg.store
			m.engine = msg.engine
			m.board = msg.board
			return m, nil
		}
		m.store = msg.store
		m.engine = msg.engine
		m.board = msg.board
		m.databases = msg.databases
		m.list.SetItems(m.databasesToItems(msg.databases))

	case databasesMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.databases = msg.databases
		m.list.SetItems(m.databasesToItems(msg.databases))

	case pagesMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.pages = msg.pages
		m.view = viewPages
		m.list.SetItems(m.pagesToItems(msg.pages))
		if m.database != nil {
			m.list.Title = m.database.Title
		}

	case blocksMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.view = viewBlocks
		m.content.SetContent(renderBlocks(msg.blocks))
		m.content.GotoTop()
	}

	if m.searching {
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		cmds = append(cmds, cmd)
	} else if m.view == viewBlocks {
		var cmd tea.Cmd
		m.content, cmd = m.content.Update(msg)
		cmds = append(cmds, cmd)
	} else {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m model) quit() (tea.Model, tea.Cmd) {
	if m.board != nil {
		m.board.Flush()
	}
	return m, tea.Quit
}

func (m model) drillDown() (tea.Model, tea.Cmd) {
	switch m.view {
	case viewDatabases:
		if item, ok := m.list.SelectedItem().(databaseItem); ok {
			database := item.database
			m.database = &database
			m.loading = true
			return m, m.loadPages(database.ID, false)
		}
	case viewPages:
		if item, ok := m.list.SelectedItem().(pageItem); ok {
			page := item.page
			m.page = &page
			m.loading = true
			return m, m.loadBlocks(page.ID, false)
		}
	}
	return m, nil
}

func (m model) databasesToItems(databases []db.Database) []list.Item {
	items := make([]list.Item, 0, len(databases))
	for _, d := range databases {
		items = append(items, databaseItem{database: d})
	}
	return items
}

func (m model) pagesToItems(pages []db.Page) []list.Item {
	items := make([]list.Item, 0, len(pages))
	for _, p := range pages {
		items = append(items, pageItem{page: p})
	}
	return items
}

func renderBlocks(blocks []db.Block) string {
	var b strings.Builder
	for _, blk := range blocks {
		switch blk.Type {
		case "heading_1":
			b.WriteString("# " + blk.Content)
		case "heading_2":
			b.WriteString("## " + blk.Content)
		case "heading_3":
			b.WriteString("### " + blk.Content)
		case "bulleted_list_item":
			b.WriteString("• " + blk.Content)
		case "numbered_list_item":
			b.WriteString("- " + blk.Content)
		case "to_do":
			box := "[ ]"
			if blk.Metadata.Checked != nil && *blk.Metadata.Checked {
				box = "[x]"
			}
			b.WriteString(box + " " + blk.Content)
		case "quote":
			b.WriteString("> " + blk.Content)
		case "code":
			b.WriteString("```" + blk.Metadata.Language + "\n" + blk.Content + "\n```")
		case "divider":
			b.WriteString("───")
		default:
			b.WriteString(blk.Content)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress r to retry, q to quit.", m.err)
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("86")).
		Bold(true)

	if m.searching {
		searchStyle := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
		b.WriteString(searchStyle.Render(m.searchInput.View()))
		b.WriteString("\n\n")
	}

	if m.loading {
		b.WriteString(titleStyle.Render("Loading..."))
		b.WriteString("\n\n")
	}

	switch m.view {
	case viewBlocks:
		if m.page != nil {
			b.WriteString(titleStyle.Render(m.page.Title))
			b.WriteString("\n\n")
		}
		b.WriteString(m.content.View())
	default:
		b.WriteString(m.list.View())
	}

	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		MarginTop(1)

	var help string
	switch m.view {
	case viewDatabases:
		help = "[Enter]open [/]search [r]efresh [o]pen in browser [q]uit"
	case viewPages:
		help = "[Enter]open [a]dd to canvas [r]efresh [o]pen in browser [Esc]back [q]uit"
	case viewBlocks:
		help = "[j/k]scroll [r]efresh [Esc]back [q]uit"
	}
	if m.status != "" {
		help = m.status + "  " + help
	}
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	}
	if cmd != nil {
		cmd.Start()
	}
}

// Run starts the TUI application
func Run(cfg *config.Config) error {
	p := tea.NewProgram(initialModel(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
