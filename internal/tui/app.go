package tui

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/derailed/tview"
	"github.com/mhidalgo/inboxq/internal/config"
	"github.com/mhidalgo/inboxq/internal/gateway"
	"github.com/mhidalgo/inboxq/internal/services"
)

const (
	pageMain    = "main"
	pageModal   = "modal"
	flashLinger = 3 * time.Second
)

// App encapsulates the terminal UI and the chat session services
type App struct {
	*tview.Application

	config *config.Config

	// Services
	session   services.SessionService
	history   services.HistoryService
	analytics services.AnalyticsService
	access    services.AccessService
	syncSvc   services.SyncService
	prefs     services.PrefsService

	ctx    context.Context
	cancel context.CancelFunc

	// Views
	pages        *tview.Pages
	chatView     *tview.TextView
	input        *tview.InputField
	historyList  *tview.List
	suggestions  *tview.TextView
	progressLine *tview.TextView
	statusLine   *tview.TextView

	// Theme
	themeLoader *config.ThemeLoader
	scheme      *config.ColorScheme
	darkMode    bool

	// Debug logging
	logger  *log.Logger
	logFile *os.File

	// UI state mirrors of service state
	mu      sync.RWMutex
	records []gateway.ChatRecord
	typing  bool
	rate    services.TypingRate

	flashGen uint64
}

// NewApp creates the application shell and wires the service observers
func NewApp(cfg *config.Config, session services.SessionService, history services.HistoryService,
	analytics services.AnalyticsService, access services.AccessService, syncSvc services.SyncService,
	prefs services.PrefsService) *App {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		Application: tview.NewApplication(),
		config:      cfg,
		session:     session,
		history:     history,
		analytics:   analytics,
		access:      access,
		syncSvc:     syncSvc,
		prefs:       prefs,
		ctx:         ctx,
		cancel:      cancel,
	}
	a.initLogger()

	a.darkMode = prefs != nil && prefs.DarkMode(ctx)
	a.themeLoader = config.NewThemeLoader(themesDir(cfg))
	a.scheme = a.loadScheme()

	a.buildLayout()
	a.bindKeys()
	a.wireObservers()
	a.applyTheme()

	return a
}

// Run starts the session and the UI event loop, blocking until quit
func (a *App) Run(userID string) error {
	go func() {
		if err := a.session.Start(a.ctx, userID); err != nil && a.logger != nil {
			a.logger.Printf("session start failed: %v", err)
		}
	}()
	go a.runEmailSync()

	defer a.closeLogger()
	defer a.cancel()
	return a.Application.Run()
}

// buildLayout assembles the main page: history panel beside the chat panel,
// with the progress and status lines above and below
func (a *App) buildLayout() {
	a.chatView = tview.NewTextView()
	a.chatView.SetDynamicColors(true)
	a.chatView.SetWordWrap(true)
	a.chatView.SetBorder(true)
	a.chatView.SetTitle(" Email Assistant ")

	a.input = tview.NewInputField()
	a.input.SetLabel(" > ")
	a.input.SetPlaceholder("Ask about your emails...")
	a.input.SetFieldWidth(0)
	a.input.SetDoneFunc(a.onInputDone)

	a.historyList = tview.NewList()
	a.historyList.ShowSecondaryText(true)
	a.historyList.SetBorder(true)
	a.historyList.SetTitle(" Email Queries ")
	a.historyList.SetSelectedFunc(a.onHistorySelected)

	a.suggestions = tview.NewTextView()
	a.suggestions.SetDynamicColors(true)
	a.suggestions.SetBorder(true)
	a.suggestions.SetTitle(" Suggestions ")

	a.progressLine = tview.NewTextView()
	a.progressLine.SetDynamicColors(true)

	a.statusLine = tview.NewTextView()
	a.statusLine.SetDynamicColors(true)
	a.statusLine.SetTextAlign(tview.AlignCenter)

	chatPanel := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.chatView, 0, 1, false).
		AddItem(a.suggestions, 5, 0, false).
		AddItem(a.input, 1, 0, true)

	body := tview.NewFlex().
		AddItem(a.historyList, 0, 1, false).
		AddItem(chatPanel, 0, 3, true)

	main := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.progressLine, 1, 0, false).
		AddItem(body, 0, 1, true).
		AddItem(a.statusLine, 1, 0, false)

	a.pages = tview.NewPages()
	a.pages.AddPage(pageMain, main, true, true)

	a.SetRoot(a.pages, true)
	a.SetFocus(a.input)

	a.renderSuggestions()
	a.renderTimeline(nil)
}

// wireObservers subscribes the UI to service publications. All callbacks fire
// from background goroutines, so updates go through QueueUpdateDraw.
func (a *App) wireObservers() {
	a.session.OnTimeline(func(msgs []services.Message) {
		a.QueueUpdateDraw(func() { a.renderTimeline(msgs) })
	})
	a.session.OnTyping(func(typing bool) {
		a.mu.Lock()
		a.typing = typing
		a.mu.Unlock()
		a.QueueUpdateDraw(func() { a.renderTimeline(a.session.Messages()) })
	})
	a.session.OnRate(func(rate services.TypingRate) {
		a.mu.Lock()
		a.rate = rate
		a.mu.Unlock()
		a.QueueUpdateDraw(func() { a.renderTimeline(a.session.Messages()) })
	})
	a.session.OnNotice(func(text string) {
		a.QueueUpdateDraw(func() { a.showBlockedPopup(text) })
	})
	a.history.OnUpdate(func(records []gateway.ChatRecord) {
		a.mu.Lock()
		a.records = records
		a.mu.Unlock()
		a.QueueUpdateDraw(func() {
			a.renderHistory(records)
			a.renderSuggestions()
		})
	})
	if a.syncSvc != nil {
		a.syncSvc.OnProgress(func(progress int) {
			a.QueueUpdateDraw(func() { a.renderSyncProgress(progress) })
		})
	}
}

// runEmailSync fires the mailbox re-index the session opens with
func (a *App) runEmailSync() {
	if a.syncSvc == nil {
		return
	}
	if err := a.syncSvc.Run(a.ctx); err != nil {
		a.flash("[red]Email sync failed[-]")
	}
}

// flash shows a transient message on the status line
func (a *App) flash(text string) {
	a.mu.Lock()
	a.flashGen++
	myGen := a.flashGen
	a.mu.Unlock()

	// Runs off the event loop so it is safe from both key handlers and
	// background goroutines
	go func() {
		a.QueueUpdateDraw(func() { a.statusLine.SetText(text) })
		time.Sleep(flashLinger)
		a.mu.RLock()
		stale := a.flashGen != myGen
		a.mu.RUnlock()
		if stale {
			return
		}
		a.QueueUpdateDraw(func() { a.statusLine.SetText("") })
	}()
}

// themesDir resolves the theme directory from config, defaulting next to the
// config file
func themesDir(cfg *config.Config) string {
	if cfg != nil && cfg.Theme.Dir != "" {
		return cfg.Theme.Dir
	}
	if p := config.DefaultConfigPath(); p != "" {
		return filepath.Join(filepath.Dir(p), "themes")
	}
	return "themes"
}

// loadScheme resolves the active color scheme: theme file when present,
// built-in scheme otherwise
func (a *App) loadScheme() *config.ColorScheme {
	name := a.config.Theme.Light
	fallback := config.DefaultLightScheme()
	if a.darkMode {
		name = a.config.Theme.Dark
		fallback = config.DefaultDarkScheme()
	}
	if name != "" {
		if scheme, err := a.themeLoader.LoadThemeFromFile(name); err == nil {
			return scheme
		}
	}
	return fallback
}

// applyTheme recolors the chrome from the active scheme
func (a *App) applyTheme() {
	bg := a.scheme.Background.Color()
	text := a.scheme.Text.Color()
	border := a.scheme.Border.Color()
	title := a.scheme.Title.Color()

	for _, tv := range []*tview.TextView{a.chatView, a.suggestions, a.progressLine, a.statusLine} {
		tv.SetBackgroundColor(bg)
		tv.SetTextColor(text)
		tv.SetBorderColor(border)
		tv.SetTitleColor(title)
	}
	a.historyList.SetBackgroundColor(bg)
	a.historyList.SetMainTextColor(text)
	a.historyList.SetSecondaryTextColor(border)
	a.historyList.SetBorderColor(border)
	a.historyList.SetTitleColor(title)
	a.input.SetFieldBackgroundColor(bg)
	a.input.SetFieldTextColor(text)
	a.input.SetLabelColor(title)
}

// toggleDarkMode flips and persists the dark-mode preference
func (a *App) toggleDarkMode() {
	a.darkMode = !a.darkMode
	if a.prefs != nil {
		if err := a.prefs.SetDarkMode(a.ctx, a.darkMode); err != nil && a.logger != nil {
			a.logger.Printf("failed to persist dark mode: %v", err)
		}
	}
	a.scheme = a.loadScheme()
	a.applyTheme()
	if a.darkMode {
		a.flash("Dark mode on")
	} else {
		a.flash("Dark mode off")
	}
}
