package tui

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/docchat/cli/config"
	"github.com/docchat/cli/internal/api"
	"github.com/docchat/cli/internal/documents"
	"github.com/docchat/cli/internal/session"
	"github.com/docchat/cli/internal/store"
)

// App represents the main TUI application using tview
type App struct {
	app    *tview.Application
	pages  *tview.Pages
	cfg    *config.Config
	logger *zap.Logger

	sess        *session.Session
	convClient  *api.Client
	authClient  *api.AuthClient
	queryClient *api.QueryClient
	inspector   *documents.Inspector
	store       *store.Store

	user *api.UserProfile

	// Views
	loginView     *LoginView
	dashboardView *DashboardView
	chatView      *ChatView
	historyView   *HistoryView
	importView    *ImportView
	settingsView  *SettingsView
}

// NewApp creates a new TUI application
func NewApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	sess := session.New(cfg.Auth.TokenPath)

	app := &App{
		cfg:         cfg,
		logger:      logger,
		sess:        sess,
		convClient:  api.NewClient(cfg.Services.ConversationURL, sess),
		authClient:  api.NewAuthClient(cfg.Services.AuthURL, sess),
		queryClient: api.NewQueryClient(cfg.Services.QueryURL, sess),
		inspector:   documents.NewInspector(),
	}
	app.store = store.New(app.convClient, logger)

	// Initialize tview application
	app.app = tview.NewApplication()
	app.pages = tview.NewPages()

	// Initialize views
	app.loginView = NewLoginView(app)
	app.dashboardView = NewDashboardView(app)
	app.chatView = NewChatView(app)
	app.historyView = NewHistoryView(app)
	app.importView = NewImportView(app)
	app.settingsView = NewSettingsView(app)

	// Add pages
	app.pages.AddPage("login", app.loginView.GetPrimitive(), true, true)
	app.pages.AddPage("dashboard", app.dashboardView.GetPrimitive(), true, false)
	app.pages.AddPage("chat", app.chatView.GetPrimitive(), true, false)
	app.pages.AddPage("history", app.historyView.GetPrimitive(), true, false)
	app.pages.AddPage("import", app.importView.GetPrimitive(), true, false)
	app.pages.AddPage("settings", app.settingsView.GetPrimitive(), true, false)

	// Set root
	app.app.SetRoot(app.pages, true).SetFocus(app.pages)

	// Set focus to the right widget when switching pages
	app.pages.SetChangedFunc(func() {
		name, _ := app.pages.GetFrontPage()
		switch name {
		case "chat":
			app.app.SetFocus(app.chatView.input)
			app.chatView.renderMessages()
		case "history":
			app.historyView.render()
		}
	})

	// A rejected token anywhere drops the user back to the login screen.
	expired := func() {
		app.app.QueueUpdateDraw(func() {
			app.user = nil
			app.loginView.setStatus("[red]Session expired. Please log in again.")
			app.pages.SwitchToPage("login")
		})
	}
	app.convClient.OnAuthExpired(expired)
	app.authClient.OnAuthExpired(expired)
	app.queryClient.OnAuthExpired(expired)

	// Set up global key handlers
	app.setupGlobalKeys()

	// Validate a stored token in the background and skip the login screen
	// when it still works.
	if sess.Authenticated() {
		go app.resumeSession()
	}

	return app, nil
}

// resumeSession validates an existing token and enters the app on success.
func (a *App) resumeSession() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	user, err := a.authClient.CurrentUser(ctx)
	if err != nil {
		a.logger.Warn("stored token rejected", zap.Error(err))
		return
	}

	a.app.QueueUpdateDraw(func() {
		a.enterApp(user)
	})
}

// enterApp switches to the dashboard after successful authentication and
// kicks off the first conversation fetch.
func (a *App) enterApp(user *api.UserProfile) {
	a.user = user
	a.pages.SwitchToPage("dashboard")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := a.store.FetchConversations(ctx); err != nil {
			a.logger.Warn("initial conversation fetch failed", zap.Error(err))
		}
		a.app.QueueUpdateDraw(func() {
			a.historyView.render()
		})
	}()
}

// setupGlobalKeys sets up global keyboard shortcuts
func (a *App) setupGlobalKeys() {
	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		name, _ := a.pages.GetFrontPage()

		// Login and chat have their own input handling; only intercept the
		// escape hatches there.
		if name == "login" || name == "chat" || name == "import" {
			switch event.Key() {
			case tcell.KeyCtrlC:
				a.app.Stop()
				return nil
			case tcell.KeyEsc:
				if name != "login" {
					a.pages.SwitchToPage("dashboard")
					return nil
				}
			}
			return event
		}

		switch event.Key() {
		case tcell.KeyCtrlC:
			a.app.Stop()
			return nil
		case tcell.KeyEsc:
			if name == "dashboard" {
				a.app.Stop()
				return nil
			}
			a.pages.SwitchToPage("dashboard")
			return nil
		}

		// Number keys for navigation
		switch event.Rune() {
		case '0':
			a.pages.SwitchToPage("dashboard")
			return nil
		case '1':
			a.pages.SwitchToPage("chat")
			return nil
		case '2':
			a.pages.SwitchToPage("history")
			return nil
		case '3':
			a.pages.SwitchToPage("import")
			return nil
		case '4':
			a.pages.SwitchToPage("settings")
			return nil
		}

		return event
	})
}

// Run starts the TUI application
func (a *App) Run() error {
	return a.app.Run()
}
