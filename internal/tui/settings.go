package tui

import (
	"fmt"

	"github.com/rivo/tview"
)

// SettingsView displays and edits service endpoints, and signs the user out.
type SettingsView struct {
	app  *App
	flex *tview.Flex
	form *tview.Form
	text *tview.TextView
}

// NewSettingsView creates a new settings view
func NewSettingsView(app *App) *SettingsView {
	sv := &SettingsView{app: app}

	sv.form = tview.NewForm().
		AddInputField("Conversation URL", app.cfg.Services.ConversationURL, 0, nil, func(text string) {
			app.cfg.Services.ConversationURL = text
		}).
		AddInputField("Auth URL", app.cfg.Services.AuthURL, 0, nil, func(text string) {
			app.cfg.Services.AuthURL = text
		}).
		AddInputField("Query URL", app.cfg.Services.QueryURL, 0, nil, func(text string) {
			app.cfg.Services.QueryURL = text
		}).
		AddButton("Save", func() {
			sv.saveSettings()
		}).
		AddButton("Logout", func() {
			sv.logout()
		})
	sv.form.SetBorder(true).SetTitle(" Service Endpoints ")

	sv.text = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true)
	sv.text.SetBorder(true).SetTitle(" Current Settings ")

	sv.flex = tview.NewFlex().
		AddItem(sv.form, 0, 1, true).
		AddItem(sv.text, 0, 1, false)

	sv.render()

	return sv
}

// GetPrimitive returns the tview primitive
func (sv *SettingsView) GetPrimitive() tview.Primitive {
	return sv.flex
}

// saveSettings persists the config file. Endpoint changes take effect on the
// next start; clients keep their base URL for the session.
func (sv *SettingsView) saveSettings() {
	if err := sv.app.cfg.Save(); err != nil {
		sv.text.SetText(fmt.Sprintf("[red]Failed to save: %v", err))
		return
	}
	sv.render()
	sv.text.SetText(sv.text.GetText(false) + "\n[green]Saved. Restart to apply endpoint changes.")
}

// logout clears the stored credential and returns to the login screen.
func (sv *SettingsView) logout() {
	sv.app.authClient.Logout()
	sv.app.user = nil
	sv.app.loginView.setStatus("Signed out.")
	sv.app.pages.SwitchToPage("login")
}

// render updates the display
func (sv *SettingsView) render() {
	text := fmt.Sprintf(`Conversation service: [yellow]%s[white]
Auth service: [yellow]%s[white]
Query service: [yellow]%s[white]
Token path: [yellow]%s[white]
Log level: [yellow]%s[white]`,
		sv.app.cfg.Services.ConversationURL,
		sv.app.cfg.Services.AuthURL,
		sv.app.cfg.Services.QueryURL,
		sv.app.cfg.Auth.TokenPath,
		sv.app.cfg.Logging.Level,
	)
	sv.text.SetText(text)
}
