package tui

import (
	"fmt"
	"time"

	"github.com/rivo/tview"
)

// DashboardView shows session status and usage statistics using tview
type DashboardView struct {
	app    *App
	flex   *tview.Flex
	status *tview.TextView
	stats  *tview.TextView
	menu   *tview.List
}

// NewDashboardView creates a new dashboard view
func NewDashboardView(app *App) *DashboardView {
	dv := &DashboardView{app: app}

	// Create status text view
	dv.status = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)
	dv.status.SetBorder(true).SetTitle(" Status ")

	// Create stats text view
	dv.stats = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)
	dv.stats.SetBorder(true).SetTitle(" Statistics ")

	// Create menu list
	dv.menu = tview.NewList().
		AddItem("Chat", "Ask questions about your document", '1', func() {
			app.pages.SwitchToPage("chat")
		}).
		AddItem("History", "Browse past conversations", '2', func() {
			app.pages.SwitchToPage("history")
		}).
		AddItem("Import", "Upload a PDF to chat about", '3', func() {
			app.pages.SwitchToPage("import")
		}).
		AddItem("Settings", "Service endpoints and account", '4', func() {
			app.pages.SwitchToPage("settings")
		}).
		AddItem("Quit", "Press to exit", 'q', func() {
			app.app.Stop()
		})
	dv.menu.SetBorder(true).SetTitle(" Navigation ")

	// Create main flex layout
	dv.flex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(dv.status, 3, 0, false).
		AddItem(
			tview.NewFlex().
				AddItem(dv.stats, 0, 1, false).
				AddItem(dv.menu, 0, 1, true),
			0, 1, true,
		)

	// Update stats periodically
	go dv.updateStatsLoop()

	return dv
}

// GetPrimitive returns the tview primitive
func (dv *DashboardView) GetPrimitive() tview.Primitive {
	return dv.flex
}

// updateStatsLoop refreshes the display from the store periodically. Reads
// are local, so the ticker costs nothing on the network.
func (dv *DashboardView) updateStatsLoop() {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		dv.app.app.QueueUpdateDraw(func() {
			dv.render()
		})
	}
}

// render updates the display
func (dv *DashboardView) render() {
	if dv.app.user != nil {
		dv.status.SetText(fmt.Sprintf("[green]●[white] Signed in as %s", dv.app.user.Email))
	} else {
		dv.status.SetText("[yellow]●[white] Not signed in")
	}

	stats := dv.app.store.Stats()
	statsText := fmt.Sprintf(`Documents: [yellow]%d[white]
Queries: [yellow]%d[white]
Conversations: [yellow]%d[white]
Avg response: [yellow]%s[white]`,
		stats.DocumentCount,
		stats.QueryCount,
		len(dv.app.store.Conversations()),
		formatDuration(stats.AvgResponseTime),
	)
	dv.stats.SetText(statsText)
}

// formatDuration renders a duration for display, with a dash when no
// queries have run yet.
func formatDuration(d time.Duration) string {
	if d == 0 {
		return "-"
	}
	return d.Round(10 * time.Millisecond).String()
}
