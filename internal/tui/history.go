package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/docchat/cli/internal/api"
)

// HistoryView lists past conversations with search, open, and delete.
type HistoryView struct {
	app    *App
	flex   *tview.Flex
	search *tview.InputField
	list   *tview.List
	info   *tview.TextView

	// Conversations currently shown, parallel to the list rows.
	visible []api.Conversation
}

// NewHistoryView creates a new history view
func NewHistoryView(app *App) *HistoryView {
	hv := &HistoryView{app: app}

	hv.search = tview.NewInputField().
		SetLabel("Search: ").
		SetChangedFunc(func(string) { hv.render() })

	hv.list = tview.NewList().
		ShowSecondaryText(true).
		SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			hv.openSelected(index)
		})
	hv.list.SetBorder(true).SetTitle(" Conversations ")

	hv.info = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true)
	hv.info.SetBorder(true).SetTitle(" Info ")

	hv.flex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(hv.search, 1, 0, false).
		AddItem(
			tview.NewFlex().
				AddItem(hv.list, 0, 2, true).
				AddItem(hv.info, 0, 1, false),
			0, 1, true,
		).
		AddItem(
			tview.NewTextView().
				SetText("[yellow]Enter[white]: Open | [yellow]d[white]: Delete | [yellow]r[white]: Reload | [yellow]/[white]: Search").
				SetDynamicColors(true),
			1, 0, false,
		)

	hv.list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Rune() {
		case 'd', 'D':
			hv.deleteSelected()
			return nil
		case 'r', 'R':
			hv.reload()
			return nil
		case '/':
			hv.app.app.SetFocus(hv.search)
			return nil
		}
		return event
	})

	hv.search.SetDoneFunc(func(key tcell.Key) {
		hv.app.app.SetFocus(hv.list)
	})

	return hv
}

// GetPrimitive returns the tview primitive
func (hv *HistoryView) GetPrimitive() tview.Primitive {
	return hv.flex
}

// render rebuilds the list from the store, applying the search filter.
func (hv *HistoryView) render() {
	term := strings.ToLower(strings.TrimSpace(hv.search.GetText()))

	hv.visible = hv.visible[:0]
	for _, c := range hv.app.store.Conversations() {
		if term != "" &&
			!strings.Contains(strings.ToLower(c.Title), term) &&
			!strings.Contains(strings.ToLower(c.LastMessage), term) {
			continue
		}
		hv.visible = append(hv.visible, c)
	}

	hv.list.Clear()
	for _, c := range hv.visible {
		secondary := c.LastMessage
		if secondary == "" {
			secondary = "(no messages)"
		}
		hv.list.AddItem(c.Title, secondary, 0, nil)
	}

	if err := hv.app.store.LastError(); err != nil {
		hv.info.SetText(fmt.Sprintf("[red]%v", err))
	} else {
		hv.info.SetText(fmt.Sprintf("%d conversations", len(hv.visible)))
	}
}

// openSelected makes the chosen conversation active and switches to chat.
func (hv *HistoryView) openSelected(index int) {
	if index < 0 || index >= len(hv.visible) {
		return
	}
	conversation := hv.visible[index]
	hv.app.store.SetCurrentConversation(&conversation)
	hv.app.pages.SwitchToPage("chat")
}

// deleteSelected deletes the chosen conversation, remote first. The row only
// disappears after the service confirms.
func (hv *HistoryView) deleteSelected() {
	index := hv.list.GetCurrentItem()
	if index < 0 || index >= len(hv.visible) {
		return
	}
	id := hv.visible[index].ID

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := hv.app.store.DeleteConversation(ctx, id)
		hv.app.app.QueueUpdateDraw(func() {
			if err != nil {
				hv.app.logger.Warn("delete failed", zap.String("conversation_id", id), zap.Error(err))
			}
			hv.render()
		})
	}()
}

// reload refetches the conversation list from the service.
func (hv *HistoryView) reload() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := hv.app.store.FetchConversations(ctx); err != nil {
			hv.app.logger.Warn("conversation fetch failed", zap.Error(err))
		}
		hv.app.app.QueueUpdateDraw(func() {
			hv.render()
		})
	}()
}
