package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/docchat/cli/internal/documents"
	"github.com/docchat/cli/internal/store"
)

// ImportView uploads a PDF and starts a conversation around it. The file is
// inspected locally before any network call so a broken PDF fails fast.
type ImportView struct {
	app  *App
	flex *tview.Flex
	form *tview.Form
	info *tview.TextView

	inspected *documents.Info
}

// NewImportView creates a new import view
func NewImportView(app *App) *ImportView {
	iv := &ImportView{app: app}

	iv.form = tview.NewForm().
		AddInputField("PDF Path", "", 0, nil, func(string) { iv.inspected = nil }).
		AddInputField("Title", "", 0, nil, nil).
		AddButton("Inspect", iv.inspect).
		AddButton("Upload & Start Chat", iv.upload)
	iv.form.SetBorder(true).SetTitle(" Import Document ")

	iv.info = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true)
	iv.info.SetBorder(true).SetTitle(" Document ")
	iv.info.SetText(fmt.Sprintf("Documents directory: %s\n\nEnter a PDF path and press Inspect.", app.cfg.Paths.DocumentsDir))

	iv.flex = tview.NewFlex().
		AddItem(iv.form, 0, 1, true).
		AddItem(iv.info, 0, 1, false)

	return iv
}

// GetPrimitive returns the tview primitive
func (iv *ImportView) GetPrimitive() tview.Primitive {
	return iv.flex
}

func (iv *ImportView) fieldValue(label string) string {
	if input, ok := iv.form.GetFormItemByLabel(label).(*tview.InputField); ok {
		return input.GetText()
	}
	return ""
}

// inspect validates the chosen file locally and shows its facts.
func (iv *ImportView) inspect() {
	path := iv.fieldValue("PDF Path")
	if path == "" {
		iv.info.SetText("[red]Enter a file path first.")
		return
	}

	info, err := iv.app.inspector.Inspect(path)
	if err != nil {
		iv.inspected = nil
		iv.info.SetText(fmt.Sprintf("[red]%v", err))
		return
	}

	iv.inspected = info
	iv.info.SetText(fmt.Sprintf(
		"[green]%s[white]\nPages: [yellow]%d[white]\nWords: [yellow]%d[white]\nSize: [yellow]%d KB[white]\n\n[gray]%s",
		info.Name, info.Pages, info.Words, info.SizeBytes/1024, info.Preview,
	))
}

// upload creates a conversation with the PDF attached and switches to chat.
func (iv *ImportView) upload() {
	path := iv.fieldValue("PDF Path")
	title := iv.fieldValue("Title")

	if iv.inspected == nil || iv.inspected.Path != path {
		iv.inspect()
		if iv.inspected == nil {
			return
		}
	}
	if title == "" {
		title = iv.inspected.Name
	}
	info := iv.inspected

	iv.info.SetText("[yellow]Uploading...")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		conversation, err := iv.app.store.CreateNewConversation(ctx, title, "", path)
		if err != nil {
			iv.app.logger.Warn("upload failed", zap.String("path", path), zap.Error(err))
			iv.app.app.QueueUpdateDraw(func() {
				iv.info.SetText(fmt.Sprintf("[red]Upload failed: %v", err))
			})
			return
		}

		iv.app.store.AddDocument(store.Document{
			ID:         conversation.ID,
			Name:       info.Name,
			Pages:      info.Pages,
			UploadedAt: time.Now(),
		})
		iv.app.store.SetCurrentConversation(conversation)

		iv.app.app.QueueUpdateDraw(func() {
			iv.info.SetText(fmt.Sprintf("[green]Uploaded %s.", info.Name))
			iv.app.pages.SwitchToPage("chat")
		})
	}()
}
