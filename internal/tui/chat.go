package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/docchat/cli/internal/api"
)

// ChatView handles the chat interface using tview
type ChatView struct {
	app      *App
	flex     *tview.Flex
	messages *tview.TextView
	input    *tview.TextArea

	loading bool
}

// NewChatView creates a new chat view
func NewChatView(app *App) *ChatView {
	cv := &ChatView{app: app}

	// Create messages text view
	cv.messages = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetScrollable(true)
	cv.messages.SetBorder(true).SetTitle(" Chat ")

	// Create input text area (supports multi-line and wrapping)
	cv.input = tview.NewTextArea().
		SetPlaceholder("Ask about your document... (Ctrl+Enter to send)").
		SetWrap(true)

	// Handle Ctrl+Enter to send message
	cv.input.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEnter && event.Modifiers()&tcell.ModCtrl != 0 {
			cv.sendMessage()
			return nil
		}
		return event
	})

	inputFlex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(tview.NewTextView().SetText("> ").SetDynamicColors(false), 1, 0, false).
		AddItem(cv.input, 0, 1, true)

	cv.flex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(cv.messages, 0, 1, false).
		AddItem(inputFlex, 3, 0, true)

	return cv
}

// GetPrimitive returns the tview primitive
func (cv *ChatView) GetPrimitive() tview.Primitive {
	return cv.flex
}

// sendMessage appends the user's question locally and asks the query
// service for an answer.
func (cv *ChatView) sendMessage() {
	question := cv.input.GetText()
	if strings.TrimSpace(question) == "" || cv.loading {
		return
	}

	// Opening the chat with no active conversation starts a local
	// placeholder; it reaches the service once it holds a real message.
	if cv.app.store.Current() == nil {
		cv.app.store.SetCurrentConversation(cv.app.store.NewLocalConversation("New Conversation"))
	}

	cv.input.SetText("", false)
	cv.loading = true
	cv.messages.SetTitle(" Chat (thinking...) ")

	cv.app.store.AddMessage(api.Message{
		ID:        cv.app.store.NewMessageID(),
		Role:      api.RoleUser,
		Content:   question,
		Timestamp: time.Now().Format(time.RFC3339),
	})
	cv.renderMessages()

	go cv.generateResponse(question)
}

// generateResponse asks the query service and appends the answer, or a
// system message describing the failure, to the active conversation.
func (cv *ChatView) generateResponse(question string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	start := time.Now()
	answer, err := cv.app.queryClient.Ask(ctx, question)
	cv.app.store.RecordResponseTime(time.Since(start))

	var reply api.Message
	reply.ID = cv.app.store.NewMessageID()
	reply.Timestamp = time.Now().Format(time.RFC3339)

	if err != nil {
		cv.app.logger.Warn("ask failed", zap.Error(err))
		reply.Role = api.RoleSystem
		reply.Content = askErrorText(err)
	} else {
		reply.Role = api.RoleAssistant
		reply.Content = answer.Answer
		reply.Sources = answer.Sources
	}

	cv.app.store.AddMessage(reply)

	cv.app.app.QueueUpdateDraw(func() {
		cv.loading = false
		cv.messages.SetTitle(" Chat ")
		cv.renderMessages()
	})
}

// renderMessages updates the messages display from the store.
func (cv *ChatView) renderMessages() {
	current := cv.app.store.Current()
	if current == nil {
		cv.messages.SetText("[gray]Ask a question to start a new conversation.")
		return
	}

	var lines []string
	for _, msg := range current.Messages {
		switch msg.Role {
		case api.RoleUser:
			lines = append(lines, fmt.Sprintf("[cyan]You: %s[white]", msg.Content))
		case api.RoleSystem:
			lines = append(lines, fmt.Sprintf("[red]%s[white]", msg.Content))
		default:
			lines = append(lines, fmt.Sprintf("[white]AI: %s[white]", formatMarkdown(msg.Content)))
			if len(msg.Sources) > 0 {
				lines = append(lines, "")
				lines = append(lines, "[yellow]Sources:[white]")
				for _, source := range msg.Sources {
					lines = append(lines, fmt.Sprintf("  [gray]- %s[white]", source.Title))
				}
			}
		}
	}
	cv.messages.SetText(strings.Join(lines, "\n"))
	cv.messages.ScrollToEnd()
}

// askErrorText renders a query failure as a chat-visible system line.
func askErrorText(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("Error: %s (Status: %d)", apiErr.Detail, apiErr.Status)
	}
	return fmt.Sprintf("Network Error: %v", err)
}

// formatMarkdown converts markdown syntax to tview color codes
func formatMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var formattedLines []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "### ") {
			formattedLines = append(formattedLines, fmt.Sprintf("[yellow]%s[white]", strings.TrimPrefix(trimmed, "### ")))
			continue
		} else if strings.HasPrefix(trimmed, "## ") {
			formattedLines = append(formattedLines, fmt.Sprintf("[yellow]%s[white]", strings.TrimPrefix(trimmed, "## ")))
			continue
		} else if strings.HasPrefix(trimmed, "# ") {
			formattedLines = append(formattedLines, fmt.Sprintf("[yellow]%s[white]", strings.TrimPrefix(trimmed, "# ")))
			continue
		} else if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
			bulletText := strings.TrimPrefix(strings.TrimPrefix(trimmed, "- "), "* ")
			formattedLines = append(formattedLines, fmt.Sprintf("  [gray]•[white] %s", processBold(bulletText)))
			continue
		}

		formattedLines = append(formattedLines, processBold(line))
	}

	return strings.Join(formattedLines, "\n")
}

// processBold converts **bold** markdown to [yellow]bold[white] tview format
func processBold(text string) string {
	var result strings.Builder
	i := 0
	boldOpen := false

	for i < len(text) {
		if i < len(text)-1 && text[i] == '*' && text[i+1] == '*' {
			if boldOpen {
				result.WriteString("[white]")
			} else {
				result.WriteString("[yellow]")
			}
			boldOpen = !boldOpen
			i += 2
		} else {
			result.WriteByte(text[i])
			i++
		}
	}

	if boldOpen {
		result.WriteString("[white]")
	}

	return result.String()
}
