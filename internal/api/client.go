package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/docchat/cli/internal/session"
)

// Client wraps conversation service interactions.
type Client struct {
	baseURL   string
	transport *transport
}

// NewClient creates a new conversation service client. The session supplies
// the bearer token for every request.
func NewClient(baseURL string, sess *session.Session) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8001"
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		transport: newTransport(sess),
	}
}

// OnAuthExpired registers a callback invoked when the service rejects the
// stored credential.
func (c *Client) OnAuthExpired(fn func()) {
	c.transport.onExpired = fn
}

// ListConversations retrieves all conversations. The service has no
// pagination; the response is the full list.
func (c *Client) ListConversations(ctx context.Context) ([]Conversation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/conversations", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.transport.do(req, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var conversations []Conversation
	if err := json.NewDecoder(resp.Body).Decode(&conversations); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return conversations, nil
}

// GetConversation retrieves a single conversation by id.
func (c *Client) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.conversationURL(id), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.transport.do(req, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var conversation Conversation
	if err := json.NewDecoder(resp.Body).Decode(&conversation); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &conversation, nil
}

// CreateConversation creates a conversation on the service, optionally
// attaching a PDF file. The request is always multipart; the service assigns
// the authoritative conversation id.
func (c *Client) CreateConversation(ctx context.Context, title, lastMessage, pdfPath string) (*Conversation, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("title", title); err != nil {
		return nil, fmt.Errorf("failed to write form field: %w", err)
	}
	if err := writer.WriteField("last_message", lastMessage); err != nil {
		return nil, fmt.Errorf("failed to write form field: %w", err)
	}

	if pdfPath != "" {
		file, err := os.Open(pdfPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open pdf: %w", err)
		}
		defer file.Close()

		part, err := writer.CreateFormFile("pdf_file", filepath.Base(pdfPath))
		if err != nil {
			return nil, fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := io.Copy(part, file); err != nil {
			return nil, fmt.Errorf("failed to copy pdf: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/conversations", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.transport.do(req, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var conversation Conversation
	if err := json.NewDecoder(resp.Body).Decode(&conversation); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &conversation, nil
}

// UpdateConversation merges the given fields into the stored conversation.
// The service creates the conversation if the id is unknown, which is how
// locally created conversations reach it for the first time.
func (c *Client) UpdateConversation(ctx context.Context, id string, update *ConversationUpdate) (*Conversation, error) {
	payload := *update
	if payload.Messages != nil {
		// The service schema requires string message ids. Local generation is
		// clock-based, so force the string form before transmission.
		payload.Messages = make([]Message, len(update.Messages))
		for i, msg := range update.Messages {
			msg.ID = strings.TrimSpace(msg.ID)
			payload.Messages[i] = msg
		}
	}

	data, err := json.Marshal(&payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.conversationURL(id), bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.transport.do(req, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	// The service replies with a plain detail object when it skips an empty
	// conversation; treat that as a successful no-op.
	var conversation Conversation
	if err := json.Unmarshal(respBody, &conversation); err != nil || conversation.ID == "" {
		return nil, nil
	}
	return &conversation, nil
}

// DeleteConversation deletes a conversation. A 404 means the conversation is
// already gone, which callers treat the same as success.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.conversationURL(id), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.transport.do(req, true)
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return err
	}
	resp.Body.Close()
	return nil
}

// UploadDocument uploads a standalone document file.
func (c *Client) UploadDocument(ctx context.Context, path string) (*UploadResponse, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to copy file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/documents/upload", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.transport.do(req, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var upload UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&upload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &upload, nil
}

// GetDocument retrieves a document's raw bytes.
func (c *Client) GetDocument(ctx context.Context, id string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/documents/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.transport.do(req, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return data, nil
}

// DeleteDocument deletes an uploaded document.
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/documents/"+url.PathEscape(id), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.transport.do(req, true)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (c *Client) conversationURL(id string) string {
	return c.baseURL + "/conversations/" + url.PathEscape(id)
}
