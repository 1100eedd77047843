package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docchat/cli/internal/api"
)

type updateCall struct {
	id     string
	update *api.ConversationUpdate
}

type fakeAPI struct {
	mu sync.Mutex

	listResult []api.Conversation
	listErr    error

	createResult *api.Conversation
	createErr    error
	created      [][3]string

	updateErr error
	updates   []updateCall

	deleteErr error
	deleted   []string
}

func (f *fakeAPI) ListConversations(ctx context.Context) ([]api.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listResult, f.listErr
}

func (f *fakeAPI) CreateConversation(ctx context.Context, title, lastMessage, pdfPath string) (*api.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, [3]string{title, lastMessage, pdfPath})
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createResult != nil {
		return f.createResult, nil
	}
	return &api.Conversation{ID: "srv-1", Title: title, LastMessage: lastMessage, Messages: []api.Message{}}, nil
}

func (f *fakeAPI) UpdateConversation(ctx context.Context, id string, update *api.ConversationUpdate) (*api.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, updateCall{id: id, update: update})
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return nil, nil
}

func (f *fakeAPI) DeleteConversation(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAPI) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

// newTestStore runs syncs inline and pins the clock so remote call counts
// are deterministic.
func newTestStore(t *testing.T) (*Store, *fakeAPI) {
	t.Helper()
	remote := &fakeAPI{}
	s := New(remote, nil)
	s.dispatch = func(fn func()) { fn() }
	s.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return s, remote
}

func TestIsEmpty(t *testing.T) {
	tests := []struct {
		name string
		conv *api.Conversation
		want bool
	}{
		{"nil conversation", nil, true},
		{"no messages", &api.Conversation{ID: "1"}, true},
		{"only blank messages", &api.Conversation{Messages: []api.Message{
			{Content: ""}, {Content: "   "}, {Content: "\n\t"},
		}}, true},
		{"one real message", &api.Conversation{Messages: []api.Message{
			{Content: "   "}, {Content: "hello"},
		}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsEmpty(tt.conv))
		})
	}
}

func TestAddMessage_BlankContentIsNoOp(t *testing.T) {
	s, remote := newTestStore(t)
	s.SetCurrentConversation(&api.Conversation{ID: "1", Messages: []api.Message{}})

	s.AddMessage(api.Message{ID: "a", Role: api.RoleUser, Content: "   \t"})

	assert.Empty(t, s.Current().Messages)
	assert.Equal(t, 0, s.Stats().QueryCount)
	assert.Equal(t, 0, remote.updateCount())
}

func TestAddMessage_WithoutActiveConversation(t *testing.T) {
	s, remote := newTestStore(t)

	s.AddMessage(api.Message{ID: "a", Role: api.RoleUser, Content: "hi"})

	assert.Nil(t, s.Current())
	assert.Equal(t, 0, remote.updateCount())
}

func TestAddMessage_QueryCountOnlyForUserRole(t *testing.T) {
	s, _ := newTestStore(t)
	s.SetCurrentConversation(&api.Conversation{ID: "1", Messages: []api.Message{}})

	s.AddMessage(api.Message{ID: "a", Role: api.RoleUser, Content: "hi"})
	assert.Equal(t, 1, s.Stats().QueryCount)

	s.AddMessage(api.Message{ID: "b", Role: api.RoleAssistant, Content: "hi"})
	assert.Equal(t, 1, s.Stats().QueryCount)

	s.AddMessage(api.Message{ID: "c", Role: api.RoleSystem, Content: "hi"})
	assert.Equal(t, 1, s.Stats().QueryCount)
}

func TestAddMessage_SyncsFullMessageList(t *testing.T) {
	s, remote := newTestStore(t)
	s.SetCurrentConversation(&api.Conversation{ID: "1", Title: "New", Messages: []api.Message{}})
	require.Equal(t, 0, remote.updateCount(), "empty conversation must not sync")

	s.AddMessage(api.Message{ID: "a", Role: api.RoleUser, Content: "Hello"})

	require.Equal(t, 1, remote.updateCount())
	call := remote.updates[0]
	assert.Equal(t, "1", call.id)
	require.Len(t, call.update.Messages, 1)
	assert.Equal(t, "Hello", call.update.Messages[0].Content)
	require.NotNil(t, call.update.LastMessage)
	assert.Equal(t, "Hello", *call.update.LastMessage)
	require.NotNil(t, call.update.Timestamp)
	assert.NotEmpty(t, *call.update.Timestamp)
}

func TestAddMessage_SyncFailureKeepsLocalAppend(t *testing.T) {
	s, remote := newTestStore(t)
	remote.updateErr = errors.New("service unreachable")
	s.SetCurrentConversation(&api.Conversation{ID: "1", Messages: []api.Message{}})

	s.AddMessage(api.Message{ID: "a", Role: api.RoleUser, Content: "Hello"})

	current := s.Current()
	require.Len(t, current.Messages, 1)
	assert.Equal(t, "Hello", current.Messages[0].Content)
	assert.Equal(t, "Hello", current.LastMessage)
	assert.Equal(t, 1, s.Stats().QueryCount)
}

func TestSetCurrentConversation_EmptyIssuesNoCalls(t *testing.T) {
	s, remote := newTestStore(t)

	s.SetCurrentConversation(&api.Conversation{ID: "1", Title: "New", Messages: []api.Message{}})

	assert.Equal(t, 0, remote.updateCount())
	assert.Equal(t, "1", s.Current().ID)
}

func TestSetCurrentConversation_UnknownNonEmptySyncsOnce(t *testing.T) {
	s, remote := newTestStore(t)

	s.SetCurrentConversation(&api.Conversation{ID: "1", Messages: []api.Message{
		{ID: "a", Role: api.RoleUser, Content: "hi"},
	}})

	assert.Equal(t, 1, remote.updateCount())
}

func TestSetCurrentConversation_KnownConversationDoesNotSync(t *testing.T) {
	s, remote := newTestStore(t)
	remote.listResult = []api.Conversation{{ID: "1", Messages: []api.Message{{ID: "a", Content: "hi"}}}}
	require.NoError(t, s.FetchConversations(context.Background()))

	s.SetCurrentConversation(&api.Conversation{ID: "1", Messages: []api.Message{
		{ID: "a", Role: api.RoleUser, Content: "hi"},
	}})

	assert.Equal(t, 0, remote.updateCount())
}

func TestFetchConversations(t *testing.T) {
	t.Run("replaces the list", func(t *testing.T) {
		s, remote := newTestStore(t)
		remote.listResult = []api.Conversation{{ID: "1"}, {ID: "2"}}

		require.NoError(t, s.FetchConversations(context.Background()))
		assert.Len(t, s.Conversations(), 2)
		assert.NoError(t, s.LastError())
	})

	t.Run("failure keeps the stale list", func(t *testing.T) {
		s, remote := newTestStore(t)
		remote.listResult = []api.Conversation{{ID: "1"}}
		require.NoError(t, s.FetchConversations(context.Background()))

		remote.mu.Lock()
		remote.listErr = errors.New("service unreachable")
		remote.mu.Unlock()

		err := s.FetchConversations(context.Background())
		assert.Error(t, err)
		assert.Len(t, s.Conversations(), 1)
		assert.Error(t, s.LastError())
	})
}

func TestCreateNewConversation(t *testing.T) {
	t.Run("refuses a vacuous conversation without any call", func(t *testing.T) {
		s, remote := newTestStore(t)

		conversation, err := s.CreateNewConversation(context.Background(), "  ", "\t", "")
		assert.ErrorIs(t, err, ErrEmptyConversation)
		assert.Nil(t, conversation)
		assert.Empty(t, remote.created)
	})

	t.Run("a pdf alone is enough", func(t *testing.T) {
		s, remote := newTestStore(t)

		conversation, err := s.CreateNewConversation(context.Background(), "", "", "/tmp/report.pdf")
		require.NoError(t, err)
		require.NotNil(t, conversation)
		require.Len(t, remote.created, 1)
		assert.Equal(t, "/tmp/report.pdf", remote.created[0][2])
	})

	t.Run("created conversation lands in the list", func(t *testing.T) {
		s, _ := newTestStore(t)

		conversation, err := s.CreateNewConversation(context.Background(), "t", "m", "")
		require.NoError(t, err)

		conversations := s.Conversations()
		require.Len(t, conversations, 1)
		assert.Equal(t, conversation.ID, conversations[0].ID)
		assert.Equal(t, "t", conversations[0].Title)
		assert.Equal(t, "m", conversations[0].LastMessage)
	})
}

func TestDeleteConversation(t *testing.T) {
	t.Run("remote failure leaves the list untouched", func(t *testing.T) {
		s, remote := newTestStore(t)
		remote.listResult = []api.Conversation{{ID: "1"}, {ID: "2"}, {ID: "3"}}
		require.NoError(t, s.FetchConversations(context.Background()))
		before := s.Conversations()

		remote.mu.Lock()
		remote.deleteErr = errors.New("service unreachable")
		remote.mu.Unlock()

		err := s.DeleteConversation(context.Background(), "2")
		assert.Error(t, err)
		assert.Equal(t, before, s.Conversations())
		assert.Error(t, s.LastError())
	})

	t.Run("success removes the conversation and clears the active pointer", func(t *testing.T) {
		s, remote := newTestStore(t)
		remote.listResult = []api.Conversation{{ID: "1"}, {ID: "2"}}
		require.NoError(t, s.FetchConversations(context.Background()))
		s.SetCurrentConversation(&api.Conversation{ID: "2"})

		require.NoError(t, s.DeleteConversation(context.Background(), "2"))

		conversations := s.Conversations()
		require.Len(t, conversations, 1)
		assert.Equal(t, "1", conversations[0].ID)
		assert.Nil(t, s.Current())
		assert.Equal(t, []string{"2"}, remote.deleted)
	})
}

func TestDocumentTracking(t *testing.T) {
	s, _ := newTestStore(t)

	s.AddDocument(Document{ID: "d1", Name: "report.pdf"})
	s.AddDocument(Document{ID: "d2", Name: "paper.pdf"})
	assert.Equal(t, 2, s.Stats().DocumentCount)

	s.RemoveDocument("d1")
	assert.Equal(t, 1, s.Stats().DocumentCount)
	require.Len(t, s.Documents(), 1)
	assert.Equal(t, "d2", s.Documents()[0].ID)

	// Removing an unknown id changes nothing.
	s.RemoveDocument("d9")
	assert.Equal(t, 1, s.Stats().DocumentCount)
}

func TestRecordResponseTime(t *testing.T) {
	s, _ := newTestStore(t)

	s.RecordResponseTime(2 * time.Second)
	s.RecordResponseTime(4 * time.Second)

	assert.Equal(t, 3*time.Second, s.Stats().AvgResponseTime)
}

// The full interaction script: open chat with a fresh placeholder, then send
// the first message.
func TestChatOpenThenFirstMessage(t *testing.T) {
	s, remote := newTestStore(t)

	s.SetCurrentConversation(&api.Conversation{ID: "1", Title: "New", Messages: []api.Message{}})
	require.Equal(t, 0, remote.updateCount())
	require.Equal(t, "1", s.Current().ID)

	s.AddMessage(api.Message{ID: "a", Role: api.RoleUser, Content: "Hello"})

	current := s.Current()
	assert.Len(t, current.Messages, 1)
	assert.Equal(t, 1, s.Stats().QueryCount)
	require.Equal(t, 1, remote.updateCount())
	assert.Equal(t, "Hello", *remote.updates[0].update.LastMessage)
}
