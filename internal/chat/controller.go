// Package chat holds the per-browser-session chat controller: the visible
// transcript, the cached session list and their mirroring to a ChatRepository.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Rrens/fai-advisor/internal/domain"
	"github.com/Rrens/fai-advisor/internal/i18n"
	"github.com/Rrens/fai-advisor/internal/security"
	"github.com/rs/zerolog/log"
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrBusy         = errors.New("a response is already pending")
	ErrNotConfirmed = errors.New("action not confirmed")
)

// GreetingID is the message id of the synthetic greeting
const GreetingID int64 = 1

const defaultGreeting = "Hello! I'm your AI Academic Advisor. How can I help you today?"

// Recorder receives chat counters
type Recorder interface {
	ChatMessage(role string)
	PersistenceFailure(op string)
}

type nopRecorder struct{}

func (nopRecorder) ChatMessage(string)        {}
func (nopRecorder) PersistenceFailure(string) {}

// Options configures a Controller
type Options struct {
	Repository domain.ChatRepository
	Generator  ResponseGenerator
	Prompter   Prompter
	Recorder   Recorder
	// MaxMessageLength caps sanitized user messages, in runes
	MaxMessageLength int
	Now              func() time.Time
}

// Controller owns one user's chat state for one browser session.
// The mutex is not held while a response is generated or persisted.
type Controller struct {
	mu sync.Mutex

	owner    string
	repo     domain.ChatRepository
	gen      ResponseGenerator
	prompter Prompter
	rec      Recorder
	maxLen   int
	now      func() time.Time

	sessions []domain.ChatSession
	activeID string
	messages []domain.Message
	pending  bool
	lastID   int64
	// view changes whenever the visible transcript is replaced
	view uint64
}

// NewController creates a controller for owner showing a fresh greeting
func NewController(ctx context.Context, owner string, opts Options) *Controller {
	c := &Controller{
		owner:    owner,
		repo:     opts.Repository,
		gen:      opts.Generator,
		prompter: opts.Prompter,
		rec:      opts.Recorder,
		maxLen:   opts.MaxMessageLength,
		now:      opts.Now,
	}
	if c.gen == nil {
		c.gen = NewKeywordGenerator(0, 0)
	}
	if c.prompter == nil {
		c.prompter = NewInbox()
	}
	if c.rec == nil {
		c.rec = nopRecorder{}
	}
	if c.maxLen <= 0 {
		c.maxLen = security.MaxChatLength
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.messages = []domain.Message{c.greeting(ctx)}
	return c
}

// Owner returns the identity id this controller acts for
func (c *Controller) Owner() string { return c.owner }

// Prompter returns the prompter used for confirmations and alerts
func (c *Controller) Prompter() Prompter { return c.prompter }

func (c *Controller) greeting(ctx context.Context) domain.Message {
	t := i18n.FromContext(ctx)
	return domain.Message{
		ID:        GreetingID,
		Role:      domain.RoleBot,
		Content:   "🤖 " + t.T("chat.botGreeting", defaultGreeting),
		Timestamp: c.now(),
	}
}

// nextID returns a millisecond timestamp id, bumped to stay strictly increasing.
// Callers hold c.mu.
func (c *Controller) nextID(at time.Time) int64 {
	id := at.UnixMilli()
	if id <= c.lastID {
		id = c.lastID + 1
	}
	c.lastID = id
	return id
}

func (c *Controller) alert(ctx context.Context, key, fallback string) {
	c.prompter.Alert(ctx, i18n.FromContext(ctx).T(key, fallback))
}

// Load replaces the cached session list with the owner's stored chats.
// On failure the list is left unchanged.
func (c *Controller) Load(ctx context.Context) error {
	sessions, err := c.repo.List(ctx, c.owner)
	if err != nil {
		c.rec.PersistenceFailure("list")
		log.Error().Err(err).Str("user_id", c.owner).Msg("Failed to load chats")
		c.alert(ctx, "chat.failedToLoad", "Failed to load your chats.")
		return fmt.Errorf("failed to load chats: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions = sessions
	return nil
}

// CreateSession stores a new session holding only the greeting and makes it active
func (c *Controller) CreateSession(ctx context.Context) (*domain.ChatSession, error) {
	ctx = context.WithoutCancel(ctx)
	t := i18n.FromContext(ctx)

	c.mu.Lock()
	title := fmt.Sprintf("%s %d", t.T("chat.newChatTitle", "Chat"), len(c.sessions)+1)
	c.mu.Unlock()

	messages := []domain.Message{c.greeting(ctx)}
	rec, err := c.repo.Create(ctx, c.owner, title, messages)
	if err != nil {
		c.rec.PersistenceFailure("create")
		log.Error().Err(err).Str("user_id", c.owner).Msg("Failed to create chat")
		c.alert(ctx, "chat.failedToCreateChat", "Failed to create a new chat. Please try again.")
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions = append([]domain.ChatSession{*rec}, c.sessions...)
	c.activeID = rec.ID
	c.messages = domain.CloneMessages(messages)
	c.view++
	return rec, nil
}

// SelectSession shows the cached session id. Unknown ids are ignored.
func (c *Controller) SelectSession(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range c.sessions {
		if s.ID == id {
			c.activeID = id
			c.messages = domain.CloneMessages(s.Messages)
			c.view++
			return true
		}
	}
	return false
}

// SendMessage appends the sanitized user message and the generated reply,
// then persists the transcript. Generation and persistence outlive ctx's
// cancellation. A persistence failure keeps the transcript and alerts once.
func (c *Controller) SendMessage(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}
	content := security.Truncate(security.Sanitize(text), c.maxLen)
	if content == "" {
		return ErrEmptyMessage
	}
	ctx = context.WithoutCancel(ctx)

	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return ErrBusy
	}
	c.pending = true
	now := c.now()
	c.messages = append(domain.CloneMessages(c.messages), domain.Message{
		ID:        c.nextID(now),
		Role:      domain.RoleUser,
		Content:   content,
		Timestamp: now,
	})
	transcript := domain.CloneMessages(c.messages)
	activeID := c.activeID
	view := c.view
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.pending = false
		c.mu.Unlock()
	}()
	c.rec.ChatMessage(string(domain.RoleUser))

	reply, err := c.gen.Respond(ctx, content)
	if err != nil {
		log.Error().Err(err).Str("user_id", c.owner).Msg("Failed to generate response")
		c.alert(ctx, "chat.failedToSend", "Failed to send message. Please try again.")
		return fmt.Errorf("failed to generate response: %w", err)
	}

	c.mu.Lock()
	now = c.now()
	final := append(transcript, domain.Message{
		ID:        c.nextID(now),
		Role:      domain.RoleBot,
		Content:   reply,
		Timestamp: now,
	})
	if c.view == view {
		c.messages = domain.CloneMessages(final)
	}
	c.mu.Unlock()
	c.rec.ChatMessage(string(domain.RoleBot))

	if activeID != "" {
		return c.saveMessages(ctx, activeID, final, now)
	}
	return c.saveNew(ctx, content, final, view)
}

func (c *Controller) saveMessages(ctx context.Context, id string, messages []domain.Message, at time.Time) error {
	err := c.repo.ReplaceMessages(ctx, c.owner, id, messages)

	// The cached copy follows the transcript even when the write failed.
	c.mu.Lock()
	for i := range c.sessions {
		if c.sessions[i].ID == id {
			c.sessions[i].Messages = domain.CloneMessages(messages)
			c.sessions[i].UpdatedAt = at
		}
	}
	c.mu.Unlock()

	if err != nil {
		c.rec.PersistenceFailure("update")
		log.Error().Err(err).Str("user_id", c.owner).Str("chat_id", id).Msg("Failed to save chat")
		c.alert(ctx, "chat.failedToSave", "Failed to save the chat.")
		return fmt.Errorf("failed to save chat: %w", err)
	}
	return nil
}

func (c *Controller) saveNew(ctx context.Context, content string, messages []domain.Message, view uint64) error {
	title := "Chat about " + string(firstRunes(content, 30)) + "..."
	rec, err := c.repo.Create(ctx, c.owner, title, messages)
	if err != nil {
		c.rec.PersistenceFailure("create")
		log.Error().Err(err).Str("user_id", c.owner).Msg("Failed to save new chat")
		c.alert(ctx, "chat.failedToSave", "Failed to save the chat.")
		return fmt.Errorf("failed to save chat: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions = append([]domain.ChatSession{*rec}, c.sessions...)
	if c.view == view && c.activeID == "" {
		c.activeID = rec.ID
	}
	return nil
}

// RenameSession stores a new title. Blank titles are ignored without a call.
func (c *Controller) RenameSession(ctx context.Context, id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	ctx = context.WithoutCancel(ctx)

	if err := c.repo.Rename(ctx, c.owner, id, title); err != nil {
		c.rec.PersistenceFailure("rename")
		log.Error().Err(err).Str("user_id", c.owner).Str("chat_id", id).Msg("Failed to rename chat")
		c.alert(ctx, "chat.failedToRename", "Failed to update chat title. Please try again.")
		return fmt.Errorf("failed to rename chat: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.sessions {
		if c.sessions[i].ID == id {
			c.sessions[i].Title = title
		}
	}
	return nil
}

// DeleteSession removes a session after confirmation. Deleting the active
// session resets the view to a fresh, unsaved greeting.
func (c *Controller) DeleteSession(ctx context.Context, id string) error {
	t := i18n.FromContext(ctx)
	if !c.prompter.Confirm(ctx, t.T("chat.confirmDelete", "Are you sure you want to delete this chat?")) {
		return ErrNotConfirmed
	}
	ctx = context.WithoutCancel(ctx)

	if err := c.repo.Delete(ctx, c.owner, id); err != nil {
		c.rec.PersistenceFailure("delete")
		log.Error().Err(err).Str("user_id", c.owner).Str("chat_id", id).Msg("Failed to delete chat")
		c.alert(ctx, "chat.failedToDelete", "Failed to delete chat. Please try again.")
		return fmt.Errorf("failed to delete chat: %w", err)
	}

	greeting := c.greeting(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.sessions[:0:0]
	for _, s := range c.sessions {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	c.sessions = kept
	if c.activeID == id {
		c.activeID = ""
		c.messages = []domain.Message{greeting}
		c.view++
	}
	return nil
}

// Messages returns a copy of the visible transcript
func (c *Controller) Messages() []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.CloneMessages(c.messages)
}

// Sessions returns a copy of the cached session list, newest first
func (c *Controller) Sessions() []domain.ChatSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.ChatSession, len(c.sessions))
	for i, s := range c.sessions {
		s.Messages = domain.CloneMessages(s.Messages)
		out[i] = s
	}
	return out
}

// ActiveID returns the id of the shown session, or "" for an unsaved one
func (c *Controller) ActiveID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeID
}

// Pending reports whether a response is being generated
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

func firstRunes(s string, n int) []rune {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return r
}

// DrainAlerts returns and clears alerts queued by an Inbox prompter
func (c *Controller) DrainAlerts() []string {
	if b, ok := c.prompter.(*Inbox); ok {
		return b.Drain()
	}
	return nil
}
