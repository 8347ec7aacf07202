package service

import (
	"context"
	"encoding/base64"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/drbrain/dashboard/internal/core/domain"
)

// SendErrorText is the synthetic message appended when a send fails.
const SendErrorText = "Não foi possível enviar sua mensagem. Tente novamente."

const defaultCompletionDelay = 2 * time.Second

// SendFunc delivers one chat turn. A nil reply with a nil error means no answer.
type SendFunc func(ctx context.Context, t domain.ContentType, content string) (*domain.Reply, error)

// ChatFlow is an append-only conversation driven through a caller-supplied
// send function. Sends are serialised so each user message is immediately
// followed by its reply.
type ChatFlow struct {
	send            SendFunc
	onComplete      func()
	completionDelay time.Duration
	now             func() time.Time

	sending sync.Mutex

	mu        sync.Mutex
	messages  []domain.Message
	completed bool
}

// ChatOption configures a ChatFlow.
type ChatOption func(*ChatFlow)

// WithCompletion registers fn to run delay after a reply signals completion.
func WithCompletion(fn func(), delay time.Duration) ChatOption {
	return func(f *ChatFlow) {
		f.onComplete = fn
		if delay > 0 {
			f.completionDelay = delay
		}
	}
}

func NewChatFlow(send SendFunc, opts ...ChatOption) *ChatFlow {
	f := &ChatFlow{
		send:            send,
		completionDelay: defaultCompletionDelay,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SendText sends a plain text turn and returns the messages it appended.
func (f *ChatFlow) SendText(ctx context.Context, text string) ([]domain.Message, error) {
	user := f.newMessage(domain.SenderUser, domain.ContentText)
	user.Text = text
	return f.exchange(ctx, user, domain.ContentText, text)
}

// SendAudio sends recorded audio, base64-encoded for transport.
func (f *ChatFlow) SendAudio(ctx context.Context, audio []byte, mimeType string) ([]domain.Message, error) {
	encoded := base64.StdEncoding.EncodeToString(audio)
	user := f.newMessage(domain.SenderUser, domain.ContentAudio)
	user.AudioURL = "data:" + mimeType + ";base64," + encoded
	return f.exchange(ctx, user, domain.ContentAudio, encoded)
}

func (f *ChatFlow) exchange(ctx context.Context, user domain.Message, t domain.ContentType, content string) ([]domain.Message, error) {
	f.sending.Lock()
	defer f.sending.Unlock()

	appended := []domain.Message{user}
	f.append(user)

	reply, err := f.send(ctx, t, content)
	if err != nil {
		failure := f.newMessage(domain.SenderSystem, domain.ContentText)
		failure.Text = SendErrorText
		f.append(failure)
		return append(appended, failure), err
	}
	if reply == nil {
		return appended, nil
	}

	agent := f.newMessage(domain.SenderAgent, domain.ContentText)
	agent.Text = reply.Text
	if reply.AudioURL != "" {
		agent.Type = domain.ContentAudio
		agent.AudioURL = reply.AudioURL
	}
	f.append(agent)

	if reply.Completed {
		f.complete()
	}
	return append(appended, agent), nil
}

// complete schedules the completion callback once per flow.
func (f *ChatFlow) complete() {
	f.mu.Lock()
	already := f.completed
	f.completed = true
	f.mu.Unlock()

	if already || f.onComplete == nil {
		return
	}
	time.AfterFunc(f.completionDelay, f.onComplete)
}

// Completed reports whether a reply has signalled completion.
func (f *ChatFlow) Completed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completed
}

// Messages returns a copy of the conversation.
func (f *ChatFlow) Messages() []domain.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Message, len(f.messages))
	copy(out, f.messages)
	return out
}

// Load replaces the conversation with history from the backend. It waits for
// an in-flight send so a reply is never dropped half way.
func (f *ChatFlow) Load(history []domain.Message) {
	f.sending.Lock()
	defer f.sending.Unlock()
	f.mu.Lock()
	f.messages = append([]domain.Message(nil), history...)
	f.mu.Unlock()
}

// Reset empties the conversation.
func (f *ChatFlow) Reset() {
	f.mu.Lock()
	f.messages = nil
	f.completed = false
	f.mu.Unlock()
}

func (f *ChatFlow) append(m domain.Message) {
	f.mu.Lock()
	f.messages = append(f.messages, m)
	f.mu.Unlock()
}

func (f *ChatFlow) newMessage(sender domain.Sender, t domain.ContentType) domain.Message {
	return domain.Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Type:      t,
		Timestamp: f.now().UTC(),
	}
}
