package supabase

import (
	"context"
	"fmt"
	"time"

	"github.com/drbrain/dashboard/internal/core/domain"
	"github.com/drbrain/dashboard/internal/core/ports"
)

// Edge function names.
const (
	fnGetProfile         = "get-profile"
	fnUpdateProfile      = "update-profile"
	fnOnboardingChat     = "onboarding-chat"
	fnFeedbackChat       = "feedback-chat"
	fnFeedbackHistory    = "feedback-history"
	fnFeedbackClear      = "feedback-clear"
	fnWhatsAppStatus     = "whatsapp-status"
	fnWhatsAppConnect    = "whatsapp-connect"
	fnCalendarStatus     = "google-calendar-status"
	fnCalendarAuth       = "google-calendar-auth"
	fnCalendarDisconnect = "google-calendar-disconnect"
	fnPixSettings        = "pix-settings"
	fnUpdatePixSettings  = "update-pix-settings"
)

// Functions implements the backend gateways over edge functions.
type Functions struct {
	c *Client
}

func NewFunctions(c *Client) *Functions {
	return &Functions{c: c}
}

var (
	_ ports.ProfileGateway     = (*Functions)(nil)
	_ ports.SettingsGateway    = (*Functions)(nil)
	_ ports.ChatGateway        = (*Functions)(nil)
	_ ports.IntegrationGateway = (*Functions)(nil)
)

// ── Profile ──────────────────────────────────────────────────────────────────

type profileSchema struct {
	Nome                string `json:"nome"`
	Telefone            string `json:"telefone"`
	Especialidade       string `json:"especialidade"`
	EnderecoClinica     string `json:"endereco_clinica"`
	NomeAssistente      string `json:"nome_assistente"`
	OnboardingConcluido *bool  `json:"onboarding_concluido" validate:"required"`
}

func (p profileSchema) toDomain() *domain.Profile {
	return &domain.Profile{
		Nome:                p.Nome,
		Telefone:            p.Telefone,
		Especialidade:       p.Especialidade,
		EnderecoClinica:     p.EnderecoClinica,
		NomeAssistente:      p.NomeAssistente,
		OnboardingConcluido: *p.OnboardingConcluido,
	}
}

func (f *Functions) GetProfile(ctx context.Context, token string, retry ports.RetryPolicy) (*domain.Profile, error) {
	var out profileSchema
	if err := f.c.invoke(ctx, fnGetProfile, token, nil, &out, retry); err != nil {
		return nil, err
	}
	return out.toDomain(), nil
}

func (f *Functions) UpdateProfile(ctx context.Context, token string, p domain.Profile) (*domain.Profile, error) {
	var out profileSchema
	if err := f.c.invoke(ctx, fnUpdateProfile, token, p, &out, ports.NoRetry); err != nil {
		return nil, err
	}
	return out.toDomain(), nil
}

// ── PIX settings ─────────────────────────────────────────────────────────────

type pixSchema struct {
	KeyType string `json:"pix_key_type" validate:"omitempty,oneof=cpf cnpj email phone random"`
	Key     string `json:"pix_key" validate:"required_with=KeyType"`
}

func (f *Functions) GetPixSettings(ctx context.Context, token string) (*domain.PixSettings, error) {
	var out pixSchema
	if err := f.c.invoke(ctx, fnPixSettings, token, nil, &out, ports.NoRetry); err != nil {
		return nil, err
	}
	return &domain.PixSettings{KeyType: domain.PixKeyType(out.KeyType), Key: out.Key}, nil
}

func (f *Functions) UpdatePixSettings(ctx context.Context, token string, s domain.PixSettings) (*domain.PixSettings, error) {
	var out pixSchema
	if err := f.c.invoke(ctx, fnUpdatePixSettings, token, s, &out, ports.NoRetry); err != nil {
		return nil, err
	}
	return &domain.PixSettings{KeyType: domain.PixKeyType(out.KeyType), Key: out.Key}, nil
}

// ── Chat ─────────────────────────────────────────────────────────────────────

type chatRequest struct {
	Type    domain.ContentType `json:"type"`
	Content string             `json:"content"`
}

type chatReplySchema struct {
	Reply     *string `json:"reply"`
	AudioURL  string  `json:"audio_url" validate:"omitempty,url"`
	Completed bool    `json:"completed"`
}

type historySchema struct {
	Messages []historyItem `json:"messages" validate:"dive"`
}

type historyItem struct {
	ID        string    `json:"id" validate:"required"`
	Sender    string    `json:"sender" validate:"required,oneof=user agent system"`
	Type      string    `json:"type" validate:"omitempty,oneof=text audio"`
	Text      string    `json:"text"`
	AudioURL  string    `json:"audio_url"`
	CreatedAt time.Time `json:"created_at"`
}

func chatFunction(kind domain.ChatKind) (string, error) {
	switch kind {
	case domain.ChatOnboarding:
		return fnOnboardingChat, nil
	case domain.ChatFeedback:
		return fnFeedbackChat, nil
	}
	return "", domain.ErrUnknownChat
}

// SendChat returns a nil reply when the agent answered with neither text nor audio.
func (f *Functions) SendChat(ctx context.Context, token string, kind domain.ChatKind, t domain.ContentType, content string) (*domain.Reply, error) {
	fn, err := chatFunction(kind)
	if err != nil {
		return nil, err
	}
	var out chatReplySchema
	if err := f.c.invoke(ctx, fn, token, chatRequest{Type: t, Content: content}, &out, ports.NoRetry); err != nil {
		return nil, err
	}
	if (out.Reply == nil || *out.Reply == "") && out.AudioURL == "" {
		if out.Completed {
			return &domain.Reply{Completed: true}, nil
		}
		return nil, nil
	}
	reply := &domain.Reply{AudioURL: out.AudioURL, Completed: out.Completed}
	if out.Reply != nil {
		reply.Text = *out.Reply
	}
	return reply, nil
}

// ChatHistory loads stored feedback messages. The onboarding conversation
// keeps no remote history.
func (f *Functions) ChatHistory(ctx context.Context, token string, kind domain.ChatKind) ([]domain.Message, error) {
	if kind != domain.ChatFeedback {
		return nil, nil
	}
	var out historySchema
	if err := f.c.invoke(ctx, fnFeedbackHistory, token, nil, &out, ports.NoRetry); err != nil {
		return nil, err
	}
	msgs := make([]domain.Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		t := domain.ContentType(m.Type)
		if t == "" {
			t = domain.ContentText
		}
		msgs = append(msgs, domain.Message{
			ID:        m.ID,
			Sender:    domain.Sender(m.Sender),
			Type:      t,
			Text:      m.Text,
			AudioURL:  m.AudioURL,
			Timestamp: m.CreatedAt.UTC(),
		})
	}
	return msgs, nil
}

func (f *Functions) ClearChat(ctx context.Context, token string, kind domain.ChatKind) error {
	if kind != domain.ChatFeedback {
		return nil
	}
	return f.c.invoke(ctx, fnFeedbackClear, token, nil, nil, ports.NoRetry)
}

// ── Integrations ─────────────────────────────────────────────────────────────

type whatsAppStatusSchema struct {
	Status string `json:"status" validate:"required,oneof=open connecting disconnected"`
}

type whatsAppConnectSchema struct {
	PairingCode string `json:"pairing_code" validate:"required_without=QRCode"`
	QRCode      string `json:"qr_code"`
	Status      string `json:"status" validate:"omitempty,oneof=open connecting disconnected"`
}

type calendarStatusSchema struct {
	Connected *bool `json:"connected" validate:"required"`
}

type calendarAuthSchema struct {
	AuthURL string `json:"auth_url" validate:"required,url"`
}

func (f *Functions) IntegrationStatus(ctx context.Context, token string, in domain.Integration) (*domain.ConnectionStatus, error) {
	switch in {
	case domain.IntegrationWhatsApp:
		var out whatsAppStatusSchema
		if err := f.c.invoke(ctx, fnWhatsAppStatus, token, nil, &out, ports.NoRetry); err != nil {
			return nil, err
		}
		return &domain.ConnectionStatus{Integration: in, State: domain.ConnectionState(out.Status)}, nil
	case domain.IntegrationGoogleCalendar:
		var out calendarStatusSchema
		if err := f.c.invoke(ctx, fnCalendarStatus, token, nil, &out, ports.NoRetry); err != nil {
			return nil, err
		}
		state := domain.StateDisconnected
		if *out.Connected {
			state = domain.StateConnected
		}
		return &domain.ConnectionStatus{Integration: in, State: state}, nil
	}
	return nil, unknownIntegration(in)
}

func (f *Functions) Connect(ctx context.Context, token string, in domain.Integration) (*domain.ConnectionStatus, error) {
	switch in {
	case domain.IntegrationWhatsApp:
		var out whatsAppConnectSchema
		if err := f.c.invoke(ctx, fnWhatsAppConnect, token, nil, &out, ports.NoRetry); err != nil {
			return nil, err
		}
		return &domain.ConnectionStatus{
			Integration: in,
			State:       domain.ConnectionState(out.Status),
			PairingCode: out.PairingCode,
			QRCode:      out.QRCode,
		}, nil
	case domain.IntegrationGoogleCalendar:
		var out calendarAuthSchema
		if err := f.c.invoke(ctx, fnCalendarAuth, token, nil, &out, ports.NoRetry); err != nil {
			return nil, err
		}
		return &domain.ConnectionStatus{Integration: in, AuthURL: out.AuthURL}, nil
	}
	return nil, unknownIntegration(in)
}

// Disconnect is only offered by the calendar integration.
func (f *Functions) Disconnect(ctx context.Context, token string, in domain.Integration) error {
	if in != domain.IntegrationGoogleCalendar {
		return &domain.ValidationError{Fields: []string{fmt.Sprintf("%s cannot be disconnected from the dashboard", in)}}
	}
	return f.c.invoke(ctx, fnCalendarDisconnect, token, nil, nil, ports.NoRetry)
}

func unknownIntegration(in domain.Integration) error {
	return &domain.ValidationError{Fields: []string{fmt.Sprintf("unknown integration %q", in)}}
}
