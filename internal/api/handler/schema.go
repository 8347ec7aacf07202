package handler

import (
	"time"

	"github.com/drbrain/dashboard/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type loginRequest struct {
	Email    string `json:"email"    form:"email"    validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

type resetRequest struct {
	Email string `json:"email" form:"email" validate:"required,email"`
}

type passwordRequest struct {
	Password string `json:"password" form:"password" validate:"required,min=6,max=72"`
}

type sessionResponse struct {
	User      domain.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
	// Redirect is where the client goes after signing in.
	Redirect string `json:"redirect,omitempty"`
}

type acceptedResponse struct {
	Message string `json:"message"`
}

// --- Profile ---

// profileRequest carries the editable fields only. The onboarding flag is
// kept by the server.
type profileRequest struct {
	Nome            string `json:"nome"             validate:"required"`
	Telefone        string `json:"telefone"         validate:"required"`
	Especialidade   string `json:"especialidade"    validate:"required"`
	EnderecoClinica string `json:"endereco_clinica" validate:"required"`
	NomeAssistente  string `json:"nome_assistente"`
}

func (r profileRequest) toDomain() domain.Profile {
	return domain.Profile{
		Nome:            r.Nome,
		Telefone:        r.Telefone,
		Especialidade:   r.Especialidade,
		EnderecoClinica: r.EnderecoClinica,
		NomeAssistente:  r.NomeAssistente,
	}
}

// --- Settings ---

type pixRequest struct {
	KeyType string `json:"pix_key_type" validate:"required,oneof=cpf cnpj email phone random"`
	Key     string `json:"pix_key"      validate:"required"`
}

// --- Chat ---

type chatTextRequest struct {
	Text string `json:"text" form:"text" validate:"required"`
}

// messagesResponse is a conversation read. Completed is set once the agent
// ended the conversation.
type messagesResponse struct {
	Messages  []domain.Message `json:"messages"`
	Completed bool             `json:"completed"`
}

type sendResponse struct {
	Messages  []domain.Message `json:"messages"`
	Failed    bool             `json:"failed"`
	Completed bool             `json:"completed"`
}

// --- Chrome ---

type feedbackModalRequest struct {
	Open *bool `json:"open" validate:"required"`
}

// --- Pages ---

type pageResponse struct {
	Chrome domain.Chrome `json:"chrome"`
	Data   any           `json:"data,omitempty"`
}

type dashboardData struct {
	Profile        *domain.Profile          `json:"profile"`
	WhatsApp       *domain.ConnectionStatus `json:"whatsapp,omitempty"`
	GoogleCalendar *domain.ConnectionStatus `json:"google_calendar,omitempty"`
}

type settingsData struct {
	Pix            *domain.PixSettings      `json:"pix"`
	GoogleCalendar *domain.ConnectionStatus `json:"google_calendar,omitempty"`
}
