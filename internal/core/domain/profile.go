package domain

// Profile is the physician's personal and clinic data. Field names follow the
// hosted backend's columns.
type Profile struct {
	Nome                string `json:"nome"`
	Telefone            string `json:"telefone"`
	Especialidade       string `json:"especialidade"`
	EnderecoClinica     string `json:"endereco_clinica"`
	NomeAssistente      string `json:"nome_assistente"`
	OnboardingConcluido bool   `json:"onboarding_concluido"`
}

// PixKeyType enumerates the PIX key kinds accepted by the settings page.
type PixKeyType string

const (
	PixKeyCPF    PixKeyType = "cpf"
	PixKeyCNPJ   PixKeyType = "cnpj"
	PixKeyEmail  PixKeyType = "email"
	PixKeyPhone  PixKeyType = "phone"
	PixKeyRandom PixKeyType = "random"
)

// PixSettings is the payout key configured by the physician.
type PixSettings struct {
	KeyType PixKeyType `json:"pix_key_type"`
	Key     string     `json:"pix_key"`
}
