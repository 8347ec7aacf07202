package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/drbrain/dashboard/internal/core/domain"
	"github.com/drbrain/dashboard/internal/core/ports"
)

var (
	nonDigits  = regexp.MustCompile(`\D`)
	emailShape = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// SettingsService backs the PIX key settings form.
type SettingsService struct {
	gateway ports.SettingsGateway
	log     zerolog.Logger
}

func NewSettingsService(gateway ports.SettingsGateway, log zerolog.Logger) *SettingsService {
	return &SettingsService{gateway: gateway, log: log}
}

// GetPix returns the configured key, or an empty one when none is set.
func (s *SettingsService) GetPix(ctx context.Context, sess *domain.Session) (*domain.PixSettings, error) {
	pix, err := s.gateway.GetPixSettings(ctx, sess.AccessToken)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.PixSettings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pix settings: %w", err)
	}
	return pix, nil
}

// UpdatePix normalises and validates the key for its type before submitting.
func (s *SettingsService) UpdatePix(ctx context.Context, sess *domain.Session, in domain.PixSettings) (*domain.PixSettings, error) {
	normalised, err := NormalizePixKey(in)
	if err != nil {
		return nil, err
	}
	out, err := s.gateway.UpdatePixSettings(ctx, sess.AccessToken, normalised)
	if err != nil {
		return nil, fmt.Errorf("update pix settings: %w", err)
	}
	s.log.Info().Str("user_id", sess.User.ID).Str("pix_key_type", string(out.KeyType)).Msg("pix settings updated")
	return out, nil
}

// NormalizePixKey strips formatting from document and phone keys and checks
// the key against its declared type.
func NormalizePixKey(in domain.PixSettings) (domain.PixSettings, error) {
	key := strings.TrimSpace(in.Key)
	invalid := func(msg string) (domain.PixSettings, error) {
		return domain.PixSettings{}, &domain.ValidationError{Fields: []string{msg}}
	}

	switch in.KeyType {
	case domain.PixKeyCPF:
		key = nonDigits.ReplaceAllString(key, "")
		if len(key) != 11 {
			return invalid("pix_key must be a CPF with 11 digits")
		}
	case domain.PixKeyCNPJ:
		key = nonDigits.ReplaceAllString(key, "")
		if len(key) != 14 {
			return invalid("pix_key must be a CNPJ with 14 digits")
		}
	case domain.PixKeyEmail:
		key = strings.ToLower(key)
		if !emailShape.MatchString(key) {
			return invalid("pix_key must be a valid email")
		}
	case domain.PixKeyPhone:
		digits := nonDigits.ReplaceAllString(key, "")
		if len(digits) < 10 || len(digits) > 13 {
			return invalid("pix_key must be a phone number with area code")
		}
		if !strings.HasPrefix(digits, "55") || len(digits) < 12 {
			digits = "55" + digits
		}
		key = "+" + digits
	case domain.PixKeyRandom:
		id, err := uuid.Parse(key)
		if err != nil {
			return invalid("pix_key must be a random key (uuid)")
		}
		key = id.String()
	default:
		return invalid("pix_key_type must be one of: cpf cnpj email phone random")
	}
	return domain.PixSettings{KeyType: in.KeyType, Key: key}, nil
}
