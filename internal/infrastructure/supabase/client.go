// Package supabase is the adapter for the hosted backend: edge functions,
// the GoTrue auth API and the realtime websocket.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/drbrain/dashboard/internal/api/metrics"
	"github.com/drbrain/dashboard/internal/core/domain"
	"github.com/drbrain/dashboard/internal/core/ports"
)

const (
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 4 << 10
)

// Config holds the project URL and the public anon key.
type Config struct {
	URL     string
	AnonKey string
	Timeout time.Duration
}

// Client issues requests to the hosted backend. It is safe for concurrent use.
type Client struct {
	baseURL  string
	anonKey  string
	http     *http.Client
	validate *validator.Validate
	log      zerolog.Logger
}

func NewClient(cfg Config, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		anonKey:  cfg.AnonKey,
		http:     &http.Client{Timeout: timeout},
		validate: newPayloadValidator(),
		log:      log,
	}
}

// newPayloadValidator reports json field names in validation errors.
func newPayloadValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// request describes one upstream call.
type request struct {
	name   string // metrics label
	method string
	path   string
	token  string
	body   any
	out    any
	retry  ports.RetryPolicy
}

// invoke calls an edge function with the user's token. A nil out discards
// the response body.
func (c *Client) invoke(ctx context.Context, fn, token string, body, out any, retry ports.RetryPolicy) error {
	if body == nil {
		body = struct{}{}
	}
	return c.do(ctx, request{
		name:   fn,
		method: http.MethodPost,
		path:   "/functions/v1/" + fn,
		token:  token,
		body:   body,
		out:    out,
		retry:  retry,
	})
}

// do runs r under its retry policy. Only transport failures and 5xx answers
// are retried.
func (c *Client) do(ctx context.Context, r request) error {
	attempts := r.retry.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			metrics.UpstreamRetriesTotal.WithLabelValues(r.name).Inc()
			if werr := wait(ctx, r.retry.Delay); werr != nil {
				return werr
			}
		}
		err = c.once(ctx, r)
		if !retryable(err) {
			break
		}
		c.log.Debug().Err(err).Str("function", r.name).Int("attempt", attempt).Msg("upstream attempt failed")
	}
	metrics.UpstreamRequestsTotal.WithLabelValues(r.name, outcome(err)).Inc()
	return err
}

func (c *Client) once(ctx context.Context, r request) error {
	var payload io.Reader
	if r.body != nil {
		raw, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", r.name, err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, payload)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", r.name, err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token := r.token
	if token == "" {
		token = c.anonKey
	}
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.UpstreamRequestDuration.WithLabelValues(r.name).Observe(time.Since(start).Seconds())
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %w: %v", r.name, domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", r.name, domain.ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return remoteError(resp)
	}

	if r.out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(r.out); err != nil {
		return fmt.Errorf("%s: %w: %v", r.name, domain.ErrInvalidPayload, err)
	}
	if err := c.validate.Struct(r.out); err != nil {
		return fmt.Errorf("%s: %w: %v", r.name, domain.ErrInvalidPayload, err)
	}
	return nil
}

// Health checks that the auth service answers, which is the cheapest
// unauthenticated endpoint the backend exposes.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, request{
		name:   "auth_health",
		method: http.MethodGet,
		path:   "/auth/v1/health",
		retry:  ports.NoRetry,
	})
}

func remoteError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		Message          string `json:"message"`
		Msg              string `json:"msg"`
	}
	_ = json.Unmarshal(raw, &body)

	msg := firstNonEmpty(body.ErrorDescription, body.Message, body.Msg, body.Error)
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &domain.RemoteError{Status: resp.StatusCode, Message: msg}
}

func retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, domain.ErrTransport) {
		return true
	}
	var re *domain.RemoteError
	return errors.As(err, &re) && re.Status >= 500
}

func outcome(err error) string {
	var re *domain.RemoteError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidPayload):
		return "invalid_payload"
	case errors.As(err, &re):
		return "remote_error"
	default:
		return "transport_error"
	}
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
