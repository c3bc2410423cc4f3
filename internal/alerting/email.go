package alerting

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pipeline-alerts/internal/alert"
	"pipeline-alerts/internal/breaker"
)

// SendFunc performs the actual SMTP submission. Matches smtp.SendMail so
// tests can substitute a fake transport.
type SendFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// EmailConfig configures the SMTP delivery channel. Sender, Password, and
// Recipient may come from the environment; missing any of them disables
// the channel.
type EmailConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Server    string        `mapstructure:"smtp_server"`
	Port      int           `mapstructure:"smtp_port"`
	UseTLS    bool          `mapstructure:"use_tls"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Sender    string        `mapstructure:"sender_email"`
	Password  string        `mapstructure:"sender_password"`
	Recipient string        `mapstructure:"recipient_email"`
}

// configured reports whether the required identity fields are all present.
func (c EmailConfig) configured() bool {
	return c.Sender != "" && c.Password != "" && c.Recipient != ""
}

func (c EmailConfig) missingFields() []string {
	missing := []string{}
	if c.Sender == "" {
		missing = append(missing, "sender_email")
	}
	if c.Password == "" {
		missing = append(missing, "sender_password")
	}
	if c.Recipient == "" {
		missing = append(missing, "recipient_email")
	}
	return missing
}

// EmailChannel sends alerts over SMTP behind a circuit breaker.
type EmailChannel struct {
	cfg     EmailConfig
	breaker *breaker.Breaker
	send    SendFunc
	logger  zerolog.Logger
}

// NewEmailChannel constructs the channel. An incomplete configuration is
// logged and leaves the channel permanently unavailable rather than failing.
func NewEmailChannel(cfg EmailConfig, br *breaker.Breaker, logger zerolog.Logger) *EmailChannel {
	log := logger.With().Str("component", "email_channel").Logger()

	if cfg.Enabled && !cfg.configured() {
		log.Warn().
			Strs("missing", cfg.missingFields()).
			Msg("email channel configuration incomplete; delivery disabled")
	}

	return &EmailChannel{
		cfg:     cfg,
		breaker: br,
		send:    smtp.SendMail,
		logger:  log,
	}
}

// Available reports whether a delivery attempt could proceed right now.
func (e *EmailChannel) Available() bool {
	if !e.cfg.Enabled || !e.cfg.configured() {
		return false
	}
	return e.breaker.State() != breaker.StateOpen
}

// Deliver sends the alert. Returns false without attempting the transport
// when the channel is unavailable. Transport errors of any kind are logged
// and reported as false, never propagated.
func (e *EmailChannel) Deliver(ctx context.Context, a *alert.Alert) bool {
	if !e.Available() {
		e.logger.Debug().
			Str("title", a.Title).
			Str("breaker_state", e.breaker.State().String()).
			Msg("email channel unavailable, alert not attempted")
		return false
	}

	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	err := e.breaker.Do(ctx, func(ctx context.Context) error {
		addr := fmt.Sprintf("%s:%d", e.cfg.Server, e.cfg.Port)
		auth := smtp.PlainAuth("", e.cfg.Sender, e.cfg.Password, e.cfg.Server)
		return e.send(addr, auth, e.cfg.Sender, []string{e.cfg.Recipient}, e.buildMessage(a))
	})
	if err != nil {
		e.logFailure(a, err)
		return false
	}

	e.logger.Info().
		Str("title", a.Title).
		Str("severity", a.Severity.String()).
		Str("category", string(a.Category)).
		Msg("alert delivered")
	return true
}

// logFailure classifies the transport error so operators can tell an auth
// problem from a connectivity one.
func (e *EmailChannel) logFailure(a *alert.Alert, err error) {
	event := e.logger.Error().Err(err).Str("title", a.Title)

	switch {
	case errors.Is(err, breaker.ErrOpen):
		event.Msg("delivery rejected by open circuit breaker")
	case errors.Is(err, breaker.ErrTimeout):
		event.Msg("smtp delivery timed out")
	case isAuthError(err):
		event.Msg("smtp authentication failed")
	case isConnectError(err):
		event.Msg("smtp connection failed")
	default:
		event.Msg("smtp delivery failed")
	}
}

func isAuthError(err error) bool {
	var proto *textproto.Error
	if errors.As(err, &proto) {
		return proto.Code == 535 || proto.Code == 534 || proto.Code == 530
	}
	return false
}

func isConnectError(err error) bool {
	var op *net.OpError
	return errors.As(err, &op)
}

// buildMessage renders RFC 5322 headers plus the canonical alert body.
func (e *EmailChannel) buildMessage(a *alert.Alert) []byte {
	b := strings.Builder{}
	b.WriteString(fmt.Sprintf("From: %s\r\n", e.cfg.Sender))
	b.WriteString(fmt.Sprintf("To: %s\r\n", e.cfg.Recipient))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", a.Subject()))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(a.Body())
	return []byte(b.String())
}

// TestConnection sends a synthetic INFO alert through the full path.
func (e *EmailChannel) TestConnection(ctx context.Context) bool {
	a, err := alert.New(
		"Email Channel Test",
		"This is a test notification verifying SMTP connectivity.",
		alert.SeverityInfo,
		alert.CategorySystemHealth,
	)
	if err != nil {
		return false
	}
	return e.Deliver(ctx, a.WithComponent("EmailChannel"))
}

// Status summarises the channel without exposing the credential.
func (e *EmailChannel) Status() map[string]any {
	return map[string]any{
		"enabled":               e.cfg.Enabled,
		"available":             e.Available(),
		"smtp_server":           e.cfg.Server,
		"smtp_port":             e.cfg.Port,
		"use_tls":               e.cfg.UseTLS,
		"sender_configured":     e.cfg.Sender != "",
		"credential_configured": e.cfg.Password != "",
		"recipient_configured":  e.cfg.Recipient != "",
		"breaker_state":         e.breaker.State().String(),
		"breaker_failures":      e.breaker.Failures(),
	}
}

var _ Channel = (*EmailChannel)(nil)
