package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	mail "github.com/go-mail/mail"

	"github.com/dropDatabas3/linkjohn/internal/observability/logger"
)

// SMTPConfig contiene la configuración del servidor SMTP.
type SMTPConfig struct {
	Host               string
	Port               int
	Username           string
	Password           string
	From               string
	TLSMode            string // "auto" | "starttls" | "ssl" | "none"
	InsecureSkipVerify bool   // sólo dev
}

// SMTPSender implementa Sender usando SMTP.
type SMTPSender struct {
	cfg SMTPConfig
}

// NewSMTPSender crea un SMTPSender.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.TLSMode == "" {
		cfg.TLSMode = "auto"
	}
	return &SMTPSender{cfg: cfg}
}

// SendVerificationCode envía el código con un cuerpo de texto mínimo.
func (s *SMTPSender) SendVerificationCode(ctx context.Context, to, code string, ttl time.Duration) error {
	log := logger.From(ctx).With(
		logger.Component("email.smtp"),
		logger.String("host", s.cfg.Host),
		logger.EmailMasked(to),
	)

	m := mail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Your verification code")
	m.SetBody("text/plain", fmt.Sprintf(
		"Your verification code is %s.\n\nIt expires in %d minutes. If you did not request it, ignore this message.\n",
		code, int(ttl.Minutes()),
	))

	d := mail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	switch s.cfg.TLSMode {
	case "ssl":
		d.SSL = true
	case "starttls":
		d.StartTLSPolicy = mail.MandatoryStartTLS
	case "none":
		d.StartTLSPolicy = mail.NoStartTLS
	default: // auto
		d.StartTLSPolicy = mail.OpportunisticStartTLS
	}
	if s.cfg.InsecureSkipVerify {
		d.TLSConfig = &tls.Config{InsecureSkipVerify: true, ServerName: s.cfg.Host}
	}

	if err := d.DialAndSend(m); err != nil {
		log.Error("send failed", logger.Err(err))
		return fmt.Errorf("smtp send: %w", err)
	}

	log.Debug("verification code sent")
	return nil
}
