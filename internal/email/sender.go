// Package email entrega los códigos de verificación por SMTP.
package email

import (
	"context"
	"time"
)

// Sender envía un código de verificación out-of-band.
type Sender interface {
	SendVerificationCode(ctx context.Context, to, code string, ttl time.Duration) error
}

// NopSender descarta los envíos. Usado en dev cuando no hay SMTP
// configurado: el código queda solo en logs de debug del caller.
type NopSender struct{}

func (NopSender) SendVerificationCode(ctx context.Context, to, code string, ttl time.Duration) error {
	return nil
}
