// Package whatsapp envía recordatorios de cobranza por WhatsApp a través de Twilio.
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/jhoicas/Financiamiento-api/internal/application/ports"
	"github.com/jhoicas/Financiamiento-api/pkg/config"
)

// ErrNoRecipient número destino vacío.
var ErrNoRecipient = errors.New("whatsapp: número destino vacío")

// MessageAPI subconjunto de la API de mensajes de Twilio que usa el sender.
type MessageAPI interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

var _ ports.WhatsAppSender = (*TwilioSender)(nil)

// TwilioSender implementa ports.WhatsAppSender.
type TwilioSender struct {
	api  MessageAPI
	from string
	log  zerolog.Logger
}

// NewTwilioSender construye el sender con las credenciales de cfg. Devuelve nil si no están completas.
func NewTwilioSender(cfg config.WhatsAppConfig, log zerolog.Logger) *TwilioSender {
	if !cfg.Enabled() {
		return nil
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})
	return NewSender(client.Api, cfg.TwilioFrom, log)
}

// NewSender construye el sender sobre una API de mensajes ya creada.
func NewSender(api MessageAPI, from string, log zerolog.Logger) *TwilioSender {
	return &TwilioSender{api: api, from: address(from), log: log.With().Str("component", "whatsapp").Logger()}
}

// Send envía body a to (número internacional, solo dígitos o con +).
func (s *TwilioSender) Send(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(to) == "" {
		return ErrNoRecipient
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(address(to))
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		s.log.Warn().Err(err).Str("to", to).Msg("envío fallido")
		return fmt.Errorf("whatsapp: enviar a %s: %w", to, err)
	}
	if resp != nil && resp.Sid != nil {
		s.log.Debug().Str("to", to).Str("sid", *resp.Sid).Msg("mensaje enviado")
	}
	return nil
}

// address normaliza a "whatsapp:+<dígitos>".
func address(n string) string {
	n = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(n), "whatsapp:"))
	if !strings.HasPrefix(n, "+") {
		n = "+" + n
	}
	return "whatsapp:" + n
}
