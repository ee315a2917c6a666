package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"atlasacademico/internal/config"
)

// Client posts transactional email to an HTTP relay. The relay owns SMTP
// details; this process only ever speaks JSON to it.
type Client struct {
	http *resty.Client
	from string
}

// NewClient builds a relay client from configuration. The relay URL may be
// empty, in which case Send becomes a no-op so local environments work
// without a mail service.
func NewClient(cfg config.MailerConfig) *Client {
	http := resty.New().
		SetBaseURL(cfg.RelayURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	if cfg.APIKey != "" {
		http.SetAuthToken(cfg.APIKey)
	}
	return &Client{http: http, from: cfg.From}
}

type message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// Send delivers one message through the relay.
func (c *Client) Send(ctx context.Context, to, subject, body string) error {
	if c.http.BaseURL == "" {
		return nil
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(message{From: c.from, To: to, Subject: subject, Text: body}).
		Post("/send")
	if err != nil {
		return fmt.Errorf("mail relay: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("mail relay: status %d", resp.StatusCode())
	}
	return nil
}

// SendWelcome greets a freshly registered account.
func (c *Client) SendWelcome(ctx context.Context, to, nome string) error {
	if nome == "" {
		nome = "novo usuário"
	}
	subject := "Bem-vindo ao Atlas Acadêmico"
	body := fmt.Sprintf(
		"Olá, %s!\n\nSua conta no Atlas Acadêmico foi criada com sucesso. "+
			"Complete seu perfil para gerar seu currículo oficial.\n\n"+
			"Equipe Atlas Acadêmico",
		nome,
	)
	return c.Send(ctx, to, subject, body)
}
