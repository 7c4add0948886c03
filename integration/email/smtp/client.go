package smtp

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/dmitrymomot/assetmail/core/email"
	"github.com/dmitrymomot/assetmail/pkg/mimemail"
)

// Compile-time check that Client implements email.Sink
var _ email.Sink = (*Client)(nil)

// Client implements email.Sink using the standard SMTP protocol.
// Supports multiple TLS modes (STARTTLS, TLS, plain) and is safe for concurrent use.
type Client struct {
	config  Config
	auth    smtp.Auth
	builder *mimemail.Builder
}

// New creates an SMTP-backed email sink.
func New(cfg Config) (*Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: Host is required", email.ErrInvalidConfig)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("%w: Port must be between 1 and 65535", email.ErrInvalidConfig)
	}
	if (cfg.Username == "") != (cfg.Password == "") {
		return nil, fmt.Errorf("%w: Username and Password must be set together", email.ErrInvalidConfig)
	}
	if cfg.TLSMode != "starttls" && cfg.TLSMode != "tls" && cfg.TLSMode != "plain" {
		return nil, fmt.Errorf("%w: TLSMode must be starttls, tls, or plain", email.ErrInvalidConfig)
	}
	if cfg.SenderEmail == "" || !email.IsValidAddress(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", email.ErrInvalidConfig)
	}
	if cfg.SupportEmail != "" && !email.IsValidAddress(cfg.SupportEmail) {
		return nil, fmt.Errorf("%w: SupportEmail must be a valid email address", email.ErrInvalidConfig)
	}

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &Client{
		config:  cfg,
		auth:    auth,
		builder: mimemail.New(),
	}, nil
}

// MustNewClient creates an SMTP client that panics on invalid config.
func MustNewClient(cfg Config) *Client {
	client, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

// SendEmail builds a multipart/alternative message and submits it.
func (c *Client) SendEmail(ctx context.Context, params email.SendEmailParams) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.Join(email.ErrFailedToSendEmail, err)
	}
	if err := params.Validate(); err != nil {
		return "", err
	}

	from := c.from(params.From)
	messageID := mimemail.NewMessageID(domainOf(from))
	raw, err := c.builder.Build(mimemail.Message{
		From:      from,
		To:        params.SendTo,
		Subject:   params.Subject,
		MessageID: messageID,
		Text:      params.BodyText,
		HTML:      params.BodyHTML,
	})
	if err != nil {
		return "", errors.Join(email.ErrInvalidParams, err)
	}

	if err := c.submit(ctx, from, params.SendTo, raw); err != nil {
		return "", errors.Join(email.ErrFailedToSendEmail, err)
	}
	return strings.Trim(messageID, "<>"), nil
}

// SendRawEmail submits the message bytes unchanged. The returned ID is taken
// from the message's Message-ID header.
func (c *Client) SendRawEmail(ctx context.Context, params email.RawEmailParams) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.Join(email.ErrFailedToSendEmail, err)
	}
	if err := params.Validate(); err != nil {
		return "", err
	}

	msg, err := mail.ReadMessage(bytes.NewReader(params.Raw))
	if err != nil {
		return "", errors.Join(email.ErrInvalidParams, err)
	}

	if err := c.submit(ctx, c.from(params.From), params.SendTo, params.Raw); err != nil {
		return "", errors.Join(email.ErrFailedToSendEmail, err)
	}
	return strings.Trim(msg.Header.Get("Message-ID"), "<> "), nil
}

// submit dials according to the TLS mode and runs one SMTP transaction.
// The context deadline bounds the whole exchange.
func (c *Client) submit(ctx context.Context, from, to string, message []byte) error {
	serverAddr := net.JoinHostPort(c.config.Host, strconv.Itoa(c.config.Port))

	conn, err := c.dial(ctx, serverAddr)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, c.config.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if c.config.TLSMode == "starttls" {
		if err := client.StartTLS(&tls.Config{ServerName: c.config.Host}); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	return c.performSMTPTransaction(client, from, to, message)
}

func (c *Client) dial(ctx context.Context, serverAddr string) (net.Conn, error) {
	dialer := &net.Dialer{}
	if c.config.TLSMode == "tls" {
		tlsDialer := &tls.Dialer{
			NetDialer: dialer,
			Config:    &tls.Config{ServerName: c.config.Host},
		}
		conn, err := tlsDialer.DialContext(ctx, "tcp", serverAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SMTP server with TLS: %w", err)
		}
		return conn, nil
	}

	conn, err := dialer.DialContext(ctx, "tcp", serverAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	return conn, nil
}

// performSMTPTransaction performs the actual SMTP transaction.
func (c *Client) performSMTPTransaction(client *smtp.Client, from, to string, message []byte) error {
	if c.auth != nil {
		if err := client.Auth(c.auth); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err := writer.Write(message); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	// Some servers close the connection immediately after DATA,
	// so a failed QUIT does not mean the message was lost.
	_ = client.Quit()
	return nil
}

func (c *Client) from(override string) string {
	if override != "" {
		return override
	}
	return c.config.SenderEmail
}

func domainOf(addr string) string {
	if i := strings.LastIndexByte(addr, '@'); i >= 0 {
		return addr[i+1:]
	}
	return "localhost"
}
