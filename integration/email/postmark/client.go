package postmark

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"

	"github.com/dmitrymomot/assetmail/core/email"
	"github.com/dmitrymomot/assetmail/pkg/mimemail"
)

// API is the subset of the Postmark client used for sending.
type API interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

// Compile-time check that Client implements email.Sink
var _ email.Sink = (*Client)(nil)

type Client struct {
	api    API
	config Config
}

// Option configures a Client.
type Option func(*Client)

// WithAPI replaces the Postmark HTTP client, primarily for tests.
func WithAPI(api API) Option {
	return func(c *Client) {
		if api != nil {
			c.api = api
		}
	}
}

// New creates a Postmark-backed email sink.
// Both tokens are required for runtime operation - this enforces
// explicit configuration rather than silent failures in production.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", email.ErrInvalidConfig)
	}
	if cfg.PostmarkAccountToken == "" {
		return nil, fmt.Errorf("%w: PostmarkAccountToken is required", email.ErrInvalidConfig)
	}
	if cfg.SenderEmail == "" || !email.IsValidAddress(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", email.ErrInvalidConfig)
	}
	if cfg.SupportEmail != "" && !email.IsValidAddress(cfg.SupportEmail) {
		return nil, fmt.Errorf("%w: SupportEmail must be a valid email address", email.ErrInvalidConfig)
	}

	c := &Client{
		api:    postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		config: cfg,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// MustNewClient creates a Postmark client that panics on invalid config.
func MustNewClient(cfg Config, opts ...Option) *Client {
	client, err := New(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return client
}

// SendEmail sends a structured message through Postmark's transactional API.
// Opens and HTML link clicks are tracked; plain text links are left untouched.
func (c *Client) SendEmail(ctx context.Context, params email.SendEmailParams) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}

	return c.send(ctx, postmark.Email{
		From:          c.from(params.From),
		ReplyTo:       c.config.SupportEmail,
		To:            params.SendTo,
		Subject:       params.Subject,
		Tag:           params.Tag,
		HTMLBody:      params.BodyHTML,
		TextBody:      params.BodyText,
		TrackOpens:    true,
		TrackLinks:    "HtmlOnly",
	})
}

// SendRawEmail submits a prebuilt MIME message. Postmark has no raw endpoint,
// so the message is decoded and its bodies and attachments are forwarded
// through the attachments API unchanged.
func (c *Client) SendRawEmail(ctx context.Context, params email.RawEmailParams) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}

	msg, err := mimemail.Parse(params.Raw)
	if err != nil {
		return "", errors.Join(email.ErrInvalidParams, err)
	}

	attachments := make([]postmark.Attachment, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		attachments = append(attachments, postmark.Attachment{
			Name:        a.Filename,
			Content:     base64.StdEncoding.EncodeToString(a.Data),
			ContentType: a.ContentType,
		})
	}

	return c.send(ctx, postmark.Email{
		From:          c.from(params.From),
		ReplyTo:       c.config.SupportEmail,
		To:            params.SendTo,
		Subject:       msg.Subject,
		Tag:           params.Tag,
		HTMLBody:      msg.HTML,
		TextBody:      msg.Text,
		Attachments:   attachments,
	})
}

func (c *Client) send(ctx context.Context, e postmark.Email) (string, error) {
	resp, err := c.api.SendEmail(ctx, e)
	if err != nil {
		return "", errors.Join(email.ErrFailedToSendEmail, err)
	}
	if resp.ErrorCode > 0 {
		return "", errors.Join(
			email.ErrFailedToSendEmail,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message),
		)
	}
	return resp.MessageID, nil
}

func (c *Client) from(override string) string {
	if override != "" {
		return override
	}
	return c.config.SenderEmail
}
