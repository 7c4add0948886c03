package postmark_test

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"

	pm "github.com/mrz1836/postmark"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/assetmail/core/email"
	"github.com/dmitrymomot/assetmail/integration/email/postmark"
	"github.com/dmitrymomot/assetmail/pkg/mimemail"
)

type fakeAPI struct {
	mu   sync.Mutex
	sent []pm.Email
	resp pm.EmailResponse
	err  error
}

func (f *fakeAPI) SendEmail(_ context.Context, e pm.Email) (pm.EmailResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, e)
	return f.resp, f.err
}

func validConfig() postmark.Config {
	return postmark.Config{
		PostmarkServerToken:  "server-token",
		PostmarkAccountToken: "account-token",
		SenderEmail:          "no-reply@example.com",
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*postmark.Config)
		errMsg string
	}{
		{"valid", func(*postmark.Config) {}, ""},
		{"missing server token", func(c *postmark.Config) { c.PostmarkServerToken = "" }, "PostmarkServerToken is required"},
		{"missing account token", func(c *postmark.Config) { c.PostmarkAccountToken = "" }, "PostmarkAccountToken is required"},
		{"missing sender", func(c *postmark.Config) { c.SenderEmail = "" }, "SenderEmail must be a valid email address"},
		{"invalid support", func(c *postmark.Config) { c.SupportEmail = "nope" }, "SupportEmail must be a valid email address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(&cfg)

			client, err := postmark.New(cfg)
			if tt.errMsg == "" {
				require.NoError(t, err)
				assert.NotNil(t, client)
				return
			}
			assert.ErrorIs(t, err, email.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.Nil(t, client)
		})
	}
}

func TestMustNewClient_Panics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { postmark.MustNewClient(postmark.Config{}) })
}

func TestClient_SendEmail(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{resp: pm.EmailResponse{MessageID: "pm-123"}}
	client, err := postmark.New(validConfig(), postmark.WithAPI(api))
	require.NoError(t, err)

	id, err := client.SendEmail(context.Background(), email.SendEmailParams{
		SendTo:   "user@example.com",
		Subject:  "Your files",
		BodyHTML: "<p>hi</p>",
		BodyText: "hi",
		Tag:      "delivery",
	})
	require.NoError(t, err)
	assert.Equal(t, "pm-123", id)

	require.Len(t, api.sent, 1)
	sent := api.sent[0]
	assert.Equal(t, "no-reply@example.com", sent.From)
	assert.Equal(t, "user@example.com", sent.To)
	assert.Equal(t, "<p>hi</p>", sent.HTMLBody)
	assert.Equal(t, "hi", sent.TextBody)
	assert.Equal(t, "delivery", sent.Tag)
	assert.Empty(t, sent.Attachments)
}

func TestClient_SendRawEmail(t *testing.T) {
	t.Parallel()

	data := []byte("RIFF....WAVEfmt ")
	raw, err := mimemail.New().Build(mimemail.Message{
		From:    "no-reply@example.com",
		To:      "user@example.com",
		Subject: "Your files",
		Text:    "see attached",
		HTML:    "<p>see attached</p>",
		Attachments: []mimemail.Attachment{
			{Filename: "call.wav", ContentType: "audio/wav", Data: data},
		},
	})
	require.NoError(t, err)

	api := &fakeAPI{resp: pm.EmailResponse{MessageID: "pm-raw"}}
	client, err := postmark.New(validConfig(), postmark.WithAPI(api))
	require.NoError(t, err)

	id, err := client.SendRawEmail(context.Background(), email.RawEmailParams{
		SendTo: "user@example.com",
		Raw:    raw,
	})
	require.NoError(t, err)
	assert.Equal(t, "pm-raw", id)

	require.Len(t, api.sent, 1)
	sent := api.sent[0]
	assert.Equal(t, "Your files", sent.Subject)
	assert.Equal(t, "see attached", sent.TextBody)
	assert.Equal(t, "<p>see attached</p>", sent.HTMLBody)
	require.Len(t, sent.Attachments, 1)
	assert.Equal(t, "call.wav", sent.Attachments[0].Name)
	assert.Equal(t, "audio/wav", sent.Attachments[0].ContentType)

	decoded, err := base64.StdEncoding.DecodeString(sent.Attachments[0].Content)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestClient_SendRawEmail_Malformed(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	client, err := postmark.New(validConfig(), postmark.WithAPI(api))
	require.NoError(t, err)

	_, err = client.SendRawEmail(context.Background(), email.RawEmailParams{
		SendTo: "user@example.com",
		Raw:    []byte("not a message"),
	})
	assert.ErrorIs(t, err, email.ErrInvalidParams)
	assert.Empty(t, api.sent)
}

func TestClient_Failures(t *testing.T) {
	t.Parallel()

	params := email.SendEmailParams{SendTo: "user@example.com", Subject: "s", BodyText: "b"}

	t.Run("transport error", func(t *testing.T) {
		t.Parallel()

		client, err := postmark.New(validConfig(), postmark.WithAPI(&fakeAPI{err: errors.New("boom")}))
		require.NoError(t, err)

		_, err = client.SendEmail(context.Background(), params)
		assert.ErrorIs(t, err, email.ErrFailedToSendEmail)
	})

	t.Run("api error code", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{resp: pm.EmailResponse{ErrorCode: 300, Message: "Invalid email request"}}
		client, err := postmark.New(validConfig(), postmark.WithAPI(api))
		require.NoError(t, err)

		_, err = client.SendEmail(context.Background(), params)
		assert.ErrorIs(t, err, email.ErrFailedToSendEmail)
		assert.Contains(t, err.Error(), "300")
	})

	t.Run("invalid params never reach the api", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{}
		client, err := postmark.New(validConfig(), postmark.WithAPI(api))
		require.NoError(t, err)

		_, err = client.SendEmail(context.Background(), email.SendEmailParams{SendTo: "bad"})
		assert.ErrorIs(t, err, email.ErrInvalidParams)
		assert.Empty(t, api.sent)
	})
}
