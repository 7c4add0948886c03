package delivery_test

import (
	"context"
	"crypto/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/assetmail/core/delivery"
	"github.com/dmitrymomot/assetmail/pkg/mimemail"
)

type recorder struct {
	mu         sync.Mutex
	deliveries []string
	bytes      int64
}

func (r *recorder) RecordDelivery(mode, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, mode+"/"+result)
}

func (r *recorder) RecordAttachmentBytes(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bytes += n
}

func randomData(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	_, err := rand.Read(b)
	require.NoError(t, err)
	return b
}

func prefixConfig() delivery.Config {
	return delivery.Config{
		From:    "no-reply@example.com",
		Subject: "Your files",
		Keys:    delivery.KeyPolicy{AllowedPrefixes: []string{"recordings/", "transcriptions/"}},
		Limits:  delivery.DefaultLimits(),
		LinkTTL: 24 * time.Hour,
	}
}

func newService(t *testing.T, cfg delivery.Config, store *fakeStorage, sink *fakeSink, opts ...delivery.Option) *delivery.Service {
	t.Helper()
	svc, err := delivery.NewService(cfg, store, sink, opts...)
	require.NoError(t, err)
	return svc
}

func TestService_ScenarioA_SmallAssetsAreAttached(t *testing.T) {
	t.Parallel()

	recording := randomData(t, 3*delivery.MiB)
	transcription := []byte(strings.Repeat("hello world\n", delivery.MiB/10/12))

	store := newFakeStorage().
		put("recordings/call.m4a", object{data: recording}).
		put("transcriptions/call.txt", object{data: transcription})
	sink := &fakeSink{}
	rec := &recorder{}

	svc := newService(t, prefixConfig(), store, sink, delivery.WithRecorder(rec))

	res, err := svc.Send(context.Background(), "42", delivery.Request{
		ToEmail:          "user@example.com",
		RecordingKey:     "recordings/call.m4a",
		TranscriptionKey: "transcriptions/call.txt",
	})
	require.NoError(t, err)

	assert.Equal(t, "msg-raw", res.MessageID)
	assert.Equal(t, "user@example.com", res.ToEmail)
	assert.Equal(t, delivery.ModeAttachments, res.Mode)
	assert.Empty(t, res.Links)

	require.Len(t, sink.raw, 1)
	assert.Empty(t, sink.sent)
	_, _, presigns := store.calls()
	assert.Zero(t, presigns)

	sent := sink.raw[0]
	assert.Equal(t, "user@example.com", sent.SendTo)
	assert.Equal(t, "no-reply@example.com", sent.From)
	assert.Equal(t, delivery.Tag, sent.Tag)

	for _, line := range strings.Split(strings.TrimSuffix(string(sent.Raw), "\r\n"), "\r\n") {
		assert.NotContains(t, line, "\n")
		assert.LessOrEqual(t, len(line), 998)
	}

	msg, err := mimemail.Parse(sent.Raw)
	require.NoError(t, err)
	assert.Equal(t, "Your files", msg.Subject)
	assert.Contains(t, msg.Text, "attached")
	assert.Contains(t, msg.HTML, "attached")
	require.Len(t, msg.Attachments, 2)

	assert.Equal(t, "call.m4a", msg.Attachments[0].Filename)
	assert.Equal(t, "audio/mp4", msg.Attachments[0].ContentType)
	assert.Equal(t, recording, msg.Attachments[0].Data)
	assert.Equal(t, "call.txt", msg.Attachments[1].Filename)
	assert.Equal(t, "text/plain; charset=UTF-8", msg.Attachments[1].ContentType)
	assert.Equal(t, transcription, msg.Attachments[1].Data)

	assert.Equal(t, []string{"attachments/sent"}, rec.deliveries)
	assert.Equal(t, int64(len(sent.Raw)), rec.bytes)
}

func TestService_ScenarioB_LargeRecordingIsLinked(t *testing.T) {
	t.Parallel()

	store := newFakeStorage().
		put("recordings/big.wav", object{size: 9*delivery.MiB + delivery.MiB/2})
	sink := &fakeSink{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	svc := newService(t, prefixConfig(), store, sink, delivery.WithClock(func() time.Time { return now }))

	res, err := svc.Send(context.Background(), "42", delivery.Request{
		ToEmail:      "user@example.com",
		RecordingKey: "recordings/big.wav",
	})
	require.NoError(t, err)

	assert.Equal(t, delivery.ModeLinks, res.Mode)
	assert.Equal(t, "msg-structured", res.MessageID)
	require.Len(t, res.Links, 1)
	assert.Equal(t, delivery.LabelRecording, res.Links[0].Label)
	assert.Equal(t, "big.wav", res.Links[0].Filename)
	assert.Equal(t, now.Add(24*time.Hour), res.Links[0].ExpiresAt)
	assert.Contains(t, res.Links[0].URL, "ttl=86400")

	_, gets, _ := store.calls()
	assert.Zero(t, gets)
	assert.Empty(t, sink.raw)
	require.Len(t, sink.sent, 1)
	assert.Contains(t, sink.sent[0].BodyText, "Recording — big.wav: "+res.Links[0].URL)
	assert.Contains(t, sink.sent[0].BodyHTML, "big.wav")
}

func TestService_ScenarioC_CombinedSizeOverLimitIsLinked(t *testing.T) {
	t.Parallel()

	store := newFakeStorage().
		put("recordings/a.m4a", object{size: 6 * delivery.MiB}).
		put("transcriptions/a.json", object{size: 6 * delivery.MiB})
	sink := &fakeSink{}

	svc := newService(t, prefixConfig(), store, sink)

	res, err := svc.Send(context.Background(), "42", delivery.Request{
		ToEmail:          "user@example.com",
		RecordingKey:     "recordings/a.m4a",
		TranscriptionKey: "transcriptions/a.json",
	})
	require.NoError(t, err)
	assert.Equal(t, delivery.ModeLinks, res.Mode)
	require.Len(t, res.Links, 2)
	assert.Equal(t, delivery.LabelRecording, res.Links[0].Label)
	assert.Equal(t, delivery.LabelTranscription, res.Links[1].Label)
}

func TestService_ScenarioD_InvalidKeyBeforeStorage(t *testing.T) {
	t.Parallel()

	store := newFakeStorage().put("secrets/foo.m4a", object{size: 10})
	sink := &fakeSink{}
	rec := &recorder{}

	svc := newService(t, prefixConfig(), store, sink, delivery.WithRecorder(rec))

	res, err := svc.Send(context.Background(), "42", delivery.Request{
		ToEmail:      "user@example.com",
		RecordingKey: "secrets/foo.m4a",
	})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, delivery.ErrInvalidKey)
	assert.Equal(t, delivery.KindInvalidKey, delivery.KindOf(err))

	heads, gets, presigns := store.calls()
	assert.Zero(t, heads+gets+presigns)
	assert.Empty(t, sink.raw)
	assert.Empty(t, sink.sent)
	assert.Equal(t, []string{"none/invalid_key"}, rec.deliveries)
}

func TestService_ScenarioE_MissingTranscriptionFailsWholeRequest(t *testing.T) {
	t.Parallel()

	store := newFakeStorage().put("recordings/a.m4a", object{size: 20 * delivery.MiB})
	sink := &fakeSink{}

	svc := newService(t, prefixConfig(), store, sink)

	res, err := svc.Send(context.Background(), "42", delivery.Request{
		ToEmail:          "user@example.com",
		RecordingKey:     "recordings/a.m4a",
		TranscriptionKey: "transcriptions/gone.txt",
	})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, delivery.ErrAssetNotFound)

	_, gets, presigns := store.calls()
	assert.Zero(t, gets)
	assert.Zero(t, presigns)
	assert.Empty(t, sink.raw)
	assert.Empty(t, sink.sent)
}

func TestService_Tenancy(t *testing.T) {
	t.Parallel()

	cfg := prefixConfig()
	cfg.Keys = delivery.KeyPolicy{EnforceTenancy: true}

	store := newFakeStorage().put("users/42/a.m4a", object{data: []byte("abc")})
	sink := &fakeSink{}
	svc := newService(t, cfg, store, sink)

	res, err := svc.Send(context.Background(), "42", delivery.Request{ToEmail: "user@example.com", RecordingKey: "users/42/a.m4a"})
	require.NoError(t, err)
	assert.Equal(t, delivery.ModeAttachments, res.Mode)

	_, err = svc.Send(context.Background(), "7", delivery.Request{ToEmail: "user@example.com", RecordingKey: "users/42/a.m4a"})
	assert.ErrorIs(t, err, delivery.ErrForbidden)
	assert.Equal(t, 403, delivery.KindOf(err).HTTPStatus())
}

func TestService_MalformedRequests(t *testing.T) {
	t.Parallel()

	svc := newService(t, prefixConfig(), newFakeStorage(), &fakeSink{})

	tests := []struct {
		name string
		req  delivery.Request
	}{
		{"missing recipient", delivery.Request{RecordingKey: "recordings/a.m4a"}},
		{"invalid recipient", delivery.Request{ToEmail: "user@example.com\r\nBcc: x@example.com", RecordingKey: "recordings/a.m4a"}},
		{"no keys", delivery.Request{ToEmail: "user@example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := svc.Send(context.Background(), "42", tt.req)
			assert.ErrorIs(t, err, delivery.ErrMalformedRequest)
		})
	}
}

func TestService_DispatchFailure(t *testing.T) {
	t.Parallel()

	store := newFakeStorage().put("recordings/a.m4a", object{data: []byte("abc")})
	sink := &fakeSink{err: errProvider}
	svc := newService(t, prefixConfig(), store, sink)

	_, err := svc.Send(context.Background(), "42", delivery.Request{ToEmail: "user@example.com", RecordingKey: "recordings/a.m4a"})
	assert.ErrorIs(t, err, delivery.ErrDispatchFailure)
	assert.ErrorIs(t, err, errProvider)
	assert.Equal(t, 500, delivery.KindOf(err).HTTPStatus())
}

func TestService_FetchFailureDoesNotFallBackToLinks(t *testing.T) {
	t.Parallel()

	store := newFakeStorage().put("recordings/a.m4a", object{data: []byte("abc")})
	store.getErr = errProvider
	sink := &fakeSink{}
	svc := newService(t, prefixConfig(), store, sink)

	_, err := svc.Send(context.Background(), "42", delivery.Request{ToEmail: "user@example.com", RecordingKey: "recordings/a.m4a"})
	assert.ErrorIs(t, err, delivery.ErrInternal)

	_, _, presigns := store.calls()
	assert.Zero(t, presigns)
	assert.Empty(t, sink.raw)
	assert.Empty(t, sink.sent)
}

func TestNewService_Validation(t *testing.T) {
	t.Parallel()

	store, sink := newFakeStorage(), &fakeSink{}

	tests := []struct {
		name   string
		mutate func(*delivery.Config)
	}{
		{"invalid sender", func(c *delivery.Config) { c.From = "nobody" }},
		{"invalid limits", func(c *delivery.Config) { c.Limits.TransportCeiling = 20 * delivery.MiB }},
		{"no prefixes without tenancy", func(c *delivery.Config) { c.Keys = delivery.KeyPolicy{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := prefixConfig()
			tt.mutate(&cfg)
			_, err := delivery.NewService(cfg, store, sink)
			assert.Error(t, err)
		})
	}

	_, err := delivery.NewService(prefixConfig(), nil, sink)
	assert.Error(t, err)
	_, err = delivery.NewService(prefixConfig(), store, nil)
	assert.Error(t, err)
}
