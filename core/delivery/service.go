package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/assetmail/core/email"
	"github.com/dmitrymomot/assetmail/core/logger"
	"github.com/dmitrymomot/assetmail/core/storage"
	"github.com/dmitrymomot/assetmail/pkg/mimemail"
)

// DefaultSubject is used when Config.Subject is empty.
const DefaultSubject = "Your files are ready"

// Tag labels every outgoing message at the provider.
const Tag = "asset-delivery"

// Config is built once at startup and shared by all requests.
type Config struct {
	From    string
	Subject string
	Keys    KeyPolicy
	Limits  Limits
	LinkTTL time.Duration
}

// Recorder receives delivery outcomes. core/metrics provides a Prometheus implementation.
type Recorder interface {
	RecordDelivery(mode, result string)
	RecordAttachmentBytes(n int64)
}

type nopRecorder struct{}

func (nopRecorder) RecordDelivery(string, string) {}
func (nopRecorder) RecordAttachmentBytes(int64)   {}

// Service sequences key validation, metadata resolution, the mode decision,
// body rendering and dispatch for a single delivery.
type Service struct {
	cfg      Config
	store    storage.Storage
	sink     email.Sink
	builder  *mimemail.Builder
	logger   *slog.Logger
	recorder Recorder
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithBuilder overrides the MIME builder.
func WithBuilder(b *mimemail.Builder) Option {
	return func(s *Service) {
		if b != nil {
			s.builder = b
		}
	}
}

// WithClock overrides the time source used for link expiry.
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService validates cfg and returns a ready Service.
func NewService(cfg Config, store storage.Storage, sink email.Sink, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("delivery: storage is required")
	}
	if sink == nil {
		return nil, errors.New("delivery: email sink is required")
	}
	if !email.IsValidAddress(cfg.From) {
		return nil, fmt.Errorf("delivery: invalid sender address %q", cfg.From)
	}
	if err := cfg.Limits.Validate(); err != nil {
		return nil, fmt.Errorf("delivery: %w", err)
	}
	if !cfg.Keys.EnforceTenancy && len(cfg.Keys.AllowedPrefixes) == 0 {
		return nil, errors.New("delivery: allowed key prefixes are required when tenancy is not enforced")
	}
	if cfg.LinkTTL <= 0 {
		cfg.LinkTTL = DefaultLinkTTL
	}
	if cfg.Subject == "" {
		cfg.Subject = DefaultSubject
	}

	s := &Service{
		cfg:      cfg,
		store:    store,
		sink:     sink,
		builder:  mimemail.New(),
		logger:   logger.Nop(),
		recorder: nopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("delivery"))
	return s, nil
}

// Send delivers the requested assets to req.ToEmail on behalf of subject.
// Every failure is a *Error and nothing is sent unless all stages succeed.
func (s *Service) Send(ctx context.Context, subject string, req Request) (*Result, error) {
	start := time.Now()

	res, err := s.send(ctx, subject, req)
	if err != nil {
		kind := KindOf(err)
		s.recorder.RecordDelivery("none", string(kind))
		s.logger.ErrorContext(ctx, "delivery failed",
			logger.Subject(subject),
			logger.Key("kind", string(kind)),
			logger.Error(err),
			logger.Elapsed(start),
		)
		return nil, err
	}

	s.recorder.RecordDelivery(string(res.Mode), "sent")
	s.logger.InfoContext(ctx, "delivery sent",
		logger.Subject(subject),
		logger.Mode(string(res.Mode)),
		logger.MessageID(res.MessageID),
		logger.Count("links", len(res.Links)),
		logger.Elapsed(start),
	)
	return res, nil
}

func (s *Service) send(ctx context.Context, subject string, req Request) (*Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	refs := req.Refs()
	for _, ref := range refs {
		if err := s.cfg.Keys.Validate(ref.Key, subject); err != nil {
			return nil, err
		}
	}

	metas, err := ResolveMetadata(ctx, s.store, refs)
	if err != nil {
		return nil, err
	}

	mode := s.cfg.Limits.Decide(metas)
	s.logger.DebugContext(ctx, "delivery mode decided",
		logger.Mode(string(mode)),
		logger.Bytes("combined_bytes", combinedSize(metas)),
	)

	if mode == ModeAttachments {
		return s.sendAttachments(ctx, req.ToEmail, metas)
	}
	return s.sendLinks(ctx, req.ToEmail, metas)
}

func (s *Service) sendAttachments(ctx context.Context, to string, metas []AssetMeta) (*Result, error) {
	parts, err := FetchAttachments(ctx, s.store, metas)
	if err != nil {
		return nil, err
	}

	text, html, err := renderBodies(BodyData{HasAttachments: true})
	if err != nil {
		return nil, err
	}

	raw, err := s.builder.Build(mimemail.Message{
		From:        s.cfg.From,
		To:          to,
		Subject:     s.cfg.Subject,
		Text:        text,
		HTML:        html,
		Attachments: parts,
	})
	if err != nil {
		return nil, newError(KindInternal, "failed to build message", err)
	}
	s.recorder.RecordAttachmentBytes(int64(len(raw)))

	id, err := s.sink.SendRawEmail(ctx, email.RawEmailParams{
		From:   s.cfg.From,
		SendTo: to,
		Raw:    raw,
		Tag:    Tag,
	})
	if err != nil {
		return nil, newError(KindDispatchFailure, "email provider rejected the message", err)
	}

	return &Result{MessageID: id, ToEmail: to, Mode: ModeAttachments, Links: []DownloadLink{}}, nil
}

func (s *Service) sendLinks(ctx context.Context, to string, metas []AssetMeta) (*Result, error) {
	links, err := IssueLinks(ctx, s.store, metas, s.cfg.LinkTTL, s.now())
	if err != nil {
		return nil, err
	}

	text, html, err := renderBodies(BodyData{Links: links})
	if err != nil {
		return nil, err
	}

	id, err := s.sink.SendEmail(ctx, email.SendEmailParams{
		From:     s.cfg.From,
		SendTo:   to,
		Subject:  s.cfg.Subject,
		BodyText: text,
		BodyHTML: html,
		Tag:      Tag,
	})
	if err != nil {
		return nil, newError(KindDispatchFailure, "email provider rejected the message", err)
	}

	return &Result{MessageID: id, ToEmail: to, Mode: ModeLinks, Links: links}, nil
}

func validateRequest(req Request) error {
	if req.ToEmail == "" {
		return newError(KindMalformedRequest, "toEmail is required", nil)
	}
	if !email.IsValidAddress(req.ToEmail) {
		return newError(KindMalformedRequest, "toEmail is not a valid email address", nil)
	}
	if req.RecordingKey == "" && req.TranscriptionKey == "" {
		return newError(KindMalformedRequest, "at least one of recordingKey or transcriptionKey is required", nil)
	}
	return nil
}

func renderBodies(data BodyData) (string, string, error) {
	text, err := RenderText(data)
	if err != nil {
		return "", "", newError(KindInternal, "failed to render text body", err)
	}
	html, err := RenderHTML(data)
	if err != nil {
		return "", "", newError(KindInternal, "failed to render html body", err)
	}
	return text, html, nil
}

func combinedSize(metas []AssetMeta) int64 {
	var n int64
	for _, m := range metas {
		n += m.Size
	}
	return n
}
