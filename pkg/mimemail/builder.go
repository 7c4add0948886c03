package mimemail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxEncodedLineLength is the RFC 2045 limit for base64 body lines.
	MaxEncodedLineLength = 76

	// maxTextLineLength is the RFC 5322 limit for a line in a 7bit body, excluding CRLF.
	maxTextLineLength = 998

	crlf = "\r\n"

	defaultContentType = "application/octet-stream"
	defaultFilename    = "attachment"
	defaultIDDomain    = "assetmail.local"

	// maxBoundaryAttempts bounds regeneration when a boundary collides with body text.
	maxBoundaryAttempts = 8
)

// Attachment is a file carried inline in the message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is the input to Build and the output of Parse.
type Message struct {
	From        string
	To          string
	Subject     string
	MessageID   string // With angle brackets. Generated when empty.
	Date        time.Time
	Text        string
	HTML        string
	Attachments []Attachment
}

// Builder serializes messages as multipart/mixed wrapping multipart/alternative
// (text, html) followed by base64 attachment parts. Every line ends in CRLF and
// no base64 line exceeds MaxEncodedLineLength.
type Builder struct {
	boundary func() string
	now      func() time.Time
	idDomain string
}

// Option configures a Builder.
type Option func(*Builder)

// WithBoundaryFunc overrides boundary generation. Tests use it for deterministic output.
func WithBoundaryFunc(fn func() string) Option {
	return func(b *Builder) {
		if fn != nil {
			b.boundary = fn
		}
	}
}

// WithClock overrides the Date header source.
func WithClock(fn func() time.Time) Option {
	return func(b *Builder) {
		if fn != nil {
			b.now = fn
		}
	}
}

// WithMessageIDDomain sets the right-hand side of generated Message-IDs.
// Defaults to the sender's domain.
func WithMessageIDDomain(domain string) Option {
	return func(b *Builder) {
		b.idDomain = domain
	}
}

// New returns a Builder with random boundaries and the system clock.
func New(opts ...Option) *Builder {
	b := &Builder{
		boundary: randomBoundary,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build materializes the complete raw message.
func (b *Builder) Build(m Message) ([]byte, error) {
	from := stripLineBreaks(m.From)
	to := stripLineBreaks(m.To)
	if from == "" {
		return nil, ErrMissingFrom
	}
	if to == "" {
		return nil, ErrMissingTo
	}

	mixed, alt, err := b.boundaries(m)
	if err != nil {
		return nil, err
	}

	date := m.Date
	if date.IsZero() {
		date = b.now()
	}

	messageID := stripLineBreaks(m.MessageID)
	if messageID == "" {
		messageID = NewMessageID(b.messageIDDomain(from))
	}

	var buf bytes.Buffer
	writeHeader(&buf, "From", from)
	writeHeader(&buf, "To", to)
	writeHeader(&buf, "Subject", encodeHeaderText(stripLineBreaks(m.Subject)))
	writeHeader(&buf, "Date", date.Format(time.RFC1123Z))
	writeHeader(&buf, "Message-ID", messageID)
	writeHeader(&buf, "MIME-Version", "1.0")

	if len(m.Attachments) == 0 {
		writeHeader(&buf, "Content-Type", mime.FormatMediaType("multipart/alternative", map[string]string{"boundary": alt}))
		buf.WriteString(crlf)
		if err := writeAlternative(&buf, alt, m.Text, m.HTML); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	writeHeader(&buf, "Content-Type", mime.FormatMediaType("multipart/mixed", map[string]string{"boundary": mixed}))
	buf.WriteString(crlf)

	mw := multipart.NewWriter(&buf)
	if err := mw.SetBoundary(mixed); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBoundary, err)
	}

	altHeader := textproto.MIMEHeader{}
	altHeader.Set("Content-Type", mime.FormatMediaType("multipart/alternative", map[string]string{"boundary": alt}))
	altPart, err := mw.CreatePart(altHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to create alternative part: %w", err)
	}
	if err := writeAlternative(altPart, alt, m.Text, m.HTML); err != nil {
		return nil, err
	}

	for _, a := range m.Attachments {
		if err := writeAttachment(mw, a); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return buf.Bytes(), nil
}

// boundaries returns two distinct boundary tokens absent from the text and html bodies.
func (b *Builder) boundaries(m Message) (string, string, error) {
	used := make(map[string]bool, 2)
	next := func() (string, error) {
		for range maxBoundaryAttempts {
			token := b.boundary()
			if token == "" || used[token] || strings.Contains(m.Text, token) || strings.Contains(m.HTML, token) {
				continue
			}
			used[token] = true
			return token, nil
		}
		return "", ErrInvalidBoundary
	}

	mixed, err := next()
	if err != nil {
		return "", "", err
	}
	alt, err := next()
	if err != nil {
		return "", "", err
	}
	return mixed, alt, nil
}

func (b *Builder) messageIDDomain(from string) string {
	if b.idDomain != "" {
		return b.idDomain
	}
	addr := from
	if i := strings.LastIndex(addr, "<"); i >= 0 {
		addr = strings.TrimSuffix(addr[i+1:], ">")
	}
	if i := strings.LastIndex(addr, "@"); i >= 0 && i < len(addr)-1 {
		return addr[i+1:]
	}
	return defaultIDDomain
}

// writeAlternative writes a complete multipart/alternative body with text then html.
func writeAlternative(w io.Writer, boundary, text, html string) error {
	aw := multipart.NewWriter(w)
	if err := aw.SetBoundary(boundary); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBoundary, err)
	}
	if err := writeTextPart(aw, "text/plain", text); err != nil {
		return err
	}
	if err := writeTextPart(aw, "text/html", html); err != nil {
		return err
	}
	if err := aw.Close(); err != nil {
		return fmt.Errorf("failed to close alternative writer: %w", err)
	}
	return nil
}

func writeTextPart(w *multipart.Writer, mediaType, body string) error {
	body = normalizeNewlines(body)
	encoding := "7bit"
	if !is7bit(body) {
		encoding = "quoted-printable"
	}

	h := textproto.MIMEHeader{}
	h.Set("Content-Type", mime.FormatMediaType(mediaType, map[string]string{"charset": "UTF-8"}))
	h.Set("Content-Transfer-Encoding", encoding)

	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create %s part: %w", mediaType, err)
	}

	if encoding == "7bit" {
		_, err = io.WriteString(part, body)
		return err
	}

	qp := quotedprintable.NewWriter(part)
	if _, err := io.WriteString(qp, body); err != nil {
		return fmt.Errorf("failed to encode %s part: %w", mediaType, err)
	}
	return qp.Close()
}

func writeAttachment(w *multipart.Writer, a Attachment) error {
	filename := SanitizeFilename(a.Filename)

	h := textproto.MIMEHeader{}
	h.Set("Content-Type", attachmentContentType(a.ContentType, filename))
	h.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	h.Set("Content-Transfer-Encoding", "base64")

	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create attachment part %s: %w", filename, err)
	}

	if _, err := part.Write(encodeBase64Lines(a.Data)); err != nil {
		return fmt.Errorf("failed to write attachment part %s: %w", filename, err)
	}
	return nil
}

// encodeBase64Lines encodes data as base64 wrapped at MaxEncodedLineLength with CRLF separators.
func encodeBase64Lines(data []byte) []byte {
	encoded := make([]byte, base64.StdEncoding.EncodedLen(len(data)))
	base64.StdEncoding.Encode(encoded, data)

	lines := (len(encoded) + MaxEncodedLineLength - 1) / MaxEncodedLineLength
	out := make([]byte, 0, len(encoded)+lines*len(crlf))
	for start := 0; start < len(encoded); start += MaxEncodedLineLength {
		if start > 0 {
			out = append(out, crlf...)
		}
		end := min(start+MaxEncodedLineLength, len(encoded))
		out = append(out, encoded[start:end]...)
	}
	return out
}

// attachmentContentType keeps the probed media type and its parameters and adds a quoted name.
func attachmentContentType(contentType, filename string) string {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType == "" {
		mediaType, params = defaultContentType, nil
	}
	delete(params, "name")

	formatted := mime.FormatMediaType(mediaType, params)
	if formatted == "" {
		formatted = defaultContentType
	}
	return formatted + `; name="` + filename + `"`
}

// SanitizeFilename makes a filename safe for quoted header parameters.
// Quotes, backslashes, control and non-ASCII characters become underscores.
func SanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r < 0x20 || r > 0x7e {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		return defaultFilename
	}
	return name
}

// NewMessageID returns a globally unique Message-ID for domain.
func NewMessageID(domain string) string {
	if domain == "" {
		domain = defaultIDDomain
	}
	return "<" + uuid.NewString() + "@" + domain + ">"
}

func randomBoundary() string {
	return "=_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func writeHeader(buf *bytes.Buffer, key, value string) {
	buf.WriteString(key)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString(crlf)
}

func stripLineBreaks(s string) string {
	return strings.TrimSpace(strings.NewReplacer("\r", "", "\n", "").Replace(s))
}

func encodeHeaderText(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7e {
			return mime.QEncoding.Encode("utf-8", s)
		}
	}
	return s
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ReplaceAll(s, "\n", crlf)
}

// is7bit reports whether s (already CRLF-normalized) is ASCII without NULs and short lines.
func is7bit(s string) bool {
	for line := range strings.SplitSeq(s, crlf) {
		if len(line) > maxTextLineLength {
			return false
		}
		for i := 0; i < len(line); i++ {
			if line[i] == 0 || line[i] > 0x7f {
				return false
			}
		}
	}
	return true
}
