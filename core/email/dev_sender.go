package email

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/assetmail/pkg/mimemail"
)

// Compile-time check that DevSender implements Sink
var _ Sink = (*DevSender)(nil)

// DevSender implements Sink for local development.
// It saves emails to a directory instead of sending them.
type DevSender struct {
	dir string
	now func() time.Time
}

// NewDevSender creates a development email sender that saves emails to disk.
// The directory will be created if it doesn't exist.
func NewDevSender(dir string) *DevSender {
	return &DevSender{dir: dir, now: time.Now}
}

// emailMetadata contains the email data saved to JSON.
type emailMetadata struct {
	MessageID   string   `json:"message_id"`
	Timestamp   string   `json:"timestamp"`
	From        string   `json:"from,omitempty"`
	SendTo      string   `json:"send_to"`
	Subject     string   `json:"subject"`
	Tag         string   `json:"tag,omitempty"`
	Raw         bool     `json:"raw"`
	Attachments []string `json:"attachments,omitempty"`
}

// SendEmail saves HTML and text bodies plus a JSON metadata file.
func (d *DevSender) SendEmail(ctx context.Context, params SendEmailParams) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailedToSendEmail, err)
	}

	base, err := d.prepare(params.Tag, params.Subject)
	if err != nil {
		return "", err
	}

	if params.BodyHTML != "" {
		if err := os.WriteFile(base+".html", []byte(params.BodyHTML), 0o644); err != nil {
			return "", fmt.Errorf("%w: failed to write HTML file: %v", ErrFailedToSendEmail, err)
		}
	}
	if params.BodyText != "" {
		if err := os.WriteFile(base+".txt", []byte(params.BodyText), 0o644); err != nil {
			return "", fmt.Errorf("%w: failed to write text file: %v", ErrFailedToSendEmail, err)
		}
	}

	id := "dev-" + uuid.NewString()
	return id, d.writeMetadata(base, emailMetadata{
		MessageID: id,
		From:      params.From,
		SendTo:    params.SendTo,
		Subject:   params.Subject,
		Tag:       params.Tag,
	})
}

// SendRawEmail saves the message as an .eml file plus a JSON metadata file.
// The returned ID is the message's own Message-ID header when present.
func (d *DevSender) SendRawEmail(ctx context.Context, params RawEmailParams) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailedToSendEmail, err)
	}

	parsed, err := mimemail.Parse(params.Raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}

	base, err := d.prepare(params.Tag, parsed.Subject)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(base+".eml", params.Raw, 0o644); err != nil {
		return "", fmt.Errorf("%w: failed to write eml file: %v", ErrFailedToSendEmail, err)
	}

	id := strings.Trim(parsed.MessageID, "<>")
	if id == "" {
		id = "dev-" + uuid.NewString()
	}

	names := make([]string, 0, len(parsed.Attachments))
	for _, a := range parsed.Attachments {
		names = append(names, a.Filename)
	}

	return id, d.writeMetadata(base, emailMetadata{
		MessageID:   id,
		From:        params.From,
		SendTo:      params.SendTo,
		Subject:     parsed.Subject,
		Tag:         params.Tag,
		Raw:         true,
		Attachments: names,
	})
}

// prepare creates the output directory and returns a timestamped base path.
func (d *DevSender) prepare(tag, subject string) (string, error) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: failed to create directory: %v", ErrFailedToSendEmail, err)
	}

	identifier := tag
	if identifier == "" {
		identifier = subject
	}

	// Nanosecond suffix keeps concurrent sends from overwriting each other
	now := d.now()
	name := fmt.Sprintf("%s_%09d_%s", now.Format("2006_01_02_150405"), now.Nanosecond(), sanitizeFilename(identifier))
	return filepath.Join(d.dir, name), nil
}

func (d *DevSender) writeMetadata(base string, meta emailMetadata) error {
	meta.Timestamp = d.now().Format(time.RFC3339)

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to marshal metadata: %v", ErrFailedToSendEmail, err)
	}
	if err := os.WriteFile(base+".json", data, 0o644); err != nil {
		return fmt.Errorf("%w: failed to write JSON file: %v", ErrFailedToSendEmail, err)
	}
	return nil
}

// sanitizeRegex removes filesystem-unsafe characters from filenames
var sanitizeRegex = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// sanitizeFilename converts a string into a safe, lowercase filename.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = sanitizeRegex.ReplaceAllString(s, "")

	const maxLength = 100
	if len(s) > maxLength {
		s = s[:maxLength]
	}
	if s == "" {
		s = "email"
	}
	return strings.ToLower(s)
}
