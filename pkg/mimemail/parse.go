package mimemail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"
)

// Parse decodes a raw message produced by Build (or any conformant
// multipart/mixed or multipart/alternative message) back into a Message.
// Text bodies are returned with LF line endings.
func Parse(raw []byte) (*Message, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	dec := new(mime.WordDecoder)
	subject, err := dec.DecodeHeader(msg.Header.Get("Subject"))
	if err != nil {
		subject = msg.Header.Get("Subject")
	}

	out := &Message{
		From:      msg.Header.Get("From"),
		To:        msg.Header.Get("To"),
		Subject:   subject,
		MessageID: msg.Header.Get("Message-Id"),
	}
	if date, err := msg.Header.Date(); err == nil {
		out.Date = date
	}

	header := textproto.MIMEHeader(msg.Header)
	if err := walkPart(out, header, msg.Body); err != nil {
		return nil, err
	}
	return out, nil
}

func walkPart(out *Message, header textproto.MIMEHeader, body io.Reader) error {
	contentType := header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain; charset=us-ascii"
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return fmt.Errorf("%w: content type %q: %w", ErrMalformed, contentType, err)
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return fmt.Errorf("%w: %s without boundary", ErrMalformed, mediaType)
		}
		mr := multipart.NewReader(body, boundary)
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("%w: %w", ErrMalformed, err)
			}
			// NextPart has already undone quoted-printable and dropped the header.
			if err := walkPart(out, part.Header, part); err != nil {
				return err
			}
		}
	}

	data, err := io.ReadAll(decodeTransfer(header.Get("Content-Transfer-Encoding"), body))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	disposition, dispParams, _ := mime.ParseMediaType(header.Get("Content-Disposition"))
	if disposition == "attachment" {
		filename := dispParams["filename"]
		if filename == "" {
			filename = params["name"]
		}
		delete(params, "name")
		out.Attachments = append(out.Attachments, Attachment{
			Filename:    filename,
			ContentType: mime.FormatMediaType(mediaType, params),
			Data:        data,
		})
		return nil
	}

	switch mediaType {
	case "text/plain":
		out.Text = strings.ReplaceAll(string(data), crlf, "\n")
	case "text/html":
		out.HTML = strings.ReplaceAll(string(data), crlf, "\n")
	}
	return nil
}

func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		// The decoder skips CR and LF between encoded lines.
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}
