// Package smtp provides an SMTP-based email.Sink.
//
// Raw MIME payloads are submitted byte for byte. Structured messages are
// serialized with pkg/mimemail as multipart/alternative before submission.
// STARTTLS, direct TLS and plain connections are supported; the context
// deadline bounds dialing and the whole SMTP exchange.
//
//	sink, err := smtp.New(smtp.Config{
//		Host:        "smtp.example.com",
//		Port:        587,
//		Username:    "user",
//		Password:    "secret",
//		TLSMode:     "starttls",
//		SenderEmail: "no-reply@example.com",
//	})
//	if err != nil {
//		return err
//	}
//	id, err := sink.SendRawEmail(ctx, email.RawEmailParams{SendTo: to, Raw: raw})
//
// Username and Password are optional for relays without authentication.
// The returned ID is the message's Message-ID without angle brackets.
package smtp
