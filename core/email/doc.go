// Package email defines the email sink used for asset delivery: structured
// messages (subject, text, html) via EmailSender and fully-formed MIME payloads
// via RawEmailSender. Providers implementing both satisfy Sink.
//
// Provider adapters live under integration/email. DevSender writes messages to
// disk for local development:
//
//	sink := email.NewDevSender("./dev_emails")
//	id, err := sink.SendRawEmail(ctx, email.RawEmailParams{
//		SendTo: "user@example.com",
//		Raw:    raw,
//	})
//
// Errors wrap ErrInvalidParams for validation failures and
// ErrFailedToSendEmail for provider failures:
//
//	if errors.Is(err, email.ErrFailedToSendEmail) {
//		// provider rejected or transport failed
//	}
package email
