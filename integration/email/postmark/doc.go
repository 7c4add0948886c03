// Package postmark provides a Postmark-backed email.Sink.
//
// Structured messages map directly onto Postmark's transactional API with open
// and HTML link tracking enabled. Raw MIME messages are decoded with
// pkg/mimemail and resubmitted as Postmark attachments, since the API accepts
// no raw payloads.
//
//	sink, err := postmark.New(postmark.Config{
//		PostmarkServerToken:  os.Getenv("POSTMARK_SERVER_TOKEN"),
//		PostmarkAccountToken: os.Getenv("POSTMARK_ACCOUNT_TOKEN"),
//		SenderEmail:          "no-reply@example.com",
//	})
//	if err != nil {
//		return err
//	}
//	id, err := sink.SendRawEmail(ctx, email.RawEmailParams{SendTo: to, Raw: raw})
//
// Configuration errors wrap email.ErrInvalidConfig. API failures and non-zero
// Postmark error codes wrap email.ErrFailedToSendEmail.
package postmark
