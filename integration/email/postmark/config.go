package postmark

// Config holds Postmark credentials and sender identity.
// SenderEmail may be left empty in the environment and filled by the caller
// from a resolved sender address before calling New.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN,required"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN,required"`
	SenderEmail          string `env:"SENDER_EMAIL"`
	SupportEmail         string `env:"SUPPORT_EMAIL"`
}
