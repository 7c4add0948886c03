// Package mimemail builds and parses raw RFC 5322 / RFC 2045 email messages
// carrying a text and html alternative plus base64 file attachments.
//
// The builder materializes the whole message in memory because raw-message
// email APIs accept a single contiguous payload:
//
//	raw, err := mimemail.New().Build(mimemail.Message{
//		From:    "no-reply@example.com",
//		To:      "user@example.com",
//		Subject: "Your files",
//		Text:    "Your files are attached.",
//		HTML:    "<p>Your files are attached.</p>",
//		Attachments: []mimemail.Attachment{
//			{Filename: "recording.m4a", ContentType: "audio/mp4", Data: audio},
//		},
//	})
//
// Output structure:
//
//	multipart/mixed
//	├── multipart/alternative
//	│   ├── text/plain; charset=UTF-8
//	│   └── text/html; charset=UTF-8
//	└── one base64 part per attachment
//
// All lines end in CRLF and base64 lines are at most 76 characters.
// Without attachments the top-level part is multipart/alternative.
package mimemail
