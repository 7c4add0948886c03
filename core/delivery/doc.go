// Package delivery emails stored recording and transcription assets to a
// recipient, either attached to the message or as presigned download links.
//
// A delivery runs in stages: every key is checked against the KeyPolicy, object
// metadata is resolved concurrently, Limits.Decide picks the mode from the
// combined raw size and the base64-encoded size, and then either all assets are
// downloaded and assembled into a raw MIME message or all assets get a
// presigned link. The first failure at any stage ends the request; there are no
// partial sends and no fallback from attachments to links after a fetch error.
//
//	svc, err := delivery.NewService(delivery.Config{
//		From:   "no-reply@example.com",
//		Keys:   delivery.KeyPolicy{EnforceTenancy: true},
//		Limits: delivery.DefaultLimits(),
//	}, store, sink, delivery.WithLogger(log))
//
//	res, err := svc.Send(ctx, subject, delivery.Request{
//		ToEmail:      "user@example.com",
//		RecordingKey: "users/42/call.m4a",
//	})
//
// Errors are *Error values with a stable Kind that maps to an HTTP status.
package delivery
