// Package httpserver exposes the delivery service over HTTP with echo.
//
// Every /v1 request must carry an HS256 bearer token; the token subject is the
// tenancy identity passed to the delivery service. Request bodies are decoded
// strictly: unknown fields and trailing data are rejected as malformed.
// Errors are written as {"code","message"} with a status derived from the
// delivery error kind. Internal causes are logged, never returned.
//
//	e := httpserver.New(cfg, httpserver.Deps{
//		Deliveries: svc,
//		Verifier:   verifier,
//		Logger:     log,
//		Metrics:    m,
//	})
//	g.Go(srv.Run(ctx, e))
package httpserver
