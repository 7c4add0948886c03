// Package app assembles the assetmail process: configuration, storage, the
// email sink selected by EMAIL_PROVIDER, the delivery service, JWT
// verification, Prometheus metrics and the HTTP server.
//
//	var cfg app.Config
//	config.MustLoad(&cfg)
//	a, err := app.New(ctx, cfg)
//	if err != nil { ... }
//	return a.Run(ctx)
package app
