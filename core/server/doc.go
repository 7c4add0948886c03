// Package server wraps http.Server with graceful shutdown, environment-driven
// configuration and an errgroup-friendly Run method.
//
//	cfg := config.MustLoad[server.Config]()
//	srv, err := server.NewFromConfig(cfg, server.WithLogger(log))
//	if err != nil {
//		return err
//	}
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.Run(ctx, handler))
//	return g.Wait()
//
// Run returns nil after a clean shutdown triggered by context cancellation and
// the listener error otherwise. TLS is enabled when SERVER_TLS_CERT_FILE and
// SERVER_TLS_KEY_FILE are both set.
package server
