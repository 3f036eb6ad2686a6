// Package httpserver runs the identity server's HTTP listener with graceful
// shutdown and exposes liveness and readiness probes.
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//	srv := httpserver.New(cfg.HTTP, log)
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server failed", logger.Error(err))
//	}
package httpserver
