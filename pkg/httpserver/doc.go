// Package httpserver runs an http.Server bound to a context.
//
// Run blocks until the context ends and then shuts the server down within
// Config.ShutdownTimeout. Signal handling is left to the caller, typically
// through signal.NotifyContext in main. Liveness and Readiness provide probe
// handlers; Readiness runs named dependency checks against the request
// context.
//
//	srv := httpserver.New(cfg.HTTP, httpserver.WithLogger(log))
//	r := chi.NewRouter()
//	r.Get("/healthz", httpserver.Liveness())
//	r.Get("/readyz", httpserver.Readiness(log, 2*time.Second, map[string]httpserver.Check{
//	    "redis": redisstore.Healthcheck(client),
//	}))
//	return srv.Run(ctx, r)
package httpserver
