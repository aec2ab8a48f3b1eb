// Package server is the HTTP layer of the service: a chi router behind a
// small handler API, central error rendering, health probes and a runtime
// with graceful shutdown.
//
// Handlers implement [Handler] and declare routes on a [Router]. A
// [HandlerFunc] returns an error instead of writing one; the server's
// [ErrorHandler] renders it. [DefaultErrorHandler] writes every error as
//
//	{"status": "<message>"}
//
// with the status code of the [HTTPError], or 500 and
// "❌ Internal Server Error: <error>" for anything else.
//
// Middleware has the same shape as handlers ([Middleware]) and is adapted to
// chi's func(http.Handler) http.Handler form.
//
// # Usage
//
//	srv := server.New(
//	    server.WithLogger(log),
//	    server.WithMiddleware(middlewares.RequestID(), middlewares.Recover()),
//	    server.WithHealthChecks(server.WithReadinessCheck("storage", store.Ping)),
//	    server.WithHandlers(api.New(d, logs, cfg)),
//	)
//	err := srv.Run(":5000", server.ShutdownTimeout(time.Minute))
package server
