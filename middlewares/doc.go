// Package middlewares provides the HTTP middleware of the bulk mail server.
//
// # Request ID
//
// RequestID assigns an ID to each request, reusing X-Request-ID or
// X-Correlation-ID when the client sends a sane one. Pair it with
// RequestIDExtractor so every log record carries request_id:
//
//	log := logger.New(cfg, middlewares.RequestIDExtractor(), logger.BatchIDExtractor())
//
// # Recover
//
// Recover turns a panic into a *PanicError, which the server renders as a
// 500 with "❌ Internal Server Error: panic: ...".
//
// # CORS
//
// CORS answers preflight requests and sets Access-Control-* headers for
// allowed origins. The default allows any origin so a browser front end on
// another host can submit batches:
//
//	middlewares.CORS(middlewares.WithAllowOrigins(cfg.Server.CORSOrigins...))
//
// # Timeout
//
// Timeout bounds short routes such as log downloads and answers 503 when the
// deadline passes. Never put it in front of /send.
//
// # AccessLog
//
// AccessLog writes one structured record per request.
//
// Typical order:
//
//	server.WithMiddleware(
//	    middlewares.RequestID(),
//	    middlewares.AccessLog(),
//	    middlewares.Recover(),
//	    middlewares.CORS(),
//	)
package middlewares
