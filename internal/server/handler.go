package server

// Handler declares routes on a router.
//
// Example:
//
//	type LogsHandler struct {
//	    store *dispatchlog.Store
//	}
//
//	func (h *LogsHandler) Routes(r server.Router) {
//	    r.GET("/logs/{id}", h.download)
//	}
type Handler interface {
	Routes(r Router)
}

// HandlerFunc is the signature for route handlers.
// Returning a non-nil error hands it to the server's ErrorHandler.
type HandlerFunc func(c Context) error

// Middleware wraps a HandlerFunc to add cross-cutting concerns.
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler renders errors returned from handlers.
type ErrorHandler func(Context, error) error
