package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Router is what a Handler sees when it registers its routes.
// Route middlewares run inside the global ones, in the order given.
type Router interface {
	GET(path string, h HandlerFunc, mw ...Middleware)
	POST(path string, h HandlerFunc, mw ...Middleware)
	OPTIONS(path string, h HandlerFunc, mw ...Middleware)

	// Route registers the routes added by fn under pattern.
	Route(pattern string, fn func(r Router))
}

type chiRouter struct {
	mux chi.Router
	srv *Server
}

func (r *chiRouter) GET(path string, h HandlerFunc, mw ...Middleware) {
	r.mux.Get(path, r.srv.wrapHandler(chain(h, mw)))
}

func (r *chiRouter) POST(path string, h HandlerFunc, mw ...Middleware) {
	r.mux.Post(path, r.srv.wrapHandler(chain(h, mw)))
}

func (r *chiRouter) OPTIONS(path string, h HandlerFunc, mw ...Middleware) {
	r.mux.Options(path, r.srv.wrapHandler(chain(h, mw)))
}

func (r *chiRouter) Route(pattern string, fn func(Router)) {
	r.mux.Route(pattern, func(sub chi.Router) {
		fn(&chiRouter{mux: sub, srv: r.srv})
	})
}

// chain wraps h so that mw[0] is the outermost middleware.
func chain(h HandlerFunc, mw []Middleware) HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

// adaptMiddleware turns a Middleware into a chi middleware. An error returned
// by the middleware itself, before or instead of calling next, goes to the
// error handler.
func (s *Server) adaptMiddleware(mw Middleware) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := newContext(w, r, s.logger)
			err := mw(func(c Context) error {
				next.ServeHTTP(c.Response(), c.Request())
				return nil
			})(c)
			if err != nil {
				s.handleError(c, err)
			}
		})
	}
}
