package router

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"reflect"
	"runtime"

	"github.com/go-chi/chi/v5"
)

var DefaultError = JSONError{
	Code: http.StatusInternalServerError,
	Err:  "internal server error",
}

// Router is a wrapper around chi.Router that provides error handling.
// Handlers can return an error that will then get mapped to an error
// response. Error mappers can be registered for sentinel errors to provide
// custom error responses; matching uses errors.Is, so wrapped errors map
// the same way as the sentinel itself.
type Router struct {
	chi.Router
	mappings     []errorMapping
	defaultError JSONError
	logger       *slog.Logger
}

type errorMapping struct {
	target error
	mapper ErrorMapper
}

func New(opts ...RouterOption) *Router {
	return wrap(chi.NewRouter(), opts...)
}

type RouterOption func(*Router)

func WithLogger(logger *slog.Logger) RouterOption {
	return func(r *Router) {
		r.logger = logger
	}
}

func WithDefaultError(err JSONError) RouterOption {
	return func(r *Router) {
		r.defaultError = err
	}
}

func wrap(chiRouter chi.Router, opts ...RouterOption) *Router {
	router := &Router{
		Router:       chiRouter,
		defaultError: DefaultError,
		logger:       slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}

	for _, opt := range opts {
		opt(router)
	}
	return router
}

// HandlerFunc is a function that handles an HTTP request and returns an
// error. When the handler fails it should not write anything to the
// response writer; it should return an error that will be mapped to an
// error response.
type HandlerFunc func(http.ResponseWriter, *http.Request) error

type Middleware func(http.Handler) HandlerFunc

// ErrorMapper is a function that maps go errors to API errors.
type ErrorMapper func(error) Error

// MapError registers a mapper that is applied to any handler error
// matching target via errors.Is.
func (a *Router) MapError(target error, fn ErrorMapper) {
	a.mappings = append(a.mappings, errorMapping{target: target, mapper: fn})
}

// mapError maps a go error to an API error.
// The mapping works as follows:
//   - if the error is already a JSONError it is returned as is.
//   - otherwise the first registered mapper whose target matches via
//     errors.Is produces the response.
//   - if no mapper matches, the default error is returned.
func (a *Router) mapError(err error) Error {
	var jsonErr JSONError
	if errors.As(err, &jsonErr) {
		return jsonErr
	}

	for _, m := range a.mappings {
		if errors.Is(err, m.target) {
			return m.mapper(err)
		}
	}
	return a.defaultError
}

func (a *Router) handleWithErr(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err != nil {
			handlerFn := runtime.FuncForPC(reflect.ValueOf(h).Pointer())
			a.logger.Error(err.Error(), slog.String("handler", handlerFn.Name()))
			resError := a.mapError(err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(resError.StatusCode())
			if err := resError.Encode(w); err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
		}
	}
}

func (a *Router) Get(path string, h HandlerFunc) {
	a.Router.Get(path, a.handleWithErr(h))
}

func (a *Router) Post(path string, h HandlerFunc) {
	a.Router.Post(path, a.handleWithErr(h))
}

func (a *Router) Put(path string, h HandlerFunc) {
	a.Router.Put(path, a.handleWithErr(h))
}

func (a *Router) Delete(path string, h HandlerFunc) {
	a.Router.Delete(path, a.handleWithErr(h))
}

func (a *Router) Route(path string, f func(r *Router)) {
	a.Router.Route(path, func(r chi.Router) {
		sub := wrap(r)
		sub.mappings = a.mappings
		sub.defaultError = a.defaultError
		sub.logger = a.logger
		f(sub)
	})
}

func (a *Router) Group(f func(r *Router)) *Router {
	ch := a.Router.Group(func(r chi.Router) {
		sub := wrap(r)
		sub.mappings = a.mappings
		sub.defaultError = a.defaultError
		sub.logger = a.logger
		f(sub)
	})
	return wrap(ch)
}

func (a *Router) Use(middleware Middleware) {
	a.Router.Use(func(h http.Handler) http.Handler {
		return a.handleWithErr(middleware(h))
	})
}

func (a *Router) With(middleware Middleware) *Router {
	ch := a.Router.With(func(h http.Handler) http.Handler {
		return a.handleWithErr(middleware(h))
	})
	sub := wrap(ch)
	sub.mappings = a.mappings
	sub.defaultError = a.defaultError
	sub.logger = a.logger
	return sub
}
