package app

import (
	"fmt"
	"regexp"

	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
)

// isPath is the RegExp to ensure the routes make sense
var isPath = regexp.MustCompile(`^[a-zA-Z0-9_/]+$`).MatchString

// Router allows us to register many handlers with different
// paths and then direct each message to the proper handler.
//
// Minimal interface modeled after net/http.ServeMux
type Router struct {
	routes map[string]delphi.Handler
}

var _ delphi.Registry = (*Router)(nil)
var _ delphi.Handler = (*Router)(nil)

// NewRouter returns a new empty router instance
func NewRouter() *Router {
	return &Router{
		routes: make(map[string]delphi.Handler, 10),
	}
}

// Handle adds a new Handler for the given message path. It panics if the
// path was already registered or is not a valid route.
func (r *Router) Handle(m delphi.Msg, h delphi.Handler) {
	path := m.Path()
	if !isPath(path) {
		panic(fmt.Sprintf("invalid path: %q", path))
	}
	if _, ok := r.routes[path]; ok {
		panic(fmt.Sprintf("re-registering route: %s", path))
	}
	r.routes[path] = h
}

// handler returns the registered Handler for this path. If no path is found,
// returns a noSuchPath Handler. Always returns a non-nil Handler.
func (r *Router) handler(m delphi.Msg) delphi.Handler {
	path := m.Path()
	if h, ok := r.routes[path]; ok {
		return h
	}
	return notFoundHandler(path)
}

// Check dispatches to the proper handler based on path
func (r *Router) Check(ctx delphi.Context, store delphi.KVStore, tx delphi.Tx) (*delphi.CheckResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load msg")
	}
	if msg == nil {
		return nil, errors.Wrap(errors.ErrMsg, "no message")
	}
	return r.handler(msg).Check(ctx, store, tx)
}

// Deliver dispatches to the proper handler based on path
func (r *Router) Deliver(ctx delphi.Context, store delphi.KVStore, tx delphi.Tx) (*delphi.DeliverResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load msg")
	}
	if msg == nil {
		return nil, errors.Wrap(errors.ErrMsg, "no message")
	}
	return r.handler(msg).Deliver(ctx, store, tx)
}

// notFoundHandler always returns ErrNotFound error regardless of the
// arguments.
type notFoundHandler string

func (path notFoundHandler) Check(delphi.Context, delphi.KVStore, delphi.Tx) (*delphi.CheckResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for path %q", string(path))
}

func (path notFoundHandler) Deliver(delphi.Context, delphi.KVStore, delphi.Tx) (*delphi.DeliverResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for path %q", string(path))
}
