package gate

import (
	"net/http"
	"strconv"

	"github.com/dmitrymomot/quotekit/pkg/entitlement"
	"github.com/dmitrymomot/quotekit/pkg/subscription"
)

// QuantityFunc reads how many units a request consumes.
type QuantityFunc func(r *http.Request) (int64, error)

// QueryQuantity reads the quantity from a query parameter, defaulting to 1.
func QueryQuantity(param string) QuantityFunc {
	return func(r *http.Request) (int64, error) {
		raw := r.URL.Query().Get(param)
		if raw == "" {
			return 1, nil
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			return 0, ErrInvalidQuantity
		}
		return n, nil
	}
}

// HeaderQuantity reads the quantity from a request header, defaulting to 1.
func HeaderQuantity(header string) QuantityFunc {
	return func(r *http.Request) (int64, error) {
		raw := r.Header.Get(header)
		if raw == "" {
			return 1, nil
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			return 0, ErrInvalidQuantity
		}
		return n, nil
	}
}

// RequireOption configures Require.
type RequireOption func(*requireConfig)

type requireConfig struct {
	quantity  QuantityFunc
	increment bool
}

// WithQuantity sets how many units the request consumes. Defaults to 1.
func WithQuantity(fn QuantityFunc) RequireOption {
	return func(c *requireConfig) {
		if fn != nil {
			c.quantity = fn
		}
	}
}

// WithoutIncrement gates the route without counting successful calls.
func WithoutIncrement() RequireOption {
	return func(c *requireConfig) {
		c.increment = false
	}
}

func one(*http.Request) (int64, error) { return 1, nil }

// Require gates a route on feature. Denied requests get a 403 upgrade response,
// infrastructure failures a 500. When the wrapped handler answers 2xx, the
// matching usage counter is incremented in the background.
func (g *Gate) Require(feature entitlement.FeatureKey, opts ...RequireOption) func(http.Handler) http.Handler {
	if !entitlement.IsValidKey(feature) {
		panic("gate.Require: unknown feature " + string(feature))
	}
	cfg := requireConfig{quantity: one, increment: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := g.requireUser(r)
			if err != nil {
				writeRequestError(w, err)
				return
			}

			qty, err := cfg.quantity(r)
			if err != nil {
				writeRequestError(w, err)
				return
			}

			d, err := g.Check(r.Context(), userID, feature, qty)
			if err != nil {
				g.writeInternalError(w, r, err)
				return
			}
			if !d.Allowed() {
				g.writeDenial(w, d)
				return
			}

			ctx := WithUserID(subscription.WithResolution(r.Context(), d.Resolution), userID)
			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r.WithContext(ctx))

			if cfg.increment && sw.succeeded() {
				g.Record(ctx, userID, feature, qty)
			}
		})
	}
}

// RequireBulk gates a bulk route. Plans without bulk access get a 403 upgrade
// response; requests above the plan's per-call ceiling get a 400.
// One bulk operation is recorded per successful call.
func (g *Gate) RequireBulk(quantity QuantityFunc) func(http.Handler) http.Handler {
	if quantity == nil {
		panic("gate.RequireBulk: quantity func is required")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := g.requireUser(r)
			if err != nil {
				writeRequestError(w, err)
				return
			}

			qty, err := quantity(r)
			if err != nil {
				writeRequestError(w, err)
				return
			}

			d, err := g.CheckBulk(r.Context(), userID, qty)
			if err != nil {
				g.writeInternalError(w, r, err)
				return
			}
			if !d.Allowed() {
				g.writeDenial(w, d)
				return
			}

			ctx := WithUserID(subscription.WithResolution(r.Context(), d.Resolution), userID)
			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r.WithContext(ctx))

			if sw.succeeded() {
				g.Record(ctx, userID, entitlement.FeatureBulkOperations, 1)
			}
		})
	}
}

// statusWriter remembers the status code written by the wrapped handler.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// succeeded treats a handler that wrote nothing as 200.
func (w *statusWriter) succeeded() bool {
	status := w.status
	if status == 0 {
		status = http.StatusOK
	}
	return status >= 200 && status < 300
}
