package main

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/quotekit/pkg/entitlement"
	"github.com/dmitrymomot/quotekit/pkg/gate"
	"github.com/dmitrymomot/quotekit/pkg/httpserver"
	"github.com/dmitrymomot/quotekit/pkg/logger"
	"github.com/dmitrymomot/quotekit/pkg/requestid"
)

const healthTimeout = 3 * time.Second

func (a *app) routes() (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(middleware.Recoverer)

	r.Get("/health", httpserver.HealthHandler(a.log, healthTimeout, a.checks))
	r.Handle("/metrics", promhttp.Handler())

	var upstream http.Handler
	if a.cfg.UpstreamURL != "" {
		target, err := url.Parse(a.cfg.UpstreamURL)
		if err != nil {
			return nil, err
		}
		upstream = newUpstreamProxy(target, a.log.With(logger.Component("proxy")))
	}

	r.Group(func(r chi.Router) {
		r.Use(gate.IdentityMiddleware(gate.HeaderUserID(a.cfg.UserIDHeader)))
		r.Mount("/entitlements", a.api.Routes())

		if upstream != nil {
			mountGatedProxy(r, a.gate, upstream)
		}
	})

	return r, nil
}

// mountGatedProxy puts entitlement checks in front of the upstream quote backend.
// Routes not listed here are proxied without a check.
func mountGatedProxy(r chi.Router, g *gate.Gate, upstream http.Handler) {
	r.With(g.Require(entitlement.FeatureMaxQuotes)).Post("/api/quotes", upstream.ServeHTTP)
	r.With(g.Require(entitlement.FeaturePDFExport)).Post("/api/quotes/{id}/pdf", upstream.ServeHTTP)
	r.With(g.RequireBulk(gate.QueryQuantity("count"))).Post("/api/quotes/bulk", upstream.ServeHTTP)
	r.With(g.Require(entitlement.FeatureAdvancedReporting, gate.WithoutIncrement())).Get("/api/reports/*", upstream.ServeHTTP)
	r.With(g.Require(entitlement.FeatureAnalyticsAccess, gate.WithoutIncrement())).Get("/api/analytics/*", upstream.ServeHTTP)
	r.With(g.Require(entitlement.FeatureAPIAccess)).Handle("/api/v1/*", upstream)
	r.Handle("/api/*", upstream)
}

func newUpstreamProxy(target *url.URL, log *slog.Logger) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			if id := requestid.FromContext(pr.In.Context()); id != "" {
				pr.Out.Header.Set(requestid.Header, id)
			}
			if id, ok := gate.UserIDFromContext(pr.In.Context()); ok {
				pr.Out.Header.Set("X-User-ID", id.String())
			}
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.ErrorContext(r.Context(), "upstream request failed",
				slog.String("path", r.URL.Path),
				logger.Error(err),
			)
			w.WriteHeader(http.StatusBadGateway)
		},
	}
}
