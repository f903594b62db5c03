package gate

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/quotekit/pkg/entitlement"
	"github.com/dmitrymomot/quotekit/pkg/subscription"
	"github.com/dmitrymomot/quotekit/pkg/usage"
)

const (
	defaultHistoryMonths = 6
	maxRequestBody       = 64 << 10
)

// Reconciler settles a user's subscription mirror against the billing provider.
type Reconciler interface {
	Reconcile(ctx context.Context, userID uuid.UUID) (subscription.Report, error)
}

// API serves entitlement information and admin operations over HTTP.
type API struct {
	gate       *Gate
	plans      subscription.MetadataStore
	reconciler Reconciler
	admin      []func(http.Handler) http.Handler
}

type APIOption func(*API)

// WithPlanStore enables PUT /admin/plans/{planID}/features.
func WithPlanStore(store subscription.MetadataStore) APIOption {
	return func(a *API) { a.plans = store }
}

// WithReconciler enables POST /admin/subscriptions/{userID}/reconcile.
func WithReconciler(r Reconciler) APIOption {
	return func(a *API) { a.reconciler = r }
}

// WithAdminMiddleware protects the /admin routes.
func WithAdminMiddleware(mw ...func(http.Handler) http.Handler) APIOption {
	return func(a *API) { a.admin = append(a.admin, mw...) }
}

func NewAPI(g *Gate, opts ...APIOption) *API {
	if g == nil {
		panic("gate: gate is required")
	}
	a := &API{gate: g}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Routes returns the API router, to be mounted under a prefix of choice.
func (a *API) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/catalog", a.catalog)
	r.Get("/features", a.features)
	r.Get("/features/{feature}", a.feature)
	r.Get("/usage", a.currentUsage)
	r.Get("/usage/history", a.usageHistory)

	r.Route("/admin", func(r chi.Router) {
		r.Use(a.admin...)
		r.Post("/features/validate", a.validateFeatures)
		r.Put("/plans/{planID}/features", a.updatePlanFeatures)
		r.Post("/subscriptions/{userID}/reconcile", a.reconcile)
	})
	return r
}

type catalogResponse struct {
	Features   []entitlement.FeatureDefinition                          `json:"features"`
	Categories map[entitlement.Category][]entitlement.FeatureDefinition `json:"categories"`
}

func (a *API) catalog(w http.ResponseWriter, _ *http.Request) {
	c := entitlement.DefaultCatalog()
	defs := make([]entitlement.FeatureDefinition, 0, len(c.Keys()))
	for _, key := range c.Keys() {
		defs = append(defs, c.Definition(key))
	}
	writeJSON(w, http.StatusOK, catalogResponse{Features: defs, Categories: c.ListByCategory()})
}

type featuresResponse struct {
	Tier      entitlement.Tier                                     `json:"tier"`
	Source    subscription.PolicySource                            `json:"source"`
	Features  entitlement.PlanFeatures                             `json:"features"`
	Access    map[entitlement.FeatureKey]entitlement.FeatureAccess `json:"access"`
	Usage     usage.FeatureUsage                                   `json:"usage"`
	BulkLimit int64                                                `json:"bulkLimit"`
}

func (a *API) features(w http.ResponseWriter, r *http.Request) {
	userID, err := a.gate.requireUser(r)
	if err != nil {
		writeRequestError(w, err)
		return
	}

	res, err := a.gate.resolver.Resolve(r.Context(), userID)
	if err != nil {
		a.gate.writeInternalError(w, r, errors.Join(ErrPolicyUnavailable, err))
		return
	}
	current, err := a.gate.usage.GetCurrentUsage(r.Context(), userID)
	if err != nil {
		a.gate.writeInternalError(w, r, errors.Join(ErrUsageUnavailable, err))
		return
	}

	keys := entitlement.DefaultCatalog().Keys()
	access := make(map[entitlement.FeatureKey]entitlement.FeatureAccess, len(keys))
	for _, key := range keys {
		access[key] = entitlement.Evaluate(key, &res.Features, &current, 1)
	}

	writeJSON(w, http.StatusOK, featuresResponse{
		Tier:      res.Tier,
		Source:    res.Source,
		Features:  res.Features,
		Access:    access,
		Usage:     current,
		BulkLimit: entitlement.BulkLimit(res.Features),
	})
}

type featureResponse struct {
	Feature entitlement.FeatureDefinition `json:"feature"`
	Access  entitlement.FeatureAccess     `json:"access"`
	Tier    entitlement.Tier              `json:"tier"`
	Message string                        `json:"message,omitempty"`
}

func (a *API) feature(w http.ResponseWriter, r *http.Request) {
	key, err := entitlement.ParseFeatureKey(chi.URLParam(r, "feature"))
	if err != nil {
		writeRequestError(w, err)
		return
	}

	userID, err := a.gate.requireUser(r)
	if err != nil {
		writeRequestError(w, err)
		return
	}

	qty, err := QueryQuantity("quantity")(r)
	if err != nil {
		writeRequestError(w, err)
		return
	}

	var d Decision
	if key == entitlement.FeatureBulkOperations {
		d, err = a.gate.CheckBulk(r.Context(), userID, qty)
	} else {
		d, err = a.gate.Check(r.Context(), userID, key, qty)
	}
	if err != nil {
		a.gate.writeInternalError(w, r, err)
		return
	}

	resp := featureResponse{
		Feature: entitlement.Definition(key),
		Access:  d.Access,
		Tier:    d.Tier,
	}
	if !d.Allowed() {
		resp.Message = a.gate.Message(d)
	}
	writeJSON(w, http.StatusOK, resp)
}

type usageResponse struct {
	Usage     usage.FeatureUsage `json:"usage"`
	Limit     int64              `json:"limit"`
	Remaining int64              `json:"remaining"`
	Tier      entitlement.Tier   `json:"tier"`
}

func (a *API) currentUsage(w http.ResponseWriter, r *http.Request) {
	userID, err := a.gate.requireUser(r)
	if err != nil {
		writeRequestError(w, err)
		return
	}

	res, err := a.gate.resolver.Resolve(r.Context(), userID)
	if err != nil {
		a.gate.writeInternalError(w, r, errors.Join(ErrPolicyUnavailable, err))
		return
	}
	current, err := a.gate.usage.GetCurrentUsage(r.Context(), userID)
	if err != nil {
		a.gate.writeInternalError(w, r, errors.Join(ErrUsageUnavailable, err))
		return
	}

	resp := usageResponse{
		Usage: current,
		Limit: res.Features.MaxQuotes,
		Tier:  res.Tier,
	}
	if q := entitlement.Evaluate(entitlement.FeatureMaxQuotes, &res.Features, &current, 1).Quota; q != nil {
		resp.Remaining = q.Remaining()
	}
	writeJSON(w, http.StatusOK, resp)
}

type historyResponse struct {
	Months  int                  `json:"months"`
	History []usage.FeatureUsage `json:"history"`
}

func (a *API) usageHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := a.gate.requireUser(r)
	if err != nil {
		writeRequestError(w, err)
		return
	}

	months := defaultHistoryMonths
	if raw := r.URL.Query().Get("months"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > usage.MaxHistoryMonths {
			writeError(w, http.StatusBadRequest, CodeInvalidRequest,
				"months must be between 1 and "+strconv.Itoa(usage.MaxHistoryMonths)+".")
			return
		}
		months = n
	}

	history, err := a.gate.usage.GetUsageHistory(r.Context(), userID, months)
	if err != nil {
		a.gate.writeInternalError(w, r, errors.Join(ErrUsageUnavailable, err))
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{Months: months, History: history})
}

func (a *API) validateFeatures(w http.ResponseWriter, r *http.Request) {
	partial, err := decodeFeatureConfig(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, "Request body must be a JSON object.")
		return
	}
	writeJSON(w, http.StatusOK, entitlement.ValidateFeatureConfig(partial))
}

type planFeaturesResponse struct {
	PlanID   string                        `json:"planId"`
	Features entitlement.PlanFeatures      `json:"features"`
	Tier     entitlement.Tier              `json:"tier"`
	Changes  subscription.PolicyComparison `json:"changes"`
}

func (a *API) updatePlanFeatures(w http.ResponseWriter, r *http.Request) {
	if a.plans == nil {
		writeError(w, http.StatusNotImplemented, CodeNotConfigured, ErrAdminNotConfigured.Error())
		return
	}
	planID := chi.URLParam(r, "planID")

	partial, err := decodeFeatureConfig(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, "Request body must be a JSON object.")
		return
	}
	if result := entitlement.ValidateFeatureConfig(partial); !result.IsValid {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   CodeInvalidRequest,
			Message: ErrInvalidFeatureInput.Error(),
			Details: result.Errors,
		})
		return
	}

	current := entitlement.FreePlan()
	md, err := a.plans.PlanMetadata(r.Context(), planID)
	switch {
	case err == nil:
		current = entitlement.ParseMetadata(md)
	case errors.Is(err, subscription.ErrPlanNotFound):
	default:
		a.gate.writeInternalError(w, r, err)
		return
	}

	updated := entitlement.ApplyFeatureConfig(current, partial)
	if err := a.plans.WritePlanMetadata(r.Context(), planID, entitlement.ToMetadata(updated)); err != nil {
		a.gate.writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, planFeaturesResponse{
		PlanID:   planID,
		Features: updated,
		Tier:     entitlement.PlanTierName(updated),
		Changes:  subscription.ComparePolicies(current, updated),
	})
}

func (a *API) reconcile(w http.ResponseWriter, r *http.Request) {
	if a.reconciler == nil {
		writeError(w, http.StatusNotImplemented, CodeNotConfigured, ErrAdminNotConfigured.Error())
		return
	}

	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid user ID.")
		return
	}

	report, err := a.reconciler.Reconcile(r.Context(), userID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, report)
	case errors.Is(err, subscription.ErrSubscriptionNotFound):
		writeError(w, http.StatusNotFound, CodeNotFound, "Subscription not found.")
	case errors.Is(err, subscription.ErrNotReconcilable):
		writeError(w, http.StatusConflict, CodeInvalidRequest, err.Error())
	default:
		a.gate.writeInternalError(w, r, err)
	}
}

// decodeFeatureConfig keeps numbers as json.Number so fractional quote limits are rejected.
func decodeFeatureConfig(r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.UseNumber()

	var partial map[string]any
	if err := dec.Decode(&partial); err != nil {
		return nil, err
	}
	if partial == nil {
		return nil, ErrInvalidFeatureInput
	}
	return partial, nil
}
