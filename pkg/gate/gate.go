package gate

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dmitrymomot/quotekit/pkg/entitlement"
	"github.com/dmitrymomot/quotekit/pkg/subscription"
	"github.com/dmitrymomot/quotekit/pkg/usage"
)

// PolicyResolver returns a user's effective feature policy.
// *subscription.Resolver satisfies it.
type PolicyResolver interface {
	Resolve(ctx context.Context, userID uuid.UUID) (subscription.Resolution, error)
}

// Decision is the outcome of a gate check.
type Decision struct {
	Feature    entitlement.FeatureKey
	Access     entitlement.FeatureAccess
	Tier       entitlement.Tier
	Resolution subscription.Resolution
}

func (d Decision) Allowed() bool {
	return d.Access.HasAccess
}

// Gate combines policy resolution, usage lookup and evaluation.
type Gate struct {
	resolver PolicyResolver
	usage    usage.Store
	recorder *usage.Recorder
	userID   UserIDFunc
	log      *slog.Logger
	printer  *message.Printer
}

type Option func(*Gate)

func WithLogger(log *slog.Logger) Option {
	return func(g *Gate) {
		if log != nil {
			g.log = log
		}
	}
}

// WithUserIDFunc sets how middleware and API handlers identify the caller.
// Defaults to ContextUserID.
func WithUserIDFunc(fn UserIDFunc) Option {
	return func(g *Gate) {
		if fn != nil {
			g.userID = fn
		}
	}
}

// WithRecorder replaces the default background usage recorder.
func WithRecorder(r *usage.Recorder) Option {
	return func(g *Gate) {
		if r != nil {
			g.recorder = r
		}
	}
}

// WithLanguage sets the language used to format upgrade messages.
func WithLanguage(tag language.Tag) Option {
	return func(g *Gate) {
		g.printer = newPrinter(tag)
	}
}

func New(resolver PolicyResolver, store usage.Store, opts ...Option) *Gate {
	if resolver == nil || store == nil {
		panic("gate: policy resolver and usage store are required")
	}
	g := &Gate{
		resolver: resolver,
		usage:    store,
		userID:   ContextUserID,
		log:      slog.New(slog.DiscardHandler),
		printer:  newPrinter(language.English),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.recorder == nil {
		g.recorder = usage.NewRecorder(store,
			usage.WithRecorderLogger(g.log),
			usage.WithErrorHook(func(t usage.Type, _ error) {
				UsageIncrementFailures.WithLabelValues(string(t)).Inc()
			}),
		)
	}
	return g
}

// Check evaluates requested units of feature for userID.
// Errors are infrastructure failures and never mean the user lacks access.
func (g *Gate) Check(ctx context.Context, userID uuid.UUID, feature entitlement.FeatureKey, requested int64) (Decision, error) {
	res, err := g.resolve(ctx, userID, feature)
	if err != nil {
		return Decision{}, err
	}

	var current *usage.FeatureUsage
	if feature == entitlement.FeatureMaxQuotes {
		u, err := g.usage.GetCurrentUsage(ctx, userID)
		if err != nil {
			DecisionsTotal.WithLabelValues(string(feature), outcomeError, string(res.Tier)).Inc()
			return Decision{}, errors.Join(ErrUsageUnavailable, err)
		}
		current = &u
	}

	d := Decision{
		Feature:    feature,
		Access:     entitlement.Evaluate(feature, &res.Features, current, requested),
		Tier:       res.Tier,
		Resolution: res,
	}
	g.observe(d)
	return d, nil
}

// CheckBulk evaluates a bulk call over requested items.
func (g *Gate) CheckBulk(ctx context.Context, userID uuid.UUID, requested int64) (Decision, error) {
	feature := entitlement.FeatureBulkOperations
	res, err := g.resolve(ctx, userID, feature)
	if err != nil {
		return Decision{}, err
	}

	d := Decision{
		Feature:    feature,
		Access:     entitlement.EvaluateBulk(&res.Features, requested),
		Tier:       res.Tier,
		Resolution: res,
	}
	g.observe(d)
	return d, nil
}

// Record increments the usage counter tied to feature in the background.
// Features without a counter are ignored.
func (g *Gate) Record(ctx context.Context, userID uuid.UUID, feature entitlement.FeatureKey, amount int64) {
	t, ok := usageTypeFor(feature)
	if !ok {
		return
	}
	if amount < 1 {
		amount = 1
	}
	g.recorder.Record(ctx, userID, t, amount)
}

// Wait blocks until pending usage increments have finished.
func (g *Gate) Wait() {
	g.recorder.Wait()
}

// Message returns the user-facing upgrade text for a denied decision.
func (g *Gate) Message(d Decision) string {
	return upgradeMessage(g.printer, d)
}

func (g *Gate) resolve(ctx context.Context, userID uuid.UUID, feature entitlement.FeatureKey) (subscription.Resolution, error) {
	res, err := g.resolver.Resolve(ctx, userID)
	if err != nil {
		DecisionsTotal.WithLabelValues(string(feature), outcomeError, "").Inc()
		return subscription.Resolution{}, errors.Join(ErrPolicyUnavailable, err)
	}
	return res, nil
}

func (g *Gate) observe(d Decision) {
	outcome := outcomeAllowed
	switch {
	case d.Allowed():
	case d.Access.UpgradeRequired:
		outcome = outcomeDenied
	default:
		outcome = outcomeCeiling
	}
	DecisionsTotal.WithLabelValues(string(d.Feature), outcome, string(d.Tier)).Inc()
}

// usageTypeFor maps gated features to the counter their success increments.
func usageTypeFor(feature entitlement.FeatureKey) (usage.Type, bool) {
	switch feature {
	case entitlement.FeatureMaxQuotes:
		return usage.TypeQuotes, true
	case entitlement.FeaturePDFExport:
		return usage.TypePDFExports, true
	case entitlement.FeatureAPIAccess:
		return usage.TypeAPICalls, true
	case entitlement.FeatureBulkOperations:
		return usage.TypeBulkOperations, true
	default:
		return "", false
	}
}
