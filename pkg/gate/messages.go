package gate

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dmitrymomot/quotekit/pkg/entitlement"
)

const retryLaterMessage = "We couldn't verify your plan right now. Please try again in a moment."

// upgradeMessage builds the user-facing text for a denied decision.
// Numbers are formatted for the gate's language, e.g. 1,000 in English.
func upgradeMessage(p *message.Printer, d Decision) string {
	q := d.Access.Quota

	switch d.Feature {
	case entitlement.FeatureMaxQuotes:
		if q == nil {
			break
		}
		return p.Sprintf("You've used %d of %d quotes this month and requested %d more. Upgrade to Premium for unlimited quotes.",
			q.Current, q.Limit, q.Requested)

	case entitlement.FeatureBulkOperations:
		if q == nil {
			break
		}
		if d.Access.UpgradeRequired {
			return p.Sprintf("Bulk operations are not included in your %s plan. Upgrade to Premium to process up to %d items at once.",
				string(d.Tier), entitlement.BulkLimitUnlimited)
		}
		return p.Sprintf("Bulk operations are limited to %d items per request, but %d were requested.",
			q.Limit, q.Requested)
	}

	return p.Sprintf("%s is not included in your %s plan. Upgrade to Premium to unlock it.",
		entitlement.DisplayName(d.Feature), string(d.Tier))
}

func newPrinter(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}
