package subscription

import "strings"

// Status is the lifecycle state of a subscription as mirrored locally.
type Status string

const (
	StatusTrialing  Status = "trialing"
	StatusActive    Status = "active"
	StatusPastDue   Status = "past_due"
	StatusPaused    Status = "paused"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// GrantsAccess reports whether the plan's features apply in this state.
// Past-due, paused, cancelled and expired subscriptions fall back to the free policy.
func (s Status) GrantsAccess() bool {
	return s == StatusActive || s == StatusTrialing
}

// NormalizeStatus maps provider spellings onto local statuses.
func NormalizeStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trialing":
		return StatusTrialing
	case "active":
		return StatusActive
	case "past_due":
		return StatusPastDue
	case "paused":
		return StatusPaused
	case "canceled", "cancelled":
		return StatusCancelled
	case "expired":
		return StatusExpired
	default:
		return Status(raw)
	}
}
