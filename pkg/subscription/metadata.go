package subscription

import "context"

// MetadataSource returns the feature metadata attached to a plan.
// Implementations return ErrPlanNotFound when the plan is unknown to them.
type MetadataSource interface {
	PlanMetadata(ctx context.Context, planID string) (map[string]string, error)
}

// MetadataWriter stores feature metadata for a plan.
type MetadataWriter interface {
	WritePlanMetadata(ctx context.Context, planID string, metadata map[string]string) error
}

// MetadataStore is a source that also accepts writes.
type MetadataStore interface {
	MetadataSource
	MetadataWriter
}

func copyMetadata(src map[string]string) map[string]string {
	if src == nil {
		return nil
	}
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
