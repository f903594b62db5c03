package subscription_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/quotekit/pkg/entitlement"
	"github.com/dmitrymomot/quotekit/pkg/subscription"
)

const planYAML = `plans:
  pri_free:
    max_quotes: 5
  pri_premium:
    max_quotes: -1
    pdf_export: true
    analytics_access: true
    custom_branding: "true"
`

func writePlanFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plans.yaml")
	require.NoError(t, os.WriteFile(path, []byte(planYAML), 0o644))
	return path
}

func TestFileSource(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("loads typed yaml values", func(t *testing.T) {
		t.Parallel()
		source, err := subscription.NewFileSource(writePlanFile(t))
		require.NoError(t, err)

		md, err := source.PlanMetadata(ctx, "pri_premium")
		require.NoError(t, err)
		assert.Equal(t, "-1", md["max_quotes"])
		assert.Equal(t, "true", md["pdf_export"])
		assert.Equal(t, "true", md["custom_branding"])

		features := entitlement.ParseMetadata(md)
		assert.True(t, features.HasUnlimitedQuotes())
		assert.True(t, features.AnalyticsAccess)
		assert.True(t, features.Analytics)
	})

	t.Run("unknown plan", func(t *testing.T) {
		t.Parallel()
		source, err := subscription.NewFileSource(writePlanFile(t))
		require.NoError(t, err)

		_, err = source.PlanMetadata(ctx, "pri_missing")
		assert.ErrorIs(t, err, subscription.ErrPlanNotFound)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := subscription.NewFileSource(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, subscription.ErrFailedToLoadPlanFile)
	})

	t.Run("malformed file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("plans: [unclosed"), 0o644))

		_, err := subscription.NewFileSource(path)
		assert.ErrorIs(t, err, subscription.ErrFailedToLoadPlanFile)
	})

	t.Run("writes are persisted", func(t *testing.T) {
		t.Parallel()
		path := writePlanFile(t)
		source, err := subscription.NewFileSource(path)
		require.NoError(t, err)

		custom := entitlement.FreePlan()
		custom.MaxQuotes = 25
		custom.EmailTemplates = true
		require.NoError(t, source.WritePlanMetadata(ctx, "pri_custom", entitlement.ToMetadata(custom)))

		reloaded, err := subscription.NewFileSource(path)
		require.NoError(t, err)
		md, err := reloaded.PlanMetadata(ctx, "pri_custom")
		require.NoError(t, err)
		assert.Equal(t, custom, entitlement.ParseMetadata(md))
	})

	t.Run("write requires plan id", func(t *testing.T) {
		t.Parallel()
		source := subscription.NewStaticSource(nil)
		assert.ErrorIs(t, source.WritePlanMetadata(ctx, "", nil), subscription.ErrMissingPlanID)
	})
}
