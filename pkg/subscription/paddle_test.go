package subscription

import (
	"context"
	"errors"
	"net/http"
	"testing"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
	"github.com/PaddleHQ/paddle-go-sdk/v4/pkg/paddleerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePaddle struct {
	prices   map[string]*paddle.Price
	products map[string]*paddle.Product
	updated  *paddle.UpdatePriceRequest
	err      error
}

func notFoundErr() error {
	return &paddleerr.Error{
		Status: http.StatusNotFound,
		Type:   paddleerr.ErrorTypeRequestError,
		Code:   "not_found",
		Detail: "Entity not found.",
	}
}

func (f *fakePaddle) GetPrice(_ context.Context, req *paddle.GetPriceRequest) (*paddle.Price, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.prices[req.PriceID]
	if !ok {
		return nil, notFoundErr()
	}
	return p, nil
}

func (f *fakePaddle) GetProduct(_ context.Context, req *paddle.GetProductRequest) (*paddle.Product, error) {
	p, ok := f.products[req.ProductID]
	if !ok {
		return nil, notFoundErr()
	}
	return p, nil
}

func (f *fakePaddle) UpdatePrice(_ context.Context, req *paddle.UpdatePriceRequest) (*paddle.Price, error) {
	f.updated = req
	p, ok := f.prices[req.PriceID]
	if !ok {
		return nil, notFoundErr()
	}
	updated := *p
	if data := req.CustomData.Value(); data != nil {
		updated.CustomData = *data
	}
	f.prices[req.PriceID] = &updated
	return &updated, nil
}

func (f *fakePaddle) GetSubscription(context.Context, *paddle.GetSubscriptionRequest) (*paddle.Subscription, error) {
	return nil, notFoundErr()
}

func newFakePaddle() *fakePaddle {
	return &fakePaddle{
		prices: map[string]*paddle.Price{
			"pri_premium": {
				ID:         "pri_premium",
				ProductID:  "pro_quotekit",
				CustomData: paddle.CustomData{"max_quotes": float64(-1), "pdf_export": true},
			},
		},
		products: map[string]*paddle.Product{
			"pro_quotekit": {
				ID:         "pro_quotekit",
				CustomData: paddle.CustomData{"max_quotes": "50", "analytics_access": "true"},
			},
		},
	}
}

func TestPaddleCatalog_PlanMetadata(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("price overrides product", func(t *testing.T) {
		t.Parallel()
		catalog := &PaddleCatalog{api: newFakePaddle()}

		md, err := catalog.PlanMetadata(ctx, "pri_premium")
		require.NoError(t, err)
		assert.Equal(t, "-1", md["max_quotes"])
		assert.Equal(t, "true", md["pdf_export"])
		assert.Equal(t, "true", md["analytics_access"])
	})

	t.Run("unknown price maps to plan not found", func(t *testing.T) {
		t.Parallel()
		catalog := &PaddleCatalog{api: newFakePaddle()}

		_, err := catalog.PlanMetadata(ctx, "pri_missing")
		assert.ErrorIs(t, err, ErrPlanNotFound)
	})

	t.Run("not_found in a plain message is not a typed not-found", func(t *testing.T) {
		t.Parallel()
		api := newFakePaddle()
		api.err = errors.New("proxy: upstream route not_found")
		catalog := &PaddleCatalog{api: api}

		_, err := catalog.PlanMetadata(ctx, "pri_premium")
		assert.ErrorIs(t, err, ErrProviderError)
		assert.NotErrorIs(t, err, ErrPlanNotFound)
	})

	t.Run("other failures are provider errors", func(t *testing.T) {
		t.Parallel()
		api := newFakePaddle()
		api.err = errors.New("dial tcp: i/o timeout")
		catalog := &PaddleCatalog{api: api}

		_, err := catalog.PlanMetadata(ctx, "pri_premium")
		assert.ErrorIs(t, err, ErrProviderError)
		assert.NotErrorIs(t, err, ErrPlanNotFound)
	})
}

func TestPaddleCatalog_WritePlanMetadata(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("written values are read back over price overrides", func(t *testing.T) {
		t.Parallel()
		api := newFakePaddle()
		catalog := &PaddleCatalog{api: api}

		err := catalog.WritePlanMetadata(ctx, "pri_premium", map[string]string{"max_quotes": "10", "pdf_export": "false"})
		require.NoError(t, err)
		require.NotNil(t, api.updated)
		assert.Equal(t, "pri_premium", api.updated.PriceID)

		md, err := catalog.PlanMetadata(ctx, "pri_premium")
		require.NoError(t, err)
		assert.Equal(t, "10", md["max_quotes"])
		assert.Equal(t, "false", md["pdf_export"])
		assert.Equal(t, "true", md["analytics_access"])
	})

	t.Run("unknown price maps to plan not found", func(t *testing.T) {
		t.Parallel()
		catalog := &PaddleCatalog{api: newFakePaddle()}

		err := catalog.WritePlanMetadata(ctx, "pri_missing", map[string]string{"pdf_export": "true"})
		assert.ErrorIs(t, err, ErrPlanNotFound)
	})

	t.Run("missing plan id", func(t *testing.T) {
		t.Parallel()
		catalog := &PaddleCatalog{api: newFakePaddle()}

		err := catalog.WritePlanMetadata(ctx, "", nil)
		assert.ErrorIs(t, err, ErrMissingPlanID)
	})
}

func TestPaddleSubscriptions_NotFound(t *testing.T) {
	t.Parallel()

	subs := &PaddleSubscriptions{api: newFakePaddle()}
	_, err := subs.FetchSubscription(context.Background(), "sub_missing")
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
}

func TestParsePaddleTime(t *testing.T) {
	t.Parallel()

	assert.Nil(t, parsePaddleTime(""))
	assert.Nil(t, parsePaddleTime("not a time"))

	got := parsePaddleTime("2026-04-01T10:00:00+02:00")
	require.NotNil(t, got)
	assert.Equal(t, 8, got.Hour())
}

func TestNewPaddleClient_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewPaddleClient(PaddleConfig{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = NewPaddleClient(PaddleConfig{APIKey: "key", Environment: "staging"})
	assert.ErrorIs(t, err, ErrInvalidProviderEnvironment)
}
