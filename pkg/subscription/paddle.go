package subscription

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
	"github.com/PaddleHQ/paddle-go-sdk/v4/pkg/paddleerr"

	"github.com/dmitrymomot/quotekit/pkg/entitlement"
)

// PaddleConfig holds configuration for the Paddle billing provider.
type PaddleConfig struct {
	APIKey      string `env:"PADDLE_API_KEY"`
	Environment string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
}

// Enabled reports whether Paddle credentials are configured.
func (c PaddleConfig) Enabled() bool {
	return c.APIKey != ""
}

// paddleAPI is the slice of the Paddle SDK used here.
type paddleAPI interface {
	GetPrice(ctx context.Context, req *paddle.GetPriceRequest) (*paddle.Price, error)
	UpdatePrice(ctx context.Context, req *paddle.UpdatePriceRequest) (*paddle.Price, error)
	GetProduct(ctx context.Context, req *paddle.GetProductRequest) (*paddle.Product, error)
	GetSubscription(ctx context.Context, req *paddle.GetSubscriptionRequest) (*paddle.Subscription, error)
}

type paddleSDK struct {
	sdk *paddle.SDK
}

func (p paddleSDK) GetPrice(ctx context.Context, req *paddle.GetPriceRequest) (*paddle.Price, error) {
	return p.sdk.PricesClient.GetPrice(ctx, req)
}

func (p paddleSDK) GetProduct(ctx context.Context, req *paddle.GetProductRequest) (*paddle.Product, error) {
	return p.sdk.ProductsClient.GetProduct(ctx, req)
}

func (p paddleSDK) UpdatePrice(ctx context.Context, req *paddle.UpdatePriceRequest) (*paddle.Price, error) {
	return p.sdk.PricesClient.UpdatePrice(ctx, req)
}

func (p paddleSDK) GetSubscription(ctx context.Context, req *paddle.GetSubscriptionRequest) (*paddle.Subscription, error) {
	return p.sdk.SubscriptionsClient.GetSubscription(ctx, req)
}

// NewPaddleClient creates a Paddle SDK client for the configured environment.
func NewPaddleClient(config PaddleConfig) (*paddle.SDK, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	var (
		client *paddle.SDK
		err    error
	)
	switch strings.ToLower(config.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(config.APIKey)
	case "production", "":
		client, err = paddle.New(config.APIKey)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidProviderEnvironment, config.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}
	return client, nil
}

// PaddleCatalog reads plan feature metadata from Paddle custom data.
// The plan ID is a Paddle price ID; price custom data overrides the product's.
// Writes go to the price, so they win over product defaults on the next read.
type PaddleCatalog struct {
	api paddleAPI
}

func NewPaddleCatalog(client *paddle.SDK) *PaddleCatalog {
	return &PaddleCatalog{api: paddleSDK{sdk: client}}
}

func (c *PaddleCatalog) PlanMetadata(ctx context.Context, planID string) (map[string]string, error) {
	price, err := c.api.GetPrice(ctx, &paddle.GetPriceRequest{PriceID: planID})
	if err != nil {
		return nil, paddleError(err, ErrPlanNotFound)
	}

	merged := make(map[string]any)
	if price.ProductID != "" {
		product, err := c.api.GetProduct(ctx, &paddle.GetProductRequest{ProductID: price.ProductID})
		if err != nil {
			return nil, paddleError(err, ErrPlanNotFound)
		}
		for k, v := range product.CustomData {
			merged[k] = v
		}
	}
	for k, v := range price.CustomData {
		merged[k] = v
	}
	return entitlement.StringifyMetadata(merged), nil
}

func (c *PaddleCatalog) WritePlanMetadata(ctx context.Context, planID string, metadata map[string]string) error {
	if planID == "" {
		return ErrMissingPlanID
	}

	price, err := c.api.GetPrice(ctx, &paddle.GetPriceRequest{PriceID: planID})
	if err != nil {
		return paddleError(err, ErrPlanNotFound)
	}

	data := paddle.CustomData{}
	for k, v := range price.CustomData {
		data[k] = v
	}
	for k, v := range metadata {
		data[k] = v
	}

	_, err = c.api.UpdatePrice(ctx, &paddle.UpdatePriceRequest{
		PriceID:    price.ID,
		CustomData: paddle.NewPatchField(data),
	})
	if err != nil {
		return errors.Join(ErrFailedToWriteMetadata, paddleError(err, ErrPlanNotFound))
	}
	return nil
}

// PaddleSubscriptions reads authoritative subscription state from Paddle.
type PaddleSubscriptions struct {
	api paddleAPI
}

func NewPaddleSubscriptions(client *paddle.SDK) *PaddleSubscriptions {
	return &PaddleSubscriptions{api: paddleSDK{sdk: client}}
}

func (p *PaddleSubscriptions) FetchSubscription(ctx context.Context, providerSubID string) (*ProviderState, error) {
	sub, err := p.api.GetSubscription(ctx, &paddle.GetSubscriptionRequest{SubscriptionID: providerSubID})
	if err != nil {
		return nil, paddleError(err, ErrSubscriptionNotFound)
	}

	state := &ProviderState{
		SubscriptionID: sub.ID,
		CustomerID:     sub.CustomerID,
		Status:         NormalizeStatus(string(sub.Status)),
	}
	if len(sub.Items) > 0 {
		state.PlanID = sub.Items[0].Price.ID
	}
	if sub.CurrentBillingPeriod != nil {
		state.CurrentPeriodEnd = parsePaddleTime(sub.CurrentBillingPeriod.EndsAt)
	}
	if sub.CanceledAt != nil {
		state.CancelledAt = parsePaddleTime(*sub.CanceledAt)
	}
	return state, nil
}

func parsePaddleTime(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

// paddleError maps Paddle "not found" responses onto notFound.
func paddleError(err, notFound error) error {
	var apiErr *paddleerr.Error
	if errors.As(err, &apiErr) && (apiErr.Code == paddle.ErrNotFound.Code || apiErr.Status == http.StatusNotFound) {
		return errors.Join(notFound, err)
	}
	return errors.Join(ErrProviderError, err)
}

var (
	_ MetadataStore         = (*PaddleCatalog)(nil)
	_ ProviderSubscriptions = (*PaddleSubscriptions)(nil)
)
