package subscription_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/quotekit/pkg/subscription"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Get(ctx context.Context, userID uuid.UUID) (*subscription.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *MockStore) Save(ctx context.Context, sub *subscription.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

type MockMetadataSource struct {
	mock.Mock
}

func (m *MockMetadataSource) PlanMetadata(ctx context.Context, planID string) (map[string]string, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) FetchSubscription(ctx context.Context, providerSubID string) (*subscription.ProviderState, error) {
	args := m.Called(ctx, providerSubID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.ProviderState), args.Error(1)
}
