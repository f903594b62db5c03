package subscription_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/quotekit/pkg/entitlement"
	"github.com/dmitrymomot/quotekit/pkg/subscription"
)

type MockS3Client struct {
	mock.Mock
}

func (m *MockS3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.GetObjectOutput), args.Error(1)
}

func (m *MockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func objectKey(key string) any {
	return mock.MatchedBy(func(in any) bool {
		switch v := in.(type) {
		case *s3.GetObjectInput:
			return *v.Bucket == "plans" && *v.Key == key
		case *s3.PutObjectInput:
			return *v.Bucket == "plans" && *v.Key == key
		}
		return false
	})
}

func TestS3Source(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("loads plans from the object", func(t *testing.T) {
		t.Parallel()

		client := new(MockS3Client)
		client.On("GetObject", mock.Anything, objectKey("plans.yaml")).Return(&s3.GetObjectOutput{
			Body: io.NopCloser(bytes.NewReader([]byte(planYAML))),
		}, nil)

		source, err := subscription.NewS3Source(ctx, client, "plans", "plans.yaml")
		require.NoError(t, err)

		md, err := source.PlanMetadata(ctx, "pri_premium")
		require.NoError(t, err)
		assert.True(t, entitlement.ParseMetadata(md).PDFExport)
		client.AssertExpectations(t)
	})

	t.Run("missing object starts empty and is created on write", func(t *testing.T) {
		t.Parallel()

		client := new(MockS3Client)
		client.On("GetObject", mock.Anything, objectKey("plans.yaml")).
			Return(nil, &smithy.GenericAPIError{Code: "NoSuchKey", Message: "not found"})

		var written []byte
		client.On("PutObject", mock.Anything, objectKey("plans.yaml")).
			Run(func(args mock.Arguments) {
				in := args.Get(1).(*s3.PutObjectInput)
				written, _ = io.ReadAll(in.Body)
			}).
			Return(&s3.PutObjectOutput{}, nil)

		source, err := subscription.NewS3Source(ctx, client, "plans", "plans.yaml")
		require.NoError(t, err)

		_, err = source.PlanMetadata(ctx, "pri_team")
		assert.ErrorIs(t, err, subscription.ErrPlanNotFound)

		require.NoError(t, source.WritePlanMetadata(ctx, "pri_team", entitlement.ToMetadata(entitlement.PremiumPlan())))
		assert.Contains(t, string(written), "pri_team")
		client.AssertExpectations(t)
	})

	t.Run("access denied fails startup", func(t *testing.T) {
		t.Parallel()

		client := new(MockS3Client)
		client.On("GetObject", mock.Anything, objectKey("plans.yaml")).
			Return(nil, &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"})

		_, err := subscription.NewS3Source(ctx, client, "plans", "plans.yaml")
		assert.ErrorIs(t, err, subscription.ErrFailedToLoadPlanFile)
		assert.Contains(t, err.Error(), "AccessDenied")
	})

	t.Run("failed write is reported", func(t *testing.T) {
		t.Parallel()

		client := new(MockS3Client)
		client.On("GetObject", mock.Anything, objectKey("plans.yaml")).
			Return(nil, &smithy.GenericAPIError{Code: "NoSuchKey"})
		client.On("PutObject", mock.Anything, objectKey("plans.yaml")).
			Return(nil, errors.New("connection reset"))

		source, err := subscription.NewS3Source(ctx, client, "plans", "plans.yaml")
		require.NoError(t, err)

		err = source.WritePlanMetadata(ctx, "pri_team", map[string]string{"max_quotes": "10"})
		assert.ErrorIs(t, err, subscription.ErrFailedToWriteMetadata)
	})

	t.Run("requires bucket and key", func(t *testing.T) {
		t.Parallel()

		_, err := subscription.NewS3Source(ctx, new(MockS3Client), "", "plans.yaml")
		assert.ErrorIs(t, err, subscription.ErrFailedToLoadPlanFile)
	})
}
