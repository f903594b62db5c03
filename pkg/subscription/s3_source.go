package subscription

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Config points at a plans YAML object in S3 or an S3-compatible store.
type S3Config struct {
	Bucket         string `env:"PLANS_S3_BUCKET"`
	Key            string `env:"PLANS_S3_KEY" envDefault:"plans.yaml"`
	Region         string `env:"PLANS_S3_REGION" envDefault:"us-east-1"`
	AccessKeyID    string `env:"PLANS_S3_ACCESS_KEY_ID"`
	SecretKey      string `env:"PLANS_S3_SECRET_KEY"`
	Endpoint       string `env:"PLANS_S3_ENDPOINT"` // MinIO, R2 and friends
	ForcePathStyle bool   `env:"PLANS_S3_FORCE_PATH_STYLE"`
}

func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// S3Client is the subset of *s3.Client used by the plan source.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewS3Client builds an S3 client from cfg using the default AWS credential
// chain unless static keys are set.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlanFile, err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	}), nil
}

// NewS3Source loads the plans object once. Admin writes replace the object.
// A missing object yields an empty source that creates it on first write.
func NewS3Source(ctx context.Context, client S3Client, bucket, key string) (*FileSource, error) {
	if client == nil || bucket == "" || key == "" {
		return nil, errors.Join(ErrFailedToLoadPlanFile, errors.New("s3 client, bucket and key are required"))
	}

	plans := map[string]map[string]string{}
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	switch {
	case isS3NotFound(err):
	case err != nil:
		return nil, errors.Join(ErrFailedToLoadPlanFile, s3Error("get", bucket, key, err))
	default:
		defer out.Body.Close()
		raw, err := io.ReadAll(out.Body)
		if err != nil {
			return nil, errors.Join(ErrFailedToLoadPlanFile, err)
		}
		if plans, err = decodePlans(raw); err != nil {
			return nil, err
		}
	}

	return &FileSource{
		plans: plans,
		persist: func(ctx context.Context, raw []byte) error {
			_, err := client.PutObject(ctx, &s3.PutObjectInput{
				Bucket:      aws.String(bucket),
				Key:         aws.String(key),
				Body:        bytes.NewReader(raw),
				ContentType: aws.String("application/yaml"),
			})
			if err != nil {
				return s3Error("put", bucket, key, err)
			}
			return nil
		},
	}, nil
}

func isS3NotFound(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}

func s3Error(op, bucket, key string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("s3 %s s3://%s/%s: %s: %w", op, bucket, key, apiErr.ErrorCode(), err)
	}
	return fmt.Errorf("s3 %s s3://%s/%s: %w", op, bucket, key, err)
}
