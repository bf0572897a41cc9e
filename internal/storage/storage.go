package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/shyim/pagespeed-cwv/internal/config"
)

// Service uploads rendered reports to an S3-compatible bucket.
type Service struct {
	client                *s3.Client
	bucketName            string
	disablePayloadSigning bool
}

func NewService(ctx context.Context, cfg config.StorageConfig) (*Service, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion("us-east-1"), // required by the SDK, ignored by most custom endpoints
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     cfg.AccessKey,
				SecretAccessKey: cfg.SecretKey,
			}, nil
		})))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		if cfg.ServiceURL != "" {
			o.BaseEndpoint = aws.String(cfg.ServiceURL)
		}
	})

	return &Service{
		client:                client,
		bucketName:            cfg.Bucket,
		disablePayloadSigning: cfg.DisablePayloadSigning,
	}, nil
}

// UploadStream stores body under key. The body should be seekable when
// payload signing is enabled.
func (s *Service) UploadStream(ctx context.Context, key, contentType string, body io.Reader) error {
	var optFns []func(*s3.Options)
	if s.disablePayloadSigning {
		optFns = append(optFns, s3.WithAPIOptions(v4.SwapComputePayloadSHA256ForUnsignedPayloadMiddleware))
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}, optFns...)
	if err != nil {
		return fmt.Errorf("upload s3://%s/%s: %w", s.bucketName, key, err)
	}
	return nil
}
