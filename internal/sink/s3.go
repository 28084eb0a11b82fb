package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pmgmt/agent/internal/logging"
	"github.com/pmgmt/agent/internal/report"
)

var s3Log = logging.L("s3-sink")

// s3PutAPI is the slice of the S3 client the sink needs; tests substitute a
// fake.
type s3PutAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads the JSON report to an S3 bucket under
// <prefix>/<hostname>/<timestamp>.json. Static credentials are optional;
// without them the default AWS credential chain applies.
type S3Sink struct {
	Bucket          string
	Region          string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string

	client s3PutAPI
}

// NewS3Sink creates an S3Sink. The S3 client is built lazily on first
// delivery so construction never touches the network.
func NewS3Sink(bucket, region, prefix, accessKeyID, secretAccessKey string) *S3Sink {
	return &S3Sink{
		Bucket:          bucket,
		Region:          region,
		Prefix:          prefix,
		AccessKeyID:     accessKeyID,
		SecretAccessKey: secretAccessKey,
	}
}

func (s *S3Sink) Deliver(ctx context.Context, r report.Report) error {
	client, err := s.api(ctx)
	if err != nil {
		return &DeliveryError{Target: s.target(), Err: err}
	}

	body, err := json.Marshal(r)
	if err != nil {
		return &DeliveryError{Target: s.target(), Err: err}
	}

	key := s.objectKey(r)
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return &DeliveryError{Target: s.target(), Err: err}
	}

	s3Log.Info("report uploaded", "bucket", s.Bucket, "key", key, "updates", r.TotalUpdates)
	return nil
}

func (s *S3Sink) api(ctx context.Context) (s3PutAPI, error) {
	if s.client != nil {
		return s.client, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(s.Region),
	}
	if s.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.AccessKeyID, s.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	s.client = s3.NewFromConfig(cfg)
	return s.client, nil
}

// objectKey derives a stable, sortable key from report metadata. Colons from
// the RFC 3339 timestamp are avoided; they are awkward in S3 tooling.
func (s *S3Sink) objectKey(r report.Report) string {
	stamp := r.GeneratedAt
	if t, err := time.Parse(time.RFC3339, r.GeneratedAt); err == nil {
		stamp = t.UTC().Format("20060102T150405Z")
	}
	return path.Join(s.Prefix, r.Hostname, stamp+".json")
}

func (s *S3Sink) target() string {
	return "s3://" + path.Join(s.Bucket, s.Prefix)
}
