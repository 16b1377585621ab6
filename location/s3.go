package location

import (
	"bytes"
	"context"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/cockroachdb/errors"
)

// S3API is the subset of the S3 client used by the S3 location.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 keeps the snapshot as a single object.
type S3 struct {
	client  S3API
	bucket  string
	key     string
	timeout time.Duration
}

var _ Location = (*S3)(nil)

// NewS3 returns a Location for the object bucket/key.
func NewS3(client S3API, bucket, key string) *S3 {
	return &S3{client: client, bucket: bucket, key: key, timeout: DefaultTimeout}
}

type s3Options struct {
	profile  string
	region   string
	endpoint string
	timeout  time.Duration
}

// S3Option customizes how NewS3FromConfig builds its client.
type S3Option func(*s3Options)

// WithS3Profile selects a shared config profile. Defaults to the AWS_PROFILE chain.
func WithS3Profile(profile string) S3Option {
	return func(o *s3Options) { o.profile = profile }
}

// WithS3Region overrides the region resolved from the environment.
func WithS3Region(region string) S3Option {
	return func(o *s3Options) { o.region = region }
}

// WithS3Endpoint points the client at an S3-compatible endpoint and switches
// to path-style addressing.
func WithS3Endpoint(endpoint string) S3Option {
	return func(o *s3Options) { o.endpoint = endpoint }
}

// WithS3Timeout bounds each request. Defaults to DefaultTimeout.
func WithS3Timeout(d time.Duration) S3Option {
	return func(o *s3Options) { o.timeout = d }
}

// NewS3FromConfig loads the default AWS config chain (env, shared config,
// IMDS) and returns a Location for bucket/key.
func NewS3FromConfig(ctx context.Context, bucket, key string, opts ...S3Option) (*S3, error) {
	o := s3Options{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	var loadOpts []func(*config.LoadOptions) error
	if o.profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(o.profile))
	}
	if o.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}
	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.endpoint != "" {
			so.BaseEndpoint = aws.String(o.endpoint)
			so.UsePathStyle = true
		}
	})
	loc := NewS3(client, bucket, key)
	loc.timeout = o.timeout
	return loc, nil
}

func (s *S3) String() string {
	return "s3://" + s.bucket + "/" + s.key
}

func (s *S3) validate() error {
	if s.bucket == "" || s.key == "" || strings.HasSuffix(s.key, "/") {
		return errors.Wrapf(ErrInvalid, "%s does not name an object", s)
	}
	return nil
}

func (s *S3) Load(ctx context.Context) ([]byte, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	qctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	out, err := s.client.GetObject(qctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "get %s", s)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", s)
	}
	return data, nil
}

func (s *S3) Save(ctx context.Context, data []byte) error {
	if err := s.validate(); err != nil {
		return err
	}
	qctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	_, err := s.client.PutObject(qctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/octet-stream"),
	})
	if err != nil {
		return errors.Wrapf(err, "put %s", s)
	}
	return nil
}
