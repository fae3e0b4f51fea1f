package storage

import (
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// S3Provider stores objects in one bucket of an S3-compatible service.
type S3Provider struct {
	api       s3iface.S3API
	bucket    string
	publicURL string
}

type S3Options struct {
	Bucket    string
	Endpoint  string
	Region    string
	KeyID     string
	AppKey    string
	PublicURL string
}

func NewS3Provider(opts S3Options) (*S3Provider, error) {
	cfg := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(opts.KeyID, opts.AppKey, ""),
		Region:           aws.String(opts.Region),
		S3ForcePathStyle: aws.Bool(true),
	}
	if opts.Endpoint != "" {
		cfg.Endpoint = aws.String(opts.Endpoint)
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, err
	}
	return newS3Provider(s3.New(sess), opts), nil
}

func newS3Provider(api s3iface.S3API, opts S3Options) *S3Provider {
	public := strings.TrimRight(opts.PublicURL, "/")
	if public == "" && opts.Endpoint != "" {
		public = strings.TrimRight(opts.Endpoint, "/") + "/" + opts.Bucket
	}
	return &S3Provider{api: api, bucket: opts.Bucket, publicURL: public}
}

func (s *S3Provider) Put(ctx context.Context, key string, body io.ReadSeeker, contentType string) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}

	_, err = s.api.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	return err
}

func (s *S3Provider) Delete(ctx context.Context, key string) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}

	_, err = s.api.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

func (s *S3Provider) URL(key string) string {
	return s.publicURL + "/" + key
}
