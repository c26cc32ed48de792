package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3Config struct {
	Bucket   string
	Region   string
	Key      string
	Secret   string
	Endpoint string // empty for AWS; set for MinIO/R2
	BaseURL  string // public URL prefix; derived from bucket+region when empty
}

// S3 stores files as objects in one bucket.
type S3 struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

func NewS3(ctx context.Context, c S3Config) (*S3, error) {
	if c.Bucket == "" {
		return nil, errors.New("storage/s3: bucket is not configured")
	}

	opts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(c.Region)}
	if c.Key != "" && c.Secret != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.Key, c.Secret, ""),
		))
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage/s3: load config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if c.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		})
	}

	baseURL := strings.TrimRight(c.BaseURL, "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", c.Bucket, c.Region)
	}

	return &S3{
		client:  s3.NewFromConfig(cfg, clientOpts...),
		bucket:  c.Bucket,
		baseURL: baseURL,
	}, nil
}

func key(p string) string { return strings.TrimLeft(p, "/") }

func (d *S3) Put(ctx context.Context, p string, content []byte) error {
	_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(d.bucket),
		Key:           aws.String(key(p)),
		Body:          bytes.NewReader(content),
		ContentLength: aws.Int64(int64(len(content))),
		ContentType:   aws.String(contentType(p)),
	})
	if err != nil {
		return fmt.Errorf("storage/s3: put %s: %w", p, err)
	}
	return nil
}

// PutStream buffers r because PutObject needs a seekable body to sign.
func (d *S3) PutStream(ctx context.Context, p string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("storage/s3: read: %w", err)
	}
	return d.Put(ctx, p, data)
}

func (d *S3) Get(ctx context.Context, p string) ([]byte, error) {
	out, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key(p)),
	})
	if err != nil {
		return nil, fmt.Errorf("storage/s3: get %s: %w", p, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (d *S3) Exists(ctx context.Context, p string) bool {
	_, err := d.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key(p)),
	})
	return err == nil
}

func (d *S3) Delete(ctx context.Context, p string) error {
	_, err := d.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key(p)),
	})
	if err != nil {
		return fmt.Errorf("storage/s3: delete %s: %w", p, err)
	}
	return nil
}

func (d *S3) Files(ctx context.Context, directory string) ([]string, error) {
	prefix := key(directory)
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var keys []string
	pages := s3.NewListObjectsV2Paginator(d.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(d.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("storage/s3: list %s: %w", directory, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return sorted(keys), nil
}

func (d *S3) URL(p string) string {
	return d.baseURL + "/" + key(p)
}

func contentType(p string) string {
	switch {
	case strings.HasSuffix(p, ".csv"):
		return "text/csv; charset=utf-8"
	case strings.HasSuffix(p, ".json"):
		return "application/json"
	}
	return "application/octet-stream"
}
