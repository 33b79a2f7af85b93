package data

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Source reads raw bytes from a location outside the workspace. Implementations return an error
// wrapping fs.ErrNotExist when the location does not exist.
type Source interface {
	Read(ctx context.Context, location string) ([]byte, error)
}

// LocalSource reads from the local file system.
type LocalSource struct{}

func (LocalSource) Read(_ context.Context, location string) ([]byte, error) {
	return os.ReadFile(location)
}

// SchemeSource dispatches on the URL scheme of the location: s3:// goes to S3, anything else
// to Local.
type SchemeSource struct {
	Local Source
	S3    Source
}

func (s SchemeSource) Read(ctx context.Context, location string) ([]byte, error) {
	if strings.HasPrefix(location, "s3://") {
		if s.S3 == nil {
			return nil, fmt.Errorf("no S3 source configured for %q", location)
		}
		return s.S3.Read(ctx, location)
	}
	if s.Local == nil {
		return LocalSource{}.Read(ctx, location)
	}
	return s.Local.Read(ctx, location)
}

// S3Options configures an S3Source. Empty fields fall back to the AWS SDK's default credential
// and region chain.
type S3Options struct {
	Region   string
	Endpoint string // for S3-compatible stores such as MinIO
	Key      string
	Secret   string
}

// S3OptionsFromEnvironment reads TAF_S3_REGION, TAF_S3_ENDPOINT, TAF_S3_KEY, and TAF_S3_SECRET.
func S3OptionsFromEnvironment() S3Options {
	return S3Options{
		Region:   os.Getenv("TAF_S3_REGION"),
		Endpoint: os.Getenv("TAF_S3_ENDPOINT"),
		Key:      os.Getenv("TAF_S3_KEY"),
		Secret:   os.Getenv("TAF_S3_SECRET"),
	}
}

// S3Source reads objects addressed as s3://bucket/key.
type S3Source struct {
	client *s3.Client
}

func NewS3Source(ctx context.Context, opts S3Options) (*S3Source, error) {
	var loadOpts []func(*awscfg.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awscfg.WithRegion(opts.Region))
	}
	if opts.Key != "" && opts.Secret != "" {
		loadOpts = append(loadOpts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.Key, opts.Secret, ""),
		))
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3 source: load config: %w", err)
	}
	var clientOpts []func(*s3.Options)
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		})
	}
	return &S3Source{client: s3.NewFromConfig(cfg, clientOpts...)}, nil
}

func (s *S3Source) Read(ctx context.Context, location string) ([]byte, error) {
	bucket, key, err := ParseS3Location(location)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%s: %w", location, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("s3 get %s: %w", location, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// ParseS3Location splits s3://bucket/key into its parts.
func ParseS3Location(location string) (bucket, key string, err error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "s3" || u.Host == "" || strings.Trim(u.Path, "/") == "" {
		return "", "", fmt.Errorf("not an s3://bucket/key location: %q", location)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}
