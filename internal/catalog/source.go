package catalog

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/spigell/uni-matcher/internal/logger"
)

const (
	acceptEncoding     = "gzip, br"
	brotliSuffix       = ".br"
	defaultHTTPTimeout = 10 * time.Second
	userAgent          = "spigell/uni-matcher"
)

// Source tells Load where the catalog lives.
// Location is a local path, an http(s) URL or an s3://bucket/key URL.
// Locations ending with ".br" are brotli compressed.
type Source struct {
	Location    string
	HTTPTimeout time.Duration
	S3          *S3Options
}

// S3Options configures access to S3 compatible storages.
// Static credentials are used when AccessKey is set, the default chain otherwise.
type S3Options struct {
	Region       string `mapstructure:"region"`
	Endpoint     string `mapstructure:"endpoint"`
	AccessKey    string `mapstructure:"access-key" json:"-"`
	SecretKey    string `mapstructure:"secret-key" json:"-"`
	UsePathStyle bool   `mapstructure:"use-path-style"`
}

// Load fetches the catalog from the source and builds it.
func Load(ctx context.Context, src Source, log *zap.Logger) (*Catalog, error) {
	location := strings.TrimSpace(src.Location)
	if location == "" {
		return nil, fmt.Errorf("catalog source is not configured")
	}

	log = logger.ForComponent(log, "catalog", logger.CatalogFields(location)...)

	body, decoded, err := open(ctx, location, src, log)
	if err != nil {
		return nil, fmt.Errorf("open catalog %q: %w", logger.RedactLocation(location), err)
	}
	defer body.Close()

	// A .br location is only decompressed here when the transport has not done it already.
	var r io.Reader = body
	if !decoded && strings.HasSuffix(location, brotliSuffix) {
		r = brotli.NewReader(body)
	}

	c, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("load catalog %q: %w", logger.RedactLocation(location), err)
	}

	log.Info("catalog loaded", zap.Int("universities", c.Len()))

	return c, nil
}

// open returns the catalog body and whether a content encoding announced by
// the transport has already been removed from it.
func open(ctx context.Context, location string, src Source, log *zap.Logger) (io.ReadCloser, bool, error) {
	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// plain path, including windows drive letters
		return openFile(location)
	}

	switch u.Scheme {
	case "http", "https":
		return openHTTP(ctx, location, src.HTTPTimeout, log)
	case "s3":
		return openS3(ctx, u, src.S3, log)
	case "file":
		return openFile(u.Path)
	default:
		return nil, false, fmt.Errorf("unsupported catalog scheme: %s", u.Scheme)
	}
}

func openFile(path string) (io.ReadCloser, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false, err
	}
	return f, false, nil
}

// decodeContent unwraps a gzip or brotli content encoding.
func decodeContent(encoding string, body io.ReadCloser) (io.ReadCloser, bool, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip":
		gz, err := gzip.NewReader(body)
		if err != nil {
			body.Close()
			return nil, false, err
		}
		return readCloser{Reader: gz, closers: []io.Closer{gz, body}}, true, nil
	case "br":
		return readCloser{Reader: brotli.NewReader(body), closers: []io.Closer{body}}, true, nil
	default:
		return body, false, nil
	}
}

func openHTTP(ctx context.Context, location string, timeout time.Duration, log *zap.Logger) (io.ReadCloser, bool, error) {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", acceptEncoding)

	log.Debug("make request", zap.String("url", logger.RedactLocation(location)))

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			uerr.URL = logger.RedactLocation(uerr.URL)
		}
		return nil, false, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, false, fmt.Errorf("bad status: %s", resp.Status)
	}

	return decodeContent(resp.Header.Get("Content-Encoding"), resp.Body)
}

func openS3(ctx context.Context, u *url.URL, opts *S3Options, log *zap.Logger) (io.ReadCloser, bool, error) {
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, false, fmt.Errorf("s3 location must look like s3://bucket/key")
	}

	if opts == nil {
		opts = &S3Options{}
	}

	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, false, fmt.Errorf("creating aws config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})

	log.Debug("get object", zap.String("bucket", bucket), zap.String("key", key))

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to get object: %w", err)
	}

	return decodeContent(aws.ToString(out.ContentEncoding), out.Body)
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r readCloser) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
