package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"wallgraph/internal/common/config"
	"wallgraph/internal/common/logging"
)

// ============================================================
// Drawing sources
// ============================================================

// MaxSize bounds a single drawing read.
const MaxSize = 256 << 20

var ErrTooLarge = errors.New("drawing exceeds size limit")

// Location is a parsed source URI: a local path or s3://bucket/key.
type Location struct {
	Bucket string
	Key    string
	Path   string
}

func (l Location) Remote() bool { return l.Bucket != "" }

func (l Location) String() string {
	if l.Remote() {
		return "s3://" + l.Bucket + "/" + l.Key
	}
	return l.Path
}

func ParseLocation(uri string) (Location, error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		if uri == "" {
			return Location{}, fmt.Errorf("empty source")
		}
		return Location{Path: uri}, nil
	}
	bucket, key, found := strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return Location{}, fmt.Errorf("invalid s3 uri %q: want s3://bucket/key", uri)
	}
	return Location{Bucket: bucket, Key: key}, nil
}

// Reader fetches drawing bytes. Reads stop as soon as ctx is cancelled;
// partial content is discarded.
type Reader struct {
	cfg    config.S3
	logger *zap.Logger

	once     sync.Once
	s3Client *s3.Client
	s3Err    error
}

func NewReader(cfg config.S3, logger *zap.Logger) *Reader {
	return &Reader{cfg: cfg, logger: logging.OrNop(logger)}
}

func (r *Reader) Read(ctx context.Context, uri string) ([]byte, error) {
	loc, err := ParseLocation(uri)
	if err != nil {
		return nil, err
	}
	if loc.Remote() {
		return r.readS3(ctx, loc)
	}
	return readFile(ctx, loc.Path)
}

func readFile(ctx context.Context, path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readAll(ctx, f)
}

func (r *Reader) readS3(ctx context.Context, loc Location) ([]byte, error) {
	client, err := r.client(ctx)
	if err != nil {
		return nil, err
	}

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", loc, err)
	}
	defer result.Body.Close()

	r.logger.Debug("reading drawing from s3", zap.String("bucket", loc.Bucket), zap.String("key", loc.Key))
	return readAll(ctx, result.Body)
}

func (r *Reader) client(ctx context.Context) (*s3.Client, error) {
	r.once.Do(func() {
		opts := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(r.cfg.Region),
		}
		if r.cfg.AccessKeyID != "" {
			opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				r.cfg.AccessKeyID,
				r.cfg.SecretAccessKey,
				"",
			)))
		}

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			r.s3Err = fmt.Errorf("failed to load AWS config: %w", err)
			return
		}

		// Path-style addressing keeps MinIO and other S3-compatible stores working.
		r.s3Client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if r.cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(r.cfg.Endpoint)
				o.UsePathStyle = true
			}
		})
	})
	return r.s3Client, r.s3Err
}

// readAll copies r in chunks, checking ctx between them.
func readAll(ctx context.Context, r io.Reader) ([]byte, error) {
	var out []byte
	buf := make([]byte, 64<<10)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := r.Read(buf)
		out = append(out, buf[:n]...)
		if len(out) > MaxSize {
			return nil, ErrTooLarge
		}
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
