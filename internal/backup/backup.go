// Package backup copies the precinct document to S3-compatible object
// storage on a schedule.
package backup

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	log "github.com/sirupsen/logrus"
)

// Uploader is the part of *s3.Client a Backup needs.
type Uploader interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Source produces the bytes to back up.
type Source interface {
	Snapshot(ctx context.Context) ([]byte, error)
}

// ClientConfig selects the bucket region and an optional S3-compatible
// endpoint such as MinIO.
type ClientConfig struct {
	Region   string
	Endpoint string
}

// NewClient builds an S3 client from the default credential chain.
func NewClient(ctx context.Context, cfg ClientConfig) (*s3.Client, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Backup uploads a snapshot under a timestamped key. Unchanged snapshots
// are not uploaded twice.
type Backup struct {
	client Uploader
	bucket string
	prefix string
	source Source
	now    func() time.Time
	log    *log.Entry

	mu       sync.Mutex
	lastSum  [sha256.Size]byte
	uploaded bool
}

func New(client Uploader, bucket, prefix string, source Source) (*Backup, error) {
	if bucket == "" {
		return nil, errors.New("backup: bucket required")
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Backup{
		client: client,
		bucket: bucket,
		prefix: prefix,
		source: source,
		now:    time.Now,
		log:    log.WithFields(log.Fields{"component": "backup", "bucket": bucket}),
	}, nil
}

// Key returns the object key used for a snapshot taken at t.
func (b *Backup) Key(t time.Time) string {
	return b.prefix + t.UTC().Format("2006/01/02/150405.000000000") + ".json"
}

// Run takes one snapshot and uploads it. It has the scheduler.Job shape.
func (b *Backup) Run(ctx context.Context) error {
	data, err := b.source.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	sum := sha256.Sum256(data)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.uploaded && sum == b.lastSum {
		b.log.Debug("snapshot unchanged, skipping upload")
		return nil
	}

	key := b.Key(b.now())
	_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	b.lastSum = sum
	b.uploaded = true
	b.log.WithFields(log.Fields{"key": key, "bytes": len(data)}).Info("precinct snapshot uploaded")
	return nil
}
