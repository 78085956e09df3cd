package notes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/dmitrijs2005/notekeeper/internal/server/config"
	"github.com/google/uuid"
)

// ErrArchiveDisabled is returned by NewArchiver when no bucket is configured.
var ErrArchiveDisabled = errors.New("note archiving is disabled")

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectPutter {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archiver copies note files to S3-compatible storage.
type Archiver struct {
	notes  *Manager
	client objectPutter
	bucket string
	now    func() time.Time
}

// NewArchiver builds an S3 client from cfg. A custom base endpoint (MinIO
// and the like) switches to path-style addressing.
func NewArchiver(ctx context.Context, m *Manager, cfg *sc.Config) (*Archiver, error) {
	if cfg.S3Bucket == "" {
		return nil, ErrArchiveDisabled
	}

	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &Archiver{notes: m, client: client, bucket: cfg.S3Bucket, now: time.Now}, nil
}

func storageKey(d time.Time, name string) string {
	return fmt.Sprintf("notes/%d/%d/%d/%v/%s", d.Year(), d.Month(), d.Day(), uuid.New(), name)
}

// Archive uploads a snapshot of the note and returns its object key. The
// file stays acquired for the whole upload.
func (a *Archiver) Archive(ctx context.Context, name string) (string, error) {
	key := storageKey(a.now().UTC(), name)

	err := a.notes.With(name, func(f *os.File) error {
		info, err := f.Stat()
		if err != nil {
			return fmt.Errorf("stat note file: %w", err)
		}

		_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(a.bucket),
			Key:           aws.String(key),
			Body:          io.NewSectionReader(f, 0, info.Size()),
			ContentLength: aws.Int64(info.Size()),
		})
		if err != nil {
			return fmt.Errorf("upload note file: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return key, nil
}
