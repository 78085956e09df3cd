package notes

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/notekeeper/internal/common"
	sc "github.com/dmitrijs2005/notekeeper/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	m      *Manager
	err    error
	key    string
	body   string
	length int64
	count  int
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.key = aws.ToString(in.Key)
	f.body = string(b)
	f.length = aws.ToInt64(in.ContentLength)
	f.count = f.m.Count("a.md")
	return &s3.PutObjectOutput{}, nil
}

func testS3Config() *sc.Config {
	return &sc.Config{
		S3Region:       "us-east-1",
		S3RootUser:     "minioadmin",
		S3RootPassword: "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "notes",
	}
}

func stubS3(t *testing.T, putter objectPutter) *s3.Options {
	t.Helper()
	origLoad, origNew := loadDefaultAWSConfig, newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	applied := &s3.Options{}
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		return aws.Config{Region: lo.Region}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectPutter {
		applied.Region = cfg.Region
		for _, fn := range optFns {
			fn(applied)
		}
		return putter
	}
	return applied
}

func TestNewArchiver_Disabled(t *testing.T) {
	_, err := NewArchiver(context.Background(), NewManager(t.TempDir()), &sc.Config{})
	require.ErrorIs(t, err, ErrArchiveDisabled)
}

func TestNewArchiver_LoadConfigError(t *testing.T) {
	stubS3(t, nil)
	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no creds")
	}

	_, err := NewArchiver(context.Background(), NewManager(t.TempDir()), testS3Config())
	require.ErrorContains(t, err, "no creds")
}

func TestArchive_UploadsWhileHeld(t *testing.T) {
	m := NewManager(newDir(t, "a.md"))
	putter := &fakePutter{m: m}
	opts := stubS3(t, putter)

	a, err := NewArchiver(context.Background(), m, testS3Config())
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", opts.Region)
	assert.Equal(t, "http://127.0.0.1:9000", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)

	a.now = func() time.Time { return time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC) }

	key, err := a.Archive(context.Background(), "a.md")
	require.NoError(t, err)
	assert.Equal(t, key, putter.key)
	assert.True(t, strings.HasPrefix(key, "notes/2024/5/6/"), key)
	assert.True(t, strings.HasSuffix(key, "/a.md"), key)
	assert.Equal(t, "content of a.md", putter.body)
	assert.EqualValues(t, len("content of a.md"), putter.length)
	assert.Equal(t, 1, putter.count)

	assert.Equal(t, 0, m.Count("a.md"))
	assert.Equal(t, 0, m.Len())
}

func TestArchive_Errors(t *testing.T) {
	m := NewManager(newDir(t, "a.md"))
	putter := &fakePutter{m: m, err: errors.New("bucket gone")}
	stubS3(t, putter)

	a, err := NewArchiver(context.Background(), m, testS3Config())
	require.NoError(t, err)

	_, err = a.Archive(context.Background(), "a.md")
	require.ErrorContains(t, err, "bucket gone")
	assert.Equal(t, 0, m.Len())

	_, err = a.Archive(context.Background(), "missing.md")
	require.ErrorIs(t, err, common.ErrorNotFound)
}
