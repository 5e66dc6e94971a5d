package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/dmitrijs2005/gophtodo/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjectStore struct {
	bucket, key string
	body        []byte
	contentType string
	expires     time.Duration

	putErr     error
	presignErr error
}

func (f *fakeObjectStore) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.bucket, f.key = *in.Bucket, *in.Key
	f.contentType = aws.ToString(in.ContentType)
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjectStore) PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	if f.presignErr != nil {
		return nil, f.presignErr
	}
	var o s3.PresignOptions
	for _, fn := range optFns {
		fn(&o)
	}
	f.expires = o.Expires
	return &v4.PresignedHTTPRequest{URL: "https://s3.local/" + *in.Bucket + "/" + *in.Key + "?sig=1"}, nil
}

func s3TestConfig() *sc.Config {
	return &sc.Config{
		S3Region:       "us-east-1",
		S3RootUser:     "minioadmin",
		S3RootPassword: "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "transcripts",
	}
}

func TestTranscriptKey(t *testing.T) {
	key := TranscriptKey(time.Date(2025, 3, 7, 23, 0, 0, 0, time.UTC))
	assert.Regexp(t, regexp.MustCompile(`^transcripts/2025/03/07/[0-9a-f-]{36}\.json$`), key)
	assert.NotEqual(t, key, TranscriptKey(time.Date(2025, 3, 7, 23, 0, 0, 0, time.UTC)))
}

func TestExport_UploadsAndPresigns(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "alice")
	ctx := context.Background()

	_, err := f.transcripts.Append(ctx, u.ConversationID, true, "add milk")
	require.NoError(t, err)
	_, err = f.transcripts.Append(ctx, u.ConversationID, false, "Added.")
	require.NoError(t, err)

	store := &fakeObjectStore{}
	a := NewTranscriptArchive(f.transcripts, s3TestConfig())
	a.now = f.clock.Now
	a.store = store

	exp, err := a.Export(ctx, u, 1000)
	require.NoError(t, err)

	assert.Equal(t, "transcripts", store.bucket)
	assert.Equal(t, exp.Key, store.key)
	assert.Equal(t, "application/json", store.contentType)
	assert.Equal(t, ExportURLValidity, store.expires)
	assert.Contains(t, exp.URL, exp.Key)
	assert.Equal(t, f.clock.Now().Add(ExportURLValidity), exp.ExpiresAt)

	var doc transcriptDocument
	require.NoError(t, json.Unmarshal(store.body, &doc))
	assert.Equal(t, u.ID, doc.UserID)
	assert.Equal(t, "alice", doc.Username)
	require.Len(t, doc.Messages, 2)
	assert.Equal(t, "add milk", doc.Messages[0].Content)
	assert.True(t, doc.Messages[0].IsUser)
}

func TestExport_Errors(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "alice")

	a := NewTranscriptArchive(f.transcripts, s3TestConfig())
	a.store = &fakeObjectStore{putErr: errors.New("put-fail")}
	_, err := a.Export(context.Background(), u, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "put-fail")

	a = NewTranscriptArchive(f.transcripts, s3TestConfig())
	a.store = &fakeObjectStore{presignErr: errors.New("presign-fail")}
	_, err = a.Export(context.Background(), u, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "presign-fail")
}

func TestNewStore_AppliesConfig(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			if err := fn(&lo); err != nil {
				t.Fatalf("load options fn error: %v", err)
			}
		}
		if lo.Region != "us-east-1" {
			t.Fatalf("region not applied: %q", lo.Region)
		}
		if lo.Credentials == nil {
			t.Fatalf("credentials not applied")
		}
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		if c == nil {
			t.Fatalf("nil client passed to presign")
		}
		return &s3.PresignClient{}
	}

	a := NewTranscriptArchive(nil, s3TestConfig())
	store, err := a.objectStore(context.Background())
	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, "http://127.0.0.1:9000", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)
}

func TestNewStore_LoadError(t *testing.T) {
	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}

	f := newFixture(t)
	u := f.register(t, "alice")

	a := NewTranscriptArchive(f.transcripts, s3TestConfig())
	_, err := a.Export(context.Background(), u, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load-fail")
}
