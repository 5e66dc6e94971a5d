package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/dmitrijs2005/gophtodo/internal/server/config"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
	"github.com/google/uuid"
)

const ExportURLValidity = 15 * time.Minute

var (
	loadDefaultAWSConfig  = config.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}
)

type objectStore interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type s3Store struct {
	*s3.Client
	presign *s3.PresignClient
}

func (s *s3Store) PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	return s.presign.PresignGetObject(ctx, in, optFns...)
}

// Export describes an uploaded transcript snapshot.
type Export struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

type transcriptDocument struct {
	UserID     string            `json:"user_id"`
	Username   string            `json:"username"`
	ExportedAt time.Time         `json:"exported_at"`
	Messages   []*models.Message `json:"messages"`
}

// TranscriptArchive uploads transcript snapshots to S3-compatible storage
// and hands out short-lived download links.
type TranscriptArchive struct {
	transcripts *TranscriptService
	config      *sc.Config
	now         func() time.Time

	once  sync.Once
	store objectStore
	err   error
}

func NewTranscriptArchive(transcripts *TranscriptService, cfg *sc.Config) *TranscriptArchive {
	return &TranscriptArchive{transcripts: transcripts, config: cfg, now: time.Now}
}

// TranscriptKey returns a fresh object key under transcripts/YYYY/MM/DD/.
func TranscriptKey(d time.Time) string {
	d = d.UTC()
	return fmt.Sprintf("transcripts/%04d/%02d/%02d/%s.json", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (a *TranscriptArchive) newStore(ctx context.Context) (objectStore, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(a.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			a.config.S3RootUser,
			a.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(a.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return &s3Store{Client: client, presign: newS3PresignClient(client)}, nil
}

func (a *TranscriptArchive) objectStore(ctx context.Context) (objectStore, error) {
	a.once.Do(func() {
		if a.store == nil {
			a.store, a.err = a.newStore(ctx)
		}
	})
	return a.store, a.err
}

// Export uploads the user's transcript (up to limit entries) as JSON and
// returns a presigned GET link for it.
func (a *TranscriptArchive) Export(ctx context.Context, user *models.User, limit int) (*Export, error) {
	store, err := a.objectStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("object storage: %w", err)
	}

	msgs, err := a.transcripts.Recent(ctx, user.ConversationID, limit)
	if err != nil {
		return nil, err
	}

	now := a.now().UTC()
	body, err := json.Marshal(transcriptDocument{
		UserID:     user.ID,
		Username:   user.UserName,
		ExportedAt: now,
		Messages:   msgs,
	})
	if err != nil {
		return nil, fmt.Errorf("error encoding transcript: %w", err)
	}

	bucket := a.config.S3Bucket
	key := TranscriptKey(now)

	if _, err := store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	}); err != nil {
		return nil, fmt.Errorf("error uploading transcript: %w", err)
	}

	req, err := store.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(ExportURLValidity))
	if err != nil {
		return nil, fmt.Errorf("error presigning transcript: %w", err)
	}

	return &Export{URL: req.URL, Key: key, ExpiresAt: now.Add(ExportURLValidity)}, nil
}
